package api

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrOutOfRange = errors.New("value out of range")

// FractionScale - сколько единиц Fraction соответствует 1.0.
const FractionScale = 10000

// Fraction - число с фиксированной точкой в диапазоне [0, 1].
// Интенсивность пламени передаётся по сети именно так, без float.
type Fraction uint16

// FractionFromFloat переводит float в Fraction.
// Значения вне [0, 1] и NaN не обрезаются, а возвращают ошибку.
func FractionFromFloat(f float64) (Fraction, error) {
	if math.IsNaN(f) || f < 0 || f > 1 {
		return 0, fmt.Errorf("fraction %v: %w", f, ErrOutOfRange)
	}
	return Fraction(math.Round(f * FractionScale)), nil
}

// MustFraction - вариант для констант и тестов.
func MustFraction(f float64) Fraction {
	v, err := FractionFromFloat(f)
	if err != nil {
		panic(err)
	}
	return v
}

func (f Fraction) Float() float64 { return float64(f) / FractionScale }
func (f Fraction) Valid() bool    { return f <= FractionScale }

func (f Fraction) String() string { return fmt.Sprintf("%.4f", f.Float()) }

// EntitySet - множество сущностей в виде битовой маски (бит = код Entity).
type EntitySet uint8

// NewEntitySet собирает множество. Неизвестные сущности в него не попадают,
// строгая проверка входа - ParseEntitySet.
func NewEntitySet(entities ...Entity) EntitySet {
	var s EntitySet
	for _, e := range entities {
		s = s.With(e)
	}
	return s
}

// ParseEntitySet - строгий вариант NewEntitySet: неизвестная сущность это ошибка.
func ParseEntitySet(entities ...Entity) (EntitySet, error) {
	var s EntitySet
	for _, e := range entities {
		if !e.Valid() {
			return 0, fmt.Errorf("entity code %d: %w", e, ErrOutOfRange)
		}
		s = s.With(e)
	}
	return s, nil
}

// With добавляет сущность. Неизвестные коды игнорируются: иначе сдвиг
// за пределы uint8 дал бы пустую, но "валидную" маску.
func (s EntitySet) With(e Entity) EntitySet {
	if !e.Valid() {
		return s
	}
	return s | 1<<e
}

func (s EntitySet) Has(e Entity) bool { return e.Valid() && s&(1<<e) != 0 }

// Entities возвращает элементы в порядке их кодов.
func (s EntitySet) Entities() []Entity {
	var out []Entity
	for e := Player1; e <= Ringmaster; e++ {
		if s.Has(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s EntitySet) Len() int { return len(s.Entities()) }

// Valid - в маске нет битов, не соответствующих известным сущностям.
func (s EntitySet) Valid() bool {
	return s&^(NewEntitySet(Player1, Player2, Ringmaster)) == 0
}

func (s EntitySet) String() string {
	parts := make([]string, 0, 3)
	for _, e := range s.Entities() {
		parts = append(parts, e.String())
	}
	return "{" + strings.Join(parts, ",") + "}"
}
