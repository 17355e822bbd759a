package domain

// Параметры поединка по умолчанию
const (
	MaxHealth       = 100
	MaxActionPoints = 100
	// Восстановление очков действий за один тик движка
	ActionPointRegen = 10
	BlockCost        = 5

	RoundSeconds = 60
	RoundsToWin  = 2
	// Больше результатов раундов протокол не передаёт.
	MaxRounds = 255
)

// Количество эмиттеров на арене
const (
	EmittersPerRail   = 8
	OuterRingEmitters = 16
)

// Rules - настраиваемые параметры матча.
type Rules struct {
	MaxHealth         float32
	MaxActionPoints   float32
	ActionPointRegen  float32
	BlockCost         float32
	RoundSeconds      uint16
	RoundsToWin       int
	EmittersPerRail   int
	OuterRingEmitters int
}

func DefaultRules() Rules {
	return Rules{
		MaxHealth:         MaxHealth,
		MaxActionPoints:   MaxActionPoints,
		ActionPointRegen:  ActionPointRegen,
		BlockCost:         BlockCost,
		RoundSeconds:      RoundSeconds,
		RoundsToWin:       RoundsToWin,
		EmittersPerRail:   EmittersPerRail,
		OuterRingEmitters: OuterRingEmitters,
	}
}
