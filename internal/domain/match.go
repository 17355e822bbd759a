package domain

import (
	"fmt"
	"slices"

	"streetfire-server/pkg/api"
)

// Player - состояние одного бойца.
type Player struct {
	Num            uint8
	Health         float32
	ActionPoints   float32
	UnlimitedMoves bool
	// Blocking - поднят блок, следующая атака соперника будет поглощена.
	Blocking bool
}

// Spend списывает очки действий. Без неограниченных ходов нехватка очков - отказ.
func (p *Player) Spend(cost float32) bool {
	if p.UnlimitedMoves {
		return true
	}
	if p.ActionPoints < cost {
		return false
	}
	p.ActionPoints -= cost
	return true
}

// Damage уменьшает здоровье, не опуская его ниже нуля.
func (p *Player) Damage(amount float32) {
	p.Health -= amount
	if p.Health < 0 {
		p.Health = 0
	}
}

func (p *Player) IsDead() bool { return p.Health <= 0 }

// Emitter - вклад каждого участника в пламя одного эмиттера.
type Emitter struct {
	Player1    api.Fraction
	Player2    api.Fraction
	Ringmaster api.Fraction
	// Hold - сколько тиков пламя ещё переживёт угасание.
	Hold uint16
}

func (e Emitter) IsLit() bool { return e.Player1 != 0 || e.Player2 != 0 || e.Ringmaster != 0 }

func (e *Emitter) Set(who api.Entity, f api.Fraction) {
	switch who {
	case api.Player1:
		e.Player1 = f
	case api.Player2:
		e.Player2 = f
	case api.Ringmaster:
		e.Ringmaster = f
	}
}

// Match - полное состояние игры, которое видит движок.
type Match struct {
	Rules Rules

	State api.GameState
	// PausedFrom - состояние, в которое вернёт повторный TogglePause.
	PausedFrom api.GameState

	Round        uint8
	RoundResults []api.RoundResult
	Result       api.MatchResult

	Countdown  api.Countdown
	RoundTimer uint16
	TimedOut   bool

	Players  [2]*Player
	Emitters map[api.Location][]Emitter
}

func NewMatch(rules Rules) *Match {
	m := &Match{
		Rules: rules,
		State: api.IdleState,
		Players: [2]*Player{
			{Num: 1},
			{Num: 2},
		},
		Emitters: map[api.Location][]Emitter{
			api.LeftRail:  make([]Emitter, rules.EmittersPerRail),
			api.RightRail: make([]Emitter, rules.EmittersPerRail),
			api.OuterRing: make([]Emitter, rules.OuterRingEmitters),
		},
	}
	m.RefillPlayers()
	return m
}

// Player возвращает бойца по номеру 1 или 2.
func (m *Match) Player(num uint8) *Player {
	if num != 1 && num != 2 {
		return nil
	}
	return m.Players[num-1]
}

func (m *Match) Opponent(num uint8) *Player {
	return m.Player(3 - num)
}

func (m *Match) RefillPlayers() {
	for _, p := range m.Players {
		p.Health = m.Rules.MaxHealth
		p.ActionPoints = m.Rules.MaxActionPoints
		p.Blocking = false
	}
}

// EmitterCount - число эмиттеров в заданном расположении.
func (m *Match) EmitterCount(loc api.Location) int {
	return len(m.Emitters[loc])
}

// Emitter возвращает указатель на эмиттер для изменения.
func (m *Match) Emitter(loc api.Location, index int) (*Emitter, error) {
	bank, ok := m.Emitters[loc]
	if !ok {
		return nil, fmt.Errorf("unknown location %s", loc)
	}
	if index < 0 || index >= len(bank) {
		return nil, fmt.Errorf("emitter %s[%d]: %w", loc, index, api.ErrOutOfRange)
	}
	return &bank[index], nil
}

// RailOf - рельс, вдоль которого бьёт игрок.
func RailOf(player uint8) api.Location {
	if player == 2 {
		return api.RightRail
	}
	return api.LeftRail
}

// IsFighting - состояния, в которых принимаются действия игроков.
func (m *Match) IsFighting() bool {
	return m.State == api.RoundInPlayState || m.State == api.TieBreakerRoundState
}

// Wins - количество выигранных раундов игрока.
func (m *Match) Wins(player uint8) int {
	want := api.RoundPlayer1Victory
	if player == 2 {
		want = api.RoundPlayer2Victory
	}
	n := 0
	for _, r := range m.RoundResults {
		if r == want {
			n++
		}
	}
	return n
}

// Leader - результат раунда по текущему здоровью.
func (m *Match) Leader() api.RoundResult {
	p1, p2 := m.Players[0].Health, m.Players[1].Health
	switch {
	case p1 > p2:
		return api.RoundPlayer1Victory
	case p2 > p1:
		return api.RoundPlayer2Victory
	}
	return api.RoundTie
}

// Reset сбрасывает счёт матча. Здоровье и очки бойцов не трогает:
// их восстанавливает вызывающий, чтобы сообщить GUI об изменениях.
func (m *Match) Reset() {
	m.Round = 0
	m.RoundResults = nil
	m.Result = api.MatchUndecided
	m.Countdown = api.CountdownUnknown
	m.RoundTimer = 0
	m.TimedOut = false
}

// Snapshot - полный снимок для события GameInfoRefresh.
func (m *Match) Snapshot() api.GameInfoRefresh {
	// Пустой список - nil, как его восстанавливает декодер.
	var results []api.RoundResult
	if len(m.RoundResults) > 0 {
		results = slices.Clone(m.RoundResults)
	}

	p1, p2 := m.Players[0], m.Players[1]
	return api.GameInfoRefresh{
		State:                 m.State,
		RoundResults:          results,
		MatchResult:           m.Result,
		Player1Health:         p1.Health,
		Player2Health:         p2.Health,
		Player1ActionPoints:   p1.ActionPoints,
		Player2ActionPoints:   p2.ActionPoints,
		Player1UnlimitedMoves: p1.UnlimitedMoves,
		Player2UnlimitedMoves: p2.UnlimitedMoves,
		Countdown:             m.Countdown,
		RoundTimerSeconds:     m.RoundTimer,
		TimedOut:              m.TimedOut,
	}
}

// SystemInfo - состояние устройств арены. Номера устройств сквозные:
// левый рельс, правый рельс, внешнее кольцо. Все устройства виртуальные
// и всегда отвечают; на паузе и вне игры они разоружены.
func (m *Match) SystemInfo() api.SystemInfoRefresh {
	armed := m.State != api.PausedState && m.State != api.NoState

	var next uint16
	bank := func(loc api.Location) []api.DeviceStatus {
		out := make([]api.DeviceStatus, 0, len(m.Emitters[loc]))
		for _, e := range m.Emitters[loc] {
			out = append(out, api.DeviceStatus{
				DeviceID:   next,
				Responding: true,
				Armed:      armed,
				Flame:      e.IsLit(),
			})
			next++
		}
		return out
	}

	return api.SystemInfoRefresh{
		LeftRail:  bank(api.LeftRail),
		RightRail: bank(api.RightRail),
		OuterRing: bank(api.OuterRing),
	}
}
