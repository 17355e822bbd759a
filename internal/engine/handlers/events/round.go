// Package events - переходы, которые движок делает сам: отсчёт, таймер раунда,
// завершение раунда и матча, угасание пламени.
package events

import (
	"streetfire-server/internal/domain"
	"streetfire-server/pkg/api"
)

// BeginRound переводит матч в ROUND_BEGINNING и запускает отсчёт.
// Из IDLE, RINGMASTER и MATCH_ENDED начинается новый матч.
func BeginRound(m *domain.Match) []api.Event {
	switch m.State {
	case api.IdleState, api.RingmasterState, api.MatchEndedState:
		m.Reset()
	}

	var out []api.Event
	out = append(out, m.SetState(api.RoundBeginningState))
	out = append(out, refill(m)...)

	m.Round++
	m.Countdown = api.CountdownThree
	m.RoundTimer = m.Rules.RoundSeconds
	m.TimedOut = false

	out = append(out, api.RoundBeginTimerChanged{Countdown: m.Countdown, Round: m.Round})
	return out
}

// EnterTieBreaker - дополнительный раунд без отсчёта.
func EnterTieBreaker(m *domain.Match) []api.Event {
	var out []api.Event
	out = append(out, m.SetState(api.TieBreakerRoundState))
	out = append(out, refill(m)...)

	m.Round++
	m.RoundTimer = m.Rules.RoundSeconds
	m.TimedOut = false
	out = append(out, api.RoundPlayTimerChanged{Seconds: m.RoundTimer})
	return out
}

// AdvanceCountdown - один шаг отсчёта THREE -> TWO -> ONE -> FIGHT -> раунд.
func AdvanceCountdown(m *domain.Match) []api.Event {
	if m.Countdown == api.CountdownFight {
		m.Countdown = api.CountdownUnknown
		return []api.Event{
			m.SetState(api.RoundInPlayState),
			api.RoundPlayTimerChanged{Seconds: m.RoundTimer},
		}
	}

	m.Countdown++
	return []api.Event{api.RoundBeginTimerChanged{Countdown: m.Countdown, Round: m.Round}}
}

// TickRound - секунда боя: таймер и восстановление очков действий.
func TickRound(m *domain.Match) []api.Event {
	var out []api.Event

	if m.RoundTimer > 0 {
		m.RoundTimer--
		out = append(out, api.RoundPlayTimerChanged{Seconds: m.RoundTimer})
	}

	for _, p := range m.Players {
		if p.ActionPoints >= m.Rules.MaxActionPoints {
			continue
		}
		old := p.ActionPoints
		p.ActionPoints = min(old+m.Rules.ActionPointRegen, m.Rules.MaxActionPoints)
		out = append(out, api.PlayerActionPointsChanged{Player: p.Num, Old: old, New: p.ActionPoints})
	}

	if m.RoundTimer == 0 {
		out = append(out, FinishRound(m, true)...)
	}
	return out
}

// FinishRound фиксирует результат раунда по здоровью и, если нужно, завершает матч.
func FinishRound(m *domain.Match, timedOut bool) []api.Event {
	tieBreaker := m.State == api.TieBreakerRoundState
	result := m.Leader()

	m.TimedOut = timedOut
	m.RoundResults = append(m.RoundResults, result)
	for _, p := range m.Players {
		p.Blocking = false
	}

	out := []api.Event{api.RoundEnded{
		Round:         m.Round,
		Result:        result,
		TimedOut:      timedOut,
		Player1Health: m.Players[0].Health,
		Player2Health: m.Players[1].Health,
	}}

	winner := api.MatchUndecided
	switch {
	case m.Wins(1) >= m.Rules.RoundsToWin || (tieBreaker && result == api.RoundPlayer1Victory):
		winner = api.MatchPlayer1Victory
	case m.Wins(2) >= m.Rules.RoundsToWin || (tieBreaker && result == api.RoundPlayer2Victory):
		winner = api.MatchPlayer2Victory
	}

	if winner == api.MatchUndecided {
		out = append(out, m.SetState(api.RoundEndedState))
		return out
	}

	m.Result = winner
	out = append(out,
		api.MatchEnded{
			Result:        winner,
			Player1Health: m.Players[0].Health,
			Player2Health: m.Players[1].Health,
		},
		m.SetState(api.MatchEndedState),
	)
	return out
}

// ReturnToIdle сбрасывает матч и гасит все эмиттеры.
func ReturnToIdle(m *domain.Match) []api.Event {
	m.Reset()
	out := []api.Event{m.SetState(api.IdleState)}
	out = append(out, refill(m)...)
	return append(out, ExtinguishEmitters(m)...)
}

// DecayEmitters гасит горящие эмиттеры. Пламя живёт один тик,
// если атака не задала ему Hold.
func DecayEmitters(m *domain.Match) []api.Event {
	return extinguish(m, false)
}

// ExtinguishEmitters гасит все эмиттеры сразу, не глядя на Hold.
func ExtinguishEmitters(m *domain.Match) []api.Event {
	return extinguish(m, true)
}

func extinguish(m *domain.Match, force bool) []api.Event {
	var out []api.Event
	for _, loc := range []api.Location{api.LeftRail, api.RightRail, api.OuterRing} {
		bank := m.Emitters[loc]
		for i := range bank {
			if !bank[i].IsLit() {
				continue
			}
			if bank[i].Hold > 0 && !force {
				bank[i].Hold--
				continue
			}
			bank[i] = domain.Emitter{}
			out = append(out, api.FireEmitterChanged{Location: loc, Index: uint16(i)})
		}
	}
	return out
}

// refill восстанавливает бойцов и сообщает об изменившихся значениях.
func refill(m *domain.Match) []api.Event {
	var out []api.Event
	for _, p := range m.Players {
		if p.Health != m.Rules.MaxHealth {
			out = append(out, api.PlayerHealthChanged{Player: p.Num, Old: p.Health, New: m.Rules.MaxHealth})
		}
		if p.ActionPoints != m.Rules.MaxActionPoints {
			out = append(out, api.PlayerActionPointsChanged{Player: p.Num, Old: p.ActionPoints, New: m.Rules.MaxActionPoints})
		}
	}
	m.RefillPlayers()
	return out
}
