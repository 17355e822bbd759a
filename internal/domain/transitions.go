package domain

import (
	"errors"
	"fmt"

	"streetfire-server/pkg/api"
)

var ErrTransition = errors.New("state transition not allowed")

// transitions - куда оператор может перевести игру командой InitiateNextState.
// Переходы по таймерам (отсчёт -> раунд, конец раунда) движок делает сам.
// PAUSED здесь не участвует: пауза переключается отдельной командой.
var transitions = map[api.GameState][]api.GameState{
	api.IdleState:            {api.RingmasterState, api.RoundBeginningState},
	api.RingmasterState:      {api.IdleState, api.RoundBeginningState},
	api.RoundBeginningState:  {api.IdleState},
	api.RoundInPlayState:     {api.IdleState, api.RoundEndedState},
	api.RoundEndedState:      {api.IdleState, api.RoundBeginningState, api.TieBreakerRoundState},
	api.TieBreakerRoundState: {api.IdleState, api.RoundEndedState},
	api.MatchEndedState:      {api.IdleState, api.RingmasterState, api.RoundBeginningState},
}

// CheckTransition проверяет ручной переход из текущего состояния матча.
func (m *Match) CheckTransition(to api.GameState) error {
	if m.State == api.PausedState {
		return fmt.Errorf("%s -> %s: game is paused: %w", m.State, to, ErrTransition)
	}
	for _, allowed := range transitions[m.State] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%s -> %s: %w", m.State, to, ErrTransition)
}

// SetState меняет состояние и возвращает событие о переходе.
func (m *Match) SetState(to api.GameState) api.GameStateChanged {
	ev := api.GameStateChanged{Old: m.State, New: to}
	m.State = to
	return ev
}

// TogglePause ставит игру на паузу или снимает её.
// Пауза невозможна вне игры (NO_STATE).
func (m *Match) TogglePause() (api.GameStateChanged, error) {
	switch m.State {
	case api.PausedState:
		return m.SetState(m.PausedFrom), nil
	case api.NoState, api.StateUnknown:
		return api.GameStateChanged{}, fmt.Errorf("cannot pause in %s: %w", m.State, ErrTransition)
	}
	m.PausedFrom = m.State
	return m.SetState(api.PausedState), nil
}
