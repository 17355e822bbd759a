package actions

import (
	"fmt"

	"streetfire-server/internal/domain"
	"streetfire-server/internal/engine/handlers"
	"streetfire-server/internal/engine/handlers/events"
	"streetfire-server/pkg/api"
)

// HandleRefresh - полный снимок состояния для GUI.
func HandleRefresh(ctx handlers.Context) (handlers.Result, error) {
	var res handlers.Result
	res.Emit(ctx.Match.Snapshot())
	return res, nil
}

// HandleKillGame останавливает движок.
func HandleKillGame(ctx handlers.Context) (handlers.Result, error) {
	return handlers.Result{Stop: true}, nil
}

// HandleInitiateNextState - ручной переход оператора.
func HandleInitiateNextState(ctx handlers.Context, cmd api.InitiateNextState) (handlers.Result, error) {
	m := ctx.Match
	if err := m.CheckTransition(cmd.State); err != nil {
		return handlers.EmptyResult(), err
	}

	var res handlers.Result
	switch cmd.State {
	case api.IdleState:
		res.Emit(events.ReturnToIdle(m)...)

	case api.RoundBeginningState:
		if m.State == api.RoundEndedState && len(m.RoundResults) >= domain.MaxRounds {
			return handlers.EmptyResult(), fmt.Errorf("round limit %d reached", domain.MaxRounds)
		}
		res.Emit(events.BeginRound(m)...)

	case api.TieBreakerRoundState:
		res.Emit(events.EnterTieBreaker(m)...)

	case api.RoundEndedState:
		// Оператор досрочно завершает раунд
		res.Emit(events.FinishRound(m, false)...)

	default:
		res.Emit(m.SetState(cmd.State))
	}
	return res, nil
}

func HandleTogglePause(ctx handlers.Context) (handlers.Result, error) {
	ev, err := ctx.Match.TogglePause()
	if err != nil {
		return handlers.EmptyResult(), err
	}
	return handlers.Result{Events: []api.Event{ev}}, nil
}
