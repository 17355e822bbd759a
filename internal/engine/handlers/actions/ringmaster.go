package actions

import (
	"errors"
	"fmt"

	"streetfire-server/internal/engine/handlers"
	"streetfire-server/pkg/api"
)

var ErrRingmasterBusy = errors.New("ringmaster can act only between fights")

// HandleExecuteRingmasterAction зажигает узор ведущего.
// Арена принадлежит ведущему только вне боя и не на паузе.
func HandleExecuteRingmasterAction(ctx handlers.Context, cmd api.ExecuteRingmasterAction) (handlers.Result, error) {
	m := ctx.Match
	switch m.State {
	case api.IdleState, api.RingmasterState, api.RoundEndedState, api.MatchEndedState:
	default:
		return handlers.EmptyResult(), fmt.Errorf("%s in %s: %w", cmd.Action, m.State, ErrRingmasterBusy)
	}

	var res handlers.Result
	res.Emit(api.RingmasterActionPerformed{Action: cmd.Action})

	for _, ref := range m.RingmasterTargets(cmd.Action) {
		e, err := m.Emitter(ref.Location, ref.Index)
		if err != nil {
			return res, err
		}
		if e.Ringmaster == api.FractionScale {
			continue
		}
		e.Set(api.Ringmaster, api.FractionScale)
		res.Emit(emitterChanged(ref.Location, ref.Index, *e))
	}
	return res, nil
}
