package admin

import (
	"streetfire-server/internal/engine/handlers"
	"streetfire-server/pkg/api"
)

// HandleUpdatePlayerStatus включает или выключает неограниченные ходы игрока.
// При включении очки действий сразу восполняются.
func HandleUpdatePlayerStatus(ctx handlers.Context, cmd api.UpdatePlayerStatus) (handlers.Result, error) {
	m := ctx.Match
	p := m.Player(cmd.Player)
	p.UnlimitedMoves = cmd.UnlimitedMoves

	var res handlers.Result
	if cmd.UnlimitedMoves && p.ActionPoints < m.Rules.MaxActionPoints {
		old := p.ActionPoints
		p.ActionPoints = m.Rules.MaxActionPoints
		res.Emit(api.PlayerActionPointsChanged{Player: p.Num, Old: old, New: p.ActionPoints})
	}
	// Флаг входит только в полный снимок, поэтому отправляем его.
	res.Emit(m.Snapshot())
	return res, nil
}
