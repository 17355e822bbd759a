package actions

import (
	"errors"
	"fmt"

	"streetfire-server/internal/domain"
	"streetfire-server/internal/engine/handlers"
	"streetfire-server/internal/engine/handlers/events"
	"streetfire-server/pkg/api"
)

var (
	ErrNotFighting  = errors.New("players can act only during a round")
	ErrActionPoints = errors.New("not enough action points")
)

// HandleExecutePlayerAction - блок или атака игрока.
func HandleExecutePlayerAction(ctx handlers.Context, cmd api.ExecutePlayerAction) (handlers.Result, error) {
	m := ctx.Match
	if !m.IsFighting() {
		return handlers.EmptyResult(), fmt.Errorf("%s in %s: %w", cmd.Action, m.State, ErrNotFighting)
	}

	if cmd.Action == api.Block {
		return block(m, cmd)
	}

	move, err := domain.ResolveMove(cmd.Action, cmd.LeftHand, cmd.RightHand)
	if err != nil {
		return handlers.EmptyResult(), err
	}

	attacker := m.Player(cmd.Player)
	defender := m.Opponent(cmd.Player)

	var res handlers.Result

	// 1. Трата очков
	oldPoints := attacker.ActionPoints
	if !attacker.Spend(move.Cost) {
		return handlers.EmptyResult(), fmt.Errorf("player %d %s: %w", cmd.Player, move.Attack, ErrActionPoints)
	}
	res.Emit(api.PlayerAttackAction{Player: cmd.Player, Attack: move.Attack})
	if attacker.ActionPoints != oldPoints {
		res.Emit(api.PlayerActionPointsChanged{Player: cmd.Player, Old: oldPoints, New: attacker.ActionPoints})
	}

	// 2. Пламя вдоль рельса атакующего
	rail := domain.RailOf(cmd.Player)
	who := api.PlayerEntity(cmd.Player)
	for i := range m.Emitters[rail] {
		e := &m.Emitters[rail][i]
		e.Set(who, api.FractionScale)
		res.Emit(emitterChanged(rail, i, *e))
	}

	// 3. Удар или блок соперника
	strike(m, &res, defender, move.Damage)
	return res, nil
}

// strike наносит урон защитнику. Поднятый блок поглощает удар целиком.
func strike(m *domain.Match, res *handlers.Result, defender *domain.Player, damage float32) {
	if defender.Blocking {
		defender.Blocking = false
		res.Emit(api.PlayerBlockAction{Player: defender.Num, Effective: true})
		return
	}

	oldHealth := defender.Health
	defender.Damage(damage)
	res.Emit(api.PlayerHealthChanged{Player: defender.Num, Old: oldHealth, New: defender.Health})

	if defender.IsDead() {
		res.Emit(events.FinishRound(m, false)...)
	}
}

func block(m *domain.Match, cmd api.ExecutePlayerAction) (handlers.Result, error) {
	p := m.Player(cmd.Player)
	if p.Blocking {
		return handlers.EmptyResult(), nil
	}

	oldPoints := p.ActionPoints
	if !p.Spend(m.Rules.BlockCost) {
		return handlers.EmptyResult(), fmt.Errorf("player %d block: %w", cmd.Player, ErrActionPoints)
	}
	p.Blocking = true

	var res handlers.Result
	// Effective=false: блок поднят, но ещё ничего не отразил.
	res.Emit(api.PlayerBlockAction{Player: cmd.Player, Effective: false})
	if p.ActionPoints != oldPoints {
		res.Emit(api.PlayerActionPointsChanged{Player: cmd.Player, Old: oldPoints, New: p.ActionPoints})
	}
	return res, nil
}

func emitterChanged(loc api.Location, index int, e domain.Emitter) api.FireEmitterChanged {
	return api.FireEmitterChanged{
		Location:   loc,
		Index:      uint16(index),
		Player1:    e.Player1,
		Player2:    e.Player2,
		Ringmaster: e.Ringmaster,
	}
}
