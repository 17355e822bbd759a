package actions

import (
	"fmt"

	"streetfire-server/internal/domain"
	"streetfire-server/internal/engine/handlers"
	"streetfire-server/pkg/api"
)

// HandleExecuteGenericAction - атака с параметрами оператора.
// Очки действий не тратятся: оператор сам решает, что показать.
// Пламя зажигается на FlameWidth первых эмиттерах рельса и держится
// DurationSeconds. Ускорение влияет только на бег пламени по железу,
// а здесь эмиттеры горят целиком, поэтому оно лишь проверяется.
func HandleExecuteGenericAction(ctx handlers.Context, cmd api.ExecuteGenericAction) (handlers.Result, error) {
	m := ctx.Match
	if !m.IsFighting() {
		return handlers.EmptyResult(), fmt.Errorf("%s in %s: %w", api.CustomAttack, m.State, ErrNotFighting)
	}

	rail := domain.RailOf(cmd.Player)
	width := min(int(cmd.FlameWidth), m.EmitterCount(rail))
	hold := domain.HoldTicks(cmd.DurationSeconds)
	who := api.PlayerEntity(cmd.Player)

	var res handlers.Result
	res.Emit(api.PlayerAttackAction{Player: cmd.Player, Attack: api.CustomAttack})

	for i := 0; i < width; i++ {
		e := &m.Emitters[rail][i]
		e.Set(who, api.FractionScale)
		e.Hold = max(e.Hold, hold)
		res.Emit(emitterChanged(rail, i, *e))
	}

	damage := domain.GenericDamage(cmd.DamagePerFlame, width, domain.HandsOf(cmd.LeftHand, cmd.RightHand))
	strike(m, &res, m.Opponent(cmd.Player), damage)
	return res, nil
}
