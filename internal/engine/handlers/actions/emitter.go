package actions

import (
	"streetfire-server/internal/engine/handlers"
	"streetfire-server/pkg/api"
)

// HandleActivateEmitter зажигает эмиттер от имени перечисленных сущностей.
// Пустое множество сущностей ничего не меняет.
func HandleActivateEmitter(ctx handlers.Context, cmd api.ActivateEmitter) (handlers.Result, error) {
	e, err := ctx.Match.Emitter(cmd.Location, int(cmd.Index))
	if err != nil {
		return handlers.EmptyResult(), err
	}

	before := *e
	for _, who := range cmd.Entities.Entities() {
		e.Set(who, cmd.Intensity)
	}
	if *e == before {
		return handlers.EmptyResult(), nil
	}

	var res handlers.Result
	res.Emit(emitterChanged(cmd.Location, int(cmd.Index), *e))
	return res, nil
}
