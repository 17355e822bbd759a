package engine

import (
	"errors"
	"fmt"

	"streetfire-server/internal/domain"
	"streetfire-server/pkg/api"
)

// ErrRejected - команда корректна по протоколу, но этот движок её не примет.
var ErrRejected = errors.New("command rejected")

// Factory проверяет команды до постановки в очередь (server.CommandFactory).
// Хранит только неизменяемые правила, поэтому безопасна для вызова из разных соединений.
type Factory struct {
	rules domain.Rules
}

func NewFactory(rules domain.Rules) *Factory {
	return &Factory{rules: rules}
}

func (f *Factory) Build(cmd api.Command) (api.Command, error) {
	switch c := cmd.(type) {
	case api.ActivateEmitter:
		if n := f.emitters(c.Location); int(c.Index) >= n {
			return nil, fmt.Errorf("emitter %s[%d], only %d available: %w", c.Location, c.Index, n, ErrRejected)
		}

	case api.ExecuteGenericAction:
		if int(c.FlameWidth) > f.rules.EmittersPerRail {
			return nil, fmt.Errorf("flame width %d, rail has %d emitters: %w", c.FlameWidth, f.rules.EmittersPerRail, ErrRejected)
		}

	case api.InitiateNextState:
		switch c.State {
		case api.NoState, api.PausedState:
			return nil, fmt.Errorf("cannot initiate %s: %w", c.State, ErrRejected)
		}
	}
	return cmd, nil
}

func (f *Factory) emitters(loc api.Location) int {
	switch loc {
	case api.LeftRail, api.RightRail:
		return f.rules.EmittersPerRail
	case api.OuterRing:
		return f.rules.OuterRingEmitters
	}
	return 0
}
