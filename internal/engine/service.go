package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"streetfire-server/internal/domain"
	"streetfire-server/internal/engine/handlers"
	"streetfire-server/internal/engine/handlers/actions"
	"streetfire-server/internal/engine/handlers/admin"
	"streetfire-server/internal/engine/handlers/events"
	"streetfire-server/pkg/api"
	"streetfire-server/pkg/logger"
)

// ErrKilled - Run завершился командой KillGame.
var ErrKilled = errors.New("game killed by operator")

// Source - откуда движок берёт команды (internal/queue.Queue).
type Source interface {
	Pop() (api.Command, bool)
}

// Publisher - куда движок отправляет события (internal/server.Server).
type Publisher interface {
	Broadcast(ev api.Event) error
}

type GameService struct {
	cfg Config

	mu    sync.Mutex
	match *domain.Match

	handlers map[api.Kind]handlers.HandlerFunc
}

func NewService(cfg Config) *GameService {
	s := &GameService{
		cfg:      cfg,
		match:    domain.NewMatch(cfg.Rules),
		handlers: make(map[api.Kind]handlers.HandlerFunc),
	}

	s.registerHandlers()
	return s
}

func (s *GameService) registerHandlers() {
	s.handlers[api.KindRefresh] = handlers.WithEmptyPayload(actions.HandleRefresh)
	s.handlers[api.KindKillGame] = handlers.WithEmptyPayload(actions.HandleKillGame)
	s.handlers[api.KindTogglePause] = handlers.WithEmptyPayload(actions.HandleTogglePause)
	s.handlers[api.KindInitiateNextState] = handlers.WithPayload(actions.HandleInitiateNextState)
	s.handlers[api.KindExecutePlayerAction] = handlers.WithPayload(actions.HandleExecutePlayerAction)
	s.handlers[api.KindActivateEmitter] = handlers.WithPayload(actions.HandleActivateEmitter)
	s.handlers[api.KindUpdatePlayerStatus] = handlers.WithPayload(admin.HandleUpdatePlayerStatus)
	s.handlers[api.KindExecuteRingmasterAction] = handlers.WithPayload(actions.HandleExecuteRingmasterAction)
	s.handlers[api.KindExecuteGenericAction] = handlers.WithPayload(actions.HandleExecuteGenericAction)
	s.handlers[api.KindQuerySystemInfo] = handlers.WithEmptyPayload(admin.HandleQuerySystemInfo)
}

// Snapshot - текущее состояние матча.
func (s *GameService) Snapshot() api.GameInfoRefresh {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.match.Snapshot()
}

// Handle выполняет одну команду и возвращает порождённые события.
func (s *GameService) Handle(cmd api.Command) (handlers.Result, error) {
	handler, ok := s.handlers[cmd.Kind()]
	if !ok {
		return handlers.EmptyResult(), fmt.Errorf("no handler for %s", cmd.Kind())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return handler(handlers.Context{Match: s.match}, cmd)
}

// Tick - одна секунда игрового времени.
func (s *GameService) Tick() []api.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.match
	out := events.DecayEmitters(m)

	switch m.State {
	case api.RoundBeginningState:
		out = append(out, events.AdvanceCountdown(m)...)
	case api.RoundInPlayState, api.TieBreakerRoundState:
		out = append(out, events.TickRound(m)...)
	}
	return out
}

// Run - главный цикл: команды из src, события в pub, таймеры по TickInterval.
// Возвращает nil, когда очередь закрыта, ErrKilled после KillGame
// и ctx.Err() при отмене контекста.
func (s *GameService) Run(ctx context.Context, src Source, pub Publisher) error {
	logger.Log.Info("[LOOP] Game loop started")
	defer logger.Log.Info("[LOOP] Game loop stopped")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pop блокирующий, поэтому читаем очередь в отдельной горутине.
	// Она завершится, когда очередь закроют или Run вернётся.
	cmds := make(chan api.Command)
	go func() {
		defer close(cmds)
		for {
			cmd, ok := src.Pop()
			if !ok {
				return
			}
			select {
			case cmds <- cmd:
			case <-ctx.Done():
				return
			}
		}
	}()

	var tick <-chan time.Time
	if s.cfg.TickInterval > 0 {
		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}
			res, err := s.Handle(cmd)
			if err != nil {
				logger.Log.WithError(err).WithField("kind", cmd.Kind().String()).Warn("Command failed")
			}
			s.publish(pub, res.Events)
			if res.Stop {
				return ErrKilled
			}

		case <-tick:
			s.publish(pub, s.Tick())
		}
	}
}

func (s *GameService) publish(pub Publisher, evs []api.Event) {
	for _, ev := range evs {
		if err := pub.Broadcast(ev); err != nil {
			logger.Log.WithError(err).WithFields(logrus.Fields{
				"kind": ev.Kind().String(),
			}).Error("Event not published")
		}
	}
}
