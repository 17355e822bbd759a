package engine

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"streetfire-server/internal/domain"
	"streetfire-server/internal/engine/handlers/actions"
	"streetfire-server/internal/queue"
	"streetfire-server/pkg/api"
	"streetfire-server/pkg/codec"
)

// Helper: движок без таймеров, время двигается вызовами Tick
func setupTestService() *GameService {
	cfg := NewConfig()
	cfg.TickInterval = 0
	cfg.Rules.RoundSeconds = 3
	return NewService(cfg)
}

func mustHandle(t *testing.T, s *GameService, cmd api.Command) []api.Event {
	t.Helper()
	res, err := s.Handle(cmd)
	if err != nil {
		t.Fatalf("Handle(%s): %v", cmd.Kind(), err)
	}
	return res.Events
}

// find возвращает первое событие типа T.
func find[T api.Event](evs []api.Event) (T, bool) {
	for _, ev := range evs {
		if v, ok := ev.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func count[T api.Event](evs []api.Event) int {
	n := 0
	for _, ev := range evs {
		if _, ok := ev.(T); ok {
			n++
		}
	}
	return n
}

// startRound проводит матч из IDLE через отсчёт в ROUND_IN_PLAY.
func startRound(t *testing.T, s *GameService) {
	t.Helper()
	evs := mustHandle(t, s, api.InitiateNextState{State: api.RoundBeginningState})
	if timer, ok := find[api.RoundBeginTimerChanged](evs); !ok || timer.Countdown != api.CountdownThree {
		t.Fatalf("round did not start with THREE: %#v", evs)
	}
	for i := 0; i < 4; i++ {
		s.Tick()
	}
	if st := s.Snapshot().State; st != api.RoundInPlayState {
		t.Fatalf("state after countdown = %s, want ROUND_IN_PLAY", st)
	}
}

func TestFactory(t *testing.T) {
	f := NewFactory(domain.DefaultRules())

	tests := []struct {
		name    string
		cmd     api.Command
		wantErr bool
	}{
		{"last rail emitter", api.ActivateEmitter{Location: api.LeftRail, Index: 7}, false},
		{"rail overflow", api.ActivateEmitter{Location: api.RightRail, Index: 8}, true},
		{"last ring emitter", api.ActivateEmitter{Location: api.OuterRing, Index: 15}, false},
		{"ring overflow", api.ActivateEmitter{Location: api.OuterRing, Index: 16}, true},
		{"pause via next state", api.InitiateNextState{State: api.PausedState}, true},
		{"no state", api.InitiateNextState{State: api.NoState}, true},
		{"ringmaster state", api.InitiateNextState{State: api.RingmasterState}, false},
		{"kill game", api.KillGame{}, false},
		{"generic full rail", api.ExecuteGenericAction{Player: 1, LeftHand: true, FlameWidth: 8, DurationSeconds: 1}, false},
		{"generic wider than rail", api.ExecuteGenericAction{Player: 1, LeftHand: true, FlameWidth: 9, DurationSeconds: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Build(tt.cmd)
			if tt.wantErr {
				if !errors.Is(err, ErrRejected) {
					t.Errorf("expected ErrRejected, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.cmd {
				t.Errorf("Build changed the command: %#v", got)
			}
		})
	}
}

func TestRefreshReturnsSnapshot(t *testing.T) {
	s := setupTestService()
	evs := mustHandle(t, s, api.Refresh{})

	if len(evs) != 1 {
		t.Fatalf("expected one event, got %d", len(evs))
	}
	snap, ok := evs[0].(api.GameInfoRefresh)
	if !ok {
		t.Fatalf("got %T, want GameInfoRefresh", evs[0])
	}
	if snap.State != api.IdleState || snap.Player1Health != domain.MaxHealth {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestKillGameStops(t *testing.T) {
	s := setupTestService()
	res, err := s.Handle(api.KillGame{})
	if err != nil || !res.Stop {
		t.Errorf("KillGame: stop=%v err=%v", res.Stop, err)
	}
}

func TestCountdownIntoRound(t *testing.T) {
	s := setupTestService()
	mustHandle(t, s, api.InitiateNextState{State: api.RoundBeginningState})

	want := []api.Countdown{api.CountdownTwo, api.CountdownOne, api.CountdownFight}
	for _, c := range want {
		evs := s.Tick()
		timer, ok := find[api.RoundBeginTimerChanged](evs)
		if !ok || timer.Countdown != c || timer.Round != 1 {
			t.Fatalf("tick: got %#v, want countdown %s", evs, c)
		}
	}

	evs := s.Tick()
	change, ok := find[api.GameStateChanged](evs)
	if !ok || change.Old != api.RoundBeginningState || change.New != api.RoundInPlayState {
		t.Errorf("expected transition into ROUND_IN_PLAY, got %#v", evs)
	}
	if timer, ok := find[api.RoundPlayTimerChanged](evs); !ok || timer.Seconds != 3 {
		t.Errorf("expected round timer 3, got %#v", evs)
	}
}

func TestAttackDamagesOpponentAndLightsRail(t *testing.T) {
	s := setupTestService()
	startRound(t, s)

	evs := mustHandle(t, s, api.ExecutePlayerAction{
		Player: 1, Action: api.HadoukenAttack, LeftHand: true, RightHand: true,
	})

	attack, ok := find[api.PlayerAttackAction](evs)
	if !ok || attack.Attack != api.Hadouken || attack.Player != 1 {
		t.Errorf("attack event = %#v", attack)
	}
	points, _ := find[api.PlayerActionPointsChanged](evs)
	if points.Player != 1 || points.Old != 100 || points.New != 75 {
		t.Errorf("action points event = %#v", points)
	}
	health, _ := find[api.PlayerHealthChanged](evs)
	if health.Player != 2 || health.New != 85 {
		t.Errorf("health event = %#v", health)
	}

	if n := count[api.FireEmitterChanged](evs); n != domain.EmittersPerRail {
		t.Errorf("lit %d emitters, want %d", n, domain.EmittersPerRail)
	}
	fire, _ := find[api.FireEmitterChanged](evs)
	if fire.Location != api.LeftRail || fire.Player1 != api.FractionScale {
		t.Errorf("fire event = %#v", fire)
	}

	// Пламя гаснет на следующем тике
	decay := s.Tick()
	if n := count[api.FireEmitterChanged](decay); n != domain.EmittersPerRail {
		t.Errorf("decayed %d emitters, want %d", n, domain.EmittersPerRail)
	}
}

func TestBlockAbsorbsNextAttack(t *testing.T) {
	s := setupTestService()
	startRound(t, s)

	evs := mustHandle(t, s, api.ExecutePlayerAction{Player: 2, Action: api.Block, LeftHand: true, RightHand: true})
	if b, ok := find[api.PlayerBlockAction](evs); !ok || b.Effective {
		t.Errorf("raising a block: %#v", evs)
	}

	evs = mustHandle(t, s, api.ExecutePlayerAction{Player: 1, Action: api.JabAttack, LeftHand: true})
	if b, ok := find[api.PlayerBlockAction](evs); !ok || !b.Effective || b.Player != 2 {
		t.Errorf("block must absorb the jab: %#v", evs)
	}
	if _, ok := find[api.PlayerHealthChanged](evs); ok {
		t.Error("blocked attack must not change health")
	}

	evs = mustHandle(t, s, api.ExecutePlayerAction{Player: 1, Action: api.JabAttack, RightHand: true})
	if _, ok := find[api.PlayerHealthChanged](evs); !ok {
		t.Error("block must be consumed by the first attack")
	}
}

func TestPlayerActionRejected(t *testing.T) {
	s := setupTestService()

	_, err := s.Handle(api.ExecutePlayerAction{Player: 1, Action: api.JabAttack, LeftHand: true})
	if !errors.Is(err, actions.ErrNotFighting) {
		t.Errorf("outside a round: expected ErrNotFighting, got %v", err)
	}

	startRound(t, s)
	_, err = s.Handle(api.ExecutePlayerAction{Player: 1, Action: api.HadoukenAttack, LeftHand: true})
	if !errors.Is(err, domain.ErrHands) {
		t.Errorf("one-handed hadouken: expected ErrHands, got %v", err)
	}

	// 100 очков хватает на три шорюкена по 30
	for i := 0; i < 3; i++ {
		mustHandle(t, s, api.ExecutePlayerAction{Player: 2, Action: api.ShoryukenAttack, RightHand: true})
	}
	_, err = s.Handle(api.ExecutePlayerAction{Player: 2, Action: api.ShoryukenAttack, RightHand: true})
	if !errors.Is(err, actions.ErrActionPoints) {
		t.Errorf("expected ErrActionPoints, got %v", err)
	}
}

func TestUnlimitedMoves(t *testing.T) {
	s := setupTestService()
	startRound(t, s)

	mustHandle(t, s, api.ExecutePlayerAction{Player: 1, Action: api.SonicBoomAttack, LeftHand: true, RightHand: true})
	evs := mustHandle(t, s, api.UpdatePlayerStatus{Player: 1, UnlimitedMoves: true})

	if p, ok := find[api.PlayerActionPointsChanged](evs); !ok || p.New != domain.MaxActionPoints {
		t.Errorf("unlimited moves must refill points: %#v", evs)
	}
	snap, ok := find[api.GameInfoRefresh](evs)
	if !ok || !snap.Player1UnlimitedMoves {
		t.Errorf("snapshot must report unlimited moves: %#v", snap)
	}

	for i := 0; i < 10; i++ {
		mustHandle(t, s, api.ExecutePlayerAction{Player: 1, Action: api.JabAttack, LeftHand: true})
	}
	if got := s.Snapshot().Player1ActionPoints; got != domain.MaxActionPoints {
		t.Errorf("points spent with unlimited moves: %v", got)
	}
}

// knockOut бьёт игроком 1 до конца раунда.
func knockOut(t *testing.T, s *GameService) []api.Event {
	t.Helper()
	for i := 0; i < 20; i++ {
		evs := mustHandle(t, s, api.ExecutePlayerAction{Player: 1, Action: api.ShoryukenAttack, LeftHand: true})
		if _, ok := find[api.RoundEnded](evs); ok {
			return evs
		}
	}
	t.Fatal("round did not end")
	return nil
}

func TestMatchPlaysToTheEnd(t *testing.T) {
	s := setupTestService()
	mustHandle(t, s, api.UpdatePlayerStatus{Player: 1, UnlimitedMoves: true})

	startRound(t, s)
	evs := knockOut(t, s)
	ended, _ := find[api.RoundEnded](evs)
	if ended.Result != api.RoundPlayer1Victory || ended.Round != 1 || ended.TimedOut {
		t.Errorf("round 1 = %#v", ended)
	}
	if st := s.Snapshot().State; st != api.RoundEndedState {
		t.Fatalf("state = %s, want ROUND_ENDED", st)
	}

	// Второй раунд: здоровье восстанавливается
	evs = mustHandle(t, s, api.InitiateNextState{State: api.RoundBeginningState})
	if h, ok := find[api.PlayerHealthChanged](evs); !ok || h.Player != 2 || h.New != domain.MaxHealth {
		t.Errorf("player 2 health must be restored: %#v", evs)
	}
	for i := 0; i < 4; i++ {
		s.Tick()
	}

	evs = knockOut(t, s)
	match, ok := find[api.MatchEnded](evs)
	if !ok || match.Result != api.MatchPlayer1Victory {
		t.Fatalf("expected MatchEnded for player 1, got %#v", evs)
	}

	snap := s.Snapshot()
	if snap.State != api.MatchEndedState || snap.MatchResult != api.MatchPlayer1Victory {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.RoundResults) != 2 {
		t.Errorf("round results = %v", snap.RoundResults)
	}

	// Новый матч из MATCH_ENDED начинается с чистого счёта
	mustHandle(t, s, api.InitiateNextState{State: api.RoundBeginningState})
	if snap := s.Snapshot(); len(snap.RoundResults) != 0 || snap.MatchResult != api.MatchUndecided {
		t.Errorf("new match kept old score: %+v", snap)
	}
}

func TestRoundTimesOut(t *testing.T) {
	s := setupTestService()
	startRound(t, s)
	mustHandle(t, s, api.ExecutePlayerAction{Player: 2, Action: api.JabAttack, RightHand: true})

	var last []api.Event
	for i := 0; i < 3; i++ {
		last = s.Tick()
	}

	ended, ok := find[api.RoundEnded](last)
	if !ok {
		t.Fatalf("round did not time out: %#v", last)
	}
	if !ended.TimedOut || ended.Result != api.RoundPlayer2Victory {
		t.Errorf("RoundEnded = %#v", ended)
	}
	if !s.Snapshot().TimedOut {
		t.Error("snapshot must report the timeout")
	}
}

func TestPauseAndTransitions(t *testing.T) {
	s := setupTestService()

	if _, err := s.Handle(api.InitiateNextState{State: api.RoundInPlayState}); !errors.Is(err, domain.ErrTransition) {
		t.Errorf("IDLE -> ROUND_IN_PLAY: expected ErrTransition, got %v", err)
	}

	evs := mustHandle(t, s, api.InitiateNextState{State: api.RingmasterState})
	if ch, ok := find[api.GameStateChanged](evs); !ok || ch.New != api.RingmasterState {
		t.Errorf("expected RINGMASTER_STATE, got %#v", evs)
	}

	evs = mustHandle(t, s, api.TogglePause{})
	if ch, _ := find[api.GameStateChanged](evs); ch.New != api.PausedState {
		t.Errorf("expected PAUSED, got %#v", evs)
	}
	if evs := s.Tick(); len(evs) != 0 {
		t.Errorf("paused game must not tick: %#v", evs)
	}

	evs = mustHandle(t, s, api.TogglePause{})
	if ch, _ := find[api.GameStateChanged](evs); ch.New != api.RingmasterState {
		t.Errorf("expected resume to RINGMASTER_STATE, got %#v", evs)
	}
}

func TestActivateEmitter(t *testing.T) {
	s := setupTestService()

	evs := mustHandle(t, s, api.ActivateEmitter{
		Location:  api.OuterRing,
		Index:     4,
		Intensity: 5000,
		Entities:  api.NewEntitySet(api.Ringmaster, api.Player2),
	})
	fire, ok := find[api.FireEmitterChanged](evs)
	if !ok {
		t.Fatalf("no FireEmitterChanged: %#v", evs)
	}
	want := api.FireEmitterChanged{Location: api.OuterRing, Index: 4, Player2: 5000, Ringmaster: 5000}
	if fire != want {
		t.Errorf("got %#v, want %#v", fire, want)
	}

	// Повтор того же состояния событий не порождает
	evs = mustHandle(t, s, api.ActivateEmitter{
		Location: api.OuterRing, Index: 4, Intensity: 5000, Entities: api.NewEntitySet(api.Ringmaster),
	})
	if len(evs) != 0 {
		t.Errorf("unchanged emitter produced %#v", evs)
	}

	if _, err := s.Handle(api.ActivateEmitter{Location: api.LeftRail, Index: 99}); !errors.Is(err, api.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

// recorder - Publisher, собирающий события.
type recorder struct {
	mu     sync.Mutex
	events []api.Event
}

func (r *recorder) Broadcast(ev api.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) snapshot() []api.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]api.Event(nil), r.events...)
}

func TestRunStopsOnKillGame(t *testing.T) {
	s := setupTestService()
	q := queue.New()
	pub := &recorder{}

	q.Push(api.Refresh{})
	q.Push(api.InitiateNextState{State: api.RingmasterState})
	q.Push(api.KillGame{})
	q.Push(api.TogglePause{})

	err := s.Run(context.Background(), q, pub)
	if !errors.Is(err, ErrKilled) {
		t.Fatalf("Run = %v, want ErrKilled", err)
	}

	evs := pub.snapshot()
	if len(evs) != 2 {
		t.Fatalf("published %d events, want 2: %#v", len(evs), evs)
	}
	if _, ok := evs[0].(api.GameInfoRefresh); !ok {
		t.Errorf("first event = %T, want GameInfoRefresh", evs[0])
	}
	if s.Snapshot().State != api.RingmasterState {
		t.Error("commands after KillGame must not run")
	}
}

func TestRunReturnsWhenQueueCloses(t *testing.T) {
	s := setupTestService()
	q := queue.New()

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), q, &recorder{}) }()

	q.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the queue closed")
	}
}

func TestRunHonoursContext(t *testing.T) {
	s := setupTestService()
	q := queue.New()
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, q, &recorder{}) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run ignored cancellation")
	}
}

func TestRunTicks(t *testing.T) {
	cfg := NewConfig()
	cfg.TickInterval = 5 * time.Millisecond
	s := NewService(cfg)
	q := queue.New()
	pub := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx, q, pub)

	q.Push(api.InitiateNextState{State: api.RoundBeginningState})

	deadline := time.Now().Add(2 * time.Second)
	for s.Snapshot().State != api.RoundInPlayState {
		if time.Now().After(deadline) {
			t.Fatalf("countdown did not finish, state %s", s.Snapshot().State)
		}
		time.Sleep(5 * time.Millisecond)
	}
	q.Close()
}

func TestSnapshotSurvivesWire(t *testing.T) {
	s := setupTestService()

	check := func(name string) {
		t.Helper()
		snap := s.Snapshot()
		frame, err := codec.Encode(snap)
		if err != nil {
			t.Fatalf("%s: Encode: %v", name, err)
		}
		got, err := codec.Decode(frame)
		if err != nil {
			t.Fatalf("%s: Decode: %v", name, err)
		}
		if !reflect.DeepEqual(got, snap) {
			t.Errorf("%s: snapshot changed on the wire:\n got  %#v\n want %#v", name, got, snap)
		}
	}

	check("fresh match")
	mustHandle(t, s, api.UpdatePlayerStatus{Player: 1, UnlimitedMoves: true})
	startRound(t, s)
	knockOut(t, s)
	check("after a round")
}

func TestRingmasterAction(t *testing.T) {
	tests := []struct {
		action api.RingmasterAction
		loc    api.Location
		lit    int
	}{
		{api.RingmasterLeftHalfRing, api.OuterRing, 8},
		{api.RingmasterRightHalfRing, api.OuterRing, 8},
		{api.RingmasterLeftJab, api.LeftRail, 8},
		{api.RingmasterRightJab, api.RightRail, 8},
		{api.RingmasterLeftCircle, api.OuterRing, 16},
		{api.RingmasterRightCircle, api.OuterRing, 16},
		{api.RingmasterHadouken, api.LeftRail, 16},
		{api.RingmasterDrum, api.OuterRing, 8},
		{api.RingmasterEruption, api.LeftRail, 32},
	}

	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			s := setupTestService()
			cmd := api.ExecuteRingmasterAction{Action: tt.action, RightHand: true}
			evs := mustHandle(t, s, cmd)

			if performed, ok := evs[0].(api.RingmasterActionPerformed); !ok || performed.Action != tt.action {
				t.Fatalf("first event = %#v, want RingmasterActionPerformed", evs[0])
			}
			if n := count[api.FireEmitterChanged](evs); n != tt.lit {
				t.Errorf("lit %d emitters, want %d", n, tt.lit)
			}
			changed, _ := find[api.FireEmitterChanged](evs)
			if changed.Location != tt.loc || changed.Ringmaster != api.FractionScale || changed.Player1 != 0 {
				t.Errorf("first emitter = %+v", changed)
			}

			// Повтор не меняет уже горящие эмиттеры.
			again := mustHandle(t, s, cmd)
			if len(again) != 1 {
				t.Errorf("repeat produced %d events, want only the action", len(again))
			}
		})
	}

	t.Run("busy during a fight", func(t *testing.T) {
		s := setupTestService()
		startRound(t, s)
		_, err := s.Handle(api.ExecuteRingmasterAction{Action: api.RingmasterDrum, LeftHand: true})
		if !errors.Is(err, actions.ErrRingmasterBusy) {
			t.Errorf("expected ErrRingmasterBusy, got %v", err)
		}
	})

	t.Run("needs a hand", func(t *testing.T) {
		s := setupTestService()
		if _, err := s.Handle(api.ExecuteRingmasterAction{Action: api.RingmasterDrum}); err == nil {
			t.Error("ringmaster action without hands must fail")
		}
	})
}

func TestGenericAction(t *testing.T) {
	s := setupTestService()

	cmd := api.ExecuteGenericAction{
		Player: 1, LeftHand: true, RightHand: true,
		DamagePerFlame: 2, FlameWidth: 3, DurationSeconds: 2.5,
	}
	if _, err := s.Handle(cmd); !errors.Is(err, actions.ErrNotFighting) {
		t.Fatalf("expected ErrNotFighting outside a round, got %v", err)
	}

	startRound(t, s)
	before := s.Snapshot().Player1ActionPoints
	evs := mustHandle(t, s, cmd)

	attack, ok := find[api.PlayerAttackAction](evs)
	if !ok || attack.Attack != api.CustomAttack || attack.Player != 1 {
		t.Errorf("attack event = %#v", attack)
	}
	if n := count[api.FireEmitterChanged](evs); n != 3 {
		t.Errorf("lit %d emitters, want 3", n)
	}
	hit, ok := find[api.PlayerHealthChanged](evs)
	if !ok || hit.Player != 2 || hit.New != domain.MaxHealth-12 {
		t.Errorf("health event = %#v, want 12 damage to player 2", hit)
	}
	if got := s.Snapshot().Player1ActionPoints; got != before {
		t.Errorf("action points %v -> %v, generic action must be free", before, got)
	}

	// 2.5 секунды: пламя переживает два угасания и гаснет на третьем тике.
	for tick := 1; tick <= 2; tick++ {
		if n := count[api.FireEmitterChanged](s.Tick()); n != 0 {
			t.Fatalf("tick %d extinguished %d emitters too early", tick, n)
		}
	}
	if n := count[api.FireEmitterChanged](s.Tick()); n != 3 {
		t.Errorf("third tick extinguished %d emitters, want 3", n)
	}
}

func TestQuerySystemInfo(t *testing.T) {
	s := setupTestService()
	mustHandle(t, s, api.ActivateEmitter{Location: api.OuterRing, Index: 2, Intensity: 1, Entities: api.NewEntitySet(api.Ringmaster)})

	evs := mustHandle(t, s, api.QuerySystemInfo{})
	info, ok := find[api.SystemInfoRefresh](evs)
	if !ok {
		t.Fatalf("expected SystemInfoRefresh, got %#v", evs)
	}
	if len(info.LeftRail) != 8 || len(info.RightRail) != 8 || len(info.OuterRing) != 16 {
		t.Fatalf("banks = %d/%d/%d", len(info.LeftRail), len(info.RightRail), len(info.OuterRing))
	}
	if info.RightRail[0].DeviceID != 8 || info.OuterRing[15].DeviceID != 31 {
		t.Errorf("device ids must run across banks: %+v %+v", info.RightRail[0], info.OuterRing[15])
	}
	for i, d := range info.OuterRing {
		if !d.Responding || !d.Armed {
			t.Errorf("device %d = %+v, want responding and armed", i, d)
		}
		if d.Flame != (i == 2) {
			t.Errorf("device %d flame = %v", i, d.Flame)
		}
	}
	if err := info.Validate(); err != nil {
		t.Errorf("system info must be valid: %v", err)
	}
}
