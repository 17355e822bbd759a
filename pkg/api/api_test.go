package api

import (
	"errors"
	"math"
	"testing"
)

func TestFractionFromFloat(t *testing.T) {
	tests := []struct {
		name      string
		in        float64
		expected  Fraction
		wantError bool
	}{
		{name: "zero", in: 0, expected: 0},
		{name: "one", in: 1, expected: FractionScale},
		{name: "half", in: 0.5, expected: 5000},
		{name: "rounds to nearest", in: 0.12346, expected: 1235},
		{name: "negative", in: -0.01, wantError: true},
		{name: "above one", in: 1.0001, wantError: true},
		{name: "nan", in: math.NaN(), wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FractionFromFloat(tt.in)
			if tt.wantError {
				if !errors.Is(err, ErrOutOfRange) {
					t.Fatalf("expected ErrOutOfRange, got %v (value=%d)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("FractionFromFloat(%v) = %d, want %d", tt.in, got, tt.expected)
			}
		})
	}
}

func TestFractionFloat(t *testing.T) {
	if got := Fraction(2500).Float(); got != 0.25 {
		t.Errorf("Float() = %v, want 0.25", got)
	}
	if Fraction(FractionScale + 1).Valid() {
		t.Error("fraction above scale must be invalid")
	}
}

func TestEntitySet(t *testing.T) {
	s := NewEntitySet(Ringmaster, Player1, Ringmaster)

	if s.Len() != 2 {
		t.Fatalf("expected 2 entities, got %d", s.Len())
	}
	if !s.Has(Player1) || !s.Has(Ringmaster) || s.Has(Player2) {
		t.Errorf("unexpected membership: %s", s)
	}

	got := s.Entities()
	if got[0] != Player1 || got[1] != Ringmaster {
		t.Errorf("Entities() must be in code order, got %v", got)
	}

	if !s.Valid() {
		t.Error("set of known entities must be valid")
	}
	if EntitySet(1 << 7).Valid() {
		t.Error("set with unknown bit must be invalid")
	}
	if EntitySet(0).Len() != 0 {
		t.Error("empty set must have no entities")
	}
}

func TestEntitySetIgnoresUnknownEntities(t *testing.T) {
	tests := []struct {
		name   string
		entity Entity
	}{
		{name: "zero", entity: EntityUnknown},
		{name: "next code", entity: Ringmaster + 1},
		{name: "shift past the mask", entity: 9},
		{name: "max", entity: 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s := NewEntitySet(tt.entity); s != 0 {
				t.Errorf("NewEntitySet(%d) = %08b, want empty", tt.entity, s)
			}
			if s := NewEntitySet(Player1).With(tt.entity); s != NewEntitySet(Player1) {
				t.Errorf("With(%d) changed the set to %s", tt.entity, s)
			}
			if EntitySet(0xFF).Has(tt.entity) {
				t.Errorf("Has(%d) must be false", tt.entity)
			}
			if _, err := ParseEntitySet(Player2, tt.entity); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("ParseEntitySet(%d) error = %v, want ErrOutOfRange", tt.entity, err)
			}
		})
	}

	s, err := ParseEntitySet(Player2, Ringmaster)
	if err != nil || s != NewEntitySet(Player2, Ringmaster) {
		t.Errorf("ParseEntitySet = %s, %v", s, err)
	}
}

func TestParseEnums(t *testing.T) {
	if ParseLocation("left_rail") != LeftRail {
		t.Error("ParseLocation must be case-insensitive")
	}
	if ParseGameState(" ringmaster_state ") != RingmasterState {
		t.Error("ParseGameState must trim spaces")
	}
	if ParsePlayerAction("HADOUKEN_ATTACK") != HadoukenAttack {
		t.Error("ParsePlayerAction failed on canonical name")
	}
	if ParseEntity("nobody") != EntityUnknown {
		t.Error("unknown name must map to zero value")
	}
	if got := GameState(200).String(); got != "UNKNOWN" {
		t.Errorf("String() of unknown code = %q, want UNKNOWN", got)
	}
	if StateUnknown.Valid() {
		t.Error("zero game state must not be valid")
	}
	if !MatchUndecided.Valid() {
		t.Error("undecided match result must be valid")
	}
}

func TestKindDirection(t *testing.T) {
	commands := []Command{
		Refresh{}, KillGame{}, TogglePause{}, InitiateNextState{},
		ExecutePlayerAction{}, ActivateEmitter{}, UpdatePlayerStatus{},
		ExecuteRingmasterAction{}, ExecuteGenericAction{}, QuerySystemInfo{},
	}
	for _, c := range commands {
		if !c.Kind().IsCommand() || c.Kind().IsEvent() {
			t.Errorf("%s must be a command kind", c.Kind())
		}
	}

	events := []Event{
		GameInfoRefresh{}, FireEmitterChanged{}, GameStateChanged{}, PlayerHealthChanged{},
		PlayerActionPointsChanged{}, RoundBeginTimerChanged{}, RoundPlayTimerChanged{},
		RoundEnded{}, MatchEnded{}, PlayerAttackAction{}, PlayerBlockAction{},
		UnrecognizedGesture{}, BlockWindow{}, RingmasterActionPerformed{}, SystemInfoRefresh{},
	}
	for _, e := range events {
		if !e.Kind().IsEvent() || e.Kind().IsCommand() {
			t.Errorf("%s must be an event kind", e.Kind())
		}
	}

	if KindUnknown.IsCommand() || KindUnknown.IsEvent() {
		t.Error("unknown kind has no direction")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		msg       Validator
		wantError bool
	}{
		{name: "valid emitter", msg: ActivateEmitter{Location: LeftRail, Index: 3, Intensity: 5000, Entities: NewEntitySet(Ringmaster)}},
		{name: "emitter without location", msg: ActivateEmitter{Intensity: 1}, wantError: true},
		{name: "emitter intensity too high", msg: ActivateEmitter{Location: OuterRing, Intensity: FractionScale + 1}, wantError: true},
		{name: "player three", msg: ExecutePlayerAction{Player: 3, Action: Block}, wantError: true},
		{name: "unknown action", msg: ExecutePlayerAction{Player: 1}, wantError: true},
		{name: "unknown next state", msg: InitiateNextState{State: 99}, wantError: true},
		{name: "match ended undecided", msg: MatchEnded{}, wantError: true},
		{name: "health is nan", msg: PlayerHealthChanged{Player: 1, New: float32(math.NaN())}, wantError: true},
		{name: "refresh snapshot without countdown", msg: GameInfoRefresh{State: IdleState}},
		{name: "ringmaster eruption", msg: ExecuteRingmasterAction{Action: RingmasterEruption, LeftHand: true}},
		{name: "ringmaster without hands", msg: ExecuteRingmasterAction{Action: RingmasterDrum}, wantError: true},
		{name: "ringmaster unknown action", msg: ExecuteRingmasterAction{Action: 42, RightHand: true}, wantError: true},
		{name: "generic action", msg: ExecuteGenericAction{Player: 2, RightHand: true, DamagePerFlame: 1.5, FlameWidth: 2, DurationSeconds: 0.5, Acceleration: -1}},
		{name: "generic without hands", msg: ExecuteGenericAction{Player: 1, FlameWidth: 1, DurationSeconds: 1}, wantError: true},
		{name: "generic zero width", msg: ExecuteGenericAction{Player: 1, LeftHand: true, DurationSeconds: 1}, wantError: true},
		{name: "generic zero duration", msg: ExecuteGenericAction{Player: 1, LeftHand: true, FlameWidth: 1}, wantError: true},
		{name: "generic negative damage", msg: ExecuteGenericAction{Player: 1, LeftHand: true, FlameWidth: 1, DurationSeconds: 1, DamagePerFlame: -1}, wantError: true},
		{name: "generic infinite acceleration", msg: ExecuteGenericAction{Player: 1, LeftHand: true, FlameWidth: 1, DurationSeconds: 1, Acceleration: float32(math.Inf(1))}, wantError: true},
		{name: "ringmaster event unknown action", msg: RingmasterActionPerformed{}, wantError: true},
		{name: "empty system info", msg: SystemInfoRefresh{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantError && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
