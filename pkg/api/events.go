package api

// Event - закрытое множество событий движок -> GUI.
type Event interface {
	Message
	event()
}

// GameInfoRefresh - полный снимок состояния игры. Ответ на Refresh.
type GameInfoRefresh struct {
	State                 GameState     `json:"state" jsonschema:"required"`
	RoundResults          []RoundResult `json:"roundResults,omitempty"`
	MatchResult           MatchResult   `json:"matchResult"`
	Player1Health         float32       `json:"player1Health"`
	Player2Health         float32       `json:"player2Health"`
	Player1ActionPoints   float32       `json:"player1ActionPoints"`
	Player2ActionPoints   float32       `json:"player2ActionPoints"`
	Player1UnlimitedMoves bool          `json:"player1UnlimitedMoves"`
	Player2UnlimitedMoves bool          `json:"player2UnlimitedMoves"`
	Countdown             Countdown     `json:"countdown"`
	RoundTimerSeconds     uint16        `json:"roundTimerSeconds"`
	TimedOut              bool          `json:"timedOut"`
}

// FireEmitterChanged - новое состояние одного эмиттера с вкладом каждой сущности.
type FireEmitterChanged struct {
	Location   Location `json:"location" jsonschema:"required"`
	Index      uint16   `json:"index"`
	Player1    Fraction `json:"player1" jsonschema:"maximum=10000"`
	Player2    Fraction `json:"player2" jsonschema:"maximum=10000"`
	Ringmaster Fraction `json:"ringmaster" jsonschema:"maximum=10000"`
}

// Contributors - сущности с ненулевой интенсивностью.
func (e FireEmitterChanged) Contributors() EntitySet {
	var s EntitySet
	if e.Player1 > 0 {
		s = s.With(Player1)
	}
	if e.Player2 > 0 {
		s = s.With(Player2)
	}
	if e.Ringmaster > 0 {
		s = s.With(Ringmaster)
	}
	return s
}

type GameStateChanged struct {
	Old GameState `json:"old" jsonschema:"required"`
	New GameState `json:"new" jsonschema:"required"`
}

type PlayerHealthChanged struct {
	Player uint8   `json:"player" jsonschema:"required,enum=1,enum=2"`
	Old    float32 `json:"old"`
	New    float32 `json:"new"`
}

type PlayerActionPointsChanged struct {
	Player uint8   `json:"player" jsonschema:"required,enum=1,enum=2"`
	Old    float32 `json:"old"`
	New    float32 `json:"new"`
}

type RoundBeginTimerChanged struct {
	Countdown Countdown `json:"countdown" jsonschema:"required"`
	Round     uint8     `json:"round"`
}

type RoundPlayTimerChanged struct {
	Seconds uint16 `json:"seconds"`
}

type RoundEnded struct {
	Round         uint8       `json:"round"`
	Result        RoundResult `json:"result" jsonschema:"required"`
	TimedOut      bool        `json:"timedOut"`
	Player1Health float32     `json:"player1Health"`
	Player2Health float32     `json:"player2Health"`
}

type MatchEnded struct {
	Result        MatchResult `json:"result" jsonschema:"required"`
	Player1Health float32     `json:"player1Health"`
	Player2Health float32     `json:"player2Health"`
}

type PlayerAttackAction struct {
	Player uint8      `json:"player" jsonschema:"required,enum=1,enum=2"`
	Attack AttackType `json:"attack" jsonschema:"required"`
}

type PlayerBlockAction struct {
	Player    uint8 `json:"player" jsonschema:"required,enum=1,enum=2"`
	Effective bool  `json:"effective"`
}

// UnrecognizedGesture - сущность сделала жест, который не удалось распознать.
type UnrecognizedGesture struct {
	Entity Entity `json:"entity" jsonschema:"required"`
}

// BlockWindow - открылось (или истекло) окно, в которое игрок может поставить блок.
type BlockWindow struct {
	ID             uint32  `json:"id"`
	Expired        bool    `json:"expired"`
	Seconds        float32 `json:"seconds"`
	BlockingPlayer uint8   `json:"blockingPlayer" jsonschema:"required,enum=1,enum=2"`
}

// RingmasterActionPerformed - ведущий исполнил жест.
type RingmasterActionPerformed struct {
	Action RingmasterAction `json:"action" jsonschema:"required"`
}

// DeviceStatus - состояние одного выходного устройства (эмиттера).
type DeviceStatus struct {
	DeviceID   uint16 `json:"deviceId"`
	Responding bool   `json:"responding"`
	Armed      bool   `json:"armed"`
	Flame      bool   `json:"flame"`
}

// SystemInfoRefresh - состояние устройств по расположениям. Ответ на QuerySystemInfo.
type SystemInfoRefresh struct {
	LeftRail  []DeviceStatus `json:"leftRail,omitempty"`
	RightRail []DeviceStatus `json:"rightRail,omitempty"`
	OuterRing []DeviceStatus `json:"outerRing,omitempty"`
}

// Devices возвращает банк устройств по расположению.
func (e SystemInfoRefresh) Devices(loc Location) []DeviceStatus {
	switch loc {
	case LeftRail:
		return e.LeftRail
	case RightRail:
		return e.RightRail
	case OuterRing:
		return e.OuterRing
	}
	return nil
}

func (GameInfoRefresh) Kind() Kind           { return KindGameInfoRefresh }
func (FireEmitterChanged) Kind() Kind        { return KindFireEmitterChanged }
func (GameStateChanged) Kind() Kind          { return KindGameStateChanged }
func (PlayerHealthChanged) Kind() Kind       { return KindPlayerHealthChanged }
func (PlayerActionPointsChanged) Kind() Kind { return KindPlayerActionPointsChanged }
func (RoundBeginTimerChanged) Kind() Kind    { return KindRoundBeginTimerChanged }
func (RoundPlayTimerChanged) Kind() Kind     { return KindRoundPlayTimerChanged }
func (RoundEnded) Kind() Kind                { return KindRoundEnded }
func (MatchEnded) Kind() Kind                { return KindMatchEnded }
func (PlayerAttackAction) Kind() Kind        { return KindPlayerAttackAction }
func (PlayerBlockAction) Kind() Kind         { return KindPlayerBlockAction }
func (UnrecognizedGesture) Kind() Kind       { return KindUnrecognizedGesture }
func (BlockWindow) Kind() Kind               { return KindBlockWindow }
func (RingmasterActionPerformed) Kind() Kind { return KindRingmasterAction }
func (SystemInfoRefresh) Kind() Kind         { return KindSystemInfoRefresh }

func (GameInfoRefresh) event()           {}
func (FireEmitterChanged) event()        {}
func (GameStateChanged) event()          {}
func (PlayerHealthChanged) event()       {}
func (PlayerActionPointsChanged) event() {}
func (RoundBeginTimerChanged) event()    {}
func (RoundPlayTimerChanged) event()     {}
func (RoundEnded) event()                {}
func (MatchEnded) event()                {}
func (PlayerAttackAction) event()        {}
func (PlayerBlockAction) event()         {}
func (UnrecognizedGesture) event()       {}
func (BlockWindow) event()               {}
func (RingmasterActionPerformed) event() {}
func (SystemInfoRefresh) event()         {}
