package api

import "fmt"

// Kind - тег варианта сообщения на проводе.
// Команды занимают коды 1..63, события 64..127.
type Kind uint8

const (
	KindUnknown Kind = 0

	KindRefresh             Kind = 1
	KindKillGame            Kind = 2
	KindInitiateNextState   Kind = 3
	KindExecutePlayerAction Kind = 4
	KindActivateEmitter     Kind = 5
	KindTogglePause         Kind = 6
	KindUpdatePlayerStatus  Kind = 7

	KindExecuteRingmasterAction Kind = 8
	KindExecuteGenericAction    Kind = 9
	KindQuerySystemInfo         Kind = 10

	KindGameInfoRefresh           Kind = 64
	KindFireEmitterChanged        Kind = 65
	KindGameStateChanged          Kind = 66
	KindPlayerHealthChanged       Kind = 67
	KindPlayerActionPointsChanged Kind = 68
	KindRoundBeginTimerChanged    Kind = 69
	KindRoundPlayTimerChanged     Kind = 70
	KindRoundEnded                Kind = 71
	KindMatchEnded                Kind = 72
	KindPlayerAttackAction        Kind = 73
	KindPlayerBlockAction         Kind = 74
	KindUnrecognizedGesture       Kind = 75
	KindBlockWindow               Kind = 76
	KindRingmasterAction          Kind = 77
	KindSystemInfoRefresh         Kind = 78
)

const firstEventKind = 64

var kindNames = names[Kind]{
	KindRefresh:             "REFRESH",
	KindKillGame:            "KILL_GAME",
	KindInitiateNextState:   "NEXT_STATE",
	KindExecutePlayerAction: "EXECUTE_PLAYER_ACTION",
	KindActivateEmitter:     "ACTIVATE_EMITTER",
	KindTogglePause:         "TOGGLE_PAUSE",
	KindUpdatePlayerStatus:  "UPDATE_PLAYER_STATUS",

	KindExecuteRingmasterAction: "EXECUTE_RINGMASTER_ACTION",
	KindExecuteGenericAction:    "EXECUTE_GENERIC_ACTION",
	KindQuerySystemInfo:         "QUERY_SYSTEM_INFO",

	KindGameInfoRefresh:           "GAME_INFO_REFRESH",
	KindFireEmitterChanged:        "FIRE_EMITTER_CHANGED",
	KindGameStateChanged:          "GAME_STATE_CHANGED",
	KindPlayerHealthChanged:       "PLAYER_HEALTH_CHANGED",
	KindPlayerActionPointsChanged: "PLAYER_ACTION_POINTS_CHANGED",
	KindRoundBeginTimerChanged:    "ROUND_BEGIN_TIMER_CHANGED",
	KindRoundPlayTimerChanged:     "ROUND_PLAY_TIMER_CHANGED",
	KindRoundEnded:                "ROUND_ENDED",
	KindMatchEnded:                "MATCH_ENDED",
	KindPlayerAttackAction:        "PLAYER_ATTACK_ACTION",
	KindPlayerBlockAction:         "PLAYER_BLOCK_ACTION",
	KindUnrecognizedGesture:       "UNRECOGNIZED_GESTURE",
	KindBlockWindow:               "BLOCK_WINDOW",
	KindRingmasterAction:          "RINGMASTER_ACTION",
	KindSystemInfoRefresh:         "SYSTEM_INFO_REFRESH",
}

func (k Kind) String() string { return kindNames.str(k) }
func (k Kind) Valid() bool    { return kindNames.valid(k) }

// IsCommand - сообщение идёт от GUI к движку.
func (k Kind) IsCommand() bool { return k.Valid() && k < firstEventKind }

// IsEvent - сообщение идёт от движка к GUI.
func (k Kind) IsEvent() bool { return k.Valid() && k >= firstEventKind }

// Message - любое сообщение протокола.
type Message interface {
	Kind() Kind
}

// Command - закрытое множество команд GUI -> движок.
// Реализуется только типами этого пакета.
type Command interface {
	Message
	command()
}

// --- КОМАНДЫ ---

// Refresh просит движок заново прислать полное состояние игры.
// Клиент отправляет его автоматически сразу после подключения.
type Refresh struct{}

// KillGame просит движок завершиться.
type KillGame struct{}

// TogglePause ставит игру на паузу или снимает с неё.
type TogglePause struct{}

// InitiateNextState принудительно переводит игру в указанное состояние.
type InitiateNextState struct {
	State GameState `json:"state" jsonschema:"required"`
}

// ExecutePlayerAction исполняет действие за игрока так, как если бы он сделал жест.
type ExecutePlayerAction struct {
	Player    uint8        `json:"player" jsonschema:"required,enum=1,enum=2"`
	Action    PlayerAction `json:"action" jsonschema:"required"`
	LeftHand  bool         `json:"leftHand"`
	RightHand bool         `json:"rightHand"`
}

// ActivateEmitter зажигает эмиттер от имени набора сущностей.
type ActivateEmitter struct {
	Location  Location  `json:"location" jsonschema:"required"`
	Index     uint16    `json:"index"`
	Intensity Fraction  `json:"intensity" jsonschema:"maximum=10000"`
	Entities  EntitySet `json:"entities"`
}

// UpdatePlayerStatus включает или выключает режим "бесконечных ходов" игрока.
type UpdatePlayerStatus struct {
	Player         uint8 `json:"player" jsonschema:"required,enum=1,enum=2"`
	UnlimitedMoves bool  `json:"unlimitedMoves"`
}

// ExecuteRingmasterAction исполняет жест ведущего. Нужна хотя бы одна рука.
type ExecuteRingmasterAction struct {
	Action    RingmasterAction `json:"action" jsonschema:"required"`
	LeftHand  bool             `json:"leftHand"`
	RightHand bool             `json:"rightHand"`
}

// ExecuteGenericAction - произвольная атака игрока с параметрами пламени,
// заданными оператором. Acceleration <= 0 означает постоянную скорость.
type ExecuteGenericAction struct {
	Player          uint8   `json:"player" jsonschema:"required,enum=1,enum=2"`
	LeftHand        bool    `json:"leftHand"`
	RightHand       bool    `json:"rightHand"`
	DamagePerFlame  float32 `json:"damagePerFlame" jsonschema:"minimum=0"`
	FlameWidth      uint8   `json:"flameWidth" jsonschema:"required,minimum=1"`
	DurationSeconds float32 `json:"durationSeconds" jsonschema:"required"`
	Acceleration    float32 `json:"acceleration"`
}

// QuerySystemInfo просит движок прислать состояние устройств арены.
type QuerySystemInfo struct{}

func (Refresh) Kind() Kind             { return KindRefresh }
func (KillGame) Kind() Kind            { return KindKillGame }
func (TogglePause) Kind() Kind         { return KindTogglePause }
func (InitiateNextState) Kind() Kind   { return KindInitiateNextState }
func (ExecutePlayerAction) Kind() Kind { return KindExecutePlayerAction }
func (ActivateEmitter) Kind() Kind     { return KindActivateEmitter }
func (UpdatePlayerStatus) Kind() Kind  { return KindUpdatePlayerStatus }

func (ExecuteRingmasterAction) Kind() Kind { return KindExecuteRingmasterAction }
func (ExecuteGenericAction) Kind() Kind    { return KindExecuteGenericAction }
func (QuerySystemInfo) Kind() Kind         { return KindQuerySystemInfo }

func (Refresh) command()             {}
func (KillGame) command()            {}
func (TogglePause) command()         {}
func (InitiateNextState) command()   {}
func (ExecutePlayerAction) command() {}
func (ActivateEmitter) command()     {}
func (UpdatePlayerStatus) command()  {}

func (ExecuteRingmasterAction) command() {}
func (ExecuteGenericAction) command()    {}
func (QuerySystemInfo) command()         {}

func (c ActivateEmitter) String() string {
	return fmt.Sprintf("%s[%d] %s %s", c.Location, c.Index, c.Intensity, c.Entities)
}

func (c ExecutePlayerAction) String() string {
	return fmt.Sprintf("P%d %s left=%t right=%t", c.Player, c.Action, c.LeftHand, c.RightHand)
}

func (c ExecuteGenericAction) String() string {
	return fmt.Sprintf("P%d left=%t right=%t dmg=%.2f width=%d %.2fs accel=%.2f",
		c.Player, c.LeftHand, c.RightHand, c.DamagePerFlame, c.FlameWidth, c.DurationSeconds, c.Acceleration)
}
