package api

import "strings"

// Все перечисления передаются по сети своими числовыми кодами.
// Коды только добавляются в конец, существующие никогда не переиспользуются.
// Ноль зарезервирован под Unknown и на проводе недопустим.

// names - двусторонний справочник "код <-> имя" для одного перечисления.
type names[T ~uint8] map[T]string

func (n names[T]) str(v T) string {
	if s, ok := n[v]; ok {
		return s
	}
	return "UNKNOWN"
}

func (n names[T]) parse(s string) T {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for code, name := range n {
		if name == upper {
			return code
		}
	}
	return 0
}

func (n names[T]) valid(v T) bool {
	_, ok := n[v]
	return ok
}

// --- Location ---

// Location - расположение эмиттера на арене.
type Location uint8

const (
	LocationUnknown Location = iota
	LeftRail
	RightRail
	OuterRing
)

var locationNames = names[Location]{
	LeftRail:  "LEFT_RAIL",
	RightRail: "RIGHT_RAIL",
	OuterRing: "OUTER_RING",
}

func ParseLocation(s string) Location { return locationNames.parse(s) }
func (l Location) String() string     { return locationNames.str(l) }
func (l Location) Valid() bool        { return locationNames.valid(l) }

// --- Entity ---

// Entity - участник, который может "владеть" пламенем эмиттера.
type Entity uint8

const (
	EntityUnknown Entity = iota
	Player1
	Player2
	Ringmaster
)

var entityNames = names[Entity]{
	Player1:    "PLAYER1",
	Player2:    "PLAYER2",
	Ringmaster: "RINGMASTER",
}

func ParseEntity(s string) Entity { return entityNames.parse(s) }
func (e Entity) String() string   { return entityNames.str(e) }
func (e Entity) Valid() bool      { return entityNames.valid(e) }

// PlayerEntity возвращает сущность игрока по его номеру (1 или 2).
func PlayerEntity(player uint8) Entity {
	switch player {
	case 1:
		return Player1
	case 2:
		return Player2
	}
	return EntityUnknown
}

// --- GameState ---

type GameState uint8

const (
	StateUnknown GameState = iota
	NoState
	IdleState
	RingmasterState
	RoundBeginningState
	RoundInPlayState
	RoundEndedState
	TieBreakerRoundState
	MatchEndedState
	PausedState
)

var gameStateNames = names[GameState]{
	NoState:              "NO_STATE",
	IdleState:            "IDLE_STATE",
	RingmasterState:      "RINGMASTER_STATE",
	RoundBeginningState:  "ROUND_BEGINNING_STATE",
	RoundInPlayState:     "ROUND_IN_PLAY_STATE",
	RoundEndedState:      "ROUND_ENDED_STATE",
	TieBreakerRoundState: "TIE_BREAKER_ROUND_STATE",
	MatchEndedState:      "MATCH_ENDED_STATE",
	PausedState:          "PAUSED_STATE",
}

func ParseGameState(s string) GameState { return gameStateNames.parse(s) }
func (g GameState) String() string      { return gameStateNames.str(g) }
func (g GameState) Valid() bool         { return gameStateNames.valid(g) }

// --- PlayerAction ---

// PlayerAction - действие, которое оператор может инициировать за игрока.
type PlayerAction uint8

const (
	ActionUnknown PlayerAction = iota
	Block
	JabAttack
	HookAttack
	UppercutAttack
	ChopAttack
	HadoukenAttack
	ShoryukenAttack
	SonicBoomAttack
	DoubleLariatAttack
	SumoHeadbuttAttack
	OneHundredHandSlapAttack
)

var playerActionNames = names[PlayerAction]{
	Block:                    "BLOCK",
	JabAttack:                "JAB_ATTACK",
	HookAttack:               "HOOK_ATTACK",
	UppercutAttack:           "UPPERCUT_ATTACK",
	ChopAttack:               "CHOP_ATTACK",
	HadoukenAttack:           "HADOUKEN_ATTACK",
	ShoryukenAttack:          "SHORYUKEN_ATTACK",
	SonicBoomAttack:          "SONIC_BOOM_ATTACK",
	DoubleLariatAttack:       "DOUBLE_LARIAT_ATTACK",
	SumoHeadbuttAttack:       "SUMO_HEADBUTT_ATTACK",
	OneHundredHandSlapAttack: "ONE_HUNDRED_HAND_SLAP_ATTACK",
}

func ParsePlayerAction(s string) PlayerAction { return playerActionNames.parse(s) }
func (a PlayerAction) String() string         { return playerActionNames.str(a) }
func (a PlayerAction) Valid() bool            { return playerActionNames.valid(a) }

// --- AttackType ---

// AttackType - конкретная атака, которую движок распознал и исполнил.
type AttackType uint8

const (
	AttackUnknown AttackType = iota
	LeftJab
	RightJab
	LeftHook
	RightHook
	LeftUppercut
	RightUppercut
	LeftChop
	RightChop
	Hadouken
	LeftShoryuken
	RightShoryuken
	SonicBoom
	DoubleLariat
	SumoHeadbutt
	LeftOneHundredHandSlap
	RightOneHundredHandSlap
	TwoHandedOneHundredHandSlap
	PsychoCrusher
	CustomAttack
)

var attackTypeNames = names[AttackType]{
	LeftJab:                     "LEFT_JAB",
	RightJab:                    "RIGHT_JAB",
	LeftHook:                    "LEFT_HOOK",
	RightHook:                   "RIGHT_HOOK",
	LeftUppercut:                "LEFT_UPPERCUT",
	RightUppercut:               "RIGHT_UPPERCUT",
	LeftChop:                    "LEFT_CHOP",
	RightChop:                   "RIGHT_CHOP",
	Hadouken:                    "HADOUKEN",
	LeftShoryuken:               "LEFT_SHORYUKEN",
	RightShoryuken:              "RIGHT_SHORYUKEN",
	SonicBoom:                   "SONIC_BOOM",
	DoubleLariat:                "DOUBLE_LARIAT",
	SumoHeadbutt:                "SUMO_HEADBUTT",
	LeftOneHundredHandSlap:      "LEFT_ONE_HUNDRED_HAND_SLAP",
	RightOneHundredHandSlap:     "RIGHT_ONE_HUNDRED_HAND_SLAP",
	TwoHandedOneHundredHandSlap: "TWO_HANDED_ONE_HUNDRED_HAND_SLAP",
	PsychoCrusher:               "PSYCHO_CRUSHER",
	CustomAttack:                "CUSTOM_UNDEFINED_ATTACK",
}

func ParseAttackType(s string) AttackType { return attackTypeNames.parse(s) }
func (a AttackType) String() string       { return attackTypeNames.str(a) }
func (a AttackType) Valid() bool          { return attackTypeNames.valid(a) }

// --- RingmasterAction ---

// RingmasterAction - жест ведущего, который зажигает узор на арене.
type RingmasterAction uint8

const (
	RingmasterActionUnknown RingmasterAction = iota
	RingmasterLeftHalfRing
	RingmasterRightHalfRing
	RingmasterLeftJab
	RingmasterRightJab
	RingmasterLeftCircle
	RingmasterRightCircle
	RingmasterHadouken
	RingmasterDrum
	RingmasterEruption
)

var ringmasterActionNames = names[RingmasterAction]{
	RingmasterLeftHalfRing:  "RINGMASTER_LEFT_HALF_RING_ACTION",
	RingmasterRightHalfRing: "RINGMASTER_RIGHT_HALF_RING_ACTION",
	RingmasterLeftJab:       "RINGMASTER_LEFT_JAB_ACTION",
	RingmasterRightJab:      "RINGMASTER_RIGHT_JAB_ACTION",
	RingmasterLeftCircle:    "RINGMASTER_LEFT_CIRCLE_ACTION",
	RingmasterRightCircle:   "RINGMASTER_RIGHT_CIRCLE_ACTION",
	RingmasterHadouken:      "RINGMASTER_HADOUKEN_ACTION",
	RingmasterDrum:          "RINGMASTER_DRUM_ACTION",
	RingmasterEruption:      "RINGMASTER_ERUPTION_ACTION",
}

func ParseRingmasterAction(s string) RingmasterAction { return ringmasterActionNames.parse(s) }
func (a RingmasterAction) String() string             { return ringmasterActionNames.str(a) }
func (a RingmasterAction) Valid() bool                { return ringmasterActionNames.valid(a) }

// --- RoundResult ---

type RoundResult uint8

const (
	RoundUnknown RoundResult = iota
	RoundPlayer1Victory
	RoundPlayer2Victory
	RoundTie
)

var roundResultNames = names[RoundResult]{
	RoundPlayer1Victory: "PLAYER1_VICTORY",
	RoundPlayer2Victory: "PLAYER2_VICTORY",
	RoundTie:            "TIE",
}

func ParseRoundResult(s string) RoundResult { return roundResultNames.parse(s) }
func (r RoundResult) String() string        { return roundResultNames.str(r) }
func (r RoundResult) Valid() bool           { return roundResultNames.valid(r) }

// --- MatchResult ---

// MatchResult. В отличие от остальных перечислений ноль здесь допустим:
// MatchUndecided означает, что матч ещё не закончен.
type MatchResult uint8

const (
	MatchUndecided MatchResult = iota
	MatchPlayer1Victory
	MatchPlayer2Victory
)

var matchResultNames = names[MatchResult]{
	MatchUndecided:      "UNDECIDED",
	MatchPlayer1Victory: "PLAYER1_VICTORY",
	MatchPlayer2Victory: "PLAYER2_VICTORY",
}

func ParseMatchResult(s string) MatchResult { return matchResultNames.parse(s) }
func (m MatchResult) String() string        { return matchResultNames.str(m) }
func (m MatchResult) Valid() bool           { return matchResultNames.valid(m) }

// --- Countdown ---

// Countdown - отсчёт перед началом раунда.
type Countdown uint8

const (
	CountdownUnknown Countdown = iota
	CountdownThree
	CountdownTwo
	CountdownOne
	CountdownFight
)

var countdownNames = names[Countdown]{
	CountdownThree: "THREE",
	CountdownTwo:   "TWO",
	CountdownOne:   "ONE",
	CountdownFight: "FIGHT",
}

func ParseCountdown(s string) Countdown { return countdownNames.parse(s) }
func (c Countdown) String() string      { return countdownNames.str(c) }
func (c Countdown) Valid() bool         { return countdownNames.valid(c) }
