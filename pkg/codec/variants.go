package codec

import (
	"streetfire-server/pkg/api"
)

// variant - пара функций сериализации для одного вида сообщения.
type variant struct {
	encode func(w *writer, msg api.Message)
	decode func(r *reader) api.Message
}

// typed превращает типизированную пару (enc, dec) в variant.
// Приведение типа безопасно: реестр индексируется по Kind самого сообщения.
func typed[T api.Message](enc func(*writer, T), dec func(*reader) T) variant {
	return variant{
		encode: func(w *writer, msg api.Message) { enc(w, msg.(T)) },
		decode: func(r *reader) api.Message { return dec(r) },
	}
}

func empty[T api.Message]() variant {
	var zero T
	return variant{
		encode: func(*writer, api.Message) {},
		decode: func(*reader) api.Message { return zero },
	}
}

var variants = map[api.Kind]variant{
	// --- Команды ---
	api.KindRefresh:     empty[api.Refresh](),
	api.KindKillGame:    empty[api.KillGame](),
	api.KindTogglePause: empty[api.TogglePause](),

	api.KindInitiateNextState: typed(
		func(w *writer, c api.InitiateNextState) { w.u8(uint8(c.State)) },
		func(r *reader) api.InitiateNextState {
			return api.InitiateNextState{State: api.GameState(r.u8())}
		},
	),

	api.KindExecutePlayerAction: typed(
		func(w *writer, c api.ExecutePlayerAction) {
			w.u8(c.Player)
			w.u8(uint8(c.Action))
			w.u8(handFlags(c.LeftHand, c.RightHand))
		},
		func(r *reader) api.ExecutePlayerAction {
			c := api.ExecutePlayerAction{
				Player: r.u8(),
				Action: api.PlayerAction(r.u8()),
			}
			c.LeftHand, c.RightHand = readHandFlags(r)
			return c
		},
	),

	api.KindActivateEmitter: typed(
		func(w *writer, c api.ActivateEmitter) {
			w.u8(uint8(c.Location))
			w.u16(c.Index)
			w.u16(uint16(c.Intensity))
			writeEntities(w, c.Entities)
		},
		func(r *reader) api.ActivateEmitter {
			return api.ActivateEmitter{
				Location:  api.Location(r.u8()),
				Index:     r.u16(),
				Intensity: api.Fraction(r.u16()),
				Entities:  readEntities(r),
			}
		},
	),

	api.KindUpdatePlayerStatus: typed(
		func(w *writer, c api.UpdatePlayerStatus) {
			w.u8(c.Player)
			w.boolean(c.UnlimitedMoves)
		},
		func(r *reader) api.UpdatePlayerStatus {
			return api.UpdatePlayerStatus{Player: r.u8(), UnlimitedMoves: r.boolean()}
		},
	),

	api.KindQuerySystemInfo: empty[api.QuerySystemInfo](),

	api.KindExecuteRingmasterAction: typed(
		func(w *writer, c api.ExecuteRingmasterAction) {
			w.u8(uint8(c.Action))
			w.u8(handFlags(c.LeftHand, c.RightHand))
		},
		func(r *reader) api.ExecuteRingmasterAction {
			c := api.ExecuteRingmasterAction{Action: api.RingmasterAction(r.u8())}
			c.LeftHand, c.RightHand = readHandFlags(r)
			return c
		},
	),

	api.KindExecuteGenericAction: typed(
		func(w *writer, c api.ExecuteGenericAction) {
			w.u8(c.Player)
			w.u8(handFlags(c.LeftHand, c.RightHand))
			w.f32(c.DamagePerFlame)
			w.u8(c.FlameWidth)
			w.f32(c.DurationSeconds)
			w.f32(c.Acceleration)
		},
		func(r *reader) api.ExecuteGenericAction {
			c := api.ExecuteGenericAction{Player: r.u8()}
			c.LeftHand, c.RightHand = readHandFlags(r)
			c.DamagePerFlame = r.f32()
			c.FlameWidth = r.u8()
			c.DurationSeconds = r.f32()
			c.Acceleration = r.f32()
			return c
		},
	),

	// --- События ---
	api.KindGameInfoRefresh: typed(
		func(w *writer, e api.GameInfoRefresh) {
			w.u8(uint8(e.State))
			w.u8(uint8(len(e.RoundResults)))
			for _, rr := range e.RoundResults {
				w.u8(uint8(rr))
			}
			w.u8(uint8(e.MatchResult))
			w.f32(e.Player1Health)
			w.f32(e.Player2Health)
			w.f32(e.Player1ActionPoints)
			w.f32(e.Player2ActionPoints)
			w.boolean(e.Player1UnlimitedMoves)
			w.boolean(e.Player2UnlimitedMoves)
			w.u8(uint8(e.Countdown))
			w.u16(e.RoundTimerSeconds)
			w.boolean(e.TimedOut)
		},
		func(r *reader) api.GameInfoRefresh {
			e := api.GameInfoRefresh{State: api.GameState(r.u8())}
			// Пустой список остаётся nil.
			if n := int(r.u8()); n > 0 {
				e.RoundResults = make([]api.RoundResult, 0, n)
				for i := 0; i < n && r.err == nil; i++ {
					e.RoundResults = append(e.RoundResults, api.RoundResult(r.u8()))
				}
			}
			e.MatchResult = api.MatchResult(r.u8())
			e.Player1Health = r.f32()
			e.Player2Health = r.f32()
			e.Player1ActionPoints = r.f32()
			e.Player2ActionPoints = r.f32()
			e.Player1UnlimitedMoves = r.boolean()
			e.Player2UnlimitedMoves = r.boolean()
			e.Countdown = api.Countdown(r.u8())
			e.RoundTimerSeconds = r.u16()
			e.TimedOut = r.boolean()
			return e
		},
	),

	api.KindFireEmitterChanged: typed(
		func(w *writer, e api.FireEmitterChanged) {
			w.u8(uint8(e.Location))
			w.u16(e.Index)
			w.u16(uint16(e.Player1))
			w.u16(uint16(e.Player2))
			w.u16(uint16(e.Ringmaster))
		},
		func(r *reader) api.FireEmitterChanged {
			return api.FireEmitterChanged{
				Location:   api.Location(r.u8()),
				Index:      r.u16(),
				Player1:    api.Fraction(r.u16()),
				Player2:    api.Fraction(r.u16()),
				Ringmaster: api.Fraction(r.u16()),
			}
		},
	),

	api.KindGameStateChanged: typed(
		func(w *writer, e api.GameStateChanged) {
			w.u8(uint8(e.Old))
			w.u8(uint8(e.New))
		},
		func(r *reader) api.GameStateChanged {
			return api.GameStateChanged{Old: api.GameState(r.u8()), New: api.GameState(r.u8())}
		},
	),

	api.KindPlayerHealthChanged: typed(
		func(w *writer, e api.PlayerHealthChanged) {
			w.u8(e.Player)
			w.f32(e.Old)
			w.f32(e.New)
		},
		func(r *reader) api.PlayerHealthChanged {
			return api.PlayerHealthChanged{Player: r.u8(), Old: r.f32(), New: r.f32()}
		},
	),

	api.KindPlayerActionPointsChanged: typed(
		func(w *writer, e api.PlayerActionPointsChanged) {
			w.u8(e.Player)
			w.f32(e.Old)
			w.f32(e.New)
		},
		func(r *reader) api.PlayerActionPointsChanged {
			return api.PlayerActionPointsChanged{Player: r.u8(), Old: r.f32(), New: r.f32()}
		},
	),

	api.KindRoundBeginTimerChanged: typed(
		func(w *writer, e api.RoundBeginTimerChanged) {
			w.u8(uint8(e.Countdown))
			w.u8(e.Round)
		},
		func(r *reader) api.RoundBeginTimerChanged {
			return api.RoundBeginTimerChanged{Countdown: api.Countdown(r.u8()), Round: r.u8()}
		},
	),

	api.KindRoundPlayTimerChanged: typed(
		func(w *writer, e api.RoundPlayTimerChanged) { w.u16(e.Seconds) },
		func(r *reader) api.RoundPlayTimerChanged {
			return api.RoundPlayTimerChanged{Seconds: r.u16()}
		},
	),

	api.KindRoundEnded: typed(
		func(w *writer, e api.RoundEnded) {
			w.u8(e.Round)
			w.u8(uint8(e.Result))
			w.boolean(e.TimedOut)
			w.f32(e.Player1Health)
			w.f32(e.Player2Health)
		},
		func(r *reader) api.RoundEnded {
			return api.RoundEnded{
				Round:         r.u8(),
				Result:        api.RoundResult(r.u8()),
				TimedOut:      r.boolean(),
				Player1Health: r.f32(),
				Player2Health: r.f32(),
			}
		},
	),

	api.KindMatchEnded: typed(
		func(w *writer, e api.MatchEnded) {
			w.u8(uint8(e.Result))
			w.f32(e.Player1Health)
			w.f32(e.Player2Health)
		},
		func(r *reader) api.MatchEnded {
			return api.MatchEnded{
				Result:        api.MatchResult(r.u8()),
				Player1Health: r.f32(),
				Player2Health: r.f32(),
			}
		},
	),

	api.KindPlayerAttackAction: typed(
		func(w *writer, e api.PlayerAttackAction) {
			w.u8(e.Player)
			w.u8(uint8(e.Attack))
		},
		func(r *reader) api.PlayerAttackAction {
			return api.PlayerAttackAction{Player: r.u8(), Attack: api.AttackType(r.u8())}
		},
	),

	api.KindPlayerBlockAction: typed(
		func(w *writer, e api.PlayerBlockAction) {
			w.u8(e.Player)
			w.boolean(e.Effective)
		},
		func(r *reader) api.PlayerBlockAction {
			return api.PlayerBlockAction{Player: r.u8(), Effective: r.boolean()}
		},
	),

	api.KindUnrecognizedGesture: typed(
		func(w *writer, e api.UnrecognizedGesture) { w.u8(uint8(e.Entity)) },
		func(r *reader) api.UnrecognizedGesture {
			return api.UnrecognizedGesture{Entity: api.Entity(r.u8())}
		},
	),

	api.KindBlockWindow: typed(
		func(w *writer, e api.BlockWindow) {
			w.u32(e.ID)
			w.boolean(e.Expired)
			w.f32(e.Seconds)
			w.u8(e.BlockingPlayer)
		},
		func(r *reader) api.BlockWindow {
			return api.BlockWindow{
				ID:             r.u32(),
				Expired:        r.boolean(),
				Seconds:        r.f32(),
				BlockingPlayer: r.u8(),
			}
		},
	),

	api.KindRingmasterAction: typed(
		func(w *writer, e api.RingmasterActionPerformed) { w.u8(uint8(e.Action)) },
		func(r *reader) api.RingmasterActionPerformed {
			return api.RingmasterActionPerformed{Action: api.RingmasterAction(r.u8())}
		},
	),

	api.KindSystemInfoRefresh: typed(
		func(w *writer, e api.SystemInfoRefresh) {
			writeDevices(w, e.LeftRail)
			writeDevices(w, e.RightRail)
			writeDevices(w, e.OuterRing)
		},
		func(r *reader) api.SystemInfoRefresh {
			return api.SystemInfoRefresh{
				LeftRail:  readDevices(r),
				RightRail: readDevices(r),
				OuterRing: readDevices(r),
			}
		},
	),
}

const (
	flagLeftHand  = 1 << 0
	flagRightHand = 1 << 1
)

func handFlags(left, right bool) uint8 {
	var f uint8
	if left {
		f |= flagLeftHand
	}
	if right {
		f |= flagRightHand
	}
	return f
}

func readHandFlags(r *reader) (left, right bool) {
	f := r.u8()
	if f&^(flagLeftHand|flagRightHand) != 0 {
		r.fail("unknown hand flag bits %#x", f)
		return false, false
	}
	return f&flagLeftHand != 0, f&flagRightHand != 0
}

// Множество сущностей имеет переменную длину: счётчик и коды по возрастанию.
func writeEntities(w *writer, set api.EntitySet) {
	entities := set.Entities()
	w.u8(uint8(len(entities)))
	for _, e := range entities {
		w.u8(uint8(e))
	}
}

func readEntities(r *reader) api.EntitySet {
	n := int(r.u8())
	if n > 3 {
		r.fail("entity set of %d elements", n)
		return 0
	}
	var set api.EntitySet
	for i := 0; i < n && r.err == nil; i++ {
		e := api.Entity(r.u8())
		if !e.Valid() {
			r.fail("unknown entity code %d", e)
			return 0
		}
		if set.Has(e) {
			r.fail("duplicate entity %s", e)
			return 0
		}
		set = set.With(e)
	}
	return set
}

const (
	flagResponding = 1 << 0
	flagArmed      = 1 << 1
	flagFlame      = 1 << 2
)

// Банк устройств: счётчик, затем (u16 номер, u8 флаги) на каждое устройство.
func writeDevices(w *writer, devices []api.DeviceStatus) {
	w.u8(uint8(len(devices)))
	for _, d := range devices {
		var f uint8
		if d.Responding {
			f |= flagResponding
		}
		if d.Armed {
			f |= flagArmed
		}
		if d.Flame {
			f |= flagFlame
		}
		w.u16(d.DeviceID)
		w.u8(f)
	}
}

func readDevices(r *reader) []api.DeviceStatus {
	n := int(r.u8())
	if n == 0 {
		return nil
	}
	out := make([]api.DeviceStatus, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		id := r.u16()
		f := r.u8()
		if f&^(flagResponding|flagArmed|flagFlame) != 0 {
			r.fail("unknown device flag bits %#x", f)
			return nil
		}
		out = append(out, api.DeviceStatus{
			DeviceID:   id,
			Responding: f&flagResponding != 0,
			Armed:      f&flagArmed != 0,
			Flame:      f&flagFlame != 0,
		})
	}
	return out
}
