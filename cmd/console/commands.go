package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"streetfire-server/pkg/api"
)

var (
	errUsage   = errors.New("usage")
	errUnknown = errors.New("unknown command")
	errQuit    = errors.New("quit")
	errHelp    = errors.New("help")
)

// operator - то, что консоль умеет отправлять серверу (pkg/client.Client).
type operator interface {
	ActivateEmitter(location api.Location, index int, intensity float64, entities api.EntitySet) error
	InitiateNextState(state api.GameState) error
	ExecutePlayerAction(player int, action api.PlayerAction, leftHand, rightHand bool) error
	KillGame() error
	TogglePause() error
	QueryGameInfoRefresh() error
	UpdatePlayerStatus(player int, unlimitedMoves bool) error
	ExecuteRingmasterAction(action api.RingmasterAction, leftHand, rightHand bool) error
	ExecuteGenericAction(player int, leftHand, rightHand bool, damagePerFlame float32,
		flameWidth int, duration time.Duration, acceleration float64) error
	QuerySystemInfo() error
}

const help = `commands:
  refresh                                  request full game info
  next <state>                             e.g. next round_beginning
  action <player> <action> <left|right|both>
                                           e.g. action 1 hadouken both
  emit <location> <index> <0..1> <entity,...>
                                           e.g. emit left_rail 3 0.5 ringmaster
  ringmaster <action> <left|right|both>    e.g. ringmaster eruption both
  generic <player> <left|right|both> <damage> <width> <duration> [acceleration]
                                           e.g. generic 2 right 1.5 3 2s
  sysinfo                                  request device status
  unlimited <player> <on|off>
  pause                                    toggle pause
  kill                                     end the game session
  help
  quit`

// execute разбирает одну строку ввода и вызывает соответствующую операцию.
func execute(op operator, line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}

	switch name, args := strings.ToLower(args[0]), args[1:]; name {
	case "refresh":
		return op.QueryGameInfoRefresh()
	case "kill":
		return op.KillGame()
	case "pause":
		return op.TogglePause()
	case "next":
		if len(args) != 1 {
			return fmt.Errorf("%w: next <state>", errUsage)
		}
		state, err := parseState(args[0])
		if err != nil {
			return err
		}
		return op.InitiateNextState(state)
	case "action":
		if len(args) != 3 {
			return fmt.Errorf("%w: action <player> <action> <left|right|both>", errUsage)
		}
		player, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("player %q: %w", args[0], err)
		}
		action, err := parseAction(args[1])
		if err != nil {
			return err
		}
		left, right, err := parseHands(args[2])
		if err != nil {
			return err
		}
		return op.ExecutePlayerAction(player, action, left, right)
	case "emit":
		if len(args) != 4 {
			return fmt.Errorf("%w: emit <location> <index> <0..1> <entity,...>", errUsage)
		}
		loc := api.ParseLocation(args[0])
		if !loc.Valid() {
			return fmt.Errorf("location %q: %w", args[0], api.ErrOutOfRange)
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("index %q: %w", args[1], err)
		}
		intensity, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("intensity %q: %w", args[2], err)
		}
		entities, err := parseEntities(args[3])
		if err != nil {
			return err
		}
		return op.ActivateEmitter(loc, index, intensity, entities)
	case "unlimited":
		if len(args) != 2 {
			return fmt.Errorf("%w: unlimited <player> <on|off>", errUsage)
		}
		player, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("player %q: %w", args[0], err)
		}
		on, err := parseSwitch(args[1])
		if err != nil {
			return err
		}
		return op.UpdatePlayerStatus(player, on)
	case "ringmaster":
		if len(args) != 2 {
			return fmt.Errorf("%w: ringmaster <action> <left|right|both>", errUsage)
		}
		action, err := parseRingmasterAction(args[0])
		if err != nil {
			return err
		}
		left, right, err := parseHands(args[1])
		if err != nil {
			return err
		}
		return op.ExecuteRingmasterAction(action, left, right)
	case "generic":
		if len(args) != 5 && len(args) != 6 {
			return fmt.Errorf("%w: generic <player> <left|right|both> <damage> <width> <duration> [acceleration]", errUsage)
		}
		player, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("player %q: %w", args[0], err)
		}
		left, right, err := parseHands(args[1])
		if err != nil {
			return err
		}
		damage, err := strconv.ParseFloat(args[2], 32)
		if err != nil {
			return fmt.Errorf("damage %q: %w", args[2], err)
		}
		width, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("width %q: %w", args[3], err)
		}
		duration, err := time.ParseDuration(args[4])
		if err != nil {
			return fmt.Errorf("duration %q: %w", args[4], err)
		}
		var accel float64
		if len(args) == 6 {
			if accel, err = strconv.ParseFloat(args[5], 64); err != nil {
				return fmt.Errorf("acceleration %q: %w", args[5], err)
			}
		}
		return op.ExecuteGenericAction(player, left, right, float32(damage), width, duration, accel)
	case "sysinfo":
		return op.QuerySystemInfo()
	case "help":
		return errHelp
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("%w %q, type help", errUnknown, name)
	}
}

// parseState принимает полное имя (ROUND_BEGINNING_STATE) или сокращённое (round_beginning).
func parseState(s string) (api.GameState, error) {
	if st := api.ParseGameState(s); st.Valid() {
		return st, nil
	}
	if st := api.ParseGameState(s + "_STATE"); st.Valid() {
		return st, nil
	}
	if strings.EqualFold(s, "tie_breaker") {
		return api.TieBreakerRoundState, nil
	}
	return 0, fmt.Errorf("state %q: %w", s, api.ErrOutOfRange)
}

func parseAction(s string) (api.PlayerAction, error) {
	if a := api.ParsePlayerAction(s); a.Valid() {
		return a, nil
	}
	if a := api.ParsePlayerAction(s + "_ATTACK"); a.Valid() {
		return a, nil
	}
	return 0, fmt.Errorf("action %q: %w", s, api.ErrOutOfRange)
}

// parseRingmasterAction принимает полное имя или короткое (eruption, left_jab).
func parseRingmasterAction(s string) (api.RingmasterAction, error) {
	if a := api.ParseRingmasterAction(s); a.Valid() {
		return a, nil
	}
	if a := api.ParseRingmasterAction("RINGMASTER_" + s + "_ACTION"); a.Valid() {
		return a, nil
	}
	return 0, fmt.Errorf("ringmaster action %q: %w", s, api.ErrOutOfRange)
}

func parseHands(s string) (left, right bool, err error) {
	switch strings.ToLower(s) {
	case "left":
		return true, false, nil
	case "right":
		return false, true, nil
	case "both":
		return true, true, nil
	}
	return false, false, fmt.Errorf("hands %q: want left, right or both", s)
}

func parseEntities(s string) (api.EntitySet, error) {
	var set api.EntitySet
	if strings.EqualFold(s, "none") {
		return set, nil
	}
	for _, part := range strings.Split(s, ",") {
		e := api.ParseEntity(part)
		if !e.Valid() {
			return 0, fmt.Errorf("entity %q: %w", part, api.ErrOutOfRange)
		}
		set = set.With(e)
	}
	return set, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%q: want on or off", s)
}
