package api

import (
	"errors"
	"fmt"
	"math"
)

// Validator - интерфейс, который реализуют сообщения с полями, требующими проверки.
// Кодек вызывает его и при кодировании, и при декодировании.
type Validator interface {
	Validate() error
}

func validPlayer(p uint8) error {
	if p != 1 && p != 2 {
		return fmt.Errorf("player number %d: %w", p, ErrOutOfRange)
	}
	return nil
}

func validFloat(name string, f float32) error {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s is not a finite number", name)
	}
	return nil
}

func (c InitiateNextState) Validate() error {
	if !c.State.Valid() {
		return fmt.Errorf("unknown game state code %d", c.State)
	}
	return nil
}

func (c ExecutePlayerAction) Validate() error {
	if err := validPlayer(c.Player); err != nil {
		return err
	}
	if !c.Action.Valid() {
		return fmt.Errorf("unknown player action code %d", c.Action)
	}
	return nil
}

func (c ActivateEmitter) Validate() error {
	if !c.Location.Valid() {
		return fmt.Errorf("unknown location code %d", c.Location)
	}
	if !c.Intensity.Valid() {
		return fmt.Errorf("intensity %d: %w", c.Intensity, ErrOutOfRange)
	}
	if !c.Entities.Valid() {
		return errors.New("entity set contains unknown entities")
	}
	return nil
}

func (c UpdatePlayerStatus) Validate() error {
	return validPlayer(c.Player)
}

func (c ExecuteRingmasterAction) Validate() error {
	if !c.Action.Valid() {
		return fmt.Errorf("unknown ringmaster action code %d", c.Action)
	}
	if !c.LeftHand && !c.RightHand {
		return errors.New("ringmaster action needs at least one hand")
	}
	return nil
}

func (c ExecuteGenericAction) Validate() error {
	if err := validPlayer(c.Player); err != nil {
		return err
	}
	if !c.LeftHand && !c.RightHand {
		return errors.New("generic action needs at least one hand")
	}
	for name, f := range map[string]float32{
		"damagePerFlame":  c.DamagePerFlame,
		"durationSeconds": c.DurationSeconds,
		"acceleration":    c.Acceleration,
	} {
		if err := validFloat(name, f); err != nil {
			return err
		}
	}
	if c.DamagePerFlame < 0 {
		return fmt.Errorf("damage per flame %v: %w", c.DamagePerFlame, ErrOutOfRange)
	}
	if c.FlameWidth == 0 {
		return fmt.Errorf("flame width 0: %w", ErrOutOfRange)
	}
	if c.DurationSeconds <= 0 {
		return fmt.Errorf("duration %v: %w", c.DurationSeconds, ErrOutOfRange)
	}
	return nil
}

func (e GameInfoRefresh) Validate() error {
	if !e.State.Valid() {
		return fmt.Errorf("unknown game state code %d", e.State)
	}
	if len(e.RoundResults) > math.MaxUint8 {
		return fmt.Errorf("too many round results: %d", len(e.RoundResults))
	}
	for _, r := range e.RoundResults {
		if !r.Valid() {
			return fmt.Errorf("unknown round result code %d", r)
		}
	}
	if !e.MatchResult.Valid() {
		return fmt.Errorf("unknown match result code %d", e.MatchResult)
	}
	// Отсчёт в снимке может отсутствовать (ноль), если раунд не начинается.
	if e.Countdown != CountdownUnknown && !e.Countdown.Valid() {
		return fmt.Errorf("unknown countdown code %d", e.Countdown)
	}
	for name, f := range map[string]float32{
		"player1Health":       e.Player1Health,
		"player2Health":       e.Player2Health,
		"player1ActionPoints": e.Player1ActionPoints,
		"player2ActionPoints": e.Player2ActionPoints,
	} {
		if err := validFloat(name, f); err != nil {
			return err
		}
	}
	return nil
}

func (e FireEmitterChanged) Validate() error {
	if !e.Location.Valid() {
		return fmt.Errorf("unknown location code %d", e.Location)
	}
	for _, f := range []Fraction{e.Player1, e.Player2, e.Ringmaster} {
		if !f.Valid() {
			return fmt.Errorf("intensity %d: %w", f, ErrOutOfRange)
		}
	}
	return nil
}

func (e GameStateChanged) Validate() error {
	if !e.Old.Valid() || !e.New.Valid() {
		return fmt.Errorf("unknown game state transition %d -> %d", e.Old, e.New)
	}
	return nil
}

func (e PlayerHealthChanged) Validate() error {
	if err := validPlayer(e.Player); err != nil {
		return err
	}
	if err := validFloat("old", e.Old); err != nil {
		return err
	}
	return validFloat("new", e.New)
}

func (e PlayerActionPointsChanged) Validate() error {
	if err := validPlayer(e.Player); err != nil {
		return err
	}
	if err := validFloat("old", e.Old); err != nil {
		return err
	}
	return validFloat("new", e.New)
}

func (e RoundBeginTimerChanged) Validate() error {
	if !e.Countdown.Valid() {
		return fmt.Errorf("unknown countdown code %d", e.Countdown)
	}
	return nil
}

func (e RoundEnded) Validate() error {
	if !e.Result.Valid() {
		return fmt.Errorf("unknown round result code %d", e.Result)
	}
	if err := validFloat("player1Health", e.Player1Health); err != nil {
		return err
	}
	return validFloat("player2Health", e.Player2Health)
}

func (e MatchEnded) Validate() error {
	if e.Result == MatchUndecided || !e.Result.Valid() {
		return fmt.Errorf("match ended without a result (code %d)", e.Result)
	}
	if err := validFloat("player1Health", e.Player1Health); err != nil {
		return err
	}
	return validFloat("player2Health", e.Player2Health)
}

func (e PlayerAttackAction) Validate() error {
	if err := validPlayer(e.Player); err != nil {
		return err
	}
	if !e.Attack.Valid() {
		return fmt.Errorf("unknown attack type code %d", e.Attack)
	}
	return nil
}

func (e PlayerBlockAction) Validate() error {
	return validPlayer(e.Player)
}

func (e UnrecognizedGesture) Validate() error {
	if !e.Entity.Valid() {
		return fmt.Errorf("unknown entity code %d", e.Entity)
	}
	return nil
}

func (e BlockWindow) Validate() error {
	if err := validPlayer(e.BlockingPlayer); err != nil {
		return err
	}
	return validFloat("seconds", e.Seconds)
}

func (e RingmasterActionPerformed) Validate() error {
	if !e.Action.Valid() {
		return fmt.Errorf("unknown ringmaster action code %d", e.Action)
	}
	return nil
}

func (e SystemInfoRefresh) Validate() error {
	for _, loc := range []Location{LeftRail, RightRail, OuterRing} {
		if n := len(e.Devices(loc)); n > math.MaxUint8 {
			return fmt.Errorf("too many devices at %s: %d", loc, n)
		}
	}
	return nil
}
