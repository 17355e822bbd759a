package client

import (
	"fmt"
	"math"
	"time"

	"streetfire-server/pkg/api"
)

// ActivateEmitter зажигает эмиттер location/index с интенсивностью [0, 1] от имени entities.
func (c *Client) ActivateEmitter(location api.Location, index int, intensity float64, entities api.EntitySet) error {
	if index < 0 || index > math.MaxUint16 {
		return fmt.Errorf("emitter index %d: %w", index, api.ErrOutOfRange)
	}
	frac, err := api.FractionFromFloat(intensity)
	if err != nil {
		return err
	}
	return c.Send(api.ActivateEmitter{
		Location:  location,
		Index:     uint16(index),
		Intensity: frac,
		Entities:  entities,
	})
}

func (c *Client) InitiateNextState(state api.GameState) error {
	return c.Send(api.InitiateNextState{State: state})
}

// ExecutePlayerAction - действие игрока 1 или 2 с указанием задействованных рук.
func (c *Client) ExecutePlayerAction(player int, action api.PlayerAction, leftHand, rightHand bool) error {
	p, err := playerNum(player)
	if err != nil {
		return err
	}
	return c.Send(api.ExecutePlayerAction{
		Player:    p,
		Action:    action,
		LeftHand:  leftHand,
		RightHand: rightHand,
	})
}

func (c *Client) KillGame() error { return c.Send(api.KillGame{}) }

func (c *Client) TogglePause() error { return c.Send(api.TogglePause{}) }

// QueryGameInfoRefresh просит сервер прислать полный снимок состояния.
func (c *Client) QueryGameInfoRefresh() error { return c.Send(api.Refresh{}) }

func (c *Client) UpdatePlayerStatus(player int, unlimitedMoves bool) error {
	p, err := playerNum(player)
	if err != nil {
		return err
	}
	return c.Send(api.UpdatePlayerStatus{Player: p, UnlimitedMoves: unlimitedMoves})
}

// ExecuteRingmasterAction - жест ведущего. Нужна хотя бы одна рука.
func (c *Client) ExecuteRingmasterAction(action api.RingmasterAction, leftHand, rightHand bool) error {
	return c.Send(api.ExecuteRingmasterAction{Action: action, LeftHand: leftHand, RightHand: rightHand})
}

// ExecuteGenericAction - атака игрока с произвольными параметрами пламени.
// acceleration <= 0 означает постоянную скорость.
func (c *Client) ExecuteGenericAction(player int, leftHand, rightHand bool, damagePerFlame float32,
	flameWidth int, duration time.Duration, acceleration float64) error {
	p, err := playerNum(player)
	if err != nil {
		return err
	}
	if flameWidth < 1 || flameWidth > math.MaxUint8 {
		return fmt.Errorf("flame width %d: %w", flameWidth, api.ErrOutOfRange)
	}
	if duration <= 0 {
		return fmt.Errorf("duration %s: %w", duration, api.ErrOutOfRange)
	}
	if damagePerFlame < 0 {
		return fmt.Errorf("damage per flame %v: %w", damagePerFlame, api.ErrOutOfRange)
	}
	return c.Send(api.ExecuteGenericAction{
		Player:          p,
		LeftHand:        leftHand,
		RightHand:       rightHand,
		DamagePerFlame:  damagePerFlame,
		FlameWidth:      uint8(flameWidth),
		DurationSeconds: float32(duration.Seconds()),
		Acceleration:    float32(acceleration),
	})
}

// QuerySystemInfo просит сервер прислать состояние устройств арены.
func (c *Client) QuerySystemInfo() error { return c.Send(api.QuerySystemInfo{}) }

func playerNum(player int) (uint8, error) {
	if player != 1 && player != 2 {
		return 0, fmt.Errorf("player %d: %w", player, api.ErrOutOfRange)
	}
	return uint8(player), nil
}
