package domain

import (
	"errors"
	"fmt"

	"streetfire-server/pkg/api"
)

var ErrHands = errors.New("hands do not match the action")

// Hands - какими руками выполнено движение.
type Hands uint8

const (
	NoHands   Hands = 0
	LeftHand  Hands = 1
	RightHand Hands = 2
	BothHands Hands = LeftHand | RightHand
)

func HandsOf(left, right bool) Hands {
	var h Hands
	if left {
		h |= LeftHand
	}
	if right {
		h |= RightHand
	}
	return h
}

// Move - разрешённая атака: что показать на арене и сколько она стоит.
type Move struct {
	Attack api.AttackType
	Damage float32
	Cost   float32
}

// moveVariants: действие -> (руки -> атака). Отсутствие ключа - недопустимая комбинация.
var moveVariants = map[api.PlayerAction]map[Hands]Move{
	api.JabAttack: {
		LeftHand:  {api.LeftJab, 5, 5},
		RightHand: {api.RightJab, 5, 5},
	},
	api.HookAttack: {
		LeftHand:  {api.LeftHook, 8, 8},
		RightHand: {api.RightHook, 8, 8},
	},
	api.UppercutAttack: {
		LeftHand:  {api.LeftUppercut, 10, 10},
		RightHand: {api.RightUppercut, 10, 10},
	},
	api.ChopAttack: {
		LeftHand:  {api.LeftChop, 8.75, 9},
		RightHand: {api.RightChop, 8.75, 9},
	},
	api.HadoukenAttack: {
		BothHands: {api.Hadouken, 15, 25},
	},
	api.ShoryukenAttack: {
		LeftHand:  {api.LeftShoryuken, 18, 30},
		RightHand: {api.RightShoryuken, 18, 30},
	},
	api.SonicBoomAttack: {
		BothHands: {api.SonicBoom, 15, 25},
	},
	api.DoubleLariatAttack: {
		BothHands: {api.DoubleLariat, 16, 30},
	},
	api.SumoHeadbuttAttack: {
		BothHands: {api.SumoHeadbutt, 12, 20},
	},
	api.OneHundredHandSlapAttack: {
		LeftHand:  {api.LeftOneHundredHandSlap, 10, 20},
		RightHand: {api.RightOneHundredHandSlap, 10, 20},
		BothHands: {api.TwoHandedOneHundredHandSlap, 15, 30},
	},
}

// ResolveMove превращает действие игрока в конкретную атаку.
// Block атакой не является и здесь не разрешается.
func ResolveMove(action api.PlayerAction, left, right bool) (Move, error) {
	variants, ok := moveVariants[action]
	if !ok {
		return Move{}, fmt.Errorf("%s is not an attack", action)
	}
	hands := HandsOf(left, right)
	m, ok := variants[hands]
	if !ok {
		return Move{}, fmt.Errorf("%s with hands=%d: %w", action, hands, ErrHands)
	}
	return m, nil
}
