package domain

import (
	"math"

	"streetfire-server/pkg/api"
)

// EmitterRef - адрес одного эмиттера.
type EmitterRef struct {
	Location api.Location
	Index    int
}

// RingmasterTargets - эмиттеры, которые зажигает жест ведущего.
// Половины кольца считаются от нулевого эмиттера по часовой стрелке.
func (m *Match) RingmasterTargets(action api.RingmasterAction) []EmitterRef {
	ring := m.EmitterCount(api.OuterRing)
	half := ring / 2

	switch action {
	case api.RingmasterLeftHalfRing:
		return m.span(api.OuterRing, 0, half, 1)
	case api.RingmasterRightHalfRing:
		return m.span(api.OuterRing, half, ring, 1)
	case api.RingmasterLeftJab:
		return m.span(api.LeftRail, 0, m.EmitterCount(api.LeftRail), 1)
	case api.RingmasterRightJab:
		return m.span(api.RightRail, 0, m.EmitterCount(api.RightRail), 1)
	case api.RingmasterLeftCircle, api.RingmasterRightCircle:
		return m.span(api.OuterRing, 0, ring, 1)
	case api.RingmasterHadouken:
		out := m.span(api.LeftRail, 0, m.EmitterCount(api.LeftRail), 1)
		return append(out, m.span(api.RightRail, 0, m.EmitterCount(api.RightRail), 1)...)
	case api.RingmasterDrum:
		return m.span(api.OuterRing, 0, ring, 2)
	case api.RingmasterEruption:
		var out []EmitterRef
		for _, loc := range []api.Location{api.LeftRail, api.RightRail, api.OuterRing} {
			out = append(out, m.span(loc, 0, m.EmitterCount(loc), 1)...)
		}
		return out
	}
	return nil
}

func (m *Match) span(loc api.Location, from, to, step int) []EmitterRef {
	var out []EmitterRef
	for i := from; i < to; i += step {
		out = append(out, EmitterRef{Location: loc, Index: i})
	}
	return out
}

// GenericDamage - урон произвольной атаки: за каждое пламя каждой руки.
func GenericDamage(perFlame float32, width int, hands Hands) float32 {
	n := 0
	if hands&LeftHand != 0 {
		n++
	}
	if hands&RightHand != 0 {
		n++
	}
	return perFlame * float32(width*n)
}

// HoldTicks переводит длительность пламени в число тиков сверх первого.
// Тик движка - секунда игрового времени.
func HoldTicks(seconds float32) uint16 {
	if seconds <= 1 {
		return 0
	}
	return uint16(min(math.Ceil(float64(seconds))-1, math.MaxUint16))
}
