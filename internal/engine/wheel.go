package engine

import "github.com/johnnify/min-or-max/internal/rng"

// WheelMode is the comparison rule currently imposed by the wheel.
type WheelMode string

const (
	// ModeMax requires a played card's order to be >= the top card's order.
	ModeMax WheelMode = "max"
	// ModeMin requires a played card's order to be <= the top card's order.
	ModeMin WheelMode = "min"
)

// ModeFromWheelAngle derives the comparison mode from the wheel's angle.
// The angle is normalized mod 360 (negative angles wrap); [0,180) is max
// mode, [180,360) is min mode.
func ModeFromWheelAngle(angle int) WheelMode {
	normalized := ((angle % 360) + 360) % 360
	if normalized < 180 {
		return ModeMax
	}
	return ModeMin
}

// CanBeatTopCard reports whether card may legally be played on top.
// An Ace beats anything and anything beats an Ace; with no top card every
// play is legal; otherwise the ranks' orders are compared under the wheel's
// current mode.
func CanBeatTopCard(card Card, top *Card, wheelAngle int) bool {
	if top == nil {
		return true
	}
	if card.Rank == RankAce || top.Rank == RankAce {
		return true
	}

	cardOrder := CardOrder(card.Rank)
	topOrder := CardOrder(top.Rank)

	if ModeFromWheelAngle(wheelAngle) == ModeMax {
		return cardOrder >= topOrder
	}
	return cardOrder <= topOrder
}

// SpinDistance converts a continuous force input in [0,1] into degrees of
// wheel travel. Force is bucketed into four bands, each consuming exactly one
// draw; values between bands (or out of range) travel zero degrees and
// consume nothing.
func SpinDistance(force float64, r *rng.Rng) int {
	if r == nil {
		return 0
	}
	switch {
	case force >= 0 && force <= 0.1:
		return r.NextInt(15, 90)
	case force >= 0.26 && force <= 0.5:
		return r.NextInt(45, 180)
	case force >= 0.51 && force <= 0.999:
		return r.NextInt(90, 360)
	case force == 1:
		return r.NextInt(360, 2880)
	}
	return 0
}
