// Package reward scores a hypothetical self-position/self-velocity against
// the projected states of the other agents. Every function here is pure:
// it reads its arguments and returns a scalar, with no reference to
// mutable simulation state.
package reward

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Params carries the reward's shaping constants. The canonical values
// (Magnitude=300, Discount=0.99999, ThreatTimesteps={0,1,5,10}) are one
// coherent set; callers that want a different shaping pass a different
// Params.
type Params struct {
	ThreatTimesteps []float64
	Magnitude       float64
	Discount        float64
	HardDeck        float64 // altitude floor exposed to the (inert) penalty hook
}

// Evaluate returns positive_maximum - negative_maximum for a hypothetical
// self position/velocity against the other agents' projected
// positions/velocities. otherPos/otherVel must be the same
// length. With no other agents both terms are 0.
func Evaluate(selfPos, selfVel r3.Vec, otherPos, otherVel []r3.Vec, p Params) float64 {
	return PositiveMaximum(selfPos, selfVel, otherPos) - NegativeMaximum(selfPos, otherPos, otherVel, p)
}

// PositiveMaximum measures "pointing at someone": the maximum alignment,
// over all other agents, between the unit vector from self to that agent
// and self's velocity direction.
func PositiveMaximum(selfPos, selfVel r3.Vec, otherPos []r3.Vec) float64 {
	if len(otherPos) == 0 {
		return 0
	}
	speed := r3.Norm(selfVel)
	if speed == 0 {
		return 0
	}
	vHat := r3.Scale(1/speed, selfVel)

	best := math.Inf(-1)
	for _, op := range otherPos {
		r := r3.Sub(op, selfPos)
		d := r3.Norm(r)
		if d == 0 {
			continue
		}
		rHat := r3.Scale(1/d, r)
		alignment := r3.Dot(rHat, vHat)
		if alignment > best {
			best = alignment
		}
	}
	if math.IsInf(best, -1) {
		return 0
	}
	return best
}

// NegativeMaximum penalises self for being inside a predicted "threat
// disk" around each other agent, evaluated at each of p.ThreatTimesteps
// ticks ahead. The disk for agent j at lookahead t is centred at
// otherPos[j] + otherVel[j]*t with radius ‖otherVel[j]‖*t; if self lies
// within it the contribution is p.Magnitude * p.Discount^distance. The
// maximum contribution over all (agent, timestep) pairs is returned.
func NegativeMaximum(selfPos r3.Vec, otherPos, otherVel []r3.Vec, p Params) float64 {
	if len(otherPos) == 0 {
		return 0
	}

	best := 0.0
	for j := range otherPos {
		speed := r3.Norm(otherVel[j])
		for _, t := range p.ThreatTimesteps {
			center := r3.Add(otherPos[j], r3.Scale(t, otherVel[j]))
			radius := speed * t
			d := r3.Norm(r3.Sub(selfPos, center))
			if d >= radius {
				continue
			}
			contribution := p.Magnitude * math.Pow(p.Discount, d)
			if contribution > best {
				best = contribution
			}
		}
	}
	return best
}

// HardDeckPenalty is the altitude-floor shaping hook: it always returns 0.
// Evaluate does not call it. Activating a real floor penalty (e.g.
// p.Magnitude for selfPos.Z below p.HardDeck) and wiring it into Evaluate
// is a future extension, not implemented here.
func HardDeckPenalty(selfPos r3.Vec, p Params) float64 {
	_ = selfPos
	_ = p
	return 0
}
