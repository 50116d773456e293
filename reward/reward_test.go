package reward

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func defaultParams() Params {
	return Params{
		ThreatTimesteps: []float64{0, 1, 5, 10},
		Magnitude:       300,
		Discount:        0.99999,
	}
}

func TestSingletonReturnsZero(t *testing.T) {
	p := defaultParams()
	selfPos := r3.Vec{X: 0, Y: 0, Z: 0}
	selfVel := r3.Vec{X: 1, Y: 0, Z: 0}

	if got := PositiveMaximum(selfPos, selfVel, nil); got != 0 {
		t.Errorf("PositiveMaximum with no others = %v, want 0", got)
	}
	if got := NegativeMaximum(selfPos, nil, nil, p); got != 0 {
		t.Errorf("NegativeMaximum with no others = %v, want 0", got)
	}
	if got := Evaluate(selfPos, selfVel, nil, nil, p); got != 0 {
		t.Errorf("Evaluate with no others = %v, want 0", got)
	}
}

func TestPositiveMaximumPerfectAlignment(t *testing.T) {
	selfPos := r3.Vec{X: 0, Y: 0, Z: 0}
	selfVel := r3.Vec{X: 10, Y: 0, Z: 0}
	others := []r3.Vec{{X: 100, Y: 0, Z: 0}}

	got := PositiveMaximum(selfPos, selfVel, others)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("perfectly aligned target: got %v, want 1.0", got)
	}
}

func TestPositiveMaximumPicksBestOfSeveral(t *testing.T) {
	selfPos := r3.Vec{X: 0, Y: 0, Z: 0}
	selfVel := r3.Vec{X: 1, Y: 0, Z: 0}
	others := []r3.Vec{
		{X: 0, Y: 100, Z: 0},  // orthogonal, alignment 0
		{X: 100, Y: 0, Z: 0},  // aligned, alignment 1
		{X: -100, Y: 0, Z: 0}, // opposite, alignment -1
	}

	got := PositiveMaximum(selfPos, selfVel, others)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected max alignment 1.0, got %v", got)
	}
}

func TestNegativeMaximumZeroRadiusDiskNeverContainsSelf(t *testing.T) {
	p := defaultParams()
	other := r3.Vec{X: 0, Y: 0, Z: 0}
	otherVel := r3.Vec{X: 0, Y: 0, Z: 0} // radius 0 at t=0, no containment anywhere
	selfPos := r3.Vec{X: 0, Y: 0, Z: 0}

	got := NegativeMaximum(selfPos, []r3.Vec{other}, []r3.Vec{otherVel}, p)
	if got != 0 {
		t.Errorf("zero-radius disk should never contain self: got %v", got)
	}
}

func TestNegativeMaximumInsideGrowingDisk(t *testing.T) {
	p := defaultParams()
	other := r3.Vec{X: 0, Y: 0, Z: 0}
	otherVel := r3.Vec{X: 10, Y: 0, Z: 0} // radius at t=10 is 100
	selfPos := r3.Vec{X: 95, Y: 0, Z: 0}  // inside the t=10 disk centred at (100,0,0)

	got := NegativeMaximum(selfPos, []r3.Vec{other}, []r3.Vec{otherVel}, p)
	if got <= 0 {
		t.Errorf("expected positive penalty for being inside threat disk, got %v", got)
	}

	wantDist := 5.0 // |95 - 100|
	want := p.Magnitude * math.Pow(p.Discount, wantDist)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("penalty = %v, want %v", got, want)
	}
}

func TestHardDeckPenaltyIsInert(t *testing.T) {
	p := defaultParams()
	p.HardDeck = 1000
	if got := HardDeckPenalty(r3.Vec{X: 0, Y: 0, Z: -500}, p); got != 0 {
		t.Errorf("HardDeckPenalty should be inert by default, got %v", got)
	}
}
