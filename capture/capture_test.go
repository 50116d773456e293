package capture

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func defaultParams() Params {
	return Params{Radius: 50, HoldTicks: 30, AngleRad: 60 * math.Pi / 180}
}

// The debounce only fires once the envelope has held for exactly
// HoldTicks consecutive ticks, not before.
func TestDebounceHoldsExactTickCount(t *testing.T) {
	p := defaultParams()
	b := NewBuffer(2)

	positions := []r3.Vec{{X: 0}, {X: 10}} // well within radius, static
	gammas := []float64{0, 0}
	psis := []float64{0, 0} // identical heading, angle 0 <= maxAngle

	var result Result
	for tick := 0; tick < p.HoldTicks; tick++ {
		result = b.Evaluate(positions, positions, gammas, psis, p)
		if tick < p.HoldTicks-1 && result.Captured {
			t.Fatalf("captured too early at tick %d", tick)
		}
	}
	if !result.Captured {
		t.Fatalf("expected capture after %d consecutive ticks", p.HoldTicks)
	}
	if result.Pursuer != 0 || result.Evader != 1 {
		t.Fatalf("expected pursuer=0 evader=1 (first lexicographic pair), got pursuer=%d evader=%d", result.Pursuer, result.Evader)
	}
}

// The envelope holds for 29 ticks then breaks; no capture should fire,
// and the counter must reset to zero rather than merely pausing.
func TestDebounceResetsOnBreak(t *testing.T) {
	p := defaultParams()
	b := NewBuffer(2)

	within := []r3.Vec{{X: 0}, {X: 10}}
	outside := []r3.Vec{{X: 0}, {X: 1000}}
	gammas := []float64{0, 0}
	psis := []float64{0, 0}

	for tick := 0; tick < p.HoldTicks-1; tick++ {
		result := b.Evaluate(within, within, gammas, psis, p)
		if result.Captured {
			t.Fatalf("unexpected capture at tick %d", tick)
		}
	}

	// Break the envelope for one tick.
	if result := b.Evaluate(outside, outside, gammas, psis, p); result.Captured {
		t.Fatalf("unexpected capture on the breaking tick")
	}

	// Counter must have reset: HoldTicks-1 more within-envelope ticks
	// must NOT be enough to reach HoldTicks.
	var result Result
	for tick := 0; tick < p.HoldTicks-1; tick++ {
		result = b.Evaluate(within, within, gammas, psis, p)
		if result.Captured {
			t.Fatalf("capture fired too early after reset, at tick %d", tick)
		}
	}
	if result.Captured {
		t.Fatal("counter did not reset after the break")
	}

	// One more tick reaches the full hold count post-reset.
	result = b.Evaluate(within, within, gammas, psis, p)
	if !result.Captured {
		t.Fatal("expected capture once the post-reset hold count is reached")
	}
}

func TestOutsideRadiusNeverCaptures(t *testing.T) {
	p := defaultParams()
	b := NewBuffer(2)
	positions := []r3.Vec{{X: 0}, {X: 10000}}
	gammas := []float64{0, 0}
	psis := []float64{0, 0}

	for tick := 0; tick < 200; tick++ {
		if result := b.Evaluate(positions, positions, gammas, psis, p); result.Captured {
			t.Fatalf("capture fired despite being far outside the radius, at tick %d", tick)
		}
	}
}

func TestAngleOutsideEnvelopeNeverCaptures(t *testing.T) {
	p := defaultParams()
	b := NewBuffer(2)
	positions := []r3.Vec{{X: 0}, {X: 10}}
	gammas := []float64{0, 0}
	// Opposite headings: angle = pi, well beyond the 60 degree envelope.
	psis := []float64{0, math.Pi}

	for tick := 0; tick < 200; tick++ {
		if result := b.Evaluate(positions, positions, gammas, psis, p); result.Captured {
			t.Fatalf("capture fired despite divergent headings, at tick %d", tick)
		}
	}
}

func TestVelocityAngleIdenticalHeadingIsZero(t *testing.T) {
	got := velocityAngle(0.1, 0.5, 0.1, 0.5)
	if math.Abs(got) > 1e-9 {
		t.Fatalf("identical heading angle = %v, want 0", got)
	}
}

func TestHistoryCapturePointLagsByDepthMinusOne(t *testing.T) {
	h := NewHistory(5, r3.Vec{X: 0})
	for i := 1; i <= 4; i++ {
		h.Push(r3.Vec{X: float64(i)})
	}
	// After 4 pushes into a depth-5 ring seeded with 0, the oldest entry
	// (capture point) should still be the original seed value.
	if cp := h.CapturePoint(); cp.X != 0 {
		t.Fatalf("capture point = %v, want the seeded origin (lag not yet exhausted)", cp)
	}

	h.Push(r3.Vec{X: 5})
	if cp := h.CapturePoint(); cp.X != 1 {
		t.Fatalf("capture point = %v, want 1 (oldest of the depth entries, depth-1 behind the newest)", cp)
	}
}

func TestResetZeroesCounters(t *testing.T) {
	p := defaultParams()
	b := NewBuffer(2)
	positions := []r3.Vec{{X: 0}, {X: 10}}
	gammas := []float64{0, 0}
	psis := []float64{0, 0}

	for tick := 0; tick < p.HoldTicks-1; tick++ {
		b.Evaluate(positions, positions, gammas, psis, p)
	}
	b.Reset()
	if result := b.Evaluate(positions, positions, gammas, psis, p); result.Captured {
		t.Fatal("capture fired immediately after Reset, counters should restart from zero")
	}
}
