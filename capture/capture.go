// Package capture implements the pairwise capture predicate:
// a pursuer captures an evader once the pursuer's live position falls within
// the capture radius of the evader's lagged capture point AND their velocity
// vectors converge to within the capture angle, held for HoldTicks
// consecutive ticks. The first
// (pursuer, evader) pair to satisfy the debounced predicate wins; the
// simulation terminates on that tick.
package capture

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Params carries the capture geometry and debounce constants.
type Params struct {
	Radius    float64 // capture radius, metres
	HoldTicks int     // consecutive ticks the predicate must hold before capture fires
	AngleRad  float64 // maximum angle between velocity vectors, radians
}

// Radius2 is the squared capture radius, used to avoid a sqrt per pair.
func (p Params) Radius2() float64 { return p.Radius * p.Radius }

// Buffer holds the N×N debounce counters for every ordered (pursuer,
// evader) pair. It is reset on construction and persists across ticks.
type Buffer struct {
	n        int
	counters []int // counters[i*n+j] is agent i's consecutive-tick count against agent j
}

// NewBuffer allocates a debounce buffer for n agents, all counters zero.
func NewBuffer(n int) *Buffer {
	return &Buffer{n: n, counters: make([]int, n*n)}
}

// Reset zeroes every counter, e.g. after a capture terminates a run and a
// fresh one is about to begin with the same Buffer.
func (b *Buffer) Reset() {
	for i := range b.counters {
		b.counters[i] = 0
	}
}

// Result describes one tick's capture evaluation outcome.
type Result struct {
	Captured bool
	Pursuer  int
	Evader   int
}

// Evaluate advances every ordered pair's debounce counter for one tick and
// reports the first pair whose counter reaches p.HoldTicks. positions
// holds each agent's live position; capturePoints holds each agent's
// lagged position (the "capture point", typically CaptureConfig.PointSteps
// ticks behind the live position). The distance check is asymmetric: a
// pursuer's live position against the evader's lagged capture point, not
// the other way around and not both lagged. gammas/psis hold each agent's
// current flight path angle and azimuth, used to compute the convergence
// angle via the spherical-law-of-cosines form.
//
// Scan order is (i, j) with i as pursuer, j as evader, i != j, in
// increasing (i, j) lexicographic order; the first pair to reach the hold
// threshold on this tick wins, matching the first-capture-wins rule.
func (b *Buffer) Evaluate(positions, capturePoints []r3.Vec, gammas, psis []float64, p Params) Result {
	n := b.n
	radius2 := p.Radius2()

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			idx := i*n + j

			if withinCaptureEnvelope(positions[i], capturePoints[j], gammas[i], psis[i], gammas[j], psis[j], radius2, p.AngleRad) {
				b.counters[idx]++
			} else {
				b.counters[idx] = 0
			}

			if b.counters[idx] >= p.HoldTicks {
				return Result{Captured: true, Pursuer: i, Evader: j}
			}
		}
	}
	return Result{}
}

// withinCaptureEnvelope reports whether pursuer p (live position pPos,
// flight path angle gammaP, azimuth psiP) has evader e's lagged capture
// point ePos inside the capture radius and the two velocity vectors
// converge to within maxAngle.
func withinCaptureEnvelope(pPos, ePos r3.Vec, gammaP, psiP, gammaE, psiE, radius2, maxAngle float64) bool {
	d := r3.Sub(ePos, pPos)
	dist2 := r3.Dot(d, d)
	if dist2 > radius2 {
		return false
	}
	return velocityAngle(gammaP, psiP, gammaE, psiE) <= maxAngle
}

// velocityAngle returns the angle between two unit velocity directions
// given in flight-path-angle/azimuth form, via the spherical law of
// cosines: cos(theta) = sin(g1)sin(g2) + cos(g1)cos(g2)cos(psi1-psi2).
func velocityAngle(gamma1, psi1, gamma2, psi2 float64) float64 {
	cosTheta := math.Sin(gamma1)*math.Sin(gamma2) +
		math.Cos(gamma1)*math.Cos(gamma2)*math.Cos(psi1-psi2)
	if cosTheta > 1 {
		cosTheta = 1
	} else if cosTheta < -1 {
		cosTheta = -1
	}
	return math.Acos(cosTheta)
}

// History is a bounded FIFO of an agent's past positions, used to compute
// the lagged capture point: capture evaluates a position from several
// ticks in the past, not the live position, to model sensor/track lag.
type History struct {
	depth int
	buf   []r3.Vec // ring buffer, length depth
	head  int      // index of the most recently pushed entry
	count int      // number of entries pushed so far, capped at depth
}

// NewHistory allocates a history ring buffer of the given depth, seeded
// with initial at every slot so CapturePoint is well-defined from tick 0.
func NewHistory(depth int, initial r3.Vec) *History {
	if depth < 1 {
		depth = 1
	}
	buf := make([]r3.Vec, depth)
	for i := range buf {
		buf[i] = initial
	}
	return &History{depth: depth, buf: buf, head: 0, count: depth}
}

// Push records a new live position.
func (h *History) Push(pos r3.Vec) {
	h.head = (h.head + 1) % h.depth
	h.buf[h.head] = pos
	if h.count < h.depth {
		h.count++
	}
}

// CapturePoint returns the oldest entry still held in the ring: the
// position pushed depth-1 pushes before the most recent one.
func (h *History) CapturePoint() r3.Vec {
	oldest := (h.head + 1) % h.depth
	return h.buf[oldest]
}
