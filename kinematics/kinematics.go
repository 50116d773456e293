// Package kinematics implements the point-mass flight model used for both
// live simulation stepping and hypothetical forward projection. Every
// operation here is a pure function over parallel, struct-of-arrays state:
// nothing in this package retains a reference to caller-owned slices, and
// nothing here reads or writes global state.
package kinematics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// gammaEpsilon keeps the flight-path angle away from the ±π/2 singularity
// and floors cos(γ) in the azimuth-rate denominator. Fixed at the value the
// source model used; not exposed as configuration.
const gammaEpsilon = 1e-3

// Params carries the kinematic constants needed by Step/ForwardProject.
type Params struct {
	G              float64 // gravity coefficient
	L              float64 // lift baseline
	StepsPerSecond int
}

// DT returns 1/StepsPerSecond.
func (p Params) DT() float64 {
	return 1.0 / float64(p.StepsPerSecond)
}

// State is the struct-of-arrays kinematic state for N agents (N may be 1
// for a single-agent hypothetical projection).
type State struct {
	Positions        []r3.Vec
	Speeds           []float64
	AttackAngles     []float64
	FlightPathAngles []float64
	RollAngles       []float64
	AzimuthAngles    []float64
}

// Controls is the struct-of-arrays control input for N agents.
type Controls struct {
	Thrusts          []float64
	AttackAngleRates []float64
	RollAngleRates   []float64
}

// N returns the agent count implied by the Positions slice.
func (s State) N() int { return len(s.Positions) }

// Clone returns a deep copy of s; forward projection and planning never
// alias the caller's backing arrays.
func (s State) Clone() State {
	return State{
		Positions:        append([]r3.Vec(nil), s.Positions...),
		Speeds:           append([]float64(nil), s.Speeds...),
		AttackAngles:     append([]float64(nil), s.AttackAngles...),
		FlightPathAngles: append([]float64(nil), s.FlightPathAngles...),
		RollAngles:       append([]float64(nil), s.RollAngles...),
		AzimuthAngles:    append([]float64(nil), s.AzimuthAngles...),
	}
}

// ZeroControls returns an N-wide Controls with every axis held at zero,
// used to build the planners' shared baseline projection.
func ZeroControls(n int) Controls {
	return Controls{
		Thrusts:          make([]float64, n),
		AttackAngleRates: make([]float64, n),
		RollAngleRates:   make([]float64, n),
	}
}

// Step advances state by one tick under the given controls, per the
// point-mass flight model. It returns the next state and the resolved
// velocity vectors; the input state and controls are never mutated.
func Step(s State, c Controls, p Params) (next State, velocities []r3.Vec) {
	n := s.N()
	dt := p.DT()

	next = State{
		Positions:        make([]r3.Vec, n),
		Speeds:           make([]float64, n),
		AttackAngles:     make([]float64, n),
		FlightPathAngles: make([]float64, n),
		RollAngles:       make([]float64, n),
		AzimuthAngles:    make([]float64, n),
	}
	velocities = make([]r3.Vec, n)

	for i := 0; i < n; i++ {
		thrust := c.Thrusts[i]
		alpha := s.AttackAngles[i]
		gamma := s.FlightPathAngles[i]
		phi := s.RollAngles[i]
		psi := s.AzimuthAngles[i]
		v := s.Speeds[i]

		nf := thrust*math.Sin(alpha) + p.L

		alpha += c.AttackAngleRates[i] * dt
		phi += c.RollAngleRates[i] * dt

		vDot := p.G * (thrust*math.Cos(alpha) - math.Sin(gamma))
		v += vDot * dt

		gammaDot := (p.G / v) * (nf*math.Cos(phi) - math.Cos(gamma))
		gamma = clamp(gamma+gammaDot*dt, -math.Pi/2+gammaEpsilon, math.Pi/2-gammaEpsilon)

		cosGamma := math.Cos(gamma)
		if cosGamma < gammaEpsilon {
			cosGamma = gammaEpsilon
		}
		psiDot := p.G * (nf * math.Sin(phi)) / (v * cosGamma)
		psi += psiDot * dt

		vel := r3.Vec{
			X: v * math.Cos(gamma) * math.Cos(psi),
			Y: v * math.Cos(gamma) * math.Sin(psi),
			Z: v * math.Sin(gamma),
		}

		next.Positions[i] = r3.Add(s.Positions[i], r3.Scale(dt, vel))
		next.Speeds[i] = v
		next.AttackAngles[i] = alpha
		next.FlightPathAngles[i] = gamma
		next.RollAngles[i] = phi
		next.AzimuthAngles[i] = psi
		velocities[i] = vel
	}

	return next, velocities
}

// ForwardProject applies Step steps times with controls held constant,
// returning a state that does not alias s or c.
func ForwardProject(s State, c Controls, steps int, p Params) (next State, velocities []r3.Vec) {
	next = s.Clone()
	velocities = make([]r3.Vec, next.N())
	for step := 0; step < steps; step++ {
		next, velocities = Step(next, c, p)
	}
	return next, velocities
}

// StepRow advances a single agent's row by one tick; a thin convenience
// over Step so callers with one agent (the planner's per-candidate
// projection) don't hand-build throwaway length-1 State/Controls at every
// call site.
func StepRow(pos r3.Vec, speed, attack, flightPath, roll, azimuth float64,
	thrust, attackRate, rollRate float64, p Params) (next State, velocity r3.Vec) {
	s := State{
		Positions:        []r3.Vec{pos},
		Speeds:           []float64{speed},
		AttackAngles:     []float64{attack},
		FlightPathAngles: []float64{flightPath},
		RollAngles:       []float64{roll},
		AzimuthAngles:    []float64{azimuth},
	}
	c := Controls{
		Thrusts:          []float64{thrust},
		AttackAngleRates: []float64{attackRate},
		RollAngleRates:   []float64{rollRate},
	}
	next, vels := Step(s, c, p)
	return next, vels[0]
}

// ForwardProjectRow forward-projects a single agent's row for steps ticks
// holding controls constant. Used by the planner to project one candidate
// action for one agent.
func ForwardProjectRow(pos r3.Vec, speed, attack, flightPath, roll, azimuth float64,
	thrust, attackRate, rollRate float64, steps int, p Params) (next State, velocity r3.Vec) {
	s := State{
		Positions:        []r3.Vec{pos},
		Speeds:           []float64{speed},
		AttackAngles:     []float64{attack},
		FlightPathAngles: []float64{flightPath},
		RollAngles:       []float64{roll},
		AzimuthAngles:    []float64{azimuth},
	}
	c := Controls{
		Thrusts:          []float64{thrust},
		AttackAngleRates: []float64{attackRate},
		RollAngleRates:   []float64{rollRate},
	}
	next, vels := ForwardProject(s, c, steps, p)
	return next, vels[0]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
