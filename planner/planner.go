// Package planner implements the per-agent, receding-horizon MDP
// controller: for one agent, enumerate a pre-materialised action grid,
// forward-project each candidate with kinematics, score the result
// against the shared baseline with reward, and return the maximiser.
// The planner never mutates the live simulation state it reads — it
// only borrows rows out of it.
package planner

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/bogey/kinematics"
	"github.com/pthm-cable/bogey/reward"
)

// Action is one point in the discretised action grid.
type Action struct {
	Thrust          float64
	AttackAngleRate float64
	RollAngleRate   float64
}

// GridParams describes the three discretised action-grid axes, each a
// half-open [Start, Stop) arange stepped by Step.
type GridParams struct {
	Thrust          Range
	AttackAngleRate Range
	RollAngleRate   Range
}

// Range is a half-open arange.
type Range struct {
	Start, Stop, Step float64
}

// arange mirrors numpy.arange(start, stop, step): values start, start+step,
// ... while strictly less than stop.
func arange(r Range) []float64 {
	if r.Step <= 0 || r.Stop <= r.Start {
		return nil
	}
	n := int((r.Stop-r.Start)/r.Step + 1e-9)
	if n < 0 {
		n = 0
	}
	out := make([]float64, 0, n+1)
	for v := r.Start; v < r.Stop-1e-12; v += r.Step {
		out = append(out, v)
	}
	return out
}

// Grid pre-materialises the Cartesian product of the three action axes, in
// thrust-major, attack-angle-rate-next, roll-angle-rate-minor order. The
// order is the grid's canonical iteration order and determines the
// first-seen tie-break in Plan.
func Grid(p GridParams) []Action {
	thrusts := arange(p.Thrust)
	alphaRates := arange(p.AttackAngleRate)
	phiRates := arange(p.RollAngleRate)

	grid := make([]Action, 0, len(thrusts)*len(alphaRates)*len(phiRates))
	for _, t := range thrusts {
		for _, a := range alphaRates {
			for _, r := range phiRates {
				grid = append(grid, Action{Thrust: t, AttackAngleRate: a, RollAngleRate: r})
			}
		}
	}
	return grid
}

// Plan returns the grid action that maximises reward.Evaluate for agent i,
// as follows:
//  1. forward-project only agent i for horizon ticks under each candidate
//     action, using kp;
//  2. score the projected self row against the shared baseline with agent
//     i's own row deleted (the baseline already holds row i, which
//     must be excluded — it is what i itself would do under zero control,
//     not what another agent will do);
//  3. return the first action (in grid order) attaining the maximum score.
//
// state is read-only; baselinePositions/baselineVelocities are
// the simulation's shared, once-per-tick zero-control projection of all N
// agents and are not mutated.
func Plan(i int, state kinematics.State, grid []Action, horizon int,
	baselinePositions, baselineVelocities []r3.Vec,
	kp kinematics.Params, rp reward.Params) Action {

	otherPos := deleteRow(baselinePositions, i)
	otherVel := deleteRow(baselineVelocities, i)

	pos := state.Positions[i]
	speed := state.Speeds[i]
	attack := state.AttackAngles[i]
	flightPath := state.FlightPathAngles[i]
	roll := state.RollAngles[i]
	azimuth := state.AzimuthAngles[i]

	bestScore := 0.0
	bestIdx := -1
	for idx, a := range grid {
		projected, vel := kinematics.ForwardProjectRow(
			pos, speed, attack, flightPath, roll, azimuth,
			a.Thrust, a.AttackAngleRate, a.RollAngleRate, horizon, kp)

		score := reward.Evaluate(projected.Positions[0], vel, otherPos, otherVel, rp)
		if bestIdx == -1 || score > bestScore {
			bestScore = score
			bestIdx = idx
		}
	}
	if bestIdx == -1 {
		// Validated away by config.Validate in practice; zero-value action
		// is the only sane fallback for an empty grid.
		return Action{}
	}
	return grid[bestIdx]
}

// deleteRow returns a copy of vecs with index i removed, preserving order.
func deleteRow(vecs []r3.Vec, i int) []r3.Vec {
	if len(vecs) == 0 {
		return nil
	}
	out := make([]r3.Vec, 0, len(vecs)-1)
	for j, v := range vecs {
		if j == i {
			continue
		}
		out = append(out, v)
	}
	return out
}
