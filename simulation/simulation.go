// Package simulation owns the committed kinematic state for N agents and
// drives the tick loop: baseline projection, per-agent planning, a
// single-writer commit, one true advance, a capture check, and an
// observer fan-out.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/bogey/capture"
	"github.com/pthm-cable/bogey/config"
	"github.com/pthm-cable/bogey/kinematics"
	"github.com/pthm-cable/bogey/observer"
	"github.com/pthm-cable/bogey/planner"
	"github.com/pthm-cable/bogey/reward"
	"github.com/pthm-cable/bogey/telemetry"
)

// ConfigError reports an invalid construction argument, so a CLI can print
// "what was wrong" instead of a panic.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("simulation: %s: %s", e.Field, e.Message)
}

// Options configures a Simulation's construction. Parallel selects the
// worker-pool planning path; false (the default) plans sequentially for
// bit-reproducibility.
type Options struct {
	Parallel bool
}

// Simulation owns the six kinematic arrays (via kinematics.State), the
// per-agent capture-point history, the capture debounce buffer, and the
// registered observers, and advances them one tick at a time.
type Simulation struct {
	kp     kinematics.Params
	rp     reward.Params
	cp     capture.Params
	grid   []planner.Action
	horizon int

	state    kinematics.State
	histories []*capture.History
	captureBuf *capture.Buffer

	observers *observer.Set
	perf      *telemetry.PerfCollector

	parallel   bool
	numWorkers int

	timestep   int
	terminated bool
	result     capture.Result
}

// New constructs a Simulation from a loaded configuration. It validates
// N > 0, a positive tick rate, and a non-empty action grid, returning a
// *ConfigError rather than panicking on bad input.
func New(cfg *config.Config, opts Options, log *slog.Logger) (*Simulation, error) {
	if cfg.Agents.N <= 0 {
		return nil, &ConfigError{Field: "agents.n", Message: "must be > 0"}
	}
	if cfg.World.StepsPerSecond <= 0 {
		return nil, &ConfigError{Field: "world.steps_per_second", Message: "must be > 0"}
	}

	gridParams := planner.GridParams{
		Thrust:          planner.Range(cfg.Planner.ThrustRange),
		AttackAngleRate: planner.Range(cfg.Planner.AttackAngleRateRange),
		RollAngleRate:   planner.Range(cfg.Planner.RollAngleRateRange),
	}
	grid := planner.Grid(gridParams)
	if len(grid) == 0 {
		return nil, &ConfigError{Field: "planner", Message: "action grid is empty"}
	}

	n := cfg.Agents.N
	state := kinematics.State{
		Positions:        make([]r3.Vec, n),
		Speeds:           make([]float64, n),
		AttackAngles:     make([]float64, n),
		FlightPathAngles: make([]float64, n),
		RollAngles:       make([]float64, n),
		AzimuthAngles:    make([]float64, n),
	}
	for i := 0; i < n; i++ {
		var init config.InitialAgent
		if i < len(cfg.Agents.Initial) {
			init = cfg.Agents.Initial[i]
		}
		state.Positions[i] = r3.Vec{X: init.Position[0], Y: init.Position[1], Z: init.Position[2]}
		state.Speeds[i] = init.Speed
		state.AttackAngles[i] = init.AttackAngle
		state.FlightPathAngles[i] = init.FlightPathAngle
		state.RollAngles[i] = init.RollAngle
		state.AzimuthAngles[i] = init.AzimuthAngle
	}

	histories := make([]*capture.History, n)
	for i := range histories {
		// PointSteps+1 entries: the oldest is PointSteps ticks behind the newest.
		histories[i] = capture.NewHistory(cfg.Capture.PointSteps+1, state.Positions[i])
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 1
	}

	sim := &Simulation{
		kp:      kinematics.Params{G: cfg.Physics.G, L: cfg.Physics.L, StepsPerSecond: cfg.World.StepsPerSecond},
		rp:      reward.Params{ThreatTimesteps: cfg.Reward.ThreatTimesteps, Magnitude: cfg.Reward.Magnitude, Discount: cfg.Reward.Discount, HardDeck: cfg.World.HardDeck},
		cp:      capture.Params{Radius: cfg.Capture.Radius, HoldTicks: cfg.Capture.HoldTicks, AngleRad: cfg.Derived.CaptureAngle},
		grid:    grid,
		horizon: cfg.Planner.ForwardProjectionSteps,

		state:      state,
		histories:  histories,
		captureBuf: capture.NewBuffer(n),

		observers: observer.NewSet(log),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindowTicks),

		parallel:   opts.Parallel,
		numWorkers: numWorkers,
	}
	return sim, nil
}

// Register adds an observer to the fan-out set, invoked in registration
// order strictly after each tick commits.
func (s *Simulation) Register(o observer.Observer) {
	s.observers.Register(o)
}

// Timestep returns the number of ticks committed so far.
func (s *Simulation) Timestep() int { return s.timestep }

// Terminated reports whether a capture has already ended the run, and if
// so which ordered (pursuer, evader) pair triggered it.
func (s *Simulation) Terminated() (capture.Result, bool) {
	return s.result, s.terminated
}

// Perf returns the simulation's rolling performance collector, for a CLI
// to periodically sample and write out.
func (s *Simulation) Perf() *telemetry.PerfCollector { return s.perf }

// Tick advances the simulation by exactly one step:
//
//  1. baseline projection: every agent, zero control, for horizon ticks;
//  2. per-agent planning against the shared baseline (sequential or via a
//     bounded worker pool, per Options.Parallel);
//  3. single-writer commit of every agent's chosen action into Controls,
//     in index order;
//  4. one true kinematics.Step from the committed Controls;
//  5. capture-point history push and capture-buffer evaluation;
//  6. on capture, the run terminates; otherwise the committed snapshot
//     fans out to observers and the timestep counter advances.
//
// Tick returns false once the simulation has already terminated; callers
// should stop looping at that point.
func (s *Simulation) Tick(ctx context.Context) (capture.Result, bool) {
	if s.terminated {
		return s.result, false
	}

	n := s.state.N()

	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseBaselineProjection)
	baseline, baselineVel := kinematics.ForwardProject(s.state, kinematics.ZeroControls(n), s.horizon, s.kp)

	s.perf.StartPhase(telemetry.PhasePlan)
	actions := make([]planner.Action, n)
	if s.parallel {
		s.planParallel(actions, baseline.Positions, baselineVel)
	} else {
		for i := 0; i < n; i++ {
			actions[i] = planner.Plan(i, s.state, s.grid, s.horizon, baseline.Positions, baselineVel, s.kp, s.rp)
		}
	}

	s.perf.StartPhase(telemetry.PhaseCommit)
	controls := kinematics.Controls{
		Thrusts:          make([]float64, n),
		AttackAngleRates: make([]float64, n),
		RollAngleRates:   make([]float64, n),
	}
	for i := 0; i < n; i++ {
		controls.Thrusts[i] = actions[i].Thrust
		controls.AttackAngleRates[i] = actions[i].AttackAngleRate
		controls.RollAngleRates[i] = actions[i].RollAngleRate
	}

	s.perf.StartPhase(telemetry.PhaseAdvance)
	next, _ := kinematics.Step(s.state, controls, s.kp)
	s.state = next

	s.perf.StartPhase(telemetry.PhaseCapture)
	capturePoints := make([]r3.Vec, n)
	for i := 0; i < n; i++ {
		s.histories[i].Push(s.state.Positions[i])
		capturePoints[i] = s.histories[i].CapturePoint()
	}
	result := s.captureBuf.Evaluate(s.state.Positions, capturePoints, s.state.FlightPathAngles, s.state.AzimuthAngles, s.cp)

	if result.Captured {
		s.terminated = true
		s.result = result
		s.perf.EndTick()
		return result, false
	}

	s.perf.StartPhase(telemetry.PhaseFanOut)
	snap := observer.Snapshot{
		Timestep:         s.timestep,
		N:                n,
		Positions:        s.state.Positions,
		CapturePoints:    capturePoints,
		Speeds:           s.state.Speeds,
		AttackAngles:     s.state.AttackAngles,
		FlightPathAngles: s.state.FlightPathAngles,
		RollAngles:       s.state.RollAngles,
		AzimuthAngles:    s.state.AzimuthAngles,
	}
	s.observers.FanOut(snap)

	s.perf.EndTick()
	s.timestep++

	select {
	case <-ctx.Done():
		return capture.Result{}, false
	default:
	}

	return capture.Result{}, true
}

// planParallel dispatches planner.Plan across a bounded worker pool,
// chunked in index order, and writes results back into actions[i] with no
// shared mutable state between workers.
func (s *Simulation) planParallel(actions []planner.Action, baselinePositions, baselineVelocities []r3.Vec) {
	n := len(actions)
	chunk := (n + s.numWorkers - 1) / s.numWorkers

	var wg sync.WaitGroup
	for w := 0; w < s.numWorkers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(i0, i1 int) {
			defer wg.Done()
			for i := i0; i < i1; i++ {
				actions[i] = planner.Plan(i, s.state, s.grid, s.horizon, baselinePositions, baselineVelocities, s.kp, s.rp)
			}
		}(start, end)
	}
	wg.Wait()
}
