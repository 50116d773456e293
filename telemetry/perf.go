package telemetry

import (
	"log/slog"
	"time"
)

// Phase identifies one of the tick's six fixed stages. Unlike a generic
// named-phase map, the stage set here is closed and known at compile
// time, so samples carry a fixed-size array indexed by Phase rather than
// a map keyed by string.
type Phase int

const (
	PhaseBaselineProjection Phase = iota
	PhasePlan
	PhaseCommit
	PhaseAdvance
	PhaseCapture
	PhaseFanOut
	numPhases
)

// String returns the phase's CSV/log field name.
func (ph Phase) String() string {
	switch ph {
	case PhaseBaselineProjection:
		return "baseline_projection"
	case PhasePlan:
		return "plan"
	case PhaseCommit:
		return "commit"
	case PhaseAdvance:
		return "advance"
	case PhaseCapture:
		return "capture"
	case PhaseFanOut:
		return "fanout"
	default:
		return "unknown"
	}
}

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       [numPhases]time.Duration
}

// PerfCollector tracks tick and phase timing over a rolling window of the
// most recent windowSize ticks.
type PerfCollector struct {
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	currentPhases [numPhases]time.Duration
	tickStart     time.Time
	phaseStart    time.Time
	lastPhase     Phase
	phaseActive   bool

	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over the last windowSize
// ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
	}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.currentPhases = [numPhases]time.Duration{}
	p.phaseActive = false
}

// StartPhase closes out the previous phase (if any) and begins timing
// phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	if p.phaseActive {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
	p.phaseActive = true
}

// EndTick closes out the final phase and records the completed tick's
// sample into the rolling window.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	if p.phaseActive {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
		p.phaseActive = false
	}

	p.samples[p.writeIndex] = PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records a render-frame boundary, from which Stats derives
// FrameDuration and FPS; unrelated to tick/phase timing.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics over the current
// window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{FrameDuration: p.frameDuration, FPS: fps}
	}

	var totalTick, minTick, maxTick time.Duration
	var phaseSum [numPhases]time.Duration

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		totalTick += s.TickDuration
		if i == 0 || s.TickDuration < minTick {
			minTick = s.TickDuration
		}
		if s.TickDuration > maxTick {
			maxTick = s.TickDuration
		}
		for ph := 0; ph < int(numPhases); ph++ {
			phaseSum[ph] += s.Phases[ph]
		}
	}

	avgTick := totalTick / time.Duration(p.sampleCount)

	var phaseAvg [numPhases]time.Duration
	var phasePct [numPhases]float64
	for ph := 0; ph < int(numPhases); ph++ {
		phaseAvg[ph] = phaseSum[ph] / time.Duration(p.sampleCount)
		if avgTick > 0 {
			phasePct[ph] = float64(phaseAvg[ph]) / float64(avgTick) * 100
		}
	}

	var ticksPerSec float64
	if avgTick > 0 {
		ticksPerSec = float64(time.Second) / float64(avgTick)
	}

	return PerfStats{
		AvgTickDuration: avgTick,
		MinTickDuration: minTick,
		MaxTickDuration: maxTick,
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		TicksPerSecond:  ticksPerSec,
		FrameDuration:   p.frameDuration,
		FPS:             fps,
	}
}

// LogStats logs performance statistics at info level.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for ph := 0; ph < int(numPhases); ph++ {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, Phase(ph).String()+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for ph := 0; ph < int(numPhases); ph++ {
		attrs = append(attrs, slog.Float64(Phase(ph).String()+"_pct", s.PhasePct[ph]))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd       int32   `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	MinTickUS       int64   `csv:"min_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	FPS             float64 `csv:"fps"`
	BaselineProjPct float64 `csv:"baseline_projection_pct"`
	PlanPct         float64 `csv:"plan_pct"`
	CommitPct       float64 `csv:"commit_pct"`
	AdvancePct      float64 `csv:"advance_pct"`
	CapturePct      float64 `csv:"capture_pct"`
	FanOutPct       float64 `csv:"fanout_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgTickUS:       s.AvgTickDuration.Microseconds(),
		MinTickUS:       s.MinTickDuration.Microseconds(),
		MaxTickUS:       s.MaxTickDuration.Microseconds(),
		TicksPerSec:     s.TicksPerSecond,
		FPS:             s.FPS,
		BaselineProjPct: s.PhasePct[PhaseBaselineProjection],
		PlanPct:         s.PhasePct[PhasePlan],
		CommitPct:       s.PhasePct[PhaseCommit],
		AdvancePct:      s.PhasePct[PhaseAdvance],
		CapturePct:      s.PhasePct[PhaseCapture],
		FanOutPct:       s.PhasePct[PhaseFanOut],
	}
}
