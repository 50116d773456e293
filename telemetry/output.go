package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/bogey/config"
	"github.com/pthm-cable/bogey/observer"
)

// OutputManager handles structured run output: a per-tick-per-agent trace
// CSV, a perf CSV, and a snapshot of the run's configuration.
type OutputManager struct {
	dir        string
	traceFile  *os.File
	perfFile   *os.File
	traceRows  bool
	perfHeader bool
}

// NewOutputManager creates a new output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled), matching the
// CLI's convention that omitting -trace-dir disables all file output.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	tracePath := filepath.Join(dir, "trace.csv")
	f, err := os.Create(tracePath)
	if err != nil {
		return nil, fmt.Errorf("creating trace.csv: %w", err)
	}
	om.traceFile = f

	perfPath := filepath.Join(dir, "perf.csv")
	f, err = os.Create(perfPath)
	if err != nil {
		om.traceFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the run's configuration as YAML alongside the traces.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// TraceRow is one agent's state at one committed tick, the flat shape
// written to trace.csv.
type TraceRow struct {
	Timestep        int     `csv:"timestep"`
	Agent           int     `csv:"agent"`
	PosX            float64 `csv:"pos_x"`
	PosY            float64 `csv:"pos_y"`
	PosZ            float64 `csv:"pos_z"`
	CapturePointX   float64 `csv:"capture_point_x"`
	CapturePointY   float64 `csv:"capture_point_y"`
	CapturePointZ   float64 `csv:"capture_point_z"`
	Speed           float64 `csv:"speed"`
	AttackAngle     float64 `csv:"attack_angle"`
	FlightPathAngle float64 `csv:"flight_path_angle"`
	RollAngle       float64 `csv:"roll_angle"`
	AzimuthAngle    float64 `csv:"azimuth_angle"`
}

// WriteTrace appends one row per agent in snap to trace.csv.
func (om *OutputManager) WriteTrace(snap observer.Snapshot) error {
	if om == nil {
		return nil
	}

	rows := make([]TraceRow, snap.N)
	for i := 0; i < snap.N; i++ {
		rows[i] = TraceRow{
			Timestep:        snap.Timestep,
			Agent:           i,
			PosX:            snap.Positions[i].X,
			PosY:            snap.Positions[i].Y,
			PosZ:            snap.Positions[i].Z,
			CapturePointX:   snap.CapturePoints[i].X,
			CapturePointY:   snap.CapturePoints[i].Y,
			CapturePointZ:   snap.CapturePoints[i].Z,
			Speed:           snap.Speeds[i],
			AttackAngle:     snap.AttackAngles[i],
			FlightPathAngle: snap.FlightPathAngles[i],
			RollAngle:       snap.RollAngles[i],
			AzimuthAngle:    snap.AzimuthAngles[i],
		}
	}

	if !om.traceRows {
		if err := gocsv.Marshal(rows, om.traceFile); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
		om.traceRows = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(rows, om.traceFile); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}

	records := []PerfStatsCSV{stats.ToCSV(windowEnd)}

	if !om.perfHeader {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeader = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	if om.traceFile != nil {
		if err := om.traceFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.perfFile != nil {
		if err := om.perfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// TraceRecorder adapts OutputManager to the observer.Observer interface,
// so it can be registered directly into a simulation's observer set. A
// write failure is logged to stderr rather than propagated, matching
// the rule that observers never halt the tick loop.
type TraceRecorder struct {
	om *OutputManager
}

// NewTraceRecorder wraps om as an observer.Observer. om may be nil, in
// which case Observe is a no-op (output disabled).
func NewTraceRecorder(om *OutputManager) *TraceRecorder {
	return &TraceRecorder{om: om}
}

func (t *TraceRecorder) Observe(snap observer.Snapshot) {
	if t.om == nil {
		return
	}
	if err := t.om.WriteTrace(snap); err != nil {
		fmt.Fprintf(os.Stderr, "trace recorder: %v\n", err)
	}
}
