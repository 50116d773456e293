package config

import (
	"math"
	"testing"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}

	if cfg.Agents.N != 2 {
		t.Errorf("Agents.N = %d, want 2", cfg.Agents.N)
	}
	if cfg.World.StepsPerSecond != 30 {
		t.Errorf("World.StepsPerSecond = %d, want 30", cfg.World.StepsPerSecond)
	}
	if len(cfg.Agents.Initial) != cfg.Agents.N {
		t.Errorf("len(Agents.Initial) = %d, want %d", len(cfg.Agents.Initial), cfg.Agents.N)
	}
}

func TestLoadComputesDerivedValues(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	wantDT := 1.0 / float64(cfg.World.StepsPerSecond)
	if math.Abs(cfg.Derived.DT-wantDT) > 1e-12 {
		t.Errorf("Derived.DT = %v, want %v", cfg.Derived.DT, wantDT)
	}

	wantRadius2 := cfg.Capture.Radius * cfg.Capture.Radius
	if cfg.Derived.CaptureRadius2 != wantRadius2 {
		t.Errorf("Derived.CaptureRadius2 = %v, want %v", cfg.Derived.CaptureRadius2, wantRadius2)
	}

	wantAngle := cfg.Capture.AngleDegrees * math.Pi / 180
	if math.Abs(cfg.Derived.CaptureAngle-wantAngle) > 1e-12 {
		t.Errorf("Derived.CaptureAngle = %v, want %v", cfg.Derived.CaptureAngle, wantAngle)
	}
}

func TestValidateRejectsNonPositiveAgentCount(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Agents.N = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for agents.n = 0")
	}
}

func TestValidateRejectsNonPositiveStepsPerSecond(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.World.StepsPerSecond = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for world.steps_per_second = 0")
	}
}

func TestValidateRejectsDegenerateRange(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Planner.ThrustRange = RangeConfig{Start: 5, Stop: 5, Step: 1}
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a thrust range with stop == start")
	}
}

func TestValidateRejectsZeroStep(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Planner.RollAngleRateRange = RangeConfig{Start: -1, Stop: 1, Step: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("expected an error for a zero step")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected an error loading a nonexistent file")
	}
}

func TestWriteYAMLRoundTrips(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Agents.N = 3

	dir := t.TempDir()
	path := dir + "/config.yaml"
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load(written file): %v", err)
	}
	if reloaded.Agents.N != 3 {
		t.Errorf("reloaded Agents.N = %d, want 3", reloaded.Agents.N)
	}
}
