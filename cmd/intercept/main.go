// Command intercept runs a headless pursuit-evasion simulation: load
// configuration, construct the simulation, register observers, and tick
// until capture or the configured tick cap.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/bogey/config"
	"github.com/pthm-cable/bogey/observer"
	"github.com/pthm-cable/bogey/simulation"
	"github.com/pthm-cable/bogey/telemetry"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file overriding the embedded defaults")
	agents     = flag.Int("agents", 0, "override agents.n (0 = use config)")
	maxTicks   = flag.Int("ticks", 0, "stop after N ticks (0 = unbounded, run until capture)")
	traceDir   = flag.String("trace-dir", "", "directory to write trace.csv/perf.csv/config.yaml (empty disables)")
	parallel   = flag.Bool("parallel", false, "plan agents concurrently via a worker pool instead of sequentially")
	logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		return 1
	}
	if *agents > 0 {
		cfg.Agents.N = *agents
	}

	sim, err := simulation.New(cfg, simulation.Options{Parallel: *parallel}, log)
	if err != nil {
		log.Error("failed to construct simulation", "error", err)
		return 1
	}

	sim.Register(observer.NewLogObserver(log, slog.LevelDebug))

	var om *telemetry.OutputManager
	if *traceDir != "" {
		om, err = telemetry.NewOutputManager(*traceDir)
		if err != nil {
			log.Error("failed to initialize trace output", "error", err)
			return 1
		}
		defer om.Close()
		if err := om.WriteConfig(cfg); err != nil {
			log.Error("failed to write config snapshot", "error", err)
		}
		sim.Register(telemetry.NewTraceRecorder(om))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for *maxTicks == 0 || sim.Timestep() < *maxTicks {
		result, ok := sim.Tick(ctx)
		if !ok {
			if result.Captured {
				log.Info("capture", "timestep", sim.Timestep(), "pursuer", result.Pursuer, "evader", result.Evader)
			} else {
				log.Info("run interrupted", "timestep", sim.Timestep())
			}
			break
		}

		if om != nil && sim.Timestep()%cfg.Telemetry.PerfWindowTicks == 0 {
			if err := om.WritePerf(sim.Perf().Stats(), int32(sim.Timestep())); err != nil {
				log.Warn("failed to write perf sample", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			log.Info("run interrupted", "timestep", sim.Timestep())
			return 0
		default:
		}
	}

	fmt.Fprintf(os.Stderr, "intercept: finished at timestep %d\n", sim.Timestep())
	return 0
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
