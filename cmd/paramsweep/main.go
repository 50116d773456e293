// Command paramsweep searches for reward-shaping parameters (magnitude,
// discount) that minimize ticks-to-capture over short headless runs,
// using gonum/optimize's Nelder-Mead method. It is a standalone tuning
// tool: it never imports simulation into core packages and neither
// simulation nor any other core package imports it.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/bogey/config"
	"github.com/pthm-cable/bogey/simulation"
)

func main() {
	configPath := flag.String("config", "", "base config YAML file (empty = embedded defaults)")
	maxTicks := flag.Int("max-ticks", 2000, "tick cap for each evaluation run; non-capture runs are penalized at this value")
	maxEvals := flag.Int("max-evals", 60, "maximum number of objective evaluations")
	outputPath := flag.String("output", "", "path to write the best-found config YAML (empty = stdout summary only)")
	logPath := flag.String("log", "", "CSV path to record every evaluation (empty = not recorded)")
	flag.Parse()

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	var logWriter *csv.Writer
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			log.Fatalf("failed to create log file: %v", err)
		}
		defer f.Close()
		logWriter = csv.NewWriter(f)
		defer logWriter.Flush()
		logWriter.Write([]string{"eval", "magnitude", "discount", "ticks_to_capture"})
	}

	evalCount := 0
	objective := func(x []float64) float64 {
		evalCount++
		magnitude := x[0]
		discount := x[1]

		cfg := *baseCfg
		cfg.Reward.Magnitude = magnitude
		cfg.Reward.Discount = discount

		ticks := runToCapture(&cfg, *maxTicks)

		if logWriter != nil {
			logWriter.Write([]string{
				strconv.Itoa(evalCount),
				fmt.Sprintf("%.6f", magnitude),
				fmt.Sprintf("%.6f", discount),
				strconv.Itoa(ticks),
			})
			logWriter.Flush()
		}
		return float64(ticks)
	}

	problem := optimize.Problem{Func: objective}
	initX := []float64{baseCfg.Reward.Magnitude, baseCfg.Reward.Discount}
	settings := &optimize.Settings{FuncEvaluations: *maxEvals}
	method := &optimize.NelderMead{}

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil && result == nil {
		log.Fatalf("optimization failed: %v", err)
	}

	bestMagnitude := result.X[0]
	bestDiscount := result.X[1]
	fmt.Printf("best ticks-to-capture: %.0f (magnitude=%.4f, discount=%.6f) over %d evaluations\n",
		result.F, bestMagnitude, bestDiscount, evalCount)

	if *outputPath != "" {
		outCfg := *baseCfg
		outCfg.Reward.Magnitude = bestMagnitude
		outCfg.Reward.Discount = bestDiscount
		if err := outCfg.WriteYAML(*outputPath); err != nil {
			log.Fatalf("failed to write best config: %v", err)
		}
	}
}

// runToCapture runs a headless, observer-free simulation to completion or
// maxTicks, whichever comes first, returning the tick at which capture
// occurred, or maxTicks if it never did (a penalty, since the objective
// minimizes this value).
func runToCapture(cfg *config.Config, maxTicks int) int {
	sim, err := simulation.New(cfg, simulation.Options{}, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	if err != nil {
		return maxTicks
	}

	ctx := context.Background()
	for t := 0; t < maxTicks; t++ {
		if result, ok := sim.Tick(ctx); !ok {
			if result.Captured {
				return sim.Timestep()
			}
			break
		}
	}
	return maxTicks
}
