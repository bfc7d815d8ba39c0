package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/threadsim/threadsim/sim"
	"github.com/threadsim/threadsim/sim/scenario"
	"github.com/threadsim/threadsim/sim/trace"
)

var (
	// CLI flags for the thread model and builtin workload
	model            string // Thread model name
	threads          int    // Number of threads the builtin workload spawns
	carriers         int    // Carrier pool size (0 = derive from the model)
	workload         string // Builtin workload kind
	workUnits        int64  // Compute units per thread
	semaphorePermits int64  // Initial permits of the contended workload's semaphore
	semaphoreMax     int64  // Permit ceiling of that semaphore (0 = unbounded)

	// CLI flags for run control
	quantum      int64  // Op steps per slice before preemption (0 = run to completion)
	maxTicks     int64  // Tick at which a runaway run is cancelled (0 = unlimited)
	tickMs       int64  // Wall milliseconds per tick, for watching a run live
	scenarioPath string // YAML scenario file (overrides the builtin workload)
	exportPath   string // JSON run report output path
	logLevel     string // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "threadsim",
	Short: "Discrete-time simulator for user-thread to kernel-thread mapping models",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the thread scheduling simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		// Ctrl-C cancels the run; held primitives are released on the way out
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := sim.Config{
			Model:    sim.NewModelConfig(model, threads, carriers),
			Workload: sim.NewWorkloadConfig(workload, workUnits),
			Sync:     sim.NewSyncConfig(semaphorePermits, semaphoreMax),
			Run:      sim.NewRunConfig(quantum, maxTicks, tickMs),
		}

		// A scenario file replaces the builtin workload entirely
		var setup *sim.Setup
		if scenarioPath != "" {
			spec, err := scenario.Load(scenarioPath)
			if err != nil {
				logrus.Fatalf("Unable to load scenario: %v", err)
			}
			scenarioCfg, scenarioSetup, err := spec.Build()
			if err != nil {
				logrus.Fatalf("Invalid scenario: %v", err)
			}
			scenarioCfg.Run.TickMs = tickMs
			cfg, setup = scenarioCfg, scenarioSetup
		}

		tl := trace.NewTimeline()
		eng, err := sim.NewEngine(cfg, setup, &sim.LogSink{}, &sim.TimelineSink{Timeline: tl})
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		logrus.Infof("Starting simulation: model=%s, threads=%d, carriers=%d, workload=%s",
			cfg.Model.Name, len(eng.Threads), len(eng.Model.Carriers()), cfg.Workload.Kind)

		if err := eng.Run(ctx); err != nil {
			switch {
			case sim.IsDeadlockError(err):
				// already reported through the sinks; a stall is a valid outcome
			case errors.Is(err, context.Canceled):
				logrus.Warn("Simulation cancelled.")
			default:
				logrus.Fatalf("Simulation failed: %v", err)
			}
		}

		eng.Metrics.Print()

		if exportPath != "" {
			report := sim.NewRunReport(eng, tl)
			if err := report.WriteFile(exportPath); err != nil {
				logrus.Fatalf("Unable to write run report: %v", err)
			}
			logrus.Infof("Run report written to %s", exportPath)
		}

		logrus.Info("Simulation complete.")
	},
}

// validateCmd checks a scenario file without running it
var validateCmd = &cobra.Command{
	Use:   "validate <scenario.yaml>",
	Short: "Validate a scenario file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := scenario.Load(args[0])
		if err != nil {
			logrus.Fatalf("Unable to load scenario: %v", err)
		}
		if err := spec.Validate(); err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
		logrus.Infof("Scenario %s is valid: %d thread(s), model %s", args[0], len(spec.Threads), spec.Model)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {

	// Thread model and builtin workload configs
	runCmd.Flags().StringVar(&model, "model", "one-to-one", "Thread model (one-to-one, many-to-one, one-to-many, many-to-many)")
	runCmd.Flags().IntVar(&threads, "threads", 4, "Number of threads to spawn")
	runCmd.Flags().IntVar(&carriers, "carriers", 0, "Carrier pool size (0 = derive from the model)")
	runCmd.Flags().StringVar(&workload, "workload", "independent", "Builtin workload (independent, contended)")
	runCmd.Flags().Int64Var(&workUnits, "work-units", 10, "Compute units per thread")
	runCmd.Flags().Int64Var(&semaphorePermits, "semaphore-permits", 1, "Initial permits of the 'shared' semaphore (contended workload)")
	runCmd.Flags().Int64Var(&semaphoreMax, "semaphore-max", 0, "Permit ceiling of the 'shared' semaphore (0 = unbounded)")

	// Run control configs
	runCmd.Flags().Int64Var(&quantum, "quantum", 0, "Op steps per slice before preemption (0 = run to completion)")
	runCmd.Flags().Int64Var(&maxTicks, "max-ticks", 0, "Cancel the run at this tick (0 = unlimited)")
	runCmd.Flags().Int64Var(&tickMs, "tick-ms", 0, "Wall milliseconds per tick, to watch a run live")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file (replaces the builtin workload)")
	runCmd.Flags().StringVar(&exportPath, "export", "", "Write a JSON run report to this path")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
