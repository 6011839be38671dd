package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rpgo/stocksim/internal/calculation"
	"github.com/rpgo/stocksim/internal/config"
	"github.com/rpgo/stocksim/internal/logging"
	"github.com/rpgo/stocksim/internal/metrics"
	"github.com/rpgo/stocksim/internal/output"
)

// app carries the global flags and the services built from them.
type app struct {
	configPath  string
	logLevel    string
	format      string
	outputDir   string
	metricsFile string
	workers     int
	seed        int64

	log     *zap.SugaredLogger
	metrics *metrics.SweepMetrics
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "stocksim",
		Short:         "Savings, investment and tax projection with parameter sweeps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.NewZapLoggerTo(cmd.ErrOrStderr(), a.logLevel)
			if err != nil {
				return err
			}
			a.log = log
			a.metrics = metrics.NewSweepMetrics()
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = a.log.Sync() }()
			if a.metricsFile == "" {
				return nil
			}
			if err := a.metrics.WriteTextfile(a.metricsFile); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			a.log.Debugf("metrics written to %s", a.metricsFile)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "simulation config file (.yaml, .json or .toml); built-in defaults when empty")
	flags.StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVarP(&a.format, "format", "f", "console", "output format: "+strings.Join(output.AvailableFormatterNames(), ", "))
	flags.StringVarP(&a.outputDir, "output-dir", "o", "", "write the report to a timestamped file in this directory instead of stdout")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
	flags.IntVar(&a.workers, "workers", 0, "concurrent simulation runs (0 = config value or GOMAXPROCS)")
	flags.Int64Var(&a.seed, "seed", 0, "random seed (0 = config value or time based)")

	root.AddCommand(
		newRunCmd(a),
		newTimelineCmd(a),
		newSweepCmd(a),
		newTrialsCmd(a),
		newTablesCmd(),
	)
	return root
}

// loadConfig reads the config file, or validates the defaults when none was
// given, then applies command line overrides.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	parser, err := config.NewInputParser()
	if err != nil {
		return nil, err
	}
	parser.Logger = a.log

	var cfg *config.Configuration
	if a.configPath != "" {
		cfg, err = parser.LoadFromFile(a.configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = &config.Configuration{SimulationParams: config.DefaultParams()}
		if err := parser.ValidateConfiguration(cfg); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("workers") {
		cfg.Workers = a.workers
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = a.seed
	}
	return cfg, nil
}

func (a *app) simulator(cfg *config.Configuration) *calculation.Simulator {
	return calculation.NewSimulator(calculation.NewPriceProvider(cfg.PriceDataDir), a.log)
}

func (a *app) sweepRunner(cfg *config.Configuration) *calculation.SweepRunner {
	return calculation.NewSweepRunner(a.simulator(cfg), cfg.Workers, a.log, a.metrics)
}

// emit renders the report to stdout or to a file in the output directory.
func (a *app) emit(cmd *cobra.Command, report *output.Report, format string) error {
	report.GeneratedAt = time.Now()
	if a.outputDir == "" {
		return output.GenerateReport(cmd.OutOrStdout(), report, format)
	}
	f := output.GetFormatterByName(format)
	if f == nil {
		return fmt.Errorf("%w: %q", output.ErrUnsupportedFormat, format)
	}
	path, err := output.WriteFormatted(f, report, a.outputDir)
	if err != nil {
		return err
	}
	a.log.Infof("report written to %s", path)
	return nil
}
