package main

import (
	"github.com/spf13/cobra"

	"github.com/rpgo/stocksim/internal/output"
)

func newRunCmd(a *app) *cobra.Command {
	var backtest bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("backtest") {
				cfg.Backtest = backtest
			}
			res, err := a.simulator(cfg).Run(cmd.Context(), cfg.SimulationParams)
			if err != nil {
				return err
			}
			return a.emit(cmd, &output.Report{Params: &cfg.SimulationParams, Run: res}, a.format)
		},
	}
	cmd.Flags().BoolVar(&backtest, "backtest", false, "drive growth from historical prices (overrides config)")
	return cmd
}

func newTimelineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "timeline",
		Short: "Run a single simulation and report weekly asset and cash snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.CheckNegative = true
			res, err := a.simulator(cfg).Run(cmd.Context(), cfg.SimulationParams)
			if err != nil {
				return err
			}
			format := a.format
			if !cmd.Flags().Changed("format") {
				format = "timeline-csv"
			}
			return a.emit(cmd, &output.Report{Params: &cfg.SimulationParams, Run: res}, format)
		},
	}
}
