package main

import (
	"github.com/spf13/cobra"

	"github.com/rpgo/stocksim/internal/domain"
	"github.com/rpgo/stocksim/internal/output"
)

const defaultTrialCount = 100

func newTrialsCmd(a *app) *cobra.Command {
	var count int
	var metric string
	cmd := &cobra.Command{
		Use:   "trials",
		Short: "Repeat one configuration with randomly sampled growth",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			n, m := defaultTrialCount, domain.TrialNetAssets
			if cfg.Trials != nil {
				n, m = cfg.Trials.Count, cfg.Trials.Metric
			}
			if cmd.Flags().Changed("count") {
				n = count
			}
			if cmd.Flags().Changed("metric") {
				m = domain.TrialMetric(metric)
			}

			res, err := a.sweepRunner(cfg).RunTrials(cmd.Context(), cfg.SimulationParams, n, m)
			if err != nil {
				return err
			}
			return a.emit(cmd, &output.Report{Params: &cfg.SimulationParams, Trials: res}, a.format)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", defaultTrialCount, "number of trials")
	cmd.Flags().StringVar(&metric, "metric", string(domain.TrialNetAssets), "aggregated outcome: net_assets or retirement_year")
	return cmd
}
