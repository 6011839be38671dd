package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rpgo/stocksim/internal/calculation"
	"github.com/rpgo/stocksim/internal/config"
	"github.com/rpgo/stocksim/internal/domain"
	"github.com/rpgo/stocksim/internal/output"
)

func newSweepCmd(a *app) *cobra.Command {
	var xSpec, ySpec string
	var top int
	var minCash float64
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a two-parameter grid sweep with average growth",
		Long: "Sweeps two numeric options over inclusive ranges. Dimensions come from the\n" +
			"config's sweep section or from --x/--y given as name:min:max:increment.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			sc := cfg.Sweep
			if sc == nil {
				sc = &config.SweepConfig{MinCashThreshold: calculation.DefaultMinCashThreshold, Top: calculation.DefaultCandidateLimit}
			}
			if xSpec != "" {
				if sc.X, err = parseDimension(xSpec); err != nil {
					return err
				}
			}
			if ySpec != "" {
				if sc.Y, err = parseDimension(ySpec); err != nil {
					return err
				}
			}
			if sc.X.Name == "" || sc.Y.Name == "" {
				return errors.New("sweep needs two dimensions: add a sweep section to the config or pass --x and --y")
			}
			if cmd.Flags().Changed("top") {
				sc.Top = top
			}
			if cmd.Flags().Changed("min-cash") {
				sc.MinCashThreshold = minCash
			}

			res, err := a.sweepRunner(cfg).Sweep2D(cmd.Context(), cfg.SimulationParams, sc.X, sc.Y)
			if err != nil {
				return err
			}
			report := &output.Report{
				Params:     &cfg.SimulationParams,
				Sweep:      res,
				Candidates: calculation.FindBest2D(res, sc.MinCashThreshold, sc.Top),
			}
			return a.emit(cmd, report, a.format)
		},
	}
	cmd.Flags().StringVar(&xSpec, "x", "", "first dimension as name:min:max:increment")
	cmd.Flags().StringVar(&ySpec, "y", "", "second dimension as name:min:max:increment")
	cmd.Flags().IntVar(&top, "top", calculation.DefaultCandidateLimit, "number of ranked cells to report")
	cmd.Flags().Float64Var(&minCash, "min-cash", calculation.DefaultMinCashThreshold, "lowest acceptable minimum cash for ranked cells")
	return cmd
}

// parseDimension reads "name:min:max:increment".
func parseDimension(spec string) (domain.Dimension, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 4 {
		return domain.Dimension{}, fmt.Errorf("%w: %q is not name:min:max:increment", domain.ErrInvalidDimension, spec)
	}
	var nums [3]float64
	for i, p := range parts[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.Dimension{}, fmt.Errorf("%w: %q: %v", domain.ErrInvalidDimension, spec, err)
		}
		nums[i] = v
	}
	return domain.Dimension{Name: strings.TrimSpace(parts[0]), Min: nums[0], Max: nums[1], Increment: nums[2]}, nil
}
