package calculation

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/alitto/pond"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rpgo/stocksim/internal/domain"
)

// Run kinds reported to a RunObserver.
const (
	KindGrid  = "grid"
	KindTrial = "trial"
)

// RunObserver receives timing for each simulation run and each sweep.
type RunObserver interface {
	ObserveRun(kind string, elapsed time.Duration, err error)
	ObserveSweep(kind string, runs int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveRun(string, time.Duration, error)  {}
func (nopObserver) ObserveSweep(string, int, time.Duration) {}

// SweepRunner fans independent simulation runs out over a bounded number of
// workers. Any failing run fails the whole sweep.
type SweepRunner struct {
	Simulator *Simulator
	Workers   int
	Logger    Logger
	Observer  RunObserver
}

// NewSweepRunner creates a runner. workers <= 0 uses GOMAXPROCS.
func NewSweepRunner(sim *Simulator, workers int, logger Logger, observer RunObserver) *SweepRunner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &SweepRunner{
		Simulator: sim,
		Workers:   workers,
		Logger:    orNop(logger),
		Observer:  observer,
	}
}

func (r *SweepRunner) run(ctx context.Context, kind string, p domain.SimulationParams) (*domain.SimulationResult, error) {
	start := nowFunc()
	res, err := r.Simulator.Run(ctx, p)
	r.Observer.ObserveRun(kind, nowFunc().Sub(start), err)
	return res, err
}

// Sweep2D runs one simulation per (x, y) cell with deterministic average
// growth. Rows are dispatched as batches on a worker pool and every cell
// lands at its own index regardless of completion order.
func (r *SweepRunner) Sweep2D(ctx context.Context, base domain.SimulationParams, x, y domain.Dimension) (*domain.SweepResult, error) {
	xs, err := x.Values()
	if err != nil {
		return nil, err
	}
	ys, err := y.Values()
	if err != nil {
		return nil, err
	}
	check := base.Clone()
	if err := check.SetParam(x.Name, xs[0]); err != nil {
		return nil, err
	}
	if err := check.SetParam(y.Name, ys[0]); err != nil {
		return nil, err
	}

	base = base.Clone()
	base.UseAvgGrowth = true
	seed := baseSeed(base.Seed)

	result := domain.NewSweepResult(x, y, xs, ys)
	result.ID = uuid.NewString()
	log := r.Logger
	log.Infof("sweep_id=%s starting grid sweep %s x %s (%d x %d cells, %d workers)",
		result.ID, x.Name, y.Name, len(xs), len(ys), r.Workers)

	pool := pond.New(r.Workers, len(ys),
		pond.MinWorkers(1),
		pond.Strategy(pond.Balanced()),
		pond.PanicHandler(func(p interface{}) {
			log.Errorf("sweep_id=%s simulation panic recovered: %v", result.ID, p)
		}),
	)
	defer pool.StopAndWait()

	start := nowFunc()
	for i, xv := range xs {
		log.Infof("sweep_id=%s batch %d/%d", result.ID, i, len(xs))
		group, gctx := pool.GroupContext(ctx)
		row := make([]*domain.SimulationResult, len(ys))
		for j, yv := range ys {
			j, yv := j, yv
			params := base.Clone()
			_ = params.SetParam(x.Name, xv)
			_ = params.SetParam(y.Name, yv)
			params.Seed = seed + int64(i*len(ys)+j) + 1
			group.Submit(func() error {
				res, err := r.run(gctx, KindGrid, params)
				if err != nil {
					return fmt.Errorf("cell %s=%v %s=%v: %w", x.Name, xv, y.Name, yv, err)
				}
				row[j] = res
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			log.Errorf("sweep_id=%s failed: %v", result.ID, err)
			return nil, err
		}
		for j, res := range row {
			if res == nil {
				return nil, fmt.Errorf("cell %s=%v %s=%v produced no result", x.Name, xv, y.Name, ys[j])
			}
			result.Place(i, j, res)
		}
	}
	elapsed := nowFunc().Sub(start)
	r.Observer.ObserveSweep(KindGrid, len(xs)*len(ys), elapsed)

	if base.DisplayTaxRatio {
		ClassifyGrid(result)
		result.MedianCash = Median(flatten(result.TaxRatio))
	} else {
		result.MedianCash = Median(flatten(result.Cash))
	}
	result.MedianNet = Median(flatten(result.Net))
	log.Infof("sweep_id=%s finished in %s: median net %.2f, median cash %.2f",
		result.ID, elapsed.Round(time.Millisecond), result.MedianNet, result.MedianCash)
	return result, nil
}

// RunTrials repeats the same configuration n times with stochastic growth.
// Outcomes are collected in completion order.
func (r *SweepRunner) RunTrials(ctx context.Context, base domain.SimulationParams, n int, metric domain.TrialMetric) (*domain.TrialResult, error) {
	if n <= 0 {
		return nil, fmt.Errorf("trial count must be positive, got %d", n)
	}
	if metric == "" {
		metric = domain.TrialNetAssets
	}
	if metric != domain.TrialNetAssets && metric != domain.TrialRetirementYear {
		return nil, fmt.Errorf("unknown trial metric %q", metric)
	}

	base = base.Clone()
	base.UseAvgGrowth = false
	seed := baseSeed(base.Seed)

	result := &domain.TrialResult{
		ID:     uuid.NewString(),
		Metric: metric,
		Values: make([]float64, 0, n),
		Cash:   make([]float64, 0, n),
	}
	log := r.Logger
	log.Infof("sweep_id=%s starting %d trials (%s, %d workers)", result.ID, n, metric, r.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)
	outcomes := make(chan *domain.SimulationResult, n)
	errc := make(chan error, 1)

	start := nowFunc()
	go func() {
		for i := 0; i < n; i++ {
			i := i
			params := base.Clone()
			params.Seed = seed + int64(i) + 1
			g.Go(func() error {
				res, err := r.run(gctx, KindTrial, params)
				if err != nil {
					return fmt.Errorf("trial %d: %w", i, err)
				}
				outcomes <- res
				return nil
			})
		}
		errc <- g.Wait()
		close(outcomes)
	}()

	var retired []float64
	for res := range outcomes {
		log.Debugf("sweep_id=%s trial %d/%d complete", result.ID, len(result.Values)+1, n)
		result.Cash = append(result.Cash, res.Cash)
		switch metric {
		case domain.TrialRetirementYear:
			result.Values = append(result.Values, float64(res.RetirementYear))
			if res.Retired() {
				retired = append(retired, float64(res.RetirementYear))
			} else {
				result.NeverRetired++
			}
		default:
			result.Values = append(result.Values, res.NetAssets())
		}
	}
	if err := <-errc; err != nil {
		log.Errorf("sweep_id=%s failed: %v", result.ID, err)
		return nil, err
	}
	elapsed := nowFunc().Sub(start)
	r.Observer.ObserveSweep(KindTrial, n, elapsed)

	if metric == domain.TrialRetirementYear {
		result.Summary = Summarize(retired)
	} else {
		result.Summary = Summarize(result.Values)
	}
	result.MedianCash = Median(result.Cash)
	log.Infof("sweep_id=%s finished %d trials in %s: median %s %.2f, median cash %.2f",
		result.ID, n, elapsed.Round(time.Millisecond), metric, result.Summary.Median, result.MedianCash)
	return result, nil
}
