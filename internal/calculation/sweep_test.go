package calculation

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpgo/stocksim/internal/domain"
)

type countingObserver struct {
	mu     sync.Mutex
	runs   map[string]int
	errs   int
	sweeps map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{runs: map[string]int{}, sweeps: map[string]int{}}
}

func (o *countingObserver) ObserveRun(kind string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs[kind]++
	if err != nil {
		o.errs++
	}
}

func (o *countingObserver) ObserveSweep(kind string, runs int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sweeps[kind] += runs
}

func TestSweep2DShapeAndPlacement(t *testing.T) {
	base := baseParams(t)
	base.Years = 2
	base.Strategy = "Basic"
	base.UseAvgGrowth = false
	base.StdDev = 0.2

	x := domain.Dimension{Name: "income", Min: 80000, Max: 100000, Increment: 10000}
	y := domain.Dimension{Name: "invest_factor", Min: 0, Max: 0.5, Increment: 0.25}
	obs := newCountingObserver()
	sim := NewSimulator(nil, nil)
	runner := NewSweepRunner(sim, 4, nil, obs)

	res, err := runner.Sweep2D(context.Background(), base, x, y)
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, []float64{80000, 90000, 100000}, res.XValues)
	assert.Equal(t, []float64{0, 0.25, 0.5}, res.YValues)
	require.Len(t, res.Net, 3)
	for i := range res.Net {
		require.Len(t, res.Net[i], 3)
	}
	assert.Equal(t, 9, obs.runs[KindGrid])
	assert.Equal(t, 9, obs.sweeps[KindGrid])
	assert.Nil(t, res.TaxRatio)

	for i, xv := range res.XValues {
		for j, yv := range res.YValues {
			p := base.Clone()
			p.Income = xv
			p.InvestFactor = yv
			p.UseAvgGrowth = true
			direct, err := sim.Run(context.Background(), p)
			require.NoError(t, err)
			assert.InDelta(t, direct.NetAssets(), res.Net[i][j], 1e-6, "cell %d,%d", i, j)
			assert.InDelta(t, direct.Cash, res.Cash[i][j], 1e-6)
			assert.Equal(t, direct.RetirementYear, res.RetirementYear[i][j])
		}
	}
	assert.InDelta(t, Median(flatten(res.Net)), res.MedianNet, 1e-9)
}

func TestSweep2DSingleCell(t *testing.T) {
	base := baseParams(t)
	dim := domain.Dimension{Name: "invest_factor", Min: 0.5, Max: 0.5, Increment: 0.1}
	res, err := NewSweepRunner(NewSimulator(nil, nil), 1, nil, nil).Sweep2D(context.Background(), base, dim, dim)
	require.NoError(t, err)
	require.Len(t, res.Net, 1)
	require.Len(t, res.Net[0], 1)

	params := base.Clone()
	params.InvestFactor = 0.5
	single, err := NewSimulator(nil, nil).Run(context.Background(), params)
	require.NoError(t, err)
	assert.InDelta(t, single.NetAssets(), res.Net[0][0], 1e-9)
	assert.InDelta(t, 305443.30, res.Net[0][0], 0.01)
}

func TestSweep2DTaxRatio(t *testing.T) {
	base := baseParams(t)
	base.DisplayTaxRatio = true
	x := domain.Dimension{Name: "income", Min: 90000, Max: 100000, Increment: 10000}
	y := domain.Dimension{Name: "years", Min: 1, Max: 2, Increment: 1}

	res, err := NewSweepRunner(NewSimulator(nil, nil), 2, nil, nil).Sweep2D(context.Background(), base, x, y)
	require.NoError(t, err)
	require.Len(t, res.TaxRatio, 2)
	for i := range res.TaxRatio {
		for j := range res.TaxRatio[i] {
			assert.Equal(t, ClassifyCashTaxRatio(res.Cash[i][j], res.DividendTax[i][j], res.Negative[i][j]), res.TaxRatio[i][j])
		}
	}
	assert.InDelta(t, Median(flatten(res.TaxRatio)), res.MedianCash, 1e-12)
}

func TestSweep2DErrors(t *testing.T) {
	base := baseParams(t)
	runner := NewSweepRunner(NewSimulator(nil, nil), 2, nil, nil)
	good := domain.Dimension{Name: "income", Min: 90000, Max: 90000, Increment: 1}

	_, err := runner.Sweep2D(context.Background(), base, domain.Dimension{Name: "bogus", Min: 1, Max: 2, Increment: 1}, good)
	assert.ErrorIs(t, err, domain.ErrUnknownParameter)

	_, err = runner.Sweep2D(context.Background(), base, good, domain.Dimension{Name: "years", Min: 1, Max: 2, Increment: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidDimension)

	res, err := runner.Sweep2D(context.Background(), base,
		domain.Dimension{Name: "income", Min: 0, Max: 10000, Increment: 10000},
		domain.Dimension{Name: "years", Min: 1, Max: 1, Increment: 1})
	assert.ErrorIs(t, err, ErrInvalidIncome, "a failing cell fails the sweep")
	assert.Nil(t, res)
}

func TestRunTrials(t *testing.T) {
	base := baseParams(t)
	base.Years = 3
	base.AvgGrowth = 1.08
	base.StdDev = 0.15
	base.Strategy = "Basic"
	obs := newCountingObserver()
	runner := NewSweepRunner(NewSimulator(nil, nil), 4, nil, obs)

	res, err := runner.RunTrials(context.Background(), base, 25, domain.TrialNetAssets)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Len(t, res.Values, 25)
	assert.Len(t, res.Cash, 25)
	assert.Equal(t, 25, res.Summary.Count)
	assert.Equal(t, 25, obs.runs[KindTrial])
	assert.LessOrEqual(t, res.Summary.Min, res.Summary.Median)
	assert.LessOrEqual(t, res.Summary.Median, res.Summary.Max)

	again, err := runner.RunTrials(context.Background(), base, 25, domain.TrialNetAssets)
	require.NoError(t, err)
	first := append([]float64(nil), res.Values...)
	second := append([]float64(nil), again.Values...)
	sort.Float64s(first)
	sort.Float64s(second)
	assert.Equal(t, first, second, "same seed gives the same outcome set")
	assert.Greater(t, first[len(first)-1], first[0], "trials use stochastic growth")
}

func TestRunTrialsRetirementYear(t *testing.T) {
	base := baseParams(t)
	base.Years = 4
	base.AvgGrowth = 1.08
	base.StdDev = 0.15
	base.RetirementIncomeGoal = 1e9

	res, err := NewSweepRunner(NewSimulator(nil, nil), 2, nil, nil).RunTrials(context.Background(), base, 10, domain.TrialRetirementYear)
	require.NoError(t, err)
	assert.Equal(t, 10, res.NeverRetired)
	assert.Zero(t, res.Summary.Count)
	for _, v := range res.Values {
		assert.Equal(t, float64(domain.NeverRetired), v)
	}
}

func TestRunTrialsErrors(t *testing.T) {
	runner := NewSweepRunner(NewSimulator(nil, nil), 2, nil, nil)
	base := baseParams(t)

	_, err := runner.RunTrials(context.Background(), base, 0, domain.TrialNetAssets)
	assert.Error(t, err)

	_, err = runner.RunTrials(context.Background(), base, 3, "volatility")
	assert.Error(t, err)

	base.Income = -1
	res, err := runner.RunTrials(context.Background(), base, 5, domain.TrialNetAssets)
	assert.ErrorIs(t, err, ErrInvalidIncome)
	assert.Nil(t, res)
}

type timingObserver struct {
	mu    sync.Mutex
	run   time.Duration
	sweep time.Duration
}

func (o *timingObserver) ObserveRun(_ string, elapsed time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.run = elapsed
}

func (o *timingObserver) ObserveSweep(_ string, _ int, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sweep = elapsed
}

func TestSweepTimingUsesClock(t *testing.T) {
	var ticks atomic.Int64
	SetNowFunc(func() time.Time { return time.Unix(0, 0).Add(time.Duration(ticks.Add(1)) * time.Second) })
	t.Cleanup(func() { SetNowFunc(time.Now) })

	obs := &timingObserver{}
	dim := domain.Dimension{Name: "income", Min: 90000, Max: 90000, Increment: 1}
	_, err := NewSweepRunner(NewSimulator(nil, nil), 1, nil, obs).Sweep2D(context.Background(), baseParams(t), dim, dim)
	require.NoError(t, err)

	assert.Equal(t, time.Second, obs.run)
	assert.Equal(t, 3*time.Second, obs.sweep)
}

func TestRunTrialsSeedHook(t *testing.T) {
	SetSeedFunc(func() int64 { return 99 })
	t.Cleanup(func() { SetSeedFunc(func() int64 { return time.Now().UnixNano() }) })

	base := baseParams(t)
	base.Years = 2
	base.StdDev = 0.2
	base.Seed = 0
	runner := NewSweepRunner(NewSimulator(nil, nil), 3, nil, nil)

	fromHook, err := runner.RunTrials(context.Background(), base, 6, domain.TrialNetAssets)
	require.NoError(t, err)
	base.Seed = 99
	explicit, err := runner.RunTrials(context.Background(), base, 6, domain.TrialNetAssets)
	require.NoError(t, err)

	assert.Equal(t, fromHook.Summary, explicit.Summary)
}
