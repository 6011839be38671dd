package domain

import (
	"fmt"
	"math"
)

// NeverRetired marks a run whose passive income never reached the goal.
const NeverRetired = -1

// MinCash records the lowest cash balance seen and the year it happened.
type MinCash struct {
	Value float64 `json:"value"`
	Year  int     `json:"year"`
}

// NegativeFlags latch once cash or total assets have gone below zero.
type NegativeFlags struct {
	Cash   bool `json:"cash"`
	Assets bool `json:"assets"`
}

// Any reports whether either balance ever went negative.
func (n NegativeFlags) Any() bool { return n.Cash || n.Assets }

// SimulationResult is the end-of-run snapshot of a single simulation.
type SimulationResult struct {
	Income         float64       `json:"income"`
	Cash           float64       `json:"cash"`
	Stocks         float64       `json:"stocks"`
	Bonds          float64       `json:"bonds"`
	PassiveIncome  float64       `json:"passive_income"`
	Contributions  float64       `json:"contributions"`
	AssetSeries    []float64     `json:"asset_series,omitempty"`
	CashSeries     []float64     `json:"cash_series,omitempty"`
	DividendTax    float64       `json:"dividend_tax"`
	Negative       NegativeFlags `json:"negative"`
	MinCash        MinCash       `json:"min_cash"`
	RetirementYear int           `json:"retirement_year"`
}

// NetAssets is the liquid total reported by sweeps: cash plus stocks.
func (r *SimulationResult) NetAssets() float64 { return r.Cash + r.Stocks }

// Retired reports whether a retirement year was recorded.
func (r *SimulationResult) Retired() bool { return r.RetirementYear != NeverRetired }

// Dimension describes one swept parameter as an inclusive range.
type Dimension struct {
	Name      string  `yaml:"name" json:"name"`
	Min       float64 `yaml:"min" json:"min"`
	Max       float64 `yaml:"max" json:"max"`
	Increment float64 `yaml:"increment" json:"increment"`
}

// dimensionScale turns fractional ranges into integer steps.
const dimensionScale = 1000

// Values expands the range. Fractional bounds or increments are stepped on an
// integer grid scaled by 1000 so that accumulation error cannot add or drop
// a cell.
func (d Dimension) Values() ([]float64, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDimension)
	}
	if d.Increment <= 0 {
		return nil, fmt.Errorf("%w: %s: increment must be positive", ErrInvalidDimension, d.Name)
	}
	if d.Max < d.Min {
		return nil, fmt.Errorf("%w: %s: max %v is below min %v", ErrInvalidDimension, d.Name, d.Max, d.Min)
	}
	scale := 1.0
	if isFractional(d.Min) || isFractional(d.Max) || isFractional(d.Increment) {
		scale = dimensionScale
	}
	lo := int64(math.Round(d.Min * scale))
	hi := int64(math.Round(d.Max * scale))
	step := int64(math.Round(d.Increment * scale))
	if step == 0 {
		return nil, fmt.Errorf("%w: %s: increment %v is below grid resolution", ErrInvalidDimension, d.Name, d.Increment)
	}
	var out []float64
	for n := lo; n <= hi; n += step {
		out = append(out, float64(n)/scale)
	}
	return out, nil
}

func isFractional(v float64) bool { return v != math.Trunc(v) }

// SweepResult holds the per-cell outputs of a two-parameter sweep, indexed
// [x][y] by the positions of XValues and YValues.
type SweepResult struct {
	ID             string            `json:"id"`
	X              Dimension         `json:"x"`
	Y              Dimension         `json:"y"`
	XValues        []float64         `json:"x_values"`
	YValues        []float64         `json:"y_values"`
	Net            [][]float64       `json:"net"`
	Cash           [][]float64       `json:"cash"`
	DividendTax    [][]float64       `json:"dividend_tax"`
	MinCash        [][]float64       `json:"min_cash"`
	RetirementYear [][]int           `json:"retirement_year"`
	Negative       [][]NegativeFlags `json:"negative"`
	// TaxRatio is the cash-to-tax classification, only filled when requested.
	TaxRatio   [][]float64 `json:"tax_ratio,omitempty"`
	MedianNet  float64     `json:"median_net"`
	MedianCash float64     `json:"median_cash"`
}

// NewSweepResult allocates all grids for the given axes.
func NewSweepResult(x, y Dimension, xs, ys []float64) *SweepResult {
	r := &SweepResult{X: x, Y: y, XValues: xs, YValues: ys}
	r.Net = makeGrid[float64](len(xs), len(ys))
	r.Cash = makeGrid[float64](len(xs), len(ys))
	r.DividendTax = makeGrid[float64](len(xs), len(ys))
	r.MinCash = makeGrid[float64](len(xs), len(ys))
	r.RetirementYear = makeGrid[int](len(xs), len(ys))
	r.Negative = makeGrid[NegativeFlags](len(xs), len(ys))
	return r
}

// Place stores one run's outputs into cell (i, j).
func (r *SweepResult) Place(i, j int, res *SimulationResult) {
	r.Net[i][j] = res.NetAssets()
	r.Cash[i][j] = res.Cash
	r.DividendTax[i][j] = res.DividendTax
	r.MinCash[i][j] = res.MinCash.Value
	r.RetirementYear[i][j] = res.RetirementYear
	r.Negative[i][j] = res.Negative
}

func makeGrid[T any](rows, cols int) [][]T {
	g := make([][]T, rows)
	for i := range g {
		g[i] = make([]T, cols)
	}
	return g
}

// TrialMetric selects which field of a run a trial sweep aggregates.
type TrialMetric string

const (
	TrialNetAssets      TrialMetric = "net_assets"
	TrialRetirementYear TrialMetric = "retirement_year"
)

// Summary is the distribution summary of a trial sweep.
type Summary struct {
	Median float64 `json:"median"`
	P10    float64 `json:"p10"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	P90    float64 `json:"p90"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// TrialResult is the flat, completion-ordered outcome list of a trial sweep.
type TrialResult struct {
	ID         string      `json:"id"`
	Metric     TrialMetric `json:"metric"`
	Values     []float64   `json:"values"`
	Cash       []float64   `json:"cash"`
	Summary    Summary     `json:"summary"`
	MedianCash float64     `json:"median_cash"`
	// NeverRetired counts trials excluded from the retirement-year summary.
	NeverRetired int `json:"never_retired,omitempty"`
}
