package calculation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rpgo/stocksim/internal/domain"
	"github.com/rpgo/stocksim/pkg/dateutil"
)

const (
	paycheckInterval = 2
	quarterInterval  = 13
	// unsetYear marks a minimum-cash record never updated after year 0.
	unsetYear = -1
)

// Simulator runs single week-by-week projections. A Simulator holds no
// per-run state and may be shared across goroutines.
type Simulator struct {
	Prices PriceSource
	Logger Logger
}

// NewSimulator creates a simulator. prices may be nil when back-testing is
// not used.
func NewSimulator(prices PriceSource, logger Logger) *Simulator {
	return &Simulator{Prices: prices, Logger: orNop(logger)}
}

// Run executes one projection. Randomness is drawn from a source seeded by
// p.Seed, or a fresh seed when it is zero.
func (s *Simulator) Run(ctx context.Context, p domain.SimulationParams) (*domain.SimulationResult, error) {
	log := orNop(s.Logger)
	rng := rand.New(rand.NewSource(baseSeed(p.Seed)))

	kind, known := ParseStrategy(p.Strategy)
	if !known && p.Strategy != "" {
		log.Debugf("unknown strategy %q, investing nothing", p.Strategy)
	}
	strategy := Strategy{
		Kind:           kind,
		InvestFactor:   p.InvestFactor,
		CashBaseFactor: p.CashBaseFactor,
		CashBaseAmt:    p.CashBaseAmt,
		CashCeiling:    p.CashCeiling,
	}

	stdDev := p.StdDev
	if p.UseAvgGrowth {
		stdDev = 0
	}
	pf := NewPortfolio(PortfolioConfig{
		StartValue:      p.StartCash,
		Income:          p.Income,
		MarketGrowth:    p.AvgGrowth,
		DividendYield:   p.DividendGrowth,
		MonthlyExpenses: p.Expenses.Monthly(),
		StdDev:          stdDev,
		Taxes:           p.TaxTable,
		Rand:            rng,
	})
	if p.Backtest {
		prices, err := s.backtestPrices(p, rng)
		if err != nil {
			return nil, err
		}
		pf.UseBacktest(prices)
	}

	downPayment := p.HouseCost * p.DownPayFraction
	var monthlyMortgage float64
	if p.HouseLoan {
		monthlyMortgage = MonthlyMortgagePayment(p.HouseCost, p.MortgageInterestRate, p.LoanLength, downPayment)
	}

	res := &domain.SimulationResult{
		MinCash:        domain.MinCash{Value: p.StartCash, Year: unsetYear},
		RetirementYear: domain.NeverRetired,
	}
	if p.CheckNegative {
		res.AssetSeries = make([]float64, 1, p.Years*weeksPerYear+1)
		res.CashSeries = make([]float64, 1, p.Years*weeksPerYear+1)
	}
	weeklyExpenses := pf.WeeklyExpenses()

	for year := 0; year < p.Years; year++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if year == p.CashInjectionYear {
			pf.AddCash(p.CashInjectionAmt, p.CashFloor)
		}
		if salary, ok := p.Promotion.SalaryFor(year); ok {
			pf.SetIncome(salary)
		}

		var mortgageMonth float64
		if p.HouseLoan {
			if year == p.YearLoanStart {
				pf.SubtractValue(downPayment, p.CashFloor)
			}
			if year > p.YearLoanStart && year <= p.YearLoanStart+p.LoanLength {
				mortgageMonth = monthlyMortgage
			}
		}
		mortgageWeek := mortgageMonth * monthsPerYear / weeksPerYear
		weeklyIncome := pf.WeeklyIncome()
		var annualDividends float64

		for week := 1; week <= weeksPerYear; week++ {
			if year > 0 && pf.Cash < res.MinCash.Value {
				res.MinCash = domain.MinCash{Value: pf.Cash, Year: year}
			}

			var postTax float64
			if week%paycheckInterval == 0 {
				net := weeklyIncome - weeklyExpenses - mortgageWeek
				if p.AnnualizedTaxes {
					postTax = 2 * net
				} else {
					taxes, err := pf.TaxesOwed(pf.Income, 0)
					if err != nil {
						return nil, fmt.Errorf("year %d week %d: %w", year, week, err)
					}
					postTax = 2*net - 2*taxes.Total/weeksPerYear
				}
				pf.AddCash(postTax, p.CashFloor)
			}

			pf.CompoundStocks(pf.MarketGrowth, strategy.InvestAmount(pf, postTax), pf.StdDev, 1)

			if week%quarterInterval == 0 {
				dividend := pf.Dividends()
				if p.PreTaxDividend {
					taxes, err := pf.TaxesOwed(pf.Income, dividend)
					if err != nil {
						return nil, fmt.Errorf("year %d week %d: %w", year, week, err)
					}
					pf.Stocks += dividend - taxes.Dividend
				} else {
					pf.Stocks += dividend
				}
				annualDividends += dividend
			}

			if p.CheckNegative {
				total := pf.AssetValue()
				res.AssetSeries = append(res.AssetSeries, total)
				res.CashSeries = append(res.CashSeries, pf.Cash)
				if pf.Cash < 0 {
					res.Negative.Cash = true
				}
				if total < 0 {
					res.Negative = domain.NegativeFlags{Cash: true, Assets: true}
				}
			}

			if res.RetirementYear == domain.NeverRetired {
				passive, err := pf.PassiveIncome(p.RetirementUsage)
				if err != nil {
					return nil, fmt.Errorf("year %d week %d: %w", year, week, err)
				}
				if passive >= p.RetirementIncomeGoal {
					res.RetirementYear = year
				}
			}
		}

		switch {
		case p.AnnualizedTaxes:
			taxes, err := pf.TaxesOwed(pf.Income, annualDividends)
			if err != nil {
				return nil, fmt.Errorf("year %d: %w", year, err)
			}
			res.DividendTax = taxes.Total
			pf.SubtractValue(taxes.Total, 0)
		case !p.PreTaxDividend:
			taxes, err := pf.TaxesOwed(pf.Income, annualDividends)
			if err != nil {
				return nil, fmt.Errorf("year %d: %w", year, err)
			}
			res.DividendTax = taxes.Dividend
			pf.SubtractValue(res.DividendTax, 0)
		}
		pf.ApplyRaise(p.RaiseFactor)
	}

	if res.MinCash.Year == unsetYear {
		res.MinCash.Value = p.CashCeiling
	}
	passive, err := pf.PassiveIncome(p.RetirementUsage)
	if err != nil {
		return nil, fmt.Errorf("final passive income: %w", err)
	}
	res.Income = pf.Income
	res.Cash, res.Stocks, res.Bonds = pf.Values()
	res.PassiveIncome = passive
	res.Contributions = pf.Contributions
	return res, nil
}

func (s *Simulator) backtestPrices(p domain.SimulationParams, rng *rand.Rand) ([]float64, error) {
	if s.Prices == nil {
		return nil, fmt.Errorf("backtest requested but no price data is configured")
	}
	var (
		start time.Time
		err   error
	)
	if p.StartDate == "" || strings.EqualFold(p.StartDate, "random") {
		start, err = s.Prices.PickStartDate(p.BacktestTicker, p.Years, rng)
	} else {
		start, err = dateutil.ParseDate(p.StartDate)
	}
	if err != nil {
		return nil, fmt.Errorf("backtest start date: %w", err)
	}
	prices, err := s.Prices.Range(p.BacktestTicker, p.Years, start)
	if err != nil {
		return nil, fmt.Errorf("backtest prices: %w", err)
	}
	return prices, nil
}
