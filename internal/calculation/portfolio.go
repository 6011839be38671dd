package calculation

import (
	"math"
	"math/rand"

	"github.com/rpgo/stocksim/internal/domain"
)

const (
	weeksPerYear  = 52
	monthsPerYear = 12
	// backtestStride is the number of trading-day samples per simulated week.
	backtestStride = 5
)

// PortfolioConfig seeds a new Portfolio.
type PortfolioConfig struct {
	StartValue      float64
	Income          float64
	MarketGrowth    float64
	DividendYield   float64
	MonthlyExpenses float64
	StdDev          float64
	Taxes           *domain.TaxRateTable
	Rand            *rand.Rand
}

// TaxBill is the float view of a TaxResult used by the weekly loop.
type TaxBill struct {
	Total    float64
	Dividend float64
}

type taxKey struct {
	income    float64
	dividends float64
}

// Portfolio tracks cash, stock and bond holdings together with the income
// and growth assumptions that move them. It is owned by a single run.
type Portfolio struct {
	Cash          float64
	Stocks        float64
	Bonds         float64
	Income        float64
	MarketGrowth  float64
	DividendYield float64
	StdDev        float64
	// Contributions is the running total moved from cash into stocks.
	Contributions float64

	monthlyExpenses float64
	taxes           *domain.TaxRateTable
	taxCache        map[taxKey]TaxBill
	rng             *rand.Rand

	prices   []float64
	priceIdx int
}

// NewPortfolio creates a portfolio whose starting value is held in stocks.
func NewPortfolio(cfg PortfolioConfig) *Portfolio {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(seedFunc()))
	}
	return &Portfolio{
		Stocks:          cfg.StartValue,
		Income:          cfg.Income,
		MarketGrowth:    cfg.MarketGrowth,
		DividendYield:   cfg.DividendYield,
		StdDev:          cfg.StdDev,
		monthlyExpenses: cfg.MonthlyExpenses,
		taxes:           cfg.Taxes,
		taxCache:        make(map[taxKey]TaxBill),
		rng:             rng,
	}
}

// UseBacktest switches stock growth to replay closing prices.
func (p *Portfolio) UseBacktest(prices []float64) {
	p.prices = prices
	p.priceIdx = 0
}

// AddCash credits a paycheck. Negative amounts are withdrawn as by SubtractValue.
func (p *Portfolio) AddCash(amount, floor float64) {
	if amount < 0 {
		p.SubtractValue(-amount, floor)
		return
	}
	p.Cash += amount
}

// SubtractValue withdraws amount, drawing cash down to floor first, then
// stocks, then bonds. Any shortfall left after that is taken from cash,
// which may go negative.
func (p *Portfolio) SubtractValue(amount, floor float64) {
	if amount < p.Cash-floor {
		p.Cash -= amount
		return
	}
	amount -= p.Cash - floor
	p.Cash = floor

	if amount < p.Stocks {
		p.Stocks -= amount
		return
	}
	amount -= p.Stocks
	p.Stocks = 0

	if amount < p.Bonds {
		p.Bonds -= amount
		return
	}
	amount -= p.Bonds
	p.Bonds = 0

	if amount > 0 {
		p.Cash -= amount
	}
}

// InvestInETF moves amount from cash to stocks. It does nothing when cash
// cannot cover the amount.
func (p *Portfolio) InvestInETF(amount float64) {
	if p.Cash < amount {
		return
	}
	p.Stocks += amount
	p.Cash -= amount
	p.Contributions += amount
}

// CompoundStocks grows stocks over the given number of weeks and then
// invests contribution. In back-test mode the growth factor is the ratio of
// closing prices backtestStride samples apart; otherwise it is the average
// rate, randomised when stdDev is non-zero.
func (p *Portfolio) CompoundStocks(rate, contribution, stdDev float64, weeks int) {
	p.Stocks *= p.growthFactor(rate, stdDev, weeks)
	p.InvestInETF(contribution)
}

func (p *Portfolio) growthFactor(rate, stdDev float64, weeks int) float64 {
	if p.prices != nil {
		next := p.priceIdx + backtestStride*weeks
		if next >= len(p.prices) || p.prices[p.priceIdx] == 0 {
			return 1
		}
		g := p.prices[next] / p.prices[p.priceIdx]
		p.priceIdx = next
		return g
	}
	w := float64(weeks)
	if stdDev != 0 {
		mean := (rate - 1) * w / weeksPerYear
		sd := stdDev / math.Sqrt(weeksPerYear/w)
		return 1 + mean + sd*p.rng.NormFloat64()
	}
	return 1 + w*(rate-1)/weeksPerYear
}

// Dividends returns the quarterly dividend on current stocks.
func (p *Portfolio) Dividends() float64 {
	return p.Stocks * p.DividendYield / 4
}

// TaxesOwed is TaxesOwed against the portfolio's table, memoised per
// (income, dividends) pair and rounded to float64.
func (p *Portfolio) TaxesOwed(income, dividends float64) (TaxBill, error) {
	key := taxKey{income: income, dividends: dividends}
	if bill, ok := p.taxCache[key]; ok {
		return bill, nil
	}
	res, err := TaxesOwed(income, dividends, p.taxes)
	if err != nil {
		return TaxBill{}, err
	}
	bill := TaxBill{
		Total:    res.Total.InexactFloat64(),
		Dividend: res.Dividend().InexactFloat64(),
	}
	p.taxCache[key] = bill
	return bill, nil
}

// PassiveIncome is the after-dividend-tax annual draw at the given usage rate.
func (p *Portfolio) PassiveIncome(usage float64) (float64, error) {
	draw := p.Stocks * usage
	tax, err := DividendTax(p.Income, draw, p.taxes)
	if err != nil {
		return 0, err
	}
	return draw - tax.InexactFloat64(), nil
}

// AssetValue is the sum of all holdings.
func (p *Portfolio) AssetValue() float64 { return p.Cash + p.Stocks + p.Bonds }

// CashBalance returns current cash.
func (p *Portfolio) CashBalance() float64 { return p.Cash }

// Values returns cash, stocks and bonds.
func (p *Portfolio) Values() (cash, stocks, bonds float64) {
	return p.Cash, p.Stocks, p.Bonds
}

// WeeklyIncome is annual income spread over 52 weeks.
func (p *Portfolio) WeeklyIncome() float64 { return p.Income / weeksPerYear }

// WeeklyExpenses converts monthly expenses to a weekly amount.
func (p *Portfolio) WeeklyExpenses() float64 {
	return p.monthlyExpenses * monthsPerYear / weeksPerYear
}

// SetIncome replaces annual income.
func (p *Portfolio) SetIncome(income float64) { p.Income = income }

// ApplyRaise multiplies annual income by factor.
func (p *Portfolio) ApplyRaise(factor float64) { p.Income *= factor }
