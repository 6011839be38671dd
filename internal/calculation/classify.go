package calculation

import "github.com/rpgo/stocksim/internal/domain"

// negativeRatio is reported for any cell whose run ever went negative.
const negativeRatio = -0.1

// cashTaxBracket is one band of the cash-to-tax heat map: a cash balance in
// [Lo*tax, Hi*tax] scores Low below 3x the tax and High at or above it.
type cashTaxBracket struct {
	Lo, Hi    float64
	Low, High float64
}

// Bands are checked in order; the first match wins.
var cashTaxBrackets = []cashTaxBracket{
	{Lo: 2, Hi: 4, Low: 0.5, High: 0.5},
	{Lo: 1.5, Hi: 10, Low: 0.25, High: 0.75},
	{Lo: 1.1, Hi: 50, Low: 0.1, High: 0.9},
	{Lo: 1, Hi: 100, Low: 0.05, High: 0.95},
}

// ClassifyCashTaxRatio scores how comfortably a final cash balance covers
// the year's tax bill, on a 0..1 scale.
func ClassifyCashTaxRatio(cash, tax float64, negative domain.NegativeFlags) float64 {
	if negative.Any() {
		return negativeRatio
	}
	for _, b := range cashTaxBrackets {
		if cash >= b.Lo*tax && cash <= b.Hi*tax {
			if cash < 3*tax {
				return b.Low
			}
			return b.High
		}
	}
	if cash > 100*tax {
		return 1
	}
	return 0
}

// ClassifyGrid fills r.TaxRatio from the cash and tax grids.
func ClassifyGrid(r *domain.SweepResult) {
	r.TaxRatio = make([][]float64, len(r.Cash))
	for i := range r.Cash {
		r.TaxRatio[i] = make([]float64, len(r.Cash[i]))
		for j := range r.Cash[i] {
			r.TaxRatio[i][j] = ClassifyCashTaxRatio(r.Cash[i][j], r.DividendTax[i][j], r.Negative[i][j])
		}
	}
}
