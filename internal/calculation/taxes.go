package calculation

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/rpgo/stocksim/internal/domain"
)

// TAX CALCULATION ASSUMPTIONS:
//
// 1. Each category of the rate table is evaluated on its own; there is no
//    marginal layering across categories.
// 2. The active bracket is the one with the highest threshold strictly below
//    income. Income exactly on a threshold stays in the lower bracket.
// 3. Dividend categories tax the dividend amount at the bracket rate selected
//    by ordinary income. Other categories owe base + rate * (income - threshold).
// 4. Social security is capped at the wage base once income reaches it.

var (
	socialSecurityWageBase = decimal.NewFromInt(147000)
	socialSecurityRate     = decimal.RequireFromString("0.062")
	hundred                = decimal.NewFromInt(100)
)

// ErrInvalidIncome is returned when taxes are requested for non-positive income.
var ErrInvalidIncome = errors.New("income must be greater than 0")

// TaxResult is the breakdown returned by TaxesOwed.
type TaxResult struct {
	// Brackets maps each category to the selected rate label.
	Brackets map[string]string `json:"brackets"`
	// Owed maps each category to the amount owed.
	Owed  map[string]decimal.Decimal `json:"owed"`
	Total decimal.Decimal            `json:"total"`
	// Percentages holds 100*owed/income per category plus a "total" key.
	Percentages map[string]decimal.Decimal `json:"percentages"`
}

// Dividend returns the sum owed across dividend categories.
func (r *TaxResult) Dividend() decimal.Decimal {
	sum := decimal.Zero
	if r == nil {
		return sum
	}
	for name, owed := range r.Owed {
		if (domain.TaxCategory{Name: name}).IsDividend() {
			sum = sum.Add(owed)
		}
	}
	return sum
}

// BracketFor selects the applicable rate label per category. Categories with
// no threshold below income are omitted.
func BracketFor(income float64, table *domain.TaxRateTable) map[string]string {
	out := make(map[string]string)
	if table == nil {
		return out
	}
	in := decimal.NewFromFloat(income)
	for _, cat := range table.Categories {
		if b, ok := selectBracket(cat, in); ok {
			out[cat.Name] = b.Label
		}
	}
	return out
}

func selectBracket(cat domain.TaxCategory, income decimal.Decimal) (domain.TaxBracket, bool) {
	var (
		best  domain.TaxBracket
		found bool
	)
	for _, b := range cat.Brackets {
		if b.Threshold.GreaterThanOrEqual(income) {
			continue
		}
		if !found || b.Threshold.GreaterThan(best.Threshold) {
			best = b
			found = true
		}
	}
	return best, found
}

// TaxesOwed computes per-category and total taxes on income, with dividends
// taxed by the dividend categories.
func TaxesOwed(income, dividends float64, table *domain.TaxRateTable) (*TaxResult, error) {
	if income <= 0 {
		return nil, ErrInvalidIncome
	}
	in := decimal.NewFromFloat(income)
	div := decimal.NewFromFloat(dividends)

	result := &TaxResult{
		Brackets:    make(map[string]string),
		Owed:        make(map[string]decimal.Decimal),
		Total:       decimal.Zero,
		Percentages: make(map[string]decimal.Decimal),
	}
	if table != nil {
		for _, cat := range table.Categories {
			b, ok := selectBracket(cat, in)
			if !ok {
				continue
			}
			var owed decimal.Decimal
			if cat.IsDividend() {
				owed = b.Rate.Mul(div)
			} else {
				owed = b.BaseTax.Add(b.Rate.Mul(in.Sub(b.Threshold)))
			}
			if cat.IsSocialSecurity() && b.Rate.IsZero() && in.GreaterThanOrEqual(socialSecurityWageBase) {
				owed = socialSecurityWageBase.Mul(socialSecurityRate)
			}
			result.Brackets[cat.Name] = b.Label
			result.Owed[cat.Name] = owed
			result.Total = result.Total.Add(owed)
		}
	}

	for name, owed := range result.Owed {
		result.Percentages[name] = owed.Mul(hundred).Div(in)
	}
	result.Percentages["total"] = result.Total.Mul(hundred).Div(in)
	return result, nil
}

// DividendTax is the dividend portion of TaxesOwed.
func DividendTax(income, dividends float64, table *domain.TaxRateTable) (decimal.Decimal, error) {
	res, err := TaxesOwed(income, dividends, table)
	if err != nil {
		return decimal.Zero, err
	}
	return res.Dividend(), nil
}
