package output

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/rpgo/stocksim/internal/domain"
	money "github.com/rpgo/stocksim/pkg/decimal"
)

// FormatCurrency formats an amount as USD with thousands separators.
func FormatCurrency(amount float64) string { return money.NewMoney(amount).Format() }

// FormatPercentage formats a fraction (0.045) as a percentage with 2 decimals.
func FormatPercentage(fraction float64) string {
	return decimal.NewFromFloat(fraction).Shift(2).StringFixed(2) + "%"
}

// FormatYear renders a retirement year, spelling out the never sentinel.
func FormatYear(year int) string {
	if year == domain.NeverRetired {
		return "never"
	}
	return strconv.Itoa(year)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// formatAxis prints dimension values without trailing zeros.
func formatAxis(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
