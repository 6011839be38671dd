package calculation

import "math"

// MonthlyMortgagePayment is the level annuity payment on the financed amount
// (cost less down payment). A zero rate amortises principal evenly.
func MonthlyMortgagePayment(cost, annualRate float64, years int, downPayment float64) float64 {
	principal := cost - downPayment
	n := float64(years * monthsPerYear)
	if n <= 0 {
		return 0
	}
	r := annualRate / monthsPerYear
	if r == 0 {
		return principal / n
	}
	growth := math.Pow(1+r, n)
	return principal * r * growth / (growth - 1)
}
