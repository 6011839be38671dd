package calculation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpgo/stocksim/internal/domain"
)

// singleFlatTable mirrors the Virginia single-filer schedule shipped in the
// tax table registry.
func singleFlatTable(t *testing.T) *domain.TaxRateTable {
	t.Helper()
	table, err := domain.NewTaxRateTable("virginia_us_tax_rates_single_flat", map[string]map[string][]float64{
		"federal_income": {
			"10%": {0, 0},
			"12%": {11000, 1100},
			"22%": {44726, 5147},
			"24%": {95376, 16290},
			"32%": {182101, 37104},
			"35%": {231251, 52832},
			"37%": {578126, 174238},
		},
		"federal_dividend": {
			"0%":  {0, 0},
			"15%": {44626, 0},
			"20%": {492301, 0},
		},
		"state_income": {
			"2%":    {0, 0},
			"3%":    {3001, 60},
			"5%":    {5001, 120},
			"5.75%": {17001, 720},
		},
		"federal_medicare": {
			"1.45%": {0, 0},
		},
		"federal_social-security": {
			"6.2%": {0, 0},
			"0%":   {147000, 9114},
		},
	})
	require.NoError(t, err)
	return table
}

func baseParams(t *testing.T) domain.SimulationParams {
	t.Helper()
	return domain.SimulationParams{
		StartCash:            100000,
		Years:                1,
		Income:               90000,
		Expenses:             domain.Expenses{Total: 0},
		TaxTable:             singleFlatTable(t),
		InvestFactor:         0.25,
		AvgGrowth:            1.0,
		DividendGrowth:       0.04,
		UseAvgGrowth:         true,
		Strategy:             "NoInvest",
		CashBaseAmt:          75000,
		CashCeiling:          75000,
		RaiseFactor:          1,
		CashInjectionYear:    -1,
		CheckNegative:        true,
		RetirementUsage:      0.04,
		RetirementIncomeGoal: 1e9,
		Seed:                 42,
	}
}
