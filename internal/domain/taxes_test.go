package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRateLabel(t *testing.T) {
	testCases := []struct {
		label    string
		expected string
	}{
		{"5.75%", "0.0575"},
		{"10%", "0.1"},
		{" 0% ", "0"},
		{"37", "0.37"},
	}
	for _, tc := range testCases {
		got, err := ParseRateLabel(tc.label)
		require.NoError(t, err, tc.label)
		assert.True(t, decimal.RequireFromString(tc.expected).Equal(got), "%s parsed as %s", tc.label, got)
	}

	_, err := ParseRateLabel("ten%")
	assert.ErrorIs(t, err, ErrInvalidTaxTable)
}

func TestNewTaxRateTable(t *testing.T) {
	raw := map[string]map[string][]float64{
		"state_income": {
			"5.75%": {17000, 720},
			"2%":    {0, 0},
			"3%":    {3000, 60},
		},
		"federal_qualified_dividend": {
			"0%":  {0, 0},
			"15%": {40000, 0},
		},
	}
	table, err := NewTaxRateTable("test", raw)
	require.NoError(t, err)
	require.Len(t, table.Categories, 2)
	assert.Equal(t, "federal_qualified_dividend", table.Categories[0].Name)
	assert.True(t, table.Categories[0].IsDividend())

	state, ok := table.Category("state_income")
	require.True(t, ok)
	assert.False(t, state.IsDividend())
	assert.Equal(t, []string{"0", "3000", "17000"}, []string{
		state.Brackets[0].Threshold.String(), state.Brackets[1].Threshold.String(), state.Brackets[2].Threshold.String(),
	})

	b, ok := state.Bracket("5.75%")
	require.True(t, ok)
	assert.Equal(t, "0.0575", b.Rate.String())
	assert.Equal(t, "720", b.BaseTax.String())

	_, ok = table.Category("missing")
	assert.False(t, ok)
}

func TestNewTaxRateTableErrors(t *testing.T) {
	_, err := NewTaxRateTable("bad", map[string]map[string][]float64{"x": {"5%": {1}}})
	assert.ErrorIs(t, err, ErrInvalidTaxTable)

	_, err = NewTaxRateTable("bad", map[string]map[string][]float64{"x": {"abc": {0, 0}}})
	assert.ErrorIs(t, err, ErrInvalidTaxTable)
}

func TestTaxCategory_IsSocialSecurity(t *testing.T) {
	assert.True(t, TaxCategory{Name: "federal_social-security"}.IsSocialSecurity())
	assert.False(t, TaxCategory{Name: "federal_medicare"}.IsSocialSecurity())
}
