package domain

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// SimulationParams is the full set of options recognised by a single run.
// Field tags follow the snake_case keys of the configuration file.
type SimulationParams struct {
	StartCash float64  `yaml:"start_cash" json:"start_cash"`
	Years     int      `yaml:"years" json:"years"`
	Income    float64  `yaml:"income" json:"income"`
	Expenses  Expenses `yaml:"expenses" json:"expenses"`

	// Taxes names an entry of the tax-rate registry. TaxTableInline, when
	// present, takes precedence and is parsed the same way as registry entries.
	Taxes          string                          `yaml:"taxes" json:"taxes"`
	TaxTableInline map[string]map[string][]float64 `yaml:"tax_table,omitempty" json:"tax_table,omitempty"`
	TaxTable       *TaxRateTable                   `yaml:"-" json:"-"`

	InvestFactor    float64 `yaml:"invest_factor" json:"invest_factor"`
	AvgGrowth       float64 `yaml:"avg_growth" json:"avg_growth"`
	DividendGrowth  float64 `yaml:"dividend_growth" json:"dividend_growth"`
	AnnualizedTaxes bool    `yaml:"annualized_taxes" json:"annualized_taxes"`
	PreTaxDividend  bool    `yaml:"pre_tax_dividend" json:"pre_tax_dividend"`

	HouseLoan            bool    `yaml:"house_loan" json:"house_loan"`
	HouseCost            float64 `yaml:"house_cost" json:"house_cost"`
	MortgageInterestRate float64 `yaml:"mortgage_interest_rate" json:"mortgage_interest_rate"`
	YearLoanStart        int     `yaml:"year_loan_start" json:"year_loan_start"`
	DownPayFraction      float64 `yaml:"down_pay_fraction" json:"down_pay_fraction"`
	LoanLength           int     `yaml:"loan_length" json:"loan_length"`

	UseAvgGrowth bool    `yaml:"use_avg_growth" json:"use_avg_growth"`
	StdDev       float64 `yaml:"std_dev" json:"std_dev"`

	Strategy        string  `yaml:"strategy" json:"strategy"`
	CashBaseFactor  float64 `yaml:"cash_base_factor" json:"cash_base_factor"`
	CashBaseAmt     float64 `yaml:"cash_base_amt" json:"cash_base_amt"`
	CashCeiling     float64 `yaml:"cash_ceiling" json:"cash_ceiling"`
	DisplayTaxRatio bool    `yaml:"display_tax_ratio" json:"display_tax_ratio"`
	CashFloor       float64 `yaml:"cash_floor" json:"cash_floor"`
	RaiseFactor     float64 `yaml:"raise_factor" json:"raise_factor"`

	CashInjectionYear int     `yaml:"cash_injection_year" json:"cash_injection_year"`
	CashInjectionAmt  float64 `yaml:"cash_injection_amt" json:"cash_injection_amt"`
	CheckNegative     bool    `yaml:"check_negative" json:"check_negative"`

	Promotion Promotion `yaml:"promotion" json:"promotion"`

	RetirementUsage      float64 `yaml:"retirement_usage" json:"retirement_usage"`
	RetirementIncomeGoal float64 `yaml:"retirement_income_goal" json:"retirement_income_goal"`

	Backtest       bool   `yaml:"backtest" json:"backtest"`
	BacktestTicker string `yaml:"backtest_ticker" json:"backtest_ticker"`
	StartDate      string `yaml:"start_date" json:"start_date"` // "random" or YYYY-MM-DD
	PriceDataDir   string `yaml:"price_data_dir" json:"price_data_dir"`

	Seed    int64 `yaml:"seed" json:"seed"`
	Workers int   `yaml:"workers" json:"workers"`
}

// Promotion schedules salary replacements at given simulation years.
type Promotion struct {
	Enabled  bool      `yaml:"enabled" json:"enabled"`
	Years    []int     `yaml:"years" json:"years"`
	Salaries []float64 `yaml:"salaries" json:"salaries"`
}

// SalaryFor returns the scheduled salary for year, if any.
func (p Promotion) SalaryFor(year int) (float64, bool) {
	if !p.Enabled {
		return 0, false
	}
	for i, y := range p.Years {
		if y == year && i < len(p.Salaries) {
			return p.Salaries[i], true
		}
	}
	return 0, false
}

// Expenses holds monthly expenses either itemised by category or as one total.
type Expenses struct {
	Items map[string]float64
	Total float64
}

// Monthly returns the total monthly expense.
func (e Expenses) Monthly() float64 {
	if e.Items == nil {
		return e.Total
	}
	var sum float64
	for _, v := range e.Items {
		sum += v
	}
	return sum
}

// Categories returns the expense category names in sorted order.
func (e Expenses) Categories() []string {
	keys := make([]string, 0, len(e.Items))
	for k := range e.Items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnmarshalYAML accepts either a mapping of category to amount or a scalar.
func (e *Expenses) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var total float64
		if err := value.Decode(&total); err != nil {
			return fmt.Errorf("expenses: %w", err)
		}
		*e = Expenses{Total: total}
		return nil
	case yaml.MappingNode:
		items := map[string]float64{}
		if err := value.Decode(&items); err != nil {
			return fmt.Errorf("expenses: %w", err)
		}
		*e = Expenses{Items: items}
		return nil
	default:
		return fmt.Errorf("expenses: expected mapping or number, got node kind %d", value.Kind)
	}
}

// MarshalYAML writes the itemised form when available.
func (e Expenses) MarshalYAML() (interface{}, error) {
	if e.Items != nil {
		return e.Items, nil
	}
	return e.Total, nil
}

// UnmarshalJSON accepts either an object of category to amount or a number.
func (e *Expenses) UnmarshalJSON(data []byte) error {
	var total float64
	if err := json.Unmarshal(data, &total); err == nil {
		*e = Expenses{Total: total}
		return nil
	}
	items := map[string]float64{}
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expenses: expected object or number: %w", err)
	}
	*e = Expenses{Items: items}
	return nil
}

// MarshalJSON writes the itemised form when available.
func (e Expenses) MarshalJSON() ([]byte, error) {
	if e.Items != nil {
		return json.Marshal(e.Items)
	}
	return json.Marshal(e.Total)
}

// Clone returns a deep copy. The resolved TaxTable is shared since it is
// never mutated after construction.
func (p SimulationParams) Clone() SimulationParams {
	c := p
	if p.Expenses.Items != nil {
		c.Expenses.Items = make(map[string]float64, len(p.Expenses.Items))
		for k, v := range p.Expenses.Items {
			c.Expenses.Items[k] = v
		}
	}
	c.Promotion.Years = append([]int(nil), p.Promotion.Years...)
	c.Promotion.Salaries = append([]float64(nil), p.Promotion.Salaries...)
	return c
}

// SetParam overrides a numeric option by its configuration key. Integer
// options are truncated.
func (p *SimulationParams) SetParam(name string, v float64) error {
	switch name {
	case "start_cash":
		p.StartCash = v
	case "years":
		p.Years = int(v)
	case "income":
		p.Income = v
	case "expenses":
		p.Expenses = Expenses{Total: v}
	case "invest_factor":
		p.InvestFactor = v
	case "avg_growth":
		p.AvgGrowth = v
	case "dividend_growth":
		p.DividendGrowth = v
	case "house_cost":
		p.HouseCost = v
	case "mortgage_interest_rate":
		p.MortgageInterestRate = v
	case "year_loan_start":
		p.YearLoanStart = int(v)
	case "down_pay_fraction":
		p.DownPayFraction = v
	case "loan_length":
		p.LoanLength = int(v)
	case "std_dev":
		p.StdDev = v
	case "cash_base_factor":
		p.CashBaseFactor = v
	case "cash_base_amt":
		p.CashBaseAmt = v
	case "cash_ceiling":
		p.CashCeiling = v
	case "cash_floor":
		p.CashFloor = v
	case "raise_factor":
		p.RaiseFactor = v
	case "cash_injection_year":
		p.CashInjectionYear = int(v)
	case "cash_injection_amt":
		p.CashInjectionAmt = v
	case "retirement_usage":
		p.RetirementUsage = v
	case "retirement_income_goal":
		p.RetirementIncomeGoal = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return nil
}
