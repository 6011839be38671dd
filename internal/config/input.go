package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/rpgo/stocksim/internal/calculation"
	"github.com/rpgo/stocksim/internal/domain"
)

// Configuration is the top-level layout of a simulation file: run options
// at the root plus optional sweep and trial sections.
type Configuration struct {
	domain.SimulationParams `yaml:",inline"`

	Sweep  *SweepConfig  `yaml:"sweep,omitempty" json:"sweep,omitempty"`
	Trials *TrialsConfig `yaml:"trials,omitempty" json:"trials,omitempty"`
}

// SweepConfig describes a two-parameter grid sweep.
type SweepConfig struct {
	X domain.Dimension `yaml:"x" json:"x"`
	Y domain.Dimension `yaml:"y" json:"y"`
	// MinCashThreshold and Top drive the ranked candidate list.
	MinCashThreshold float64 `yaml:"min_cash_threshold" json:"min_cash_threshold"`
	Top              int     `yaml:"top" json:"top"`
}

// TrialsConfig describes a repeated stochastic sweep.
type TrialsConfig struct {
	Count  int                `yaml:"count" json:"count"`
	Metric domain.TrialMetric `yaml:"metric" json:"metric"`
}

// InputParser handles parsing of input configuration files
type InputParser struct {
	Tables TaxTables
	Logger calculation.Logger
}

// NewInputParser creates a parser backed by the built-in tax tables.
func NewInputParser() (*InputParser, error) {
	tables, err := DefaultTaxTables()
	if err != nil {
		return nil, err
	}
	return &InputParser{Tables: tables, Logger: calculation.NopLogger{}}, nil
}

// DefaultParams returns the baseline run options; file values override them.
func DefaultParams() domain.SimulationParams {
	return domain.SimulationParams{
		StartCash: 0,
		Years:     25,
		Income:    90000,
		Expenses: domain.Expenses{Items: map[string]float64{
			"monthly_bills":  600,
			"groceries":      500,
			"transportation": 200,
			"other-goods":    1500,
			"insurance":      380,
			"property_taxes": 600,
		}},
		Taxes:                "virginia_us_tax_rates_married_flat",
		InvestFactor:         0.5,
		AvgGrowth:            1.07,
		DividendGrowth:       0.02,
		HouseLoan:            true,
		HouseCost:            600000,
		MortgageInterestRate: 0.06,
		YearLoanStart:        10,
		DownPayFraction:      0.03,
		LoanLength:           15,
		StdDev:               0.15,
		Strategy:             "SafeNWCashFraction",
		CashBaseFactor:       0.125,
		CashBaseAmt:          75000,
		CashCeiling:          150000,
		DisplayTaxRatio:      true,
		CashFloor:            25000,
		RaiseFactor:          1.03,
		CashInjectionYear:    -1,
		CheckNegative:        true,
		RetirementUsage:      0.05,
		RetirementIncomeGoal: 100000,
		BacktestTicker:       "SPY",
		StartDate:            "random",
		PriceDataDir:         "data/prices",
	}
}

// LoadFromFile loads configuration from a YAML, JSON or TOML file, chosen
// by extension, and resolves its tax table.
func (ip *InputParser) LoadFromFile(filename string) (*Configuration, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."))
}

// Parse decodes data in the given format ("yaml", "yml", "json" or "toml")
// over DefaultParams, then validates it.
func (ip *InputParser) Parse(data []byte, format string) (*Configuration, error) {
	config := &Configuration{SimulationParams: DefaultParams()}

	switch format {
	case "yaml", "yml", "":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case "toml":
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
		bridged, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert TOML: %w", err)
		}
		if err := json.Unmarshal(bridged, config); err != nil {
			return nil, fmt.Errorf("failed to decode TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration format %q", format)
	}

	if err := ip.ValidateConfiguration(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// ValidateConfiguration checks the run options and any sweep sections, and
// resolves the tax table onto config.TaxTable.
func (ip *InputParser) ValidateConfiguration(config *Configuration) error {
	if err := ip.validateParams(&config.SimulationParams); err != nil {
		return err
	}
	if err := ip.ResolveTaxTable(&config.SimulationParams); err != nil {
		return err
	}

	if s := config.Sweep; s != nil {
		for _, dim := range []domain.Dimension{s.X, s.Y} {
			values, err := dim.Values()
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			check := config.SimulationParams.Clone()
			if err := check.SetParam(dim.Name, values[0]); err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
		}
		if s.MinCashThreshold == 0 {
			s.MinCashThreshold = calculation.DefaultMinCashThreshold
		}
		if s.Top <= 0 {
			s.Top = calculation.DefaultCandidateLimit
		}
	}

	if tr := config.Trials; tr != nil {
		if tr.Count <= 0 {
			return fmt.Errorf("trials: count must be positive")
		}
		switch tr.Metric {
		case "":
			tr.Metric = domain.TrialNetAssets
		case domain.TrialNetAssets, domain.TrialRetirementYear:
		default:
			return fmt.Errorf("trials: metric must be %q or %q", domain.TrialNetAssets, domain.TrialRetirementYear)
		}
	}
	return nil
}

func (ip *InputParser) validateParams(p *domain.SimulationParams) error {
	if p.Years <= 0 {
		return fmt.Errorf("years must be positive")
	}
	if p.Income <= 0 {
		return fmt.Errorf("income: %w", calculation.ErrInvalidIncome)
	}
	if p.StdDev < 0 {
		return fmt.Errorf("std_dev cannot be negative")
	}
	if p.Expenses.Monthly() < 0 {
		return fmt.Errorf("expenses cannot be negative")
	}
	if p.HouseLoan && p.LoanLength <= 0 {
		return fmt.Errorf("loan_length must be positive when house_loan is enabled")
	}
	if p.Promotion.Enabled && len(p.Promotion.Years) != len(p.Promotion.Salaries) {
		return fmt.Errorf("promotion: %d years but %d salaries", len(p.Promotion.Years), len(p.Promotion.Salaries))
	}
	if p.Backtest && p.BacktestTicker == "" {
		return fmt.Errorf("backtest_ticker is required when backtest is enabled")
	}
	if p.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	if _, ok := calculation.ParseStrategy(p.Strategy); !ok {
		ip.logger().Warnf("unknown strategy %q, no cash will be invested", p.Strategy)
	}
	return nil
}

// ResolveTaxTable sets p.TaxTable from the inline table when present,
// otherwise from the registry entry named by p.Taxes.
func (ip *InputParser) ResolveTaxTable(p *domain.SimulationParams) error {
	if len(p.TaxTableInline) > 0 {
		table, err := domain.NewTaxRateTable("inline", p.TaxTableInline)
		if err != nil {
			return fmt.Errorf("tax_table: %w", err)
		}
		p.TaxTable = table
		return nil
	}
	table, err := ip.Tables.Lookup(p.Taxes)
	if err != nil {
		return fmt.Errorf("taxes: %w", err)
	}
	p.TaxTable = table
	return nil
}

func (ip *InputParser) logger() calculation.Logger {
	if ip.Logger == nil {
		return calculation.NopLogger{}
	}
	return ip.Logger
}
