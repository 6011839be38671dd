package config

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/rpgo/stocksim/internal/domain"
)

//go:embed tax_tables.yaml
var embeddedTaxTables []byte

// ErrUnknownTaxTable is returned when a configuration names a table that is
// not in the registry.
var ErrUnknownTaxTable = errors.New("unknown tax table")

// TaxTables is a registry of named tax-rate tables.
type TaxTables map[string]*domain.TaxRateTable

// ParseTaxTables decodes a YAML document of name -> category -> label ->
// [threshold, base_tax].
func ParseTaxTables(data []byte) (TaxTables, error) {
	var raw map[string]map[string]map[string][]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tax tables: %w", err)
	}
	tables := make(TaxTables, len(raw))
	for name, categories := range raw {
		table, err := domain.NewTaxRateTable(name, categories)
		if err != nil {
			return nil, fmt.Errorf("tax table %s: %w", name, err)
		}
		tables[name] = table
	}
	return tables, nil
}

// DefaultTaxTables returns the built-in registry.
func DefaultTaxTables() (TaxTables, error) {
	return ParseTaxTables(embeddedTaxTables)
}

// Lookup returns the table registered under name.
func (t TaxTables) Lookup(name string) (*domain.TaxRateTable, error) {
	table, ok := t[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownTaxTable, name, t.Names())
	}
	return table, nil
}

// Names lists the registered table names in sorted order.
func (t TaxTables) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
