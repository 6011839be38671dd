package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownParameter is returned when a sweep names an option that cannot be overridden.
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrInvalidDimension is returned for sweep dimensions with an empty or unbounded range.
	ErrInvalidDimension = errors.New("invalid sweep dimension")
	// ErrInvalidTaxTable is returned when a raw tax table cannot be parsed.
	ErrInvalidTaxTable = errors.New("invalid tax table")
)

// TaxBracket is one rate of a progressive schedule: the rate applies to
// income above Threshold, on top of BaseTax owed at the threshold.
type TaxBracket struct {
	Label     string          `json:"label"`
	Rate      decimal.Decimal `json:"rate"`
	Threshold decimal.Decimal `json:"threshold"`
	BaseTax   decimal.Decimal `json:"base_tax"`
}

// TaxCategory is an independently evaluated schedule such as "federal_income".
type TaxCategory struct {
	Name     string       `json:"name"`
	Brackets []TaxBracket `json:"brackets"`
}

// IsDividend reports whether the category taxes dividends instead of income.
func (c TaxCategory) IsDividend() bool { return strings.Contains(c.Name, "dividend") }

// IsSocialSecurity reports whether the category is subject to the wage-base cap.
func (c TaxCategory) IsSocialSecurity() bool { return strings.Contains(c.Name, "social-security") }

// Bracket returns the bracket with the given label.
func (c TaxCategory) Bracket(label string) (TaxBracket, bool) {
	for _, b := range c.Brackets {
		if b.Label == label {
			return b, true
		}
	}
	return TaxBracket{}, false
}

// TaxRateTable is an immutable set of tax categories.
type TaxRateTable struct {
	Name       string        `json:"name"`
	Categories []TaxCategory `json:"categories"`
}

// Category looks up a category by name.
func (t *TaxRateTable) Category(name string) (TaxCategory, bool) {
	for _, c := range t.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return TaxCategory{}, false
}

// ParseRateLabel converts a percentage label such as "5.75%" into 0.0575.
func ParseRateLabel(label string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), "%"))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: rate label %q: %v", ErrInvalidTaxTable, label, err)
	}
	return d.Div(decimal.NewFromInt(100)), nil
}

// NewTaxRateTable builds a table from the raw category -> label -> [threshold, base]
// form used by configuration files. Categories are sorted by name and brackets
// by ascending threshold.
func NewTaxRateTable(name string, raw map[string]map[string][]float64) (*TaxRateTable, error) {
	table := &TaxRateTable{Name: name}
	for catName, rates := range raw {
		cat := TaxCategory{Name: catName}
		for label, pair := range rates {
			if len(pair) != 2 {
				return nil, fmt.Errorf("%w: %s/%s: expected [threshold, base_tax], got %v", ErrInvalidTaxTable, catName, label, pair)
			}
			rate, err := ParseRateLabel(label)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", catName, err)
			}
			cat.Brackets = append(cat.Brackets, TaxBracket{
				Label:     label,
				Rate:      rate,
				Threshold: decimal.NewFromFloat(pair[0]),
				BaseTax:   decimal.NewFromFloat(pair[1]),
			})
		}
		sort.SliceStable(cat.Brackets, func(i, j int) bool {
			if c := cat.Brackets[i].Threshold.Cmp(cat.Brackets[j].Threshold); c != 0 {
				return c < 0
			}
			return cat.Brackets[i].Label < cat.Brackets[j].Label
		})
		table.Categories = append(table.Categories, cat)
	}
	sort.Slice(table.Categories, func(i, j int) bool {
		return table.Categories[i].Name < table.Categories[j].Name
	})
	return table, nil
}
