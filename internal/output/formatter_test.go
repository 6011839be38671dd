package output

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpgo/stocksim/internal/calculation"
	"github.com/rpgo/stocksim/internal/domain"
)

func buildTestReport() *Report {
	x := domain.Dimension{Name: "income", Min: 50000, Max: 60000, Increment: 10000}
	y := domain.Dimension{Name: "invest_factor", Min: 0.25, Max: 0.5, Increment: 0.25}
	sweep := domain.NewSweepResult(x, y, []float64{50000, 60000}, []float64{0.25, 0.5})
	sweep.ID = "sweep-1"
	cells := [][]domain.SimulationResult{
		{{Cash: 1000, Stocks: 2000, RetirementYear: 12, MinCash: domain.MinCash{Value: 500}}, {Cash: 1500, Stocks: 2500, RetirementYear: domain.NeverRetired}},
		{{Cash: -100, Stocks: 3000, RetirementYear: 9, Negative: domain.NegativeFlags{Cash: true}}, {Cash: 2000, Stocks: 4000, RetirementYear: 10}},
	}
	for i := range cells {
		for j := range cells[i] {
			sweep.Place(i, j, &cells[i][j])
		}
	}
	sweep.MedianNet = 3500
	sweep.MedianCash = 1250

	params := domain.SimulationParams{StartCash: 10000, Income: 90000, Years: 2, Strategy: "NoInvest", Taxes: "virginia_us_tax_rates_single_flat"}
	return &Report{
		GeneratedAt: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Params:      &params,
		Run: &domain.SimulationResult{
			Income:         90000,
			Cash:           12345.678,
			Stocks:         1000,
			AssetSeries:    []float64{0, 100, 200},
			CashSeries:     []float64{0, 50},
			MinCash:        domain.MinCash{Value: 4000, Year: 1},
			RetirementYear: domain.NeverRetired,
		},
		Sweep:      sweep,
		Candidates: []calculation.Candidate{{X: 60000, Y: 0.5, RetirementYear: 10, Net: 6000, MinCash: 0}},
		Trials: &domain.TrialResult{
			ID:      "trials-1",
			Metric:  domain.TrialNetAssets,
			Values:  []float64{100, 200.5},
			Cash:    []float64{10, 20},
			Summary: domain.Summary{Median: 150.25, Count: 2},
		},
	}
}

func TestConsoleFormatter(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(buildTestReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content := string(out)
	for _, want := range []string{
		"Cash:            $12,345.68",
		"Net Assets:      $13,345.68",
		"Retirement Year: never",
		"Sweep ID: sweep-1",
		"Cells with negative balances: 1",
		" 1. income=60000 invest_factor=0.5 retire=10",
		"Median: $150.25",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, content)
		}
	}
}

func TestConsoleFormatterEmptyReport(t *testing.T) {
	_, err := ConsoleFormatter{}.Format(&Report{})
	if !errors.Is(err, ErrIncompleteReport) {
		t.Fatalf("expected ErrIncompleteReport, got %v", err)
	}
}

func TestGridCSVFormatterRowOrder(t *testing.T) {
	out, err := GridCSVFormatter{}.Format(buildTestReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header + 4 rows, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "income,invest_factor,net,cash") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[2] != "50000,0.5,4000.00,1500.00,0.00,0.00,-1,false,false" {
		t.Fatalf("unexpected row %q", lines[2])
	}
	if !strings.Contains(lines[3], ",true,false") {
		t.Fatalf("expected negative cash flag in %q", lines[3])
	}
}

func TestGridCSVFormatterTaxRatioColumn(t *testing.T) {
	r := buildTestReport()
	r.Sweep.TaxRatio = [][]float64{{0.5, 0.25}, {-0.1, 0.75}}
	out, err := GridCSVFormatter{}.Format(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if !strings.HasSuffix(lines[0], ",tax_ratio") || !strings.HasSuffix(lines[3], ",-0.1") {
		t.Fatalf("tax ratio column missing: %v", lines)
	}
}

func TestTrialAndTimelineCSV(t *testing.T) {
	r := buildTestReport()
	out, err := TrialCSVFormatter{}.Format(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(out); got != "trial,net_assets,cash\n0,100.00,10.00\n1,200.50,20.00\n" {
		t.Fatalf("unexpected trials csv %q", got)
	}

	out, err = TimelineCSVFormatter{}.Format(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(out); got != "week,assets,cash\n0,0.00,0.00\n1,100.00,50.00\n2,200.00,0.00\n" {
		t.Fatalf("unexpected timeline csv %q", got)
	}
}

func TestCSVFormattersRequireSections(t *testing.T) {
	for _, f := range []Formatter{GridCSVFormatter{}, TrialCSVFormatter{}, TimelineCSVFormatter{}} {
		if _, err := f.Format(&Report{}); !errors.Is(err, ErrIncompleteReport) {
			t.Fatalf("%s: expected ErrIncompleteReport, got %v", f.Name(), err)
		}
	}
}

func TestFormatterRegistry(t *testing.T) {
	names := AvailableFormatterNames()
	want := []string{"console", "grid-csv", "json", "timeline-csv", "trials-csv"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected formatter names %v", names)
	}
	if f := GetFormatterByName(" CSV "); f == nil || f.Name() != "grid-csv" {
		t.Fatalf("alias csv should resolve to grid-csv, got %v", f)
	}
	if GetFormatterByName("html") != nil {
		t.Fatalf("html should not be registered")
	}
}

func TestFormatterFunc(t *testing.T) {
	f := FormatterFunc{ID: "custom", F: func(r *Report) ([]byte, error) { return []byte(r.Trials.ID), nil }}
	out, err := f.Format(buildTestReport())
	if err != nil || string(out) != "trials-1" || f.Name() != "custom" {
		t.Fatalf("FormatterFunc = %q, %v", out, err)
	}
}

func TestWriteFormatted(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteFormatted(TrialCSVFormatter{}, buildTestReport(), dir)
	if err != nil {
		t.Fatalf("WriteFormatted error: %v", err)
	}
	if filepath.Base(path) != "stocksim_trials-csv_20240301_123000.csv" {
		t.Fatalf("unexpected file name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(string(data), "trial,") {
		t.Fatalf("unexpected content %q", data)
	}
}
