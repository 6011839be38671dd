package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/rpgo/stocksim/internal/domain"
)

// GridCSVFormatter writes one row per sweep cell.
type GridCSVFormatter struct{}

func (g GridCSVFormatter) Name() string { return "grid-csv" }

func (g GridCSVFormatter) Format(report *Report) ([]byte, error) {
	s := report.Sweep
	if s == nil {
		return nil, fmt.Errorf("%w: no sweep", ErrIncompleteReport)
	}
	header := []string{s.X.Name, s.Y.Name, "net", "cash", "dividend_tax", "min_cash", "retirement_year", "cash_negative", "assets_negative"}
	if s.TaxRatio != nil {
		header = append(header, "tax_ratio")
	}
	return writeCSV(header, func(w *csv.Writer) error {
		for i, x := range s.XValues {
			for j, y := range s.YValues {
				row := []string{
					formatAxis(x),
					formatAxis(y),
					formatFloat(s.Net[i][j]),
					formatFloat(s.Cash[i][j]),
					formatFloat(s.DividendTax[i][j]),
					formatFloat(s.MinCash[i][j]),
					strconv.Itoa(s.RetirementYear[i][j]),
					strconv.FormatBool(s.Negative[i][j].Cash),
					strconv.FormatBool(s.Negative[i][j].Assets),
				}
				if s.TaxRatio != nil {
					row = append(row, formatAxis(s.TaxRatio[i][j]))
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// TrialCSVFormatter writes one row per trial in completion order.
type TrialCSVFormatter struct{}

func (t TrialCSVFormatter) Name() string { return "trials-csv" }

func (t TrialCSVFormatter) Format(report *Report) ([]byte, error) {
	tr := report.Trials
	if tr == nil {
		return nil, fmt.Errorf("%w: no trials", ErrIncompleteReport)
	}
	value := formatFloat
	if tr.Metric == domain.TrialRetirementYear {
		value = formatAxis
	}
	return writeCSV([]string{"trial", string(tr.Metric), "cash"}, func(w *csv.Writer) error {
		for i, v := range tr.Values {
			if err := w.Write([]string{strconv.Itoa(i), value(v), formatFloat(tr.Cash[i])}); err != nil {
				return err
			}
		}
		return nil
	})
}

// TimelineCSVFormatter writes the weekly asset and cash snapshots of a run.
type TimelineCSVFormatter struct{}

func (t TimelineCSVFormatter) Name() string { return "timeline-csv" }

func (t TimelineCSVFormatter) Format(report *Report) ([]byte, error) {
	r := report.Run
	if r == nil || len(r.AssetSeries) == 0 {
		return nil, fmt.Errorf("%w: no timeline recorded", ErrIncompleteReport)
	}
	return writeCSV([]string{"week", "assets", "cash"}, func(w *csv.Writer) error {
		for i, assets := range r.AssetSeries {
			var cash float64
			if i < len(r.CashSeries) {
				cash = r.CashSeries[i]
			}
			if err := w.Write([]string{strconv.Itoa(i), formatFloat(assets), formatFloat(cash)}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(header []string, rows func(*csv.Writer) error) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := rows(w); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
