package output

import (
	"bytes"
	"fmt"

	"github.com/rpgo/stocksim/internal/domain"
	money "github.com/rpgo/stocksim/pkg/decimal"
)

// ConsoleFormatter prints a human-readable summary of every section present.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	if report.Run == nil && report.Sweep == nil && report.Trials == nil {
		return nil, fmt.Errorf("%w: nothing to print", ErrIncompleteReport)
	}
	var buf bytes.Buffer
	if p := report.Params; p != nil {
		fmt.Fprintln(&buf, "SIMULATION PARAMETERS")
		fmt.Fprintln(&buf, "================================")
		fmt.Fprintf(&buf, "Start Cash: %s  Income: %s  Years: %d\n", FormatCurrency(p.StartCash), FormatCurrency(p.Income), p.Years)
		fmt.Fprintf(&buf, "Monthly Expenses: %s  Strategy: %s  Taxes: %s\n", FormatCurrency(p.Expenses.Monthly()), p.Strategy, p.Taxes)
		fmt.Fprintf(&buf, "Dividend Yield: %s  Retirement Draw: %s  Growth Std Dev: %s\n",
			FormatPercentage(p.DividendGrowth), FormatPercentage(p.RetirementUsage), FormatPercentage(p.StdDev))
		fmt.Fprintln(&buf)
	}
	if r := report.Run; r != nil {
		writeRun(&buf, r)
	}
	if s := report.Sweep; s != nil {
		writeSweep(&buf, s)
		if len(report.Candidates) > 0 {
			fmt.Fprintln(&buf)
			fmt.Fprintf(&buf, "Best cells (%s, %s):\n", s.X.Name, s.Y.Name)
			for i, cand := range report.Candidates {
				fmt.Fprintf(&buf, "%2d. %s=%s %s=%s retire=%s net=%s min_cash=%s\n", i+1,
					s.X.Name, formatAxis(cand.X), s.Y.Name, formatAxis(cand.Y),
					FormatYear(cand.RetirementYear), FormatCurrency(cand.Net), FormatCurrency(cand.MinCash))
			}
		}
	}
	if t := report.Trials; t != nil {
		writeTrials(&buf, t)
	}
	return buf.Bytes(), nil
}

func writeRun(buf *bytes.Buffer, r *domain.SimulationResult) {
	fmt.Fprintln(buf, "SINGLE RUN RESULT")
	fmt.Fprintln(buf, "================================")
	fmt.Fprintf(buf, "Final Income:    %s\n", FormatCurrency(r.Income))
	fmt.Fprintf(buf, "Cash:            %s\n", FormatCurrency(r.Cash))
	fmt.Fprintf(buf, "Stocks:          %s\n", FormatCurrency(r.Stocks))
	fmt.Fprintf(buf, "Bonds:           %s\n", FormatCurrency(r.Bonds))
	net := money.NewMoney(r.Cash).Add(money.NewMoney(r.Stocks))
	fmt.Fprintf(buf, "Net Assets:      %s\n", net.Format())
	fmt.Fprintf(buf, "Passive Income:  %s\n", FormatCurrency(r.PassiveIncome))
	fmt.Fprintf(buf, "Dividend Tax:    %s\n", FormatCurrency(r.DividendTax))
	fmt.Fprintf(buf, "Min Cash:        %s (year %d)\n", FormatCurrency(r.MinCash.Value), r.MinCash.Year)
	fmt.Fprintf(buf, "Retirement Year: %s\n", FormatYear(r.RetirementYear))
	if r.Negative.Any() {
		fmt.Fprintf(buf, "WARNING: balance went negative (cash=%t, assets=%t)\n", r.Negative.Cash, r.Negative.Assets)
	}
}

func writeSweep(buf *bytes.Buffer, s *domain.SweepResult) {
	fmt.Fprintln(buf, "GRID SWEEP")
	fmt.Fprintln(buf, "================================")
	fmt.Fprintf(buf, "Sweep ID: %s\n", s.ID)
	fmt.Fprintf(buf, "%s: %d values, %s: %d values\n", s.X.Name, len(s.XValues), s.Y.Name, len(s.YValues))
	fmt.Fprintf(buf, "Median Net Assets: %s\n", FormatCurrency(s.MedianNet))
	if s.TaxRatio != nil {
		fmt.Fprintf(buf, "Median Cash/Tax Class: %s\n", formatFloat(s.MedianCash))
	} else {
		fmt.Fprintf(buf, "Median Cash: %s\n", FormatCurrency(s.MedianCash))
	}
	negative := 0
	for _, row := range s.Negative {
		for _, n := range row {
			if n.Any() {
				negative++
			}
		}
	}
	if negative > 0 {
		fmt.Fprintf(buf, "Cells with negative balances: %d\n", negative)
	}
}

func writeTrials(buf *bytes.Buffer, t *domain.TrialResult) {
	fmt.Fprintln(buf, "TRIALS")
	fmt.Fprintln(buf, "================================")
	fmt.Fprintf(buf, "Sweep ID: %s\n", t.ID)
	fmt.Fprintf(buf, "Trials: %d  Metric: %s\n", len(t.Values), t.Metric)
	sum := t.Summary
	show := FormatCurrency
	if t.Metric == domain.TrialRetirementYear {
		show = formatFloat
		fmt.Fprintf(buf, "Never retired: %d\n", t.NeverRetired)
	}
	fmt.Fprintf(buf, "Median: %s  P10: %s  P25: %s  P75: %s  P90: %s\n",
		show(sum.Median), show(sum.P10), show(sum.P25), show(sum.P75), show(sum.P90))
	fmt.Fprintf(buf, "Min: %s  Max: %s  (n=%d)\n", show(sum.Min), show(sum.Max), sum.Count)
	fmt.Fprintf(buf, "Median Cash: %s\n", FormatCurrency(t.MedianCash))
}
