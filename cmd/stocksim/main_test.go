package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpgo/stocksim/internal/domain"
	"github.com/rpgo/stocksim/internal/output"
)

const testConfig = `
years: 3
income: 90000
start_cash: 20000
taxes: virginia_us_tax_rates_single_flat
house_loan: false
strategy: Basic
invest_factor: 0.5
std_dev: 0.1
seed: 7
workers: 2
sweep:
  x: {name: income, min: 80000, max: 90000, increment: 10000}
  y: {name: invest_factor, min: 0.25, max: 0.5, increment: 0.25}
trials:
  count: 4
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func lines(s string) []string { return strings.Split(strings.TrimSpace(s), "\n") }

func TestTablesCommand(t *testing.T) {
	out, err := execute(t, "tables")
	require.NoError(t, err)
	assert.Contains(t, lines(out), "andorra_tax_rates_flat")
	assert.Contains(t, lines(out), "virginia_us_tax_rates_single_flat")

	out, err = execute(t, "tables", "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "  federal_income:")

	out, err = execute(t, "tables", "--income", "90000")
	require.NoError(t, err)
	assert.Contains(t, out, "  federal_income: 22%")
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, "run", "-c", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "SINGLE RUN RESULT")
	assert.Contains(t, out, "Strategy: Basic")
}

func TestTimelineCommandDefaultsToCSV(t *testing.T) {
	out, err := execute(t, "timeline", "-c", writeConfig(t))
	require.NoError(t, err)
	rows := lines(out)
	assert.Equal(t, "week,assets,cash", rows[0])
	assert.Len(t, rows, 1+3*52+1)
	assert.True(t, strings.HasPrefix(rows[1], "0,0.00,0.00"))
}

func TestSweepCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "sweep", "-c", cfg, "-f", "grid-csv")
	require.NoError(t, err)
	rows := lines(out)
	require.Len(t, rows, 5)
	assert.True(t, strings.HasPrefix(rows[0], "income,invest_factor,net,cash"))
	assert.True(t, strings.HasPrefix(rows[1], "80000,0.25,"))

	out, err = execute(t, "sweep", "-c", cfg, "-f", "grid-csv", "--x", "years:2:4:1")
	require.NoError(t, err)
	rows = lines(out)
	assert.Len(t, rows, 1+3*2)
	assert.True(t, strings.HasPrefix(rows[0], "years,invest_factor"))
}

func TestSweepCommandNeedsDimensions(t *testing.T) {
	_, err := execute(t, "sweep")
	assert.ErrorContains(t, err, "two dimensions")

	_, err = execute(t, "sweep", "--x", "income:1:2")
	assert.ErrorIs(t, err, domain.ErrInvalidDimension)
}

func TestTrialsCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "trials", "-c", cfg, "-f", "trials-csv")
	require.NoError(t, err)
	rows := lines(out)
	assert.Equal(t, "trial,net_assets,cash", rows[0])
	assert.Len(t, rows, 1+4)

	out, err = execute(t, "trials", "-c", cfg, "-f", "trials-csv", "-n", "2", "--metric", "retirement_year")
	require.NoError(t, err)
	rows = lines(out)
	assert.Equal(t, "trial,retirement_year,cash", rows[0])
	assert.Len(t, rows, 1+2)
}

func TestMetricsAndOutputDir(t *testing.T) {
	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "stocksim.prom")

	out, err := execute(t, "trials", "-c", writeConfig(t), "-f", "json", "-o", dir, "--metrics-file", metricsPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `stocksim_runs_total{kind="trial",result="ok"} 4`)

	reports, err := filepath.Glob(filepath.Join(dir, "stocksim_json_*.json"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := execute(t, "run", "-c", writeConfig(t), "-f", "pdf")
	assert.ErrorIs(t, err, output.ErrUnsupportedFormat)
}

func TestParseDimension(t *testing.T) {
	d, err := parseDimension("cash_ceiling: 50000:100000:25000")
	require.NoError(t, err)
	assert.Equal(t, domain.Dimension{Name: "cash_ceiling", Min: 50000, Max: 100000, Increment: 25000}, d)

	for _, bad := range []string{"income", "income:a:2:1", "income:1:2"} {
		_, err := parseDimension(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidDimension, bad)
	}
}
