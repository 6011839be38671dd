package calculation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rpgo/stocksim/pkg/dateutil"
)

// ErrInsufficientHistory is returned when a price series is too short for
// the requested number of simulated years.
var ErrInsufficientHistory = errors.New("insufficient price history")

// PricePoint is one trading day's close.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// PriceSeries is a date-ordered closing price history for one ticker.
type PriceSeries struct {
	Ticker string       `json:"ticker"`
	Points []PricePoint `json:"points"`
}

// First returns the earliest date in the series.
func (s *PriceSeries) First() time.Time { return s.Points[0].Date }

// Last returns the latest date in the series.
func (s *PriceSeries) Last() time.Time { return s.Points[len(s.Points)-1].Date }

// PriceSource supplies back-test price windows to the simulator.
type PriceSource interface {
	Range(ticker string, years int, start time.Time) ([]float64, error)
	PickStartDate(ticker string, years int, rng *rand.Rand) (time.Time, error)
}

// PriceProvider loads <ticker>.csv files with Date and Close columns from
// DataPath and caches them for the life of the provider. It is safe for
// concurrent use.
type PriceProvider struct {
	DataPath string

	mu     sync.Mutex
	series map[string]*PriceSeries
}

// NewPriceProvider creates a provider reading from dataPath.
func NewPriceProvider(dataPath string) *PriceProvider {
	return &PriceProvider{
		DataPath: dataPath,
		series:   make(map[string]*PriceSeries),
	}
}

// Load returns the cached series for ticker, reading it on first use.
func (pp *PriceProvider) Load(ticker string) (*PriceSeries, error) {
	pp.mu.Lock()
	defer pp.mu.Unlock()

	if s, ok := pp.series[ticker]; ok {
		return s, nil
	}
	path := filepath.Join(pp.DataPath, ticker+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price history %s: %w", path, err)
	}
	defer f.Close()

	s, err := readPriceCSV(ticker, f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	pp.series[ticker] = s
	return s, nil
}

func readPriceCSV(ticker string, r io.Reader) (*PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	dateCol, closeCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date":
			dateCol = i
		case "close":
			closeCol = i
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return nil, fmt.Errorf("invalid CSV format: expected Date and Close columns, got %v", header)
	}

	series := &PriceSeries{Ticker: ticker}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read data row: %w", err)
		}
		if len(record) <= dateCol || len(record) <= closeCol {
			continue // Skip malformed rows
		}
		date, err := dateutil.ParseDate(record[dateCol])
		if err != nil {
			continue
		}
		closePrice, err := decimal.NewFromString(strings.TrimSpace(record[closeCol]))
		if err != nil || !closePrice.IsPositive() {
			continue // Skip rows with invalid close
		}
		series.Points = append(series.Points, PricePoint{Date: date, Close: closePrice})
	}
	if len(series.Points) == 0 {
		return nil, fmt.Errorf("no valid price rows")
	}
	sort.SliceStable(series.Points, func(i, j int) bool {
		return series.Points[i].Date.Before(series.Points[j].Date)
	})
	return series, nil
}

// latestStart is the last start date that leaves room for years of data.
func latestStart(s *PriceSeries, years int) (time.Time, error) {
	latest := s.Last().Add(-dateutil.SimSpan(years))
	if latest.Before(s.First()) {
		return time.Time{}, fmt.Errorf("%w: %s covers %s to %s, need %d years",
			ErrInsufficientHistory, s.Ticker,
			s.First().Format("2006-01-02"), s.Last().Format("2006-01-02"), years)
	}
	return latest, nil
}

// Range returns the closing prices from start through start plus years of
// simulation span, as float64 for the weekly growth loop.
func (pp *PriceProvider) Range(ticker string, years int, start time.Time) ([]float64, error) {
	s, err := pp.Load(ticker)
	if err != nil {
		return nil, err
	}
	if _, err := latestStart(s, years); err != nil {
		return nil, err
	}
	end := start.Add(dateutil.SimSpan(years))
	var closes []float64
	for _, p := range s.Points {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		closes = append(closes, p.Close.InexactFloat64())
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("%w: %s has no prices after %s", ErrInsufficientHistory, ticker, start.Format("2006-01-02"))
	}
	return closes, nil
}

// PickStartDate draws a start date uniformly from the dates that leave room
// for years of data.
func (pp *PriceProvider) PickStartDate(ticker string, years int, rng *rand.Rand) (time.Time, error) {
	s, err := pp.Load(ticker)
	if err != nil {
		return time.Time{}, err
	}
	latest, err := latestStart(s, years)
	if err != nil {
		return time.Time{}, err
	}
	return dateutil.Between(s.First(), latest, rng.Float64()), nil
}
