package calculation

import (
	"math"
	"sort"

	"github.com/rpgo/stocksim/internal/domain"
)

// Median returns the middle value, averaging the two central values for
// even-length input. It returns 0 for empty input.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// Percentile returns the p-th percentile (0-100) using linear interpolation
// between closest ranks. The input is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		return sorted[0]
	}
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Summarize computes the distribution summary of values.
func Summarize(values []float64) domain.Summary {
	if len(values) == 0 {
		return domain.Summary{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return domain.Summary{
		Median: percentileSorted(sorted, 50),
		P10:    percentileSorted(sorted, 10),
		P25:    percentileSorted(sorted, 25),
		P75:    percentileSorted(sorted, 75),
		P90:    percentileSorted(sorted, 90),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Count:  len(sorted),
	}
}

func flatten(grid [][]float64) []float64 {
	var out []float64
	for _, row := range grid {
		out = append(out, row...)
	}
	return out
}
