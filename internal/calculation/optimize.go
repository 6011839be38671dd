package calculation

import (
	"sort"

	"github.com/rpgo/stocksim/internal/domain"
)

const (
	// DefaultMinCashThreshold is the lowest acceptable minimum cash balance.
	DefaultMinCashThreshold = 10000
	// DefaultCandidateLimit is the number of cells FindBest2D returns.
	DefaultCandidateLimit = 10
)

// Candidate is one sweep cell that retires without running cash too low.
type Candidate struct {
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	RetirementYear int     `json:"retirement_year"`
	Net            float64 `json:"net"`
	MinCash        float64 `json:"min_cash"`
}

// FindBest2D ranks the cells of a grid sweep that record a retirement year
// and keep minimum cash at or above threshold. Earlier retirement ranks
// first, then higher net assets. At most limit candidates are returned.
func FindBest2D(r *domain.SweepResult, threshold float64, limit int) []Candidate {
	var out []Candidate
	for i, x := range r.XValues {
		for j, y := range r.YValues {
			year := r.RetirementYear[i][j]
			if year == domain.NeverRetired || r.MinCash[i][j] < threshold {
				continue
			}
			out = append(out, Candidate{
				X:              x,
				Y:              y,
				RetirementYear: year,
				Net:            r.Net[i][j],
				MinCash:        r.MinCash[i][j],
			})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].RetirementYear != out[b].RetirementYear {
			return out[a].RetirementYear < out[b].RetirementYear
		}
		return out[a].Net > out[b].Net
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
