package output

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rpgo/stocksim/internal/calculation"
	"github.com/rpgo/stocksim/internal/domain"
)

var (
	// ErrUnsupportedFormat is returned for a format name with no registered formatter.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrIncompleteReport is returned when a formatter needs a section the report lacks.
	ErrIncompleteReport = errors.New("report is missing required results")
)

// Report bundles whatever a command produced. Only the sections relevant to
// the command are set.
type Report struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Params      *domain.SimulationParams `json:"params,omitempty"`
	Run         *domain.SimulationResult `json:"run,omitempty"`
	Sweep       *domain.SweepResult      `json:"sweep,omitempty"`
	Candidates  []calculation.Candidate  `json:"candidates,omitempty"`
	Trials      *domain.TrialResult      `json:"trials,omitempty"`
}

// GenerateReport renders the report with the named formatter and writes it to w.
func GenerateReport(w io.Writer, report *Report, format string) error {
	f := GetFormatterByName(format)
	if f == nil {
		return fmt.Errorf("%w: %q. Try one of: %s (aliases: %s)", ErrUnsupportedFormat, format,
			strings.Join(AvailableFormatterNames(), ", "), strings.Join(AvailableFormatAliases(), ", "))
	}
	data, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Name(), err)
	}
	_, err = w.Write(data)
	return err
}
