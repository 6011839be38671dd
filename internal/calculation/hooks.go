package calculation

import "time"

// Logger is the logging surface used by the simulation engine.
// *zap.SugaredLogger satisfies it.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

func orNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}

// Clock and seed sources, replaceable from tests.
var (
	nowFunc  = time.Now
	seedFunc = func() int64 { return time.Now().UnixNano() }
)

// SetNowFunc replaces the clock used to time runs and sweeps.
func SetNowFunc(f func() time.Time) { nowFunc = f }

// SetSeedFunc replaces the seed source used for runs configured with seed 0.
func SetSeedFunc(f func() int64) { seedFunc = f }

func baseSeed(configured int64) int64 {
	if configured != 0 {
		return configured
	}
	return seedFunc()
}
