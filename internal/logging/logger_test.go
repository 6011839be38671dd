package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpgo/stocksim/internal/calculation"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "debug", want: "debug"},
		{input: "INFO", want: "info"},
		{input: "", want: "info"},
		{input: "warning", want: "warn"},
		{input: "Error", want: "error"},
		{input: "loud", want: "info", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, level.String())
		})
	}
}

func TestNewZapLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewZapLoggerTo(&buf, "info")
	require.NoError(t, err)

	var engineLogger calculation.Logger = logger
	engineLogger.Debugf("hidden %d", 1)
	engineLogger.Infof("batch %d/%d", 2, 5)
	engineLogger.Warnf("unknown strategy %q", "X")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "batch 2/5")
	assert.Contains(t, out, "WARN")

	_, err = NewZapLoggerTo(&buf, "verbose")
	assert.Error(t, err)
}
