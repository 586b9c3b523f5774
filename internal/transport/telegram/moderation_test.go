package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRestrictDuration(t *testing.T) {
	tests := []struct {
		args     string
		expected time.Duration
	}{
		{"2 h", 2 * time.Hour},
		{"2 hours", 2 * time.Hour},
		{"30 m", 30 * time.Minute},
		{"30 minutes", 30 * time.Minute},
		{"45 s", 45 * time.Second},
		{"45 seconds", 45 * time.Second},
	}

	for _, tt := range tests {
		d, err := parseRestrictDuration(tt.args)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.expected, d, tt.args)
	}

	for _, args := range []string{"", "2", "2 d", "zero h", "0 h", "-5 m", "2 h extra"} {
		_, err := parseRestrictDuration(args)
		assert.Error(t, err, args)
	}
}
