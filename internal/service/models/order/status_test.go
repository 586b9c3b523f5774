package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, v := range []string{"pending", "fulfilled", "cancelled"} {
		status, err := ParseStatus(v)
		require.NoError(t, err)
		assert.Equal(t, v, status.String())
	}

	_, err := ParseStatus("shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = ParseStatus("")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusFulfilled, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPending, false},
		{StatusFulfilled, StatusCancelled, false},
		{StatusFulfilled, StatusPending, false},
		{StatusFulfilled, StatusFulfilled, false},
		{StatusCancelled, StatusFulfilled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCancelled, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusFulfilled.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestStatusValue(t *testing.T) {
	v, err := StatusPending.Value()
	require.NoError(t, err)
	assert.Equal(t, "pending", v)
}
