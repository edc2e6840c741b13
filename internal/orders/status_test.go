package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusCreated, StatusPending, true},
		{StatusCreated, StatusUnpaid, true},
		{StatusCreated, StatusDelivered, false},
		{StatusUnpaid, StatusPending, true},
		{StatusPending, StatusPending, true}, // re-entry after a crashed attempt
		{StatusPending, StatusDelivered, true},
		{StatusPending, StatusError, true},
		{StatusPending, StatusUnpaid, true},
		{StatusDelivered, StatusPending, false},
		{StatusError, StatusPending, false},
		{StatusDelivered, StatusError, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusError.Terminal())
	assert.False(t, StatusCreated.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusUnpaid.Terminal())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, StatusDelivered, Normalize("confirmed"))
	assert.Equal(t, StatusDelivered, Normalize("delivered"))
	assert.Equal(t, StatusPending, Normalize("pending"))
}
