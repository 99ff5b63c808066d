// internal/service/order/domain/status_test.go
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending:    {StatusConfirmed, StatusCancelled},
		StatusConfirmed:  {StatusProcessing, StatusCancelled},
		StatusProcessing: {StatusShipped, StatusCancelled},
		StatusShipped:    {StatusDelivered},
		StatusDelivered:  {},
		StatusCancelled:  {},
	}

	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			want := false
			for _, target := range allowed[from] {
				if target == to {
					want = true
				}
			}
			assert.Equalf(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransitionTo_NoSelfLoops(t *testing.T) {
	for _, s := range AllStatuses {
		assert.Falsef(t, s.CanTransitionTo(s), "self loop on %s must be rejected", s)
	}
}

func TestIsFinal(t *testing.T) {
	assert.True(t, StatusDelivered.IsFinal())
	assert.True(t, StatusCancelled.IsFinal())
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped} {
		assert.Falsef(t, s.IsFinal(), "%s is not final", s)
	}
}

func TestCanBeCancelled(t *testing.T) {
	assert.True(t, StatusPending.CanBeCancelled())
	assert.True(t, StatusConfirmed.CanBeCancelled())
	assert.True(t, StatusProcessing.CanBeCancelled())

	// 已发货的订单虽然不是终态，也不允许取消
	assert.False(t, StatusShipped.CanBeCancelled())
	assert.False(t, StatusDelivered.CanBeCancelled())
	assert.False(t, StatusCancelled.CanBeCancelled())
}

func TestParseStatus(t *testing.T) {
	for _, s := range AllStatuses {
		parsed, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("pending")
	assert.Error(t, err, "status parsing is case sensitive")
	_, err = ParseStatus("SHIPPED ")
	assert.Error(t, err)
	_, err = ParseStatus("")
	assert.Error(t, err)
}
