package throttle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckBlockLimit(t *testing.T) {
	ct := NewThrottler(3, 10)
	defer ct.Stop()

	for i := 0; i < 3; i++ {
		require.True(t, ct.CheckBlock("1.2.3.4"))
	}
	require.False(t, ct.CheckBlock("1.2.3.4"))
	// A different IP has its own budget.
	require.True(t, ct.CheckBlock("5.6.7.8"))
}

func TestCheckBlockDisabledWhenNonPositive(t *testing.T) {
	ct := NewThrottler(0, 10)
	defer ct.Stop()
	for i := 0; i < 100; i++ {
		require.True(t, ct.CheckBlock("1.2.3.4"))
	}
}
