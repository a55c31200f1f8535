package mfa

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ms(v int64) time.Time { return time.UnixMilli(v) }

func TestMayNotAuthenticate(t *testing.T) {
	last := ms(1000)
	factor := 10 * time.Millisecond

	// 1000 + 10*2^2 = 1040
	require.True(t, MayNotAuthenticate(last, 3, factor, ms(1000)))
	require.True(t, MayNotAuthenticate(last, 3, factor, ms(1039)))
	require.False(t, MayNotAuthenticate(last, 3, factor, ms(1040)))
	require.False(t, MayNotAuthenticate(last, 3, factor, ms(5000)))
}

func TestMayNotAuthenticate_ZeroAttemptsNeverBlocks(t *testing.T) {
	require.False(t, MayNotAuthenticate(ms(1000), 0, time.Hour, ms(1000)))
}

func TestCalculateTimeout(t *testing.T) {
	f := 30 * time.Second
	require.Equal(t, time.Duration(0), CalculateTimeout(0, f))
	require.Equal(t, f, CalculateTimeout(1, f))
	require.Equal(t, 2*f, CalculateTimeout(2, f))
	require.Equal(t, 8*f, CalculateTimeout(4, f))

	// exponente saturado, sin overflow
	require.Equal(t, time.Duration(math.MaxInt64), CalculateTimeout(1_000_000, f))
	require.Equal(t, time.Millisecond<<30, CalculateTimeout(1_000_000, time.Millisecond))
}
