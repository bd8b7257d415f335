package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFixedClockAlwaysReturnsSameInstant(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fixed{At: at}
	require.Equal(t, at, c.Now())
	require.Equal(t, c.Now(), c.Now())
}

func TestSystemClockAdvances(t *testing.T) {
	c := SystemClock{}
	first := c.Now()
	time.Sleep(time.Millisecond)
	second := c.Now()
	require.True(t, second.After(first) || second.Equal(first))
}
