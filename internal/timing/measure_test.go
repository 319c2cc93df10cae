package timing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seantiz/tempo/internal/timing"
)

func TestMeasure(t *testing.T) {
	d, err := timing.Measure(func() error {
		time.Sleep(20 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d, 20*time.Millisecond)
}

func TestMeasureKeepsError(t *testing.T) {
	boom := errors.New("boom")
	d, err := timing.Measure(func() error { return boom })
	assert.Same(t, boom, err)
	assert.GreaterOrEqual(t, d, time.Duration(0))
}

func TestTimingsAccumulate(t *testing.T) {
	tm := timing.NewTimings()

	require.NoError(t, tm.Time("setup", func() error {
		time.Sleep(5 * time.Millisecond)
		return nil
	}))
	require.NoError(t, tm.Time("setup", func() error {
		time.Sleep(5 * time.Millisecond)
		return nil
	}))
	err := tm.Time("run", func() error { return errors.New("failed") })
	assert.Error(t, err)

	setup, ok := tm.Get("setup")
	require.True(t, ok)
	assert.GreaterOrEqual(t, setup, 10*time.Millisecond)

	_, ok = tm.Get("run")
	assert.True(t, ok, "failed phases are still recorded")

	_, ok = tm.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"run", "setup"}, tm.Names())
}
