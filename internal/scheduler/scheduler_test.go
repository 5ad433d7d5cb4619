package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManual_AfterFunc(t *testing.T) {
	m := NewManual()

	var runs int
	cancel, err := m.AfterFunc(time.Second, func() { runs++ })
	require.NoError(t, err)
	assert.Equal(t, 1, m.Pending())
	assert.Equal(t, time.Second, m.LastDelay())

	assert.Equal(t, 1, m.Fire())
	assert.Equal(t, 1, runs)
	assert.Equal(t, 0, m.Pending())

	// cancelling after the job ran is harmless
	cancel()
	assert.Equal(t, 0, m.Fire())
}

func TestManual_CancelBeforeFire(t *testing.T) {
	m := NewManual()

	var runs int
	cancel, err := m.AfterFunc(time.Second, func() { runs++ })
	require.NoError(t, err)

	cancel()
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, 0, m.Fire())
	assert.Zero(t, runs)
}

func TestManual_RearmWhileFiring(t *testing.T) {
	m := NewManual()

	var runs int
	var rearm func()
	rearm = func() {
		runs++
		_, _ = m.AfterFunc(time.Second, rearm)
	}
	_, err := m.AfterFunc(time.Second, rearm)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Fire())
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, m.Pending(), "job armed during Fire waits for the next call")
}

func TestManual_Every(t *testing.T) {
	m := NewManual()

	var runs int
	cancel, err := m.Every(time.Minute, func() { runs++ })
	require.NoError(t, err)

	m.Tick()
	m.Tick()
	assert.Equal(t, 2, runs)

	cancel()
	m.Tick()
	assert.Equal(t, 2, runs)
}

func TestGocron_AfterFunc(t *testing.T) {
	g, err := NewGocron()
	require.NoError(t, err)
	g.Start()
	defer g.Stop()

	var fired atomic.Int32
	_, err = g.AfterFunc(50*time.Millisecond, func() { fired.Add(1) })
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestGocron_CancelAfterFunc(t *testing.T) {
	g, err := NewGocron()
	require.NoError(t, err)
	g.Start()
	defer g.Stop()

	var fired atomic.Int32
	cancel, err := g.AfterFunc(300*time.Millisecond, func() { fired.Add(1) })
	require.NoError(t, err)
	cancel()
	cancel()

	time.Sleep(500 * time.Millisecond)
	assert.Zero(t, fired.Load())
}
