package params

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve_ResetsOnCountChange(t *testing.T) {
	s := New()

	loaded := s.Observe("THR_MIN", 1.0, 0, 3)
	assert.False(t, loaded)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Started())
	assert.False(t, s.Loaded())

	s.Observe("THR_MAX", 2.0, 2, 3)
	assert.False(t, s.Loaded())

	loaded = s.Observe("WPNAV_SPEED", 3.0, 1, 3)
	assert.True(t, loaded)
	assert.True(t, s.Loaded())
}

func TestObserve_CountChangeMidStreamResetsLoaded(t *testing.T) {
	s := New()
	s.Observe("A", 1, 0, 3)
	s.Observe("B", 2, 1, 3)
	s.Observe("C", 3, 2, 3)
	require.True(t, s.Loaded())

	loaded := s.Observe("A", 9, 0, 5)
	assert.False(t, loaded)
	assert.False(t, s.Loaded())
	assert.Equal(t, 5, s.Len())
}

func TestObserve_KeyedMappingAlwaysWins(t *testing.T) {
	s := New()
	s.Observe("THR_MIN", 1.0, 0, 1)
	s.Observe("THR_MIN", 2.0, 0, 1) // duplicate index, new value

	v, ok := s.Get("thr_min")
	require.True(t, ok)
	assert.Equal(t, float32(2.0), v)
}

func TestObserve_DuplicateIndexDoesNotResetWatchdog(t *testing.T) {
	s := New()
	s.Observe("A", 1, 0, 3)
	s.ArmWatchdog(time.Now().Add(-2 * time.Second))

	assert.True(t, s.NeedsWatchdog(time.Now()))
	s.Observe("A", 1, 0, 3) // same slot, already known
	assert.True(t, s.NeedsWatchdog(time.Now()))
}

func TestNeedsWatchdog_GapRecovery(t *testing.T) {
	s := New()
	s.Observe("P0", 1, 0, 3)
	s.Observe("P2", 3, 2, 3)

	assert.False(t, s.NeedsWatchdog(time.Now()))
	future := time.Now().Add(StartDuration + 10*time.Millisecond)
	assert.True(t, s.NeedsWatchdog(future))

	missing := s.MissingIndices()
	require.Len(t, missing, 1)
	assert.Equal(t, uint16(1), missing[0])

	s.ArmWatchdog(time.Now())
	assert.False(t, s.NeedsWatchdog(time.Now()))

	loaded := s.Observe("P1", 2, 1, 3)
	assert.True(t, loaded)
}

func TestNeedsWatchdog_NeverFiresWithoutGaps(t *testing.T) {
	s := New()
	s.Observe("P0", 1, 0, 3)
	s.Observe("P1", 2, 1, 3)
	s.Observe("P2", 3, 2, 3)

	future := time.Now().Add(10 * time.Second)
	assert.False(t, s.NeedsWatchdog(future))
}
