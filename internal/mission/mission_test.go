package mission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload_GapFreeSequence(t *testing.T) {
	d := NewDownload()
	d.Fetch()
	d.SetCount(2)

	assert.Equal(t, uint16(0), d.NextSeq())

	accepted, next, needsNext, done := d.Append(Waypoint{Seq: 0})
	assert.True(t, accepted)
	assert.True(t, needsNext)
	assert.Equal(t, uint16(1), next)
	assert.False(t, done)

	// duplicate seq 0: discarded, no new request, list length unchanged.
	accepted, _, needsNext, _ = d.Append(Waypoint{Seq: 0})
	assert.False(t, accepted)
	assert.False(t, needsNext)
	require.Len(t, d.Waypoints(), 1)

	accepted, _, needsNext, done = d.Append(Waypoint{Seq: 1})
	assert.True(t, accepted)
	assert.False(t, needsNext)
	assert.True(t, done)
	assert.True(t, d.Loaded())
}

func TestDownload_OutOfOrderFutureDiscarded(t *testing.T) {
	d := NewDownload()
	d.Fetch()
	d.SetCount(3)

	accepted, _, _, _ := d.Append(Waypoint{Seq: 2})
	assert.False(t, accepted)
	assert.Empty(t, d.Waypoints())
}

func TestDownload_SetCurrentIdempotent(t *testing.T) {
	d := NewDownload()
	assert.Equal(t, int32(-1), d.CurrentSeq())
	d.SetCurrent(3)
	d.SetCurrent(3)
	assert.Equal(t, int32(3), d.CurrentSeq())
}

func TestUpload_AllAckedCompletes(t *testing.T) {
	u := NewUpload()
	done := u.Begin([]Waypoint{{Seq: 0}, {Seq: 1}})
	assert.True(t, u.InProgress())

	wp, ok := u.WaypointAt(0)
	require.True(t, ok)
	assert.Equal(t, uint16(0), wp.Seq)

	u.Ack(0)
	select {
	case <-done:
		t.Fatal("upload completed before all waypoints acked")
	default:
	}

	u.Ack(1)
	select {
	case <-done:
	default:
		t.Fatal("upload did not complete after all waypoints acked")
	}
	assert.False(t, u.InProgress())
}

func TestUpload_EmptyCompletesImmediately(t *testing.T) {
	u := NewUpload()
	done := u.Begin(nil)
	select {
	case <-done:
	default:
		t.Fatal("empty upload should complete immediately")
	}
}
