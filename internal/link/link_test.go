package link

import (
	"testing"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightpath-dev/mavgcs/internal/attrs"
	"github.com/flightpath-dev/mavgcs/internal/mission"
)

// fakeConn is a wireConn test double: Events() is a channel the test
// controls directly, and WriteMessageAll records everything sent so
// tests can assert on the link manager's outbound behavior without a
// real socket.
type fakeConn struct {
	events  chan gomavlib.Event
	written []ardupilotmega.Message
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan gomavlib.Event, 16)}
}

func (f *fakeConn) Address() string { return "fake:0" }
func (f *fakeConn) Events() chan gomavlib.Event {
	return f.events
}
func (f *fakeConn) WriteMessageAll(msg ardupilotmega.Message) error {
	f.written = append(f.written, msg)
	return nil
}
func (f *fakeConn) Close()         {}
func (f *fakeConn) Reopen() error { return nil }

func newTestLink() *Link {
	return New(newFakeConn(), nil, nil, nil, 0)
}

func drainOutboundToSlice(l *Link) []ardupilotmega.Message {
	var out []ardupilotmega.Message
	for {
		select {
		case msg := <-l.outbound:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestDispatch_ParamGapRecovery(t *testing.T) {
	l := newTestLink()

	l.dispatch(&ardupilotmega.MessageParamValue{
		ParamId: paramIDArray("P0"), ParamValue: 1, ParamIndex: 0, ParamCount: 3,
	}, 1, 1)
	l.dispatch(&ardupilotmega.MessageParamValue{
		ParamId: paramIDArray("P2"), ParamValue: 3, ParamIndex: 2, ParamCount: 3,
	}, 1, 1)

	assert.False(t, l.params.NeedsWatchdog(time.Now()))
	future := time.Now().Add(250 * time.Millisecond)
	require.True(t, l.params.NeedsWatchdog(future))

	missing := l.params.MissingIndices()
	require.Len(t, missing, 1)
	assert.Equal(t, uint16(1), missing[0])

	l.dispatch(&ardupilotmega.MessageParamValue{
		ParamId: paramIDArray("P1"), ParamValue: 2, ParamIndex: 1, ParamCount: 3,
	}, 1, 1)
	assert.True(t, l.params.Loaded())
}

func TestDispatch_MissionDownload(t *testing.T) {
	l := newTestLink()

	l.dispatch(&ardupilotmega.MessageMissionCount{Count: 2}, 1, 1)
	out := drainOutboundToSlice(l)
	require.Len(t, out, 1)
	req, ok := out[0].(*ardupilotmega.MessageMissionRequest)
	require.True(t, ok)
	assert.Equal(t, uint16(0), req.Seq)

	l.dispatch(&ardupilotmega.MessageMissionItem{Seq: 0}, 1, 1)
	out = drainOutboundToSlice(l)
	require.Len(t, out, 1)
	req, ok = out[0].(*ardupilotmega.MessageMissionRequest)
	require.True(t, ok)
	assert.Equal(t, uint16(1), req.Seq)

	// duplicate seq 0: no new request, list length unchanged.
	l.dispatch(&ardupilotmega.MessageMissionItem{Seq: 0}, 1, 1)
	assert.Empty(t, drainOutboundToSlice(l))
	assert.Len(t, l.download.Waypoints(), 1)

	l.dispatch(&ardupilotmega.MessageMissionItem{Seq: 1}, 1, 1)
	assert.Empty(t, drainOutboundToSlice(l))
	assert.True(t, l.download.Loaded())
}

func TestSendAllWaypoints_RequestsThenCompletes(t *testing.T) {
	l := newTestLink()
	l.dispatch(&ardupilotmega.MessageHeartbeat{}, 1, 1) // learns target_system=1

	waypoints := []waypointFixture{{seq: 0}, {seq: 1}}
	doneCh := make(chan error, 1)
	go func() {
		doneCh <- l.SendAllWaypoints(toWaypoints(waypoints), 2*time.Second)
	}()

	// Give the goroutine a chance to enqueue CLEAR_ALL + COUNT.
	time.Sleep(20 * time.Millisecond)
	out := drainOutboundToSlice(l)
	require.Len(t, out, 2)
	_, ok := out[0].(*ardupilotmega.MessageMissionClearAll)
	assert.True(t, ok)
	count, ok := out[1].(*ardupilotmega.MessageMissionCount)
	require.True(t, ok)
	assert.Equal(t, uint16(2), count.Count)

	l.dispatch(&ardupilotmega.MessageMissionRequest{Seq: 0}, 1, 1)
	out = drainOutboundToSlice(l)
	require.Len(t, out, 1)
	wp0, ok := out[0].(*ardupilotmega.MessageMissionItem)
	require.True(t, ok)
	assert.Equal(t, uint16(0), wp0.Seq)
	assert.Equal(t, uint8(1), wp0.TargetSystem)

	l.dispatch(&ardupilotmega.MessageMissionRequest{Seq: 1}, 1, 1)
	drainOutboundToSlice(l)

	select {
	case err := <-doneCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("upload did not complete")
	}
}

func TestDispatch_EKFPredicate(t *testing.T) {
	l := newTestLink()

	// disarmed, PRED_POS_HORIZ_ABS only -> ok
	l.dispatch(&ardupilotmega.MessageHeartbeat{BaseMode: 0}, 1, 1)
	l.dispatch(&ardupilotmega.MessageEkfStatusReport{
		Flags: ardupilotmega.EKF_PRED_POS_HORIZ_ABS,
	}, 1, 1)
	ok, _ := l.attrs.Snapshot(attrs.EKFOk)
	assert.Equal(t, true, ok)

	// armed, ABS | CONST_POS_MODE -> not ok
	l.dispatch(&ardupilotmega.MessageHeartbeat{
		BaseMode: ardupilotmega.MAV_MODE_FLAG_SAFETY_ARMED,
	}, 1, 1)
	l.dispatch(&ardupilotmega.MessageEkfStatusReport{
		Flags: ardupilotmega.EKF_POS_HORIZ_ABS | ardupilotmega.EKF_CONST_POS_MODE,
	}, 1, 1)
	ok, _ = l.attrs.Snapshot(attrs.EKFOk)
	assert.Equal(t, false, ok)
}

func TestRCChannelKeyFormula(t *testing.T) {
	l := newTestLink()
	l.dispatch(&ardupilotmega.MessageRcChannelsRaw{
		Port: 0, Chan1Raw: 1500, Chan2Raw: 1600,
	}, 1, 1)

	v, ok := l.attrs.Snapshot(attrs.RC)
	require.True(t, ok)
	rc := v.(map[string]uint16)
	assert.Equal(t, uint16(1500), rc["1"])
	assert.Equal(t, uint16(1600), rc["2"])
}

func TestRunHeartbeatWatchdog_FiresAfterTimeout(t *testing.T) {
	var lines []string
	l := New(newFakeConn(), nil, func(s string) { lines = append(lines, s) }, nil, 0)
	l.dispatch(&ardupilotmega.MessageHeartbeat{}, 1, 1)

	l.stateMu.Lock()
	base := l.lastHeartbeatRX
	l.stateMu.Unlock()

	// Still within the timeout: no warning, clock untouched.
	l.runHeartbeatWatchdog(base.Add(heartbeatTimeout - time.Millisecond))
	assert.Empty(t, lines)

	// Past the timeout: fires once and resets the clock to now.
	fireAt := base.Add(heartbeatTimeout + time.Millisecond)
	l.runHeartbeatWatchdog(fireAt)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "heartbeat")

	l.stateMu.Lock()
	reset := l.lastHeartbeatRX
	l.stateMu.Unlock()
	assert.Equal(t, fireAt, reset)

	// Right after the reset it shouldn't fire again.
	l.runHeartbeatWatchdog(fireAt.Add(time.Millisecond))
	assert.Len(t, lines, 1)
}

// waypointFixture/toWaypoints keep the SendAllWaypoints test terse.
type waypointFixture struct{ seq uint16 }

func toWaypoints(fixtures []waypointFixture) []mission.Waypoint {
	out := make([]mission.Waypoint, len(fixtures))
	for i, f := range fixtures {
		out[i] = mission.Waypoint{Seq: f.seq}
	}
	return out
}
