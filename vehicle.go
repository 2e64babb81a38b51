package mavgcs

import (
	"time"

	"github.com/flightpath-dev/mavgcs/internal/attrs"
	"github.com/flightpath-dev/mavgcs/internal/link"
	"github.com/flightpath-dev/mavgcs/internal/mission"
)

// Vehicle is a thin, non-owning handle to a running link manager: the
// link owns all state for its lifetime; Vehicle only forwards calls to
// it. Copying a Vehicle value is safe — both copies refer to the same
// link.
type Vehicle struct {
	l *link.Link
}

// MessageListener mirrors link.MessageListener at the public boundary.
type MessageListener = link.MessageListener

// Waypoint mirrors mission.Waypoint at the public boundary.
type Waypoint = mission.Waypoint

// OnMessage registers fn for a message type name (e.g. "HEARTBEAT"), or
// for "*" to receive every dispatched message.
func (v Vehicle) OnMessage(name string, fn MessageListener) {
	v.l.OnMessage(name, fn)
}

// RemoveMessageListener undoes a prior OnMessage. fn must be the same
// value originally registered.
func (v Vehicle) RemoveMessageListener(name string, fn MessageListener) {
	v.l.RemoveMessageListener(name, fn)
}

// SetRawHook installs the single optional raw-message hook, replacing
// any previously installed one. Pass nil to remove it.
func (v Vehicle) SetRawHook(fn MessageListener) {
	v.l.SetRawHook(fn)
}

// Subscribe registers fn to run whenever attr is notified (e.g.
// mavgcs.AttrLocation). See the Attr* constants for recognized keys.
func (v Vehicle) Subscribe(attr string, fn attrs.Listener) {
	v.l.Attrs().Subscribe(attr, fn)
}

// Unsubscribe undoes a prior Subscribe.
func (v Vehicle) Unsubscribe(attr string, fn attrs.Listener) {
	v.l.Attrs().Unsubscribe(attr, fn)
}

// Snapshot reads the latest value for attr, if any has been observed
// yet. The concrete type depends on attr; see the Attr* constants.
func (v Vehicle) Snapshot(attr string) (any, bool) {
	return v.l.Attrs().Snapshot(attr)
}

// ParamSet writes one vehicle parameter by name, retrying up to retries
// times against the optimistic PARAM_VALUE echo — not a true ACK that
// the vehicle accepted this specific write.
func (v Vehicle) ParamSet(name string, value float32, retries int) error {
	return v.l.ParamSet(name, value, retries)
}

// Fetch starts (or restarts) a mission download.
func (v Vehicle) Fetch() {
	v.l.Fetch()
}

// Mission returns the waypoint download state: received waypoints,
// expected count, and whether the download has completed.
func (v Vehicle) Mission() *mission.Download {
	return v.l.Mission()
}

// SendAllWaypoints uploads a full mission, replacing whatever is
// currently on the vehicle. A zero timeout waits indefinitely; a
// positive timeout aborts the upload and returns an error if it isn't
// acked in time.
func (v Vehicle) SendAllWaypoints(waypoints []Waypoint, timeout time.Duration) error {
	return v.l.SendAllWaypoints(waypoints, timeout)
}

// TargetSystem and TargetComponent are the vehicle's MAVLink ids,
// taken from its most recently received heartbeat.
func (v Vehicle) TargetSystem() uint8    { return v.l.TargetSystem() }
func (v Vehicle) TargetComponent() uint8 { return v.l.TargetComponent() }

// Close shuts the link down: stops accepting new outbound traffic,
// drains what's queued, and releases the transport.
func (v Vehicle) Close() error {
	return v.l.Close()
}

// Recognized attribute keys, re-exported from internal/attrs for callers
// of Snapshot/Subscribe/Unsubscribe.
const (
	AttrLocation      = attrs.Location
	AttrVelocity      = attrs.Velocity
	AttrLocalPosition = attrs.LocalPosition
	AttrGPS0          = attrs.GPS0
	AttrAirspeed      = attrs.Airspeed
	AttrGroundspeed   = attrs.Groundspeed
	AttrAttitude      = attrs.Attitude
	AttrBattery       = attrs.Battery
	AttrMode          = attrs.Mode
	AttrArmed         = attrs.Armed
	AttrMount         = attrs.Mount
	AttrRangefinder   = attrs.Rangefinder
	AttrEKFOk         = attrs.EKFOk
	AttrRC            = attrs.RC
)
