// Package mission implements the mission (waypoint) transfer protocol:
// independent download and upload state machines with duplicate and
// out-of-order tolerance.
package mission

import "sync"

// Waypoint is one mission item, independent of the wire dialect. The
// link manager converts to/from ardupilotmega.MessageMissionItem at the
// boundary.
type Waypoint struct {
	Seq             uint16
	Frame           uint8
	Command         uint16
	Current         uint8
	Autocontinue    uint8
	Param1          float32
	Param2          float32
	Param3          float32
	Param4          float32
	X, Y, Z         float32
	TargetSystem    uint8
	TargetComponent uint8
}

// Download is the download side of mission state: received is always a
// strict prefix of the final mission.
type Download struct {
	mu            sync.RWMutex
	expectedCount int
	loaded        bool
	received      []Waypoint
	lastWaypoint  int32
}

// NewDownload returns an idle download state.
func NewDownload() *Download {
	return &Download{lastWaypoint: -1}
}

// Fetch resets the download side to start a fresh download.
func (d *Download) Fetch() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = false
	d.received = nil
	d.expectedCount = 0
}

// SetCount applies MISSION_COUNT/WAYPOINT_COUNT: clears received and
// records the expected count.
func (d *Download) SetCount(count int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.received = nil
	d.expectedCount = count
	d.loaded = false
}

// NextSeq returns the seq to request next: len(received).
func (d *Download) NextSeq() uint16 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return uint16(len(d.received))
}

// Append applies one MISSION_ITEM/WAYPOINT. accepted is false for an
// out-of-order or duplicate seq. requestNext is the seq to request if
// the mission isn't complete yet. done is true once the full mission
// has been received.
func (d *Download) Append(wp Waypoint) (accepted bool, requestNext uint16, needsRequest bool, done bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.received)
	switch {
	case int(wp.Seq) > n:
		return false, 0, false, d.loaded // out-of-order future: discard
	case int(wp.Seq) < n:
		return false, 0, false, d.loaded // duplicate: discard
	}

	d.received = append(d.received, wp)
	if len(d.received) < d.expectedCount {
		return true, uint16(len(d.received)), true, false
	}

	d.loaded = true
	return true, 0, false, true
}

// SetCurrent applies MISSION_CURRENT/WAYPOINT_CURRENT; it is idempotent.
// The link's dispatch pipeline calls it for every MISSION_CURRENT.
func (d *Download) SetCurrent(seq int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastWaypoint = seq
}

// CurrentSeq returns the last MISSION_CURRENT seq observed, or -1.
func (d *Download) CurrentSeq() int32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastWaypoint
}

// Loaded reports whether the full mission has been received.
func (d *Download) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

// ExpectedCount returns the most recently announced mission size.
func (d *Download) ExpectedCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.expectedCount
}

// Waypoints returns a copy of the received list.
func (d *Download) Waypoints() []Waypoint {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Waypoint, len(d.received))
	copy(out, d.received)
	return out
}

// Upload is the upload side of mission state: present only while an
// upload is in progress.
type Upload struct {
	mu        sync.Mutex
	active    bool
	waypoints []Waypoint
	acked     []bool
	done      chan struct{}
}

// NewUpload returns an idle upload state.
func NewUpload() *Upload {
	return &Upload{}
}

// Begin starts an upload of waypoints. It returns a channel that closes
// once every waypoint has been acked.
func (u *Upload) Begin(waypoints []Waypoint) <-chan struct{} {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.active = true
	u.waypoints = waypoints
	u.acked = make([]bool, len(waypoints))
	u.done = make(chan struct{})

	if len(waypoints) == 0 {
		close(u.done)
	}
	return u.done
}

// InProgress reports whether an upload is currently active.
func (u *Upload) InProgress() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.active
}

// WaypointAt returns the waypoint requested by MISSION_REQUEST(seq).
func (u *Upload) WaypointAt(seq int) (Waypoint, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.active || seq < 0 || seq >= len(u.waypoints) {
		return Waypoint{}, false
	}
	return u.waypoints[seq], true
}

// Ack marks waypoint seq as acknowledged. Once every waypoint is acked,
// the upload is no longer in progress and the done channel closes.
func (u *Upload) Ack(seq int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.active || seq < 0 || seq >= len(u.acked) {
		return
	}
	u.acked[seq] = true

	for _, ok := range u.acked {
		if !ok {
			return
		}
	}
	u.active = false
	close(u.done)
}

// Abort cancels an in-progress upload without marking it complete.
func (u *Upload) Abort() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.active {
		u.active = false
		close(u.done)
	}
}
