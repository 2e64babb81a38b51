package link

import (
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"

	"github.com/flightpath-dev/mavgcs/internal/mavwire"
	"github.com/flightpath-dev/mavgcs/internal/mission"
)

// dispatch runs the full pipeline for one inbound message: the
// parameter path, the mission download/current/upload paths, the
// heartbeat RX clock, and finally user dispatch (typed listeners,
// wildcard listeners, raw hook). It is synchronous and does not itself
// perform I/O beyond enqueueing outbound replies, so tests can call it
// directly against a bare Link.
func (l *Link) dispatch(msg ardupilotmega.Message, sysID, compID uint8) {
	switch m := msg.(type) {
	case *ardupilotmega.MessageParamValue:
		l.dispatchParamValue(m)

	case *ardupilotmega.MessageMissionCount:
		l.dispatchMissionCount(m, sysID, compID)
	case *ardupilotmega.MessageMissionItem:
		l.dispatchMissionItem(m)

	case *ardupilotmega.MessageMissionCurrent:
		l.download.SetCurrent(int32(m.Seq))

	case *ardupilotmega.MessageMissionRequest:
		l.dispatchMissionRequest(m, sysID, compID)

	case *ardupilotmega.MessageHeartbeat:
		l.setTarget(sysID, compID)
		l.stateMu.Lock()
		l.lastHeartbeatRX = time.Now()
		l.everReceived = true
		l.stateMu.Unlock()
		l.firstHeartbeatOnce.Do(func() { close(l.firstHeartbeat) })
	}

	l.userDispatch(msg)
}

// dispatchParamValue feeds one PARAM_VALUE into the parameter set.
func (l *Link) dispatchParamValue(m *ardupilotmega.MessageParamValue) {
	l.params.Observe(paramIDString(m.ParamId), m.ParamValue, m.ParamIndex, m.ParamCount)
}

// dispatchMissionCount handles MISSION_COUNT: resets the download side
// and kicks off the request/response sequence.
func (l *Link) dispatchMissionCount(m *ardupilotmega.MessageMissionCount, sysID, compID uint8) {
	if l.download.Loaded() {
		return
	}
	l.download.SetCount(int(m.Count))
	l.enqueue(&ardupilotmega.MessageMissionRequest{Seq: 0})
}

// dispatchMissionItem handles one MISSION_ITEM, appending it to the
// download and requesting the next seq if the mission isn't complete.
func (l *Link) dispatchMissionItem(m *ardupilotmega.MessageMissionItem) {
	if l.download.Loaded() {
		return
	}
	wp := mission.Waypoint{
		Seq: m.Seq, Frame: uint8(m.Frame), Command: uint16(m.Command),
		Current: m.Current, Autocontinue: m.Autocontinue,
		Param1: m.Param1, Param2: m.Param2, Param3: m.Param3, Param4: m.Param4,
		X: m.X, Y: m.Y, Z: m.Z,
		TargetSystem: m.TargetSystem, TargetComponent: m.TargetComponent,
	}

	accepted, next, needsRequest, _ := l.download.Append(wp)
	if accepted && needsRequest {
		l.enqueue(&ardupilotmega.MessageMissionRequest{Seq: next})
	}
}

// dispatchMissionRequest replies to an in-progress upload's request for
// one waypoint.
func (l *Link) dispatchMissionRequest(m *ardupilotmega.MessageMissionRequest, sysID, compID uint8) {
	if !l.upload.InProgress() {
		return
	}
	wp, ok := l.upload.WaypointAt(int(m.Seq))
	if !ok {
		return
	}

	l.enqueue(&ardupilotmega.MessageMissionItem{
		Seq: wp.Seq, Frame: ardupilotmega.MAV_FRAME(wp.Frame), Command: ardupilotmega.MAV_CMD(wp.Command),
		Current: wp.Current, Autocontinue: wp.Autocontinue,
		Param1: wp.Param1, Param2: wp.Param2, Param3: wp.Param3, Param4: wp.Param4,
		X: wp.X, Y: wp.Y, Z: wp.Z,
	})
	l.upload.Ack(int(m.Seq))
}

// userDispatch runs typed listeners, then wildcard listeners, then the
// single raw hook.
func (l *Link) userDispatch(msg ardupilotmega.Message) {
	name := mavwire.MessageName(msg)
	for _, fn := range l.listenersFor(name) {
		fn(l, name, msg)
	}
	for _, fn := range l.listenersFor(mavwire.Wildcard) {
		fn(l, name, msg)
	}
	if hook := l.rawHookFn(); hook != nil {
		hook(l, name, msg)
	}
}
