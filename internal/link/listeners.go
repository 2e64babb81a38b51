package link

import (
	"strconv"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"

	"github.com/flightpath-dev/mavgcs/internal/attrs"
)

// installDefaultListeners registers the link's pre-installed attribute-
// updating listeners. They are ordinary entries in the per-type
// listener table, registered first so user listeners added later via
// OnMessage run after them in the same type's list.
func (l *Link) installDefaultListeners() {
	l.addListener("STATUSTEXT", l.onStatustext)
	l.addListener("GLOBAL_POSITION_INT", l.onGlobalPositionInt)
	l.addListener("LOCAL_POSITION_NED", l.onLocalPositionNED)
	l.addListener("GPS_RAW_INT", l.onGPSRawInt)
	l.addListener("VFR_HUD", l.onVFRHud)
	l.addListener("ATTITUDE", l.onAttitude)
	l.addListener("SYS_STATUS", l.onSysStatus)
	l.addListener("HEARTBEAT", l.onHeartbeatAttrs)
	l.addListener("RC_CHANNELS_RAW", l.onRCChannelsRaw)
	l.addListener("MOUNT_STATUS", l.onMountStatus)
	l.addListener("RANGEFINDER", l.onRangefinder)
	l.addListener("EKF_STATUS_REPORT", l.onEKFStatusReport)
}

func (l *Link) onStatustext(_ *Link, _ string, msg ardupilotmega.Message) {
	m, ok := msg.(*ardupilotmega.MessageStatustext)
	if !ok {
		return
	}
	for _, line := range splitLines(string(m.Text[:])) {
		l.printStatus(">>> " + line)
	}
}

func (l *Link) onGlobalPositionInt(_ *Link, _ string, msg ardupilotmega.Message) {
	m, ok := msg.(*ardupilotmega.MessageGlobalPositionInt)
	if !ok {
		return
	}
	loc, _ := l.attrs.Snapshot(attrs.Location)
	lv, _ := loc.(attrs.LocationValue)
	lv.Lat = float64(m.Lat) / 1e7
	lv.Lon = float64(m.Lon) / 1e7
	l.attrs.Set(attrs.Location, lv)

	l.attrs.Set(attrs.Velocity, attrs.VelocityValue{
		Vx: float64(m.Vx) / 100.0,
		Vy: float64(m.Vy) / 100.0,
		Vz: float64(m.Vz) / 100.0,
	})

	l.attrs.Notify(attrs.Location, attrs.Velocity)
}

func (l *Link) onLocalPositionNED(_ *Link, _ string, msg ardupilotmega.Message) {
	m, ok := msg.(*ardupilotmega.MessageLocalPositionNed)
	if !ok {
		return
	}
	l.attrs.Set(attrs.LocalPosition, attrs.LocalPositionValue{
		North: float64(m.X),
		East:  float64(m.Y),
		Down:  float64(m.Z),
	})
	l.attrs.Notify(attrs.LocalPosition)
}

func (l *Link) onGPSRawInt(_ *Link, _ string, msg ardupilotmega.Message) {
	m, ok := msg.(*ardupilotmega.MessageGpsRawInt)
	if !ok {
		return
	}
	l.attrs.Set(attrs.GPS0, attrs.GPSValue{
		Eph:               m.Eph,
		Epv:               m.Epv,
		SatellitesVisible: m.SatellitesVisible,
		FixType:           uint8(m.FixType),
	})
	l.attrs.Notify(attrs.GPS0)
}

func (l *Link) onVFRHud(_ *Link, _ string, msg ardupilotmega.Message) {
	m, ok := msg.(*ardupilotmega.MessageVfrHud)
	if !ok {
		return
	}
	loc, _ := l.attrs.Snapshot(attrs.Location)
	lv, _ := loc.(attrs.LocationValue)
	lv.Alt = float64(m.Alt)
	lv.Heading = float64(m.Heading)
	l.attrs.Set(attrs.Location, lv)
	l.attrs.Set(attrs.Airspeed, float64(m.Airspeed))
	l.attrs.Set(attrs.Groundspeed, float64(m.Groundspeed))

	l.attrs.Notify(attrs.Location, attrs.Airspeed, attrs.Groundspeed)
}

func (l *Link) onAttitude(_ *Link, _ string, msg ardupilotmega.Message) {
	m, ok := msg.(*ardupilotmega.MessageAttitude)
	if !ok {
		return
	}
	l.attrs.Set(attrs.Attitude, attrs.AttitudeValue{
		Pitch: m.Pitch, Yaw: m.Yaw, Roll: m.Roll,
		PitchSpeed: m.Pitchspeed, YawSpeed: m.Yawspeed, RollSpeed: m.Rollspeed,
	})
	l.attrs.Notify(attrs.Attitude)
}

func (l *Link) onSysStatus(_ *Link, _ string, msg ardupilotmega.Message) {
	m, ok := msg.(*ardupilotmega.MessageSysStatus)
	if !ok {
		return
	}
	l.attrs.Set(attrs.Battery, attrs.BatteryValue{
		VoltageBattery:   int32(m.VoltageBattery),
		CurrentBattery:   m.CurrentBattery,
		BatteryRemaining: m.BatteryRemaining,
	})
	l.attrs.Notify(attrs.Battery)
}

func (l *Link) onHeartbeatAttrs(_ *Link, _ string, msg ardupilotmega.Message) {
	m, ok := msg.(*ardupilotmega.MessageHeartbeat)
	if !ok {
		return
	}

	armed := (m.BaseMode & ardupilotmega.MAV_MODE_FLAG_SAFETY_ARMED) != 0
	l.setArmed(armed)
	l.attrs.Set(attrs.Armed, armed)
	l.attrs.Set(attrs.Mode, attrs.ModeValue{
		Name:   l.modeMapping.Name(m.CustomMode),
		Number: m.CustomMode,
	})

	l.attrs.Notify(attrs.Mode, attrs.Armed)
	l.updateEKF()
}

func (l *Link) onRCChannelsRaw(_ *Link, _ string, msg ardupilotmega.Message) {
	m, ok := msg.(*ardupilotmega.MessageRcChannelsRaw)
	if !ok {
		return
	}
	// Build a fresh map each time so snapshots already handed out are
	// never mutated.
	v, _ := l.attrs.Snapshot(attrs.RC)
	prev, _ := v.(map[string]uint16)
	rc := make(map[string]uint16, len(prev)+8)
	for k, val := range prev {
		rc[k] = val
	}
	port := int(m.Port)
	rc[strconv.Itoa(port*8+1)] = m.Chan1Raw
	rc[strconv.Itoa(port*8+2)] = m.Chan2Raw
	rc[strconv.Itoa(port*8+3)] = m.Chan3Raw
	rc[strconv.Itoa(port*8+4)] = m.Chan4Raw
	rc[strconv.Itoa(port*8+5)] = m.Chan5Raw
	rc[strconv.Itoa(port*8+6)] = m.Chan6Raw
	rc[strconv.Itoa(port*8+7)] = m.Chan7Raw
	rc[strconv.Itoa(port*8+8)] = m.Chan8Raw
	l.attrs.Set(attrs.RC, rc)
	// RC_CHANNELS_RAW updates the map without notifying subscribers:
	// it arrives too fast to be a useful change signal on its own.
}

func (l *Link) onMountStatus(_ *Link, _ string, msg ardupilotmega.Message) {
	m, ok := msg.(*ardupilotmega.MessageMountStatus)
	if !ok {
		return
	}
	// Floating division (centidegrees -> degrees), not lossy integer
	// division.
	l.attrs.Set(attrs.Mount, attrs.MountValue{
		Pitch: float64(m.PointingA) / 100.0,
		Roll:  float64(m.PointingB) / 100.0,
		Yaw:   float64(m.PointingC) / 100.0,
	})
	l.attrs.Notify(attrs.Mount)
}

func (l *Link) onRangefinder(_ *Link, _ string, msg ardupilotmega.Message) {
	m, ok := msg.(*ardupilotmega.MessageRangefinder)
	if !ok {
		return
	}
	l.attrs.Set(attrs.Rangefinder, attrs.RangefinderValue{
		Distance: m.Distance,
		Voltage:  m.Voltage,
	})
	l.attrs.Notify(attrs.Rangefinder)
}

func (l *Link) onEKFStatusReport(_ *Link, _ string, msg ardupilotmega.Message) {
	m, ok := msg.(*ardupilotmega.MessageEkfStatusReport)
	if !ok {
		return
	}
	l.setEKFFlags(uint16(m.Flags))
	l.updateEKF()
}

// updateEKF recomputes ekf_ok from the last-seen flags and arm state:
// armed requires an absolute position estimate that isn't in constant-
// position mode; disarmed accepts either an absolute or a predicted one.
func (l *Link) updateEKF() {
	flags := l.ekfFlags()
	abs := flags&uint16(ardupilotmega.EKF_POS_HORIZ_ABS) != 0
	constPos := flags&uint16(ardupilotmega.EKF_CONST_POS_MODE) != 0
	pred := flags&uint16(ardupilotmega.EKF_PRED_POS_HORIZ_ABS) != 0

	var ok bool
	if l.isArmed() {
		ok = abs && !constPos
	} else {
		ok = abs || pred
	}
	l.attrs.Set(attrs.EKFOk, ok)
	l.attrs.Notify(attrs.EKFOk)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
		if c == 0 {
			lines = append(lines, s[start:i])
			return lines
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func (l *Link) printStatus(line string) {
	if l.statusPrinter != nil {
		l.statusPrinter(line)
	}
}
