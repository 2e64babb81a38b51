package attrs

// LocationValue is the value stored under Location. It is populated
// from either GLOBAL_POSITION_INT (lat/lon) or VFR_HUD (alt/heading) —
// each message updates only the fields it carries, leaving the others
// at their last-known value.
type LocationValue struct {
	Lat     float64
	Lon     float64
	Alt     float64
	Heading float64
}

// VelocityValue is m/s in the vehicle's local NED-ish frame, from
// GLOBAL_POSITION_INT's vx/vy/vz (cm/s, scaled here).
type VelocityValue struct {
	Vx, Vy, Vz float64
}

// LocalPositionValue is from LOCAL_POSITION_NED, already in meters.
type LocalPositionValue struct {
	North, East, Down float64
}

// GPSValue is from GPS_RAW_INT.
type GPSValue struct {
	Eph, Epv          uint16
	SatellitesVisible uint8
	FixType           uint8
}

// AttitudeValue is from ATTITUDE; angles are radians, bit-preserved —
// only lat/lon, velocity, and mount angles get unit-converted.
type AttitudeValue struct {
	Pitch, Yaw, Roll                float32
	PitchSpeed, YawSpeed, RollSpeed float32
}

// BatteryValue is from SYS_STATUS.
type BatteryValue struct {
	VoltageBattery   int32 // as reported, millivolts
	CurrentBattery   int16 // as reported, centi-amps (-1 if unknown)
	BatteryRemaining int8  // percent, -1 if unknown
}

// ModeValue is from HEARTBEAT.
type ModeValue struct {
	Name   string
	Number uint32
}

// MountValue is from MOUNT_STATUS, in degrees (floating division, not
// lossy integer division).
type MountValue struct {
	Pitch, Roll, Yaw float64
}

// RangefinderValue is from RANGEFINDER, bit-preserved.
type RangefinderValue struct {
	Distance, Voltage float32
}
