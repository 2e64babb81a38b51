package mavwire

import (
	"fmt"
	"strings"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"
)

// MessageName returns the dispatch key used to route a message: the
// MAVLink wire name recovered from the dialect type's PascalCase name
// with the "Message" prefix stripped, e.g.
// *ardupilotmega.MessageGlobalPositionInt -> "GLOBAL_POSITION_INT".
func MessageName(msg ardupilotmega.Message) string {
	full := fmt.Sprintf("%T", msg)
	full = strings.TrimPrefix(full, "*ardupilotmega.")
	full = strings.TrimPrefix(full, "Message")
	return toScreamingSnakeCase(full)
}

// toScreamingSnakeCase splits a PascalCase identifier on word boundaries
// (each run starting with an uppercase letter) and joins with
// underscores, e.g. "GpsRawInt" -> "GPS_RAW_INT".
func toScreamingSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// Wildcard is the catch-all listener key.
const Wildcard = "*"

// ModeMapping is the bidirectional custom_mode <-> name table for one
// autopilot. ArduCopter's custom_mode is a flat enum (unlike PX4's packed
// main/sub mode scheme), so the mapping is a simple two-way lookup.
type ModeMapping struct {
	byNumber map[uint32]string
	byName   map[string]uint32
}

// NewModeMapping builds a mapping from number->name pairs.
func NewModeMapping(pairs map[uint32]string) *ModeMapping {
	m := &ModeMapping{
		byNumber: make(map[uint32]string, len(pairs)),
		byName:   make(map[string]uint32, len(pairs)),
	}
	for num, name := range pairs {
		m.byNumber[num] = name
		m.byName[name] = num
	}
	return m
}

// Name returns the mode name for a custom_mode value, or a numeric
// fallback if the autopilot reports a mode this table doesn't know.
func (m *ModeMapping) Name(customMode uint32) string {
	if name, ok := m.byNumber[customMode]; ok {
		return name
	}
	return fmt.Sprintf("MODE(%d)", customMode)
}

// Number returns the custom_mode value for a mode name.
func (m *ModeMapping) Number(name string) (uint32, bool) {
	n, ok := m.byName[name]
	return n, ok
}

// ArduCopterModes is the standard ArduCopter custom_mode table.
var ArduCopterModes = NewModeMapping(map[uint32]string{
	0:  "STABILIZE",
	1:  "ACRO",
	2:  "ALT_HOLD",
	3:  "AUTO",
	4:  "GUIDED",
	5:  "LOITER",
	6:  "RTL",
	7:  "CIRCLE",
	9:  "LAND",
	11: "DRIFT",
	13: "SPORT",
	14: "FLIP",
	15: "AUTOTUNE",
	16: "POSHOLD",
	17: "BRAKE",
	18: "THROW",
	19: "AVOID_ADSB",
	20: "GUIDED_NOGPS",
	21: "SMART_RTL",
	22: "FLOWHOLD",
	23: "FOLLOW",
	24: "ZIGZAG",
	25: "SYSTEMID",
	26: "AUTOROTATE",
	27: "AUTO_RTL",
})
