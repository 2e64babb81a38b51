package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/flightpath-dev/mavgcs"
)

// StatusSnapshot is the JSON body served by /status: a point-in-time
// read of the attribute store, never blocking on the link.
type StatusSnapshot struct {
	TargetSystem    uint8 `json:"target_system"`
	TargetComponent uint8 `json:"target_component"`
	Armed           any   `json:"armed,omitempty"`
	Mode            any   `json:"mode,omitempty"`
	Location        any   `json:"location,omitempty"`
	Velocity        any   `json:"velocity,omitempty"`
	Battery         any   `json:"battery,omitempty"`
	GPS             any   `json:"gps_0,omitempty"`
	EKFOk           any   `json:"ekf_ok,omitempty"`
}

// StatusHandler serves the current vehicle snapshot as JSON.
func StatusHandler(v mavgcs.Vehicle) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := StatusSnapshot{
			TargetSystem:    v.TargetSystem(),
			TargetComponent: v.TargetComponent(),
		}
		snap.Armed, _ = v.Snapshot(mavgcs.AttrArmed)
		snap.Mode, _ = v.Snapshot(mavgcs.AttrMode)
		snap.Location, _ = v.Snapshot(mavgcs.AttrLocation)
		snap.Velocity, _ = v.Snapshot(mavgcs.AttrVelocity)
		snap.Battery, _ = v.Snapshot(mavgcs.AttrBattery)
		snap.GPS, _ = v.Snapshot(mavgcs.AttrGPS0)
		snap.EKFOk, _ = v.Snapshot(mavgcs.AttrEKFOk)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
	})
}

// MissionHandler serves the current mission download state as JSON.
func MissionHandler(v mavgcs.Vehicle) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := v.Mission()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			Loaded        bool              `json:"loaded"`
			ExpectedCount int               `json:"expected_count"`
			Waypoints     []mavgcs.Waypoint `json:"waypoints"`
		}{
			Loaded:        d.Loaded(),
			ExpectedCount: d.ExpectedCount(),
			Waypoints:     d.Waypoints(),
		})
	})
}
