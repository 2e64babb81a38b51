// Package mavgcs is a ground-station client for MAVLink v1.0 vehicles
// speaking the ArduPilotMega dialect. It multiplexes heartbeat
// emission, parameter synchronization, mission (waypoint) transfer, and
// message dispatch over one link, and exposes the result as a live,
// observable Vehicle: attribute snapshots, attribute-change
// subscriptions, and message listeners.
//
// Connect opens a Vehicle over a transport URL:
//
//	v, err := mavgcs.Connect("udp:127.0.0.1:14550", mavgcs.ConnectOptions{AwaitParams: true})
//
// The heavy lifting — reconnection on transient transport faults,
// watchdog-driven parameter re-requests, gap-tolerant mission
// download/upload — lives in the internal link manager; this package
// is a thin, non-owning handle over it.
package mavgcs
