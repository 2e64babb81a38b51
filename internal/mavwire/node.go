// Package mavwire is the transport+codec layer the link manager
// consumes: it turns an address string into a live gomavlib.Node,
// reopening a fresh Node at the same address when asked.
package mavwire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"
)

// OutSystemID is the GCS's own MAVLink system ID on the wire.
const OutSystemID = 255

// Endpoint is a reopenable connection to one vehicle. It owns exactly one
// gomavlib.Node at a time; Reopen closes the current Node (best-effort)
// and opens a new one at the same address.
type Endpoint struct {
	address string
	conf    gomavlib.EndpointConf

	node *gomavlib.Node
}

// ParseAddress turns a transport URL into an EndpointConf. Supported forms:
//
//	udp:host:port      -- GCS listens, vehicle connects in (e.g. SITL)
//	tcp:host:port       -- GCS connects out (e.g. ArduPilot SITL TCP server)
//	/dev/ttyUSB0,57600  -- serial device, baud rate
func ParseAddress(address string) (gomavlib.EndpointConf, error) {
	switch {
	case strings.HasPrefix(address, "udp:"):
		return gomavlib.EndpointUDPServer{
			Address: strings.TrimPrefix(address, "udp:"),
		}, nil

	case strings.HasPrefix(address, "tcp:"):
		return gomavlib.EndpointTCPClient{
			Address: strings.TrimPrefix(address, "tcp:"),
		}, nil

	default:
		device, baudStr, ok := strings.Cut(address, ",")
		if !ok {
			return nil, fmt.Errorf("mavwire: unrecognized address %q", address)
		}
		baud, err := strconv.Atoi(baudStr)
		if err != nil {
			return nil, fmt.Errorf("mavwire: invalid baud rate in %q: %w", address, err)
		}
		return gomavlib.EndpointSerial{
			Device: device,
			Baud:   baud,
		}, nil
	}
}

// Open parses address and opens the first Node.
func Open(address string) (*Endpoint, error) {
	conf, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	e := &Endpoint{address: address, conf: conf}
	if err := e.open(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Endpoint) open() error {
	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:   []gomavlib.EndpointConf{e.conf},
		Dialect:     ardupilotmega.Dialect,
		OutVersion:  gomavlib.V1,
		OutSystemID: OutSystemID,
	})
	if err != nil {
		return fmt.Errorf("mavwire: opening %q: %w", e.address, err)
	}
	e.node = node
	return nil
}

// Address returns the address this endpoint was opened with.
func (e *Endpoint) Address() string {
	return e.address
}

// Events returns the event channel of the current underlying Node. It
// changes identity across Reopen, so callers must re-fetch it after a
// successful reopen.
func (e *Endpoint) Events() chan gomavlib.Event {
	return e.node.Events()
}

// WriteMessageAll writes an outbound message through the current Node.
func (e *Endpoint) WriteMessageAll(msg ardupilotmega.Message) error {
	return e.node.WriteMessageAll(msg)
}

// Close closes the current Node.
func (e *Endpoint) Close() {
	if e.node != nil {
		e.node.Close()
	}
}

// Reopen closes the current Node (best-effort) and opens a fresh one at
// the same address, implementing the link's reconnection discipline on
// a transient transport error.
func (e *Endpoint) Reopen() error {
	e.Close()
	return e.open()
}
