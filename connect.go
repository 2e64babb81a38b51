package mavgcs

import (
	"fmt"
	"log"
	"os"

	"github.com/flightpath-dev/mavgcs/internal/link"
	"github.com/flightpath-dev/mavgcs/internal/mavwire"
)

// DefaultRateHz is the MAVLink data-stream rate requested when
// ConnectOptions.RateHz is left at zero.
const DefaultRateHz = 4

// ConnectOptions configures Connect. There is no vehicle-class
// parameter: Go has no constructor-object parameter to stand in for
// one, so Vehicle is always the handle type — see DESIGN.md.
type ConnectOptions struct {
	// AwaitParams blocks Connect until the full parameter set has
	// loaded and a GPS fix type is known.
	AwaitParams bool
	// StatusPrinter receives human-readable status lines (STATUSTEXT
	// relays, link-timeout warnings, param_set failures). Defaults to
	// writing to stderr.
	StatusPrinter func(line string)
	// RateHz is the MAV_DATA_STREAM_ALL rate requested from the
	// vehicle. Zero uses DefaultRateHz; negative skips the request
	// entirely.
	RateHz int
	// ModeMapping overrides the custom_mode <-> name table. Defaults to
	// mavwire.ArduCopterModes.
	ModeMapping *mavwire.ModeMapping
	// Logger receives internal diagnostics (listener panics, etc).
	// Defaults to log.Default().
	Logger *log.Logger
}

// Connect opens a Vehicle over address, a transport URL such as
// "udp:127.0.0.1:14550", "tcp:127.0.0.1:5760", or "/dev/ttyUSB0,57600".
// It runs the full startup protocol before returning: waits for the
// first heartbeat, requests a data stream, fetches parameters, and — if
// AwaitParams is set — blocks until they and a GPS fix type are known.
func Connect(address string, opts ConnectOptions) (Vehicle, error) {
	rate := opts.RateHz
	if rate == 0 {
		rate = DefaultRateHz
	}
	if rate < 0 {
		rate = 0
	}

	statusPrinter := opts.StatusPrinter
	if statusPrinter == nil {
		statusPrinter = func(line string) { fmt.Fprintln(os.Stderr, line) }
	}

	l, err := link.Prepare(address, opts.AwaitParams, statusPrinter, opts.ModeMapping, rate, opts.Logger)
	if err != nil {
		return Vehicle{}, fmt.Errorf("mavgcs: connect %q: %w", address, err)
	}
	return Vehicle{l: l}, nil
}
