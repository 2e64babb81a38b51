// Package link implements the link manager: the single-threaded event
// loop that owns the transport, the attribute store, the parameter set,
// and the mission state, and drives heartbeat emission, parameter sync,
// mission sync, and message dispatch.
package link

import (
	"fmt"
	"log"
	"reflect"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"

	"github.com/flightpath-dev/mavgcs/internal/attrs"
	"github.com/flightpath-dev/mavgcs/internal/mavwire"
	"github.com/flightpath-dev/mavgcs/internal/mission"
	"github.com/flightpath-dev/mavgcs/internal/params"
)

// heartbeatTimeout is the heartbeat-RX watchdog period: how long without
// a received heartbeat before the link logs a timeout warning.
const heartbeatTimeout = 5 * time.Second

// heartbeatPeriod is the minimum interval between emitted heartbeats.
const heartbeatPeriod = time.Second

// iterationSleep is the loop's inter-iteration cadence.
const iterationSleep = 50 * time.Millisecond

// outboundQueueDepth bounds the outbound message queue; enqueue blocks
// once full, exactly like a bounded FIFO should.
const outboundQueueDepth = 256

// MessageListener is one entry in a message-type listener table: invoked
// with the link, the dispatch name, and the decoded message.
type MessageListener func(l *Link, name string, msg ardupilotmega.Message)

// wireConn is the subset of *mavwire.Endpoint the Link manager depends
// on. Narrowing to an interface lets tests drive the dispatch pipeline
// and loop scheduling with a synthetic transport, without a real socket
// or serial device.
type wireConn interface {
	Address() string
	Events() chan gomavlib.Event
	WriteMessageAll(msg ardupilotmega.Message) error
	Close()
	Reopen() error
}

// Link is the link manager. The zero value is not usable; construct
// with New.
type Link struct {
	ep     wireConn
	logger *log.Logger

	attrs    *attrs.Store
	params   *params.Set
	download *mission.Download
	upload   *mission.Upload

	modeMapping *mavwire.ModeMapping
	rateHz      int

	statusPrinter func(line string)

	stateMu         sync.Mutex
	targetSystem    uint8
	targetComponent uint8
	armed           bool
	ekfFlagBits     uint16
	lastHeartbeatRX time.Time
	lastHeartbeatTX time.Time
	everReceived    bool

	listenersMu      sync.RWMutex
	messageListeners map[string][]MessageListener
	rawHook          MessageListener

	outbound chan ardupilotmega.Message

	exiting   chan struct{}
	closeOnce sync.Once
	loopDone  chan struct{}

	firstHeartbeat     chan struct{}
	firstHeartbeatOnce sync.Once
}

// New constructs a Link around an already-open wireConn. Callers
// normally get here via Prepare, which also runs the startup protocol;
// New is exported separately so tests can construct a Link with a fake
// transport and drive dispatch directly, without the real I/O loop.
func New(ep wireConn, logger *log.Logger, statusPrinter func(string), modeMapping *mavwire.ModeMapping, rateHz int) *Link {
	if logger == nil {
		logger = log.Default()
	}
	if statusPrinter == nil {
		statusPrinter = func(string) {}
	}
	if modeMapping == nil {
		modeMapping = mavwire.ArduCopterModes
	}

	l := &Link{
		ep:               ep,
		logger:           logger,
		attrs:            attrs.New(logger),
		params:           params.New(),
		download:         mission.NewDownload(),
		upload:           mission.NewUpload(),
		modeMapping:      modeMapping,
		rateHz:           rateHz,
		statusPrinter:    statusPrinter,
		targetComponent:  1, // MAV_COMP_ID_AUTOPILOT1
		messageListeners: make(map[string][]MessageListener),
		outbound:         make(chan ardupilotmega.Message, outboundQueueDepth),
		exiting:          make(chan struct{}),
		loopDone:         make(chan struct{}),
		firstHeartbeat:   make(chan struct{}),
	}
	l.installDefaultListeners()
	return l
}

// Attrs exposes the attribute store for snapshot/subscribe access.
func (l *Link) Attrs() *attrs.Store { return l.attrs }

// Mission exposes the download side for waypoint-loader access.
func (l *Link) Mission() *mission.Download { return l.download }

// TargetSystem returns the vehicle's MAVLink system id, taken from the
// most recently received heartbeat.
func (l *Link) TargetSystem() uint8 {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.targetSystem
}

// TargetComponent returns the vehicle's MAVLink component id.
func (l *Link) TargetComponent() uint8 {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.targetComponent
}

func (l *Link) setArmed(v bool) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.armed = v
}

func (l *Link) isArmed() bool {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.armed
}

func (l *Link) setEKFFlags(flags uint16) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.ekfFlagBits = flags
}

func (l *Link) ekfFlags() uint16 {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return l.ekfFlagBits
}

func (l *Link) setTarget(sysID, compID uint8) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.targetSystem = sysID
	if compID != 0 {
		l.targetComponent = compID
	}
}

// addListener registers fn for name without any public-API overhead;
// used both for the pre-installed core listeners and OnMessage.
func (l *Link) addListener(name string, fn MessageListener) {
	l.listenersMu.Lock()
	defer l.listenersMu.Unlock()
	l.messageListeners[name] = append(l.messageListeners[name], fn)
}

// OnMessage registers a user listener for a message type name, or for
// mavwire.Wildcard to receive every dispatched message.
func (l *Link) OnMessage(name string, fn MessageListener) {
	l.addListener(name, fn)
}

// RemoveMessageListener undoes a prior OnMessage. Identity is compared
// via code pointer, like attrs.Store.Unsubscribe.
func (l *Link) RemoveMessageListener(name string, fn MessageListener) {
	l.listenersMu.Lock()
	defer l.listenersMu.Unlock()
	fns := l.messageListeners[name]
	target := fmt.Sprintf("%p", fn)
	for i, f := range fns {
		if fmt.Sprintf("%p", f) == target {
			l.messageListeners[name] = append(fns[:i], fns[i+1:]...)
			return
		}
	}
}

// SetRawHook installs the single optional raw-message hook, replacing
// any previous one.
func (l *Link) SetRawHook(fn MessageListener) {
	l.listenersMu.Lock()
	defer l.listenersMu.Unlock()
	l.rawHook = fn
}

func (l *Link) listenersFor(name string) []MessageListener {
	l.listenersMu.RLock()
	defer l.listenersMu.RUnlock()
	out := make([]MessageListener, len(l.messageListeners[name]))
	copy(out, l.messageListeners[name])
	return out
}

func (l *Link) rawHookFn() MessageListener {
	l.listenersMu.RLock()
	defer l.listenersMu.RUnlock()
	return l.rawHook
}

// enqueue pushes an outbound message, applying the target-id rewrite
// uniformly to any message with TargetSystem/TargetComponent fields. It
// blocks only while the outbound queue is full; once the link is closing
// it never blocks, and the message may be dropped.
func (l *Link) enqueue(msg ardupilotmega.Message) {
	l.rewriteTarget(msg)
	select {
	case l.outbound <- msg:
	case <-l.exiting:
	}
}

// rewriteTarget mutates TargetSystem/TargetComponent fields in place via
// reflection, covering every outbound message type that carries them
// without hand-listing each one.
func (l *Link) rewriteTarget(msg ardupilotmega.Message) {
	v := reflect.ValueOf(msg)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return
	}
	elem := v.Elem()
	sysField := elem.FieldByName("TargetSystem")
	compField := elem.FieldByName("TargetComponent")

	sys := l.TargetSystem()
	comp := l.TargetComponent()

	if sysField.IsValid() && sysField.CanSet() && sysField.Kind() == reflect.Uint8 {
		sysField.SetUint(uint64(sys))
	}
	if compField.IsValid() && compField.CanSet() && compField.Kind() == reflect.Uint8 {
		compField.SetUint(uint64(comp))
	}
}

// Fetch restarts a mission download.
func (l *Link) Fetch() {
	l.download.Fetch()
	l.enqueue(&ardupilotmega.MessageMissionRequestList{})
}

// SendAllWaypoints uploads waypoints. It blocks until every waypoint is
// acked or timeout elapses, whichever comes first; pass 0 to wait
// indefinitely.
func (l *Link) SendAllWaypoints(waypoints []mission.Waypoint, timeout time.Duration) error {
	l.enqueue(&ardupilotmega.MessageMissionClearAll{})

	if len(waypoints) == 0 {
		return nil
	}

	done := l.upload.Begin(waypoints)
	l.enqueue(&ardupilotmega.MessageMissionCount{Count: uint16(len(waypoints))})

	if timeout <= 0 {
		<-done
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		l.upload.Abort()
		return fmt.Errorf("link: mission upload timed out after %s", timeout)
	}
}

// ParamSet writes one parameter. It is an optimistic acknowledgment:
// success means the keyed map echoed the value back, not that the
// vehicle confirmed this specific write.
func (l *Link) ParamSet(name string, value float32, retries int) error {
	upperName := paramIDUpper(name)
	for attempt := 0; attempt <= retries; attempt++ {
		l.enqueue(&ardupilotmega.MessageParamSet{
			ParamId:    paramIDArray(upperName),
			ParamValue: value,
			ParamType:  ardupilotmega.MAV_PARAM_TYPE_REAL32,
		})

		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			if v, ok := l.params.Get(upperName); ok && v == value {
				return nil
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
	l.printStatus(fmt.Sprintf("param_set(%s) failed after %d retries", upperName, retries))
	return fmt.Errorf("link: param_set(%s) failed after %d retries", upperName, retries)
}

// Close marks the link exiting, drains the outbound queue (bounded
// wait), then releases the transport. Safe to call more than once.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		close(l.exiting)
		<-l.loopDone
		l.ep.Close()
	})
	return nil
}
