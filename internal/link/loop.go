package link

import (
	"fmt"
	"log"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"

	"github.com/flightpath-dev/mavgcs/internal/attrs"
	"github.com/flightpath-dev/mavgcs/internal/mavwire"
)

// paramPollInterval is the cadence of full-parameter-fetch retries
// during startup.
const paramPollInterval = 100 * time.Millisecond

// Prepare runs the startup protocol: open the transport, spawn the
// loop, wait for the first heartbeat, request a data stream, fetch all
// parameters, and optionally block until they (and a GPS fix type) are
// known.
func Prepare(address string, awaitParams bool, statusPrinter func(string), modeMapping *mavwire.ModeMapping, rateHz int, logger *log.Logger) (*Link, error) {
	ep, err := mavwire.Open(address)
	if err != nil {
		return nil, err
	}

	l := New(ep, logger, statusPrinter, modeMapping, rateHz)
	go l.loop()

	<-l.firstHeartbeat

	if rateHz > 0 {
		l.enqueue(&ardupilotmega.MessageRequestDataStream{
			ReqStreamId:    ardupilotmega.MAV_DATA_STREAM_ALL,
			ReqMessageRate: uint16(rateHz),
			StartStop:      1,
		})
	}

	for !l.params.Started() {
		l.enqueue(&ardupilotmega.MessageParamRequestList{})
		time.Sleep(paramPollInterval)

		select {
		case <-l.exiting:
			return l, fmt.Errorf("link: closed during startup")
		default:
		}
	}

	if awaitParams {
		for {
			_, gpsKnown := l.attrs.Snapshot(attrs.GPS0)
			if l.params.Loaded() && gpsKnown {
				break
			}
			time.Sleep(paramPollInterval)

			select {
			case <-l.exiting:
				return l, fmt.Errorf("link: closed during startup")
			default:
			}
		}
	}

	return l, nil
}

// loop is the single dedicated event loop: one iteration runs the
// parameter watchdog, heartbeat emit, heartbeat watchdog, outbound
// drain, and inbound drain/dispatch, in that order, then sleeps ~50 ms.
// It returns (closing loopDone) on exiting or a fatal transport error.
func (l *Link) loop() {
	defer close(l.loopDone)

	events := l.ep.Events()

	for {
		select {
		case <-l.exiting:
			l.drainOutboundBestEffort()
			return
		default:
		}

		now := time.Now()
		l.runParamWatchdog(now)
		l.runHeartbeatEmit(now)
		l.runHeartbeatWatchdog(now)

		if !l.drainOutbound(&events) {
			return
		}
		if !l.drainInbound(&events) {
			return
		}

		time.Sleep(iterationSleep)
	}
}

// runParamWatchdog re-requests any parameter slots still missing once
// the watchdog's patience has elapsed.
func (l *Link) runParamWatchdog(now time.Time) {
	if !l.params.NeedsWatchdog(now) {
		return
	}
	for _, idx := range l.params.MissingIndices() {
		l.enqueue(&ardupilotmega.MessageParamRequestRead{
			ParamId:    [16]byte{},
			ParamIndex: int16(idx),
		})
	}
	l.params.ArmWatchdog(now)
}

// runHeartbeatEmit sends a heartbeat once heartbeatPeriod has elapsed
// since the last one.
func (l *Link) runHeartbeatEmit(now time.Time) {
	l.stateMu.Lock()
	due := now.Sub(l.lastHeartbeatTX) >= heartbeatPeriod
	l.stateMu.Unlock()
	if !due {
		return
	}

	l.enqueue(&ardupilotmega.MessageHeartbeat{
		Type:           ardupilotmega.MAV_TYPE_GCS,
		Autopilot:      ardupilotmega.MAV_AUTOPILOT_INVALID,
		BaseMode:       0,
		CustomMode:     0,
		SystemStatus:   ardupilotmega.MAV_STATE_ACTIVE,
		MavlinkVersion: 3,
	})

	l.stateMu.Lock()
	l.lastHeartbeatTX = now
	l.stateMu.Unlock()
}

// runHeartbeatWatchdog checks for a stale heartbeat-RX clock; non-fatal,
// it logs and resets the clock so it doesn't fire again until another
// silent period passes.
func (l *Link) runHeartbeatWatchdog(now time.Time) {
	l.stateMu.Lock()
	fire := l.everReceived && now.Sub(l.lastHeartbeatRX) > heartbeatTimeout
	l.stateMu.Unlock()
	if !fire {
		return
	}

	l.printStatus("link timeout: no heartbeat received in 5s")
	l.stateMu.Lock()
	l.lastHeartbeatRX = now
	l.stateMu.Unlock()
}

// drainOutbound writes every currently-queued outbound message. It
// returns false if the transport failed fatally and the loop must exit.
func (l *Link) drainOutbound(events *chan gomavlib.Event) bool {
	for {
		select {
		case msg := <-l.outbound:
			if err := l.ep.WriteMessageAll(msg); err != nil {
				if !l.reopen(events) {
					return false
				}
			}
		default:
			return true
		}
	}
}

// drainInbound receives until none available, running the dispatch
// pipeline for each frame.
func (l *Link) drainInbound(events *chan gomavlib.Event) bool {
	for {
		select {
		case evt, ok := <-*events:
			if !ok {
				if !l.reopen(events) {
					return false
				}
				return true
			}
			l.handleEvent(evt)
		default:
			return true
		}
	}
}

func (l *Link) handleEvent(evt gomavlib.Event) {
	frm, ok := evt.(*gomavlib.EventFrame)
	if !ok {
		return
	}
	msg, ok := frm.Message().(ardupilotmega.Message)
	if !ok {
		return
	}
	l.dispatch(msg, frm.SystemID(), frm.ComponentID())
}

// reopen closes and reopens the transport at the same address on a
// transient error. gomavlib doesn't distinguish transient from fatal
// explicitly, so a failed reopen itself is what the link treats as the
// fatal case.
func (l *Link) reopen(events *chan gomavlib.Event) bool {
	if err := l.ep.Reopen(); err != nil {
		l.printStatus(fmt.Sprintf("link: fatal transport error, giving up: %v", err))
		return false
	}
	*events = l.ep.Events()
	return true
}

func (l *Link) drainOutboundBestEffort() {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		select {
		case msg := <-l.outbound:
			_ = l.ep.WriteMessageAll(msg)
		default:
			return
		}
	}
}
