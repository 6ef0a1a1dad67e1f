package core

import (
	"github.com/someone42/powerbook-keyboard-usb/protocol"
)

// The diagnostic link: a small framed request/response protocol running on
// a UART separate from the USB HID path, so a bench tool can query live
// firmware state without a logic analyzer. Reuses this codebase's existing
// message framing (sync byte, sequence, CRC16) nearly unchanged; only the
// command set is new — a fixed four commands rather than a dynamic,
// allocatable object dictionary, since this firmware has nothing to
// configure at runtime.
const (
	DiagCmdPing          = 0
	DiagCmdGetKeyState   = 1
	DiagCmdGetMouseState = 2
	DiagCmdDumpEvents    = 3

	DiagRspPong        = 0x80
	DiagRspKeyState    = 0x81
	DiagRspMouseState  = 0x82
	DiagRspEvents      = 0x83

	// TelemetryPeriodTicks is how often, in loop ticks, an unsolicited
	// mouse-state snapshot is pushed over the link, if its output buffer
	// is free.
	TelemetryPeriodTicks = 2000
)

// UARTWriter is the minimal interface the diagnostic link needs from its
// serial port.
type UARTWriter interface {
	Write(p []byte) (int, error)
}

// DiagLink ties a protocol.Transport to a state source and a UART.
type DiagLink struct {
	transport *protocol.Transport
	scratch   *protocol.ScratchOutput
	uart      UARTWriter
	state     *AppState

	timer *Timer
}

// NewDiagLink builds a diagnostic link writing frames to uart. state is the
// AppState it reports on; only TakeSnapshot's by-value copy ever leaves the
// hot path.
func NewDiagLink(uart UARTWriter, state *AppState) *DiagLink {
	d := &DiagLink{
		scratch: protocol.NewScratchOutput(),
		uart:    uart,
		state:   state,
	}
	d.transport = protocol.NewTransport(d.scratch, d.handle)
	d.transport.SetFlushCallback(d.flush)
	d.transport.SetResetCallback(d.logHostReset)
	return d
}

// logHostReset notes a bench tool reconnecting (sequence counter back to
// MessageDest). The telemetry timer keeps running across it undisturbed --
// there's no per-session state here worth tearing down, just a bench tool
// that dropped and came back.
func (d *DiagLink) logHostReset() {
	DebugPrintln("[DIAG] host reset detected, resynchronized")
}

// flush writes everything accumulated in the scratch buffer to the UART
// and resets it, so the buffer never grows across calls.
func (d *DiagLink) flush() {
	data := d.scratch.Result()
	if len(data) > 0 {
		d.uart.Write(data)
	}
	d.scratch.Reset()
}

// Receive feeds newly-arrived bytes from the UART's RX side into the
// framed transport. Call with whatever bytes were read this tick.
func (d *DiagLink) Receive(data []byte) {
	if len(data) == 0 {
		return
	}
	d.transport.Receive(protocol.NewSliceInputBuffer(data))
	d.flush()
}

// Poll drives the telemetry scheduler: schedules the first push on first
// call, and lets TimerDispatch (called from task.go) fire it thereafter.
func (d *DiagLink) Poll(state *AppState) {
	if d.timer == nil {
		d.timer = &Timer{
			WakeTime: GetLoopTick() + TelemetryPeriodTicks,
			Handler:  d.telemetryFire,
		}
		ScheduleTimer(d.timer)
	}
}

// telemetryFire pushes one unsolicited get_mouse_state-shaped snapshot and
// reschedules itself.
func (d *DiagLink) telemetryFire(t *Timer) uint8 {
	snap := d.state.TakeSnapshot()
	d.transport.SendCommand(DiagRspMouseState, func(out protocol.OutputBuffer) {
		encodeMouseSnapshot(out, snap)
	})
	d.flush()

	t.WakeTime = GetLoopTick() + TelemetryPeriodTicks
	return SF_RESCHEDULE
}

// handle dispatches one decoded command, building its response via the
// transport's SendCommand (which accumulates into d.scratch; flush happens
// in Receive after the whole incoming buffer has been processed).
func (d *DiagLink) handle(cmdID uint16, data *[]byte) error {
	switch cmdID {
	case DiagCmdPing:
		d.transport.SendCommand(DiagRspPong, nil)

	case DiagCmdGetKeyState:
		snap := d.state.TakeSnapshot()
		d.transport.SendCommand(DiagRspKeyState, func(out protocol.OutputBuffer) {
			protocol.EncodeVLQUint(out, uint32(len(snap.KeysPressed)))
			for _, sc := range snap.KeysPressed {
				out.Output([]byte{sc})
			}
		})

	case DiagCmdGetMouseState:
		snap := d.state.TakeSnapshot()
		d.transport.SendCommand(DiagRspMouseState, func(out protocol.OutputBuffer) {
			encodeMouseSnapshot(out, snap)
		})

	case DiagCmdDumpEvents:
		compressed := CompressTimingRing()
		d.transport.SendCommand(DiagRspEvents, func(out protocol.OutputBuffer) {
			protocol.EncodeVLQBytes(out, compressed)
		})

	default:
		// Unknown command IDs are ignored rather than desyncing the
		// transport: a malformed diagnostic frame must never affect
		// keyboard or mouse state (see AppState/Snapshot doc comment).
	}
	return nil
}

// encodeMouseSnapshot writes button/delta/timeout-count fields shared by
// the get_mouse_state response and the telemetry push.
func encodeMouseSnapshot(out protocol.OutputBuffer, snap Snapshot) {
	var flags uint8
	if snap.Button1 {
		flags |= 0x01
	}
	if snap.Button2 {
		flags |= 0x02
	}
	out.Output([]byte{flags})
	protocol.EncodeVLQInt(out, int32(snap.AccX))
	protocol.EncodeVLQInt(out, int32(snap.AccY))
	protocol.EncodeVLQUint(out, snap.ADBTimeouts)
}
