package core

import (
	"testing"

	"github.com/someone42/powerbook-keyboard-usb/protocol"
)

// captureUART is a UARTWriter that just appends everything written to it, so
// a test can inspect the raw frames DiagLink produces.
type captureUART struct {
	written []byte
}

func (c *captureUART) Write(p []byte) (int, error) {
	c.written = append(c.written, p...)
	return len(p), nil
}

// encodeCommandFrame builds a raw command frame exactly as a host-side
// sender would: both directions share the same header/sequence layout, so a
// second protocol.Transport (never Received into) can be used purely as an
// encoder.
func encodeCommandFrame(t *testing.T, cmdID uint16, args func(protocol.OutputBuffer)) []byte {
	t.Helper()
	out := protocol.NewScratchOutput()
	sender := protocol.NewTransport(out, nil)
	sender.SendCommand(cmdID, args)
	frame := make([]byte, out.CurPosition())
	copy(frame, out.Result())
	return frame
}

// responseFrames splits a byte stream containing zero or more
// length-prefixed frames (ACKs and responses both share the same framing)
// into their raw payload slices (command ID VLQ + arguments, trailer
// stripped), skipping zero-length ACK frames.
func responseFrames(t *testing.T, data []byte) [][]byte {
	t.Helper()
	var payloads [][]byte
	for len(data) > 0 {
		if data[0] == protocol.MessageValueSync {
			data = data[1:]
			continue
		}
		msgLen := int(data[protocol.MessagePositionLen])
		if msgLen < protocol.MessageLengthMin || msgLen > len(data) {
			t.Fatalf("malformed frame length %d in %x", msgLen, data)
		}
		payload := data[protocol.MessageHeaderSize : msgLen-protocol.MessageTrailerSize]
		if len(payload) > 0 {
			cp := make([]byte, len(payload))
			copy(cp, payload)
			payloads = append(payloads, cp)
		}
		data = data[msgLen:]
	}
	return payloads
}

func TestDiagLinkPingRespondsWithPong(t *testing.T) {
	state := &AppState{}
	uart := &captureUART{}
	diag := NewDiagLink(uart, state)

	diag.Receive(encodeCommandFrame(t, DiagCmdPing, nil))

	frames := responseFrames(t, uart.written)
	if len(frames) != 1 {
		t.Fatalf("got %d response frames, want 1 (pong)", len(frames))
	}
	payload := frames[0]
	cmdID, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		t.Fatalf("decode response cmd ID: %v", err)
	}
	if cmdID != DiagRspPong {
		t.Errorf("response cmd ID = %#x, want DiagRspPong", cmdID)
	}
}

func TestDiagLinkGetKeyStateReportsPressedScanCodes(t *testing.T) {
	state := &AppState{}
	state.Matrix.KeyPressed[ScA] = true
	state.Matrix.KeyPressed[ScB] = true

	uart := &captureUART{}
	diag := NewDiagLink(uart, state)
	diag.Receive(encodeCommandFrame(t, DiagCmdGetKeyState, nil))

	frames := responseFrames(t, uart.written)
	if len(frames) != 1 {
		t.Fatalf("got %d response frames, want 1 (key state)", len(frames))
	}
	payload := frames[0]
	cmdID, err := protocol.DecodeVLQUint(&payload)
	if err != nil || cmdID != DiagRspKeyState {
		t.Fatalf("cmdID = %#x, err = %v, want DiagRspKeyState", cmdID, err)
	}

	count, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		t.Fatalf("decode key count: %v", err)
	}
	if count != 2 {
		t.Fatalf("key count = %d, want 2", count)
	}
	got := map[uint8]bool{payload[0]: true, payload[1]: true}
	if !got[ScA] || !got[ScB] {
		t.Errorf("reported scan codes = %v, want {ScA, ScB}", got)
	}
}

func TestDiagLinkGetMouseStateReportsButtonsAndDeltas(t *testing.T) {
	state := &AppState{}
	state.Mouse.Button1 = true
	state.Mouse.AccX = 7
	state.Mouse.AccY = -3

	uart := &captureUART{}
	diag := NewDiagLink(uart, state)
	diag.Receive(encodeCommandFrame(t, DiagCmdGetMouseState, nil))

	frames := responseFrames(t, uart.written)
	if len(frames) != 1 {
		t.Fatalf("got %d response frames, want 1 (mouse state)", len(frames))
	}
	payload := frames[0]
	cmdID, err := protocol.DecodeVLQUint(&payload)
	if err != nil || cmdID != DiagRspMouseState {
		t.Fatalf("cmdID = %#x, err = %v, want DiagRspMouseState", cmdID, err)
	}

	flags := payload[0]
	payload = payload[1:]
	if flags&0x01 == 0 {
		t.Error("button1 flag not set")
	}
	if flags&0x02 != 0 {
		t.Error("button2 flag unexpectedly set")
	}

	accX, err := protocol.DecodeVLQInt(&payload)
	if err != nil || accX != 7 {
		t.Errorf("accX = %d, err = %v, want 7", accX, err)
	}
	accY, err := protocol.DecodeVLQInt(&payload)
	if err != nil || accY != -3 {
		t.Errorf("accY = %d, err = %v, want -3", accY, err)
	}
}

func TestDiagLinkSurvivesBenchToolReconnect(t *testing.T) {
	state := &AppState{}
	uart := &captureUART{}
	diag := NewDiagLink(uart, state)

	// First exchange, from a freshly-connected bench tool starting at the
	// base sequence number.
	diag.Receive(encodeCommandFrame(t, DiagCmdPing, nil))
	frames := responseFrames(t, uart.written)
	if len(frames) != 1 {
		t.Fatalf("got %d response frames for first ping, want 1", len(frames))
	}

	// Simulate the bench tool dropping and reconnecting: a fresh sender
	// restarts its sequence at the base value too, which the firmware must
	// recognize as a reset rather than a desync.
	uart.written = nil
	diag.Receive(encodeCommandFrame(t, DiagCmdPing, nil))
	frames = responseFrames(t, uart.written)
	if len(frames) != 1 {
		t.Fatalf("got %d response frames after reconnect, want 1 (pong)", len(frames))
	}
	payload := frames[0]
	cmdID, err := protocol.DecodeVLQUint(&payload)
	if err != nil || cmdID != DiagRspPong {
		t.Fatalf("cmdID = %#x, err = %v, want DiagRspPong", cmdID, err)
	}
}

func TestDiagLinkUnknownCommandIsIgnored(t *testing.T) {
	state := &AppState{}
	uart := &captureUART{}
	diag := NewDiagLink(uart, state)

	diag.Receive(encodeCommandFrame(t, 0xff, nil))

	frames := responseFrames(t, uart.written)
	if len(frames) != 0 {
		t.Errorf("got %d response frames for an unknown command, want 0 (still ACKed, never answered)", len(frames))
	}
}
