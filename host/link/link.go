// Package link implements the host side of the diagnostic link: connect
// over the bench UART, send one of the firmware's four fixed commands, and
// decode its response. There is no dictionary to retrieve — the command
// set never changes at runtime — so this is considerably smaller than a
// full-fledged MCU connection that has to learn its peer's object model
// before it can talk to it.
package link

import (
	"fmt"
	"time"

	"github.com/someone42/powerbook-keyboard-usb/host/serial"
	"github.com/someone42/powerbook-keyboard-usb/protocol"
)

// Command IDs, matching core/diag.go's DiagCmd* constants.
const (
	CmdPing          = 0
	CmdGetKeyState   = 1
	CmdGetMouseState = 2
	CmdDumpEvents    = 3

	RspPong       = 0x80
	RspKeyState   = 0x81
	RspMouseState = 0x82
	RspEvents     = 0x83
)

// KeyState is the decoded get_key_state response: every scan code
// currently pressed.
type KeyState struct {
	KeysPressed []uint8
}

// MouseState is the decoded get_mouse_state response (also the shape of
// the unsolicited telemetry push).
type MouseState struct {
	Button1, Button2 bool
	AccX, AccY       int32
	ADBTimeouts      uint32
}

// Link is a connection to the firmware's diagnostic UART.
type Link struct {
	transport *protocol.HostTransport
	port      serial.Port
}

// Connect opens device and returns a ready Link.
func Connect(device string) (*Link, error) {
	port, err := serial.Open(serial.DefaultConfig(device))
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	l := &Link{
		transport: protocol.NewHostTransport(port),
		port:      port,
	}

	// Give the firmware time to notice DTR/RTS if the bench UART adapter
	// toggles it on open.
	time.Sleep(100 * time.Millisecond)
	return l, nil
}

// Close closes the underlying connection.
func (l *Link) Close() error {
	return l.transport.Close()
}

// Ping sends a ping and waits for the pong.
func (l *Link) Ping() error {
	if err := l.transport.SendCommand(CmdPing, nil); err != nil {
		return fmt.Errorf("send ping: %w", err)
	}
	resp, err := l.transport.ReceiveResponse(2 * time.Second)
	if err != nil {
		return fmt.Errorf("receive pong: %w", err)
	}
	cmdID, _, err := decodeResponseHeader(resp.Payload)
	if err != nil {
		return err
	}
	if cmdID != RspPong {
		return fmt.Errorf("unexpected response 0x%x (expected pong)", cmdID)
	}
	return nil
}

// GetKeyState queries the currently-pressed scan codes.
func (l *Link) GetKeyState() (KeyState, error) {
	if err := l.transport.SendCommand(CmdGetKeyState, nil); err != nil {
		return KeyState{}, fmt.Errorf("send get_key_state: %w", err)
	}
	resp, err := l.transport.ReceiveResponse(2 * time.Second)
	if err != nil {
		return KeyState{}, fmt.Errorf("receive key state: %w", err)
	}
	cmdID, payload, err := decodeResponseHeader(resp.Payload)
	if err != nil {
		return KeyState{}, err
	}
	if cmdID != RspKeyState {
		return KeyState{}, fmt.Errorf("unexpected response 0x%x (expected key_state)", cmdID)
	}

	count, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return KeyState{}, fmt.Errorf("decode key count: %w", err)
	}
	keys := make([]uint8, 0, count)
	for i := uint32(0); i < count && len(payload) > 0; i++ {
		keys = append(keys, payload[0])
		payload = payload[1:]
	}
	return KeyState{KeysPressed: keys}, nil
}

// GetMouseState queries the current button/delta/timeout-count snapshot.
func (l *Link) GetMouseState() (MouseState, error) {
	if err := l.transport.SendCommand(CmdGetMouseState, nil); err != nil {
		return MouseState{}, fmt.Errorf("send get_mouse_state: %w", err)
	}
	resp, err := l.transport.ReceiveResponse(2 * time.Second)
	if err != nil {
		return MouseState{}, fmt.Errorf("receive mouse state: %w", err)
	}
	cmdID, payload, err := decodeResponseHeader(resp.Payload)
	if err != nil {
		return MouseState{}, err
	}
	if cmdID != RspMouseState {
		return MouseState{}, fmt.Errorf("unexpected response 0x%x (expected mouse_state)", cmdID)
	}
	return decodeMouseState(payload)
}

// DumpEvents requests the compressed timing-ring-buffer dump and returns
// the raw compressed payload; decompression is left to the caller.
func (l *Link) DumpEvents() ([]byte, error) {
	if err := l.transport.SendCommand(CmdDumpEvents, nil); err != nil {
		return nil, fmt.Errorf("send dump_events: %w", err)
	}
	resp, err := l.transport.ReceiveResponse(2 * time.Second)
	if err != nil {
		return nil, fmt.Errorf("receive events: %w", err)
	}
	cmdID, payload, err := decodeResponseHeader(resp.Payload)
	if err != nil {
		return nil, err
	}
	if cmdID != RspEvents {
		return nil, fmt.Errorf("unexpected response 0x%x (expected events)", cmdID)
	}
	return protocol.DecodeVLQBytes(&payload)
}

// WatchMouse blocks, invoking fn for every unsolicited telemetry push the
// firmware sends (core/diag.go's telemetryFire). Returns when recv fails.
func (l *Link) WatchMouse(fn func(MouseState)) error {
	for {
		resp, err := l.transport.ReceiveResponse(24 * time.Hour)
		if err != nil {
			return err
		}
		cmdID, payload, err := decodeResponseHeader(resp.Payload)
		if err != nil || cmdID != RspMouseState {
			continue
		}
		st, err := decodeMouseState(payload)
		if err != nil {
			continue
		}
		fn(st)
	}
}

func decodeResponseHeader(payload []byte) (cmdID uint16, rest []byte, err error) {
	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return 0, nil, fmt.Errorf("decode response command ID: %w", err)
	}
	return uint16(id), payload, nil
}

func decodeMouseState(payload []byte) (MouseState, error) {
	if len(payload) < 1 {
		return MouseState{}, fmt.Errorf("short mouse state payload")
	}
	flags := payload[0]
	payload = payload[1:]

	accX, err := protocol.DecodeVLQInt(&payload)
	if err != nil {
		return MouseState{}, fmt.Errorf("decode accX: %w", err)
	}
	accY, err := protocol.DecodeVLQInt(&payload)
	if err != nil {
		return MouseState{}, fmt.Errorf("decode accY: %w", err)
	}
	timeouts, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return MouseState{}, fmt.Errorf("decode timeout count: %w", err)
	}

	return MouseState{
		Button1:     flags&0x01 != 0,
		Button2:     flags&0x02 != 0,
		AccX:        accX,
		AccY:        accY,
		ADBTimeouts: timeouts,
	}, nil
}
