package core

// AppState aggregates the hot-path state that would otherwise be scattered
// across package-level globals: matrix scan state, mouse accumulator, and
// the polling throttle that lets a slow host endpoint skip matrix scans
// rather than fall behind.
type AppState struct {
	Matrix Matrix
	Mouse  MouseState

	// KeyboardSuppressPolling, when true, skips the matrix scan for this
	// tick — set when the keyboard endpoint isn't ready to accept a new
	// report, so scan state doesn't drift further ahead of what's been
	// reported.
	KeyboardSuppressPolling bool
}

// Snapshot is a point-in-time, by-value copy of the fields the diagnostic
// link may report on. It is never a pointer into AppState: a bug in
// diagnostic-link parsing must not be able to corrupt keyboard or mouse
// state (SPEC_FULL.md §9).
type Snapshot struct {
	KeysPressed []uint8
	Button1     bool
	Button2     bool
	AccX, AccY  int16
	ADBTimeouts uint32
}

// TakeSnapshot copies out the fields a telemetry push or a get_key_state /
// get_mouse_state diagnostic response needs.
func (s *AppState) TakeSnapshot() Snapshot {
	var keys []uint8
	for sc := 0; sc < 256; sc++ {
		if s.Matrix.KeyPressed[sc] {
			keys = append(keys, uint8(sc))
		}
	}
	return Snapshot{
		KeysPressed: keys,
		Button1:     s.Mouse.Button1,
		Button2:     s.Mouse.Button2,
		AccX:        s.Mouse.AccX,
		AccY:        s.Mouse.AccY,
		ADBTimeouts: adbTimeoutCount,
	}
}
