package core

// HID boot-protocol report construction: the 8-byte keyboard report and the
// button+delta mouse report, plus the abstract endpoint the USB stack
// (an external collaborator, never implemented here) must satisfy.

// USB HID keyboard/keypad usage IDs, boot-protocol subset. Names match the
// USB HID Usage Tables spec, not the physical legend on any one keycap.
const (
	ScA            = 0x04
	ScB            = 0x05
	ScC            = 0x06
	ScD            = 0x07
	ScE            = 0x08
	ScF            = 0x09
	ScG            = 0x0A
	ScH            = 0x0B
	ScI            = 0x0C
	ScJ            = 0x0D
	ScK            = 0x0E
	ScL            = 0x0F
	ScM            = 0x10
	ScN            = 0x11
	ScO            = 0x12
	ScP            = 0x13
	ScQ            = 0x14
	ScR            = 0x15
	ScS            = 0x16
	ScT            = 0x17
	ScU            = 0x18
	ScV            = 0x19
	ScW            = 0x1A
	ScX            = 0x1B
	ScY            = 0x1C
	ScZ            = 0x1D
	Sc1            = 0x1E
	Sc2            = 0x1F
	Sc3            = 0x20
	Sc4            = 0x21
	Sc5            = 0x22
	Sc6            = 0x23
	Sc7            = 0x24
	Sc8            = 0x25
	Sc9            = 0x26
	Sc0            = 0x27
	ScEnter        = 0x28
	ScEscape       = 0x29
	ScBackspace    = 0x2A
	ScTab          = 0x2B
	ScSpace        = 0x2C
	ScMinus        = 0x2D
	ScEqual        = 0x2E
	ScLeftBracket  = 0x2F
	ScRightBracket = 0x30
	ScBackslash    = 0x31
	ScSemicolon    = 0x33
	ScApostrophe   = 0x34
	ScGrave        = 0x35
	ScComma        = 0x36
	ScPeriod       = 0x37
	ScSlash        = 0x38
	ScCapsLock     = 0x39
	ScUpArrow      = 0x52
	ScDownArrow    = 0x51
	ScLeftArrow    = 0x50
	ScRightArrow   = 0x4F
	ScLeftControl  = 0xE0
	ScLeftShift    = 0xE1
	ScLeftAlt      = 0xE2
	ScLeftGUI      = 0xE3
)

// modifierScanCodes lists the eight boot-report modifier scan codes, bit
// position = index into this slice (bit 0 = ScLeftControl, matching the HID
// boot keyboard report modifier byte layout).
var modifierScanCodes = [8]uint8{
	ScLeftControl, ScLeftShift, ScLeftAlt, ScLeftGUI,
	0, 0, 0, 0, // right-hand modifiers: no physical key on this matrix
}

// KeyboardReport is the 8-byte USB HID boot-protocol keyboard report:
// modifier bitmask, a reserved byte, and six keycode slots.
type KeyboardReport struct {
	Modifiers byte
	Reserved  byte
	Keys      [6]byte
}

// BuildKeyboardReport scans the 256-entry cooked key-state table and
// produces a boot report. Modifier keys set a bit in Modifiers rather than
// occupying a keycode slot. If more than six non-modifier keys are pressed
// simultaneously, all six slots are set to 0x01 (phantom/rollover) per the
// boot protocol's rollover convention, rather than reporting an arbitrary
// subset.
func BuildKeyboardReport(keyPressed *[256]bool) KeyboardReport {
	var report KeyboardReport

	for bit, sc := range modifierScanCodes {
		if sc != 0 && keyPressed[sc] {
			report.Modifiers |= 1 << uint(bit)
		}
	}

	slot := 0
	rollover := false
	for sc := 0; sc < 256; sc++ {
		if !keyPressed[sc] || isModifierScanCode(uint8(sc)) {
			continue
		}
		if slot >= 6 {
			rollover = true
			break
		}
		report.Keys[slot] = uint8(sc)
		slot++
	}

	if rollover {
		RecordTiming(EvtRollover, 0, GetLoopTick(), 0, 0)
		for i := range report.Keys {
			report.Keys[i] = 0x01
		}
	}

	return report
}

func isModifierScanCode(sc uint8) bool {
	for _, m := range modifierScanCodes {
		if m != 0 && m == sc {
			return true
		}
	}
	return false
}

// MouseReport is the USB HID boot-protocol mouse report: a button bitmask
// plus signed 8-bit X/Y deltas.
type MouseReport struct {
	Buttons byte
	X, Y    int8
}

// BuildMouseReport converts accumulated mouse state into a report and
// drains the accumulators. Button1 is bit 0, Button2 is bit 1.
func BuildMouseReport(m *MouseState) MouseReport {
	var report MouseReport
	if m.Button1 {
		report.Buttons |= 0x01
	}
	if m.Button2 {
		report.Buttons |= 0x02
	}
	report.X, report.Y = m.Drain()
	return report
}

// Endpoint abstracts the USB HID endpoint the reports above are written to.
// The concrete USB stack behind it is an external collaborator never
// implemented in this package.
type Endpoint interface {
	// IsReadWriteAllowed reports whether the endpoint is currently
	// configured and ready to accept a report.
	IsReadWriteAllowed() bool

	// Write sends one report's raw bytes.
	Write(data []byte) (int, error)

	// Read reads host-to-device output reports (e.g. LED state); not used
	// by the boot keyboard/mouse reports built above but required to
	// satisfy the endpoint's handshake.
	Read(data []byte) (int, error)
}

// Bytes serializes a KeyboardReport into its 8-byte wire form.
func (r KeyboardReport) Bytes() []byte {
	return []byte{r.Modifiers, r.Reserved, r.Keys[0], r.Keys[1], r.Keys[2], r.Keys[3], r.Keys[4], r.Keys[5]}
}

// Bytes serializes a MouseReport into its 3-byte wire form.
func (r MouseReport) Bytes() []byte {
	return []byte{r.Buttons, byte(r.X), byte(r.Y)}
}
