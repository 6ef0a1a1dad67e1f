package core

// ADB mouse polling: queries Talk register 0 on the default mouse address
// and decodes the classic Apple mouse protocol response into a saturating
// accumulator, to be drained into a HID boot mouse report by task.go.

// adbMouseTalk0 is address 3 (default mouse address), command type 3
// (Talk), register 0 — where classic Apple mice store button/pointer state.
const adbMouseTalk0 = 0x3c

// MouseState holds the accumulated, not-yet-reported mouse deltas and
// current button state. Buttons are active-low on the wire and are stored
// here already inverted (true = pressed).
type MouseState struct {
	AccX, AccY       int16
	Button1, Button2 bool
}

// Poll queries the ADB mouse once. If the mouse has something to report,
// Button1/Button2 are replaced (not OR-ed) and the X/Y deltas are added to
// the accumulators, saturating at [-127, 127]. A timeout is not an error:
// MouseState is left untouched, since the mouse either hasn't moved or the
// controller isn't ready to be polled yet.
func (l *ADBLine) Poll(m *MouseState) {
	reg, ok := l.Read16(adbMouseTalk0)
	if !ok {
		return
	}

	m.Button1 = reg&0x8000 == 0
	m.Button2 = reg&0x0080 == 0

	x := uint8(reg & 0x007f)
	y := uint8((reg & 0x7f00) >> 8)

	m.AccX = accumulateDelta(m.AccX, x)
	m.AccY = accumulateDelta(m.AccY, y)
}

// accumulateDelta decodes a 7-bit signed ADB delta (values < 0x40 are
// positive, values >= 0x40 are negative via field-0x80) and adds it to acc,
// saturating to [accumulatedMin, accumulatedMax].
func accumulateDelta(acc int16, field uint8) int16 {
	var delta int16
	if field < 0x40 {
		delta = int16(field)
	} else {
		delta = int16(field) - 0x80
	}

	acc += delta
	if acc > accumulatedMax {
		acc = accumulatedMax
	} else if acc < accumulatedMin {
		acc = accumulatedMin
	}
	return acc
}

// Drain resets the accumulated X/Y deltas to zero and returns the values
// they held, for use when building and sending a mouse HID report.
func (m *MouseState) Drain() (x, y int8) {
	x = int8(m.AccX)
	y = int8(m.AccY)
	m.AccX = 0
	m.AccY = 0
	return x, y
}
