package core

// ADB (Apple Desktop Bus) is a single-wire, open-drain, bit-banged serial
// bus. This file implements the host-side line driver: command framing and
// the Read-16 response state machine used by the mouse poller (mouse.go).
//
// Timings and framing are taken from Microchip application note AN591 and
// from the ADB mouse trackball firmware this bridge supersedes.

const (
	// adbTimeoutUs is the per-edge wait timeout. If the line hasn't made
	// the expected transition within this many microseconds, the exchange
	// is abandoned.
	adbTimeoutUs = 255

	// adbBitThresholdUs classifies a Read-16 bit cell: a low pulse shorter
	// than this is a 1 bit, one equal to or longer than this is a 0 bit.
	adbBitThresholdUs = 50

	// StopToStartUs is the wait after switching the line to input before
	// the first WaitForLow call in Read16. AN591 specifies a 160us minimum
	// Stop-to-Start time; this driver intentionally waits only 100us so
	// there is headroom left for the WaitForLow call itself to run within
	// the overall exchange's timing budget. This is a tunable, not a
	// protocol constant — raise it if a specific ADB device needs more
	// margin before it starts responding.
	StopToStartUs = 100

	// accumulatedMin and accumulatedMax bound the mouse deltas accumulated
	// between HID reports (mouse.go); chosen to fit a signed 8-bit report
	// field.
	accumulatedMin = -127
	accumulatedMax = 127
)

// ADBLine drives a single ADB data pin.
type ADBLine struct {
	Pin GPIOPin
}

// adbTimeoutCount counts Read16 timeouts since boot, surfaced to the
// diagnostic link as part of a state snapshot. A timeout is expected
// behavior (the device has nothing to report) rather than an error, but a
// persistently high rate is a useful bench diagnostic.
var adbTimeoutCount uint32

// NewADBLine returns a line driver for the given pin. The pin is configured
// as an output, idling high, the first time a command is sent.
func NewADBLine(pin GPIOPin) *ADBLine {
	return &ADBLine{Pin: pin}
}

// Reset holds the line low for several milliseconds, then releases it. Real
// ADB trackball controllers expect this once at power-up before their first
// Talk command succeeds; it has no effect on an already-running exchange
// and is not repeated on every poll.
func (l *ADBLine) Reset() error {
	gpio := MustGPIO()
	if err := gpio.ConfigureOutput(l.Pin); err != nil {
		return err
	}
	if err := gpio.SetPin(l.Pin, true); err != nil {
		return err
	}
	delayMs(10)

	if err := gpio.SetPin(l.Pin, false); err != nil {
		return err
	}
	delayMs(4)
	return gpio.SetPin(l.Pin, true)
}

// delayMs busy-waits for approximately n milliseconds, built on the
// driver's microsecond delay.
func delayMs(n int) {
	gpio := MustGPIO()
	for i := 0; i < n; i++ {
		gpio.DelayUs(1000)
	}
}

// writeZeroBit drives one ADB 0-bit cell: 65us low, 35us high.
func (l *ADBLine) writeZeroBit() {
	gpio := MustGPIO()
	gpio.SetPin(l.Pin, false)
	gpio.DelayUs(65)
	gpio.SetPin(l.Pin, true)
	gpio.DelayUs(35)
}

// writeOneBit drives one ADB 1-bit cell: 35us low, 65us high.
func (l *ADBLine) writeOneBit() {
	gpio := MustGPIO()
	gpio.SetPin(l.Pin, false)
	gpio.DelayUs(35)
	gpio.SetPin(l.Pin, true)
	gpio.DelayUs(65)
}

// writeCommand frames and transmits one command byte: an 800us attention
// pulse, a 70us sync pulse, eight data bit cells MSB first, then a 0 stop
// bit. The line must already be configured as an output.
func (l *ADBLine) writeCommand(command uint8) {
	gpio := MustGPIO()

	gpio.SetPin(l.Pin, false)
	gpio.DelayUs(800)
	gpio.SetPin(l.Pin, true)
	gpio.DelayUs(70)

	for i := 0; i < 8; i++ {
		if command&0x80 != 0 {
			l.writeOneBit()
		} else {
			l.writeZeroBit()
		}
		command <<= 1
	}
	l.writeZeroBit() // stop bit
}

// waitFor blocks until the line reaches the desired level, or adbTimeoutUs
// elapses. Returns the elapsed microseconds, or adbTimeoutUs on timeout.
func (l *ADBLine) waitFor(level bool) uint16 {
	gpio := MustGPIO()
	start := gpio.NowUs()
	for gpio.ReadPin(l.Pin) != level {
		elapsed := usElapsedSince(start)
		if elapsed >= adbTimeoutUs {
			return adbTimeoutUs
		}
	}
	return usElapsedSince(start)
}

// Read16 sends command and reads back a 16-bit Talk response, via the
// Read-16 state machine: one start bit, sixteen data bits, one stop bit,
// each bit cell classified by how long the line was held low. Returns
// (value, true) on success. Returns (0, false) on timeout — that is not an
// error; ADB devices time out whenever they have nothing to report.
func (l *ADBLine) Read16(command uint8) (uint16, bool) {
	gpio := MustGPIO()

	state := disableInterrupts()
	defer restoreInterrupts(state)

	if err := gpio.ConfigureOutput(l.Pin); err != nil {
		return 0, false
	}
	l.writeCommand(command)

	// Switch to input and wait out the Stop-to-Start time before
	// measuring the response's bit cells.
	if err := gpio.ConfigureInputPullUp(l.Pin); err != nil {
		return 0, false
	}
	gpio.DelayUs(StopToStartUs)

	var lowDuration [18]uint16
	for i := 0; i < 18; i++ {
		if l.waitFor(false) == adbTimeoutUs {
			gpio.ConfigureOutput(l.Pin)
			gpio.SetPin(l.Pin, true)
			adbTimeoutCount++
			RecordTiming(EvtADBTimeout, 0, GetLoopTick(), uint32(command), 0)
			return 0, false
		}
		dur := l.waitFor(true)
		if dur == adbTimeoutUs {
			gpio.ConfigureOutput(l.Pin)
			gpio.SetPin(l.Pin, true)
			adbTimeoutCount++
			RecordTiming(EvtADBTimeout, 0, GetLoopTick(), uint32(command), 0)
			return 0, false
		}
		lowDuration[i] = dur
	}

	if err := gpio.ConfigureOutput(l.Pin); err != nil {
		return 0, false
	}
	gpio.SetPin(l.Pin, true)

	var value uint16
	for i := 0; i < 16; i++ {
		value <<= 1
		// lowDuration[i+1] skips over the start bit.
		if lowDuration[i+1] < adbBitThresholdUs {
			value |= 0x01
		}
	}
	return value, true
}
