package core

// fakeGPIO is a software simulation of a single monitored pin (the ADB
// line or a matrix column) driven by a scripted schedule of level changes,
// so the bit-bang protocol code can be exercised without real hardware.
// Every ReadPin call on the watched pin advances the simulated clock by
// one tick (0.5us), modeling the cost of a busy-poll.
type fakeGPIO struct {
	ticks uint16

	watchPin       GPIOPin
	inputSwitchAt  uint16 // ticks value when ConfigureInputPullUp(watchPin) last ran
	schedule       []scheduleSegment // cumulative in microseconds from inputSwitchAt

	pinState map[GPIOPin]bool
}

type scheduleSegment struct {
	untilUs uint16 // segment ends at this many us after inputSwitchAt
	level   bool
}

func newFakeGPIO(watch GPIOPin) *fakeGPIO {
	return &fakeGPIO{
		watchPin: watch,
		pinState: make(map[GPIOPin]bool),
	}
}

func (f *fakeGPIO) ConfigureOutput(pin GPIOPin) error {
	return nil
}

func (f *fakeGPIO) ConfigureInputPullUp(pin GPIOPin) error {
	if pin == f.watchPin {
		f.inputSwitchAt = f.ticks
	}
	return nil
}

func (f *fakeGPIO) SetPin(pin GPIOPin, value bool) error {
	f.pinState[pin] = value
	return nil
}

func (f *fakeGPIO) ReadPin(pin GPIOPin) bool {
	if pin != f.watchPin {
		return f.pinState[pin]
	}
	f.ticks++
	elapsedUs := (f.ticks - f.inputSwitchAt) / 2
	for _, seg := range f.schedule {
		if elapsedUs < seg.untilUs {
			return seg.level
		}
	}
	if len(f.schedule) > 0 {
		return f.schedule[len(f.schedule)-1].level
	}
	return true
}

func (f *fakeGPIO) DelayUs(n uint16) {
	f.ticks += n * 2
}

func (f *fakeGPIO) NowUs() uint16 {
	return f.ticks
}

// scheduleADBResponse builds the fake's level schedule for an 18-bit-cell
// Read-16 response (1 start + 16 data + 1 stop), encoding value's bits MSB
// first. A 1 bit is a short low pulse (under adbBitThresholdUs), a 0 bit a
// long one, matching core/adb.go's classification. preRollUs is how long
// the line stays idle-high before the device starts driving the start bit.
func scheduleADBResponse(value uint16, preRollUs uint16) []scheduleSegment {
	segs := []scheduleSegment{{untilUs: preRollUs, level: true}}
	cursor := preRollUs

	addBit := func(isOne bool) {
		var low, high uint16
		if isOne {
			low, high = 30, 40
		} else {
			low, high = 60, 40
		}
		cursor += low
		segs = append(segs, scheduleSegment{untilUs: cursor, level: false})
		cursor += high
		segs = append(segs, scheduleSegment{untilUs: cursor, level: true})
	}

	addBit(false) // start bit, value irrelevant (skipped on decode)
	for i := 15; i >= 0; i-- {
		addBit(value&(1<<uint(i)) != 0)
	}
	addBit(false) // stop bit

	return segs
}
