// Package core implements the hardware-free logic of the ADB/matrix-keyboard
// to USB HID bridge: the ADB line driver, the mouse poller, the matrix
// scanner, and the HID report task. It never imports a hardware package
// directly; platform code under targets/ satisfies the driver interfaces
// declared here.
package core

// GPIOPin identifies a hardware GPIO pin by its platform-level number.
type GPIOPin uint32

// GPIODriver is the abstract GPIO + microsecond-timer interface core code
// drives. Platform-specific code registers the concrete implementation via
// SetGPIODriver.
type GPIODriver interface {
	// ConfigureOutput configures a pin as an open-drain-style digital output.
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as input with its pull-up
	// enabled, so the pin floats high when nothing drives it low.
	ConfigureInputPullUp(pin GPIOPin) error

	// SetPin drives the pin high (true) or low (false). Only valid once the
	// pin has been configured as an output.
	SetPin(pin GPIOPin, value bool) error

	// ReadPin reads the instantaneous pin state.
	ReadPin(pin GPIOPin) bool

	// DelayUs busy-waits for approximately n microseconds. Used for the
	// sub-millisecond pulse widths the ADB protocol and matrix settle times
	// require; must not yield to other goroutines.
	DelayUs(n uint16)

	// NowUs returns the current value of a free-running 16-bit microsecond
	// timer at 0.5us tick resolution (2 ticks per microsecond). Callers must
	// compute differences modulo 2^16 to tolerate wraparound.
	NowUs() uint16
}

var gpioDriver GPIODriver

// SetGPIODriver registers the platform-specific driver. Called once during
// firmware bring-up, before any ADB or matrix operation runs.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the configured driver or panics if none was registered.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}

// ticksElapsedSince returns the number of 0.5us ticks that have elapsed
// since `start`, correctly handling 16-bit wraparound.
func ticksElapsedSince(start uint16) uint16 {
	return MustGPIO().NowUs() - start
}

// usElapsedSince converts ticksElapsedSince into whole microseconds.
func usElapsedSince(start uint16) uint16 {
	return ticksElapsedSince(start) / 2
}
