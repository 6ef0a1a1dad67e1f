//go:build rp2350

package main

import (
	"github.com/someone42/powerbook-keyboard-usb/core"
	"machine"
)

// RPGPIODriver implements core.GPIODriver on the RP2350. Unlike a device
// that only ever configures each pin once at boot, the ADB line and the
// keyboard matrix's row pins flip direction constantly during normal
// operation, so Configure* always re-applies the pin mode rather than
// caching a "first configuration wins" result.
type RPGPIODriver struct{}

// NewRPGPIODriver creates a new RP2350 GPIO driver.
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{}
}

// ConfigureOutput configures a pin as a digital output.
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	d.pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

// ConfigureInputPullUp configures a pin as an input with its pull-up
// enabled.
func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	d.pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return nil
}

// SetPin sets the pin to high (true) or low (false). The pin must already
// be configured as an output.
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	d.pin(pin).Set(value)
	return nil
}

// ReadPin reads the instantaneous pin state.
func (d *RPGPIODriver) ReadPin(pin core.GPIOPin) bool {
	return d.pin(pin).Get()
}

// DelayUs busy-waits for approximately n microseconds.
func (d *RPGPIODriver) DelayUs(n uint16) {
	delayUs(n)
}

// NowUs returns the free-running 0.5us-resolution, 16-bit wraparound ticks
// described by core.GPIODriver.
func (d *RPGPIODriver) NowUs() uint16 {
	return nowTicks()
}

// pin maps a core.GPIOPin to a machine.Pin. On RP2350, pin numbers map
// directly to GPIO numbers.
func (d *RPGPIODriver) pin(pin core.GPIOPin) machine.Pin {
	return machine.Pin(pin)
}
