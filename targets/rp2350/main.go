//go:build rp2350

package main

import (
	"machine"

	"github.com/someone42/powerbook-keyboard-usb/core"
)

// Pin assignments for this board revision. Row/column pins follow the
// PowerBook keyboard flex-cable pinout recovered from the original
// firmware; the ADB data pin is wired to whichever GPIO carries the
// trackball's single-wire bus.
var (
	rowGPIO = [core.MatrixRows]core.GPIOPin{2, 3, 4, 5, 6, 7, 8, 9}
	colGPIO = [core.MatrixColumns]core.GPIOPin{
		10, 11, 12, 13, 14, 15, 16, 17,
		18, 19, 20, 21, 22, 26, 27, 28,
	}
	adbGPIO core.GPIOPin = 29
)

func main() {
	InitDebugUART()
	core.SetDebugWriter(DebugPrintln)
	core.SetDebugEnabled(true)

	machine.LockCore(0)

	InitClock()
	InitDiagUART()

	gpio := NewRPGPIODriver()
	core.SetGPIODriver(gpio)

	core.RowPins = rowGPIO
	core.ColumnPins = colGPIO
	if err := core.InitPins(); err != nil {
		DebugPrintln("matrix pin init failed")
	}

	adb := core.NewADBLine(adbGPIO)
	if err := adb.Reset(); err != nil {
		DebugPrintln("adb reset failed")
	}

	state := &core.AppState{}
	keyEP := newKeyboardEndpoint()
	mouseEP := newMouseEndpoint()
	diag := core.NewDiagLink(diagUARTWriter{}, state)

	DebugPrintln("=== keyboard/mouse bridge running ===")

	var rxBuf [64]byte
	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					core.DumpTimingRing()
					DebugPrintln("panic recovered in main loop")
				}
			}()

			if chunk := readDiagInput(rxBuf[:]); len(chunk) > 0 {
				diag.Receive(chunk)
			}

			core.Tick(state, adb, keyEP, mouseEP, diag)
		}()
	}
}
