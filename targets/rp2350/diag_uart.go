//go:build rp2350

package main

import (
	"machine"
)

// diagUART is the diagnostic link's transport: UART0 on GPIO0 (TX) and
// GPIO1 (RX), independent of both the USB HID path and the debug UART1
// text log, so a bench tool can talk to the diagnostic link without
// interfering with either.
var diagUART *machine.UART

// InitDiagUART configures UART0 for the diagnostic link.
func InitDiagUART() {
	diagUART = machine.UART0
	diagUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
}

// diagUARTWriter adapts *machine.UART to core.UARTWriter.
type diagUARTWriter struct{}

func (diagUARTWriter) Write(p []byte) (int, error) {
	return diagUART.Write(p)
}

// readDiagInput drains whatever bytes are currently buffered on the
// diagnostic UART's RX side into buf, returning the slice actually filled.
func readDiagInput(buf []byte) []byte {
	n := 0
	for n < len(buf) && diagUART.Buffered() > 0 {
		b, err := diagUART.ReadByte()
		if err != nil {
			break
		}
		buf[n] = b
		n++
	}
	return buf[:n]
}
