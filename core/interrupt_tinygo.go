//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts disables interrupts and returns the previous state so it
// can be restored later. The ADB line driver holds interrupts disabled for
// the duration of one command/response exchange (see adb.go) because pulse
// width measurement cannot tolerate arbitrary ISR latency.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores a previously captured interrupt state.
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
