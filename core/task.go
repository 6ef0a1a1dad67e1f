package core

// The cooperative loop: one processor, no preemptive threads. Each call to
// Tick runs the keyboard task, then the mouse task, then gives the
// diagnostic link and telemetry scheduler a turn, so neither hot task is
// ever delayed waiting on bench diagnostics.

// Tick runs one iteration of the firmware's main loop. adb is the mouse's
// ADB line, keyEndpoint and mouseEndpoint are the USB HID boot-protocol
// endpoints (an external collaborator), and diag is the diagnostic link
// transport (nil is permitted — diagnostics are optional).
func Tick(state *AppState, adb *ADBLine, keyEndpoint, mouseEndpoint Endpoint, diag *DiagLink) {
	if keyEndpoint != nil && keyEndpoint.IsReadWriteAllowed() {
		state.KeyboardSuppressPolling = false
	} else {
		state.KeyboardSuppressPolling = true
	}

	if !state.KeyboardSuppressPolling {
		state.Matrix.Scan()
		report := BuildKeyboardReport(&state.Matrix.KeyPressed)
		if keyEndpoint != nil {
			if _, err := keyEndpoint.Write(report.Bytes()); err == nil {
				RecordTiming(EvtReportSent, 0, GetLoopTick(), 0, 0)
			}
		}
	}

	// The mouse is polled every tick regardless of endpoint readiness —
	// ADB devices time out harmlessly when polled with nothing to report,
	// and polling on a fixed cadence keeps the accumulator from going
	// stale. The accumulators are only drained (and the report sent) once
	// the endpoint can actually accept it.
	adb.Poll(&state.Mouse)
	if mouseEndpoint != nil && mouseEndpoint.IsReadWriteAllowed() {
		report := BuildMouseReport(&state.Mouse)
		if _, err := mouseEndpoint.Write(report.Bytes()); err == nil {
			RecordTiming(EvtReportSent, 1, GetLoopTick(), 0, 0)
		}
	}

	if diag != nil {
		diag.Poll(state)
	}

	AdvanceLoopTick()
	TimerDispatch()
}
