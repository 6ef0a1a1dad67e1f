package core

import "testing"

type fakeEndpoint struct {
	ready   bool
	written [][]byte
}

func (e *fakeEndpoint) IsReadWriteAllowed() bool { return e.ready }

func (e *fakeEndpoint) Write(data []byte) (int, error) {
	cp := make([]byte, len(data))
	copy(cp, data)
	e.written = append(e.written, cp)
	return len(data), nil
}

func (e *fakeEndpoint) Read(data []byte) (int, error) { return 0, nil }

func TestTickSkipsMatrixScanWhenKeyboardEndpointNotReady(t *testing.T) {
	resetScheduler()
	setTestMatrixPins()
	gpio := newMatrixFakeGPIO()
	SetGPIODriver(gpio)

	state := &AppState{}
	keyEP := &fakeEndpoint{ready: false}
	mouseEP := &fakeEndpoint{ready: false}
	adb := NewADBLine(250)

	Tick(state, adb, keyEP, mouseEP, nil)

	if !state.KeyboardSuppressPolling {
		t.Error("KeyboardSuppressPolling should be true when the endpoint isn't ready")
	}
	if len(keyEP.written) != 0 {
		t.Errorf("keyEP.written = %d reports, want 0 (polling suppressed)", len(keyEP.written))
	}
}

func TestTickSendsKeyboardReportWhenEndpointReady(t *testing.T) {
	resetScheduler()
	setTestMatrixPins()
	gpio := newMatrixFakeGPIO()
	gpio.press(RowPins[0], ColumnPins[1]) // ScEqual
	SetGPIODriver(gpio)

	state := &AppState{}
	keyEP := &fakeEndpoint{ready: true}
	mouseEP := &fakeEndpoint{ready: false}
	adb := NewADBLine(250)

	Tick(state, adb, keyEP, mouseEP, nil)

	if len(keyEP.written) != 1 {
		t.Fatalf("keyEP.written = %d reports, want 1", len(keyEP.written))
	}
	if keyEP.written[0][2] != ScEqual {
		t.Errorf("report.Keys[0] = %#02x, want ScEqual", keyEP.written[0][2])
	}
}

func TestTickPollsMouseEveryTickButOnlyReportsWhenReady(t *testing.T) {
	resetScheduler()
	setTestMatrixPins()

	reg := uint16(3) // X delta field = 3, all other bits 0 (both buttons pressed, active-low 0)
	fake := newFakeGPIO(250)
	fake.schedule = scheduleADBResponse(reg, 150)
	SetGPIODriver(fake)

	state := &AppState{}
	keyEP := &fakeEndpoint{ready: false}
	mouseEP := &fakeEndpoint{ready: false}
	adb := NewADBLine(250)

	Tick(state, adb, keyEP, mouseEP, nil)

	if state.Mouse.AccX != 3 {
		t.Errorf("AccX = %d, want 3 (polled even though mouse endpoint not ready)", state.Mouse.AccX)
	}
	if len(mouseEP.written) != 0 {
		t.Errorf("mouseEP.written = %d reports, want 0 (endpoint not ready)", len(mouseEP.written))
	}

	mouseEP.ready = true
	fake.schedule = scheduleADBResponse(reg, 150)
	Tick(state, adb, keyEP, mouseEP, nil)

	if len(mouseEP.written) != 1 {
		t.Fatalf("mouseEP.written = %d reports, want 1", len(mouseEP.written))
	}
	if state.Mouse.AccX != 0 {
		t.Errorf("AccX = %d after report, want 0 (drained)", state.Mouse.AccX)
	}
}

func TestTickAdvancesLoopTickAndDispatchesTimers(t *testing.T) {
	resetScheduler()
	setTestMatrixPins()
	gpio := newMatrixFakeGPIO()
	SetGPIODriver(gpio)

	state := &AppState{}
	keyEP := &fakeEndpoint{ready: false}
	mouseEP := &fakeEndpoint{ready: false}
	adb := NewADBLine(250)

	fired := false
	ScheduleTimer(&Timer{
		WakeTime: GetLoopTick(),
		Handler: func(*Timer) uint8 {
			fired = true
			return SF_DONE
		},
	})

	before := GetLoopTick()
	Tick(state, adb, keyEP, mouseEP, nil)

	if GetLoopTick() != before+1 {
		t.Errorf("GetLoopTick() = %d, want %d", GetLoopTick(), before+1)
	}
	if !fired {
		t.Error("due timer should have fired during Tick's TimerDispatch")
	}
}
