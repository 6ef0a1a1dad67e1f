package core

import "testing"

func TestPollDecodesButtonsAndDeltas(t *testing.T) {
	// reg: bit15=button1 (active-low, so 0 = pressed), bits14-8=Y=5,
	// bit7=button2 (active-low, 1 = released), bits6-0=X=3.
	reg := uint16(0)
	reg |= 0 << 15 // button1 pressed
	reg |= 5 << 8  // Y delta field
	reg |= 1 << 7  // button2 released
	reg |= 3        // X delta field

	fake := newFakeGPIO(2)
	fake.schedule = scheduleADBResponse(reg, 150)
	SetGPIODriver(fake)

	line := NewADBLine(2)
	var m MouseState
	line.Poll(&m)

	if !m.Button1 {
		t.Error("Button1 = false, want true (active-low bit was 0)")
	}
	if m.Button2 {
		t.Error("Button2 = true, want false (active-low bit was 1)")
	}
	if m.AccX != 3 {
		t.Errorf("AccX = %d, want 3", m.AccX)
	}
	if m.AccY != 5 {
		t.Errorf("AccY = %d, want 5", m.AccY)
	}
}

func TestPollLeavesStateUntouchedOnTimeout(t *testing.T) {
	fake := newFakeGPIO(2) // empty schedule: line never goes low
	SetGPIODriver(fake)

	line := NewADBLine(2)
	want := MouseState{AccX: 11, AccY: -7, Button1: true}
	got := want
	line.Poll(&got)

	if got != want {
		t.Errorf("Poll mutated state on timeout: got %+v, want %+v", got, want)
	}
}

func TestDrainResetsAccumulators(t *testing.T) {
	m := MouseState{AccX: 42, AccY: -42}
	x, y := m.Drain()
	if x != 42 || y != -42 {
		t.Errorf("Drain() = (%d, %d), want (42, -42)", x, y)
	}
	if m.AccX != 0 || m.AccY != 0 {
		t.Errorf("accumulators not reset: AccX=%d AccY=%d", m.AccX, m.AccY)
	}
}
