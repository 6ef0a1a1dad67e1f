package core

import "testing"

func TestRead16DecodesValue(t *testing.T) {
	cases := []uint16{0x0000, 0xffff, 0x3c5a, 0x8001}

	for _, want := range cases {
		fake := newFakeGPIO(1)
		fake.schedule = scheduleADBResponse(want, 150)
		SetGPIODriver(fake)

		line := NewADBLine(1)
		got, ok := line.Read16(0x3c)
		if !ok {
			t.Fatalf("Read16(%#x): unexpected timeout", want)
		}
		if got != want {
			t.Errorf("Read16 = %#04x, want %#04x", got, want)
		}
	}
}

func TestRead16TimesOutWhenLineNeverDriven(t *testing.T) {
	fake := newFakeGPIO(1)
	// Empty schedule: ReadPin always returns high, so waitFor(false) never
	// succeeds.
	SetGPIODriver(fake)

	before := adbTimeoutCount
	line := NewADBLine(1)
	_, ok := line.Read16(0x3c)
	if ok {
		t.Fatal("Read16: expected timeout, got a value")
	}
	if adbTimeoutCount != before+1 {
		t.Errorf("adbTimeoutCount = %d, want %d", adbTimeoutCount, before+1)
	}
}

func TestAccumulateDeltaDecodesSignedField(t *testing.T) {
	cases := []struct {
		field uint8
		want  int16
	}{
		{0x00, 0},
		{0x01, 1},
		{0x3f, 63},
		{0x40, -64},
		{0x7f, -1},
	}
	for _, c := range cases {
		got := accumulateDelta(0, c.field)
		if got != c.want {
			t.Errorf("accumulateDelta(0, %#02x) = %d, want %d", c.field, got, c.want)
		}
	}
}

func TestAccumulateDeltaSaturates(t *testing.T) {
	acc := int16(accumulatedMax - 1)
	acc = accumulateDelta(acc, 0x7f) // -1, would still be within range
	acc = accumulateDelta(acc, 0x3f) // +63, should saturate at max
	if acc != accumulatedMax {
		t.Errorf("accumulator = %d, want saturated at %d", acc, accumulatedMax)
	}

	acc = int16(accumulatedMin + 1)
	acc = accumulateDelta(acc, 0x40) // -64, should saturate at min
	if acc != accumulatedMin {
		t.Errorf("accumulator = %d, want saturated at %d", acc, accumulatedMin)
	}
}
