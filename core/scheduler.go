package core

// Timer represents a task scheduled to fire at or after a future loop tick.
// This clock is independent of the ADB line driver's microsecond timer: it
// advances once per iteration of the cooperative loop (task.go), and the
// telemetry scheduler (diag.go) is its only consumer.
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1

	// TimerPastThreshold bounds how many loop ticks a timer may be overdue
	// before it's treated as missed rather than merely late. A missed timer
	// is removed from the list without its handler running and is not
	// rescheduled, so for the telemetry timer the periodic push stops;
	// there's no stepper pulse stream here to fall fatally behind on.
	TimerPastThreshold = 10000
)

var (
	timerList       *Timer
	currentTick     uint32
	timerPastErrors uint32 // Count of "timer in past" errors
)

// AdvanceLoopTick advances the scheduler's clock by one tick. Called once
// per iteration of the cooperative loop in task.go, after the keyboard and
// mouse tasks have run.
func AdvanceLoopTick() {
	currentTick++
}

// GetLoopTick returns the current value of the scheduler's loop-tick clock.
func GetLoopTick() uint32 {
	return currentTick
}

// SetLoopTick sets the scheduler's clock directly (tests only).
func SetLoopTick(tick uint32) {
	currentTick = tick
}

// ScheduleTimer adds a timer to the schedule
func ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	// Insert timer in sorted order
	insertTimer(t)
}

// insertTimer inserts a timer in sorted order by WakeTime
// Uses signed comparison to handle 32-bit wrap-around correctly
func insertTimer(t *Timer) {
	// Use signed comparison: int32(a - b) < 0 means a is before b
	// This handles wrap-around correctly within half the 32-bit range (2^31 loop ticks)
	if timerList == nil || int32(t.WakeTime-timerList.WakeTime) < 0 {
		t.Next = timerList
		timerList = t
		return
	}

	current := timerList
	for current.Next != nil && int32(current.Next.WakeTime-t.WakeTime) < 0 {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// TimerDispatch processes due timers. Call once per loop iteration, after
// AdvanceLoopTick, from the diagnostic-link step of task.go's cooperative
// loop.
func TimerDispatch() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	// Process all timers with WakeTime <= currentTick.
	// Use signed comparison to handle 32-bit wrap-around:
	// int32(currentTick - WakeTime) >= 0 means timer is due
	for timerList != nil && int32(currentTick-timerList.WakeTime) >= 0 {
		timer := timerList
		timerList = timer.Next
		timer.Next = nil // Clear Next pointer to avoid circular references

		// A telemetry timer that's badly overdue is dropped without running
		// and is not rescheduled; there's no step rate to fall fatally
		// behind here.
		tickDiff := int32(currentTick - timer.WakeTime)
		if tickDiff > int32(TimerPastThreshold) {
			timerPastErrors++
			DebugPrintln("[SCHED] telemetry timer missed, skipping")
			RecordTiming(EvtTimerPast, 0, currentTick, timer.WakeTime, uint32(tickDiff))
			continue
		}

		// Call handler
		result := timer.Handler(timer)

		// Reschedule if requested
		if result == SF_RESCHEDULE {
			insertTimer(timer)
		}
	}
}

// GetTimerPastErrors returns the count of timer-in-past errors
func GetTimerPastErrors() uint32 {
	return timerPastErrors
}

// ResetTimerPastErrors resets the error counter
func ResetTimerPastErrors() {
	timerPastErrors = 0
}
