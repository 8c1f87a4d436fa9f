package ramp

import (
	"time"

	"companion-mcu/x/mathx"
)

// Step sets the new logical level in [0..top].
type Step func(level uint16)

// Tick waits for d and reports whether to continue (false => cancelled).
type Tick func(d time.Duration) bool

// StartLinear runs a synchronous (caller-driven) integer ramp from cur
// toward to, clamped to top, spread evenly over durationMs in the
// given number of steps. Call it from a goroutine and provide Tick to
// handle timing and cancellation. steps==0 or durationMs==0 snaps
// straight to the target.
func StartLinear(cur, to, top uint16, durationMs uint32, steps uint16, tick Tick, set Step) {
	target := mathx.Min(to, top)
	if steps == 0 || durationMs == 0 {
		set(target)
		return
	}
	stepDur := time.Duration(mathx.Max(durationMs/uint32(steps), 1)) * time.Millisecond

	last := cur
	for i := uint16(1); i < steps; i++ {
		if !tick(stepDur) {
			return
		}
		frac := uint16(uint32(i) * 65535 / uint32(steps))
		level := mathx.Min(mathx.LerpU16(cur, target, frac), top)
		if level != last {
			last = level
			set(level)
		}
	}
	set(target)
}
