package led

import (
	"sync"
	"time"

	"companion-mcu/types"
	"companion-mcu/x/mathx"
	"companion-mcu/x/ramp"
)

// PixelCount is the number of physical addressable strip pixels; the
// diagnostic pixel is addressed separately and is not part of the
// led_id mod PixelCount wrap.
const PixelCount = 7

// Ack is the outcome the engine reports for one executed sequence.
type Ack struct {
	LEDID   uint8
	Execute bool
	Data0   byte // 0xFF success, 0xFE error, else a status code
	Data1   byte // count_executed on success, error_code on error
}

// Engine holds per-pixel state and the pending-command queue, and runs
// at most one animation sequence at a time. A new execute trigger
// preempts any running sequence; Engine guarantees exactly one Ack per
// execute trigger (one for the preempted run, one for the new run).
type Engine struct {
	AckOut func(Ack)

	mu       sync.Mutex
	pixels   [PixelCount]RGB888
	diag     RGB888
	pending  []types.LEDCommand
	running  bool
	cancel   chan struct{}
	finished chan struct{}
}

// New returns an idle Engine with all pixels off.
func New(ackOut func(Ack)) *Engine {
	return &Engine{AckOut: ackOut}
}

// Pixel returns the current color of physical LED i (0-based).
func (e *Engine) Pixel(i int) RGB888 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= PixelCount {
		return RGB888{}
	}
	return e.pixels[i]
}

// SetDiag drives the diagnostic pixel. It sits outside the strip's
// led_id space: only firmware status code writes it, never Host LED
// commands.
func (e *Engine) SetDiag(c RGB888) {
	e.mu.Lock()
	e.diag = c
	e.mu.Unlock()
}

// Diag returns the diagnostic pixel's current color.
func (e *Engine) Diag() RGB888 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.diag
}

func resolveID(id uint8) int { return int(id % PixelCount) }

// Submit processes one decoded LED command: queue it if execute is
// false, or trigger execution of the pending queue (preempting any
// running sequence) if execute is true.
func (e *Engine) Submit(cmd types.LEDCommand) {
	if !cmd.Execute {
		e.mu.Lock()
		e.pending = append(e.pending, cmd)
		e.mu.Unlock()
		return
	}
	e.execute(cmd)
}

// execute preempts any running sequence (waiting for its single ack to
// be emitted), snapshots the pending queue, and starts the new sequence
// in its own goroutine. Callers invoke this from a scheduler task so it
// never blocks the UART path.
func (e *Engine) execute(trigger types.LEDCommand) {
	e.mu.Lock()
	if e.running {
		close(e.cancel)
		done := e.finished
		e.mu.Unlock()
		<-done // preempted run emits exactly one ack before we continue
		e.mu.Lock()
	}
	queue := e.pending
	e.pending = nil
	e.running = true
	e.cancel = make(chan struct{})
	e.finished = make(chan struct{})
	cancel := e.cancel
	finished := e.finished
	e.mu.Unlock()

	go e.runSequence(trigger, queue, cancel, finished)
}

// runSequence applies every queued command in order, then reports a
// single ack describing the outcome. It is always run in its own
// goroutine so the caller (a scheduler task) is not blocked for the
// duration of an animation.
func (e *Engine) runSequence(trigger types.LEDCommand, queue []types.LEDCommand, cancel, finished chan struct{}) {
	defer close(finished)

	count := 0
	for _, cmd := range queue {
		select {
		case <-cancel:
			e.emitAck(trigger, true, LEDAckComplete(count))
			return
		default:
		}
		if !e.applyOne(cmd, cancel) {
			e.emitAck(trigger, true, errAck(1))
			e.finishRun()
			return
		}
		count++
	}
	e.emitAck(trigger, true, completeAck(count))
	e.finishRun()
}

func (e *Engine) finishRun() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

func (e *Engine) emitAck(trigger types.LEDCommand, execute bool, data [2]byte) {
	if e.AckOut == nil {
		return
	}
	e.AckOut(Ack{LEDID: trigger.LEDID, Execute: execute, Data0: data[0], Data1: data[1]})
}

func completeAck(count int) [2]byte {
	if count > 255 {
		count = 255
	}
	return [2]byte{0xFF, byte(count)}
}

func errAck(code byte) [2]byte { return [2]byte{0xFE, code} }

// LEDAckComplete is completeAck exported for use when a preemption
// needs to report partial progress.
func LEDAckComplete(count int) [2]byte { return completeAck(count) }

// applyOne runs a single queued command to completion (or until
// cancelled), returning false on an internal failure.
func (e *Engine) applyOne(cmd types.LEDCommand, cancel <-chan struct{}) bool {
	color := RGB888{R: Scale4to8(cmd.R), G: Scale4to8(cmd.G), B: Scale4to8(cmd.B)}
	durMs := types.LEDTimeTableMs[cmd.TimeIdx&0x03]

	switch cmd.Mode {
	case types.LEDStatic:
		e.setPixel(cmd.LEDID, color)
		return true
	case types.LEDBlink:
		return e.blink(cmd.LEDID, color, durMs, cancel)
	case types.LEDFade:
		return e.fade(cmd.LEDID, color, durMs, cancel)
	case types.LEDRainbow:
		return e.rainbow(cmd.LEDID, durMs, cancel)
	default:
		return false
	}
}

func (e *Engine) setPixel(id uint8, c RGB888) {
	e.mu.Lock()
	if id == types.LEDBroadcastID {
		for i := range e.pixels {
			e.pixels[i] = c
		}
	} else {
		e.pixels[resolveID(id)] = c
	}
	e.mu.Unlock()
}

func yieldFor(d time.Duration, cancel <-chan struct{}) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-cancel:
		return false
	case <-t.C:
		return true
	}
}

func (e *Engine) blink(id uint8, c RGB888, durMs uint32, cancel <-chan struct{}) bool {
	half := time.Duration(durMs) * time.Millisecond
	for cycle := 0; cycle < 3; cycle++ {
		e.setPixel(id, c)
		if !yieldFor(half, cancel) {
			return true
		}
		e.setPixel(id, RGB888{})
		if !yieldFor(half, cancel) {
			return true
		}
	}
	e.setPixel(id, c) // ends lit
	return true
}

func (e *Engine) fade(id uint8, target RGB888, durMs uint32, cancel <-chan struct{}) bool {
	const steps = 10
	ok := true
	tick := func(d time.Duration) bool {
		if !ok {
			return false
		}
		if !yieldFor(d, cancel) {
			ok = false
			return false
		}
		return true
	}
	set := func(level uint16) {
		scale := func(ch uint8) uint8 {
			return uint8((uint32(ch) * uint32(level)) / 65535)
		}
		e.setPixel(id, RGB888{R: scale(target.R), G: scale(target.G), B: scale(target.B)})
	}
	ramp.StartLinear(0, 65535, 65535, durMs, steps, tick, set)
	if !ok {
		return true
	}
	ramp.StartLinear(65535, 0, 65535, durMs, steps, tick, set)
	if !ok {
		return true
	}
	e.setPixel(id, target) // ends lit
	return true
}

func (e *Engine) rainbow(id uint8, durMs uint32, cancel <-chan struct{}) bool {
	stepDur := time.Duration(mathx.Max(durMs/7, 1)) * time.Millisecond
	for _, hue := range RainbowHues {
		e.setPixel(id, hsvToRGB(hue))
		if !yieldFor(stepDur, cancel) {
			return true
		}
	}
	return true
}
