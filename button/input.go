// Package button implements debounced edge events for the front-panel
// buttons as a two-stage ISR-queue -> debounced-consumer split: a
// tiny, lossy queue absorbs raw edge interrupts so the ISR never
// blocks, and a single consumer goroutine re-samples and debounces
// before the change-only BUTTON packet is emitted.
package button

import (
	"sync/atomic"
	"time"

	"companion-mcu/types"
)

// SettleDelay is how long the consumer waits after an edge before
// re-sampling the pins.
const SettleDelay = time.Millisecond

// LongPressDuration is the reserved UP+SELECT long-press threshold.
const LongPressDuration = 2 * time.Second

// USBMuxHoldDuration is the host-initiated USB-mux switch trigger: a
// 10s hold of UP+SELECT.
const USBMuxHoldDuration = 10 * time.Second

// Pins reads the current level of each button's active-high input.
type Pins interface {
	Read() (up, down, sel, power bool)
}

// Input runs the debounce consumer and emits change-only BUTTON
// packets. isrQ is a small buffered channel the GPIO edge ISR sends
// to; a full isrQ simply drops the notification (coalescing rapid
// edges is fine, since the consumer always re-samples all pins).
type Input struct {
	pins         Pins
	isrQ         chan struct{}
	emit         func(mask uint8)
	onLongPress  func()
	onUSBMuxHold func()

	lastMask   atomic.Uint32
	isrDrops   atomic.Uint32
	comboSince time.Time
	longFired  bool
	muxFired   bool
}

// New returns an Input reading pins and emitting change-only packets
// via emit. Call Run to begin the consumer loop; call NotifyEdge
// from the GPIO ISR on every edge.
func New(pins Pins, emit func(mask uint8)) *Input {
	i := &Input{pins: pins, isrQ: make(chan struct{}, 1), emit: emit}
	i.lastMask.Store(uint32(0xFF)) // sentinel: forces first real sample to be "changed"
	return i
}

// OnLongPress registers a callback for the reserved UP+SELECT 2s hold.
func (i *Input) OnLongPress(fn func()) { i.onLongPress = fn }

// OnUSBMuxHold registers a callback for the 10s UP+SELECT hold that
// triggers the host-initiated USB mux switch.
func (i *Input) OnUSBMuxHold(fn func()) { i.onUSBMuxHold = fn }

// NotifyEdge is called from the GPIO edge ISR. It never blocks: if the
// queue is full, the edge is coalesced away and ISRDrops increments,
// since the consumer will re-sample current state regardless.
func (i *Input) NotifyEdge() {
	select {
	case i.isrQ <- struct{}{}:
	default:
		i.isrDrops.Add(1)
	}
}

// ISRDrops reports how many edge notifications were coalesced away
// because the queue was already full.
func (i *Input) ISRDrops() uint32 { return i.isrDrops.Load() }

// Run is the debounce consumer loop; it blocks until stop is closed.
func (i *Input) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-i.isrQ:
			time.Sleep(SettleDelay)
			i.sampleAndMaybeEmit()
		case <-ticker.C:
			// Poll periodically too, so a held combo's long-press
			// timers fire even without further edges.
			i.sampleAndMaybeEmit()
		}
	}
}

func (i *Input) sampleAndMaybeEmit() {
	up, down, sel, power := i.pins.Read()
	var mask uint8
	if up {
		mask |= types.ButtonUp
	}
	if down {
		mask |= types.ButtonDown
	}
	if sel {
		mask |= types.ButtonSelect
	}
	if power {
		mask |= types.ButtonPower
	}

	i.trackCombo(mask)

	if uint32(mask) != i.lastMask.Load() {
		i.lastMask.Store(uint32(mask))
		if i.emit != nil {
			i.emit(mask)
		}
	}
}

const comboMask = types.ButtonUp | types.ButtonSelect

func (i *Input) trackCombo(mask uint8) {
	if mask&comboMask != comboMask {
		i.comboSince = time.Time{}
		i.longFired = false
		i.muxFired = false
		return
	}
	if i.comboSince.IsZero() {
		i.comboSince = time.Now()
		return
	}
	held := time.Since(i.comboSince)
	if !i.longFired && held >= LongPressDuration {
		i.longFired = true
		if i.onLongPress != nil {
			i.onLongPress()
		}
	}
	if !i.muxFired && held >= USBMuxHoldDuration {
		i.muxFired = true
		if i.onUSBMuxHold != nil {
			i.onUSBMuxHold()
		}
	}
}
