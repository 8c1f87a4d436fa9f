// Package display implements the e-ink display ownership handshake: a
// three-state FSM (BOOT_ANIM -> RELEASING -> HOST_OWNED) that arbitrates
// the SPI bus between the MCU's boot animation and the Host, and never
// leaves both masters active at once. Bus and line ownership go
// through resource.Registry rather than ad-hoc flags.
package display

import (
	"sync/atomic"
	"time"

	"companion-mcu/resource"
	"companion-mcu/types"
)

// State is the display owner's current phase.
type State int

const (
	BootAnim State = iota
	Releasing
	HostOwned
)

func (s State) String() string {
	switch s {
	case BootAnim:
		return "BOOT_ANIM"
	case Releasing:
		return "RELEASING"
	case HostOwned:
		return "HOST_OWNED"
	default:
		return "UNKNOWN"
	}
}

// FrameBytes is the size of one packed 1-bit 128x250 e-ink frame.
const FrameBytes = 128 * 250 / 8

// SPI abstracts the e-ink panel's SPI bus so the FSM can be tested
// without real hardware. Init/Deinit correspond to driving the panel
// bus active or high-Z.
type SPI interface {
	Init() error
	Deinit()
	WriteFrame(frame []byte) error
}

// Mux abstracts the mux GPIO line: Set(true) drives it high (MCU
// owns the panel), Set(false) drives it low (Host owns the panel).
type Mux interface {
	Set(high bool)
}

// Power abstracts the eink_power rail enable line. The panel stays
// powered across the hand-off: the Host drives it next, so only the
// bus masters swap, never the rail.
type Power interface {
	Set(on bool)
}

// Debug is the narrow logging surface the FSM needs from the debug
// channel (C10), kept as an interface to avoid a dependency cycle.
type Debug interface {
	Code(cat types.DebugCategory, code, param byte)
}

// FSM runs the BOOT_ANIM loop and handles the Host release signal.
type FSM struct {
	spi   SPI
	mux   Mux
	pwr   Power
	res   *resource.Registry
	debug Debug

	state        atomic.Int32
	releaseFlag  atomic.Bool
	frames       [][]byte
	onCompletion func()
}

// Owner name this FSM uses when claiming the mux line and SPI bus.
const owner = "display"

// New returns an FSM in BOOT_ANIM. frames are the (exactly two)
// pre-packed boot animation frames; pwr may be nil when the board has
// no switchable panel rail; onCompletion, if set, is invoked once when
// the FSM reaches HOST_OWNED.
func New(spi SPI, mux Mux, pwr Power, res *resource.Registry, debug Debug, frames [][]byte, onCompletion func()) *FSM {
	f := &FSM{spi: spi, mux: mux, pwr: pwr, res: res, debug: debug, frames: frames, onCompletion: onCompletion}
	f.state.Store(int32(BootAnim))
	return f
}

// State returns the FSM's current state.
func (f *FSM) State() State { return State(f.state.Load()) }

// RequestRelease sets the release flag, consumed by the animation loop
// at its next yield point. It never blocks and is safe to call from
// the Protocol Router.
func (f *FSM) RequestRelease() { f.releaseFlag.Store(true) }

// boot claims the panel rail, mux line and SPI bus for the MCU,
// powers the panel and initializes the bus. The invariant
// "initialized <=> mux=1" holds from this point until Deinit.
func (f *FSM) boot() error {
	if err := f.res.Claim(resource.LineEinkPower, owner); err != nil {
		return err
	}
	if err := f.res.Claim(resource.LineMux, owner); err != nil {
		return err
	}
	if err := f.res.Claim(resource.BusEinkSPI, owner); err != nil {
		return err
	}
	if f.pwr != nil {
		f.pwr.Set(true)
	}
	f.mux.Set(true)
	if err := f.spi.Init(); err != nil {
		f.mux.Set(false)
		f.res.Release(resource.BusEinkSPI, owner)
		f.res.Release(resource.LineMux, owner)
		f.res.Release(resource.LineEinkPower, owner)
		return err
	}
	return nil
}

// Run drives the BOOT_ANIM loop: two pre-packed frames at ~100ms
// cadence, yielding (and polling the release flag) every five cycles.
// It returns once the FSM has fully transitioned to HOST_OWNED. Asset
// load failure (no frames) skips straight to HOST_OWNED without ever
// leaving the bus in an uninitialized-but-owned state.
func (f *FSM) Run() {
	if len(f.frames) == 0 {
		f.logErr(1)
		f.release()
		return
	}
	if err := f.boot(); err != nil {
		f.logErr(2)
		f.release()
		return
	}

	cycle := 0
	idx := 0
	for {
		_ = f.spi.WriteFrame(f.frames[idx])
		idx = (idx + 1) % len(f.frames)
		cycle++
		time.Sleep(100 * time.Millisecond)
		if cycle%5 == 0 {
			if f.releaseFlag.Load() {
				f.release()
				return
			}
		}
	}
}

// release finishes the current refresh, de-initializes SPI
// (tri-stating the MCU pins), drives the mux low, and transitions to
// HOST_OWNED, emitting the DISPLAY completion ack via onCompletion.
// The panel rail stays powered and claimed: the Host draws frames
// next, so only the bus masters swap.
func (f *FSM) release() {
	f.state.Store(int32(Releasing))
	f.spi.Deinit()
	f.res.Release(resource.BusEinkSPI, owner)
	f.mux.Set(false)
	f.res.Release(resource.LineMux, owner)
	f.state.Store(int32(HostOwned))
	if f.onCompletion != nil {
		f.onCompletion()
	}
}

func (f *FSM) logErr(code byte) {
	if f.debug != nil {
		f.debug.Code(types.CategoryDSP, code, 0)
	}
}
