package protocol

import (
	"sync/atomic"

	"companion-mcu/display"
	"companion-mcu/led"
	"companion-mcu/power"
	"companion-mcu/scheduler"
	"companion-mcu/types"
)

// FirmwareVersionMajor/Minor are echoed by the SYSTEM version reply.
const (
	FirmwareVersionMajor = 1
	FirmwareVersionMinor = 0
)

// DebugSink is the narrow logging surface the Router needs from the
// Debug Channel (C10). It is a local interface (rather than a direct
// import of package debug) because debug itself imports protocol for
// frame encoding; importing debug here would create a cycle.
type DebugSink interface {
	Code(cat types.DebugCategory, code, param byte)
}

// Router implements the Protocol Router (C4): given a validated,
// CRC-checked packet, it parses kind-specific sub-flags and data bytes
// per the wire format and submits a scheduler task to the appropriate
// priority queue. The router never performs SPI, animation, or I2C
// work itself -- that happens inside the submitted task or, for LED
// and Display completions, asynchronously via the callbacks those
// subsystems were constructed with.
type Router struct {
	Sched    *scheduler.Scheduler
	LED      *led.Engine
	Display  *display.FSM
	Power    *power.Reporter
	PowerCtl *power.Controller
	Debug    DebugSink
	EmitCh   func(frame [FrameSize]byte)
	ResetFn  func()

	dropped atomic.Uint32
}

// New returns a Router wired to the given subsystems. emit is the
// outbound-packet sink: conventionally the UART writer task that holds
// the TX lock only for the duration of one 4-byte write.
func New(sched *scheduler.Scheduler, ledEngine *led.Engine, disp *display.FSM, pwr *power.Reporter, powerCtl *power.Controller, dbg DebugSink, emit func(frame [FrameSize]byte)) *Router {
	return &Router{Sched: sched, LED: ledEngine, Display: disp, Power: pwr, PowerCtl: powerCtl, Debug: dbg, EmitCh: emit}
}

// Dropped reports how many incoming packets were of an unknown or
// EXTENDED kind and were silently discarded.
func (r *Router) Dropped() uint32 { return r.dropped.Load() }

func (r *Router) emit(frame [FrameSize]byte) {
	if r.EmitCh != nil {
		r.EmitCh(frame)
	}
}

func (r *Router) submit(p scheduler.Priority, name string, fn func() error) {
	r.Sched.Submit(p, &scheduler.Task{Name: name, Fn: fn})
}

// Dispatch parses one validated packet and routes it to its handler.
// It never blocks: all work that might take more than a few
// microseconds is handed to the scheduler.
func (r *Router) Dispatch(pkt types.Packet) {
	switch pkt.Kind {
	case types.KindSystem:
		r.dispatchSystem(pkt)
	case types.KindLED:
		r.dispatchLED(pkt)
	case types.KindPower:
		r.dispatchPower(pkt)
	case types.KindDisplay:
		r.dispatchDisplay(pkt)
	case types.KindButton, types.KindDebugCode, types.KindDebugText:
		// MCU->Host only; a packet of this kind from the Host is
		// never expected and is treated like an unknown packet.
		r.drop()
	default: // KindExtended and anything else
		r.drop()
	}
}

func (r *Router) drop() {
	r.dropped.Add(1)
	if r.Debug != nil {
		r.Debug.Code(types.CategoryUART, 1, 0)
	}
}

func (r *Router) dispatchSystem(pkt types.Packet) {
	switch pkt.SubFlags {
	case types.SystemPing:
		r.submit(scheduler.High, "system-ping", func() error {
			// Pong echoes the ping sub-code; data0 carries the ack so
			// the Host can match request to reply on the sub-flag byte.
			r.emit(Encode(types.KindSystem, types.SystemPing, types.SystemPong, 0))
			return nil
		})
	case types.SystemVersion:
		r.submit(scheduler.High, "system-version", func() error {
			r.emit(Encode(types.KindSystem, types.SystemVersion, FirmwareVersionMajor, FirmwareVersionMinor))
			return nil
		})
	case types.SystemStatus:
		r.submit(scheduler.High, "system-status", func() error {
			var dispState byte
			if r.Display != nil {
				dispState = byte(r.Display.State())
			}
			var pwrState byte
			if r.PowerCtl != nil {
				pwrState = byte(r.PowerCtl.State())
			}
			r.emit(Encode(types.KindSystem, types.SystemStatus, pwrState, dispState))
			return nil
		})
	case types.SystemReset:
		r.submit(scheduler.High, "system-reset", func() error {
			r.emit(Encode(types.KindSystem, types.SystemReset, 0, 0))
			if r.ResetFn != nil {
				r.ResetFn()
			}
			return nil
		})
	default:
		r.drop()
	}
}

func (r *Router) dispatchLED(pkt types.Packet) {
	cmd := ParseLEDCommand(pkt)
	r.submit(scheduler.Normal, "led-command", func() error {
		if r.LED != nil {
			r.LED.Submit(cmd)
		}
		return nil
	})
}

func (r *Router) dispatchPower(pkt types.Packet) {
	switch pkt.SubFlags {
	case types.PowerQuery:
		r.submit(scheduler.High, "power-query", func() error {
			var state byte
			if r.PowerCtl != nil {
				state = byte(r.PowerCtl.State())
			}
			r.emit(Encode(types.KindPower, types.PowerQuery, state, 0))
			return nil
		})
	case types.PowerSetState:
		r.submit(scheduler.High, "power-set-state", func() error {
			var result types.PowerState
			if r.PowerCtl != nil {
				result = r.PowerCtl.SetState(types.PowerState(pkt.Data0))
			}
			r.emit(Encode(types.KindPower, types.PowerSetState, byte(result), 0))
			return nil
		})
	case types.PowerSleep:
		r.submit(scheduler.High, "power-sleep", func() error {
			var result types.PowerState
			if r.PowerCtl != nil {
				result = r.PowerCtl.Sleep()
			}
			r.emit(Encode(types.KindPower, types.PowerSleep, byte(result), 0))
			return nil
		})
	case types.PowerShutdown:
		r.submit(scheduler.High, "power-shutdown", func() error {
			var result types.PowerState
			if r.PowerCtl != nil {
				result = r.PowerCtl.Shutdown()
			}
			r.emit(Encode(types.KindPower, types.PowerShutdown, byte(result), 0))
			return nil
		})
	case types.PowerCurrent:
		r.submit(scheduler.High, "power-current", func() error {
			r.emit(EncodePowerReply(types.PowerCurrent, uint16(r.Power.Current())))
			return nil
		})
	case types.PowerBattery:
		r.submit(scheduler.High, "power-battery", func() error {
			r.emit(EncodePowerReply(types.PowerBattery, uint16(r.Power.Battery())))
			return nil
		})
	case types.PowerTemperature:
		r.submit(scheduler.High, "power-temperature", func() error {
			r.emit(EncodePowerReply(types.PowerTemperature, uint16(r.Power.Temperature())))
			return nil
		})
	case types.PowerVoltage:
		r.submit(scheduler.High, "power-voltage", func() error {
			r.emit(EncodePowerReply(types.PowerVoltage, r.Power.Voltage()))
			return nil
		})
	case types.PowerRequestAll:
		r.submit(scheduler.High, "power-request-all", func() error {
			r.Power.RequestAll(func(subCode uint8, value uint16) {
				r.emit(EncodePowerReply(subCode, value))
			})
			return nil
		})
	default:
		r.drop()
	}
}

func (r *Router) dispatchDisplay(pkt types.Packet) {
	switch pkt.SubFlags {
	case types.DisplayRelease:
		if pkt.Data0 != 0xFF {
			r.drop()
			return
		}
		r.submit(scheduler.High, "display-release", func() error {
			if r.Display != nil {
				r.Display.RequestRelease()
			}
			return nil
		})
	case types.DisplayStatus:
		r.submit(scheduler.High, "display-status", func() error {
			var state byte
			if r.Display != nil {
				state = byte(r.Display.State())
			}
			r.emit(Encode(types.KindDisplay, types.DisplayStatus, state, 0))
			return nil
		})
	default:
		r.drop()
	}
}
