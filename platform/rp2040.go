//go:build rp2040

package platform

import (
	"context"
	"io"
	"machine"

	"companion-mcu/drivers/ltc4015"
	"companion-mcu/firmware"
	"companion-mcu/power"
	"companion-mcu/services/bridge"

	"github.com/jangala-dev/tinygo-uartx/uartx"
)

// Pin numbers for the handheld-rev2 board. These are board wiring, not
// protocol state, so they live here rather than in types.BoardConfig's
// UART fields (which only describe the Host-facing link).
// I2C0 keeps its default SDA/SCL pair (GP4/GP5), so nothing below may
// reuse those two.
const (
	pinButtonUp     = 18
	pinButtonDown   = 19
	pinButtonSelect = 20
	pinButtonPower  = 21
	pinPMICEnable   = 22
	pinEinkMux      = 2
	pinEinkPower    = 3
	pinUSBSwitch    = 6
	pinEinkDC       = 10
	pinEinkBusy     = 11
	pinEinkReset    = 12
)

// New returns the rp2040 hardware Deps: the companion's UART0 link to
// the Host, the three front-panel buttons, the e-ink SPI/mux pair, and
// the LTC4015 fuel gauge over I2C0.
func New() firmware.Deps {
	i2c := machine.I2C0
	_ = i2c.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	})
	cfg := ltc4015.DefaultConfig()
	cfg.RSNSB_uOhm = 10_000 // 10mΩ battery-path sense resistor on this board
	cfg.Cells = 1
	dev := ltc4015.New(i2c, cfg)

	return firmware.Deps{
		UARTDial:     dialRP2UART,
		ButtonPins:   newRP2Buttons(),
		DisplaySPI:   newRP2EinkSPI(),
		DisplayMux:   newRP2Mux(pinEinkMux),
		DisplayPower: newRP2EinkPower(pinEinkPower),
		PowerSensor:  dev,
		PMIC:         newRP2PMIC(pinPMICEnable),
		USBSwitch:    newRP2USBSwitch(pinUSBSwitch),
	}
}

// ---- UART ----

// dialRP2UART configures UART0 for cfg.Baud and returns it wrapped to
// satisfy io.ReadWriteCloser; it is the bridge.DialFunc this board
// injects, so a cold UART port is retried with backoff instead of
// failing boot outright.
func dialRP2UART(ctx context.Context, cfg bridge.UARTConfig) (io.ReadWriteCloser, error) {
	if err := uartx.UART0.Configure(uartx.UARTConfig{
		BaudRate: uint32(cfg.Baud),
		TX:       machine.Pin(cfg.TxPin),
		RX:       machine.Pin(cfg.RxPin),
	}); err != nil {
		return nil, err
	}
	return rp2UART{u: uartx.UART0}, nil
}

type rp2UART struct{ u *uartx.UART }

func (r rp2UART) Read(p []byte) (int, error)  { return r.u.Read(p) }
func (r rp2UART) Write(p []byte) (int, error) { return r.u.Write(p) }
func (r rp2UART) Close() error                { return nil }

// ---- Buttons ----

type rp2Buttons struct{ up, down, sel, pwr machine.Pin }

func newRP2Buttons() *rp2Buttons {
	b := &rp2Buttons{
		up:   machine.Pin(pinButtonUp),
		down: machine.Pin(pinButtonDown),
		sel:  machine.Pin(pinButtonSelect),
		pwr:  machine.Pin(pinButtonPower),
	}
	for _, p := range [...]machine.Pin{b.up, b.down, b.sel, b.pwr} {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	}
	return b
}

func (b *rp2Buttons) Read() (up, down, sel, power bool) {
	return b.up.Get(), b.down.Get(), b.sel.Get(), b.pwr.Get()
}

// ---- Display ----

type rp2Mux struct{ p machine.Pin }

func newRP2Mux(n int) *rp2Mux {
	m := &rp2Mux{p: machine.Pin(n)}
	m.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return m
}

func (m *rp2Mux) Set(high bool) { m.p.Set(high) }

type rp2EinkPower struct{ p machine.Pin }

func newRP2EinkPower(n int) *rp2EinkPower {
	e := &rp2EinkPower{p: machine.Pin(n)}
	e.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return e
}

func (e *rp2EinkPower) Set(on bool) { e.p.Set(on) }

// rp2EinkSPI drives the panel over the board's hardware SPI bus. Panel
// command sequences are out of scope; Init/Deinit only own the bus
// handshake the display FSM needs.
type rp2EinkSPI struct {
	dc, busy, reset machine.Pin
}

func newRP2EinkSPI() *rp2EinkSPI {
	s := &rp2EinkSPI{
		dc:    machine.Pin(pinEinkDC),
		busy:  machine.Pin(pinEinkBusy),
		reset: machine.Pin(pinEinkReset),
	}
	s.dc.Configure(machine.PinConfig{Mode: machine.PinOutput})
	s.reset.Configure(machine.PinConfig{Mode: machine.PinOutput})
	s.busy.Configure(machine.PinConfig{Mode: machine.PinInput})
	return s
}

func (s *rp2EinkSPI) Init() error {
	_ = machine.SPI0.Configure(machine.SPIConfig{Frequency: 4_000_000, Mode: 0})
	s.reset.Low()
	s.reset.High()
	return nil
}

func (s *rp2EinkSPI) Deinit() {}

func (s *rp2EinkSPI) WriteFrame(frame []byte) error {
	s.dc.High()
	return machine.SPI0.Tx(frame, nil)
}

// ---- PMIC ----

type rp2PMIC struct{ p machine.Pin }

func newRP2PMIC(n int) power.PMIC {
	pm := &rp2PMIC{p: machine.Pin(n)}
	pm.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return pm
}

func (p *rp2PMIC) SetEnable(on bool) { p.p.Set(on) }

// ---- USB mux ----

type rp2USBSwitch struct {
	p    machine.Pin
	high bool
}

func newRP2USBSwitch(n int) *rp2USBSwitch {
	s := &rp2USBSwitch{p: machine.Pin(n)}
	s.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	s.p.Low()
	return s
}

// Toggle flips the USB data path to the other consumer. Only the
// button hold gesture calls this, so no locking is needed.
func (s *rp2USBSwitch) Toggle() {
	s.high = !s.high
	s.p.Set(s.high)
}
