// Package resource implements exclusive ownership tracking for shared
// hardware lines (GPIO pins, SPI/I2C buses): a component must claim a
// line before driving it and release it when done, so two components
// can never fight over the same pin or bus.
package resource

import (
	"sync"

	"companion-mcu/errcode"
)

// Registry tracks which owner currently holds each named resource.
type Registry struct {
	mu    sync.Mutex
	owner map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{owner: make(map[string]string)}
}

// Claim assigns name to owner if it is free. It returns errcode.PinInUse
// if some other owner already holds it; claiming the same name again
// by the same owner is a no-op success (idempotent re-claim).
func (r *Registry) Claim(name, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, held := r.owner[name]; held && cur != owner {
		return errcode.PinInUse
	}
	r.owner[name] = owner
	return nil
}

// Release frees name if owner currently holds it. Releasing a
// resource you don't own, or one that isn't claimed, is a no-op.
func (r *Registry) Release(name, owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, held := r.owner[name]; held && cur == owner {
		delete(r.owner, name)
	}
}

// OwnerOf returns the current owner of name, or "" if unclaimed.
func (r *Registry) OwnerOf(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner[name]
}

// Named hardware lines the companion firmware arbitrates, per the
// external interface's logical naming (not raw pin numbers).
const (
	LineMux         = "mux"
	LineEinkPower   = "eink_power"
	LineUSBSwitch   = "usb_switch"
	LinePMICEnable  = "pmic_en"
	LineButtonUp    = "btn_up"
	LineButtonDown  = "btn_down"
	LineButtonSel   = "btn_select"
	LineButtonPower = "btn_power"
	BusEinkSPI      = "spi:eink"
	BusFuelGaugeI2C = "i2c:fuelgauge"
	BusLEDStrip     = "led_strip"
)
