// Package power implements the Power Reporter (C8): cached telemetry
// backed by the fuel-gauge/charger IC driver (drivers/ltc4015), with a
// mutex-serialized I2C bus and a deterministic synthetic fallback when
// the sensor cannot be read, so the Host never observes a dropout.
package power

import (
	"sync"
	"time"

	"companion-mcu/types"
	"companion-mcu/x/mathx"
)

// Sensor is the subset of drivers/ltc4015.Device telemetry the
// reporter needs, isolated behind an interface so it can be tested
// without real I2C hardware.
type Sensor interface {
	Ibat_mA() (int32, error)
	Battery_mVPack() (int32, error)
	Battery_mVPerCell() (int32, error)
	Die_mC() (int32, error)
}

// Clock lets tests control the "elapsed seconds" the synthetic
// fallback formulas use.
type Clock func() int64

// DebugSink receives the one-time OK->FAIL transition notice per
// metric; kept as a local interface so power does not import debug.
type DebugSink interface {
	Code(cat types.DebugCategory, code, param byte)
}

// sensorFailCode is the DEBUG_CODE code for "sensor read started
// failing"; the param byte carries the metric's POWER sub-code.
const sensorFailCode byte = 1

// Reporter caches the four published metrics and serializes access to
// the shared I2C bus. Debug, if set, gets one DEBUG_CODE per metric's
// OK->FAIL transition; recoveries and repeat failures are not logged.
type Reporter struct {
	sensor  Sensor
	clock   Clock
	timeout time.Duration

	Debug DebugSink

	mu       sync.Mutex
	cached   types.PowerMetrics
	haveReal map[uint8]bool
	failing  map[uint8]bool
}

// New returns a Reporter reading from sensor, using clock for the
// fallback's time base (defaults to wall-clock seconds since start if
// nil) and a per-read timeout.
func New(sensor Sensor, clock Clock, timeout time.Duration) *Reporter {
	if clock == nil {
		start := time.Now()
		clock = func() int64 { return int64(time.Since(start).Seconds()) }
	}
	if timeout <= 0 {
		timeout = 50 * time.Millisecond
	}
	return &Reporter{sensor: sensor, clock: clock, timeout: timeout,
		haveReal: make(map[uint8]bool), failing: make(map[uint8]bool)}
}

// Current returns the current reading in mA. On failure the last real
// reading is preferred; the synthetic fallback only fills in when no
// real value was ever read.
func (r *Reporter) Current() int16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, err := r.read(types.PowerCurrent, func() (int32, error) { return r.sensor.Ibat_mA() })
	if err == nil {
		r.cached.CurrentMA = int16(v)
	} else if !r.haveReal[types.PowerCurrent] {
		r.cached.CurrentMA = SyntheticCurrentMA(r.clock())
	}
	return r.cached.CurrentMA
}

// Battery returns the battery charge estimate in percent, derived from
// per-cell voltage against a typical Li-ion range, with the same
// cached-real-over-synthetic preference as Current.
func (r *Reporter) Battery() uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, err := r.read(types.PowerBattery, func() (int32, error) { return r.sensor.Battery_mVPerCell() })
	if err == nil {
		r.cached.BatteryPercent = percentFromMVPerCell(v)
	} else if !r.haveReal[types.PowerBattery] {
		r.cached.BatteryPercent = SyntheticBatteryPercent(r.clock())
	}
	return r.cached.BatteryPercent
}

// Temperature returns the die temperature in deci-degrees-C.
func (r *Reporter) Temperature() int16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, err := r.read(types.PowerTemperature, func() (int32, error) { return r.sensor.Die_mC() })
	if err == nil {
		r.cached.TemperatureDeciC = int16(v / 100)
	} else if !r.haveReal[types.PowerTemperature] {
		r.cached.TemperatureDeciC = SyntheticTemperatureDeciC(r.clock())
	}
	return r.cached.TemperatureDeciC
}

// Voltage returns the battery pack voltage in mV.
func (r *Reporter) Voltage() uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, err := r.read(types.PowerVoltage, func() (int32, error) { return r.sensor.Battery_mVPack() })
	if err == nil {
		r.cached.VoltageMV = uint16(mathx.Clamp(v, 0, 65535))
	} else if !r.haveReal[types.PowerVoltage] {
		r.cached.VoltageMV = SyntheticVoltageMV(r.clock())
	}
	return r.cached.VoltageMV
}

// read performs one bounded-timeout sensor access, keyed by the
// metric's POWER sub-code. The mutex is held by the caller for the
// whole metric update, matching the single dedicated I2C mutex
// described for the bus.
func (r *Reporter) read(metric uint8, fn func() (int32, error)) (int32, error) {
	type result struct {
		v   int32
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case res := <-ch:
		r.noteOutcome(metric, res.err != nil)
		return res.v, res.err
	case <-time.After(r.timeout):
		r.noteOutcome(metric, true)
		return 0, errTimeout{}
	}
}

func (r *Reporter) noteOutcome(metric uint8, failed bool) {
	wasFailing := r.failing[metric]
	r.failing[metric] = failed
	if !failed {
		r.haveReal[metric] = true
	}
	if failed && !wasFailing && r.Debug != nil {
		r.Debug.Code(types.CategoryPWR, sensorFailCode, metric)
	}
}

type errTimeout struct{}

func (errTimeout) Error() string { return "power: sensor read timeout" }

func percentFromMVPerCell(mv int32) uint8 {
	const minMV, maxMV = 3000, 4200 // typical Li-ion per-cell range
	pct := (mv - minMV) * 100 / (maxMV - minMV)
	return uint8(mathx.Clamp(pct, 0, 100))
}

// RequestAll emits the four metrics in the fixed order the protocol
// requires for request_all: current, battery, temperature, voltage.
// emit is called once per metric with its POWER sub-code and value.
func (r *Reporter) RequestAll(emit func(subCode uint8, value uint16)) {
	emit(types.PowerCurrent, uint16(r.Current()))
	emit(types.PowerBattery, uint16(r.Battery()))
	emit(types.PowerTemperature, uint16(r.Temperature()))
	emit(types.PowerVoltage, r.Voltage())
}
