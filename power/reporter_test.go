package power

import (
	"errors"
	"testing"
	"time"

	"companion-mcu/types"
)

type fakeSensor struct {
	ibat, pack, perCell, die int32
	fail                     bool
}

func (f *fakeSensor) Ibat_mA() (int32, error) {
	if f.fail {
		return 0, errors.New("i2c error")
	}
	return f.ibat, nil
}
func (f *fakeSensor) Battery_mVPack() (int32, error) {
	if f.fail {
		return 0, errors.New("i2c error")
	}
	return f.pack, nil
}
func (f *fakeSensor) Battery_mVPerCell() (int32, error) {
	if f.fail {
		return 0, errors.New("i2c error")
	}
	return f.perCell, nil
}
func (f *fakeSensor) Die_mC() (int32, error) {
	if f.fail {
		return 0, errors.New("i2c error")
	}
	return f.die, nil
}

func TestReporterReturnsRealValuesWhenSensorHealthy(t *testing.T) {
	s := &fakeSensor{ibat: 300, pack: 3900, perCell: 3900, die: 28000}
	r := New(s, func() int64 { return 0 }, 50*time.Millisecond)
	if got := r.Current(); got != 300 {
		t.Fatalf("Current() = %d, want 300", got)
	}
	if got := r.Voltage(); got != 3900 {
		t.Fatalf("Voltage() = %d, want 3900", got)
	}
	if got := r.Temperature(); got != 280 {
		t.Fatalf("Temperature() = %d deci-C, want 280", got)
	}
}

func TestReporterFallsBackToSyntheticOnFailure(t *testing.T) {
	s := &fakeSensor{fail: true}
	r := New(s, func() int64 { return 10 }, 10*time.Millisecond)
	if got := r.Current(); got != SyntheticCurrentMA(10) {
		t.Fatalf("Current() = %d, want synthetic %d", got, SyntheticCurrentMA(10))
	}
	if got := r.Battery(); got != SyntheticBatteryPercent(10) {
		t.Fatalf("Battery() = %d, want synthetic %d", got, SyntheticBatteryPercent(10))
	}
}

func TestCachedRealValuePreferredOverSynthetic(t *testing.T) {
	s := &fakeSensor{ibat: 321}
	r := New(s, func() int64 { return 10 }, 10*time.Millisecond)

	if got := r.Current(); got != 321 {
		t.Fatalf("Current() = %d, want real 321", got)
	}
	s.fail = true
	if got := r.Current(); got != 321 {
		t.Fatalf("Current() after failure = %d, want the cached real 321, not synthetic %d",
			got, SyntheticCurrentMA(10))
	}
}

func TestSyntheticFallbacksStayWithinDocumentedBounds(t *testing.T) {
	for ts := int64(0); ts < 3700; ts += 37 {
		if b := SyntheticBatteryPercent(ts); b < 60 || b > 90 {
			t.Fatalf("SyntheticBatteryPercent(%d) = %d, out of [60,90]", ts, b)
		}
		if v := SyntheticVoltageMV(ts); v < 3300 || v > 4200 {
			t.Fatalf("SyntheticVoltageMV(%d) = %d, out of [3300,4200]", ts, v)
		}
		if temp := SyntheticTemperatureDeciC(ts); temp < 200 || temp > 350 {
			t.Fatalf("SyntheticTemperatureDeciC(%d) = %d, out of [200,350]", ts, temp)
		}
	}
}

type debugSpy struct {
	codes []struct {
		cat         types.DebugCategory
		code, param byte
	}
}

func (d *debugSpy) Code(cat types.DebugCategory, code, param byte) {
	d.codes = append(d.codes, struct {
		cat         types.DebugCategory
		code, param byte
	}{cat, code, param})
}

func TestFailureTransitionLoggedOncePerMetric(t *testing.T) {
	s := &fakeSensor{ibat: 300}
	r := New(s, func() int64 { return 0 }, 10*time.Millisecond)
	spy := &debugSpy{}
	r.Debug = spy

	r.Current() // healthy: nothing logged
	s.fail = true
	r.Current() // OK -> FAIL: logged once
	r.Current() // still failing: not logged again

	if len(spy.codes) != 1 {
		t.Fatalf("logged %d transitions, want exactly 1", len(spy.codes))
	}
	got := spy.codes[0]
	if got.cat != types.CategoryPWR || got.param != types.PowerCurrent {
		t.Fatalf("logged %+v, want PWR category with current sub-code param", got)
	}

	// Recovery then a second failure logs again.
	s.fail = false
	r.Current()
	s.fail = true
	r.Current()
	if len(spy.codes) != 2 {
		t.Fatalf("logged %d transitions after recovery+refailure, want 2", len(spy.codes))
	}
}

func TestRequestAllEmitsFourMetricsInOrder(t *testing.T) {
	s := &fakeSensor{ibat: 1, pack: 2, perCell: 3700, die: 1000}
	r := New(s, func() int64 { return 0 }, 10*time.Millisecond)

	var order []uint8
	r.RequestAll(func(sub uint8, value uint16) { order = append(order, sub) })

	want := []uint8{types.PowerCurrent, types.PowerBattery, types.PowerTemperature, types.PowerVoltage}
	if len(order) != len(want) {
		t.Fatalf("emitted %d metrics, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("metric %d sub-code = %#x, want %#x", i, order[i], want[i])
		}
	}
}

func TestRequestAllNeverEmitsZeroOnTotalFailure(t *testing.T) {
	s := &fakeSensor{fail: true}
	r := New(s, func() int64 { return 5 }, 10*time.Millisecond)
	var values []uint16
	r.RequestAll(func(sub uint8, value uint16) { values = append(values, value) })
	for i, v := range values {
		if v == 0 {
			t.Fatalf("metric %d value is zero even with synthetic fallback active", i)
		}
	}
}
