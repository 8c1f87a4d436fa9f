package power

import "math"

// f is the deterministic oscillator the synthetic fallback formulas
// are built from: a sine wave folded into [-1, 1] over the period
// implied by each metric's modulus, so Host drivers see smooth
// movement instead of a flat line when the sensor is unreachable.
func f(tModPeriod, period int64) float64 {
	if period <= 0 {
		return 0
	}
	return math.Sin(2 * math.Pi * float64(tModPeriod) / float64(period))
}

// SyntheticCurrentMA returns the deterministic fallback current in mA
// for elapsed time tSeconds.
func SyntheticCurrentMA(tSeconds int64) int16 {
	v := 250.0 + 50.0*f(tSeconds%60, 60)
	return int16(v)
}

// SyntheticBatteryPercent returns the deterministic fallback battery
// percentage, clamped to [60, 90].
func SyntheticBatteryPercent(tSeconds int64) uint8 {
	v := 80.0 - math.Floor(float64(tSeconds%3600)/180.0)
	if v < 60 {
		v = 60
	}
	if v > 90 {
		v = 90
	}
	return uint8(v)
}

// SyntheticTemperatureDeciC returns the deterministic fallback
// temperature in deci-degrees-C, clamped to [20.0, 35.0] degrees.
func SyntheticTemperatureDeciC(tSeconds int64) int16 {
	v := 25.0 + 5.0*f(tSeconds%30, 30)
	if v < 20.0 {
		v = 20.0
	}
	if v > 35.0 {
		v = 35.0
	}
	return int16(v * 10)
}

// SyntheticVoltageMV returns the deterministic fallback voltage in mV,
// clamped to [3300, 4200].
func SyntheticVoltageMV(tSeconds int64) uint16 {
	v := 3700.0 + 300.0*f(tSeconds%45, 45)
	if v < 3300 {
		v = 3300
	}
	if v > 4200 {
		v = 4200
	}
	return uint16(v)
}
