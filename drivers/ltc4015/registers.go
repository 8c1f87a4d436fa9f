// Package ltc4015 talks to the LTC4015 battery charger/fuel-gauge IC
// over I2C. The chip's register map also covers charger setpoints,
// coulomb counting, and SMBALERT limit thresholds, but this board only
// ever reads back telemetry through it (power.Sensor), so only the
// handful of read-only registers that feed that path are named here.
package ltc4015

// AddressDefault is the LTC4015's 7-bit I2C address (1101_000b).
const AddressDefault = 0x68

// Telemetry registers, 16-bit, read-only.
const (
	regVBAT    = 0x3A // battery voltage, per-cell code
	regIBAT    = 0x3D // battery current, signed code
	regDieTemp = 0x3F // die temperature, raw ADC code
)
