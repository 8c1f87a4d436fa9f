package ltc4015

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Chemistry selects which per-cell voltage scaling the telemetry
// conversions in telemetry.go use; it does not affect charging
// behavior since this driver never writes charger setpoints.
type Chemistry uint8

const (
	ChemLithium  Chemistry = iota // VBAT LSB: 192.264 µV/cell
	ChemLeadAcid                  // VBAT LSB: 128.176 µV/cell
)

// ErrRSNSBUnset is returned by current readings when Config.RSNSB_uOhm
// was left at zero: the battery-path sense resistor value is required
// to convert the raw current code into milliamps.
var ErrRSNSBUnset = errors.New("ltc4015: RSNSB_uOhm must be set for current readings")

// Config is the minimal set of board constants the driver needs to
// scale readings; it intentionally omits the chip's charger-setpoint
// and alert-limit fields since this board only polls telemetry.
type Config struct {
	Address    uint16 // 0 defaults to AddressDefault
	RSNSB_uOhm uint32 // battery-path sense resistor, in µΩ
	Cells      uint8  // series cell count, for pack-voltage scaling
	Chem       Chemistry
}

// DefaultConfig returns Lithium chemistry at the default bus address;
// the caller still must set RSNSB_uOhm for the board's sense resistor.
func DefaultConfig() Config {
	return Config{Address: AddressDefault, Chem: ChemLithium}
}

// Device is one LTC4015 instance on an I2C bus.
type Device struct {
	i2c   drivers.I2C
	addr  uint16
	cells uint8
	chem  Chemistry

	rsnsB_uOhm uint32

	// Fixed-size transaction buffers so telemetry polling never
	// allocates on a hot I2C path.
	cmd  [1]byte
	resp [2]byte
}

// New constructs a Device from cfg. It performs no I2C transaction;
// the caller's first telemetry read establishes whether the part
// actually responds.
func New(i2c drivers.I2C, cfg Config) *Device {
	addr := cfg.Address
	if addr == 0 {
		addr = AddressDefault
	}
	return &Device{
		i2c:        i2c,
		addr:       addr,
		cells:      cfg.Cells,
		chem:       cfg.Chem,
		rsnsB_uOhm: cfg.RSNSB_uOhm,
	}
}
