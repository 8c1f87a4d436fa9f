package ltc4015

// The four getters below are exactly the surface power.Sensor needs;
// each turns one raw register code into the physical unit the Power
// Reporter caches, using the LTC4015 datasheet's fixed per-LSB scales.

// Battery_mVPerCell reads VBAT and scales it by the configured
// chemistry's per-cell LSB (Lithium and lead-acid packs use different
// constants).
func (d *Device) Battery_mVPerCell() (int32, error) {
	raw, err := d.readWord(regVBAT)
	if err != nil {
		return 0, err
	}
	nV := int64(192264) // Lithium: 192.264 µV/LSB
	if d.chem == ChemLeadAcid {
		nV = 128176 // Lead-acid: 128.176 µV/LSB
	}
	uV := (int64(raw) * nV) / 1000 // nV -> µV
	return int32(uV / 1000), nil   // µV -> mV
}

// Battery_mVPack scales the per-cell reading by the configured series
// cell count; with Cells left at zero it returns the per-cell reading
// unscaled, which is the only sane behavior for an unconfigured pack.
func (d *Device) Battery_mVPack() (int32, error) {
	perCell, err := d.Battery_mVPerCell()
	if err != nil {
		return 0, err
	}
	if d.cells == 0 {
		return perCell, nil
	}
	return perCell * int32(d.cells), nil
}

// Ibat_mA reads the signed battery current code and scales it through
// the battery-path sense resistor supplied in Config.
func (d *Device) Ibat_mA() (int32, error) {
	if d.rsnsB_uOhm == 0 {
		return 0, ErrRSNSBUnset
	}
	raw, err := d.readSigned(regIBAT)
	if err != nil {
		return 0, err
	}
	uA := (int64(raw) * 1464870) / int64(d.rsnsB_uOhm) // 1.46487 µV/RSNSB per LSB
	return int32(uA / 1000), nil
}

// Die_mC reads the die temperature code and converts it to milli-°C.
func (d *Device) Die_mC() (int32, error) {
	raw, err := d.readSigned(regDieTemp)
	if err != nil {
		return 0, err
	}
	return int32((int64(raw) - 12010) * 10000 / 456), nil
}
