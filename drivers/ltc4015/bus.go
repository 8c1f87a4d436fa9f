package ltc4015

// I2C word transactions. The LTC4015 returns 16-bit registers
// little-endian (low byte first). Only reads are implemented.

func (d *Device) readWord(reg byte) (uint16, error) {
	d.cmd[0] = reg
	if err := d.i2c.Tx(d.addr, d.cmd[:1], d.resp[:2]); err != nil {
		return 0, err
	}
	return uint16(d.resp[0]) | uint16(d.resp[1])<<8, nil
}

func (d *Device) readSigned(reg byte) (int16, error) {
	v, err := d.readWord(reg)
	return int16(v), err
}
