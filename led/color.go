// Package led implements the LED Engine: per-pixel RGB888 state and an
// animation queue/executor (static/blink/fade/rainbow) driven by
// queued LED commands, with fade timing built on the integer ramp in
// x/ramp and the clamp helpers in x/mathx.
package led

import "companion-mcu/x/mathx"

// RGB888 is one fully-resolved 8-bit-per-channel pixel value.
type RGB888 struct {
	R, G, B uint8
}

// Scale4to8 expands a 4-bit channel value to its exact 8-bit
// equivalent: u8 = u4 * 17, so 0xF maps to 0xFF.
func Scale4to8(v uint8) uint8 { return (v & 0x0F) * 17 }

// hsvToRGB is the standard six-sector (60 degrees each) HSV->RGB
// conversion, used by RAINBOW to step through fixed hues at full
// saturation and value.
func hsvToRGB(hueDeg float64) RGB888 {
	hueDeg = mathx.Clamp(hueDeg, 0, 360)
	h := hueDeg / 60.0
	sector := int(h) % 6
	f := h - float64(int(h))

	const v = 255.0
	p := 0.0
	q := v * (1 - f)
	t := v * f

	var r, g, b float64
	switch sector {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return RGB888{R: uint8(r), G: uint8(g), B: uint8(b)}
}

// RainbowHues are the seven fixed hues RAINBOW cycles through, one per
// physical LED step, evenly spaced around the color wheel.
var RainbowHues = [7]float64{0, 360.0 / 7, 2 * 360.0 / 7, 3 * 360.0 / 7, 4 * 360.0 / 7, 5 * 360.0 / 7, 6 * 360.0 / 7}
