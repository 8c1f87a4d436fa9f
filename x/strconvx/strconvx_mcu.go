//go:build rp2040

package strconvx

// From-scratch number<->string conversions for builds that must not
// pull in the standard strconv/reflect machinery. Signatures match
// strconvx_host.go's pass-through so callers never branch on build tag.
//
// Supported bases: 2..36. Floats are decimal-only (no exponent forms,
// no Inf/NaN) and are not IEEE round-trip exact; fine for debug text,
// not for anything that reparses its own output.

const digitAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

type syntaxError struct{}

func (syntaxError) Error() string { return "invalid syntax" }

func Itoa(i int) string { return FormatInt(int64(i), 10) }

func Atoi(s string) (int, error) {
	v, err := ParseInt(s, 10, 0)
	return int(v), err
}

func FormatInt(i int64, base int) string {
	if i >= 0 {
		return formatUnsigned(uint64(i), base)
	}
	return "-" + formatUnsigned(uint64(-i), base)
}

func FormatUint(u uint64, base int) string { return formatUnsigned(u, base) }

func formatUnsigned(u uint64, base int) string {
	if base < 2 || base > 36 {
		base = 10
	}
	if u == 0 {
		return "0"
	}
	var buf [64]byte
	pos := len(buf)
	b := uint64(base)
	for u > 0 {
		pos--
		buf[pos] = digitAlphabet[u%b]
		u /= b
	}
	return string(buf[pos:])
}

// ParseInt parses a signed integer; bitSize follows strconv's
// convention (0 behaves like 64) but is not used to range-check the
// magnitude beyond the int64/uint64 boundary.
func ParseInt(s string, base, bitSize int) (int64, error) {
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if base == 0 {
		base = detectBase(&s)
	}
	u, err := ParseUint(s, base, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		if u > 1<<63 {
			return 0, syntaxError{}
		}
		return -int64(u), nil
	}
	if u >= 1<<63 && !(bitSize == 64 && u == 1<<63) {
		return 0, syntaxError{}
	}
	return int64(u), nil
}

func ParseUint(s string, base, bitSize int) (uint64, error) {
	if base == 0 {
		base = detectBase(&s)
	}
	if base < 2 || base > 36 || len(s) == 0 {
		return 0, syntaxError{}
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		d, ok := digitValue(s[i])
		if !ok || int(d) >= base {
			return 0, syntaxError{}
		}
		v = v*uint64(base) + uint64(d)
	}
	return truncateToWidth(v, bitSize), nil
}

func digitValue(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'z':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'Z':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

func truncateToWidth(v uint64, bitSize int) uint64 {
	switch bitSize {
	case 8:
		return v & 0xFF
	case 16:
		return v & 0xFFFF
	case 32:
		return v & 0xFFFFFFFF
	default: // 0, 64
		return v
	}
}

// detectBase consumes a 0x/0b/0o prefix from *ps if present and
// reports the base it implies. A bare leading zero means octal, the
// same rule strconv applies for base 0, so host and MCU builds parse
// identically.
func detectBase(ps *string) int {
	s := *ps
	if len(s) >= 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			*ps = s[2:]
			return 16
		case 'b', 'B':
			*ps = s[2:]
			return 2
		case 'o', 'O':
			*ps = s[2:]
			return 8
		default:
			*ps = s[1:]
			return 8
		}
	}
	return 10
}

// FormatFloat supports only the 'f'/'g'/'e'/'E' verb argument for
// signature compatibility; all of them render as fixed-point decimal.
func FormatFloat(f float64, verb byte, prec, _ int) string {
	if verb != 'f' && verb != 'g' && verb != 'e' && verb != 'E' {
		verb = 'f'
	}
	if prec < 0 {
		prec = 6
	}
	neg := f < 0
	if neg {
		f = -f
	}
	whole := uint64(f)
	out := FormatUint(whole, 10)
	if neg {
		out = "-" + out
	}
	if prec == 0 {
		return out
	}
	frac := f - float64(whole)
	scale := 1.0
	for i := 0; i < prec; i++ {
		scale *= 10
	}
	fracDigits := FormatUint(uint64(frac*scale+0.5), 10)
	if pad := prec - len(fracDigits); pad > 0 {
		fracDigits = zeros(pad) + fracDigits
	}
	return out + "." + fracDigits
}

func zeros(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}

func ParseFloat(s string, _ int) (float64, error) {
	if len(s) == 0 {
		return 0, syntaxError{}
	}
	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}
	var whole uint64
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		whole = whole*10 + uint64(s[i]-'0')
		i++
	}
	var frac float64
	if i < len(s) && s[i] == '.' {
		i++
		scale := 1.0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			frac = frac*10 + float64(s[i]-'0')
			scale *= 10
			i++
		}
		frac /= scale
	}
	if i != len(s) {
		return 0, syntaxError{}
	}
	v := float64(whole) + frac
	if neg {
		v = -v
	}
	return v, nil
}
