//go:build !rp2040

// Package strconvx mirrors a slice of the standard strconv API under
// one set of signatures that both a desk host (this file, a thin
// pass-through to strconv) and the MCU (strconvx_mcu.go, a from-scratch
// implementation) can satisfy.
package strconvx

import "strconv"

func Itoa(i int) string          { return strconv.Itoa(i) }
func Atoi(s string) (int, error) { return strconv.Atoi(s) }

func FormatInt(i int64, base int) string    { return strconv.FormatInt(i, base) }
func FormatUint(u uint64, base int) string  { return strconv.FormatUint(u, base) }
func FormatFloat(f float64, verb byte, prec, bitSize int) string {
	return strconv.FormatFloat(f, verb, prec, bitSize)
}

func ParseInt(s string, base, bitSize int) (int64, error) {
	return strconv.ParseInt(s, base, bitSize)
}
func ParseUint(s string, base, bitSize int) (uint64, error) {
	return strconv.ParseUint(s, base, bitSize)
}
func ParseFloat(s string, bitSize int) (float64, error) { return strconv.ParseFloat(s, bitSize) }
