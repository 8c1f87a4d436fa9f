package mathx

import "golang.org/x/exp/constraints"

// Min returns the smaller of a and b.
func Min[T constraints.Ordered](a, b T) T {
	if b < a {
		return b
	}
	return a
}

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if b > a {
		return b
	}
	return a
}

// Clamp restricts v to the closed interval [lo, hi], tolerating a
// caller that passes the bounds reversed.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	lo, hi = Min(lo, hi), Max(lo, hi)
	return Max(lo, Min(v, hi))
}

// Between reports whether v falls within [lo, hi], order-insensitive.
func Between[T constraints.Ordered](v, lo, hi T) bool {
	lo, hi = Min(lo, hi), Max(lo, hi)
	return v >= lo && v <= hi
}

// Abs returns the absolute value of a signed integer x.
func Abs[T ~int | ~int8 | ~int16 | ~int32 | ~int64](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
