//go:build rp2040

package fmtx

import (
	"io"
	"unicode/utf8"

	"companion-mcu/x/strconvx"
)

// DefaultOutput is used by Print/Printf on MCU builds.
// Set this from your platform bootstrap (e.g. a UART writer).
var DefaultOutput io.Writer = discard{}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// --- Public API (signatures match fmt) ---

func Sprintf(format string, a ...any) string {
	var w writer
	w.vprintf(format, a)
	return string(w)
}

func Printf(format string, a ...any) (int, error) {
	return Fprint(DefaultOutput, Sprintf(format, a...))
}

func Fprintf(w io.Writer, format string, a ...any) (int, error) {
	return Fprint(w, Sprintf(format, a...))
}

func Errorf(format string, a ...any) error {
	return &stringError{Sprintf(format, a...)}
}

func Sprint(a ...any) string {
	var w writer
	for i, v := range a {
		if i > 0 {
			w.push(' ')
		}
		w.value(v, 'v')
	}
	return string(w)
}

func Fprint(w io.Writer, a ...any) (int, error) {
	return w.Write([]byte(Sprint(a...)))
}

func Print(a ...any) (int, error) { return Fprint(DefaultOutput, a...) }

// --- Internals: tiny formatter subset ---
// Supports: %s %q %d %x %X %v %t %% and width/precision for %s (basic).
// No flags (+, space, #) beyond hex case; keep MCU cost low.

type stringError struct{ s string }

func (e *stringError) Error() string { return e.s }

// writer accumulates formatted output. A named byte slice rather than
// a struct, so append stays the only growth path.
type writer []byte

func (w *writer) push(c byte)         { *w = append(*w, c) }
func (w *writer) pushString(s string) { *w = append(*w, s...) }

// spec is one parsed %-directive: optional width, optional precision,
// and the verb rune.
type spec struct {
	width   int
	prec    int
	hasPrec bool
	verb    byte
}

// vprintf walks format, copying literal bytes and expanding each
// %-directive against the next argument.
func (w *writer) vprintf(format string, args []any) {
	next := 0
	for i := 0; i < len(format); {
		c := format[i]
		if c != '%' {
			w.push(c)
			i++
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			w.push('%')
			i += 2
			continue
		}
		sp, rest, ok := parseSpec(format, i+1)
		if !ok || next >= len(args) {
			return
		}
		i = rest
		w.directive(sp, args[next])
		next++
	}
}

// parseSpec reads "<width>.<prec><verb>" starting at i (just past the
// '%'), returning the parsed spec and the index after the verb.
func parseSpec(format string, i int) (sp spec, rest int, ok bool) {
	i, sp.width = scanInt(format, i)
	if i < len(format) && format[i] == '.' {
		sp.hasPrec = true
		i, sp.prec = scanInt(format, i+1)
	}
	if i >= len(format) {
		return sp, i, false
	}
	sp.verb = format[i]
	return sp, i + 1, true
}

func scanInt(s string, i int) (int, int) {
	n := 0
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	return i, n
}

// directive renders one argument under one parsed %-spec.
func (w *writer) directive(sp spec, arg any) {
	switch sp.verb {
	case 's', 'q':
		s, ok := stringArg(arg)
		if !ok {
			w.value(arg, 'v')
			return
		}
		if sp.verb == 'q' {
			s = quote(s)
		}
		if sp.hasPrec && sp.prec < len(s) {
			s = s[:sp.prec]
		}
		for pad := sp.width - utf8.RuneCountInString(s); pad > 0; pad-- {
			w.push(' ')
		}
		w.pushString(s)
	case 'd':
		w.pushString(strconvx.FormatInt(intArg(arg), 10))
	case 'x', 'X':
		h := strconvx.FormatUint(uint64(intArg(arg)), 16)
		if sp.verb == 'X' {
			h = upperHex(h)
		}
		w.pushString(h)
	case 't':
		v, _ := arg.(bool)
		w.bool(v)
	case 'v':
		w.value(arg, 'v')
	default:
		// Unknown verb: write it literally to aid debugging.
		w.push('%')
		w.push(sp.verb)
	}
}

func (w *writer) bool(v bool) {
	if v {
		w.pushString("true")
	} else {
		w.pushString("false")
	}
}

// value renders an argument with no explicit width/precision; the %v
// path and Sprint both land here.
func (w *writer) value(v any, verb byte) {
	if s, ok := stringArg(v); ok {
		if verb == 'q' {
			s = quote(s)
		}
		w.pushString(s)
		return
	}
	switch x := v.(type) {
	case bool:
		w.bool(x)
	case float32:
		w.pushString(strconvx.FormatFloat(float64(x), 'f', 6, 32))
	case float64:
		w.pushString(strconvx.FormatFloat(x, 'f', 6, 64))
	case uint, uint8, uint16, uint32, uint64, uintptr:
		w.pushString(strconvx.FormatUint(uint64(intArg(x)), 10))
	case int, int8, int16, int32, int64:
		w.pushString(strconvx.FormatInt(intArg(x), 10))
	default:
		w.pushString("<unk>")
	}
}

func stringArg(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}

// intArg widens any integer argument to int64; unsigned values above
// 1<<63-1 wrap, which the %x path undoes by converting back.
func intArg(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case uintptr:
		return int64(x)
	default:
		return 0
	}
}

func upperHex(h string) string {
	b := []byte(h)
	for i, c := range b {
		if 'a' <= c && c <= 'f' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

func quote(s string) string {
	// Minimal %q: escape backslash, quote and common control bytes.
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '"':
			out = append(out, '\\', s[i])
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		default:
			out = append(out, s[i])
		}
	}
	out = append(out, '"')
	return string(out)
}
