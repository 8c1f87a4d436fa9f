//go:build !rp2040

// Package fmtx gives the rest of the tree one formatting API that
// works whether the build targets a desk host (this file, backed by
// the standard fmt package) or the MCU (fmtx_mcu.go, which never
// pulls in the reflection-heavy fmt package).
package fmtx

import (
	"fmt"
	"io"
)

func Sprintf(format string, a ...any) string                   { return fmt.Sprintf(format, a...) }
func Printf(format string, a ...any) (int, error)               { return fmt.Printf(format, a...) }
func Fprintf(w io.Writer, format string, a ...any) (int, error) { return fmt.Fprintf(w, format, a...) }
func Errorf(format string, a ...any) error                      { return fmt.Errorf(format, a...) }
func Sprint(a ...any) string                                    { return fmt.Sprint(a...) }
func Fprint(w io.Writer, a ...any) (int, error)                 { return fmt.Fprint(w, a...) }
func Print(a ...any) (int, error)                               { return fmt.Print(a...) }
