//go:build !rp2040

package platform

import (
	"context"
	"io"
	"os"

	"companion-mcu/firmware"
	"companion-mcu/services/bridge"
)

// New returns host-build Deps so the protocol engine can run off
// target: stdin/stdout stand in for the UART link. Button, display,
// power and PMIC handles are left nil so firmware.Run takes its
// nil-safe stub paths -- the same host/MCU build-tag split x/strconvx
// and x/fmtx use, applied to the whole Deps set instead of just
// formatting.
func New() firmware.Deps {
	return firmware.Deps{
		UARTDial: dialStdio,
	}
}

// dialStdio is the host-side bridge.DialFunc: it always succeeds
// immediately over the process's stdin/stdout, standing in for the
// real UART link to the Host.
func dialStdio(ctx context.Context, cfg bridge.UARTConfig) (io.ReadWriteCloser, error) {
	return stdioUART{}, nil
}

type stdioUART struct{}

func (stdioUART) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioUART) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioUART) Close() error                { return nil }
