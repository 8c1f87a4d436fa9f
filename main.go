// Command companion-mcu is the entry point for the handheld's
// companion controller: it waits for the board to settle, then hands
// off to firmware.Run with the platform-specific hardware bindings.
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"companion-mcu/firmware"
	"companion-mcu/platform"
	"companion-mcu/x/fmtx"
)

func main() {
	// Allow board to settle (USB, clocks, etc.) before touching the
	// UART link.
	time.Sleep(3 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmtx.Printf("[main] bootstrapping companion MCU firmware …\n")
	deps := platform.New()
	firmware.Run(ctx, deps)
	fmtx.Printf("[main] firmware.Run returned; shutting down\n")
}
