// Package bridge owns dialing the Host-facing UART link with retry
// and backoff, and publishing its connection state onto the bus. It
// performs no framing of its own: once dialed, firmware/protocol owns
// every byte on the wire.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"companion-mcu/bus"
)

// UARTConfig carries enough information for an injected TinyGo dialler
// to open the UART. The actual pin mapping and UART instance selection
// is handled by the dial function passed to Dial.
type UARTConfig struct {
	Baud  int
	RxPin int
	TxPin int
}

// DialFunc opens the physical UART link. Platform code supplies the
// real implementation (e.g. configuring uartx.UART0); host builds
// supply a loopback or stdio stand-in.
type DialFunc func(ctx context.Context, cfg UARTConfig) (io.ReadWriteCloser, error)

var stateTopic = bus.Topic{"bridge", "state"}

// Dial opens the Host UART link, retrying with exponential backoff
// (250ms .. 5s) until dial succeeds or ctx is cancelled. Link state
// ("idle" -> "degraded"/"dial_failed_retrying" -> "up"/"link_established")
// is published retained on bridge/state via conn, so other components
// (or tests) can observe link health without depending on firmware's
// internals. conn may be nil to skip publishing (e.g. in tests that
// only care about the returned link).
func Dial(ctx context.Context, conn *bus.Connection, dial DialFunc, cfg UARTConfig) (io.ReadWriteCloser, error) {
	if dial == nil {
		return nil, errors.New("bridge: no dial function provided")
	}
	publishState(conn, "idle", "awaiting_dial", nil)

	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rwc, err := dial(ctx, cfg)
		if err == nil {
			publishState(conn, "up", "link_established", nil)
			return rwc, nil
		}

		delay := backoff()
		publishState(conn, "degraded", "dial_failed_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
		if !sleep(ctx, delay) {
			return nil, ctx.Err()
		}
	}
}

func publishState(conn *bus.Connection, level, status string, err error) {
	if conn == nil {
		return
	}
	payload := map[string]any{
		"level":  level,
		"status": status,
		"ts_ms":  time.Now().UnixMilli(),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	conn.Publish(conn.NewMessage(stateTopic, payload, true))
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	var mu sync.Mutex
	cur := min
	return func() time.Duration {
		mu.Lock()
		defer mu.Unlock()
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
