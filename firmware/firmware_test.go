package firmware

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"companion-mcu/protocol"
	"companion-mcu/services/bridge"
	"companion-mcu/types"
)

// startFirmware boots firmware.Run against one end of an in-memory
// pipe and hands the test the Host-side end of the link.
func startFirmware(t *testing.T) net.Conn {
	t.Helper()
	mcuEnd, hostEnd := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		hostEnd.Close()
	})

	deps := Deps{
		UARTDial: func(ctx context.Context, cfg bridge.UARTConfig) (io.ReadWriteCloser, error) {
			return mcuEnd, nil
		},
	}
	go Run(ctx, deps)
	return hostEnd
}

// readFrames accumulates whole 4-byte frames off the Host end until n
// frames matching keep have arrived or the deadline passes. The MCU
// writes whole frames only and the stream starts aligned, so the Host
// side can chunk on fixed boundaries.
func readFrames(t *testing.T, host net.Conn, n int, keep func(types.Packet) bool) []types.Packet {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	var stream []byte
	var kept []types.Packet
	buf := make([]byte, 64)
	for time.Now().Before(deadline) && len(kept) < n {
		host.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		m, _ := host.Read(buf)
		if m > 0 {
			stream = append(stream, buf[:m]...)
		}
		for len(stream) >= protocol.FrameSize {
			var frame [protocol.FrameSize]byte
			copy(frame[:], stream[:protocol.FrameSize])
			stream = stream[protocol.FrameSize:]
			pkt, err := protocol.Decode(frame)
			if err != nil {
				t.Fatalf("firmware emitted a frame with bad CRC: % x", frame)
			}
			if keep(pkt) {
				kept = append(kept, pkt)
			}
		}
	}
	if len(kept) < n {
		t.Fatalf("got %d matching frames before deadline, want %d (all kept: %+v)", len(kept), n, kept)
	}
	return kept
}

func TestGarbagePrefixThenPingYieldsPong(t *testing.T) {
	host := startFirmware(t)

	// 30 bytes that can never form a CRC-valid frame, then a ping.
	garbage := make([]byte, 30)
	for i := range garbage {
		garbage[i] = 0xAA
	}
	ping := protocol.Encode(types.KindSystem, types.SystemPing, 0, 0)
	if _, err := host.Write(append(garbage, ping[:]...)); err != nil {
		t.Fatalf("host write: %v", err)
	}

	pongs := readFrames(t, host, 1, func(p types.Packet) bool {
		return p.Kind == types.KindSystem
	})
	got := pongs[0]
	if got.SubFlags != types.SystemPing || got.Data0 != types.SystemPong {
		t.Fatalf("reply = %+v, want pong (sub=ping, data0=1)", got)
	}
}

func TestRequestAllOverTheWireEmitsFourMetricsInOrder(t *testing.T) {
	host := startFirmware(t)

	req := protocol.Encode(types.KindPower, types.PowerRequestAll, 0, 0)
	if _, err := host.Write(req[:]); err != nil {
		t.Fatalf("host write: %v", err)
	}

	// No sensor is injected, so every metric takes the synthetic path;
	// the OK->FAIL transitions also produce DEBUG_CODE frames, which
	// the filter skips.
	metrics := readFrames(t, host, 4, func(p types.Packet) bool {
		return p.Kind == types.KindPower
	})
	want := []uint8{types.PowerCurrent, types.PowerBattery, types.PowerTemperature, types.PowerVoltage}
	for i, pkt := range metrics {
		if pkt.SubFlags != want[i] {
			t.Fatalf("metric %d sub-code = %#x, want %#x", i, pkt.SubFlags, want[i])
		}
		if pkt.Data0 == 0 && pkt.Data1 == 0 {
			t.Fatalf("metric %d is all-zero despite synthetic fallback", i)
		}
	}
}
