package protocol

import (
	"testing"

	"companion-mcu/types"
)

func TestLEDCommandRoundTrip(t *testing.T) {
	cmd := types.LEDCommand{LEDID: 3, Execute: false, R: 15, G: 0, B: 0, Mode: types.LEDStatic, TimeIdx: 0}
	frame := EncodeLEDCommand(cmd)
	pkt, err := Decode(frame)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	got := ParseLEDCommand(pkt)
	if got != cmd {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, cmd)
	}
}

func TestLEDCommandWireLayoutIsBitExact(t *testing.T) {
	// Queue red STATIC on led_id=3 -> byte0 = 0x20 | 0x03 = 0x23,
	// data0 = 0xF0 (r=15,g=0), data1 = 0x00 (b=0, mode=STATIC, time=0).
	cmd := types.LEDCommand{LEDID: 3, Execute: false, R: 15, G: 0, B: 0, Mode: types.LEDStatic, TimeIdx: 0}
	frame := EncodeLEDCommand(cmd)
	if frame[0] != 0x23 {
		t.Fatalf("byte0 = %#x, want 0x23", frame[0])
	}
	if frame[1] != 0xF0 {
		t.Fatalf("data0 = %#x, want 0xF0", frame[1])
	}
	if frame[2] != 0x00 {
		t.Fatalf("data1 = %#x, want 0x00", frame[2])
	}
}

func TestButtonMaskAndEncode(t *testing.T) {
	frame := EncodeButton(types.ButtonUp | types.ButtonSelect)
	pkt, err := Decode(frame)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if pkt.Kind != types.KindButton {
		t.Fatalf("kind = %v, want BUTTON", pkt.Kind)
	}
	mask := ButtonMask(pkt)
	if mask != types.ButtonUp|types.ButtonSelect {
		t.Fatalf("mask = %#x, want %#x", mask, types.ButtonUp|types.ButtonSelect)
	}
	if pkt.Data0 != 0 || pkt.Data1 != 0 {
		t.Fatalf("button packet data bytes must be zero, got d0=%#x d1=%#x", pkt.Data0, pkt.Data1)
	}
}

func TestDebugTextChunkRoundTrip(t *testing.T) {
	c := DebugTextChunk{First: true, Continue: true, ChunkIdx: 0, B0: 'h', B1: 'i'}
	frame := EncodeDebugTextChunk(c)
	pkt, err := Decode(frame)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	got := ParseDebugTextChunk(pkt)
	if got != c {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, c)
	}
}

func TestPowerReplyLittleEndian(t *testing.T) {
	frame := EncodePowerReply(types.PowerVoltage, 0x1234)
	pkt, err := Decode(frame)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if pkt.Data0 != 0x34 || pkt.Data1 != 0x12 {
		t.Fatalf("data bytes = %#x %#x, want little-endian 0x34 0x12", pkt.Data0, pkt.Data1)
	}
	if got := DecodePowerValue(pkt); got != 0x1234 {
		t.Fatalf("DecodePowerValue = %#x, want 0x1234", got)
	}
}
