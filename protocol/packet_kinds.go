package protocol

import "companion-mcu/types"

// ParseLEDCommand decodes an LED packet's sub-flags and data bytes per
// the wire layout: sub-flag bit4=execute, bits3..0=led_id; data0=rrrr_gggg;
// data1=bbbb_mmtt (mode in bits3..2, time index in bits1..0).
func ParseLEDCommand(pkt types.Packet) types.LEDCommand {
	return types.LEDCommand{
		LEDID:   pkt.SubFlags & 0x0F,
		Execute: pkt.SubFlags&0x10 != 0,
		R:       pkt.Data0 >> 4,
		G:       pkt.Data0 & 0x0F,
		B:       pkt.Data1 >> 4,
		Mode:    types.LEDMode((pkt.Data1 >> 2) & 0x03),
		TimeIdx: pkt.Data1 & 0x03,
	}
}

// EncodeLEDCommand is the inverse of ParseLEDCommand, used by tests and
// by any component that needs to round-trip a command onto the wire.
func EncodeLEDCommand(cmd types.LEDCommand) [FrameSize]byte {
	sub := cmd.LEDID & 0x0F
	if cmd.Execute {
		sub |= 0x10
	}
	d0 := (cmd.R << 4) | (cmd.G & 0x0F)
	d1 := (cmd.B << 4) | (uint8(cmd.Mode)&0x03)<<2 | (cmd.TimeIdx & 0x03)
	return Encode(types.KindLED, sub, d0, d1)
}

// EncodeLEDAck builds the acknowledgment packet for a completed,
// preempted, or failed LED sequence.
func EncodeLEDAck(ledID uint8, execute bool, data0, data1 byte) [FrameSize]byte {
	sub := ledID & 0x0F
	if execute {
		sub |= 0x10
	}
	return Encode(types.KindLED, sub, data0, data1)
}

// ButtonMask extracts the pressed-button bitmask from a BUTTON packet.
func ButtonMask(pkt types.Packet) uint8 { return pkt.SubFlags & 0x0F }

// EncodeButton builds a BUTTON packet carrying the given pressed-set
// bitmask; data bytes are always zero.
func EncodeButton(mask uint8) [FrameSize]byte {
	return Encode(types.KindButton, mask&0x0F, 0, 0)
}

// DebugTextChunk is one piece of a chunked DEBUG_TEXT message.
type DebugTextChunk struct {
	First    bool
	Continue bool
	ChunkIdx uint8 // 0..7, wraps; reassembly does not depend on it
	B0, B1   byte
}

// ParseDebugTextChunk decodes a DEBUG_TEXT packet's sub-flags
// (0_f_c_nnn: first, continue, chunk-idx) and payload bytes.
func ParseDebugTextChunk(pkt types.Packet) DebugTextChunk {
	return DebugTextChunk{
		First:    pkt.SubFlags&0x10 != 0,
		Continue: pkt.SubFlags&0x08 != 0,
		ChunkIdx: pkt.SubFlags & 0x07,
		B0:       pkt.Data0,
		B1:       pkt.Data1,
	}
}

// EncodeDebugTextChunk builds one DEBUG_TEXT packet.
func EncodeDebugTextChunk(c DebugTextChunk) [FrameSize]byte {
	sub := c.ChunkIdx & 0x07
	if c.First {
		sub |= 0x10
	}
	if c.Continue {
		sub |= 0x08
	}
	return Encode(types.KindDebugText, sub, c.B0, c.B1)
}

// EncodeDebugCode builds a DEBUG_CODE packet: category occupies bits
// 4..2 of the sub-flag byte, code and param are the two data bytes.
func EncodeDebugCode(cat types.DebugCategory, code, param byte) [FrameSize]byte {
	sub := (uint8(cat) & 0x07) << 2
	return Encode(types.KindDebugCode, sub, code, param)
}

// EncodePowerReply packs a 16-bit metric value little-endian into the
// two data bytes under the given POWER sub-code.
func EncodePowerReply(subCode uint8, value uint16) [FrameSize]byte {
	return Encode(types.KindPower, subCode, byte(value), byte(value>>8))
}

// DecodePowerValue is the inverse of EncodePowerReply's little-endian
// packing.
func DecodePowerValue(pkt types.Packet) uint16 {
	return uint16(pkt.Data0) | uint16(pkt.Data1)<<8
}
