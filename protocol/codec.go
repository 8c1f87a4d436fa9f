// Package protocol implements the 4-byte framed packet engine: codec,
// receive ring, frame synchronizer and router that together turn a raw
// UART byte stream into dispatched, typed packets and back.
package protocol

import "companion-mcu/types"

// FrameSize is the fixed length of every packet on the wire.
const FrameSize = 4

// ErrCRC is returned by Decode when the trailing CRC byte does not match
// the computed checksum over the first three bytes.
type ErrCRC struct{}

func (ErrCRC) Error() string { return "protocol: crc mismatch" }

// CRC8 computes the poly-0x07, init-0x00, no-reflection checksum the
// codec uses for every frame. It has no allocation and no state beyond
// its arguments.
func CRC8(data ...byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Encode packs kind and sub-flags into byte 0, appends the two data
// bytes and a trailing CRC8 over the first three bytes.
func Encode(kind types.Kind, subFlags uint8, d0, d1 byte) [FrameSize]byte {
	b0 := (byte(kind) << 5) | (subFlags & 0x1F)
	var out [FrameSize]byte
	out[0] = b0
	out[1] = d0
	out[2] = d1
	out[3] = CRC8(out[0], out[1], out[2])
	return out
}

// Decode recomputes the CRC over frame[0:3] and, on match, returns the
// structured packet. It is pure, stateless and allocation-free.
func Decode(frame [FrameSize]byte) (types.Packet, error) {
	want := CRC8(frame[0], frame[1], frame[2])
	if want != frame[3] {
		return types.Packet{}, ErrCRC{}
	}
	return types.Packet{
		Kind:     types.Kind(frame[0] >> 5),
		SubFlags: frame[0] & 0x1F,
		Data0:    frame[1],
		Data1:    frame[2],
	}, nil
}
