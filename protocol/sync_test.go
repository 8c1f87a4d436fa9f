package protocol

import (
	"testing"

	"companion-mcu/types"
)

func TestSynchronizerLocksOnAfterGarbagePrefix(t *testing.T) {
	r := NewRing()
	prefix := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}
	r.Push(prefix)
	frame := Encode(types.KindSystem, 0, 0x01, 0x00)
	r.Push(frame[:])

	s := NewSynchronizer(r)
	pkt, ok := s.Next(0)
	if !ok {
		t.Fatalf("expected a decoded packet after skipping garbage prefix")
	}
	if pkt.Kind != types.KindSystem || pkt.Data0 != 0x01 {
		t.Fatalf("decoded wrong packet: %+v", pkt)
	}
	if s.State != Synced {
		t.Fatalf("state = %v, want SYNCED", s.State)
	}
	if r.Len() != 0 {
		t.Fatalf("ring should be fully drained (prefix discarded, frame consumed), Len() = %d", r.Len())
	}
}

func TestSynchronizerStaysSearchingWithNoValidFrame(t *testing.T) {
	r := NewRing()
	garbage := make([]byte, SyncSearchLimit+FrameSize+4)
	for i := range garbage {
		garbage[i] = 0xAA // never a valid CRC-bearing frame for this pattern
	}
	r.Push(garbage)
	s := NewSynchronizer(r)
	_, ok := s.Next(0)
	if ok {
		t.Fatalf("no valid frame exists in the window; Next should report not-ok")
	}
	if s.State != Searching {
		t.Fatalf("state = %v, want SEARCHING", s.State)
	}
}

func TestSynchronizerRecoversAfterCorruption(t *testing.T) {
	r := NewRing()
	s := NewSynchronizer(r)

	good := Encode(types.KindSystem, 0, 0x01, 0x00)
	r.Push(good[:])
	if _, ok := s.Next(0); !ok || s.State != Synced {
		t.Fatalf("failed to lock onto first good frame")
	}

	// Corrupt the next frame: flip the CRC byte.
	bad := Encode(types.KindSystem, 0, 0x02, 0x00)
	bad[3] ^= 0xFF
	r.Push(bad[:])
	if _, ok := s.Next(0); ok {
		t.Fatalf("corrupted frame should not decode")
	}
	if s.State != Recovering {
		t.Fatalf("state after one CRC failure = %v, want RECOVERING", s.State)
	}

	// Two consecutive valid frames return to SYNCED.
	for i := 0; i < 2; i++ {
		g := Encode(types.KindSystem, 0, 0x01, 0x00)
		r.Push(g[:])
		if _, ok := s.Next(0); !ok {
			t.Fatalf("expected valid frame #%d to decode", i)
		}
	}
	if s.State != Synced {
		t.Fatalf("state after two valid frames = %v, want SYNCED", s.State)
	}
}

func TestSynchronizerForcesResyncAfterThreeInvalid(t *testing.T) {
	r := NewRing()
	s := NewSynchronizer(r)

	good := Encode(types.KindSystem, 0, 0x01, 0x00)
	r.Push(good[:])
	s.Next(0) // lock onto SYNCED

	bad := Encode(types.KindSystem, 0, 0x02, 0x00)
	bad[3] ^= 0xFF
	for i := 0; i < 3; i++ {
		r.Push(bad[:])
		s.Next(0)
	}
	if s.State != Searching {
		t.Fatalf("state after three consecutive invalid frames = %v, want SEARCHING", s.State)
	}
}

func TestSynchronizerDoesNothingBelowFourBytes(t *testing.T) {
	r := NewRing()
	r.Push([]byte{0x01, 0x02, 0x03})
	s := NewSynchronizer(r)
	if _, ok := s.Next(0); ok {
		t.Fatalf("Next with <4 buffered bytes must not decode anything")
	}
	if r.Len() != 3 {
		t.Fatalf("ring must be untouched when len() < 4, Len() = %d", r.Len())
	}
}
