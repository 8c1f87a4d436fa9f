package protocol

import "testing"

func TestRingPushPeekConsume(t *testing.T) {
	r := NewRing()
	if !r.Push([]byte("hello")) {
		t.Fatalf("push of 5 bytes into empty ring should not overflow")
	}
	if r.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", r.Len())
	}
	if got := string(r.Peek(5)); got != "hello" {
		t.Fatalf("Peek(5) = %q, want %q", got, "hello")
	}
	r.Consume(2)
	if got := string(r.Peek(3)); got != "llo" {
		t.Fatalf("Peek(3) after consume = %q, want %q", got, "llo")
	}
	if r.Len() != 3 {
		t.Fatalf("Len() after consume = %d, want 3", r.Len())
	}
}

func TestRingPeekAtOffset(t *testing.T) {
	r := NewRing()
	r.Push([]byte("abcdef"))
	if got := string(r.PeekAt(2, 3)); got != "cde" {
		t.Fatalf("PeekAt(2,3) = %q, want %q", got, "cde")
	}
}

func TestRingOverflowFlushesAndCountsOverflow(t *testing.T) {
	r := NewRing()
	big := make([]byte, RingCapacity+1)
	if r.Push(big) {
		t.Fatalf("push larger than capacity must overflow")
	}
	if r.Overflow != 1 {
		t.Fatalf("Overflow = %d, want 1", r.Overflow)
	}
	if r.Len() != 0 {
		t.Fatalf("ring must be flushed to empty after overflow, Len() = %d", r.Len())
	}
	// Subsequent pushes after the flush must succeed: an overflow
	// never corrupts ring state.
	if !r.Push([]byte("ok")) {
		t.Fatalf("push after overflow-flush should succeed")
	}
	if got := string(r.Peek(2)); got != "ok" {
		t.Fatalf("Peek after overflow-flush = %q, want %q", got, "ok")
	}
}

func TestRingWrapsAroundCapacity(t *testing.T) {
	r := NewRing()
	chunk := make([]byte, RingCapacity/2)
	for i := range chunk {
		chunk[i] = byte(i)
	}
	r.Push(chunk)
	r.Consume(RingCapacity / 2)
	// Pushing again now wraps the tail index around the backing array.
	if !r.Push(chunk) {
		t.Fatalf("push after consume should fit without overflow")
	}
	if r.Len() != RingCapacity/2 {
		t.Fatalf("Len() = %d, want %d", r.Len(), RingCapacity/2)
	}
	got := r.Peek(RingCapacity / 2)
	for i, b := range got {
		if b != byte(i) {
			t.Fatalf("wrapped data mismatch at %d: got %d, want %d", i, b, byte(i))
		}
	}
}
