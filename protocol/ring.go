package protocol

// RingCapacity is the fixed receive ring size; head and tail wrap with
// a modulo, so any positive size works.
const RingCapacity = 1024

// Ring is a bounded, single-producer/single-consumer byte buffer sitting
// between the UART receive path and the Frame Synchronizer. Both ends
// MUST run on the same core (Core 1 in the companion firmware): the
// implementation performs no synchronization of its own and is only
// safe because producer and consumer never run concurrently with each
// other.
//
// Unlike x/shmring, overflow here is not silently dropped: a push that
// would exceed capacity increments Overflow and forces a full flush
// back to an empty ring; the frame synchronizer sees the Overflow
// counter change on its next call and re-enters SEARCHING.
type Ring struct {
	buf   [RingCapacity]byte
	head  int // next byte to consume
	tail  int // next free slot to write
	count int

	Overflow uint32
}

// NewRing returns an empty ring ready for use.
func NewRing() *Ring { return &Ring{} }

// Len reports the number of bytes currently buffered.
func (r *Ring) Len() int { return r.count }

// Push appends bytes to the ring. If there is not enough room for all
// of b, the ring overflows: the overflow counter increments and the
// ring is flushed to empty before accepting nothing further from this
// call (the caller should treat this as "sync lost, discard batch").
// Returns true if the bytes were accepted without overflow.
func (r *Ring) Push(b []byte) bool {
	if len(b) > RingCapacity-r.count {
		r.Overflow++
		r.flush()
		return false
	}
	for _, c := range b {
		r.buf[r.tail] = c
		r.tail = (r.tail + 1) % RingCapacity
		r.count++
	}
	return true
}

// flush resets the ring to empty. Called on overflow; the frame
// synchronizer re-enters SEARCHING when it sees Overflow change.
func (r *Ring) flush() {
	r.head = 0
	r.tail = 0
	r.count = 0
}

// Peek returns up to n bytes starting at the current head without
// consuming them. The returned slice may be shorter than n if fewer
// bytes are buffered.
func (r *Ring) Peek(n int) []byte {
	return r.PeekAt(0, n)
}

// PeekAt returns up to n bytes starting offset bytes past the current
// head, without consuming anything. Used by the frame synchronizer's
// search window, which looks ahead before deciding what to discard.
func (r *Ring) PeekAt(offset, n int) []byte {
	if offset >= r.count {
		return nil
	}
	avail := r.count - offset
	if n > avail {
		n = avail
	}
	out := make([]byte, n)
	idx := (r.head + offset) % RingCapacity
	for i := 0; i < n; i++ {
		out[i] = r.buf[idx]
		idx = (idx + 1) % RingCapacity
	}
	return out
}

// Consume advances the head by n bytes, discarding them. n is clamped
// to the number of buffered bytes.
func (r *Ring) Consume(n int) {
	if n > r.count {
		n = r.count
	}
	r.head = (r.head + n) % RingCapacity
	r.count -= n
}
