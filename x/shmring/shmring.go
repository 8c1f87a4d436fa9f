// Package shmring implements a single-producer/single-consumer (SPSC)
// byte ring sized to a power of two, with edge-coalesced wake channels
// so a blocked producer or consumer doesn't need to poll.
//
// Exactly one goroutine may produce and exactly one may consume; the
// ring performs no locking beyond the atomic index updates that make
// that handoff safe. Capacity must be a power of two (mask-based
// indexing, no modulo on the hot path).
package shmring

import "sync/atomic"

// Ring is an SPSC byte buffer. Zero value is not usable; construct
// with New.
type Ring struct {
	data []byte
	mask uint32

	writeIdx atomic.Uint32 // advanced by the producer only
	readIdx  atomic.Uint32 // advanced by the consumer only

	readyToRead  chan struct{} // fires on the empty -> non-empty edge
	readyToWrite chan struct{} // fires on the full -> non-full edge
}

// New allocates a Ring with room for size bytes. size must be a power
// of two of at least 2; New panics otherwise.
func New(size int) *Ring {
	if size < 2 || size&(size-1) != 0 {
		panic("shmring: size must be a power of two >= 2")
	}
	return &Ring{
		data:         make([]byte, size),
		mask:         uint32(size - 1),
		readyToRead:  make(chan struct{}, 1),
		readyToWrite: make(chan struct{}, 1),
	}
}

// Cap reports the ring's fixed capacity in bytes.
func (r *Ring) Cap() int { return len(r.data) }

// Available reports how many bytes the consumer can read right now.
func (r *Ring) Available() int {
	return int(r.writeIdx.Load() - r.readIdx.Load())
}

// Space reports how many bytes the producer can write right now.
func (r *Ring) Space() int {
	return r.Cap() - r.Available()
}

// Readable fires once when the ring transitions from empty to
// non-empty. The notification is coalesced (buffered depth 1); a
// waiter must re-check Available() after waking, not assume a 1:1
// correspondence between wakeups and bytes.
func (r *Ring) Readable() <-chan struct{} { return r.readyToRead }

// Writable fires once when the ring transitions from full to
// non-full, with the same coalescing caveat as Readable.
func (r *Ring) Writable() <-chan struct{} { return r.readyToWrite }

// notify performs a non-blocking send, coalescing with anything
// already pending on ch.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// WriteAcquire reserves the writable region as up to two contiguous
// spans (the second is non-nil only when the region wraps past the
// end of the backing array). The caller must follow up with
// WriteCommit(n) naming how many of those bytes it actually wrote.
func (r *Ring) WriteAcquire() (first, second []byte) {
	free := r.Space()
	if free == 0 {
		return nil, nil
	}
	start := r.writeIdx.Load() & r.mask
	head := len(r.data) - int(start)
	if head > free {
		head = free
	}
	first = r.data[start : start+uint32(head)]
	if rest := free - head; rest > 0 {
		second = r.data[:rest]
	}
	return first, second
}

// WriteCommit publishes n bytes of a region previously returned by
// WriteAcquire, advancing the ring for the consumer to see.
func (r *Ring) WriteCommit(n int) {
	if n <= 0 {
		return
	}
	wasEmpty := r.Available() == 0
	r.writeIdx.Add(uint32(n))
	if wasEmpty {
		notify(r.readyToRead)
	}
}

// ReadAcquire exposes the readable region as up to two contiguous
// spans, the same wraparound convention as WriteAcquire. The caller
// must follow up with ReadRelease(n).
func (r *Ring) ReadAcquire() (first, second []byte) {
	avail := r.Available()
	if avail == 0 {
		return nil, nil
	}
	start := r.readIdx.Load() & r.mask
	head := len(r.data) - int(start)
	if head > avail {
		head = avail
	}
	first = r.data[start : start+uint32(head)]
	if rest := avail - head; rest > 0 {
		second = r.data[:rest]
	}
	return first, second
}

// ReadRelease retires n bytes of a region previously returned by
// ReadAcquire, freeing that space for the producer.
func (r *Ring) ReadRelease(n int) {
	if n <= 0 {
		return
	}
	wasFull := r.Space() == 0
	r.readIdx.Add(uint32(n))
	if wasFull {
		notify(r.readyToWrite)
	}
}

// TryWriteFrom copies as much of src as currently fits, via the span
// API, and reports how many bytes it accepted (0 if full).
func (r *Ring) TryWriteFrom(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	first, second := r.WriteAcquire()
	if len(first) == 0 {
		return 0
	}
	n := copy(first, src)
	if n < len(src) {
		n += copy(second, src[n:])
	}
	r.WriteCommit(n)
	return n
}

// TryReadInto copies as much as is currently available into dst, via
// the span API, and reports how many bytes it produced (0 if empty).
func (r *Ring) TryReadInto(dst []byte) int {
	if len(dst) == 0 {
		return 0
	}
	first, second := r.ReadAcquire()
	if len(first) == 0 {
		return 0
	}
	n := copy(dst, first)
	if n < len(dst) {
		n += copy(dst[n:], second)
	}
	r.ReadRelease(n)
	return n
}
