package protocol

import "companion-mcu/types"

// SyncState tracks whether the byte stream is currently aligned to
// packet boundaries.
type SyncState uint8

const (
	Searching SyncState = iota
	Synced
	Recovering
)

func (s SyncState) String() string {
	switch s {
	case Searching:
		return "SEARCHING"
	case Synced:
		return "SYNCED"
	case Recovering:
		return "RECOVERING"
	default:
		return "UNKNOWN"
	}
}

const (
	// SyncSearchLimit bounds how far ahead SEARCHING looks for a valid
	// frame before giving up on the current window.
	SyncSearchLimit = 64
	// ForcedResyncDiscard is how many bytes get dropped when three
	// consecutive invalid packets force a return to SEARCHING with no
	// boundary found in the search window.
	ForcedResyncDiscard = 16
	// consecutiveInvalidForResync is the number of back-to-back CRC
	// failures that forces SEARCHING regardless of current state.
	consecutiveInvalidForResync = 3
	// consecutiveValidForRecovered is the number of back-to-back valid
	// packets needed to leave RECOVERING and return to SYNCED.
	consecutiveValidForRecovered = 2
)

// Synchronizer discovers frame boundaries in a (possibly corrupted)
// byte stream read from a Ring, and maintains the sync state machine
// described by the protocol. It owns no goroutine: callers drive it by
// calling Next in their own UART service loop.
type Synchronizer struct {
	ring         *Ring
	seenOverflow uint32

	State              SyncState
	ConsecutiveValid   int
	ConsecutiveInvalid int
	LastValidPacketMs  uint32
}

// NewSynchronizer returns a Synchronizer reading from ring, starting in
// SEARCHING.
func NewSynchronizer(ring *Ring) *Synchronizer {
	return &Synchronizer{ring: ring, State: Searching}
}

// Next attempts to produce one decoded packet from the ring. It
// returns ok=false when there is currently not enough data to make
// progress (len() < 4); callers should simply retry after more bytes
// arrive. nowMs is the caller's current millisecond clock, recorded on
// each valid packet. A ring overflow flush seen since the previous call
// puts the synchronizer back into SEARCHING first.
func (s *Synchronizer) Next(nowMs uint32) (pkt types.Packet, ok bool) {
	if s.ring.Overflow != s.seenOverflow {
		s.seenOverflow = s.ring.Overflow
		s.enterSearching()
	}
	if s.ring.Len() < FrameSize {
		return types.Packet{}, false
	}
	switch s.State {
	case Searching:
		return s.search(nowMs)
	default: // Synced, Recovering
		return s.readOne(nowMs)
	}
}

// search looks up to SyncSearchLimit bytes ahead for a 4-byte window
// whose CRC validates, discarding everything before it. If the ring is
// mostly full and no boundary exists in the window, it consumes one
// packet-sized block to guarantee forward progress.
func (s *Synchronizer) search(nowMs uint32) (types.Packet, bool) {
	limit := SyncSearchLimit
	if avail := s.ring.Len() - FrameSize + 1; avail < limit {
		limit = avail
	}
	for offset := 0; offset < limit; offset++ {
		window := s.ring.PeekAt(offset, FrameSize)
		if len(window) < FrameSize {
			break
		}
		var frame [FrameSize]byte
		copy(frame[:], window)
		if pkt, err := Decode(frame); err == nil {
			s.ring.Consume(offset + FrameSize)
			s.enterSynced(nowMs)
			return pkt, true
		}
	}
	// No boundary found in the window. If the ring is nearly full,
	// force forward progress by discarding one packet-sized block so
	// an adversarial stream can never wedge the receiver.
	if s.ring.Len() >= RingCapacity-FrameSize {
		s.ring.Consume(FrameSize)
	}
	return types.Packet{}, false
}

// readOne consumes exactly one 4-byte frame and updates the state
// machine on its validity.
func (s *Synchronizer) readOne(nowMs uint32) (types.Packet, bool) {
	window := s.ring.Peek(FrameSize)
	var frame [FrameSize]byte
	copy(frame[:], window)
	s.ring.Consume(FrameSize)

	pkt, err := Decode(frame)
	if err != nil {
		s.ConsecutiveInvalid++
		s.ConsecutiveValid = 0
		if s.ConsecutiveInvalid >= consecutiveInvalidForResync {
			s.forceResync()
		} else {
			s.State = Recovering
		}
		return types.Packet{}, false
	}

	s.ConsecutiveInvalid = 0
	s.ConsecutiveValid++
	s.LastValidPacketMs = nowMs
	if s.State == Recovering && s.ConsecutiveValid >= consecutiveValidForRecovered {
		s.State = Synced
	}
	return pkt, true
}

// forceResync discards bytes in front of the next valid boundary (or
// ForcedResyncDiscard bytes if none is found nearby) and re-enters
// SEARCHING.
func (s *Synchronizer) forceResync() {
	limit := ForcedResyncDiscard
	if avail := s.ring.Len() - FrameSize + 1; avail < limit && avail > 0 {
		limit = avail
	}
	discard := ForcedResyncDiscard
	for offset := 0; offset < limit; offset++ {
		window := s.ring.PeekAt(offset, FrameSize)
		if len(window) < FrameSize {
			break
		}
		var frame [FrameSize]byte
		copy(frame[:], window)
		if _, err := Decode(frame); err == nil {
			discard = offset
			break
		}
	}
	if discard > s.ring.Len() {
		discard = s.ring.Len()
	}
	s.ring.Consume(discard)
	s.enterSearching()
}

func (s *Synchronizer) enterSynced(nowMs uint32) {
	s.State = Synced
	s.ConsecutiveValid = 1
	s.ConsecutiveInvalid = 0
	s.LastValidPacketMs = nowMs
}

func (s *Synchronizer) enterSearching() {
	s.State = Searching
	s.ConsecutiveValid = 0
	s.ConsecutiveInvalid = 0
}
