// Package debug implements the Debug Channel (C10): levelled,
// categorised log records with a code-only fast path and a chunked
// UTF-8 text path, a bounded ring of the last 100 records, and emission
// statistics. Text formatting for the local dump uses x/fmtx so MCU
// builds never pull in fmt or strconv.
package debug

import (
	"sync"

	"companion-mcu/protocol"
	"companion-mcu/types"
	"companion-mcu/x/fmtx"
	"companion-mcu/x/timex"
)

// RingSize is the number of retained records for local dump.
const RingSize = 100

// Stats tracks emission counters, kept under enable_statistics.
type Stats struct {
	Total      uint32
	Suppressed uint32
	ByLevel    map[types.DebugLevel]uint32
	ByCategory map[types.DebugCategory]uint32
}

// Channel filters, records and emits debug output.
type Channel struct {
	EmitFrame func(frame [protocol.FrameSize]byte)

	mu               sync.Mutex
	level            types.DebugLevel
	categoryDisabled map[types.DebugCategory]bool
	ring             []types.DebugRecord
	stats            Stats
	enableStatistics bool
	bootMs           int64
}

// New returns a Channel filtering at minLevel, emitting encoded frames
// via emitFrame. Record timestamps are milliseconds since New was
// called, via x/timex, rather than wall-clock time.
func New(minLevel types.DebugLevel, emitFrame func(frame [protocol.FrameSize]byte)) *Channel {
	return &Channel{
		EmitFrame:        emitFrame,
		level:            minLevel,
		categoryDisabled: make(map[types.DebugCategory]bool),
		stats: Stats{
			ByLevel:    make(map[types.DebugLevel]uint32),
			ByCategory: make(map[types.DebugCategory]uint32),
		},
		bootMs: timex.NowMs(),
	}
}

// SetLevel changes the minimum emitted level.
func (c *Channel) SetLevel(l types.DebugLevel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = l
}

// SetCategoryEnabled toggles a whole subsystem's output on or off.
func (c *Channel) SetCategoryEnabled(cat types.DebugCategory, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categoryDisabled[cat] = !enabled
}

// EnableStatistics turns emission counters on or off.
func (c *Channel) EnableStatistics(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enableStatistics = on
}

func (c *Channel) allowed(level types.DebugLevel, cat types.DebugCategory) bool {
	if c.level == types.LevelOff || level > c.level {
		return false
	}
	return !c.categoryDisabled[cat]
}

// Code emits a single DEBUG_CODE packet: (category, code, param). This
// is the fast path other components use for routine status/error
// notices that don't need human text.
func (c *Channel) Code(cat types.DebugCategory, code, param byte) {
	c.mu.Lock()
	allowed := c.allowed(types.LevelError, cat)
	c.mu.Unlock()
	c.emit(types.LevelError, cat, "")
	if !allowed || c.EmitFrame == nil {
		return
	}
	frame := protocol.EncodeDebugCode(cat, code, param)
	c.EmitFrame(frame)
}

// Text emits msg as a chunked DEBUG_TEXT sequence, two bytes per
// packet, with first/continue flags per chunk so reassembly does not
// depend on the wrapping 3-bit chunk index.
func (c *Channel) Text(level types.DebugLevel, cat types.DebugCategory, msg string) {
	c.mu.Lock()
	allowed := c.allowed(level, cat)
	c.mu.Unlock()
	c.emit(level, cat, msg)
	if !allowed || c.EmitFrame == nil {
		return
	}

	b := []byte(msg)
	if len(b) == 0 {
		b = []byte{0, 0}
	}
	idx := uint8(0)
	for i := 0; i < len(b); i += 2 {
		var c0, c1 byte
		c0 = b[i]
		cont := i+2 < len(b)
		if i+1 < len(b) {
			c1 = b[i+1]
		}
		chunk := protocol.DebugTextChunk{
			First:    i == 0,
			Continue: cont,
			ChunkIdx: idx & 0x07,
			B0:       c0,
			B1:       c1,
		}
		frame := protocol.EncodeDebugTextChunk(chunk)
		c.EmitFrame(frame)
		idx++
	}
}

// emit records the record in the ring and updates statistics,
// regardless of whether it was actually sent over the wire (the ring
// and stats track intent, so a suppressed record is still visible via
// Stats().Suppressed).
func (c *Channel) emit(level types.DebugLevel, cat types.DebugCategory, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	allowed := c.allowed(level, cat)
	rec := types.DebugRecord{
		TimestampMs: uint32(timex.NowMs() - c.bootMs),
		Level:       level,
		Category:    cat,
		Message:     msg,
	}
	c.ring = append(c.ring, rec)
	if len(c.ring) > RingSize {
		c.ring = c.ring[len(c.ring)-RingSize:]
	}
	if !c.enableStatistics {
		return
	}
	c.stats.Total++
	if !allowed {
		c.stats.Suppressed++
		return
	}
	c.stats.ByLevel[level]++
	c.stats.ByCategory[cat]++
}

// Dump returns a copy of the retained ring, most recent last.
func (c *Channel) Dump() []types.DebugRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.DebugRecord, len(c.ring))
	copy(out, c.ring)
	return out
}

// Stats returns a snapshot of the emission counters.
func (c *Channel) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{Total: c.stats.Total, Suppressed: c.stats.Suppressed,
		ByLevel: make(map[types.DebugLevel]uint32), ByCategory: make(map[types.DebugCategory]uint32)}
	for k, v := range c.stats.ByLevel {
		s.ByLevel[k] = v
	}
	for k, v := range c.stats.ByCategory {
		s.ByCategory[k] = v
	}
	return s
}

// FormatRecord renders one record for local dump output, using fmtx
// instead of the standard fmt package on MCU builds.
func FormatRecord(r types.DebugRecord) string {
	return fmtx.Sprintf("[%s] %s: %s", levelName(r.Level), r.Category.String(), r.Message)
}

func levelName(l types.DebugLevel) string {
	switch l {
	case types.LevelOff:
		return "OFF"
	case types.LevelError:
		return "ERROR"
	case types.LevelInfo:
		return "INFO"
	case types.LevelVerbose:
		return "VERBOSE"
	default:
		return "?"
	}
}
