package button

import (
	"sync"
	"testing"
	"time"

	"companion-mcu/types"
)

type fakePins struct {
	mu                     sync.Mutex
	up, down, sel, power bool
}

func (p *fakePins) set(up, down, sel, power bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.up, p.down, p.sel, p.power = up, down, sel, power
}
func (p *fakePins) Read() (up, down, sel, power bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.up, p.down, p.sel, p.power
}

func TestChangeOnlyEmitsNoDuplicateConsecutivePackets(t *testing.T) {
	pins := &fakePins{}
	var mu sync.Mutex
	var masks []uint8
	in := New(pins, func(m uint8) { mu.Lock(); masks = append(masks, m); mu.Unlock() })

	stop := make(chan struct{})
	go in.Run(stop)
	defer close(stop)

	pins.set(true, false, false, false)
	in.NotifyEdge()
	time.Sleep(10 * time.Millisecond)
	pins.set(true, false, false, false) // no change
	in.NotifyEdge()
	time.Sleep(10 * time.Millisecond)
	pins.set(false, false, false, false)
	in.NotifyEdge()
	time.Sleep(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(masks); i++ {
		if masks[i] == masks[i-1] {
			t.Fatalf("consecutive duplicate masks at %d: %v", i, masks)
		}
	}
	if len(masks) < 2 {
		t.Fatalf("expected at least two distinct-state emissions, got %v", masks)
	}
	if masks[len(masks)-1] != 0 {
		t.Fatalf("last emitted mask = %#x, want 0 (released)", masks[len(masks)-1])
	}
}

func TestPacketCarriesCorrectBitmask(t *testing.T) {
	pins := &fakePins{}
	emitted := make(chan uint8, 1)
	in := New(pins, func(m uint8) { emitted <- m })
	stop := make(chan struct{})
	go in.Run(stop)
	defer close(stop)

	pins.set(true, false, true, false)
	in.NotifyEdge()

	select {
	case m := <-emitted:
		if m != types.ButtonUp|types.ButtonSelect {
			t.Fatalf("mask = %#x, want UP|SELECT", m)
		}
	case <-time.After(time.Second):
		t.Fatalf("no packet emitted")
	}
}

func TestISRDropsCountedWhenQueueFull(t *testing.T) {
	pins := &fakePins{}
	in := New(pins, nil)
	// Fill the 1-deep queue, then overflow it without a consumer draining.
	in.NotifyEdge()
	in.NotifyEdge()
	in.NotifyEdge()
	if in.ISRDrops() == 0 {
		t.Fatalf("expected at least one dropped edge notification")
	}
}
