package tm4c

import (
	"errors"
	"testing"

	"tivahal/sim"
)

func TestNVICEnable(t *testing.T) {
	cases := []struct {
		irq      IRQ
		prio     uint8
		enAddr   uint32
		enBit    uint8
		priAddr  uint32
		priShift uint8
	}{
		{30, 3, nvicENBase, 30, nvicPRIBase + 4*7, 2*8 + 5},  // GPIO port F
		{0, 0, nvicENBase, 0, nvicPRIBase, 5},                // GPIO port A
		{35, 7, nvicENBase + 4, 3, nvicPRIBase + 4*8, 3*8 + 5}, // Timer 3A
	}

	for _, c := range cases {
		bus := sim.New()
		n := NewNVIC(bus)
		if err := n.Enable(c.irq, c.prio); err != nil {
			t.Fatalf("Enable(%d, %d): %v", c.irq, c.prio, err)
		}
		if bus.Peek(c.enAddr)&(1<<c.enBit) == 0 {
			t.Errorf("irq %d: enable bit not set in 0x%08X", c.irq, c.enAddr)
		}
		if got := (bus.Peek(c.priAddr) >> c.priShift) & 0x7; got != uint32(c.prio) {
			t.Errorf("irq %d: priority field = %d, want %d", c.irq, got, c.prio)
		}
	}
}

func TestNVICPreservesNeighbours(t *testing.T) {
	bus := sim.New()
	n := NewNVIC(bus)

	// Two interrupts sharing a priority word must not clobber each other.
	if err := n.Enable(28, 1); err != nil {
		t.Fatal(err)
	}
	if err := n.Enable(30, 3); err != nil {
		t.Fatal(err)
	}

	pri := bus.Peek(nvicPRIBase + 4*7)
	if got := (pri >> 5) & 0x7; got != 1 {
		t.Errorf("irq 28 priority lost: %d", got)
	}
	if got := (pri >> 21) & 0x7; got != 3 {
		t.Errorf("irq 30 priority: %d", got)
	}
}

func TestNVICBadPriority(t *testing.T) {
	bus := sim.New()
	n := NewNVIC(bus)
	if err := n.Enable(30, MaxIntPriority+1); !errors.Is(err, ErrBadPriority) {
		t.Errorf("err = %v, want ErrBadPriority", err)
	}
	if len(bus.Trace()) != 0 {
		t.Errorf("registers touched despite invalid priority")
	}
}

func TestNVICBadIRQ(t *testing.T) {
	n := NewNVIC(sim.New())
	if err := n.Enable(MaxIRQ+1, 0); !errors.Is(err, ErrBadBlock) {
		t.Errorf("err = %v, want ErrBadBlock", err)
	}
}
