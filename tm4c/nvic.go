package tm4c

import (
	"fmt"

	"tivahal/mmio"
)

// IRQ is a vectored interrupt number as listed in the device's interrupt
// table (GPIO Port A = 0 .. GPIO Port F = 30, timers per block).
type IRQ uint8

// MaxIRQ is the highest interrupt number on the TM4C123GH6PM.
const MaxIRQ IRQ = 138

// MaxIntPriority is the lowest (numerically highest) interrupt priority;
// 0 is the highest priority.
const MaxIntPriority = 7

// IntController is the interrupt-controller collaborator drivers register
// with when configuring interrupt-driven operation.
type IntController interface {
	// Enable unmasks the vectored interrupt at the given priority.
	Enable(irq IRQ, prio uint8) error
}

// NVIC register layout (ARMv7-M system control space).
const (
	nvicENBase  = 0xE000E100 // EN0..EN4, one set-enable bit per interrupt
	nvicPRIBase = 0xE000E400 // PRI0..PRIn, 4 priority fields per word
)

// NVIC implements IntController over the Cortex-M4 nested vectored interrupt
// controller.
type NVIC struct {
	bus mmio.Bus
}

func NewNVIC(bus mmio.Bus) *NVIC {
	return &NVIC{bus: bus}
}

// Enable unmasks irq in the ENn register bank and programs its 3-bit
// priority field. The TM4C implements the top 3 bits of each 8-bit
// priority byte.
func (n *NVIC) Enable(irq IRQ, prio uint8) error {
	if irq > MaxIRQ {
		return fmt.Errorf("%w: irq %d", ErrBadBlock, irq)
	}
	if prio > MaxIntPriority {
		return fmt.Errorf("%w: %d (0..%d)", ErrBadPriority, prio, MaxIntPriority)
	}

	en := nvicENBase + 4*uint32(irq/32)
	mmio.WriteField(n.bus, en, mmio.Bit(uint8(irq%32), mmio.RW), 1)

	pri := nvicPRIBase + 4*uint32(irq/4)
	field := mmio.Field{Start: uint8(irq%4)*8 + 5, Width: 3, Access: mmio.RW}
	mmio.WriteField(n.bus, pri, field, uint32(prio))
	return nil
}
