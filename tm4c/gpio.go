package tm4c

import (
	"fmt"

	"tivahal/mmio"
)

// Direction selects GPIO pin direction.
type Direction uint8

const (
	Input Direction = iota
	Output
)

// GPIO ports are used through their AHB aperture, 0x1000 apart per port.
const gpioAHBBase = 0x40058000

// Port block register offsets (TM4C123GH6PM data sheet, GPIO chapter).
const (
	gpioData  = 0x3FC // data, all-bits alias
	gpioDir   = 0x400
	gpioIS    = 0x404 // interrupt sense: 0 = edge
	gpioIBE   = 0x408 // interrupt both edges
	gpioIEV   = 0x40C // interrupt event
	gpioIM    = 0x410 // interrupt mask
	gpioRIS   = 0x414 // raw interrupt status, RO
	gpioMIS   = 0x418 // masked interrupt status, RO
	gpioICR   = 0x41C // interrupt clear, W1C
	gpioAFSel = 0x420
	gpioPUR   = 0x510
	gpioDEN   = 0x51C
	gpioLock  = 0x520
	gpioCR    = 0x524
	gpioAMSel = 0x528
)

// gpioUnlockKey written to GPIOLOCK opens the commit register for one
// write sequence on protected pins.
const gpioUnlockKey = 0x4C4F434B

// gpioIRQ maps a port index to its interrupt number: ports A..E are vectors
// 0..4, port F is vector 30.
func gpioIRQ(port uint8) IRQ {
	if port == 5 {
		return 30
	}
	return IRQ(port)
}

// GPIO drives a single pin of one GPIO port.
type GPIO struct {
	bus  mmio.Bus
	pin  Pin
	base uint32
	bit  uint8
}

// NewGPIO brings up the pin's port and configures the pin for plain digital
// use in the given direction. Inputs get the weak pull-up, matching the
// devboard's switch wiring. The documented write order is followed exactly:
// commit unlock (protected pins), direction, pull-up, alternate-function
// deselect, digital enable, analog deselect.
func NewGPIO(bus mmio.Bus, sc *SysCtl, pin Pin, dir Direction) (*GPIO, error) {
	if !pin.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrBadPin, pin)
	}
	if dir != Input && dir != Output {
		return nil, fmt.Errorf("%w: direction %d", ErrBadMode, dir)
	}

	g := &GPIO{
		bus:  bus,
		pin:  pin,
		base: gpioAHBBase + 0x1000*uint32(pin.Port()),
		bit:  pin.Bit(),
	}

	err := sc.BringUp(FamilyGPIO, pin.Port(), func() error {
		g.configure(dir)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// NewGPIOWithInterrupt configures the pin as with NewGPIO and then arms a
// both-edges interrupt at the given priority (0 highest .. 7 lowest). The
// line is masked while sensing is reconfigured and any stale latched flag is
// cleared before unmasking, so no spurious interrupt is delivered for edges
// that happened before arming.
func NewGPIOWithInterrupt(bus mmio.Bus, sc *SysCtl, ic IntController, pin Pin, dir Direction, prio uint8) (*GPIO, error) {
	if prio > MaxIntPriority {
		return nil, fmt.Errorf("%w: %d (0..%d)", ErrBadPriority, prio, MaxIntPriority)
	}

	g, err := NewGPIO(bus, sc, pin, dir)
	if err != nil {
		return nil, err
	}

	bit := mmio.Bit(g.bit, mmio.RW)
	mmio.WriteField(bus, g.base+gpioIM, bit, 0)  // mask while reconfiguring
	mmio.WriteField(bus, g.base+gpioIS, bit, 0)  // edge sensitive
	mmio.WriteField(bus, g.base+gpioIBE, bit, 1) // both edges
	mmio.WriteField(bus, g.base+gpioICR, mmio.Bit(g.bit, mmio.W1C), 1)
	mmio.WriteField(bus, g.base+gpioIM, bit, 1)

	if err := ic.Enable(gpioIRQ(pin.Port()), prio); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GPIO) configure(dir Direction) {
	bus := g.bus
	bit := mmio.Bit(g.bit, mmio.RW)

	if g.pin.Protected() {
		// NMI-defaulted pins: unlock and commit before the pin responds
		// to configuration writes.
		mmio.WriteField(bus, g.base+gpioLock, mmio.Whole(mmio.RW), gpioUnlockKey)
		mmio.WriteField(bus, g.base+gpioCR, bit, 1)
	}

	if dir == Output {
		mmio.WriteField(bus, g.base+gpioDir, bit, 1)
	} else {
		mmio.WriteField(bus, g.base+gpioDir, bit, 0)
		mmio.WriteField(bus, g.base+gpioPUR, bit, 1)
	}

	mmio.WriteField(bus, g.base+gpioAFSel, bit, 0)
	mmio.WriteField(bus, g.base+gpioDEN, bit, 1)
	mmio.WriteField(bus, g.base+gpioAMSel, bit, 0)
}

// Pin returns the logical pin this driver was built for.
func (g *GPIO) Pin() Pin { return g.pin }

// Write drives the pin high or low.
func (g *GPIO) Write(high bool) {
	v := uint32(0)
	if high {
		v = 1
	}
	mmio.WriteField(g.bus, g.base+gpioData, mmio.Bit(g.bit, mmio.RW), v)
}

// Read returns the pin's current level.
func (g *GPIO) Read() bool {
	return mmio.ReadField(g.bus, g.base+gpioData, mmio.Bit(g.bit, mmio.RW)) != 0
}

// RawInterrupt reports whether the pin's edge condition has latched,
// regardless of masking.
func (g *GPIO) RawInterrupt() bool {
	return mmio.ReadField(g.bus, g.base+gpioRIS, mmio.Bit(g.bit, mmio.RO)) != 0
}

// ClearInterrupt acknowledges the pin's latched interrupt. Intended to be
// called from the service routine. The underlying field write is a
// read-modify-write; if main-line code touches the same port's interrupt
// registers it must keep this line masked around that access.
func (g *GPIO) ClearInterrupt() {
	mmio.WriteField(g.bus, g.base+gpioICR, mmio.Bit(g.bit, mmio.W1C), 1)
}
