package tm4c

import (
	"fmt"

	"tivahal/mmio"
)

// TimerMode selects the counting mode. Only one-shot and periodic are
// supported through this driver; the capture and PWM modes need pin muxing
// that belongs to a different configuration path.
type TimerMode uint8

const (
	OneShot TimerMode = iota
	Periodic
)

// TimerBlock names one of the twelve general purpose timer blocks: six
// 16/32-bit short timers and six 32/64-bit wide timers.
type TimerBlock uint8

const (
	ShortTimer0 TimerBlock = iota
	ShortTimer1
	ShortTimer2
	ShortTimer3
	ShortTimer4
	ShortTimer5
	WideTimer0
	WideTimer1
	WideTimer2
	WideTimer3
	WideTimer4
	WideTimer5

	numTimerBlocks
)

// CountDir selects the count direction.
type CountDir uint8

const (
	CountDown CountDir = iota
	CountUp
)

// TimerUse selects the A or B half of a block, or both concatenated into a
// single full-width timer.
type TimerUse uint8

const (
	TimerA TimerUse = iota
	TimerB
	Concatenated
)

var timerBases = [numTimerBlocks]uint32{
	0x40030000, 0x40031000, 0x40032000, 0x40033000, 0x40034000, 0x40035000,
	0x40036000, 0x40037000, 0x4004C000, 0x4004D000, 0x4004E000, 0x4004F000,
}

// GPTM register offsets.
const (
	gptmCFG   = 0x000
	gptmTAMR  = 0x004
	gptmTBMR  = 0x008
	gptmCTL   = 0x00C
	gptmIMR   = 0x018
	gptmRIS   = 0x01C // RO
	gptmICR   = 0x024 // W1C
	gptmTAILR = 0x028
	gptmTBILR = 0x02C
	gptmTAPR  = 0x038
	gptmTBPR  = 0x03C
)

// Timeout interrupt vectors per block, A half then B half.
var timerIRQs = [numTimerBlocks][2]IRQ{
	{19, 20}, {21, 22}, {23, 24}, {35, 36}, {70, 71}, {92, 93},
	{94, 95}, {96, 97}, {98, 99}, {100, 101}, {102, 103}, {104, 105},
}

// Timer drives one general purpose timer block in one-shot or periodic mode.
type Timer struct {
	bus    mmio.Bus
	sc     *SysCtl
	block  TimerBlock
	use    TimerUse
	base   uint32
	action func()

	// timeout status/enable bit: 0 for A or concatenated, 8 for B
	toBit uint8
}

// NewTimer brings up the block and programs mode, direction and interval,
// leaving the timer disabled. Call Enable to start counting, then either
// Poll (polling use) or arm an interrupt with EnableInterrupt.
func NewTimer(bus mmio.Bus, sc *SysCtl, block TimerBlock, mode TimerMode, use TimerUse, dir CountDir, loadCycles uint32) (*Timer, error) {
	if block >= numTimerBlocks {
		return nil, fmt.Errorf("%w: timer block %d", ErrBadBlock, block)
	}
	if mode != OneShot && mode != Periodic {
		return nil, fmt.Errorf("%w: timer mode %d", ErrBadMode, mode)
	}
	if use > Concatenated {
		return nil, fmt.Errorf("%w: timer use %d", ErrBadMode, use)
	}

	t := &Timer{
		bus:   bus,
		sc:    sc,
		block: block,
		use:   use,
		base:  timerBases[block],
	}
	if use == TimerB {
		t.toBit = 8
	}

	fam, unit := FamilyTimer, uint8(block)
	if block >= WideTimer0 {
		fam, unit = FamilyWideTimer, uint8(block-WideTimer0)
	}

	err := sc.BringUp(fam, unit, func() error {
		t.configure(mode, dir, loadCycles)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Timer) configure(mode TimerMode, dir CountDir, loadCycles uint32) {
	bus := t.bus

	// Both halves stopped before reprogramming.
	mmio.WriteField(bus, t.base+gptmCTL, mmio.Bit(0, mmio.RW), 0)
	mmio.WriteField(bus, t.base+gptmCTL, mmio.Bit(8, mmio.RW), 0)

	// 0x0 selects the concatenated full-width timer, 0x4 the split halves.
	cfg := uint32(0x0)
	if t.use != Concatenated {
		cfg = 0x4
	}
	mmio.WriteField(bus, t.base+gptmCFG, mmio.Field{Start: 0, Width: 3, Access: mmio.RW}, cfg)

	modeBits := uint32(0x1) // one-shot
	if mode == Periodic {
		modeBits = 0x2
	}

	mr := uint32(gptmTAMR)
	ilr := uint32(gptmTAILR)
	pre := uint32(gptmTAPR)
	if t.use == TimerB {
		mr, ilr, pre = gptmTBMR, gptmTBILR, gptmTBPR
	}
	mmio.WriteField(bus, t.base+mr, mmio.Field{Start: 0, Width: 2, Access: mmio.RW}, modeBits)
	mmio.WriteField(bus, t.base+mr, mmio.Bit(4, mmio.RW), uint32(dir)) // 1 = count up

	// Concatenated timers and wide-timer halves count the full 32-bit load.
	// A short-timer half is 16 bits wide with an 8-bit prescaler extending
	// its range to 24 bits.
	if t.use == Concatenated || t.block >= WideTimer0 {
		mmio.WriteField(bus, t.base+ilr, mmio.Whole(mmio.RW), loadCycles)
	} else {
		mmio.WriteField(bus, t.base+ilr, mmio.Field{Start: 0, Width: 16, Access: mmio.RW}, loadCycles)
		mmio.WriteField(bus, t.base+pre, mmio.Field{Start: 0, Width: 8, Access: mmio.RW}, loadCycles>>16)
	}
}

// SetAction installs the no-argument action Poll invokes when the timeout
// latches. Polling-mode use only.
func (t *Timer) SetAction(action func()) {
	t.action = action
}

// EnableInterrupt unmasks the block's timeout interrupt and registers it
// with the controller at the given priority.
func (t *Timer) EnableInterrupt(ic IntController, prio uint8) error {
	if prio > MaxIntPriority {
		return fmt.Errorf("%w: %d (0..%d)", ErrBadPriority, prio, MaxIntPriority)
	}
	mmio.WriteField(t.bus, t.base+gptmIMR, mmio.Bit(t.toBit, mmio.RW), 1)

	half := 0
	if t.use == TimerB {
		half = 1
	}
	return ic.Enable(timerIRQs[t.block][half], prio)
}

// Enable starts the timer counting.
func (t *Timer) Enable() {
	bit := uint8(0)
	if t.use == TimerB {
		bit = 8
	}
	mmio.WriteField(t.bus, t.base+gptmCTL, mmio.Bit(bit, mmio.RW), 1)
}

// Disable stops the timer.
func (t *Timer) Disable() {
	bit := uint8(0)
	if t.use == TimerB {
		bit = 8
	}
	mmio.WriteField(t.bus, t.base+gptmCTL, mmio.Bit(bit, mmio.RW), 0)
}

// Poll checks the raw timeout status once. When the timeout has latched it
// clears the condition, invokes the action installed with SetAction, and
// reports true.
func (t *Timer) Poll() bool {
	if mmio.ReadField(t.bus, t.base+gptmRIS, mmio.Bit(t.toBit, mmio.RO)) == 0 {
		return false
	}
	t.ClearInterrupt()
	if t.action != nil {
		t.action()
	}
	return true
}

// Wait polls until the timeout latches or the ready-policy budget runs out,
// then behaves like a successful Poll.
func (t *Timer) Wait() error {
	for i := 0; i < t.sc.maxPolls(); i++ {
		if t.Poll() {
			return nil
		}
	}
	return fmt.Errorf("%w: timer %d timeout", ErrNotReady, t.block)
}

// ClearInterrupt acknowledges the latched timeout. Safe to call from the
// service routine, subject to the usual shared-register masking obligation.
func (t *Timer) ClearInterrupt() {
	mmio.WriteField(t.bus, t.base+gptmICR, mmio.Bit(t.toBit, mmio.W1C), 1)
}
