package tm4c

import (
	"fmt"

	"tivahal/mmio"
)

// System Control block, base 0x400F.E000. Per peripheral family it carries a
// peripheral-present register (PP*, RO), software reset (SR*), run-mode clock
// gating (RCGC*) and peripheral-ready (PR*, RO); one bit per block instance.
const sysctlBase = 0x400FE000

// Family selects a peripheral family's System Control registers.
type Family uint8

const (
	FamilyGPIO Family = iota
	FamilyTimer
	FamilyWideTimer
	FamilyADC
	FamilyQEI

	numFamilies
)

func (f Family) String() string {
	switch f {
	case FamilyGPIO:
		return "GPIO"
	case FamilyTimer:
		return "Timer"
	case FamilyWideTimer:
		return "WideTimer"
	case FamilyADC:
		return "ADC"
	case FamilyQEI:
		return "QEI"
	}
	return "family?"
}

// Offsets into the System Control block, indexed by Family.
var familyRegs = [numFamilies]struct {
	pp, sr, rcgc, pr uint32
}{
	FamilyGPIO:      {pp: 0x308, sr: 0x508, rcgc: 0x608, pr: 0xA08},
	FamilyTimer:     {pp: 0x304, sr: 0x504, rcgc: 0x604, pr: 0xA04},
	FamilyWideTimer: {pp: 0x35C, sr: 0x55C, rcgc: 0x65C, pr: 0xA5C},
	FamilyADC:       {pp: 0x338, sr: 0x538, rcgc: 0x638, pr: 0xA38},
	FamilyQEI:       {pp: 0x344, sr: 0x544, rcgc: 0x644, pr: 0xA44},
}

// SettleCycles is the documented minimum delay between enabling a module
// clock and the first access to the module's registers (3 system clocks).
// The ready bit alone does not guarantee this on every family.
const SettleCycles = 3

// DefaultMaxPolls bounds the peripheral-ready busy-wait. The hardware is
// expected to come ready within a few cycles; hitting this bound means the
// peripheral is absent or the clock tree is misconfigured.
const DefaultMaxPolls = 1_000_000

// ReadyPolicy controls the Awaiting-ready phase of peripheral bring-up.
type ReadyPolicy struct {
	// MaxPolls bounds the ready-bit poll; 0 selects DefaultMaxPolls.
	MaxPolls int

	// Settle, when non-nil, is invoked once with SettleCycles after the
	// ready bit reads 1 and before the first module register access. On a
	// live target this burns the given number of system clocks; under
	// simulation it is a test observation point.
	Settle func(cycles int)
}

func (p ReadyPolicy) maxPolls() int {
	if p.MaxPolls <= 0 {
		return DefaultMaxPolls
	}
	return p.MaxPolls
}

// SysCtl drives the System Control block: clock gating, ready polling and
// peripheral reset. One instance is shared by all drivers on a bus.
type SysCtl struct {
	bus    mmio.Bus
	policy ReadyPolicy
}

func NewSysCtl(bus mmio.Bus) *SysCtl {
	return &SysCtl{bus: bus}
}

func NewSysCtlWithPolicy(bus mmio.Bus, policy ReadyPolicy) *SysCtl {
	return &SysCtl{bus: bus, policy: policy}
}

// Present reports whether block unit of the family exists on this device,
// from the RO peripheral-present register.
func (s *SysCtl) Present(fam Family, unit uint8) bool {
	return mmio.ReadField(s.bus, sysctlBase+familyRegs[fam].pp, mmio.Bit(unit, mmio.RO)) != 0
}

// Reset pulses the software-reset bit for block unit of the family. The
// peripheral returns to its reset state and must be brought up again.
func (s *SysCtl) Reset(fam Family, unit uint8) {
	sr := sysctlBase + familyRegs[fam].sr
	mmio.WriteField(s.bus, sr, mmio.Bit(unit, mmio.RW), 1)
	mmio.WriteField(s.bus, sr, mmio.Bit(unit, mmio.RW), 0)
}

// Bring-up runs through four states, strictly forward. Transitions are
// asserted so an ordering bug in a driver fails loudly instead of silently
// misprogramming a half-clocked peripheral.
type bringupState uint8

const (
	stateUnclocked bringupState = iota
	stateClockEnabled
	stateReady
	stateConfigured
)

type bringup struct {
	sc    *SysCtl
	fam   Family
	unit  uint8
	state bringupState
}

func (b *bringup) mustBe(s bringupState, op string) {
	if b.state != s {
		panic(fmt.Sprintf("sysctl: %s for %s block %d in bring-up state %d", op, b.fam, b.unit, b.state))
	}
}

// enableClock sets the run-mode clock gate. Until this point no register in
// the peripheral's block may be touched.
func (b *bringup) enableClock() {
	b.mustBe(stateUnclocked, "enable clock")
	mmio.WriteField(b.sc.bus, sysctlBase+familyRegs[b.fam].rcgc, mmio.Bit(b.unit, mmio.RW), 1)
	b.state = stateClockEnabled
}

// waitReady busy-polls the peripheral-ready bit within the policy's budget,
// then observes the settle delay.
func (b *bringup) waitReady() error {
	b.mustBe(stateClockEnabled, "wait ready")
	pr := sysctlBase + familyRegs[b.fam].pr
	bit := mmio.Bit(b.unit, mmio.RO)

	ok := false
	for i := 0; i < b.sc.policy.maxPolls(); i++ {
		if mmio.ReadField(b.sc.bus, pr, bit) != 0 {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: %s block %d", ErrNotReady, b.fam, b.unit)
	}
	if b.sc.policy.Settle != nil {
		b.sc.policy.Settle(SettleCycles)
	}
	b.state = stateReady
	return nil
}

func (b *bringup) configured() {
	b.mustBe(stateReady, "finish configuration")
	b.state = stateConfigured
}

// BringUp transitions block unit of the family from unclocked to configured:
// clock-gate enable, bounded ready poll, settle delay, then the caller's
// configure step with the peripheral's registers accessible. Every driver
// constructor funnels through here so the documented ordering holds uniformly.
func (s *SysCtl) BringUp(fam Family, unit uint8, configure func() error) error {
	if fam >= numFamilies {
		return fmt.Errorf("%w: family %d", ErrBadBlock, fam)
	}
	b := &bringup{sc: s, fam: fam, unit: unit}
	b.enableClock()
	if err := b.waitReady(); err != nil {
		return err
	}
	if configure != nil {
		if err := configure(); err != nil {
			return err
		}
	}
	b.configured()
	return nil
}

// maxPolls exposes the effective poll budget to drivers that run their own
// bounded hardware polls (ADC conversion complete, timer timeout).
func (s *SysCtl) maxPolls() int {
	return s.policy.maxPolls()
}
