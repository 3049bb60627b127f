package tm4c

import (
	"fmt"

	"tivahal/mmio"
)

// The two ADC blocks share twelve input channels (AIN0..AIN11), 12-bit
// resolution. The module clock must be enabled and the 3-clock settle delay
// observed before any ADC register is touched.
var adcBases = [2]uint32{0x40038000, 0x40039000}

// NumADCChannels is the number of shared analog inputs.
const NumADCChannels = 12

// ADC block register offsets. Access classes follow the data sheet: the
// FIFOs and raw status are RO, ISC is W1C, DCRIC is WO.
const (
	adcACTSS   = 0x000 // active sample sequencer
	adcRIS     = 0x004 // raw interrupt status, RO
	adcIM      = 0x008
	adcISC     = 0x00C // interrupt status and clear, W1C
	adcEMUX    = 0x014 // event (trigger) multiplexer
	adcSSPRI   = 0x020 // sequencer priority
	adcPSSI    = 0x028 // processor sample sequence initiate
	adcSAC     = 0x030 // sample averaging control
	adcSSMUX3  = 0x0A0 // sequencer 3 input multiplexer
	adcSSCTL3  = 0x0A4 // sequencer 3 control
	adcSSFIFO3 = 0x0A8 // sequencer 3 result FIFO, RO
	adcDCRIC   = 0xD00 // digital comparator reset initial conditions, WO
)

// ADC drives one of the two ADC blocks, sampling through sequencer SS3
// (single-entry, software triggered).
type ADC struct {
	bus   mmio.Bus
	sc    *SysCtl
	base  uint32
	block uint8
}

// Averaging factors for SetAveraging; hardware averages 2^n samples.
const MaxAveragingShift = 6 // 64-sample averaging

// NewADC brings up ADC block 0 or 1 and leaves sequencer 3 configured for
// processor-triggered single samples.
func NewADC(bus mmio.Bus, sc *SysCtl, block uint8) (*ADC, error) {
	if int(block) >= len(adcBases) {
		return nil, fmt.Errorf("%w: ADC%d", ErrBadBlock, block)
	}

	a := &ADC{bus: bus, sc: sc, base: adcBases[block], block: block}
	err := sc.BringUp(FamilyADC, block, func() error {
		// SS3 disabled while its trigger and mux are programmed.
		mmio.WriteField(bus, a.base+adcACTSS, mmio.Bit(3, mmio.RW), 0)
		// EM3 = 0: processor (software) trigger.
		mmio.WriteField(bus, a.base+adcEMUX, mmio.Field{Start: 12, Width: 4, Access: mmio.RW}, 0)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// SetAveraging selects 2^shift hardware sample averaging (0 disables).
func (a *ADC) SetAveraging(shift uint8) error {
	if shift > MaxAveragingShift {
		return fmt.Errorf("%w: averaging shift %d", ErrBadMode, shift)
	}
	mmio.WriteField(a.bus, a.base+adcSAC, mmio.Field{Start: 0, Width: 3, Access: mmio.RW}, uint32(shift))
	return nil
}

// Sample runs one software-triggered conversion of channel ch on sequencer 3
// and returns the 12-bit result. The completion poll is bounded by the
// sysctl ready policy; a stuck conversion returns ErrNotReady.
func (a *ADC) Sample(ch uint8) (uint16, error) {
	if ch >= NumADCChannels {
		return 0, fmt.Errorf("%w: AIN%d", ErrBadChannel, ch)
	}
	bus := a.bus

	mmio.WriteField(bus, a.base+adcACTSS, mmio.Bit(3, mmio.RW), 0)
	mmio.WriteField(bus, a.base+adcSSMUX3, mmio.Field{Start: 0, Width: 4, Access: mmio.RW}, uint32(ch))
	// Single entry: interrupt enable + end of sequence on the first sample.
	mmio.WriteField(bus, a.base+adcSSCTL3, mmio.Field{Start: 0, Width: 4, Access: mmio.RW}, 0x6)
	mmio.WriteField(bus, a.base+adcACTSS, mmio.Bit(3, mmio.RW), 1)

	// Kick the sequencer and wait for the raw status bit to latch.
	mmio.WriteField(bus, a.base+adcPSSI, mmio.Bit(3, mmio.RW), 1)

	done := false
	for i := 0; i < a.sc.maxPolls(); i++ {
		if mmio.ReadField(bus, a.base+adcRIS, mmio.Bit(3, mmio.RO)) != 0 {
			done = true
			break
		}
	}
	if !done {
		return 0, fmt.Errorf("%w: ADC%d SS3 conversion", ErrNotReady, a.block)
	}

	v := mmio.ReadField(bus, a.base+adcSSFIFO3, mmio.Field{Start: 0, Width: 12, Access: mmio.RO})
	mmio.WriteField(bus, a.base+adcISC, mmio.Bit(3, mmio.W1C), 1)
	return uint16(v), nil
}

// ResetComparators resets the digital comparators' initial conditions. The
// register is write-only; reading it back is a precondition violation.
func (a *ADC) ResetComparators() {
	mmio.WriteField(a.bus, a.base+adcDCRIC, mmio.Whole(mmio.WO), 0x00FF00FF)
}

// ComparatorResetRegister exposes the WO register address for diagnostics.
func (a *ADC) ComparatorResetRegister() uint32 {
	return a.base + adcDCRIC
}
