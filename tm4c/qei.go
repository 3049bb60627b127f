package tm4c

import (
	"fmt"

	"tivahal/mmio"
)

// The two quadrature encoder blocks.
var qeiBases = [2]uint32{0x4002C000, 0x4002D000}

// QEI block register offsets.
const (
	qeiCTL    = 0x000
	qeiSTAT   = 0x004 // RO
	qeiPOS    = 0x008
	qeiMaxPos = 0x00C
	qeiLoad   = 0x010
	qeiSpeed  = 0x01C // RO
	qeiIntEn  = 0x020
	qeiRIS    = 0x024 // RO
	qeiISC    = 0x028 // W1C
)

// QEICTL bit fields.
const (
	qeiCtlEnable  = 0  // module enable
	qeiCtlSwap    = 1  // swap PhA/PhB
	qeiCtlCapMode = 3  // capture on both edges
	qeiCtlResMode = 4  // reset on index pulse
	qeiCtlVelEn   = 5  // velocity capture enable
	qeiCtlVelDiv  = 6  // predivider, 3 bits
)

// QEIConfig carries construction-time encoder parameters.
type QEIConfig struct {
	// MaxPosition is the wrap point of the position integrator (counts
	// per revolution - 1 for index-less operation).
	MaxPosition uint32

	// CaptureBothEdges doubles the resolution by counting both PhA and
	// PhB edges.
	CaptureBothEdges bool

	// Swap exchanges the phase inputs, inverting the counting direction
	// for encoders wired backwards.
	Swap bool
}

// QEI drives one quadrature encoder interface block.
type QEI struct {
	bus   mmio.Bus
	base  uint32
	block uint8
}

// NewQEI brings up QEI block 0 or 1 and programs the position integrator.
// The module is left disabled; call Enable once the encoder inputs are
// muxed to the block.
func NewQEI(bus mmio.Bus, sc *SysCtl, block uint8, cfg QEIConfig) (*QEI, error) {
	if int(block) >= len(qeiBases) {
		return nil, fmt.Errorf("%w: QEI%d", ErrBadBlock, block)
	}

	q := &QEI{bus: bus, base: qeiBases[block], block: block}
	err := sc.BringUp(FamilyQEI, block, func() error {
		mmio.WriteField(bus, q.base+qeiCTL, mmio.Bit(qeiCtlEnable, mmio.RW), 0)
		mmio.WriteField(bus, q.base+qeiMaxPos, mmio.Whole(mmio.RW), cfg.MaxPosition)
		if cfg.CaptureBothEdges {
			mmio.WriteField(bus, q.base+qeiCTL, mmio.Bit(qeiCtlCapMode, mmio.RW), 1)
		}
		if cfg.Swap {
			mmio.WriteField(bus, q.base+qeiCTL, mmio.Bit(qeiCtlSwap, mmio.RW), 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Enable starts quadrature decoding.
func (q *QEI) Enable() {
	mmio.WriteField(q.bus, q.base+qeiCTL, mmio.Bit(qeiCtlEnable, mmio.RW), 1)
}

// Disable stops quadrature decoding; the position register holds its value.
func (q *QEI) Disable() {
	mmio.WriteField(q.bus, q.base+qeiCTL, mmio.Bit(qeiCtlEnable, mmio.RW), 0)
}

// Position returns the current position integrator value.
func (q *QEI) Position() uint32 {
	return mmio.ReadField(q.bus, q.base+qeiPOS, mmio.Whole(mmio.RW))
}

// SetPosition seeds the position integrator, typically after homing.
func (q *QEI) SetPosition(v uint32) {
	mmio.WriteField(q.bus, q.base+qeiPOS, mmio.Whole(mmio.RW), v)
}

// EnableVelocity arms velocity capture over the given timer period
// (system clocks per capture window) with a 2^preDiv predivider.
func (q *QEI) EnableVelocity(period uint32, preDiv uint8) error {
	if preDiv > 7 {
		return fmt.Errorf("%w: velocity predivider %d", ErrBadMode, preDiv)
	}
	mmio.WriteField(q.bus, q.base+qeiLoad, mmio.Whole(mmio.RW), period)
	mmio.WriteField(q.bus, q.base+qeiCTL, mmio.Field{Start: qeiCtlVelDiv, Width: 3, Access: mmio.RW}, uint32(preDiv))
	mmio.WriteField(q.bus, q.base+qeiCTL, mmio.Bit(qeiCtlVelEn, mmio.RW), 1)
	return nil
}

// Speed returns the edge count captured in the last velocity window.
func (q *QEI) Speed() uint32 {
	return mmio.ReadField(q.bus, q.base+qeiSpeed, mmio.Whole(mmio.RO))
}

// DirectionForward reports the decoded rotation direction from the status
// register (true = forward).
func (q *QEI) DirectionForward() bool {
	return mmio.ReadField(q.bus, q.base+qeiSTAT, mmio.Bit(1, mmio.RO)) == 0
}

// PhaseError reports a latched invalid phase transition.
func (q *QEI) PhaseError() bool {
	return mmio.ReadField(q.bus, q.base+qeiSTAT, mmio.Bit(0, mmio.RO)) != 0
}

// ClearInterrupt acknowledges the masked interrupt causes given (bit 0
// index, 1 velocity timer, 2 direction change, 3 phase error).
func (q *QEI) ClearInterrupt(mask uint32) {
	mmio.WriteField(q.bus, q.base+qeiISC, mmio.Field{Start: 0, Width: 4, Access: mmio.W1C}, mask)
}
