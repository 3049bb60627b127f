package tm4c

import (
	"fmt"

	"tivahal/mmio"
)

// The memory protection unit is a core peripheral in the ARMv7-M system
// control space; it has no clock gate and is always accessible from
// privileged code.
const (
	mpuType = 0xE000ED90 // RO
	mpuCtrl = 0xE000ED94
	mpuRNR  = 0xE000ED98 // region number
	mpuRBAR = 0xE000ED9C // region base address
	mpuRASR = 0xE000EDA0 // region attribute and size
)

// AP encodes an MPU region's access permission field.
type AP uint8

const (
	APNoAccess  AP = 0x0
	APPrivRW    AP = 0x1
	APPrivRWURO AP = 0x2
	APFullRW    AP = 0x3
	APPrivRO    AP = 0x5
	APReadOnly  AP = 0x6
)

// Region describes one MPU protection region.
type Region struct {
	Number uint8
	Base   uint32
	// SizeLog2 gives the region size as 2^SizeLog2 bytes; the
	// architectural minimum is 32 bytes (SizeLog2 = 5).
	SizeLog2     uint8
	AP           AP
	ExecuteNever bool
}

// MPU programs the memory protection unit.
type MPU struct {
	bus mmio.Bus
}

func NewMPU(bus mmio.Bus) *MPU {
	return &MPU{bus: bus}
}

// Regions returns the number of supported protection regions (0 when no
// MPU is fitted).
func (m *MPU) Regions() uint8 {
	return uint8(mmio.ReadField(m.bus, mpuType, mmio.Field{Start: 8, Width: 8, Access: mmio.RO}))
}

// Enable turns the MPU on. privDefault keeps the default memory map as a
// background region for privileged access; without it any access outside a
// programmed region faults.
func (m *MPU) Enable(privDefault bool) {
	if privDefault {
		mmio.WriteField(m.bus, mpuCtrl, mmio.Bit(2, mmio.RW), 1)
	}
	mmio.WriteField(m.bus, mpuCtrl, mmio.Bit(0, mmio.RW), 1)
}

// Disable turns the MPU off.
func (m *MPU) Disable() {
	mmio.WriteField(m.bus, mpuCtrl, mmio.Bit(0, mmio.RW), 0)
}

// Configure programs and enables one protection region. The base address
// must be aligned to the region size.
func (m *MPU) Configure(r Region) error {
	if r.Number >= 8 {
		return fmt.Errorf("%w: region %d", ErrBadRegion, r.Number)
	}
	if r.SizeLog2 < 5 || r.SizeLog2 > 32 {
		return fmt.Errorf("%w: size 2^%d", ErrBadRegion, r.SizeLog2)
	}
	if r.SizeLog2 < 32 && r.Base&(uint32(1)<<r.SizeLog2-1) != 0 {
		return fmt.Errorf("%w: base 0x%08X not aligned to 2^%d", ErrBadRegion, r.Base, r.SizeLog2)
	}

	mmio.WriteField(m.bus, mpuRNR, mmio.Field{Start: 0, Width: 8, Access: mmio.RW}, uint32(r.Number))
	mmio.WriteField(m.bus, mpuRBAR, mmio.Whole(mmio.RW), r.Base&^uint32(0x1F))

	attrs := uint32(1) // region enable
	attrs |= uint32(r.SizeLog2-1) << 1
	attrs |= uint32(r.AP) << 24
	if r.ExecuteNever {
		attrs |= 1 << 28
	}
	mmio.WriteField(m.bus, mpuRASR, mmio.Whole(mmio.RW), attrs)
	return nil
}
