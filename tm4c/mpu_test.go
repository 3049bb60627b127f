package tm4c

import (
	"errors"
	"testing"

	"tivahal/sim"
)

func TestMPURegions(t *testing.T) {
	bus := sim.New()
	bus.Poke(mpuType, 8<<8) // 8 regions fitted
	m := NewMPU(bus)
	if got := m.Regions(); got != 8 {
		t.Errorf("Regions: got %d, want 8", got)
	}
}

func TestMPUEnable(t *testing.T) {
	bus := sim.New()
	m := NewMPU(bus)

	m.Enable(true)
	ctrl := bus.Peek(mpuCtrl)
	if ctrl&1 == 0 {
		t.Errorf("ENABLE not set: CTRL=0x%08X", ctrl)
	}
	if ctrl&(1<<2) == 0 {
		t.Errorf("PRIVDEFEN not set: CTRL=0x%08X", ctrl)
	}

	m.Disable()
	if bus.Peek(mpuCtrl)&1 != 0 {
		t.Errorf("ENABLE not cleared")
	}
}

func TestMPUConfigureRegion(t *testing.T) {
	bus := sim.New()
	m := NewMPU(bus)

	err := m.Configure(Region{
		Number:       2,
		Base:         0x20000000,
		SizeLog2:     17, // 128 KiB SRAM
		AP:           APFullRW,
		ExecuteNever: true,
	})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}

	if got := bus.Peek(mpuRNR); got != 2 {
		t.Errorf("RNR: got %d", got)
	}
	if got := bus.Peek(mpuRBAR); got != 0x20000000 {
		t.Errorf("RBAR: got 0x%08X", got)
	}
	rasr := bus.Peek(mpuRASR)
	if rasr&1 == 0 {
		t.Errorf("region not enabled: RASR=0x%08X", rasr)
	}
	if got := (rasr >> 1) & 0x1F; got != 16 {
		t.Errorf("SIZE field: got %d, want 16", got)
	}
	if got := (rasr >> 24) & 0x7; got != uint32(APFullRW) {
		t.Errorf("AP field: got %d", got)
	}
	if rasr&(1<<28) == 0 {
		t.Errorf("XN not set: RASR=0x%08X", rasr)
	}
}

func TestMPUBadRegion(t *testing.T) {
	m := NewMPU(sim.New())

	cases := []Region{
		{Number: 8, Base: 0, SizeLog2: 10},              // region out of range
		{Number: 0, Base: 0, SizeLog2: 4},               // below minimum size
		{Number: 0, Base: 0x20000004, SizeLog2: 10},     // misaligned base
	}
	for i, r := range cases {
		if err := m.Configure(r); !errors.Is(err, ErrBadRegion) {
			t.Errorf("case %d: err = %v, want ErrBadRegion", i, err)
		}
	}
}

func TestPinArithmetic(t *testing.T) {
	cases := []struct {
		pin       Pin
		port, bit uint8
		name      string
	}{
		{PA0, 0, 0, "PA0"},
		{PB3, 1, 3, "PB3"},
		{PD7, 3, 7, "PD7"},
		{PF4, 5, 4, "PF4"},
	}
	for _, c := range cases {
		if c.pin.Port() != c.port || c.pin.Bit() != c.bit {
			t.Errorf("%s: port/bit = %d/%d", c.name, c.pin.Port(), c.pin.Bit())
		}
		if c.pin.String() != c.name {
			t.Errorf("String: got %s, want %s", c.pin.String(), c.name)
		}
	}

	if !PF0.Protected() || !PD7.Protected() {
		t.Errorf("NMI-defaulted pins not marked protected")
	}
	if PF1.Protected() {
		t.Errorf("PF1 wrongly marked protected")
	}
}
