package mmio

import "testing"

// wordBus is a single-register bus; enough to exercise masking without
// dragging in the sim package (which would be an import cycle in spirit:
// sim implements this package's Bus).
type wordBus struct {
	word   uint32
	reads  int
	writes int
}

func (b *wordBus) Read32(addr uint32) uint32     { b.reads++; return b.word }
func (b *wordBus) Write32(addr uint32, v uint32) { b.writes++; b.word = v }

func TestWriteThenReadBack(t *testing.T) {
	cases := []struct {
		start, width uint8
		value        uint32
	}{
		{0, 1, 1},
		{5, 1, 1},
		{31, 1, 1},
		{4, 4, 0xA},
		{12, 4, 0xF},
		{8, 16, 0xBEEF},
		{20, 12, 0x5A5},
		{0, 32, 0xDEADBEEF},
	}

	for _, tc := range cases {
		bus := &wordBus{word: 0xFFFFFFFF}
		f := Field{Start: tc.start, Width: tc.width, Access: RW}
		WriteField(bus, 0, f, tc.value)
		got := ReadField(bus, 0, f)
		if got != tc.value {
			t.Errorf("field [%d:%d]: wrote 0x%X, read back 0x%X", tc.start, tc.width, tc.value, got)
		}
	}
}

func TestSiblingFieldsUntouched(t *testing.T) {
	bus := &wordBus{}

	lo := Field{Start: 0, Width: 8, Access: RW}
	mid := Field{Start: 8, Width: 8, Access: RW}
	hi := Field{Start: 16, Width: 16, Access: RW}

	WriteField(bus, 0, lo, 0x11)
	WriteField(bus, 0, mid, 0x22)
	WriteField(bus, 0, hi, 0x3344)

	// Rewrite the middle field only.
	WriteField(bus, 0, mid, 0xAB)

	if v := ReadField(bus, 0, lo); v != 0x11 {
		t.Errorf("low sibling changed: got 0x%X", v)
	}
	if v := ReadField(bus, 0, hi); v != 0x3344 {
		t.Errorf("high sibling changed: got 0x%X", v)
	}
	if v := ReadField(bus, 0, mid); v != 0xAB {
		t.Errorf("target field: got 0x%X", v)
	}
}

func TestWriteIdempotent(t *testing.T) {
	bus := &wordBus{word: 0x12345678}
	f := Field{Start: 4, Width: 8, Access: RW}

	WriteField(bus, 0, f, 0x9C)
	once := bus.word
	WriteField(bus, 0, f, 0x9C)
	if bus.word != once {
		t.Errorf("second identical write changed register: 0x%08X -> 0x%08X", once, bus.word)
	}
}

func TestWholeRegisterField(t *testing.T) {
	bus := &wordBus{word: 0xA5A5A5A5}
	f := Whole(RW)

	WriteField(bus, 0, f, 0x01020304)
	if bus.word != 0x01020304 {
		t.Errorf("whole-register write: got 0x%08X", bus.word)
	}
	if v := ReadField(bus, 0, f); v != 0x01020304 {
		t.Errorf("whole-register read: got 0x%08X", v)
	}
}

func TestValueMaskedToWidth(t *testing.T) {
	bus := &wordBus{}
	f := Field{Start: 8, Width: 4, Access: RW}

	// Excess high bits of the value must not leak into sibling bits.
	WriteField(bus, 0, f, 0xFFFF)
	if bus.word != 0x00000F00 {
		t.Errorf("oversized value leaked: got 0x%08X", bus.word)
	}
}

func TestWriteOnlySkipsRead(t *testing.T) {
	bus := &wordBus{}
	WriteField(bus, 0, Whole(WO), 0xCAFE0000)

	if bus.reads != 0 {
		t.Errorf("write to WO field performed %d reads; reading WO registers is undefined", bus.reads)
	}
	if bus.word != 0xCAFE0000 {
		t.Errorf("WO write: got 0x%08X", bus.word)
	}
}

func expectAccessPanic(t *testing.T, op string, fn func()) *AccessError {
	t.Helper()
	var got *AccessError
	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatalf("%s: expected panic, got none", op)
			}
			ae, ok := r.(*AccessError)
			if !ok {
				t.Fatalf("%s: panic value %v is not *AccessError", op, r)
			}
			got = ae
		}()
		fn()
	}()
	return got
}

func TestReadOnlyWritePanics(t *testing.T) {
	bus := &wordBus{}
	ae := expectAccessPanic(t, "RO write", func() {
		WriteField(bus, 0x4005A404, Bit(3, RO), 1)
	})
	if ae.Op != "write" {
		t.Errorf("unexpected op %q", ae.Op)
	}
	if bus.writes != 0 {
		t.Errorf("RO write reached the bus (%d writes)", bus.writes)
	}
}

func TestWriteOnlyReadPanics(t *testing.T) {
	bus := &wordBus{word: 0x1234}
	ae := expectAccessPanic(t, "WO read", func() {
		ReadField(bus, 0x40038D00, Whole(WO))
	})
	if ae.Op != "read" {
		t.Errorf("unexpected op %q", ae.Op)
	}
	if bus.reads != 0 {
		t.Errorf("WO read reached the bus (%d reads)", bus.reads)
	}
}

func TestOutOfBoundsFieldPanics(t *testing.T) {
	bus := &wordBus{}
	expectAccessPanic(t, "oversized field", func() {
		WriteField(bus, 0, Field{Start: 30, Width: 4, Access: RW}, 1)
	})
	expectAccessPanic(t, "zero-width field", func() {
		ReadField(bus, 0, Field{Start: 0, Width: 0, Access: RO})
	})
}

func TestW1CUsesReadModifyWrite(t *testing.T) {
	// At the bus level a W1C field write behaves like RW: the driver reads
	// the register and writes back with only the target bits changed. The
	// clear-on-one semantics belong to the hardware (see the sim package).
	bus := &wordBus{word: 0}
	WriteField(bus, 0, Bit(4, W1C), 1)
	if bus.reads != 1 || bus.writes != 1 {
		t.Errorf("W1C write: %d reads, %d writes; want 1 and 1", bus.reads, bus.writes)
	}
	if bus.word != 1<<4 {
		t.Errorf("W1C write: got 0x%08X", bus.word)
	}
}
