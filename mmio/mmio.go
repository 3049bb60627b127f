// Package mmio implements masked bit-field access to 32-bit memory-mapped
// registers. All accesses go through a Bus, so the same driver code can talk
// to a live device or to a simulated register file.
package mmio

// Bus is a 32-bit register bus. Implementations must not cache values:
// register contents can change underneath software (counters, latched
// interrupt flags), so every ReadField call reaches the bus again.
type Bus interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, v uint32)
}

// Access is the hardware access class of a register bit field.
type Access uint8

const (
	RO  Access = iota // read-only
	RW                // read/write
	W1C               // write 1 to clear
	WO                // write-only; reads are undefined
)

func (a Access) String() string {
	switch a {
	case RO:
		return "RO"
	case RW:
		return "RW"
	case W1C:
		return "W1C"
	case WO:
		return "WO"
	}
	return "access?"
}

// Field describes a contiguous bit range within one 32-bit register.
// Start+Width must not exceed 32.
type Field struct {
	Start  uint8
	Width  uint8
	Access Access
}

// Bit returns a single-bit field.
func Bit(start uint8, acc Access) Field {
	return Field{Start: start, Width: 1, Access: acc}
}

// Whole returns a field covering the full 32-bit register.
func Whole(acc Access) Field {
	return Field{Start: 0, Width: 32, Access: acc}
}

// mask returns the field mask in register position.
func (f Field) mask() uint32 {
	return (^uint32(0) >> (32 - f.Width)) << f.Start
}

func (f Field) check(addr uint32, op string) {
	if f.Width == 0 || uint(f.Start)+uint(f.Width) > 32 {
		panic(&AccessError{Addr: addr, Field: f, Op: op, Reason: "field exceeds register bounds"})
	}
}

// WriteField writes v into the field at addr. For RW and W1C fields this is a
// read-modify-write: bits outside the field keep their current value. For WO
// fields the shifted value is written directly, without reading (reading a
// write-only register is undefined by the hardware contract). Writing a RO
// field is a programming defect and panics with an *AccessError.
//
// The read-modify-write is not atomic with respect to interrupt handlers
// touching the same register; callers must guarantee exclusivity themselves.
func WriteField(b Bus, addr uint32, f Field, v uint32) {
	f.check(addr, "write")
	switch f.Access {
	case RO:
		panic(&AccessError{Addr: addr, Field: f, Op: "write", Reason: "write to read-only field"})
	case WO:
		b.Write32(addr, (v<<f.Start)&f.mask())
	default:
		m := f.mask()
		cur := b.Read32(addr)
		b.Write32(addr, (cur&^m)|((v<<f.Start)&m))
	}
}

// ReadField returns the current value of the field at addr, shifted down to
// bit 0. Valid for RO, RW and W1C fields. Reading a WO field is a programming
// defect and panics with an *AccessError; hardware does not define the result
// of such a read, so it must never silently return 0.
func ReadField(b Bus, addr uint32, f Field) uint32 {
	f.check(addr, "read")
	if f.Access == WO {
		panic(&AccessError{Addr: addr, Field: f, Op: "read", Reason: "read of write-only field"})
	}
	return (b.Read32(addr) >> f.Start) & (^uint32(0) >> (32 - f.Width))
}
