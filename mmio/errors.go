package mmio

import "fmt"

// AccessError describes a disallowed register access: writing a read-only
// field, reading a write-only field, or a field that does not fit in 32 bits.
// These indicate software defects, not environmental conditions, so the
// package panics with an *AccessError instead of returning it.
type AccessError struct {
	Addr   uint32
	Field  Field
	Op     string
	Reason string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("mmio: %s of %s field [%d:%d] at 0x%08X: %s",
		e.Op, e.Field.Access, e.Field.Start, e.Field.Start+e.Field.Width-1, e.Addr, e.Reason)
}
