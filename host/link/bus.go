package link

import "tivahal/mmio"

// RemoteBus adapts a Client to the register bus interface, so the field
// helpers and peripheral drivers can run on the host against live hardware.
//
// The bus interface has no error returns, so link failures are latched:
// after the first failure every Read32 returns zero, every Write32 is
// dropped, and Err reports what went wrong. Callers run a sequence of
// accesses and check Err once at the end.
type RemoteBus struct {
	c   *Client
	err error
}

// Bus returns a latching bus view of the client.
func (c *Client) Bus() *RemoteBus {
	return &RemoteBus{c: c}
}

var _ mmio.Bus = (*RemoteBus)(nil)

func (b *RemoteBus) Read32(addr uint32) uint32 {
	if b.err != nil {
		return 0
	}
	v, err := b.c.ReadReg(addr)
	if err != nil {
		b.err = err
		return 0
	}
	return v
}

func (b *RemoteBus) Write32(addr uint32, v uint32) {
	if b.err != nil {
		return
	}
	if err := b.c.WriteReg(addr, v); err != nil {
		b.err = err
	}
}

// Err returns the first link failure since the last Reset, or nil.
func (b *RemoteBus) Err() error { return b.err }

// Reset clears a latched failure so the bus can be used again.
func (b *RemoteBus) Reset() { b.err = nil }
