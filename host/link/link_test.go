package link

import (
	"errors"
	"io"
	"testing"
	"time"

	"tivahal/mmio"
	"tivahal/reglink"
	"tivahal/sim"
)

// loopbackPort hands written frames to a target stub and serves the stub's
// responses back to Read, like a serial cable with zero latency.
type loopbackPort struct {
	stub *reglink.Stub
	rx   []byte

	// dropNext discards that many responses, simulating line loss.
	dropNext int
}

func newLoopback(bus mmio.Bus) *loopbackPort {
	return &loopbackPort{stub: reglink.NewStub(bus)}
}

func (p *loopbackPort) Write(b []byte) (int, error) {
	rsp := p.stub.Process(b)
	if p.dropNext > 0 && len(rsp) > 0 {
		p.dropNext--
		return len(b), nil
	}
	p.rx = append(p.rx, rsp...)
	return len(b), nil
}

func (p *loopbackPort) Read(b []byte) (int, error) {
	if len(p.rx) == 0 {
		// A real port's read timeout returns zero bytes, no error.
		return 0, nil
	}
	n := copy(b, p.rx)
	p.rx = p.rx[n:]
	return n, nil
}

func (p *loopbackPort) Close() error { return nil }
func (p *loopbackPort) Flush() error { return nil }

func newTestClient(p *loopbackPort) *Client {
	c := NewClient(p)
	c.Timeout = 10 * time.Millisecond
	return c
}

func TestClientReadWrite(t *testing.T) {
	bus := sim.New()
	bus.Poke(0x400FE608, 0x20)
	c := newTestClient(newLoopback(bus))

	if err := c.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := c.Handshake(); err != nil {
		t.Fatalf("handshake: %v", err)
	}

	v, err := c.ReadReg(0x400FE608)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != 0x20 {
		t.Fatalf("read = %#x, want 0x20", v)
	}

	if err := c.WriteReg(0x40058400, 0x02); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := bus.Peek(0x40058400); got != 0x02 {
		t.Fatalf("write did not reach target: %#x", got)
	}
}

func TestClientRetriesLostResponse(t *testing.T) {
	bus := sim.New()
	bus.Poke(0x10, 0x55)
	p := newLoopback(bus)
	p.dropNext = 1
	c := newTestClient(p)

	v, err := c.ReadReg(0x10)
	if err != nil {
		t.Fatalf("read after lost response: %v", err)
	}
	if v != 0x55 {
		t.Fatalf("read = %#x, want 0x55", v)
	}
}

func TestClientTimesOut(t *testing.T) {
	p := newLoopback(sim.New())
	p.dropNext = 1 << 30
	c := newTestClient(p)

	if _, err := c.ReadReg(0x10); !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want %v", err, ErrTimeout)
	}
}

func TestRemoteBus(t *testing.T) {
	bus := sim.New()
	bus.Poke(0x40058000, 0xFF)
	c := newTestClient(newLoopback(bus))
	rb := c.Bus()

	if v := rb.Read32(0x40058000); v != 0xFF {
		t.Fatalf("Read32 = %#x", v)
	}
	rb.Write32(0x40058400, 0x1)
	if rb.Err() != nil {
		t.Fatalf("unexpected latched error: %v", rb.Err())
	}
	if got := bus.Peek(0x40058400); got != 0x1 {
		t.Fatalf("remote write missing: %#x", got)
	}

	// Field helpers run over the remote bus like any other.
	dir := mmio.Field{Start: 2, Width: 1, Access: mmio.RW}
	mmio.WriteField(rb, 0x40058400, dir, 1)
	if got := bus.Peek(0x40058400); got != 0x5 {
		t.Fatalf("remote field write: %#x", got)
	}
}

func TestRemoteBusLatchesError(t *testing.T) {
	p := newLoopback(sim.New())
	c := newTestClient(p)
	rb := c.Bus()

	p.dropNext = 1 << 30
	if v := rb.Read32(0x10); v != 0 {
		t.Fatalf("failed read returned %#x", v)
	}
	if rb.Err() == nil {
		t.Fatal("error not latched")
	}

	// Once latched, the bus goes quiet even if the line recovers.
	p.dropNext = 0
	rb.Write32(0x20, 0xAB)
	if rb.Err() == nil {
		t.Fatal("latched error cleared without Reset")
	}

	rb.Reset()
	if rb.Err() != nil {
		t.Fatal("Reset did not clear error")
	}
	rb.Write32(0x20, 0xAB)
	if rb.Err() != nil {
		t.Fatalf("write after Reset: %v", rb.Err())
	}
}

var _ io.ReadWriteCloser = (*loopbackPort)(nil)
