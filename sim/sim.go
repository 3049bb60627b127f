// Package sim implements an in-memory register file satisfying mmio.Bus.
// It stands in for the device during tests and offline tooling: registers
// can be given hardware-side semantics (write-1-to-clear masks) and
// per-address hooks so a test can model ready bits, FIFOs or counters.
package sim

// Op distinguishes trace entries.
type Op uint8

const (
	OpRead Op = iota
	OpWrite
)

func (o Op) String() string {
	if o == OpRead {
		return "read"
	}
	return "write"
}

// Access is one recorded bus access.
type Access struct {
	Op   Op
	Addr uint32
	Val  uint32 // value presented (read) or value driven (write)
}

// ReadHook observes a read; cur is the stored word and the returned value is
// what the bus presents to the caller. The stored word is not changed, which
// matches hardware whose read value is synthesized (counters, status bits).
type ReadHook func(cur uint32) uint32

// WriteHook observes a write after W1C folding; old is the previous stored
// word, next the candidate. The returned value is stored.
type WriteHook func(old, next uint32) uint32

// Bus is a sparse simulated 32-bit register space.
type Bus struct {
	mem     map[uint32]uint32
	w1c     map[uint32]uint32
	ro      map[uint32]bool
	wo      map[uint32]bool
	onRead  map[uint32]ReadHook
	onWrite map[uint32]WriteHook
	trace   []Access
}

func New() *Bus {
	return &Bus{
		mem:     make(map[uint32]uint32),
		w1c:     make(map[uint32]uint32),
		ro:      make(map[uint32]bool),
		wo:      make(map[uint32]bool),
		onRead:  make(map[uint32]ReadHook),
		onWrite: make(map[uint32]WriteHook),
	}
}

// Read32 implements mmio.Bus. A write-only address reads as zero regardless
// of what was written, like hardware returning unpredictable bus noise.
func (b *Bus) Read32(addr uint32) uint32 {
	v := b.mem[addr]
	if b.wo[addr] {
		v = 0
	}
	if h := b.onRead[addr]; h != nil {
		v = h(v)
	}
	b.trace = append(b.trace, Access{Op: OpRead, Addr: addr, Val: v})
	return v
}

// Write32 implements mmio.Bus. Bits covered by a W1C mask clear when written
// with 1 and ignore writes of 0; remaining bits store the driven value. A
// read-only address swallows writes entirely.
func (b *Bus) Write32(addr uint32, v uint32) {
	b.trace = append(b.trace, Access{Op: OpWrite, Addr: addr, Val: v})
	old := b.mem[addr]
	next := v
	if b.ro[addr] {
		next = old
	} else if m := b.w1c[addr]; m != 0 {
		// W1C bits survive unless written with 1; the rest store the value.
		next = (v &^ m) | (old & m &^ v)
	}
	if h := b.onWrite[addr]; h != nil {
		next = h(old, next)
	}
	b.mem[addr] = next
}

// MarkW1C declares the masked bits of addr as write-1-to-clear.
func (b *Bus) MarkW1C(addr uint32, mask uint32) {
	b.w1c[addr] = mask
}

// MarkReadOnly makes the hardware at addr ignore writes. This is the
// device-side behavior; the mmio access classes guard the driver side.
func (b *Bus) MarkReadOnly(addr uint32) {
	b.ro[addr] = true
}

// MarkWriteOnly makes the hardware at addr return zero on reads.
func (b *Bus) MarkWriteOnly(addr uint32) {
	b.wo[addr] = true
}

// OnRead installs h for addr, replacing any previous hook.
func (b *Bus) OnRead(addr uint32, h ReadHook) {
	b.onRead[addr] = h
}

// OnWrite installs h for addr, replacing any previous hook.
func (b *Bus) OnWrite(addr uint32, h WriteHook) {
	b.onWrite[addr] = h
}

// Poke stores a word without tracing or hooks. Test setup only.
func (b *Bus) Poke(addr uint32, v uint32) {
	b.mem[addr] = v
}

// Peek returns the stored word without tracing or hooks.
func (b *Bus) Peek(addr uint32) uint32 {
	return b.mem[addr]
}

// Trace returns the accesses recorded so far, in order.
func (b *Bus) Trace() []Access {
	return b.trace
}

// ResetTrace discards the recorded accesses.
func (b *Bus) ResetTrace() {
	b.trace = nil
}

// Snapshot returns a copy of every stored word keyed by address.
func (b *Bus) Snapshot() map[uint32]uint32 {
	out := make(map[uint32]uint32, len(b.mem))
	for a, v := range b.mem {
		out[a] = v
	}
	return out
}
