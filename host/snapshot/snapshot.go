// Package snapshot persists simulated register files as Intel HEX, the
// format the rest of the MCU tooling already speaks. A snapshot taken from
// one session (or exported from a debugger) seeds the simulator for the
// next one.
package snapshot

import (
	"fmt"
	"io"
	"sort"

	"github.com/marcinbor85/gohex"

	"tivahal/sim"
)

// Load parses Intel HEX from r into a fresh register file. Registers are
// 32-bit words stored little endian; every segment must start on a word
// boundary. A trailing partial word is zero padded.
func Load(r io.Reader) (*sim.Bus, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("snapshot: parse: %w", err)
	}

	bus := sim.New()
	for _, seg := range mem.GetDataSegments() {
		if seg.Address%4 != 0 {
			return nil, fmt.Errorf("snapshot: segment at %#08x not word aligned", seg.Address)
		}
		data := seg.Data
		for i := 0; i < len(data); i += 4 {
			var w [4]byte
			copy(w[:], data[i:])
			v := uint32(w[0]) | uint32(w[1])<<8 | uint32(w[2])<<16 | uint32(w[3])<<24
			bus.Poke(seg.Address+uint32(i), v)
		}
	}
	return bus, nil
}

// Save writes the register file's nonzero words to w as Intel HEX.
// Contiguous words are coalesced into one segment so the output stays
// compact and diffs cleanly.
func Save(w io.Writer, bus *sim.Bus) error {
	regs := bus.Snapshot()
	addrs := make([]uint32, 0, len(regs))
	for a := range regs {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	mem := gohex.NewMemory()
	var (
		segStart uint32
		segData  []byte
	)
	flush := func() error {
		if len(segData) == 0 {
			return nil
		}
		if err := mem.AddBinary(segStart, segData); err != nil {
			return fmt.Errorf("snapshot: add segment at %#08x: %w", segStart, err)
		}
		segData = nil
		return nil
	}

	for _, a := range addrs {
		if len(segData) == 0 || a != segStart+uint32(len(segData)) {
			if err := flush(); err != nil {
				return err
			}
			segStart = a
		}
		v := regs[a]
		segData = append(segData, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	if err := flush(); err != nil {
		return err
	}

	if err := mem.DumpIntelHex(w, 16); err != nil {
		return fmt.Errorf("snapshot: dump: %w", err)
	}
	return nil
}
