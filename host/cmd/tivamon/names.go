package main

import "fmt"

// Symbolic names for the registers people poke at most from the monitor:
// the System Control clock tree and the per-port GPIO blocks.
var sysctlNames = map[uint32]string{
	0x400FE308: "PPGPIO",
	0x400FE508: "SRGPIO",
	0x400FE608: "RCGCGPIO",
	0x400FEA08: "PRGPIO",
	0x400FE604: "RCGCTIMER",
	0x400FEA04: "PRTIMER",
	0x400FE65C: "RCGCWTIMER",
	0x400FEA5C: "PRWTIMER",
	0x400FE638: "RCGCADC",
	0x400FEA38: "PRADC",
	0x400FE644: "RCGCQEI",
	0x400FEA44: "PRQEI",
}

var gpioOffsetNames = map[uint32]string{
	0x3FC: "DATA",
	0x400: "DIR",
	0x404: "IS",
	0x408: "IBE",
	0x40C: "IEV",
	0x410: "IM",
	0x414: "RIS",
	0x418: "MIS",
	0x41C: "ICR",
	0x420: "AFSEL",
	0x510: "PUR",
	0x51C: "DEN",
	0x520: "LOCK",
	0x524: "CR",
	0x528: "AMSEL",
}

// regName returns a symbolic name for addr, or "" when it has none.
func regName(addr uint32) string {
	if n, ok := sysctlNames[addr]; ok {
		return n
	}
	// GPIO AHB aperture: 0x4005.8000 + 0x1000 per port, ports A..F.
	if addr >= 0x40058000 && addr < 0x4005E000 {
		port := (addr - 0x40058000) >> 12
		if n, ok := gpioOffsetNames[addr&0xFFF]; ok {
			return fmt.Sprintf("GPIO%c_%s", 'A'+byte(port), n)
		}
	}
	return ""
}
