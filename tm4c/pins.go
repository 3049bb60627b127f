package tm4c

import "fmt"

// Pin identifies a logical GPIO pin on the TM4C123GH6PM. The port index is
// Pin/8 and the bit within the port is Pin%8.
type Pin uint8

const (
	PA0 Pin = iota
	PA1
	PA2
	PA3
	PA4
	PA5
	PA6
	PA7
	PB0
	PB1
	PB2
	PB3
	PB4
	PB5
	PB6
	PB7
	PC0
	PC1
	PC2
	PC3
	PC4
	PC5
	PC6
	PC7
	PD0
	PD1
	PD2
	PD3
	PD4
	PD5
	PD6
	PD7
	PE0
	PE1
	PE2
	PE3
	PE4
	PE5
	PE6 // not bonded out on this package
	PE7 // not bonded out on this package
	PF0
	PF1
	PF2
	PF3
	PF4
	PF5 // not bonded out on this package
	PF6 // not bonded out on this package
	PF7 // not bonded out on this package

	numPins
)

// Port returns the port index (0 = A .. 5 = F).
func (p Pin) Port() uint8 { return uint8(p) / 8 }

// Bit returns the pin's bit position within its port registers.
func (p Pin) Bit() uint8 { return uint8(p) % 8 }

// Valid reports whether p names a pin that exists on the TM4C123GH6PM.
// PE6, PE7 and PF5..PF7 are in the enum for arithmetic regularity but are
// not present on the device.
func (p Pin) Valid() bool {
	switch p {
	case PE6, PE7, PF5, PF6, PF7:
		return false
	}
	return p < numPins
}

// Protected reports whether p is a special-consideration pin whose commit
// register must be unlocked before reconfiguration. PF0 and PD7 default to
// NMI out of reset and are write-protected by the GPIOLOCK/GPIOCR pair.
func (p Pin) Protected() bool {
	return p == PF0 || p == PD7
}

func (p Pin) String() string {
	if p >= numPins {
		return fmt.Sprintf("Pin(%d)", uint8(p))
	}
	return fmt.Sprintf("P%c%d", 'A'+p.Port(), p.Bit())
}
