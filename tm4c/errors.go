package tm4c

import "errors"

var (
	// ErrNotReady is returned when a bounded hardware poll (peripheral-ready
	// bit, conversion complete) exhausts its retry budget.
	ErrNotReady = errors.New("peripheral not ready")

	// ErrBadPin is returned for reserved or out-of-range pin values.
	ErrBadPin = errors.New("invalid pin")

	// ErrBadPriority is returned for interrupt priorities outside 0..7.
	ErrBadPriority = errors.New("invalid interrupt priority")

	// ErrBadMode is returned for unsupported mode selections.
	ErrBadMode = errors.New("invalid mode")

	// ErrBadBlock is returned for out-of-range peripheral block numbers.
	ErrBadBlock = errors.New("invalid peripheral block")

	// ErrBadRegion is returned for malformed MPU region parameters.
	ErrBadRegion = errors.New("invalid MPU region")

	// ErrBadChannel is returned for out-of-range ADC input channels.
	ErrBadChannel = errors.New("invalid channel")
)
