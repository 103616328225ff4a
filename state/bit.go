package state

// Bit is the value carried by a boolean state cell: 0, 1, or X (unknown).
// spec.md §3 encodes this with two bits per cell; we use a small integer
// enum instead since nothing in this module packs cells into words.
type Bit int8

const (
	Zero Bit = 0
	One  Bit = 1
	Unknown Bit = 2
)

// String renders the bit the way actsim's trace/log text does.
func (b Bit) String() string {
	switch b {
	case Zero:
		return "0"
	case One:
		return "1"
	default:
		return "X"
	}
}

// GlobalOffset addresses a cell in a Vector's flat arrays. Per spec.md §3,
// instance-local-to-global translation (non-negative add base, negative
// odd is a port index, negative even is a shared-global index) happens in
// package hierarchy; by the time a GlobalOffset reaches this package it is
// already resolved and non-negative.
type GlobalOffset int
