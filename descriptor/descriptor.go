// Package descriptor implements the BUFR FXY descriptor: a 16-bit
// identifier decomposed as F (2 bits, class), X (6 bits), Y (8 bits).
package descriptor

import "fmt"

// Class enumerates the F part of a descriptor.
type Class uint8

const (
	ClassElement     Class = 0 // F=0: element descriptor, defined in Table B.
	ClassReplication Class = 1 // F=1: replication operator.
	ClassOperator    Class = 2 // F=2: Class 2 operator descriptor.
	ClassSequence    Class = 3 // F=3: sequence descriptor, defined in Table D.
)

// FXY is a decoded BUFR descriptor.
type FXY struct {
	F Class
	X uint8 // 0-63
	Y uint8 // 0-255
}

// New builds an FXY from its parts, masking X to 6 bits.
func New(f Class, x, y uint8) FXY {
	return FXY{F: f, X: x & 0x3F, Y: y}
}

// FromUint16 decomposes a 16-bit wire descriptor: bits 15-14 are F, bits
// 13-8 are X, bits 7-0 are Y.
func FromUint16(raw uint16) FXY {
	return FXY{
		F: Class(raw >> 14),
		X: uint8((raw >> 8) & 0x3F),
		Y: uint8(raw & 0xFF),
	}
}

// Uint16 packs the descriptor back into its 16-bit wire form.
func (d FXY) Uint16() uint16 {
	return uint16(d.F&0x3)<<14 | uint16(d.X&0x3F)<<8 | uint16(d.Y)
}

// FromFXXYYY parses the canonical six-digit decimal form "FXXYYY".
func FromFXXYYY(v int) FXY {
	f := v / 100000
	x := (v / 1000) % 100
	y := v % 1000

	return FXY{F: Class(f), X: uint8(x), Y: uint8(y)}
}

// FXXYYY returns the descriptor's canonical decimal form as an int, e.g.
// (F=0,X=12,Y=101) -> 12101.
func (d FXY) FXXYYY() int {
	return int(d.F)*100000 + int(d.X)*1000 + int(d.Y)
}

// String renders the canonical six-digit form, e.g. "012101".
func (d FXY) String() string {
	return fmt.Sprintf("%06d", d.FXXYYY())
}
