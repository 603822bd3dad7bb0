package tables

import "github.com/EUMETNET/rodeo-bufr-library/descriptor"

// BEntry is one Table B element definition: name, unit, scale, reference
// value, and bit width. Unit distinguishes "CCITT IA5" (text) and
// "Code table"/"Flag table" (integer lookup) from numeric units.
type BEntry struct {
	Name      string
	Unit      string
	Scale     int
	Reference int
	Width     uint
}

// IsIA5 reports whether the entry's unit marks it as a CCITT IA5 text run.
func (e BEntry) IsIA5() bool {
	return e.Unit == "CCITT IA5"
}

// IsCodeOrFlag reports whether the entry's unit marks it as a code/flag
// table lookup, decoded as a plain integer rather than a scaled value.
func (e BEntry) IsCodeOrFlag() bool {
	return e.Unit == "Code table" || e.Unit == "Flag table"
}

// B is a Table B catalogue: descriptor -> element definition.
type B struct {
	entries map[descriptor.FXY]BEntry
}

// NewB creates an empty Table B.
func NewB() *B {
	return &B{entries: make(map[descriptor.FXY]BEntry)}
}

// Set registers (or replaces) the entry for d.
func (b *B) Set(d descriptor.FXY, e BEntry) {
	b.entries[d] = e
}

// Get looks up the entry for d.
func (b *B) Get(d descriptor.FXY) (BEntry, bool) {
	e, ok := b.entries[d]

	return e, ok
}

// Len returns the number of registered entries.
func (b *B) Len() int {
	return len(b.entries)
}

// Overlay returns a fresh Table B containing the union of b and local,
// with local's entries replacing b's on a matching descriptor. Neither b
// nor local is mutated.
func (b *B) Overlay(local *B) *B {
	if local == nil || local.Len() == 0 {
		out := NewB()
		for d, e := range b.entries {
			out.Set(d, e)
		}

		return out
	}

	out := NewB()
	for d, e := range b.entries {
		out.Set(d, e)
	}
	for d, e := range local.entries {
		out.Set(d, e)
	}

	return out
}
