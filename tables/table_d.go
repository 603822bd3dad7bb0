package tables

import "github.com/EUMETNET/rodeo-bufr-library/descriptor"

// D is a Table D catalogue: sequence descriptor -> ordered child
// descriptor list.
type D struct {
	entries map[descriptor.FXY][]descriptor.FXY
}

// NewD creates an empty Table D.
func NewD() *D {
	return &D{entries: make(map[descriptor.FXY][]descriptor.FXY)}
}

// Set registers (or replaces) the child list for d.
func (t *D) Set(d descriptor.FXY, children []descriptor.FXY) {
	t.entries[d] = children
}

// Children returns the ordered child descriptor list for d.
func (t *D) Children(d descriptor.FXY) ([]descriptor.FXY, bool) {
	children, ok := t.entries[d]

	return children, ok
}

// Len returns the number of registered sequence descriptors.
func (t *D) Len() int {
	return len(t.entries)
}

// Overlay returns a fresh Table D containing the union of t and local, with
// local's entries replacing t's on a matching descriptor.
func (t *D) Overlay(local *D) *D {
	out := NewD()
	for d, children := range t.entries {
		out.Set(d, children)
	}
	if local != nil {
		for d, children := range local.entries {
			out.Set(d, children)
		}
	}

	return out
}
