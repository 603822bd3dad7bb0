package tables

import "github.com/EUMETNET/rodeo-bufr-library/descriptor"

// CKey identifies one code/flag table label: a descriptor plus its code
// value.
type CKey struct {
	Descriptor descriptor.FXY
	Code       uint64
}

// C is a Table C catalogue: (descriptor, code) -> label.
type C struct {
	entries map[CKey]string
}

// NewC creates an empty Table C.
func NewC() *C {
	return &C{entries: make(map[CKey]string)}
}

// Set registers (or replaces) the label for key.
func (c *C) Set(key CKey, label string) {
	c.entries[key] = label
}

// Get looks up the label for (d, code).
func (c *C) Get(d descriptor.FXY, code uint64) (string, bool) {
	label, ok := c.entries[CKey{Descriptor: d, Code: code}]

	return label, ok
}

// Len returns the number of registered labels.
func (c *C) Len() int {
	return len(c.entries)
}

// Merge folds other's entries into c in place: union of entries, with
// other's value winning on a colliding key. This is the "later-loaded wins"
// merge spec.md requires when multiple WMO/OPERA Table C files are loaded
// into the same master version.
func (c *C) Merge(other *C) {
	for k, v := range other.entries {
		c.entries[k] = v
	}
}
