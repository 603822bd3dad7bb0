package codec

import "github.com/EUMETNET/rodeo-bufr-library/descriptor"

// OperatorState is the Class 2 operator state carried across an expansion
// walk. Zero value is the identity state: no deltas, no
// overrides in force.
type OperatorState struct {
	WidthDelta             int
	ScaleDelta             int
	ReferenceDeltaMap      map[descriptor.FXY]int
	NewReferenceWidth      uint
	AssociatedFieldWidth   uint
	DataNotPresentCount    uint
	CharacterWidthOverride uint

	// pendingLocal is a one-shot width override for the single next F=0
	// element, set by operator 2 06 Y ("signify data width for local
	// descriptor").
	pendingLocal    uint
	pendingLocalSet bool

	// Annotations is the set of Class 2 operators this walk observed that
	// are tracked but not given further decode semantics: 2 07 (simultaneous
	// scale/reference/width change) and the 2 22-2 37 quality-indicator /
	// statistics family. The WMO Manual detail needed to act on these is out
	// of reach of this codebase; they are recorded on the state only and are
	// not returned by DecodeMessage.
	Annotations []descriptor.FXY
}

// NewOperatorState returns an identity OperatorState.
func NewOperatorState() *OperatorState {
	return &OperatorState{ReferenceDeltaMap: make(map[descriptor.FXY]int)}
}

// Apply updates the state for Class 2 descriptor d. Operator 2 05 (signify
// character) is handled directly by the walker, since it requires reading
// from the bit stream; Apply is never called for it.
func (s *OperatorState) Apply(d descriptor.FXY) {
	y := int(d.Y)

	switch d.X {
	case 1: // add to data width
		if y == 0 {
			s.WidthDelta = 0
		} else {
			s.WidthDelta = y - 128
		}
	case 2: // add to scale
		if y == 0 {
			s.ScaleDelta = 0
		} else {
			s.ScaleDelta = y - 128
		}
	case 3: // change reference values
		if y == 0 {
			s.NewReferenceWidth = 0
			for k := range s.ReferenceDeltaMap {
				delete(s.ReferenceDeltaMap, k)
			}
		} else {
			s.NewReferenceWidth = uint(y)
		}
	case 4: // associated field width
		s.AssociatedFieldWidth = uint(y)
	case 6: // signify data width for local descriptor, one-shot
		s.pendingLocal = uint(y)
		s.pendingLocalSet = true
	case 7: // simultaneous scale/reference/width change: tracked only
		s.Annotations = append(s.Annotations, d)
	case 8: // change width of IA5 fields
		if y == 0 {
			s.CharacterWidthOverride = 0
		} else {
			s.CharacterWidthOverride = uint(y) * 8
		}
	case 21: // data not present
		s.DataNotPresentCount = uint(y)
	default: // 22-37: quality indicator / statistics family, tracked only
		s.Annotations = append(s.Annotations, d)
	}
}

// TakePendingLocalWidth consumes and clears the one-shot "signify data width
// for local descriptor" override, if one is pending.
func (s *OperatorState) TakePendingLocalWidth() (width uint, ok bool) {
	if !s.pendingLocalSet {
		return 0, false
	}
	width, s.pendingLocalSet = s.pendingLocal, false

	return width, true
}

// ReferenceFor returns the effective reference value for d: the
// change-reference overlay if one has been recorded, else fallback.
func (s *OperatorState) ReferenceFor(d descriptor.FXY, fallback int) int {
	if r, ok := s.ReferenceDeltaMap[d]; ok {
		return r
	}

	return fallback
}
