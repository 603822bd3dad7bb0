package codec

import (
	"fmt"

	"github.com/EUMETNET/rodeo-bufr-library/descriptor"
	"github.com/EUMETNET/rodeo-bufr-library/errs"
	"github.com/EUMETNET/rodeo-bufr-library/tables"
)

// maxExpansionDepth bounds Table D sequence nesting ("at least
// 20").
const maxExpansionDepth = 32

// Expand performs the structural part of descriptor expansion: Table D
// sequence substitution and fixed (Y>0) Class 1 replication, applied
// recursively wherever they occur, including inside a delayed (Y=0)
// replication group. Delayed replication's repeat count cannot be resolved
// without the data stream, so only a single, structurally expanded copy of
// the group is emitted, behind a rewritten trigger descriptor whose X is
// the expanded member count; walkElements/encodeElements/decodeCompressed
// resolve the repeat count and replay that one copy while walking the data.
//
// Expand is deterministic: the same topLevel and effD always yield the same
// flat descriptor sequence.
func Expand(topLevel []descriptor.FXY, effD *tables.D) ([]descriptor.FXY, error) {
	e := &expander{effD: effD, ancestors: make(map[descriptor.FXY]bool)}

	return e.expandList(topLevel, 0)
}

type expander struct {
	effD      *tables.D
	ancestors map[descriptor.FXY]bool
}

func (e *expander) expandList(list []descriptor.FXY, depth int) ([]descriptor.FXY, error) {
	var out []descriptor.FXY

	i := 0
	for i < len(list) {
		d := list[i]

		switch d.F {
		case descriptor.ClassSequence:
			expanded, consumed, err := e.expandSequence(d, depth)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			i += consumed

		case descriptor.ClassReplication:
			expanded, consumed, err := e.expandReplication(list, i, depth)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			i += consumed

		default:
			out = append(out, d)
			i++
		}
	}

	return out, nil
}

func (e *expander) expandSequence(d descriptor.FXY, depth int) ([]descriptor.FXY, int, error) {
	if e.ancestors[d] {
		return nil, 0, fmt.Errorf("%w: %s", errs.ErrDescriptorCycle, d)
	}
	if depth+1 > maxExpansionDepth {
		return nil, 0, fmt.Errorf("%w: %s", errs.ErrMaxDepthExceeded, d)
	}

	children, ok := e.effD.Children(d)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", errs.ErrUnknownDescriptor, d)
	}

	e.ancestors[d] = true
	expanded, err := e.expandList(children, depth+1)
	delete(e.ancestors, d)
	if err != nil {
		return nil, 0, err
	}

	return expanded, 1, nil
}

func (e *expander) expandReplication(list []descriptor.FXY, i, depth int) ([]descriptor.FXY, int, error) {
	d := list[i]
	x := int(d.X)

	if d.Y > 0 {
		if i+1+x > len(list) {
			return nil, 0, fmt.Errorf("%w: replication group for %s truncated", errs.ErrTruncatedMessage, d)
		}

		group, err := e.expandList(list[i+1:i+1+x], depth)
		if err != nil {
			return nil, 0, err
		}

		out := make([]descriptor.FXY, 0, len(group)*int(d.Y))
		for r := 0; r < int(d.Y); r++ {
			out = append(out, group...)
		}

		return out, 1 + x, nil
	}

	// Delayed replication: the repetition count is only known once the
	// data stream is read (the 0 31 Y' descriptor immediately following
	// the trigger), so the group itself cannot be duplicated here. Its
	// contents are otherwise ordinary structural expansion: a Table D
	// sequence descriptor (or a nested fixed/delayed replication) inside
	// the group resolves exactly as it would anywhere else, via the same
	// expandList recursion. Only a single, expanded copy of the group is
	// emitted, and the trigger's X is rewritten from the raw (pre-
	// expansion) descriptor count to the expanded member count, since
	// that is the count the walkers index one copy of the group by.
	if i+1 >= len(list) {
		return nil, 0, fmt.Errorf("%w: delayed replication missing count descriptor after %s", errs.ErrTruncatedMessage, d)
	}
	if i+2+x > len(list) {
		return nil, 0, fmt.Errorf("%w: delayed replication group for %s truncated", errs.ErrTruncatedMessage, d)
	}

	group, err := e.expandList(list[i+2:i+2+x], depth)
	if err != nil {
		return nil, 0, err
	}
	if len(group) > 63 {
		return nil, 0, fmt.Errorf("%w: delayed replication group for %s expands to %d members, exceeding the 63-descriptor replication limit", errs.ErrUnknownDescriptor, d, len(group))
	}

	out := make([]descriptor.FXY, 0, 2+len(group))
	out = append(out, descriptor.New(d.F, uint8(len(group)), d.Y), list[i+1])
	out = append(out, group...)

	return out, 2 + x, nil
}
