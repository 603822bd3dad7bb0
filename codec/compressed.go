package codec

import (
	"fmt"

	"github.com/EUMETNET/rodeo-bufr-library/bitio"
	"github.com/EUMETNET/rodeo-bufr-library/descriptor"
	"github.com/EUMETNET/rodeo-bufr-library/errs"
	"github.com/EUMETNET/rodeo-bufr-library/tables"
)

// decodeCompressed decodes a compressed section 4 data section: one base
// value per element, at its declared width,
// followed by a 6-bit increment width and subsetCount per-subset
// increments. A zero increment width means every subset shares the base
// value; a MISSING base or increment propagates MISSING to that subset.
//
// Delayed replication counts are read once via the same base+increment
// mechanism and applied uniformly to every subset. A compressed message
// whose subsets genuinely disagree on a delayed replication count is
// outside what this decoder supports; see DESIGN.md.
func decodeCompressed(section4 []byte, expanded []descriptor.FXY, effB *tables.B, subsetCount int) ([][]Element, error) {
	r := bitio.NewReader(section4)
	state := NewOperatorState()

	subsets := make([][]Element, subsetCount)
	for i := range subsets {
		subsets[i] = make([]Element, 0, len(expanded))
	}

	if err := walkCompressed(r, expanded, effB, state, subsets); err != nil {
		return nil, err
	}

	return subsets, nil
}

func walkCompressed(r *bitio.Reader, list []descriptor.FXY, effB *tables.B, state *OperatorState, subsets [][]Element) error {
	i := 0
	for i < len(list) {
		d := list[i]

		switch d.F {
		case descriptor.ClassOperator:
			if d.X == 5 {
				values, err := readCompressedBytes(r, int(d.Y), len(subsets))
				if err != nil {
					return err
				}
				synthetic := descriptor.New(descriptor.ClassElement, 5, d.Y)
				for s, v := range values {
					subsets[s] = append(subsets[s], Element{Descriptor: synthetic, Value: TextValue(v)})
				}
				i++

				continue
			}
			state.Apply(d)
			i++

		case descriptor.ClassReplication:
			x := int(d.X)
			if i+1 >= len(list) {
				return errs.ErrTruncatedMessage
			}
			countDesc := list[i+1]
			width := replicationCountWidth(countDesc)
			if width == 0 {
				return fmt.Errorf("%w: unsupported delayed replication count descriptor %s", errs.ErrUnknownDescriptor, countDesc)
			}

			counts, err := readCompressedInts(r, width, len(subsets))
			if err != nil {
				return err
			}
			for s := range subsets {
				subsets[s] = append(subsets[s], Element{Descriptor: countDesc, Value: CodeValue(uint64(counts[s]))})
			}

			if i+2+x > len(list) {
				return errs.ErrTruncatedMessage
			}
			group := list[i+2 : i+2+x]

			for rep := 0; rep < int(counts[0]); rep++ {
				if err := walkCompressed(r, group, effB, state, subsets); err != nil {
					return err
				}
			}
			i += 2 + x

		default:
			if err := decodeCompressedElement(r, d, effB, state, subsets); err != nil {
				return err
			}
			i++
		}
	}

	return nil
}

func decodeCompressedElement(r *bitio.Reader, d descriptor.FXY, effB *tables.B, state *OperatorState, subsets [][]Element) error {
	entry, ok := effB.Get(d)
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrUnknownDescriptor, d)
	}

	width := effectiveWidth(entry, state)
	if entry.IsIA5() {
		values, err := readCompressedBytes(r, int(width/8), len(subsets))
		if err != nil {
			return err
		}
		for s, v := range values {
			subsets[s] = append(subsets[s], Element{Descriptor: d, Value: TextValue(v)})
		}

		return nil
	}

	raws, err := readCompressedInts(r, width, len(subsets))
	if err != nil {
		return err
	}

	reference := state.ReferenceFor(d, entry.Reference)
	scale := entry.Scale + state.ScaleDelta
	missing := int64((uint64(1) << width) - 1)

	for s, raw := range raws {
		var val Value
		switch {
		case raw == missing:
			val = Missing()
		case entry.IsCodeOrFlag():
			val = CodeValue(uint64(raw))
		default:
			val = NumericValue((float64(raw) + float64(reference)) * pow10(-scale))
		}
		subsets[s] = append(subsets[s], Element{Descriptor: d, Value: val})
	}

	return nil
}

// readCompressedInts reads one base value of width bits, a 6-bit increment
// width, and len(out) increments, returning the per-subset resolved
// integer values.
func readCompressedInts(r *bitio.Reader, width uint, subsetCount int) ([]int64, error) {
	base, err := r.ReadBits(width)
	if err != nil {
		return nil, errs.ErrTruncatedMessage
	}

	incWidth, err := r.ReadBits(6)
	if err != nil {
		return nil, errs.ErrTruncatedMessage
	}

	allOnes := (uint64(1) << width) - 1
	baseMissing := base == allOnes

	out := make([]int64, subsetCount)
	for s := 0; s < subsetCount; s++ {
		if incWidth == 0 {
			out[s] = int64(base)

			continue
		}

		inc, err := r.ReadBits(uint(incWidth))
		if err != nil {
			return nil, errs.ErrTruncatedMessage
		}

		if baseMissing || inc == (uint64(1)<<incWidth)-1 {
			out[s] = int64(allOnes)

			continue
		}

		out[s] = int64(base + inc)
	}

	return out, nil
}

func readCompressedBytes(r *bitio.Reader, octets, subsetCount int) ([][]byte, error) {
	base, err := r.ReadBytes(octets)
	if err != nil {
		return nil, errs.ErrTruncatedMessage
	}

	incWidth, err := r.ReadBits(6)
	if err != nil {
		return nil, errs.ErrTruncatedMessage
	}

	out := make([][]byte, subsetCount)
	for s := 0; s < subsetCount; s++ {
		if incWidth == 0 {
			out[s] = base

			continue
		}

		inc, err := r.ReadBytes(int(incWidth))
		if err != nil {
			return nil, errs.ErrTruncatedMessage
		}
		out[s] = inc
	}

	return out, nil
}
