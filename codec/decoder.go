package codec

import (
	"fmt"

	"github.com/EUMETNET/rodeo-bufr-library/bitio"
	"github.com/EUMETNET/rodeo-bufr-library/descriptor"
	"github.com/EUMETNET/rodeo-bufr-library/errs"
	"github.com/EUMETNET/rodeo-bufr-library/tables"
)

// DecodeMessage decodes one BUFR message starting at the beginning of data.
// It returns the decoded message, the number of bytes the message occupies
// (its declared total length, section 0 through 5), and an error. On error
// the caller should resynchronise by scanning for the next "BUFR" magic;
// DecodeMessage itself does not scan ahead.
func DecodeMessage(data []byte, reg *tables.Registry) (*Message, int, error) {
	if len(data) < 8 || string(data[0:4]) != "BUFR" {
		return nil, 0, errs.ErrInvalidMagic
	}

	total := get24(data[4:7])
	edition := data[7]
	if edition != 3 && edition != 4 {
		return nil, 0, fmt.Errorf("%w: edition %d", errs.ErrInvalidEdition, edition)
	}
	if total < 12 || len(data) < total {
		return nil, 0, errs.ErrTruncatedMessage
	}
	if string(data[total-4:total]) != "7777" {
		return nil, 0, errs.ErrInvalidTerminator
	}

	msg := &Message{Edition: edition}
	offset := 8

	id, n, err := parseSection1(data[offset:])
	if err != nil {
		return nil, 0, err
	}
	msg.ID = id
	offset += n

	if id.HasSection2 {
		n, err := parseSection2(data[offset:], msg)
		if err != nil {
			return nil, 0, err
		}
		offset += n
	}

	topLevel, subsetCount, compressed, observed, n, err := parseSection3(data[offset:])
	if err != nil {
		return nil, 0, err
	}
	msg.TopLevelDescriptors = topLevel
	msg.Compressed = compressed
	msg.Observed = observed
	offset += n

	effB, err := reg.ResolveB(int(id.MasterVersion), int(id.LocalVersion), int(id.Centre))
	if err != nil {
		return nil, 0, err
	}
	effD, err := reg.ResolveD(int(id.MasterVersion), int(id.LocalVersion), int(id.Centre))
	if err != nil {
		return nil, 0, err
	}

	expanded, err := Expand(topLevel, effD)
	if err != nil {
		return nil, 0, err
	}

	if offset+4 > total-4 {
		return nil, 0, errs.ErrTruncatedMessage
	}
	sectionLen := get24(data[offset : offset+3])
	if sectionLen < 4 || offset+sectionLen > total-4 {
		return nil, 0, errs.ErrTruncatedMessage
	}
	section4 := data[offset+4 : offset+sectionLen]

	if compressed {
		subsets, err := decodeCompressed(section4, expanded, effB, int(subsetCount))
		if err != nil {
			return nil, 0, err
		}
		msg.Subsets = subsets
	} else {
		r := bitio.NewReader(section4)
		subsets := make([][]Element, 0, subsetCount)
		for i := 0; i < int(subsetCount); i++ {
			els, err := walkElements(r, expanded, effB, NewOperatorState())
			if err != nil {
				return nil, 0, err
			}
			subsets = append(subsets, els)
		}
		msg.Subsets = subsets
	}

	return msg, total, nil
}

func parseSection1(b []byte) (Identification, int, error) {
	if len(b) < 22 {
		return Identification{}, 0, errs.ErrTruncatedMessage
	}
	length := get24(b[0:3])
	if length < 22 || len(b) < length {
		return Identification{}, 0, errs.ErrTruncatedMessage
	}

	id := Identification{
		MasterTable:      b[3],
		Centre:           bigEndian.Uint16(b[4:6]),
		SubCentre:        bigEndian.Uint16(b[6:8]),
		UpdateSequence:   b[8],
		HasSection2:      b[9]&0x80 != 0,
		DataCategory:     b[10],
		IntlSubCategory:  b[11],
		LocalSubCategory: b[12],
		MasterVersion:    b[13],
		LocalVersion:     b[14],
		Year:             bigEndian.Uint16(b[15:17]),
		Month:            b[17],
		Day:              b[18],
		Hour:             b[19],
		Minute:           b[20],
		Second:           b[21],
	}

	return id, length, nil
}

func parseSection2(b []byte, msg *Message) (int, error) {
	if len(b) < 4 {
		return 0, errs.ErrTruncatedMessage
	}
	length := get24(b[0:3])
	if length < 4 || len(b) < length {
		return 0, errs.ErrTruncatedMessage
	}
	msg.Section2 = append([]byte(nil), b[4:length]...)

	return length, nil
}

func parseSection3(b []byte) (topLevel []descriptor.FXY, subsetCount uint16, compressed, observed bool, consumed int, err error) {
	if len(b) < 7 {
		return nil, 0, false, false, 0, errs.ErrTruncatedMessage
	}
	length := get24(b[0:3])
	if length < 7 || len(b) < length {
		return nil, 0, false, false, 0, errs.ErrTruncatedMessage
	}

	subsetCount = bigEndian.Uint16(b[4:6])
	flags := b[6]
	observed = flags&0x80 != 0
	compressed = flags&0x40 != 0

	descBytes := b[7:length]
	count := len(descBytes) / 2
	topLevel = make([]descriptor.FXY, 0, count)
	for i := 0; i < count; i++ {
		raw := bigEndian.Uint16(descBytes[i*2 : i*2+2])
		topLevel = append(topLevel, descriptor.FromUint16(raw))
	}

	return topLevel, subsetCount, compressed, observed, length, nil
}

// walkElements decodes one pass over list (a subset's expanded descriptor
// sequence, or a replication group within it), recursing into delayed
// (Y=0) Class 1 replication groups left unresolved by Expand. state is
// shared across the whole subset: operators stay in force across
// replication group boundaries.
func walkElements(r *bitio.Reader, list []descriptor.FXY, effB *tables.B, state *OperatorState) ([]Element, error) {
	var out []Element

	i := 0
	for i < len(list) {
		d := list[i]

		switch d.F {
		case descriptor.ClassOperator:
			if d.X == 5 {
				raw, err := r.ReadBytes(int(d.Y))
				if err != nil {
					return nil, fmt.Errorf("%w: signify character", errs.ErrTruncatedMessage)
				}
				synthetic := descriptor.New(descriptor.ClassElement, 5, d.Y)
				out = append(out, Element{Descriptor: synthetic, Value: TextValue(raw)})
				i++

				continue
			}
			state.Apply(d)
			i++

		case descriptor.ClassReplication:
			x := int(d.X)
			if i+1 >= len(list) {
				return nil, fmt.Errorf("%w: delayed replication missing count descriptor", errs.ErrTruncatedMessage)
			}
			countDesc := list[i+1]

			count, raw, err := decodeReplicationCount(r, countDesc)
			if err != nil {
				return nil, err
			}
			out = append(out, Element{Descriptor: countDesc, Value: CodeValue(raw)})

			if i+2+x > len(list) {
				return nil, fmt.Errorf("%w: delayed replication group truncated", errs.ErrTruncatedMessage)
			}
			group := list[i+2 : i+2+x]

			for rep := 0; rep < count; rep++ {
				els, err := walkElements(r, group, effB, state)
				if err != nil {
					return nil, err
				}
				out = append(out, els...)
			}
			i += 2 + x

		default: // ClassElement
			el, err := decodeOneElement(r, d, effB, state)
			if err != nil {
				return nil, err
			}
			out = append(out, el)
			i++
		}
	}

	return out, nil
}

// replicationCountWidth maps a delayed replication count descriptor 0 31 Y'
// to its wire width: 0 31 000 is the short 1-bit factor, 0 31 001 the
// 8-bit factor, 0 31 002 the 16-bit extended factor.
func replicationCountWidth(countDesc descriptor.FXY) uint {
	switch countDesc.Y {
	case 0:
		return 1
	case 1:
		return 8
	case 2:
		return 16
	default:
		return 0
	}
}

func decodeReplicationCount(r *bitio.Reader, countDesc descriptor.FXY) (int, uint64, error) {
	width := replicationCountWidth(countDesc)
	if width == 0 {
		return 0, 0, fmt.Errorf("%w: unsupported delayed replication count descriptor %s", errs.ErrUnknownDescriptor, countDesc)
	}

	raw, err := r.ReadBits(width)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: delayed replication count", errs.ErrTruncatedMessage)
	}

	return int(raw), raw, nil
}

// decodeOneElement decodes one F=0 (element) descriptor: resolve its
// effective width/scale/reference via the Table B entry and any operator
// overrides in force, read the raw bits, then apply scale and reference.
func decodeOneElement(r *bitio.Reader, d descriptor.FXY, effB *tables.B, state *OperatorState) (Element, error) {
	if state.NewReferenceWidth > 0 {
		raw, err := r.ReadBits(state.NewReferenceWidth)
		if err != nil {
			return Element{}, fmt.Errorf("%w: change-reference value for %s", errs.ErrTruncatedMessage, d)
		}
		state.ReferenceDeltaMap[d] = signMagnitudeToInt(raw, state.NewReferenceWidth)

		return Element{Descriptor: d, Value: CodeValue(raw)}, nil
	}

	if state.DataNotPresentCount > 0 && d.X != 31 {
		state.DataNotPresentCount--

		return Element{Descriptor: d, Value: Missing()}, nil
	}

	if state.AssociatedFieldWidth > 0 {
		if _, err := r.ReadBits(state.AssociatedFieldWidth); err != nil {
			return Element{}, fmt.Errorf("%w: associated field for %s", errs.ErrTruncatedMessage, d)
		}
	}

	entry, ok := effB.Get(d)
	if !ok {
		return Element{}, fmt.Errorf("%w: %s", errs.ErrUnknownDescriptor, d)
	}

	width := effectiveWidth(entry, state)

	if entry.IsIA5() {
		raw, err := r.ReadBytes(int(width / 8))
		if err != nil {
			return Element{}, fmt.Errorf("%w: %s", errs.ErrTruncatedMessage, d)
		}

		return Element{Descriptor: d, Value: TextValue(raw)}, nil
	}

	raw, err := r.ReadBits(width)
	if err != nil {
		return Element{}, fmt.Errorf("%w: %s", errs.ErrTruncatedMessage, d)
	}

	if raw == (uint64(1)<<width)-1 {
		return Element{Descriptor: d, Value: Missing()}, nil
	}

	if entry.IsCodeOrFlag() {
		return Element{Descriptor: d, Value: CodeValue(raw)}, nil
	}

	reference := state.ReferenceFor(d, entry.Reference)
	scale := entry.Scale + state.ScaleDelta
	value := (float64(raw) + float64(reference)) * pow10(-scale)

	return Element{Descriptor: d, Value: NumericValue(value)}, nil
}
