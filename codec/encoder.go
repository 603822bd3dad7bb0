package codec

import (
	"fmt"
	"math"

	"github.com/EUMETNET/rodeo-bufr-library/bitio"
	"github.com/EUMETNET/rodeo-bufr-library/descriptor"
	"github.com/EUMETNET/rodeo-bufr-library/errs"
	"github.com/EUMETNET/rodeo-bufr-library/tables"
)

// EncodeMessage encodes msg into a complete edition 4 BUFR byte stream.
// Each entry in msg.Subsets must list exactly the (descriptor, value)
// pairs that DecodeMessage would have produced for the same expansion:
// simple elements in expansion order, plus one entry for every delayed
// replication count descriptor and every "signify character" text run.
// EncodeMessage always emits uncompressed §4 (§9: the encoder's
// asymmetry with the decoder's compressed support is intentional, not a
// gap to close).
func EncodeMessage(msg *Message, reg *tables.Registry) ([]byte, error) {
	effB, err := reg.ResolveB(int(msg.ID.MasterVersion), int(msg.ID.LocalVersion), int(msg.ID.Centre))
	if err != nil {
		return nil, err
	}
	effD, err := reg.ResolveD(int(msg.ID.MasterVersion), int(msg.ID.LocalVersion), int(msg.ID.Centre))
	if err != nil {
		return nil, err
	}

	expanded, err := Expand(msg.TopLevelDescriptors, effD)
	if err != nil {
		return nil, err
	}

	w := bitio.NewWriter(256)
	for _, subset := range msg.Subsets {
		idx := 0
		if err := encodeElements(w, expanded, effB, NewOperatorState(), subset, &idx); err != nil {
			return nil, err
		}
	}
	w.AlignToByte()
	section4Data := w.Bytes()

	section1 := encodeSection1(msg.ID)

	var section2 []byte
	if msg.ID.HasSection2 {
		section2 = encodeSection2(msg.Section2)
	}

	section3 := encodeSection3(msg.TopLevelDescriptors, len(msg.Subsets), msg.Observed, false)
	section4 := encodeSection4(section4Data)

	total := 8 + len(section1) + len(section2) + len(section3) + len(section4) + 4

	out := make([]byte, 0, total)
	out = append(out, 'B', 'U', 'F', 'R')
	lenBytes := put24(total)
	out = append(out, lenBytes[:]...)
	out = append(out, 4)
	out = append(out, section1...)
	out = append(out, section2...)
	out = append(out, section3...)
	out = append(out, section4...)
	out = append(out, '7', '7', '7', '7')

	return out, nil
}

func encodeSection1(id Identification) []byte {
	b := make([]byte, 22)
	lenBytes := put24(22)
	copy(b[0:3], lenBytes[:])
	b[3] = id.MasterTable
	bigEndian.PutUint16(b[4:6], id.Centre)
	bigEndian.PutUint16(b[6:8], id.SubCentre)
	b[8] = id.UpdateSequence
	if id.HasSection2 {
		b[9] = 0x80
	}
	b[10] = id.DataCategory
	b[11] = id.IntlSubCategory
	b[12] = id.LocalSubCategory
	b[13] = id.MasterVersion
	b[14] = id.LocalVersion
	bigEndian.PutUint16(b[15:17], id.Year)
	b[17] = id.Month
	b[18] = id.Day
	b[19] = id.Hour
	b[20] = id.Minute
	b[21] = id.Second

	return b
}

func encodeSection2(local []byte) []byte {
	length := 4 + len(local)
	b := make([]byte, 4, length)
	lenBytes := put24(length)
	copy(b[0:3], lenBytes[:])
	b[3] = 0
	b = append(b, local...)

	return b
}

func encodeSection3(topLevel []descriptor.FXY, subsetCount int, observed, compressed bool) []byte {
	length := 7 + 2*len(topLevel)
	padded := length%2 != 0
	if padded {
		length++
	}

	b := make([]byte, 4, length)
	lenBytes := put24(length)
	copy(b[0:3], lenBytes[:])
	b[3] = 0
	b = bigEndian.AppendUint16(b, uint16(subsetCount))

	var flags byte
	if observed {
		flags |= 0x80
	}
	if compressed {
		flags |= 0x40
	}
	b = append(b, flags)

	for _, d := range topLevel {
		b = bigEndian.AppendUint16(b, d.Uint16())
	}
	if padded {
		b = append(b, 0)
	}

	return b
}

func encodeSection4(data []byte) []byte {
	length := 4 + len(data)
	b := make([]byte, 4, length)
	lenBytes := put24(length)
	copy(b[0:3], lenBytes[:])
	b[3] = 0
	b = append(b, data...)

	return b
}

func encodeElements(w *bitio.Writer, list []descriptor.FXY, effB *tables.B, state *OperatorState, values []Element, idx *int) error {
	i := 0
	for i < len(list) {
		d := list[i]

		switch d.F {
		case descriptor.ClassOperator:
			if d.X == 5 {
				if *idx >= len(values) {
					return errs.ErrTruncatedMessage
				}
				octets := make([]byte, d.Y)
				copy(octets, values[*idx].Value.Text)
				*idx++
				w.WriteBytes(octets)
				i++

				continue
			}
			state.Apply(d)
			i++

		case descriptor.ClassReplication:
			x := int(d.X)
			if i+1 >= len(list) {
				return fmt.Errorf("%w: delayed replication missing count descriptor", errs.ErrTruncatedMessage)
			}
			countDesc := list[i+1]
			width := replicationCountWidth(countDesc)
			if width == 0 {
				return fmt.Errorf("%w: unsupported delayed replication count descriptor %s", errs.ErrUnknownDescriptor, countDesc)
			}
			if *idx >= len(values) {
				return errs.ErrTruncatedMessage
			}
			count := values[*idx].Value.Code
			*idx++
			w.WriteBits(count, width)

			if i+2+x > len(list) {
				return fmt.Errorf("%w: delayed replication group truncated", errs.ErrTruncatedMessage)
			}
			group := list[i+2 : i+2+x]

			for rep := uint64(0); rep < count; rep++ {
				if err := encodeElements(w, group, effB, state, values, idx); err != nil {
					return err
				}
			}
			i += 2 + x

		default: // ClassElement
			if *idx >= len(values) {
				return errs.ErrTruncatedMessage
			}
			if err := encodeOneElement(w, d, effB, state, values[*idx].Value); err != nil {
				return err
			}
			*idx++
			i++
		}
	}

	return nil
}

// encodeOneElement is the dual of decodeOneElement.
func encodeOneElement(w *bitio.Writer, d descriptor.FXY, effB *tables.B, state *OperatorState, val Value) error {
	if state.NewReferenceWidth > 0 {
		width := state.NewReferenceWidth
		w.WriteBits(val.Code, width)
		state.ReferenceDeltaMap[d] = signMagnitudeToInt(val.Code, width)

		return nil
	}

	if state.DataNotPresentCount > 0 && d.X != 31 {
		state.DataNotPresentCount--

		return nil
	}

	if state.AssociatedFieldWidth > 0 {
		w.WriteBits(0, state.AssociatedFieldWidth)
	}

	entry, ok := effB.Get(d)
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrUnknownDescriptor, d)
	}

	width := effectiveWidth(entry, state)

	if entry.IsIA5() {
		octets := make([]byte, width/8)
		if val.IsMissing() {
			for i := range octets {
				octets[i] = 0xFF
			}
		} else {
			for i := range octets {
				octets[i] = ' '
			}
			copy(octets, val.Text)
		}
		w.WriteBytes(octets)

		return nil
	}

	if val.IsMissing() {
		w.WriteBits((uint64(1)<<width)-1, width)

		return nil
	}

	if entry.IsCodeOrFlag() {
		w.WriteBits(val.Code, width)

		return nil
	}

	reference := state.ReferenceFor(d, entry.Reference)
	scale := entry.Scale + state.ScaleDelta

	raw := int64(math.Round(val.Numeric*pow10(scale))) - int64(reference)
	if raw < 0 {
		raw = 0
	}
	if maxRaw := int64((uint64(1) << width) - 2); raw > maxRaw {
		raw = maxRaw
	}
	w.WriteBits(uint64(raw), width)

	return nil
}
