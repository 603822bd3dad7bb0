package codec

import (
	"testing"

	"github.com/EUMETNET/rodeo-bufr-library/descriptor"
	"github.com/EUMETNET/rodeo-bufr-library/tables"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *tables.Registry {
	t.Helper()

	b := tables.NewB()
	b.Set(descriptor.FromFXXYYY(1001), tables.BEntry{Name: "ELEMENT", Unit: "NUMERIC", Scale: 0, Reference: 0, Width: 7})
	b.Set(descriptor.FromFXXYYY(12101), tables.BEntry{Name: "TEMPERATURE", Unit: "K", Scale: 0, Reference: 0, Width: 12})

	c := tables.NewC()
	d := tables.NewD()

	return tables.NewRegistryFromTables(b, c, d)
}

func baseIdentification() Identification {
	return Identification{
		MasterTable:   0,
		Centre:        98,
		MasterVersion: 0,
		LocalVersion:  0,
		Year:          2026,
		Month:         7,
		Day:           31,
	}
}

// TestEncodeMessage_MinimalScenario checks that a single
// subset with descriptor 0 01 001 value 3 at width 7 produces §4 whose
// first seven bits are 0000011, terminated by "7777".
func TestEncodeMessage_MinimalScenario(t *testing.T) {
	reg := newTestRegistry(t)

	msg := &Message{
		Edition:             4,
		ID:                  baseIdentification(),
		TopLevelDescriptors: []descriptor.FXY{descriptor.FromFXXYYY(1001)},
		Subsets: [][]Element{
			{{Descriptor: descriptor.FromFXXYYY(1001), Value: NumericValue(3)}},
		},
	}

	out, err := EncodeMessage(msg, reg)
	require.NoError(t, err)
	require.Equal(t, "BUFR", string(out[0:4]))
	require.Equal(t, byte(4), out[7])
	require.Equal(t, "7777", string(out[len(out)-4:]))

	total := get24(out[4:7])
	require.Equal(t, len(out), total)

	// First seven bits of §4 data: "0000011" (value 3, width 7).
	section3Len := get24(out[8+22 : 8+22+3])
	section4Start := 8 + 22 + section3Len + 4
	firstByte := out[section4Start]
	require.Equal(t, byte(0b0000011<<1), firstByte&0b11111110)
}

func TestEncodeDecodeMessage_RoundTrip(t *testing.T) {
	reg := newTestRegistry(t)

	id := baseIdentification()
	msg := &Message{
		Edition:             4,
		ID:                  id,
		TopLevelDescriptors: []descriptor.FXY{descriptor.FromFXXYYY(1001), descriptor.FromFXXYYY(12101)},
		Subsets: [][]Element{
			{
				{Descriptor: descriptor.FromFXXYYY(1001), Value: NumericValue(5)},
				{Descriptor: descriptor.FromFXXYYY(12101), Value: NumericValue(288)},
			},
			{
				{Descriptor: descriptor.FromFXXYYY(1001), Value: Missing()},
				{Descriptor: descriptor.FromFXXYYY(12101), Value: NumericValue(290)},
			},
		},
	}

	encoded, err := EncodeMessage(msg, reg)
	require.NoError(t, err)

	decoded, n, err := DecodeMessage(encoded, reg)
	require.NoError(t, err)
	require.Equal(t, len(encoded), n)
	require.Len(t, decoded.Subsets, 2)

	require.InDelta(t, 5.0, decoded.Subsets[0][0].Value.Numeric, 0.0001)
	require.InDelta(t, 288.0, decoded.Subsets[0][1].Value.Numeric, 0.0001)
	require.True(t, decoded.Subsets[1][0].Value.IsMissing())
	require.InDelta(t, 290.0, decoded.Subsets[1][1].Value.Numeric, 0.0001)
}

// TestEncodeMessage_SequenceInsideDelayedReplication checks that
// EncodeMessage accepts a top-level sequence "1 01 000 / 0 31 001 / 3 XX
// XXX" with the sequence descriptor left literal (not pre-flattened by the
// caller): Expand must resolve it before encodeElements ever sees the list,
// so the wire output carries one repetition (count 1) of the sequence's two
// Table B members, not the sequence descriptor itself.
func TestEncodeMessage_SequenceInsideDelayedReplication(t *testing.T) {
	reg := newTestRegistry(t)
	effD, err := reg.ResolveD(0, 0, 98)
	require.NoError(t, err)
	effD.Set(descriptor.FromFXXYYY(302045), []descriptor.FXY{
		descriptor.FromFXXYYY(1001),
		descriptor.FromFXXYYY(12101),
	})

	msg := &Message{
		Edition: 4,
		ID:      baseIdentification(),
		TopLevelDescriptors: []descriptor.FXY{
			descriptor.New(descriptor.ClassReplication, 1, 0),
			descriptor.New(descriptor.ClassElement, 31, 1),
			descriptor.FromFXXYYY(302045),
		},
		Subsets: [][]Element{
			{
				{Descriptor: descriptor.New(descriptor.ClassElement, 31, 1), Value: CodeValue(1)},
				{Descriptor: descriptor.FromFXXYYY(1001), Value: NumericValue(7)},
				{Descriptor: descriptor.FromFXXYYY(12101), Value: NumericValue(282)},
			},
		},
	}

	out, err := EncodeMessage(msg, reg)
	require.NoError(t, err)
	require.Equal(t, "BUFR", string(out[0:4]))
	require.Equal(t, "7777", string(out[len(out)-4:]))
}

// TestDecodeMessage_DelayedReplication checks a message using delayed replication.
func TestDecodeMessage_DelayedReplication(t *testing.T) {
	reg := newTestRegistry(t)

	id := baseIdentification()
	msg := &Message{
		Edition: 4,
		ID:      id,
		TopLevelDescriptors: []descriptor.FXY{
			descriptor.New(descriptor.ClassReplication, 1, 0),
			descriptor.New(descriptor.ClassElement, 31, 1),
			descriptor.FromFXXYYY(12101),
		},
		Subsets: [][]Element{
			{
				{Descriptor: descriptor.New(descriptor.ClassElement, 31, 1), Value: CodeValue(2)},
				{Descriptor: descriptor.FromFXXYYY(12101), Value: NumericValue(280)},
				{Descriptor: descriptor.FromFXXYYY(12101), Value: NumericValue(281)},
			},
		},
	}

	encoded, err := EncodeMessage(msg, reg)
	require.NoError(t, err)

	decoded, _, err := DecodeMessage(encoded, reg)
	require.NoError(t, err)
	require.Len(t, decoded.Subsets, 1)
	require.Len(t, decoded.Subsets[0], 3)
	require.InDelta(t, 280.0, decoded.Subsets[0][1].Value.Numeric, 0.0001)
	require.InDelta(t, 281.0, decoded.Subsets[0][2].Value.Numeric, 0.0001)
}
