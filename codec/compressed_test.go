package codec

import (
	"testing"

	"github.com/EUMETNET/rodeo-bufr-library/bitio"
	"github.com/EUMETNET/rodeo-bufr-library/descriptor"
	"github.com/stretchr/testify/require"
)

// TestDecodeCompressed_SharedBaseValue checks that a zero increment width
// gives every subset the same base value.
func TestDecodeCompressed_SharedBaseValue(t *testing.T) {
	reg := newTestRegistry(t)
	effB, err := reg.ResolveB(0, 0, 98)
	require.NoError(t, err)

	w := bitio.NewWriter(4)
	w.WriteBits(5, 7) // base value 5, width 7
	w.WriteBits(0, 6) // increment width 0: every subset shares the base
	w.AlignToByte()

	expanded := []descriptor.FXY{descriptor.FromFXXYYY(1001)}
	subsets, err := decodeCompressed(w.Bytes(), expanded, effB, 3)
	require.NoError(t, err)
	require.Len(t, subsets, 3)
	for _, s := range subsets {
		require.Len(t, s, 1)
		require.InDelta(t, 5.0, s[0].Value.Numeric, 0.0001)
	}
}

// TestDecodeCompressed_PerSubsetIncrement checks that a non-zero increment
// width adds a distinct per-subset delta to the shared base.
func TestDecodeCompressed_PerSubsetIncrement(t *testing.T) {
	reg := newTestRegistry(t)
	effB, err := reg.ResolveB(0, 0, 98)
	require.NoError(t, err)

	w := bitio.NewWriter(4)
	w.WriteBits(5, 7) // base value 5
	w.WriteBits(2, 6) // increment width 2 bits
	w.WriteBits(0, 2) // subset 0: +0
	w.WriteBits(2, 2) // subset 1: +2 (not all-ones, so not treated as a MISSING increment)
	w.AlignToByte()

	expanded := []descriptor.FXY{descriptor.FromFXXYYY(1001)}
	subsets, err := decodeCompressed(w.Bytes(), expanded, effB, 2)
	require.NoError(t, err)
	require.InDelta(t, 5.0, subsets[0][0].Value.Numeric, 0.0001)
	require.InDelta(t, 7.0, subsets[1][0].Value.Numeric, 0.0001)
}

// TestDecodeCompressed_MissingBasePropagates checks that an all-ones base
// value (MISSING) propagates to every subset regardless of increment.
func TestDecodeCompressed_MissingBasePropagates(t *testing.T) {
	reg := newTestRegistry(t)
	effB, err := reg.ResolveB(0, 0, 98)
	require.NoError(t, err)

	w := bitio.NewWriter(4)
	w.WriteBits(0b1111111, 7) // all-ones base: MISSING
	w.WriteBits(2, 6)
	w.WriteBits(0, 2)
	w.WriteBits(1, 2)
	w.AlignToByte()

	expanded := []descriptor.FXY{descriptor.FromFXXYYY(1001)}
	subsets, err := decodeCompressed(w.Bytes(), expanded, effB, 2)
	require.NoError(t, err)
	require.True(t, subsets[0][0].Value.IsMissing())
	require.True(t, subsets[1][0].Value.IsMissing())
}

// TestDecodeCompressed_SequenceInsideDelayedReplication checks the
// compressed path against the same "1 01 000 / 0 31 001 / 3 XX XXX" wire
// form as the uncompressed decoder and encoder tests: the literal sequence
// descriptor is resolved by Expand before decodeCompressed ever walks the
// list, so decodeCompressed itself never has to recognise an F=3 case.
func TestDecodeCompressed_SequenceInsideDelayedReplication(t *testing.T) {
	reg := newTestRegistry(t)
	effB, err := reg.ResolveB(0, 0, 98)
	require.NoError(t, err)
	effD, err := reg.ResolveD(0, 0, 98)
	require.NoError(t, err)
	effD.Set(descriptor.FromFXXYYY(302045), []descriptor.FXY{
		descriptor.FromFXXYYY(1001),
		descriptor.FromFXXYYY(12101),
	})

	topLevel := []descriptor.FXY{
		descriptor.New(descriptor.ClassReplication, 1, 0),
		descriptor.New(descriptor.ClassElement, 31, 1),
		descriptor.FromFXXYYY(302045),
	}
	expanded, err := Expand(topLevel, effD)
	require.NoError(t, err)

	w := bitio.NewWriter(8)
	w.WriteBits(2, 8) // delayed replication count base: 2 repeats
	w.WriteBits(0, 6)
	for rep := 0; rep < 2; rep++ {
		w.WriteBits(7, 7)  // 0 01 001
		w.WriteBits(0, 6)
		w.WriteBits(282, 12) // 0 12 101
		w.WriteBits(0, 6)
	}
	w.AlignToByte()

	subsets, err := decodeCompressed(w.Bytes(), expanded, effB, 1)
	require.NoError(t, err)
	require.Len(t, subsets, 1)
	require.Len(t, subsets[0], 5) // count descriptor + 2 repeats of 2 members
	require.InDelta(t, 7.0, subsets[0][1].Value.Numeric, 0.0001)
	require.InDelta(t, 282.0, subsets[0][2].Value.Numeric, 0.0001)
	require.InDelta(t, 7.0, subsets[0][3].Value.Numeric, 0.0001)
	require.InDelta(t, 282.0, subsets[0][4].Value.Numeric, 0.0001)
}

// TestDecodeCompressed_DelayedReplicationAppliesUniformly checks that one
// delayed replication count read from the compressed stream is applied to
// every subset.
func TestDecodeCompressed_DelayedReplicationAppliesUniformly(t *testing.T) {
	reg := newTestRegistry(t)
	effB, err := reg.ResolveB(0, 0, 98)
	require.NoError(t, err)

	w := bitio.NewWriter(8)
	w.WriteBits(2, 8) // delayed replication count base: 2 (0 31 001 width 8)
	w.WriteBits(0, 6) // increment width 0: every subset repeats twice
	for rep := 0; rep < 2; rep++ {
		w.WriteBits(5, 7)
		w.WriteBits(0, 6)
	}
	w.AlignToByte()

	expanded := []descriptor.FXY{
		descriptor.New(descriptor.ClassReplication, 1, 0),
		descriptor.New(descriptor.ClassElement, 31, 1),
		descriptor.FromFXXYYY(1001),
	}
	subsets, err := decodeCompressed(w.Bytes(), expanded, effB, 2)
	require.NoError(t, err)
	for _, s := range subsets {
		require.Len(t, s, 3) // count descriptor + 2 repeats of the element
		require.InDelta(t, 5.0, s[1].Value.Numeric, 0.0001)
		require.InDelta(t, 5.0, s[2].Value.Numeric, 0.0001)
	}
}
