package descriptor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecomposition(t *testing.T) {
	d := FromFXXYYY(12101)
	require.Equal(t, ClassElement, d.F)
	require.EqualValues(t, 12, d.X)
	require.EqualValues(t, 101, d.Y)
	require.Equal(t, "012101", d.String())
	require.Equal(t, 12101, d.FXXYYY())
}

func TestUint16RoundTrip(t *testing.T) {
	for _, fxxyyy := range []int{1001, 31001, 101000, 201000, 302031} {
		d := FromFXXYYY(fxxyyy)
		raw := d.Uint16()
		back := FromUint16(raw)
		require.Equal(t, d, back)
	}
}
