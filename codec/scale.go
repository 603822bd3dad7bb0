package codec

import (
	"math"

	"github.com/EUMETNET/rodeo-bufr-library/tables"
)

// effectiveWidth resolves the bit width to use for entry under state: a
// one-shot local-descriptor override wins, then an IA5 character-width
// override, then the ordinary width_delta adjustment. Decode and encode
// must compute this identically for round-trips to hold.
func effectiveWidth(entry tables.BEntry, state *OperatorState) uint {
	if override, ok := state.TakePendingLocalWidth(); ok {
		return override
	}
	if entry.IsIA5() && state.CharacterWidthOverride > 0 {
		return state.CharacterWidthOverride
	}
	if entry.IsIA5() {
		return entry.Width
	}

	return uint(int(entry.Width) + state.WidthDelta)
}

func pow10(exp int) float64 {
	return math.Pow(10, float64(exp))
}

// signMagnitudeToInt decodes a BUFR "change reference value" raw field:
// the most significant bit is the sign (1 = negative), the remaining
// width-1 bits are the magnitude.
func signMagnitudeToInt(raw uint64, width uint) int {
	signBit := uint64(1) << (width - 1)
	magnitude := raw &^ signBit
	if raw&signBit != 0 {
		return -int(magnitude)
	}

	return int(magnitude)
}
