package domain

import (
	"testing"

	"github.com/EUMETNET/rodeo-bufr-library/codec"
	"github.com/EUMETNET/rodeo-bufr-library/descriptor"
	"github.com/EUMETNET/rodeo-bufr-library/tables"
	"github.com/stretchr/testify/require"
)

func newDomainTestRegistry(t *testing.T) *tables.Registry {
	t.Helper()

	d := tables.NewD()
	d.Set(descriptor.FromFXXYYY(301150), fxxyyyList(1125, 1126, 1127, 1128))
	d.Set(descriptor.FromFXXYYY(301090), fxxyyyList(1001, 1002, 1015, 2001, 4001, 4002, 4003, 4004, 4005, 5001, 6001, 7030))
	d.Set(descriptor.FromFXXYYY(302031), fxxyyyList(10004, 10051))
	d.Set(descriptor.FromFXXYYY(302035), fxxyyyList(12101, 12103, 13003))
	d.Set(descriptor.FromFXXYYY(302036), fxxyyyList(20001))
	d.Set(descriptor.FromFXXYYY(302042), fxxyyyList(11001, 11002))
	d.Set(descriptor.FromFXXYYY(302040), fxxyyyList(13011))
	d.Set(descriptor.FromFXXYYY(302045), fxxyyyList(4024, 14002, 14004, 14005, 14006, 14007, 14008))

	return tables.NewRegistryFromTables(tables.NewB(), tables.NewC(), d)
}

func fxxyyyList(codes ...int) []descriptor.FXY {
	out := make([]descriptor.FXY, len(codes))
	for i, c := range codes {
		out[i] = descriptor.FromFXXYYY(c)
	}

	return out
}

func valueAt(t *testing.T, subset []codec.Element, fxxyyy int) codec.Value {
	t.Helper()

	d := descriptor.FromFXXYYY(fxxyyy)
	count := 0
	var last codec.Value
	for _, el := range subset {
		if el.Descriptor == d {
			last = el.Value
			count++
		}
	}
	require.Greater(t, count, 0, "descriptor %s not found in subset", d)

	return last
}

// valuesAt returns every occurrence of fxxyyy, in order — used for the
// radiation group's repeated time-period/value pair.
func valuesAt(subset []codec.Element, fxxyyy int) []codec.Value {
	d := descriptor.FromFXXYYY(fxxyyy)
	var out []codec.Value
	for _, el := range subset {
		if el.Descriptor == d {
			out = append(out, el.Value)
		}
	}

	return out
}

// TestBuild_CoverageJSONScenario covers one
// station, one time, pressure/humidity/temperature conversions.
func TestBuild_CoverageJSONScenario(t *testing.T) {
	reg := newDomainTestRegistry(t)

	doc := &CoverageDocument{
		Coverages: []Coverage{
			{
				Type:    "Coverage",
				WigosID: "0-20000-0-12345",
				Domain: CoverageDomain{
					Type:       "Domain",
					DomainType: "PointSeries",
					Axes: Axes{
						X: FloatAxis{Values: []float64{60.0}},
						Y: FloatAxis{Values: []float64{10.0}},
						T: StringAxis{Values: []string{"2026-07-31T12:00:00Z"}},
					},
				},
				Parameters: map[string]Parameter{
					"air_pressure:0.0:point:PT0S":     {Unit: ParameterUnit{Label: map[string]string{"en": "hPa"}}},
					"relative_humidity:2.0:point:PT0S": {Unit: ParameterUnit{Label: map[string]string{"en": "%"}}},
					"air_temperature:2.0:point:PT0S":   {Unit: ParameterUnit{Label: map[string]string{"en": "degC"}}},
				},
				Ranges: map[string]Range{
					"air_pressure:0.0:point:PT0S":      {Values: []*float64{floatPtr(1013.25)}},
					"relative_humidity:2.0:point:PT0S":  {Values: []*float64{floatPtr(80)}},
					"air_temperature:2.0:point:PT0S":    {Values: []*float64{floatPtr(15.0)}},
				},
			},
		},
	}

	msg, err := Build(doc, reg, NoopStationDirectory{}, codec.Identification{})
	require.NoError(t, err)
	require.Len(t, msg.Subsets, 1)

	subset := msg.Subsets[0]
	require.InDelta(t, 101325.0, valueAt(t, subset, 10004).Numeric, 0.001)
	require.InDelta(t, 0.8, valueAt(t, subset, 13003).Numeric, 0.0001)
	require.InDelta(t, 288.16, valueAt(t, subset, 12101).Numeric, 0.0001)

	// Dew point was never supplied: must be MISSING, not borrow the
	// temperature parameter's unit (the original's bug, deliberately not
	// replicated).
	require.True(t, valueAt(t, subset, 12103).IsMissing())

	// WIGOS ID "0-20000-0-12345" split on '-'.
	require.InDelta(t, 0, valueAt(t, subset, 1125).Numeric, 0.0001)
	require.InDelta(t, 20000, valueAt(t, subset, 1126).Numeric, 0.0001)
	require.InDelta(t, 0, valueAt(t, subset, 1127).Numeric, 0.0001)
	require.Equal(t, "12345", string(valueAt(t, subset, 1128).Text))
}

// TestBuild_RadiationGroupReplicatesTwice verifies the 1 01 000 / 0 31 001
// wrapper around 3 02 045 always emits exactly two repeats (-1h, -12h),
// each with its own time period sign and parameter.
func TestBuild_RadiationGroupReplicatesTwice(t *testing.T) {
	reg := newDomainTestRegistry(t)

	doc := &CoverageDocument{
		Coverages: []Coverage{
			{
				WigosID: "0-20000-0-1",
				Domain: CoverageDomain{
					DomainType: "PointSeries",
					Axes: Axes{
						T: StringAxis{Values: []string{"2026-07-31T00:00:00Z"}},
					},
				},
				Ranges: map[string]Range{
					longwaveRadiationName + ":0.0:sum:PT1H":  {Values: []*float64{floatPtr(120)}},
					longwaveRadiationName + ":0.0:sum:PT12H": {Values: []*float64{floatPtr(1400)}},
				},
			},
		},
	}

	msg, err := Build(doc, reg, NoopStationDirectory{}, codec.Identification{})
	require.NoError(t, err)
	require.Len(t, msg.Subsets, 1)

	subset := msg.Subsets[0]
	periods := valuesAt(subset, 4024)
	radiation := valuesAt(subset, 14002)
	require.Len(t, periods, 2)
	require.Len(t, radiation, 2)

	require.InDelta(t, -1.0, periods[0].Numeric, 0.0001)
	require.InDelta(t, 120.0, radiation[0].Numeric, 0.0001)
	require.InDelta(t, -12.0, periods[1].Numeric, 0.0001)
	require.InDelta(t, 1400.0, radiation[1].Numeric, 0.0001)

	count := valueAt(t, subset, 31001)
	require.EqualValues(t, 2, count.Code)
}

func floatPtr(v float64) *float64 { return &v }
