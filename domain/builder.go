package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/EUMETNET/rodeo-bufr-library/codec"
	"github.com/EUMETNET/rodeo-bufr-library/descriptor"
	"github.com/EUMETNET/rodeo-bufr-library/errs"
	"github.com/EUMETNET/rodeo-bufr-library/tables"
)

// fixedPrefixSequence is the non-replicated head of the fixed descriptor
// sequence emitted for every station/time subset.
var fixedPrefixSequence = []descriptor.FXY{
	descriptor.FromFXXYYY(301150),
	descriptor.FromFXXYYY(301090),
	descriptor.FromFXXYYY(302031),
	descriptor.FromFXXYYY(302035),
	descriptor.FromFXXYYY(302036),
	descriptor.FromFXXYYY(302042),
	descriptor.FromFXXYYY(302040),
}

var radiationSequence = descriptor.FromFXXYYY(302045)

// buildTopLevelSequence assembles the full top-level sequence: the fixed
// prefix, then "1 01 000 / 0 31 001" wrapping the bare 3 02 045 sequence
// descriptor. The wrapped descriptor is left unexpanded here — this is the
// natural wire form of a delayed-replication-wrapped sequence, and Expand
// resolves it (rewriting the trigger's X to the post-expansion member
// count) the same as it would a bare sequence anywhere else in the list.
func buildTopLevelSequence() []descriptor.FXY {
	out := make([]descriptor.FXY, 0, len(fixedPrefixSequence)+3)
	out = append(out, fixedPrefixSequence...)
	out = append(out, descriptor.New(descriptor.ClassReplication, 1, 0))
	out = append(out, descriptor.New(descriptor.ClassElement, 31, 1))
	out = append(out, radiationSequence)

	return out
}

// Well-known Table B element descriptors the builder fills directly. These
// are fixed WMO assignments, not something a table file changes.
var (
	descBlockNumber      = descriptor.FromFXXYYY(1001)
	descStationNumber    = descriptor.FromFXXYYY(1002)
	descStationName      = descriptor.FromFXXYYY(1015)
	descStationType      = descriptor.FromFXXYYY(2001)
	descYear             = descriptor.FromFXXYYY(4001)
	descMonth            = descriptor.FromFXXYYY(4002)
	descDay              = descriptor.FromFXXYYY(4003)
	descHour             = descriptor.FromFXXYYY(4004)
	descMinute           = descriptor.FromFXXYYY(4005)
	descLatitude         = descriptor.FromFXXYYY(5001)
	descLongitude        = descriptor.FromFXXYYY(6001)
	descHeightStation    = descriptor.FromFXXYYY(7030)
	descHeightSensor     = descriptor.FromFXXYYY(7032)
	descWigosSeries      = descriptor.FromFXXYYY(1125)
	descWigosIssuer      = descriptor.FromFXXYYY(1126)
	descWigosIssueNumber = descriptor.FromFXXYYY(1127)
	descWigosLocalID     = descriptor.FromFXXYYY(1128)
	descPressure         = descriptor.FromFXXYYY(10004)
	descMSLPressure      = descriptor.FromFXXYYY(10051)
	descTemperature      = descriptor.FromFXXYYY(12101)
	descDewPoint         = descriptor.FromFXXYYY(12103)
	descRelativeHumidity = descriptor.FromFXXYYY(13003)
	descWindDirection    = descriptor.FromFXXYYY(11001)
	descWindSpeed        = descriptor.FromFXXYYY(11002)
	descPrecipitation    = descriptor.FromFXXYYY(13011)
	descTimePeriod       = descriptor.FromFXXYYY(4024)
	descLongwaveRad      = descriptor.FromFXXYYY(14002)
)

// ParseDocument decodes raw Coverage-JSON bytes (recognised
// subset) into a CoverageDocument.
func ParseDocument(data []byte) (*CoverageDocument, error) {
	var doc CoverageDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDomainInput, err)
	}
	if doc.Coverages == nil {
		return nil, fmt.Errorf("%w: missing \"coverages\" array", errs.ErrDomainInput)
	}

	return &doc, nil
}

// stationPivot is one WIGOS station's pivoted observations: time ->
// parameter -> value, plus its own unit map and fixed lat/lon.
type stationPivot struct {
	lat, lon float64
	times    []string
	meas     map[string]map[string]float64
	units    map[string]string
}

// pivot implements "station -> time -> parameter -> value"
// mapping, plus the parallel unit and lat/lon maps.
func pivot(doc *CoverageDocument) map[string]*stationPivot {
	stations := make(map[string]*stationPivot)

	for _, cov := range doc.Coverages {
		if cov.Domain.DomainType != "PointSeries" {
			continue
		}

		st, ok := stations[cov.WigosID]
		if !ok {
			st = &stationPivot{meas: make(map[string]map[string]float64), units: make(map[string]string)}
			stations[cov.WigosID] = st
		}

		if len(cov.Domain.Axes.X.Values) > 0 {
			st.lat = cov.Domain.Axes.X.Values[0]
		}
		if len(cov.Domain.Axes.Y.Values) > 0 {
			st.lon = cov.Domain.Axes.Y.Values[0]
		}
		for name, p := range cov.Parameters {
			st.units[name] = p.Unit.Label["en"]
		}

		for ti, t := range cov.Domain.Axes.T.Values {
			if _, ok := st.meas[t]; !ok {
				st.meas[t] = make(map[string]float64)
				st.times = append(st.times, t)
			}
			for param, rng := range cov.Ranges {
				if ti < len(rng.Values) && rng.Values[ti] != nil {
					st.meas[t][param] = *rng.Values[ti]
				}
			}
		}
	}

	for _, st := range stations {
		sort.Strings(st.times)
	}

	return stations
}

// Build pivots doc into one subset per (station, time) pair, structured by
// the fixed top-level descriptor sequence. stations resolves
// block/station/name/type/elevation; pass NoopStationDirectory
// when none is configured. id supplies the section 1 identification the
// caller wants stamped on every subset (centre, master/local table
// version, message date).
func Build(doc *CoverageDocument, reg *tables.Registry, stations StationDirectory, id codec.Identification) (*codec.Message, error) {
	effD, err := reg.ResolveD(int(id.MasterVersion), int(id.LocalVersion), int(id.Centre))
	if err != nil {
		return nil, err
	}

	topLevel := buildTopLevelSequence()

	expanded, err := codec.Expand(topLevel, effD)
	if err != nil {
		return nil, err
	}
	radiationTrigger := lastReplicationIndex(expanded)

	pivoted := pivot(doc)
	wigosIDs := make([]string, 0, len(pivoted))
	for w := range pivoted {
		wigosIDs = append(wigosIDs, w)
	}
	sort.Strings(wigosIDs)

	msg := &codec.Message{
		Edition:             4,
		ID:                  id,
		Observed:            true,
		TopLevelDescriptors: topLevel,
	}

	for _, wigosID := range wigosIDs {
		st := pivoted[wigosID]
		stationInfo, _ := stations.Lookup(wigosID)

		for _, t := range st.times {
			b := &subsetBuilder{
				wigosID:          wigosID,
				station:          stationInfo,
				lat:              st.lat,
				lon:              st.lon,
				timestamp:        t,
				values:           st.meas[t],
				units:            st.units,
				radiationTrigger: radiationTrigger,
				radiationRep:     -1,
			}

			els, err := b.walk(expanded, 0)
			if err != nil {
				return nil, err
			}
			msg.Subsets = append(msg.Subsets, els)
		}
	}

	return msg, nil
}

// lastReplicationIndex returns the position of the last F=1 (replication)
// descriptor in list, or -1. The domain's only authored delayed trigger —
// the one wrapping 3 02 045 — is always the last one in the expanded
// sequence, since nothing after it replicates; any earlier delayed
// trigger came from inside a Table D body this package does not control
// and defaults to a single, all-MISSING repeat.
func lastReplicationIndex(list []descriptor.FXY) int {
	last := -1
	for i, d := range list {
		if d.F == descriptor.ClassReplication {
			last = i
		}
	}

	return last
}

// subsetBuilder resolves one (station, time) pair's value for every
// descriptor in an already-expanded sequence.
type subsetBuilder struct {
	wigosID          string
	station          Station
	lat, lon         float64
	timestamp        string
	values           map[string]float64
	units            map[string]string
	radiationTrigger int
	radiationRep     int // -1 outside the radiation group, else 0 (-1h) or 1 (-12h)
}

// walk mirrors the codec package's own element walkers, but produces
// Values instead of reading/writing a bitstream: base is the absolute
// index of list[0] within the full expanded sequence Build computed, used
// to recognise the radiation delayed-replication trigger by position.
func (b *subsetBuilder) walk(list []descriptor.FXY, base int) ([]codec.Element, error) {
	var out []codec.Element

	i := 0
	for i < len(list) {
		d := list[i]

		switch d.F {
		case descriptor.ClassReplication:
			x := int(d.X)
			if i+1 >= len(list) {
				return nil, fmt.Errorf("%w: delayed replication missing count descriptor", errs.ErrDomainInput)
			}
			countDesc := list[i+1]

			isRadiation := base+i == b.radiationTrigger
			count := uint64(1)
			if isRadiation {
				count = 2
			}
			out = append(out, codec.Element{Descriptor: countDesc, Value: codec.CodeValue(count)})

			if i+2+x > len(list) {
				return nil, fmt.Errorf("%w: delayed replication group truncated", errs.ErrDomainInput)
			}
			group := list[i+2 : i+2+x]

			prevRep := b.radiationRep
			for rep := uint64(0); rep < count; rep++ {
				if isRadiation {
					b.radiationRep = int(rep)
				}
				els, err := b.walk(group, base+i+2)
				if err != nil {
					return nil, err
				}
				out = append(out, els...)
			}
			b.radiationRep = prevRep
			i += 2 + x

		case descriptor.ClassOperator:
			// The fixed top-level sequence carries no Class 2 operators of
			// its own; nothing to track here.
			i++

		default: // ClassElement
			out = append(out, codec.Element{Descriptor: d, Value: b.resolve(d)})
			i++
		}
	}

	return out, nil
}

// resolve returns the value for one element descriptor. Anything this
// domain does not populate — visibility, cloud layers, wind gusts, short-
// wave/net radiation, pressure tendency, geopotential height — emits
// MISSING, matching the original's behaviour for the same unpopulated
// slots.
func (b *subsetBuilder) resolve(d descriptor.FXY) codec.Value {
	switch d {
	case descWigosSeries, descWigosIssuer, descWigosIssueNumber, descWigosLocalID:
		return b.wigosComponent(d)
	case descBlockNumber:
		return uint16PtrValue(b.station.Block)
	case descStationNumber:
		return uint16PtrValue(b.station.Number)
	case descStationName:
		if b.station.Name == "" {
			return codec.Missing()
		}

		return codec.TextValue([]byte(b.station.Name))
	case descStationType:
		return uint8PtrValue(b.station.Type)
	case descHeightStation, descHeightSensor:
		return float64PtrValue(b.station.Elevation)
	case descYear, descMonth, descDay, descHour, descMinute:
		return b.timeField(d)
	case descLatitude:
		return codec.NumericValue(b.lat)
	case descLongitude:
		return codec.NumericValue(b.lon)
	case descPressure:
		return b.paramValue(paramPressure)
	case descMSLPressure:
		return b.paramValue(paramMSLPressure)
	case descTemperature:
		return b.paramValue(paramTemperature)
	case descDewPoint:
		return b.paramValue(paramDewPoint)
	case descRelativeHumidity:
		return b.paramValue(paramRelativeHumidity)
	case descWindDirection:
		return b.paramValue(paramWindDirection)
	case descWindSpeed:
		return b.paramValue(paramWindSpeed)
	case descPrecipitation:
		return b.precipitationValue()
	case descTimePeriod:
		return b.radiationTimePeriod()
	case descLongwaveRad:
		return b.radiationValue()
	default:
		return codec.Missing()
	}
}

// radiationTimePeriod and radiationValue fill the 3 02 045 group's time
// period and long-wave radiation slots: the first repeat (radiationRep
// 0) covers the last hour, the second (radiationRep 1) the last 12 hours,
// matching the original's -1/-12 ordering. Outside the radiation group
// (radiationRep -1, e.g. a 3 02 045 reached via some other path) both
// resolve to MISSING.
func (b *subsetBuilder) radiationTimePeriod() codec.Value {
	switch b.radiationRep {
	case 0:
		return codec.NumericValue(-1)
	case 1:
		return codec.NumericValue(-12)
	default:
		return codec.Missing()
	}
}

func (b *subsetBuilder) radiationValue() codec.Value {
	var kind paramKind
	switch b.radiationRep {
	case 0:
		kind = paramLongwaveRadiation1h
	case 1:
		kind = paramLongwaveRadiation12h
	default:
		return codec.Missing()
	}

	return b.paramValue(kind)
}

// paramValue finds the first parameter of kind among this subset's values,
// in parameter-name order, and returns its canonicalised value, or MISSING
// if none is present.
func (b *subsetBuilder) paramValue(kind paramKind) codec.Value {
	name, value, ok := b.findParam(kind)
	if !ok {
		return codec.Missing()
	}

	return codec.NumericValue(canonicalizeUnit(kind, value, b.units[name]))
}

// precipitationValue resolves the headline precipitation slot: whichever
// accumulation window (24h/12h/1h) is present wins, 24h first, matching
// the order the original checks them in.
func (b *subsetBuilder) precipitationValue() codec.Value {
	for _, kind := range []paramKind{paramPrecipitation24h, paramPrecipitation12h, paramPrecipitation1h} {
		if _, value, ok := b.findParam(kind); ok {
			return codec.NumericValue(value)
		}
	}

	return codec.Missing()
}

func (b *subsetBuilder) findParam(kind paramKind) (string, float64, bool) {
	names := make([]string, 0, len(b.values))
	for name := range b.values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if classifyParam(name) == kind {
			return name, b.values[name], true
		}
	}

	return "", 0, false
}

// timeField parses b.timestamp (an ISO-8601 string) and returns the field
// d asks for.
func (b *subsetBuilder) timeField(d descriptor.FXY) codec.Value {
	year, month, day, hour, minute, ok := parseISOTime(b.timestamp)
	if !ok {
		return codec.Missing()
	}

	switch d {
	case descYear:
		return codec.NumericValue(float64(year))
	case descMonth:
		return codec.NumericValue(float64(month))
	case descDay:
		return codec.NumericValue(float64(day))
	case descHour:
		return codec.NumericValue(float64(hour))
	case descMinute:
		return codec.NumericValue(float64(minute))
	default:
		return codec.Missing()
	}
}

// parseISOTime extracts the calendar fields from an ISO-8601 timestamp of
// the form "YYYY-MM-DDTHH:MM:SS[Z|+hh:mm]"; fractional seconds and
// timezone suffixes beyond the digits needed are ignored.
func parseISOTime(s string) (year, month, day, hour, minute int, ok bool) {
	if len(s) < 16 || s[4] != '-' || s[7] != '-' || s[10] != 'T' || s[13] != ':' {
		return 0, 0, 0, 0, 0, false
	}

	y, err1 := strconv.Atoi(s[0:4])
	mo, err2 := strconv.Atoi(s[5:7])
	d, err3 := strconv.Atoi(s[8:10])
	h, err4 := strconv.Atoi(s[11:13])
	mi, err5 := strconv.Atoi(s[14:16])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return 0, 0, 0, 0, 0, false
	}

	return y, mo, d, h, mi, true
}

// splitWigosID splits a WIGOS ID on '-' into at most four components for
// descriptor 3 01 150 (series ID, issuer, issue number, local ID).
func splitWigosID(wigosID string) [4]string {
	parts := strings.SplitN(wigosID, "-", 4)
	var out [4]string
	copy(out[:], parts)

	return out
}

// wigosComponent resolves one of the four 3 01 150 fields from the
// station's WIGOS ID. The series/issuer/issue-number components are
// numeric; the local identifier is free text.
func (b *subsetBuilder) wigosComponent(d descriptor.FXY) codec.Value {
	parts := splitWigosID(b.wigosID)

	switch d {
	case descWigosSeries:
		return numericComponent(parts[0])
	case descWigosIssuer:
		return numericComponent(parts[1])
	case descWigosIssueNumber:
		return numericComponent(parts[2])
	case descWigosLocalID:
		if parts[3] == "" {
			return codec.Missing()
		}

		return codec.TextValue([]byte(parts[3]))
	default:
		return codec.Missing()
	}
}

func numericComponent(s string) codec.Value {
	if s == "" {
		return codec.Missing()
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return codec.Missing()
	}

	return codec.NumericValue(float64(v))
}

func uint16PtrValue(v *uint16) codec.Value {
	if v == nil {
		return codec.Missing()
	}

	return codec.NumericValue(float64(*v))
}

func uint8PtrValue(v *uint8) codec.Value {
	if v == nil {
		return codec.Missing()
	}

	return codec.NumericValue(float64(*v))
}

func float64PtrValue(v *float64) codec.Value {
	if v == nil {
		return codec.Missing()
	}

	return codec.NumericValue(*v)
}
