package domain

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/EUMETNET/rodeo-bufr-library/errs"
)

// Station is the station metadata record resolved for a WIGOS ID: block,
// station number, name, type, and elevation. A field left unknown by the
// directory is reported as a missing pointer, not zero.
type Station struct {
	Block     *uint16
	Number    *uint16
	Name      string
	Type      *uint8
	Elevation *float64
}

// StationDirectory resolves a WIGOS ID to the fields a 3 01 090 group
// needs. Lookup is pure and side-effect free: callers get a miss, not an
// error, for an unknown ID.
type StationDirectory interface {
	Lookup(wigosID string) (Station, bool)
}

// NoopStationDirectory always misses; every 3 01 090 identity field falls
// back to MISSING. Used when the builder is given no directory path.
type NoopStationDirectory struct{}

// Lookup always returns a zero Station and false.
func (NoopStationDirectory) Lookup(string) (Station, bool) {
	return Station{}, false
}

// CSVStationDirectory is an in-memory station table loaded from a single
// CSV file. Columns, by header name: wigos_id, block, number, name, type,
// elevation. A missing or unparseable numeric column leaves that field
// MISSING rather than failing the whole load.
type CSVStationDirectory struct {
	stations map[string]Station
}

// LoadCSVStationDirectory reads path and builds a CSVStationDirectory.
// It parses with the standard library's encoding/csv; no third-party CSV
// library is used. See DESIGN.md.
func LoadCSVStationDirectory(path string) (*CSVStationDirectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", errs.ErrDomainInput, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", errs.ErrDomainInput, path, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	dir := &CSVStationDirectory{stations: make(map[string]Station)}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", errs.ErrDomainInput, path, err)
		}

		wigosID, ok := field(record, col, "wigos_id")
		if !ok || wigosID == "" {
			continue
		}

		st := Station{}
		if name, ok := field(record, col, "name"); ok {
			st.Name = name
		}
		if v, ok := parseUint16(record, col, "block"); ok {
			st.Block = &v
		}
		if v, ok := parseUint16(record, col, "number"); ok {
			st.Number = &v
		}
		if v, ok := parseUint8(record, col, "type"); ok {
			st.Type = &v
		}
		if v, ok := parseFloat64(record, col, "elevation"); ok {
			st.Elevation = &v
		}
		dir.stations[wigosID] = st
	}

	return dir, nil
}

// Lookup implements StationDirectory.
func (d *CSVStationDirectory) Lookup(wigosID string) (Station, bool) {
	st, ok := d.stations[wigosID]

	return st, ok
}

func field(record []string, col map[string]int, name string) (string, bool) {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return "", false
	}

	return record[i], true
}

func parseUint16(record []string, col map[string]int, name string) (uint16, bool) {
	s, ok := field(record, col, name)
	if !ok || s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, false
	}

	return uint16(v), true
}

func parseUint8(record []string, col map[string]int, name string) (uint8, bool) {
	s, ok := field(record, col, name)
	if !ok || s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, false
	}

	return uint8(v), true
}

func parseFloat64(record []string, col map[string]int, name string) (float64, bool) {
	s, ok := field(record, col, name)
	if !ok || s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}
