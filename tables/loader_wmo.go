package tables

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/EUMETNET/rodeo-bufr-library/descriptor"
	"github.com/EUMETNET/rodeo-bufr-library/internal/diag"
)

// ParseWMOTableB parses the canonical WMO BUFRCREX_TableB_en.txt dialect: a
// comma-separated file with one header row followed by one row per
// element, columns (0-indexed):
//
//	0 ClassNo, 1 ClassName, 2 FXY, 3 ElementName, 4 Note,
//	5 Unit, 6 Scale, 7 ReferenceValue, 8 DataWidth_Bits, ...
//
// Lines that don't parse are skipped and logged; they are not fatal.
func ParseWMOTableB(data []byte) *B {
	b := NewB()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || lineNo == 1 {
			continue
		}

		fields := splitCSVLine(line)
		if len(fields) < 9 {
			logParseError("wmo-table-b", lineNo, "not enough columns")
			continue
		}

		d, err := parseFXYField(fields[2])
		if err != nil {
			logParseError("wmo-table-b", lineNo, err.Error())
			continue
		}

		scale, err1 := strconv.Atoi(strings.TrimSpace(fields[6]))
		ref, err2 := strconv.Atoi(strings.TrimSpace(fields[7]))
		width, err3 := strconv.Atoi(strings.TrimSpace(fields[8]))
		if err1 != nil || err2 != nil || err3 != nil || width < 1 {
			logParseError("wmo-table-b", lineNo, "invalid scale/reference/width")
			continue
		}

		b.Set(d, BEntry{
			Name:      strings.TrimSpace(fields[3]),
			Unit:      strings.TrimSpace(fields[5]),
			Scale:     scale,
			Reference: ref,
			Width:     uint(width),
		})
	}

	return b
}

// ParseWMOTableC parses the canonical WMO BUFRCREX_CodeFlag_en.txt dialect:
// comma-separated, one header row, columns (0-indexed):
//
//	0 ClassNo, 1 ClassName, 2 FXY, 3 ElementName, 4 CodeFigure, 5 EntryName, ...
func ParseWMOTableC(data []byte) *C {
	c := NewC()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || lineNo == 1 {
			continue
		}

		fields := splitCSVLine(line)
		if len(fields) < 6 {
			logParseError("wmo-table-c", lineNo, "not enough columns")
			continue
		}

		d, err := parseFXYField(fields[2])
		if err != nil {
			logParseError("wmo-table-c", lineNo, err.Error())
			continue
		}

		code, err := strconv.ParseUint(strings.TrimSpace(fields[4]), 10, 64)
		if err != nil {
			logParseError("wmo-table-c", lineNo, "invalid code figure")
			continue
		}

		c.Set(CKey{Descriptor: d, Code: code}, strings.TrimSpace(fields[5]))
	}

	return c
}

// ParseWMOTableD parses the canonical WMO BUFR_TableD_en.txt dialect:
// comma-separated, one header row, one row per (sequence, member) pair,
// columns (0-indexed):
//
//	0 Category, 1 FXY1 (sequence), 2 Title, 3 FXY2 (member), 4 ElementName, ...
//
// Rows sharing the same FXY1 accumulate into that sequence's child list in
// file order.
func ParseWMOTableD(data []byte) *D {
	d := NewD()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || lineNo == 1 {
			continue
		}

		fields := splitCSVLine(line)
		if len(fields) < 4 {
			logParseError("wmo-table-d", lineNo, "not enough columns")
			continue
		}

		seq, err := parseFXYField(fields[1])
		if err != nil {
			logParseError("wmo-table-d", lineNo, err.Error())
			continue
		}

		member, err := parseFXYField(fields[3])
		if err != nil {
			logParseError("wmo-table-d", lineNo, err.Error())
			continue
		}

		children, _ := d.Children(seq)
		d.Set(seq, append(children, member))
	}

	return d
}

func parseFXYField(s string) (descriptor.FXY, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "0")
	if s == "" {
		s = "0"
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return descriptor.FXY{}, fmt.Errorf("bad FXY field %q: %w", s, err)
	}

	return descriptor.FromFXXYYY(v), nil
}

// splitCSVLine splits a comma-separated line, stripping surrounding quotes
// from each field. It does not handle embedded commas inside quoted
// fields; WMO table dumps do not require that generality for the columns
// this loader reads.
func splitCSVLine(line string) []string {
	raw := strings.Split(line, ",")
	fields := make([]string, len(raw))
	for i, f := range raw {
		fields[i] = strings.Trim(strings.TrimSpace(f), `"`)
	}

	return fields
}

func logParseError(source string, line int, reason string) {
	diag.Global.Add(fmt.Sprintf("parse error: %s:%d: %s", source, line, reason))
}
