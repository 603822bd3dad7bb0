package tables

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/EUMETNET/rodeo-bufr-library/descriptor"
)

// ParseVendoredTableB parses the "vendored" element.table dialect: one
// element per line, pipe-delimited:
//
//	FXY|name|unit|scale|reference|width
//
// Comment lines starting with '#' and blank lines are skipped silently;
// any other malformed line is skipped and logged.
func ParseVendoredTableB(data []byte) *B {
	b := NewB()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) < 6 {
			logParseError("vendored-table-b", lineNo, "not enough fields")
			continue
		}

		d, err := parseFXYField(fields[0])
		if err != nil {
			logParseError("vendored-table-b", lineNo, err.Error())
			continue
		}

		scale, err1 := strconv.Atoi(strings.TrimSpace(fields[3]))
		ref, err2 := strconv.Atoi(strings.TrimSpace(fields[4]))
		width, err3 := strconv.Atoi(strings.TrimSpace(fields[5]))
		if err1 != nil || err2 != nil || err3 != nil || width < 1 {
			logParseError("vendored-table-b", lineNo, "invalid scale/reference/width")
			continue
		}

		b.Set(d, BEntry{
			Name:      strings.TrimSpace(fields[1]),
			Unit:      strings.TrimSpace(fields[2]),
			Scale:     scale,
			Reference: ref,
			Width:     uint(width),
		})
	}

	return b
}

// ParseVendoredTableC parses one codetables/<FXY>.table file: pipe-
// delimited "code|label" lines for a single descriptor, whose FXY is taken
// from the filename stem (e.g. codetables/020003.table).
func ParseVendoredTableC(fxyFromFilename descriptor.FXY, data []byte) *C {
	c := NewC()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.SplitN(line, "|", 2)
		if len(fields) != 2 {
			logParseError("vendored-table-c", lineNo, "not enough fields")
			continue
		}

		code, err := strconv.ParseUint(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			logParseError("vendored-table-c", lineNo, "invalid code figure")
			continue
		}

		c.Set(CKey{Descriptor: fxyFromFilename, Code: code}, strings.TrimSpace(fields[1]))
	}

	return c
}

var sequenceDefLine = regexp.MustCompile(`^\s*"?(\d{1,6})"?\s*=\s*\[(.*)$`)

// ParseVendoredTableD parses the "vendored" sequence.def dialect:
//
//	"300004" = [ 005002, 006002 ]
//	"301150" = [
//	    001128,
//	    001129
//	]
//
// A definition may span multiple lines up to the closing ']'; child
// descriptors are bare or quoted decimal FXXYYY numbers.
func ParseVendoredTableD(data []byte) *D {
	d := NewD()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	var (
		current  descriptor.FXY
		inSeq    bool
		startLn  int
		accum    strings.Builder
		accumSet bool
	)

	flush := func() {
		if !inSeq {
			return
		}
		children, ok := parseChildList(accum.String())
		if !ok {
			logParseError("vendored-table-d", startLn, "malformed child list")
		} else {
			d.Set(current, children)
		}
		inSeq = false
		accum.Reset()
		accumSet = false
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if !inSeq {
			m := sequenceDefLine.FindStringSubmatch(trimmed)
			if m == nil {
				logParseError("vendored-table-d", lineNo, "unrecognised sequence definition")
				continue
			}

			seq, err := parseFXYField(m[1])
			if err != nil {
				logParseError("vendored-table-d", lineNo, err.Error())
				continue
			}

			current = seq
			startLn = lineNo
			inSeq = true
			accum.Reset()
			accum.WriteString(m[2])
			accumSet = true
		} else {
			if accumSet {
				accum.WriteByte(' ')
			}
			accum.WriteString(trimmed)
		}

		if strings.Contains(trimmed, "]") {
			flush()
		}
	}
	flush()

	return d
}

func parseChildList(body string) ([]descriptor.FXY, bool) {
	body = strings.TrimRight(body, " \t")
	idx := strings.Index(body, "]")
	if idx < 0 {
		return nil, false
	}
	body = body[:idx]

	var out []descriptor.FXY
	for _, tok := range strings.Split(body, ",") {
		tok = strings.Trim(strings.TrimSpace(tok), `"`)
		if tok == "" {
			continue
		}
		d, err := parseFXYField(tok)
		if err != nil {
			return nil, false
		}
		out = append(out, d)
	}

	return out, true
}

// String renders a small diagnostic summary, for callers wanting a quick
// sanity check after a bulk load.
func (b *B) String() string {
	return fmt.Sprintf("tables.B{%d entries}", b.Len())
}
