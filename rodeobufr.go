// Package rodeobufr provides process-wide convenience wrappers around the
// tables, codec, and domain packages for the common case of a single shared
// table registry: load tables once at startup, then decode and encode
// messages against it from anywhere in the process.
//
// # Basic usage
//
//	if err := rodeobufr.LoadTables(os.Getenv("BUFR_TABLE_DIR")); err != nil {
//	    log.Fatal(err)
//	}
//	subsets, err := rodeobufr.DecodeFile(path)
//
// Advanced use — multiple independently-versioned registries, direct access
// to section 0-5 fields, custom encode identification — should use the
// tables, codec, and domain packages directly instead of this one.
package rodeobufr

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/EUMETNET/rodeo-bufr-library/codec"
	"github.com/EUMETNET/rodeo-bufr-library/domain"
	"github.com/EUMETNET/rodeo-bufr-library/internal/diag"
	"github.com/EUMETNET/rodeo-bufr-library/tables"
)

// global is the process-wide registry backing the package-level
// convenience functions. It is fenced by mu so LoadTables/UpdateTables
// never race a concurrent DecodeBuffer/Encode.
var (
	mu       sync.RWMutex
	global   = tables.NewRegistry()
	stations domain.StationDirectory = domain.NoopStationDirectory{}
)

// LoadTables populates the process-wide registry from dir, following the
// vendored-master-plus-local-overlay layout tables.Registry.Load expects.
// A second call is a no-op; use UpdateTables to force a reload.
func LoadTables(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	return global.Load(dir)
}

// UpdateTables forces a reload of the process-wide registry from dir,
// replacing whatever was previously loaded.
func UpdateTables(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	return global.Update(dir)
}

// LoadStationDirectory replaces the process-wide OSCAR station lookup used
// by Encode with a CSV-backed directory read from path. Encode resolves
// station metadata against domain.NoopStationDirectory until this is
// called.
func LoadStationDirectory(path string) error {
	dir, err := domain.LoadCSVStationDirectory(path)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	stations = dir

	return nil
}

// DecodeBuffer decodes one BUFR message from data against the process-wide
// registry and returns one rendered string per subset. A failed decode
// returns a nil slice, logs the failure to the diagnostic channel, and
// returns the error.
func DecodeBuffer(data []byte) ([]string, error) {
	mu.RLock()
	defer mu.RUnlock()

	msg, _, err := codec.DecodeMessage(data, global)
	if err != nil {
		diag.Global.Add(fmt.Sprintf("rodeobufr: decode: %v", err))
		return nil, err
	}

	return subsetStrings(msg), nil
}

// DecodeFile reads path and decodes a single BUFR message from its
// contents against the process-wide registry, as DecodeBuffer.
func DecodeFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		diag.Global.Add(fmt.Sprintf("rodeobufr: read %s: %v", path, err))
		return nil, err
	}

	return DecodeBuffer(data)
}

// Encode parses coverageJSON, maps it onto a BUFR message using the
// process-wide registry and station directory, and serialises it, always
// producing uncompressed section 4. A failed encode returns nil bytes,
// logs the failure to the diagnostic channel, and returns the error.
func Encode(coverageJSON []byte) ([]byte, error) {
	doc, err := domain.ParseDocument(coverageJSON)
	if err != nil {
		diag.Global.Add(fmt.Sprintf("rodeobufr: encode: %v", err))
		return nil, err
	}

	mu.RLock()
	defer mu.RUnlock()

	msg, err := domain.Build(doc, global, stations, codec.Identification{})
	if err != nil {
		diag.Global.Add(fmt.Sprintf("rodeobufr: encode: %v", err))
		return nil, err
	}

	out, err := codec.EncodeMessage(msg, global)
	if err != nil {
		diag.Global.Add(fmt.Sprintf("rodeobufr: encode: %v", err))
		return nil, err
	}

	return out, nil
}

// PrettyPrint reads path, decodes it against the process-wide registry, and
// renders a human-readable (descriptor, value) listing: a message header
// line, then each subset introduced by a "--- subset N ---" line.
func PrettyPrint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("rodeobufr: read %s: %w", path, err)
	}

	mu.RLock()
	defer mu.RUnlock()

	msg, _, err := codec.DecodeMessage(data, global)
	if err != nil {
		diag.Global.Add(fmt.Sprintf("rodeobufr: pretty print: %v", err))
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "edition=%d centre=%d category=%d/%d/%d master=%d local=%d subsets=%d compressed=%t\n",
		msg.Edition, msg.ID.Centre, msg.ID.DataCategory, msg.ID.IntlSubCategory, msg.ID.LocalSubCategory,
		msg.ID.MasterVersion, msg.ID.LocalVersion, len(msg.Subsets), msg.Compressed)

	for i, subset := range msg.Subsets {
		fmt.Fprintf(&b, "--- subset %d ---\n", i)
		for _, el := range subset {
			fmt.Fprintf(&b, "%-8s %s\n", el.Descriptor.String(), el.Value.String())
		}
	}

	return b.String(), nil
}

// subsetStrings renders each subset of msg as a single space-separated
// "descriptor=value" line.
func subsetStrings(msg *codec.Message) []string {
	out := make([]string, len(msg.Subsets))

	for i, subset := range msg.Subsets {
		var b strings.Builder
		for j, el := range subset {
			if j > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%s=%s", el.Descriptor.String(), el.Value.String())
		}
		out[i] = b.String()
	}

	return out
}

// GetLog returns a snapshot of the process-wide diagnostic channel: lines
// describing skipped table-file entries and aborted decode/encode calls,
// accumulated since the last ClearLog.
func GetLog() []string {
	return diag.Global.Lines()
}

// ClearLog discards the process-wide diagnostic channel's accumulated
// lines.
func ClearLog() {
	diag.Global.Clear()
}
