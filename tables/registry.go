package tables

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/EUMETNET/rodeo-bufr-library/compress"
	"github.com/EUMETNET/rodeo-bufr-library/descriptor"
	"github.com/EUMETNET/rodeo-bufr-library/errs"
	"github.com/EUMETNET/rodeo-bufr-library/internal/diag"
)

// Registry is the two-tier BUFR table catalogue: a master map keyed by
// version, and a local map keyed by (version, centre) holding overlays.
// It is read-only after Load/Update and safe to share across parallel
// decode/encode callers; Load and Update themselves are not synchronised
// against in-flight callers and must be externally fenced.
type Registry struct {
	mu sync.RWMutex

	masterB map[int]*B
	masterC map[int]*C
	masterD map[int]*D

	localB map[int]map[int]*B
	localD map[int]map[int]*D

	overlayCacheB map[uint64]*B
	overlayCacheD map[uint64]*D
}

// NewRegistry creates an empty, unloaded registry.
func NewRegistry() *Registry {
	return &Registry{
		masterB:       make(map[int]*B),
		masterC:       make(map[int]*C),
		masterD:       make(map[int]*D),
		localB:        make(map[int]map[int]*B),
		localD:        make(map[int]map[int]*D),
		overlayCacheB: make(map[uint64]*B),
		overlayCacheD: make(map[uint64]*D),
	}
}

// NewRegistryFromTables builds a registry directly from already-parsed
// master tables, registered as version 0, bypassing directory discovery.
// Useful for callers (and tests) that already hold in-memory tables, e.g. a
// small built-in fallback table shipped alongside the binary.
func NewRegistryFromTables(masterB *B, masterC *C, masterD *D) *Registry {
	r := NewRegistry()
	r.masterB[0] = masterB
	r.masterC[0] = masterC
	r.masterD[0] = masterD

	return r
}

// Load populates the registry from dir, recognising the WMO canonical,
// vendored per-version, and local-prefix dialects in a single
// top-level directory scan. It is idempotent: calling Load again on an
// already-populated registry is a no-op; use Update to force a
// clear-then-reload.
func (r *Registry) Load(dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.masterB) > 0 || len(r.masterC) > 0 || len(r.masterD) > 0 {
		return nil
	}

	if err := r.loadLocked(dir); err != nil {
		return err
	}

	if len(r.masterB) == 0 || len(r.masterC) == 0 || len(r.masterD) == 0 {
		r.clearLocked()

		return errs.ErrTableLoadFailed
	}

	return nil
}

// Update clears the registry and reloads it from dir. Update is not
// observed atomically by in-flight decodes; callers must fence concurrent
// decode/encode calls around this call themselves.
func (r *Registry) Update(dir string) error {
	r.mu.Lock()
	r.clearLocked()
	r.mu.Unlock()

	return r.Load(dir)
}

func (r *Registry) clearLocked() {
	r.masterB = make(map[int]*B)
	r.masterC = make(map[int]*C)
	r.masterD = make(map[int]*D)
	r.localB = make(map[int]map[int]*B)
	r.localD = make(map[int]map[int]*D)
	r.overlayCacheB = make(map[uint64]*B)
	r.overlayCacheD = make(map[uint64]*D)
}

func (r *Registry) loadLocked(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("tables: reading %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			r.loadVendoredVersion(path, entry.Name())

			continue
		}

		r.loadTopLevelFile(path, entry.Name())
	}

	return nil
}

func (r *Registry) loadVendoredVersion(dirPath, name string) {
	version, err := strconv.Atoi(name)
	if err != nil || version <= 0 {
		return
	}

	if data, ok := readTableFile(filepath.Join(dirPath, "element.table")); ok {
		r.masterB[version] = ParseVendoredTableB(data)
	}

	codetablesDir := filepath.Join(dirPath, "codetables")
	if ctEntries, err := os.ReadDir(codetablesDir); err == nil {
		c := NewC()
		for _, ctEntry := range ctEntries {
			if ctEntry.IsDir() {
				continue
			}
			d, ok := fxyFromCodeTableFilename(ctEntry.Name())
			if !ok {
				continue
			}
			data, ok := readTableFile(filepath.Join(codetablesDir, ctEntry.Name()))
			if !ok {
				continue
			}
			c.Merge(ParseVendoredTableC(d, data))
		}
		if c.Len() > 0 {
			if existing, ok := r.masterC[version]; ok {
				existing.Merge(c)
			} else {
				r.masterC[version] = c
			}
		}
	}

	if data, ok := readTableFile(filepath.Join(dirPath, "sequence.def")); ok {
		r.masterD[version] = ParseVendoredTableD(data)
	}
}

func (r *Registry) loadTopLevelFile(path, name string) {
	plainPath := filepath.Join(filepath.Dir(path), stripCompressedExt(name))
	switch stripCompressedExt(name) {
	case "BUFRCREX_TableB_en.txt":
		if data, ok := readTableFile(plainPath); ok {
			r.masterB[0] = ParseWMOTableB(data)
		}

		return
	case "BUFRCREX_CodeFlag_en.txt":
		if data, ok := readTableFile(plainPath); ok {
			c := ParseWMOTableC(data)
			if existing, ok := r.masterC[0]; ok {
				existing.Merge(c)
			} else {
				r.masterC[0] = c
			}
		}

		return
	case "BUFR_TableD_en.txt":
		if data, ok := readTableFile(plainPath); ok {
			r.masterD[0] = ParseWMOTableD(data)
		}

		return
	}

	info, ok := ParseLocalFilename(name)
	if !ok {
		return
	}

	data, ok := readTableFile(path)
	if !ok {
		return
	}

	switch info.Kind {
	case LocalKindCentreB:
		if _, ok := r.localB[info.Version]; !ok {
			r.localB[info.Version] = make(map[int]*B)
		}
		r.localB[info.Version][info.Centre] = ParseVendoredTableB(data)
	case LocalKindCentreD:
		if _, ok := r.localD[info.Version]; !ok {
			r.localD[info.Version] = make(map[int]*D)
		}
		r.localD[info.Version][info.Centre] = ParseVendoredTableD(data)
	case LocalKindMasterB:
		r.masterB[info.Version] = ParseVendoredTableB(data)
	case LocalKindMasterD:
		r.masterD[info.Version] = ParseVendoredTableD(data)
	}
}

// readTableFile reads path, transparently decompressing a .gz/.s2/.lz4
// sibling if path itself does not exist but a compressed form does.
func readTableFile(path string) ([]byte, bool) {
	if data, err := os.ReadFile(path); err == nil {
		return data, true
	}

	for _, ext := range []string{".gz", ".s2", ".lz4"} {
		compressedPath := path + ext
		raw, err := os.ReadFile(compressedPath)
		if err != nil {
			continue
		}

		data, err := compress.CodecForExt(compressedPath).Decompress(raw)
		if err != nil {
			diag.Global.Add(fmt.Sprintf("decompress error: %s: %v", compressedPath, err))

			return nil, false
		}

		return data, true
	}

	return nil, false
}

func stripCompressedExt(name string) string {
	for _, ext := range []string{".gz", ".s2", ".lz4"} {
		if filepath.Ext(name) == ext {
			return name[:len(name)-len(ext)]
		}
	}

	return name
}

// fxyFromCodeTableFilename extracts the descriptor from a codetables file
// stem, e.g. "020003.table" -> 0-20-003. Non-numeric stems are rejected.
func fxyFromCodeTableFilename(name string) (descriptor.FXY, bool) {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	d, err := parseFXYField(stem)
	if err != nil {
		return descriptor.FXY{}, false
	}

	return d, true
}

// ResolveB returns the effective Table B for a message declaring
// masterVersion, localVersion, and centre: the base master
// table (exact version, else highest registered version <= requested, else
// the overall highest registered) overlaid with local[localVersion][centre]
// if present. The overlay is built as a new table (the master and local
// tables are not modified) on the first call for a given (masterVersion,
// localVersion, centre) and cached: later calls with the same arguments
// return that same *B until Update clears the cache.
func (r *Registry) ResolveB(masterVersion, localVersion, centre int) (*B, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.masterB) == 0 {
		return nil, errs.ErrTablesNotLoaded
	}

	cacheKey := xxhash.Sum64String(fmt.Sprintf("B:%d:%d:%d", masterVersion, localVersion, centre))
	if cached, ok := r.overlayCacheB[cacheKey]; ok {
		return cached, nil
	}

	base := selectMasterVersion(r.masterB, masterVersion)
	local := r.localB[localVersion][centre]

	effective := base.Overlay(local)
	r.overlayCacheB[cacheKey] = effective

	return effective, nil
}

// ResolveD is the Table D equivalent of ResolveB.
func (r *Registry) ResolveD(masterVersion, localVersion, centre int) (*D, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.masterD) == 0 {
		return nil, errs.ErrTablesNotLoaded
	}

	cacheKey := xxhash.Sum64String(fmt.Sprintf("D:%d:%d:%d", masterVersion, localVersion, centre))
	if cached, ok := r.overlayCacheD[cacheKey]; ok {
		return cached, nil
	}

	base := selectMasterVersionD(r.masterD, masterVersion)
	local := r.localD[localVersion][centre]

	effective := base.Overlay(local)
	r.overlayCacheD[cacheKey] = effective

	return effective, nil
}

// ResolveC returns the effective Table C for masterVersion, using the same
// exact/highest-below/highest-registered fallback as ResolveB. Table C has
// no local overlay tier: centre-specific code/flag labels are folded into
// the master version's table at load time via union-merge.
func (r *Registry) ResolveC(masterVersion int) (*C, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.masterC) == 0 {
		return nil, errs.ErrTablesNotLoaded
	}

	if exact, ok := r.masterC[masterVersion]; ok {
		return exact, nil
	}

	best := -1
	for v := range r.masterC {
		if v <= masterVersion && v > best {
			best = v
		}
	}
	if best < 0 {
		for v := range r.masterC {
			if v > best {
				best = v
			}
		}
	}

	return r.masterC[best], nil
}

func selectMasterVersion(m map[int]*B, requested int) *B {
	if exact, ok := m[requested]; ok {
		return exact
	}

	best := -1
	for v := range m {
		if v <= requested && v > best {
			best = v
		}
	}
	if best < 0 {
		for v := range m {
			if v > best {
				best = v
			}
		}
	}
	if best < 0 {
		return NewB()
	}

	return m[best]
}

func selectMasterVersionD(m map[int]*D, requested int) *D {
	if exact, ok := m[requested]; ok {
		return exact
	}

	best := -1
	for v := range m {
		if v <= requested && v > best {
			best = v
		}
	}
	if best < 0 {
		for v := range m {
			if v > best {
				best = v
			}
		}
	}
	if best < 0 {
		return NewD()
	}

	return m[best]
}
