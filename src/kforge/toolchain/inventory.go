package toolchain

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/kforge/kforge/src/common/errors"
)

// InventoryEntry describes one toolchain folder under the toolchain
// root.
type InventoryEntry struct {
	Name    string          `json:"name"`
	Path    string          `json:"path"`
	Prefix  string          `json:"prefix,omitempty"`
	Version *semver.Version `json:"version,omitempty"`
}

// versionRe extracts a dotted version from a toolchain folder name,
// e.g. "aarch64-linux-android-4.9" or "clang-r416183b" style names
// with embedded major.minor[.patch] numbers.
var versionRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ScanInventory lists the toolchain folders under root. Folders whose
// bin directory yields no prefix are still listed so users can spot
// broken installs; their Prefix stays empty.
func ScanInventory(root string) ([]InventoryEntry, error) {
	dirents, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.ErrInvalidToolchainFolder.
			WithMessagef("cannot read toolchain root %s", root).WithCause(err)
	}

	var entries []InventoryEntry
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		e := InventoryEntry{
			Name:    d.Name(),
			Path:    filepath.Join(root, d.Name()),
			Version: versionFromName(d.Name()),
		}
		if prefix, err := ResolvePrefix(filepath.Join(e.Path, "bin")); err == nil {
			e.Prefix = prefix
		}
		entries = append(entries, e)
	}

	// Versioned folders newest-first, unversioned after them by name.
	sort.SliceStable(entries, func(i, j int) bool {
		vi, vj := entries[i].Version, entries[j].Version
		switch {
		case vi != nil && vj != nil:
			return vi.GreaterThan(vj)
		case vi != nil:
			return true
		case vj != nil:
			return false
		default:
			return entries[i].Name < entries[j].Name
		}
	})

	return entries, nil
}

// versionFromName coerces the first dotted number in a folder name
// into a semantic version, or nil when there is none.
func versionFromName(name string) *semver.Version {
	m := versionRe.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	v, err := semver.NewVersion(fmt.Sprintf("%s.%s.%s", m[1], m[2], patch))
	if err != nil {
		return nil
	}
	return v
}
