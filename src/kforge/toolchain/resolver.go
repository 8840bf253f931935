// Package toolchain locates cross-compilation toolchains on disk and
// derives the prefixes and search paths the kernel build needs.
package toolchain

import (
	"os"
	"strings"
	"time"

	"github.com/kforge/kforge/src/common/errors"
	"github.com/kforge/kforge/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger replaces the package logger
func SetLogger(l *logs.Logger) {
	log = l
}

// ResolvePrefix derives the cross-compile prefix from a toolchain bin
// folder: among entries whose name ends in "gcc", the most recently
// modified one wins, and the prefix is its name with the trailing
// "gcc" stripped. Wrapper binaries carrying a "real-" prefix resolve
// to the wrapped name ("real-aarch64-linux-android-gcc" gives
// "aarch64-linux-android-").
func ResolvePrefix(binDir string) (string, error) {
	entries, err := os.ReadDir(binDir)
	if err != nil {
		return "", errors.ErrInvalidToolchainFolder.
			WithMessagef("cannot read toolchain bin folder %s", binDir).WithCause(err)
	}

	var (
		bestName string
		bestTime time.Time
		found    bool
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, "gcc") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		mod := info.ModTime()
		// Newest modification time wins; equal timestamps fall back to
		// the lexically greater name so the pick stays deterministic.
		if !found || mod.After(bestTime) || (mod.Equal(bestTime) && name > bestName) {
			bestName = name
			bestTime = mod
			found = true
		}
	}

	if !found {
		return "", errors.ErrToolchainPrefixUnresolvable.
			WithMessagef("no gcc-suffixed binary in %s", binDir)
	}

	prefix := strings.TrimSuffix(bestName, "gcc")
	prefix = strings.TrimPrefix(prefix, "real-")

	log.Debug("Resolved cross-compile prefix", "bin_dir", binDir, "prefix", prefix)
	return prefix, nil
}
