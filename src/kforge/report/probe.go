// Package report probes the kernel tree for build artifacts and
// renders the final build verdict.
package report

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kforge/kforge/src/common/errors"
)

// imagePatterns are tried in order of preference: a device-tree
// attached image, a versioned image, then anything image-shaped.
var imagePatterns = []string{"Image.gz-dtb", "Image-*", "Image*"}

// FindImage locates the built kernel image under the boot directory.
// The first pattern with matches wins; the catch-all fallback takes
// the lexicographically last match so versioned names beat the bare
// "Image".
func FindImage(bootDir string) (string, error) {
	for i, pattern := range imagePatterns {
		matches, err := filepath.Glob(filepath.Join(bootDir, pattern))
		if err != nil || len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		if i == len(imagePatterns)-1 {
			return matches[len(matches)-1], nil
		}
		return matches[0], nil
	}
	return "", errors.ErrBuildArtifactNotFound.WithMessagef("no kernel image found under %s", bootDir)
}

// BootDir returns the boot artifact directory for an output tree.
func BootDir(outputDir, makeArch string) string {
	return filepath.Join(outputDir, "arch", makeArch, "boot")
}

// KernelRelease reads the release string the build recorded under the
// output tree. Missing or unreadable files degrade to empty.
func KernelRelease(outputDir string) string {
	data, err := os.ReadFile(filepath.Join(outputDir, "include", "config", "kernel.release"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
