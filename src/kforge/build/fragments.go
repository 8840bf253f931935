package build

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kforge/kforge/src/common/paths"
)

// LocateFragment resolves a defconfig fragment name to a file inside
// the kernel tree. The name is tried as a path relative to the tree
// root first, then under arch/<arch>/configs/ where full defconfigs
// normally live.
func LocateFragment(kernelDir, makeArch, name string) (string, error) {
	direct := filepath.Join(kernelDir, name)
	if paths.IsFile(direct) {
		return direct, nil
	}
	archPath := filepath.Join(kernelDir, "arch", makeArch, "configs", name)
	if paths.IsFile(archPath) {
		return archPath, nil
	}
	return "", fmt.Errorf("defconfig fragment %s not found (tried %s and %s)", name, direct, archPath)
}

// MergeFragments concatenates fragment files in order into dst,
// overwriting it. Later fragments win when olddefconfig resolves the
// merged result, which is why order is preserved.
func MergeFragments(dst string, fragments []string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("cannot create merged config %s: %w", dst, err)
	}

	for _, fragment := range fragments {
		in, err := os.Open(fragment)
		if err != nil {
			out.Close()
			return fmt.Errorf("cannot read fragment %s: %w", fragment, err)
		}
		_, copyErr := io.Copy(out, in)
		in.Close()
		if copyErr != nil {
			out.Close()
			return fmt.Errorf("cannot merge fragment %s: %w", fragment, copyErr)
		}
		if _, err := out.WriteString("\n"); err != nil {
			out.Close()
			return fmt.Errorf("cannot merge fragment %s: %w", fragment, err)
		}
	}
	return out.Close()
}
