package toolchain

import (
	"path/filepath"

	"github.com/kforge/kforge/src/common/errors"
	"github.com/kforge/kforge/src/common/paths"
	"github.com/kforge/kforge/src/kforge/config"
)

// vdso32Marker is the kernel tree subdirectory whose presence means the
// build links a 32-bit compatibility VDSO and therefore needs a 32-bit
// GCC on the path.
const vdso32Marker = "arch/arm64/kernel/vdso32"

// Paths holds the resolved on-disk locations and prefixes of every
// toolchain a build needs. It is produced once by Setup and treated as
// read-only afterwards.
type Paths struct {
	GCCDir   string
	GCC32Dir string
	ClangDir string

	GCCBinDir   string
	GCC32BinDir string
	ClangBinDir string

	CrossCompile   string
	CrossCompile32 string

	// ClangLibDirs are the lib/lib64 folders of the Clang toolchain,
	// needed on LD_LIBRARY_PATH for LTO plugins to load.
	ClangLibDirs []string
}

// Setup validates and resolves every toolchain the configuration
// requests. All failures are fatal; nothing is resolved lazily.
func Setup(cfg *config.BuildConfig) (*Paths, error) {
	tp := &Paths{}

	gccDir, err := locateFolder(cfg.GCCToolchainDir, cfg.ToolchainRoot)
	if err != nil {
		return nil, err
	}
	tp.GCCDir = gccDir
	tp.GCCBinDir = filepath.Join(gccDir, "bin")

	tp.CrossCompile, err = ResolvePrefix(tp.GCCBinDir)
	if err != nil {
		return nil, err
	}

	// 32-bit compat toolchain, only when the tree actually builds a
	// 32-bit VDSO. A configured folder is ignored otherwise.
	if NeedsCompat32(cfg.KernelDir) {
		gcc32Dir, err := locateFolder(cfg.GCC32ToolchainDir, cfg.ToolchainRoot)
		if err != nil {
			return nil, err
		}
		tp.GCC32Dir = gcc32Dir
		tp.GCC32BinDir = filepath.Join(gcc32Dir, "bin")

		tp.CrossCompile32, err = ResolvePrefix(tp.GCC32BinDir)
		if err != nil {
			return nil, err
		}
		log.Info("32-bit compat VDSO detected", "toolchain", gcc32Dir, "prefix", tp.CrossCompile32)
	}

	if cfg.Compiler == config.CompilerClang {
		clangDir, err := locateFolder(cfg.ClangToolchainDir, cfg.ToolchainRoot)
		if err != nil {
			return nil, err
		}
		tp.ClangDir = clangDir
		tp.ClangBinDir = filepath.Join(clangDir, "bin")

		clangBin := filepath.Join(tp.ClangBinDir, "clang")
		if !paths.IsFile(clangBin) {
			return nil, errors.ErrMissingCompilerBinary.
				WithMessagef("no clang binary at %s", clangBin)
		}

		tp.ClangLibDirs = findLibDirs(clangDir)
	}

	log.Debug("Toolchain setup complete",
		"gcc", tp.GCCDir,
		"gcc_32", tp.GCC32Dir,
		"clang", tp.ClangDir,
		"cross_compile", tp.CrossCompile)

	return tp, nil
}

// NeedsCompat32 reports whether the kernel tree builds a 32-bit
// compatibility VDSO.
func NeedsCompat32(kernelDir string) bool {
	return paths.IsDir(filepath.Join(kernelDir, vdso32Marker))
}

// BinDirs returns the toolchain bin folders to prepend to PATH, most
// specific compiler first.
func (p *Paths) BinDirs() []string {
	var dirs []string
	for _, d := range []string{p.ClangBinDir, p.GCCBinDir, p.GCC32BinDir} {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// locateFolder resolves a toolchain folder given either as a path or as
// a folder name under the toolchain root.
func locateFolder(folder, root string) (string, error) {
	folder = paths.Expand(folder)
	if paths.IsDir(folder) {
		if abs, err := filepath.Abs(folder); err == nil {
			return abs, nil
		}
		return folder, nil
	}

	under := filepath.Join(root, folder)
	if paths.IsDir(under) {
		return under, nil
	}

	return "", errors.ErrInvalidToolchainFolder.
		WithMessagef("toolchain folder not found: tried %s and %s", folder, under)
}

// findLibDirs returns the immediate lib64/lib subdirectories of a
// toolchain folder, 64-bit first.
func findLibDirs(dir string) []string {
	var libs []string
	for _, name := range []string{"lib64", "lib"} {
		p := filepath.Join(dir, name)
		if paths.IsDir(p) {
			libs = append(libs, p)
		}
	}
	return libs
}
