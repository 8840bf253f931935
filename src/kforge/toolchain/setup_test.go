package toolchain

import (
	goerrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kforge/kforge/src/common/errors"
	"github.com/kforge/kforge/src/kforge/config"
)

// newToolchainRoot lays out a root with 64-bit GCC, 32-bit GCC and
// Clang folders the way toolchain archives unpack.
func newToolchainRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	gccBin := filepath.Join(root, "aarch64", "bin")
	if err := os.MkdirAll(gccBin, 0o755); err != nil {
		t.Fatalf("failed to create gcc bin: %v", err)
	}
	writeExec(t, gccBin, "aarch64-linux-android-gcc", time.Now())

	gcc32Bin := filepath.Join(root, "arm", "bin")
	if err := os.MkdirAll(gcc32Bin, 0o755); err != nil {
		t.Fatalf("failed to create gcc32 bin: %v", err)
	}
	writeExec(t, gcc32Bin, "arm-linux-androideabi-gcc", time.Now())

	clangBin := filepath.Join(root, "clang", "bin")
	if err := os.MkdirAll(clangBin, 0o755); err != nil {
		t.Fatalf("failed to create clang bin: %v", err)
	}
	writeExec(t, clangBin, "clang", time.Now())
	if err := os.MkdirAll(filepath.Join(root, "clang", "lib64"), 0o755); err != nil {
		t.Fatalf("failed to create clang lib64: %v", err)
	}

	return root
}

func newSetupConfig(root, kernelDir string) *config.BuildConfig {
	return &config.BuildConfig{
		Arch:              "arm64",
		Compiler:          config.CompilerGCC,
		KernelDir:         kernelDir,
		ToolchainRoot:     root,
		GCCToolchainDir:   "aarch64",
		GCC32ToolchainDir: "arm",
		ClangToolchainDir: "clang",
	}
}

func TestSetupResolvesGCC(t *testing.T) {
	root := newToolchainRoot(t)
	cfg := newSetupConfig(root, t.TempDir())

	tp, err := Setup(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp.CrossCompile != "aarch64-linux-android-" {
		t.Errorf("expected resolved cross prefix, got %q", tp.CrossCompile)
	}
	if tp.CrossCompile32 != "" {
		t.Errorf("expected no 32-bit prefix without a vdso32 tree, got %q", tp.CrossCompile32)
	}
	dirs := tp.BinDirs()
	if len(dirs) != 1 || dirs[0] != tp.GCCBinDir {
		t.Errorf("expected only the gcc bin dir on PATH, got %v", dirs)
	}
}

func TestSetupCompat32(t *testing.T) {
	root := newToolchainRoot(t)
	kernelDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(kernelDir, "arch", "arm64", "kernel", "vdso32"), 0o755); err != nil {
		t.Fatalf("failed to create vdso32 marker: %v", err)
	}

	tp, err := Setup(newSetupConfig(root, kernelDir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp.CrossCompile32 != "arm-linux-androideabi-" {
		t.Errorf("expected 32-bit prefix, got %q", tp.CrossCompile32)
	}
	dirs := tp.BinDirs()
	if len(dirs) != 2 || dirs[0] != tp.GCCBinDir || dirs[1] != tp.GCC32BinDir {
		t.Errorf("expected gcc then gcc32 on PATH, got %v", dirs)
	}
}

func TestSetupClang(t *testing.T) {
	root := newToolchainRoot(t)
	cfg := newSetupConfig(root, t.TempDir())
	cfg.Compiler = config.CompilerClang

	tp, err := Setup(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp.ClangBinDir == "" {
		t.Fatal("expected a resolved clang bin dir")
	}
	if len(tp.ClangLibDirs) != 1 || filepath.Base(tp.ClangLibDirs[0]) != "lib64" {
		t.Errorf("expected clang lib64 on the library path, got %v", tp.ClangLibDirs)
	}
	dirs := tp.BinDirs()
	if len(dirs) != 2 || dirs[0] != tp.ClangBinDir {
		t.Errorf("expected clang bin dir first on PATH, got %v", dirs)
	}
}

func TestSetupClangMissingBinary(t *testing.T) {
	root := newToolchainRoot(t)
	if err := os.Remove(filepath.Join(root, "clang", "bin", "clang")); err != nil {
		t.Fatalf("failed to remove clang binary: %v", err)
	}
	cfg := newSetupConfig(root, t.TempDir())
	cfg.Compiler = config.CompilerClang

	_, err := Setup(cfg)
	if !goerrors.Is(err, errors.ErrMissingCompilerBinary) {
		t.Fatalf("expected ErrMissingCompilerBinary, got %v", err)
	}
}

func TestSetupUnknownFolder(t *testing.T) {
	root := newToolchainRoot(t)
	cfg := newSetupConfig(root, t.TempDir())
	cfg.GCCToolchainDir = "no-such-toolchain"

	_, err := Setup(cfg)
	if !goerrors.Is(err, errors.ErrInvalidToolchainFolder) {
		t.Fatalf("expected ErrInvalidToolchainFolder, got %v", err)
	}
}

func TestSetupAbsoluteFolder(t *testing.T) {
	root := newToolchainRoot(t)
	cfg := newSetupConfig(t.TempDir(), t.TempDir())
	cfg.GCCToolchainDir = filepath.Join(root, "aarch64")

	tp, err := Setup(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp.CrossCompile != "aarch64-linux-android-" {
		t.Errorf("expected resolution through the absolute path, got %q", tp.CrossCompile)
	}
}
