package config

import (
	goerrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kforge/kforge/src/common/errors"
)

const presetYAML = `presets:
  ocean:
    arch: arm64
    defconfigs:
      - vendor/ocean_defconfig
      - ocean_overlay.config
    clang: true
    display_version: Ocean-v2
  dusty:
    defconfigs:
      - dusty_defconfig
    gcc_toolchain: gcc-9.3
`

func writePresetFile(t *testing.T, tree, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(tree, PresetFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write preset file: %v", err)
	}
}

func TestPresetApplied(t *testing.T) {
	tree := makeKernelTree(t)
	writePresetFile(t, tree, presetYAML)

	cfg, err := parseConfig(t, "--folder", tree, "--preset", "ocean")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Defconfigs) != 2 || cfg.Defconfigs[0] != "vendor/ocean_defconfig" {
		t.Errorf("expected preset defconfigs, got %v", cfg.Defconfigs)
	}
	if cfg.Compiler != CompilerClang {
		t.Errorf("expected preset to select clang, got %s", cfg.Compiler)
	}
	if cfg.DisplayVersion != "Ocean-v2" {
		t.Errorf("expected preset display version, got %q", cfg.DisplayVersion)
	}
}

func TestPresetExplicitFlagWins(t *testing.T) {
	tree := makeKernelTree(t)
	writePresetFile(t, tree, presetYAML)

	cfg, err := parseConfig(t, "--folder", tree, "--preset", "ocean", "--defconfig", "custom_defconfig")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Defconfigs) != 1 || cfg.Defconfigs[0] != "custom_defconfig" {
		t.Errorf("expected the explicit defconfig to win, got %v", cfg.Defconfigs)
	}
}

func TestPresetToolchainFolder(t *testing.T) {
	tree := makeKernelTree(t)
	writePresetFile(t, tree, presetYAML)

	cfg, err := parseConfig(t, "--folder", tree, "--preset", "dusty")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GCCToolchainDir != "gcc-9.3" {
		t.Errorf("expected preset toolchain folder, got %s", cfg.GCCToolchainDir)
	}
	if cfg.Compiler != CompilerGCC {
		t.Errorf("expected gcc for a preset without clang, got %s", cfg.Compiler)
	}
}

func TestUnknownPreset(t *testing.T) {
	tree := makeKernelTree(t)
	writePresetFile(t, tree, presetYAML)

	_, err := parseConfig(t, "--folder", tree, "--preset", "nope")
	if !goerrors.Is(err, errors.ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestMalformedPresetFile(t *testing.T) {
	tree := makeKernelTree(t)
	writePresetFile(t, tree, "presets:\n  broken: [\n")

	_, err := parseConfig(t, "--folder", tree, "--preset", "broken")
	if !goerrors.Is(err, errors.ErrInvalidConfigValue) {
		t.Fatalf("expected ErrInvalidConfigValue, got %v", err)
	}
}

func TestLoadPresetsMissingFile(t *testing.T) {
	presets, err := LoadPresets(t.TempDir())
	if err != nil {
		t.Fatalf("a missing preset file should not error: %v", err)
	}
	if presets != nil {
		t.Errorf("expected nil presets, got %v", presets)
	}
}
