package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/kforge/kforge/src/common/errors"
	"gopkg.in/yaml.v3"
)

// PresetFileName is the optional per-tree preset file at the kernel
// build root.
const PresetFileName = ".kforge.yaml"

// Preset is a named device profile. Explicit flags always override
// preset values.
type Preset struct {
	Arch           string   `yaml:"arch"`
	Defconfigs     []string `yaml:"defconfigs"`
	Clang          bool     `yaml:"clang"`
	GCCToolchain   string   `yaml:"gcc_toolchain"`
	GCC32Toolchain string   `yaml:"gcc_32_toolchain"`
	ClangToolchain string   `yaml:"clang_toolchain"`
	DisplayVersion string   `yaml:"display_version"`
	Archive        string   `yaml:"archive"`
}

type presetFile struct {
	Presets map[string]Preset `yaml:"presets"`
}

// LoadPresets reads the preset file from the kernel tree. A missing
// file is not an error; the map is simply nil.
func LoadPresets(kernelDir string) (map[string]Preset, error) {
	path := filepath.Join(kernelDir, PresetFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.ErrInvalidConfigValue.WithMessagef("cannot read %s", path).WithCause(err)
	}

	var pf presetFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil {
		return nil, errors.ErrInvalidConfigValue.WithMessagef("malformed preset file %s", path).WithCause(err)
	}

	return pf.Presets, nil
}

func lookupPreset(kernelDir, name string) (*Preset, error) {
	presets, err := LoadPresets(kernelDir)
	if err != nil {
		return nil, err
	}
	p, ok := presets[name]
	if !ok {
		return nil, errors.ErrUnknownPreset.WithMessagef("preset %q not defined in %s", name, PresetFileName)
	}
	return &p, nil
}
