package config

import (
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kforge/kforge/src/common/paths"
	"github.com/spf13/viper"
)

// BuildEnvFileName is the optional KEY=VALUE file at the kernel build
// root carrying per-tree settings (the moral equivalent of an Android
// build.config).
const BuildEnvFileName = "build.env"

// buildEnvKeys maps recognized build.env keys to their viper settings.
var buildEnvKeys = map[string]string{
	"KFORGE_TOOLCHAIN_ROOT":  "toolchain.root",
	"KFORGE_BUILD_USER":      "build.user",
	"KFORGE_BUILD_HOST":      "build.host",
	"KFORGE_ARCHIVE":         "archive.format",
	"KFORGE_DISPLAY_VERSION": "build.display_version",
}

// applyBuildEnvDefaults surfaces recognized build.env keys as viper
// defaults. The file is parsed into a plain map; the process
// environment is never touched, so these values rank below real
// environment variables and the config file.
func applyBuildEnvDefaults(kernelDir string) {
	path := filepath.Join(kernelDir, BuildEnvFileName)
	if !paths.IsFile(path) {
		return
	}

	vals, err := godotenv.Read(path)
	if err != nil {
		log.Warn("Ignoring unreadable build.env", "path", path, "error", err)
		return
	}

	for envKey, viperKey := range buildEnvKeys {
		if v, ok := vals[envKey]; ok && v != "" {
			viper.SetDefault(viperKey, v)
		}
	}
}
