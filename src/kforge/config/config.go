// Package config assembles the immutable build configuration from CLI
// flags, device presets, the kernel tree's build.env file, and the
// kforge config file, in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/kforge/kforge/src/common/errors"
	"github.com/kforge/kforge/src/common/logs"
	"github.com/kforge/kforge/src/common/paths"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var log = logs.NewDefault()

// SetLogger replaces the package logger
func SetLogger(l *logs.Logger) {
	log = l
}

// Verbosity selects how much builder output reaches the terminal
type Verbosity string

const (
	// VerbosityFull passes everything except known-benign compiler noise
	VerbosityFull Verbosity = "full"
	// VerbosityErrors passes compiler error lines only
	VerbosityErrors Verbosity = "errors"
	// VerbosityWarnings passes compiler warning and error lines
	VerbosityWarnings Verbosity = "warnings"
	// VerbositySilent discards all builder output
	VerbositySilent Verbosity = "silent"
)

// Compiler selects the C compiler driving the kernel build
type Compiler string

const (
	CompilerGCC   Compiler = "gcc"
	CompilerClang Compiler = "clang"
)

// ArchiveFormat selects the post-build packaging format
type ArchiveFormat string

const (
	ArchiveNone  ArchiveFormat = "none"
	ArchiveTarXz ArchiveFormat = "tarxz"
)

// Default toolchain folder names, resolved against the toolchain root
// when the corresponding flag is not given. The 64-bit GCC folder
// defaults to the architecture name.
const (
	defaultGCC32Folder = "arm"
	defaultClangFolder = "clang"
)

// BuildConfig is the fully resolved, immutable configuration for one
// build run. Construct it with FromCommand; do not mutate it after.
type BuildConfig struct {
	Arch              string
	Compiler          Compiler
	Defconfigs        []string
	KernelDir         string
	OutputDir         string
	ToolchainRoot     string
	GCCToolchainDir   string
	GCC32ToolchainDir string
	ClangToolchainDir string
	Verbosity         Verbosity
	WarnPolicy        WarnPolicy
	DisplayVersion    string
	Preset            string
	Debug             bool
	Jobs              int
	ShowOnlyResult    bool
	ArchiveFormat     ArchiveFormat
	HistoryEnabled    bool
	HistoryPath       string
	BuildUser         string
	BuildHost         string
}

// Flags holds parse targets that cannot live in plain pflag values:
// the verbosity switches overwrite a shared field in command-line
// order, and the warning policy rejects conflicting occurrences.
type Flags struct {
	Verbosity  Verbosity
	WarnPolicy WarnPolicy
}

// verbositySwitch is a bool-shaped flag that, when set, overwrites the
// shared verbosity target. Because pflag calls Set in argument order,
// the last verbosity switch on the command line wins.
type verbositySwitch struct {
	target *Verbosity
	level  Verbosity
	on     bool
}

func (s *verbositySwitch) String() string {
	return strconv.FormatBool(s.on)
}

func (s *verbositySwitch) Set(v string) error {
	on, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	s.on = on
	if on {
		*s.target = s.level
	}
	return nil
}

func (s *verbositySwitch) Type() string {
	return "bool"
}

func registerVerbositySwitch(fs *pflag.FlagSet, name, usage string, target *Verbosity, level Verbosity) {
	sw := &verbositySwitch{target: target, level: level}
	fs.Var(sw, name, usage)
	// Behave like a plain bool flag: --name with no value means true
	fs.Lookup(name).NoOptDefVal = "true"
}

// RegisterFlags registers all build flags on the flag set and returns
// the parse targets FromCommand needs afterwards. Registering on the
// root command's persistent set lets the bare root invocation and the
// build subcommand share one parse.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{Verbosity: VerbosityFull}

	fs.String("arch", "arm64", "Target architecture")
	fs.String("defconfig", "", "Comma-separated defconfig fragments, merged in order")
	fs.String("folder", "", "Kernel build root (default: current directory)")
	fs.String("gcc-toolchain", "", "64-bit GCC toolchain folder name or path")
	fs.String("gcc-32-bit-toolchain", "", "32-bit GCC toolchain folder name or path")
	fs.String("clang-toolchain", "", "Clang toolchain folder name or path")
	fs.Bool("clang", false, "Compile with Clang (GCC still provides binutils)")
	fs.String("version-display", "", "Human-readable version label for the report")
	fs.String("preset", "", "Device preset from "+PresetFileName)
	fs.String("archive", "", "Package the image after a successful build (tarxz)")
	fs.IntP("jobs", "j", 0, "Parallel build jobs (default: all CPUs)")
	fs.String("toolchain-root", "~/toolchains", "Base folder containing toolchain folders")

	registerVerbositySwitch(fs, "debug", "Full output plus verbose builder invocation", &f.Verbosity, VerbosityFull)
	registerVerbositySwitch(fs, "errors", "Show compiler errors only", &f.Verbosity, VerbosityErrors)
	registerVerbositySwitch(fs, "warnings", "Show compiler warnings and errors", &f.Verbosity, VerbosityWarnings)
	registerVerbositySwitch(fs, "show-only-result", "Suppress build output, print only the final report", &f.Verbosity, VerbositySilent)

	fs.VarP(newWarnPolicyValue(&f.WarnPolicy), "warn", "W",
		"Warning policy: 'error' promotes warnings to build errors, 'no-error' reverts them")

	_ = viper.BindPFlag("toolchain.root", fs.Lookup("toolchain-root"))
	_ = viper.BindPFlag("build.jobs", fs.Lookup("jobs"))

	viper.SetDefault("toolchain.root", "~/toolchains")
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.path", "~/.kforge/history.db")

	return f
}

// FlagErrorFunc maps pflag parse failures onto the structured error
// taxonomy so exit codes and messages stay consistent. pflag reports
// errors as plain strings, so matching is textual.
func FlagErrorFunc(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "flag needs an argument"):
		return errors.ErrMissingArgumentValue.WithMessage(msg)
	case strings.Contains(msg, "conflicting warning policy"):
		return errors.ErrWarnPolicyConflict.WithMessage(msg)
	}
	return err
}

// FromCommand resolves the effective build configuration after flag
// parsing. Validation is fail-fast: the first violated precondition
// aborts the run before any toolchain work starts.
func FromCommand(cmd *cobra.Command, f *Flags) (*BuildConfig, error) {
	fs := cmd.Flags()

	// Kernel tree root: --folder wins, else the working directory.
	kernelDir, _ := fs.GetString("folder")
	if kernelDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.ErrInternal.WithCause(err)
		}
		kernelDir = wd
	}
	kernelDir = paths.Expand(kernelDir)
	if abs, err := filepath.Abs(kernelDir); err == nil {
		kernelDir = abs
	}

	if !paths.IsFile(filepath.Join(kernelDir, "Makefile")) {
		return nil, errors.ErrNotABuildRoot.WithMessagef("no Makefile in %s", kernelDir)
	}

	// build.env sits between the config file and built-in defaults.
	applyBuildEnvDefaults(kernelDir)

	var preset Preset
	presetName, _ := fs.GetString("preset")
	if presetName != "" {
		p, err := lookupPreset(kernelDir, presetName)
		if err != nil {
			return nil, err
		}
		preset = *p
		log.Debug("Applied device preset", "preset", presetName)
	}

	// pick resolves one string setting: explicit flag, then preset,
	// then viper (env, config file, build.env), then the fallback.
	pick := func(flagName, presetVal, viperKey, fallback string) string {
		if fs.Changed(flagName) {
			v, _ := fs.GetString(flagName)
			return v
		}
		if presetVal != "" {
			return presetVal
		}
		if viperKey != "" {
			if v := viper.GetString(viperKey); v != "" {
				return v
			}
		}
		return fallback
	}

	defconfigs := splitDefconfigs(pick("defconfig", strings.Join(preset.Defconfigs, ","), "", ""))
	if len(defconfigs) == 0 {
		return nil, errors.ErrNoDefconfigSupplied.WithMessage(
			"no defconfig supplied: pass --defconfig <name>[,<fragment>...]")
	}

	arch := pick("arch", preset.Arch, "build.arch", "arm64")

	compiler := CompilerGCC
	if clang, _ := fs.GetBool("clang"); clang || preset.Clang {
		compiler = CompilerClang
	}

	archiveFormat, err := parseArchiveFormat(pick("archive", preset.Archive, "archive.format", ""))
	if err != nil {
		return nil, err
	}

	jobs := viper.GetInt("build.jobs")
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	cfg := &BuildConfig{
		Arch:              arch,
		Compiler:          compiler,
		Defconfigs:        defconfigs,
		KernelDir:         kernelDir,
		OutputDir:         filepath.Join(kernelDir, "out"),
		ToolchainRoot:     paths.Expand(viper.GetString("toolchain.root")),
		GCCToolchainDir:   pick("gcc-toolchain", preset.GCCToolchain, "toolchain.gcc", arch),
		GCC32ToolchainDir: pick("gcc-32-bit-toolchain", preset.GCC32Toolchain, "toolchain.gcc_32", defaultGCC32Folder),
		ClangToolchainDir: pick("clang-toolchain", preset.ClangToolchain, "toolchain.clang", defaultClangFolder),
		Verbosity:         f.Verbosity,
		WarnPolicy:        f.WarnPolicy,
		DisplayVersion:    pick("version-display", preset.DisplayVersion, "build.display_version", ""),
		Preset:            presetName,
		Debug:             fs.Lookup("debug").Value.String() == "true",
		Jobs:              jobs,
		ShowOnlyResult:    f.Verbosity == VerbositySilent,
		ArchiveFormat:     archiveFormat,
		HistoryEnabled:    viper.GetBool("history.enabled"),
		HistoryPath:       paths.Expand(viper.GetString("history.path")),
		BuildUser:         viper.GetString("build.user"),
		BuildHost:         viper.GetString("build.host"),
	}

	return cfg, nil
}

// splitDefconfigs splits the comma-separated fragment list, preserving
// order and dropping empty entries.
func splitDefconfigs(list string) []string {
	if list == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseArchiveFormat(v string) (ArchiveFormat, error) {
	switch v {
	case "", string(ArchiveNone):
		return ArchiveNone, nil
	case string(ArchiveTarXz):
		return ArchiveTarXz, nil
	default:
		return ArchiveNone, errors.ErrInvalidConfigValue.WithMessagef(
			"unsupported archive format %q (expected %s)", v, ArchiveTarXz)
	}
}
