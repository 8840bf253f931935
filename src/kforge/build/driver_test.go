package build

import (
	"bytes"
	"context"
	goerrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/kforge/kforge/src/common/errors"
	"github.com/kforge/kforge/src/kforge/config"
)

// fakeRunner records every builder invocation and lets tests script
// the outcome.
type fakeRunner struct {
	calls []RunOpts
	onRun func(opts RunOpts) error
}

func (f *fakeRunner) Run(ctx context.Context, opts RunOpts) error {
	f.calls = append(f.calls, opts)
	if f.onRun != nil {
		return f.onRun(opts)
	}
	return nil
}

func hasArg(opts RunOpts, want string) bool {
	for _, arg := range opts.Args {
		if arg == want {
			return true
		}
	}
	return false
}

func newDriverConfig(kernelDir string) *config.BuildConfig {
	return &config.BuildConfig{
		Arch:       "arm64",
		Compiler:   config.CompilerGCC,
		Defconfigs: []string{"vendor_defconfig"},
		KernelDir:  kernelDir,
		OutputDir:  filepath.Join(kernelDir, "out"),
		Verbosity:  config.VerbosityFull,
		Jobs:       4,
	}
}

func gccToolchain() Toolchain {
	return Toolchain{MakeArch: "arm64", CrossCompile: "aarch64-linux-android-"}
}

// writeConfigOnDefconfig simulates the builder generating out/.config.
func writeConfigOnDefconfig(t *testing.T, cfg *config.BuildConfig, content string) func(RunOpts) error {
	t.Helper()
	return func(opts RunOpts) error {
		if hasArg(opts, cfg.Defconfigs[0]) {
			path := filepath.Join(cfg.OutputDir, ".config")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("failed to write generated config: %v", err)
			}
		}
		return nil
	}
}

func TestDriverStateTrace(t *testing.T) {
	cfg := newDriverConfig(t.TempDir())
	runner := &fakeRunner{}
	d := NewDriver(cfg, gccToolchain(), runner, &bytes.Buffer{})

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []State{StateClean, StateConfigure, StateWarnPolicy, StatePlatformQuirk, StateCompile, StateDone}
	got := d.Trace()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if len(runner.calls) != 2 {
		t.Fatalf("expected defconfig and compile invocations, got %d", len(runner.calls))
	}
	configure := runner.calls[0]
	if !hasArg(configure, "vendor_defconfig") || !hasArg(configure, "ARCH=arm64") || !hasArg(configure, "O="+cfg.OutputDir) {
		t.Errorf("unexpected configure args: %v", configure.Args)
	}
	compile := runner.calls[1]
	if !hasArg(compile, "-j4") {
		t.Errorf("expected parallel compile, got %v", compile.Args)
	}
	if hasArg(compile, "V=1") {
		t.Errorf("verbose invocation without --debug: %v", compile.Args)
	}
	if compile.Extra["CROSS_COMPILE"] != "aarch64-linux-android-" {
		t.Errorf("expected cross prefix in the environment, got %v", compile.Extra)
	}
}

func TestDriverCleanResetsOutput(t *testing.T) {
	kernelDir := t.TempDir()
	cfg := newDriverConfig(kernelDir)
	stale := filepath.Join(cfg.OutputDir, "stale.o")
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		t.Fatalf("failed to create out dir: %v", err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("failed to write stale file: %v", err)
	}

	d := NewDriver(cfg, gccToolchain(), &fakeRunner{}, &bytes.Buffer{})
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("expected the output directory wiped before configuring")
	}
	if _, err := os.Stat(cfg.OutputDir); err != nil {
		t.Errorf("expected a fresh output directory: %v", err)
	}
}

func TestDriverMultiFragmentConfigure(t *testing.T) {
	kernelDir := t.TempDir()
	cfg := newDriverConfig(kernelDir)
	cfg.Defconfigs = []string{"base.config", "extra.config"}
	for _, name := range cfg.Defconfigs {
		if err := os.WriteFile(filepath.Join(kernelDir, name), []byte("CONFIG_"+name[:4]+"=y\n"), 0o644); err != nil {
			t.Fatalf("failed to write fragment: %v", err)
		}
	}

	runner := &fakeRunner{}
	d := NewDriver(cfg, gccToolchain(), runner, &bytes.Buffer{})
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, ".config"))
	if err != nil {
		t.Fatalf("expected a merged config: %v", err)
	}
	if !bytes.Contains(data, []byte("CONFIG_base=y")) || !bytes.Contains(data, []byte("CONFIG_extr=y")) {
		t.Errorf("expected both fragments merged, got %q", data)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("expected olddefconfig and compile, got %d calls", len(runner.calls))
	}
	if !hasArg(runner.calls[0], "olddefconfig") {
		t.Errorf("expected olddefconfig to resolve the merge, got %v", runner.calls[0].Args)
	}
}

func TestDriverWarnPolicyForceError(t *testing.T) {
	cfg := newDriverConfig(t.TempDir())
	cfg.WarnPolicy = config.WarnForceError

	runner := &fakeRunner{}
	runner.onRun = writeConfigOnDefconfig(t, cfg, "# CONFIG_WERROR is not set\nCONFIG_FOO=y\n")
	d := NewDriver(cfg, gccToolchain(), runner, &bytes.Buffer{})
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	options, err := ParseConfig(filepath.Join(cfg.OutputDir, ".config"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if options["CONFIG_WERROR"] != "y" || options["CONFIG_CC_WERROR"] != "y" {
		t.Errorf("expected both Werror symbols forced on, got %v", options)
	}

	if len(runner.calls) != 3 {
		t.Fatalf("expected defconfig, olddefconfig, compile; got %d calls", len(runner.calls))
	}
	if !hasArg(runner.calls[1], "olddefconfig") {
		t.Errorf("expected an olddefconfig pass after editing, got %v", runner.calls[1].Args)
	}
}

func TestDriverWarnPolicyForceNoError(t *testing.T) {
	cfg := newDriverConfig(t.TempDir())
	cfg.WarnPolicy = config.WarnForceNoError

	runner := &fakeRunner{}
	runner.onRun = writeConfigOnDefconfig(t, cfg, "CONFIG_WERROR=y\nCONFIG_CC_WERROR=y\n")
	d := NewDriver(cfg, gccToolchain(), runner, &bytes.Buffer{})
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	options, err := ParseConfig(filepath.Join(cfg.OutputDir, ".config"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if options["CONFIG_WERROR"] != "n" || options["CONFIG_CC_WERROR"] != "n" {
		t.Errorf("expected both Werror symbols forced off, got %v", options)
	}
}

func TestDriverPlatformQuirk(t *testing.T) {
	kernelDir := filepath.Join(t.TempDir(), "msm-sm8150")
	if err := os.MkdirAll(kernelDir, 0o755); err != nil {
		t.Fatalf("failed to create kernel dir: %v", err)
	}
	cfg := newDriverConfig(kernelDir)

	runner := &fakeRunner{}
	runner.onRun = writeConfigOnDefconfig(t, cfg, "CONFIG_FOO=y\n")
	d := NewDriver(cfg, gccToolchain(), runner, &bytes.Buffer{})
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	options, err := ParseConfig(filepath.Join(cfg.OutputDir, ".config"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if options["CONFIG_BUILD_ARM64_DT_OVERLAY"] != "y" {
		t.Errorf("expected the DT overlay symbol enabled, got %v", options)
	}

	compile := runner.calls[len(runner.calls)-1]
	if !hasArg(compile, "DTC_EXT=dtc") {
		t.Errorf("expected the external dtc on the compile invocation, got %v", compile.Args)
	}
}

func TestDriverNoQuirkOutsideMatchingTrees(t *testing.T) {
	cfg := newDriverConfig(t.TempDir())
	runner := &fakeRunner{}
	d := NewDriver(cfg, gccToolchain(), runner, &bytes.Buffer{})
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	compile := runner.calls[len(runner.calls)-1]
	if hasArg(compile, "DTC_EXT=dtc") {
		t.Errorf("expected no dtc override for ordinary trees, got %v", compile.Args)
	}
}

func TestDriverDebugVerboseInvocation(t *testing.T) {
	cfg := newDriverConfig(t.TempDir())
	cfg.Debug = true

	runner := &fakeRunner{}
	d := NewDriver(cfg, gccToolchain(), runner, &bytes.Buffer{})
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	compile := runner.calls[len(runner.calls)-1]
	if !hasArg(compile, "V=1") {
		t.Errorf("expected a verbose builder invocation, got %v", compile.Args)
	}
}

func TestDriverCompileFailureTolerated(t *testing.T) {
	cfg := newDriverConfig(t.TempDir())
	runner := &fakeRunner{}
	runner.onRun = func(opts RunOpts) error {
		if hasArg(opts, "-j4") {
			return fmt.Errorf("make -j4: exit status 2")
		}
		return nil
	}

	d := NewDriver(cfg, gccToolchain(), runner, &bytes.Buffer{})
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("a failing compile must not abort the pipeline: %v", err)
	}

	trace := d.Trace()
	if trace[len(trace)-1] != StateDone {
		t.Errorf("expected the pipeline to finish, trace %v", trace)
	}
}

func TestDriverBuilderUnavailableIsFatal(t *testing.T) {
	cfg := newDriverConfig(t.TempDir())
	runner := &fakeRunner{}
	runner.onRun = func(RunOpts) error {
		return errors.ErrBuilderUnavailable.WithCause(fmt.Errorf("exec: \"make\": executable file not found"))
	}

	d := NewDriver(cfg, gccToolchain(), runner, &bytes.Buffer{})
	err := d.Run(context.Background())
	if !goerrors.Is(err, errors.ErrBuilderUnavailable) {
		t.Fatalf("expected ErrBuilderUnavailable, got %v", err)
	}

	trace := d.Trace()
	if trace[len(trace)-1] == StateDone {
		t.Errorf("pipeline must not report done, trace %v", trace)
	}
}

func TestDriverClangEnvironment(t *testing.T) {
	cfg := newDriverConfig(t.TempDir())
	cfg.Compiler = config.CompilerClang
	cfg.BuildUser = "forge"
	cfg.BuildHost = "factory"
	tc := Toolchain{
		MakeArch:       "arm64",
		CrossCompile:   "aarch64-linux-android-",
		CrossCompile32: "arm-linux-androideabi-",
		ClangTriple:    "aarch64-linux-gnu-",
	}

	runner := &fakeRunner{}
	d := NewDriver(cfg, tc, runner, &bytes.Buffer{})
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	extra := runner.calls[len(runner.calls)-1].Extra
	want := map[string]string{
		"CC":                  "clang",
		"CLANG_TRIPLE":        "aarch64-linux-gnu-",
		"CROSS_COMPILE":       "aarch64-linux-android-",
		"CROSS_COMPILE_ARM32": "arm-linux-androideabi-",
		"KBUILD_BUILD_USER":   "forge",
		"KBUILD_BUILD_HOST":   "factory",
	}
	for k, v := range want {
		if extra[k] != v {
			t.Errorf("expected %s=%s in the build environment, got %q", k, v, extra[k])
		}
	}
}

func TestDriverFiltersBuilderOutput(t *testing.T) {
	cfg := newDriverConfig(t.TempDir())
	cfg.Verbosity = config.VerbosityErrors

	runner := &fakeRunner{}
	runner.onRun = func(opts RunOpts) error {
		fmt.Fprint(opts.Stdout, "  CC      kernel/fork.o\n")
		fmt.Fprint(opts.Stderr, "fs/dax.c:1:1: error: boom\n")
		return nil
	}

	var out bytes.Buffer
	d := NewDriver(cfg, gccToolchain(), runner, &out)
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	if !bytes.Contains(out.Bytes(), []byte("error: boom")) {
		t.Errorf("expected the error line to pass, got %q", got)
	}
	if bytes.Contains(out.Bytes(), []byte("CC")) {
		t.Errorf("expected progress lines filtered, got %q", got)
	}
}
