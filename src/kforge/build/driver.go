package build

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kforge/kforge/src/common/errors"
	"github.com/kforge/kforge/src/common/logs"
	"github.com/kforge/kforge/src/kforge/config"
)

var log = logs.NewDefault()

// SetLogger replaces the package logger.
func SetLogger(logger *logs.Logger) {
	log = logger
}

// platformQuirkToken marks kernel trees that ship device-tree overlays
// and need an external dtc to compile them.
const platformQuirkToken = "msm"

// Toolchain carries the resolved cross-toolchain values the driver
// injects into builder invocations.
type Toolchain struct {
	MakeArch       string
	CrossCompile   string
	CrossCompile32 string
	ClangTriple    string
}

// Driver walks the build pipeline over a kernel tree. Each state runs
// at most once, in declaration order, and the visited states are
// recorded for inspection.
type Driver struct {
	cfg    *config.BuildConfig
	tc     Toolchain
	runner Runner
	out    io.Writer

	extra  map[string]string
	dtcExt bool
	trace  []State
}

// NewDriver assembles a driver. out receives the filtered builder
// output; pass os.Stdout for interactive runs.
func NewDriver(cfg *config.BuildConfig, tc Toolchain, runner Runner, out io.Writer) *Driver {
	d := &Driver{cfg: cfg, tc: tc, runner: runner, out: out}

	d.extra = make(map[string]string)
	if tc.CrossCompile != "" {
		d.extra["CROSS_COMPILE"] = tc.CrossCompile
	}
	if cfg.Compiler == config.CompilerClang {
		d.extra["CC"] = "clang"
		if tc.ClangTriple != "" {
			d.extra["CLANG_TRIPLE"] = tc.ClangTriple
		}
		if tc.CrossCompile32 != "" {
			d.extra["CROSS_COMPILE_ARM32"] = tc.CrossCompile32
		}
	}
	if cfg.BuildUser != "" {
		d.extra["KBUILD_BUILD_USER"] = cfg.BuildUser
	}
	if cfg.BuildHost != "" {
		d.extra["KBUILD_BUILD_HOST"] = cfg.BuildHost
	}
	return d
}

// Trace returns the states visited so far, in order.
func (d *Driver) Trace() []State {
	return d.trace
}

// Run executes the pipeline. Builder exit failures during configure
// and compile are logged and tolerated; the artifact probe afterwards
// delivers the verdict. Everything else is fatal.
func (d *Driver) Run(ctx context.Context) error {
	steps := []struct {
		state State
		fn    func(context.Context) error
	}{
		{StateClean, d.clean},
		{StateConfigure, d.configure},
		{StateWarnPolicy, d.adjustWarnPolicy},
		{StatePlatformQuirk, d.applyPlatformQuirk},
		{StateCompile, d.compile},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.trace = append(d.trace, step.state)
		log.Debug("Entering build state", "state", step.state)
		if err := step.fn(ctx); err != nil {
			return err
		}
	}

	d.trace = append(d.trace, StateDone)
	return nil
}

func (d *Driver) clean(context.Context) error {
	if err := os.RemoveAll(d.cfg.OutputDir); err != nil {
		return fmt.Errorf("cannot reset output directory %s: %w", d.cfg.OutputDir, err)
	}
	if err := os.MkdirAll(d.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", d.cfg.OutputDir, err)
	}
	return nil
}

func (d *Driver) configure(ctx context.Context) error {
	if len(d.cfg.Defconfigs) == 1 {
		if err := d.runMake(ctx, d.cfg.Defconfigs[0]); err != nil {
			return d.tolerate("configure", err)
		}
		return nil
	}

	// Several fragments cannot be expressed as one make target, so
	// they are concatenated and resolved with olddefconfig instead.
	var located []string
	for _, name := range d.cfg.Defconfigs {
		path, err := LocateFragment(d.cfg.KernelDir, d.tc.MakeArch, name)
		if err != nil {
			log.Error("Skipping defconfig fragment", "error", err)
			continue
		}
		located = append(located, path)
	}
	if err := MergeFragments(d.configPath(), located); err != nil {
		return d.tolerate("configure", err)
	}
	if err := d.runMake(ctx, "olddefconfig"); err != nil {
		return d.tolerate("configure", err)
	}
	return nil
}

func (d *Driver) adjustWarnPolicy(ctx context.Context) error {
	var value string
	switch d.cfg.WarnPolicy {
	case config.WarnForceError:
		value = "y"
	case config.WarnForceNoError:
		value = "n"
	default:
		return nil
	}

	options := map[string]string{
		"CONFIG_WERROR":    value,
		"CONFIG_CC_WERROR": value,
	}
	if err := ApplyOptions(d.configPath(), options); err != nil {
		return d.tolerate("warn-policy", err)
	}
	if err := d.runMake(ctx, "olddefconfig"); err != nil {
		return d.tolerate("warn-policy", err)
	}
	return nil
}

func (d *Driver) applyPlatformQuirk(ctx context.Context) error {
	if !strings.Contains(d.cfg.KernelDir, platformQuirkToken) {
		return nil
	}

	log.Debug("Arming device-tree overlay quirk", "tree", d.cfg.KernelDir)
	options := map[string]string{"CONFIG_BUILD_ARM64_DT_OVERLAY": "y"}
	if err := ApplyOptions(d.configPath(), options); err != nil {
		return d.tolerate("platform-quirk", err)
	}
	if err := d.runMake(ctx, "olddefconfig"); err != nil {
		return d.tolerate("platform-quirk", err)
	}
	d.dtcExt = true
	return nil
}

func (d *Driver) compile(ctx context.Context) error {
	args := []string{"-j" + strconv.Itoa(d.cfg.Jobs)}
	if d.cfg.Debug {
		args = append(args, "V=1")
	}
	if d.dtcExt {
		args = append(args, "DTC_EXT=dtc")
	}

	log.Debug("Compiling", "jobs", d.cfg.Jobs, "compiler", d.cfg.Compiler)
	if err := d.runMake(ctx, args...); err != nil {
		return d.tolerate("compile", err)
	}
	return nil
}

// runMake invokes the builder with the common arguments plus args,
// routing both output streams through a freshly compiled filter.
func (d *Driver) runMake(ctx context.Context, args ...string) error {
	full := append([]string{"O=" + d.cfg.OutputDir, "ARCH=" + d.tc.MakeArch}, args...)

	fw := NewFilter(d.cfg.Verbosity, d.dtcExt).Wrap(d.out)
	err := d.runner.Run(ctx, RunOpts{
		Args:   full,
		Extra:  d.extra,
		Stdout: fw,
		Stderr: fw,
	})
	if closeErr := fw.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// tolerate downgrades a builder exit failure to a logged error so the
// artifact probe decides the outcome. A builder that could not even be
// spawned stays fatal.
func (d *Driver) tolerate(step string, err error) error {
	if goerrors.Is(err, errors.ErrBuilderUnavailable) {
		return err
	}
	log.Error("Build step failed", "step", step, "error", err)
	return nil
}

func (d *Driver) configPath() string {
	return filepath.Join(d.cfg.OutputDir, ".config")
}
