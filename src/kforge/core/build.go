package core

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kforge/kforge/src/common/errors"
	"github.com/kforge/kforge/src/kforge/archive"
	"github.com/kforge/kforge/src/kforge/build"
	"github.com/kforge/kforge/src/kforge/config"
	"github.com/kforge/kforge/src/kforge/history"
	"github.com/kforge/kforge/src/kforge/report"
	"github.com/kforge/kforge/src/kforge/toolchain"
	"github.com/kforge/kforge/src/kforge/vcs"
)

// buildCmd is an explicit spelling of the root command's default
// action.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the kernel tree",
	Long:  `Runs the full build pipeline against the kernel tree, exactly as invoking kforge with build flags does.`,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd)
	},
}

// runBuild is the end-to-end pipeline: resolve configuration and
// toolchains, drive the builder, probe for the artifact, report,
// package and record. Elapsed time runs from here through the artifact
// probe; packaging and ledger writes happen outside the clock.
func runBuild(cmd *cobra.Command) error {
	started := time.Now()

	cfg, err := config.FromCommand(cmd, buildFlags)
	if err != nil {
		return err
	}

	log.Info("Starting kernel build",
		"arch", cfg.Arch,
		"compiler", cfg.Compiler,
		"defconfigs", strings.Join(cfg.Defconfigs, ","),
		"jobs", cfg.Jobs)
	if cfg.Preset != "" {
		log.Info("Using device preset", "preset", cfg.Preset)
	}

	tc, err := toolchain.Setup(cfg)
	if err != nil {
		return err
	}

	env := build.NewEnv(os.Environ())
	env.Prepend("PATH", tc.BinDirs()...)
	env.Prepend("LD_LIBRARY_PATH", tc.ClangLibDirs...)

	makeArch := toolchain.MakeArch(cfg.Arch)
	runner := &build.MakeRunner{KernelDir: cfg.KernelDir, Env: env}
	driver := build.NewDriver(cfg, build.Toolchain{
		MakeArch:       makeArch,
		CrossCompile:   tc.CrossCompile,
		CrossCompile32: tc.CrossCompile32,
		ClangTriple:    toolchain.ClangTriple(cfg.Arch),
	}, runner, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := driver.Run(ctx); err != nil {
		return err
	}

	res := &report.Result{
		State:    build.StateDone,
		Revision: vcs.Describe(cfg.KernelDir),
	}

	imagePath, probeErr := report.FindImage(report.BootDir(cfg.OutputDir, makeArch))
	if probeErr == nil {
		res.ImagePath = imagePath
		res.KernelRelease = report.KernelRelease(cfg.OutputDir)
	} else {
		res.ExitCode = errors.GetExitCode(probeErr)
	}
	res.Duration = time.Since(started)

	if res.Success() && cfg.ArchiveFormat == config.ArchiveTarXz {
		archivePath, checksum, err := archive.Create(archive.Options{
			OutputDir:      cfg.OutputDir,
			ImagePath:      res.ImagePath,
			KernelRelease:  res.KernelRelease,
			DisplayVersion: cfg.DisplayVersion,
		})
		if err != nil {
			log.Warn("Packaging failed", "error", err)
		} else {
			res.ArchivePath = archivePath
			res.Checksum = checksum
		}
	}

	report.Render(os.Stdout, cfg.DisplayVersion, cfg.ShowOnlyResult, res)
	if res.Success() {
		report.RingBell(os.Stdout)
	}

	if cfg.HistoryEnabled {
		history.RecordBuild(cfg.HistoryPath, &history.Record{
			StartedAt:     started,
			DurationMs:    res.Duration.Milliseconds(),
			Arch:          cfg.Arch,
			Compiler:      string(cfg.Compiler),
			Defconfigs:    cfg.Defconfigs,
			KernelRelease: res.KernelRelease,
			ImagePath:     res.ImagePath,
			Revision:      res.Revision,
			Status:        history.StatusFor(res.ExitCode),
			ExitCode:      res.ExitCode,
		})
	}

	return probeErr
}
