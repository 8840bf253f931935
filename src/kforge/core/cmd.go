// Package core provides the kforge command tree and the build
// orchestration glue.
package core

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kforge/kforge/src/common/cli"
	"github.com/kforge/kforge/src/common/errors"
	"github.com/kforge/kforge/src/common/logs"
	"github.com/kforge/kforge/src/common/version"
	"github.com/kforge/kforge/src/kforge/build"
	"github.com/kforge/kforge/src/kforge/config"
	"github.com/kforge/kforge/src/kforge/history"
	"github.com/kforge/kforge/src/kforge/output"
	"github.com/kforge/kforge/src/kforge/toolchain"
)

var (
	// VersionInfo holds version information - set at build time via ldflags
	VersionInfo = version.New()

	// Global logger instance
	log *logs.Logger

	// Configuration file path
	cfgFile string

	// Parse targets for the stateful build flags
	buildFlags *config.Flags
)

// Linker variables - set via ldflags at build time
var (
	Version        = "dev"
	ReleaseName    = "Anvil"
	ReleaseVersion = "0.0.0"
	BuildDate      = "unknown"
	GitCommit      = "unknown"
)

// rootCmd is the base command; invoked bare it runs a build against
// the current directory.
var rootCmd = &cobra.Command{
	Use:   "kforge",
	Short: "Android kernel build orchestrator",
	Long: `kforge drives an Android kernel tree through a clean, reproducible
build: toolchain discovery, kernel configuration, compilation,
artifact probing and optional flashable packaging.

Run it from inside a kernel tree, or point it at one with --folder.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Stray flags from wrapper scripts are tolerated rather than fatal.
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return initConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd)
	},
}

// Execute runs the root command and maps typed errors to their exit
// codes.
func Execute() {
	VersionInfo.Version = Version
	VersionInfo.ReleaseName = ReleaseName
	VersionInfo.ReleaseVersion = ReleaseVersion
	VersionInfo.BuildDate = BuildDate
	VersionInfo.GitCommit = GitCommit

	if err := rootCmd.Execute(); err != nil {
		output.PrintError(err)
		os.Exit(errors.GetExitCode(err))
	}
}

func init() {
	cli.RegisterConfigFlag(rootCmd, &cfgFile, "~/.kforge/kforge.yaml")
	cli.RegisterLogFlags(rootCmd)

	// Build flags live on the persistent set so `kforge` and
	// `kforge build` share one flag surface and parse state.
	buildFlags = config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.SetFlagErrorFunc(config.FlagErrorFunc)

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(toolchainsCmd)

	_ = rootCmd.RegisterFlagCompletionFunc("arch", completionArches)
	_ = rootCmd.RegisterFlagCompletionFunc("archive", completionArchiveFormats)
	_ = rootCmd.RegisterFlagCompletionFunc("preset", completionPresetNames)
	_ = versionCmd.RegisterFlagCompletionFunc("output", completionOutputFormat)
	_ = historyCmd.RegisterFlagCompletionFunc("output", completionOutputFormat)
	_ = toolchainsCmd.RegisterFlagCompletionFunc("output", completionOutputFormat)
}

// initConfig reads in config file and ENV variables if set
func initConfig() error {
	opts := cli.DefaultConfigOptions("kforge", "KFORGE")
	opts.ConfigFile = cfgFile

	if err := cli.InitConfig(opts); err != nil {
		return err
	}

	log = cli.InitLogger("kforge")
	config.SetLogger(log)
	toolchain.SetLogger(log)
	build.SetLogger(log)
	history.SetLogger(log)

	return nil
}
