package core

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kforge/kforge/src/common/paths"
	"github.com/kforge/kforge/src/kforge/output"
	"github.com/kforge/kforge/src/kforge/toolchain"
)

var toolchainsCmd = &cobra.Command{
	Use:   "toolchains",
	Short: "List installed toolchains",
	Long: `Scans the toolchain root for installed toolchains and shows the
resolved cross prefix of each, newest version first. Folder names
listed here are valid --gcc-toolchain and --clang-toolchain values.`,
	RunE: runToolchains,
}

func init() {
	toolchainsCmd.Flags().StringP("output", "o", "table", "Output format: table, json")
}

func runToolchains(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")

	root := paths.Expand(viper.GetString("toolchain.root"))
	entries, err := toolchain.ScanInventory(root)
	if err != nil {
		return err
	}

	if format == "json" {
		return output.PrintJSON(os.Stdout, entries)
	}

	headers := []string{"NAME", "VERSION", "PREFIX"}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		version := ""
		if entry.Version != nil {
			version = entry.Version.String()
		}
		rows = append(rows, []string{entry.Name, version, entry.Prefix})
	}
	output.PrintTable(os.Stdout, headers, rows)
	return nil
}
