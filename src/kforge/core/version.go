package core

import (
	"fmt"
	"os"

	"github.com/kforge/kforge/src/kforge/output"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().StringP("output", "o", "text", "Output format (text, json)")
}

func runVersion(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")
	if format == "json" {
		return output.PrintJSON(os.Stdout, VersionInfo.Map())
	}
	fmt.Println(VersionInfo.Full())
	return nil
}
