package core

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kforge/kforge/src/common/paths"
	"github.com/kforge/kforge/src/kforge/history"
	"github.com/kforge/kforge/src/kforge/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent builds",
	Long:  `Lists the most recent builds recorded in the local history ledger.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries to list")
	historyCmd.Flags().StringP("output", "o", "table", "Output format: table, json")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("output")

	path := paths.Expand(viper.GetString("history.path"))
	ledger, err := history.Open(path)
	if err != nil {
		return err
	}
	defer ledger.Close()

	records, err := ledger.List(limit)
	if err != nil {
		return err
	}

	if format == "json" {
		return output.PrintJSON(os.Stdout, records)
	}

	headers := []string{"WHEN", "ARCH", "COMPILER", "DEFCONFIG", "RELEASE", "STATUS", "TIME"}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		elapsed := (time.Duration(rec.DurationMs) * time.Millisecond).Round(time.Second)
		defconfig := ""
		if len(rec.Defconfigs) > 0 {
			defconfig = rec.Defconfigs[0]
			if len(rec.Defconfigs) > 1 {
				defconfig = fmt.Sprintf("%s (+%d)", defconfig, len(rec.Defconfigs)-1)
			}
		}
		rows = append(rows, []string{
			rec.StartedAt.Local().Format("2006-01-02 15:04"),
			rec.Arch,
			rec.Compiler,
			defconfig,
			rec.KernelRelease,
			rec.Status,
			elapsed.String(),
		})
	}
	output.PrintTable(os.Stdout, headers, rows)
	return nil
}
