package core

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kforge/kforge/src/kforge/config"
	"github.com/kforge/kforge/src/kforge/toolchain"
)

// completionArches provides completion for the --arch flag
func completionArches(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return toolchain.Arches(), cobra.ShellCompDirectiveNoFileComp
}

// completionArchiveFormats provides completion for the --archive flag
func completionArchiveFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"none", "tarxz"}, cobra.ShellCompDirectiveNoFileComp
}

// completionOutputFormat provides completion for --output flags
func completionOutputFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
}

// completionPresetNames completes --preset from the preset file of the
// kernel tree named by --folder, defaulting to the working directory.
func completionPresetNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	dir, _ := cmd.Flags().GetString("folder")
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		dir = cwd
	}

	presets, err := config.LoadPresets(dir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	suggestions := make([]string, 0, len(presets))
	for name, p := range presets {
		if p.Arch != "" {
			suggestions = append(suggestions, name+"\t"+p.Arch)
			continue
		}
		suggestions = append(suggestions, name)
	}
	return suggestions, cobra.ShellCompDirectiveNoFileComp
}
