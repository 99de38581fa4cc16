// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/marjacob/setup-terminal/internal/config"
	"github.com/marjacob/setup-terminal/pkg/types"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `setup-terminal config` command tree.
func newConfigCommand(app *App, global *globalOptions) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage setup-terminal configuration",
		Long: `Manage setup-terminal configuration.

Configuration is read from <config dir>/setup-terminal/config.cue, then
./config.cue. Environment variables prefixed with SETUP_TERMINAL_ override
file values, and flags override both.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app, *global)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(cmd, *global)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, app, *global)
			if err != nil {
				return report(cmd, actionable(err, "load configuration", global.configFile), types.ExitBundleFailure, global.verbose)
			}
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func loadOptions(global globalOptions) config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: types.FilesystemPath(global.configFile)}
}

func showConfig(cmd *cobra.Command, app *App, global globalOptions) error {
	cfg, err := loadConfig(cmd, app, global)
	if err != nil {
		return report(cmd, actionable(err, "load configuration", global.configFile), types.ExitBundleFailure, global.verbose)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	path, err := config.Resolve(loadOptions(global))
	switch {
	case err != nil || path == "":
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	default:
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render("Config file"), path)
	}
	fmt.Fprintln(w)

	template := cfg.Template.String()
	if !cfg.Template.IsSet() {
		template = SubtitleStyle.Render("(built-in)")
	}
	compilerArgs := strings.Join(cfg.CompilerArgs, " ")
	if len(cfg.CompilerArgs) == 0 {
		compilerArgs = SubtitleStyle.Render("(none)")
	}
	updates := cfg.UpdatesURL.String()
	if updates == "" {
		updates = SubtitleStyle.Render("(built-in)")
	}

	rows := [][2]string{
		{"compiler", cfg.Compiler.String()},
		{"compiler_args", compilerArgs},
		{"template", template},
		{"license", cfg.License.String()},
		{"output_directory", cfg.OutputDirectory.String()},
		{"repository.owner", cfg.Repository.Owner},
		{"repository.name", cfg.Repository.Name},
		{"updates_url", updates},
		{"verbose", fmt.Sprint(cfg.Verbose)},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s: %s\n", KeyStyle.Render(row[0]), SuccessStyle.Render(row[1]))
	}
	return nil
}

func showConfigPath(cmd *cobra.Command, global globalOptions) error {
	path, err := config.Resolve(loadOptions(global))
	if err != nil {
		return report(cmd, actionable(err, "locate configuration", global.configFile), types.ExitBundleFailure, global.verbose)
	}

	w := cmd.OutOrStdout()
	if path == "" {
		fmt.Fprintf(w, "%s %s\n",
			filepath.Join(config.ConfigDir(), config.ConfigFileName+"."+config.ConfigFileExt),
			SubtitleStyle.Render("(not created)"))
		return nil
	}
	fmt.Fprintln(w, path)
	return nil
}
