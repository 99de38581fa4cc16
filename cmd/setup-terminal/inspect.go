// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/marjacob/setup-terminal/internal/setup"
	"github.com/marjacob/setup-terminal/pkg/types"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

// newInspectCommand creates the `setup-terminal inspect` command.
func newInspectCommand(app *App, global *globalOptions) *cobra.Command {
	var src sourceOptions

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the packages a bundle would build",
		Long: `Acquire a bundle the same way the root command does and list its
tag, version, channel and installable packages without extracting or
compiling anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, app, *global, src)
		},
	}
	addSourceFlags(inspectCmd, &src)

	return inspectCmd
}

func runInspect(cmd *cobra.Command, app *App, global globalOptions, src sourceOptions) error {
	cfg, err := loadConfig(cmd, app, global)
	if err != nil {
		return report(cmd, actionable(err, "load configuration", global.configFile), types.ExitBundleFailure, global.verbose)
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	bundle, err := acquireBundle(cmd.Context(), app, cfg, src, logger)
	if err != nil {
		return report(cmd, err, types.ExitBundleFailure, cfg.Verbose)
	}
	defer func() { _ = bundle.Close() }()

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, describeBundle(bundle.Name, bundle.Tag, bundle.Version, bundle.Preview))

	t := newTable("CPU", "PACKAGE", "INSTALLER", "SIZE")
	count, unreadable := 0, 0
	for pkg, err := range bundle.Packages() {
		if err != nil {
			logger.Warn("unreadable package", "err", err)
			unreadable++
			continue
		}
		t.Row(string(pkg.CPU), pkg.Name, setup.BuildName(pkg), units.HumanSize(float64(pkg.Size())))
		_ = pkg.Close()
		count++
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d installable package(s)\n", count)

	// Metadata, signatures and packages for other architectures.
	skipped := len(bundle.Entries()) - count - unreadable
	fmt.Fprintf(w, "%d other bundle entr%s skipped\n", skipped, pluralY(skipped))
	if unreadable > 0 {
		fmt.Fprintln(w, WarningStyle.Render(fmt.Sprintf("%d unreadable package(s)", unreadable)))
	}
	return nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
