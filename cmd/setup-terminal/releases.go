// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/marjacob/setup-terminal/internal/source"
	"github.com/marjacob/setup-terminal/pkg/types"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

// newReleasesCommand creates the `setup-terminal releases` command.
func newReleasesCommand(app *App, global *globalOptions) *cobra.Command {
	var src sourceOptions

	releasesCmd := &cobra.Command{
		Use:   "releases",
		Short: "List published releases and their bundles",
		Long: `List the published releases of the configured repository, newest
first, with the channel and size of each release's bundle. Any listed tag
can be passed to --tag.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReleases(cmd, app, *global, src)
		},
	}
	addRepositoryFlags(releasesCmd, &src)

	return releasesCmd
}

func runReleases(cmd *cobra.Command, app *App, global globalOptions, src sourceOptions) error {
	cfg, err := loadConfig(cmd, app, global)
	if err != nil {
		return report(cmd, actionable(err, "load configuration", global.configFile), types.ExitBundleFailure, global.verbose)
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	logger.Debug("listing releases", "repository", cfg.Repository)
	releases, err := releaseClient(app, cfg, src).ListReleases(cmd.Context())
	if err != nil {
		return report(cmd, actionable(err, "list releases", cfg.Repository.String()), types.ExitBundleFailure, cfg.Verbose)
	}

	t := newTable("TAG", "CHANNEL", "BUNDLE", "SIZE", "CREATED")
	for i := range releases {
		rel := &releases[i]
		channel, bundle, size := "-", SubtitleStyle.Render("(no bundle)"), "-"
		if asset, ok := source.FindBundleAsset(rel); ok {
			channel = describeChannel(source.Channel(rel) == source.ChannelPreview)
			bundle = asset.Name
			size = units.HumanSize(float64(asset.Size))
		}
		t.Row(rel.TagName, channel, bundle, size, rel.CreatedAt)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d release(s) in %s\n", len(releases), cfg.Repository)
	return nil
}
