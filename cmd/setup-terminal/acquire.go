// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/marjacob/setup-terminal/internal/config"
	"github.com/marjacob/setup-terminal/internal/release"
	"github.com/marjacob/setup-terminal/internal/source"
	"github.com/marjacob/setup-terminal/pkg/msix"

	"github.com/charmbracelet/log"
)

// tokenEnv names the environment variable holding a GitHub token.
const tokenEnv = "GITHUB_TOKEN"

// releaseClient builds the GitHub client for the configured repository.
func releaseClient(app *App, cfg *config.Config, src sourceOptions) source.ReleaseClient {
	opts := []release.ClientOption{
		release.WithRepo(cfg.Repository.Owner, cfg.Repository.Name),
		release.WithUserAgent("setup-terminal/" + Version),
	}
	if src.apiURL != "" {
		opts = append(opts, release.WithBaseURL(src.apiURL))
	}
	if token := app.getenv(tokenEnv); token != "" {
		opts = append(opts, release.WithToken(token))
	}
	return app.Releases(opts...)
}

// acquireBundle opens the bundle selected by src. The caller owns the
// returned bundle and must close it.
func acquireBundle(ctx context.Context, app *App, cfg *config.Config, src sourceOptions, logger *log.Logger) (*msix.Bundle, error) {
	var (
		bundle   *msix.Bundle
		err      error
		resource string
	)

	switch {
	case src.bundle != "":
		resource = src.bundle
		logger.Debug("opening bundle", "path", src.bundle)
		bundle, err = source.FromFile(src.bundle)
	case src.releaseFile != "":
		resource = src.releaseFile
		logger.Debug("reading release document", "path", src.releaseFile)
		bundle, err = source.FromReleaseFile(ctx, releaseClient(app, cfg, src), src.releaseFile)
	case src.tag != "":
		resource = cfg.Repository.String() + "@" + src.tag
		logger.Info("fetching release", "repository", cfg.Repository, "tag", src.tag)
		bundle, err = source.FromTag(ctx, releaseClient(app, cfg, src), src.tag)
	case src.preview:
		resource = cfg.Repository.String() + "@preview"
		logger.Info("fetching newest preview release", "repository", cfg.Repository)
		bundle, err = source.FromNewestPreview(ctx, releaseClient(app, cfg, src))
	default:
		resource = cfg.Repository.String() + "@latest"
		logger.Info("fetching latest release", "repository", cfg.Repository)
		bundle, err = source.FromLatest(ctx, releaseClient(app, cfg, src))
	}
	if err != nil {
		return nil, actionable(err, "acquire bundle", resource)
	}

	logger.Info("bundle ready",
		"name", bundle.Name,
		"tag", bundle.Tag,
		"version", bundle.Version,
		"preview", bundle.Preview)
	return bundle, nil
}
