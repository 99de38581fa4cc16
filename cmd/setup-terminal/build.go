// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/marjacob/setup-terminal/internal/config"
	"github.com/marjacob/setup-terminal/internal/issue"
	"github.com/marjacob/setup-terminal/internal/setup"
	"github.com/marjacob/setup-terminal/pkg/types"

	"github.com/spf13/cobra"
)

// runBuild acquires a bundle and builds one installer per package.
func runBuild(cmd *cobra.Command, app *App, global globalOptions, src sourceOptions) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, app, global)
	if err != nil {
		return report(cmd, actionable(err, "load configuration", global.configFile), types.ExitBundleFailure, global.verbose)
	}
	verbose := cfg.Verbose
	logger := newLogger(cmd.ErrOrStderr(), verbose)

	tmpl, err := loadTemplate(cfg)
	if err != nil {
		return report(cmd, err, types.ExitBundleFailure, verbose)
	}

	if _, err := os.Stat(cfg.License.String()); err != nil {
		return report(cmd, issue.NewErrorContext().
			WithOperation("read license").
			WithResource(cfg.License.String()).
			WithIssue(issue.LicenseNotFoundId).
			WithSuggestion("Pass the upstream license with --license").
			Wrap(err).
			BuildError(), types.ExitBundleFailure, verbose)
	}

	if err := os.MkdirAll(cfg.OutputDirectory.String(), 0o755); err != nil {
		return report(cmd, actionable(err, "create output directory", cfg.OutputDirectory.String()), types.ExitBundleFailure, verbose)
	}

	bundle, err := acquireBundle(ctx, app, cfg, src, logger)
	if err != nil {
		return report(cmd, err, types.ExitBundleFailure, verbose)
	}
	defer func() { _ = bundle.Close() }()

	compiler := app.Compilers(cfg.Compiler.String(),
		setup.WithCompilerArgs(cfg.CompilerArgs...),
		setup.WithCompilerOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		setup.WithCompilerLogger(logger))
	generator := setup.NewGenerator(tmpl, compiler, cfg.OutputDirectory.String(),
		setup.WithGeneratorLogger(logger))
	orchestrator := setup.NewOrchestrator(generator, cfg.License.String(),
		setup.WithProduct(product(cfg)),
		setup.WithOrchestratorLogger(logger))

	summary, err := orchestrator.Process(ctx, bundle)
	if err != nil {
		if len(summary.Packages) > 0 {
			renderSummary(cmd.OutOrStdout(), summary)
		}
		return report(cmd, actionable(err, "build installers", bundle.Name), types.ExitBundleFailure, verbose)
	}

	renderSummary(cmd.OutOrStdout(), summary)

	code := summary.ExitCode()
	if code.IsSuccess() {
		return nil
	}

	cmd.SilenceUsage = true
	renderGuide(cmd.ErrOrStderr(), issue.Get(packageFailureIssue(summary)))
	return &ExitError{Code: code}
}

// loadTemplate returns the configured template or the built-in one.
func loadTemplate(cfg *config.Config) (*setup.Template, error) {
	var (
		tmpl *setup.Template
		err  error
	)
	if cfg.Template.IsSet() {
		tmpl, err = setup.LoadTemplate(cfg.Template.String())
	} else {
		tmpl, err = setup.DefaultTemplate()
	}
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load template").
			WithResource(cfg.Template.String()).
			WithIssue(issue.TemplateErrorId).
			Wrap(err).
			BuildError()
	}
	return tmpl, nil
}

// product returns the installer metadata with configured overrides applied.
func product(cfg *config.Config) setup.Product {
	p := setup.DefaultProduct()
	if cfg.UpdatesURL != "" {
		p.UpdatesURL = cfg.UpdatesURL.String()
	}
	return p
}

// packageFailureIssue picks the guide for a summary with failed packages:
// a compiler that could not run at all outranks other failures.
func packageFailureIssue(s setup.Summary) issue.Id {
	id := issue.CompilerFailedId
	for _, p := range s.Packages {
		err := p.Failure()
		if err == nil {
			continue
		}
		if errors.Is(err, setup.ErrCompilerInvocation) {
			return issue.CompilerNotFoundId
		}
		if other := issueFor(err); other != 0 {
			id = other
		}
	}
	return id
}

// describeChannel names the release channel of a bundle.
func describeChannel(preview bool) string {
	if preview {
		return WarningStyle.Render("preview")
	}
	return SuccessStyle.Render("release")
}

// describeBundle is the one-line bundle header shared by build and inspect.
func describeBundle(name, tag, version string, preview bool) string {
	return fmt.Sprintf("%s\n%s %s  %s %s  %s %s",
		TitleStyle.Render(name),
		KeyStyle.Render("tag"), tag,
		KeyStyle.Render("version"), version,
		KeyStyle.Render("channel"), describeChannel(preview))
}
