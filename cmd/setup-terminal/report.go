// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/marjacob/setup-terminal/internal/config"
	"github.com/marjacob/setup-terminal/internal/issue"
	"github.com/marjacob/setup-terminal/internal/release"
	"github.com/marjacob/setup-terminal/internal/setup"
	"github.com/marjacob/setup-terminal/internal/source"
	"github.com/marjacob/setup-terminal/pkg/msix"
	"github.com/marjacob/setup-terminal/pkg/types"

	"github.com/spf13/cobra"
)

// guideStyle selects the glamour style for issue guides; "auto" falls back
// to plain text when the output is not a terminal.
const guideStyle = "auto"

// issueFor maps an error to the guide explaining its category.
func issueFor(err error) issue.Id {
	var rateErr *release.RateLimitError
	switch {
	case errors.As(err, &rateErr):
		return issue.RateLimitedId
	case errors.Is(err, msix.ErrGrammarMismatch):
		return issue.BundleNameInvalidId
	case errors.Is(err, source.ErrBundleNotFound):
		return issue.BundleNotFoundId
	case errors.Is(err, source.ErrIntegrityMismatch):
		return issue.IntegrityMismatchId
	case errors.Is(err, release.ErrReleaseNotFound):
		return issue.ReleaseNotFoundId
	case errors.Is(err, setup.ErrCompilerInvocation):
		return issue.CompilerNotFoundId
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId
	case errors.Is(err, fs.ErrPermission):
		return issue.PermissionDeniedId
	}
	return 0
}

// actionable wraps err with the operation that failed and the guide for its
// category, unless err already carries one.
func actionable(err error, operation, resource string) error {
	if _, ok := issue.IssueOf(err); ok {
		return err
	}
	return issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithIssue(issueFor(err)).
		Wrap(err).
		BuildError()
}

// report prints err and its guide to the command's stderr and returns the
// ExitError that ends the command with code.
func report(cmd *cobra.Command, err error, code types.ExitCode, verbose bool) error {
	cmd.SilenceUsage = true
	w := cmd.ErrOrStderr()

	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
	if i, ok := issue.IssueOf(err); ok {
		renderGuide(w, i)
	}
	return &ExitError{Code: code}
}

// renderGuide prints a rendered issue guide, or nothing if rendering fails.
func renderGuide(w io.Writer, i *issue.Issue) {
	rendered, err := i.Render(guideStyle)
	if err != nil {
		return
	}
	fmt.Fprint(w, rendered)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
