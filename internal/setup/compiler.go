// SPDX-License-Identifier: MPL-2.0

package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"

	"github.com/marjacob/setup-terminal/pkg/types"
)

// DefaultCompiler is the Inno Setup command-line compiler.
const DefaultCompiler = "ISCC.exe"

// ErrCompilerInvocation is returned when the compiler process could not be
// started or did not run to completion.
var ErrCompilerInvocation = errors.New("failed to invoke installer compiler")

type (
	// Result reports one compiler run. A process that could not be run sets
	// Error; a process that ran and failed sets a non-zero ExitCode.
	Result struct {
		ExitCode types.ExitCode
		Error    error
	}

	// Compiler builds an installer from a script file.
	Compiler interface {
		Compile(ctx context.Context, script string) Result
	}

	// ISCC runs the Inno Setup compiler as a subprocess.
	ISCC struct {
		path   string
		args   []string
		stdout io.Writer
		stderr io.Writer
		logger *log.Logger
	}

	// ISCCOption configures an ISCC during construction.
	ISCCOption func(*ISCC)
)

// Succeeded reports whether the compiler ran and exited with status 0.
func (r Result) Succeeded() bool {
	return r.Error == nil && r.ExitCode.IsSuccess()
}

// Err returns a single error describing the result, or nil on success.
func (r Result) Err() error {
	if r.Error != nil {
		return r.Error
	}
	if !r.ExitCode.IsSuccess() {
		return fmt.Errorf("installer compiler exited with status %s", r.ExitCode)
	}
	return nil
}

// WithCompilerArgs adds arguments placed before the script path, such as
// "/Q" for quiet mode.
func WithCompilerArgs(args ...string) ISCCOption {
	return func(c *ISCC) {
		c.args = append(c.args, args...)
	}
}

// WithCompilerOutput sets where the compiler's stdout and stderr go.
// By default both are discarded.
func WithCompilerOutput(stdout, stderr io.Writer) ISCCOption {
	return func(c *ISCC) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithCompilerLogger sets the logger used for command lines.
func WithCompilerLogger(logger *log.Logger) ISCCOption {
	return func(c *ISCC) {
		c.logger = logger
	}
}

// NewISCC returns a Compiler that runs the executable at path. An empty
// path selects DefaultCompiler from PATH.
func NewISCC(path string, opts ...ISCCOption) *ISCC {
	if path == "" {
		path = DefaultCompiler
	}
	c := &ISCC{
		path:   path,
		stdout: io.Discard,
		stderr: io.Discard,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile runs the compiler on script and waits for it to exit.
func (c *ISCC) Compile(ctx context.Context, script string) Result {
	args := append(append([]string{}, c.args...), script)

	cmd := exec.CommandContext(ctx, c.path, args...)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	c.logger.Debug("running installer compiler", "command", commandLine(c.path, args))

	err := cmd.Run()
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		// Killed because ctx ended, not because the compiler is broken.
		return Result{ExitCode: 1, Error: fmt.Errorf("installer compiler interrupted: %w", ctxErr)}
	}
	return resultFromError(err)
}

// resultFromError classifies the error returned by exec.Cmd.Run.
func resultFromError(err error) Result {
	if err == nil {
		return Result{ExitCode: types.ExitSuccess}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := types.ExitCode(exitErr.ExitCode())
		if code.Validate() != nil {
			// Killed by a signal or an out-of-range status.
			return Result{ExitCode: 1, Error: fmt.Errorf("%w: %w", ErrCompilerInvocation, err)}
		}
		return Result{ExitCode: code}
	}

	return Result{ExitCode: 1, Error: fmt.Errorf("%w: %w", ErrCompilerInvocation, err)}
}

// commandLine renders argv as a shell-quoted string for logs.
func commandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, arg := range append([]string{name}, args...) {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			quoted = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}
