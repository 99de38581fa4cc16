// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/marjacob/setup-terminal/internal/config"
	"github.com/marjacob/setup-terminal/internal/release"
	"github.com/marjacob/setup-terminal/internal/setup"
	"github.com/marjacob/setup-terminal/internal/source"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// ReleaseClientFactory builds the client used to look up releases.
	ReleaseClientFactory func(opts ...release.ClientOption) source.ReleaseClient

	// CompilerFactory builds the installer compiler for the executable at path.
	CompilerFactory func(path string, opts ...setup.ISCCOption) setup.Compiler

	// App wires CLI services and shared dependencies. All command handlers
	// receive an App and reach configuration, GitHub and the compiler through it.
	App struct {
		Config    ConfigProvider
		Releases  ReleaseClientFactory
		Compilers CompilerFactory
		getenv    func(string) string
		stdout    io.Writer
		stderr    io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		Releases  ReleaseClientFactory
		Compilers CompilerFactory
		Getenv    func(string) string
		Stdout    io.Writer
		Stderr    io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Releases == nil {
		deps.Releases = func(opts ...release.ClientOption) source.ReleaseClient {
			return release.NewGitHubClient(opts...)
		}
	}
	if deps.Compilers == nil {
		deps.Compilers = func(path string, opts ...setup.ISCCOption) setup.Compiler {
			return setup.NewISCC(path, opts...)
		}
	}
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}

	return &App{
		Config:    deps.Config,
		Releases:  deps.Releases,
		Compilers: deps.Compilers,
		getenv:    deps.Getenv,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
}
