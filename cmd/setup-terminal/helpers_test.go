// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/marjacob/setup-terminal/internal/config"
	"github.com/marjacob/setup-terminal/internal/setup"
	"github.com/marjacob/setup-terminal/internal/testutil/msixtest"
	"github.com/marjacob/setup-terminal/pkg/types"
)

const testVersion = "1.12.10393.0"

type (
	// staticConfig is a ConfigProvider returning a fixed configuration.
	staticConfig struct {
		cfg config.Config
	}

	// recordingCompiler records every script it is asked to compile.
	recordingCompiler struct {
		mu      sync.Mutex
		path    string
		scripts []string
		result  setup.Result
		// onCompile, when set, runs before the result is returned.
		onCompile func()
	}

	testEnv struct {
		app      *App
		compiler *recordingCompiler
		stdout   *bytes.Buffer
		stderr   *bytes.Buffer
		dir      string
		env      map[string]string
	}
)

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	cfg := s.cfg
	return &cfg, nil
}

func (c *recordingCompiler) Compile(_ context.Context, script string) setup.Result {
	data, err := os.ReadFile(script)
	if err != nil {
		return setup.Result{Error: err}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts = append(c.scripts, string(data))
	if c.onCompile != nil {
		c.onCompile()
	}
	return c.result
}

func (c *recordingCompiler) Scripts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.scripts...)
}

// newTestEnv builds an App whose configuration points at a temporary
// license and output directory and whose compiler only records scripts.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	license := filepath.Join(dir, "LICENSE")
	if err := os.WriteFile(license, []byte("MIT License\n\nCopyright (c)\nMicrosoft.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := *config.DefaultConfig()
	cfg.License = types.FilesystemPath(license)
	cfg.OutputDirectory = types.FilesystemPath(filepath.Join(dir, "dist"))

	env := &testEnv{
		compiler: &recordingCompiler{},
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
		dir:      dir,
		env:      map[string]string{},
	}
	env.app = NewApp(Dependencies{
		Config: staticConfig{cfg: cfg},
		Compilers: func(path string, _ ...setup.ISCCOption) setup.Compiler {
			env.compiler.path = path
			return env.compiler
		},
		Getenv: func(key string) string { return env.env[key] },
		Stdout: env.stdout,
		Stderr: env.stderr,
	})
	return env
}

// run executes the root command with args.
func (e *testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	return e.runContext(t, context.Background(), args...)
}

// runContext executes the root command with args under ctx.
func (e *testEnv) runContext(t *testing.T, ctx context.Context, args ...string) error {
	t.Helper()
	root := NewRootCommand(e.app)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// bundleData builds a bundle archive with one package per CPU token.
func bundleData(t *testing.T, cpus ...string) []byte {
	t.Helper()
	entries := []msixtest.Entry{msixtest.File("AppxSignature.p7x", "sig")}
	for _, cpu := range cpus {
		entries = append(entries, msixtest.PackageEntry(t, testVersion, cpu,
			msixtest.File("WindowsTerminal.exe", "MZ-"+cpu),
			msixtest.File("resources.pri", "pri")))
	}
	return msixtest.Zip(t, entries...)
}

// writeBundle stores a bundle on disk and returns its path.
func writeBundle(t *testing.T, dir string, preview bool, cpus ...string) string {
	t.Helper()
	return msixtest.WriteFile(t, dir, msixtest.BundleName(testVersion, preview), bundleData(t, cpus...))
}
