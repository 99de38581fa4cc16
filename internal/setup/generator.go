// SPDX-License-Identifier: MPL-2.0

package setup

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/marjacob/setup-terminal/pkg/msix"
)

type (
	// Generator builds one installer from one package.
	Generator struct {
		template  *Template
		compiler  Compiler
		outputDir string
		tempDir   string
		logger    *log.Logger
	}

	// GeneratorOption configures a Generator during construction.
	GeneratorOption func(*Generator)
)

// WithTempRoot sets the parent directory for extraction directories and
// rendered scripts. The default is os.TempDir.
func WithTempRoot(dir string) GeneratorOption {
	return func(g *Generator) {
		g.tempDir = dir
	}
}

// WithGeneratorLogger sets the logger.
func WithGeneratorLogger(logger *log.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator returns a Generator that renders tmpl and runs compiler,
// directing installers to outputDir.
func NewGenerator(tmpl *Template, compiler Compiler, outputDir string, opts ...GeneratorOption) *Generator {
	g := &Generator{
		template:  tmpl,
		compiler:  compiler,
		outputDir: outputDir,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate extracts pkg into a temporary directory, renders the installer
// script with a context derived from base, and runs the compiler on it.
//
// The returned error covers everything before the compiler runs
// (extraction, manifest, rendering, temporary files). The compiler's own
// outcome is reported in Result.
func (g *Generator) Generate(ctx context.Context, base Context, pkg *msix.Package) (Result, error) {
	outputDir, err := filepath.Abs(g.outputDir)
	if err != nil {
		return Result{}, fmt.Errorf("resolving output directory: %w", err)
	}

	var result Result
	err = WithTempDir(g.tempDir, "setup-terminal-*", func(dir string) error {
		if err := pkg.Extract(dir); err != nil {
			return err
		}

		files, err := Manifest(dir)
		if err != nil {
			return err
		}
		g.logger.Debug("extracted package", "cpu", pkg.CPU, "files", len(files), "dir", dir)

		script, err := g.template.Render(base.ForPackage(pkg, files, outputDir))
		if err != nil {
			return err
		}

		return WithTempFile(g.tempDir, "setup-*.iss", []byte(script), func(path string) error {
			result = g.compiler.Compile(ctx, path)
			return nil
		})
	})
	if err != nil {
		return Result{}, fmt.Errorf("generating installer for %s: %w", pkg.Name, err)
	}
	return result, nil
}
