// SPDX-License-Identifier: MPL-2.0

package setup

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/docker/go-units"

	"github.com/marjacob/setup-terminal/pkg/msix"
	"github.com/marjacob/setup-terminal/pkg/reflow"
	"github.com/marjacob/setup-terminal/pkg/types"
)

type (
	// Orchestrator drives every package of one bundle through a Generator.
	Orchestrator struct {
		generator *Generator
		product   Product
		license   string
		tempDir   string
		logger    *log.Logger
	}

	// OrchestratorOption configures an Orchestrator during construction.
	OrchestratorOption func(*Orchestrator)

	// PackageOutcome records what happened to one package.
	PackageOutcome struct {
		// Entry is the package's name inside the bundle. It is empty when the
		// entry could not be opened at all.
		Entry    string
		CPU      msix.CPU
		Build    string
		Size     int64
		Result   Result
		Err      error
		Duration time.Duration
	}

	// Summary collects the outcomes for one bundle in archive order.
	Summary struct {
		Bundle   string
		Tag      string
		Version  string
		Preview  bool
		Packages []PackageOutcome
	}
)

// WithProduct overrides the product metadata.
func WithProduct(p Product) OrchestratorOption {
	return func(o *Orchestrator) {
		o.product = p
	}
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(logger *log.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithLicenseTempRoot sets the directory the reflowed license is written to.
func WithLicenseTempRoot(dir string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.tempDir = dir
	}
}

// NewOrchestrator returns an Orchestrator that binds the license at
// licensePath, reflowed, into every installer built by gen.
func NewOrchestrator(gen *Generator, licensePath string, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		generator: gen,
		product:   DefaultProduct(),
		license:   licensePath,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Succeeded reports whether the package produced an installer.
func (p PackageOutcome) Succeeded() bool {
	return p.Err == nil && p.Result.Succeeded()
}

// Failure returns the error that made the package fail, or nil.
func (p PackageOutcome) Failure() error {
	if p.Err != nil {
		return p.Err
	}
	return p.Result.Err()
}

// Succeeded returns the number of packages that produced an installer.
func (s Summary) Succeeded() int {
	n := 0
	for _, p := range s.Packages {
		if p.Succeeded() {
			n++
		}
	}
	return n
}

// Failed returns the number of packages that did not produce an installer.
func (s Summary) Failed() int {
	return len(s.Packages) - s.Succeeded()
}

// ExitCode maps the summary to the process exit status.
func (s Summary) ExitCode() types.ExitCode {
	if s.Failed() > 0 {
		return types.ExitPackageFailure
	}
	return types.ExitSuccess
}

// Process builds an installer for every package in bundle, one at a time
// in archive order. A failing package is recorded and processing continues
// with the next one.
//
// The returned error is reserved for failures that affect the whole bundle:
// an unreadable license, or ctx ending before the last package finished. The
// summary holds every outcome recorded until then.
func (o *Orchestrator) Process(ctx context.Context, bundle *msix.Bundle) (Summary, error) {
	summary := Summary{
		Bundle:  bundle.Name,
		Tag:     bundle.Tag,
		Version: bundle.Version,
		Preview: bundle.Preview,
	}

	license, err := reflow.File(o.license)
	if err != nil {
		return summary, fmt.Errorf("preparing license: %w", err)
	}

	base := NewContext(o.product, bundle)

	err = WithTempFile(o.tempDir, "license-*.txt", []byte(license), func(licensePath string) error {
		licensed := base.WithLicense(licensePath)

		for pkg, openErr := range bundle.Packages() {
			if err := ctx.Err(); err != nil {
				if pkg != nil {
					_ = pkg.Close()
				}
				return err
			}

			if openErr != nil {
				o.logger.Error("skipping unreadable package", "err", openErr)
				summary.Packages = append(summary.Packages, PackageOutcome{Err: openErr})
				continue
			}

			summary.Packages = append(summary.Packages, o.build(ctx, licensed, pkg))
		}
		return ctx.Err()
	})

	return summary, err
}

func (o *Orchestrator) build(ctx context.Context, base Context, pkg *msix.Package) PackageOutcome {
	defer func() { _ = pkg.Close() }() // in-memory archive

	outcome := PackageOutcome{
		Entry: pkg.Name,
		CPU:   pkg.CPU,
		Build: BuildName(pkg),
		Size:  pkg.Size(),
	}

	o.logger.Info("building installer",
		"cpu", pkg.CPU,
		"name", outcome.Build,
		"size", units.HumanSize(float64(outcome.Size)))

	start := time.Now()
	outcome.Result, outcome.Err = o.generator.Generate(ctx, base, pkg)
	outcome.Duration = time.Since(start)

	if err := outcome.Failure(); err != nil {
		o.logger.Error("installer build failed", "cpu", pkg.CPU, "name", outcome.Build, "err", err)
		return outcome
	}

	o.logger.Info("installer built",
		"cpu", pkg.CPU,
		"name", outcome.Build,
		"took", outcome.Duration.Round(time.Millisecond))
	return outcome
}
