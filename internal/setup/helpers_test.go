// SPDX-License-Identifier: MPL-2.0

package setup

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/marjacob/setup-terminal/internal/testutil/msixtest"
	"github.com/marjacob/setup-terminal/pkg/msix"
)

const testVersion = "1.12.10393.0"

// recordingCompiler captures every script it is asked to compile.
type recordingCompiler struct {
	mu      sync.Mutex
	scripts []string
	result  func(call int) Result
}

func (c *recordingCompiler) Compile(_ context.Context, script string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(script)
	if err != nil {
		return Result{ExitCode: 1, Error: err}
	}
	c.scripts = append(c.scripts, string(data))

	if c.result != nil {
		return c.result(len(c.scripts) - 1)
	}
	return Result{}
}

// openBundle builds an in-memory bundle from entries.
func openBundle(t *testing.T, preview bool, entries ...msixtest.Entry) *msix.Bundle {
	t.Helper()

	b, err := msix.FromBytes(msixtest.BundleName(testVersion, preview), "", msixtest.Zip(t, entries...))
	if err != nil {
		t.Fatalf("FromBytes() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

// openPackage returns the package named for cpu from b.
func openPackage(t *testing.T, b *msix.Bundle, cpu string) *msix.Package {
	t.Helper()

	pkg, err := b.Package(msixtest.PackageName(testVersion, cpu))
	if err != nil {
		t.Fatalf("Package(%s) unexpected error: %v", cpu, err)
	}
	t.Cleanup(func() { _ = pkg.Close() })
	return pkg
}

// writeLicense writes a hard-wrapped license into a temp dir.
func writeLicense(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "LICENSE")
	text := "MIT License\r\n\r\nPermission is hereby granted,\r\nfree of charge.\r\n"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("writing license: %v", err)
	}
	return path
}
