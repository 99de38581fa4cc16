// SPDX-License-Identifier: MPL-2.0

package setup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marjacob/setup-terminal/internal/testutil/msixtest"
	"github.com/marjacob/setup-terminal/pkg/msix"
	"github.com/marjacob/setup-terminal/pkg/types"
)

// dumpTemplate renders the per-package keys one per line so tests can
// inspect exactly what each compiler run received.
const dumpTemplate = `cpu={{ .cpu }}
name={{ .name }}
preview={{ .preview }}
license={{ .license }}
{{- range .files }}
file={{ .Source }}|{{ .Destination }}
{{- end }}
`

type dumpedScript struct {
	cpu     string
	name    string
	license string
	files   []string
}

func parseDump(script string) dumpedScript {
	var d dumpedScript
	for line := range strings.SplitSeq(script, "\n") {
		key, value, _ := strings.Cut(line, "=")
		switch key {
		case "cpu":
			d.cpu = value
		case "name":
			d.name = value
		case "license":
			d.license = value
		case "file":
			d.files = append(d.files, value)
		}
	}
	return d
}

func newTestOrchestrator(t *testing.T, compiler Compiler) *Orchestrator {
	t.Helper()

	tmpl, err := ParseTemplate("dump", dumpTemplate)
	if err != nil {
		t.Fatalf("ParseTemplate() unexpected error: %v", err)
	}
	root := t.TempDir()
	gen := NewGenerator(tmpl, compiler, filepath.Join(root, "dist"), WithTempRoot(root))
	return NewOrchestrator(gen, writeLicense(t), WithLicenseTempRoot(root))
}

func TestProcess_IndependentPackages(t *testing.T) {
	t.Parallel()

	b := openBundle(t, false,
		msixtest.File("AppxMetadata/AppxBundleManifest.xml", "<Bundle/>"),
		msixtest.PackageEntry(t, testVersion, "x64",
			msixtest.File("WindowsTerminal.exe", "x64"),
			msixtest.File("x64-only/payload.dll", "x64"),
		),
		msixtest.File("AppxSignature.p7x", "sig"),
		msixtest.PackageEntry(t, testVersion, "ARM64",
			msixtest.File("WindowsTerminal.exe", "arm"),
			msixtest.File("arm-only/payload.dll", "arm"),
		),
	)

	compiler := &recordingCompiler{}
	summary, err := newTestOrchestrator(t, compiler).Process(context.Background(), b)
	if err != nil {
		t.Fatalf("Process() unexpected error: %v", err)
	}

	if len(compiler.scripts) != 2 {
		t.Fatalf("compiler ran %d times, want 2", len(compiler.scripts))
	}

	x64 := parseDump(compiler.scripts[0])
	arm := parseDump(compiler.scripts[1])

	if x64.cpu != "x64" || arm.cpu != "ARM64" {
		t.Fatalf("cpu order = %q, %q; want x64, ARM64", x64.cpu, arm.cpu)
	}
	if x64.name != "WindowsTerminal_"+testVersion+"_x64" {
		t.Errorf("x64 name = %q", x64.name)
	}
	assertOnlyFiles(t, "x64", x64.files, "x64-only", "arm-only")
	assertOnlyFiles(t, "ARM64", arm.files, "arm-only", "x64-only")

	if x64.license == "" || x64.license != arm.license {
		t.Errorf("license paths = %q, %q; want one shared path", x64.license, arm.license)
	}
	if _, err := os.Stat(x64.license); !os.IsNotExist(err) {
		t.Errorf("license temp file %s survived processing", x64.license)
	}

	if summary.Succeeded() != 2 || summary.Failed() != 0 {
		t.Errorf("summary = %d ok / %d failed, want 2 / 0", summary.Succeeded(), summary.Failed())
	}
	if summary.ExitCode() != types.ExitSuccess {
		t.Errorf("ExitCode() = %d, want %d", summary.ExitCode(), types.ExitSuccess)
	}
	if summary.Packages[1].CPU != msix.CPUARM64 {
		t.Errorf("second outcome CPU = %q, want ARM64", summary.Packages[1].CPU)
	}
}

func assertOnlyFiles(t *testing.T, label string, files []string, own, other string) {
	t.Helper()

	if len(files) != 2 {
		t.Errorf("%s: got %d files %v, want 2", label, len(files), files)
	}
	sawOwn := false
	for _, f := range files {
		if strings.Contains(f, other) {
			t.Errorf("%s manifest contains file from another package: %s", label, f)
		}
		if strings.HasSuffix(f, "|"+own) {
			sawOwn = true
		}
	}
	if !sawOwn {
		t.Errorf("%s manifest has no entry under %s: %v", label, own, files)
	}
}

func TestProcess_ContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	b := openBundle(t, true,
		msixtest.PackageEntry(t, testVersion, "x64", msixtest.File("a", "a")),
		msixtest.File(msixtest.PackageName(testVersion, "x86"), "corrupt"),
		msixtest.PackageEntry(t, testVersion, "ARM64", msixtest.File("b", "b")),
	)

	compiler := &recordingCompiler{result: func(call int) Result {
		if call == 0 {
			return Result{ExitCode: 1}
		}
		return Result{}
	}}
	summary, err := newTestOrchestrator(t, compiler).Process(context.Background(), b)
	if err != nil {
		t.Fatalf("Process() unexpected error: %v", err)
	}

	if len(summary.Packages) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(summary.Packages))
	}
	if summary.Packages[0].Succeeded() {
		t.Error("x64 compile failure recorded as success")
	}
	if summary.Packages[1].Err == nil {
		t.Error("corrupt x86 entry should be recorded as failed")
	}
	if !summary.Packages[2].Succeeded() {
		t.Errorf("ARM64 should succeed after earlier failures: %v", summary.Packages[2].Failure())
	}
	if summary.ExitCode() != types.ExitPackageFailure {
		t.Errorf("ExitCode() = %d, want %d", summary.ExitCode(), types.ExitPackageFailure)
	}
	if !summary.Preview {
		t.Error("summary should carry the preview flag")
	}
}

func TestProcess_RenderFailureIsPerPackage(t *testing.T) {
	t.Parallel()

	b := openBundle(t, false,
		msixtest.PackageEntry(t, testVersion, "x64", msixtest.File("a", "a")),
		msixtest.PackageEntry(t, testVersion, "x86", msixtest.File("b", "b")),
	)

	tmpl, err := ParseTemplate("bad", "{{ .no_such_key }}")
	if err != nil {
		t.Fatalf("ParseTemplate() unexpected error: %v", err)
	}
	compiler := &recordingCompiler{}
	root := t.TempDir()
	orch := NewOrchestrator(NewGenerator(tmpl, compiler, root, WithTempRoot(root)), writeLicense(t))

	summary, err := orch.Process(context.Background(), b)
	if err != nil {
		t.Fatalf("Process() unexpected error: %v", err)
	}
	if summary.Failed() != 2 {
		t.Errorf("Failed() = %d, want 2", summary.Failed())
	}
	if len(compiler.scripts) != 0 {
		t.Errorf("compiler must not run when rendering fails, ran %d times", len(compiler.scripts))
	}
}

func TestProcess_MissingLicense(t *testing.T) {
	t.Parallel()

	b := openBundle(t, false, msixtest.PackageEntry(t, testVersion, "x64"))
	tmpl, err := DefaultTemplate()
	if err != nil {
		t.Fatalf("DefaultTemplate() unexpected error: %v", err)
	}
	compiler := &recordingCompiler{}
	orch := NewOrchestrator(NewGenerator(tmpl, compiler, t.TempDir()), filepath.Join(t.TempDir(), "LICENSE"))

	_, err = orch.Process(context.Background(), b)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
	if len(compiler.scripts) != 0 {
		t.Error("no package may be built without a license")
	}
}

func TestProcess_Canceled(t *testing.T) {
	t.Parallel()

	b := openBundle(t, false,
		msixtest.PackageEntry(t, testVersion, "x64"),
		msixtest.PackageEntry(t, testVersion, "x86"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	compiler := &recordingCompiler{result: func(int) Result {
		cancel()
		return Result{}
	}}

	summary, err := newTestOrchestrator(t, compiler).Process(ctx, b)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(summary.Packages) != 1 {
		t.Errorf("got %d outcomes, want 1 before cancellation", len(summary.Packages))
	}
}

func TestProcess_CanceledDuringFinalPackage(t *testing.T) {
	t.Parallel()

	b := openBundle(t, false, msixtest.PackageEntry(t, testVersion, "x64"))

	ctx, cancel := context.WithCancel(context.Background())
	compiler := compilerFunc(func(ctx context.Context, _ string) Result {
		cancel()
		<-ctx.Done()
		return Result{ExitCode: 1, Error: ctx.Err()}
	})

	summary, err := newTestOrchestrator(t, compiler).Process(ctx, b)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(summary.Packages) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(summary.Packages))
	}
	if failure := summary.Packages[0].Failure(); errors.Is(failure, ErrCompilerInvocation) {
		t.Errorf("interrupted package reported as invocation failure: %v", failure)
	}
}

func TestProcess_ReflowsLicense(t *testing.T) {
	t.Parallel()

	b := openBundle(t, false, msixtest.PackageEntry(t, testVersion, "x64"))

	var license string
	compiler := &recordingCompiler{result: func(int) Result { return Result{} }}
	tmpl, err := ParseTemplate("license", "{{ .license }}")
	if err != nil {
		t.Fatalf("ParseTemplate() unexpected error: %v", err)
	}
	root := t.TempDir()
	gen := NewGenerator(tmpl, compilerFunc(func(ctx context.Context, script string) Result {
		data, err := os.ReadFile(script)
		if err != nil {
			return Result{Error: err}
		}
		text, err := os.ReadFile(string(data))
		if err != nil {
			return Result{Error: err}
		}
		license = string(text)
		return compiler.Compile(ctx, script)
	}), root, WithTempRoot(root))

	if _, err := NewOrchestrator(gen, writeLicense(t)).Process(context.Background(), b); err != nil {
		t.Fatalf("Process() unexpected error: %v", err)
	}
	if want := "MIT License\n\nPermission is hereby granted, free of charge. "; license != want {
		t.Errorf("license = %q, want %q", license, want)
	}
}

type compilerFunc func(ctx context.Context, script string) Result

func (f compilerFunc) Compile(ctx context.Context, script string) Result { return f(ctx, script) }
