// SPDX-License-Identifier: MPL-2.0

package msixtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Entry is a single archive member. Names ending in "/" become directory entries.
type Entry struct {
	Name string
	Data []byte
}

// File is shorthand for an Entry with string contents.
func File(name, contents string) Entry {
	return Entry{Name: name, Data: []byte(contents)}
}

// BundleName returns a bundle filename for the given version.
func BundleName(version string, preview bool) string {
	if preview {
		return "Microsoft.WindowsTerminal_Win10Preview_" + version + "_8wekyb3d8bbwe.msixbundle"
	}
	return "Microsoft.WindowsTerminal_" + version + "_8wekyb3d8bbwe.msixbundle"
}

// PackageName returns a package entry name for the given version and CPU token.
func PackageName(version, cpu string) string {
	return "CascadiaPackage_" + version + "_" + cpu + ".msix"
}

// Build builds a zip archive holding entries in the given order.
func Build(entries ...Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			return nil, fmt.Errorf("creating zip entry %s: %w", e.Name, err)
		}
		if len(e.Data) == 0 {
			continue
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("writing zip entry %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing zip: %w", err)
	}
	return buf.Bytes(), nil
}

// Zip is Build for tests; it fails t on error.
func Zip(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	data, err := Build(entries...)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// PackageEntry builds a package archive from files and returns it as a
// bundle entry named after version and cpu.
func PackageEntry(t testing.TB, version, cpu string, files ...Entry) Entry {
	t.Helper()
	return Entry{Name: PackageName(version, cpu), Data: Zip(t, files...)}
}

// WriteFile writes data to dir/name and returns the full path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
