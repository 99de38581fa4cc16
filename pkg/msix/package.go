// SPDX-License-Identifier: MPL-2.0

package msix

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafeEntryPath is returned when an archive entry would be written
// outside the extraction directory.
var ErrUnsafeEntryPath = errors.New("archive entry escapes extraction directory")

// ErrReservedEntryName is returned when an archive entry uses a Windows
// device name such as CON or LPT1 as a path element.
var ErrReservedEntryName = errors.New("archive entry uses a reserved Windows name")

// Package is a validated architecture-specific package read out of a bundle.
// Its nested archive lives in memory until Close is called.
type Package struct {
	// Name is the entry name inside the bundle.
	Name string
	// CPU is the target architecture.
	CPU CPU
	// Version is the four-part numeric version from the filename.
	Version string
	// Preview is inherited from the owning bundle.
	Preview bool

	archive *zip.Reader
	size    int64
}

// openPackage validates the entry name, reads the entry fully and reopens
// it as a zip archive.
func openPackage(f *zip.File, preview bool) (*Package, error) {
	pn, err := ParsePackageName(f.Name)
	if err != nil {
		return nil, err
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening package %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }() // read-only entry

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading package %s: %w", f.Name, err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading package %s: %w", f.Name, err)
	}

	return &Package{
		Name:    f.Name,
		CPU:     pn.CPU,
		Version: pn.Version,
		Preview: preview,
		archive: zr,
		size:    int64(len(data)),
	}, nil
}

// Size returns the size in bytes of the nested archive.
func (p *Package) Size() int64 { return p.size }

// Close releases the in-memory archive. It is safe to call more than once.
func (p *Package) Close() error {
	p.archive = nil
	return nil
}

// Extract writes the full contents of the package into dir, preserving
// the archive's directory structure. dir is created if missing.
func (p *Package) Extract(dir string) error {
	if p.archive == nil {
		return fmt.Errorf("package %s is closed", p.Name)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve extraction directory: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}

	for _, f := range p.archive.File {
		if err := extractEntry(root, f); err != nil {
			return fmt.Errorf("extracting %s from %s: %w", f.Name, p.Name, err)
		}
	}
	return nil
}

func extractEntry(root string, f *zip.File) error {
	target := filepath.Join(root, filepath.FromSlash(f.Name))

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ErrUnsafeEntryPath
	}
	if hasReservedElement(f.Name) {
		return ErrReservedEntryName
	}

	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }() // read-only entry

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}
