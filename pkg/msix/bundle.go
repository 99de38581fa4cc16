// SPDX-License-Identifier: MPL-2.0

package msix

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"path/filepath"
)

// Bundle is a validated application bundle with an open archive handle.
// The handle is owned by the Bundle and released by Close.
type Bundle struct {
	// Name is the original bundle filename.
	Name string
	// Tag is the release tag the bundle was published under.
	Tag string
	// Version is the four-part numeric version from the filename.
	Version string
	// Preview is true for bundles published on the preview channel.
	Preview bool

	archive *zip.Reader
	closer  io.Closer
}

// New validates name against the bundle convention and wraps an already
// opened archive. An empty tag is derived as "v" + version. On success the
// Bundle takes ownership of closer (which may be nil for in-memory archives);
// on failure the caller keeps it.
func New(name, tag string, archive *zip.Reader, closer io.Closer) (*Bundle, error) {
	bn, err := ParseBundleName(name)
	if err != nil {
		return nil, err
	}
	if archive == nil {
		return nil, errors.New("bundle archive is nil")
	}
	if tag == "" {
		tag = "v" + bn.Version
	}

	return &Bundle{
		Name:    name,
		Tag:     tag,
		Version: bn.Version,
		Preview: bn.Preview,
		archive: archive,
		closer:  closer,
	}, nil
}

// Open opens a bundle from a local file. The filename (not the directory)
// must follow the bundle convention; the tag is guessed from the version.
func Open(path string) (*Bundle, error) {
	name := filepath.Base(path)
	if _, err := ParseBundleName(name); err != nil {
		return nil, err
	}

	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening bundle %s: %w", path, err)
	}

	b, err := New(name, "", &rc.Reader, rc)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return b, nil
}

// FromBytes opens a bundle held entirely in memory, e.g. a downloaded asset.
func FromBytes(name, tag string, data []byte) (*Bundle, error) {
	if _, err := ParseBundleName(name); err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("reading bundle %s: %w", name, err)
	}
	return New(name, tag, zr, nil)
}

// Close releases the archive handle. It is safe to call more than once.
func (b *Bundle) Close() error {
	b.archive = nil
	if b.closer == nil {
		return nil
	}
	err := b.closer.Close()
	b.closer = nil
	return err
}

// Entries returns the names of all entries in archive order.
func (b *Bundle) Entries() []string {
	if b.archive == nil {
		return nil
	}
	names := make([]string, 0, len(b.archive.File))
	for _, f := range b.archive.File {
		names = append(names, f.Name)
	}
	return names
}

// Package opens the named entry as a Package. The entry name must follow the
// package convention with a supported CPU.
func (b *Bundle) Package(name string) (*Package, error) {
	if b.archive == nil {
		return nil, errors.New("bundle is closed")
	}
	for _, f := range b.archive.File {
		if f.Name == name {
			return openPackage(f, b.Preview)
		}
	}
	return nil, fmt.Errorf("bundle %s has no entry %q", b.Name, name)
}

// Packages enumerates the installable packages in archive order.
//
// Entries whose names do not follow the package convention, or that target
// an unsupported CPU, are skipped silently: a bundle legitimately carries
// metadata and signature entries next to its packages. A valid entry that
// cannot be read yields a nil package together with the error so that the
// caller decides whether to continue.
//
// Every yielded package is owned by the caller and must be closed.
func (b *Bundle) Packages() iter.Seq2[*Package, error] {
	return func(yield func(*Package, error) bool) {
		if b.archive == nil {
			return
		}
		for _, f := range b.archive.File {
			if _, err := ParsePackageName(f.Name); err != nil {
				continue
			}
			pkg, err := openPackage(f, b.Preview)
			if !yield(pkg, err) {
				return
			}
		}
	}
}
