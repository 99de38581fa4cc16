// SPDX-License-Identifier: MPL-2.0

package setup

import (
	"maps"

	"github.com/marjacob/setup-terminal/pkg/msix"
)

// Template context keys.
const (
	KeyAppIDPreview    = "appid_preview"
	KeyAppIDRelease    = "appid_release"
	KeyPitch           = "pitch"
	KeyProduct         = "product"
	KeyProgram         = "program"
	KeyPublisher       = "publisher"
	KeyPublisherURL    = "publisher_url"
	KeySupportURL      = "support_url"
	KeyUpdatesURL      = "updates_url"
	KeyVersion         = "version"
	KeyLicense         = "license"
	KeyCPU             = "cpu"
	KeyPreview         = "preview"
	KeyName            = "name"
	KeyFiles           = "files"
	KeyOutputDirectory = "output_directory"
)

// DefaultUpdatesURL is where updated installers are published.
const DefaultUpdatesURL = "https://github.com/marjacob/setup-terminal/releases"

type (
	// Product holds the fixed metadata written into every installer.
	Product struct {
		AppIDPreview string
		AppIDRelease string
		Pitch        string
		Name         string
		Program      string
		Publisher    string
		PublisherURL string
		SupportURL   string
		UpdatesURL   string
	}

	// Context is the key/value mapping a template is rendered with.
	// A Context is never modified after construction; the With methods
	// return extended copies.
	Context map[string]any
)

// DefaultProduct returns the Windows Terminal product metadata.
func DefaultProduct() Product {
	return Product{
		AppIDPreview: "337096F2-74EC-4B9C-B37A-0F8665B8F037",
		AppIDRelease: "F7BFA064-073D-4E1A-9038-874A2FD55525",
		Pitch:        "Modern, fast, efficient, and powerful terminal application.",
		Name:         "Windows Terminal",
		Program:      "WindowsTerminal.exe",
		Publisher:    "Microsoft Corporation",
		PublisherURL: "https://github.com/microsoft/terminal",
		SupportURL:   "https://github.com/microsoft/terminal/issues",
		UpdatesURL:   DefaultUpdatesURL,
	}
}

// NewContext returns the bundle-level context: product metadata and the
// bundle version.
func NewContext(p Product, bundle *msix.Bundle) Context {
	return Context{
		KeyAppIDPreview: p.AppIDPreview,
		KeyAppIDRelease: p.AppIDRelease,
		KeyPitch:        p.Pitch,
		KeyProduct:      p.Name,
		KeyProgram:      p.Program,
		KeyPublisher:    p.Publisher,
		KeyPublisherURL: p.PublisherURL,
		KeySupportURL:   p.SupportURL,
		KeyUpdatesURL:   p.UpdatesURL,
		KeyVersion:      bundle.Version,
	}
}

// WithLicense returns a copy of c with the license file path bound.
func (c Context) WithLicense(path string) Context {
	out := maps.Clone(c)
	out[KeyLicense] = path
	return out
}

// ForPackage returns a copy of c extended with the keys that describe pkg.
// Every per-package key is set, so nothing from another package can leak in
// through a shared base.
func (c Context) ForPackage(pkg *msix.Package, files []FileEntry, outputDir string) Context {
	out := maps.Clone(c)
	out[KeyCPU] = pkg.CPU.String()
	out[KeyPreview] = pkg.Preview
	out[KeyName] = BuildName(pkg)
	out[KeyFiles] = files
	out[KeyOutputDirectory] = outputDir
	return out
}

// BuildName returns the installer base name, following the naming used by
// the upstream project: WindowsTerminal[Preview]_<version>_<cpu>.
func BuildName(pkg *msix.Package) string {
	preview := ""
	if pkg.Preview {
		preview = "Preview"
	}
	return "WindowsTerminal" + preview + "_" + pkg.Version + "_" + pkg.CPU.String()
}
