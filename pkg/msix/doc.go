// SPDX-License-Identifier: MPL-2.0

// Package msix models Windows Terminal application bundles.
//
// A bundle is a zip container named after a fixed convention
// ("Microsoft.WindowsTerminal_<version>_8wekyb3d8bbwe.msixbundle") that holds
// one nested zip per target architecture ("CascadiaPackage_<version>_<cpu>.msix")
// next to metadata and signature entries.
//
// The package is organized into three concerns:
//   - grammar.go: filename matching for bundles and packages
//   - bundle.go: Bundle handle and lazy package enumeration
//   - package.go: Package handle and extraction to a directory
package msix
