// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the setup-terminal CLI.
//
// The root command acquires a Windows Terminal bundle (from a local file, a saved
// release document, a tagged release or the latest release), then builds one Inno
// Setup installer per architecture. Subcommands inspect bundles without building
// and manage configuration.
package cmd
