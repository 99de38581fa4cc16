// SPDX-License-Identifier: MPL-2.0

// Package source acquires a Windows Terminal bundle from a local file, a saved
// release document, or the GitHub Releases API.
//
// Release-based acquisition picks the first asset whose name follows the
// bundle convention and whose content type is application/octet-stream,
// downloads it into memory, and verifies the byte count against the declared
// size (and the SHA-256 digest when GitHub publishes one) before the bytes
// are opened as an archive.
package source
