// SPDX-License-Identifier: MPL-2.0

// Package release reads GitHub release metadata and downloads release assets.
//
// A release document may come from the GitHub Releases API (latest, by tag,
// or listed) or from a JSON file saved from that API. Both decode into the
// same Release value.
//
//   - release.go: Release and Asset types and the JSON document decoder
//   - github.go: HTTP client for the GitHub Releases API
package release
