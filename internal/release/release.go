// SPDX-License-Identifier: MPL-2.0

package release

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// ContentTypeBinary is the content type GitHub reports for generic binary assets.
const ContentTypeBinary = "application/octet-stream"

type (
	// Release represents a GitHub Release with its assets.
	Release struct {
		TagName    string  // Git tag, e.g. "v1.12.10393.0"
		Name       string  // Human-readable release name
		Prerelease bool    // True for preview releases
		Draft      bool    // True for unpublished drafts
		Assets     []Asset // Downloadable artifacts
		HTMLURL    string  // Browser URL for the release page
		CreatedAt  string  // ISO 8601 timestamp
	}

	// Asset represents a single downloadable file in a GitHub Release.
	Asset struct {
		Name               string // Filename
		BrowserDownloadURL string // Direct download URL
		Size               int64  // Declared size in bytes
		ContentType        string // MIME type
		Digest             string // "sha256:<hex>" when GitHub computed one
	}

	githubRelease struct {
		TagName    string        `json:"tag_name"`
		Name       string        `json:"name"`
		Prerelease bool          `json:"prerelease"`
		Draft      bool          `json:"draft"`
		HTMLURL    string        `json:"html_url"`
		CreatedAt  string        `json:"created_at"`
		Assets     []githubAsset `json:"assets"`
	}

	githubAsset struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
		Size               int64  `json:"size"`
		ContentType        string `json:"content_type"`
		Digest             string `json:"digest"`
	}
)

// IsBinary reports whether the asset is published as a generic byte stream.
func (a Asset) IsBinary() bool {
	return strings.EqualFold(a.ContentType, ContentTypeBinary)
}

// SHA256 returns the hex digest declared for the asset, or "" when none is known.
func (a Asset) SHA256() string {
	algo, hash, ok := strings.Cut(a.Digest, ":")
	if !ok || !strings.EqualFold(algo, "sha256") || !isValidHexHash(hash) {
		return ""
	}
	return strings.ToLower(hash)
}

// Parse decodes a single release document.
func Parse(r io.Reader) (*Release, error) {
	var gr githubRelease
	if err := json.NewDecoder(io.LimitReader(r, maxJSONResponseBytes)).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}
	rel := toRelease(gr)
	return &rel, nil
}

// ParseFile decodes the release document stored at path.
func ParseFile(path string) (*Release, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening release document: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only file handle

	rel, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rel, nil
}

func parseReleases(body io.Reader) ([]Release, error) {
	var raw []githubRelease
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding releases: %w", err)
	}

	releases := make([]Release, 0, len(raw))
	for _, gr := range raw {
		releases = append(releases, toRelease(gr))
	}
	return releases, nil
}

// toRelease converts the JSON wire type. Asset fields match githubAsset
// exactly, so a direct conversion is allowed.
func toRelease(gr githubRelease) Release {
	assets := make([]Asset, 0, len(gr.Assets))
	for _, ga := range gr.Assets {
		assets = append(assets, Asset(ga))
	}

	return Release{
		TagName:    gr.TagName,
		Name:       gr.Name,
		Prerelease: gr.Prerelease,
		Draft:      gr.Draft,
		Assets:     assets,
		HTMLURL:    gr.HTMLURL,
		CreatedAt:  gr.CreatedAt,
	}
}

func isValidHexHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
