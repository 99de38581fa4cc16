// SPDX-License-Identifier: MPL-2.0

package source

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/marjacob/setup-terminal/internal/release"
	"github.com/marjacob/setup-terminal/pkg/msix"
)

// Distribution channels reported by Channel.
const (
	ChannelRelease = "release"
	ChannelPreview = "preview"
)

var (
	// ErrBundleNotFound is returned when a release carries no usable bundle asset.
	ErrBundleNotFound = errors.New("no bundle asset found in release")

	// ErrIntegrityMismatch is returned when downloaded bytes disagree with the
	// asset's declared size or digest.
	ErrIntegrityMismatch = errors.New("asset integrity mismatch")
)

type (
	// Downloader streams the body of a release asset.
	Downloader interface {
		DownloadAsset(ctx context.Context, assetURL string) (io.ReadCloser, error)
	}

	// ReleaseClient fetches release documents and downloads their assets.
	ReleaseClient interface {
		Downloader
		GetLatestRelease(ctx context.Context) (*release.Release, error)
		GetReleaseByTag(ctx context.Context, tag string) (*release.Release, error)
		ListReleases(ctx context.Context) ([]release.Release, error)
	}

	// IntegrityError describes a downloaded asset that failed verification.
	// It wraps ErrIntegrityMismatch so callers can use errors.Is.
	IntegrityError struct {
		Asset    string
		Property string // "size" or "sha256"
		Expected string
		Got      string
	}
)

// Error returns a description naming the asset and both values.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %s: %s is %s, expected %s",
		e.Asset, e.Property, e.Got, e.Expected)
}

// Unwrap returns ErrIntegrityMismatch so callers can use errors.Is.
func (e *IntegrityError) Unwrap() error { return ErrIntegrityMismatch }

// FromFile opens a bundle stored on the local filesystem. The tag is derived
// from the version in the filename.
func FromFile(path string) (*msix.Bundle, error) {
	return msix.Open(path)
}

// FromReleaseFile reads a release document saved from the GitHub API and
// acquires the bundle it references.
func FromReleaseFile(ctx context.Context, d Downloader, path string) (*msix.Bundle, error) {
	rel, err := release.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return FromRelease(ctx, d, rel)
}

// FromLatest acquires the bundle of the client's latest release.
func FromLatest(ctx context.Context, c ReleaseClient) (*msix.Bundle, error) {
	rel, err := c.GetLatestRelease(ctx)
	if err != nil {
		return nil, err
	}
	return FromRelease(ctx, c, rel)
}

// FromTag acquires the bundle of the release published under tag.
func FromTag(ctx context.Context, c ReleaseClient, tag string) (*msix.Bundle, error) {
	rel, err := c.GetReleaseByTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	return FromRelease(ctx, c, rel)
}

// FromNewestPreview acquires the bundle of the newest listed release whose
// bundle asset is named for the preview channel. Preview bundles ship in
// prereleases, which the latest-release lookup never returns.
func FromNewestPreview(ctx context.Context, c ReleaseClient) (*msix.Bundle, error) {
	releases, err := c.ListReleases(ctx)
	if err != nil {
		return nil, err
	}
	if rel, ok := NewestPreview(releases); ok {
		return FromRelease(ctx, c, rel)
	}
	return nil, fmt.Errorf("no preview bundle among %d listed releases: %w", len(releases), ErrBundleNotFound)
}

// NewestPreview returns the first release in releases whose bundle asset
// is a preview bundle. Listings are ordered newest first.
func NewestPreview(releases []release.Release) (*release.Release, bool) {
	for i := range releases {
		if Channel(&releases[i]) == ChannelPreview {
			return &releases[i], true
		}
	}
	return nil, false
}

// Channel names the distribution channel of rel's bundle asset, or "" when
// the release carries no usable bundle.
func Channel(rel *release.Release) string {
	asset, ok := FindBundleAsset(rel)
	if !ok {
		return ""
	}
	bn, _ := msix.MatchBundleName(asset.Name)
	if bn.Preview {
		return ChannelPreview
	}
	return ChannelRelease
}

// FromRelease downloads the release's bundle asset and opens it in memory.
// The bundle carries the release tag rather than one derived from its name.
func FromRelease(ctx context.Context, d Downloader, rel *release.Release) (*msix.Bundle, error) {
	asset, ok := FindBundleAsset(rel)
	if !ok {
		return nil, fmt.Errorf("release %s: %w", rel.TagName, ErrBundleNotFound)
	}

	data, err := Download(ctx, d, asset)
	if err != nil {
		return nil, err
	}

	return msix.FromBytes(asset.Name, rel.TagName, data)
}

// FindBundleAsset returns the first asset that is both named like a bundle
// and published as a generic binary stream.
func FindBundleAsset(rel *release.Release) (release.Asset, bool) {
	if rel == nil {
		return release.Asset{}, false
	}
	for _, a := range rel.Assets {
		if _, ok := msix.MatchBundleName(a.Name); ok && a.IsBinary() {
			return a, true
		}
	}
	return release.Asset{}, false
}

// Download fetches asset into memory and verifies it. At most Size+1 bytes
// are read, so an oversized body is detected without reading it all.
func Download(ctx context.Context, d Downloader, asset release.Asset) ([]byte, error) {
	if asset.Size < 0 {
		return nil, &IntegrityError{Asset: asset.Name, Property: "size", Expected: "non-negative", Got: fmt.Sprint(asset.Size)}
	}

	body, err := d.DownloadAsset(ctx, asset.BrowserDownloadURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }() // read-only response body

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(body, asset.Size+1)); err != nil {
		return nil, fmt.Errorf("downloading %s: %w", asset.Name, err)
	}

	if int64(buf.Len()) != asset.Size {
		return nil, &IntegrityError{
			Asset:    asset.Name,
			Property: "size",
			Expected: fmt.Sprint(asset.Size),
			Got:      sizeLabel(buf.Len(), asset.Size),
		}
	}

	if want := asset.SHA256(); want != "" {
		sum := sha256.Sum256(buf.Bytes())
		if got := hex.EncodeToString(sum[:]); got != want {
			return nil, &IntegrityError{Asset: asset.Name, Property: "sha256", Expected: want, Got: got}
		}
	}

	return buf.Bytes(), nil
}

func sizeLabel(n int, declared int64) string {
	if int64(n) > declared {
		return fmt.Sprintf("more than %d", declared)
	}
	return fmt.Sprint(n)
}
