// SPDX-License-Identifier: MPL-2.0

package source

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marjacob/setup-terminal/internal/release"
	"github.com/marjacob/setup-terminal/internal/testutil/msixtest"
	"github.com/marjacob/setup-terminal/pkg/msix"
)

const testVersion = "1.12.10393.0"

// fakeDownloader serves asset bodies by URL and records every request.
type fakeDownloader struct {
	bodies   map[string][]byte
	requests []string
}

func (f *fakeDownloader) DownloadAsset(_ context.Context, assetURL string) (io.ReadCloser, error) {
	f.requests = append(f.requests, assetURL)
	data, ok := f.bodies[assetURL]
	if !ok {
		return nil, fmt.Errorf("downloading asset %s: unexpected status 404", assetURL)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func bundleBytes(t *testing.T) []byte {
	t.Helper()
	return msixtest.Zip(t,
		msixtest.PackageEntry(t, testVersion, "x64", msixtest.File("WindowsTerminal.exe", "MZ")),
		msixtest.File("AppxSignature.p7x", "sig"),
	)
}

func bundleAsset(name string, data []byte) release.Asset {
	return release.Asset{
		Name:               name,
		BrowserDownloadURL: "https://example.invalid/" + name,
		Size:               int64(len(data)),
		ContentType:        release.ContentTypeBinary,
	}
}

func TestFromRelease(t *testing.T) {
	t.Parallel()

	data := bundleBytes(t)
	name := msixtest.BundleName(testVersion, false)
	asset := bundleAsset(name, data)
	d := &fakeDownloader{bodies: map[string][]byte{asset.BrowserDownloadURL: data}}

	rel := &release.Release{TagName: "v1.12.3", Assets: []release.Asset{asset}}
	b, err := FromRelease(context.Background(), d, rel)
	if err != nil {
		t.Fatalf("FromRelease() unexpected error: %v", err)
	}
	defer b.Close()

	if b.Tag != "v1.12.3" {
		t.Errorf("Tag = %q, want release tag %q", b.Tag, "v1.12.3")
	}
	if b.Version != testVersion {
		t.Errorf("Version = %q, want %q", b.Version, testVersion)
	}

	count := 0
	for pkg, err := range b.Packages() {
		if err != nil {
			t.Fatalf("unexpected enumeration error: %v", err)
		}
		count++
		pkg.Close()
	}
	if count != 1 {
		t.Errorf("got %d packages, want 1", count)
	}
}

func TestFromRelease_SizeMismatchNeverYieldsBundle(t *testing.T) {
	t.Parallel()

	data := bundleBytes(t)
	name := msixtest.BundleName(testVersion, false)

	tests := []struct {
		name  string
		delta int64
		body  []byte
	}{
		{name: "declared larger", delta: 1, body: data},
		{name: "declared smaller", delta: -1, body: data},
		{name: "truncated body", delta: 0, body: data[:len(data)/2]},
		{name: "empty body", delta: 0, body: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			asset := bundleAsset(name, data)
			asset.Size += tt.delta
			d := &fakeDownloader{bodies: map[string][]byte{asset.BrowserDownloadURL: tt.body}}

			b, err := FromRelease(context.Background(), d, &release.Release{TagName: "v1", Assets: []release.Asset{asset}})
			if b != nil {
				_ = b.Close()
				t.Fatal("size mismatch produced a bundle")
			}
			if !errors.Is(err, ErrIntegrityMismatch) {
				t.Fatalf("expected ErrIntegrityMismatch, got %v", err)
			}
			var ie *IntegrityError
			if !errors.As(err, &ie) || ie.Property != "size" {
				t.Errorf("expected size IntegrityError, got %v", err)
			}
		})
	}
}

func TestFromRelease_DigestMismatch(t *testing.T) {
	t.Parallel()

	data := bundleBytes(t)
	asset := bundleAsset(msixtest.BundleName(testVersion, false), data)
	asset.Digest = "sha256:" + strings.Repeat("0", 64)
	d := &fakeDownloader{bodies: map[string][]byte{asset.BrowserDownloadURL: data}}

	_, err := FromRelease(context.Background(), d, &release.Release{TagName: "v1", Assets: []release.Asset{asset}})
	var ie *IntegrityError
	if !errors.As(err, &ie) || ie.Property != "sha256" {
		t.Fatalf("expected sha256 IntegrityError, got %v", err)
	}
}

func TestFromRelease_DigestMatch(t *testing.T) {
	t.Parallel()

	data := bundleBytes(t)
	sum := sha256.Sum256(data)
	asset := bundleAsset(msixtest.BundleName(testVersion, false), data)
	asset.Digest = "sha256:" + hex.EncodeToString(sum[:])
	d := &fakeDownloader{bodies: map[string][]byte{asset.BrowserDownloadURL: data}}

	b, err := FromRelease(context.Background(), d, &release.Release{TagName: "v1", Assets: []release.Asset{asset}})
	if err != nil {
		t.Fatalf("FromRelease() unexpected error: %v", err)
	}
	_ = b.Close()
}

func TestFromRelease_AssetSelection(t *testing.T) {
	t.Parallel()

	data := bundleBytes(t)
	name := msixtest.BundleName(testVersion, false)

	wrongType := bundleAsset(name, data)
	wrongType.BrowserDownloadURL = "https://example.invalid/wrong-type"
	wrongType.ContentType = "application/x-zip-compressed"

	wrongName := bundleAsset(name+"_Windows10_PreinstallKit.zip", data)

	first := bundleAsset(name, data)
	second := bundleAsset(msixtest.BundleName(testVersion, true), data)

	d := &fakeDownloader{bodies: map[string][]byte{
		first.BrowserDownloadURL:  data,
		second.BrowserDownloadURL: data,
	}}

	rel := &release.Release{TagName: "v1", Assets: []release.Asset{wrongType, wrongName, first, second}}
	b, err := FromRelease(context.Background(), d, rel)
	if err != nil {
		t.Fatalf("FromRelease() unexpected error: %v", err)
	}
	defer b.Close()

	if b.Name != first.Name {
		t.Errorf("selected %q, want first matching asset %q", b.Name, first.Name)
	}
	if len(d.requests) != 1 || d.requests[0] != first.BrowserDownloadURL {
		t.Errorf("downloads = %v, want only %s", d.requests, first.BrowserDownloadURL)
	}
}

func TestFromRelease_NotFound(t *testing.T) {
	t.Parallel()

	rel := &release.Release{TagName: "v1", Assets: []release.Asset{
		{Name: "source.zip", ContentType: release.ContentTypeBinary},
	}}
	d := &fakeDownloader{}

	_, err := FromRelease(context.Background(), d, rel)
	if !errors.Is(err, ErrBundleNotFound) {
		t.Fatalf("expected ErrBundleNotFound, got %v", err)
	}
	if len(d.requests) != 0 {
		t.Errorf("no download expected, got %v", d.requests)
	}
}

func TestFromReleaseFile(t *testing.T) {
	t.Parallel()

	data := bundleBytes(t)
	asset := bundleAsset(msixtest.BundleName(testVersion, true), data)
	doc := map[string]any{
		"tag_name": "v1.13.10336.0",
		"assets": []map[string]any{{
			"name":                 asset.Name,
			"content_type":         asset.ContentType,
			"size":                 asset.Size,
			"browser_download_url": asset.BrowserDownloadURL,
		}},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("encoding document: %v", err)
	}
	path := filepath.Join(t.TempDir(), "release.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("writing document: %v", err)
	}

	d := &fakeDownloader{bodies: map[string][]byte{asset.BrowserDownloadURL: data}}
	b, err := FromReleaseFile(context.Background(), d, path)
	if err != nil {
		t.Fatalf("FromReleaseFile() unexpected error: %v", err)
	}
	defer b.Close()

	if !b.Preview {
		t.Error("expected preview bundle")
	}
	if b.Tag != "v1.13.10336.0" {
		t.Errorf("Tag = %q, want %q", b.Tag, "v1.13.10336.0")
	}
}

func TestFromLatest_GitHubClient(t *testing.T) {
	t.Parallel()

	data := bundleBytes(t)
	name := msixtest.BundleName(testVersion, false)

	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/microsoft/terminal/releases/latest":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"tag_name":"v%s","assets":[{"name":%q,"content_type":"application/octet-stream","size":%d,"browser_download_url":"%s/download/%s"}]}`,
				testVersion, name, len(data), srvURL, name)
		case "/download/" + name:
			w.Header().Set("Content-Type", release.ContentTypeBinary)
			_, _ = w.Write(data)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	client := release.NewGitHubClient(release.WithBaseURL(srv.URL))
	b, err := FromLatest(context.Background(), client)
	if err != nil {
		t.Fatalf("FromLatest() unexpected error: %v", err)
	}
	defer b.Close()

	if b.Tag != "v"+testVersion {
		t.Errorf("Tag = %q, want %q", b.Tag, "v"+testVersion)
	}
}

func TestFromTag_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client := release.NewGitHubClient(release.WithBaseURL(srv.URL))
	_, err := FromTag(context.Background(), client, "v0.0.0.0")
	if !errors.Is(err, release.ErrReleaseNotFound) {
		t.Fatalf("expected ErrReleaseNotFound, got %v", err)
	}
}

func TestFromFile(t *testing.T) {
	t.Parallel()

	path := msixtest.WriteFile(t, t.TempDir(), msixtest.BundleName(testVersion, false), bundleBytes(t))
	b, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile() unexpected error: %v", err)
	}
	defer b.Close()

	if b.Tag != "v"+testVersion {
		t.Errorf("Tag = %q, want %q", b.Tag, "v"+testVersion)
	}

	bad := msixtest.WriteFile(t, t.TempDir(), "WindowsTerminal.msixbundle", bundleBytes(t))
	if _, err := FromFile(bad); !errors.Is(err, msix.ErrGrammarMismatch) {
		t.Errorf("expected ErrGrammarMismatch, got %v", err)
	}
}

func TestChannel(t *testing.T) {
	t.Parallel()

	data := bundleBytes(t)
	preview := bundleAsset(msixtest.BundleName(testVersion, true), data)
	stable := bundleAsset(msixtest.BundleName(testVersion, false), data)
	zipped := bundleAsset("Microsoft.WindowsTerminal_1.12.10393.0_x64.zip", data)

	tests := []struct {
		name   string
		assets []release.Asset
		want   string
	}{
		{name: "release bundle", assets: []release.Asset{zipped, stable}, want: ChannelRelease},
		{name: "preview bundle", assets: []release.Asset{preview}, want: ChannelPreview},
		{name: "first bundle decides", assets: []release.Asset{stable, preview}, want: ChannelRelease},
		{name: "no bundle", assets: []release.Asset{zipped}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Channel(&release.Release{Assets: tt.assets}); got != tt.want {
				t.Errorf("Channel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewestPreview(t *testing.T) {
	t.Parallel()

	data := bundleBytes(t)
	releases := []release.Release{
		{TagName: "v1.13.0.0", Assets: []release.Asset{bundleAsset(msixtest.BundleName("1.13.0.0", false), data)}},
		{TagName: "v1.14.0.0-tools"},
		{TagName: "v1.14.1.0", Assets: []release.Asset{bundleAsset(msixtest.BundleName("1.14.1.0", true), data)}},
		{TagName: "v1.14.0.0", Assets: []release.Asset{bundleAsset(msixtest.BundleName("1.14.0.0", true), data)}},
	}

	rel, ok := NewestPreview(releases)
	if !ok {
		t.Fatal("NewestPreview() found nothing")
	}
	if rel.TagName != "v1.14.1.0" {
		t.Errorf("TagName = %q, want v1.14.1.0", rel.TagName)
	}

	if _, ok := NewestPreview(releases[:2]); ok {
		t.Error("NewestPreview() must not pick a release bundle")
	}
}

func TestFromNewestPreview_GitHubClient(t *testing.T) {
	t.Parallel()

	data := bundleBytes(t)
	stableName := msixtest.BundleName(testVersion, false)
	previewName := msixtest.BundleName("1.13.10336.0", true)

	assetJSON := func(srvURL, name string) string {
		return fmt.Sprintf(`{"name":%q,"content_type":"application/octet-stream","size":%d,"browser_download_url":"%s/download/%s"}`,
			name, len(data), srvURL, name)
	}

	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/repos/microsoft/terminal/releases" && r.URL.Query().Get("page") == "2":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `[{"tag_name":"v1.13.10336.0","prerelease":true,"assets":[%s]}]`, assetJSON(srvURL, previewName))
		case r.URL.Path == "/repos/microsoft/terminal/releases":
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/microsoft/terminal/releases?per_page=30&page=2>; rel="next"`, srvURL))
			fmt.Fprintf(w, `[{"tag_name":"v%s","assets":[%s]},{"tag_name":"v1.14.0.0","draft":true,"prerelease":true,"assets":[%s]}]`,
				testVersion, assetJSON(srvURL, stableName), assetJSON(srvURL, previewName))
		case r.URL.Path == "/download/"+previewName:
			w.Header().Set("Content-Type", release.ContentTypeBinary)
			_, _ = w.Write(data)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	client := release.NewGitHubClient(release.WithBaseURL(srv.URL))
	b, err := FromNewestPreview(context.Background(), client)
	if err != nil {
		t.Fatalf("FromNewestPreview() unexpected error: %v", err)
	}
	defer b.Close()

	if !b.Preview {
		t.Error("expected a preview bundle")
	}
	if b.Tag != "v1.13.10336.0" {
		t.Errorf("Tag = %q, want v1.13.10336.0 from the second page", b.Tag)
	}
}

func TestFromNewestPreview_NoneListed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"tag_name":"v1.12.10393.0","assets":[]}]`)
	}))
	defer srv.Close()

	client := release.NewGitHubClient(release.WithBaseURL(srv.URL))
	_, err := FromNewestPreview(context.Background(), client)
	if !errors.Is(err, ErrBundleNotFound) {
		t.Fatalf("expected ErrBundleNotFound, got %v", err)
	}
}
