package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	goruntime "runtime"

	"github.com/containerd/platforms"
	digest "github.com/opencontainers/go-digest"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/cubohq/cubo/internal/errkit"
	"github.com/cubohq/cubo/internal/ociref"
)

const (
	mtDockerManifestV2   = "application/vnd.docker.distribution.manifest.v2+json"
	mtDockerManifestList = "application/vnd.docker.distribution.manifest.list.v2+json"
)

var manifestAcceptTypes = []string{
	v1.MediaTypeImageManifest,
	mtDockerManifestV2,
	v1.MediaTypeImageIndex,
	mtDockerManifestList,
}

// FetchManifest retrieves the manifest for ref. If the registry returns a
// manifest list / image index, the entry matching the host OS/arch is
// selected (falling back to the first entry) and re-fetched by digest.
func (c *Client) FetchManifest(ctx context.Context, ref ociref.Reference) (*v1.Manifest, []byte, error) {
	tagOrDigest := ref.Tag
	if ref.Digest != "" {
		tagOrDigest = ref.Digest
	}
	url := fmt.Sprintf("https://%s/v2/%s/manifests/%s", ref.Registry, ref.Repository, tagOrDigest)
	return c.fetchManifestURL(ctx, ref, url)
}

func (c *Client) fetchManifestURL(ctx context.Context, ref ociref.Reference, url string) (*v1.Manifest, []byte, error) {
	req, err := newRequest(ctx, http.MethodGet, url, manifestAcceptTypes...)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.authenticated(ctx, req, ref.Repository)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, nil, ErrAuth
	case http.StatusNotFound:
		return nil, nil, ErrNotFound
	default:
		return nil, nil, fmt.Errorf("%w: unexpected status %d", ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errkit.Wrap(ErrTransport, err)
	}

	mediaType := resp.Header.Get("Content-Type")
	if isIndex(mediaType, body) {
		return c.fetchManifestFromIndex(ctx, ref, body)
	}

	var manifest v1.Manifest
	if err := json.Unmarshal(body, &manifest); err != nil {
		return nil, nil, errkit.Wrap(ErrTransport, err)
	}
	return &manifest, body, nil
}

func isIndex(mediaType string, body []byte) bool {
	switch mediaType {
	case v1.MediaTypeImageIndex, mtDockerManifestList:
		return true
	}
	var probe struct {
		MediaType string `json:"mediaType"`
		Manifests []any  `json:"manifests"`
	}
	if err := json.Unmarshal(body, &probe); err == nil {
		if probe.MediaType == v1.MediaTypeImageIndex || probe.MediaType == mtDockerManifestList {
			return true
		}
		return probe.Manifests != nil
	}
	return false
}

func (c *Client) fetchManifestFromIndex(ctx context.Context, ref ociref.Reference, body []byte) (*v1.Manifest, []byte, error) {
	var index v1.Index
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, nil, errkit.Wrap(ErrTransport, err)
	}
	if len(index.Manifests) == 0 {
		return nil, nil, fmt.Errorf("%w: empty manifest index", ErrNoPlatformMatch)
	}

	want := platforms.Normalize(v1.Platform{OS: "linux", Architecture: goruntime.GOARCH})
	matcher := platforms.NewMatcher(want)

	chosen := index.Manifests[0]
	for _, m := range index.Manifests {
		if m.Platform == nil {
			continue
		}
		p := v1.Platform{OS: m.Platform.OS, Architecture: m.Platform.Architecture, Variant: m.Platform.Variant}
		if matcher.Match(p) {
			chosen = m
			break
		}
	}

	url := fmt.Sprintf("https://%s/v2/%s/manifests/%s", ref.Registry, ref.Repository, chosen.Digest.String())
	return c.fetchManifestURL(ctx, ref, url)
}

// verifyDigest checks that data hashes to expected.
func verifyDigest(expected digest.Digest, data []byte) bool {
	return digest.FromBytes(data) == expected
}
