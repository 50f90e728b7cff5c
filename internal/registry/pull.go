package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	digest "github.com/opencontainers/go-digest"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/cubohq/cubo/internal/errkit"
	"github.com/cubohq/cubo/internal/imagestore"
	"github.com/cubohq/cubo/internal/ociref"
)

// Pull ensures ref is present in store, fetching its manifest, config, and
// layer blobs as needed. Pulling an already-present image is a no-op:
// store.Exists is checked first and the existing image is returned
// unchanged.
func (c *Client) Pull(ctx context.Context, store *imagestore.Store, ref ociref.Reference) (*imagestore.Image, error) {
	if store.Exists(ref) {
		return store.GetImage(ref)
	}

	manifest, _, err := c.FetchManifest(ctx, ref)
	if err != nil {
		return nil, err
	}

	configBytes, err := c.fetchBlobBytesRetrying(ctx, ref, manifest.Config.Digest)
	if err != nil {
		return nil, err
	}
	if _, err := store.PutBlob(ref, manifest.Config.Digest, bytes.NewReader(configBytes)); err != nil {
		return nil, err
	}

	var config v1.Image
	if err := json.Unmarshal(configBytes, &config); err != nil {
		return nil, errkit.Wrap(ErrTransport, err)
	}

	for _, layer := range manifest.Layers {
		if store.HasBlob(ref, layer.Digest) {
			continue
		}
		if err := c.fetchBlobRetrying(ctx, ref, layer.Digest, store); err != nil {
			return nil, err
		}
	}

	if err := store.PutImage(ref, manifest, &config); err != nil {
		return nil, err
	}
	return store.GetImage(ref)
}

// fetchBlobRetrying downloads a blob, retrying once on digest mismatch per
// the boundary behavior in §8.
func (c *Client) fetchBlobRetrying(ctx context.Context, ref ociref.Reference, dgst digest.Digest, store *imagestore.Store) error {
	_, err := c.FetchBlob(ctx, ref, dgst, store)
	if err == ErrDigestMismatch {
		_, err = c.FetchBlob(ctx, ref, dgst, store)
	}
	return err
}

func (c *Client) fetchBlobBytesRetrying(ctx context.Context, ref ociref.Reference, dgst digest.Digest) ([]byte, error) {
	data, err := c.fetchBlobBytes(ctx, ref, dgst)
	if err != nil {
		return nil, err
	}
	if !verifyDigest(dgst, data) {
		data, err = c.fetchBlobBytes(ctx, ref, dgst)
		if err != nil {
			return nil, err
		}
		if !verifyDigest(dgst, data) {
			return nil, ErrDigestMismatch
		}
	}
	return data, nil
}

func (c *Client) fetchBlobBytes(ctx context.Context, ref ociref.Reference, dgst digest.Digest) ([]byte, error) {
	url := "https://" + ref.Registry + "/v2/" + ref.Repository + "/blobs/" + dgst.String()
	req, err := newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	resp, err := c.authenticated(ctx, req, ref.Repository)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrAuth
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, ErrTransport
	}

	return io.ReadAll(resp.Body)
}
