package registry

import (
	"context"
	"fmt"
	"net/http"

	digest "github.com/opencontainers/go-digest"

	"github.com/cubohq/cubo/internal/imagestore"
	"github.com/cubohq/cubo/internal/ociref"
)

// FetchBlob streams the blob for dgst from the registry into store,
// verifying that the downloaded bytes hash to dgst. A digest mismatch
// deletes the partial blob and returns ErrDigestMismatch; the caller may
// retry once per §4.2's failure-mode contract.
func (c *Client) FetchBlob(ctx context.Context, ref ociref.Reference, dgst digest.Digest, store *imagestore.Store) (int64, error) {
	url := fmt.Sprintf("https://%s/v2/%s/blobs/%s", ref.Registry, ref.Repository, dgst.String())
	req, err := newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return 0, err
	}

	resp, err := c.authenticated(ctx, req, ref.Repository)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return 0, ErrAuth
	case http.StatusNotFound:
		return 0, ErrNotFound
	default:
		return 0, fmt.Errorf("%w: unexpected status %d", ErrTransport, resp.StatusCode)
	}

	n, err := store.PutBlob(ref, dgst, resp.Body)
	if err == imagestore.ErrDigestMismatch {
		return n, ErrDigestMismatch
	}
	return n, err
}
