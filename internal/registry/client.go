package registry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/cubohq/cubo/internal/errkit"
)

// Client speaks the OCI Distribution Spec v1.0 HTTP protocol: token
// exchange, manifest fetch, and blob download.
type Client struct {
	httpClient *http.Client
	maxRetries uint
}

// New returns a Client with sane connect/total timeouts.
func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		maxRetries: 4,
	}
}

// do performs req, retrying transient failures (5xx responses, transport
// errors) with bounded exponential backoff. 401/403/404 are returned
// immediately for the caller to classify.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	op := func() (*http.Response, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errkit.Wrap(ErrTransport, err)
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: server returned %d", ErrTransport, resp.StatusCode)
		}
		return resp, nil
	}

	resp, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxRetries),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func newRequest(ctx context.Context, method, url string, accept ...string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	for _, a := range accept {
		req.Header.Add("Accept", a)
	}
	return req, nil
}

// authenticated performs req anonymously first; if the registry challenges
// with a 401 and a www-authenticate header, it resolves a bearer token
// scoped to repository and retries once with that token attached. This is
// the resolve_auth operation, composed transparently into every request.
func (c *Client) authenticated(ctx context.Context, req *http.Request, repository string) (*http.Response, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	wwwAuth := resp.Header.Get("Www-Authenticate")
	resp.Body.Close()

	ch, ok := parseChallenge(wwwAuth)
	if !ok {
		return nil, ErrAuth
	}

	token, err := c.resolveAuth(ctx, ch, repository)
	if err != nil {
		return nil, err
	}

	retry := req.Clone(ctx)
	retry.Header.Set("Authorization", "Bearer "+token)
	return c.do(ctx, retry)
}
