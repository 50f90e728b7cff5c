package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cubohq/cubo/internal/errkit"
)

// challenge is a parsed "Bearer realm=..., service=..., scope=..." value
// from a www-authenticate response header.
type challenge struct {
	realm   string
	service string
	scope   string
}

func parseChallenge(header string) (challenge, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return challenge{}, false
	}

	var ch challenge
	for _, part := range splitChallengeParams(header[len(prefix):]) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.Trim(strings.TrimSpace(kv[1]), `"`)
		switch key {
		case "realm":
			ch.realm = val
		case "service":
			ch.service = val
		case "scope":
			ch.scope = val
		}
	}
	return ch, ch.realm != ""
}

// splitChallengeParams splits a comma-separated "k=\"v\", k2=\"v2\"" list
// without breaking on commas embedded inside quoted values.
func splitChallengeParams(s string) []string {
	var parts []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case c == ',' && !inQuotes:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

type tokenResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// resolveAuth performs an anonymous bearer-token exchange against the
// challenge returned by the registry for repository, and returns the
// bearer token to present on subsequent requests. If the token response
// carries neither a "token" nor an "access_token" field, the returned
// token is empty.
func (c *Client) resolveAuth(ctx context.Context, ch challenge, repository string) (string, error) {
	scope := ch.scope
	if scope == "" {
		scope = fmt.Sprintf("repository:%s:pull", repository)
	}

	tokenURL := fmt.Sprintf("%s?service=%s&scope=%s", ch.realm, url.QueryEscape(ch.service), url.QueryEscape(scope))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenURL, nil)
	if err != nil {
		return "", errkit.Wrap(ErrAuth, err)
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return "", errkit.Wrap(ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", ErrAuth, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", errkit.Wrap(ErrAuth, err)
	}
	if tr.Token != "" {
		return tr.Token, nil
	}
	return tr.AccessToken, nil
}
