// Package auth resolves Bearer tokens to user ids. The HTTP verifier
// asks an external userinfo endpoint and caches results so hot paths
// do not round-trip to the identity provider on every request.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"finboard/internal/cache"
)

// ErrUnauthenticated is returned for missing, malformed or rejected
// tokens.
var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier turns a Bearer token into a user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type userInfo struct {
	Sub string `json:"sub"`
}

// HTTPVerifier validates tokens against a userinfo endpoint.
type HTTPVerifier struct {
	url    string
	client *http.Client
	cache  *cache.LRU[string]
}

func NewHTTPVerifier(url string, cacheSize int, cacheTTL time.Duration) *HTTPVerifier {
	return &HTTPVerifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		cache:  cache.NewLRU[string](cacheSize, cacheTTL),
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	if userID, ok := v.cache.Get(token); ok {
		return userID, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return "", fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call userinfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode userinfo response: %w", err)
	}
	if info.Sub == "" {
		return "", ErrUnauthenticated
	}

	v.cache.Set(token, info.Sub)
	return info.Sub, nil
}

// StaticVerifier maps fixed tokens to user ids. Used in tests and
// single-user deployments where no identity provider is configured.
type StaticVerifier map[string]string

func (v StaticVerifier) Verify(_ context.Context, token string) (string, error) {
	userID, ok := v[token]
	if !ok {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

// ParseStaticTokens builds a StaticVerifier from a comma-separated
// list of token:userID pairs, e.g. "s3cret:alice,t0ken:bob". An empty
// input yields an empty verifier that rejects everything.
func ParseStaticTokens(s string) (StaticVerifier, error) {
	v := StaticVerifier{}
	if strings.TrimSpace(s) == "" {
		return v, nil
	}
	for _, pair := range strings.Split(s, ",") {
		token, userID, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || token == "" || userID == "" {
			return nil, fmt.Errorf("malformed static token entry %q: want token:userID", pair)
		}
		v[token] = userID
	}
	return v, nil
}
