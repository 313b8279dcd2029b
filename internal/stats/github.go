package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Live is a Provider backed by real platform APIs. Today only GitHub has a
// live client (its public users endpoint needs no credentials); every other
// platform is delegated to a fallback provider, normally the Simulator.
//
// This keeps the Provider contract intact while letting real integrations
// land one platform at a time.
type Live struct {
	token    string // optional GitHub token — raises the rate limit from 60 to 5000 req/h
	fallback Provider
	client   *http.Client
}

var _ Provider = (*Live)(nil)

// NewLive creates a Live provider. token may be empty (unauthenticated GitHub
// API access works, just with a low rate limit). fallback handles every
// platform without a live client and must not be nil.
func NewLive(token string, fallback Provider) *Live {
	return &Live{
		token:    token,
		fallback: fallback,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// githubUser is the portion of the GitHub /users/{username} response we use.
// GitHub returns a much larger object — we only unmarshal what we need.
type githubUser struct {
	Followers   int       `json:"followers"`
	PublicRepos int       `json:"public_repos"`
	PublicGists int       `json:"public_gists"`
	CreatedAt   time.Time `json:"created_at"`
}

// Fetch returns live stats for github and falls back for everything else.
// Failures wrap ErrUnavailable so the caller can keep the previous snapshot.
func (l *Live) Fetch(ctx context.Context, platform, username string) (map[string]any, error) {
	if platform != "github" {
		return l.fallback.Fetch(ctx, platform, username)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://api.github.com/users/"+username, nil)
	if err != nil {
		return nil, fmt.Errorf("stats: building GitHub request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		// Preserve the context error (DeadlineExceeded/Canceled) in the chain
		// so callers can distinguish a timeout from a hard failure.
		return nil, fmt.Errorf("%w: calling GitHub API: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		// The account doesn't exist. That's a fetch failure, not a permissive
		// default — the permissive path is for unknown PLATFORMS, not unknown users.
		return nil, fmt.Errorf("%w: GitHub user %q not found", ErrUnavailable, username)
	default:
		return nil, fmt.Errorf("%w: GitHub API returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var gh githubUser
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, fmt.Errorf("%w: decoding GitHub response: %w", ErrUnavailable, err)
	}

	return map[string]any{
		"followers":      gh.Followers,
		"publicRepos":    gh.PublicRepos,
		"publicGists":    gh.PublicGists,
		"accountCreated": gh.CreatedAt.Format(time.RFC3339),
	}, nil
}
