// Package stats produces stats snapshots for external coding platforms.
//
// A Provider maps (platform name, username) → a stats payload. The payload
// shape differs per platform, so it's an open string-keyed map; the service
// layer treats it as an opaque blob and callers that want structure (the
// dashboard rollups) pick known keys out defensively.
//
// Two implementations exist:
//   - Simulator: randomized but plausible numbers, no network (the default)
//   - Live: real GitHub REST API calls, everything else delegated to a fallback
//
// CONTRACT:
// An unrecognized platform name is NOT an error — every provider returns a
// generic {status, lastCheck} payload for platforms it doesn't know. Errors
// are reserved for genuine fetch failures (network, auth, rate limit), so the
// caller can keep the previous snapshot instead of overwriting it with nothing.
package stats

import (
	"context"
	"errors"
)

// Provider produces a stats snapshot for a platform/username pair.
//
// Fetch must be pure with respect to the platform store — it only returns
// data; persisting the snapshot is the caller's job.
type Provider interface {
	Fetch(ctx context.Context, platform, username string) (map[string]any, error)
}

// ErrUnavailable is the sentinel wrapped by every fetch failure.
// Check with errors.Is; use errors.Is(err, context.DeadlineExceeded) to tell
// a timeout apart from an outright failure.
var ErrUnavailable = errors.New("stats provider unavailable")
