package service

import (
	"context"

	"github.com/sakif/dev-mirror/internal/model"
)

// DashboardStats is the aggregate view the dashboard page renders: every
// platform link plus cross-platform rollups where the snapshots expose the
// relevant numbers.
type DashboardStats struct {
	Platforms    []model.Platform `json:"platforms"`
	TotalSolved  int              `json:"totalSolved"`  // leetcode easy+medium+hard across links
	TotalCommits int              `json:"totalCommits"` // github commits across links
}

// Dashboard aggregates the owner's platforms into a DashboardStats.
//
// The rollups are best-effort by design: stats are opaque per-platform blobs,
// so we pick known keys out defensively and skip links (or simulated payload
// variants) that don't carry them. A missing key contributes zero, never an
// error.
func (s *PlatformService) Dashboard(ctx context.Context, ownerID string) (*DashboardStats, error) {
	platforms, err := s.repo.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	dash := &DashboardStats{Platforms: platforms}

	for _, p := range platforms {
		switch p.Name {
		case "leetcode":
			if solved, ok := p.Stats["solved"].(map[string]any); ok {
				for _, difficulty := range []string{"easy", "medium", "hard"} {
					if n, ok := asInt(solved[difficulty]); ok {
						dash.TotalSolved += n
					}
				}
			}
		case "github":
			if n, ok := asInt(p.Stats["totalCommits"]); ok {
				dash.TotalCommits += n
			}
		}
	}

	return dash, nil
}

// asInt coerces the numeric types a stats value can realistically hold.
// Snapshots fresh from a provider carry Go ints; snapshots read back from the
// JSON column carry float64s. Both must count.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
