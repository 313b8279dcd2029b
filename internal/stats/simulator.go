package stats

import (
	"context"
	"math/rand/v2"
	"time"
)

// Simulator is a Provider that fabricates plausible stats without touching
// any network. It stands in for real platform API clients during development
// and is the default provider — connecting a platform always succeeds and the
// dashboard has something to show.
//
// The ranges below are deliberately "junior-to-mid developer" shaped so the
// AI critique has realistic material to work with.
type Simulator struct{}

var _ Provider = (*Simulator)(nil)

// NewSimulator creates a Simulator.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// Fetch returns a fresh randomized snapshot. It never fails: recognized
// platforms get platform-shaped payloads, anything else gets the generic
// {status, lastCheck} payload.
func (s *Simulator) Fetch(_ context.Context, platform, _ string) (map[string]any, error) {
	switch platform {
	case "github":
		return map[string]any{
			"followers":    randRange(0, 100),
			"publicRepos":  randRange(5, 50),
			"totalCommits": randRange(10, 1000), // last year
			"streak":       randRange(0, 14),
		}, nil

	case "leetcode":
		return map[string]any{
			"ranking": randRange(10000, 500000),
			"solved": map[string]any{
				"easy":   randRange(10, 50),
				"medium": randRange(5, 30),
				"hard":   randRange(0, 5),
			},
			"contestRating": randRange(1400, 1800),
		}, nil

	case "wakatime":
		languages := []string{"Go", "TypeScript", "Python", "Rust", "Java"}
		return map[string]any{
			"totalHours":   randRange(50, 1200),
			"dailyAverage": randRange(1, 8),
			"topLanguage":  languages[rand.IntN(len(languages))],
		}, nil

	default:
		// Permissive by design: an unknown platform connects fine, it just
		// doesn't get detailed stats.
		return map[string]any{
			"status":    "Connected",
			"lastCheck": time.Now().Format(time.RFC3339),
		}, nil
	}
}

// randRange returns a random int in [min, max] inclusive.
func randRange(min, max int) int {
	return min + rand.IntN(max-min+1)
}
