package stats

import (
	"context"
	"testing"
	"time"
)

// The payloads are random, so each check runs a number of times — a value
// outside its range fails deterministically, a value inside never does.
const samples = 50

func fetchOK(t *testing.T, platform string) map[string]any {
	t.Helper()
	snapshot, err := NewSimulator().Fetch(context.Background(), platform, "whoever")
	if err != nil {
		t.Fatalf("Fetch(%q) error = %v", platform, err)
	}
	return snapshot
}

func wantIntInRange(t *testing.T, snapshot map[string]any, key string, min, max int) {
	t.Helper()
	n, ok := snapshot[key].(int)
	if !ok {
		t.Fatalf("%s = %v (%T), want int", key, snapshot[key], snapshot[key])
	}
	if n < min || n > max {
		t.Errorf("%s = %d, want in [%d, %d]", key, n, min, max)
	}
}

func TestSimulator_GitHub(t *testing.T) {
	for i := 0; i < samples; i++ {
		snapshot := fetchOK(t, "github")

		wantIntInRange(t, snapshot, "followers", 0, 100)
		wantIntInRange(t, snapshot, "publicRepos", 5, 50)
		wantIntInRange(t, snapshot, "totalCommits", 10, 1000)
		wantIntInRange(t, snapshot, "streak", 0, 14)
	}
}

func TestSimulator_LeetCode(t *testing.T) {
	for i := 0; i < samples; i++ {
		snapshot := fetchOK(t, "leetcode")

		wantIntInRange(t, snapshot, "ranking", 10000, 500000)
		wantIntInRange(t, snapshot, "contestRating", 1400, 1800)

		solved, ok := snapshot["solved"].(map[string]any)
		if !ok {
			t.Fatalf("solved = %v (%T), want nested map", snapshot["solved"], snapshot["solved"])
		}
		wantIntInRange(t, solved, "easy", 10, 50)
		wantIntInRange(t, solved, "medium", 5, 30)
		wantIntInRange(t, solved, "hard", 0, 5)
	}
}

func TestSimulator_WakaTime(t *testing.T) {
	known := map[string]bool{
		"Go": true, "TypeScript": true, "Python": true, "Rust": true, "Java": true,
	}

	for i := 0; i < samples; i++ {
		snapshot := fetchOK(t, "wakatime")

		wantIntInRange(t, snapshot, "totalHours", 50, 1200)
		wantIntInRange(t, snapshot, "dailyAverage", 1, 8)

		lang, ok := snapshot["topLanguage"].(string)
		if !ok || !known[lang] {
			t.Errorf("topLanguage = %v, want one of the known languages", snapshot["topLanguage"])
		}
	}
}

func TestSimulator_UnknownPlatform(t *testing.T) {
	snapshot := fetchOK(t, "codewars")

	if snapshot["status"] != "Connected" {
		t.Errorf("status = %v, want %q", snapshot["status"], "Connected")
	}

	lastCheck, ok := snapshot["lastCheck"].(string)
	if !ok {
		t.Fatalf("lastCheck = %v (%T), want string", snapshot["lastCheck"], snapshot["lastCheck"])
	}
	if _, err := time.Parse(time.RFC3339, lastCheck); err != nil {
		t.Errorf("lastCheck %q is not RFC3339: %v", lastCheck, err)
	}
}

func TestSimulator_NeverFails(t *testing.T) {
	sim := NewSimulator()

	for _, platform := range []string{"github", "leetcode", "wakatime", "", "LITERALLY-ANYTHING"} {
		if _, err := sim.Fetch(context.Background(), platform, "user"); err != nil {
			t.Errorf("Fetch(%q) error = %v, want nil", platform, err)
		}
	}
}
