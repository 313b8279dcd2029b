package model

import "time"

// Platform represents a user's connection to one external coding platform
// (github, leetcode, wakatime, ...) together with the last fetched stats
// snapshot. The stats are a cache — the source of truth lives on the external
// platform, and a sync replaces the whole snapshot at once.
//
// WHY int64 ID (not xid like User)?
// Platform rows are created and addressed through the JSON API by numeric id
// (POST /api/platforms/{id}/sync). SQLite's AUTOINCREMENT guarantees ids are
// unique for the lifetime of the database and never reused after a delete,
// which is exactly the contract the API needs.
//
// WHY Config `json:"-"`?
// Config holds whatever the user supplied at connect time (typically an API
// key). It is consumed server-side only and must never round-trip back to the
// browser in list/connect/sync responses.
type Platform struct {
	ID          int64             `json:"id"          db:"id"`
	UserID      string            `json:"userId"      db:"user_id"`
	Name        string            `json:"name"        db:"name"`     // 'github', 'leetcode', 'wakatime', ...
	Username    string            `json:"username"    db:"username"` // identity on the external platform
	Config      map[string]string `json:"-"           db:"config"`
	Stats       map[string]any    `json:"stats"       db:"stats"`
	LastUpdated time.Time         `json:"lastUpdated" db:"last_updated"`
	CreatedAt   time.Time         `json:"createdAt"   db:"created_at"`
}
