// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Two sign-in paths produce users:
//   - Local registration: username + bcrypt-hashed password
//   - GitHub OAuth: GitHubID is set, PasswordHash stays empty
//
// Both kinds share one table. A user created via OAuth has no password and
// can only sign in through GitHub; a local user has GitHubID = 0.
//
// WHY PasswordHash `json:"-"`?
// The dash tells encoding/json to ALWAYS skip this field. User structs are
// returned directly from /api/me and the auth endpoints, and a password hash
// must never appear in a response body — even a bcrypt hash leaks information
// (that the account is local, and material for offline cracking).
type User struct {
	ID           string    `json:"id"           db:"id"`
	Username     string    `json:"username"     db:"username"`
	PasswordHash string    `json:"-"            db:"password_hash"`
	GitHubID     int64     `json:"githubId,omitempty" db:"github_id"` // GitHub's numeric user ID, 0 for local accounts
	Email        string    `json:"email"        db:"email"`           // May be empty
	DisplayName  string    `json:"displayName"  db:"display_name"`
	AvatarURL    string    `json:"avatarUrl"    db:"avatar_url"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}
