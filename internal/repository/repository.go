// Package repository defines the storage interfaces the service layer
// programs against. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"
	"time"

	"github.com/sakif/dev-mirror/internal/model"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// Create inserts a new local user. Returns apperror.ErrConflict if the
	// username is already taken.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByUsername returns apperror.ErrNotFound if no such user exists.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// UpsertGitHub inserts or updates a user keyed by their GitHub ID.
	// After the call user.ID is populated with the internal id.
	UpsertGitHub(ctx context.Context, user *model.User) error
}

// PlatformRepository persists platform connections and their cached stats.
type PlatformRepository interface {
	// Create inserts a new platform row. After the call platform.ID holds the
	// assigned integer id.
	Create(ctx context.Context, platform *model.Platform) error
	GetByID(ctx context.Context, id int64) (*model.Platform, error)
	// ListByUser returns all platforms owned by userID, oldest first.
	// An owner with no platforms gets an empty slice, not an error.
	ListByUser(ctx context.Context, userID string) ([]model.Platform, error)
	// UpdateStats replaces the stats snapshot wholesale and bumps last_updated.
	// The row's other columns are untouched.
	UpdateStats(ctx context.Context, id int64, stats map[string]any, lastUpdated time.Time) error
	Delete(ctx context.Context, id int64) error
}
