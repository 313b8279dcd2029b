// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer)  → validates, enforces ownership, orchestrates
//	Repository (Data layer)   → reads/writes to the database
//
// The service receives interfaces (repository.PlatformRepository,
// stats.Provider), never concrete types — in tests we inject in-memory mocks
// and the logic under test doesn't change at all.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/dev-mirror/internal/apperror"
	"github.com/sakif/dev-mirror/internal/model"
	"github.com/sakif/dev-mirror/internal/repository"
	"github.com/sakif/dev-mirror/internal/stats"
)

// statsFetchTimeout bounds every stats provider call. Without it a stalled
// upstream API would stall the HTTP request indefinitely.
const statsFetchTimeout = 10 * time.Second

// PlatformService handles the platform-link lifecycle: connect, list, sync,
// delete — with per-user ownership enforced here, at the service boundary,
// not in storage.
type PlatformService struct {
	repo     repository.PlatformRepository
	provider stats.Provider
	logger   *slog.Logger
}

// NewPlatformService creates a PlatformService. The caller decides WHICH
// repository and provider implementations to use (sqlite + simulator in
// production, mocks in tests).
func NewPlatformService(repo repository.PlatformRepository, provider stats.Provider, logger *slog.Logger) *PlatformService {
	return &PlatformService{
		repo:     repo,
		provider: provider,
		logger:   logger,
	}
}

// List returns all platform links owned by ownerID, oldest first.
// An owner with no links gets an empty slice.
func (s *PlatformService) List(ctx context.Context, ownerID string) ([]model.Platform, error) {
	platforms, err := s.repo.ListByUser(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list platforms",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return platforms, nil
}

// Connect validates the input, fetches an initial stats snapshot
// synchronously, and persists a new platform link seeded with it.
//
// The fetch happens BEFORE the insert: if the provider fails, no row is
// created and the caller gets an Unavailable error — a link with no stats
// would be useless to every downstream consumer (dashboard, analysis).
//
// An optional apiKey is stored in the link's config. It is never returned to
// clients (model.Platform tags config `json:"-"`).
func (s *PlatformService) Connect(ctx context.Context, ownerID, name, username, apiKey string) (*model.Platform, error) {
	// Platform names are matched case-insensitively everywhere ("GitHub" and
	// "github" are the same platform), so normalise once on the way in.
	name = strings.ToLower(strings.TrimSpace(name))
	username = strings.TrimSpace(username)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "platform name is required")
	}
	if username == "" {
		return nil, apperror.ValidationFailed("username", "platform username is required")
	}

	snapshot, err := s.fetch(ctx, name, username)
	if err != nil {
		return nil, err
	}

	config := map[string]string{}
	if apiKey != "" {
		config["apiKey"] = apiKey
	}

	platform := &model.Platform{
		UserID:   ownerID,
		Name:     name,
		Username: username,
		Config:   config,
		Stats:    snapshot,
	}

	// No duplicate check on (name, username) — connecting the same account
	// twice makes two independent links, each with its own id and snapshot.
	if err := s.repo.Create(ctx, platform); err != nil {
		s.logger.Error("failed to create platform",
			slog.String("ownerID", ownerID),
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("platform connected",
		slog.Int64("id", platform.ID),
		slog.String("ownerID", ownerID),
		slog.String("name", name),
		slog.String("username", username),
	)

	return platform, nil
}

// Sync re-fetches the stats for one platform link and replaces the cached
// snapshot wholesale.
//
// Check order matters and matches the API contract: unknown id → NotFound,
// existing id with the wrong owner → Unauthorized.
//
// GUARANTEE: on provider failure nothing is written — the previous stats and
// lastUpdated stay exactly as they were.
func (s *PlatformService) Sync(ctx context.Context, ownerID string, id int64) (*model.Platform, error) {
	platform, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if platform.UserID != ownerID {
		return nil, apperror.Unauthorized("you do not own this platform")
	}

	snapshot, err := s.fetch(ctx, platform.Name, platform.Username)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.repo.UpdateStats(ctx, id, snapshot, now); err != nil {
		s.logger.Error("failed to store synced stats",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	platform.Stats = snapshot
	platform.LastUpdated = now

	s.logger.Info("platform synced",
		slog.Int64("id", id),
		slog.String("name", platform.Name),
	)

	return platform, nil
}

// Delete removes a platform link permanently. Same NotFound/Unauthorized
// checks as Sync; no cascading side effects — nothing else references links.
func (s *PlatformService) Delete(ctx context.Context, ownerID string, id int64) error {
	platform, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if platform.UserID != ownerID {
		return apperror.Unauthorized("you do not own this platform")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("platform deleted",
		slog.Int64("id", id),
		slog.String("ownerID", ownerID),
	)
	return nil
}

// fetch calls the stats provider under a bounded timeout and maps failures
// to the domain taxonomy. The raw cause is logged for operators; clients only
// ever see the generic unavailable message.
func (s *PlatformService) fetch(ctx context.Context, name, username string) (map[string]any, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, statsFetchTimeout)
	defer cancel()

	snapshot, err := s.provider.Fetch(fetchCtx, name, username)
	if err != nil {
		s.logger.Error("stats provider failed",
			slog.String("platform", name),
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperror.Unavailable("stats provider timed out, try again")
		}
		return nil, apperror.Unavailable("stats provider is unavailable, try again")
	}

	return snapshot, nil
}
