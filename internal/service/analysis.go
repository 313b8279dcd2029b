package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sakif/dev-mirror/internal/ai"
	"github.com/sakif/dev-mirror/internal/apperror"
	"github.com/sakif/dev-mirror/internal/model"
	"github.com/sakif/dev-mirror/internal/repository"
)

// EmptyDigestFallback is returned when the caller has nothing to analyze.
// Deliberate short-circuit: we never send an empty prompt to the engine, and
// we never pay for an external call that can only produce filler.
const EmptyDigestFallback = "Connect some platforms first, rookie. I can't judge you if you don't show me your work."

// analysisTimeout bounds the generative-engine call. Generation is slow by
// nature, so this is much looser than the stats fetch timeout.
const analysisTimeout = 30 * time.Second

// AnalysisService builds a digest of a user's platforms and asks the
// analysis engine for The Mirror critique.
type AnalysisService struct {
	platforms repository.PlatformRepository
	gateway   ai.Gateway
	logger    *slog.Logger
}

// NewAnalysisService creates an AnalysisService. gateway may be nil when no
// engine is configured — Analyze then fails with Unavailable instead of
// panicking at request time.
func NewAnalysisService(platforms repository.PlatformRepository, gateway ai.Gateway, logger *slog.Logger) *AnalysisService {
	return &AnalysisService{
		platforms: platforms,
		gateway:   gateway,
		logger:    logger,
	}
}

// Analyze summarizes the caller's platforms and returns the engine's verdict.
//
// platformIDs is an optional subset filter: non-empty means "only these of my
// platforms" (ids the caller doesn't own are silently skipped — we only ever
// read the caller's own rows), empty means "all of them".
//
// With nothing left to summarize, the fixed fallback text is returned and the
// engine is never called.
func (s *AnalysisService) Analyze(ctx context.Context, ownerID string, platformIDs []int64) (string, error) {
	platforms, err := s.platforms.ListByUser(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to load platforms for analysis",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return "", err
	}

	if len(platformIDs) > 0 {
		platforms = slices.DeleteFunc(platforms, func(p model.Platform) bool {
			return !slices.Contains(platformIDs, p.ID)
		})
	}

	if len(platforms) == 0 {
		return EmptyDigestFallback, nil
	}

	if s.gateway == nil {
		return "", apperror.Unavailable("analysis engine is not configured")
	}

	digest := Summarize(platforms)

	analyzeCtx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	verdict, err := s.gateway.Analyze(analyzeCtx, digest)
	if err != nil {
		// Log the real cause for operators; the client gets a generic retry
		// message with no internal detail.
		s.logger.Error("analysis engine failed",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apperror.Unavailable("analysis timed out, try again")
		}
		return "", apperror.Unavailable("analysis failed, try again")
	}

	s.logger.Info("analysis completed",
		slog.String("ownerID", ownerID),
		slog.Int("platforms", len(platforms)),
	)

	return verdict, nil
}

// Summarize turns a set of platform links into the textual digest the engine
// consumes: one line per link, in listing order, no reordering and no
// deduplication — two github links both show up.
//
// Line format: `name (username): {"stats":...}`. encoding/json sorts map keys,
// so the same snapshot always produces the same line.
func Summarize(platforms []model.Platform) string {
	lines := make([]string, 0, len(platforms))
	for _, p := range platforms {
		statsJSON, err := json.Marshal(p.Stats)
		if err != nil {
			// Stats came out of a JSON column; a value that can't marshal
			// back can't occur through normal operation.
			statsJSON = []byte("{}")
		}
		lines = append(lines, fmt.Sprintf("%s (%s): %s", p.Name, p.Username, statsJSON))
	}
	return strings.Join(lines, "\n")
}
