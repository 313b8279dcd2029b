package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/dev-mirror/internal/apperror"
	"github.com/sakif/dev-mirror/internal/model"
	"github.com/sakif/dev-mirror/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a nil *Y to a variable of interface type X.
// If *Y doesn't implement X, the compiler errors immediately instead of at
// the first call site that passes *DB as a PlatformRepository.
var _ repository.PlatformRepository = (*PlatformRepo)(nil)

// Create inserts a new platform row and fills in the assigned id and
// timestamps on the passed struct (pointer receiver — the caller sees them).
//
// The config and stats maps are marshalled to JSON text for storage. A nil
// map marshals to "null", which would break the round trip, so we normalise
// nil to an empty object first.
func (db *PlatformRepo) Create(ctx context.Context, platform *model.Platform) error {
	now := time.Now()
	platform.CreatedAt = now
	if platform.LastUpdated.IsZero() {
		platform.LastUpdated = now
	}

	configJSON, err := marshalMap(platform.Config)
	if err != nil {
		return fmt.Errorf("sqlite: encoding platform config: %w", err)
	}
	statsJSON, err := marshalMap(platform.Stats)
	if err != nil {
		return fmt.Errorf("sqlite: encoding platform stats: %w", err)
	}

	// PARAMETERIZED QUERIES (the ? placeholders):
	// Never build SQL strings with fmt.Sprintf — the driver escapes the
	// values for us and SQL injection becomes impossible.
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO platforms (user_id, name, username, config, stats, last_updated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		platform.UserID,
		platform.Name,
		platform.Username,
		configJSON,
		statsJSON,
		platform.LastUpdated,
		platform.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating platform: %w", err)
	}

	// LastInsertId returns the AUTOINCREMENT id SQLite just assigned.
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading platform id: %w", err)
	}
	platform.ID = id

	return nil
}

// GetByID retrieves a single platform by its integer id.
// Returns apperror.ErrNotFound if no row exists.
func (db *PlatformRepo) GetByID(ctx context.Context, id int64) (*model.Platform, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, name, username, config, stats, last_updated, created_at
		 FROM platforms
		 WHERE id = ?`,
		id,
	)

	platform, err := scanPlatform(row.Scan)
	if err != nil {
		// sql.ErrNoRows is a sentinel — it just means "no matching row".
		// We translate it to our domain NotFound so the handler returns 404.
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("platform", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting platform %d: %w", id, err)
	}

	return platform, nil
}

// ListByUser retrieves every platform owned by userID, oldest first.
func (db *PlatformRepo) ListByUser(ctx context.Context, userID string) ([]model.Platform, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, name, username, config, stats, last_updated, created_at
		 FROM platforms
		 WHERE user_id = ?
		 ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing platforms: %w", err)
	}
	// CRITICAL: rows holds a pool connection until closed.
	defer rows.Close()

	platforms := []model.Platform{}
	for rows.Next() {
		platform, err := scanPlatform(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning platform row: %w", err)
		}
		platforms = append(platforms, *platform)
	}

	// rows.Err() catches errors that happened DURING iteration.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating platforms: %w", err)
	}

	return platforms, nil
}

// UpdateStats replaces the stats snapshot wholesale and sets last_updated.
// Returns apperror.ErrNotFound if the platform doesn't exist.
//
// This is the only mutation a platform row ever sees after creation — name,
// username, and config are immutable (disconnect and reconnect to change them).
func (db *PlatformRepo) UpdateStats(ctx context.Context, id int64, stats map[string]any, lastUpdated time.Time) error {
	statsJSON, err := marshalMap(stats)
	if err != nil {
		return fmt.Errorf("sqlite: encoding platform stats: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE platforms SET stats = ?, last_updated = ? WHERE id = ?`,
		statsJSON,
		lastUpdated,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating platform %d stats: %w", id, err)
	}

	// RowsAffected tells us whether the WHERE clause matched anything.
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("platform", strconv.FormatInt(id, 10))
	}

	return nil
}

// Delete removes a platform row permanently. No soft delete, no tombstone —
// the AUTOINCREMENT key guarantees the id is never reused.
func (db *PlatformRepo) Delete(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM platforms WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting platform %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("platform", strconv.FormatInt(id, 10))
	}

	return nil
}

// scanPlatform reads one platform row. It takes the Scan function itself so
// the same code works for both *sql.Row and *sql.Rows.
func scanPlatform(scan func(dest ...any) error) (*model.Platform, error) {
	var (
		p          model.Platform
		configJSON string
		statsJSON  string
	)

	err := scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Username,
		&configJSON,
		&statsJSON,
		&p.LastUpdated,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(configJSON), &p.Config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &p.Stats); err != nil {
		return nil, fmt.Errorf("decoding stats: %w", err)
	}

	return &p, nil
}

// marshalMap encodes a map as JSON text, normalising nil to "{}" so the
// stored column is always a valid JSON object.
func marshalMap[V any](m map[string]V) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
