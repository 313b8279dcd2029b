package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/dev-mirror/internal/apperror"
	"github.com/sakif/dev-mirror/internal/model"
	"github.com/sakif/dev-mirror/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, username, password_hash, github_id, email, display_name, avatar_url, created_at, updated_at`

// Create inserts a new local (username/password) user.
//
// ID GENERATION WITH xid:
// xid generates 20-char, URL-safe, time-sortable ids like "cv37rs3pp9olc6atsptg".
// Users get string ids (unlike platforms) so the primary key scheme doesn't
// leak how many accounts exist.
//
// The UNIQUE constraint on username is our duplicate check — we let the
// INSERT fail and translate the constraint violation into a Conflict error
// rather than doing a racy SELECT-then-INSERT.
func (db *UserRepo) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, github_id, email, display_name, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.GitHubID,
		user.Email,
		user.DisplayName,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// modernc's driver reports constraint violations by message, not a
		// typed error, so string matching is the available check.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by their internal id.
// Returns apperror.ErrNotFound if no user exists with that id.
func (db *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return user, nil
}

// GetByUsername retrieves a user by their login name.
// Returns apperror.ErrNotFound if no user exists with that username.
func (db *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	user, err := scanUser(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user by username %s: %w", username, err)
	}

	return user, nil
}

// UpsertGitHub inserts or updates a user based on their GitHub ID.
//
// First OAuth login → INSERT a fresh account. Subsequent logins → UPDATE the
// profile fields in case the user changed them on GitHub, keeping the
// existing internal id (the stable key other tables reference).
func (db *UserRepo) UpsertGitHub(ctx context.Context, user *model.User) error {
	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now()
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET username = ?, email = ?, display_name = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.Username,
			user.Email,
			user.DisplayName,
			user.AvatarURL,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	// New user — generate an id and INSERT. PasswordHash stays empty for
	// OAuth accounts; they can only sign in through GitHub.
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	err = db.insertGitHubUser(ctx, user)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		// The GitHub login is already taken by a local account. The GitHub
		// numeric id is unique, so suffixing it de-dupes deterministically.
		user.Username = fmt.Sprintf("%s-%d", user.Username, user.GitHubID)
		err = db.insertGitHubUser(ctx, user)
	}
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	return nil
}

func (db *UserRepo) insertGitHubUser(ctx context.Context, user *model.User) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, github_id, email, display_name, avatar_url, created_at, updated_at)
		 VALUES (?, ?, '', ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.GitHubID,
		user.Email,
		user.DisplayName,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

// scanUser reads one user row; takes the Scan function so it works for both
// *sql.Row and *sql.Rows.
func scanUser(scan func(dest ...any) error) (*model.User, error) {
	var u model.User
	err := scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.GitHubID,
		&u.Email,
		&u.DisplayName,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
