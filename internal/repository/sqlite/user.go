package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/skillgig-backend/internal/apperror"
	"github.com/sakif/skillgig-backend/internal/model"
)

const userColumns = `id, email, username, first_name, last_name, role, hashed_password,
	is_active, github_id, created_at, updated_at`

// CreateUser inserts a new user, filling in ID and timestamps.
//
// A UNIQUE violation on email, username or github_id comes back as
// apperror.ErrConflict. The service checks for duplicates first with a
// friendlier message; this catches the race where two registrations for the
// same email arrive together.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = newID()
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Role,
		user.HashedPassword,
		user.IsActive,
		user.GitHubID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(uniqueField(err), "User with this email or username already exists")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, "id = ?", id, "id", id)
}

// GetUserByEmail looks up a user by (already lower-cased) email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, "email = ?", email, "email", email)
}

// GetUserByUsername looks up a user by exact username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, "username = ?", username, "username", username)
}

// GetUserByGitHubID looks up the account linked to a GitHub user.
func (db *DB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return db.getUser(ctx, "github_id = ?", githubID, "github id", fmt.Sprint(githubID))
}

func (db *DB) getUser(ctx context.Context, where string, arg any, field, value string) (*model.User, error) {
	var u model.User
	err := sqlx.GetContext(ctx, db.q, &u, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", field, err)
	}
	return &u, nil
}

// LinkGitHubAccount attaches a GitHub id to an existing user.
func (db *DB) LinkGitHubAccount(ctx context.Context, userID string, githubID int64) error {
	res, err := db.q.ExecContext(ctx,
		`UPDATE users SET github_id = ?, updated_at = ? WHERE id = ?`,
		githubID, now(), userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("githubId", "GitHub account already linked to another user")
		}
		return fmt.Errorf("sqlite: linking github account for user %s: %w", userID, err)
	}
	return requireAffected(res, "user", userID)
}

// ListExperts returns active users with role "expert" or with a profile,
// oldest account first.
func (db *DB) ListExperts(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := sqlx.SelectContext(ctx, db.q, &users,
		`SELECT `+prefixed("u", userColumns)+`
		 FROM users u
		 LEFT JOIN expert_profiles p ON p.user_id = u.id
		 WHERE u.is_active = 1 AND (u.role = ? OR p.id IS NOT NULL)
		 ORDER BY u.created_at ASC, u.rowid ASC`,
		model.RoleExpert,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing experts: %w", err)
	}
	return users, nil
}

// DeleteUser removes the user row. The profile goes with it (ON DELETE
// CASCADE); questions and answers must already be gone.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	res, err := db.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	return requireAffected(res, "user", id)
}

// prefixed qualifies a comma-separated column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
