package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/skillgig-backend/internal/apperror"
	"github.com/sakif/skillgig-backend/internal/model"
)

const profileColumns = `id, user_id, full_name, bio, primary_role, skills, github_url,
	linkedin_url, portfolio_url, experience_years, average_rating, resolved_questions`

// GetProfile returns the user's expert profile or apperror.ErrNotFound.
func (db *DB) GetProfile(ctx context.Context, userID string) (*model.ExpertProfile, error) {
	var p model.ExpertProfile
	err := sqlx.GetContext(ctx, db.q, &p,
		`SELECT `+profileColumns+` FROM expert_profiles WHERE user_id = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("expert profile", userID)
		}
		return nil, fmt.Errorf("sqlite: getting profile for user %s: %w", userID, err)
	}
	return &p, nil
}

// EnsureExpertProfile returns the existing profile or creates an empty one.
//
// INSERT ... ON CONFLICT DO NOTHING makes the create idempotent: if another
// request created the profile first, the insert is a no-op and the SELECT
// below returns that row.
func (db *DB) EnsureExpertProfile(ctx context.Context, userID, fullName string) (*model.ExpertProfile, error) {
	_, err := db.q.ExecContext(ctx,
		`INSERT INTO expert_profiles (user_id, full_name, skills, resolved_questions)
		 VALUES (?, ?, '[]', 0)
		 ON CONFLICT(user_id) DO NOTHING`,
		userID, fullName,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: ensuring profile for user %s: %w", userID, err)
	}
	return db.GetProfile(ctx, userID)
}

// SaveProfile writes the editable fields. The counter and rating are not
// editable here.
func (db *DB) SaveProfile(ctx context.Context, p *model.ExpertProfile) error {
	res, err := db.q.ExecContext(ctx,
		`UPDATE expert_profiles
		 SET full_name = ?, bio = ?, primary_role = ?, skills = ?, github_url = ?,
		     linkedin_url = ?, portfolio_url = ?, experience_years = ?
		 WHERE user_id = ?`,
		p.FullName,
		p.Bio,
		p.PrimaryRole,
		p.Skills,
		p.GitHubURL,
		p.LinkedInURL,
		p.PortfolioURL,
		p.ExperienceYears,
		p.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving profile for user %s: %w", p.UserID, err)
	}
	return requireAffected(res, "expert profile", p.UserID)
}

// AdjustResolvedQuestions adds delta to resolved_questions. MAX(0, ...) keeps
// the counter from going negative no matter how many decrements are chained.
func (db *DB) AdjustResolvedQuestions(ctx context.Context, userID string, delta int) error {
	if delta == 0 {
		return nil
	}
	res, err := db.q.ExecContext(ctx,
		`UPDATE expert_profiles
		 SET resolved_questions = MAX(0, resolved_questions + ?)
		 WHERE user_id = ?`,
		delta, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adjusting resolved questions for user %s: %w", userID, err)
	}
	return requireAffected(res, "expert profile", userID)
}

// DeleteProfile removes the profile if there is one.
func (db *DB) DeleteProfile(ctx context.Context, userID string) error {
	if _, err := db.q.ExecContext(ctx, `DELETE FROM expert_profiles WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("sqlite: deleting profile for user %s: %w", userID, err)
	}
	return nil
}
