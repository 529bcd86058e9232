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

const answerColumns = `id, question_id, author_id, answer_text, code_example, links,
	expert_name, expert_rating, is_accepted, created_at`

// CreateAnswer inserts an answer, filling in ID and created_at.
func (db *DB) CreateAnswer(ctx context.Context, a *model.Answer) error {
	a.ID = newID()
	a.CreatedAt = now()
	if a.Links == nil {
		a.Links = model.StringList{}
	}

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO answers (`+answerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.QuestionID,
		a.AuthorID,
		a.AnswerText,
		a.CodeExample,
		a.Links,
		a.ExpertName,
		a.ExpertRating,
		a.IsAccepted,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting answer for question %s: %w", a.QuestionID, err)
	}
	return nil
}

// GetAnswer returns an answer by ID or apperror.ErrNotFound.
func (db *DB) GetAnswer(ctx context.Context, id string) (*model.Answer, error) {
	var a model.Answer
	err := sqlx.GetContext(ctx, db.q, &a, `SELECT `+answerColumns+` FROM answers WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("answer", id)
		}
		return nil, fmt.Errorf("sqlite: getting answer %s: %w", id, err)
	}
	return &a, nil
}

// UpdateAnswer writes the author-editable fields only. Acceptance is never
// changed here.
func (db *DB) UpdateAnswer(ctx context.Context, a *model.Answer) error {
	res, err := db.q.ExecContext(ctx,
		`UPDATE answers SET answer_text = ?, code_example = ?, links = ? WHERE id = ?`,
		a.AnswerText, a.CodeExample, a.Links, a.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating answer %s: %w", a.ID, err)
	}
	return requireAffected(res, "answer", a.ID)
}

// SetAnswerAccepted sets the is_accepted flag.
func (db *DB) SetAnswerAccepted(ctx context.Context, id string, accepted bool) error {
	res, err := db.q.ExecContext(ctx, `UPDATE answers SET is_accepted = ? WHERE id = ?`, accepted, id)
	if err != nil {
		return fmt.Errorf("sqlite: setting accepted=%t on answer %s: %w", accepted, id, err)
	}
	return requireAffected(res, "answer", id)
}

// DeleteAnswer removes an answer. A question pointing at it through
// accepted_answer_id gets NULL (ON DELETE SET NULL); the caller is expected to
// have repaired the question already.
func (db *DB) DeleteAnswer(ctx context.Context, id string) error {
	res, err := db.q.ExecContext(ctx, `DELETE FROM answers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting answer %s: %w", id, err)
	}
	return requireAffected(res, "answer", id)
}

// ListAnswersByQuestion returns the question's answers in the order they
// were posted.
func (db *DB) ListAnswersByQuestion(ctx context.Context, questionID string) ([]model.Answer, error) {
	return db.selectAnswers(ctx,
		`WHERE question_id = ? ORDER BY created_at ASC, rowid ASC`, questionID)
}

// ListAnswersByAuthor returns the author's answers, newest first.
func (db *DB) ListAnswersByAuthor(ctx context.Context, authorID string) ([]model.Answer, error) {
	return db.selectAnswers(ctx,
		`WHERE author_id = ? ORDER BY created_at DESC, rowid DESC`, authorID)
}

// ListAcceptedAnswers returns the question's accepted answers. The order is
// the replacement-search tie-break: earliest created_at, then lowest id.
func (db *DB) ListAcceptedAnswers(ctx context.Context, questionID string) ([]model.Answer, error) {
	return db.selectAnswers(ctx,
		`WHERE question_id = ? AND is_accepted = 1 ORDER BY created_at ASC, id ASC`, questionID)
}

func (db *DB) selectAnswers(ctx context.Context, tail string, args ...any) ([]model.Answer, error) {
	items := []model.Answer{}
	if err := sqlx.SelectContext(ctx, db.q, &items, `SELECT `+answerColumns+` FROM answers `+tail, args...); err != nil {
		return nil, fmt.Errorf("sqlite: listing answers: %w", err)
	}
	return items, nil
}

// CountAnswersByQuestion returns how many answers the question has.
func (db *DB) CountAnswersByQuestion(ctx context.Context, questionID string) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, db.q, &n,
		`SELECT COUNT(*) FROM answers WHERE question_id = ?`, questionID); err != nil {
		return 0, fmt.Errorf("sqlite: counting answers of question %s: %w", questionID, err)
	}
	return n, nil
}

// CountAnswersByAuthor returns how many answers the user has written.
func (db *DB) CountAnswersByAuthor(ctx context.Context, authorID string) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, db.q, &n,
		`SELECT COUNT(*) FROM answers WHERE author_id = ?`, authorID); err != nil {
		return 0, fmt.Errorf("sqlite: counting answers of author %s: %w", authorID, err)
	}
	return n, nil
}
