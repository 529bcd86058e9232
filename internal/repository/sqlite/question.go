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
	"github.com/sakif/skillgig-backend/internal/repository"
)

const questionColumns = `id, title, description, category, subcategory, difficulty, tags, links,
	code_example, deadline, status, client_id, accepted_answer_id, created_at, updated_at`

// newestFirst orders by creation time, newest first. rowid breaks ties
// between rows created within the same clock tick.
const newestFirst = ` ORDER BY created_at DESC, rowid DESC`

// CreateQuestion inserts a question, filling in ID and timestamps.
func (db *DB) CreateQuestion(ctx context.Context, q *model.Question) error {
	q.ID = newID()
	q.CreatedAt = now()
	q.UpdatedAt = q.CreatedAt
	if q.Tags == nil {
		q.Tags = model.StringList{}
	}
	if q.Links == nil {
		q.Links = model.StringList{}
	}

	_, err := db.q.ExecContext(ctx,
		`INSERT INTO questions (`+questionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID,
		q.Title,
		q.Description,
		q.Category,
		q.Subcategory,
		q.Difficulty,
		q.Tags,
		q.Links,
		q.CodeExample,
		q.Deadline,
		q.Status,
		q.ClientID,
		q.AcceptedAnswerID,
		q.CreatedAt,
		q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting question: %w", err)
	}
	return nil
}

// GetQuestion returns a question by ID or apperror.ErrNotFound.
func (db *DB) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	err := sqlx.GetContext(ctx, db.q, &q, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("question", id)
		}
		return nil, fmt.Errorf("sqlite: getting question %s: %w", id, err)
	}
	return &q, nil
}

// UpdateQuestion writes every mutable column and bumps updated_at.
func (db *DB) UpdateQuestion(ctx context.Context, q *model.Question) error {
	q.UpdatedAt = now()
	res, err := db.q.ExecContext(ctx,
		`UPDATE questions
		 SET title = ?, description = ?, category = ?, subcategory = ?, difficulty = ?,
		     tags = ?, links = ?, code_example = ?, deadline = ?, status = ?,
		     accepted_answer_id = ?, updated_at = ?
		 WHERE id = ?`,
		q.Title,
		q.Description,
		q.Category,
		q.Subcategory,
		q.Difficulty,
		q.Tags,
		q.Links,
		q.CodeExample,
		q.Deadline,
		q.Status,
		q.AcceptedAnswerID,
		q.UpdatedAt,
		q.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating question %s: %w", q.ID, err)
	}
	return requireAffected(res, "question", q.ID)
}

// DeleteQuestion removes a question and its answers.
//
// The weak accepted_answer_id reference is cleared first so the answer rows
// can go without tripping the question → answer foreign key.
func (db *DB) DeleteQuestion(ctx context.Context, id string) error {
	if _, err := db.q.ExecContext(ctx,
		`UPDATE questions SET accepted_answer_id = NULL WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: clearing accepted answer of question %s: %w", id, err)
	}
	if _, err := db.q.ExecContext(ctx, `DELETE FROM answers WHERE question_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting answers of question %s: %w", id, err)
	}
	res, err := db.q.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting question %s: %w", id, err)
	}
	return requireAffected(res, "question", id)
}

// ListQuestions returns one page of questions matching f plus the total number
// of matches before paging.
//
// TAG FILTER:
// tags is a JSON array column. json_each() turns it into rows, so "question
// has tag T" is an EXISTS over those rows. One EXISTS per requested tag gives
// superset semantics: every requested tag must be present.
func (db *DB) ListQuestions(ctx context.Context, f repository.QuestionFilter) ([]model.Question, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Difficulty != "" {
		where = append(where, "difficulty = ?")
		args = append(args, f.Difficulty)
	}
	if len(f.Statuses) > 0 {
		clause, inArgs, err := sqlx.In("status IN (?)", f.Statuses)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: building status filter: %w", err)
		}
		where = append(where, clause)
		args = append(args, inArgs...)
	}
	for _, tag := range f.Tags {
		where = append(where,
			`EXISTS (SELECT 1 FROM json_each(questions.tags) WHERE casefold(json_each.value) = casefold(?))`)
		args = append(args, tag)
	}

	filter := ""
	if len(where) > 0 {
		filter = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := sqlx.GetContext(ctx, db.q, &total,
		db.q.Rebind(`SELECT COUNT(*) FROM questions`+filter), args...); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting questions: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	pageArgs := append(append([]any{}, args...), limit, f.Offset)

	items := []model.Question{}
	if err := sqlx.SelectContext(ctx, db.q, &items,
		db.q.Rebind(`SELECT `+questionColumns+` FROM questions`+filter+newestFirst+` LIMIT ? OFFSET ?`),
		pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing questions: %w", err)
	}
	return items, total, nil
}

// ListQuestionsByClient returns every question the client owns, newest first.
func (db *DB) ListQuestionsByClient(ctx context.Context, clientID string) ([]model.Question, error) {
	items := []model.Question{}
	err := sqlx.SelectContext(ctx, db.q, &items,
		`SELECT `+questionColumns+` FROM questions WHERE client_id = ?`+newestFirst, clientID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing questions of client %s: %w", clientID, err)
	}
	return items, nil
}

// CountQuestionsByCategory groups question counts by the category column.
func (db *DB) CountQuestionsByCategory(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Category string `db:"category"`
		Total    int    `db:"total"`
	}
	if err := sqlx.SelectContext(ctx, db.q, &rows,
		`SELECT category, COUNT(*) AS total FROM questions GROUP BY category`); err != nil {
		return nil, fmt.Errorf("sqlite: counting questions by category: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Category] = r.Total
	}
	return out, nil
}
