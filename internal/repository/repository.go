// Package repository declares the persistence interfaces the service layer
// depends on. The sqlite subpackage implements them.
//
// Relationships are expressed as query methods keyed by foreign-key fields
// (ListAnswersByQuestion, GetProfile(userID), ...). Multi-entity mutations run
// inside Store.WithTx so they are applied all-or-nothing.
package repository

import (
	"context"

	"github.com/sakif/skillgig-backend/internal/model"
)

// QuestionFilter selects and pages questions for List.
//
// Statuses is the set of accepted statuses; empty means "any status".
// Tags must all be present on a question (case-insensitive) for it to match.
type QuestionFilter struct {
	Category   string
	Difficulty string
	Statuses   []string
	Tags       []string
	Limit      int
	Offset     int
}

// PlatformCounts is the raw input for the platform statistics.
type PlatformCounts struct {
	TotalQuestions    int `db:"total_questions"`
	TotalUsers        int `db:"total_users"`
	ResolvedQuestions int `db:"resolved_questions"`
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	LinkGitHubAccount(ctx context.Context, userID string, githubID int64) error
	// ListExperts returns active users whose role is expert or who own a profile.
	ListExperts(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*model.ExpertProfile, error)
	// EnsureExpertProfile returns the user's profile, creating an empty one
	// (with fullName) when none exists.
	EnsureExpertProfile(ctx context.Context, userID, fullName string) (*model.ExpertProfile, error)
	// SaveProfile updates the editable fields of an existing profile.
	SaveProfile(ctx context.Context, profile *model.ExpertProfile) error
	// AdjustResolvedQuestions adds delta to the counter, flooring at zero.
	AdjustResolvedQuestions(ctx context.Context, userID string, delta int) error
	DeleteProfile(ctx context.Context, userID string) error
}

type QuestionRepository interface {
	CreateQuestion(ctx context.Context, q *model.Question) error
	GetQuestion(ctx context.Context, id string) (*model.Question, error)
	// UpdateQuestion writes every mutable column, including status and
	// accepted_answer_id.
	UpdateQuestion(ctx context.Context, q *model.Question) error
	// DeleteQuestion removes the question and its answers. Counter
	// bookkeeping is the caller's job.
	DeleteQuestion(ctx context.Context, id string) error
	ListQuestions(ctx context.Context, f QuestionFilter) ([]model.Question, int, error)
	ListQuestionsByClient(ctx context.Context, clientID string) ([]model.Question, error)
	CountQuestionsByCategory(ctx context.Context) (map[string]int, error)
}

type AnswerRepository interface {
	CreateAnswer(ctx context.Context, a *model.Answer) error
	GetAnswer(ctx context.Context, id string) (*model.Answer, error)
	// UpdateAnswer writes text, code example and links only.
	UpdateAnswer(ctx context.Context, a *model.Answer) error
	SetAnswerAccepted(ctx context.Context, id string, accepted bool) error
	DeleteAnswer(ctx context.Context, id string) error
	ListAnswersByQuestion(ctx context.Context, questionID string) ([]model.Answer, error)
	ListAnswersByAuthor(ctx context.Context, authorID string) ([]model.Answer, error)
	// ListAcceptedAnswers returns the question's accepted answers, earliest
	// created first, ties broken by lowest id.
	ListAcceptedAnswers(ctx context.Context, questionID string) ([]model.Answer, error)
	CountAnswersByQuestion(ctx context.Context, questionID string) (int, error)
	CountAnswersByAuthor(ctx context.Context, authorID string) (int, error)
}

type StatsRepository interface {
	PlatformCounts(ctx context.Context) (PlatformCounts, error)
}

// Store is the full persistence surface.
type Store interface {
	UserRepository
	ProfileRepository
	QuestionRepository
	AnswerRepository
	StatsRepository

	// WithTx runs fn inside one transaction. fn receives a Store bound to
	// the transaction; returning an error (or panicking) rolls back.
	// Calling WithTx on a transaction-bound Store joins the outer transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
