// Package service contains the business rules of the marketplace.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service (rules) → ownership checks, state transitions, counters
//	Repository (DB) → reads/writes rows
//
// Services depend on repository.Store (an interface), never on the sqlite
// package, and return apperror values instead of HTTP status codes.
//
// MULTI-ENTITY MUTATIONS:
// Anything that touches more than one row that must stay consistent
// (accepting an answer, deleting a question with accepted answers, deleting an
// account) runs inside Store.WithTx. Inside the callback every read and write
// goes through the tx store, never s.store.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/skillgig-backend/internal/apperror"
	"github.com/sakif/skillgig-backend/internal/dto"
	"github.com/sakif/skillgig-backend/internal/model"
	"github.com/sakif/skillgig-backend/internal/repository"
)

// Pagination bounds for GET /questions.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// optional turns a NotFound lookup into (nil, nil). Views use it for related
// rows that may legitimately be missing (a user without a profile).
func optional[T any](v *T, err error) (*T, error) {
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// userView loads the profile and answer count that go with a user.
func userView(ctx context.Context, st repository.Store, u *model.User) (dto.UserView, error) {
	profile, err := optional(st.GetProfile(ctx, u.ID))
	if err != nil {
		return dto.UserView{}, err
	}
	count, err := st.CountAnswersByAuthor(ctx, u.ID)
	if err != nil {
		return dto.UserView{}, err
	}
	return dto.NewUserView(u, profile, count), nil
}

// questionView loads the owner, the owner's profile and the answer count.
func questionView(ctx context.Context, st repository.Store, q *model.Question) (dto.QuestionView, error) {
	client, err := optional(st.GetUserByID(ctx, q.ClientID))
	if err != nil {
		return dto.QuestionView{}, err
	}
	var profile *model.ExpertProfile
	if client != nil {
		if profile, err = optional(st.GetProfile(ctx, client.ID)); err != nil {
			return dto.QuestionView{}, err
		}
	}
	count, err := st.CountAnswersByQuestion(ctx, q.ID)
	if err != nil {
		return dto.QuestionView{}, err
	}
	return dto.NewQuestionView(q, client, profile, count), nil
}

func questionViews(ctx context.Context, st repository.Store, qs []model.Question) ([]dto.QuestionView, error) {
	out := make([]dto.QuestionView, 0, len(qs))
	for i := range qs {
		v, err := questionView(ctx, st, &qs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// answerView loads the author, the author's profile and answer count, and the
// question when the caller does not already have it.
func answerView(ctx context.Context, st repository.Store, a *model.Answer, q *model.Question) (dto.AnswerView, error) {
	var err error
	if q == nil {
		if q, err = optional(st.GetQuestion(ctx, a.QuestionID)); err != nil {
			return dto.AnswerView{}, err
		}
	}
	author, err := optional(st.GetUserByID(ctx, a.AuthorID))
	if err != nil {
		return dto.AnswerView{}, err
	}
	var (
		profile *model.ExpertProfile
		count   int
	)
	if author != nil {
		if profile, err = optional(st.GetProfile(ctx, author.ID)); err != nil {
			return dto.AnswerView{}, err
		}
		if count, err = st.CountAnswersByAuthor(ctx, author.ID); err != nil {
			return dto.AnswerView{}, err
		}
	}
	return dto.NewAnswerView(a, q, author, profile, count), nil
}

func answerViews(ctx context.Context, st repository.Store, as []model.Answer, q *model.Question) ([]dto.AnswerView, error) {
	out := make([]dto.AnswerView, 0, len(as))
	for i := range as {
		v, err := answerView(ctx, st, &as[i], q)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// wrap adds context to infrastructure errors and passes AppErrors through
// untouched, so handlers still see the sentinel with its original message.
func wrap(err error, format string, args ...any) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
