package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/skillgig-backend/internal/apperror"
	"github.com/sakif/skillgig-backend/internal/dto"
	"github.com/sakif/skillgig-backend/internal/metrics"
	"github.com/sakif/skillgig-backend/internal/model"
	"github.com/sakif/skillgig-backend/internal/repository"
)

// AnswerService handles answers and their acceptance (see acceptance.go).
type AnswerService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewAnswerService(store repository.Store, logger *slog.Logger) *AnswerService {
	return &AnswerService{store: store, logger: logger}
}

// Create posts an answer to a question.
//
// SNAPSHOT FIELDS:
// The author's display name and current average rating are copied onto the
// answer. Later profile edits do not change answers already posted.
func (s *AnswerService) Create(ctx context.Context, questionID, authorID string, req dto.AnswerCreateRequest) (*dto.AnswerView, error) {
	text := strings.TrimSpace(req.AnswerText)
	if text == "" {
		return nil, apperror.ValidationFailed("answerText", "answer text is required")
	}

	// The question lookup and the insert share a transaction, so a question
	// deleted in between yields NotFound rather than a foreign key error.
	var (
		q      *model.Question
		author *model.User
		a      *model.Answer
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		if q, err = tx.GetQuestion(ctx, questionID); err != nil {
			return wrap(err, "loading question %s", questionID)
		}
		if author, err = tx.GetUserByID(ctx, authorID); err != nil {
			return wrap(err, "loading author %s", authorID)
		}
		profile, err := optional(tx.GetProfile(ctx, authorID))
		if err != nil {
			return wrap(err, "loading profile of %s", authorID)
		}

		name := dto.ClientName(author)
		a = &model.Answer{
			QuestionID:  q.ID,
			AuthorID:    author.ID,
			AnswerText:  req.AnswerText,
			CodeExample: req.CodeExample,
			Links:       model.Normalize(req.Links),
			ExpertName:  &name,
		}
		if profile != nil {
			a.ExpertRating = float64(profile.AverageRating)
		}
		return tx.CreateAnswer(ctx, a)
	})
	if err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			s.logger.Error("failed to create answer",
				slog.String("questionID", questionID),
				slog.String("error", err.Error()),
			)
		}
		return nil, wrap(err, "creating answer")
	}

	metrics.AnswerCreated()
	s.logger.Info("answer created",
		slog.String("id", a.ID),
		slog.String("questionID", q.ID),
		slog.String("authorID", author.ID),
	)

	view, err := answerView(ctx, s.store, a, q)
	if err != nil {
		return nil, wrap(err, "loading answer %s", a.ID)
	}
	return &view, nil
}

// Update edits text, code example and links. Acceptance is never touched.
func (s *AnswerService) Update(ctx context.Context, id, questionID, authorID string, req dto.AnswerUpdateRequest) (*dto.AnswerView, error) {
	a, err := answerOf(ctx, s.store, questionID, id)
	if err != nil {
		return nil, wrap(err, "loading answer %s", id)
	}
	if a.AuthorID != authorID {
		return nil, apperror.Forbidden("You can only update your own answers")
	}

	if req.AnswerText != nil {
		if strings.TrimSpace(*req.AnswerText) == "" {
			return nil, apperror.ValidationFailed("answerText", "answer text must not be empty")
		}
		a.AnswerText = *req.AnswerText
	}
	if req.CodeExample != nil {
		a.CodeExample = req.CodeExample
	}
	if req.Links != nil {
		a.Links = model.Normalize(*req.Links)
	}

	if err := s.store.UpdateAnswer(ctx, a); err != nil {
		return nil, wrap(err, "updating answer %s", id)
	}

	view, err := answerView(ctx, s.store, a, nil)
	if err != nil {
		return nil, wrap(err, "loading answer %s", id)
	}
	return &view, nil
}

// Delete removes the author's own answer and repairs the question's
// acceptance state in the same transaction.
func (s *AnswerService) Delete(ctx context.Context, id, questionID, authorID string) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		a, err := answerOf(ctx, tx, questionID, id)
		if err != nil {
			return err
		}
		if a.AuthorID != authorID {
			return apperror.Forbidden("You can only delete your own answers")
		}
		return removeAnswer(ctx, tx, a)
	})
	if err != nil {
		return wrap(err, "deleting answer %s", id)
	}

	s.logger.Info("answer deleted", slog.String("id", id), slog.String("questionID", questionID))
	return nil
}

// ListByQuestion returns the question's answers, oldest first.
func (s *AnswerService) ListByQuestion(ctx context.Context, questionID string) ([]dto.AnswerView, error) {
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, wrap(err, "loading question %s", questionID)
	}
	answers, err := s.store.ListAnswersByQuestion(ctx, q.ID)
	if err != nil {
		return nil, wrap(err, "listing answers of %s", questionID)
	}
	views, err := answerViews(ctx, s.store, answers, q)
	if err != nil {
		return nil, wrap(err, "loading answers of %s", questionID)
	}
	return views, nil
}

// ListByAuthor returns the user's answers, newest first.
func (s *AnswerService) ListByAuthor(ctx context.Context, authorID string) ([]dto.AnswerView, error) {
	answers, err := s.store.ListAnswersByAuthor(ctx, authorID)
	if err != nil {
		return nil, wrap(err, "listing answers of author %s", authorID)
	}
	views, err := answerViews(ctx, s.store, answers, nil)
	if err != nil {
		return nil, wrap(err, "loading answers of author %s", authorID)
	}
	return views, nil
}
