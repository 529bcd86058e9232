package service

import (
	"context"
	"log/slog"

	"github.com/sakif/skillgig-backend/internal/apperror"
	"github.com/sakif/skillgig-backend/internal/dto"
	"github.com/sakif/skillgig-backend/internal/metrics"
	"github.com/sakif/skillgig-backend/internal/model"
	"github.com/sakif/skillgig-backend/internal/repository"
)

// ACCEPTANCE STATE
//
// Three pieces of state must agree after every operation:
//
//	answers.is_accepted                  (per answer)
//	questions.accepted_answer_id         (at most one per question)
//	expert_profiles.resolved_questions   (per author: number of accepted answers)
//
// Every function in this file takes the tx store and is only ever called from
// inside Store.WithTx, so a failure anywhere rolls all three back together.

// Verify accepts (isCorrect) or rejects an answer on behalf of the question
// owner.
//
// Accepting unmarks any other accepted answer on the question first, so after
// an accept exactly one answer is accepted and accepted_answer_id points at it.
// Accepting an already accepted answer does not count it twice.
func (s *AnswerService) Verify(ctx context.Context, questionID, answerID, verifierID string, isCorrect bool) (*dto.AnswerView, error) {
	var (
		question *model.Question
		answer   *model.Answer
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		q, err := tx.GetQuestion(ctx, questionID)
		if err != nil {
			return err
		}
		if q.ClientID != verifierID {
			return apperror.Forbidden("Only the question owner can verify answers")
		}
		a, err := answerOf(ctx, tx, questionID, answerID)
		if err != nil {
			return err
		}

		if isCorrect {
			err = acceptAnswer(ctx, tx, q, a)
		} else {
			err = rejectAnswer(ctx, tx, q, a)
		}
		if err != nil {
			return err
		}
		question, answer = q, a
		return nil
	})
	if err != nil {
		return nil, wrap(err, "verifying answer %s", answerID)
	}

	metrics.AnswerVerified(isCorrect)
	s.logger.Info("answer verified",
		slog.String("questionID", questionID),
		slog.String("answerID", answerID),
		slog.Bool("accepted", isCorrect),
		slog.String("status", question.Status),
	)

	view, err := answerView(ctx, s.store, answer, question)
	if err != nil {
		return nil, wrap(err, "loading answer %s", answerID)
	}
	return &view, nil
}

func acceptAnswer(ctx context.Context, tx repository.Store, q *model.Question, a *model.Answer) error {
	if _, err := ensureProfile(ctx, tx, a.AuthorID); err != nil {
		return err
	}

	accepted, err := tx.ListAcceptedAnswers(ctx, q.ID)
	if err != nil {
		return err
	}
	for _, other := range accepted {
		if other.ID == a.ID {
			continue
		}
		if err := tx.SetAnswerAccepted(ctx, other.ID, false); err != nil {
			return err
		}
		if err := adjustResolved(ctx, tx, other.AuthorID, -1); err != nil {
			return err
		}
	}

	if !a.IsAccepted {
		if err := tx.SetAnswerAccepted(ctx, a.ID, true); err != nil {
			return err
		}
		if err := adjustResolved(ctx, tx, a.AuthorID, 1); err != nil {
			return err
		}
		a.IsAccepted = true
	}

	q.AcceptedAnswerID = &a.ID
	q.Status = model.StatusResolved
	return tx.UpdateQuestion(ctx, q)
}

func rejectAnswer(ctx context.Context, tx repository.Store, q *model.Question, a *model.Answer) error {
	if a.IsAccepted {
		if err := adjustResolved(ctx, tx, a.AuthorID, -1); err != nil {
			return err
		}
		if err := tx.SetAnswerAccepted(ctx, a.ID, false); err != nil {
			return err
		}
		a.IsAccepted = false
	}

	if isRecordedAnswer(q, a.ID) {
		q.AcceptedAnswerID = nil
		replacement, err := findReplacement(ctx, tx, q.ID, a.ID)
		if err != nil {
			return err
		}
		if replacement != nil {
			q.AcceptedAnswerID = &replacement.ID
		}
	}
	if q.AcceptedAnswerID == nil {
		q.Status = model.StatusPublished
	}
	return tx.UpdateQuestion(ctx, q)
}

// removeAnswer deletes an answer and repairs its question: the author loses
// the point if the answer was accepted, and if it was the recorded accepted
// answer another accepted one takes its place, or the question goes back to
// published.
func removeAnswer(ctx context.Context, tx repository.Store, a *model.Answer) error {
	if a.IsAccepted {
		if err := adjustResolved(ctx, tx, a.AuthorID, -1); err != nil {
			return err
		}
	}

	q, err := tx.GetQuestion(ctx, a.QuestionID)
	if err != nil {
		return err
	}
	if isRecordedAnswer(q, a.ID) {
		replacement, err := findReplacement(ctx, tx, q.ID, a.ID)
		if err != nil {
			return err
		}
		if replacement != nil {
			q.AcceptedAnswerID = &replacement.ID
			q.Status = model.StatusResolved
		} else {
			q.AcceptedAnswerID = nil
			q.Status = model.StatusPublished
		}
		if err := tx.UpdateQuestion(ctx, q); err != nil {
			return err
		}
	}

	return tx.DeleteAnswer(ctx, a.ID)
}

// removeQuestion deletes a question with its answers, taking back the point
// of every author whose answer was accepted.
func removeQuestion(ctx context.Context, tx repository.Store, q *model.Question) error {
	answers, err := tx.ListAnswersByQuestion(ctx, q.ID)
	if err != nil {
		return err
	}
	for _, a := range answers {
		if _, err := ensureProfile(ctx, tx, a.AuthorID); err != nil {
			return err
		}
	}
	for _, a := range answers {
		if !a.IsAccepted {
			continue
		}
		if err := tx.AdjustResolvedQuestions(ctx, a.AuthorID, -1); err != nil {
			return err
		}
	}
	return tx.DeleteQuestion(ctx, q.ID)
}

// findReplacement returns another accepted answer of the question, or nil.
// Only reachable when more than one answer ended up accepted; the earliest
// one (then lowest id) wins.
func findReplacement(ctx context.Context, tx repository.Store, questionID, excludeID string) (*model.Answer, error) {
	accepted, err := tx.ListAcceptedAnswers(ctx, questionID)
	if err != nil {
		return nil, err
	}
	for i := range accepted {
		if accepted[i].ID != excludeID {
			return &accepted[i], nil
		}
	}
	return nil, nil
}

// adjustResolved moves the author's counter by delta, creating the profile
// first if the author has none. The store floors the counter at zero.
func adjustResolved(ctx context.Context, tx repository.Store, userID string, delta int) error {
	if _, err := ensureProfile(ctx, tx, userID); err != nil {
		return err
	}
	return tx.AdjustResolvedQuestions(ctx, userID, delta)
}

// ensureProfile returns the user's expert profile, creating an empty one named
// after the user when missing.
func ensureProfile(ctx context.Context, tx repository.Store, userID string) (*model.ExpertProfile, error) {
	p, err := optional(tx.GetProfile(ctx, userID))
	if err != nil || p != nil {
		return p, err
	}
	u, err := tx.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return tx.EnsureExpertProfile(ctx, userID, u.FullName())
}

// answerOf loads an answer and checks it belongs to the question.
func answerOf(ctx context.Context, st repository.Store, questionID, answerID string) (*model.Answer, error) {
	a, err := st.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, err
	}
	if a.QuestionID != questionID {
		return nil, apperror.NotFound("answer", answerID)
	}
	return a, nil
}

func isRecordedAnswer(q *model.Question, answerID string) bool {
	return q.AcceptedAnswerID != nil && *q.AcceptedAnswerID == answerID
}
