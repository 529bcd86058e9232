package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/skillgig-backend/internal/apperror"
	"github.com/sakif/skillgig-backend/internal/dto"
	"github.com/sakif/skillgig-backend/internal/metrics"
	"github.com/sakif/skillgig-backend/internal/model"
	"github.com/sakif/skillgig-backend/internal/repository"
)

// StatusFilterAll disables status filtering in List.
const StatusFilterAll = "all"

// Statuses a client may set directly. "resolved" is only ever set by the
// acceptance engine.
var clientStatuses = map[string]bool{
	model.StatusDraft:     true,
	model.StatusPublished: true,
	model.StatusSubmitted: true,
	model.StatusClosed:    true,
}

// QuestionService handles the question lifecycle.
type QuestionService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewQuestionService(store repository.Store, logger *slog.Logger) *QuestionService {
	return &QuestionService{store: store, logger: logger}
}

// Create saves a new question owned by ownerID.
//
// Tags and links are trimmed and empty entries dropped. A code link that is
// not already among the links goes in front of them. Status defaults to
// published.
func (s *QuestionService) Create(ctx context.Context, ownerID string, req dto.QuestionCreateRequest) (*dto.QuestionView, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if strings.TrimSpace(req.Category) == "" {
		return nil, apperror.ValidationFailed("category", "category is required")
	}

	status := req.Status
	if status == "" {
		status = model.StatusPublished
	}
	if !clientStatuses[status] {
		return nil, invalidStatus(status)
	}

	q := &model.Question{
		Title:       title,
		Description: req.Description,
		CodeExample: req.CodeExample,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Difficulty:  req.Difficulty,
		Tags:        model.Normalize(req.Tags),
		Links:       withCodeLink(model.Normalize(req.Links), req.CodeLink),
		Deadline:    req.Deadline,
		Status:      status,
		ClientID:    ownerID,
	}

	if err := s.store.CreateQuestion(ctx, q); err != nil {
		s.logger.Error("failed to create question",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, wrap(err, "creating question")
	}

	metrics.QuestionCreated()
	s.logger.Info("question created",
		slog.String("id", q.ID),
		slog.String("ownerID", ownerID),
		slog.String("status", q.Status),
	)
	return s.view(ctx, q)
}

// Get returns one question.
func (s *QuestionService) Get(ctx context.Context, id string) (*dto.QuestionView, error) {
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return nil, wrap(err, "loading question %s", id)
	}
	return s.view(ctx, q)
}

// Update applies a partial update. Only the owner may update.
//
// Tags and links are replaced (after normalisation) when present. A code link
// is merged into the links instead of replacing them.
//
// The read and the write share one transaction. UpdateQuestion writes
// accepted_answer_id too, so a verify committed in between would otherwise be
// undone by the stale copy.
func (s *QuestionService) Update(ctx context.Context, id, ownerID string, req dto.QuestionUpdateRequest) (*dto.QuestionView, error) {
	var q *model.Question
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		if q, err = s.owned(ctx, tx, id, ownerID, "update"); err != nil {
			return err
		}
		if err := applyUpdate(q, req); err != nil {
			return err
		}
		return tx.UpdateQuestion(ctx, q)
	})
	if err != nil {
		return nil, wrap(err, "updating question %s", id)
	}
	return s.view(ctx, q)
}

func applyUpdate(q *model.Question, req dto.QuestionUpdateRequest) error {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return apperror.ValidationFailed("title", "title must not be empty")
		}
		q.Title = title
	}
	if req.Description != nil {
		q.Description = *req.Description
	}
	if req.CodeExample != nil {
		q.CodeExample = req.CodeExample
	}
	if req.Category != nil {
		q.Category = *req.Category
	}
	if req.Subcategory != nil {
		q.Subcategory = req.Subcategory
	}
	if req.Difficulty != nil {
		q.Difficulty = req.Difficulty
	}
	if req.Tags != nil {
		q.Tags = model.Normalize(*req.Tags)
	}
	if req.Links != nil {
		q.Links = model.Normalize(*req.Links)
	}
	q.Links = withCodeLink(q.Links, req.CodeLink)
	if req.Deadline != nil {
		q.Deadline = req.Deadline
	}
	if req.Status != nil {
		if !clientStatuses[*req.Status] {
			return invalidStatus(*req.Status)
		}
		q.Status = *req.Status
	}
	return nil
}

// Delete removes the owner's question with all its answers. Authors whose
// answer was accepted lose that point.
func (s *QuestionService) Delete(ctx context.Context, id, ownerID string) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		q, err := s.owned(ctx, tx, id, ownerID, "delete")
		if err != nil {
			return err
		}
		return removeQuestion(ctx, tx, q)
	})
	if err != nil {
		return wrap(err, "deleting question %s", id)
	}

	s.logger.Info("question deleted", slog.String("id", id), slog.String("ownerID", ownerID))
	return nil
}

// Submit moves the owner's question to submitted. Like Update, it reads and
// writes inside one transaction.
func (s *QuestionService) Submit(ctx context.Context, id, ownerID string) (*dto.QuestionView, error) {
	var q *model.Question
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		if q, err = s.owned(ctx, tx, id, ownerID, "submit"); err != nil {
			return err
		}
		q.Status = model.StatusSubmitted
		return tx.UpdateQuestion(ctx, q)
	})
	if err != nil {
		return nil, wrap(err, "submitting question %s", id)
	}
	return s.view(ctx, q)
}

// List returns a page of questions, newest first.
//
// STATUS FILTER:
//
//	"published"      → published or resolved
//	"all" or ""      → any status
//	anything else    → that exact status
func (s *QuestionService) List(ctx context.Context, p dto.QuestionListParams) (*dto.QuestionList, error) {
	if p.Limit < 1 || p.Limit > MaxListLimit {
		return nil, apperror.ValidationFailed("limit",
			fmt.Sprintf("limit must be between 1 and %d", MaxListLimit))
	}
	if p.Offset < 0 {
		return nil, apperror.ValidationFailed("offset", "offset must not be negative")
	}

	filter := repository.QuestionFilter{
		Category:   p.Category,
		Difficulty: p.Difficulty,
		Statuses:   statusGroup(p.StatusFilter),
		Tags:       model.Normalize(p.Tags),
		Limit:      p.Limit,
		Offset:     p.Offset,
	}

	items, total, err := s.store.ListQuestions(ctx, filter)
	if err != nil {
		return nil, wrap(err, "listing questions")
	}
	views, err := questionViews(ctx, s.store, items)
	if err != nil {
		return nil, wrap(err, "loading questions")
	}
	return &dto.QuestionList{Total: total, Items: views}, nil
}

// ListByClient returns every question the user owns, newest first.
func (s *QuestionService) ListByClient(ctx context.Context, clientID string) ([]dto.QuestionView, error) {
	items, err := s.store.ListQuestionsByClient(ctx, clientID)
	if err != nil {
		return nil, wrap(err, "listing questions of %s", clientID)
	}
	views, err := questionViews(ctx, s.store, items)
	if err != nil {
		return nil, wrap(err, "loading questions of %s", clientID)
	}
	return views, nil
}

// owned loads a question and checks ownerID owns it. action goes into the
// Forbidden message.
func (s *QuestionService) owned(ctx context.Context, st repository.Store, id, ownerID, action string) (*model.Question, error) {
	q, err := st.GetQuestion(ctx, id)
	if err != nil {
		return nil, wrap(err, "loading question %s", id)
	}
	if q.ClientID != ownerID {
		return nil, apperror.Forbidden(fmt.Sprintf("You can only %s your own questions", action))
	}
	return q, nil
}

func (s *QuestionService) view(ctx context.Context, q *model.Question) (*dto.QuestionView, error) {
	v, err := questionView(ctx, s.store, q)
	if err != nil {
		return nil, wrap(err, "loading question %s", q.ID)
	}
	return &v, nil
}

func statusGroup(filter string) []string {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "", StatusFilterAll:
		return nil
	case model.StatusPublished:
		return []string{model.StatusPublished, model.StatusResolved}
	default:
		return []string{filter}
	}
}

// withCodeLink puts codeLink in front of links unless it is already there.
func withCodeLink(links model.StringList, codeLink *string) model.StringList {
	if codeLink == nil {
		return links
	}
	cl := strings.TrimSpace(*codeLink)
	if cl == "" || links.Contains(cl) {
		return links
	}
	return append(model.StringList{cl}, links...)
}

func invalidStatus(status string) error {
	return apperror.ValidationFailed("status",
		fmt.Sprintf("status %q cannot be set directly", status))
}
