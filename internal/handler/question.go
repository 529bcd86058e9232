package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/skillgig-backend/internal/apperror"
	"github.com/sakif/skillgig-backend/internal/dto"
	"github.com/sakif/skillgig-backend/internal/model"
	"github.com/sakif/skillgig-backend/internal/service"
)

// QuestionHandler exposes the question lifecycle.
//
// HTTP ↔ SERVICE:
//
//	GET    /questions              → List (public)
//	GET    /questions/{id}         → Get (public)
//	POST   /questions              → Create
//	PUT    /questions/{id}         → Update (owner)
//	DELETE /questions/{id}         → Delete (owner)
//	POST   /questions/{id}/submit  → Submit (owner)
type QuestionHandler struct {
	questions *service.QuestionService
	logger    *slog.Logger
}

func NewQuestionHandler(questions *service.QuestionService, logger *slog.Logger) *QuestionHandler {
	return &QuestionHandler{questions: questions, logger: logger}
}

// HandleList returns a page of questions.
//
// QUERY PARAMETERS:
//
//	limit        1..100, default 20
//	offset       >= 0, default 0
//	category     exact match
//	difficulty   exact match
//	statusFilter (or status_filter) default "published"; "all" disables it
//	tags         repeatable, also accepted as tags[]; all must be present
func (h *QuestionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.questions.List(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func parseListParams(q url.Values) (dto.QuestionListParams, error) {
	p := dto.QuestionListParams{
		Limit:        service.DefaultListLimit,
		Category:     q.Get("category"),
		Difficulty:   q.Get("difficulty"),
		StatusFilter: model.StatusPublished,
	}

	var err error
	if p.Limit, err = intParam(q, "limit", p.Limit); err != nil {
		return p, err
	}
	if p.Offset, err = intParam(q, "offset", 0); err != nil {
		return p, err
	}

	switch {
	case q.Has("statusFilter"):
		p.StatusFilter = q.Get("statusFilter")
	case q.Has("status_filter"):
		p.StatusFilter = q.Get("status_filter")
	}

	p.Tags = append(p.Tags, q["tags"]...)
	p.Tags = append(p.Tags, q["tags[]"]...)
	p.Tags = model.Normalize(p.Tags)

	return p, validateStruct(&p)
}

func intParam(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, "value is not a valid integer")
	}
	return n, nil
}

// HandleGet returns one question.
//
// HTTP: GET /questions/{id}
func (h *QuestionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	q, err := h.questions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// HandleCreate posts a question owned by the caller.
//
// HTTP: POST /questions
// RESPONSE: 201 with the question view
func (h *QuestionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.QuestionCreateRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	q, err := h.questions.Create(r.Context(), currentUser(r).ID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// HandleUpdate applies a partial update.
//
// HTTP: PUT /questions/{id}
func (h *QuestionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.QuestionUpdateRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	q, err := h.questions.Update(r.Context(), chi.URLParam(r, "id"), currentUser(r).ID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// HandleDelete removes the question and its answers.
//
// HTTP: DELETE /questions/{id}
// RESPONSE: 204 No Content
func (h *QuestionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.questions.Delete(r.Context(), chi.URLParam(r, "id"), currentUser(r).ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSubmit moves the question to "submitted".
//
// HTTP: POST /questions/{id}/submit
func (h *QuestionHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	q, err := h.questions.Submit(r.Context(), chi.URLParam(r, "id"), currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
