package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/skillgig-backend/internal/dto"
	"github.com/sakif/skillgig-backend/internal/service"
)

// AnswerHandler serves the answers nested under a question, including the
// owner's verification.
type AnswerHandler struct {
	answers *service.AnswerService
	logger  *slog.Logger
}

func NewAnswerHandler(answers *service.AnswerService, logger *slog.Logger) *AnswerHandler {
	return &AnswerHandler{answers: answers, logger: logger}
}

// HandleList: GET /questions/{id}/answers
func (h *AnswerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	answers, err := h.answers.ListByQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

// HandleCreate: POST /questions/{id}/answers → 201
func (h *AnswerHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.AnswerCreateRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	a, err := h.answers.Create(r.Context(), chi.URLParam(r, "id"), currentUser(r).ID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HandleUpdate: PUT /questions/{id}/answers/{aid}
func (h *AnswerHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.AnswerUpdateRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	a, err := h.answers.Update(r.Context(),
		chi.URLParam(r, "aid"), chi.URLParam(r, "id"), currentUser(r).ID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleDelete: DELETE /questions/{id}/answers/{aid} → 204
func (h *AnswerHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.answers.Delete(r.Context(), chi.URLParam(r, "aid"), chi.URLParam(r, "id"), currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerify marks an answer correct or incorrect.
//
// HTTP: POST /questions/{id}/answers/{aid}/verify
// BODY: {"isCorrect": true}
//
// Only the question owner may call it. The response is the answer after the
// change.
func (h *AnswerHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	a, err := h.answers.Verify(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "aid"), currentUser(r).ID, *req.IsCorrect)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
