package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/skillgig-backend/internal/dto"
	"github.com/sakif/skillgig-backend/internal/service"
)

// UserHandler serves the /users routes. The "me" routes need LoadActiveUser;
// the rest are public.
type UserHandler struct {
	users     *service.UserService
	questions *service.QuestionService
	answers   *service.AnswerService
	logger    *slog.Logger
}

func NewUserHandler(
	users *service.UserService,
	questions *service.QuestionService,
	answers *service.AnswerService,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		users:     users,
		questions: questions,
		answers:   answers,
		logger:    logger,
	}
}

// HandleMe: GET /users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	v, err := h.users.View(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleDeleteMe removes the caller's account and everything it owns.
//
// HTTP: DELETE /users/me → 204
func (h *UserHandler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteAccount(r.Context(), currentUser(r).ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateProfile creates or updates the caller's expert profile.
//
// HTTP: PUT /users/me/profile
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileUpdateRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.users.UpdateProfile(r.Context(), currentUser(r).ID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleMyQuestions: GET /users/me/questions
func (h *UserHandler) HandleMyQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := h.questions.ListByClient(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

// HandleMyAnswers: GET /users/me/answers
func (h *UserHandler) HandleMyAnswers(w http.ResponseWriter, r *http.Request) {
	as, err := h.answers.ListByAuthor(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, as)
}

// HandleExperts: GET /users/experts
func (h *UserHandler) HandleExperts(w http.ResponseWriter, r *http.Request) {
	experts, err := h.users.ListExperts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, experts)
}

// HandleGet serves both GET /users/profile/{id} and GET /users/{id}.
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
