package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/skillgig-backend/internal/auth"
	"github.com/sakif/skillgig-backend/internal/dto"
	"github.com/sakif/skillgig-backend/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandler manages registration, password login, token refresh and the
// GitHub OAuth login flow.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister       → create a password account
//   - HandleLogin          → form login, returns an access/refresh token pair
//   - HandleRefresh        → trade a refresh token for a new pair
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → receive the code, exchange it for a user, issue tokens
//
// DEPENDENCY CHAIN:
//   - auth   *service.AuthService   → all account rules
//   - github *auth.GitHubProvider   → performs the OAuth code exchange (nil when disabled)
type AuthHandler struct {
	auth   *service.AuthService
	github *auth.GitHubProvider
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil, in which case the
// GitHub routes must not be mounted.
func NewAuthHandler(authService *service.AuthService, github *auth.GitHubProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		github: github,
		logger: logger,
	}
}

// HandleRegister creates an account.
//
// HTTP: POST /auth/register
// RESPONSE: 201 {"user": {...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.RegisterResponse{User: *user})
}

// HandleLogin checks form credentials.
//
// HTTP: POST /auth/login
// BODY: application/x-www-form-urlencoded (or multipart) username=...&password=...
//
// "username" may hold either the email address or the username.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	// PostFormValue parses both urlencoded and multipart bodies.
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req := dto.LoginRequest{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, err)
		return
	}

	tokens, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// HandleRefresh issues a new token pair.
//
// HTTP: POST /auth/refresh
// BODY: {"refreshToken": "..."}
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	tokens, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state goes into a short-lived HttpOnly cookie and into the GitHub
// URL. The callback only proceeds when both match.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile
//  3. Find, link or create the account
//  4. Respond with the same token pair as a password login
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: invalid state")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_state",
			Message: "invalid OAuth state",
		})
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "access_denied",
			Message: "GitHub authorization was denied",
		})
		return
	}

	// --- Step 2: Exchange code for GitHub user profile ---
	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "missing OAuth code",
			Field:   "code",
		})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "github_error",
			Message: "GitHub authentication failed",
		})
		return
	}

	// --- Steps 3 and 4 ---
	tokens, err := h.auth.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}
