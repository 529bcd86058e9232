package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/skillgig-backend/internal/apperror"
	"github.com/sakif/skillgig-backend/internal/auth"
	"github.com/sakif/skillgig-backend/internal/dto"
	"github.com/sakif/skillgig-backend/internal/metrics"
	"github.com/sakif/skillgig-backend/internal/model"
	"github.com/sakif/skillgig-backend/internal/repository"
)

const (
	duplicateUserMessage = "User with this email or username already exists"
	badLoginMessage      = "Incorrect username or password"
	inactiveUserMessage  = "Inactive user"
	tokenTypeBearer      = "Bearer"
)

// TokenTTLs are the lifetimes of issued tokens.
type TokenTTLs struct {
	Access  time.Duration
	Refresh time.Duration
}

// AuthService is the business logic layer for authentication:
//
//	AuthHandler (HTTP) → AuthService (rules) → Store (users, profiles)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// KEY RESPONSIBILITIES:
//   - Registration with email/password, including the expert profile seed
//   - Login by email or username, and refresh-token rotation
//   - GitHub sign-in: find the account by GitHub id, then by email, else create
//   - Resolving the active user behind an access token
//
// DEPENDENCIES (injected via NewAuthService):
//   - store      repository.Store        → users and expert profiles
//   - tokens     *auth.TokenService      → issue/decode JWTs
//   - passwords  *auth.PasswordService   → bcrypt hashing
//   - ttl        TokenTTLs               → access/refresh lifetimes
//   - logger     *slog.Logger
type AuthService struct {
	store     repository.Store
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	ttl       TokenTTLs
	logger    *slog.Logger
}

func NewAuthService(
	store repository.Store,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	ttl TokenTTLs,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		tokens:    tokens,
		passwords: passwords,
		ttl:       ttl,
		logger:    logger,
	}
}

// Register creates a password account.
//
// The email is stored lower-cased. An expert who gave a first or last name
// gets an expert profile straight away, named after them, with primary role
// "expert".
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserView, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	var username *string
	if req.Username != nil {
		if u := strings.TrimSpace(*req.Username); u != "" {
			username = &u
		}
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = model.RoleClient
	}

	if err := s.checkAvailable(ctx, email, username); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:          email,
		Username:       username,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Role:           role,
		HashedPassword: hash,
		IsActive:       true,
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		fullName := user.FullName()
		if role != model.RoleExpert || fullName == "" {
			return nil
		}
		profile, err := tx.EnsureExpertProfile(ctx, user.ID, fullName)
		if err != nil {
			return err
		}
		profile.PrimaryRole = model.RoleExpert
		return tx.SaveProfile(ctx, profile)
	})
	if err != nil {
		return nil, wrap(err, "registering %s", email)
	}

	metrics.UserRegistered(role, "password")
	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("role", role),
	)

	view, err := userView(ctx, s.store, user)
	if err != nil {
		return nil, wrap(err, "loading user %s", user.ID)
	}
	return &view, nil
}

func (s *AuthService) checkAvailable(ctx context.Context, email string, username *string) error {
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return apperror.Conflict("email", duplicateUserMessage)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return wrap(err, "checking email")
	}
	if username == nil {
		return nil
	}
	if _, err := s.store.GetUserByUsername(ctx, *username); err == nil {
		return apperror.Conflict("username", duplicateUserMessage)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return wrap(err, "checking username")
	}
	return nil
}

// Login checks a password against the account found by email (case
// insensitive) or username. Unknown account and wrong password produce the
// same error.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*dto.TokenResponse, error) {
	user, err := s.findByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials(badLoginMessage)
		}
		return nil, wrap(err, "looking up account")
	}

	if err := s.passwords.Verify(user.HashedPassword, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected", slog.String("userID", user.ID))
			return nil, apperror.InvalidCredentials(badLoginMessage)
		}
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !user.IsActive {
		return nil, apperror.InvalidCredentials(inactiveUserMessage)
	}

	return s.issue(ctx, user)
}

func (s *AuthService) findByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(identifier))
	if err == nil || !errors.Is(err, apperror.ErrNotFound) {
		return user, err
	}
	return s.store.GetUserByUsername(ctx, identifier)
}

// Refresh trades a valid refresh token for a new token pair. The password is
// not checked again.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	userID, err := s.tokens.Decode(refreshToken, auth.KindRefresh)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid refresh token")
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("User not found")
		}
		return nil, wrap(err, "loading user %s", userID)
	}
	return s.issue(ctx, user)
}

// LoginWithGitHub signs in the account linked to a GitHub user.
//
// LOOKUP ORDER:
//  1. An account already linked to this GitHub id.
//  2. An account with the same (verified) email: it gets linked.
//  3. Otherwise a new client account without a password. The GitHub login
//     becomes the username when nobody holds it yet.
func (s *AuthService) LoginWithGitHub(ctx context.Context, gh *auth.GitHubUser) (*dto.TokenResponse, error) {
	if gh == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	var (
		user    *model.User
		created bool
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		u, err := optional(tx.GetUserByGitHubID(ctx, gh.ID))
		if err != nil || u != nil {
			user = u
			return err
		}

		email := strings.ToLower(gh.Email)
		if u, err = optional(tx.GetUserByEmail(ctx, email)); err != nil {
			return err
		}
		if u != nil {
			if err := tx.LinkGitHubAccount(ctx, u.ID, gh.ID); err != nil {
				return err
			}
			u.GitHubID = &gh.ID
			user = u
			return nil
		}

		first, last := splitName(gh.Name)
		githubID := gh.ID
		u = &model.User{
			Email:     email,
			FirstName: first,
			LastName:  last,
			Role:      model.RoleClient,
			IsActive:  true,
			GitHubID:  &githubID,
		}
		if login := strings.TrimSpace(gh.Login); login != "" {
			taken, err := optional(tx.GetUserByUsername(ctx, login))
			if err != nil {
				return err
			}
			if taken == nil {
				u.Username = &login
			}
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		user, created = u, true
		return nil
	})
	if err != nil {
		return nil, wrap(err, "signing in GitHub user %d", gh.ID)
	}

	if created {
		metrics.UserRegistered(user.Role, "github")
	}
	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", gh.Login),
		slog.Bool("created", created),
	)

	if !user.IsActive {
		return nil, apperror.InvalidCredentials(inactiveUserMessage)
	}
	return s.issue(ctx, user)
}

// ActiveUser resolves the user behind an access token. A user that no longer
// exists is Unauthorized; a deactivated one is InvalidCredentials.
func (s *AuthService) ActiveUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("User not found")
		}
		return nil, wrap(err, "loading user %s", userID)
	}
	if !user.IsActive {
		return nil, apperror.InvalidCredentials(inactiveUserMessage)
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *model.User) (*dto.TokenResponse, error) {
	access, err := s.tokens.Issue(user.ID, auth.KindAccess, s.ttl.Access)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing access token for %s: %w", user.ID, err)
	}
	refresh, err := s.tokens.Issue(user.ID, auth.KindRefresh, s.ttl.Refresh)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing refresh token for %s: %w", user.ID, err)
	}
	view, err := userView(ctx, s.store, user)
	if err != nil {
		return nil, wrap(err, "loading user %s", user.ID)
	}
	return &dto.TokenResponse{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(s.ttl.Access / time.Second),
		User:         view,
	}, nil
}

func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}
