package service

import (
	"context"
	"log/slog"

	"github.com/sakif/skillgig-backend/internal/apperror"
	"github.com/sakif/skillgig-backend/internal/dto"
	"github.com/sakif/skillgig-backend/internal/model"
	"github.com/sakif/skillgig-backend/internal/repository"
)

// Path segments under /users that are routes of their own, never user ids.
var reservedUserIDs = map[string]bool{
	"me":      true,
	"experts": true,
	"profile": true,
}

// UserService serves user profiles and account management.
type UserService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewUserService(store repository.Store, logger *slog.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

// Get returns the public view of a user.
func (s *UserService) Get(ctx context.Context, id string) (*dto.UserView, error) {
	if reservedUserIDs[id] {
		return nil, apperror.NotFound("user", id)
	}
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, wrap(err, "loading user %s", id)
	}
	return s.View(ctx, u)
}

// ListExperts returns active users who are experts by role or have a profile.
func (s *UserService) ListExperts(ctx context.Context) ([]dto.UserView, error) {
	users, err := s.store.ListExperts(ctx)
	if err != nil {
		return nil, wrap(err, "listing experts")
	}
	out := make([]dto.UserView, 0, len(users))
	for i := range users {
		v, err := userView(ctx, s.store, &users[i])
		if err != nil {
			return nil, wrap(err, "loading expert %s", users[i].ID)
		}
		out = append(out, v)
	}
	return out, nil
}

// UpdateProfile creates the caller's expert profile if needed and applies the
// fields that were sent. The counter and rating cannot be set this way.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req dto.ProfileUpdateRequest) (*dto.ExpertProfileView, error) {
	var profile *model.ExpertProfile
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		p, err := tx.EnsureExpertProfile(ctx, userID, "")
		if err != nil {
			return err
		}

		if req.FullName != nil {
			p.FullName = *req.FullName
		}
		if req.Bio != nil {
			p.Bio = *req.Bio
		}
		if req.PrimaryRole != nil {
			p.PrimaryRole = *req.PrimaryRole
		}
		if req.Skills != nil {
			p.Skills = model.Normalize(*req.Skills)
		}
		if req.GitHubURL != nil {
			p.GitHubURL = *req.GitHubURL
		}
		if req.LinkedInURL != nil {
			p.LinkedInURL = *req.LinkedInURL
		}
		if req.PortfolioURL != nil {
			p.PortfolioURL = *req.PortfolioURL
		}
		if req.ExperienceYears != nil {
			if *req.ExperienceYears < 0 {
				return apperror.ValidationFailed("experienceYears", "experience years must not be negative")
			}
			p.ExperienceYears = *req.ExperienceYears
		}

		if err := tx.SaveProfile(ctx, p); err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, wrap(err, "updating profile of %s", userID)
	}

	s.logger.Info("expert profile updated", slog.String("userID", userID))
	return dto.NewExpertProfileView(profile), nil
}

// DeleteAccount removes a user and everything they own.
//
// CASCADE ORDER (one transaction):
//  1. The user's questions, with the counters of accepted authors taken back.
//  2. The user's answers on other questions, repairing those questions.
//  3. The profile, then the user row.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetUserByID(ctx, userID); err != nil {
			return err
		}

		questions, err := tx.ListQuestionsByClient(ctx, userID)
		if err != nil {
			return err
		}
		for i := range questions {
			if err := removeQuestion(ctx, tx, &questions[i]); err != nil {
				return err
			}
		}

		answers, err := tx.ListAnswersByAuthor(ctx, userID)
		if err != nil {
			return err
		}
		for i := range answers {
			if err := removeAnswer(ctx, tx, &answers[i]); err != nil {
				return err
			}
		}

		if err := tx.DeleteProfile(ctx, userID); err != nil {
			return err
		}
		return tx.DeleteUser(ctx, userID)
	})
	if err != nil {
		return wrap(err, "deleting account %s", userID)
	}

	s.logger.Info("account deleted", slog.String("userID", userID))
	return nil
}

// View returns the public view of an already loaded user.
func (s *UserService) View(ctx context.Context, u *model.User) (*dto.UserView, error) {
	v, err := userView(ctx, s.store, u)
	if err != nil {
		return nil, wrap(err, "loading user %s", u.ID)
	}
	return &v, nil
}
