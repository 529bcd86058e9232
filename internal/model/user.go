// Package model defines the data structures used throughout the application.
//
// Models are plain records keyed by id. Relationships between them are explicit
// foreign-key fields (Question.ClientID, Answer.QuestionID, ExpertProfile.UserID);
// the repository layer provides the query methods that follow those links.
// There is no live object graph: loading a Question never loads its Answers.
package model

import (
	"strings"
	"time"
)

// Role values. Role is stored as free text, so any other string is accepted too.
const (
	RoleClient = "client"
	RoleExpert = "expert"
)

// AnonymousName is shown when a question's owner record is unexpectedly absent.
const AnonymousName = "Аноним"

// User represents a registered account.
//
// WHY Username *string?
// Username is optional but UNIQUE when present. A nil pointer maps to SQL NULL,
// and SQLite allows many NULLs under a UNIQUE constraint. An empty string would
// collide after the second user registered without a username.
//
// GitHubID is set only for accounts linked through GitHub sign-in.
// HashedPassword is empty for accounts created through GitHub; such accounts
// cannot log in with a password.
type User struct {
	ID             string    `db:"id"`
	Email          string    `db:"email"`
	Username       *string   `db:"username"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	Role           string    `db:"role"`
	HashedPassword string    `db:"hashed_password"`
	IsActive       bool      `db:"is_active"`
	GitHubID       *int64    `db:"github_id"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// FullName joins first and last name, skipping the empty ones.
func (u *User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// DisplayName falls back through full name → username → email.
func (u *User) DisplayName() string {
	if name := u.FullName(); name != "" {
		return name
	}
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return u.Email
}

// ExpertProfile is the reputation/bio record attached 1:1 to a user.
//
// ResolvedQuestions is a derived counter: it must always equal the number of
// answers by this user that are currently accepted. Only the acceptance engine
// in the service package changes it, and never below zero.
type ExpertProfile struct {
	ID                int64      `db:"id"`
	UserID            string     `db:"user_id"`
	FullName          string     `db:"full_name"`
	Bio               string     `db:"bio"`
	PrimaryRole       string     `db:"primary_role"`
	Skills            StringList `db:"skills"`
	GitHubURL         string     `db:"github_url"`
	LinkedInURL       string     `db:"linkedin_url"`
	PortfolioURL      string     `db:"portfolio_url"`
	ExperienceYears   int        `db:"experience_years"`
	AverageRating     int        `db:"average_rating"`
	ResolvedQuestions int        `db:"resolved_questions"`
}
