// Package dto holds the JSON shapes exchanged over the HTTP API: request
// payloads (with their validation rules) and the public views built from the
// stored models.
//
// Field names are camelCase on the wire. Update payloads use pointer fields so
// "not sent" (nil) can be told apart from "sent empty".
package dto

import "time"

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email,max=255"`
	Password  string  `json:"password" validate:"required,min=1,max=72"`
	Role      string  `json:"role" validate:"omitempty,max=50"`
	Username  *string `json:"username" validate:"omitempty,min=1,max=100"`
	FirstName string  `json:"firstName" validate:"max=100"`
	LastName  string  `json:"lastName" validate:"max=100"`
}

// LoginRequest is the form body of POST /auth/login. Username accepts either
// the email address or the username.
type LoginRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// QuestionCreateRequest is the body of POST /questions.
type QuestionCreateRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"required"`
	CodeExample *string    `json:"codeExample"`
	Category    string     `json:"category" validate:"required,max=100"`
	Subcategory *string    `json:"subcategory" validate:"omitempty,max=100"`
	Difficulty  *string    `json:"difficulty" validate:"omitempty,max=50"`
	Tags        []string   `json:"tags" validate:"max=50,dive,max=50"`
	Links       []string   `json:"links" validate:"max=20,dive,max=2048"`
	CodeLink    *string    `json:"codeLink" validate:"omitempty,max=2048"`
	Deadline    *time.Time `json:"deadline"`
	Status      string     `json:"status" validate:"omitempty,oneof=draft published submitted closed"`
}

// QuestionUpdateRequest is the body of PUT /questions/{id}. Every field is
// optional.
type QuestionUpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description" validate:"omitempty,min=1"`
	CodeExample *string    `json:"codeExample"`
	Category    *string    `json:"category" validate:"omitempty,min=1,max=100"`
	Subcategory *string    `json:"subcategory" validate:"omitempty,max=100"`
	Difficulty  *string    `json:"difficulty" validate:"omitempty,max=50"`
	Tags        *[]string  `json:"tags" validate:"omitempty,max=50,dive,max=50"`
	Links       *[]string  `json:"links" validate:"omitempty,max=20,dive,max=2048"`
	CodeLink    *string    `json:"codeLink" validate:"omitempty,max=2048"`
	Deadline    *time.Time `json:"deadline"`
	Status      *string    `json:"status" validate:"omitempty,oneof=draft published submitted closed"`
}

// QuestionListParams are the query parameters of GET /questions.
type QuestionListParams struct {
	Limit        int `validate:"min=1,max=100"`
	Offset       int `validate:"min=0"`
	Category     string
	Difficulty   string
	StatusFilter string
	Tags         []string
}

// AnswerCreateRequest is the body of POST /questions/{id}/answers.
type AnswerCreateRequest struct {
	AnswerText  string   `json:"answerText" validate:"required,min=1"`
	CodeExample *string  `json:"codeExample"`
	Links       []string `json:"links" validate:"max=20,dive,max=2048"`
}

// AnswerUpdateRequest is the body of PUT /questions/{id}/answers/{aid}.
type AnswerUpdateRequest struct {
	AnswerText  *string   `json:"answerText" validate:"omitempty,min=1"`
	CodeExample *string   `json:"codeExample"`
	Links       *[]string `json:"links" validate:"omitempty,max=20,dive,max=2048"`
}

// VerifyRequest is the body of POST /questions/{id}/answers/{aid}/verify.
// A pointer so that a missing isCorrect fails validation instead of meaning
// "false".
type VerifyRequest struct {
	IsCorrect *bool `json:"isCorrect" validate:"required"`
}

// ProfileUpdateRequest is the body of PUT /users/me/profile.
type ProfileUpdateRequest struct {
	FullName        *string   `json:"fullName" validate:"omitempty,max=255"`
	Bio             *string   `json:"bio" validate:"omitempty,max=5000"`
	PrimaryRole     *string   `json:"primaryRole" validate:"omitempty,max=100"`
	Skills          *[]string `json:"skills" validate:"omitempty,max=50,dive,max=50"`
	GitHubURL       *string   `json:"githubUrl" validate:"omitempty,max=2048"`
	LinkedInURL     *string   `json:"linkedinUrl" validate:"omitempty,max=2048"`
	PortfolioURL    *string   `json:"portfolioUrl" validate:"omitempty,max=2048"`
	ExperienceYears *int      `json:"experienceYears" validate:"omitempty,min=0,max=80"`
}
