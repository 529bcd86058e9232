package dto

import (
	"time"

	"github.com/sakif/skillgig-backend/internal/catalog"
	"github.com/sakif/skillgig-backend/internal/model"
)

// ExpertProfileView is the public form of an expert profile.
type ExpertProfileView struct {
	FullName          string   `json:"fullName"`
	Bio               string   `json:"bio"`
	PrimaryRole       string   `json:"primaryRole"`
	Skills            []string `json:"skills"`
	GitHubURL         string   `json:"githubUrl"`
	LinkedInURL       string   `json:"linkedinUrl"`
	PortfolioURL      string   `json:"portfolioUrl"`
	ExperienceYears   int      `json:"experienceYears"`
	AverageRating     float64  `json:"averageRating"`
	ResolvedQuestions int      `json:"resolvedQuestions"`
}

// NewExpertProfileView returns nil for a nil profile.
func NewExpertProfileView(p *model.ExpertProfile) *ExpertProfileView {
	if p == nil {
		return nil
	}
	skills := []string(p.Skills)
	if skills == nil {
		skills = []string{}
	}
	return &ExpertProfileView{
		FullName:          p.FullName,
		Bio:               p.Bio,
		PrimaryRole:       p.PrimaryRole,
		Skills:            skills,
		GitHubURL:         p.GitHubURL,
		LinkedInURL:       p.LinkedInURL,
		PortfolioURL:      p.PortfolioURL,
		ExperienceYears:   p.ExperienceYears,
		AverageRating:     float64(p.AverageRating),
		ResolvedQuestions: p.ResolvedQuestions,
	}
}

// UserView is the public form of a user. The password hash never leaves the
// service.
type UserView struct {
	ID            string             `json:"id"`
	Email         string             `json:"email"`
	Username      *string            `json:"username"`
	FirstName     string             `json:"firstName"`
	LastName      string             `json:"lastName"`
	Role          string             `json:"role"`
	IsActive      bool               `json:"isActive"`
	CreatedAt     time.Time          `json:"createdAt"`
	ExpertProfile *ExpertProfileView `json:"expertProfile"`
	AnswersCount  int                `json:"answersCount"`
}

func NewUserView(u *model.User, profile *model.ExpertProfile, answersCount int) UserView {
	return UserView{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
		ExpertProfile: NewExpertProfileView(profile),
		AnswersCount:  answersCount,
	}
}

// RegisterResponse is returned by POST /auth/register.
type RegisterResponse struct {
	User UserView `json:"user"`
}

// TokenResponse is returned by login, refresh and the GitHub callback.
type TokenResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	TokenType    string   `json:"tokenType"`
	ExpiresIn    int64    `json:"expiresIn"`
	User         UserView `json:"user"`
}

// QuestionView is the public form of a question.
type QuestionView struct {
	ID               string             `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	CodeExample      *string            `json:"codeExample"`
	Category         string             `json:"category"`
	Subcategory      *string            `json:"subcategory"`
	Difficulty       *string            `json:"difficulty"`
	Tags             []string           `json:"tags"`
	Links            []string           `json:"links"`
	CodeLink         *string            `json:"codeLink"`
	Deadline         *time.Time         `json:"deadline"`
	Status           string             `json:"status"`
	ClientID         string             `json:"clientId"`
	ClientName       string             `json:"clientName"`
	ClientEmail      *string            `json:"clientEmail"`
	ClientRole       *string            `json:"clientRole"`
	ClientProfile    *ExpertProfileView `json:"clientProfile"`
	AnswersCount     int                `json:"answersCount"`
	IsSolved         bool               `json:"isSolved"`
	AcceptedAnswerID *string            `json:"acceptedAnswerId"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// NewQuestionView builds the view. client and clientProfile may be nil; a
// missing client shows up as the anonymous name.
func NewQuestionView(q *model.Question, client *model.User, clientProfile *model.ExpertProfile, answersCount int) QuestionView {
	v := QuestionView{
		ID:               q.ID,
		Title:            q.Title,
		Description:      q.Description,
		CodeExample:      q.CodeExample,
		Category:         q.Category,
		Subcategory:      q.Subcategory,
		Difficulty:       q.Difficulty,
		Tags:             nonNil(q.Tags),
		Links:            nonNil(q.Links),
		Deadline:         q.Deadline,
		Status:           q.Status,
		ClientID:         q.ClientID,
		ClientName:       ClientName(client),
		ClientProfile:    NewExpertProfileView(clientProfile),
		AnswersCount:     answersCount,
		IsSolved:         q.IsSolved(),
		AcceptedAnswerID: q.AcceptedAnswerID,
		CreatedAt:        q.CreatedAt,
		UpdatedAt:        q.UpdatedAt,
	}
	if len(q.Links) > 0 {
		first := q.Links[0]
		v.CodeLink = &first
	}
	if client != nil {
		v.ClientEmail = &client.Email
		v.ClientRole = &client.Role
	}
	return v
}

// ClientName is the display name of a user, or model.AnonymousName when the
// user is absent or has nothing to show.
func ClientName(u *model.User) string {
	if u == nil {
		return model.AnonymousName
	}
	if name := u.DisplayName(); name != "" {
		return name
	}
	return model.AnonymousName
}

// QuestionList is the paged result of GET /questions.
type QuestionList struct {
	Total int            `json:"total"`
	Items []QuestionView `json:"items"`
}

// AnswerView is the public form of an answer.
type AnswerView struct {
	ID                 string             `json:"id"`
	QuestionID         string             `json:"questionId"`
	QuestionTitle      *string            `json:"questionTitle"`
	AuthorID           string             `json:"authorId"`
	AuthorAnswersCount int                `json:"authorAnswersCount"`
	AuthorEmail        *string            `json:"authorEmail"`
	AuthorRole         *string            `json:"authorRole"`
	AuthorProfile      *ExpertProfileView `json:"authorProfile"`
	AnswerText         string             `json:"answerText"`
	CodeExample        *string            `json:"codeExample"`
	Links              []string           `json:"links"`
	ExpertName         string             `json:"expertName"`
	ExpertRating       float64            `json:"expertRating"`
	IsAccepted         bool               `json:"isAccepted"`
	CreatedAt          time.Time          `json:"createdAt"`
}

// NewAnswerView builds the view. question, author and authorProfile may be
// nil. ExpertName is the snapshot taken at creation, falling back to the
// author's current display name when the snapshot is empty.
func NewAnswerView(a *model.Answer, question *model.Question, author *model.User, authorProfile *model.ExpertProfile, authorAnswers int) AnswerView {
	v := AnswerView{
		ID:                 a.ID,
		QuestionID:         a.QuestionID,
		AuthorID:           a.AuthorID,
		AuthorAnswersCount: authorAnswers,
		AuthorProfile:      NewExpertProfileView(authorProfile),
		AnswerText:         a.AnswerText,
		CodeExample:        a.CodeExample,
		Links:              nonNil(a.Links),
		ExpertRating:       a.ExpertRating,
		IsAccepted:         a.IsAccepted,
		CreatedAt:          a.CreatedAt,
	}
	if question != nil {
		v.QuestionTitle = &question.Title
	}
	if author != nil {
		v.AuthorEmail = &author.Email
		v.AuthorRole = &author.Role
	}
	if a.ExpertName != nil && *a.ExpertName != "" {
		v.ExpertName = *a.ExpertName
	} else {
		v.ExpertName = ClientName(author)
	}
	return v
}

// Stats is returned by GET /stats.
type Stats struct {
	TotalQuestions int     `json:"totalQuestions"`
	TotalExperts   int     `json:"totalExperts"`
	SuccessRate    float64 `json:"successRate"`
}

// CategoryView is one entry of GET /categories.
type CategoryView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Icon           string `json:"icon"`
	Description    string `json:"description"`
	TotalQuestions int    `json:"totalQuestions"`
}

func NewCategoryView(c catalog.Category, total int) CategoryView {
	return CategoryView{
		ID:             c.ID,
		Name:           c.Name,
		Icon:           c.Icon,
		Description:    c.Description,
		TotalQuestions: total,
	}
}

func nonNil(l model.StringList) []string {
	if l == nil {
		return []string{}
	}
	return []string(l)
}
