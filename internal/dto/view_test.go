package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/skillgig-backend/internal/model"
)

func strPtr(s string) *string { return &s }

func TestClientName(t *testing.T) {
	tests := []struct {
		name string
		user *model.User
		want string
	}{
		{"missing user", nil, "Аноним"},
		{"full name", &model.User{FirstName: "Ada", LastName: "Lovelace", Email: "a@x.io"}, "Ada Lovelace"},
		{"first name only", &model.User{FirstName: "Ada", Email: "a@x.io"}, "Ada"},
		{"username", &model.User{Username: strPtr("ada"), Email: "a@x.io"}, "ada"},
		{"email", &model.User{Email: "a@x.io"}, "a@x.io"},
		{"nothing", &model.User{}, "Аноним"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClientName(tc.user))
		})
	}
}

func TestNewQuestionView(t *testing.T) {
	accepted := "a1"
	q := &model.Question{
		ID:               "q1",
		Title:            "Title",
		Links:            model.StringList{"https://first", "https://second"},
		Status:           model.StatusPublished,
		ClientID:         "u1",
		AcceptedAnswerID: &accepted,
		CreatedAt:        time.Now(),
	}
	client := &model.User{ID: "u1", Email: "c@example.com", Role: model.RoleClient}

	v := NewQuestionView(q, client, nil, 3)

	require.NotNil(t, v.CodeLink)
	assert.Equal(t, "https://first", *v.CodeLink)
	assert.Equal(t, "c@example.com", v.ClientName)
	assert.Equal(t, "c@example.com", *v.ClientEmail)
	assert.Equal(t, 3, v.AnswersCount)
	assert.True(t, v.IsSolved, "accepted answer makes the question solved")
	assert.Equal(t, []string{}, v.Tags)
	assert.Nil(t, v.ClientProfile)

	orphan := NewQuestionView(&model.Question{ID: "q2"}, nil, nil, 0)
	assert.Equal(t, "Аноним", orphan.ClientName)
	assert.Nil(t, orphan.ClientEmail)
	assert.Nil(t, orphan.CodeLink)
}

func TestNewAnswerView_ExpertNameFallback(t *testing.T) {
	author := &model.User{ID: "e1", Email: "e@example.com", FirstName: "Eve", Role: model.RoleExpert}

	snap := NewAnswerView(&model.Answer{ID: "a1", ExpertName: strPtr("Old Name")}, nil, author, nil, 1)
	assert.Equal(t, "Old Name", snap.ExpertName)
	assert.Nil(t, snap.QuestionTitle)

	fallback := NewAnswerView(&model.Answer{ID: "a2"}, &model.Question{Title: "Q"}, author, nil, 1)
	assert.Equal(t, "Eve", fallback.ExpertName)
	assert.Equal(t, "Q", *fallback.QuestionTitle)
	assert.Equal(t, []string{}, fallback.Links)
}

func TestUserView_JSONShape(t *testing.T) {
	u := &model.User{ID: "u1", Email: "u@example.com", Role: model.RoleExpert, IsActive: true, HashedPassword: "secret-hash"}
	p := &model.ExpertProfile{FullName: "U", ResolvedQuestions: 2}

	raw, err := json.Marshal(NewUserView(u, p, 4))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "u1", got["id"])
	assert.Equal(t, float64(4), got["answersCount"])
	assert.NotContains(t, string(raw), "secret-hash")

	profile, ok := got["expertProfile"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), profile["resolvedQuestions"])
	assert.Equal(t, []any{}, profile["skills"])
}
