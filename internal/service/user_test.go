package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/skillgig-backend/internal/apperror"
	"github.com/sakif/skillgig-backend/internal/dto"
	"github.com/sakif/skillgig-backend/internal/model"
)

func TestUserGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	e := env.register(t, "e@example.com", model.RoleExpert, "Eve")
	q := env.ask(t, c.ID, nil)
	env.answer(t, q.ID, e.ID)

	got, err := env.users.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AnswersCount)
	require.NotNil(t, got.ExpertProfile)
	assert.Equal(t, "Eve", got.ExpertProfile.FullName)

	for _, id := range []string{"me", "experts", "profile", "missing"} {
		_, err := env.users.Get(ctx, id)
		assert.ErrorIs(t, err, apperror.ErrNotFound, id)
	}
}

func TestListExperts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	e := env.register(t, "e@example.com", model.RoleExpert, "")
	env.register(t, "c@example.com", model.RoleClient, "")
	helper := env.register(t, "h@example.com", model.RoleClient, "")

	_, err := env.users.UpdateProfile(ctx, helper.ID, dto.ProfileUpdateRequest{Bio: strPtr("I help")})
	require.NoError(t, err)

	experts, err := env.users.ListExperts(ctx)
	require.NoError(t, err)
	var ids []string
	for _, u := range experts {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{e.ID, helper.ID}, ids)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.register(t, "u@example.com", model.RoleClient, "Uma")

	skills := []string{" Go ", "", "SQL"}
	p, err := env.users.UpdateProfile(ctx, u.ID, dto.ProfileUpdateRequest{
		Bio:             strPtr("Backend"),
		Skills:          &skills,
		ExperienceYears: intPtr(7),
	})
	require.NoError(t, err)
	assert.Equal(t, "Backend", p.Bio)
	assert.Equal(t, []string{"Go", "SQL"}, p.Skills)
	assert.Equal(t, 7, p.ExperienceYears)

	p, err = env.users.UpdateProfile(ctx, u.ID, dto.ProfileUpdateRequest{FullName: strPtr("Uma Thurman")})
	require.NoError(t, err)
	assert.Equal(t, "Uma Thurman", p.FullName)
	assert.Equal(t, "Backend", p.Bio, "unsent fields kept")

	_, err = env.users.UpdateProfile(ctx, u.ID, dto.ProfileUpdateRequest{ExperienceYears: intPtr(-1)})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUpdateProfile_KeepsCounter(t *testing.T) {
	env := newTestEnv(t)
	c := env.register(t, "c@example.com", model.RoleClient, "")
	e := env.register(t, "e@example.com", model.RoleExpert, "Eve")
	q := env.ask(t, c.ID, nil)
	env.verify(t, q.ID, env.answer(t, q.ID, e.ID).ID, c.ID, true)

	p, err := env.users.UpdateProfile(context.Background(), e.ID, dto.ProfileUpdateRequest{Bio: strPtr("new")})
	require.NoError(t, err)
	assert.Equal(t, 1, p.ResolvedQuestions)
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	e := env.register(t, "e@example.com", model.RoleExpert, "Eve")
	other := env.register(t, "o@example.com", model.RoleExpert, "Otto")

	// c's own question, answered and accepted by e.
	own := env.ask(t, c.ID, nil)
	env.verify(t, own.ID, env.answer(t, own.ID, e.ID).ID, c.ID, true)

	// c answered other's question and got accepted.
	foreign := env.ask(t, other.ID, nil)
	cAnswer := env.answer(t, foreign.ID, c.ID)
	env.verify(t, foreign.ID, cAnswer.ID, other.ID, true)
	require.Equal(t, 1, env.resolved(t, e.ID))

	require.NoError(t, env.users.DeleteAccount(ctx, c.ID))

	assert.Equal(t, 0, env.resolved(t, e.ID), "points from the deleted question are taken back")
	_, err := env.store.GetUserByID(ctx, c.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = env.store.GetQuestion(ctx, own.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	q := env.question(t, foreign.ID)
	assert.Equal(t, model.StatusPublished, q.Status)
	assert.Nil(t, q.AcceptedAnswerID)

	assert.ErrorIs(t, env.users.DeleteAccount(ctx, c.ID), apperror.ErrNotFound)
}

func intPtr(i int) *int { return &i }
