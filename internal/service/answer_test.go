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

// =========================================================================
// CREATE / UPDATE
// =========================================================================

func TestAnswerCreate_SnapshotsAuthor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	e := env.register(t, "e@example.com", model.RoleExpert, "Eve")
	q := env.ask(t, c.ID, nil)

	a := env.answer(t, q.ID, e.ID)
	assert.Equal(t, "Eve", a.ExpertName)
	assert.Equal(t, q.Title, *a.QuestionTitle)
	assert.Equal(t, "e@example.com", *a.AuthorEmail)
	assert.Equal(t, 1, a.AuthorAnswersCount)
	assert.False(t, a.IsAccepted)
	assert.Equal(t, []string{}, a.Links)

	_, err := env.users.UpdateProfile(ctx, e.ID, dto.ProfileUpdateRequest{FullName: strPtr("Eve Renamed")})
	require.NoError(t, err)

	list, err := env.answers.ListByQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Eve", list[0].ExpertName, "snapshot is not resynced")
	assert.Equal(t, "Eve Renamed", list[0].AuthorProfile.FullName)
}

func TestAnswerCreate_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	e := env.register(t, "e@example.com", model.RoleExpert, "")

	_, err := env.answers.Create(ctx, "missing", e.ID, dto.AnswerCreateRequest{AnswerText: "x"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	q := env.ask(t, e.ID, nil)
	_, err = env.answers.Create(ctx, q.ID, e.ID, dto.AnswerCreateRequest{AnswerText: "   "})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// A question delete that starts while an answer is being posted waits for the
// insert, so the insert never trips the foreign key.
func TestAnswerCreate_QuestionDeletedMeanwhile(t *testing.T) {
	base := newFileTestEnv(t)
	c := base.register(t, "c@example.com", model.RoleClient, "")
	e := base.register(t, "e@example.com", model.RoleExpert, "")
	q := base.ask(t, c.ID, nil)

	deleted, start := racing(func() error {
		return base.questions.Delete(context.Background(), q.ID, c.ID)
	})
	env := newTestEnvWithStore(t, base.store, interleave(base.store, start))

	_, err := env.answers.Create(context.Background(), q.ID, e.ID, dto.AnswerCreateRequest{AnswerText: "x"})
	require.NoError(t, err)
	require.NoError(t, <-deleted)

	list, err := base.answers.ListByAuthor(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Empty(t, list, "the answer went with its question")
}

func TestAnswerUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	e := env.register(t, "e@example.com", model.RoleExpert, "")
	q := env.ask(t, c.ID, nil)
	a := env.answer(t, q.ID, e.ID)
	env.verify(t, q.ID, a.ID, c.ID, true)

	links := []string{" https://example.com ", ""}
	got, err := env.answers.Update(ctx, a.ID, q.ID, e.ID, dto.AnswerUpdateRequest{
		AnswerText: strPtr("edited"),
		Links:      &links,
	})
	require.NoError(t, err)
	assert.Equal(t, "edited", got.AnswerText)
	assert.Equal(t, []string{"https://example.com"}, got.Links)
	assert.True(t, got.IsAccepted, "editing keeps acceptance")
	assert.Equal(t, 1, env.resolved(t, e.ID))

	_, err = env.answers.Update(ctx, a.ID, q.ID, c.ID, dto.AnswerUpdateRequest{AnswerText: strPtr("mine")})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = env.answers.Update(ctx, a.ID, "other", e.ID, dto.AnswerUpdateRequest{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// DELETE
// =========================================================================

func TestAnswerDelete_AcceptedReopensQuestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	e := env.register(t, "e@example.com", model.RoleExpert, "")
	q := env.ask(t, c.ID, nil)
	a := env.answer(t, q.ID, e.ID)
	env.verify(t, q.ID, a.ID, c.ID, true)

	require.NoError(t, env.answers.Delete(ctx, a.ID, q.ID, e.ID))

	got := env.question(t, q.ID)
	assert.Equal(t, model.StatusPublished, got.Status)
	assert.Nil(t, got.AcceptedAnswerID)
	assert.Equal(t, 0, env.resolved(t, e.ID))
}

func TestAnswerDelete_NonAcceptedLeavesState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	e1 := env.register(t, "e1@example.com", model.RoleExpert, "")
	e2 := env.register(t, "e2@example.com", model.RoleExpert, "")
	q := env.ask(t, c.ID, nil)
	a1 := env.answer(t, q.ID, e1.ID)
	a2 := env.answer(t, q.ID, e2.ID)
	env.verify(t, q.ID, a1.ID, c.ID, true)

	require.NoError(t, env.answers.Delete(ctx, a2.ID, q.ID, e2.ID))

	got := env.question(t, q.ID)
	assert.Equal(t, model.StatusResolved, got.Status)
	assert.Equal(t, a1.ID, *got.AcceptedAnswerID)
	assert.Equal(t, 1, env.resolved(t, e1.ID))
}

func TestAnswerDelete_PromotesReplacement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	e1 := env.register(t, "e1@example.com", model.RoleExpert, "")
	e2 := env.register(t, "e2@example.com", model.RoleExpert, "")
	q := env.ask(t, c.ID, nil)
	a1 := env.answer(t, q.ID, e1.ID)
	a2 := env.answer(t, q.ID, e2.ID)
	env.verify(t, q.ID, a2.ID, c.ID, true)
	require.NoError(t, env.store.SetAnswerAccepted(ctx, a1.ID, true))

	require.NoError(t, env.answers.Delete(ctx, a2.ID, q.ID, e2.ID))

	got := env.question(t, q.ID)
	assert.Equal(t, model.StatusResolved, got.Status)
	assert.Equal(t, a1.ID, *got.AcceptedAnswerID)
	assert.Equal(t, 0, env.resolved(t, e2.ID))
}

func TestAnswerDelete_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	e := env.register(t, "e@example.com", model.RoleExpert, "")
	q := env.ask(t, c.ID, nil)
	a := env.answer(t, q.ID, e.ID)

	assert.ErrorIs(t, env.answers.Delete(ctx, a.ID, q.ID, c.ID), apperror.ErrForbidden)
	assert.ErrorIs(t, env.answers.Delete(ctx, "missing", q.ID, e.ID), apperror.ErrNotFound)
	_, err := env.store.GetAnswer(ctx, a.ID)
	assert.NoError(t, err)
}

func TestAnswerDelete_FailureKeepsCounters(t *testing.T) {
	base := newTestEnv(t)
	c := base.register(t, "c@example.com", model.RoleClient, "")
	e := base.register(t, "e@example.com", model.RoleExpert, "")
	q := base.ask(t, c.ID, nil)
	a := base.answer(t, q.ID, e.ID)
	base.verify(t, q.ID, a.ID, c.ID, true)

	broken := newTestEnvWithStore(t, base.store, &failingStore{Store: base.store, failOn: "DeleteAnswer"})
	err := broken.answers.Delete(context.Background(), a.ID, q.ID, e.ID)
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, 1, base.resolved(t, e.ID))
	got := base.question(t, q.ID)
	assert.Equal(t, model.StatusResolved, got.Status)
	assert.Equal(t, a.ID, *got.AcceptedAnswerID)
}

// =========================================================================
// LIST
// =========================================================================

func TestAnswerLists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	e := env.register(t, "e@example.com", model.RoleExpert, "")
	q1 := env.ask(t, c.ID, nil)
	q2 := env.ask(t, c.ID, nil)
	a1 := env.answer(t, q1.ID, e.ID)
	a2 := env.answer(t, q1.ID, e.ID)
	a3 := env.answer(t, q2.ID, e.ID)

	byQuestion, err := env.answers.ListByQuestion(ctx, q1.ID)
	require.NoError(t, err)
	require.Len(t, byQuestion, 2)
	assert.Equal(t, a1.ID, byQuestion[0].ID)
	assert.Equal(t, a2.ID, byQuestion[1].ID)
	assert.Equal(t, 3, byQuestion[0].AuthorAnswersCount)

	byAuthor, err := env.answers.ListByAuthor(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, byAuthor, 3)
	assert.Equal(t, a3.ID, byAuthor[0].ID, "newest first")
	assert.Equal(t, q2.Title, *byAuthor[0].QuestionTitle)

	_, err = env.answers.ListByQuestion(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
