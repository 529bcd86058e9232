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

func questionIDs(vs []dto.QuestionView) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}

func listParams(mutate func(*dto.QuestionListParams)) dto.QuestionListParams {
	p := dto.QuestionListParams{Limit: DefaultListLimit, StatusFilter: model.StatusPublished}
	if mutate != nil {
		mutate(&p)
	}
	return p
}

// =========================================================================
// CREATE
// =========================================================================

func TestQuestionCreate_Normalises(t *testing.T) {
	env := newTestEnv(t)
	c := env.register(t, "c@example.com", model.RoleClient, "Carol")

	q := env.ask(t, c.ID, func(r *dto.QuestionCreateRequest) {
		r.Tags = []string{"  react ", "", "hooks"}
		r.Links = []string{"https://docs", "  "}
		r.CodeLink = strPtr("https://repo")
	})

	assert.Equal(t, []string{"react", "hooks"}, q.Tags)
	assert.Equal(t, []string{"https://repo", "https://docs"}, q.Links)
	require.NotNil(t, q.CodeLink)
	assert.Equal(t, "https://repo", *q.CodeLink)
	assert.Equal(t, model.StatusPublished, q.Status)
	assert.Equal(t, "Carol", q.ClientName)
	assert.Equal(t, 0, q.AnswersCount)
	assert.False(t, q.IsSolved)
}

func TestQuestionCreate_CodeLinkAlreadyPresent(t *testing.T) {
	env := newTestEnv(t)
	c := env.register(t, "c@example.com", model.RoleClient, "")

	q := env.ask(t, c.ID, func(r *dto.QuestionCreateRequest) {
		r.Links = []string{"https://docs", "https://repo"}
		r.CodeLink = strPtr("https://repo")
	})
	assert.Equal(t, []string{"https://docs", "https://repo"}, q.Links)
}

func TestQuestionCreate_Validation(t *testing.T) {
	env := newTestEnv(t)
	c := env.register(t, "c@example.com", model.RoleClient, "")
	ctx := context.Background()

	_, err := env.questions.Create(ctx, c.ID, dto.QuestionCreateRequest{Title: "  ", Category: "x"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = env.questions.Create(ctx, c.ID, dto.QuestionCreateRequest{
		Title: "t", Category: "x", Status: model.StatusResolved,
	})
	assert.ErrorIs(t, err, apperror.ErrValidation, "resolved is reserved for acceptance")

	q, err := env.questions.Create(ctx, c.ID, dto.QuestionCreateRequest{
		Title: "t", Category: "x", Status: model.StatusDraft,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, q.Status)
}

// =========================================================================
// UPDATE / SUBMIT
// =========================================================================

func TestQuestionUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	q := env.ask(t, c.ID, func(r *dto.QuestionCreateRequest) {
		r.Tags = []string{"go"}
		r.Links = []string{"https://docs"}
	})

	tags := []string{" api ", ""}
	got, err := env.questions.Update(ctx, q.ID, c.ID, dto.QuestionUpdateRequest{
		Title:    strPtr("New title"),
		Tags:     &tags,
		CodeLink: strPtr("https://repo"),
	})
	require.NoError(t, err)
	assert.Equal(t, "New title", got.Title)
	assert.Equal(t, []string{"api"}, got.Tags)
	assert.Equal(t, []string{"https://repo", "https://docs"}, got.Links, "code link merges into links")
	assert.Equal(t, q.Description, got.Description, "unsent fields unchanged")
}

func TestQuestionUpdate_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	intruder := env.register(t, "x@example.com", model.RoleClient, "")
	q := env.ask(t, c.ID, nil)

	_, err := env.questions.Update(ctx, "missing", c.ID, dto.QuestionUpdateRequest{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = env.questions.Update(ctx, q.ID, intruder.ID, dto.QuestionUpdateRequest{Title: strPtr("mine")})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = env.questions.Update(ctx, q.ID, c.ID, dto.QuestionUpdateRequest{Status: strPtr("bogus")})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = env.questions.Submit(ctx, q.ID, intruder.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestQuestionSubmit(t *testing.T) {
	env := newTestEnv(t)
	c := env.register(t, "c@example.com", model.RoleClient, "")
	q := env.ask(t, c.ID, func(r *dto.QuestionCreateRequest) { r.Status = model.StatusDraft })

	got, err := env.questions.Submit(context.Background(), q.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, got.Status)
}

// A verify arriving between the owner's read and write must survive the
// write: the question keeps pointing at the accepted answer.
func TestQuestionEdit_VerifyInBetweenKeepsAcceptance(t *testing.T) {
	tests := []struct {
		name string
		edit func(env *testEnv, questionID, ownerID string) error
	}{
		{"update", func(env *testEnv, questionID, ownerID string) error {
			_, err := env.questions.Update(context.Background(), questionID, ownerID,
				dto.QuestionUpdateRequest{Title: strPtr("Renamed")})
			return err
		}},
		{"submit", func(env *testEnv, questionID, ownerID string) error {
			_, err := env.questions.Submit(context.Background(), questionID, ownerID)
			return err
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			base := newFileTestEnv(t)
			c := base.register(t, "c@example.com", model.RoleClient, "")
			e := base.register(t, "e@example.com", model.RoleExpert, "")
			q := base.ask(t, c.ID, nil)
			a := base.answer(t, q.ID, e.ID)

			verified, start := racing(func() error {
				_, err := base.answers.Verify(context.Background(), q.ID, a.ID, c.ID, true)
				return err
			})
			env := newTestEnvWithStore(t, base.store, interleave(base.store, start))

			require.NoError(t, tc.edit(env, q.ID, c.ID))
			require.NoError(t, <-verified)

			stored := base.question(t, q.ID)
			require.NotNil(t, stored.AcceptedAnswerID)
			assert.Equal(t, a.ID, *stored.AcceptedAnswerID)
			assert.True(t, base.isAccepted(t, a.ID))
			assert.Equal(t, 1, base.resolved(t, e.ID))
		})
	}
}

// =========================================================================
// DELETE
// =========================================================================

func TestQuestionDelete_TakesBackAcceptedPoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	e := env.register(t, "e@example.com", model.RoleExpert, "Eve")
	plain := env.register(t, "p@example.com", model.RoleClient, "")
	q := env.ask(t, c.ID, nil)
	a := env.answer(t, q.ID, e.ID)
	env.answer(t, q.ID, plain.ID)
	env.verify(t, q.ID, a.ID, c.ID, true)
	require.Equal(t, 1, env.resolved(t, e.ID))

	require.NoError(t, env.questions.Delete(ctx, q.ID, c.ID))

	assert.Equal(t, 0, env.resolved(t, e.ID))
	_, err := env.store.GetProfile(ctx, plain.ID)
	assert.NoError(t, err, "every answer author ends up with a profile")
	_, err = env.store.GetAnswer(ctx, a.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = env.questions.Get(ctx, q.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestQuestionDelete_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	intruder := env.register(t, "x@example.com", model.RoleClient, "")
	q := env.ask(t, c.ID, nil)

	assert.ErrorIs(t, env.questions.Delete(ctx, "missing", c.ID), apperror.ErrNotFound)
	assert.ErrorIs(t, env.questions.Delete(ctx, q.ID, intruder.ID), apperror.ErrForbidden)
	_, err := env.questions.Get(ctx, q.ID)
	assert.NoError(t, err)
}

func TestQuestionDelete_FailureKeepsCounters(t *testing.T) {
	base := newTestEnv(t)
	c := base.register(t, "c@example.com", model.RoleClient, "")
	e := base.register(t, "e@example.com", model.RoleExpert, "Eve")
	q := base.ask(t, c.ID, nil)
	a := base.answer(t, q.ID, e.ID)
	base.verify(t, q.ID, a.ID, c.ID, true)

	broken := newTestEnvWithStore(t, base.store, &failingStore{Store: base.store, failOn: "DeleteQuestion"})
	err := broken.questions.Delete(context.Background(), q.ID, c.ID)
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, 1, base.resolved(t, e.ID))
	assert.True(t, base.isAccepted(t, a.ID))
}

// =========================================================================
// LIST
// =========================================================================

func TestQuestionList_StatusGroups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	e := env.register(t, "e@example.com", model.RoleExpert, "")

	published := env.ask(t, c.ID, nil)
	draft := env.ask(t, c.ID, func(r *dto.QuestionCreateRequest) { r.Status = model.StatusDraft })
	resolved := env.ask(t, c.ID, nil)
	env.verify(t, resolved.ID, env.answer(t, resolved.ID, e.ID).ID, c.ID, true)

	tests := []struct {
		filter string
		want   []string
	}{
		{model.StatusPublished, []string{resolved.ID, published.ID}},
		{StatusFilterAll, []string{resolved.ID, draft.ID, published.ID}},
		{"", []string{resolved.ID, draft.ID, published.ID}},
		{model.StatusDraft, []string{draft.ID}},
		{model.StatusResolved, []string{resolved.ID}},
	}
	for _, tc := range tests {
		t.Run("filter="+tc.filter, func(t *testing.T) {
			got, err := env.questions.List(ctx, listParams(func(p *dto.QuestionListParams) {
				p.StatusFilter = tc.filter
			}))
			require.NoError(t, err)
			assert.Equal(t, tc.want, questionIDs(got.Items))
			assert.Equal(t, len(tc.want), got.Total)
		})
	}
}

func TestQuestionList_TagsAreSupersetCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	q := env.ask(t, c.ID, func(r *dto.QuestionCreateRequest) { r.Tags = []string{"Go", "API"} })

	got, err := env.questions.List(ctx, listParams(func(p *dto.QuestionListParams) { p.Tags = []string{"go"} }))
	require.NoError(t, err)
	assert.Equal(t, []string{q.ID}, questionIDs(got.Items))

	got, err = env.questions.List(ctx, listParams(func(p *dto.QuestionListParams) { p.Tags = []string{"go", "rust"} }))
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Equal(t, 0, got.Total)
}

func TestQuestionList_Pagination(t *testing.T) {
	env := newTestEnv(t)
	c := env.register(t, "c@example.com", model.RoleClient, "")

	var ids []string
	for range 5 {
		ids = append(ids, env.ask(t, c.ID, nil).ID)
	}

	got, err := env.questions.List(context.Background(), listParams(func(p *dto.QuestionListParams) {
		p.Limit = 2
		p.Offset = 1
	}))
	require.NoError(t, err)
	assert.Equal(t, 5, got.Total)
	// Newest first: sorted positions 1 and 2 are the 4th and 3rd created.
	assert.Equal(t, []string{ids[3], ids[2]}, questionIDs(got.Items))
}

func TestQuestionList_RejectsBadPaging(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, p := range []dto.QuestionListParams{
		{Limit: 0},
		{Limit: MaxListLimit + 1},
		{Limit: 10, Offset: -1},
	} {
		_, err := env.questions.List(ctx, p)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	}
}

func TestQuestionView_CountsAndSolved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.register(t, "c@example.com", model.RoleClient, "")
	e := env.register(t, "e@example.com", model.RoleExpert, "")
	q := env.ask(t, c.ID, nil)
	a := env.answer(t, q.ID, e.ID)
	env.answer(t, q.ID, e.ID)
	env.verify(t, q.ID, a.ID, c.ID, true)

	got, err := env.questions.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AnswersCount)
	assert.True(t, got.IsSolved)
	assert.Equal(t, a.ID, *got.AcceptedAnswerID)
	assert.Equal(t, "c@example.com", got.ClientName)

	mine, err := env.questions.ListByClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{q.ID}, questionIDs(mine))
}
