package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/skillgig-backend/internal/apperror"
	"github.com/sakif/skillgig-backend/internal/auth"
	"github.com/sakif/skillgig-backend/internal/catalog"
	"github.com/sakif/skillgig-backend/internal/dto"
	"github.com/sakif/skillgig-backend/internal/model"
	"github.com/sakif/skillgig-backend/internal/repository"
	"github.com/sakif/skillgig-backend/internal/repository/sqlite"
)

// Every test closes its database in t.Cleanup, so no pool goroutine may
// outlive the package run.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================
//
// Services run against a real in-memory SQLite store. The acceptance rules
// live partly in SQL (MAX(0, ...), ON DELETE SET NULL, json_each tag
// matching), so a hand-written fake would test a different system.

const testSecret = "test-secret-0123456789abcdef"

type testEnv struct {
	store     *sqlite.DB
	tokens    *auth.TokenService
	auth      *AuthService
	questions *QuestionService
	answers   *AnswerService
	users     *UserService
	stats     *StatsService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newTestEnvWithStore(t, db, db)
}

// newFileTestEnv uses a database file so that concurrent callers get their
// own connections and contend for the real write lock.
func newFileTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "skillgig.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newTestEnvWithStore(t, db, db)
}

// newTestEnvWithStore builds the services on top of st, which may wrap db.
func newTestEnvWithStore(t *testing.T, db *sqlite.DB, st repository.Store) *testEnv {
	t.Helper()
	tokens, err := auth.NewTokenService(testSecret, "HS256")
	require.NoError(t, err)
	logger := discardLogger()

	return &testEnv{
		store:  db,
		tokens: tokens,
		auth: NewAuthService(st, tokens, auth.NewPasswordServiceWithCost(bcrypt.MinCost),
			TokenTTLs{Access: time.Hour, Refresh: 24 * time.Hour}, logger),
		questions: NewQuestionService(st, logger),
		answers:   NewAnswerService(st, logger),
		users:     NewUserService(st, logger),
		stats:     NewStatsService(st, catalog.Default(), logger),
	}
}

func (e *testEnv) register(t *testing.T, email, role, firstName string) *dto.UserView {
	t.Helper()
	u, err := e.auth.Register(context.Background(), dto.RegisterRequest{
		Email:     email,
		Password:  "password123",
		Role:      role,
		FirstName: firstName,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) ask(t *testing.T, ownerID string, mutate func(*dto.QuestionCreateRequest)) *dto.QuestionView {
	t.Helper()
	req := dto.QuestionCreateRequest{
		Title:       "Why does my effect run twice?",
		Description: "useEffect fires two times in development",
		Category:    "Web Development",
	}
	if mutate != nil {
		mutate(&req)
	}
	q, err := e.questions.Create(context.Background(), ownerID, req)
	require.NoError(t, err)
	return q
}

func (e *testEnv) answer(t *testing.T, questionID, authorID string) *dto.AnswerView {
	t.Helper()
	a, err := e.answers.Create(context.Background(), questionID, authorID,
		dto.AnswerCreateRequest{AnswerText: "StrictMode mounts twice"})
	require.NoError(t, err)
	return a
}

func (e *testEnv) verify(t *testing.T, questionID, answerID, verifierID string, ok bool) *dto.AnswerView {
	t.Helper()
	a, err := e.answers.Verify(context.Background(), questionID, answerID, verifierID, ok)
	require.NoError(t, err)
	return a
}

// resolved returns the user's counter, 0 when there is no profile yet.
func (e *testEnv) resolved(t *testing.T, userID string) int {
	t.Helper()
	p, err := e.store.GetProfile(context.Background(), userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return 0
	}
	require.NoError(t, err)
	return p.ResolvedQuestions
}

func (e *testEnv) question(t *testing.T, id string) *model.Question {
	t.Helper()
	q, err := e.store.GetQuestion(context.Background(), id)
	require.NoError(t, err)
	return q
}

func (e *testEnv) isAccepted(t *testing.T, answerID string) bool {
	t.Helper()
	a, err := e.store.GetAnswer(context.Background(), answerID)
	require.NoError(t, err)
	return a.IsAccepted
}

// acceptedCount counts the answers of a question currently accepted.
func (e *testEnv) acceptedCount(t *testing.T, questionID string) int {
	t.Helper()
	as, err := e.store.ListAcceptedAnswers(context.Background(), questionID)
	require.NoError(t, err)
	return len(as)
}

func strPtr(s string) *string { return &s }

// =========================================================================
// FAILING STORE
// =========================================================================

var errInjected = errors.New("injected failure")

// failingStore wraps a Store and fails the named method, including inside
// transactions.
type failingStore struct {
	repository.Store
	failOn string
}

func (f *failingStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return f.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(&failingStore{Store: tx, failOn: f.failOn})
	})
}

func (f *failingStore) UpdateQuestion(ctx context.Context, q *model.Question) error {
	if f.failOn == "UpdateQuestion" {
		return errInjected
	}
	return f.Store.UpdateQuestion(ctx, q)
}

func (f *failingStore) DeleteAnswer(ctx context.Context, id string) error {
	if f.failOn == "DeleteAnswer" {
		return errInjected
	}
	return f.Store.DeleteAnswer(ctx, id)
}

func (f *failingStore) DeleteQuestion(ctx context.Context, id string) error {
	if f.failOn == "DeleteQuestion" {
		return errInjected
	}
	return f.Store.DeleteQuestion(ctx, id)
}

// =========================================================================
// INTERLEAVING STORE
// =========================================================================

// interleavingStore runs hook once, right after the first GetQuestion made
// through it, including one made inside a transaction.
type interleavingStore struct {
	repository.Store
	once *sync.Once
	hook func()
}

func interleave(st repository.Store, hook func()) *interleavingStore {
	return &interleavingStore{Store: st, once: &sync.Once{}, hook: hook}
}

func (s *interleavingStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(&interleavingStore{Store: tx, once: s.once, hook: s.hook})
	})
}

func (s *interleavingStore) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	q, err := s.Store.GetQuestion(ctx, id)
	s.once.Do(s.hook)
	return q, err
}

// racing starts fn on another goroutine and waits up to 200ms for it. fn
// only finishes in that window when nothing holds the write lock. The
// returned channel yields fn's error once it is done.
func racing(fn func() error) (<-chan error, func()) {
	done := make(chan error, 1)
	start := func() {
		result := make(chan error, 1)
		go func() { result <- fn() }()
		select {
		case err := <-result:
			done <- err
		case <-time.After(200 * time.Millisecond):
			go func() { done <- <-result }()
		}
	}
	return done, start
}
