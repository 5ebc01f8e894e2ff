package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jeremykhd/mycoaching/internal/backend"
	"github.com/jeremykhd/mycoaching/internal/domain"
	"github.com/jeremykhd/mycoaching/internal/guard"
	"github.com/jeremykhd/mycoaching/internal/service"
	"github.com/jeremykhd/mycoaching/internal/store"
)

var errNetwork = errors.New("dial tcp: connection refused")

type mockAuthBackend struct {
	mu sync.Mutex

	session   *domain.Session
	stored    map[string]*domain.Session
	signInErr error
	otpErr    error
	verifyErr error
}

func newMockAuthBackend(userID, email string) *mockAuthBackend {
	return &mockAuthBackend{
		session: &domain.Session{
			AccessToken:  "at-" + userID,
			RefreshToken: "rt-" + userID,
			User:         &domain.Identity{ID: userID, Email: email},
		},
		stored: make(map[string]*domain.Session),
	}
}

func (m *mockAuthBackend) GetSession(_ context.Context, key string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored[key], nil
}

func (m *mockAuthBackend) SignInWithPassword(_ context.Context, key, _, _ string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.signInErr != nil {
		return nil, m.signInErr
	}
	m.stored[key] = m.session
	return m.session, nil
}

func (m *mockAuthBackend) SignInWithOTP(_ context.Context, _ string, _ bool) error {
	return m.otpErr
}

func (m *mockAuthBackend) VerifyOTP(_ context.Context, key, _, _, _ string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	m.stored[key] = m.session
	return m.session, nil
}

func (m *mockAuthBackend) SignOut(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stored, key)
	return nil
}

type mockAccountService struct {
	mu       sync.Mutex
	account  *domain.Account
	accounts []domain.Account
	getCalls int
}

func (m *mockAccountService) GetAccount(_ context.Context, _ string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	return m.account, nil
}

func (m *mockAccountService) GetAccounts(_ context.Context) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts, nil
}

func (m *mockAccountService) PostAccount(_ context.Context, input domain.AccountInput, email, userID string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.account = &domain.Account{ID: 7, UserID: userID, Email: email, Firstname: input.Firstname, Lastname: input.Lastname}
	return m.account, nil
}

func (m *mockAccountService) PatchAccount(_ context.Context, accountID int64, patch domain.AccountPatch) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.account == nil || m.account.ID != accountID {
		return nil, &backend.Error{Status: 406, Message: "JSON object requested, multiple (or no) rows returned"}
	}
	updated := *m.account
	if patch.Firstname != nil {
		updated.Firstname = *patch.Firstname
	}
	m.account = &updated
	return m.account, nil
}

type mockHealthService struct{}

func (mockHealthService) PostHealth(_ context.Context, health domain.Health) (*domain.Health, error) {
	health.ID = 11
	return &health, nil
}

func (mockHealthService) PatchHealth(_ context.Context, healthID int64, _ domain.HealthPatch) (*domain.Health, error) {
	return &domain.Health{ID: healthID}, nil
}

type mockObjectivesService struct{}

func (mockObjectivesService) PostObjectives(_ context.Context, objectives domain.Objectives) (*domain.Objectives, error) {
	objectives.ID = 12
	return &objectives, nil
}

func (mockObjectivesService) PatchObjectives(_ context.Context, objectivesID int64, _ domain.ObjectivesPatch) (*domain.Objectives, error) {
	return &domain.Objectives{ID: objectivesID}, nil
}

type mockExerciseService struct {
	exercises []domain.Exercise
	err       error
}

func (m *mockExerciseService) GetExercises(_ context.Context) ([]domain.Exercise, error) {
	return m.exercises, m.err
}

func (m *mockExerciseService) GetExerciseTypes(_ context.Context) ([]domain.ExerciseType, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.ExerciseType{{ID: 1, Name: "cardio"}}, nil
}

type testEnv struct {
	router    *gin.Engine
	registry  *store.Registry
	auth      *mockAuthBackend
	accounts  *mockAccountService
	exercises *mockExerciseService
	cookie    *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		auth:      newMockAuthBackend("u1", "user@example.com"),
		accounts:  &mockAccountService{},
		exercises: &mockExerciseService{exercises: []domain.Exercise{{ID: 1, Title: "Squat"}}},
	}
	env.registry = store.NewRegistry(store.Deps{
		Auth:               env.auth,
		Accounts:           env.accounts,
		Health:             mockHealthService{},
		Objectives:         mockObjectivesService{},
		Exercises:          env.exercises,
		Limiter:            service.NewOTPRateLimiter(10*time.Minute, 3),
		Logger:             zap.NewNop(),
		NotificationBuffer: 10,
	}, time.Hour)

	logger := zap.NewNop()
	signer := service.NewCookieSigner("secret", time.Hour)
	env.router = NewRouter(
		logger,
		SessionMiddleware(logger, signer, env.registry, false),
		NewViewHandler(logger, guard.New(logger, nil)),
		NewAuthHandler(logger),
		NewAccountHandler(logger),
		NewWorkoutHandler(logger),
		nil,
	)
	return env
}

// do envía el request reutilizando la cookie de sesión recibida.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			e.cookie = c
		}
	}
	return rec
}

func decodeAuth(t *testing.T, rec *httptest.ResponseRecorder) store.AuthState {
	t.Helper()
	var resp struct {
		Auth store.AuthState `json:"auth"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Auth
}
