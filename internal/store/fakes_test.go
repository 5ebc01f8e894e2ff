package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jeremykhd/mycoaching/internal/backend"
	"github.com/jeremykhd/mycoaching/internal/domain"
)

var errNetwork = errors.New("dial tcp: connection refused")

func rejected(msg string) error {
	return &backend.Error{Status: 400, Message: msg}
}

type fakeAuth struct {
	mu sync.Mutex

	session    *domain.Session
	sessionErr error
	signInErr  error
	otpErr     error
	verifyErr  error
	signOutErr error

	// sessionGate bloquea GetSession hasta que se cierre, si no es nil.
	sessionGate chan struct{}

	getSessionCalls int
	signInCalls     int
	otpCalls        int
	verifyCalls     int
	signOutCalls    int
	lastOTPEmail    string
	lastCreateUser  bool
	lastVerify      [3]string
	lastKey         string
}

func (f *fakeAuth) GetSession(_ context.Context, key string) (*domain.Session, error) {
	f.mu.Lock()
	f.getSessionCalls++
	f.lastKey = key
	gate := f.sessionGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, f.sessionErr
}

func (f *fakeAuth) SignInWithPassword(_ context.Context, key, _, _ string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInCalls++
	f.lastKey = key
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.session, nil
}

func (f *fakeAuth) SignInWithOTP(_ context.Context, email string, createUser bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.otpCalls++
	f.lastOTPEmail = email
	f.lastCreateUser = createUser
	return f.otpErr
}

func (f *fakeAuth) VerifyOTP(_ context.Context, key, email, token, otpType string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	f.lastKey = key
	f.lastVerify = [3]string{email, token, otpType}
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.session, nil
}

func (f *fakeAuth) SignOut(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	f.lastKey = key
	return f.signOutErr
}

type fakeAccounts struct {
	mu sync.Mutex

	account     *domain.Account
	accounts    []domain.Account
	getErr      error
	listErr     error
	postErr     error
	patchErr    error
	patchResult func(accountID int64, patch domain.AccountPatch) *domain.Account

	getCalls   int
	patchCalls []domain.AccountPatch
	lastUserID string
	lastToken  string
}

func (f *fakeAccounts) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	f.lastUserID = userID
	f.lastToken = tokenOf(ctx)
	return f.account, f.getErr
}

func (f *fakeAccounts) GetAccounts(_ context.Context) ([]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts, f.listErr
}

func (f *fakeAccounts) PostAccount(_ context.Context, input domain.AccountInput, email, userID string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return nil, f.postErr
	}
	return &domain.Account{ID: 100, UserID: userID, Email: email, Firstname: input.Firstname, Lastname: input.Lastname}, nil
}

func (f *fakeAccounts) PatchAccount(_ context.Context, accountID int64, patch domain.AccountPatch) (*domain.Account, error) {
	f.mu.Lock()
	f.patchCalls = append(f.patchCalls, patch)
	result := f.patchResult
	err := f.patchErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result(accountID, patch), nil
	}
	acc := &domain.Account{ID: accountID, UserID: "u1", HealthID: patch.HealthID, ObjectivesID: patch.ObjectivesID}
	if patch.Firstname != nil {
		acc.Firstname = *patch.Firstname
	}
	return acc, nil
}

type fakeHealth struct {
	postErr    error
	patchErr   error
	postCalls  int
	patchCalls int
}

func (f *fakeHealth) PostHealth(_ context.Context, health domain.Health) (*domain.Health, error) {
	f.postCalls++
	if f.postErr != nil {
		return nil, f.postErr
	}
	health.ID = 55
	return &health, nil
}

func (f *fakeHealth) PatchHealth(_ context.Context, healthID int64, _ domain.HealthPatch) (*domain.Health, error) {
	f.patchCalls++
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	return &domain.Health{ID: healthID}, nil
}

type fakeObjectives struct {
	postErr   error
	patchErr  error
	lastPatch int64
}

func (f *fakeObjectives) PostObjectives(_ context.Context, objectives domain.Objectives) (*domain.Objectives, error) {
	if f.postErr != nil {
		return nil, f.postErr
	}
	objectives.ID = 66
	return &objectives, nil
}

func (f *fakeObjectives) PatchObjectives(_ context.Context, objectivesID int64, _ domain.ObjectivesPatch) (*domain.Objectives, error) {
	f.lastPatch = objectivesID
	if f.patchErr != nil {
		return nil, f.patchErr
	}
	return &domain.Objectives{ID: objectivesID}, nil
}

type fakeExercises struct {
	exercises []domain.Exercise
	types     []domain.ExerciseType
	err       error
	lastToken string
}

func (f *fakeExercises) GetExercises(ctx context.Context) ([]domain.Exercise, error) {
	f.lastToken = tokenOf(ctx)
	return f.exercises, f.err
}

func (f *fakeExercises) GetExerciseTypes(_ context.Context) ([]domain.ExerciseType, error) {
	return f.types, f.err
}

type fakeLimiter struct {
	allow bool
	keys  []string
}

func (f *fakeLimiter) Allow(key string) bool {
	f.keys = append(f.keys, key)
	return f.allow
}

func tokenOf(ctx context.Context) string {
	return backend.AccessTokenFrom(ctx)
}

func testSession(userID string) *domain.Session {
	return &domain.Session{
		AccessToken:  "at-" + userID,
		RefreshToken: "rt-" + userID,
		User:         &domain.Identity{ID: userID, Email: userID + "@example.com"},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
