package auth_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	auth "github.com/commercekit/auth"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// testClock is a fixed, manually advanced Clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// MockHasher implements auth.PasswordHasher
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Verify(password, hash string) error {
	args := m.Called(password, hash)
	return args.Error(0)
}

// MockNotifier implements auth.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) AccountActivation(ctx context.Context, notice auth.ActivationNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockNotifier) PasswordReset(ctx context.Context, notice auth.ResetNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

// MockUsers implements auth.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// Create and CreateTx echo the input record when the expectation is
// configured with a nil return, so tests can observe store-generated
// token values without predicting them.
func (m *MockUsers) Create(ctx context.Context, record *auth.User, criteria ...repository.InsertCriteria) (*auth.User, error) {
	args := m.Called(ctx, record)
	user, _ := args.Get(0).(*auth.User)
	if user == nil && args.Error(1) == nil {
		user = record
	}
	return user, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *auth.User, criteria ...repository.InsertCriteria) (*auth.User, error) {
	args := m.Called(ctx, record)
	user, _ := args.Get(0).(*auth.User)
	if user == nil && args.Error(1) == nil {
		user = record
	}
	return user, args.Error(1)
}

func (m *MockUsers) EnableTx(ctx context.Context, tx bun.IDB, id uuid.UUID, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

func (m *MockUsers) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string, now time.Time) error {
	args := m.Called(ctx, id, passwordHash, now)
	return args.Error(0)
}

// MockRefreshTokens implements auth.RefreshTokens
type MockRefreshTokens struct {
	mock.Mock
}

func (m *MockRefreshTokens) Create(ctx context.Context, record *auth.RefreshToken, criteria ...repository.InsertCriteria) (*auth.RefreshToken, error) {
	args := m.Called(ctx, record)
	token, _ := args.Get(0).(*auth.RefreshToken)
	if token == nil && args.Error(1) == nil {
		token = record
	}
	return token, args.Error(1)
}

func (m *MockRefreshTokens) CreateTx(ctx context.Context, tx bun.IDB, record *auth.RefreshToken, criteria ...repository.InsertCriteria) (*auth.RefreshToken, error) {
	args := m.Called(ctx, record)
	token, _ := args.Get(0).(*auth.RefreshToken)
	if token == nil && args.Error(1) == nil {
		token = record
	}
	return token, args.Error(1)
}

func (m *MockRefreshTokens) GetByToken(ctx context.Context, token string) (*auth.RefreshToken, error) {
	args := m.Called(ctx, token)
	record, _ := args.Get(0).(*auth.RefreshToken)
	return record, args.Error(1)
}

func (m *MockRefreshTokens) GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*auth.RefreshToken, error) {
	args := m.Called(ctx, token)
	record, _ := args.Get(0).(*auth.RefreshToken)
	return record, args.Error(1)
}

func (m *MockRefreshTokens) DeleteByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockActivationTokens implements auth.ActivationTokens
type MockActivationTokens struct {
	mock.Mock
}

func (m *MockActivationTokens) Create(ctx context.Context, record *auth.ActivationToken, criteria ...repository.InsertCriteria) (*auth.ActivationToken, error) {
	args := m.Called(ctx, record)
	token, _ := args.Get(0).(*auth.ActivationToken)
	if token == nil && args.Error(1) == nil {
		token = record
	}
	return token, args.Error(1)
}

func (m *MockActivationTokens) CreateTx(ctx context.Context, tx bun.IDB, record *auth.ActivationToken, criteria ...repository.InsertCriteria) (*auth.ActivationToken, error) {
	args := m.Called(ctx, record)
	token, _ := args.Get(0).(*auth.ActivationToken)
	if token == nil && args.Error(1) == nil {
		token = record
	}
	return token, args.Error(1)
}

func (m *MockActivationTokens) GetByToken(ctx context.Context, token string) (*auth.ActivationToken, error) {
	args := m.Called(ctx, token)
	record, _ := args.Get(0).(*auth.ActivationToken)
	return record, args.Error(1)
}

func (m *MockActivationTokens) GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*auth.ActivationToken, error) {
	args := m.Called(ctx, token)
	record, _ := args.Get(0).(*auth.ActivationToken)
	return record, args.Error(1)
}

func (m *MockActivationTokens) MarkConsumedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockPasswordResets implements auth.PasswordResets
type MockPasswordResets struct {
	mock.Mock
}

func (m *MockPasswordResets) Create(ctx context.Context, record *auth.PasswordResetToken, criteria ...repository.InsertCriteria) (*auth.PasswordResetToken, error) {
	args := m.Called(ctx, record)
	token, _ := args.Get(0).(*auth.PasswordResetToken)
	if token == nil && args.Error(1) == nil {
		token = record
	}
	return token, args.Error(1)
}

func (m *MockPasswordResets) CreateTx(ctx context.Context, tx bun.IDB, record *auth.PasswordResetToken, criteria ...repository.InsertCriteria) (*auth.PasswordResetToken, error) {
	args := m.Called(ctx, record)
	token, _ := args.Get(0).(*auth.PasswordResetToken)
	if token == nil && args.Error(1) == nil {
		token = record
	}
	return token, args.Error(1)
}

func (m *MockPasswordResets) GetByToken(ctx context.Context, token string) (*auth.PasswordResetToken, error) {
	args := m.Called(ctx, token)
	record, _ := args.Get(0).(*auth.PasswordResetToken)
	return record, args.Error(1)
}

func (m *MockPasswordResets) GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*auth.PasswordResetToken, error) {
	args := m.Called(ctx, token)
	record, _ := args.Get(0).(*auth.PasswordResetToken)
	return record, args.Error(1)
}

func (m *MockPasswordResets) DeleteByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockPasswordResets) MarkConsumedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// fakeRepoManager wires the repo mocks behind auth.RepositoryManager.
// RunInTx runs the unit of work directly; the mocks ignore the tx handle.
type fakeRepoManager struct {
	users       *MockUsers
	refresh     *MockRefreshTokens
	activations *MockActivationTokens
	resets      *MockPasswordResets
}

var _ auth.RepositoryManager = (*fakeRepoManager)(nil)

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:       &MockUsers{},
		refresh:     &MockRefreshTokens{},
		activations: &MockActivationTokens{},
		resets:      &MockPasswordResets{},
	}
}

func (f *fakeRepoManager) Validate() error { return nil }

func (f *fakeRepoManager) MustValidate() {}

func (f *fakeRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

func (f *fakeRepoManager) Users() auth.Users { return f.users }

func (f *fakeRepoManager) RefreshTokens() auth.RefreshTokens { return f.refresh }

func (f *fakeRepoManager) ActivationTokens() auth.ActivationTokens { return f.activations }

func (f *fakeRepoManager) PasswordResets() auth.PasswordResets { return f.resets }

func testConfig() auth.SimpleConfig {
	return auth.SimpleConfig{
		SigningKey: "test-signing-key",
		Issuer:     "test-issuer",
		Audience:   []string{"application users"},
	}
}
