package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ActivationTokenStore drives the Created -> Consumed state machine of
// account activation tokens.
type ActivationTokenStore interface {
	Create(ctx context.Context, user *User) (*ActivationToken, error)
	Consume(ctx context.Context, token string) error
}

// ActivationStore implements ActivationTokenStore over the repository
// layer. Tokens carry no expiry; the replay window is closed by marking
// them consumed, and the rows are kept as an audit trail.
type ActivationStore struct {
	repo     RepositoryManager
	notifier Notifier
	clock    Clock
	logger   Logger
}

var _ ActivationTokenStore = (*ActivationStore)(nil)

func NewActivationTokenStore(repo RepositoryManager, clock Clock) *ActivationStore {
	if clock == nil {
		clock = SystemClock()
	}
	return &ActivationStore{
		repo:     repo,
		notifier: noopNotifier{},
		clock:    clock,
		logger:   defLogger{},
	}
}

// WithNotifier sets the collaborator that delivers activation notices.
func (s *ActivationStore) WithNotifier(n Notifier) *ActivationStore {
	s.notifier = normalizeNotifier(n)
	return s
}

// WithLogger overrides the logger used by the store.
func (s *ActivationStore) WithLogger(logger Logger) *ActivationStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Create issues the one-time activation token for a newly registered
// user and publishes the activation notice after the row commits. A
// notice delivery failure is logged and swallowed; it never undoes the
// token creation.
func (s *ActivationStore) Create(ctx context.Context, user *User) (*ActivationToken, error) {
	if user == nil || user.ID == uuid.Nil {
		return nil, goerrors.New("activation token requires a persisted user", goerrors.CategoryBadInput)
	}

	now := s.clock.Now()
	record := &ActivationToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: &now,
	}

	created, err := s.repo.ActivationTokens().Create(ctx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist activation token")
	}

	notice := ActivationNotice{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Token:     created.Token,
	}
	if err := s.notifier.AccountActivation(ctx, notice); err != nil {
		s.logger.Warn("activation notice delivery failed", "email", user.Email, "error", err)
	}

	return created, nil
}

// Consume looks up the token by value and flips the bound user to
// enabled. Unknown values fail with ErrActivationTokenNotFound; a token
// whose user is already enabled, or that was consumed before, fails with
// ErrAccountAlreadyActive. The lookup and the flag flip commit together.
func (s *ActivationStore) Consume(ctx context.Context, token string) error {
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := s.repo.ActivationTokens().GetByTokenTx(ctx, tx, token)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrActivationTokenNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up activation token")
		}

		if record.User == nil {
			return goerrors.New("activation token is not associated with a user", goerrors.CategoryInternal)
		}

		if record.Consumed() || record.User.Enabled {
			return ErrAccountAlreadyActive
		}

		now := s.clock.Now()
		if err := s.repo.Users().EnableTx(ctx, tx, record.UserID, now); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to enable user account")
		}

		if err := s.repo.ActivationTokens().MarkConsumedTx(ctx, tx, record.ID, now); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark activation token consumed")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account activation failed")
	}

	return nil
}
