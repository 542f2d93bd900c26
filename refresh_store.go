package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokenStore issues and resolves the opaque, server tracked
// refresh credentials.
type RefreshTokenStore interface {
	Issue(ctx context.Context, user *User) (string, error)
	Lookup(ctx context.Context, token string) (*User, error)
}

// RefreshStore implements RefreshTokenStore over the repository layer.
// Issuing supersedes: the delete of any live token for the user and the
// insert of the new one commit in the same transaction, so at most one
// live refresh token exists per user.
type RefreshStore struct {
	repo   RepositoryManager
	ttl    time.Duration
	clock  Clock
	logger Logger
}

var _ RefreshTokenStore = (*RefreshStore)(nil)

// NewRefreshTokenStore creates a store with the given token lifetime.
func NewRefreshTokenStore(repo RepositoryManager, ttl time.Duration, clock Clock) *RefreshStore {
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &RefreshStore{
		repo:   repo,
		ttl:    ttl,
		clock:  clock,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the store.
func (s *RefreshStore) WithLogger(logger Logger) *RefreshStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Issue generates an opaque token for the user and persists it with
// expires-at = now + TTL, replacing any prior token for the same user.
func (s *RefreshStore) Issue(ctx context.Context, user *User) (string, error) {
	if user == nil || user.ID == uuid.Nil {
		return "", goerrors.New("refresh token requires a persisted user", goerrors.CategoryBadInput)
	}

	now := s.clock.Now()
	record := &RefreshToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: &now,
		ExpiresAt: now.Add(s.ttl),
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.RefreshTokens().DeleteByUserTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to supersede prior refresh token")
		}

		if _, err := s.repo.RefreshTokens().CreateTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist refresh token")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return "", richErr
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "refresh token issuance failed")
	}

	return record.Token, nil
}

// Lookup resolves a presented token to its user. Unknown values return
// ErrRefreshTokenNotFound; a known value past its TTL returns
// ErrRefreshTokenExpired.
func (s *RefreshStore) Lookup(ctx context.Context, token string) (*User, error) {
	record, err := s.repo.RefreshTokens().GetByToken(ctx, token)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up refresh token")
	}

	if record.Expired(s.clock.Now()) {
		return nil, ErrRefreshTokenExpired
	}

	if record.User == nil {
		return nil, goerrors.New("refresh token is not associated with a user", goerrors.CategoryInternal)
	}

	return record.User, nil
}
