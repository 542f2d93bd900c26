package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PasswordResetTokenStore drives the Requested -> (Consumed | Expired)
// state machine of password reset tokens.
type PasswordResetTokenStore interface {
	Request(ctx context.Context, email string) error
	Confirm(ctx context.Context, token, password, verifyPassword string) error
}

// PasswordResetStore implements PasswordResetTokenStore over the
// repository layer.
type PasswordResetStore struct {
	repo     RepositoryManager
	hasher   PasswordHasher
	notifier Notifier
	ttl      time.Duration
	clock    Clock
	logger   Logger
}

var _ PasswordResetTokenStore = (*PasswordResetStore)(nil)

func NewPasswordResetStore(repo RepositoryManager, hasher PasswordHasher, ttl time.Duration, clock Clock) *PasswordResetStore {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &PasswordResetStore{
		repo:     repo,
		hasher:   hasher,
		notifier: noopNotifier{},
		ttl:      ttl,
		clock:    clock,
		logger:   defLogger{},
	}
}

// WithNotifier sets the collaborator that delivers reset notices.
func (s *PasswordResetStore) WithNotifier(n Notifier) *PasswordResetStore {
	s.notifier = normalizeNotifier(n)
	return s
}

// WithLogger overrides the logger used by the store.
func (s *PasswordResetStore) WithLogger(logger Logger) *PasswordResetStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Request creates a reset token for the account registered under email,
// expiring one TTL from now. Unknown emails fail with ErrUserNotFound
// and accounts that are not enabled with ErrResetRequiresActiveAccount.
// A prior unconsumed token for the user is replaced in the same
// transaction. The reset notice goes out after commit; delivery failure
// is logged and swallowed.
func (s *PasswordResetStore) Request(ctx context.Context, email string) error {
	var notice ResetNotice

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := s.repo.Users().GetByEmailTx(ctx, tx, email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrUserNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		if !user.Enabled {
			return ErrResetRequiresActiveAccount
		}

		if err := s.repo.PasswordResets().DeleteByUserTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to replace prior reset token")
		}

		now := s.clock.Now()
		record := &PasswordResetToken{
			Token:     uuid.NewString(),
			UserID:    user.ID,
			CreatedAt: &now,
			ExpiresAt: now.Add(s.ttl),
		}

		created, err := s.repo.PasswordResets().CreateTx(ctx, tx, record)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist reset token")
		}

		notice = ResetNotice{Email: user.Email, Token: created.Token}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset request failed")
	}

	if err := s.notifier.PasswordReset(ctx, notice); err != nil {
		s.logger.Warn("reset notice delivery failed", "email", notice.Email, "error", err)
	}

	return nil
}

// Confirm rewrites the bound user's password hash. The confirmation
// mismatch check runs before any lookup, so a mismatched pair never
// touches storage. Unknown and already consumed tokens fail with
// ErrResetTokenNotFound; at or past expires-at the token fails with
// ErrResetTokenExpired. The hash rewrite and the consumed stamp commit
// together.
func (s *PasswordResetStore) Confirm(ctx context.Context, token, password, verifyPassword string) error {
	if password != verifyPassword {
		return ErrPasswordMismatch
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := s.repo.PasswordResets().GetByTokenTx(ctx, tx, token)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrResetTokenNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up reset token")
		}

		if record.Consumed() {
			return ErrResetTokenNotFound
		}

		now := s.clock.Now()
		if record.Expired(now) {
			return ErrResetTokenExpired
		}

		passwordHash, err := s.hasher.Hash(password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		if err := s.repo.Users().SetPasswordTx(ctx, tx, record.UserID, passwordHash, now); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password")
		}

		if err := s.repo.PasswordResets().MarkConsumedTx(ctx, tx, record.ID, now); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark reset token consumed")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset confirmation failed")
	}

	return nil
}
