package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	RefreshTokens() RefreshTokens
	ActivationTokens() ActivationTokens
	PasswordResets() PasswordResets
}

type mngr struct {
	db               *bun.DB
	users            Users
	refreshTokens    RefreshTokens
	activationTokens ActivationTokens
	passwordResets   PasswordResets
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:               db,
		users:            NewUsersRepository(db),
		refreshTokens:    NewRefreshTokensRepository(db),
		activationTokens: NewActivationTokensRepository(db),
		passwordResets:   NewPasswordResetsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.refreshTokens == nil {
		return errors.New("repository refreshTokens should be initialized")
	}

	if m.activationTokens == nil {
		return errors.New("repository activationTokens should be initialized")
	}

	if m.passwordResets == nil {
		return errors.New("repository passwordResets should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) RefreshTokens() RefreshTokens {
	return m.refreshTokens
}

func (m mngr) ActivationTokens() ActivationTokens {
	return m.activationTokens
}

func (m mngr) PasswordResets() PasswordResets {
	return m.passwordResets
}
