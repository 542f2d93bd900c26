package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokens persists the opaque refresh credentials.
type RefreshTokens interface {
	Create(ctx context.Context, record *RefreshToken, criteria ...repository.InsertCriteria) (*RefreshToken, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *RefreshToken, criteria ...repository.InsertCriteria) (*RefreshToken, error)
	GetByToken(ctx context.Context, token string) (*RefreshToken, error)
	GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*RefreshToken, error)
	DeleteByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
}

// ActivationTokens persists the one-time account activation credentials.
type ActivationTokens interface {
	Create(ctx context.Context, record *ActivationToken, criteria ...repository.InsertCriteria) (*ActivationToken, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *ActivationToken, criteria ...repository.InsertCriteria) (*ActivationToken, error)
	GetByToken(ctx context.Context, token string) (*ActivationToken, error)
	GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*ActivationToken, error)
	MarkConsumedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error
}

// PasswordResets persists the time-boxed reset credentials.
type PasswordResets interface {
	Create(ctx context.Context, record *PasswordResetToken, criteria ...repository.InsertCriteria) (*PasswordResetToken, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *PasswordResetToken, criteria ...repository.InsertCriteria) (*PasswordResetToken, error)
	GetByToken(ctx context.Context, token string) (*PasswordResetToken, error)
	GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*PasswordResetToken, error)
	DeleteByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
	MarkConsumedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error
}

type refreshTokens struct {
	repository.Repository[*RefreshToken]
	db *bun.DB
}

var _ RefreshTokens = (*refreshTokens)(nil)

func NewRefreshTokensRepository(db *bun.DB) RefreshTokens {
	repo := repository.NewRepository[*RefreshToken](db, repository.ModelHandlers[*RefreshToken]{
		NewRecord: func() *RefreshToken { return &RefreshToken{} },
		GetID: func(r *RefreshToken) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *RefreshToken, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &refreshTokens{Repository: repo, db: db}
}

func (a *refreshTokens) Create(ctx context.Context, record *RefreshToken, criteria ...repository.InsertCriteria) (*RefreshToken, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *refreshTokens) CreateTx(ctx context.Context, tx bun.IDB, record *RefreshToken, criteria ...repository.InsertCriteria) (*RefreshToken, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *refreshTokens) GetByToken(ctx context.Context, token string) (*RefreshToken, error) {
	return a.GetByTokenTx(ctx, a.db, token)
}

func (a *refreshTokens) GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*RefreshToken, error) {
	record := &RefreshToken{}

	err := tx.NewSelect().
		Model(record).
		Relation("User").
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (a *refreshTokens) DeleteByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*RefreshToken)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Exec(ctx)

	return err
}

type activationTokens struct {
	repository.Repository[*ActivationToken]
	db *bun.DB
}

var _ ActivationTokens = (*activationTokens)(nil)

func NewActivationTokensRepository(db *bun.DB) ActivationTokens {
	repo := repository.NewRepository[*ActivationToken](db, repository.ModelHandlers[*ActivationToken]{
		NewRecord: func() *ActivationToken { return &ActivationToken{} },
		GetID: func(r *ActivationToken) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *ActivationToken, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &activationTokens{Repository: repo, db: db}
}

func (a *activationTokens) Create(ctx context.Context, record *ActivationToken, criteria ...repository.InsertCriteria) (*ActivationToken, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *activationTokens) CreateTx(ctx context.Context, tx bun.IDB, record *ActivationToken, criteria ...repository.InsertCriteria) (*ActivationToken, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *activationTokens) GetByToken(ctx context.Context, token string) (*ActivationToken, error) {
	return a.GetByTokenTx(ctx, a.db, token)
}

func (a *activationTokens) GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*ActivationToken, error) {
	record := &ActivationToken{}

	err := tx.NewSelect().
		Model(record).
		Relation("User").
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (a *activationTokens) MarkConsumedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	_, err := tx.NewUpdate().
		Model((*ActivationToken)(nil)).
		Set("consumed_at = ?", at).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	return err
}

type passwordResets struct {
	repository.Repository[*PasswordResetToken]
	db *bun.DB
}

var _ PasswordResets = (*passwordResets)(nil)

func NewPasswordResetsRepository(db *bun.DB) PasswordResets {
	repo := repository.NewRepository[*PasswordResetToken](db, repository.ModelHandlers[*PasswordResetToken]{
		NewRecord: func() *PasswordResetToken { return &PasswordResetToken{} },
		GetID: func(r *PasswordResetToken) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *PasswordResetToken, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &passwordResets{Repository: repo, db: db}
}

func (a *passwordResets) Create(ctx context.Context, record *PasswordResetToken, criteria ...repository.InsertCriteria) (*PasswordResetToken, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *passwordResets) CreateTx(ctx context.Context, tx bun.IDB, record *PasswordResetToken, criteria ...repository.InsertCriteria) (*PasswordResetToken, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *passwordResets) GetByToken(ctx context.Context, token string) (*PasswordResetToken, error) {
	return a.GetByTokenTx(ctx, a.db, token)
}

func (a *passwordResets) GetByTokenTx(ctx context.Context, tx bun.IDB, token string) (*PasswordResetToken, error) {
	record := &PasswordResetToken{}

	err := tx.NewSelect().
		Model(record).
		Relation("User").
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (a *passwordResets) DeleteByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*PasswordResetToken)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Exec(ctx)

	return err
}

func (a *passwordResets) MarkConsumedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	_, err := tx.NewUpdate().
		Model((*PasswordResetToken)(nil)).
		Set("consumed_at = ?", at).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)

	return err
}
