package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TokenPair is the successful authentication result.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterUserMessage is the registration command payload.
type RegisterUserMessage struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	VerifyPassword string `json:"verify_password"`
}

// Authenticator is the façade combining the credential store, the access
// token issuer and the refresh token store.
type Authenticator interface {
	Register(ctx context.Context, msg RegisterUserMessage) (uuid.UUID, error)
	Authenticate(ctx context.Context, email, password string) (*TokenPair, error)
}

// Auther implements Authenticator.
type Auther struct {
	repo        RepositoryManager
	hasher      PasswordHasher
	tokens      TokenService
	refresh     RefreshTokenStore
	activations ActivationTokenStore
	logger      Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Auther.
func NewAuthenticator(repo RepositoryManager, hasher PasswordHasher, tokens TokenService, refresh RefreshTokenStore) *Auther {
	return &Auther{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		refresh: refresh,
		logger:  defLogger{},
	}
}

// WithActivationStore wires the post-commit hook that issues the account
// activation token after a successful registration.
func (s *Auther) WithActivationStore(store ActivationTokenStore) *Auther {
	s.activations = store
	return s
}

// WithLogger overrides the logger.
func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Register creates a disabled customer account and returns its id.
// Mismatched password confirmation fails before any storage access; a
// taken email fails with ErrEmailTaken. After the user row commits the
// activation store issues the one-time token as an explicit post-commit
// call; a failure there is logged but does not undo the registration.
func (s *Auther) Register(ctx context.Context, msg RegisterUserMessage) (uuid.UUID, error) {
	if msg.Password != msg.VerifyPassword {
		return uuid.Nil, ErrPasswordMismatch
	}

	var user *User

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taken, err := s.repo.Users().ExistsByEmailTx(ctx, tx, msg.Email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
		}
		if taken {
			return ErrEmailTaken
		}

		hash, err := s.hasher.Hash(msg.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
		}

		record := &User{
			Role:         RoleCustomer,
			FirstName:    msg.FirstName,
			LastName:     msg.LastName,
			Email:        msg.Email,
			PasswordHash: hash,
			Enabled:      false,
			NonLocked:    true,
		}

		if user, err = s.repo.Users().CreateTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return uuid.Nil, richErr
		}
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if s.activations != nil {
		if _, err := s.activations.Create(ctx, user); err != nil {
			s.logger.Error("activation token creation failed after registration", "email", user.Email, "error", err)
		}
	}

	return user.ID, nil
}

// Authenticate verifies the credentials and mints an access plus refresh
// token pair. Unknown identity and bad secret both surface as
// ErrInvalidCredentials; only the logs tell them apart. Disabled and
// locked accounts fail with their own policy errors after the secret
// check, so the errors never leak whether a password was right for an
// unknown email.
func (s *Auther) Authenticate(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Debug("authenticate unknown identity", "email", email)
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for authentication")
	}

	if err := s.hasher.Verify(password, user.PasswordHash); err != nil {
		s.logger.Debug("authenticate bad secret", "email", email)
		return nil, ErrInvalidCredentials
	}

	if !user.Enabled {
		return nil, ErrAccountDisabled
	}

	if !user.NonLocked {
		return nil, ErrAccountLocked
	}

	accessToken, err := s.tokens.CreateAccessToken(NewPrincipal(user))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint access token")
	}

	refreshToken, err := s.refresh.Issue(ctx, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue refresh token")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh exchanges a live refresh token for a fresh access token.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (string, error) {
	user, err := s.refresh.Lookup(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	if !user.Enabled {
		return "", ErrAccountDisabled
	}

	if !user.NonLocked {
		return "", ErrAccountLocked
	}

	return s.tokens.CreateAccessToken(NewPrincipal(user))
}
