package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader carries the client-chosen key that makes retried
// mutating requests safe. Its absence means the command always executes.
const IdempotencyKeyHeader = "Idempotency-Key"

// AuthControllerRoutes are the paths the controller registers.
type AuthControllerRoutes struct {
	Login               string
	Register            string
	Activate            string
	PasswordReset       string
	PasswordResetVerify string
	RefreshToken        string
}

// AuthController exposes the account core as a JSON API over go-router.
// CORS, rate limiting, and the security filter chain are the host's
// concern.
type AuthController struct {
	Logger      Logger
	Routes      *AuthControllerRoutes
	Auther      *Auther
	Activations ActivationTokenStore
	Resets      PasswordResetTokenStore
	Idempotency IdempotencyCache
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithAuther(auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithActivations(store ActivationTokenStore) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Activations = store
		return c
	}
}

func WithResets(store PasswordResetTokenStore) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Resets = store
		return c
	}
}

func WithIdempotencyCache(cache IdempotencyCache) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Idempotency = cache
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:               "/auth",
			Register:            "/auth/register",
			Activate:            "/auth/activate",
			PasswordReset:       "/auth/password-reset",
			PasswordResetVerify: "/auth/password-reset/verify",
			RefreshToken:        "/auth/refresh-token",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	if c.Activations == nil {
		panic("Missing activation store in auth controller...")
	}

	if c.Resets == nil {
		panic("Missing password reset store in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the controller on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Login, controller.AuthenticatePost).
		SetName("auth.login")

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("auth.register")

	app.Post(controller.Routes.Activate, controller.ActivatePost).
		SetName("auth.activate")

	app.Post(controller.Routes.PasswordReset, controller.PasswordResetPost).
		SetName("auth.password-reset")

	app.Post(controller.Routes.PasswordResetVerify, controller.PasswordResetVerifyPost).
		SetName("auth.password-reset-verify")

	app.Post(controller.Routes.RefreshToken, controller.RefreshTokenPost).
		SetName("auth.refresh-token")
}

// AuthenticationRequest is the login payload.
type AuthenticationRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r AuthenticationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegistrationRequest is the registration payload.
type RegistrationRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	VerifyPassword string `json:"verify_password"`
}

func (r RegistrationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.VerifyPassword, validation.Required, validation.Length(8, 100)),
	)
}

// AccountActivationRequest carries the one-time activation token value.
type AccountActivationRequest struct {
	Token string `json:"token"`
}

func (r AccountActivationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required, is.UUID),
	)
}

// PasswordResetEmailRequest starts a reset for the given account.
type PasswordResetEmailRequest struct {
	Email string `json:"email"`
}

func (r PasswordResetEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// PasswordResetConfirmRequest completes a reset.
type PasswordResetConfirmRequest struct {
	Token          string `json:"token"`
	Password       string `json:"password"`
	VerifyPassword string `json:"verify_password"`
}

func (r PasswordResetConfirmRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required, is.UUID),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.VerifyPassword, validation.Required, validation.Length(8, 100)),
	)
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r RefreshTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

func (a *AuthController) AuthenticatePost(ctx router.Context) error {
	payload := new(AuthenticationRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidationError(ctx, err)
	}

	pair, err := a.Auther.Authenticate(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegistrationRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidationError(ctx, err)
	}

	msg := RegisterUserMessage{
		FirstName:      payload.FirstName,
		LastName:       payload.LastName,
		Email:          payload.Email,
		Password:       payload.Password,
		VerifyPassword: payload.VerifyPassword,
	}

	key, err := a.idempotencyKey(ctx)
	if err != nil {
		return a.respondError(ctx, err)
	}

	result, err := a.withIdempotency(ctx, key, func(c router.Context) (any, error) {
		id, err := a.Auther.Register(c.Context(), msg)
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	})
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"id": result,
	})
}

func (a *AuthController) ActivatePost(ctx router.Context) error {
	payload := new(AccountActivationRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidationError(ctx, err)
	}

	if err := a.Activations.Consume(ctx.Context(), payload.Token); err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "account activated",
	})
}

func (a *AuthController) PasswordResetPost(ctx router.Context) error {
	payload := new(PasswordResetEmailRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidationError(ctx, err)
	}

	if err := a.Resets.Request(ctx.Context(), payload.Email); err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "password reset requested",
	})
}

func (a *AuthController) PasswordResetVerifyPost(ctx router.Context) error {
	payload := new(PasswordResetConfirmRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidationError(ctx, err)
	}

	key, err := a.idempotencyKey(ctx)
	if err != nil {
		return a.respondError(ctx, err)
	}

	_, err = a.withIdempotency(ctx, key, func(c router.Context) (any, error) {
		if err := a.Resets.Confirm(c.Context(), payload.Token, payload.Password, payload.VerifyPassword); err != nil {
			return nil, err
		}
		return payload.Token, nil
	})
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "password updated",
	})
}

func (a *AuthController) RefreshTokenPost(ctx router.Context) error {
	payload := new(RefreshTokenRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.respondValidationError(ctx, err)
	}

	accessToken, err := a.Auther.Refresh(ctx.Context(), payload.RefreshToken)
	if err != nil {
		return a.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"access_token": accessToken,
	})
}

// idempotencyKey extracts and validates the optional header.
func (a *AuthController) idempotencyKey(ctx router.Context) (string, error) {
	key := ctx.GetString(IdempotencyKeyHeader, "")
	if key == "" {
		return "", nil
	}

	if _, err := uuid.Parse(key); err != nil {
		return "", goerrors.New("idempotency key must be a UUID", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	return key, nil
}

func (a *AuthController) withIdempotency(ctx router.Context, key string, op func(router.Context) (any, error)) (any, error) {
	if key == "" || a.Idempotency == nil {
		return op(ctx)
	}

	return a.Idempotency.Do(ctx.Context(), key, func(context.Context) (any, error) {
		return op(ctx)
	})
}

func (a *AuthController) respondValidationError(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error":      "validation failed",
		"validation": err.Error(),
	})
}

func (a *AuthController) respondError(ctx router.Context, err error) error {
	status := statusFromError(err)
	if status >= router.StatusInternalServerError {
		a.Logger.Error("auth controller error", "error", err)
	}

	body := map[string]any{"error": err.Error()}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode != "" {
		body["code"] = rich.TextCode
	}

	return ctx.JSON(status, body)
}

func statusFromError(err error) int {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return router.StatusInternalServerError
	}

	switch rich.Category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return router.StatusBadRequest
	case goerrors.CategoryAuth:
		return router.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return router.StatusForbidden
	case goerrors.CategoryNotFound:
		return router.StatusNotFound
	case goerrors.CategoryConflict:
		return router.StatusConflict
	default:
		return router.StatusInternalServerError
	}
}
