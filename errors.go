package auth

import "github.com/goliatone/go-errors"

const (
	TextCodePasswordMismatch   = "auth_passwords_mismatch"
	TextCodeEmailTaken         = "auth_email_taken"
	TextCodeInvalidCredentials = "auth_invalid_credentials"
	TextCodeAccountDisabled    = "auth_account_disabled"
	TextCodeAccountLocked      = "auth_account_locked"
	TextCodeAccountActive      = "auth_account_already_active"
	TextCodeActivationNotFound = "auth_activation_token_not_found"
	TextCodeUserNotFound       = "auth_user_not_found"
	TextCodeResetNotFound      = "auth_reset_token_not_found"
	TextCodeResetExpired       = "auth_reset_token_expired"
	TextCodeResetForbidden     = "auth_reset_requires_active_account"
	TextCodeRefreshNotFound    = "auth_refresh_token_not_found"
	TextCodeRefreshExpired     = "auth_refresh_token_expired"
	TextCodeTokenExpired       = "auth_token_expired"
	TextCodeTokenMalformed     = "auth_token_malformed"
)

// ErrPasswordMismatch is returned when a password and its confirmation differ.
var ErrPasswordMismatch = errors.New("passwords do not match", errors.CategoryBadInput).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(errors.CodeBadRequest)

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("email is already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials is the uniform login failure. Unknown identity and
// bad secret are distinguished only at the logging layer.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrAccountDisabled is returned when authenticating against an account
// that has not been activated.
var ErrAccountDisabled = errors.New("account is not activated", errors.CategoryAuthz).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(errors.CodeForbidden)

// ErrAccountLocked is returned when authenticating against a locked account.
var ErrAccountLocked = errors.New("account is locked", errors.CategoryAuthz).
	WithTextCode(TextCodeAccountLocked).
	WithCode(errors.CodeForbidden)

// ErrAccountAlreadyActive is returned when consuming an activation token
// bound to an enabled user. Activation is never idempotent past the first
// success.
var ErrAccountAlreadyActive = errors.New("account is already active", errors.CategoryConflict).
	WithTextCode(TextCodeAccountActive).
	WithCode(errors.CodeConflict)

// ErrActivationTokenNotFound is returned for unknown activation token values.
var ErrActivationTokenNotFound = errors.New("activation token not found", errors.CategoryNotFound).
	WithTextCode(TextCodeActivationNotFound).
	WithCode(errors.CodeNotFound)

// ErrUserNotFound is returned when a password reset targets an unknown email.
var ErrUserNotFound = errors.New("no account registered for that email", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrResetTokenNotFound covers unknown and already consumed reset tokens.
var ErrResetTokenNotFound = errors.New("password reset token not found", errors.CategoryNotFound).
	WithTextCode(TextCodeResetNotFound).
	WithCode(errors.CodeNotFound)

// ErrResetTokenExpired is returned when confirming a reset at or after its expiry.
var ErrResetTokenExpired = errors.New("password reset token has expired", errors.CategoryAuthz).
	WithTextCode(TextCodeResetExpired).
	WithCode(errors.CodeForbidden)

// ErrResetRequiresActiveAccount gates password resets behind activation.
var ErrResetRequiresActiveAccount = errors.New("account must be active to reset password", errors.CategoryAuthz).
	WithTextCode(TextCodeResetForbidden).
	WithCode(errors.CodeForbidden)

// ErrRefreshTokenNotFound is returned for unknown refresh token values.
var ErrRefreshTokenNotFound = errors.New("refresh token not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRefreshNotFound).
	WithCode(errors.CodeNotFound)

// ErrRefreshTokenExpired is returned when a refresh token outlived its TTL.
var ErrRefreshTokenExpired = errors.New("refresh token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for access tokens past their expiry claim.
var ErrTokenExpired = errors.New("access token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers signature and structural access token failures.
// Callers should treat these as suspicious, not as a re-auth prompt.
var ErrTokenMalformed = errors.New("access token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// HasTextCode reports whether err carries the given text code.
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}

	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}

	return rich.TextCode == code
}

// IsTokenExpiredError will check for expired access tokens
func IsTokenExpiredError(err error) bool {
	return HasTextCode(err, TextCodeTokenExpired)
}

// IsTokenMalformedError will check for malformed access tokens
func IsTokenMalformedError(err error) bool {
	return HasTextCode(err, TextCodeTokenMalformed)
}
