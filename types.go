package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Principal is the authenticated identity used to build access token claims
type Principal interface {
	Subject() string
	Authorities() []string
}

// PasswordHasher hashes and verifies password credentials
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// ActivationNotice carries the data an external mailer needs to deliver
// an account activation link.
type ActivationNotice struct {
	FirstName string
	LastName  string
	Email     string
	Token     string
}

// ResetNotice carries the data an external mailer needs to deliver a
// password reset link.
type ResetNotice struct {
	Email string
	Token string
}

// Notifier receives token notices after the corresponding state
// transition commits. Delivery failures never roll the transition back.
type Notifier interface {
	AccountActivation(ctx context.Context, notice ActivationNotice) error
	PasswordReset(ctx context.Context, notice ResetNotice) error
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetResetTokenTTL() time.Duration
	GetIdempotencyTTL() time.Duration
}

const (
	// DefaultAccessTokenTTL is the access token lifetime.
	DefaultAccessTokenTTL = 30 * time.Minute
	// DefaultRefreshTokenTTL is the refresh token lifetime.
	DefaultRefreshTokenTTL = 5 * 24 * time.Hour
	// DefaultResetTokenTTL is the password reset token lifetime.
	DefaultResetTokenTTL = time.Hour
	// DefaultIdempotencyTTL is how long cached command results are served.
	DefaultIdempotencyTTL = time.Hour
)

// SimpleConfig is a literal-friendly Config implementation.
type SimpleConfig struct {
	SigningKey      string
	Issuer          string
	Audience        []string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	IdempotencyTTL  time.Duration
}

func (c SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c SimpleConfig) GetIssuer() string { return c.Issuer }

func (c SimpleConfig) GetAudience() []string { return c.Audience }

func (c SimpleConfig) GetAccessTokenTTL() time.Duration {
	return durationOrDefault(c.AccessTokenTTL, DefaultAccessTokenTTL)
}

func (c SimpleConfig) GetRefreshTokenTTL() time.Duration {
	return durationOrDefault(c.RefreshTokenTTL, DefaultRefreshTokenTTL)
}

func (c SimpleConfig) GetResetTokenTTL() time.Duration {
	return durationOrDefault(c.ResetTokenTTL, DefaultResetTokenTTL)
}

func (c SimpleConfig) GetIdempotencyTTL() time.Duration {
	return durationOrDefault(c.IdempotencyTTL, DefaultIdempotencyTTL)
}

func durationOrDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
