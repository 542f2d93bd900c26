package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenService mints and verifies the stateless, signed access tokens.
type TokenService interface {
	CreateAccessToken(principal Principal) (string, error)
	Subject(token string) (string, error)
	Authorities(token string) ([]string, error)
	IsValid(subject, token string) bool
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	config     Config
	clock      Clock
	logger     Logger
}

var _ TokenService = (*TokenServiceImpl)(nil)

// NewTokenService creates a new TokenService instance
func NewTokenService(config Config, clock Clock, logger Logger) *TokenServiceImpl {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey: []byte(config.GetSigningKey()),
		config:     config,
		clock:      clock,
		logger:     logger,
	}
}

// CreateAccessToken builds a signed token for the principal: subject is
// its login identifier, authorities its granted authority strings, with
// issued-at and expires-at read from the injected clock. Deterministic
// given a fixed clock and secret.
func (ts *TokenServiceImpl) CreateAccessToken(principal Principal) (string, error) {
	if principal == nil {
		return "", errors.New("principal must not be nil", errors.CategoryInternal)
	}

	now := ts.clock.Now()

	var aud jwt.ClaimStrings
	if audience := ts.config.GetAudience(); len(audience) > 0 {
		aud = make(jwt.ClaimStrings, len(audience))
		copy(aud, audience)
	}

	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.config.GetIssuer(),
			Audience:  aud,
			Subject:   principal.Subject(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.config.GetAccessTokenTTL())),
		},
		Authorities: principal.Authorities(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign access token")
	}

	return signedString, nil
}

// Subject verifies the token and returns its subject claim. Expired and
// malformed tokens fail with distinguishable errors.
func (ts *TokenServiceImpl) Subject(token string) (string, error) {
	claims, err := ts.Validate(token)
	if err != nil {
		return "", err
	}
	return claims.Subject(), nil
}

// Authorities verifies the token and returns the authorities claim.
func (ts *TokenServiceImpl) Authorities(token string) ([]string, error) {
	claims, err := ts.Validate(token)
	if err != nil {
		return nil, err
	}
	return claims.Authorities, nil
}

// IsValid reports whether subject is non-empty and the token verifies and
// has not expired at the clock's current instant.
func (ts *TokenServiceImpl) IsValid(subject, token string) bool {
	if subject == "" {
		return false
	}

	_, err := ts.Validate(token)
	return err == nil
}

// Validate parses and verifies a token string, returning structured claims.
// Failures are ErrTokenExpired for lapsed tokens and ErrTokenMalformed for
// everything the signature or structure check rejects.
func (ts *TokenServiceImpl) Validate(tokenString string) (*AccessClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.clock.Now),
	}
	if issuer := ts.config.GetIssuer(); issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
