package backoffice

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DevSessionSecret is the signing key used when SESSION_SECRET is not
// configured. It matches the legacy deployment default so tokens issued by
// older instances keep verifying during development. Production startup
// refuses to run with it (see config.Config.Validate).
const DevSessionSecret = "dev-secret"

// DefaultSessionTTL is the session lifetime when SESSION_TTL_HOURS is unset.
const DefaultSessionTTL = 2 * time.Hour

// MinSessionTTL is the floor applied to configured session lifetimes.
const MinSessionTTL = time.Second

// Claims is the decoded payload of a session token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionService issues and verifies stateless signed session tokens.
// Tokens are compact HS256 JWTs (three dot-joined base64url segments)
// carrying sub, iat and exp. There is no server-side session storage and
// no revocation list: a token stays valid until its expiry.
type SessionService struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionService creates a SessionService signing with secret. A ttl
// below MinSessionTTL is raised to it.
func NewSessionService(secret string, ttl time.Duration) *SessionService {
	if secret == "" {
		secret = DevSessionSecret
	}
	if ttl < MinSessionTTL {
		ttl = MinSessionTTL
	}
	return &SessionService{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured session lifetime.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for subject, valid from now until now+TTL.
// expiresIn is the lifetime in whole seconds, as reported to clients.
func (s *SessionService) Issue(subject string) (token string, expiresIn int, err error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign session token: %w", err)
	}

	return token, int(s.ttl / time.Second), nil
}

// Verify checks the signature and expiry of token and returns its claims.
// It returns ErrTokenExpired for well-formed but expired tokens and
// ErrTokenInvalid for everything else (malformed input, wrong segment
// count, signature mismatch, unexpected signing method). Verification is
// pure: no I/O, no revocation check.
func (s *SessionService) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(_ *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	reg, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{Subject: reg.Subject}
	if reg.IssuedAt != nil {
		claims.IssuedAt = reg.IssuedAt.Time
	}
	if reg.ExpiresAt != nil {
		claims.ExpiresAt = reg.ExpiresAt.Time
	}

	return claims, nil
}
