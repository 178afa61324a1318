package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenExpired is returned by Verify for a well-formed token whose
// expiration has passed.
var ErrTokenExpired = errors.New("session token expired")

// ErrTokenInvalid is returned by Verify for any other verification failure:
// bad signature, malformed token, wrong signing algorithm, or wrong issuer.
var ErrTokenInvalid = errors.New("invalid session token")

// Claims are the JWT claims carried by a ThinkPlus session token.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
	Type      string `json:"type"` // "session" or "oauth-state"
}

// Issuer issues and verifies session JWTs signed with a process-wide HMAC
// secret. The secret is injected at construction; rotating it invalidates all
// outstanding tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewIssuer creates an Issuer.
//
//	secret — HMAC signing key, from process configuration.
//	issuerURL — the "iss" claim value; matches the API's base URL.
//	ttl — token lifetime (default: 24 hours).
func NewIssuer(secret []byte, issuerURL string, ttl time.Duration) *Issuer {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: secret, issuer: issuerURL, ttl: ttl}
}

// Issue creates a signed session token bound to the given account id, expiring
// TTL from now.
func (i *Issuer) Issue(accountID string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.New().String(),
		},
		AccountID: accountID,
		Type:      "session",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning its claims.
// Expired tokens yield ErrTokenExpired; everything else yields ErrTokenInvalid.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	claims, err := i.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Type != "session" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// IssueOAuthState creates a short-lived token used as the OAuth state
// parameter. The provider name rides in the AccountID field so the callback
// can check it.
func (i *Issuer) IssueOAuthState(provider string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   "oauth-state",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
			ID:        uuid.New().String(),
		},
		AccountID: provider,
		Type:      "oauth-state",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign oauth state: %w", err)
	}
	return signed, nil
}

// VerifyOAuthState validates an OAuth state token and returns the embedded provider.
func (i *Issuer) VerifyOAuthState(tokenStr string) (string, error) {
	claims, err := i.parse(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Type != "oauth-state" {
		return "", ErrTokenInvalid
	}
	return claims.AccountID, nil
}

func (i *Issuer) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
