// Package token issues and verifies signed, time-bounded session tokens.
//
// Tokens are HS256 JWTs carrying the account id and email. They are not
// stored: a token stays valid until it expires or the signing secret
// changes.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/notekeep/internal/platform/errors"
)

// ErrInvalidToken is returned for every verification failure. Malformed,
// forged, and expired tokens are deliberately indistinguishable.
var ErrInvalidToken = apperrors.New(apperrors.CodeUnauthenticated, "Invalid or expired token")

// Claims identifies the account a token was issued for.
type Claims struct {
	UserID    int64
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Token is a signed session token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// jwtClaims is the wire form of Claims.
type jwtClaims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"id"`
	Email  string `json:"email"`
}

// Service signs and verifies tokens with a process-wide secret.
type Service struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewService validates cfg and returns a Service.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = DefaultIssuer
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &Service{
		secret: secret,
		ttl:    cfg.TTL,
		issuer: issuer,
		now:    cfg.Now,
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for claims that expires one TTL from now.
func (s *Service) Issue(claims Claims) (Token, error) {
	if claims.UserID <= 0 {
		return Token{}, errors.New("token user id is required")
	}
	if strings.TrimSpace(claims.Email) == "" {
		return Token{}, errors.New("token email is required")
	}
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.ttl)
	wire := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(claims.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: claims.UserID,
		Email:  claims.Email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wire).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: wire.ExpiresAt.Time.UTC()}, nil
}

// Verify checks the signature, then expiry, then the claim shape, and returns
// the claims. Any failure yields ErrInvalidToken.
func (s *Service) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}
	var parsed jwtClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	if parsed.UserID <= 0 || strings.TrimSpace(parsed.Email) == "" {
		return Claims{}, ErrInvalidToken
	}
	if parsed.Subject != strconv.FormatInt(parsed.UserID, 10) {
		return Claims{}, ErrInvalidToken
	}
	claims := Claims{
		UserID:    parsed.UserID,
		Email:     parsed.Email,
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}
