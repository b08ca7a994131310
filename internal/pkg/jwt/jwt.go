// Package jwt verifies the HS256 bearer tokens that carry a marketplace
// identity into the payment engine, and issues them for local tooling.
package jwt

import (
	"errors"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	issuer = "shortlets-api"
	// clock skew tolerated between the auth service and this engine
	leeway = 30 * time.Second
)

// Principal is the identity a verified token grants: a marketplace user and
// their role (user, admin or support).
type Principal struct {
	UserID int64
	Role   string
}

type tokenClaims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwtlib.RegisteredClaims
}

type Service struct {
	key    []byte
	ttl    time.Duration
	parser *jwtlib.Parser
	now    func() time.Time
}

// New returns a Service signing with secret. ttl bounds tokens it issues;
// verification honours whatever expiry the token carries.
func New(secret string, ttl time.Duration) *Service {
	return &Service{
		key: []byte(secret),
		ttl: ttl,
		parser: jwtlib.NewParser(
			jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
			jwtlib.WithExpirationRequired(),
			jwtlib.WithLeeway(leeway),
		),
		now: time.Now,
	}
}

// Issue signs a token for p. The marketplace's auth service issues tokens
// in production; ledgerctl seed and tests use this.
func (s *Service) Issue(p Principal) (string, error) {
	if p.UserID <= 0 {
		return "", ErrInvalidToken
	}
	now := s.now()
	claims := tokenClaims{
		UserID: p.UserID,
		Role:   p.Role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(p.UserID, 10),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.key)
}

// Verify checks signature, algorithm and expiry and returns the principal.
func (s *Service) Verify(raw string) (Principal, error) {
	var claims tokenClaims
	token, err := s.parser.ParseWithClaims(raw, &claims, func(*jwtlib.Token) (any, error) {
		return s.key, nil
	})
	if err != nil || !token.Valid || claims.UserID <= 0 {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: claims.UserID, Role: claims.Role}, nil
}
