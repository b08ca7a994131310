package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_IssueAndVerify(t *testing.T) {
	s := New("secret", time.Hour)
	token, err := s.Issue(Principal{UserID: 42, Role: "admin"})
	require.NoError(t, err)

	p, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: 42, Role: "admin"}, p)
}

func TestService_IssueRequiresUser(t *testing.T) {
	_, err := New("secret", time.Hour).Issue(Principal{Role: "user"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_VerifyRejects(t *testing.T) {
	s := New("secret", time.Hour)

	tests := map[string]func(t *testing.T) string{
		"wrong key": func(t *testing.T) string {
			tok, err := New("other", time.Hour).Issue(Principal{UserID: 1, Role: "user"})
			require.NoError(t, err)
			return tok
		},
		"expired beyond leeway": func(t *testing.T) string {
			tok, err := New("secret", -time.Minute).Issue(Principal{UserID: 1, Role: "user"})
			require.NoError(t, err)
			return tok
		},
		"alg none": func(t *testing.T) string {
			tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, tokenClaims{UserID: 1}).
				SignedString(jwtlib.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)
			return tok
		},
		"no expiry": func(t *testing.T) string {
			tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, tokenClaims{UserID: 1, Role: "user"}).
				SignedString([]byte("secret"))
			require.NoError(t, err)
			return tok
		},
		"no user": func(t *testing.T) string {
			claims := tokenClaims{Role: "user"}
			claims.ExpiresAt = jwtlib.NewNumericDate(time.Now().Add(time.Hour))
			tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("secret"))
			require.NoError(t, err)
			return tok
		},
		"garbage": func(t *testing.T) string { return "not.a.jwt" },
	}

	for name, build := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(build(t))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestService_VerifyToleratesSkew(t *testing.T) {
	issuer := New("secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour - 10*time.Second) }
	tok, err := issuer.Issue(Principal{UserID: 5, Role: "support"})
	require.NoError(t, err)

	p, err := New("secret", time.Hour).Verify(tok)
	require.NoError(t, err)
	assert.EqualValues(t, 5, p.UserID)
}
