package login_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/login"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://auth.example.com"
	testClientID = "exchange-ui"
)

func signHS256(t *testing.T, claims jwtlib.Claims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestExpiryValidator(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	login.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { login.NowTimeFunc = time.Now })

	v := login.NewExpiryValidator(30 * time.Second)
	ctx := context.Background()

	t.Run("not expired", func(t *testing.T) {
		token := signHS256(t, jwtlib.RegisteredClaims{ExpiresAt: jwtlib.NewNumericDate(now.Add(time.Hour))})
		require.NoError(t, v.Validate(ctx, token))
	})

	t.Run("expired within leeway", func(t *testing.T) {
		token := signHS256(t, jwtlib.RegisteredClaims{ExpiresAt: jwtlib.NewNumericDate(now.Add(-10 * time.Second))})
		require.NoError(t, v.Validate(ctx, token))
	})

	t.Run("expired", func(t *testing.T) {
		token := signHS256(t, jwtlib.RegisteredClaims{ExpiresAt: jwtlib.NewNumericDate(now.Add(-time.Hour))})
		require.ErrorIs(t, v.Validate(ctx, token), apperrors.ErrTokenExpired)
	})

	t.Run("no exp claim", func(t *testing.T) {
		token := signHS256(t, jwtlib.RegisteredClaims{Subject: "alice"})
		require.NoError(t, v.Validate(ctx, token))
	})

	t.Run("not a jwt", func(t *testing.T) {
		require.ErrorIs(t, v.Validate(ctx, "opaque-token"), apperrors.ErrInvalidToken)
		require.ErrorIs(t, v.Validate(ctx, " "), apperrors.ErrInvalidToken)
	})
}

func TestOIDCValidator(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	now := time.Now()
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{key.Public()}}
	verifier := oidc.NewVerifier(testIssuer, keySet, &oidc.Config{ClientID: testClientID})
	v := login.NewOIDCValidatorFromVerifier(verifier)
	ctx := context.Background()

	sign := func(k *rsa.PrivateKey, claims jwtlib.RegisteredClaims) string {
		s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims).SignedString(k)
		require.NoError(t, err)
		return s
	}
	valid := jwtlib.RegisteredClaims{
		Issuer:    testIssuer,
		Subject:   "alice",
		Audience:  jwtlib.ClaimStrings{testClientID},
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(time.Hour)),
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, v.Validate(ctx, sign(key, valid)))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		require.ErrorIs(t, v.Validate(ctx, sign(other, valid)), apperrors.ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := valid
		claims.Audience = jwtlib.ClaimStrings{"someone-else"}
		require.ErrorIs(t, v.Validate(ctx, sign(key, claims)), apperrors.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		claims := valid
		claims.IssuedAt = jwtlib.NewNumericDate(now.Add(-2 * time.Hour))
		claims.ExpiresAt = jwtlib.NewNumericDate(now.Add(-time.Hour))
		require.ErrorIs(t, v.Validate(ctx, sign(key, claims)), apperrors.ErrTokenExpired)
	})

	t.Run("key set unreachable", func(t *testing.T) {
		jwks := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(jwks.Close)

		remote := oidc.NewVerifier(testIssuer, oidc.NewRemoteKeySet(ctx, jwks.URL), &oidc.Config{ClientID: testClientID})
		err := login.NewOIDCValidatorFromVerifier(remote).Validate(ctx, sign(key, valid))
		require.ErrorIs(t, err, apperrors.ErrValidationUnavailable)
		require.NotErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}
