package login

import (
	"context"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/pkg/errors"
)

// NowTimeFunc is overridden in tests.
var NowTimeFunc = time.Now

// ExpiryValidator checks the exp claim of a stored jwt without verifying its signature.
// The client never holds the issuer's keys; this only avoids trusting a token that has
// plainly run out.
type ExpiryValidator struct {
	leeway time.Duration
}

func NewExpiryValidator(leeway time.Duration) *ExpiryValidator {
	return &ExpiryValidator{leeway: leeway}
}

func (v *ExpiryValidator) Validate(ctx context.Context, rawToken string) error {
	if strings.TrimSpace(rawToken) == "" {
		return apperrors.ErrInvalidToken
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return errors.Wrap(apperrors.ErrInvalidToken, err.Error())
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return errors.Wrap(apperrors.ErrInvalidToken, err.Error())
	}
	if exp == nil {
		// Tokens without exp never expire
		return nil
	}
	if NowTimeFunc().After(exp.Time.Add(v.leeway)) {
		return apperrors.ErrTokenExpired
	}
	return nil
}

// OIDCValidator verifies the stored token as an OIDC ID token issued by the configured
// provider: signature, issuer, audience and expiry.
type OIDCValidator struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCValidator performs provider discovery against issuerURL.
func NewOIDCValidator(ctx context.Context, issuerURL, clientID string) (*OIDCValidator, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewOIDCValidator] failed to create OIDC provider")
	}
	return NewOIDCValidatorFromVerifier(provider.Verifier(&oidc.Config{ClientID: clientID})), nil
}

func NewOIDCValidatorFromVerifier(verifier *oidc.IDTokenVerifier) *OIDCValidator {
	return &OIDCValidator{verifier: verifier}
}

// Validate returns ErrTokenExpired or ErrInvalidToken when the token itself is bad, and
// ErrValidationUnavailable when the provider's keys could not be fetched.
func (v *OIDCValidator) Validate(ctx context.Context, rawToken string) error {
	if _, err := v.verifier.Verify(ctx, rawToken); err != nil {
		var expired *oidc.TokenExpiredError
		switch {
		case errors.As(err, &expired):
			return apperrors.ErrTokenExpired
		case ctx.Err() != nil:
			return errors.Wrap(apperrors.ErrValidationUnavailable, ctx.Err().Error())
		case strings.Contains(err.Error(), "fetching keys"):
			// go-oidc reports remote key set failures only as text
			return errors.Wrap(apperrors.ErrValidationUnavailable, err.Error())
		}
		return errors.Wrap(apperrors.ErrInvalidToken, err.Error())
	}
	return nil
}
