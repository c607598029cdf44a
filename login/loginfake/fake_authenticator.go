package loginfake

import (
	"context"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-client/authmodel"
	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenExpiry = 1 * time.Hour

// FakeAuthenticator is an in-process user table that issues HS256 jwts. It backs the
// offline login mode and tests that need real looking tokens.
type FakeAuthenticator struct {
	signingKey []byte
	expiry     time.Duration
	nowTime    func() time.Time

	lock  sync.RWMutex
	users map[string]string // identifier -> bcrypt hash
	calls int
}

type Option func(*FakeAuthenticator)

func WithExpiry(expiry time.Duration) Option {
	return func(fa *FakeAuthenticator) {
		fa.expiry = expiry
	}
}

func WithNowTime(nowFunc func() time.Time) Option {
	return func(fa *FakeAuthenticator) {
		fa.nowTime = nowFunc
	}
}

func NewFakeAuthenticator(signingKey string, options ...Option) *FakeAuthenticator {
	fa := &FakeAuthenticator{
		signingKey: []byte(signingKey),
		expiry:     defaultTokenExpiry,
		nowTime:    time.Now,
		users:      make(map[string]string),
	}
	for _, opt := range options {
		opt(fa)
	}
	return fa
}

// Register adds a user. Identifiers are unique.
func (fa *FakeAuthenticator) Register(credentials authmodel.Credentials) error {
	if credentials.Empty() {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credentials.Secret), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "[FakeAuthenticator.Register] hash password")
	}

	fa.lock.Lock()
	defer fa.lock.Unlock()

	if _, ok := fa.users[credentials.Identifier]; ok {
		return apperrors.ErrUserExists
	}
	fa.users[credentials.Identifier] = string(hash)
	return nil
}

func (fa *FakeAuthenticator) Login(ctx context.Context, credentials authmodel.Credentials) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fa.lock.Lock()
	fa.calls++
	hash, ok := fa.users[credentials.Identifier]
	fa.lock.Unlock()

	if !ok || bcrypt.CompareHashAndPassword([]byte(hash), []byte(credentials.Secret)) != nil {
		return "", apperrors.ErrInvalidCredentials
	}

	now := fa.nowTime()
	claims := jwtlib.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   credentials.Identifier,
		Issuer:    "offline",
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(fa.expiry)),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(fa.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "[FakeAuthenticator.Login] sign token")
	}
	return signed, nil
}

// Calls is the number of Login invocations so far.
func (fa *FakeAuthenticator) Calls() int {
	fa.lock.RLock()
	defer fa.lock.RUnlock()
	return fa.calls
}

// Subject verifies token with the signing key and returns its subject.
func (fa *FakeAuthenticator) Subject(rawToken string) (string, error) {
	token, err := jwtlib.ParseWithClaims(rawToken, &jwtlib.RegisteredClaims{}, func(t *jwtlib.Token) (any, error) {
		return fa.signingKey, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(fa.nowTime))
	if err != nil {
		return "", errors.Wrap(apperrors.ErrInvalidToken, err.Error())
	}
	return token.Claims.GetSubject()
}
