package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-session-client/account"
	"github.com/jrsteele09/go-session-client/apiclient"
	"github.com/jrsteele09/go-session-client/authmodel"
	"github.com/jrsteele09/go-session-client/internal/config"
	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/login"
	"github.com/jrsteele09/go-session-client/login/loginfake"
	"github.com/jrsteele09/go-session-client/session"
	"github.com/jrsteele09/go-session-client/tokenstore"
	"github.com/jrsteele09/go-session-client/trade"
	faketokenstore "github.com/jrsteele09/go-session-client/tokenstore/repofake"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultCurrency = "btc"

// registrar is implemented by authenticators that can create users locally.
type registrar interface {
	Register(credentials authmodel.Credentials) error
}

type app struct {
	api           *apiclient.Client
	cache         *account.Cache
	fetcher       *account.Fetcher
	authenticator session.Authenticator
	coordinator   *session.Coordinator
	form          *trade.Form
	closers       []func() error
}

func newApp(ctx context.Context, c config.Config) (*app, error) {
	a := &app{
		api:   apiclient.New(c.GetAPIBaseURL()),
		cache: account.NewCache(),
	}
	a.fetcher = account.NewFetcher(a.api, a.cache, account.WithContext(ctx))
	a.form = trade.NewForm(a.api, defaultCurrency, trade.Rates{})

	store, err := a.newTokenStore(c)
	if err != nil {
		return nil, err
	}

	authenticator, err := newAuthenticator(c, a.api)
	if err != nil {
		return nil, err
	}
	a.authenticator = authenticator

	options := []session.CoordinatorOption{
		session.WithLoginTimeout(c.GetLoginTimeout()),
		session.WithEventQueueSize(c.GetEventQueueSize()),
		session.WithStateHandler(a.onState),
		session.WithOutcomeHandler(a.onOutcome),
	}
	validator, err := newValidator(ctx, c)
	if err != nil {
		return nil, err
	}
	if validator != nil {
		options = append(options, session.WithTokenValidator(validator))
	}

	a.coordinator, err = session.NewCoordinator(session.Collaborators{
		Store:         store,
		Authenticator: authenticator,
		API:           a.api,
		Fetcher:       a.fetcher,
	}, options...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) newTokenStore(c config.Config) (session.TokenStore, error) {
	switch c.GetTokenStore() {
	case config.TokenStoreMemory:
		return faketokenstore.NewFakeTokenStore(), nil
	case config.TokenStoreFile:
		return tokenstore.NewFileStore(c.GetDataFolder(), c.GetTokenKey()), nil
	case config.TokenStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		a.closers = append(a.closers, rdb.Close)
		return tokenstore.NewRedisStore(rdb, c.GetTokenKey(), 0), nil
	}
	return nil, errors.Wrapf(apperrors.ErrUnsupported, "[newApp] token store %q", c.GetTokenStore())
}

func newAuthenticator(c config.Config, api *apiclient.Client) (session.Authenticator, error) {
	switch c.GetLoginMode() {
	case config.LoginModeAPI:
		return api, nil
	case config.LoginModeOAuth2:
		pg, err := login.NewPasswordGrant(c.GetOAuthClientID(), c.GetOAuthClientSecret(), c.GetOAuthTokenURL(), c.GetOAuthScopes())
		if err != nil {
			return nil, err
		}
		return pg, nil
	case config.LoginModeOffline:
		return loginfake.NewFakeAuthenticator(c.GetOfflineSigningKey()), nil
	}
	return nil, errors.Wrapf(apperrors.ErrUnsupported, "[newApp] login mode %q", c.GetLoginMode())
}

func newValidator(ctx context.Context, c config.Config) (session.TokenValidator, error) {
	switch c.GetReauthValidation() {
	case config.ReauthValidationNone:
		return nil, nil
	case config.ReauthValidationExpiry:
		return login.NewExpiryValidator(30 * time.Second), nil
	case config.ReauthValidationOIDC:
		v, err := login.NewOIDCValidator(ctx, c.GetOIDCIssuer(), c.GetOAuthClientID())
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, errors.Wrapf(apperrors.ErrUnsupported, "[newApp] reauth validation %q", c.GetReauthValidation())
}

func (a *app) onState(from, to session.State) {
	if to == session.LoggingOut {
		a.fetcher.Reset()
	}
	if to == session.AwaitingCredentials {
		fmt.Println("Not logged in. Use: login <id> <secret> | signup <id> <secret>")
	}
	if to == session.Authenticated {
		fmt.Println("Logged in.")
	}
}

func (a *app) onOutcome(o session.Outcome) {
	if !o.Success() {
		fmt.Printf("Login failed: %v\n", o.Err)
	}
}

func (a *app) close() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			log.Err(err).Msg("Close failed")
		}
	}
}
