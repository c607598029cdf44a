package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-session-client/authmodel"
	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultEventQueueSize = 16

// TokenStore is durable storage for the session token.
// Read returns errors.ErrTokenNotFound when no token is stored.
type TokenStore interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, credentials authmodel.Credentials) (string, error)
}

// TokenInstaller is the API layer whose requests carry the installed token.
type TokenInstaller interface {
	InstallToken(token string)
	ClearToken()
}

// Fetcher receives the post-login triggers. Each call must return without waiting for
// the fetch it starts.
type Fetcher interface {
	RequestWalletFetch()
	RequestTransactionsFetch()
	RequestUserInfoFetch()
}

// TokenValidator checks a token read from storage before it is trusted.
type TokenValidator interface {
	Validate(ctx context.Context, token string) error
}

// Collaborators holds the required dependencies of a Coordinator.
type Collaborators struct {
	Store         TokenStore
	Authenticator Authenticator
	API           TokenInstaller
	Fetcher       Fetcher
}

type activeSession struct {
	token     string
	source    Source
	createdAt time.Time
}

// Coordinator is the single owner of the application's authenticated state. Run drives
// the login/logout lifecycle; everything else talks to it through events.
type Coordinator struct {
	deps         Collaborators
	validator    TokenValidator
	loginTimeout time.Duration
	logger       zerolog.Logger
	nowTime      func() time.Time
	onOutcome    func(Outcome)
	onState      func(from, to State)

	events  chan Event
	running atomic.Bool
	stopped chan struct{}

	mu      sync.RWMutex
	state   State
	session *activeSession

	// skipped is a stored token this run will not use again: one that could not be removed
	// from storage, or one the validator could not check. Only the Run goroutine touches it.
	skipped string
}

// CoordinatorOption defines a function type to modify the Coordinator instance.
type CoordinatorOption func(*Coordinator)

// WithTokenValidator checks stored tokens before silent re-authentication. Without one a
// stored token is accepted as is.
func WithTokenValidator(v TokenValidator) CoordinatorOption {
	return func(c *Coordinator) {
		c.validator = v
	}
}

// WithLoginTimeout bounds each login call. Zero leaves it unbounded.
func WithLoginTimeout(timeout time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.loginTimeout = timeout
	}
}

func WithEventQueueSize(size int) CoordinatorOption {
	return func(c *Coordinator) {
		if size > 0 {
			c.events = make(chan Event, size)
		}
	}
}

func WithLogger(logger zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithOutcomeHandler is called from the coordinator goroutine with every attempt outcome.
// It must not block.
func WithOutcomeHandler(fn func(Outcome)) CoordinatorOption {
	return func(c *Coordinator) {
		c.onOutcome = fn
	}
}

// WithStateHandler is called from the coordinator goroutine on every state change.
// It must not block.
func WithStateHandler(fn func(from, to State)) CoordinatorOption {
	return func(c *Coordinator) {
		c.onState = fn
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		c.nowTime = nowFunc
	}
}

func NewCoordinator(deps Collaborators, options ...CoordinatorOption) (*Coordinator, error) {
	if deps.Store == nil {
		return nil, errors.New("[NewCoordinator] token store is required")
	}
	if deps.Authenticator == nil {
		return nil, errors.New("[NewCoordinator] authenticator is required")
	}
	if deps.API == nil {
		return nil, errors.New("[NewCoordinator] api token installer is required")
	}
	if deps.Fetcher == nil {
		return nil, errors.New("[NewCoordinator] fetcher is required")
	}

	c := &Coordinator{
		deps:    deps,
		logger:  log.Logger,
		nowTime: time.Now,
		events:  make(chan Event, defaultEventQueueSize),
		stopped: make(chan struct{}),
		state:   CheckingAuth,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Authorized reports whether a session is currently active.
func (c *Coordinator) Authorized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session != nil
}

func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Dispatch queues an event for the coordinator. Events sent before Run starts are kept.
func (c *Coordinator) Dispatch(ctx context.Context, ev Event) error {
	select {
	case <-c.stopped:
		return apperrors.ErrCoordinatorStopped
	default:
	}

	select {
	case c.events <- ev:
		return nil
	case <-c.stopped:
		return apperrors.ErrCoordinatorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) SubmitLogin(ctx context.Context, credentials authmodel.Credentials) error {
	return c.Dispatch(ctx, LoginEvent(credentials))
}

func (c *Coordinator) SubmitCreateUser(ctx context.Context, credentials authmodel.Credentials) error {
	return c.Dispatch(ctx, CreateUserEvent(credentials))
}

func (c *Coordinator) Logout(ctx context.Context) error {
	return c.Dispatch(ctx, LogoutEvent())
}

// Run drives the lifecycle until ctx is cancelled. It returns ctx.Err() and may only be
// called once.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("[Coordinator.Run] already running")
	}
	defer close(c.stopped)

	c.logger.Info().Msg("Session coordinator started")
	for {
		if err := c.cycle(ctx); err != nil {
			c.logger.Info().Err(err).Msg("Session coordinator stopped")
			return err
		}
	}
}

// cycle runs one pass from CheckingAuth back to CheckingAuth. A nil error means start over.
func (c *Coordinator) cycle(ctx context.Context) error {
	c.setState(CheckingAuth)

	var a *attempt

	token, err := c.deps.Store.Read(ctx)
	if err == nil && token == c.skipped {
		c.logger.Warn().Msg("Ignoring stored token already rejected in this run")
		err = apperrors.ErrTokenNotFound
	}
	switch {
	case err == nil:
		c.setState(AwaitingToken)
		a = c.authorizeWithToken(ctx, token)
	default:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !apperrors.Is(err, apperrors.ErrTokenNotFound) {
			c.logger.Warn().Err(err).Msg("Stored token unreadable, waiting for credentials")
		}

		c.setState(AwaitingCredentials)
		credentials, ok, err := c.awaitCredentials(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		c.setState(Authenticating)
		a = c.authorizeWithCredentials(ctx, credentials)
	}

	outcome, err := a.wait(ctx)
	if err != nil {
		return err
	}
	c.publish(outcome)

	if !outcome.Success() {
		if outcome.Source == SourceStoredToken {
			c.dropStoredToken(ctx, token, outcome.Err)
		}
		return nil
	}
	c.establish(ctx, outcome)

	c.setState(Authenticated)
	if err := c.awaitLogout(ctx); err != nil {
		return err
	}

	c.setState(LoggingOut)
	c.teardown(ctx)
	return nil
}

// awaitCredentials blocks until a login or sign up submission. ok is false for sign up,
// which never produces a session here.
func (c *Coordinator) awaitCredentials(ctx context.Context) (credentials authmodel.Credentials, ok bool, err error) {
	for {
		select {
		case <-ctx.Done():
			return authmodel.Credentials{}, false, ctx.Err()
		case ev := <-c.events:
			switch ev.Kind {
			case EventLogin:
				return ev.Credentials, true, nil
			case EventCreateUser:
				c.logger.Debug().Str("identifier", ev.Credentials.Identifier).Msg("Sign up submitted, restarting session check")
				return authmodel.Credentials{}, false, nil
			case EventLogout:
				// Nothing is active; clearing again keeps logout idempotent
				c.deps.API.ClearToken()
				c.clearStoredToken(ctx, "")
			default:
				c.logger.Debug().Stringer("event", ev.Kind).Msg("Ignoring event while awaiting credentials")
			}
		}
	}
}

func (c *Coordinator) awaitLogout(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			if ev.Kind == EventLogout {
				return nil
			}
			c.logger.Debug().Stringer("event", ev.Kind).Msg("Ignoring event while authenticated")
		}
	}
}

// authorizeWithToken accepts a stored token, checking it with the validator if one is set.
func (c *Coordinator) authorizeWithToken(ctx context.Context, token string) *attempt {
	a := newAttempt(SourceStoredToken)
	go func() {
		if c.validator != nil {
			if err := c.validator.Validate(ctx, token); err != nil {
				a.fail(fmt.Errorf("%w: stored token rejected: %w", apperrors.ErrAuthenticationFailed, err))
				return
			}
		}
		a.succeed(token)
	}()
	return a
}

func (c *Coordinator) authorizeWithCredentials(ctx context.Context, credentials authmodel.Credentials) *attempt {
	a := newAttempt(SourceCredentials)
	go func() {
		loginCtx := ctx
		if c.loginTimeout > 0 {
			var cancel context.CancelFunc
			loginCtx, cancel = context.WithTimeout(ctx, c.loginTimeout)
			defer cancel()
		}

		token, err := c.deps.Authenticator.Login(loginCtx, credentials)
		if err != nil {
			a.fail(fmt.Errorf("%w: %w", apperrors.ErrAuthenticationFailed, err))
			return
		}
		if token == "" {
			a.fail(fmt.Errorf("%w: %w", apperrors.ErrAuthenticationFailed, apperrors.ErrInvalidToken))
			return
		}
		a.succeed(token)
	}()
	return a
}

// establish records the session, installs and persists the token, then fires the fetch
// triggers. The order matters: nothing is fetched before the API layer holds the token.
func (c *Coordinator) establish(ctx context.Context, outcome Outcome) {
	c.mu.Lock()
	c.session = &activeSession{
		token:     outcome.Token,
		source:    outcome.Source,
		createdAt: c.nowTime(),
	}
	c.mu.Unlock()

	c.deps.API.InstallToken(outcome.Token)

	if err := c.deps.Store.Write(ctx, outcome.Token); err != nil {
		c.logger.Err(err).Str("attempt_id", outcome.AttemptID).Msg("Failed to persist token, session kept in memory")
	} else if outcome.Token == c.skipped {
		c.skipped = ""
	}

	c.deps.Fetcher.RequestWalletFetch()
	c.deps.Fetcher.RequestTransactionsFetch()
	c.deps.Fetcher.RequestUserInfoFetch()

	c.logger.Info().
		Str("attempt_id", outcome.AttemptID).
		Str("source", string(outcome.Source)).
		Msg("Session established")
}

func (c *Coordinator) teardown(ctx context.Context) {
	c.mu.Lock()
	var (
		age   time.Duration
		token string
	)
	if c.session != nil {
		age = c.nowTime().Sub(c.session.createdAt)
		token = c.session.token
	}
	c.session = nil
	c.mu.Unlock()

	c.deps.API.ClearToken()
	c.clearStoredToken(ctx, token)

	c.logger.Info().Dur("session_age", age).Msg("Logged out")
}

// dropStoredToken keeps a rejected stored token from being read again. A token the
// validator found bad is cleared; one it could not check stays stored for the next start
// and is only skipped for the rest of this run.
func (c *Coordinator) dropStoredToken(ctx context.Context, token string, reason error) {
	if apperrors.Is(reason, apperrors.ErrInvalidToken) || apperrors.Is(reason, apperrors.ErrTokenExpired) {
		c.clearStoredToken(ctx, token)
		return
	}
	c.logger.Warn().Err(reason).Msg("Stored token could not be validated, keeping it for the next start")
	c.skipped = token
}

// clearStoredToken removes the persisted token. If storage refuses, token is remembered
// so the next pass does not silently log back in with it.
func (c *Coordinator) clearStoredToken(ctx context.Context, token string) {
	if err := c.deps.Store.Clear(ctx); err != nil {
		c.logger.Err(err).Msg("Failed to clear stored token")
		if token != "" {
			c.skipped = token
		}
	}
}

func (c *Coordinator) publish(outcome Outcome) {
	if outcome.Success() {
		c.logger.Debug().Str("attempt_id", outcome.AttemptID).Str("source", string(outcome.Source)).Msg("Authentication succeeded")
	} else {
		c.logger.Warn().Err(outcome.Err).Str("attempt_id", outcome.AttemptID).Str("source", string(outcome.Source)).Msg("Authentication failed")
	}
	if c.onOutcome != nil {
		c.onOutcome(outcome)
	}
}

func (c *Coordinator) setState(to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()

	if from == to {
		return
	}
	c.logger.Debug().Stringer("from", from).Stringer("to", to).Msg("Session state changed")
	if c.onState != nil {
		c.onState(from, to)
	}
}
