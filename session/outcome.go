package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Source tells where the token of an attempt came from.
type Source string

const (
	SourceStoredToken Source = "stored_token"
	SourceCredentials Source = "credentials"
)

// Outcome is the terminal result of one authentication attempt: a token on success, an
// error on failure.
type Outcome struct {
	AttemptID string
	Source    Source
	Token     string
	Err       error
}

func (o Outcome) Success() bool {
	return o.Err == nil
}

// attempt is a single assignment future completed by the goroutine running the attempt.
// The loop waits on the attempt it launched, so a late result from an earlier attempt can
// never be mistaken for the current one.
type attempt struct {
	id      string
	source  Source
	done    chan struct{}
	once    sync.Once
	outcome Outcome
}

func newAttempt(source Source) *attempt {
	return &attempt{
		id:     uuid.New().String(),
		source: source,
		done:   make(chan struct{}),
	}
}

func (a *attempt) succeed(token string) {
	a.complete(Outcome{Token: token})
}

func (a *attempt) fail(err error) {
	a.complete(Outcome{Err: err})
}

// complete is a no-op after the first call.
func (a *attempt) complete(o Outcome) {
	a.once.Do(func() {
		o.AttemptID = a.id
		o.Source = a.source
		a.outcome = o
		close(a.done)
	})
}

func (a *attempt) wait(ctx context.Context) (Outcome, error) {
	select {
	case <-a.done:
		return a.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
