package faketokenstore

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/tokenstore"
)

var _ tokenstore.Repo = (*FakeTokenStore)(nil)

// FakeTokenStore is an in-memory token slot. The *Err fields force the matching call to fail.
type FakeTokenStore struct {
	lock     sync.RWMutex
	token    string
	writes   []string
	clears   int
	ReadErr  error
	WriteErr error
	ClearErr error
}

func NewFakeTokenStore() *FakeTokenStore {
	return &FakeTokenStore{}
}

// NewFakeTokenStoreWith starts with token already persisted.
func NewFakeTokenStoreWith(token string) *FakeTokenStore {
	return &FakeTokenStore{token: token}
}

func (ts *FakeTokenStore) Read(ctx context.Context) (string, error) {
	ts.lock.RLock()
	defer ts.lock.RUnlock()

	if ts.ReadErr != nil {
		return "", ts.ReadErr
	}
	if ts.token == "" {
		return "", apperrors.ErrTokenNotFound
	}
	return ts.token, nil
}

func (ts *FakeTokenStore) Write(ctx context.Context, token string) error {
	ts.lock.Lock()
	defer ts.lock.Unlock()

	if ts.WriteErr != nil {
		return ts.WriteErr
	}
	ts.token = token
	ts.writes = append(ts.writes, token)
	return nil
}

func (ts *FakeTokenStore) Clear(ctx context.Context) error {
	ts.lock.Lock()
	defer ts.lock.Unlock()

	if ts.ClearErr != nil {
		return ts.ClearErr
	}
	ts.token = ""
	ts.clears++
	return nil
}

// Token returns the stored token without going through Read.
func (ts *FakeTokenStore) Token() string {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.token
}

func (ts *FakeTokenStore) Writes() []string {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return append([]string(nil), ts.writes...)
}

func (ts *FakeTokenStore) Clears() int {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.clears
}
