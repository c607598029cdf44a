package account

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-session-client/apiclient"
	"github.com/rs/zerolog/log"
)

// API is the part of the backend client the fetcher needs.
type API interface {
	Wallet(ctx context.Context) (*apiclient.Wallet, error)
	Transactions(ctx context.Context) ([]apiclient.Transaction, error)
	UserInfo(ctx context.Context) (*apiclient.UserInfo, error)
}

// Fetcher turns the three post-login triggers into background requests whose results land
// in a Cache. Callers never wait on a trigger.
type Fetcher struct {
	api     API
	cache   *Cache
	timeout time.Duration
	ctx     context.Context
	wg      sync.WaitGroup

	mu            sync.Mutex
	session       context.Context
	cancelSession context.CancelFunc
}

type FetcherOption func(*Fetcher)

// WithTimeout bounds each fetch. Defaults to 15 seconds.
func WithTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// WithContext ties in-flight fetches to ctx so they stop on shutdown.
func WithContext(ctx context.Context) FetcherOption {
	return func(f *Fetcher) {
		f.ctx = ctx
	}
}

func NewFetcher(api API, cache *Cache, options ...FetcherOption) *Fetcher {
	f := &Fetcher{
		api:     api,
		cache:   cache,
		timeout: 15 * time.Second,
		ctx:     context.Background(),
	}
	for _, opt := range options {
		opt(f)
	}
	f.session, f.cancelSession = context.WithCancel(f.ctx)
	return f
}

func (f *Fetcher) RequestWalletFetch() {
	f.launch(ResourceWallet, func(ctx context.Context) (func(), error) {
		w, err := f.api.Wallet(ctx)
		if err != nil {
			return nil, err
		}
		return func() {
			f.cache.wallet = w
		}, nil
	})
}

func (f *Fetcher) RequestTransactionsFetch() {
	f.launch(ResourceTransactions, func(ctx context.Context) (func(), error) {
		txs, err := f.api.Transactions(ctx)
		if err != nil {
			return nil, err
		}
		return func() {
			f.cache.transactions = txs
		}, nil
	})
}

func (f *Fetcher) RequestUserInfoFetch() {
	f.launch(ResourceUserInfo, func(ctx context.Context) (func(), error) {
		u, err := f.api.UserInfo(ctx)
		if err != nil {
			return nil, err
		}
		return func() {
			f.cache.userInfo = u
		}, nil
	})
}

// Wait blocks until every launched fetch has finished.
func (f *Fetcher) Wait() {
	f.wg.Wait()
}

func (f *Fetcher) Cache() *Cache {
	return f.cache
}

// Reset ends the current session: in-flight fetches are cancelled, the cache is cleared and
// anything they still return is discarded.
func (f *Fetcher) Reset() {
	f.mu.Lock()
	f.cancelSession()
	f.session, f.cancelSession = context.WithCancel(f.ctx)
	f.cache.Reset()
	f.mu.Unlock()
}

// launch runs fetch in the background. The returned store func runs under the cache lock and
// only if the cache has not been reset since the fetch started.
func (f *Fetcher) launch(resource Resource, fetch func(ctx context.Context) (store func(), err error)) {
	f.mu.Lock()
	session := f.session
	gen := f.cache.Generation()
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		ctx, cancel := context.WithTimeout(session, f.timeout)
		defer cancel()

		store, err := fetch(ctx)
		if err != nil {
			if !f.cache.update(gen, func() { f.cache.mark(resource, err) }) {
				log.Debug().Str("resource", string(resource)).Msg("Account fetch ended after reset")
				return
			}
			log.Err(err).Str("resource", string(resource)).Msg("Account fetch failed")
			return
		}
		if !f.cache.update(gen, func() {
			store()
			f.cache.mark(resource, nil)
		}) {
			log.Debug().Str("resource", string(resource)).Msg("Stale account fetch discarded")
			return
		}
		log.Debug().Str("resource", string(resource)).Msg("Account fetch complete")
	}()
}
