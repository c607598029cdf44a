package account

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-session-client/apiclient"
)

type Resource string

const (
	ResourceWallet       Resource = "wallet"
	ResourceTransactions Resource = "transactions"
	ResourceUserInfo     Resource = "user_info"
)

// Snapshot is a copy of everything fetched so far.
type Snapshot struct {
	Wallet       *apiclient.Wallet
	Transactions []apiclient.Transaction
	UserInfo     *apiclient.UserInfo
	Errors       map[Resource]error
	UpdatedAt    map[Resource]time.Time
}

// Cache holds the latest fetched account data and the last error per resource. Every Reset
// starts a new generation; writes tagged with an older generation are dropped.
type Cache struct {
	mu           sync.RWMutex
	generation   uint64
	wallet       *apiclient.Wallet
	transactions []apiclient.Transaction
	userInfo     *apiclient.UserInfo
	errs         map[Resource]error
	updated      map[Resource]time.Time
}

func NewCache() *Cache {
	return &Cache{
		errs:    make(map[Resource]error),
		updated: make(map[Resource]time.Time),
	}
}

func (c *Cache) SetWallet(w *apiclient.Wallet) {
	c.update(c.Generation(), func() {
		c.wallet = w
		c.mark(ResourceWallet, nil)
	})
}

func (c *Cache) SetTransactions(txs []apiclient.Transaction) {
	c.update(c.Generation(), func() {
		c.transactions = txs
		c.mark(ResourceTransactions, nil)
	})
}

func (c *Cache) SetUserInfo(u *apiclient.UserInfo) {
	c.update(c.Generation(), func() {
		c.userInfo = u
		c.mark(ResourceUserInfo, nil)
	})
}

// SetError records a failed fetch. Previously fetched data is kept.
func (c *Cache) SetError(r Resource, err error) {
	c.update(c.Generation(), func() {
		c.mark(r, err)
	})
}

// Generation identifies the data currently held. It changes on every Reset.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *Cache) Err(r Resource) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errs[r]
}

func (c *Cache) Wallet() *apiclient.Wallet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wallet
}

func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Wallet:       c.wallet,
		Transactions: append([]apiclient.Transaction(nil), c.transactions...),
		UserInfo:     c.userInfo,
		Errors:       make(map[Resource]error, len(c.errs)),
		UpdatedAt:    make(map[Resource]time.Time, len(c.updated)),
	}
	for k, v := range c.errs {
		s.Errors[k] = v
	}
	for k, v := range c.updated {
		s.UpdatedAt[k] = v
	}
	return s
}

// Reset drops all cached data, used when the session ends. Results of fetches started
// before the reset are ignored when they arrive.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.wallet = nil
	c.transactions = nil
	c.userInfo = nil
	c.errs = make(map[Resource]error)
	c.updated = make(map[Resource]time.Time)
}

// update applies fn unless the cache was reset after gen was read.
func (c *Cache) update(gen uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	fn()
	return true
}

func (c *Cache) mark(r Resource, err error) {
	if err != nil {
		c.errs[r] = err
		return
	}
	delete(c.errs, r)
	c.updated[r] = time.Now()
}
