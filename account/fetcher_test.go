package account_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-client/account"
	"github.com/jrsteele09/go-session-client/apiclient"
	"github.com/stretchr/testify/require"
)

type stubAPI struct {
	walletErr error
	calls     atomic.Int32
	block     chan struct{}
}

func (s *stubAPI) Wallet(ctx context.Context) (*apiclient.Wallet, error) {
	s.calls.Add(1)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.walletErr != nil {
		return nil, s.walletErr
	}
	return &apiclient.Wallet{Balances: map[string]float64{"usd": 10}}, nil
}

func (s *stubAPI) Transactions(ctx context.Context) ([]apiclient.Transaction, error) {
	s.calls.Add(1)
	return []apiclient.Transaction{{ID: "tx-1"}}, nil
}

func (s *stubAPI) UserInfo(ctx context.Context) (*apiclient.UserInfo, error) {
	s.calls.Add(1)
	return &apiclient.UserInfo{ID: "u-1"}, nil
}

func TestFetcher_AllTriggers(t *testing.T) {
	api := &stubAPI{}
	f := account.NewFetcher(api, account.NewCache())

	f.RequestWalletFetch()
	f.RequestTransactionsFetch()
	f.RequestUserInfoFetch()
	f.Wait()

	require.EqualValues(t, 3, api.calls.Load())
	snap := f.Cache().Snapshot()
	require.Equal(t, 10.0, snap.Wallet.Balances["usd"])
	require.Len(t, snap.Transactions, 1)
	require.Equal(t, "u-1", snap.UserInfo.ID)
	require.Empty(t, snap.Errors)
	require.Len(t, snap.UpdatedAt, 3)
}

func TestFetcher_ErrorIsRecorded(t *testing.T) {
	api := &stubAPI{walletErr: errors.New("boom")}
	cache := account.NewCache()
	cache.SetWallet(&apiclient.Wallet{Balances: map[string]float64{"usd": 1}})
	f := account.NewFetcher(api, cache)

	f.RequestWalletFetch()
	f.Wait()

	require.EqualError(t, cache.Err(account.ResourceWallet), "boom")
	require.Equal(t, 1.0, cache.Wallet().Balances["usd"], "previous data is kept")
}

func TestFetcher_TriggerDoesNotBlock(t *testing.T) {
	api := &stubAPI{block: make(chan struct{})}
	f := account.NewFetcher(api, account.NewCache(), account.WithTimeout(time.Minute))

	done := make(chan struct{})
	go func() {
		f.RequestWalletFetch()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("trigger blocked on the fetch")
	}
	close(api.block)
	f.Wait()
	require.NotNil(t, f.Cache().Wallet())
}

func TestFetcher_Timeout(t *testing.T) {
	api := &stubAPI{block: make(chan struct{})}
	cache := account.NewCache()
	f := account.NewFetcher(api, cache, account.WithTimeout(10*time.Millisecond))

	f.RequestWalletFetch()
	f.Wait()
	require.ErrorIs(t, cache.Err(account.ResourceWallet), context.DeadlineExceeded)
}

func TestCache_Reset(t *testing.T) {
	cache := account.NewCache()
	cache.SetWallet(&apiclient.Wallet{})
	cache.SetError(account.ResourceUserInfo, errors.New("x"))
	cache.Reset()

	snap := cache.Snapshot()
	require.Nil(t, snap.Wallet)
	require.Empty(t, snap.Errors)
	require.Empty(t, snap.UpdatedAt)
}

func TestFetcher_ResultAfterCacheResetIsDropped(t *testing.T) {
	api := &stubAPI{block: make(chan struct{})}
	cache := account.NewCache()
	f := account.NewFetcher(api, cache, account.WithTimeout(time.Minute))

	f.RequestWalletFetch()
	cache.Reset()
	close(api.block)
	f.Wait()

	snap := cache.Snapshot()
	require.Nil(t, snap.Wallet)
	require.Empty(t, snap.Errors)
	require.Empty(t, snap.UpdatedAt)
}

func TestFetcher_ResetCancelsInFlight(t *testing.T) {
	api := &stubAPI{block: make(chan struct{})}
	f := account.NewFetcher(api, account.NewCache(), account.WithTimeout(time.Minute))

	f.RequestWalletFetch()
	f.Reset()

	done := make(chan struct{})
	go func() {
		f.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fetch was not cancelled by Reset")
	}
	require.Nil(t, f.Cache().Wallet())
	require.NoError(t, f.Cache().Err(account.ResourceWallet))

	// the next session fetches normally
	close(api.block)
	f.RequestWalletFetch()
	f.Wait()
	require.NotNil(t, f.Cache().Wallet())
}
