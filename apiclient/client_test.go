package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-session-client/apiclient"
	"github.com/jrsteele09/go-session-client/authmodel"
	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+apiclient.RouteLogin, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["email"] != "a" || body["password"] != "b" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"invalid credentials"}`))
			return
		}
		w.Write([]byte(`{"jwt":"T1"}`))
	})
	mux.HandleFunc("GET "+apiclient.RouteWallet, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"balances":{"usd":100,"btc":0.5}}`))
	})
	mux.HandleFunc("GET "+apiclient.RouteTransactions, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"tx-1","currency":"btc","side":"buy","amount":0.5,"rate":40000}]`))
	})
	mux.HandleFunc("GET "+apiclient.RouteUser, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"u-1","email":"a@example.com","name":"A"}`))
	})
	mux.HandleFunc("POST "+apiclient.RouteSell, func(w http.ResponseWriter, r *http.Request) {
		var req apiclient.TradeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Value > 1 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"insufficient funds"}`))
			return
		}
		w.Write([]byte(`{"balances":{"usd":140000}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Login(t *testing.T) {
	srv := newTestServer(t)
	c := apiclient.New(srv.URL + "/")
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		token, err := c.Login(ctx, authmodel.Credentials{Identifier: "a", Secret: "b"})
		require.NoError(t, err)
		require.Equal(t, "T1", token)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		_, err := c.Login(ctx, authmodel.Credentials{Identifier: "a", Secret: "wrong"})
		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
		require.Contains(t, err.Error(), "invalid credentials")

		var se *apiclient.StatusError
		require.ErrorAs(t, err, &se)
		require.Equal(t, http.StatusUnauthorized, se.StatusCode)
	})
}

func TestClient_TokenSlot(t *testing.T) {
	srv := newTestServer(t)
	c := apiclient.New(srv.URL)
	ctx := context.Background()

	require.False(t, c.Authorized())
	_, err := c.Wallet(ctx)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	c.InstallToken("T1")
	require.True(t, c.Authorized())
	require.Equal(t, "T1", c.Token())

	w, err := c.Wallet(ctx)
	require.NoError(t, err)
	require.Equal(t, 100.0, w.Balances["usd"])

	c.ClearToken()
	c.ClearToken()
	require.Equal(t, "", c.Token())
	_, err = c.Wallet(ctx)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestClient_Resources(t *testing.T) {
	srv := newTestServer(t)
	c := apiclient.New(srv.URL)
	c.InstallToken("T1")
	ctx := context.Background()

	txs, err := c.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, apiclient.TradeBuy, txs[0].Side)

	u, err := c.UserInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, "u-1", u.ID)

	w, err := c.SellCurrency(ctx, apiclient.TradeRequest{Currency: "btc", Value: 1})
	require.NoError(t, err)
	require.Equal(t, 140000.0, w.Balances["usd"])

	_, err = c.SellCurrency(ctx, apiclient.TradeRequest{Currency: "btc", Value: 2})
	require.Error(t, err)
	require.Contains(t, err.Error(), "insufficient funds")

	_, err = c.BuyCurrency(ctx, apiclient.TradeRequest{Currency: "btc", Value: 1})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestClient_ServerErrorIsInternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := apiclient.New(srv.URL).Wallet(context.Background())
	require.ErrorIs(t, err, apperrors.ErrInternal)
	require.Contains(t, err.Error(), "[Client.Wallet]")

	var se *apiclient.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.StatusCode)
}
