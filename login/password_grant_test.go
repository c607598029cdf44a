package login_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-session-client/authmodel"
	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/login"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.FormValue("grant_type") != "password" || r.FormValue("client_id") != "exchange-ui" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_request"}`))
			return
		}
		switch r.FormValue("password") {
		case "b":
			w.Write([]byte(`{"access_token":"T1","token_type":"Bearer","expires_in":3600}`))
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"server_error"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"bad password"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewPasswordGrant_Validation(t *testing.T) {
	_, err := login.NewPasswordGrant("", "", "http://x/token", nil)
	require.Error(t, err)

	_, err = login.NewPasswordGrant("client", "", "", nil)
	require.Error(t, err)
}

func TestPasswordGrant_Login(t *testing.T) {
	srv := newTokenServer(t)
	pg, err := login.NewPasswordGrant("exchange-ui", "", srv.URL, []string{"openid"})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		token, err := pg.Login(ctx, authmodel.Credentials{Identifier: "a", Secret: "b"})
		require.NoError(t, err)
		require.Equal(t, "T1", token)
	})

	t.Run("invalid grant maps to invalid credentials", func(t *testing.T) {
		_, err := pg.Login(ctx, authmodel.Credentials{Identifier: "a", Secret: "x"})
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := pg.Login(ctx, authmodel.Credentials{Identifier: "a", Secret: "broken"})
		require.Error(t, err)
		require.NotErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("empty credentials are not sent", func(t *testing.T) {
		_, err := pg.Login(ctx, authmodel.Credentials{})
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})
}
