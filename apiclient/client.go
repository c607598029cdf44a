package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-session-client/authmodel"
	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	RouteLogin        = "/login"
	RouteWallet       = "/wallet"
	RouteTransactions = "/transactions"
	RouteUser         = "/user"
	RouteBuy          = "/currency/buy"
	RouteSell         = "/currency/sell"

	defaultTimeout = 15 * time.Second
)

// StatusError is returned for any non 2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.StatusCode)
	}
	return fmt.Sprintf("api status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	}
	if e.StatusCode >= http.StatusInternalServerError {
		return apperrors.ErrInternal
	}
	return nil
}

// Client talks JSON to the exchange backend. It holds the ambient bearer token that every
// request carries once installed.
type Client struct {
	baseURL string
	http    *http.Client

	tokenLock sync.RWMutex
	token     *oauth2.Token
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default http client (15s timeout).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

func New(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// InstallToken makes every subsequent request authenticated with token.
func (c *Client) InstallToken(token string) {
	c.tokenLock.Lock()
	defer c.tokenLock.Unlock()
	c.token = &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
}

// ClearToken removes the installed token. Safe to call when none is installed.
func (c *Client) ClearToken() {
	c.tokenLock.Lock()
	defer c.tokenLock.Unlock()
	c.token = nil
}

// Token returns the installed token, or "" when none is installed.
func (c *Client) Token() string {
	c.tokenLock.RLock()
	defer c.tokenLock.RUnlock()
	if c.token == nil {
		return ""
	}
	return c.token.AccessToken
}

func (c *Client) Authorized() bool {
	return c.Token() != ""
}

// Login posts the credentials and returns the issued jwt.
func (c *Client) Login(ctx context.Context, credentials authmodel.Credentials) (string, error) {
	body := map[string]string{
		"email":    credentials.Identifier,
		"password": credentials.Secret,
	}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, RouteLogin, body, &resp); err != nil {
		return "", errors.Wrap(err, "[Client.Login]")
	}
	if resp.JWT == "" {
		return "", errors.Wrap(apperrors.ErrInvalidToken, "[Client.Login] empty jwt in response")
	}
	return resp.JWT, nil
}

func (c *Client) Wallet(ctx context.Context) (*Wallet, error) {
	var w Wallet
	if err := c.do(ctx, http.MethodGet, RouteWallet, nil, &w); err != nil {
		return nil, errors.Wrap(err, "[Client.Wallet]")
	}
	return &w, nil
}

func (c *Client) Transactions(ctx context.Context) ([]Transaction, error) {
	var txs []Transaction
	if err := c.do(ctx, http.MethodGet, RouteTransactions, nil, &txs); err != nil {
		return nil, errors.Wrap(err, "[Client.Transactions]")
	}
	return txs, nil
}

func (c *Client) UserInfo(ctx context.Context) (*UserInfo, error) {
	var u UserInfo
	if err := c.do(ctx, http.MethodGet, RouteUser, nil, &u); err != nil {
		return nil, errors.Wrap(err, "[Client.UserInfo]")
	}
	return &u, nil
}

// BuyCurrency returns the updated wallet.
func (c *Client) BuyCurrency(ctx context.Context, req TradeRequest) (*Wallet, error) {
	var w Wallet
	if err := c.do(ctx, http.MethodPost, RouteBuy, req, &w); err != nil {
		return nil, errors.Wrap(err, "[Client.BuyCurrency]")
	}
	return &w, nil
}

// SellCurrency returns the updated wallet.
func (c *Client) SellCurrency(ctx context.Context, req TradeRequest) (*Wallet, error) {
	var w Wallet
	if err := c.do(ctx, http.MethodPost, RouteSell, req, &w); err != nil {
		return nil, errors.Wrap(err, "[Client.SellCurrency]")
	}
	return &w, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.tokenLock.RLock()
	if c.token != nil {
		c.token.SetAuthHeader(req)
	}
	c.tokenLock.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var er errorResponse
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &er) == nil {
		switch {
		case er.Message != "":
			msg = er.Message
		case er.Error != "":
			msg = er.Error
		}
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}
