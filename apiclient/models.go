package apiclient

import "time"

// Wallet is the balance per currency code, fiat included.
type Wallet struct {
	Balances map[string]float64 `json:"balances"`
}

type Transaction struct {
	ID        string    `json:"id"`
	Currency  string    `json:"currency"`
	Side      TradeSide `json:"side"`
	Amount    float64   `json:"amount"`
	Rate      float64   `json:"rate"`
	CreatedAt time.Time `json:"created_at"`
}

type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type TradeSide string

const (
	TradeBuy  TradeSide = "buy"
	TradeSell TradeSide = "sell"
)

// TradeRequest buys or sells Value units of Currency.
type TradeRequest struct {
	Currency string  `json:"currency"`
	Value    float64 `json:"value"`
}

type loginResponse struct {
	JWT string `json:"jwt"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
