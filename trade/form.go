package trade

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/jrsteele09/go-session-client/apiclient"
	"github.com/pkg/errors"
)

// Field names one of the three linked inputs.
type Field string

const (
	FieldFiat     Field = "fiat"     // amount of the selected currency
	FieldSell     Field = "sell"     // fiat * sell rate
	FieldPurchase Field = "purchase" // fiat * purchase rate
)

// Rates are the current prices of one unit of the selected currency.
type Rates struct {
	Sell     float64
	Purchase float64
}

// Exchanger submits trades. apiclient.Client implements it.
type Exchanger interface {
	BuyCurrency(ctx context.Context, req apiclient.TradeRequest) (*apiclient.Wallet, error)
	SellCurrency(ctx context.Context, req apiclient.TradeRequest) (*apiclient.Wallet, error)
}

// Form keeps the fiat, sell and purchase inputs consistent with each other. Raw input is
// kept as typed; the other two fields are recomputed only when the input parses as a number.
type Form struct {
	exchanger Exchanger

	mu       sync.RWMutex
	currency string
	rates    Rates
	inputs   map[Field]string
	focused  Field
	err      error
	wallet   *apiclient.Wallet
}

func NewForm(exchanger Exchanger, currency string, rates Rates) *Form {
	f := &Form{
		exchanger: exchanger,
		currency:  currency,
		rates:     rates,
		inputs:    map[Field]string{FieldFiat: "1"},
		focused:   FieldFiat,
	}
	f.recompute(FieldFiat)
	return f
}

// Value returns the current text of a field.
func (f *Form) Value(field Field) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.inputs[field]
}

func (f *Form) Currency() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.currency
}

// Change stores value for field and, if it is a number, updates the other two fields.
func (f *Form) Change(field Field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inputs[field] = value
	if _, ok := parse(value); !ok {
		return
	}
	f.recompute(field)
}

func (f *Form) Focus(field Field) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focused = field
}

// Blur returns focus to the fiat field, which then drives recomputation on rate updates.
func (f *Form) Blur() {
	f.Focus(FieldFiat)
}

// SetRates applies new prices, recomputing from the focused field.
func (f *Form) SetRates(currency string, rates Rates) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currency = currency
	f.rates = rates
	f.recompute(f.focused)
}

func (f *Form) Buy(ctx context.Context) error {
	return f.submit(ctx, apiclient.TradeBuy)
}

func (f *Form) Sell(ctx context.Context) error {
	return f.submit(ctx, apiclient.TradeSell)
}

// Err is the last trade error, for display.
func (f *Form) Err() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.err
}

// Wallet is the wallet returned by the last successful trade.
func (f *Form) Wallet() *apiclient.Wallet {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.wallet
}

func (f *Form) submit(ctx context.Context, side apiclient.TradeSide) error {
	f.mu.RLock()
	currency := f.currency
	fiat, ok := parse(f.inputs[FieldFiat])
	f.mu.RUnlock()

	var (
		wallet *apiclient.Wallet
		err    error
	)
	switch {
	case !ok || fiat <= 0:
		err = errors.Errorf("[Form.%s] amount must be a positive number", side)
	default:
		req := apiclient.TradeRequest{Currency: currency, Value: fiat}
		if side == apiclient.TradeBuy {
			wallet, err = f.exchanger.BuyCurrency(ctx, req)
		} else {
			wallet, err = f.exchanger.SellCurrency(ctx, req)
		}
		if err != nil {
			err = errors.Wrapf(err, "[Form.%s]", side)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	if err == nil {
		f.wallet = wallet
	}
	return err
}

// recompute derives the other fields from source. Callers hold the lock.
func (f *Form) recompute(source Field) {
	value, _ := parse(f.inputs[source])

	var fiat float64
	switch source {
	case FieldFiat:
		fiat = value
	case FieldSell:
		fiat = divide(value, f.rates.Sell)
	case FieldPurchase:
		fiat = divide(value, f.rates.Purchase)
	default:
		return
	}

	if source != FieldFiat {
		f.inputs[FieldFiat] = format(fiat)
	}
	if source != FieldSell {
		f.inputs[FieldSell] = format(fiat * f.rates.Sell)
	}
	if source != FieldPurchase {
		f.inputs[FieldPurchase] = format(fiat * f.rates.Purchase)
	}
}

// parse treats anything that is not a number as zero, reporting ok=false.
func parse(value string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func divide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
