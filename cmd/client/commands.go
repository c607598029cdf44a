package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-session-client/authmodel"
	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/trade"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const helpText = `Commands:
  login <id> <secret>          log in
  signup <id> <secret>         create a user (offline mode only)
  logout                       end the session
  status                       show session and account data
  rates <cur> <sell> <buy>     set the exchange rates for a currency
  amount <field> <value>       edit the trade form (fiat|sell|purchase)
  buy | sell                   submit the trade form
  quit                         exit`

// readCommands runs until r is exhausted, "quit" is read or ctx ends. stop is called on
// exit so the process shuts down with it.
func (a *app) readCommands(ctx context.Context, r io.Reader, stop func()) {
	defer stop()

	fmt.Println(helpText)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return
		}
		if err := a.execute(ctx, fields[0], fields[1:]); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Err(err).Msg("Reading commands failed")
	}
}

func (a *app) execute(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		creds, err := credentialArgs(args)
		if err != nil {
			return err
		}
		return a.coordinator.SubmitLogin(ctx, creds)

	case "signup":
		creds, err := credentialArgs(args)
		if err != nil {
			return err
		}
		r, ok := a.authenticator.(registrar)
		if ok {
			if err := r.Register(creds); err != nil {
				return err
			}
			fmt.Printf("User %s created, now log in.\n", creds.Identifier)
		}
		if err := a.coordinator.SubmitCreateUser(ctx, creds); err != nil {
			return err
		}
		if !ok {
			return errors.Wrap(apperrors.ErrUnsupported, "[signup] accounts are created on the backend, no user was created")
		}
		return nil

	case "logout":
		return a.coordinator.Logout(ctx)

	case "status":
		a.printStatus()
		return nil

	case "rates":
		if len(args) != 3 {
			return fmt.Errorf("usage: rates <currency> <sell> <buy>")
		}
		sell, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("sell rate: %w", err)
		}
		purchase, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("buy rate: %w", err)
		}
		a.form.SetRates(args[0], trade.Rates{Sell: sell, Purchase: purchase})
		a.printForm()
		return nil

	case "amount":
		if len(args) != 2 {
			return fmt.Errorf("usage: amount <fiat|sell|purchase> <value>")
		}
		a.form.Focus(trade.Field(args[0]))
		a.form.Change(trade.Field(args[0]), args[1])
		a.form.Blur()
		a.printForm()
		return nil

	case "buy":
		return a.form.Buy(ctx)

	case "sell":
		return a.form.Sell(ctx)

	case "help":
		fmt.Println(helpText)
		return nil
	}
	return fmt.Errorf("unknown command %q, try help", cmd)
}

func credentialArgs(args []string) (authmodel.Credentials, error) {
	if len(args) != 2 {
		return authmodel.Credentials{}, fmt.Errorf("expected <id> <secret>")
	}
	return authmodel.Credentials{Identifier: args[0], Secret: args[1]}, nil
}

func (a *app) printStatus() {
	fmt.Printf("state: %s, authorized: %t\n", a.coordinator.State(), a.coordinator.Authorized())

	snap := a.cache.Snapshot()
	if snap.UserInfo != nil {
		fmt.Printf("user: %s <%s>\n", snap.UserInfo.Name, snap.UserInfo.Email)
	}
	if snap.Wallet != nil {
		for cur, balance := range snap.Wallet.Balances {
			fmt.Printf("  %-6s %f\n", strings.ToUpper(cur), balance)
		}
	}
	fmt.Printf("transactions: %d\n", len(snap.Transactions))
	for resource, err := range snap.Errors {
		fmt.Printf("  %s: %v\n", resource, err)
	}
}

func (a *app) printForm() {
	fmt.Printf("%s %s | sell $%s | buy $%s\n",
		a.form.Value(trade.FieldFiat),
		strings.ToUpper(a.form.Currency()),
		a.form.Value(trade.FieldSell),
		a.form.Value(trade.FieldPurchase),
	)
}
