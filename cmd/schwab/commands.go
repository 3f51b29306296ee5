package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"schwab/internal/callback"
	"schwab/internal/config"
	"schwab/internal/logger"
	"schwab/pkg/schwab"
)

type runner struct {
	client  *schwab.Client
	cfg     *config.Config
	cfgPath string
	out     io.Writer
}

func (r *runner) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "authorize-url":
		fmt.Fprintln(r.out, r.client.AuthorizeURL())
		return nil
	case "login":
		return r.login(ctx, args)
	case "strategies":
		for _, name := range r.client.Strategies() {
			fmt.Fprintln(r.out, name)
		}
		return nil
	case "build":
		return r.build(args)
	case "place":
		return r.place(ctx, args)
	case "status":
		return r.status(ctx, args)
	case "cancel":
		return r.cancel(ctx, args)
	case "orders":
		return r.orders(ctx, args)
	case "accounts":
		return r.accounts(ctx, args)
	case "quotes":
		return r.quotes(ctx, args)
	case "history":
		return r.history(ctx, args)
	case "poll":
		return r.poll(ctx, args)
	case "journal":
		return r.journal(ctx, args)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (r *runner) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	listen := fs.String("listen", "", "catch the redirect on this local address instead of taking it as an argument")
	path := fs.String("path", "/", "redirect path served by -listen")
	cert := fs.String("cert", "", "TLS certificate for -listen")
	key := fs.String("key", "", "TLS key for -listen")
	wait := fs.Duration("wait", 5*time.Minute, "how long -listen waits for the redirect")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var redirect string
	switch {
	case *listen != "":
		srv, err := callback.Listen(callback.Config{Addr: *listen, Path: *path, CertFile: *cert, KeyFile: *key})
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, r.client.AuthorizeURL())
		waitCtx, cancel := context.WithTimeout(ctx, *wait)
		defer cancel()
		if redirect, err = srv.Wait(waitCtx); err != nil {
			return err
		}
	case fs.NArg() == 1:
		redirect = fs.Arg(0)
	default:
		return fmt.Errorf("login takes the redirect URL or -listen")
	}

	cred, err := r.client.LoginWithRedirect(ctx, redirect)
	if err != nil {
		return err
	}
	logger.Infof("authenticated; access token valid until %s", cred.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "export SCHWAB_OAUTH_REFRESH_TOKEN=%s\n", cred.RefreshToken)
	return nil
}

func (r *runner) build(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("build needs <asset> <kind> [k=v...]")
	}
	params, err := parseParams(args[2:])
	if err != nil {
		return err
	}
	doc, err := r.client.BuildOrder(args[0], args[1], params)
	if err != nil {
		return err
	}
	if err := printJSON(r.out, doc); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "estimated fees: %s\n", r.client.EstimateFees(doc).StringFixed(2))
	return nil
}

func (r *runner) accountFlags(fs *flag.FlagSet) (*string, *bool) {
	acct := fs.String("account", os.Getenv("SCHWAB_ACCOUNT"), "account hash")
	paper := fs.Bool("paper", false, "use the paper endpoint family")
	return acct, paper
}

func (r *runner) place(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("place", flag.ContinueOnError)
	acct, paper := r.accountFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("place needs <asset> <kind> [k=v...]")
	}
	params, err := parseParams(fs.Args()[2:])
	if err != nil {
		return err
	}
	rec, err := r.client.PlaceOrder(ctx, schwab.AccountContext{AccountID: *acct, Paper: *paper}, fs.Arg(0), fs.Arg(1), params)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "order %s accepted (status %d)\n", rec.OrderID, rec.Status)
	return nil
}

func (r *runner) status(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	acct, paper := r.accountFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	raw, err := r.client.GetOrderStatus(ctx, schwab.AccountContext{AccountID: *acct, Paper: *paper}, fs.Arg(0))
	if err != nil {
		return err
	}
	return printJSON(r.out, raw)
}

func (r *runner) cancel(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ContinueOnError)
	acct, paper := r.accountFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := r.client.CancelOrder(ctx, schwab.AccountContext{AccountID: *acct, Paper: *paper}, fs.Arg(0)); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "cancel requested for %s\n", fs.Arg(0))
	return nil
}

func (r *runner) orders(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	acct, _ := r.accountFlags(fs)
	days := fs.Int("days", 7, "look-back window in days")
	status := fs.String("status", "", "filter by order status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	now := time.Now()
	raw, err := r.client.ListOrders(ctx, schwab.AccountContext{AccountID: *acct}, schwab.ListFilter{
		From:   now.AddDate(0, 0, -*days),
		To:     now,
		Status: *status,
	})
	if err != nil {
		return err
	}
	return printJSON(r.out, raw)
}

func (r *runner) accounts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("accounts", flag.ContinueOnError)
	positions := fs.Bool("positions", false, "include positions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var fields []string
	if *positions {
		fields = append(fields, "positions")
	}
	nums, err := r.client.AccountNumbers(ctx)
	if err != nil {
		return err
	}
	for _, n := range nums {
		fmt.Fprintf(r.out, "%s\t%s\n", n.AccountNumber, n.HashValue)
	}
	raw, err := r.client.Accounts(ctx, fields...)
	if err != nil {
		return err
	}
	return printJSON(r.out, raw)
}

func (r *runner) quotes(ctx context.Context, args []string) error {
	quotes, err := r.client.Quotes(ctx, args, []string{"quote"}, false)
	if err != nil {
		return err
	}
	return printQuotes(r.out, quotes)
}

func (r *runner) history(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	periodType := fs.String("period-type", "month", "day, month, year or ytd")
	period := fs.Int("period", 1, "number of periods")
	if err := fs.Parse(args); err != nil {
		return err
	}
	freqType := "daily"
	if *periodType == "day" {
		freqType = "minute"
	}
	h, err := r.client.PriceHistory(ctx, schwab.HistoryRequest{
		Symbol:        fs.Arg(0),
		PeriodType:    *periodType,
		Period:        *period,
		FrequencyType: freqType,
		Frequency:     1,
	})
	if err != nil {
		return err
	}
	for _, c := range h.Candles {
		fmt.Fprintf(r.out, "%s\t%s\t%s\t%s\t%s\t%d\n", c.Time.Format(time.DateTime), c.Open, c.High, c.Low, c.Close, c.Volume)
	}
	return nil
}

// poll prints quotes on an interval until ctx ends. When watch_config is on,
// log settings follow edits to the config file.
func (r *runner) poll(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("poll", flag.ContinueOnError)
	every := fs.Duration("every", 15*time.Second, "poll interval")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *every < time.Second {
		return fmt.Errorf("poll interval must be at least 1s")
	}
	if r.cfg.App.WatchConfig {
		if err := config.Watch(r.cfgPath, func(c *config.Config) { config.ApplyLogging(c.App) }); err != nil {
			logger.Warnf("config watch disabled: %v", err)
		}
	}
	ticker := time.NewTicker(*every)
	defer ticker.Stop()
	for {
		if err := r.quotes(ctx, fs.Args()); err != nil {
			logger.Warnf("poll: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (r *runner) journal(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	n := fs.Int("n", 20, "number of rows")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rows, err := r.client.RecentSubmissions(ctx, *n)
	if err != nil {
		return err
	}
	if rows == nil {
		fmt.Fprintln(r.out, "journal disabled")
		return nil
	}
	for _, row := range rows {
		fmt.Fprintf(r.out, "%s\t%s\t%s/%s\t%d\t%s\t%s\n",
			row.SubmittedAt.Format(time.RFC3339), row.Outcome, row.AssetType, row.Kind, row.Status, row.OrderID, row.Error)
	}
	return nil
}

func printQuotes(w io.Writer, quotes map[string]json.RawMessage) error {
	symbols := make([]string, 0, len(quotes))
	for s := range quotes {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	for _, s := range symbols {
		fmt.Fprintf(w, "%s\t%s\n", s, strings.TrimSpace(string(quotes[s])))
	}
	return nil
}
