// Command schwab drives the brokerage client from the shell.
//
// Usage:
//
//	schwab [-config configs/config.yaml] <command> [flags] [args]
//
// Commands: authorize-url, login, strategies, build, place, status, cancel,
// orders, accounts, quotes, history, poll, journal, config.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"schwab/internal/config"
	"schwab/internal/logger"
	"schwab/pkg/schwab"
)

// newClient is replaced in tests.
var newClient = schwab.New

func main() {
	cfgPath := os.Getenv("SCHWAB_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "config file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, cfg, cfgPath, flag.Arg(0), flag.Args()[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// execute runs one command and returns the process exit code. Everything it
// opens is closed before it returns.
func execute(ctx context.Context, cfg *config.Config, cfgPath, cmd string, args []string, out io.Writer) int {
	closers, err := setupLogging(cfg.App)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		return 1
	}
	defer closeAll(closers)

	if cmd == "config" {
		dump, err := cfg.Redacted()
		if err != nil {
			logger.Errorf("config: %v", err)
			return 1
		}
		fmt.Fprint(out, dump)
		return 0
	}

	client, err := newClient(cfg)
	if err != nil {
		logger.Errorf("初始化客户端失败: %v", err)
		return 1
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warnf("close client: %v", err)
		}
	}()

	r := &runner{client: client, cfg: cfg, cfgPath: cfgPath, out: out}
	if err := r.run(ctx, cmd, args); err != nil {
		logger.Errorf("%s: %v", cmd, err)
		return 1
	}
	return 0
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: schwab [-config path] <command> [flags] [args]

commands:
  authorize-url                      print the approval page URL
  login <url> | -listen addr         exchange the code from the redirect
  strategies                         list strategy names
  build <asset> <kind> k=v...        print the order document and fees
  place [-paper] <asset> <kind> k=v  submit an order
  status <order-id>                  show an order
  cancel <order-id>                  cancel an order
  orders [-days n] [-status s]       list recent orders
  accounts [-positions]              list accounts
  quotes SYM...                      fetch quotes
  history [-period-type t] SYM       fetch daily candles
  poll [-every d] SYM...             print quotes until interrupted
  journal [-n count]                 show recorded submissions
  config                             print the config with secrets masked
`)
	flag.PrintDefaults()
}

func setupLogging(app config.AppConfig) ([]io.Closer, error) {
	config.ApplyLogging(app)
	var closers []io.Closer
	if f, err := openLogFile(app.LogPath); err != nil {
		return nil, err
	} else if f != nil {
		mw := io.MultiWriter(os.Stderr, f)
		log.SetOutput(mw)
		logger.SetOutput(mw)
		closers = append(closers, f)
	} else {
		logger.SetOutput(os.Stderr)
	}
	logger.SetWireWriter(nil)
	if f, err := openLogFile(app.WireLogPath); err != nil {
		closeAll(closers)
		return nil, err
	} else if f != nil {
		logger.SetWireWriter(f)
		logger.EnableWireBodyDump(app.WireDumpBody)
		closers = append(closers, f)
	}
	return closers, nil
}

func openLogFile(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	if dir := filepath.Dir(trimmed); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
