package app

import (
	"errors"
	"fmt"

	"schwab/internal/account"
	"schwab/internal/auth"
	"schwab/internal/config"
	"schwab/internal/fees"
	"schwab/internal/journal"
	"schwab/internal/logger"
	"schwab/internal/marketdata"
	"schwab/internal/trading"
	"schwab/internal/transport"
)

// App 持有按配置装配好的全部客户端组件。
type App struct {
	cfg      *config.Config
	Auth     *auth.Controller
	API      *transport.Client
	Trading  *trading.Dispatcher
	Accounts *account.Client
	Market   *marketdata.Client
	Journal  *journal.Store
	Fees     fees.Schedule
	Summary  *StartupSummary
}

// NewApp 根据配置构建应用对象（不发起任何网络请求）。
func NewApp(cfg *config.Config, opts ...AppBuilderOption) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(NewAppBuilder(cfg, opts...))
}

func (a *App) Config() *config.Config {
	if a == nil {
		return nil
	}
	return a.cfg
}

// Close releases the journal database.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Journal != nil {
		errs = append(errs, a.Journal.Close())
	}
	return errors.Join(errs...)
}
