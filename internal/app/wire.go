//go:build wireinject

package app

import "github.com/google/wire"

var providerSet = wire.NewSet(
	provideAuth,
	provideTransport,
	provideJournal,
	provideDispatcher,
	provideAccounts,
	provideMarketData,
	provideFees,
	newApp,
)

func buildAppWithWire(b *AppBuilder) (*App, error) {
	wire.Build(providerSet)
	return nil, nil
}
