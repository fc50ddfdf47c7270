package woocommerce

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/catalogsync/internal/config"
)

// Module exposes catalog client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.CatalogBaseURL, p.Config.ConsumerKey, p.Config.ConsumerSecret, Options{
		Timeout:           p.Config.CatalogTimeout,
		RequestsPerSecond: p.Config.CatalogRequestsPerSec,
		Retries:           p.Config.CatalogRetries,
	}, p.Logger)
}
