package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/catalogsync/internal/adapter/woocommerce"
	"github.com/polkiloo/catalogsync/internal/app"
	"github.com/polkiloo/catalogsync/internal/config"
	"github.com/polkiloo/catalogsync/internal/logger"
	"github.com/polkiloo/catalogsync/internal/metrics"
	"github.com/polkiloo/catalogsync/internal/pkg/auth"
	"github.com/polkiloo/catalogsync/internal/server/http/handlers"
	"github.com/polkiloo/catalogsync/internal/server/http/router"
	"github.com/polkiloo/catalogsync/internal/storage/postgres"
	"github.com/polkiloo/catalogsync/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		postgres.Module,
		woocommerce.Module,
		usecase.Module,
		fx.Provide(func(f *app.CatalogFacade) handlers.CatalogFacade { return f }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
