package usecase

import (
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/polkiloo/catalogsync/internal/config"
	"github.com/polkiloo/catalogsync/internal/domain/model"
	"github.com/polkiloo/catalogsync/internal/test"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		OrderRetentionDays: 90,
		OrderFetchDays:     30,
		OrderConcurrency:   5,
		ProductConcurrency: 5,
	}
}

type fixture struct {
	orders    *test.OrderRepositoryStub
	products  *test.ProductRepositoryStub
	catalog   *test.CatalogStub
	product   *ProductUseCase
	orderSync *OrderSyncUseCase
	retention *RetentionUseCase
	sync      *SyncUseCase
}

func newFixture(cfg *config.Config, catalog *test.CatalogStub, orders []model.Order, products []model.Product) *fixture {
	f := &fixture{
		orders:   test.NewOrderRepositoryStub(orders...),
		products: test.NewProductRepositoryStub(products...),
		catalog:  catalog,
	}
	logger := testLogger()

	f.product = NewProductUseCase(f.products, f.orders, f.catalog, cfg, nil, logger)
	f.product.now = fixedNow
	f.orderSync = NewOrderSyncUseCase(f.catalog, f.orders, f.product, cfg, logger)
	f.orderSync.now = fixedNow
	f.retention = NewRetentionUseCase(f.orders, f.product, cfg, logger)
	f.retention.now = fixedNow
	f.sync = NewSyncUseCase(f.orderSync, f.retention, nil, logger)
	f.sync.now = fixedNow
	return f
}

func storedOrder(id int64, age time.Duration, productIDs ...int64) model.Order {
	items := make([]model.LineItem, len(productIDs))
	for i, pid := range productIDs {
		items[i] = model.LineItem{ProductID: pid, Fields: model.NewDocument(
			model.Field{Key: "product_id", Value: model.NumberValue(json.Number(strconv.FormatInt(pid, 10)))},
		)}
	}
	return model.Order{
		ID:          id,
		Number:      strconv.FormatInt(id, 10),
		OrderKey:    "wc_order_" + strconv.FormatInt(id, 10),
		Status:      "completed",
		DateCreated: testNow.Add(-age),
		Billing:     model.NewDocument(),
		Shipping:    model.NewDocument(),
		LineItems:   items,
	}
}

func storedProduct(id int64, name string) model.Product {
	return model.Product{ID: id, Name: name, Images: []*model.Document{}, InStock: true}
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }
