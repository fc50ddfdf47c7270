package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/polkiloo/catalogsync/internal/adapter/woocommerce"
	domainErrors "github.com/polkiloo/catalogsync/internal/domain/errors"
	"github.com/polkiloo/catalogsync/internal/domain/model"
	"github.com/polkiloo/catalogsync/internal/test"
)

const recent = "2024-05-01T10:00:00"

func fullPage(firstID int64, productID int64) []json.RawMessage {
	page := make([]json.RawMessage, orderPageSize)
	for i := range page {
		page[i] = test.OrderJSON(firstID+int64(i), recent, productID)
	}
	return page
}

func TestOrderSyncStoresOrderAndReferencedProduct(t *testing.T) {
	catalog := &test.CatalogStub{
		OrderPages: [][]json.RawMessage{{test.OrderJSON(1, recent, 101)}},
		Products:   map[int64]json.RawMessage{101: test.ProductJSON(101, "Mug")},
	}
	f := newFixture(testConfig(), catalog, nil, nil)

	result, err := f.orderSync.Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Synced != 1 || result.Errors != 0 {
		t.Fatalf("expected synced=1 errors=0, got %+v", result)
	}
	if !f.orders.Has(1) {
		t.Fatal("expected order 1 to be stored")
	}
	if !f.products.Has(101) {
		t.Fatal("expected product 101 to be stored")
	}

	if len(catalog.OrderFilters) != 1 {
		t.Fatalf("expected a single page request, got %d", len(catalog.OrderFilters))
	}
	filter := catalog.OrderFilters[0]
	want := woocommerce.OrderFilter{Page: 1, PerPage: 100, After: testNow.AddDate(0, 0, -30), OrderBy: "date", Order: "desc"}
	if filter.Page != want.Page || filter.PerPage != want.PerPage || !filter.After.Equal(want.After) ||
		filter.OrderBy != want.OrderBy || filter.Order != want.Order {
		t.Fatalf("unexpected filter %+v, want %+v", filter, want)
	}
}

func TestOrderSyncRejectsInvalidOrder(t *testing.T) {
	var payload map[string]any
	if err := json.Unmarshal(test.OrderJSON(5, recent, 101), &payload); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	delete(payload, "order_key")
	raw, _ := json.Marshal(payload)

	catalog := &test.CatalogStub{
		OrderPages: [][]json.RawMessage{{raw}},
		Products:   map[int64]json.RawMessage{101: test.ProductJSON(101, "Mug")},
	}
	f := newFixture(testConfig(), catalog, nil, nil)

	result, err := f.orderSync.Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Synced != 0 || result.Errors != 1 {
		t.Fatalf("expected synced=0 errors=1, got %+v", result)
	}
	if f.orders.Has(5) {
		t.Fatal("invalid order must not be stored")
	}
	if catalog.ProductFetchCount(101) != 0 {
		t.Fatal("products of invalid orders must not be resolved")
	}
}

func TestOrderSyncKeepsOrderWhenProductFails(t *testing.T) {
	catalog := &test.CatalogStub{
		OrderPages: [][]json.RawMessage{{test.OrderJSON(1, recent, 101, 102)}},
		Products:   map[int64]json.RawMessage{102: test.ProductJSON(102, "Tee")},
		ProductErrs: map[int64]error{
			101: &domainErrors.FetchError{Op: "fetch product 101", StatusCode: 503, Transient: true},
		},
	}
	f := newFixture(testConfig(), catalog, nil, nil)

	result, err := f.orderSync.Sync(context.Background())
	if err != nil || result.Synced != 1 || result.Errors != 0 {
		t.Fatalf("unexpected result %+v err=%v", result, err)
	}
	if !f.orders.Has(1) {
		t.Fatal("order must be stored even if a product could not be resolved")
	}
	if f.products.Has(101) || !f.products.Has(102) {
		t.Fatalf("unexpected products %v", f.products.IDs())
	}
}

func TestOrderSyncPaginatesWhilePagesAreFull(t *testing.T) {
	catalog := &test.CatalogStub{
		OrderPages: [][]json.RawMessage{
			fullPage(1, 7),
			{test.OrderJSON(1000, recent, 7)},
		},
		Products: map[int64]json.RawMessage{7: test.ProductJSON(7, "Cap")},
	}
	f := newFixture(testConfig(), catalog, nil, nil)

	result, err := f.orderSync.Sync(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Synced != 101 || result.Errors != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(catalog.OrderFilters) != 2 || catalog.OrderFilters[1].Page != 2 {
		t.Fatalf("expected two page requests, got %+v", catalog.OrderFilters)
	}
	if len(f.orders.Snapshot()) != 101 {
		t.Fatalf("expected 101 stored orders, got %d", len(f.orders.Snapshot()))
	}
}

func TestOrderSyncStopsOnPageFailure(t *testing.T) {
	catalog := &test.CatalogStub{
		OrderPages:    [][]json.RawMessage{fullPage(1, 7), fullPage(101, 7), fullPage(201, 7)},
		OrderPageErrs: map[int]error{2: &domainErrors.FetchError{Op: "fetch orders", StatusCode: 500}},
		Products:      map[int64]json.RawMessage{7: test.ProductJSON(7, "Cap")},
	}
	f := newFixture(testConfig(), catalog, nil, nil)

	result, err := f.orderSync.Sync(context.Background())
	if err != nil {
		t.Fatalf("page failure must not fail the pass: %v", err)
	}
	if result.Synced != 100 || result.Errors != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(catalog.OrderFilters) != 2 {
		t.Fatalf("pagination must stop after failed page, got %d requests", len(catalog.OrderFilters))
	}
}

func TestOrderSyncCountsUpsertFailures(t *testing.T) {
	catalog := &test.CatalogStub{
		OrderPages: [][]json.RawMessage{{test.OrderJSON(1, recent), test.OrderJSON(2, recent)}},
	}
	f := newFixture(testConfig(), catalog, nil, nil)
	f.orders.UpsertFn = func(_ context.Context, o *model.Order) error {
		if o.ID == 2 {
			return domainErrors.Persistence("upsert order", errors.New("deadlock"))
		}
		return nil
	}

	result, err := f.orderSync.Sync(context.Background())
	if err != nil || result.Synced != 1 || result.Errors != 1 {
		t.Fatalf("unexpected result %+v err=%v", result, err)
	}
	if !f.orders.Has(1) || f.orders.Has(2) {
		t.Fatalf("unexpected stored orders %+v", f.orders.Snapshot())
	}
}

func TestOrderSyncIsIdempotent(t *testing.T) {
	catalog := &test.CatalogStub{
		OrderPages: [][]json.RawMessage{{
			test.OrderJSON(1, recent, 101),
			test.OrderJSON(2, "2024-05-02T09:30:00", 101, 102),
		}},
		Products: map[int64]json.RawMessage{
			101: test.ProductJSON(101, "Mug"),
			102: test.ProductJSON(102, "Tee"),
		},
	}
	f := newFixture(testConfig(), catalog, nil, nil)
	ctx := context.Background()

	if _, err := f.orderSync.Sync(ctx); err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	first := f.orders.Snapshot()
	firstProducts := f.products.IDs()

	if _, err := f.orderSync.Sync(ctx); err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	second := f.orders.Snapshot()

	if len(first) != len(second) {
		t.Fatalf("order count changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, _ := json.Marshal(first[i])
		b, _ := json.Marshal(second[i])
		if string(a) != string(b) {
			t.Fatalf("order %d changed between passes:\n%s\n%s", first[i].ID, a, b)
		}
	}
	if got := f.products.IDs(); len(got) != len(firstProducts) {
		t.Fatalf("product set changed: %v vs %v", firstProducts, got)
	}
	if catalog.ProductFetchCount(102) != 1 {
		t.Fatalf("stored product must not be fetched again, fetched %d times", catalog.ProductFetchCount(102))
	}
}

func TestOrderSyncBoundsOrderConcurrency(t *testing.T) {
	cfg := testConfig()
	cfg.OrderConcurrency = 2

	page := make([]json.RawMessage, 12)
	for i := range page {
		page[i] = test.OrderJSON(int64(i+1), recent)
	}
	catalog := &test.CatalogStub{OrderPages: [][]json.RawMessage{page}}
	f := newFixture(cfg, catalog, nil, nil)

	var inFlight, peak atomic.Int32
	f.orders.UpsertFn = func(context.Context, *model.Order) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return nil
	}

	result, err := f.orderSync.Sync(context.Background())
	if err != nil || result.Synced != 12 {
		t.Fatalf("unexpected result %+v err=%v", result, err)
	}
	if peak.Load() > 2 {
		t.Fatalf("expected at most 2 orders in flight, saw %d", peak.Load())
	}
}

func TestOrderSyncBoundsProductConcurrency(t *testing.T) {
	cfg := testConfig()
	cfg.ProductConcurrency = 2

	page := make([]json.RawMessage, 6)
	products := make(map[int64]json.RawMessage, 12)
	for i := range page {
		first, second := int64(100+2*i), int64(101+2*i)
		page[i] = test.OrderJSON(int64(i+1), recent, first, second)
		products[first] = test.ProductJSON(first, "A")
		products[second] = test.ProductJSON(second, "B")
	}
	catalog := &test.CatalogStub{OrderPages: [][]json.RawMessage{page}, Products: products}
	f := newFixture(cfg, catalog, nil, nil)

	var inFlight, peak atomic.Int32
	f.products.UpsertFn = func(context.Context, *model.Product) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return nil
	}

	result, err := f.orderSync.Sync(context.Background())
	if err != nil || result.Synced != 6 || result.Errors != 0 {
		t.Fatalf("unexpected result %+v err=%v", result, err)
	}
	if got := len(f.products.IDs()); got != 12 {
		t.Fatalf("expected 12 products stored, got %d", got)
	}
	if peak.Load() > 2 {
		t.Fatalf("expected at most 2 products in flight, saw %d", peak.Load())
	}
}

func TestOrderSyncKeepsOrderWithUnusableProductReference(t *testing.T) {
	raw := json.RawMessage(`{"id":9,"number":"9","order_key":"wc_order_9","status":"processing",` +
		`"date_created":"` + recent + `","total":"5.00","customer_id":1,"billing":{},"shipping":{},` +
		`"line_items":[{"name":"Gift","product_id":"gift-card"},{"name":"Mug","product_id":101}]}`)
	catalog := &test.CatalogStub{
		OrderPages: [][]json.RawMessage{{raw}},
		Products:   map[int64]json.RawMessage{101: test.ProductJSON(101, "Mug")},
	}
	f := newFixture(testConfig(), catalog, nil, nil)

	result, err := f.orderSync.Sync(context.Background())
	if err != nil || result.Synced != 1 || result.Errors != 0 {
		t.Fatalf("expected synced=1 errors=0, got %+v err=%v", result, err)
	}
	if !f.orders.Has(9) || !f.products.Has(101) {
		t.Fatal("expected order 9 and product 101 to be stored")
	}
	if got := f.products.IDs(); len(got) != 1 {
		t.Fatalf("unusable reference must not resolve a product, got %v", got)
	}
}

func TestOrderSyncReturnsCancellation(t *testing.T) {
	catalog := &test.CatalogStub{OrderPages: [][]json.RawMessage{{test.OrderJSON(1, recent)}}}
	f := newFixture(testConfig(), catalog, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.orderSync.Sync(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
