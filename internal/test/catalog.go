package test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/polkiloo/catalogsync/internal/adapter/woocommerce"
	domainErrors "github.com/polkiloo/catalogsync/internal/domain/errors"
)

// CatalogStub serves canned remote catalog data.
type CatalogStub struct {
	mu sync.Mutex

	// OrderPages[i] is returned for page i+1; later pages are empty.
	OrderPages    [][]json.RawMessage
	OrderPageErrs map[int]error
	Products      map[int64]json.RawMessage
	ProductErrs   map[int64]error

	FetchOrdersFn func(context.Context, woocommerce.OrderFilter) ([]json.RawMessage, error)

	OrderFilters   []woocommerce.OrderFilter
	ProductFetches map[int64]int
}

func (s *CatalogStub) FetchOrders(ctx context.Context, filter woocommerce.OrderFilter) ([]json.RawMessage, error) {
	s.mu.Lock()
	s.OrderFilters = append(s.OrderFilters, filter)
	s.mu.Unlock()

	if s.FetchOrdersFn != nil {
		return s.FetchOrdersFn(ctx, filter)
	}
	if err := s.OrderPageErrs[filter.Page]; err != nil {
		return nil, err
	}
	if filter.Page < 1 || filter.Page > len(s.OrderPages) {
		return []json.RawMessage{}, nil
	}
	return s.OrderPages[filter.Page-1], nil
}

func (s *CatalogStub) FetchProducts(ctx context.Context, filter woocommerce.ProductFilter) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(filter.Include))
	for _, id := range filter.Include {
		if raw, ok := s.Products[id]; ok {
			out = append(out, raw)
		}
	}
	return out, nil
}

func (s *CatalogStub) FetchProduct(ctx context.Context, id int64) (json.RawMessage, error) {
	s.mu.Lock()
	if s.ProductFetches == nil {
		s.ProductFetches = make(map[int64]int)
	}
	s.ProductFetches[id]++
	s.mu.Unlock()

	if err := s.ProductErrs[id]; err != nil {
		return nil, err
	}
	if raw, ok := s.Products[id]; ok {
		return raw, nil
	}
	return nil, &domainErrors.FetchError{Op: fmt.Sprintf("fetch product %d", id), StatusCode: 404}
}

// ProductFetchCount reports how many times product id was requested.
func (s *CatalogStub) ProductFetchCount(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ProductFetches[id]
}

// OrderJSON renders a minimal valid catalog order referencing productIDs.
func OrderJSON(id int64, created string, productIDs ...int64) json.RawMessage {
	items := "["
	for i, pid := range productIDs {
		if i > 0 {
			items += ","
		}
		items += fmt.Sprintf(`{"id":%d,"name":"Item %d","product_id":%d,"quantity":1}`, i+1, pid, pid)
	}
	items += "]"
	return json.RawMessage(fmt.Sprintf(`{"id":%d,"number":"%d","order_key":"wc_order_%d","status":"processing",`+
		`"date_created":%q,"total":"10.00","customer_id":1,"customer_note":"",`+
		`"billing":{"first_name":"Ann","email":"ann@example.com"},"shipping":{"first_name":"Ann"},"line_items":%s}`,
		id, id, id, created, items))
}

// ProductJSON renders a minimal valid catalog product.
func ProductJSON(id int64, name string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"id":%d,"name":%q,"sku":"SKU-%d","price":"9.99","regular_price":"12.00","sale_price":"",`+
		`"description":"","short_description":"","images":[],"stock_quantity":3,"in_stock":true}`, id, name, id))
}
