package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Order mirrors a remote catalog order.
type Order struct {
	ID           int64
	Number       string
	OrderKey     string
	Status       string
	DateCreated  time.Time
	Total        decimal.Decimal
	CustomerID   int64
	CustomerNote string
	Billing      *Document
	Shipping     *Document
	LineItems    []LineItem
	UpdatedAt    time.Time
	SyncedAt     time.Time
}

// ProductIDs returns distinct product references of the order in line item order.
func (o *Order) ProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(o.LineItems))
	ids := make([]int64, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		if li.ProductID <= 0 {
			continue
		}
		if _, ok := seen[li.ProductID]; ok {
			continue
		}
		seen[li.ProductID] = struct{}{}
		ids = append(ids, li.ProductID)
	}
	return ids
}

// LineItem keeps the full remote line item and the product it references, if any.
type LineItem struct {
	ProductID int64
	Fields    *Document

	// InvalidProductRef holds the raw product_id when it is not a usable
	// product id. Such a line item references no product.
	InvalidProductRef string
}

// Name returns the line item name when present.
func (li LineItem) Name() string {
	return li.Fields.StringField("name")
}

// MarshalJSON implements json.Marshaler.
func (li LineItem) MarshalJSON() ([]byte, error) {
	if li.Fields == nil {
		return []byte("{}"), nil
	}
	return li.Fields.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler. The product reference is read from
// product_id and accepts both numbers and numeric strings.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("line item must be an object")
	}

	doc := &Document{}
	if err := doc.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("line item: %w", err)
	}

	li.Fields = doc
	li.ProductID, li.InvalidProductRef = productRef(doc)
	return nil
}

// productRef reads product_id. An unusable value yields no reference and is
// returned as raw text.
func productRef(doc *Document) (int64, string) {
	v, ok := doc.Get("product_id")
	if !ok || v.IsNull() {
		return 0, ""
	}

	var raw string
	switch v.Kind() {
	case KindNumber:
		n, _ := v.AsNumber()
		raw = n.String()
	case KindString:
		raw, _ = v.AsString()
		if raw == "" {
			return 0, ""
		}
	default:
		text, _ := v.MarshalJSON()
		return 0, string(text)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, raw
	}
	return id, ""
}

var _ json.Marshaler = LineItem{}
