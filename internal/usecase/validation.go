package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/catalogsync/internal/domain/errors"
	"github.com/polkiloo/catalogsync/internal/domain/model"
)

const (
	entityOrder   = "order"
	entityProduct = "product"
)

// Upstream timestamps come either with an offset or as site-local time
// without zone; the latter is interpreted as UTC.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type orderPayload struct {
	ID           *int64           `json:"id" validate:"required"`
	Number       string           `json:"number" validate:"required"`
	OrderKey     string           `json:"order_key" validate:"required"`
	Status       string           `json:"status" validate:"required"`
	DateCreated  string           `json:"date_created" validate:"required"`
	Total        string           `json:"total" validate:"required"`
	CustomerID   *int64           `json:"customer_id" validate:"required"`
	CustomerNote string           `json:"customer_note"`
	Billing      *model.Document  `json:"billing" validate:"required"`
	Shipping     *model.Document  `json:"shipping" validate:"required"`
	LineItems    []model.LineItem `json:"line_items" validate:"required"`
}

type productPayload struct {
	ID               *int64            `json:"id" validate:"required"`
	Name             string            `json:"name" validate:"required"`
	SKU              string            `json:"sku"`
	Price            string            `json:"price"`
	RegularPrice     string            `json:"regular_price"`
	SalePrice        string            `json:"sale_price"`
	Description      string            `json:"description"`
	ShortDescription string            `json:"short_description"`
	Images           []*model.Document `json:"images" validate:"dive,required"`
	StockQuantity    *int64            `json:"stock_quantity"`
	InStock          *bool             `json:"in_stock"`
}

// decodeOrder validates a raw catalog order and converts it to the stored form.
func decodeOrder(raw json.RawMessage, now time.Time) (*model.Order, error) {
	var p orderPayload
	if err := decodePayload(entityOrder, raw, &p); err != nil {
		return nil, err
	}

	created, err := parseDate(p.DateCreated)
	if err != nil {
		return nil, &domainErrors.ValidationError{Entity: entityOrder, Field: "date_created", Reason: err.Error()}
	}
	total, err := decimal.NewFromString(strings.TrimSpace(p.Total))
	if err != nil {
		return nil, &domainErrors.ValidationError{Entity: entityOrder, Field: "total", Reason: fmt.Sprintf("%q is not a decimal", p.Total)}
	}

	return &model.Order{
		ID:           *p.ID,
		Number:       p.Number,
		OrderKey:     p.OrderKey,
		Status:       p.Status,
		DateCreated:  created,
		Total:        total,
		CustomerID:   *p.CustomerID,
		CustomerNote: p.CustomerNote,
		Billing:      p.Billing,
		Shipping:     p.Shipping,
		LineItems:    p.LineItems,
		UpdatedAt:    now,
		SyncedAt:     now,
	}, nil
}

// decodeProduct validates a raw catalog product and converts it to the stored form.
func decodeProduct(raw json.RawMessage, now time.Time) (*model.Product, error) {
	var p productPayload
	if err := decodePayload(entityProduct, raw, &p); err != nil {
		return nil, err
	}

	product := &model.Product{
		ID:               *p.ID,
		Name:             p.Name,
		SKU:              p.SKU,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Images:           p.Images,
		StockQuantity:    p.StockQuantity,
		InStock:          p.InStock == nil || *p.InStock,
		UpdatedAt:        now,
		SyncedAt:         now,
	}
	if product.Images == nil {
		product.Images = []*model.Document{}
	}

	for _, f := range []struct {
		field  string
		raw    string
		target *decimal.Decimal
	}{
		{"price", p.Price, &product.Price},
		{"regular_price", p.RegularPrice, &product.RegularPrice},
		{"sale_price", p.SalePrice, &product.SalePrice},
	} {
		v, err := parsePrice(f.raw)
		if err != nil {
			return nil, &domainErrors.ValidationError{Entity: entityProduct, Field: f.field, Reason: err.Error()}
		}
		*f.target = v
	}
	return product, nil
}

func decodePayload(entity string, raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &domainErrors.ValidationError{
				Entity: entity,
				Field:  typeErr.Field,
				Reason: "must be " + jsonKind(typeErr.Type.Kind()),
			}
		}
		return &domainErrors.ValidationError{Entity: entity, Reason: err.Error()}
	}

	if err := validate.Struct(dst); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) && len(errs) > 0 {
			fe := errs[0]
			return &domainErrors.ValidationError{Entity: entity, Field: fieldPath(fe), Reason: "is " + fe.Tag()}
		}
		return &domainErrors.ValidationError{Entity: entity, Reason: err.Error()}
	}
	return nil
}

// fieldPath drops the payload struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

func jsonKind(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a timestamp", value)
}

func parsePrice(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a decimal", value)
	}
	return d, nil
}
