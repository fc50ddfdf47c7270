package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/catalogsync/internal/domain/errors"
	"github.com/polkiloo/catalogsync/internal/domain/model"
)

const orderColumns = `id, number, order_key, status, date_created, total::text, customer_id, customer_note,
                      billing, shipping, line_items, updated_at, synced_at`

const productRefFilter = `product_ids @> ARRAY[$1]::bigint[]`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *orderRepository) Upsert(ctx context.Context, order *model.Order) error {
	const query = `INSERT INTO orders (id, number, order_key, status, date_created, total, customer_id, customer_note,
                       billing, shipping, line_items, product_ids, updated_at, synced_at)
                   VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9::jsonb, $10::jsonb, $11::jsonb, $12, $13, $14)
                   ON CONFLICT (id) DO UPDATE SET
                       number = EXCLUDED.number,
                       order_key = EXCLUDED.order_key,
                       status = EXCLUDED.status,
                       date_created = EXCLUDED.date_created,
                       total = EXCLUDED.total,
                       customer_id = EXCLUDED.customer_id,
                       customer_note = EXCLUDED.customer_note,
                       billing = EXCLUDED.billing,
                       shipping = EXCLUDED.shipping,
                       line_items = EXCLUDED.line_items,
                       product_ids = EXCLUDED.product_ids,
                       updated_at = EXCLUDED.updated_at,
                       synced_at = EXCLUDED.synced_at`

	billing, shipping, lineItems, err := encodeOrderBlobs(order)
	if err != nil {
		return domainErrors.Persistence("encode order", err)
	}

	_, err = r.storage.pool.Exec(ctx, query,
		order.ID, order.Number, order.OrderKey, order.Status, order.DateCreated, order.Total.String(),
		order.CustomerID, order.CustomerNote, billing, shipping, lineItems, order.ProductIDs(),
		order.UpdatedAt, order.SyncedAt,
	)
	if err != nil {
		return domainErrors.Persistence("upsert order", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, domainErrors.Persistence("get order", err)
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, q model.OrderQuery) ([]model.Order, int64, error) {
	var where whereBuilder

	if q.Status != "" {
		where.add("status = " + where.arg(q.Status))
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		p := where.arg(containsPattern(term))
		matches := []string{
			"number ILIKE " + p,
			"billing->>'first_name' ILIKE " + p,
			"billing->>'last_name' ILIKE " + p,
			"billing->>'email' ILIKE " + p,
			"shipping->>'first_name' ILIKE " + p,
			"shipping->>'last_name' ILIKE " + p,
			"EXISTS (SELECT 1 FROM jsonb_array_elements(line_items) AS li WHERE li->>'name' ILIKE " + p + ")",
		}
		if id, err := strconv.ParseInt(term, 10, 64); err == nil {
			matches = append(matches, "id = "+where.arg(id))
		}
		where.add("(" + strings.Join(matches, " OR ") + ")")
	}

	countQuery := `SELECT COUNT(*) FROM orders` + where.String()
	countArgs := append([]any(nil), where.args...)
	listQuery := `SELECT ` + orderColumns + ` FROM orders` + where.String() + " " +
		orderSort.orderBy(q.Sort, q.Order) + where.page(q.Page, q.Limit)

	var (
		total  int64
		orders []model.Order
	)
	err := r.storage.WithinTransaction(ctx, readSnapshot, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, listQuery, where.args...)
		if err != nil {
			return err
		}
		orders, err = collectOrders(rows)
		return err
	})
	if err != nil {
		return nil, 0, domainErrors.Persistence("list orders", err)
	}
	return orders, total, nil
}

func (r *orderRepository) ListByProduct(ctx context.Context, productID int64) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + productRefFilter + ` ORDER BY date_created DESC, id DESC`
	rows, err := r.storage.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, domainErrors.Persistence("list orders by product", err)
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, domainErrors.Persistence("list orders by product", err)
	}
	return orders, nil
}

func (r *orderRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE date_created < $1 ORDER BY date_created, id`
	rows, err := r.storage.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, domainErrors.Persistence("list expired orders", err)
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, domainErrors.Persistence("list expired orders", err)
	}
	return orders, nil
}

func (r *orderRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM orders WHERE date_created < $1`
	tag, err := r.storage.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, domainErrors.Persistence("delete expired orders", err)
	}
	return tag.RowsAffected(), nil
}

func (r *orderRepository) CountByProduct(ctx context.Context, productID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM orders WHERE ` + productRefFilter
	var count int64
	if err := r.storage.pool.QueryRow(ctx, query, productID).Scan(&count); err != nil {
		return 0, domainErrors.Persistence("count orders by product", err)
	}
	return count, nil
}

func (r *orderRepository) DistinctProductIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT DISTINCT unnest(product_ids) AS product_id FROM orders ORDER BY product_id`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, domainErrors.Persistence("distinct product ids", err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, domainErrors.Persistence("distinct product ids", err)
	}
	return ids, nil
}

func encodeOrderBlobs(order *model.Order) (billing, shipping, lineItems string, err error) {
	b, err := json.Marshal(documentOrEmpty(order.Billing))
	if err != nil {
		return "", "", "", fmt.Errorf("billing: %w", err)
	}
	s, err := json.Marshal(documentOrEmpty(order.Shipping))
	if err != nil {
		return "", "", "", fmt.Errorf("shipping: %w", err)
	}
	items := order.LineItems
	if items == nil {
		items = []model.LineItem{}
	}
	li, err := json.Marshal(items)
	if err != nil {
		return "", "", "", fmt.Errorf("line items: %w", err)
	}
	return string(b), string(s), string(li), nil
}

func documentOrEmpty(doc *model.Document) *model.Document {
	if doc == nil {
		return &model.Document{}
	}
	return doc
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o                           model.Order
		total                       string
		billing, shipping, lineItem []byte
	)
	err := row.Scan(&o.ID, &o.Number, &o.OrderKey, &o.Status, &o.DateCreated, &total, &o.CustomerID,
		&o.CustomerNote, &billing, &shipping, &lineItem, &o.UpdatedAt, &o.SyncedAt)
	if err != nil {
		return nil, err
	}

	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %d total: %w", o.ID, err)
	}
	if o.Billing, err = decodeDocument(billing); err != nil {
		return nil, fmt.Errorf("order %d billing: %w", o.ID, err)
	}
	if o.Shipping, err = decodeDocument(shipping); err != nil {
		return nil, fmt.Errorf("order %d shipping: %w", o.ID, err)
	}
	if len(lineItem) > 0 {
		if err := json.Unmarshal(lineItem, &o.LineItems); err != nil {
			return nil, fmt.Errorf("order %d line items: %w", o.ID, err)
		}
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	result := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func collectIDs(rows pgx.Rows) ([]int64, error) {
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func decodeDocument(raw []byte) (*model.Document, error) {
	doc := &model.Document{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := doc.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return doc, nil
}
