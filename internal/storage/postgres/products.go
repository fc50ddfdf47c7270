package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/catalogsync/internal/domain/errors"
	"github.com/polkiloo/catalogsync/internal/domain/model"
)

const productColumns = `id, name, sku, price::text, regular_price::text, sale_price::text, description,
                        short_description, images, stock_quantity, in_stock, updated_at, synced_at`

func (r *productRepository) Upsert(ctx context.Context, p *model.Product) error {
	const query = `INSERT INTO products (id, name, sku, price, regular_price, sale_price, description,
                       short_description, images, stock_quantity, in_stock, updated_at, synced_at)
                   VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, $8, $9::jsonb, $10, $11, $12, $13)
                   ON CONFLICT (id) DO UPDATE SET
                       name = EXCLUDED.name,
                       sku = EXCLUDED.sku,
                       price = EXCLUDED.price,
                       regular_price = EXCLUDED.regular_price,
                       sale_price = EXCLUDED.sale_price,
                       description = EXCLUDED.description,
                       short_description = EXCLUDED.short_description,
                       images = EXCLUDED.images,
                       stock_quantity = EXCLUDED.stock_quantity,
                       in_stock = EXCLUDED.in_stock,
                       updated_at = EXCLUDED.updated_at,
                       synced_at = EXCLUDED.synced_at`

	images := p.Images
	if images == nil {
		images = []*model.Document{}
	}
	encoded, err := json.Marshal(images)
	if err != nil {
		return domainErrors.Persistence("encode product images", err)
	}

	_, err = r.storage.pool.Exec(ctx, query,
		p.ID, p.Name, p.SKU, p.Price.String(), p.RegularPrice.String(), p.SalePrice.String(),
		p.Description, p.ShortDescription, string(encoded), p.StockQuantity, p.InStock,
		p.UpdatedAt, p.SyncedAt,
	)
	if err != nil {
		return domainErrors.Persistence("upsert product", err)
	}
	return nil
}

func (r *productRepository) Get(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id=$1`
	p, err := scanProduct(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, domainErrors.Persistence("get product", err)
	}
	return p, nil
}

func (r *productRepository) List(ctx context.Context, q model.ProductQuery) ([]model.Product, int64, error) {
	var where whereBuilder
	if term := strings.TrimSpace(q.Search); term != "" {
		p := where.arg(containsPattern(term))
		where.add("(name ILIKE " + p + " OR sku ILIKE " + p + ")")
	}

	countQuery := `SELECT COUNT(*) FROM products` + where.String()
	countArgs := append([]any(nil), where.args...)
	listQuery := `SELECT ` + productColumns + ` FROM products` + where.String() + " " +
		productSort.orderBy(q.Sort, q.Order) + where.page(q.Page, q.Limit)

	var (
		total    int64
		products []model.Product
	)
	err := r.storage.WithinTransaction(ctx, readSnapshot, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, listQuery, where.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		products = make([]model.Product, 0)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			products = append(products, *p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, domainErrors.Persistence("list products", err)
	}
	return products, total, nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const query = `DELETE FROM products WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id)
	if err != nil {
		return false, domainErrors.Persistence("delete product", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *productRepository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	const query = `SELECT id FROM products WHERE id = ANY($1) ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, domainErrors.Persistence("existing product ids", err)
	}
	found, err := collectIDs(rows)
	if err != nil {
		return nil, domainErrors.Persistence("existing product ids", err)
	}
	return found, nil
}

func (r *productRepository) IDsNotIn(ctx context.Context, keep []int64) ([]int64, error) {
	// NULL array would make the predicate unknown for every row.
	if keep == nil {
		keep = []int64{}
	}
	const query = `SELECT id FROM products WHERE NOT (id = ANY($1)) ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query, keep)
	if err != nil {
		return nil, domainErrors.Persistence("unreferenced product ids", err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, domainErrors.Persistence("unreferenced product ids", err)
	}
	return ids, nil
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var (
		p                    model.Product
		price, regular, sale string
		images               []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &price, &regular, &sale, &p.Description,
		&p.ShortDescription, &images, &p.StockQuantity, &p.InStock, &p.UpdatedAt, &p.SyncedAt)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		raw    string
		target *decimal.Decimal
		name   string
	}{
		{price, &p.Price, "price"},
		{regular, &p.RegularPrice, "regular_price"},
		{sale, &p.SalePrice, "sale_price"},
	} {
		if *f.target, err = decimal.NewFromString(f.raw); err != nil {
			return nil, fmt.Errorf("product %d %s: %w", p.ID, f.name, err)
		}
	}

	p.Images = []*model.Document{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("product %d images: %w", p.ID, err)
		}
	}
	return &p, nil
}
