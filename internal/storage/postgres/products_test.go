package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/catalogsync/internal/domain/errors"
	"github.com/polkiloo/catalogsync/internal/domain/model"
)

var productRowColumns = []string{
	"id", "name", "sku", "price", "regular_price", "sale_price", "description", "short_description",
	"images", "stock_quantity", "in_stock", "updated_at", "synced_at",
}

func productRows() *pgxmockv3.Rows {
	return pgxmockv3.NewRows(productRowColumns)
}

func TestProductRepositoryUpsert(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &productRepository{storage: storage}

	stock := int64(4)
	product := &model.Product{
		ID:        101,
		Name:      "Mug",
		SKU:       "MUG-1",
		Price:     decimal.RequireFromString("9.50"),
		Images:    []*model.Document{model.NewDocument(model.Field{Key: "src", Value: model.StringValue("a.png")})},
		InStock:   true,
		UpdatedAt: fixedTime,
		SyncedAt:  fixedTime,
	}
	product.StockQuantity = &stock

	mock.ExpectExec("INSERT INTO products").WithArgs(
		int64(101), "Mug", "MUG-1", "9.5", "0", "0", "", "", `[{"src":"a.png"}]`, &stock, true, fixedTime, fixedTime,
	).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	if err := repo.Upsert(context.Background(), product); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	product.Images = nil
	mock.ExpectExec("INSERT INTO products").WithArgs(
		int64(101), "Mug", "MUG-1", "9.5", "0", "0", "", "", `[]`, &stock, true, fixedTime, fixedTime,
	).WillReturnError(errors.New("down"))
	if err := repo.Upsert(context.Background(), product); !errors.Is(err, domainErrors.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestProductRepositoryGet(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &productRepository{storage: storage}

	stock := int64(2)
	mock.ExpectQuery("SELECT id, name, sku").WithArgs(int64(101)).WillReturnRows(
		productRows().AddRow(int64(101), "Mug", "MUG-1", "9.50", "12", "0", "d", "s", []byte(`[{"src":"a.png"}]`), &stock, true, fixedTime, fixedTime))
	p, err := repo.Get(context.Background(), 101)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Price.Equal(decimal.RequireFromString("9.5")) || p.RegularPrice.String() != "12" {
		t.Fatalf("unexpected prices: %+v", p)
	}
	if len(p.Images) != 1 || p.Images[0].StringField("src") != "a.png" {
		t.Fatalf("unexpected images: %+v", p.Images)
	}
	if p.StockQuantity == nil || *p.StockQuantity != 2 {
		t.Fatalf("unexpected stock: %v", p.StockQuantity)
	}

	mock.ExpectQuery("SELECT id, name, sku").WithArgs(int64(102)).WillReturnRows(
		productRows().AddRow(int64(102), "Tee", "", "0", "0", "0", "", "", []byte(`[]`), nil, false, fixedTime, fixedTime))
	p, err = repo.Get(context.Background(), 102)
	if err != nil || p.StockQuantity != nil || p.InStock {
		t.Fatalf("unexpected product: %+v err=%v", p, err)
	}

	mock.ExpectQuery("SELECT id, name, sku").WithArgs(int64(5)).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.Get(context.Background(), 5); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("SELECT id, name, sku").WithArgs(int64(6)).WillReturnRows(
		productRows().AddRow(int64(6), "Bad", "", "x", "0", "0", "", "", []byte(`[]`), nil, true, fixedTime, fixedTime))
	if _, err := repo.Get(context.Background(), 6); err == nil {
		t.Fatal("expected price decode error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestProductRepositoryList(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &productRepository{storage: storage}

	mock.ExpectBeginTx(readSnapshot)
	mock.ExpectQuery(quoted("SELECT COUNT(*) FROM products WHERE (name ILIKE $1 OR sku ILIKE $1)")).
		WithArgs("%100\\%%").
		WillReturnRows(pgxmockv3.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(quoted("ORDER BY price DESC, id DESC LIMIT $2 OFFSET $3")).
		WithArgs("%100\\%%", 5, 0).
		WillReturnRows(productRows().AddRow(int64(1), "100% cotton", "", "1", "1", "0", "", "", []byte(`[]`), nil, true, fixedTime, fixedTime))
	mock.ExpectCommit()

	products, total, err := repo.List(context.Background(), model.ProductQuery{Limit: 5, Search: "100%", Sort: "price", Order: model.SortDesc})
	if err != nil || total != 1 || len(products) != 1 {
		t.Fatalf("unexpected result: %v total=%d err=%v", products, total, err)
	}

	mock.ExpectBeginTx(readSnapshot)
	mock.ExpectQuery(quoted("SELECT COUNT(*) FROM products")).
		WillReturnRows(pgxmockv3.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(quoted("ORDER BY name ASC, id ASC LIMIT $1 OFFSET $2")).
		WithArgs(20, 0).
		WillReturnError(errors.New("query"))
	mock.ExpectRollback()
	if _, _, err := repo.List(context.Background(), model.ProductQuery{}); !errors.Is(err, domainErrors.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestProductRepositoryDelete(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &productRepository{storage: storage}

	mock.ExpectExec(quoted("DELETE FROM products WHERE id=$1")).WithArgs(int64(1)).WillReturnResult(pgxmockv3.NewResult("DELETE", 1))
	removed, err := repo.Delete(context.Background(), 1)
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v err=%v", removed, err)
	}

	mock.ExpectExec(quoted("DELETE FROM products WHERE id=$1")).WithArgs(int64(2)).WillReturnResult(pgxmockv3.NewResult("DELETE", 0))
	removed, err = repo.Delete(context.Background(), 2)
	if err != nil || removed {
		t.Fatalf("expected no-op delete, got %v err=%v", removed, err)
	}

	mock.ExpectExec(quoted("DELETE FROM products WHERE id=$1")).WithArgs(int64(3)).WillReturnError(errors.New("fail"))
	if _, err := repo.Delete(context.Background(), 3); !errors.Is(err, domainErrors.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestProductRepositoryIDSets(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &productRepository{storage: storage}
	ctx := context.Background()

	ids, err := repo.ExistingIDs(ctx, nil)
	if err != nil || len(ids) != 0 {
		t.Fatalf("expected empty result without query, got %v err=%v", ids, err)
	}

	mock.ExpectQuery(quoted("SELECT id FROM products WHERE id = ANY($1)")).WithArgs([]int64{1, 2, 3}).
		WillReturnRows(pgxmockv3.NewRows([]string{"id"}).AddRow(int64(2)))
	ids, err = repo.ExistingIDs(ctx, []int64{1, 2, 3})
	if err != nil || len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("unexpected existing ids: %v err=%v", ids, err)
	}

	mock.ExpectQuery(quoted("SELECT id FROM products WHERE NOT (id = ANY($1))")).WithArgs([]int64{}).
		WillReturnRows(pgxmockv3.NewRows([]string{"id"}).AddRow(int64(7)).AddRow(int64(8)))
	ids, err = repo.IDsNotIn(ctx, nil)
	if err != nil || len(ids) != 2 {
		t.Fatalf("unexpected orphan ids: %v err=%v", ids, err)
	}

	mock.ExpectQuery(quoted("SELECT id FROM products WHERE NOT (id = ANY($1))")).WithArgs([]int64{50}).
		WillReturnError(errors.New("fail"))
	if _, err := repo.IDsNotIn(ctx, []int64{50}); !errors.Is(err, domainErrors.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
