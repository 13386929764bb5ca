package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"coffee-slot-machine/internal/domain"
)

const tableProducts = "products"

type ProductRepo interface {
	// FindAll returns the catalog sorted by name.
	FindAll(ctx context.Context) ([]domain.Product, error)
	// FindById returns nil, nil when the product does not exist.
	FindById(ctx context.Context, id int64) (*domain.Product, error)
}

type productRow struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	PriceCents int    `db:"price_cents"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{ID: r.ID, Name: r.Name, PriceCents: domain.Cents(r.PriceCents)}
}

type productRepo struct {
	db *sqlx.DB
}

func NewProductRepo(db *sqlx.DB) ProductRepo {
	return &productRepo{db: db}
}

func (r *productRepo) FindAll(ctx context.Context) ([]domain.Product, error) {
	query, args, err := toSQL(dialect().
		From(tableProducts).
		Select("id", "name", "price_cents").
		Order(goqu.I("name").Asc()).
		Prepared(true))
	if err != nil {
		return nil, err
	}

	var rows []productRow
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, args...); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toDomain())
	}
	return products, nil
}

func (r *productRepo) FindById(ctx context.Context, id int64) (*domain.Product, error) {
	query, args, err := toSQL(dialect().
		From(tableProducts).
		Select("id", "name", "price_cents").
		Where(goqu.C("id").Eq(id)).
		Prepared(true))
	if err != nil {
		return nil, err
	}

	var row productRow
	err = sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	product := row.toDomain()
	return &product, nil
}
