package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"coffee-slot-machine/internal/domain"
)

const tableOrders = "orders"

type OrderRepo interface {
	// FindById returns nil, nil when the order does not exist.
	FindById(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	CreateOrder(ctx context.Context, order *domain.Order) error
	UpdateOrder(ctx context.Context, order *domain.Order) error
	// FindAllWithProduct returns every order in creation order.
	FindAllWithProduct(ctx context.Context) ([]domain.Order, error)
	FindStaleOpenOrders(ctx context.Context, olderThan time.Duration) ([]domain.Order, error)
}

type orderRow struct {
	ID                 uuid.UUID `db:"id"`
	ProductID          int64     `db:"product_id"`
	ProductName        string    `db:"product_name"`
	ProductPriceCents  int       `db:"product_price_cents"`
	Status             string    `db:"status"`
	ThrownInCoinValues string    `db:"thrown_in_coin_values"`
	ReturnCoinValues   string    `db:"return_coin_values"`
	DonationCents      int       `db:"donation_cents"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (r orderRow) toDomain() (*domain.Order, error) {
	inserted, err := parseCoins(r.ThrownInCoinValues)
	if err != nil {
		return nil, fmt.Errorf("order %s thrown in coins: %w", r.ID, err)
	}
	returned, err := parseCoins(r.ReturnCoinValues)
	if err != nil {
		return nil, fmt.Errorf("order %s return coins: %w", r.ID, err)
	}

	return domain.RestoreOrder(
		r.ID,
		domain.Product{ID: r.ProductID, Name: r.ProductName, PriceCents: domain.Cents(r.ProductPriceCents)},
		domain.OrderStatus(r.Status),
		inserted,
		returned,
		domain.Cents(r.DonationCents),
		r.CreatedAt,
		r.UpdatedAt,
	), nil
}

type orderRepo struct {
	db *sqlx.DB
}

func NewOrderRepo(db *sqlx.DB) OrderRepo {
	return &orderRepo{db: db}
}

func (r *orderRepo) selectWithProduct() *goqu.SelectDataset {
	return dialect().
		From(goqu.T(tableOrders).As("o")).
		Join(goqu.T(tableProducts).As("p"), goqu.On(goqu.I("o.product_id").Eq(goqu.I("p.id")))).
		Select(
			goqu.I("o.id"),
			goqu.I("o.product_id"),
			goqu.I("p.name").As("product_name"),
			goqu.I("p.price_cents").As("product_price_cents"),
			goqu.I("o.status"),
			goqu.I("o.thrown_in_coin_values"),
			goqu.I("o.return_coin_values"),
			goqu.I("o.donation_cents"),
			goqu.I("o.created_at"),
			goqu.I("o.updated_at"),
		).
		Order(goqu.I("o.seq").Asc())
}

func (r *orderRepo) findMany(ctx context.Context, ds *goqu.SelectDataset) ([]domain.Order, error) {
	query, args, err := toSQL(ds.Prepared(true))
	if err != nil {
		return nil, err
	}

	var rows []orderRow
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, args...); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		order, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

func (r *orderRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query, args, err := toSQL(r.selectWithProduct().Where(goqu.I("o.id").Eq(id.String())).Prepared(true))
	if err != nil {
		return nil, err
	}

	var row orderRow
	err = sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err // system error
	}
	return row.toDomain()
}

func (r *orderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	query, args, err := toSQL(dialect().
		Insert(tableOrders).
		Rows(goqu.Record{
			"id":                    order.ID.String(),
			"product_id":            order.Product.ID,
			"status":                string(order.Status()),
			"thrown_in_coin_values": order.InsertedCoins().String(),
			"return_coin_values":    order.ReturnCoins().String(),
			"donation_cents":        int(order.DonationCents()),
			"created_at":            order.CreatedAt,
			"updated_at":            order.UpdatedAt,
		}).
		Prepared(true))
	if err != nil {
		return err
	}

	_, err = executor(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

func (r *orderRepo) UpdateOrder(ctx context.Context, order *domain.Order) error {
	query, args, err := toSQL(dialect().
		Update(tableOrders).
		Set(goqu.Record{
			"status":                string(order.Status()),
			"thrown_in_coin_values": order.InsertedCoins().String(),
			"return_coin_values":    order.ReturnCoins().String(),
			"donation_cents":        int(order.DonationCents()),
			"updated_at":            order.UpdatedAt,
		}).
		Where(goqu.C("id").Eq(order.ID.String())).
		Prepared(true))
	if err != nil {
		return err
	}

	_, err = executor(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

func (r *orderRepo) FindAllWithProduct(ctx context.Context) ([]domain.Order, error) {
	return r.findMany(ctx, r.selectWithProduct())
}

func (r *orderRepo) FindStaleOpenOrders(ctx context.Context, olderThan time.Duration) ([]domain.Order, error) {
	return r.findMany(ctx, r.selectWithProduct().Where(
		goqu.I("o.status").Eq(string(domain.OrderOpen)),
		goqu.I("o.updated_at").Lt(time.Now().Add(-olderThan)),
	))
}
