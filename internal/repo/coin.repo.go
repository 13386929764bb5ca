package repo

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"coffee-slot-machine/internal/domain"
)

const tableCoins = "coins"

type CoinRepo interface {
	// LoadDepot reads the whole coin inventory.
	LoadDepot(ctx context.Context) (*domain.CoinDepot, error)
	// SaveDepot writes the count of every denomination.
	SaveDepot(ctx context.Context, depot *domain.CoinDepot) error
}

type coinRow struct {
	CoinValue int `db:"coin_value"`
	Amount    int `db:"amount"`
}

type coinRepo struct {
	db *sqlx.DB
}

func NewCoinRepo(db *sqlx.DB) CoinRepo {
	return &coinRepo{db: db}
}

func (r *coinRepo) LoadDepot(ctx context.Context) (*domain.CoinDepot, error) {
	query, args, err := toSQL(dialect().
		From(tableCoins).
		Select("coin_value", "amount").
		Order(goqu.I("coin_value").Desc()).
		Prepared(true))
	if err != nil {
		return nil, err
	}

	var rows []coinRow
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, args...); err != nil {
		return nil, err
	}

	counts := make(map[domain.Cents]int, len(rows))
	for _, row := range rows {
		counts[domain.Cents(row.CoinValue)] = row.Amount
	}
	return domain.NewCoinDepot(counts)
}

func (r *coinRepo) SaveDepot(ctx context.Context, depot *domain.CoinDepot) error {
	records := make([]interface{}, 0, len(domain.Denominations))
	for _, stock := range depot.Inventory() {
		records = append(records, goqu.Record{"coin_value": int(stock.CoinValue), "amount": stock.Amount})
	}

	query, args, err := toSQL(dialect().
		Insert(tableCoins).
		Rows(records...).
		OnConflict(goqu.DoUpdate("coin_value", goqu.Record{"amount": goqu.L("EXCLUDED.amount")})).
		Prepared(true))
	if err != nil {
		return err
	}

	_, err = executor(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}
