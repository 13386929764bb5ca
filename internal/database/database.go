package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/jackc/pgx/v5/stdlib"                  // "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // "postgres" driver

	"coffee-slot-machine/internal/config"
	"coffee-slot-machine/internal/domain"
)

const (
	defaultMaxOpenConnections = 10
	defaultMaxIdleConnections = 2
	defaultMaxConnLifetime    = time.Hour
	defaultMaxConnIdleTime    = time.Minute * 5
)

var (
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrMigrationFailed       = errors.New("migration failed")
	ErrSeedFailed            = errors.New("seeding failed")
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open connects to Postgres with the configured driver and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	return OpenDSN(ctx, cfg.Driver, cfg.DSN())
}

// OpenDSN connects with an explicit driver name ("pgx" or "postgres") and DSN.
func OpenDSN(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(defaultMaxOpenConnections)
	db.SetMaxIdleConns(defaultMaxIdleConnections)
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies the embedded schema files in name order. Every file is
// idempotent, so Migrate can run on each start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return ErrNilDatabaseConnection
	}

	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := migrations.ReadFile(name)
		if err != nil {
			return errors.Join(ErrMigrationFailed, err)
		}
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			return errors.Join(ErrMigrationFailed, fmt.Errorf("%s: %w", name, err))
		}
	}

	return nil
}

// Seed inserts the catalog and a depot with coinsPerDenomination of every
// coin. Existing rows are left alone.
func Seed(ctx context.Context, db *sqlx.DB, products []domain.Product, coinsPerDenomination int) error {
	if db == nil {
		return ErrNilDatabaseConnection
	}

	builder := goqu.Dialect("postgres")

	productRows := make([]interface{}, 0, len(products))
	for _, p := range products {
		productRows = append(productRows, goqu.Record{"id": p.ID, "name": p.Name, "price_cents": int(p.PriceCents)})
	}

	coinRows := make([]interface{}, 0, len(domain.Denominations))
	for _, stock := range domain.NewStandardCoinDepot(coinsPerDenomination).Inventory() {
		coinRows = append(coinRows, goqu.Record{"coin_value": int(stock.CoinValue), "amount": stock.Amount})
	}

	statements := []*goqu.InsertDataset{
		builder.Insert("coins").Rows(coinRows...).OnConflict(goqu.DoNothing()),
	}
	if len(productRows) > 0 {
		statements = append(statements, builder.Insert("products").Rows(productRows...).OnConflict(goqu.DoNothing()))
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Join(ErrSeedFailed, err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		query, args, err := stmt.Prepared(true).ToSQL()
		if err != nil {
			return errors.Join(ErrSeedFailed, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Join(ErrSeedFailed, err)
		}
	}

	// keep the sequence ahead of the explicit ids used above
	if _, err := tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('products', 'id'), COALESCE((SELECT MAX(id) FROM products), 1))`); err != nil {
		return errors.Join(ErrSeedFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Join(ErrSeedFailed, err)
	}
	return nil
}

// Health pings the database and reports connection pool statistics.
func Health(ctx context.Context, db *sqlx.DB) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}
