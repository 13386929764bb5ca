package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	DriverPGX = "pgx"
	DriverPQ  = "postgres"

	defaultStore                = StoreMemory
	defaultDriver               = DriverPGX
	defaultDBHost               = "localhost"
	defaultDBPort               = "5432"
	defaultDBSchema             = "public"
	defaultCoinsPerDenomination = 3
	defaultStaleOrderAge        = time.Minute
	defaultWorkerInterval       = time.Second
	defaultLogLevel             = "info"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config captures all runtime configuration organised by concern.
type Config struct {
	Store    string
	Database DatabaseConfig
	Machine  MachineConfig
	Worker   WorkerConfig
	LogLevel string
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	Schema   string
}

// MachineConfig describes the vending machine's starting state.
type MachineConfig struct {
	CoinsPerDenomination int
}

// WorkerConfig controls the stale order worker.
type WorkerConfig struct {
	StaleOrderAge time.Duration
	Interval      time.Duration
}

// DSN builds the connection string understood by both pgx and lib/pq.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		c.Username, c.Password, c.Host, c.Port, c.Name, c.Schema,
	)
}

// Load reads the configuration from the process environment. A .env file in
// the working directory is loaded first.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads the configuration through lookup.
func LoadFrom(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	var errs []error

	coins, err := strconv.Atoi(get("COFFEE_DEPOT_COINS_PER_DENOMINATION", strconv.Itoa(defaultCoinsPerDenomination)))
	if err != nil || coins < 0 {
		errs = append(errs, errors.New("COFFEE_DEPOT_COINS_PER_DENOMINATION must be a non-negative integer"))
	}

	staleAge, err := time.ParseDuration(get("COFFEE_STALE_ORDER_AGE", defaultStaleOrderAge.String()))
	if err != nil || staleAge <= 0 {
		errs = append(errs, errors.New("COFFEE_STALE_ORDER_AGE must be a positive duration"))
	}

	interval, err := time.ParseDuration(get("COFFEE_WORKER_INTERVAL", defaultWorkerInterval.String()))
	if err != nil || interval <= 0 {
		errs = append(errs, errors.New("COFFEE_WORKER_INTERVAL must be a positive duration"))
	}

	cfg := Config{
		Store: strings.ToLower(get("COFFEE_STORE", defaultStore)),
		Database: DatabaseConfig{
			Driver:   strings.ToLower(get("COFFEE_DB_DRIVER", defaultDriver)),
			Host:     get("COFFEE_DB_HOST", defaultDBHost),
			Port:     get("COFFEE_DB_PORT", defaultDBPort),
			Username: get("COFFEE_DB_USERNAME", ""),
			Password: get("COFFEE_DB_PASSWORD", ""),
			Name:     get("COFFEE_DB_DATABASE", ""),
			Schema:   get("COFFEE_DB_SCHEMA", defaultDBSchema),
		},
		Machine: MachineConfig{CoinsPerDenomination: coins},
		Worker: WorkerConfig{
			StaleOrderAge: staleAge,
			Interval:      interval,
		},
		LogLevel: get("LOG_LEVEL", defaultLogLevel),
	}

	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.Database.Name == "" {
			errs = append(errs, errors.New("COFFEE_DB_DATABASE is required for the postgres store"))
		}
		if cfg.Database.Driver != DriverPGX && cfg.Database.Driver != DriverPQ {
			errs = append(errs, fmt.Errorf("COFFEE_DB_DRIVER must be %q or %q", DriverPGX, DriverPQ))
		}
	default:
		errs = append(errs, fmt.Errorf("COFFEE_STORE must be %q or %q", StoreMemory, StorePostgres))
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}

	return cfg, nil
}
