package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-slot-machine/internal/config"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func Test_LoadFrom_Defaults(t *testing.T) {
	cfg, err := config.LoadFrom(lookupFrom(map[string]string{}))

	require.NoError(t, err)
	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, config.DriverPGX, cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Machine.CoinsPerDenomination)
	assert.Equal(t, time.Minute, cfg.Worker.StaleOrderAge)
	assert.Equal(t, time.Second, cfg.Worker.Interval)
	assert.Equal(t, "info", cfg.LogLevel)
}

func Test_LoadFrom_Postgres(t *testing.T) {
	cfg, err := config.LoadFrom(lookupFrom(map[string]string{
		"COFFEE_STORE":                        "postgres",
		"COFFEE_DB_DRIVER":                    "postgres",
		"COFFEE_DB_HOST":                      "db",
		"COFFEE_DB_PORT":                      "6543",
		"COFFEE_DB_USERNAME":                  "machine",
		"COFFEE_DB_PASSWORD":                  "secret",
		"COFFEE_DB_DATABASE":                  "coffee",
		"COFFEE_DEPOT_COINS_PER_DENOMINATION": "5",
	}))

	require.NoError(t, err)
	assert.Equal(t, config.StorePostgres, cfg.Store)
	assert.Equal(t, config.DriverPQ, cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Machine.CoinsPerDenomination)
	assert.Equal(t, "postgres://machine:secret@db:6543/coffee?sslmode=disable&search_path=public", cfg.Database.DSN())
}

func Test_LoadFrom_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown store", env: map[string]string{"COFFEE_STORE": "redis"}},
		{name: "postgres without database", env: map[string]string{"COFFEE_STORE": "postgres"}},
		{name: "unknown driver", env: map[string]string{"COFFEE_STORE": "postgres", "COFFEE_DB_DATABASE": "coffee", "COFFEE_DB_DRIVER": "mysql"}},
		{name: "negative coin count", env: map[string]string{"COFFEE_DEPOT_COINS_PER_DENOMINATION": "-1"}},
		{name: "bad stale age", env: map[string]string{"COFFEE_STALE_ORDER_AGE": "soon"}},
		{name: "zero worker interval", env: map[string]string{"COFFEE_WORKER_INTERVAL": "0s"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.LoadFrom(lookupFrom(tc.env))

			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}
