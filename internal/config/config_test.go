package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaultsAndFileValues(t *testing.T) {
	path := writeConfig(t, `
[storage]
driver = "memory"

[booking]
offer_window_minutes = 15

[[establishments]]
id = 1
name = "Bistro"
timezone = "Europe/Paris"
manager_ids = [10, 11]

[[establishments.slots]]
starts_at = 2026-11-01T19:00:00Z
ends_at = 2026-11-01T21:00:00Z
capacity = 20
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Booking.OfferWindow())
	assert.Equal(t, 48*time.Hour, cfg.Booking.DisputeResponseWindow())
	assert.Equal(t, time.Minute, cfg.Booking.SweepInterval())
	assert.Equal(t, 365*24*time.Hour, cfg.Trust.Window())
	assert.Equal(t, 50, cfg.Trust.SuspensionThreshold)
	require.Len(t, cfg.Establishments, 1)
	assert.Equal(t, []int64{10, 11}, cfg.Establishments[0].ManagerIDs)
	require.Len(t, cfg.Establishments[0].Slots, 1)
	assert.Equal(t, 20, cfg.Establishments[0].Slots[0].Capacity)
	assert.Equal(t, time.Date(2026, 11, 1, 19, 0, 0, 0, time.UTC), cfg.Establishments[0].Slots[0].StartsAt.UTC())
}

func TestLoad_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	path := writeConfig(t, `
[storage]
driver = "postgres"

[database]
host = "db"
dbname = "reservations"
password = "from-file"

[auth]
jwt_secret = "from-file"

[establishment_service]
url = "http://establishments:8080"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Contains(t, cfg.Database.DSN(), "dbname=reservations")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Driver = "mongo" }},
		{name: "redis lock without addr", mutate: func(c *Config) { c.Lock.Driver = "redis" }},
		{name: "zero offer window", mutate: func(c *Config) { c.Booking.OfferWindowMinutes = 0 }},
		{name: "negative sweep", mutate: func(c *Config) { c.Booking.SweepIntervalSeconds = -1 }},
		{name: "threshold above 100", mutate: func(c *Config) { c.Trust.SuspensionThreshold = 120 }},
		{name: "postgres without service url", mutate: func(c *Config) {
			c.Storage.Driver = "postgres"
			c.Database.DBName = "db"
		}},
		{name: "bad rate limit", mutate: func(c *Config) { c.RateLimit.Burst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Storage.Driver = "memory"
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	valid := Default()
	valid.Storage.Driver = "memory"
	assert.NoError(t, valid.Validate())
}
