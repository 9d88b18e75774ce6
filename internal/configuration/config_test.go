package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"auctionhouse/internal/logger"
)

func TestDefaults(t *testing.T) {
	c, err := Decode(`auth_secret_key = "s3cret"`)
	assert.NoError(t, err)

	check.Equal(t, "localhost:8888", c.ServerAddress)
	check.Equal(t, "mongodb://localhost:27017", c.DatabaseURI)
	check.Equal(t, "auctionhouse_db", c.DatabaseName)
	check.Equal(t, "", c.RedisAddress)
	check.Equal(t, logger.LevelInfo, c.LogLevel)
	check.Equal(t, "200.00", c.MinIncrement.String())
	check.Equal(t, "0.01", c.IncrementRate.String())
	check.Equal(t, 10*time.Second, c.LockTTL)
	check.Equal(t, 3, c.TxMaxAttempts)
	check.Equal(t, "usd", c.PaymentCurrency)
	check.NotNil(t, c.AuthSecretKey)
}

func TestGetConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	assert.NoError(t, os.WriteFile(path, []byte(`
server_address = ":9000"
database_name = "auctions"
redis_address = "localhost:6379"
nats_url = "nats://localhost:4222"
log_level = "debug"
log_to_file = true
auth_secret_key = "s3cret"
min_increment = "50"
increment_rate = "0.05"
lock_ttl = "30s"
tx_max_attempts = 5
payment_api_url = "https://api.stripe.com"
payment_api_key = "sk_test"
`), 0o600))

	c, err := GetConfig(path)
	assert.NoError(t, err)
	check.Equal(t, ":9000", c.ServerAddress)
	check.Equal(t, "auctions", c.DatabaseName)
	check.Equal(t, "localhost:6379", c.RedisAddress)
	check.Equal(t, "nats://localhost:4222", c.NatsURL)
	check.Equal(t, logger.LevelDebug, c.LogLevel)
	check.True(t, c.LogToFile)
	check.Equal(t, "50.00", c.MinIncrement.String())
	check.Equal(t, "0.05", c.IncrementRate.String())
	check.Equal(t, 30*time.Second, c.LockTTL)
	check.Equal(t, 5, c.TxMaxAttempts)
	check.Equal(t, "sk_test", c.PaymentAPIKey)

	_, err = GetConfig(filepath.Join(t.TempDir(), "missing.toml"))
	check.Error(t, err)
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"no secret", ``},
		{"bad level", "auth_secret_key = \"k\"\nlog_level = \"loud\""},
		{"zero increment", "auth_secret_key = \"k\"\nmin_increment = \"0\""},
		{"sub-cent increment", "auth_secret_key = \"k\"\nmin_increment = \"0.001\""},
		{"rate above one", "auth_secret_key = \"k\"\nincrement_rate = \"1.5\""},
		{"bad ttl", "auth_secret_key = \"k\"\nlock_ttl = \"soon\""},
		{"short ttl", "auth_secret_key = \"k\"\nlock_ttl = \"10ms\""},
		{"negative attempts", "auth_secret_key = \"k\"\ntx_max_attempts = -1"},
		{"payment without key", "auth_secret_key = \"k\"\npayment_api_url = \"https://pay\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.toml)
			check.Error(t, err)
		})
	}
}
