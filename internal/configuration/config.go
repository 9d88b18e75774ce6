package configuration

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"auctionhouse/internal/logger"
	"auctionhouse/internal/money"
)

type Config struct {
	ServerAddress   string
	DatabaseURI     string
	DatabaseName    string
	RedisAddress    string
	RedisPassword   string `json:"-"`
	NatsURL         string
	LogLevel        logger.Level
	LogToFile       bool
	AuthSecretKey   jwk.Key `json:"-"`
	MinIncrement    money.Money
	IncrementRate   decimal.Decimal
	LockTTL         time.Duration
	TxMaxAttempts   int
	PaymentAPIURL   string
	PaymentAPIKey   string `json:"-"`
	PaymentCurrency string
	FCMKey          string `json:"-"`
}

type tomlConfig struct {
	ServerAddress   string `toml:"server_address"`
	DatabaseURI     string `toml:"database_uri"`
	DatabaseName    string `toml:"database_name"`
	RedisAddress    string `toml:"redis_address"`
	RedisPassword   string `toml:"redis_password"`
	NatsURL         string `toml:"nats_url"`
	LogLevel        string `toml:"log_level"`
	LogToFile       bool   `toml:"log_to_file"`
	AuthSecretKey   string `toml:"auth_secret_key"`
	MinIncrement    string `toml:"min_increment"`
	IncrementRate   string `toml:"increment_rate"`
	LockTTL         string `toml:"lock_ttl"`
	TxMaxAttempts   int    `toml:"tx_max_attempts"`
	PaymentAPIURL   string `toml:"payment_api_url"`
	PaymentAPIKey   string `toml:"payment_api_key"`
	PaymentCurrency string `toml:"payment_currency"`
	FCMKey          string `toml:"fcm_key"`
}

func GetConfig(path string) (*Config, error) {
	var tc tomlConfig
	_, err := toml.DecodeFile(path, &tc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode toml file with path: %s", path)
	}
	return tc.config()
}

func Decode(data string) (*Config, error) {
	var tc tomlConfig
	if _, err := toml.Decode(data, &tc); err != nil {
		return nil, errors.Wrap(err, "failed to decode toml")
	}
	return tc.config()
}

func (tc tomlConfig) config() (*Config, error) {
	if tc.ServerAddress == "" {
		tc.ServerAddress = "localhost:8888"
	}
	if tc.DatabaseURI == "" {
		tc.DatabaseURI = "mongodb://localhost:27017"
	}
	if tc.DatabaseName == "" {
		tc.DatabaseName = "auctionhouse_db"
	}
	if tc.LogLevel == "" {
		tc.LogLevel = "INFO"
	}
	if tc.MinIncrement == "" {
		tc.MinIncrement = "200.00"
	}
	if tc.IncrementRate == "" {
		tc.IncrementRate = "0.01"
	}
	if tc.LockTTL == "" {
		tc.LockTTL = "10s"
	}
	if tc.TxMaxAttempts == 0 {
		tc.TxMaxAttempts = 3
	}
	if tc.PaymentCurrency == "" {
		tc.PaymentCurrency = "usd"
	}

	logLevel, err := logger.ParseLevel(tc.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse log_level")
	}

	minIncrement, err := money.Parse(tc.MinIncrement)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse min_increment")
	}
	if !minIncrement.IsPositive() {
		return nil, errors.Errorf("min_increment must be positive, got: %s", minIncrement)
	}

	incrementRate, err := decimal.NewFromString(tc.IncrementRate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse increment_rate")
	}
	if incrementRate.IsNegative() || incrementRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, errors.Errorf("increment_rate must be between 0 and 1, got: %s", incrementRate)
	}

	lockTTL, err := time.ParseDuration(tc.LockTTL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse lock_ttl")
	}
	if lockTTL < time.Second {
		return nil, errors.Errorf("lock_ttl too short (%v), minimum: 1s", lockTTL)
	}

	if tc.TxMaxAttempts < 1 {
		return nil, errors.Errorf("tx_max_attempts must be at least 1, got: %d", tc.TxMaxAttempts)
	}

	if tc.AuthSecretKey == "" {
		return nil, errors.New("auth_secret_key is not set")
	}
	authSecretKey, err := jwk.FromRaw([]byte(tc.AuthSecretKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create key from auth_secret_key")
	}

	if tc.PaymentAPIURL != "" && tc.PaymentAPIKey == "" {
		return nil, errors.New("payment_api_key is not set")
	}

	return &Config{
		ServerAddress:   tc.ServerAddress,
		DatabaseURI:     tc.DatabaseURI,
		DatabaseName:    tc.DatabaseName,
		RedisAddress:    tc.RedisAddress,
		RedisPassword:   tc.RedisPassword,
		NatsURL:         tc.NatsURL,
		LogLevel:        logLevel,
		LogToFile:       tc.LogToFile,
		AuthSecretKey:   authSecretKey,
		MinIncrement:    minIncrement,
		IncrementRate:   incrementRate,
		LockTTL:         lockTTL,
		TxMaxAttempts:   tc.TxMaxAttempts,
		PaymentAPIURL:   tc.PaymentAPIURL,
		PaymentAPIKey:   tc.PaymentAPIKey,
		PaymentCurrency: tc.PaymentCurrency,
		FCMKey:          tc.FCMKey,
	}, nil
}
