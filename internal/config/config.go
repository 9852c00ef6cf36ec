package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL,required"`
	JWTSecret   string        `env:"JWT_SECRET,required"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	BcryptCost  int           `env:"BCRYPT_COST" envDefault:"10"`
	Port        int           `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string        `env:"APP_ENV" envDefault:"production"`

	MaxAmount string `env:"MAX_AMOUNT" envDefault:"1000000000"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"ledger.transactions"`

	IdempotencyTTL             time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	IdempotencyCleanupSchedule string        `env:"IDEMPOTENCY_CLEANUP_SCHEDULE" envDefault:"@every 1h"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBConnectAttempts  int `env:"DB_CONNECT_ATTEMPTS" envDefault:"30"`
}

// Load reads an optional .env file and then the process environment. Values
// already present in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if _, err := cfg.MaxAmountDecimal(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) MaxAmountDecimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.MaxAmount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("MAX_AMOUNT: %w", err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("MAX_AMOUNT must not be negative")
	}
	return d, nil
}
