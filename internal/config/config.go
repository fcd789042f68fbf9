// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds everything both binaries read from the environment.
type Config struct {
	Env      string
	Port     string
	LogLevel logrus.Level

	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	RedisAddr string
	RedisDB   int

	QueueName     string
	BatchSize     int
	FlushInterval time.Duration

	// TokenTTL of 0 means seat tokens never expire.
	TokenTTL       time.Duration
	AllowedOrigins []string
}

// Production reports whether DURAK_ENV is "production".
func (c Config) Production() bool {
	return c.Env == "production"
}

// RedisEnabled reports whether a Redis address was configured.
func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// Load reads the process environment. Values that fail to parse fall back to their defaults.
func Load() (Config, error) {
	cfg := Config{
		Env:           getEnv("DURAK_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		DatabaseURL:   databaseURL(),
		SQLitePath:    getEnv("SQLITE_PATH", "durak_local.db"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		QueueName:     getEnv("HISTORIAN_QUEUE_NAME", "durak_actions"),
		BatchSize:     getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		FlushInterval: time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "debug"))
	if err != nil {
		level = logrus.DebugLevel
	}
	cfg.LogLevel = level

	switch cfg.StoreDriver {
	case StoreMemory, StorePostgres, StoreSQLite:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.TokenTTL, err = parseTokenExpireTime(os.Getenv("TOKEN_EXPIRE_TIME")); err != nil {
		return Config{}, err
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	return cfg, nil
}

// CORSOrigins returns the configured origins in production and any http(s) origin otherwise.
func (c Config) CORSOrigins() []string {
	if c.Production() {
		return c.AllowedOrigins
	}
	return []string{"https://*", "http://*"}
}

// databaseURL prefers DATABASE_URL and otherwise assembles one from the POSTGRES_* / PG_* variables.
func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(getEnv("POSTGRES_USER", "postgres"), os.Getenv("POSTGRES_PASSWORD")),
		Host:   getEnv("PG_HOST", "localhost") + ":" + getEnv("PG_PORT", "5432"),
		Path:   "/" + getEnv("PG_DATABASE", "durak"),
	}
	return u.String()
}

// parseTokenExpireTime accepts "", "never" or a Go duration.
func parseTokenExpireTime(v string) (time.Duration, error) {
	if v == "" || v == "never" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid TOKEN_EXPIRE_TIME %q: %w", v, err)
	}
	return d, nil
}

func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
