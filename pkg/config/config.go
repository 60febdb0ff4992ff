package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	Env         string
	Port        string
	DBDriver    string
	DatabaseURL string
	AutoMigrate bool

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	RedisAddr          string
	RedisSentinelAddrs []string
	RedisMasterName    string
	RedisDB            int

	CORSOrigins []string
	LogLevel    string

	TrimWorkers   int
	TrimQueueSize int

	EnableTracing  bool
	CollectorAddr  string
	GRPCHealthPort string
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup. Every missing or malformed required
// value is reported in the returned error.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(k string) string {
		v, _ := lookup(k)
		return strings.TrimSpace(v)
	}
	var missing []string
	require := func(k string) string {
		v := get(k)
		if v == "" {
			missing = append(missing, k)
		}
		return v
	}

	cfg := &Config{
		Env:             require("APP_ENV"),
		Port:            require("PORT"),
		JWTSecret:       require("JWT_SECRET"),
		DBDriver:        strings.ToLower(getDefault(get, "DB_DRIVER", "mysql")),
		RedisAddr:       get("REDIS_ADDR"),
		RedisMasterName: getDefault(get, "REDIS_MASTER_NAME", "mymaster"),
		LogLevel:        getDefault(get, "LOG_LEVEL", "info"),
		CollectorAddr:   get("COLLECTOR_SERVICE_ADDR"),
		GRPCHealthPort:  get("GRPC_HEALTH_PORT"),
		EnableTracing:   get("ENABLE_TRACING") == "1",
		CORSOrigins:     splitList(getDefault(get, "CORS_ORIGINS", "http://localhost:3000")),
	}
	cfg.RedisSentinelAddrs = splitList(get("REDIS_SENTINEL_ADDRS"))

	// development may point at its own database
	if cfg.Env == EnvDevelopment && get("DEVELOPMENT_DATABASE_URL") != "" {
		cfg.DatabaseURL = get("DEVELOPMENT_DATABASE_URL")
	} else {
		cfg.DatabaseURL = require("DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	switch cfg.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return nil, fmt.Errorf("APP_ENV must be one of development, production, test (got %q)", cfg.Env)
	}
	switch cfg.DBDriver {
	case "mysql", "postgres":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be mysql or postgres (got %q)", cfg.DBDriver)
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, errors.Wrapf(err, "PORT %q is not a number", cfg.Port)
	}
	if cfg.EnableTracing && cfg.CollectorAddr == "" {
		return nil, errors.New("ENABLE_TRACING=1 requires COLLECTOR_SERVICE_ADDR")
	}

	var err error
	if cfg.AutoMigrate, err = parseBool(get, "AUTO_MIGRATE", true); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = parseDuration(get, "TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = parseInt(get, "BCRYPT_COST", 10); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = parseInt(get, "REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.TrimWorkers, err = parseInt(get, "TRIM_WORKERS", 2); err != nil {
		return nil, err
	}
	if cfg.TrimQueueSize, err = parseInt(get, "TRIM_QUEUE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.TrimWorkers < 1 || cfg.TrimQueueSize < 1 {
		return nil, errors.New("TRIM_WORKERS and TRIM_QUEUE_SIZE must be positive")
	}

	return cfg, nil
}

func getDefault(get func(string) string, k, def string) string {
	if v := get(k); v != "" {
		return v
	}
	return def
}

func parseInt(get func(string) string, k string, def int) (int, error) {
	v := get(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", k)
	}
	return n, nil
}

func parseBool(get func(string) string, k string, def bool) (bool, error) {
	v := get(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(err, "invalid %s", k)
	}
	return b, nil
}

func parseDuration(get func(string) string, k string, def time.Duration) (time.Duration, error) {
	v := get(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", k)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimRight(strings.TrimSpace(p), "/"); p != "" {
			out = append(out, p)
		}
	}
	return out
}
