package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	MySQL   MySQLConfig
	PayHero PayHeroConfig
	Poller  PollerConfig
	FX      FXConfig
	Lock    LockConfig
}

type ServerConfig struct {
	Port string
	Host string
	// PublicBaseURL is where the provider can reach this service; the callback
	// URL sent with every initiation is derived from it.
	PublicBaseURL string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
	CacheTTL time.Duration
}

type MySQLConfig struct {
	Host     string
	User     string
	Password string
	Database string

	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the go-sql-driver DSN shared by gorm and the seed script.
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Database)
}

type PayHeroConfig struct {
	BaseURL   string
	Username  string
	Password  string
	ChannelID int
	Provider  string
	Timeout   time.Duration
}

type PollerConfig struct {
	Interval    time.Duration
	GracePeriod time.Duration
	MaxAge      time.Duration
	BatchSize   int
}

type FXConfig struct {
	// USDToKESRate is a fixed rate until a live rate feed is wired in.
	USDToKESRate float64
}

type LockConfig struct {
	// Backend is "redis" (default) or "memory". Memory locks only hold
	// within one process and suit a single api+worker host.
	Backend string
	TTL     time.Duration
	Wait    time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8072"),
			Host:          getEnv("SERVER_HOST", "0.0.0.0"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8072"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 100),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", 24*time.Hour),
		},
		MySQL: MySQLConfig{
			Host:     getEnv("MYSQL_HOST", "localhost:3306"),
			User:     getEnv("MYSQL_USER", "payments"),
			Password: getEnv("MYSQL_PASSWORD", "payments123"),
			Database: getEnv("MYSQL_DATABASE", "mobile_money"),

			MaxOpenConns: getEnvAsInt("MYSQL_MAX_OPEN_CONNS", 100),
			MaxIdleConns: getEnvAsInt("MYSQL_MAX_IDLE_CONNS", 10),
		},
		PayHero: PayHeroConfig{
			BaseURL:   getEnv("PAYHERO_BASE_URL", "https://backend.payhero.co.ke/api/v2"),
			Username:  getEnv("PAYHERO_USERNAME", ""),
			Password:  getEnv("PAYHERO_PASSWORD", ""),
			ChannelID: getEnvAsInt("PAYHERO_CHANNEL_ID", 0),
			Provider:  getEnv("PAYHERO_PROVIDER", "m-pesa"),
			Timeout:   getEnvAsDuration("PAYHERO_TIMEOUT", 20*time.Second),
		},
		Poller: PollerConfig{
			Interval:    getEnvAsDuration("POLLER_INTERVAL", 30*time.Second),
			GracePeriod: getEnvAsDuration("POLLER_GRACE_PERIOD", 60*time.Second),
			MaxAge:      getEnvAsDuration("POLLER_MAX_AGE", 24*time.Hour),
			BatchSize:   getEnvAsInt("POLLER_BATCH_SIZE", 50),
		},
		FX: FXConfig{
			USDToKESRate: getEnvAsFloat("FX_USD_KES_RATE", 129),
		},
		Lock: LockConfig{
			Backend: getEnv("LOCK_BACKEND", "redis"),
			TTL:     getEnvAsDuration("LOCK_TTL", 30*time.Second),
			Wait:    getEnvAsDuration("LOCK_WAIT", 10*time.Second),
		},
	}
}

// CallbackURL is the endpoint the provider posts payment outcomes to.
func (c *Config) CallbackURL() string {
	return c.Server.PublicBaseURL + "/api/v1/callbacks/payhero"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseEnv falls back to def when key is unset or does not parse.
func parseEnv[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func getEnvAsInt(key string, def int) int {
	return parseEnv(key, def, strconv.Atoi)
}

func getEnvAsFloat(key string, def float64) float64 {
	return parseEnv(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	return parseEnv(key, def, time.ParseDuration)
}
