package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"

	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"

	// IssuePolicySession only mints a token for a first-time enrollment or for
	// the holder of a valid session for the same email.
	IssuePolicySession = "session"
	// IssuePolicyOpen mints a token on every profile save.
	IssuePolicyOpen = "open"
)

type Config struct {
	Env  string
	Port int

	StoreDriver string
	DBURL       string
	DBMaxConns  int32
	MongoURI    string
	MongoDB     string

	JWTSecret   string
	TokenTTL    time.Duration
	IssuePolicy string

	AdminEmail  string
	CatalogFile string

	CacheDriver   string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64

	OTelEnabled  bool
	OTelEndpoint string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	// a missing .env is fine, real deployments inject env vars
	_ = godotenv.Load()

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("PORT", 5000)

	v.SetDefault("STORE_DRIVER", StorePostgres)
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "doctorportal")
	v.SetDefault("DB_PASSWORD", "doctorportal")
	v.SetDefault("DB_NAME", "doctorportal")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 5)
	v.SetDefault("MONGO_URI", "mongodb://127.0.0.1:27017")
	v.SetDefault("MONGO_DB", "doctor-portal")

	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("ISSUE_POLICY", IssuePolicySession)

	v.SetDefault("CACHE_DRIVER", CacheMemory)
	v.SetDefault("CACHE_TTL", "30s")
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("MAX_BODY_BYTES", 1<<20)

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_ENDPOINT", "localhost:4317")

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "no-reply@doctorportal.local")

	return v
}

// FromViper builds and validates a Config. Split out of Load so tests can
// drive it with an isolated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:  v.GetString("APP_ENV"),
		Port: v.GetInt("PORT"),

		StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
		DBURL:       buildDBURL(v),
		DBMaxConns:  v.GetInt32("DB_MAX_CONNS"),
		MongoURI:    v.GetString("MONGO_URI"),
		MongoDB:     v.GetString("MONGO_DB"),

		JWTSecret:   v.GetString("JWT_SECRET"),
		TokenTTL:    v.GetDuration("TOKEN_TTL"),
		IssuePolicy: strings.ToLower(v.GetString("ISSUE_POLICY")),

		AdminEmail:  strings.TrimSpace(v.GetString("ADMIN_EMAIL")),
		CatalogFile: v.GetString("CATALOG_FILE"),

		CacheDriver:   strings.ToLower(v.GetString("CACHE_DRIVER")),
		CacheTTL:      v.GetDuration("CACHE_TTL"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
		MaxBodyBytes:   v.GetInt64("MAX_BODY_BYTES"),

		OTelEnabled:  v.GetBool("OTEL_ENABLED"),
		OTelEndpoint: v.GetString("OTEL_ENDPOINT"),

		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUser:     v.GetString("SMTP_USER"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		SMTPFrom:     v.GetString("SMTP_FROM"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StorePostgres, StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.CacheDriver {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("unknown CACHE_DRIVER %q", c.CacheDriver)
	}

	switch c.IssuePolicy {
	case IssuePolicySession, IssuePolicyOpen:
	default:
		return fmt.Errorf("unknown ISSUE_POLICY %q", c.IssuePolicy)
	}

	if c.JWTSecret == "" {
		if !c.IsDev() {
			return errors.New("JWT_SECRET is required outside dev")
		}
		c.JWTSecret = "dev-only-insecure-secret"
	}

	if c.TokenTTL <= 0 {
		c.TokenTTL = 24 * time.Hour
	}

	return nil
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func buildDBURL(v *viper.Viper) string {
	if url := v.GetString("DATABASE_URL"); url != "" {
		return url
	}

	host := v.GetString("DB_HOST")
	port := v.GetString("DB_PORT")
	user := v.GetString("DB_USER")
	pass := v.GetString("DB_PASSWORD")
	name := v.GetString("DB_NAME")
	ssl := v.GetString("DB_SSLMODE")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
