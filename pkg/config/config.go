package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Selection retention policies applied when a candidate leaves a pool.
const (
	SelectionRetentionCascade = "cascade"
	SelectionRetentionRetain  = "retain"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Pools    PoolsConfig
	Stats    StatsConfig
	Events   EventsConfig
	Sweep    GrantSweepConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the parameters used to validate externally issued access tokens.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PoolsConfig tunes allocation behaviour.
type PoolsConfig struct {
	NearCapacityRatio  float64
	MaxBatchSize       int
	SelectionRetention string
}

// StatsConfig governs the stats aggregator and its optional response cache.
type StatsConfig struct {
	TopSkills    int
	CacheEnabled bool
	CacheTTL     time.Duration
}

// EventsConfig configures the domain event publisher.
type EventsConfig struct {
	Enabled        bool
	Brokers        []string
	Topic          string
	WriteTimeout   time.Duration
	BreakerTimeout time.Duration
	// Events are handed to a bounded in-memory queue; emits beyond BufferSize are dropped.
	Workers    int
	BufferSize int
}

// GrantSweepConfig controls the background removal of long-expired grants.
type GrantSweepConfig struct {
	Enabled  bool
	Interval time.Duration
	Grace    time.Duration
	Retries  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	ratio := v.GetFloat64("POOLS_NEAR_CAPACITY_RATIO")
	if ratio <= 0 || ratio > 1 {
		ratio = 0.8
	}
	retention := strings.ToLower(v.GetString("SELECTION_RETENTION"))
	if retention != SelectionRetentionRetain {
		retention = SelectionRetentionCascade
	}
	cfg.Pools = PoolsConfig{
		NearCapacityRatio:  ratio,
		MaxBatchSize:       v.GetInt("POOLS_MAX_BATCH_SIZE"),
		SelectionRetention: retention,
	}

	cfg.Stats = StatsConfig{
		TopSkills:    v.GetInt("STATS_TOP_SKILLS"),
		CacheEnabled: v.GetBool("ENABLE_STATS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("STATS_CACHE_TTL"), 30*time.Second),
	}

	cfg.Events = EventsConfig{
		Enabled:        v.GetBool("ENABLE_EVENTS"),
		Brokers:        splitAndTrim(v.GetString("EVENTS_BROKERS")),
		Topic:          v.GetString("EVENTS_TOPIC"),
		WriteTimeout:   parseDuration(v.GetString("EVENTS_WRITE_TIMEOUT"), 5*time.Second),
		BreakerTimeout: parseDuration(v.GetString("EVENTS_BREAKER_TIMEOUT"), 30*time.Second),
		Workers:        v.GetInt("EVENTS_WORKERS"),
		BufferSize:     v.GetInt("EVENTS_BUFFER_SIZE"),
	}

	cfg.Sweep = GrantSweepConfig{
		Enabled:  v.GetBool("ENABLE_GRANT_SWEEP"),
		Interval: parseDuration(v.GetString("GRANT_SWEEP_INTERVAL"), time.Hour),
		Grace:    parseDuration(v.GetString("GRANT_SWEEP_GRACE"), 30*24*time.Hour),
		Retries:  v.GetInt("GRANT_SWEEP_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "talent_pool")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("POOLS_NEAR_CAPACITY_RATIO", 0.8)
	v.SetDefault("POOLS_MAX_BATCH_SIZE", 500)
	v.SetDefault("SELECTION_RETENTION", SelectionRetentionCascade)

	v.SetDefault("STATS_TOP_SKILLS", 10)
	v.SetDefault("ENABLE_STATS_CACHE", false)
	v.SetDefault("STATS_CACHE_TTL", "30s")

	v.SetDefault("ENABLE_EVENTS", false)
	v.SetDefault("EVENTS_BROKERS", "localhost:9092")
	v.SetDefault("EVENTS_TOPIC", "talent-pool.events")
	v.SetDefault("EVENTS_WRITE_TIMEOUT", "5s")
	v.SetDefault("EVENTS_BREAKER_TIMEOUT", "30s")
	v.SetDefault("EVENTS_WORKERS", 2)
	v.SetDefault("EVENTS_BUFFER_SIZE", 1024)

	v.SetDefault("ENABLE_GRANT_SWEEP", false)
	v.SetDefault("GRANT_SWEEP_INTERVAL", "1h")
	v.SetDefault("GRANT_SWEEP_GRACE", "720h")
	v.SetDefault("GRANT_SWEEP_RETRIES", 3)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
