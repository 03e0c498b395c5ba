package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "YOYPULSE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv         = "YOYPULSE_APP_ENV"
	EnvPort           = "YOYPULSE_APP_PORT"
	EnvLogLevel       = "YOYPULSE_LOG_LEVEL"
	EnvGCPProjectID   = "YOYPULSE_GCP_PROJECT_ID"
	EnvBigQuerySet    = "YOYPULSE_BIGQUERY_DATASET"
	EnvSourceSample   = "YOYPULSE_SOURCE_SAMPLE_SIZE"
	EnvSourceSeed     = "YOYPULSE_SOURCE_SEED"
	EnvSourceFallback = "YOYPULSE_SOURCE_FALLBACK"
	EnvLiveInterval   = "YOYPULSE_LIVE_INTERVAL"
	EnvRedisURL       = "YOYPULSE_REDIS_URL"
	EnvDBDriver       = "YOYPULSE_DB_DRIVER"
	EnvDBDSN          = "YOYPULSE_DB_DSN"
	EnvAIBaseURL      = "YOYPULSE_AI_BASE_URL"
	EnvChartsTheme    = "YOYPULSE_CHARTS_THEME"
)

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)

type Config struct {
	App      AppConfig
	Source   SourceConfig
	GCP      GCPConfig
	BigQuery BigQueryConfig
	Live     LiveConfig
	Redis    RedisConfig
	DB       DBConfig
	AI       AIConfig
	Charts   ChartsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// HasWarehouse reports whether the column-store backend is configured.
func (c *Config) HasWarehouse() bool {
	return strings.TrimSpace(c.GCP.ProjectID) != "" && strings.TrimSpace(c.BigQuery.Dataset) != ""
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
	case DBDriverSQLite, DBDriverPostgres:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvDBDriver, DBDriverSQLite, DBDriverPostgres, c.DB.Driver)
	}
	if c.Source.SampleSize <= 0 {
		return fmt.Errorf("%s must be positive", EnvSourceSample)
	}
	if c.Live.Interval <= 0 {
		return fmt.Errorf("%s must be positive", EnvLiveInterval)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"YOYPULSE_APP_ENV" default:"dev"`
	Port         string `envconfig:"YOYPULSE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"YOYPULSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"YOYPULSE_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list for browser clients.
	CORSOrigins []string `envconfig:"YOYPULSE_APP_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// SourceConfig drives sources.New. Generator knobs only apply to the synthetic backend.
type SourceConfig struct {
	SampleSize int    `envconfig:"YOYPULSE_SOURCE_SAMPLE_SIZE" default:"500"`
	Seed       uint64 `envconfig:"YOYPULSE_SOURCE_SEED" default:"42"`
	// Fallback substitutes synthetic data when the warehouse fails.
	Fallback bool `envconfig:"YOYPULSE_SOURCE_FALLBACK" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"YOYPULSE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"YOYPULSE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"YOYPULSE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type BigQueryConfig struct {
	Dataset      string        `envconfig:"YOYPULSE_BIGQUERY_DATASET"`
	SalesTable   string        `envconfig:"YOYPULSE_BIGQUERY_SALES_TABLE" default:"customer_weekly_sales"`
	QueryTimeout time.Duration `envconfig:"YOYPULSE_BIGQUERY_QUERY_TIMEOUT" default:"30s"`
	Location     string        `envconfig:"YOYPULSE_BIGQUERY_LOCATION"`
	// MaxBytesBilled caps each query; 0 leaves the project default.
	MaxBytesBilled int64 `envconfig:"YOYPULSE_BIGQUERY_MAX_BYTES_BILLED" default:"0"`
}

type LiveConfig struct {
	Interval    time.Duration `envconfig:"YOYPULSE_LIVE_INTERVAL" default:"1500ms"`
	HistorySize int           `envconfig:"YOYPULSE_LIVE_HISTORY_SIZE" default:"200"`
	PrimeSize   int           `envconfig:"YOYPULSE_LIVE_PRIME_SIZE" default:"24"`
	// Jitter perturbs synthetic-mode samples so the panel moves.
	Jitter  bool          `envconfig:"YOYPULSE_LIVE_JITTER" default:"true"`
	LockKey string        `envconfig:"YOYPULSE_LIVE_LOCK_KEY" default:"live_refresh"`
	LockTTL time.Duration `envconfig:"YOYPULSE_LIVE_LOCK_TTL" default:"10s"`
	// BoardKey holds the lock holder's board in redis for the other replicas.
	BoardKey string        `envconfig:"YOYPULSE_LIVE_BOARD_KEY" default:"live_board"`
	BoardTTL time.Duration `envconfig:"YOYPULSE_LIVE_BOARD_TTL" default:"30s"`
}

// RedisConfig is optional; an empty URL and address disables redis.
type RedisConfig struct {
	URL          string        `envconfig:"YOYPULSE_REDIS_URL"`
	Address      string        `envconfig:"YOYPULSE_REDIS_ADDR"`
	Password     string        `envconfig:"YOYPULSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"YOYPULSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"YOYPULSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"YOYPULSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"YOYPULSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"YOYPULSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"YOYPULSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type DBConfig struct {
	Driver      string `envconfig:"YOYPULSE_DB_DRIVER" default:"sqlite"`
	DSN         string `envconfig:"YOYPULSE_DB_DSN" default:"yoypulse.db"`
	AutoMigrate bool   `envconfig:"YOYPULSE_DB_AUTO_MIGRATE" default:"true"`

	MaxOpenConns    int           `envconfig:"YOYPULSE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"YOYPULSE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"YOYPULSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"YOYPULSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"YOYPULSE_DB_SLOW_QUERY" default:"200ms"`
}

// AIConfig targets any OpenAI-compatible chat completions endpoint.
type AIConfig struct {
	BaseURL    string        `envconfig:"YOYPULSE_AI_BASE_URL" default:"http://localhost:8080/v1"`
	Model      string        `envconfig:"YOYPULSE_AI_MODEL" default:"Meta-Llama-3-8B-Instruct-Q5_K_M"`
	APIKey     string        `envconfig:"YOYPULSE_AI_API_KEY" default:"sk-local"`
	Timeout    time.Duration `envconfig:"YOYPULSE_AI_TIMEOUT" default:"120s"`
	MaxTokens  int           `envconfig:"YOYPULSE_AI_MAX_TOKENS" default:"200"`
	RateLimit  int           `envconfig:"YOYPULSE_AI_RATE_LIMIT" default:"10"`
	RateWindow time.Duration `envconfig:"YOYPULSE_AI_RATE_WINDOW" default:"1m"`
}

type ChartsConfig struct {
	Theme      string `envconfig:"YOYPULSE_CHARTS_THEME" default:"dark"`
	AssetsHost string `envconfig:"YOYPULSE_CHARTS_ASSETS_HOST" default:"https://go-echarts.github.io/go-echarts-assets/assets/"`
}
