package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PROFITLENS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PROFITLENS_DB_DSN"
	EnvDBHost = "PROFITLENS_DB_HOST"
	EnvDBUser = "PROFITLENS_DB_USER"
	EnvDBName = "PROFITLENS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Uploads      UploadsConfig
	Reports      ReportsConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"PROFITLENS_APP_ENV" required:"true"`
	Port         string   `envconfig:"PROFITLENS_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"PROFITLENS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"PROFITLENS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"PROFITLENS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"PROFITLENS_DB_DSN"`

	LegacyHost     string `envconfig:"PROFITLENS_DB_HOST"`
	LegacyPort     int    `envconfig:"PROFITLENS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROFITLENS_DB_USER"`
	LegacyPassword string `envconfig:"PROFITLENS_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROFITLENS_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROFITLENS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROFITLENS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"PROFITLENS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"PROFITLENS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROFITLENS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AcquireRetries int           `envconfig:"PROFITLENS_DB_ACQUIRE_RETRIES" default:"3"`
	AcquireBackoff time.Duration `envconfig:"PROFITLENS_DB_ACQUIRE_BACKOFF" default:"1s"`
}

type RedisConfig struct {
	URL      string `envconfig:"PROFITLENS_REDIS_URL"`
	Address  string `envconfig:"PROFITLENS_REDIS_ADDR"`
	Password string `envconfig:"PROFITLENS_REDIS_PASSWORD"`
	DB       int    `envconfig:"PROFITLENS_REDIS_DB" default:"0"`
	PoolSize int    `envconfig:"PROFITLENS_REDIS_POOL_SIZE" default:"10"`
}

// Enabled reports whether a redis endpoint was configured at all. The report
// cache is optional and the API runs uncached without one.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type UploadsConfig struct {
	MaxFileBytes int64 `envconfig:"PROFITLENS_UPLOAD_MAX_BYTES" default:"26214400"`
	BatchSize    int   `envconfig:"PROFITLENS_UPLOAD_BATCH_SIZE" default:"1000"`
}

type ReportsConfig struct {
	CacheTTL time.Duration `envconfig:"PROFITLENS_REPORT_CACHE_TTL" default:"2m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PROFITLENS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
