package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the envconfig namespace shared by every MediPOS binary.
const EnvPrefix = "medipos"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"MEDIPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"MEDIPOS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MEDIPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEDIPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"MEDIPOS_DB_DSN"`

	Host     string `envconfig:"MEDIPOS_DB_HOST"`
	Port     int    `envconfig:"MEDIPOS_DB_PORT" default:"5432"`
	User     string `envconfig:"MEDIPOS_DB_USER"`
	Password string `envconfig:"MEDIPOS_DB_PASSWORD"`
	Name     string `envconfig:"MEDIPOS_DB_NAME"`
	SSLMode  string `envconfig:"MEDIPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEDIPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEDIPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEDIPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEDIPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a postgres DSN from the discrete fields when one was not
// provided directly.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either MEDIPOS_DB_DSN or host/user/name settings are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"MEDIPOS_REDIS_URL"`
	Address      string        `envconfig:"MEDIPOS_REDIS_ADDR"`
	Password     string        `envconfig:"MEDIPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEDIPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEDIPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEDIPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEDIPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEDIPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEDIPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MEDIPOS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MEDIPOS_JWT_ISSUER" default:"medipos"`
	ExpirationMinutes      int    `envconfig:"MEDIPOS_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"MEDIPOS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MEDIPOS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MEDIPOS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MEDIPOS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MEDIPOS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MEDIPOS_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MEDIPOS_FEATURE_AUTO_MIGRATE" default:"false"`
}

type PubSubConfig struct {
	ProjectID      string `envconfig:"MEDIPOS_PUBSUB_PROJECT_ID"`
	SaleTopic      string `envconfig:"MEDIPOS_PUBSUB_SALE_TOPIC" default:"medipos-sales"`
	EmulatorTarget string `envconfig:"MEDIPOS_PUBSUB_EMULATOR" default:""`
}

type OutboxConfig struct {
	BatchSize    int           `envconfig:"MEDIPOS_OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"MEDIPOS_OUTBOX_POLL_INTERVAL" default:"5s"`
}
