package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Mailer       MailerConfig
	Onboarding   OnboardingConfig
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
	Env          string `envconfig:"SOUQLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"SOUQLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SOUQLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOUQLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SOUQLINE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SOUQLINE_DB_DSN"`
	Driver string `envconfig:"SOUQLINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SOUQLINE_DB_HOST"`
	LegacyPort     int    `envconfig:"SOUQLINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SOUQLINE_DB_USER"`
	LegacyPassword string `envconfig:"SOUQLINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SOUQLINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SOUQLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOUQLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOUQLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOUQLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOUQLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOUQLINE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SOUQLINE_REDIS_ADDR"`
	Password     string        `envconfig:"SOUQLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOUQLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOUQLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOUQLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOUQLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOUQLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOUQLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SOUQLINE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SOUQLINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SOUQLINE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SOUQLINE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SOUQLINE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SOUQLINE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SOUQLINE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SOUQLINE_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	SubmitWindow     time.Duration `envconfig:"SOUQLINE_RATE_LIMIT_SUBMIT_WINDOW" default:"5m"`
	SubmitEmailLimit int           `envconfig:"SOUQLINE_RATE_LIMIT_SUBMIT_EMAIL_LIMIT" default:"3"`
	SubmitIPLimit    int           `envconfig:"SOUQLINE_RATE_LIMIT_SUBMIT_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SOUQLINE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SOUQLINE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SOUQLINE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SOUQLINE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OnboardingTopic        string `envconfig:"SOUQLINE_PUBSUB_ONBOARDING_TOPIC" default:"sq-onboarding-events"`
	OnboardingSubscription string `envconfig:"SOUQLINE_PUBSUB_ONBOARDING_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SOUQLINE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SOUQLINE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SOUQLINE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type MailerConfig struct {
	APIBaseURL  string `envconfig:"SOUQLINE_MAILER_API_BASE_URL" default:"https://api.sendgrid.com"`
	APIKey      string `envconfig:"SOUQLINE_MAILER_API_KEY"`
	DefaultFrom string `envconfig:"SOUQLINE_MAILER_FROM_EMAIL" default:"onboarding@souqline.com"`
}

type OnboardingConfig struct {
	LicenseValidity      time.Duration `envconfig:"SOUQLINE_ONBOARDING_LICENSE_VALIDITY" default:"8760h"`
	LicenseExpiryWarning time.Duration `envconfig:"SOUQLINE_ONBOARDING_LICENSE_EXPIRY_WARNING" default:"336h"`
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
