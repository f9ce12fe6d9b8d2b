package config

// EnvPrefix scopes every environment variable read by envconfig.
const EnvPrefix = "SOUQLINE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv     = "SOUQLINE_APP_ENV"
	EnvPort       = "SOUQLINE_APP_PORT"
	EnvDBDSN      = "SOUQLINE_DB_DSN"
	EnvDBHost     = "SOUQLINE_DB_HOST"
	EnvDBUser     = "SOUQLINE_DB_USER"
	EnvDBName     = "SOUQLINE_DB_NAME"
	EnvRedisURL   = "SOUQLINE_REDIS_URL"
	EnvJWTSecret  = "SOUQLINE_JWT_SECRET"
	EnvJWTIssuer  = "SOUQLINE_JWT_ISSUER"
	EnvJWTExpMins = "SOUQLINE_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
