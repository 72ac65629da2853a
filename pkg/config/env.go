package config

// EnvPrefix is empty because every field carries its fully-qualified variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv     = "PARTFINDERZ_APP_ENV"
	EnvPort       = "PARTFINDERZ_APP_PORT"
	EnvDBDSN      = "PARTFINDERZ_DB_DSN"
	EnvDBHost     = "PARTFINDERZ_DB_HOST"
	EnvDBUser     = "PARTFINDERZ_DB_USER"
	EnvDBName     = "PARTFINDERZ_DB_NAME"
	EnvRedisURL   = "PARTFINDERZ_REDIS_URL"
	EnvJWTSecret  = "PARTFINDERZ_JWT_SECRET"
	EnvJWTIssuer  = "PARTFINDERZ_JWT_ISSUER"
	EnvUseSQLite  = "PARTFINDERZ_USE_SQLITE"
	EnvPlatesURL  = "PARTFINDERZ_PLATES_BASE_URL"
	EnvPlatesAuth = "PARTFINDERZ_PLATES_TOKEN"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
