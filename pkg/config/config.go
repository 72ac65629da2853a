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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Cart         CartConfig
	Catalog      CatalogConfig
	FIPE         FIPEConfig
	PostalCode   PostalCodeConfig
	Plates       PlatesConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = cfg.FeatureFlags.SQLitePath
		}
		cfg.DB.Driver = DriverSQLite
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PARTFINDERZ_APP_ENV" required:"true"`
	Port         string `envconfig:"PARTFINDERZ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PARTFINDERZ_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"PARTFINDERZ_LOG_FORMAT"`
	LogWarnStack bool   `envconfig:"PARTFINDERZ_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"PARTFINDERZ_CORS_ORIGINS" default:"http://localhost:8081,http://localhost:19006"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PARTFINDERZ_DB_DSN"`
	Driver string `envconfig:"PARTFINDERZ_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"PARTFINDERZ_DB_HOST"`
	Port     int    `envconfig:"PARTFINDERZ_DB_PORT" default:"5432"`
	User     string `envconfig:"PARTFINDERZ_DB_USER"`
	Password string `envconfig:"PARTFINDERZ_DB_PASSWORD"`
	Name     string `envconfig:"PARTFINDERZ_DB_NAME"`
	SSLMode  string `envconfig:"PARTFINDERZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PARTFINDERZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PARTFINDERZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PARTFINDERZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PARTFINDERZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PARTFINDERZ_REDIS_URL"`
	Address      string        `envconfig:"PARTFINDERZ_REDIS_ADDR"`
	Password     string        `envconfig:"PARTFINDERZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"PARTFINDERZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PARTFINDERZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PARTFINDERZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PARTFINDERZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PARTFINDERZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PARTFINDERZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the verification settings for tokens minted by the auth service.
type JWTConfig struct {
	Secret   string `envconfig:"PARTFINDERZ_JWT_SECRET" required:"true"`
	Issuer   string `envconfig:"PARTFINDERZ_JWT_ISSUER" required:"true"`
	Audience string `envconfig:"PARTFINDERZ_JWT_AUDIENCE" default:"authenticated"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"PARTFINDERZ_USE_SQLITE" default:"false"`
	SQLitePath  string `envconfig:"PARTFINDERZ_SQLITE_PATH" default:"file:partfinderz.db?cache=shared"`
	AutoMigrate bool   `envconfig:"PARTFINDERZ_AUTO_MIGRATE" default:"false"`
}

// CartConfig controls how long an idle cart session survives in Redis and
// how the per-user session lock behaves.
type CartConfig struct {
	SessionTTL time.Duration `envconfig:"PARTFINDERZ_CART_SESSION_TTL" default:"720h"`
	LockTTL    time.Duration `envconfig:"PARTFINDERZ_CART_LOCK_TTL" default:"10s"`
	LockWait   time.Duration `envconfig:"PARTFINDERZ_CART_LOCK_WAIT" default:"3s"`
}

type CatalogConfig struct {
	// DefaultPriceCeiling is the upper bound the client shows before the user narrows it.
	DefaultPriceCeiling string `envconfig:"PARTFINDERZ_CATALOG_DEFAULT_PRICE_CEILING" default:"5000"`
	MaxResults          int    `envconfig:"PARTFINDERZ_CATALOG_MAX_RESULTS" default:"200"`
}

type FIPEConfig struct {
	BaseURL     string        `envconfig:"PARTFINDERZ_FIPE_BASE_URL" default:"https://parallelum.com.br/fipe/api/v1"`
	VehicleType string        `envconfig:"PARTFINDERZ_FIPE_VEHICLE_TYPE" default:"carros"`
	Timeout     time.Duration `envconfig:"PARTFINDERZ_FIPE_TIMEOUT" default:"10s"`
	RatePerSec  float64       `envconfig:"PARTFINDERZ_FIPE_RATE_PER_SEC" default:"5"`
	CacheTTL    time.Duration `envconfig:"PARTFINDERZ_FIPE_CACHE_TTL" default:"24h"`
}

type PostalCodeConfig struct {
	BaseURL  string        `envconfig:"PARTFINDERZ_POSTAL_CODE_BASE_URL" default:"https://viacep.com.br/ws"`
	Timeout  time.Duration `envconfig:"PARTFINDERZ_POSTAL_CODE_TIMEOUT" default:"5s"`
	CacheTTL time.Duration `envconfig:"PARTFINDERZ_POSTAL_CODE_CACHE_TTL" default:"168h"`
}

type PlatesConfig struct {
	BaseURL    string        `envconfig:"PARTFINDERZ_PLATES_BASE_URL"`
	Token      string        `envconfig:"PARTFINDERZ_PLATES_TOKEN"`
	Timeout    time.Duration `envconfig:"PARTFINDERZ_PLATES_TIMEOUT" default:"10s"`
	RatePerSec float64       `envconfig:"PARTFINDERZ_PLATES_RATE_PER_SEC" default:"1"`
	// UserLimit caps decode requests per user within UserWindow.
	UserLimit  int64         `envconfig:"PARTFINDERZ_PLATES_USER_LIMIT" default:"10"`
	UserWindow time.Duration `envconfig:"PARTFINDERZ_PLATES_USER_WINDOW" default:"1h"`
}

// Enabled reports whether plate decoding has been configured.
func (p PlatesConfig) Enabled() bool {
	return strings.TrimSpace(p.BaseURL) != "" && strings.TrimSpace(p.Token) != ""
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
