package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Store         StoreConfig
	DB            DBConfig
	Redis         RedisConfig
	Mongo         MongoConfig
	Mirror        MirrorConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Upstream      UpstreamConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	switch cfg.Store.Backend {
	case StoreBackendSQL:
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	case StoreBackendRedis:
		if !cfg.Redis.Configured() {
			return nil, fmt.Errorf("%s=%s requires %s or %s", EnvStoreBackend, StoreBackendRedis, EnvRedisURL, EnvRedisAddr)
		}
	}
	return &cfg, nil
}

// RequireDatabase resolves the DB DSN for commands that always need SQL,
// whatever store backend the API runs with.
func (c *Config) RequireDatabase() error {
	return c.DB.ensureDSN()
}

type AppConfig struct {
	Env          string `envconfig:"FILMEX_APP_ENV" required:"true"`
	Port         string `envconfig:"FILMEX_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"FILMEX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FILMEX_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"FILMEX_LOG_FORMAT" default:"json"`
	StaticDir    string `envconfig:"FILMEX_STATIC_DIR" default:"public"`
	ClientCookie string `envconfig:"FILMEX_CLIENT_COOKIE" default:"filmex_client"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StoreConfig selects where users, sessions and carts are persisted.
type StoreConfig struct {
	Backend  string        `envconfig:"FILMEX_STORE_BACKEND" default:"memory"`
	LockTTL  time.Duration `envconfig:"FILMEX_STORE_LOCK_TTL" default:"5s"`
	LockWait time.Duration `envconfig:"FILMEX_STORE_LOCK_WAIT" default:"3s"`
}

func (s *StoreConfig) validate() error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case StoreBackendMemory, StoreBackendRedis, StoreBackendSQL:
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvStoreBackend, s.Backend)
	}
}

type DBConfig struct {
	DSN    string `envconfig:"FILMEX_DB_DSN"`
	Driver string `envconfig:"FILMEX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FILMEX_DB_HOST"`
	LegacyPort     int    `envconfig:"FILMEX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FILMEX_DB_USER"`
	LegacyPassword string `envconfig:"FILMEX_DB_PASSWORD"`
	LegacyName     string `envconfig:"FILMEX_DB_NAME"`
	LegacySSLMode  string `envconfig:"FILMEX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FILMEX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FILMEX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FILMEX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FILMEX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FILMEX_REDIS_URL"`
	Address      string        `envconfig:"FILMEX_REDIS_ADDR"`
	Password     string        `envconfig:"FILMEX_REDIS_PASSWORD"`
	DB           int           `envconfig:"FILMEX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FILMEX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FILMEX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FILMEX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FILMEX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FILMEX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether enough settings exist to dial redis.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// MongoConfig points the remote mirror at a document database. An empty URI
// disables mirroring.
type MongoConfig struct {
	URI                 string        `envconfig:"FILMEX_MONGO_URI"`
	Database            string        `envconfig:"FILMEX_MONGO_DATABASE" default:"FILMEX_DB"`
	UsersCollection     string        `envconfig:"FILMEX_MONGO_USERS_COLLECTION" default:"USERS"`
	FavoritesCollection string        `envconfig:"FILMEX_MONGO_FAVORITES_COLLECTION" default:"FAVS"`
	OrdersCollection    string        `envconfig:"FILMEX_MONGO_ORDERS_COLLECTION" default:"ordenes"`
	ConnectTimeout      time.Duration `envconfig:"FILMEX_MONGO_CONNECT_TIMEOUT" default:"10s"`
}

func (m MongoConfig) Enabled() bool {
	return strings.TrimSpace(m.URI) != ""
}

type MirrorConfig struct {
	Timeout     time.Duration `envconfig:"FILMEX_MIRROR_TIMEOUT" default:"5s"`
	MaxInFlight int64         `envconfig:"FILMEX_MIRROR_MAX_IN_FLIGHT" default:"32"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FILMEX_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FILMEX_JWT_ISSUER" default:"filmex"`
	ExpirationMinutes int    `envconfig:"FILMEX_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FILMEX_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FILMEX_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FILMEX_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FILMEX_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FILMEX_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FILMEX_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FILMEX_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FILMEX_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FILMEX_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FILMEX_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FILMEX_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// UpstreamConfig configures the external JSON API used by the demo routes.
type UpstreamConfig struct {
	BaseURL string        `envconfig:"FILMEX_UPSTREAM_BASE_URL" default:"https://jsonplaceholder.typicode.com"`
	Timeout time.Duration `envconfig:"FILMEX_UPSTREAM_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool `envconfig:"FILMEX_AUTO_MIGRATE" default:"false"`
	ContractMocks bool `envconfig:"FILMEX_CONTRACT_MOCKS" default:"true"`
}

func (db *DBConfig) ensureDSN() error {
	db.Driver = strings.ToLower(strings.TrimSpace(db.Driver))
	switch db.Driver {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, db.Driver)
	}

	if db.DSN != "" {
		return nil
	}
	if db.Driver == DBDriverSQLite {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
