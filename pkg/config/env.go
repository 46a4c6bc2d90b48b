package config

const (
	EnvPrefix = "FILMEX"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
	StoreBackendSQL    = "sql"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv       = "FILMEX_APP_ENV"
	EnvPort         = "FILMEX_APP_PORT"
	EnvLogLevel     = "FILMEX_LOG_LEVEL"
	EnvStaticDir    = "FILMEX_STATIC_DIR"
	EnvStoreBackend = "FILMEX_STORE_BACKEND"
	EnvStoreLockTTL = "FILMEX_STORE_LOCK_TTL"

	EnvDBDSN    = "FILMEX_DB_DSN"
	EnvDBDriver = "FILMEX_DB_DRIVER"
	EnvDBHost   = "FILMEX_DB_HOST"
	EnvDBUser   = "FILMEX_DB_USER"
	EnvDBName   = "FILMEX_DB_NAME"

	EnvRedisURL  = "FILMEX_REDIS_URL"
	EnvRedisAddr = "FILMEX_REDIS_ADDR"

	EnvMongoURI      = "FILMEX_MONGO_URI"
	EnvMongoDatabase = "FILMEX_MONGO_DATABASE"
	EnvMirrorTimeout = "FILMEX_MIRROR_TIMEOUT"

	EnvJWTSecret  = "FILMEX_JWT_SECRET"
	EnvJWTIssuer  = "FILMEX_JWT_ISSUER"
	EnvJWTExpMins = "FILMEX_JWT_EXPIRATION_MINUTES"

	EnvUpstreamBaseURL = "FILMEX_UPSTREAM_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
