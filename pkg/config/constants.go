package config

// EnvPrefix is applied by envconfig; all variables below already carry it.
const EnvPrefix = "ECOSORT"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "ECOSORT_APP_ENV"
	EnvPort     = "ECOSORT_APP_PORT"
	EnvLogLevel = "ECOSORT_LOG_LEVEL"

	EnvDBDSN      = "ECOSORT_DB_DSN"
	EnvDBHost     = "ECOSORT_DB_HOST"
	EnvDBPort     = "ECOSORT_DB_PORT"
	EnvDBUser     = "ECOSORT_DB_USER"
	EnvDBPassword = "ECOSORT_DB_PASSWORD"
	EnvDBName     = "ECOSORT_DB_NAME"
	EnvDBSSLMode  = "ECOSORT_DB_SSLMODE"

	EnvRedisURL = "ECOSORT_REDIS_URL"

	EnvJWTSecret               = "ECOSORT_JWT_SECRET"
	EnvJWTIssuer               = "ECOSORT_JWT_ISSUER"
	EnvJWTExpMins              = "ECOSORT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes  = "ECOSORT_REFRESH_TOKEN_TTL_MINUTES"

	EnvGCPProjectID      = "ECOSORT_GCP_PROJECT_ID"
	EnvGCSBucket         = "ECOSORT_GCS_BUCKET_NAME"
	EnvGCSUploadExpiry   = "ECOSORT_GCS_UPLOAD_URL_EXPIRY"
	EnvGCSDownloadExpiry = "ECOSORT_GCS_DOWNLOAD_URL_EXPIRY"

	EnvPubSubDomainTopic = "ECOSORT_PUBSUB_DOMAIN_TOPIC"

	EnvUseSQLite   = "ECOSORT_USE_SQLITE"
	EnvAutoMigrate = "ECOSORT_AUTO_MIGRATE"
)
