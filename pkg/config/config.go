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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Notifications NotificationsConfig
	Redemptions   RedemptionsConfig
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
	Env          string `envconfig:"ECOSORT_APP_ENV" required:"true"`
	Port         string `envconfig:"ECOSORT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ECOSORT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ECOSORT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ECOSORT_DB_DSN"`
	Driver string `envconfig:"ECOSORT_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ECOSORT_DB_HOST"`
	Port     int    `envconfig:"ECOSORT_DB_PORT" default:"5432"`
	User     string `envconfig:"ECOSORT_DB_USER"`
	Password string `envconfig:"ECOSORT_DB_PASSWORD"`
	Name     string `envconfig:"ECOSORT_DB_NAME"`
	SSLMode  string `envconfig:"ECOSORT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ECOSORT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ECOSORT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ECOSORT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ECOSORT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ECOSORT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ECOSORT_REDIS_ADDR"`
	Password     string        `envconfig:"ECOSORT_REDIS_PASSWORD"`
	DB           int           `envconfig:"ECOSORT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ECOSORT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ECOSORT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ECOSORT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ECOSORT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ECOSORT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ECOSORT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ECOSORT_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ECOSORT_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ECOSORT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ECOSORT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ECOSORT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ECOSORT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ECOSORT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ECOSORT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ECOSORT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"ECOSORT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ECOSORT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ECOSORT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ECOSORT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ECOSORT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ECOSORT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ECOSORT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ECOSORT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ECOSORT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ECOSORT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"ECOSORT_GCS_BUCKET_NAME"`
	UploadURLExpiry   time.Duration `envconfig:"ECOSORT_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"ECOSORT_GCS_DOWNLOAD_URL_EXPIRY" default:"24h"`
}

type MediaConfig struct {
	MaxUploadMB        int `envconfig:"ECOSORT_MAX_UPLOAD_MB" default:"10"`
	UploadRetryMax     int `envconfig:"ECOSORT_MEDIA_UPLOAD_RETRY_MAX" default:"3"`
	UploadRetryBaseMS  int `envconfig:"ECOSORT_MEDIA_UPLOAD_RETRY_BASE_MS" default:"250"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"ECOSORT_PUBSUB_DOMAIN_TOPIC" default:"ecosort-domain-events"`
	DomainSubscription string `envconfig:"ECOSORT_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ECOSORT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ECOSORT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ECOSORT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type NotificationsConfig struct {
	RetentionDays int `envconfig:"ECOSORT_NOTIFICATION_RETENTION_DAYS" default:"90"`
}

type RedemptionsConfig struct {
	CodeLength int `envconfig:"ECOSORT_REDEMPTION_CODE_LENGTH" default:"8"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range []string{EnvDBHost, EnvDBUser, EnvDBName} {
		if parts[env] == "" {
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
