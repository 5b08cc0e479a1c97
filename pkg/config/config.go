package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Cart     CartConfig
	Stripe   StripeConfig
	Chapa    ChapaConfig
	Webhooks WebhookConfig
	Features FeatureFlagsConfig
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
	Env          string `envconfig:"GURSHA_APP_ENV" required:"true"`
	Port         string `envconfig:"GURSHA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GURSHA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GURSHA_LOG_WARN_STACK" default:"false"`
	BaseURL      string `envconfig:"GURSHA_APP_BASE_URL" default:"http://localhost:8080"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GURSHA_DB_DSN"`
	Driver string `envconfig:"GURSHA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"GURSHA_DB_HOST"`
	Port     int    `envconfig:"GURSHA_DB_PORT" default:"5432"`
	User     string `envconfig:"GURSHA_DB_USER"`
	Password string `envconfig:"GURSHA_DB_PASSWORD"`
	Name     string `envconfig:"GURSHA_DB_NAME"`
	SSLMode  string `envconfig:"GURSHA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GURSHA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GURSHA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GURSHA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GURSHA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GURSHA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GURSHA_REDIS_ADDR"`
	Password     string        `envconfig:"GURSHA_REDIS_PASSWORD"`
	DB           int           `envconfig:"GURSHA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GURSHA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GURSHA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GURSHA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GURSHA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GURSHA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GURSHA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GURSHA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GURSHA_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"GURSHA_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GURSHA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GURSHA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GURSHA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GURSHA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GURSHA_ARGON_KEY_LEN" default:"32"`
}

type CartConfig struct {
	TaxRateBasisPoints int `envconfig:"GURSHA_CART_TAX_RATE_BPS" default:"800"`
	MaxItemsPerCart    int `envconfig:"GURSHA_CART_MAX_ITEMS" default:"100"`
}

type StripeConfig struct {
	APIKey string `envconfig:"GURSHA_STRIPE_API_KEY"`
	Secret string `envconfig:"GURSHA_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"GURSHA_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type ChapaConfig struct {
	SecretKey     string `envconfig:"GURSHA_CHAPA_SECRET_KEY"`
	WebhookSecret string `envconfig:"GURSHA_CHAPA_WEBHOOK_SECRET"`
	BaseURL       string `envconfig:"GURSHA_CHAPA_BASE_URL" default:"https://api.chapa.co"`
}

type WebhookConfig struct {
	ReplayGuardTTL time.Duration `envconfig:"GURSHA_WEBHOOK_REPLAY_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GURSHA_AUTO_MIGRATE" default:"false"`
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
	for _, env := range requiredDBEnvVars {
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
