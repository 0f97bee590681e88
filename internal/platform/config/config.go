package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	ShutdownTimeout time.Duration
}

// Provider holds the base URL and credentials for one verification vendor.
type Provider struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

// Providers configures the outbound provider clients.
type Providers struct {
	KYC  Provider // Aadhaar OKYC and PAN
	Bank Provider // penny drop, penny-less and IFSC

	Timeout                 time.Duration // one provider call
	AuthTimeout             time.Duration // one authentication round-trip
	TokenValidity           time.Duration
	TokenRefreshBuffer      time.Duration
	BreakerFailureThreshold int
}

// lockMargin is added on top of the request budget for the default lock TTL.
const lockMargin = 15 * time.Second

// RequestBudget is the longest one verification request can spend on
// providers: an IFSC lookup, a penny drop and its single re-authenticated
// retry, plus the authentication itself.
func (p Providers) RequestBudget() time.Duration {
	return 3*p.Timeout + p.AuthTimeout
}

// Verification tunes the verification rules.
type Verification struct {
	OTPValidity        time.Duration
	NameMatchThreshold float64
	IFSCPrecheck       bool
}

// Store selects the application store backend.
type Store struct {
	Backend       string // memory, postgres or mongo
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
}

// Lock selects the per-application lock backend.
type Lock struct {
	Backend string // local or redis
	TTL     time.Duration
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures manual review event publishing. An empty broker list
// keeps review events in the log.
type Kafka struct {
	Brokers     string
	ReviewTopic string
}

// Config is the full process configuration.
type Config struct {
	Server       Server
	Providers    Providers
	Verification Verification
	Store        Store
	Lock         Lock
	Redis        RedisConfig
	Kafka        Kafka
}

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	LockLocal = "local"
	LockRedis = "redis"
)

// FromEnv builds the config from environment variables so main stays lean.
// Malformed overrides are reported rather than silently ignored.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:            getEnv("KYC_ADDR", ":8080"),
			Environment:     getEnv("KYC_ENVIRONMENT", "development"),
			ShutdownTimeout: 10 * time.Second,
		},
		Providers: Providers{
			KYC: Provider{
				BaseURL:   os.Getenv("KYC_PROVIDER_BASE_URL"),
				APIKey:    os.Getenv("KYC_PROVIDER_API_KEY"),
				APISecret: os.Getenv("KYC_PROVIDER_API_SECRET"),
			},
			Bank: Provider{
				BaseURL:   os.Getenv("BANK_PROVIDER_BASE_URL"),
				APIKey:    os.Getenv("BANK_PROVIDER_API_KEY"),
				APISecret: os.Getenv("BANK_PROVIDER_API_SECRET"),
			},
			Timeout:                 60 * time.Second,
			AuthTimeout:             30 * time.Second,
			TokenValidity:           24 * time.Hour,
			TokenRefreshBuffer:      5 * time.Minute,
			BreakerFailureThreshold: 5,
		},
		Verification: Verification{
			OTPValidity:        10 * time.Minute,
			NameMatchThreshold: 0.8,
		},
		Store: Store{
			Backend:       strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
			DatabaseURL:   os.Getenv("DATABASE_URL"),
			MongoURI:      os.Getenv("MONGO_URI"),
			MongoDatabase: getEnv("MONGO_DATABASE", "dsakyc"),
		},
		Lock: Lock{
			Backend: strings.ToLower(getEnv("LOCK_BACKEND", LockLocal)),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			Brokers:     os.Getenv("KAFKA_BROKERS"),
			ReviewTopic: getEnv("KAFKA_REVIEW_TOPIC", "kyc.manual-review"),
		},
	}

	var errs []string
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	collect(durationEnv("PROVIDER_TIMEOUT", &cfg.Providers.Timeout))
	collect(durationEnv("PROVIDER_AUTH_TIMEOUT", &cfg.Providers.AuthTimeout))
	collect(durationEnv("TOKEN_VALIDITY", &cfg.Providers.TokenValidity))
	collect(durationEnv("TOKEN_REFRESH_BUFFER", &cfg.Providers.TokenRefreshBuffer))
	collect(durationEnv("OTP_VALIDITY", &cfg.Verification.OTPValidity))
	collect(durationEnv("LOCK_TTL", &cfg.Lock.TTL))
	collect(durationEnv("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout))
	collect(floatEnv("NAME_MATCH_THRESHOLD", &cfg.Verification.NameMatchThreshold))
	collect(boolEnv("BANK_IFSC_PRECHECK", &cfg.Verification.IFSCPrecheck))
	collect(intEnv("BREAKER_FAILURE_THRESHOLD", &cfg.Providers.BreakerFailureThreshold))
	if cfg.Lock.TTL == 0 {
		cfg.Lock.TTL = cfg.Providers.RequestBudget() + lockMargin
	}
	collect(cfg.validate())

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("STORE_BACKEND %q is not one of memory, postgres, mongo", c.Store.Backend)
	}
	switch c.Lock.Backend {
	case LockLocal:
	case LockRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis lock")
		}
	default:
		return fmt.Errorf("LOCK_BACKEND %q is not one of local, redis", c.Lock.Backend)
	}
	if c.Lock.TTL < c.Providers.RequestBudget() {
		return fmt.Errorf("LOCK_TTL %s is shorter than the provider request budget %s", c.Lock.TTL, c.Providers.RequestBudget())
	}
	if c.Verification.NameMatchThreshold <= 0 || c.Verification.NameMatchThreshold > 1 {
		return fmt.Errorf("NAME_MATCH_THRESHOLD must be in (0, 1]")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, dst *time.Duration) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func floatEnv(key string, dst *float64) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func intEnv(key string, dst *int) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func boolEnv(key string, dst *bool) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
