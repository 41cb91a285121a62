package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
	Env     string `yaml:"env"`
	BaseURL string `yaml:"base_url"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	AccessTTL  string `yaml:"access_ttl"`
	RefreshTTL string `yaml:"refresh_ttl"`
}

type OTPConfig struct {
	TTL          string `yaml:"ttl"`
	Length       int    `yaml:"length"`
	MaxAttempts  int    `yaml:"max_attempts"`
	ResendWindow string `yaml:"resend_window"`
}

type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ListingsConfig struct {
	Lifetime       string `yaml:"lifetime"`
	RenewWindow    string `yaml:"renew_window"`
	RejectedTTL    string `yaml:"rejected_retention"`
	WarnBefore     string `yaml:"warn_before"`
	CreditsEnabled bool   `yaml:"credits_enabled"`
	AdminPhones    string `yaml:"admin_phones"`
}

type SweepConfig struct {
	Schedule string `yaml:"schedule"`
	LockTTL  string `yaml:"lock_ttl"`
}

type TelrConfig struct {
	Endpoint     string `yaml:"endpoint"`
	StoreID      string `yaml:"store_id"`
	AuthKey      string `yaml:"auth_key"`
	TestMode     bool   `yaml:"test_mode"`
	Timeout      string `yaml:"timeout"`
	CheckoutTTL  string `yaml:"checkout_ttl"`
	PendingAfter string `yaml:"reconcile_after"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"rps"`
	Burst             int     `yaml:"burst"`
	IdleTTL           string  `yaml:"idle_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type MetricsConfig struct {
	Prefix string `yaml:"prefix"`
}

type ConfigFile struct {
	App       AppConfig       `yaml:"app"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	OTP       OTPConfig       `yaml:"otp"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Casbin    CasbinConfig    `yaml:"casbin"`
	Listings  ListingsConfig  `yaml:"listings"`
	Sweep     SweepConfig     `yaml:"sweep"`
	Telr      TelrConfig      `yaml:"telr"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type Config struct {
	Port     string
	GinMode  string
	Env      string
	BaseURL  string
	LogLevel string

	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret  string
	JWTIssuer  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	OTP_TTL          time.Duration
	OTP_Length       int
	OTP_MaxAttempts  int
	OTP_ResendWindow time.Duration

	TwilioSID   string
	TwilioToken string
	TwilioFrom  string

	CasbinModelPath string

	ListingLifetime   time.Duration
	RenewWindow       time.Duration
	RejectedRetention time.Duration
	ExpiryWarning     time.Duration
	CreditsEnabled    bool
	AdminPhones       []string

	SweepSchedule string
	SweepLockTTL  time.Duration

	TelrEndpoint       string
	TelrStoreID        string
	TelrAuthKey        string
	TelrTestMode       bool
	TelrTimeout        time.Duration
	CheckoutTTL        time.Duration
	ReconcileAfter     time.Duration
	RateLimitRPS       float64
	RateLimitBurst     int
	RateLimitIdleTTL   time.Duration
	CORSAllowedOrigins []string
	MetricsPrefix      string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads config/config.yml and applies environment overrides. A .env file is honoured when present.
func Load() (*Config, error) {
	return LoadFile(env("CONFIG_PATH", "config/config.yml"))
}

// LoadFile is Load with an explicit yaml path
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	configFile, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return FromFile(configFile)
}

// FromFile converts the yaml representation into a validated Config
func FromFile(f *ConfigFile) (*Config, error) {
	applyDefaults(f)

	d := durations{}
	cfg := &Config{
		Port:     env("PORT", strconv.Itoa(f.App.Port)),
		GinMode:  env("GIN_MODE", f.App.GinMode),
		Env:      env("APP_ENV", f.App.Env),
		BaseURL:  env("APP_BASE_URL", f.App.BaseURL),
		LogLevel: env("LOG_LEVEL", f.Log.Level),

		DSN:           env("DATABASE_DSN", f.Database.DSN),
		RedisAddr:     env("REDIS_ADDR", f.Redis.Addr),
		RedisPassword: env("REDIS_PASSWORD", f.Redis.Password),
		RedisDB:       f.Redis.DB,

		JWTSecret:  env("JWT_SECRET", f.JWT.Secret),
		JWTIssuer:  f.JWT.Issuer,
		AccessTTL:  d.parse("jwt.access_ttl", f.JWT.AccessTTL),
		RefreshTTL: d.parse("jwt.refresh_ttl", f.JWT.RefreshTTL),

		OTP_TTL:          d.parse("otp.ttl", f.OTP.TTL),
		OTP_Length:       f.OTP.Length,
		OTP_MaxAttempts:  f.OTP.MaxAttempts,
		OTP_ResendWindow: d.parse("otp.resend_window", f.OTP.ResendWindow),

		TwilioSID:   env("TWILIO_ACCOUNT_SID", f.Twilio.AccountSID),
		TwilioToken: env("TWILIO_AUTH_TOKEN", f.Twilio.AuthToken),
		TwilioFrom:  env("TWILIO_FROM_NUMBER", f.Twilio.FromNumber),

		CasbinModelPath: env("CASBIN_MODEL_PATH", f.Casbin.ModelPath),

		ListingLifetime:   d.parse("listings.lifetime", f.Listings.Lifetime),
		RenewWindow:       d.parse("listings.renew_window", f.Listings.RenewWindow),
		RejectedRetention: d.parse("listings.rejected_retention", f.Listings.RejectedTTL),
		ExpiryWarning:     d.parse("listings.warn_before", f.Listings.WarnBefore),
		CreditsEnabled:    envBool("CREDITS_ENABLED", f.Listings.CreditsEnabled),
		AdminPhones:       splitList(env("ADMIN_PHONES", f.Listings.AdminPhones)),

		SweepSchedule: env("SWEEP_SCHEDULE", f.Sweep.Schedule),
		SweepLockTTL:  d.parse("sweep.lock_ttl", f.Sweep.LockTTL),

		TelrEndpoint:   env("TELR_ENDPOINT", f.Telr.Endpoint),
		TelrStoreID:    env("TELR_STORE_ID", f.Telr.StoreID),
		TelrAuthKey:    env("TELR_AUTH_KEY", f.Telr.AuthKey),
		TelrTestMode:   envBool("TELR_TEST_MODE", f.Telr.TestMode),
		TelrTimeout:    d.parse("telr.timeout", f.Telr.Timeout),
		CheckoutTTL:    d.parse("telr.checkout_ttl", f.Telr.CheckoutTTL),
		ReconcileAfter: d.parse("telr.reconcile_after", f.Telr.PendingAfter),

		RateLimitRPS:       f.RateLimit.RequestsPerSecond,
		RateLimitBurst:     f.RateLimit.Burst,
		RateLimitIdleTTL:   d.parse("rate_limit.idle_ttl", f.RateLimit.IdleTTL),
		CORSAllowedOrigins: f.CORS.AllowedOrigins,
		MetricsPrefix:      f.Metrics.Prefix,
	}
	if d.err != nil {
		return nil, d.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants the rest of the service relies on
func (c *Config) Validate() error {
	var errs []error
	if c.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.ListingLifetime <= 0 {
		errs = append(errs, errors.New("listings.lifetime must be positive"))
	}
	if c.RenewWindow < 0 || c.RenewWindow > c.ListingLifetime {
		errs = append(errs, errors.New("listings.renew_window must be between 0 and the listing lifetime"))
	}
	if c.OTP_Length < 4 || c.OTP_Length > 10 {
		errs = append(errs, errors.New("otp.length must be between 4 and 10"))
	}
	if c.OTP_MaxAttempts < 1 {
		errs = append(errs, errors.New("otp.max_attempts must be at least 1"))
	}
	if c.TelrTimeout <= 0 {
		errs = append(errs, errors.New("telr.timeout must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs with production logging
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func applyDefaults(f *ConfigFile) {
	setDefault := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	if f.App.Port == 0 {
		f.App.Port = 8080
	}
	setDefault(&f.App.GinMode, "release")
	setDefault(&f.App.Env, "development")
	setDefault(&f.Log.Level, "info")
	setDefault(&f.JWT.Issuer, "saman-marketplace")
	setDefault(&f.JWT.AccessTTL, "15m")
	setDefault(&f.JWT.RefreshTTL, "720h")
	setDefault(&f.OTP.TTL, "5m")
	setDefault(&f.OTP.ResendWindow, "60s")
	if f.OTP.Length == 0 {
		f.OTP.Length = 6
	}
	if f.OTP.MaxAttempts == 0 {
		f.OTP.MaxAttempts = 3
	}
	setDefault(&f.Casbin.ModelPath, "config/rbac_model.conf")
	setDefault(&f.Listings.Lifetime, "720h")
	setDefault(&f.Listings.RenewWindow, "168h")
	setDefault(&f.Listings.RejectedTTL, "168h")
	setDefault(&f.Listings.WarnBefore, "24h")
	setDefault(&f.Sweep.Schedule, "@hourly")
	setDefault(&f.Sweep.LockTTL, "10m")
	setDefault(&f.Telr.Endpoint, "https://secure.telr.com/gateway/order.json")
	setDefault(&f.Telr.Timeout, "15s")
	setDefault(&f.Telr.CheckoutTTL, "1h")
	setDefault(&f.Telr.PendingAfter, "30m")
	if f.RateLimit.RequestsPerSecond == 0 {
		f.RateLimit.RequestsPerSecond = 10
	}
	if f.RateLimit.Burst == 0 {
		f.RateLimit.Burst = 20
	}
	setDefault(&f.RateLimit.IdleTTL, "10m")
	setDefault(&f.Metrics.Prefix, "marketplace")
}

type durations struct {
	err error
}

func (d *durations) parse(name, value string) time.Duration {
	if d.err != nil {
		return 0
	}
	v, err := time.ParseDuration(value)
	if err != nil {
		d.err = fmt.Errorf("invalid %s: %w", name, err)
		return 0
	}
	return v
}

func envBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
