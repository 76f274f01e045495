// Package config builds the application configuration once at startup.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	Env  string `mapstructure:"APP_ENV"`
	Port string `mapstructure:"PORT"`

	// StoreDriver selects the storage backend: postgres, mongo or memory.
	StoreDriver  string        `mapstructure:"STORE_DRIVER"`
	StoreTimeout time.Duration `mapstructure:"STORE_TIMEOUT"`

	DBHost string `mapstructure:"DB_HOST"`
	DBPort string `mapstructure:"DB_PORT"`
	DBUser string `mapstructure:"DB_USER"`
	DBPass string `mapstructure:"DB_PASS"`
	DBName string `mapstructure:"DB_NAME"`
	// InstanceConnectionName switches Postgres to the Cloud SQL unix socket.
	InstanceConnectionName string `mapstructure:"INSTANCE_CONNECTION_NAME"`

	MongoURI string `mapstructure:"MONGO_URI"`
	MongoDB  string `mapstructure:"MONGO_DB"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTIssuer string        `mapstructure:"JWT_ISSUER"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	UserOTPTTL     time.Duration `mapstructure:"USER_OTP_TTL"`
	PartnerOTPTTL  time.Duration `mapstructure:"PARTNER_OTP_TTL"`
	DeliveryOTPTTL time.Duration `mapstructure:"DELIVERY_OTP_TTL"`
	LoginOTPTTL    time.Duration `mapstructure:"LOGIN_OTP_TTL"`
	OTPHashCost    int           `mapstructure:"OTP_HASH_COST"`
	// OTPRateInterval is the refill interval of the per-contact OTP send limiter.
	OTPRateInterval    time.Duration `mapstructure:"OTP_RATE_INTERVAL"`
	OTPRateBurst       int           `mapstructure:"OTP_RATE_BURST"`
	OTPDeliveryTimeout time.Duration `mapstructure:"OTP_DELIVERY_TIMEOUT"`

	TwilioAccountSID     string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken      string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber    string `mapstructure:"TWILIO_PHONE_NUMBER"`
	TwilioStatusCallback string `mapstructure:"TWILIO_STATUS_CALLBACK_URL"`
	SMSCountryCode       string `mapstructure:"SMS_COUNTRY_CODE"`

	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort int    `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	SMTPFrom string `mapstructure:"SMTP_FROM"`

	MediaDir      string `mapstructure:"MEDIA_DIR"`
	MediaBaseURL  string `mapstructure:"MEDIA_BASE_URL"`
	MediaMaxBytes int64  `mapstructure:"MEDIA_MAX_BYTES"`

	StagingRetention     time.Duration `mapstructure:"STAGING_RETENTION"`
	StagingPurgeInterval time.Duration `mapstructure:"STAGING_PURGE_INTERVAL"`

	CORSAllowOrigins         string `mapstructure:"CORS_ALLOW_ORIGINS"`
	DisableWebhookValidation bool   `mapstructure:"DISABLE_WEBHOOK_VALIDATION"`
}

var drivers = map[string]bool{"postgres": true, "mongo": true, "memory": true}

// Load builds and validates Config from the environment.
// The caller loads any .env file beforehand.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASS", "")
	v.SetDefault("DB_NAME", "washpe")
	v.SetDefault("INSTANCE_CONNECTION_NAME", "")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "washpe")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "washpe-backend")
	v.SetDefault("JWT_TTL", "720h")
	v.SetDefault("USER_OTP_TTL", "5m")
	v.SetDefault("PARTNER_OTP_TTL", "10m")
	v.SetDefault("DELIVERY_OTP_TTL", "10m")
	v.SetDefault("LOGIN_OTP_TTL", "10m")
	v.SetDefault("OTP_HASH_COST", 10)
	v.SetDefault("OTP_RATE_INTERVAL", "30s")
	v.SetDefault("OTP_RATE_BURST", 3)
	v.SetDefault("OTP_DELIVERY_TIMEOUT", "10s")
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_PHONE_NUMBER", "")
	v.SetDefault("TWILIO_STATUS_CALLBACK_URL", "")
	v.SetDefault("SMS_COUNTRY_CODE", "+91")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("MEDIA_DIR", "./uploads")
	v.SetDefault("MEDIA_BASE_URL", "/media")
	v.SetDefault("MEDIA_MAX_BYTES", 5<<20)
	v.SetDefault("STAGING_RETENTION", "24h")
	v.SetDefault("STAGING_PURGE_INTERVAL", "1h")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("DISABLE_WEBHOOK_VALIDATION", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	if !drivers[c.StoreDriver] {
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	for name, d := range map[string]time.Duration{
		"JWT_TTL":          c.JWTTTL,
		"USER_OTP_TTL":     c.UserOTPTTL,
		"PARTNER_OTP_TTL":  c.PartnerOTPTTL,
		"DELIVERY_OTP_TTL": c.DeliveryOTPTTL,
		"LOGIN_OTP_TTL":    c.LoginOTPTTL,
		"STORE_TIMEOUT":    c.StoreTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive", name)
		}
	}
	if c.OTPHashCost < 4 || c.OTPHashCost > 31 {
		return errors.New("config: OTP_HASH_COST must be between 4 and 31")
	}
	if c.IsProduction() {
		if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioPhoneNumber == "" {
			return errors.New("config: Twilio credentials are required when APP_ENV=production")
		}
		if c.SMTPHost == "" || c.SMTPFrom == "" {
			return errors.New("config: SMTP_HOST and SMTP_FROM are required when APP_ENV=production")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TwilioConfigured reports whether SMS can go out through Twilio.
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}

func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// PostgresDSN builds the DSN, over the Cloud SQL socket when an instance name is set.
func (c *Config) PostgresDSN() string {
	if c.InstanceConnectionName != "" {
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable",
			c.InstanceConnectionName, c.DBUser, c.DBPass, c.DBName)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort)
}

// AllowOrigins returns the CORS origins in the comma-joined form fiber expects.
func (c *Config) AllowOrigins() string {
	parts := strings.Split(c.CORSAllowOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}
