package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// TrustedProxies may set X-Forwarded-For. Empty trusts none.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`

	// Redis caches resolved manifests. Empty address means in-process cache.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	ManifestURLTemplate string        `mapstructure:"MANIFEST_URL_TEMPLATE"`
	ManifestTimeout     time.Duration `mapstructure:"MANIFEST_TIMEOUT"`
	ManifestCacheTTL    time.Duration `mapstructure:"MANIFEST_CACHE_TTL"`
	DefaultMediaID      string        `mapstructure:"DEFAULT_MEDIA_ID"`

	Timezone          string        `mapstructure:"TIMEZONE"`
	WizardResetDelay  time.Duration `mapstructure:"WIZARD_RESET_DELAY"`
	ControlsHideDelay time.Duration `mapstructure:"CONTROLS_HIDE_DELAY"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`

	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
	StaticTokens  []string `mapstructure:"STATIC_TOKENS"`
	JWTHMACSecret string   `mapstructure:"JWT_HMAC_SECRET"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`
	GoogleCalendarID   string `mapstructure:"GOOGLE_CALENDAR_ID"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "sqlite:landing.db")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 120)
	v.SetDefault("TRUSTED_PROXIES", []string{})
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MANIFEST_URL_TEMPLATE", "https://fast.wistia.com/embed/medias/%s.json")
	v.SetDefault("MANIFEST_TIMEOUT", 10*time.Second)
	v.SetDefault("MANIFEST_CACHE_TTL", 10*time.Minute)
	v.SetDefault("DEFAULT_MEDIA_ID", "")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("WIZARD_RESET_DELAY", 200*time.Millisecond)
	v.SetDefault("CONTROLS_HIDE_DELAY", time.Second)
	v.SetDefault("SESSION_TTL", 30*time.Minute)
	v.SetDefault("CORS_ORIGINS", []string{"*"})
	v.SetDefault("STATIC_TOKENS", []string{})
	v.SetDefault("JWT_HMAC_SECRET", "")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URL", "http://localhost:8080/oauth2callback")
	v.SetDefault("GOOGLE_CALENDAR_ID", "primary")
}

// Load reads config.yaml from . or ./config when present, then applies
// environment overrides on top of the defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxRequestsPerMin <= 0 {
		return fmt.Errorf("MAX_REQUESTS_PER_MIN must be positive, got %d", c.MaxRequestsPerMin)
	}
	if strings.Count(c.ManifestURLTemplate, "%s") != 1 || strings.Count(c.ManifestURLTemplate, "%") != 1 {
		return fmt.Errorf("MANIFEST_URL_TEMPLATE must contain exactly one %%s, got %q", c.ManifestURLTemplate)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	return nil
}

// Location is the business timezone the booking calendar is shown in.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// GoogleEnabled reports whether calendar sync can be offered.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
