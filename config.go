package webstory

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SiteConfig holds all configuration for a webstory site.
type SiteConfig struct {
	Name        string // Site name (default "Web Stories")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Default story author and publisher name

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/webstory.db")
	StaticDir    string // User-owned static assets and uploads (default "public")

	// The configured admin credential is only honoured when
	// AllowConfigAdmin is set; otherwise logins go to the accounts table.
	AdminEmail       string
	AdminPassword    string
	AllowConfigAdmin bool

	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS
	JWTSecret     string // API token signing key (defaults to SessionSecret)
	TokenTTL      time.Duration

	StoryCacheTTL     time.Duration // default 5min
	CategoryCacheTTL  time.Duration // default 10min
	DashboardCacheTTL time.Duration // default 2min
	AutoSaveDelay     time.Duration // default 3s

	LogLevel       string
	SentryDSN      string
	Environment    string
	MetricsEnabled bool
	ShutdownGrace  time.Duration
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Web Stories"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/webstory.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.JWTSecret == "" {
		c.JWTSecret = c.SessionSecret
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 12 * time.Hour
	}
	if c.StoryCacheTTL == 0 {
		c.StoryCacheTTL = 5 * time.Minute
	}
	if c.CategoryCacheTTL == 0 {
		c.CategoryCacheTTL = 10 * time.Minute
	}
	if c.DashboardCacheTTL == 0 {
		c.DashboardCacheTTL = 2 * time.Minute
	}
	if c.AutoSaveDelay == 0 {
		c.AutoSaveDelay = 3 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.ShutdownGrace == 0 {
		c.ShutdownGrace = 10 * time.Second
	}
}

// Validate checks the configuration after defaults are applied.
func (c SiteConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required, is.URL),
		validation.Field(&c.SessionSecret, validation.Required),
		validation.Field(&c.AdminEmail, validation.When(c.AllowConfigAdmin, validation.Required, is.EmailFormat)),
		validation.Field(&c.AdminPassword, validation.When(c.AllowConfigAdmin, validation.Required)),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "warning", "error", "fatal", "panic")),
		validation.Field(&c.TokenTTL, validation.Min(time.Minute)),
	)
}

// configKeys maps viper keys to the environment variables that feed them.
var configKeys = map[string]string{
	"name":                "SITE_NAME",
	"url":                 "SITE_URL",
	"description":         "SITE_DESCRIPTION",
	"author":              "SITE_AUTHOR",
	"addr":                "ADDR",
	"database_path":       "DATABASE_PATH",
	"static_dir":          "STATIC_DIR",
	"admin_email":         "ADMIN_EMAIL",
	"admin_password":      "ADMIN_PASSWORD",
	"allow_config_admin":  "ALLOW_CONFIG_ADMIN",
	"session_secret":      "ADMIN_SESSION_SECRET",
	"cookie_secure":       "COOKIE_SECURE",
	"jwt_secret":          "JWT_SECRET",
	"token_ttl":           "TOKEN_TTL",
	"story_cache_ttl":     "STORY_CACHE_TTL",
	"category_cache_ttl":  "CATEGORY_CACHE_TTL",
	"dashboard_cache_ttl": "DASHBOARD_CACHE_TTL",
	"autosave_delay":      "AUTOSAVE_DELAY",
	"log_level":           "LOG_LEVEL",
	"sentry_dsn":          "SENTRY_DSN",
	"environment":         "ENVIRONMENT",
	"metrics_enabled":     "METRICS_ENABLED",
	"shutdown_grace":      "SHUTDOWN_GRACE",
}

// LoadConfig reads configuration from command line flags, the environment
// and an optional config file, in that order of precedence.
func LoadConfig(args []string) (SiteConfig, error) {
	fs := pflag.NewFlagSet("webstory", pflag.ContinueOnError)
	fs.String("addr", "", "listen address")
	fs.String("database-path", "", "SQLite database path")
	fs.String("static-dir", "", "static assets directory")
	fs.String("log-level", "", "log level")
	fs.Bool("metrics-enabled", false, "expose /metrics")
	configFile := fs.String("config", "", "optional config file (yaml, toml or json)")
	if err := fs.Parse(args); err != nil {
		return SiteConfig{}, eris.Wrap(err, "parsing flags")
	}

	v := viper.New()
	for key, env := range configKeys {
		if err := v.BindEnv(key, env); err != nil {
			return SiteConfig{}, eris.Wrapf(err, "binding %s", env)
		}
	}
	for key, flag := range map[string]string{
		"addr":            "addr",
		"database_path":   "database-path",
		"static_dir":      "static-dir",
		"log_level":       "log-level",
		"metrics_enabled": "metrics-enabled",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return SiteConfig{}, eris.Wrapf(err, "binding flag %s", flag)
		}
	}
	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return SiteConfig{}, eris.Wrapf(err, "reading config file %s", *configFile)
		}
	}

	cfg := SiteConfig{
		Name:              v.GetString("name"),
		URL:               strings.TrimRight(v.GetString("url"), "/"),
		Description:       v.GetString("description"),
		Author:            v.GetString("author"),
		Addr:              v.GetString("addr"),
		DatabasePath:      v.GetString("database_path"),
		StaticDir:         v.GetString("static_dir"),
		AdminEmail:        v.GetString("admin_email"),
		AdminPassword:     v.GetString("admin_password"),
		AllowConfigAdmin:  v.GetBool("allow_config_admin"),
		SessionSecret:     v.GetString("session_secret"),
		CookieSecure:      v.GetBool("cookie_secure"),
		JWTSecret:         v.GetString("jwt_secret"),
		TokenTTL:          v.GetDuration("token_ttl"),
		StoryCacheTTL:     v.GetDuration("story_cache_ttl"),
		CategoryCacheTTL:  v.GetDuration("category_cache_ttl"),
		DashboardCacheTTL: v.GetDuration("dashboard_cache_ttl"),
		AutoSaveDelay:     v.GetDuration("autosave_delay"),
		LogLevel:          v.GetString("log_level"),
		SentryDSN:         v.GetString("sentry_dsn"),
		Environment:       v.GetString("environment"),
		MetricsEnabled:    v.GetBool("metrics_enabled"),
		ShutdownGrace:     v.GetDuration("shutdown_grace"),
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return SiteConfig{}, eris.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.StaticDir = dir
	}
}

// WithStore injects an already opened store instead of opening
// Config.DatabasePath.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}
