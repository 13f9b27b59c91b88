// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"slices"
	"time"

	"github.com/dalemusser/organigram/internal/app/system/locale"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the org chart service.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: ORGANIGRAM_MONGO_URI, ORGANIGRAM_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "organigram", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "organigram-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	// Tree cache
	{Name: "redis_addr", Default: "", Desc: "Redis address for the shared tree cache (blank = in-process cache)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "redis_prefix", Default: "organigram", Desc: "Key prefix for cache entries in Redis"},
	{Name: "cache_ttl", Default: "300s", Desc: "Org chart listing cache lifetime"},

	// Localization
	{Name: "default_locale", Default: locale.Default, Desc: "Default message locale: de, en, fr, es or it"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_orgchart", Default: "all", Desc: "Org chart event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Login rate limiting
	{Name: "trust_proxy", Default: false, Desc: "Take the client IP from X-Forwarded-For/X-Real-IP (enable only behind a trusted reverse proxy)"},
	{Name: "login_ip_limit", Default: 10, Desc: "Login attempts allowed per IP within login_ip_window"},
	{Name: "login_ip_window", Default: "1m", Desc: "Window for login_ip_limit"},
	{Name: "login_limit", Default: 5, Desc: "Failed attempts allowed per login id within login_limit_window"},
	{Name: "login_limit_window", Default: "5m", Desc: "Window for login_limit"},

	// Timeouts
	{Name: "timeout_short", Default: "", Desc: "Timeout for single-document reads and auth lookups (blank = built-in default)"},
	{Name: "timeout_medium", Default: "", Desc: "Timeout for chart listings and single writes (blank = built-in default)"},
	{Name: "timeout_long", Default: "", Desc: "Timeout for reparenting writes and audit listings (blank = built-in default)"},
	{Name: "seed_timeout", Default: "30s", Desc: "Upper bound for one run of the division seed"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, ORGANIGRAM_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ORGANIGRAM", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		// Tree cache
		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),
		RedisPrefix:   appValues.String("redis_prefix"),
		CacheTTL:      appValues.Duration("cache_ttl", 300*time.Second),

		DefaultLocale: locale.Match(appValues.String("default_locale")),

		// Audit logging
		AuditLogAuth:     appValues.String("audit_log_auth"),
		AuditLogOrgChart: appValues.String("audit_log_orgchart"),

		// Login rate limiting
		TrustProxy:       appValues.Bool("trust_proxy"),
		LoginIPLimit:     appValues.Int("login_ip_limit"),
		LoginIPWindow:    appValues.Duration("login_ip_window", time.Minute),
		LoginLimit:       appValues.Int("login_limit"),
		LoginLimitWindow: appValues.Duration("login_limit_window", 5*time.Minute),

		// Timeouts
		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
		SeedTimeout:   appValues.Duration("seed_timeout", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

var auditModes = []string{"all", "db", "log", "off"}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI format is checked here to catch configuration errors
// early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}
	if len(appCfg.SessionKey) < 32 {
		return fmt.Errorf("session_key must be at least 32 characters")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.SessionKey == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("session_key must be changed in production")
	}
	if !slices.Contains(locale.Supported, appCfg.DefaultLocale) {
		return fmt.Errorf("default_locale %q is not supported", appCfg.DefaultLocale)
	}
	for key, v := range map[string]string{
		"audit_log_auth":     appCfg.AuditLogAuth,
		"audit_log_orgchart": appCfg.AuditLogOrgChart,
	} {
		if !slices.Contains(auditModes, v) {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", key, v)
		}
	}
	if appCfg.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive")
	}
	if appCfg.LoginIPLimit <= 0 || appCfg.LoginLimit <= 0 {
		return fmt.Errorf("login_ip_limit and login_limit must be positive")
	}
	return nil
}
