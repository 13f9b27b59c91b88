// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig is where the org chart service keeps its own settings: the
// MongoDB connection, the session cookie, the optional Redis tree cache,
// the default message locale and audit/rate-limit knobs.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: organigram-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Tree cache. A blank RedisAddr keeps the cache in process.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	CacheTTL      time.Duration

	// DefaultLocale is used when a request carries neither ?locale= nor
	// a matching Accept-Language header.
	DefaultLocale string

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAuth     string
	AuditLogOrgChart string

	// Login rate limiting. TrustProxy lets forwarding headers set the
	// client IP the per-IP limit and audit events use.
	TrustProxy       bool
	LoginIPLimit     int
	LoginIPWindow    time.Duration
	LoginLimit       int
	LoginLimitWindow time.Duration

	// Operation timeouts (zero keeps the built-in defaults)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
	SeedTimeout   time.Duration
}
