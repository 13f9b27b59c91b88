// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"sync"

	auditlogfeature "github.com/dalemusser/organigram/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/organigram/internal/app/features/errors"
	healthfeature "github.com/dalemusser/organigram/internal/app/features/health"
	loginfeature "github.com/dalemusser/organigram/internal/app/features/login"
	logoutfeature "github.com/dalemusser/organigram/internal/app/features/logout"
	orgchartfeature "github.com/dalemusser/organigram/internal/app/features/orgchart"
	registerfeature "github.com/dalemusser/organigram/internal/app/features/register"
	"github.com/dalemusser/organigram/internal/app/store/audit"
	orgnodestore "github.com/dalemusser/organigram/internal/app/store/orgnodes"
	userstore "github.com/dalemusser/organigram/internal/app/store/users"
	"github.com/dalemusser/organigram/internal/app/system/auditlog"
	"github.com/dalemusser/organigram/internal/app/system/auth"
	"github.com/dalemusser/organigram/internal/app/system/locale"
	"github.com/dalemusser/organigram/internal/app/system/ratelimit"
	"github.com/dalemusser/organigram/internal/app/system/treecache"
	"github.com/dalemusser/organigram/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// The router applies session middleware and mounts the org chart API, the
// credential endpoints feeding the session, the admin audit log, and the
// health and metrics endpoints.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg != nil && coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on each request.
	// This ensures role changes and deleted accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	translator := locale.NewTranslator()
	errLog := errorsfeature.NewErrorLogger(logger, translator, appCfg.DefaultLocale)

	auditStore := audit.New(deps.MongoDatabase)
	auditLogger := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:     appCfg.AuditLogAuth,
		OrgChart: appCfg.AuditLogOrgChart,
	})

	users := userstore.New(deps.MongoDatabase)

	var cache treecache.Cache
	if deps.Redis != nil {
		cache = treecache.NewRedis(deps.Redis, appCfg.RedisPrefix, appCfg.CacheTTL)
	} else {
		cache = treecache.NewMemory(appCfg.CacheTTL)
	}

	limiter := ratelimit.NewLoginLimiterWithConfig(appCfg.LoginIPLimit, appCfg.LoginIPWindow, appCfg.LoginLimit, appCfg.LoginLimitWindow)
	registerBackground(limiter)

	r := chi.NewRouter()
	if appCfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Error routes and router fallbacks
	errorsHandler := errorsfeature.NewHandler(errLog)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, deps.Seeder, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.Handler())

	// Authentication
	registerHandler := registerfeature.NewHandler(users, errLog, auditLogger, logger)
	r.Mount("/api/auth/register", registerfeature.Routes(registerHandler))

	loginHandler := loginfeature.NewHandler(users, sessionMgr, errLog, auditLogger, limiter, logger)
	r.Mount("/api/auth/login", loginfeature.Routes(loginHandler))
	r.Get("/api/auth/me", loginHandler.ServeMe)

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLogger, logger)
	r.Mount("/api/auth/logout", logoutfeature.Routes(logoutHandler))

	// Org chart
	svc := orgchartfeature.NewService(
		orgnodestore.New(deps.MongoDatabase),
		deps.Seeder,
		cache,
		txn.New(deps.MongoClient, logger),
		logger,
	)
	orgHandler := orgchartfeature.NewHandler(svc, auditLogger, translator, appCfg.DefaultLocale, logger)
	r.Mount("/api/org-chart", orgchartfeature.Routes(orgHandler, sessionMgr))

	// Admin
	auditHandler := auditlogfeature.NewHandler(auditStore, users, errLog, logger)
	r.Mount("/api/admin/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}

// stopper is a background worker owned by the handler graph.
type stopper interface {
	Stop()
}

var (
	bgMu       sync.Mutex
	background []stopper
)

func registerBackground(s stopper) {
	bgMu.Lock()
	defer bgMu.Unlock()
	background = append(background, s)
}

// stopBackground stops every worker started by BuildHandler.
func stopBackground(logger *zap.Logger) {
	bgMu.Lock()
	defer bgMu.Unlock()
	for _, s := range background {
		s.Stop()
	}
	if len(background) > 0 {
		logger.Info("background workers stopped", zap.Int("count", len(background)))
	}
	background = nil
}
