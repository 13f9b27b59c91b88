// internal/app/features/login/handler.go
package login

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	uierrors "github.com/dalemusser/organigram/internal/app/features/errors"
	userstore "github.com/dalemusser/organigram/internal/app/store/users"
	"github.com/dalemusser/organigram/internal/app/system/auditlog"
	"github.com/dalemusser/organigram/internal/app/system/auth"
	"github.com/dalemusser/organigram/internal/app/system/limits"
	"github.com/dalemusser/organigram/internal/app/system/locale"
	"github.com/dalemusser/organigram/internal/app/system/ratelimit"
	"github.com/dalemusser/organigram/internal/app/system/timeouts"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(
	users *userstore.Store,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:      users,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginInput struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

type sessionUserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginResponse struct {
	OK   bool                `json:"ok"`
	User sessionUserResponse `json:"user"`
}

// HandleLogin handles POST /api/auth/login.
//
// On success the session cookie is set and the body is
//
//	{ "ok": true, "user": { "id": "…", "username": "…", "email": "…", "role": "user" } }
//
// Unknown accounts and wrong passwords get the same 401 so callers cannot
// discover which accounts exist.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxAuthBody)).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "login: decode body", err, locale.MsgFillAllFields)
		return
	}
	loginID := strings.TrimSpace(in.EmailOrUsername)
	if loginID == "" || in.Password == "" {
		h.ErrLog.Write(w, r, http.StatusBadRequest, locale.MsgFillAllFields, "VALIDATION_FAILED")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	if h.Limiter != nil {
		if ok, wait := h.Limiter.Check(r, loginID); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, loginID)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			h.ErrLog.Write(w, r, http.StatusTooManyRequests, locale.MsgTooManyAttempts, "RATE_LIMITED")
			return
		}
	}

	u, err := h.Users.GetByLogin(ctx, loginID)
	if errors.Is(err, userstore.ErrNotFound) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, loginID)
		h.ErrLog.Write(w, r, http.StatusUnauthorized, locale.MsgInvalidCredentials, "INVALID_CREDENTIALS")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login: find user", err)
		return
	}

	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, loginID)
		h.ErrLog.Write(w, r, http.StatusUnauthorized, locale.MsgInvalidCredentials, "INVALID_CREDENTIALS")
		return
	}

	su := auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.Username,
		Email: u.Email,
		Role:  u.Role,
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.ErrLog.LogServerError(w, r, "login: save session", err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.Succeeded(loginID)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, loginID)
	h.Log.Info("user signed in", zap.String("user_id", su.ID), zap.String("role", su.Role))

	uierrors.WriteJSON(w, http.StatusOK, loginResponse{
		OK: true,
		User: sessionUserResponse{
			ID:       su.ID,
			Username: u.Username,
			Email:    u.Email,
			Role:     u.Role,
		},
	})
}

// ServeMe handles GET /api/auth/me and returns the signed-in user.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		h.ErrLog.Write(w, r, http.StatusUnauthorized, locale.MsgUnauthorized, "UNAUTHENTICATED")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, sessionUserResponse{
		ID:       u.ID,
		Username: u.Name,
		Email:    u.Email,
		Role:     u.Role,
	})
}
