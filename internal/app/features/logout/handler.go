// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	uierrors "github.com/dalemusser/organigram/internal/app/features/errors"
	"github.com/dalemusser/organigram/internal/app/system/auditlog"
	"github.com/dalemusser/organigram/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
	}
}

// ServeLogout handles POST /api/auth/logout (GET is accepted too).
// It always clears the session cookie, even when none was present.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	userID, err := h.SessionMgr.SignOut(w, r)
	if err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	h.AuditLog.Logout(r.Context(), r, userID)
	uierrors.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
