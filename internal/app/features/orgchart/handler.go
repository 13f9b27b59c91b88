// internal/app/features/orgchart/handler.go
package orgchart

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dalemusser/organigram/internal/app/system/auditlog"
	"github.com/dalemusser/organigram/internal/app/system/authz"
	"github.com/dalemusser/organigram/internal/app/system/inputval"
	"github.com/dalemusser/organigram/internal/app/system/limits"
	"github.com/dalemusser/organigram/internal/app/system/locale"
	"github.com/dalemusser/organigram/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler is the HTTP entry point for the org chart API.
type Handler struct {
	Svc           *Service
	AuditLog      *auditlog.Logger
	I18n          *locale.Translator
	DefaultLocale string
	Log           *zap.Logger
}

// NewHandler constructs an org chart Handler.
func NewHandler(svc *Service, audit *auditlog.Logger, tr *locale.Translator, defaultLocale string, logger *zap.Logger) *Handler {
	if tr == nil {
		tr = locale.NewTranslator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Svc:           svc,
		AuditLog:      audit,
		I18n:          tr,
		DefaultLocale: defaultLocale,
		Log:           logger,
	}
}

type errorResponse struct {
	Message string                `json:"message"`
	Code    Code                  `json:"code"`
	Issues  []inputval.FieldError `json:"issues,omitempty"`
}

// ServeList handles GET /api/org-chart.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	loc := locale.Resolve(r, h.DefaultLocale)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "orgchart.list")
	defer cancel()

	l, err := h.Svc.List(ctx)
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}
	if notModified(w, r, l.Version) {
		return
	}
	writeJSON(w, http.StatusOK, l.Nodes)
}

// ServeTree handles GET /api/org-chart/tree.
func (h *Handler) ServeTree(w http.ResponseWriter, r *http.Request) {
	loc := locale.Resolve(r, h.DefaultLocale)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "orgchart.tree")
	defer cancel()

	tree, version, err := h.Svc.Tree(ctx, h.I18n.T(loc, locale.MsgVirtualRoot))
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}
	if notModified(w, r, version+"-"+loc) {
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// ServeParentOptions handles GET /api/org-chart/{id}/parent-options.
func (h *Handler) ServeParentOptions(w http.ResponseWriter, r *http.Request) {
	loc := locale.Resolve(r, h.DefaultLocale)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "orgchart.parent_options")
	defer cancel()

	opts, err := h.Svc.ParentOptions(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// HandleCreate handles POST /api/org-chart.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	loc := locale.Resolve(r, h.DefaultLocale)
	actor := actorFrom(r)

	var in CreateInput
	if !h.decode(w, r, loc, &in) {
		return
	}
	in.Locale = loc

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "orgchart.create")
	defer cancel()

	node, err := h.Svc.Create(ctx, actor, in)
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}
	h.AuditLog.NodeCreated(context.WithoutCancel(ctx), r, actor.ID, node.ID, node.Name)
	writeJSON(w, http.StatusCreated, node)
}

// HandleUpdate handles PATCH /api/org-chart.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	loc := locale.Resolve(r, h.DefaultLocale)
	actor := actorFrom(r)

	var in UpdateInput
	if !h.decode(w, r, loc, &in) {
		return
	}
	in.Locale = loc

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "orgchart.update")
	defer cancel()

	node, changed, err := h.Svc.Update(ctx, actor, in)
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}
	if len(changed) > 0 {
		h.AuditLog.NodeUpdated(context.WithoutCancel(ctx), r, actor.ID, node.ID, strings.Join(changed, ","))
	}
	writeJSON(w, http.StatusOK, node)
}

// HandleDelete handles DELETE /api/org-chart?id=<nodeId>.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	loc := locale.Resolve(r, h.DefaultLocale)
	actor := actorFrom(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "orgchart.delete")
	defer cancel()

	node, moved, err := h.Svc.Delete(ctx, actor, r.URL.Query().Get("id"), loc)
	if err != nil {
		h.writeError(w, r, loc, err)
		return
	}
	h.AuditLog.NodeDeleted(context.WithoutCancel(ctx), r, actor.ID, node.ID, node.Name, moved)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, loc string, v any) bool {
	if _, _, _, ok := authz.UserCtx(r); !ok {
		h.writeError(w, r, loc, ErrUnauthenticated)
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxNodeBody))
	if err := dec.Decode(v); err != nil {
		h.writeError(w, r, loc, wrap(ErrValidation, err))
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, loc string, err error) {
	if e := asError(err); e != nil {
		domainErrors.WithLabelValues(string(e.Code)).Inc()
		writeJSON(w, e.Status, errorResponse{
			Message: h.I18n.T(loc, e.MessageID),
			Code:    e.Code,
			Issues:  e.Issues,
		})
		return
	}

	h.Log.Error("orgchart request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Message: h.I18n.T(loc, locale.MsgServerError),
		Code:    CodeServerError,
	})
}

func actorFrom(r *http.Request) Actor {
	role, _, id, ok := authz.UserCtx(r)
	if !ok {
		return Actor{}
	}
	return Actor{ID: id, Role: role}
}

// notModified sets the ETag for version and reports whether the client
// already holds it, in which case a 304 has been written.
func notModified(w http.ResponseWriter, r *http.Request, version string) bool {
	if version == "" {
		return false
	}
	etag := `"` + version + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		c := strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if c == etag || c == "*" {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
