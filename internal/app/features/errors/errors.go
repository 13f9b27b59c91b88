// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/organigram/internal/app/system/locale"
	"go.uber.org/zap"
)

// Body is the JSON error shape shared by every API endpoint.
type Body struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WriteJSON writes v as the JSON response body with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorLogger writes localized JSON errors and logs server failures.
type ErrorLogger struct {
	log           *zap.Logger
	i18n          *locale.Translator
	defaultLocale string
}

// NewErrorLogger constructs an ErrorLogger. tr may be nil.
func NewErrorLogger(logger *zap.Logger, tr *locale.Translator, defaultLocale string) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tr == nil {
		tr = locale.NewTranslator()
	}
	return &ErrorLogger{log: logger, i18n: tr, defaultLocale: defaultLocale}
}

// Locale resolves the request's locale with the configured default.
func (e *ErrorLogger) Locale(r *http.Request) string {
	return locale.Resolve(r, e.defaultLocale)
}

// Write sends status with the message for msgID in the request's locale.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, status int, msgID, code string) {
	WriteJSON(w, status, Body{Message: e.i18n.T(e.Locale(r), msgID), Code: code})
}

// LogServerError logs err with context and responds 500 without details.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, what string, err error) {
	e.log.Error(what,
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	e.Write(w, r, http.StatusInternalServerError, locale.MsgGenericError, "SERVER_ERROR")
}

// LogBadRequest logs at debug level and responds 400 with msgID.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, what string, err error, msgID string) {
	e.log.Debug(what, zap.String("path", r.URL.Path), zap.Error(err))
	e.Write(w, r, http.StatusBadRequest, msgID, "VALIDATION_FAILED")
}

// Handler serves the fallback error routes.
type Handler struct {
	ErrLog *ErrorLogger
}

// NewHandler constructs an errors Handler.
func NewHandler(errLog *ErrorLogger) *Handler {
	return &Handler{ErrLog: errLog}
}

// NotFound is the router's fallback for unknown paths.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.ErrLog.Write(w, r, http.StatusNotFound, locale.MsgNotFound, "NOT_FOUND")
}

// MethodNotAllowed is the router's fallback for known paths with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusMethodNotAllowed, Body{Message: http.StatusText(http.StatusMethodNotAllowed), Code: "METHOD_NOT_ALLOWED"})
}
