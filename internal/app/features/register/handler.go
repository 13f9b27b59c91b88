// internal/app/features/register/handler.go
package register

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/organigram/internal/app/features/errors"
	userstore "github.com/dalemusser/organigram/internal/app/store/users"
	"github.com/dalemusser/organigram/internal/app/system/auditlog"
	"github.com/dalemusser/organigram/internal/app/system/inputval"
	"github.com/dalemusser/organigram/internal/app/system/limits"
	"github.com/dalemusser/organigram/internal/app/system/locale"
	"github.com/dalemusser/organigram/internal/app/system/normalize"
	"github.com/dalemusser/organigram/internal/app/system/timeouts"
	"github.com/dalemusser/organigram/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Users    *userstore.Store
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(users *userstore.Store, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    users,
		ErrLog:   errLog,
		AuditLog: audit,
		Log:      logger,
	}
}

type registerInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"` // bcrypt input limit
}

type registerResponse struct {
	OK   bool   `json:"ok"`
	Role string `json:"role"`
}

// HandleRegister handles POST /api/auth/register.
//
// Success: 201 {"ok":true,"role":"USER"}. A taken email or username is a 409.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxAuthBody)).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "register: decode body", err, locale.MsgFillAllFields)
		return
	}
	in.Username = normalize.Username(in.Username)
	in.Email = normalize.Email(in.Email)
	in.Password = strings.TrimSpace(in.Password)

	if res := inputval.Validate(in); res.HasErrors() {
		h.ErrLog.Write(w, r, http.StatusBadRequest, locale.MsgFillAllFields, "VALIDATION_FAILED")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "register")
	defer cancel()

	taken, err := h.Users.Exists(ctx, in.Email, in.Username)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "register: check existing user", err)
		return
	}
	if taken {
		h.ErrLog.Write(w, r, http.StatusConflict, locale.MsgAccountExists, "ACCOUNT_EXISTS")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "register: hash password", err)
		return
	}

	u, err := h.Users.Create(ctx, models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	})
	if errors.Is(err, userstore.ErrDuplicateUser) {
		h.ErrLog.Write(w, r, http.StatusConflict, locale.MsgAccountExists, "ACCOUNT_EXISTS")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "register: create user", err)
		return
	}

	h.AuditLog.UserRegistered(ctx, r, u.ID, u.Username, u.Role)
	uierrors.WriteJSON(w, http.StatusCreated, registerResponse{OK: true, Role: strings.ToUpper(u.Role)})
}
