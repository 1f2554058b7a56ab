package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/inventario/internal/auth"
	"github.com/erazemk/inventario/internal/store"
)

// OperatorSubject is the token subject of the single local operator.
const OperatorSubject = "operator"

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
	Validate  *validator.Validate
}

type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		jsonError(w, http.StatusBadRequest, "password required")
		return
	}

	hash, err := store.GetOperatorPasswordHash(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to load operator password", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if hash == "" || !auth.CheckPassword(hash, req.Password) {
		slog.Warn("login failed", "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, OperatorSubject)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("operator logged in", "remote", r.RemoteAddr)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		jsonError(w, http.StatusBadRequest, "current password and a new password of at least 8 characters required")
		return
	}

	hash, err := store.GetOperatorPasswordHash(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !auth.CheckPassword(hash, req.CurrentPassword) {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	if err := store.SetOperatorPasswordHash(r.Context(), h.DB, newHash); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	slog.Info("operator changed password")
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
