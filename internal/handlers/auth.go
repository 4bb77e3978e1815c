package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ryancalacsan/quotecraft-sub000/auth"
	"github.com/ryancalacsan/quotecraft-sub000/httpx"
	"github.com/ryancalacsan/quotecraft-sub000/internal/models"
	"github.com/ryancalacsan/quotecraft-sub000/validation"
)

type AuthHandler struct {
	DB  *gorm.DB
	Log *slog.Logger
}

func NewAuthHandler(db *gorm.DB, log *slog.Logger) *AuthHandler {
	return &AuthHandler{DB: db, Log: log}
}

type credentialsReq struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	BusinessName string `json:"business_name"`
}

// Register: POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("email", req.Email, v)
	validation.Email("email", req.Email, v)
	if len(req.Password) < 8 {
		v["password"] = "too_short"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("hash password", "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	user := models.User{Email: req.Email, Password: hash, Name: req.Name, BusinessName: req.BusinessName}
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			httpx.JSONError(w, http.StatusConflict, "email_taken", nil)
			return
		}
		h.Log.Error("create user", "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if err := auth.CreateSession(w, auth.Identity{UserID: user.ID}); err != nil {
		h.Log.Error("create session", "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": user.ID, "email": user.Email})
}

// Login: POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	id := auth.Identity{UserID: user.ID, SessionScope: user.SessionID}
	if err := auth.CreateSession(w, id); err != nil {
		h.Log.Error("create session", "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": user.ID, "email": user.Email})
}

// Demo: POST /auth/demo creates an ephemeral user whose data lives in its own
// session scope; it never mixes with permanent accounts.
func (h *AuthHandler) Demo(w http.ResponseWriter, r *http.Request) {
	scope := uuid.NewString()
	hash, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		h.Log.Error("hash password", "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	user := models.User{
		Email:     fmt.Sprintf("demo-%s@demo.local", scope[:8]),
		Password:  hash,
		Name:      "Demo",
		Demo:      true,
		SessionID: &scope,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		h.Log.Error("create demo user", "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if err := auth.CreateSession(w, auth.Identity{UserID: user.ID, SessionScope: &scope}); err != nil {
		h.Log.Error("create session", "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": user.ID, "demo": true})
}

// Logout: POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
