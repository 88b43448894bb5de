package handler

import (
	"net/http"

	"github.com/hitoshi/articlefeed/internal/middleware"
	"github.com/hitoshi/articlefeed/internal/model"
)

// AuthBackend は認証ハンドラーが必要とするバックエンドのインターフェース。
type AuthBackend interface {
	Register(req model.RegisterRequest) (string, error)
	Login(req model.LoginRequest) (*model.AuthResponse, error)
	Refresh(refreshToken string) (*model.AuthResponse, error)
	Logout(userID int64) string
	ForgotPassword(email string) (string, error)
	ResetPassword(req model.ResetPasswordRequest) (string, error)
	VerifyEmail(token string) (*model.AuthResponse, error)
	ResendVerification(email string) (string, error)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	backend AuthBackend
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(backend AuthBackend) *AuthHandler {
	return &AuthHandler{backend: backend}
}

// Register はユーザーを登録する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.backend.Register(req)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, model.MessageResponse{Message: msg})
}

// Login はトークン一式を返す。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.backend.Login(req)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Refresh はリフレッシュトークンを新しいトークン一式に交換する。
// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		middleware.WriteError(w, r, http.StatusBadRequest, "Refresh token is required")
		return
	}
	resp, err := h.backend.Refresh(req.RefreshToken)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Logout は認証済みユーザーのリフレッシュトークンを失効させる。
// POST /auth/logout（要認証）
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, model.MessageResponse{Message: h.backend.Logout(userID)})
}

// ForgotPassword はパスワードリセットを受け付ける。
// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.PasswordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.backend.ForgotPassword(req.Email)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, model.MessageResponse{Message: msg})
}

// ResetPassword はリセットトークンでパスワードを再設定する。
// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.backend.ResetPassword(req)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, model.MessageResponse{Message: msg})
}

// VerifyEmail はメール確認トークンを検証してトークン一式を返す。
// POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.backend.VerifyEmail(req.Token)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// ResendVerification は確認メールを再送する。
// POST /auth/resend-verification
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req model.ResendVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.backend.ResendVerification(req.Email)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, model.MessageResponse{Message: msg})
}
