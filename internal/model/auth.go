package model

// RegisterRequest はユーザー登録のリクエストボディ。
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest はログインのリクエストボディ。
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshTokenRequest はトークン更新のリクエストボディ。
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// PasswordResetRequest はパスワードリセットメール送信のリクエストボディ。
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest はパスワード再設定のリクエストボディ。
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// VerifyEmailRequest はメールアドレス確認のリクエストボディ。
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// ResendVerificationRequest は確認メール再送のリクエストボディ。
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// AuthResponse はログイン・トークン更新・メール確認のレスポンス。
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	UserID       int64  `json:"userId"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Message      string `json:"message,omitempty"`
}

// HasTokens はトークン一式が含まれているかを返す。
func (r AuthResponse) HasTokens() bool {
	return r.AccessToken != "" && r.RefreshToken != ""
}

// MessageResponse はメッセージのみを返すエンドポイントのレスポンス。
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse はバックエンドの構造化エラーボディ。
type ErrorResponse struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}
