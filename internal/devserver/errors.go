package devserver

import (
	"fmt"
	"net/http"
)

// Error はHTTPステータスとクライアントに返すメッセージを持つエラー。
// ハンドラーはStatusとMessageをそのままエラーレスポンスに使う。
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func badRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// 定義済みエラー
var (
	ErrEmailTaken         = &Error{Status: http.StatusConflict, Message: "Email is already registered"}
	ErrInvalidCredentials = &Error{Status: http.StatusUnauthorized, Message: "Invalid email or password"}
	ErrEmailNotVerified   = &Error{Status: http.StatusForbidden, Message: "Please verify your email before logging in"}
	ErrAlreadyVerified    = &Error{Status: http.StatusBadRequest, Message: "Email is already verified"}
	ErrInvalidVerifyToken = &Error{Status: http.StatusBadRequest, Message: "Invalid or expired verification token"}
	ErrInvalidResetToken  = &Error{Status: http.StatusBadRequest, Message: "Invalid or expired reset token"}
	ErrInvalidRefresh     = &Error{Status: http.StatusUnauthorized, Message: "Invalid or expired refresh token"}
	ErrInvalidAccess      = &Error{Status: http.StatusUnauthorized, Message: "Invalid or expired access token"}
	ErrUserNotFound       = &Error{Status: http.StatusUnauthorized, Message: "User no longer exists"}
	ErrArticleNotFound    = &Error{Status: http.StatusNotFound, Message: "Article not found"}
	ErrNotAuthor          = &Error{Status: http.StatusForbidden, Message: "You can only modify your own articles"}
)
