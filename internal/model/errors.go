// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrorKind はクライアントが扱うエラーの分類を表す。
type ErrorKind string

// 定義済みエラー分類
const (
	KindInvalidInput      ErrorKind = "INVALID_INPUT"
	KindInvalidURL        ErrorKind = "INVALID_URL"
	KindNoData            ErrorKind = "NO_DATA"
	KindDecodingError     ErrorKind = "DECODING_ERROR"
	KindUnauthorized      ErrorKind = "UNAUTHORIZED"
	KindForbidden         ErrorKind = "FORBIDDEN"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindRateLimitExceeded ErrorKind = "RATE_LIMIT_EXCEEDED"
	KindServerError       ErrorKind = "SERVER_ERROR"
	KindUnknown           ErrorKind = "UNKNOWN"
)

// defaultMessages は分類ごとのユーザー向けメッセージ。
var defaultMessages = map[ErrorKind]string{
	KindInvalidInput:      "Invalid input",
	KindInvalidURL:        "Invalid URL",
	KindNoData:            "No data received from server",
	KindDecodingError:     "Failed to decode server response",
	KindUnauthorized:      "Session expired. Please login again.",
	KindForbidden:         "You don't have permission to perform this action",
	KindNotFound:          "Resource not found",
	KindRateLimitExceeded: "Too many requests. Please try again later.",
	KindServerError:       "Server error",
	KindUnknown:           "An unexpected error occurred",
}

// NetworkError はAPI呼び出しおよびローカル検証のエラーを表す。
// Messageはそのままエラーフィールドに表示できる文言を持つ。
type NetworkError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int   // HTTPレスポンス由来の場合のみ設定される
	Err        error // 原因となったエラー（任意）
}

// Error はerrorインターフェースを実装する。
func (e *NetworkError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if msg, ok := defaultMessages[e.Kind]; ok {
		return msg
	}
	return defaultMessages[KindUnknown]
}

// Unwrap は原因エラーを返す。
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is は分類が一致する場合にtrueを返す。
// errors.Is(err, model.ErrNotFound) のように番兵値と比較できる。
func (e *NetworkError) Is(target error) bool {
	t, ok := target.(*NetworkError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// 分類比較用の番兵値
var (
	ErrInvalidInput      = &NetworkError{Kind: KindInvalidInput}
	ErrInvalidURL        = &NetworkError{Kind: KindInvalidURL}
	ErrNoData            = &NetworkError{Kind: KindNoData}
	ErrDecoding          = &NetworkError{Kind: KindDecodingError}
	ErrUnauthorized      = &NetworkError{Kind: KindUnauthorized}
	ErrForbidden         = &NetworkError{Kind: KindForbidden}
	ErrNotFound          = &NetworkError{Kind: KindNotFound}
	ErrRateLimitExceeded = &NetworkError{Kind: KindRateLimitExceeded}
	ErrServer            = &NetworkError{Kind: KindServerError}
	ErrUnknown           = &NetworkError{Kind: KindUnknown}
)

// NewInvalidInputError はローカル検証エラーを生成する。ネットワークには到達しない。
func NewInvalidInputError(message string) *NetworkError {
	return &NetworkError{Kind: KindInvalidInput, Message: message}
}

// NewInvalidURLError は不正なURLエラーを生成する。
func NewInvalidURLError(err error) *NetworkError {
	return &NetworkError{Kind: KindInvalidURL, Err: err}
}

// NewDecodingError はレスポンスのデコード失敗エラーを生成する。
func NewDecodingError(err error) *NetworkError {
	return &NetworkError{Kind: KindDecodingError, Err: err}
}

// NewServerError はサーバーが返したメッセージをそのまま持つエラーを生成する。
func NewServerError(statusCode int, message string) *NetworkError {
	return &NetworkError{Kind: KindServerError, StatusCode: statusCode, Message: message}
}

// NewUnknownError は分類不能なエラーを生成する。
func NewUnknownError(err error) *NetworkError {
	return &NetworkError{Kind: KindUnknown, Err: err}
}

// NewStatusError はHTTPステータスから分類済みエラーを生成する。
func NewStatusError(kind ErrorKind, statusCode int) *NetworkError {
	return &NetworkError{Kind: kind, StatusCode: statusCode}
}

// KindOf はエラーの分類を返す。NetworkErrorでない場合はKindUnknown。
func KindOf(err error) ErrorKind {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Kind
	}
	return KindUnknown
}

// MessageOf はエラーフィールドに表示する文言を返す。
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Error()
	}
	return fmt.Sprintf("%s: %v", defaultMessages[KindUnknown], err)
}
