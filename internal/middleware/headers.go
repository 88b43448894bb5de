package middleware

import (
	"net/http"
	"strings"
)

var (
	corsAllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	corsAllowedHeaders = []string{"Authorization", "Content-Type", RequestIDHeader}
	// レート制限時の待機秒数と相関IDをブラウザ側のクライアントから読めるようにする
	corsExposedHeaders = []string{RequestIDHeader, "Retry-After"}
)

// NewCORSMiddleware は開発サーバー用のCORSミドルウェアを返す。
// 認証はBearerトークンで行うためCredentialsは許可しない。
// プリフライト（OPTIONS）は後続に渡さず204で応答する。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	methods := strings.Join(corsAllowedMethods, ", ")
	allowed := strings.Join(corsAllowedHeaders, ", ")
	exposed := strings.Join(corsExposedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Add("Vary", "Origin")

			if r.Method != http.MethodOptions {
				h.Set("Access-Control-Expose-Headers", exposed)
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", allowed)
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

// NewNoStoreMiddleware はトークンを含むAPI応答をキャッシュさせないためのヘッダーを付与する。
func NewNoStoreMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "no-referrer")
			next.ServeHTTP(w, r)
		})
	}
}
