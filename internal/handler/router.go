package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/articlefeed/internal/metrics"
	"github.com/hitoshi/articlefeed/internal/middleware"
	"github.com/hitoshi/articlefeed/internal/model"
)

// Backend はルーター全体が必要とするバックエンドのインターフェース。
// devserver.Backendが実装する。
type Backend interface {
	AuthBackend
	ArticleBackend
	middleware.TokenVerifier
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Backend Backend
	// Prefix はAPIのバージョン付きパス（例: /api/v1）。
	Prefix string
	Logger *slog.Logger

	// 以下は任意。nilまたは空の場合は該当機能を無効にする。
	RateLimiter *middleware.RateLimiter
	Metrics     middleware.ResponseRecorder
	Gatherer    prometheus.Gatherer
	CORSOrigin  string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → Logging → NoStore → CORS → (BearerAuth) → RateLimit
//
// ログイン・登録などの認証情報系ルートには一般より厳しいレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewNoStoreMiddleware())
	if deps.CORSOrigin != "" {
		r.Use(middleware.NewCORSMiddleware(deps.CORSOrigin))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, model.MessageResponse{Message: "ok"})
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	general := passThrough
	credential := passThrough
	if deps.RateLimiter != nil {
		general = deps.RateLimiter.GeneralMiddleware()
		credential = deps.RateLimiter.CredentialMiddleware()
	}
	requireAuth := middleware.NewBearerAuthMiddleware(deps.Backend)

	authHandler := NewAuthHandler(deps.Backend)
	articleHandler := NewArticleHandler(deps.Backend)

	r.Route(normalizePrefix(deps.Prefix), func(r chi.Router) {
		// --- 認証 ---
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(credential)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/forgot-password", authHandler.ForgotPassword)
				r.Post("/reset-password", authHandler.ResetPassword)
				r.Post("/verify-email", authHandler.VerifyEmail)
				r.Post("/resend-verification", authHandler.ResendVerification)
			})
			r.With(general).Post("/refresh", authHandler.Refresh)
			r.With(requireAuth, general).Post("/logout", authHandler.Logout)
		})

		// --- 記事（要認証） ---
		r.Route("/articles", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(general)

			r.Get("/", articleHandler.List)
			r.Post("/", articleHandler.Create)
			r.Get("/search", articleHandler.Search)
			r.Get("/my", articleHandler.My)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", articleHandler.Get)
				r.Put("/", articleHandler.Update)
				r.Delete("/", articleHandler.Delete)
			})
		})
	})

	return r
}

func passThrough(next http.Handler) http.Handler {
	return next
}

// normalizePrefix は先頭にスラッシュを付け、末尾のスラッシュを除く。空の場合は"/"。
func normalizePrefix(prefix string) string {
	for len(prefix) > 0 && prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}
	if prefix == "" {
		return "/"
	}
	if prefix[0] != '/' {
		prefix = "/" + prefix
	}
	return prefix
}
