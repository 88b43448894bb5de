// Package apiclient は記事バックエンドへのHTTPアクセスを提供する。
//
// Clientは1回の論理リクエストを実行し、Bearerトークンの付与、
// レスポンスのデコード、ステータスコードの分類、
// 401時の1回限りのトークンリフレッシュと再試行を行う。
package apiclient

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/articlefeed/internal/metrics"
)

// ビルド時に -ldflags "-X" で差し替え可能な接続先。
var (
	DefaultBaseURL   = "https://articlems-backend.onrender.com"
	DefaultAPIPrefix = "/api/v1"
)

const (
	// DefaultTimeout はHTTPクライアントのデフォルトタイムアウト。
	DefaultTimeout = 30 * time.Second
	// maxAttempts は元の試行とリフレッシュ後の再試行を合わせた上限。
	maxAttempts = 2
	// refreshEndpoint はトークン更新のエンドポイント。
	refreshEndpoint = "/auth/refresh"
	// maxResponseSize はレスポンスボディの読み取り上限（10MB）。
	maxResponseSize = 10 << 20

	userAgent = "articlefeed/1.0"
)

// TokenStore はClientがトークンの読み出しと更新に使うインターフェース。
// session.Storeが実装する。
type TokenStore interface {
	AccessToken() (string, bool)
	RefreshToken() (string, bool)
	UpdateTokens(ctx context.Context, accessToken, refreshToken string) error
}

// Client はバックエンドAPIのクライアント。
type Client struct {
	baseURL    string
	apiPrefix  string
	httpClient *http.Client
	tokens     TokenStore
	limiter    *rate.Limiter
	metrics    metrics.MetricsCollector
	logger     *slog.Logger
	userAgent  string
}

// Option はClientの設定を変更する。
type Option func(*Client)

// WithBaseURL は接続先のベースURLとバージョン付きパスプレフィックスを設定する。
func WithBaseURL(baseURL, apiPrefix string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
		c.apiPrefix = apiPrefix
	}
}

// WithHTTPClient はHTTPクライアントを差し替える。
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimiter は各試行の前に待機するレートリミッタを設定する。
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithMetrics はメトリクスの記録先を設定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger はロガーを設定する。
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUserAgent はUser-Agentヘッダを設定する。
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New はClientを生成する。tokensは認証付きリクエストのトークン供給元。
func New(tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiPrefix:  DefaultAPIPrefix,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		tokens:     tokens,
		logger:     slog.Default(),
		userAgent:  userAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL は接続先のベースURLとプレフィックスを連結して返す。
func (c *Client) BaseURL() string {
	return c.baseURL + c.apiPrefix
}
