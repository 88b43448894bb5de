// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// リフレッシュ結果のラベル値
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
	// RefreshSkipped はリフレッシュトークンが無く呼び出しを行わなかった場合。
	RefreshSkipped = "skipped"
)

// MetricsCollector はメトリクス収集のインターフェース。
// APIクライアントと開発用サーバーのミドルウェアから利用する。
type MetricsCollector interface {
	// RecordRequest は1回のHTTP試行を記録する。statusCodeが0の場合は通信エラー。
	RecordRequest(method string, statusCode int, duration time.Duration)
	// RecordRefresh はトークンリフレッシュの結果を記録する。
	RecordRefresh(result string)
	// RecordServed は開発用サーバーが返したレスポンスを記録する。
	RecordServed(method string, statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requests        *prometheus.CounterVec
	requestDuration prometheus.Histogram
	refreshes       *prometheus.CounterVec
	served          *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "articlefeed_api_requests_total",
			Help: "バックエンドAPIへのHTTP試行数",
		}, []string{"method", "status_class"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "articlefeed_api_request_duration_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "articlefeed_token_refresh_total",
			Help: "トークンリフレッシュの結果別件数",
		}, []string{"result"}),
		served: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "articlefeed_devserver_responses_total",
			Help: "開発用サーバーが返したレスポンス数",
		}, []string{"method", "status_class"}),
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.refreshes,
		c.served,
	)

	return c
}

// RecordRequest はHTTP試行を記録する。
func (c *Collector) RecordRequest(method string, statusCode int, duration time.Duration) {
	c.requests.WithLabelValues(method, StatusClass(statusCode)).Inc()
	c.requestDuration.Observe(duration.Seconds())
}

// RecordRefresh はリフレッシュ結果を記録する。
func (c *Collector) RecordRefresh(result string) {
	c.refreshes.WithLabelValues(result).Inc()
}

// RecordServed は開発用サーバーのレスポンスを記録する。
func (c *Collector) RecordServed(method string, statusCode int) {
	c.served.WithLabelValues(method, StatusClass(statusCode)).Inc()
}

// StatusClass はステータスコードを "2xx" のような区分に丸める。0は "error"。
func StatusClass(statusCode int) string {
	if statusCode < 100 || statusCode > 599 {
		return "error"
	}
	return fmt.Sprintf("%dxx", statusCode/100)
}

// WriteTextfile はgathererの内容をnode_exporterのtextfile形式で書き出す。
// 短命なCLIプロセスのメトリクスを残すために使う。
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
