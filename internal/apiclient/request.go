package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/articlefeed/internal/model"
)

// Request は1回の論理リクエストを表す。
type Request struct {
	// Method はHTTPメソッド。空の場合はGET。
	Method string
	// Endpoint はプレフィックス以降のパス（例: "/articles/5"）。
	Endpoint string
	Query    url.Values
	// Body はJSONとして送信される。nilの場合はボディなし。
	Body any
	// SkipAuth がtrueの場合はトークンを付与せず、401でもリフレッシュしない。
	SkipAuth bool
}

// response は1回の試行の結果。
type response struct {
	statusCode int
	body       []byte
}

// Do はリクエストを実行し、2xxの場合はレスポンスをoutにデコードする。
//
// 認証付きリクエストが401を返した場合、リフレッシュを1回行って元のリクエストを
// 同じパラメータで1回だけ再試行する。再試行の結果はそのまま返す。
// 返すエラーはmodel.NetworkErrorに分類済み。
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	requireAuth := !req.SkipAuth

	target, err := c.buildURL(req.Endpoint, req.Query)
	if err != nil {
		return err
	}

	var payload []byte
	if req.Body != nil {
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return model.NewUnknownError(fmt.Errorf("failed to marshal request body: %w", err))
		}
	}

	// 再試行しても同じ論理リクエストとして追跡できるようIDは1つだけ発行する
	requestID := uuid.NewString()

	for attempt := 1; ; attempt++ {
		resp, err := c.send(ctx, method, target, payload, requireAuth, requestID)
		if err != nil {
			return err
		}

		if resp.statusCode == http.StatusUnauthorized && requireAuth && attempt < maxAttempts {
			c.logger.Debug("access token rejected, refreshing",
				slog.String("method", method),
				slog.String("endpoint", req.Endpoint),
				slog.String("request_id", requestID),
			)
			if err := c.refresh(ctx); err != nil {
				return err
			}
			continue
		}

		return decodeResponse(resp, out)
	}
}

// buildURL はベースURL・プレフィックス・エンドポイントを連結する。
func (c *Client) buildURL(endpoint string, query url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + c.apiPrefix + endpoint)
	if err != nil {
		return "", model.NewInvalidURLError(err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", model.NewInvalidURLError(fmt.Errorf("url %q must be an absolute http(s) url", u.String()))
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// send は1回のHTTP試行を実行する。通信エラーはUnknownに分類して返す。
func (c *Client) send(ctx context.Context, method, target string, payload []byte, requireAuth bool, requestID string) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, model.NewUnknownError(fmt.Errorf("rate limiter: %w", err))
		}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, model.NewInvalidURLError(err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-Id", requestID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if requireAuth {
		// トークンが無くてもリクエストは送り、サーバーの判断に任せる
		if token, ok := c.tokens.AccessToken(); ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.record(method, 0, time.Since(start))
		c.logger.Warn("request failed",
			slog.String("method", method),
			slog.String("url", target),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewUnknownError(err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	c.record(method, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, model.NewUnknownError(fmt.Errorf("failed to read response body: %w", err))
	}

	c.logger.Debug("request completed",
		slog.String("method", method),
		slog.String("url", target),
		slog.Int("status", httpResp.StatusCode),
		slog.String("request_id", requestID),
	)

	return &response{statusCode: httpResp.StatusCode, body: respBody}, nil
}

func (c *Client) record(method string, statusCode int, d time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordRequest(method, statusCode, d)
	}
}
