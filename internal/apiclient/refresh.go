package apiclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/articlefeed/internal/metrics"
	"github.com/hitoshi/articlefeed/internal/model"
)

// RefreshError はトークンリフレッシュの失敗を表す。
// 元のエラーをそのまま包み、メッセージとerrors.Isの結果は変わらない。
// 呼び出し元はerrors.Asで「リフレッシュに失敗した」ことを区別できる。
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return e.Err.Error()
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// refresh はリフレッシュトークンでアクセストークンを更新する。
// リフレッシュトークンが無い場合は呼び出しを行わずUnauthorizedを返す。
// 失敗してもセッションは消去しない（強制ログアウトは呼び出し元の判断）。
func (c *Client) refresh(ctx context.Context) error {
	refreshToken, ok := c.tokens.RefreshToken()
	if !ok {
		c.recordRefresh(metrics.RefreshSkipped)
		return model.NewStatusError(model.KindUnauthorized, http.StatusUnauthorized)
	}

	var resp model.AuthResponse
	err := c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: refreshEndpoint,
		Body:     model.RefreshTokenRequest{RefreshToken: refreshToken},
		SkipAuth: true,
	}, &resp)
	if err == nil && !resp.HasTokens() {
		err = &model.NetworkError{Kind: model.KindNoData, Err: fmt.Errorf("refresh response has no tokens")}
	}
	if err == nil {
		err = c.tokens.UpdateTokens(ctx, resp.AccessToken, resp.RefreshToken)
	}
	if err != nil {
		c.recordRefresh(metrics.RefreshFailure)
		c.logger.Warn("token refresh failed", slog.String("error", err.Error()))
		return &RefreshError{Err: err}
	}

	c.recordRefresh(metrics.RefreshSuccess)
	c.logger.Debug("token refreshed")
	return nil
}

func (c *Client) recordRefresh(result string) {
	if c.metrics != nil {
		c.metrics.RecordRefresh(result)
	}
}
