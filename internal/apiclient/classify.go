package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/articlefeed/internal/model"
)

// errEmptyBody は2xxレスポンスのボディが空だった場合の原因エラー。
var errEmptyBody = errors.New("empty response body")

// decodeResponse はステータスコードに応じてoutへのデコードまたはエラー分類を行う。
func decodeResponse(resp *response, out any) error {
	if resp.statusCode < 200 || resp.statusCode > 299 {
		return ClassifyHTTPStatus(resp.statusCode, resp.body)
	}
	if out == nil {
		return nil
	}

	if len(bytes.TrimSpace(resp.body)) == 0 {
		// メッセージのみのエンドポイントは204など空ボディで応答することがある
		if _, ok := out.(*model.MessageResponse); ok {
			return nil
		}
		return &model.NetworkError{Kind: model.KindNoData, StatusCode: resp.statusCode, Err: errEmptyBody}
	}

	if err := json.Unmarshal(resp.body, out); err != nil {
		return model.NewDecodingError(err)
	}
	return nil
}

// ClassifyHTTPStatus は2xx以外のステータスコードをエラーに分類する。
// 401・403・404・429は固定の分類、それ以外の4xx/5xxは構造化エラーボディのmessageを
// ServerErrorとして返し、messageが無い場合はUnknownとする。4xx/5xx以外は常にUnknown。
func ClassifyHTTPStatus(statusCode int, body []byte) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return model.NewStatusError(model.KindUnauthorized, statusCode)
	case http.StatusForbidden:
		return model.NewStatusError(model.KindForbidden, statusCode)
	case http.StatusNotFound:
		return model.NewStatusError(model.KindNotFound, statusCode)
	case http.StatusTooManyRequests:
		return model.NewStatusError(model.KindRateLimitExceeded, statusCode)
	}

	if statusCode < 400 {
		return model.NewStatusError(model.KindUnknown, statusCode)
	}

	var errResp model.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return model.NewServerError(statusCode, errResp.Message)
	}
	return model.NewStatusError(model.KindUnknown, statusCode)
}
