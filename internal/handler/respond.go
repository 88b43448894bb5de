// Package handler は開発用バックエンドのHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/articlefeed/internal/devserver"
	"github.com/hitoshi/articlefeed/internal/middleware"
)

// maxBodySize はリクエストボディの上限。
const maxBodySize = 1 << 20

// decodeJSON はリクエストボディをvにデコードする。失敗時は400を書き込みfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// handleBackendError はバックエンドのエラーをHTTPレスポンスに変換する。
// devserver.Error以外は内部エラーとしてログに記録し、詳細は返さない。
func handleBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var de *devserver.Error
	if errors.As(err, &de) {
		middleware.WriteError(w, r, de.Status, de.Message)
		return
	}
	slog.Error("unhandled backend error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w, r)
}

// queryInt はクエリパラメータを整数として読む。未指定ならdefを返す。
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
