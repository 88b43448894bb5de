// Package repository はローカル永続化のインターフェースと実装を提供する。
package repository

import "context"

// SessionRepository は認証状態を保存するキーバリュー永続化のインターフェース。
// セッションストアに注入され、キー群をひとまとまりとして読み書きする。
type SessionRepository interface {
	// Load は保存されている全キーを返す。未保存の場合は空マップを返す。
	Load(ctx context.Context) (map[string]string, error)

	// Save は保存内容を指定されたキー群で丸ごと置き換える。
	// 途中失敗で一部のキーだけが書き換わることはない。
	Save(ctx context.Context, values map[string]string) error

	// Clear は保存されている全キーを削除する。
	Clear(ctx context.Context) error
}

// copyValues はマップを複製する。呼び出し元と内部状態を共有しないために使う。
func copyValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
