package repository

import (
	"context"
	"sync"
)

// MemorySessionRepo はプロセス内メモリに保持するセッションリポジトリ。
// テストおよび永続化不要な実行で使用する。
type MemorySessionRepo struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemorySessionRepo はMemorySessionRepoを生成する。
func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{values: make(map[string]string)}
}

// Load は保存されている全キーの複製を返す。
func (r *MemorySessionRepo) Load(_ context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyValues(r.values), nil
}

// Save は保存内容を置き換える。
func (r *MemorySessionRepo) Save(_ context.Context, values map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = copyValues(values)
	return nil
}

// Clear は全キーを削除する。
func (r *MemorySessionRepo) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = make(map[string]string)
	return nil
}

// compile-time interface check
var _ SessionRepository = (*MemorySessionRepo)(nil)
