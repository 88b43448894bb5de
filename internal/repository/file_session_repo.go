package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sealer はファイルに書き込む内容を暗号化・復号するインターフェース。
// security.Sealerが実装する。
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// FileSessionRepo はJSONファイルにセッションを保存するリポジトリ。
// 書き込みは一時ファイルへの書き出しとリネームで行い、途中状態のファイルを残さない。
type FileSessionRepo struct {
	mu     sync.Mutex
	path   string
	sealer Sealer // nilの場合は平文で保存する
}

// NewFileSessionRepo はFileSessionRepoを生成する。
func NewFileSessionRepo(path string, sealer Sealer) *FileSessionRepo {
	return &FileSessionRepo{path: path, sealer: sealer}
}

// Path は保存先のファイルパスを返す。
func (r *FileSessionRepo) Path() string {
	return r.path
}

// Load はファイルから全キーを読み込む。ファイルが存在しない場合は空マップを返す。
func (r *FileSessionRepo) Load(_ context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if r.sealer != nil {
		data, err = r.sealer.Open(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt session file: %w", err)
		}
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return values, nil
}

// Save は全キーを1つのファイルとして書き込む。
func (r *FileSessionRepo) Save(_ context.Context, values map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if r.sealer != nil {
		data, err = r.sealer.Seal(data)
		if err != nil {
			return fmt.Errorf("failed to encrypt session: %w", err)
		}
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // リネーム成功後は存在しないため無視される

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("failed to chmod session file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Clear はセッションファイルを削除する。
func (r *FileSessionRepo) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionRepository = (*FileSessionRepo)(nil)
