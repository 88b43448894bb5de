package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
// session_entriesテーブルにnamespace単位でキーを保存する。
type PostgresSessionRepo struct {
	db        *sql.DB
	namespace string
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB, namespace string) *PostgresSessionRepo {
	if namespace == "" {
		namespace = "default"
	}
	return &PostgresSessionRepo{db: db, namespace: namespace}
}

// Load はnamespaceに属する全キーを取得する。
func (r *PostgresSessionRepo) Load(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM session_entries WHERE namespace = $1`,
		r.namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load session entries: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan session entry: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session entries: %w", err)
	}
	return values, nil
}

// Save はnamespaceの内容を同一トランザクション内で削除・再作成する。
func (r *PostgresSessionRepo) Save(ctx context.Context, values map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM session_entries WHERE namespace = $1`,
		r.namespace,
	); err != nil {
		return fmt.Errorf("failed to delete session entries: %w", err)
	}

	for k, v := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_entries (namespace, key, value, updated_at)
			 VALUES ($1, $2, $3, now())`,
			r.namespace, k, v,
		); err != nil {
			return fmt.Errorf("failed to insert session entry %q: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Clear はnamespaceの全キーを削除する。
func (r *PostgresSessionRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM session_entries WHERE namespace = $1`,
		r.namespace,
	)
	if err != nil {
		return fmt.Errorf("failed to clear session entries: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
