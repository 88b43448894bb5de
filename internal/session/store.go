// Package session はクライアント側の認証状態（トークンとユーザー情報）を管理する。
//
// Storeは注入されたrepository.SessionRepositoryに全キーをひとまとまりで書き込み、
// 起動時のLoadでメモリ上の認証状態を復元する。
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/hitoshi/articlefeed/internal/model"
	"github.com/hitoshi/articlefeed/internal/repository"
)

// 永続化キー
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserID       = "userId"
	KeyUserEmail    = "userEmail"
	KeyUserName     = "userName"
	KeyIsLoggedIn   = "isLoggedIn"
)

// ErrIncompleteSession はトークンの片方だけを保存しようとした場合のエラー。
var ErrIncompleteSession = errors.New("access token and refresh token must both be set")

// Store は現在のセッションをメモリと永続化層の両方で保持する。
// 並行するAPI呼び出し（トークン読み出しとリフレッシュ）から安全に使える。
type Store struct {
	repo   repository.SessionRepository
	logger *slog.Logger

	mu      sync.RWMutex
	current *model.Session
}

// NewStore はStoreを生成する。Loadを呼ぶまでは未認証状態。
func NewStore(repo repository.SessionRepository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{repo: repo, logger: logger}
}

// Load は永続化層からセッションを読み込み、メモリ上の状態を再構築する。
// 保存されていない、またはトークンの不変条件を満たさない場合はnilを返し未認証となる。
func (s *Store) Load(ctx context.Context) (*model.Session, error) {
	values, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess, ok := decode(values)
	if !ok {
		if len(values) > 0 {
			s.logger.Warn("persisted session is incomplete, treating as logged out")
		}
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		return nil, nil
	}

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()

	out := sess
	return &out, nil
}

// Save はセッションの全フィールドをまとめて永続化し、認証済み状態にする。
func (s *Store) Save(ctx context.Context, sess model.Session) error {
	if !sess.Valid() {
		return ErrIncompleteSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, encode(sess)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.current = &sess
	return nil
}

// UpdateTokens はユーザー情報を保ったまま両トークンを置き換える。
// トークンリフレッシュ成功時にAPIクライアントから呼ばれる。
func (s *Store) UpdateTokens(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken == "" || refreshToken == "" {
		return ErrIncompleteSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var next model.Session
	if s.current != nil {
		next = *s.current
	}
	next.AccessToken = accessToken
	next.RefreshToken = refreshToken

	if err := s.repo.Save(ctx, encode(next)); err != nil {
		return fmt.Errorf("failed to save refreshed tokens: %w", err)
	}
	s.current = &next
	return nil
}

// Clear は全キーを削除して未認証状態にする。
// 永続化層の削除に失敗してもメモリ上は未認証になる。
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// AccessToken は現在のアクセストークンを返す。
func (s *Store) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil || s.current.AccessToken == "" {
		return "", false
	}
	return s.current.AccessToken, true
}

// RefreshToken は現在のリフレッシュトークンを返す。
func (s *Store) RefreshToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil || s.current.RefreshToken == "" {
		return "", false
	}
	return s.current.RefreshToken, true
}

// Current は現在のセッションの複製を返す。未認証の場合はnil。
func (s *Store) Current() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	out := *s.current
	return &out
}

// CurrentUser はセッションから導出したユーザーを返す。
func (s *Store) CurrentUser() (model.User, bool) {
	sess := s.Current()
	if sess == nil {
		return model.User{}, false
	}
	return sess.User(), true
}

// IsAuthenticated は認証済みかを返す。
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

func encode(sess model.Session) map[string]string {
	return map[string]string{
		KeyAccessToken:  sess.AccessToken,
		KeyRefreshToken: sess.RefreshToken,
		KeyUserID:       strconv.FormatInt(sess.UserID, 10),
		KeyUserEmail:    sess.Email,
		KeyUserName:     sess.Name,
		KeyIsLoggedIn:   strconv.FormatBool(true),
	}
}

func decode(values map[string]string) (model.Session, bool) {
	loggedIn, _ := strconv.ParseBool(values[KeyIsLoggedIn])
	if !loggedIn {
		return model.Session{}, false
	}

	sess := model.Session{
		AccessToken:  values[KeyAccessToken],
		RefreshToken: values[KeyRefreshToken],
		Email:        values[KeyUserEmail],
		Name:         values[KeyUserName],
	}
	if !sess.Valid() {
		return model.Session{}, false
	}
	if id, err := strconv.ParseInt(values[KeyUserID], 10, 64); err == nil {
		sess.UserID = id
	}
	return sess, true
}
