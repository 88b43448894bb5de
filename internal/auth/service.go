// Package auth はクライアント側の認証状態遷移を提供する。
//
// Serviceは登録・ログイン・ログアウト・パスワードリセット・メール確認を
// APIクライアントとセッションストアの上で実行し、
// unauthenticated / authenticating / authenticated の状態を管理する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/hitoshi/articlefeed/internal/apiclient"
	"github.com/hitoshi/articlefeed/internal/model"
)

// エンドポイント
const (
	endpointRegister           = "/auth/register"
	endpointLogin              = "/auth/login"
	endpointLogout             = "/auth/logout"
	endpointForgotPassword     = "/auth/forgot-password"
	endpointResetPassword      = "/auth/reset-password"
	endpointVerifyEmail        = "/auth/verify-email"
	endpointResendVerification = "/auth/resend-verification"
)

// State は認証状態。
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Requester はAPI呼び出しのインターフェース。apiclient.Clientが実装する。
type Requester interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// SessionStore はセッション永続化のインターフェース。session.Storeが実装する。
type SessionStore interface {
	Load(ctx context.Context) (*model.Session, error)
	Save(ctx context.Context, sess model.Session) error
	Clear(ctx context.Context) error
}

// Snapshot は表示用の状態の複製。
type Snapshot struct {
	State        State
	IsLoading    bool
	ErrorMessage string
	// Message は直前の操作でサーバーが返したメッセージ。
	Message string
	User    *model.User
}

// Service は認証に関するビジネスロジックを提供する。
// 操作自体は呼び出し元が直列化する前提で、排他制御はスナップショットのフィールドのみ。
type Service struct {
	client Requester
	store  SessionStore
	logger *slog.Logger

	mu    sync.RWMutex
	state Snapshot
}

// NewService はServiceを生成する。
func NewService(client Requester, store SessionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client: client,
		store:  store,
		logger: logger,
	}
}

// Snapshot は現在の状態を返す。
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.state
	if out.User != nil {
		u := *out.User
		out.User = &u
	}
	return out
}

// Restore は起動時に永続化済みのセッションから認証状態を復元する。
func (s *Service) Restore(ctx context.Context) error {
	sess, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess == nil {
		s.state.State = StateUnauthenticated
		s.state.User = nil
		return nil
	}
	u := sess.User()
	s.state.State = StateAuthenticated
	s.state.User = &u
	return nil
}

// Register はユーザー登録を行い、サーバーのメッセージをそのまま返す。
// 登録だけでは認証済みにならない（メール確認が必要）。
func (s *Service) Register(ctx context.Context, name, email, password string) (string, error) {
	if err := ValidateRegistration(name, email, password); err != nil {
		return "", s.reject(err)
	}
	return s.postMessage(ctx, endpointRegister, model.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
}

// Login はログインし、トークン一式を保存して認証済みにする。
// 失敗時は保存済みセッションに手を付けず、直前の認証状態のままエラーを記録する。
func (s *Service) Login(ctx context.Context, email, password string) error {
	if err := requireFields(field{"Email", email}, field{"Password", password}); err != nil {
		return s.reject(err)
	}

	prev := s.Snapshot().State
	s.begin(StateAuthenticating)

	var resp model.AuthResponse
	err := s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodPost,
		Endpoint: endpointLogin,
		Body:     model.LoginRequest{Email: email, Password: password},
		SkipAuth: true,
	}, &resp)
	if err == nil {
		err = s.authenticate(ctx, resp)
	}
	if err != nil {
		s.fail(prev, err)
		return err
	}
	return nil
}

// Logout はサーバー側のセッション無効化を試み、結果に関わらずローカルのセッションを消去する。
// サーバー呼び出しの失敗はログに記録するだけで返さない。
func (s *Service) Logout(ctx context.Context) error {
	s.begin(s.Snapshot().State)

	if err := s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodPost,
		Endpoint: endpointLogout,
	}, &model.MessageResponse{}); err != nil {
		s.logger.Warn("server-side logout failed", slog.String("error", err.Error()))
	}

	clearErr := s.store.Clear(ctx)

	s.mu.Lock()
	s.state = Snapshot{State: StateUnauthenticated}
	s.mu.Unlock()

	if clearErr != nil {
		s.logger.Error("failed to clear local session", slog.String("error", clearErr.Error()))
		return clearErr
	}
	return nil
}

// RequestPasswordReset はパスワードリセットメールの送信を依頼する。
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if err := requireFields(field{"Email", email}); err != nil {
		return "", s.reject(err)
	}
	return s.postMessage(ctx, endpointForgotPassword, model.PasswordResetRequest{Email: email})
}

// ResetPassword はメールで受け取ったトークンで新しいパスワードを設定する。
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if err := requireFields(field{"Reset token", token}); err != nil {
		return "", s.reject(err)
	}
	if err := ValidatePassword(newPassword); err != nil {
		return "", s.reject(err)
	}
	return s.postMessage(ctx, endpointResetPassword, model.ResetPasswordRequest{
		Token:       token,
		NewPassword: newPassword,
	})
}

// ResendVerification は確認メールを再送する。
func (s *Service) ResendVerification(ctx context.Context, email string) (string, error) {
	if err := requireFields(field{"Email", email}); err != nil {
		return "", s.reject(err)
	}
	return s.postMessage(ctx, endpointResendVerification, model.ResendVerificationRequest{Email: email})
}

// VerifyEmail はメール確認トークンを送信する。
// レスポンスにトークン一式が含まれる場合はログインと同様に保存して認証済みにする。
func (s *Service) VerifyEmail(ctx context.Context, token string) (string, error) {
	if err := requireFields(field{"Verification token", token}); err != nil {
		return "", s.reject(err)
	}

	prev := s.Snapshot().State
	s.begin(prev)

	var resp model.AuthResponse
	err := s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodPost,
		Endpoint: endpointVerifyEmail,
		Body:     model.VerifyEmailRequest{Token: token},
		SkipAuth: true,
	}, &resp)
	if err != nil {
		s.fail(prev, err)
		return "", err
	}

	if resp.HasTokens() {
		if err := s.authenticate(ctx, resp); err != nil {
			s.fail(prev, err)
			return "", err
		}
	} else {
		s.finish(prev)
	}

	s.mu.Lock()
	s.state.Message = resp.Message
	s.mu.Unlock()
	return resp.Message, nil
}

// postMessage はメッセージのみを返す認証不要エンドポイントを呼び出す。認証状態は変えない。
func (s *Service) postMessage(ctx context.Context, endpoint string, body any) (string, error) {
	prev := s.Snapshot().State
	s.begin(prev)

	var resp model.MessageResponse
	if err := s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Body:     body,
		SkipAuth: true,
	}, &resp); err != nil {
		s.fail(prev, err)
		return "", err
	}

	s.mu.Lock()
	s.state.IsLoading = false
	s.state.Message = resp.Message
	s.mu.Unlock()
	return resp.Message, nil
}

// authenticate はトークン一式を保存し認証済み状態にする。
func (s *Service) authenticate(ctx context.Context, resp model.AuthResponse) error {
	if !resp.HasTokens() {
		return &model.NetworkError{Kind: model.KindNoData, Err: fmt.Errorf("auth response has no tokens")}
	}
	sess := model.SessionFromAuth(resp)
	if err := s.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	u := sess.User()
	s.mu.Lock()
	s.state.State = StateAuthenticated
	s.state.IsLoading = false
	s.state.User = &u
	s.mu.Unlock()
	s.logger.Info("authenticated", slog.Int64("user_id", u.ID))
	return nil
}

// begin はネットワーク処理の開始を記録する。エラーとメッセージはクリアされる。
func (s *Service) begin(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.State = state
	s.state.IsLoading = true
	s.state.ErrorMessage = ""
	s.state.Message = ""
}

func (s *Service) finish(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.State = state
	s.state.IsLoading = false
}

func (s *Service) fail(state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.State = state
	s.state.IsLoading = false
	s.state.ErrorMessage = model.MessageOf(err)
	if state == StateUnauthenticated {
		s.state.User = nil
	}
}

// reject はローカル検証エラーを記録する。ネットワーク処理は開始しない。
func (s *Service) reject(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ErrorMessage = model.MessageOf(err)
	s.state.Message = ""
	return err
}
