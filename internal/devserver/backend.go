// Package devserver はバックエンドAPIのインメモリ実装を提供する。
//
// ローカル開発とエンドツーエンドテストのためのもので、
// 登録・メール確認・ログイン・トークン更新・パスワードリセット・記事CRUDを
// クライアントと同じワイヤープロトコルで提供する。データはプロセス終了で失われる。
package devserver

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/articlefeed/internal/model"
)

// デフォルト値
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultIssuer     = "articlefeed-devserver"
	resetTokenTTL     = time.Hour
	minPasswordLength = 8
)

// Config はBackendの設定。
type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	// AutoVerify が有効な場合、登録直後からログインできる。
	AutoVerify bool
	// BcryptCost が0の場合はbcrypt.DefaultCostを使う。
	BcryptCost int
}

// user は登録済みユーザー。
type user struct {
	id           int64
	name         string
	email        string
	passwordHash []byte
	verified     bool
}

type resetToken struct {
	userID    int64
	expiresAt time.Time
}

// Backend はユーザー・トークン・記事をメモリ上に保持する。全メソッドは並行呼び出しに安全。
type Backend struct {
	cfg    Config
	secret []byte
	logger *slog.Logger
	now    func() time.Time

	mu            sync.Mutex
	users         map[int64]*user
	usersByEmail  map[string]int64
	nextUserID    int64
	verifyTokens  map[string]int64
	resetTokens   map[string]resetToken
	refreshTokens map[string]refreshToken
	articles      map[int64]*model.Article
	nextArticleID int64
}

// New はBackendを生成する。Secretは必須。
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("devserver secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		cfg:           cfg,
		secret:        []byte(cfg.Secret),
		logger:        logger,
		now:           time.Now,
		users:         make(map[int64]*user),
		usersByEmail:  make(map[string]int64),
		verifyTokens:  make(map[string]int64),
		resetTokens:   make(map[string]resetToken),
		refreshTokens: make(map[string]refreshToken),
		articles:      make(map[int64]*model.Article),
	}, nil
}

// SetClock は現在時刻の取得関数を差し替える。トークン期限のテストで使う。
func (b *Backend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) *Error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return badRequest(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	return nil
}

// Register はユーザーを登録し、メール確認トークンを発行する。
// メール送信の代わりにトークンをログへ出力する。
func (b *Backend) Register(req model.RegisterRequest) (string, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return "", badRequest("Name, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return "", badRequest("Invalid email format")
	}
	if err := validatePassword(req.Password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), b.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.usersByEmail[email]; exists {
		return "", ErrEmailTaken
	}

	b.nextUserID++
	u := &user{
		id:           b.nextUserID,
		name:         name,
		email:        email,
		passwordHash: hash,
		verified:     b.cfg.AutoVerify,
	}
	b.users[u.id] = u
	b.usersByEmail[email] = u.id

	if u.verified {
		b.logger.Info("user registered", slog.Int64("user_id", u.id), slog.String("email", email))
		return "Registration successful. You can now log in.", nil
	}

	token := b.issueVerifyTokenLocked(u.id)
	b.logger.Info("user registered",
		slog.Int64("user_id", u.id),
		slog.String("email", email),
		slog.String("verification_token", token),
	)
	return "Registration successful. Please check your email to verify your account.", nil
}

func (b *Backend) issueVerifyTokenLocked(userID int64) string {
	for tok, id := range b.verifyTokens {
		if id == userID {
			delete(b.verifyTokens, tok)
		}
	}
	token := uuid.NewString()
	b.verifyTokens[token] = userID
	return token
}

// VerifyEmail はメール確認トークンを消費し、確認済みユーザーとしてトークン一式を返す。
func (b *Backend) VerifyEmail(token string) (*model.AuthResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	userID, ok := b.verifyTokens[strings.TrimSpace(token)]
	if !ok {
		return nil, ErrInvalidVerifyToken
	}
	delete(b.verifyTokens, strings.TrimSpace(token))

	u, ok := b.users[userID]
	if !ok {
		return nil, ErrInvalidVerifyToken
	}
	u.verified = true

	resp, err := b.authResponseLocked(u)
	if err != nil {
		return nil, err
	}
	resp.Message = "Email verified successfully"
	return resp, nil
}

// ResendVerification は未確認ユーザーに新しい確認トークンを発行する。
// 未登録のメールアドレスでも同じメッセージを返す。
func (b *Backend) ResendVerification(email string) (string, error) {
	const msg = "If the email is registered, a verification email has been sent"
	email = normalizeEmail(email)
	if email == "" {
		return "", badRequest("Email is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userID, ok := b.usersByEmail[email]
	if !ok {
		return msg, nil
	}
	if b.users[userID].verified {
		return "", ErrAlreadyVerified
	}
	token := b.issueVerifyTokenLocked(userID)
	b.logger.Info("verification token reissued",
		slog.Int64("user_id", userID),
		slog.String("verification_token", token),
	)
	return msg, nil
}

// Login はメールアドレスとパスワードを検証してトークン一式を返す。
func (b *Backend) Login(req model.LoginRequest) (*model.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, badRequest("Email and password are required")
	}

	b.mu.Lock()
	userID, ok := b.usersByEmail[email]
	var (
		u    *user
		hash []byte
	)
	if ok {
		u = b.users[userID]
		hash = u.passwordHash
	}
	b.mu.Unlock()

	if u == nil {
		return nil, ErrInvalidCredentials
	}
	// bcryptの比較はロック外で行う
	if bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !u.verified {
		return nil, ErrEmailNotVerified
	}
	resp, err := b.authResponseLocked(u)
	if err != nil {
		return nil, err
	}
	resp.Message = "Login successful"
	return resp, nil
}

// Refresh はリフレッシュトークンを消費して新しいトークン一式を返す。
// 使用済みのリフレッシュトークンは再利用できない。
func (b *Backend) Refresh(token string) (*model.AuthResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rt, ok := b.refreshTokens[token]
	if !ok {
		return nil, ErrInvalidRefresh
	}
	delete(b.refreshTokens, token)
	if b.now().After(rt.expiresAt) {
		return nil, ErrInvalidRefresh
	}

	u, ok := b.users[rt.userID]
	if !ok {
		return nil, ErrInvalidRefresh
	}
	return b.authResponseLocked(u)
}

// Logout はユーザーの全リフレッシュトークンを失効させる。
func (b *Backend) Logout(userID int64) string {
	b.mu.Lock()
	n := b.revokeRefreshTokensLocked(userID)
	b.mu.Unlock()

	b.logger.Info("user logged out", slog.Int64("user_id", userID), slog.Int("revoked_tokens", n))
	return "Logged out successfully"
}

// ForgotPassword はパスワードリセットトークンを発行する。
// 未登録のメールアドレスでも同じメッセージを返す。
func (b *Backend) ForgotPassword(email string) (string, error) {
	const msg = "If the email is registered, a password reset link has been sent"
	email = normalizeEmail(email)
	if email == "" {
		return "", badRequest("Email is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userID, ok := b.usersByEmail[email]
	if !ok {
		return msg, nil
	}
	for tok, rt := range b.resetTokens {
		if rt.userID == userID {
			delete(b.resetTokens, tok)
		}
	}
	token := uuid.NewString()
	b.resetTokens[token] = resetToken{userID: userID, expiresAt: b.now().Add(resetTokenTTL)}
	b.logger.Info("password reset token issued",
		slog.Int64("user_id", userID),
		slog.String("reset_token", token),
	)
	return msg, nil
}

// ResetPassword はリセットトークンを消費してパスワードを更新する。
// 既存のリフレッシュトークンはすべて失効する。
func (b *Backend) ResetPassword(req model.ResetPasswordRequest) (string, error) {
	if strings.TrimSpace(req.Token) == "" || req.NewPassword == "" {
		return "", badRequest("Token and new password are required")
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), b.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rt, ok := b.resetTokens[req.Token]
	if !ok {
		return "", ErrInvalidResetToken
	}
	delete(b.resetTokens, req.Token)
	if b.now().After(rt.expiresAt) {
		return "", ErrInvalidResetToken
	}
	u, ok := b.users[rt.userID]
	if !ok {
		return "", ErrInvalidResetToken
	}
	u.passwordHash = hash
	b.revokeRefreshTokensLocked(u.id)
	return "Password has been reset successfully", nil
}

// VerificationToken は未消費のメール確認トークンを返す。開発時の確認とテスト用。
func (b *Backend) VerificationToken(email string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	userID, ok := b.usersByEmail[normalizeEmail(email)]
	if !ok {
		return "", false
	}
	for tok, id := range b.verifyTokens {
		if id == userID {
			return tok, true
		}
	}
	return "", false
}

// ResetToken は未消費のパスワードリセットトークンを返す。開発時の確認とテスト用。
func (b *Backend) ResetToken(email string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	userID, ok := b.usersByEmail[normalizeEmail(email)]
	if !ok {
		return "", false
	}
	for tok, rt := range b.resetTokens {
		if rt.userID == userID {
			return tok, true
		}
	}
	return "", false
}

// authResponseLocked はトークンを発行してAuthResponseを組み立てる。
func (b *Backend) authResponseLocked(u *user) (*model.AuthResponse, error) {
	access, refresh, err := b.issueTokensLocked(u)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return &model.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		UserID:       u.id,
		Email:        u.email,
		Name:         u.name,
	}, nil
}
