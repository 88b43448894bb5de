package devserver

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// accessClaims はアクセストークンのクレーム。
type accessClaims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// refreshToken は発行済みリフレッシュトークンの状態。
type refreshToken struct {
	userID    int64
	expiresAt time.Time
}

// signAccessToken はHS256で署名したアクセストークンを発行する。
// jtiを付与するため、同一秒内の再発行でも値が変わる。
func (b *Backend) signAccessToken(u *user, now time.Time) (string, error) {
	claims := accessClaims{
		UserID: u.id,
		Email:  u.email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(u.id, 10),
			Issuer:    b.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(b.cfg.AccessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
}

// VerifyAccessToken はアクセストークンを検証してユーザーIDを返す。
func (b *Backend) VerifyAccessToken(token string) (int64, error) {
	b.mu.Lock()
	now := b.now
	b.mu.Unlock()

	parsed, err := jwt.ParseWithClaims(token, &accessClaims{},
		func(*jwt.Token) (any, error) {
			return b.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(b.cfg.Issuer),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			b.logger.Debug("access token expired")
		}
		return 0, ErrInvalidAccess
	}
	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return 0, ErrInvalidAccess
	}

	b.mu.Lock()
	_, exists := b.users[claims.UserID]
	b.mu.Unlock()
	if !exists {
		return 0, ErrUserNotFound
	}
	return claims.UserID, nil
}

// issueTokensLocked はアクセストークンと新しいリフレッシュトークンを発行する。
// b.muを保持した状態で呼ぶ。
func (b *Backend) issueTokensLocked(u *user) (accessToken, refresh string, err error) {
	now := b.now()
	accessToken, err = b.signAccessToken(u, now)
	if err != nil {
		return "", "", err
	}
	refresh = uuid.NewString()
	b.refreshTokens[refresh] = refreshToken{
		userID:    u.id,
		expiresAt: now.Add(b.cfg.RefreshTTL),
	}
	return accessToken, refresh, nil
}

// revokeRefreshTokensLocked はユーザーの全リフレッシュトークンを失効させる。
func (b *Backend) revokeRefreshTokensLocked(userID int64) int {
	n := 0
	for tok, rt := range b.refreshTokens {
		if rt.userID == userID {
			delete(b.refreshTokens, tok)
			n++
		}
	}
	return n
}
