package model

// DefaultRole はバックエンドがロールを返さない場合に割り当てるロール。
const DefaultRole = "USER"

// User はログイン中のユーザーを表す。Sessionから導出され、読み取り専用。
type User struct {
	ID    int64  `json:"userId"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Session は永続化される認証状態を表す。
// AccessTokenとRefreshTokenは両方あるか両方ないかのどちらかでなければならない。
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       int64
	Email        string
	Name         string
}

// Valid はトークンの不変条件を満たし、認証済みとして扱えるかを返す。
func (s Session) Valid() bool {
	return s.AccessToken != "" && s.RefreshToken != ""
}

// User はSessionからUserを導出する。
func (s Session) User() User {
	return User{
		ID:    s.UserID,
		Email: s.Email,
		Name:  s.Name,
		Role:  DefaultRole,
	}
}

// SessionFromAuth は認証レスポンスからSessionを組み立てる。
func SessionFromAuth(resp AuthResponse) Session {
	return Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		UserID:       resp.UserID,
		Email:        resp.Email,
		Name:         resp.Name,
	}
}
