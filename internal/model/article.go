package model

// Article はバックエンドが管理する記事を表す。
// IDはサーバーが割り当てる不変の識別子。
type Article struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	AuthorName string  `json:"authorName"`
	AuthorID   int64   `json:"authorId"`
	Status     string  `json:"status"`
	ViewCount  int     `json:"viewCount"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  *string `json:"updatedAt,omitempty"`
}

// IsAuthoredBy は指定ユーザーが記事の著者かを返す。編集・削除の可否判定に使う。
func (a Article) IsAuthoredBy(userID int64) bool {
	return a.AuthorID == userID
}

// ArticleRequest は記事作成・更新のリクエストボディ。
type ArticleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Pageable はページ要求の情報。
type Pageable struct {
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
}

// ArticlePage は記事一覧レスポンスのエンベロープ。
type ArticlePage struct {
	Content       []Article `json:"content"`
	Pageable      Pageable  `json:"pageable"`
	TotalElements int       `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
	First         bool      `json:"first"`
	Last          bool      `json:"last"`
}
