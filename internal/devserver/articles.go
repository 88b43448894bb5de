package devserver

import (
	"sort"
	"strings"
	"time"

	"github.com/hitoshi/articlefeed/internal/article"
	"github.com/hitoshi/articlefeed/internal/model"
)

// ページングの制限
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	statusPublished = "PUBLISHED"
)

// PageQuery は一覧取得のページ指定。
type PageQuery struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

// normalize は未指定値を補完し、範囲外の値を拒否する。
func (q PageQuery) normalize() (PageQuery, error) {
	if q.Size == 0 {
		q.Size = DefaultPageSize
	}
	if q.Page < 0 {
		return q, badRequest("Page index must not be negative")
	}
	if q.Size < 1 || q.Size > MaxPageSize {
		return q, badRequest("Page size must be between 1 and 100")
	}
	if q.SortBy == "" {
		q.SortBy = "createdAt"
	}
	switch strings.ToLower(q.SortDir) {
	case "":
		q.SortDir = "desc"
	case "asc", "desc":
		q.SortDir = strings.ToLower(q.SortDir)
	default:
		return q, badRequest("Sort direction must be asc or desc")
	}
	return q, nil
}

// articleCompare はsortByに応じた比較関数を返す。同値の場合はIDで順序を決める。
func articleCompare(sortBy string) (func(a, b *model.Article) int, error) {
	byID := func(a, b *model.Article) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	}
	switch sortBy {
	case "createdAt", "id":
		// IDは作成順に採番される
		return byID, nil
	case "title":
		return func(a, b *model.Article) int {
			if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
				return c
			}
			return byID(a, b)
		}, nil
	case "viewCount":
		return func(a, b *model.Article) int {
			if a.ViewCount != b.ViewCount {
				if a.ViewCount < b.ViewCount {
					return -1
				}
				return 1
			}
			return byID(a, b)
		}, nil
	default:
		return nil, badRequest("Invalid sort field: " + sortBy)
	}
}

// pageLocked はフィルタ済みの記事を並べ替えてページを切り出す。b.muを保持した状態で呼ぶ。
func (b *Backend) pageLocked(q PageQuery, keep func(*model.Article) bool) (*model.ArticlePage, error) {
	q, err := q.normalize()
	if err != nil {
		return nil, err
	}
	cmp, err := articleCompare(q.SortBy)
	if err != nil {
		return nil, err
	}

	matched := make([]*model.Article, 0, len(b.articles))
	for _, a := range b.articles {
		if keep == nil || keep(a) {
			matched = append(matched, a)
		}
	}
	desc := q.SortDir == "desc"
	sort.Slice(matched, func(i, j int) bool {
		c := cmp(matched[i], matched[j])
		if desc {
			return c > 0
		}
		return c < 0
	})

	total := len(matched)
	totalPages := (total + q.Size - 1) / q.Size
	start := q.Page * q.Size
	end := start + q.Size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	content := make([]model.Article, 0, end-start)
	for _, a := range matched[start:end] {
		content = append(content, *a)
	}
	return &model.ArticlePage{
		Content:       content,
		Pageable:      model.Pageable{PageNumber: q.Page, PageSize: q.Size},
		TotalElements: total,
		TotalPages:    totalPages,
		First:         q.Page == 0,
		Last:          q.Page >= totalPages-1,
	}, nil
}

// ListArticles は全記事を指定順で返す。
func (b *Backend) ListArticles(q PageQuery) (*model.ArticlePage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pageLocked(q, nil)
}

// SearchArticles はタイトルまたは本文にキーワードを含む記事を新しい順で返す。
// 大文字小文字は区別しない。
func (b *Backend) SearchArticles(keyword string, q PageQuery) (*model.ArticlePage, error) {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return nil, badRequest("Keyword is required")
	}
	q.SortBy, q.SortDir = "createdAt", "desc"

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pageLocked(q, func(a *model.Article) bool {
		return strings.Contains(strings.ToLower(a.Title), kw) ||
			strings.Contains(strings.ToLower(a.Content), kw)
	})
}

// MyArticles は指定ユーザーの記事を新しい順で返す。
func (b *Backend) MyArticles(userID int64, q PageQuery) (*model.ArticlePage, error) {
	q.SortBy, q.SortDir = "createdAt", "desc"

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pageLocked(q, func(a *model.Article) bool {
		return a.AuthorID == userID
	})
}

// GetArticle は記事を返し、閲覧数を1増やす。
func (b *Backend) GetArticle(id int64) (*model.Article, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.articles[id]
	if !ok {
		return nil, ErrArticleNotFound
	}
	a.ViewCount++
	out := *a
	return &out, nil
}

// validateDraft はクライアントと同じ下書きの規則で入力を検証する。
func validateDraft(req model.ArticleRequest) error {
	if err := article.ValidateDraft(req.Title, req.Content); err != nil {
		return badRequest(model.MessageOf(err))
	}
	return nil
}

// CreateArticle は記事を作成する。
func (b *Backend) CreateArticle(userID int64, req model.ArticleRequest) (*model.Article, error) {
	if err := validateDraft(req); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	b.nextArticleID++
	a := &model.Article{
		ID:         b.nextArticleID,
		Title:      strings.TrimSpace(req.Title),
		Content:    strings.TrimSpace(req.Content),
		AuthorName: u.name,
		AuthorID:   u.id,
		Status:     statusPublished,
		CreatedAt:  b.now().UTC().Format(time.RFC3339),
	}
	b.articles[a.ID] = a
	out := *a
	return &out, nil
}

// UpdateArticle は著者本人の記事のタイトルと本文を更新する。
func (b *Backend) UpdateArticle(userID, id int64, req model.ArticleRequest) (*model.Article, error) {
	if err := validateDraft(req); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.articles[id]
	if !ok {
		return nil, ErrArticleNotFound
	}
	if !a.IsAuthoredBy(userID) {
		return nil, ErrNotAuthor
	}
	updated := b.now().UTC().Format(time.RFC3339)
	a.Title = strings.TrimSpace(req.Title)
	a.Content = strings.TrimSpace(req.Content)
	a.UpdatedAt = &updated
	out := *a
	return &out, nil
}

// DeleteArticle は著者本人の記事を削除する。
func (b *Backend) DeleteArticle(userID, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.articles[id]
	if !ok {
		return ErrArticleNotFound
	}
	if !a.IsAuthoredBy(userID) {
		return ErrNotAuthor
	}
	delete(b.articles, id)
	return nil
}
