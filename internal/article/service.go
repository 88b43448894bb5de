// Package article は記事一覧（feed / search / mine）のページング状態と
// 単一記事のCRUDを提供する。
//
// 3つの一覧は独立したページ状態を持つ。作成・更新・削除が成功すると、
// 同じ記事を含む全ての一覧がサーバーの応答に合わせて更新される。
package article

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/hitoshi/articlefeed/internal/apiclient"
	"github.com/hitoshi/articlefeed/internal/model"
)

// エンドポイント
const (
	endpointArticles = "/articles"
	endpointSearch   = "/articles/search"
	endpointMine     = "/articles/my"
)

// 一覧取得のデフォルト値
const (
	DefaultPageSize = 10
	DefaultSortBy   = "createdAt"
	DefaultSortDir  = "desc"
)

// ListKind は一覧の種類。
type ListKind int

const (
	ListFeed ListKind = iota
	ListSearch
	ListMine

	listCount
)

func (k ListKind) String() string {
	switch k {
	case ListFeed:
		return "feed"
	case ListSearch:
		return "search"
	case ListMine:
		return "mine"
	default:
		return "unknown"
	}
}

// ListState は1つの一覧のページング状態。
// Itemsは取得済みページをページ順に連結したもので、サーバーの並び順を保つ。
type ListState struct {
	Items        []model.Article
	CurrentPage  int
	TotalPages   int
	IsLoading    bool
	ErrorMessage string
	// Keyword は検索一覧で最後に使ったキーワード。
	Keyword string
}

// HasMore は次のページが存在するかを返す。
func (l ListState) HasMore() bool {
	return l.CurrentPage+1 < l.TotalPages
}

func (l ListState) clone() ListState {
	out := l
	out.Items = append([]model.Article(nil), l.Items...)
	return out
}

// FetchParams は一覧取得のパラメータ。ゼロ値はデフォルト値で補われる。
type FetchParams struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
	Keyword string
}

// Snapshot は表示用の状態の複製。
type Snapshot struct {
	Feed         ListState
	Search       ListState
	Mine         ListState
	IsLoading    bool
	ErrorMessage string
}

// Stats は自分の記事の集計。
type Stats struct {
	Count      int
	TotalViews int
}

// Requester はAPI呼び出しのインターフェース。apiclient.Clientが実装する。
type Requester interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// Service は記事一覧と単一記事操作のビジネスロジックを提供する。
//
// 一覧の取得は一覧ごとのミューテックスで直列化し、ページの重複追加を防ぐ。
// 状態の読み書きは1つのミューテックスで保護する。
type Service struct {
	client   Requester
	logger   *slog.Logger
	pageSize int

	fetchMu [listCount]sync.Mutex

	mu           sync.RWMutex
	lists        [listCount]ListState
	params       [listCount]FetchParams
	inFlight     int
	errorMessage string
}

// NewService はServiceを生成する。pageSizeが0以下の場合はDefaultPageSize。
func NewService(client Requester, logger *slog.Logger, pageSize int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		client:   client,
		logger:   logger,
		pageSize: pageSize,
	}
}

// Snapshot は全一覧の状態を返す。
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Feed:         s.lists[ListFeed].clone(),
		Search:       s.lists[ListSearch].clone(),
		Mine:         s.lists[ListMine].clone(),
		IsLoading:    s.inFlight > 0,
		ErrorMessage: s.errorMessage,
	}
}

// List は指定した一覧の状態を返す。
func (s *Service) List(kind ListKind) ListState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lists[kind].clone()
}

// FetchFeed は全体フィードの指定ページを取得する。
func (s *Service) FetchFeed(ctx context.Context, page int) (*model.ArticlePage, error) {
	return s.Fetch(ctx, ListFeed, FetchParams{Page: page})
}

// Search はキーワード検索の指定ページを取得する。
// 空白のみのキーワードは検索状態をクリアしてフィードの0ページ目を取得する。
func (s *Service) Search(ctx context.Context, keyword string, page int) (*model.ArticlePage, error) {
	return s.Fetch(ctx, ListSearch, FetchParams{Page: page, Keyword: keyword})
}

// FetchMine は自分の記事の指定ページを取得する。
func (s *Service) FetchMine(ctx context.Context, page int) (*model.ArticlePage, error) {
	return s.Fetch(ctx, ListMine, FetchParams{Page: page})
}

// Fetch は一覧のページを取得して状態に反映する。
// 0ページ目は一覧を置き換え、それ以降のページは末尾に追加する。
func (s *Service) Fetch(ctx context.Context, kind ListKind, params FetchParams) (*model.ArticlePage, error) {
	if kind < 0 || kind >= listCount {
		return nil, s.reject(model.NewInvalidInputError(fmt.Sprintf("unknown list %d", kind)))
	}
	if params.Page < 0 {
		return nil, s.reject(model.NewInvalidInputError("Page must not be negative"))
	}

	if kind == ListSearch && strings.TrimSpace(params.Keyword) == "" {
		s.clearSearch()
		return s.Fetch(ctx, ListFeed, FetchParams{Page: 0, Size: params.Size})
	}

	s.fetchMu[kind].Lock()
	defer s.fetchMu[kind].Unlock()
	return s.fetchLocked(ctx, kind, params)
}

// LoadMore は一覧の次のページを前回と同じ条件で取得する。
// 次のページが無い場合は何もせずnilを返す。
func (s *Service) LoadMore(ctx context.Context, kind ListKind) (*model.ArticlePage, error) {
	if kind < 0 || kind >= listCount {
		return nil, s.reject(model.NewInvalidInputError(fmt.Sprintf("unknown list %d", kind)))
	}

	s.fetchMu[kind].Lock()
	defer s.fetchMu[kind].Unlock()

	s.mu.RLock()
	state := s.lists[kind]
	params := s.params[kind]
	s.mu.RUnlock()

	if !state.HasMore() {
		return nil, nil
	}
	params.Page = state.CurrentPage + 1
	return s.fetchLocked(ctx, kind, params)
}

// ClearSearch は検索状態をクリアしてフィードを先頭から取得し直す。
func (s *Service) ClearSearch(ctx context.Context) error {
	s.clearSearch()
	_, err := s.FetchFeed(ctx, 0)
	return err
}

// Reset は全一覧とエラーを破棄する。ログアウト時に使う。
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = [listCount]ListState{}
	s.params = [listCount]FetchParams{}
	s.errorMessage = ""
}

// fetchLocked は呼び出し元がfetchMu[kind]を保持している前提で取得を行う。
func (s *Service) fetchLocked(ctx context.Context, kind ListKind, params FetchParams) (*model.ArticlePage, error) {
	params = s.withDefaults(kind, params)

	s.mu.Lock()
	s.beginLocked()
	s.lists[kind].IsLoading = true
	s.lists[kind].ErrorMessage = ""
	s.mu.Unlock()

	var page model.ArticlePage
	err := s.client.Do(ctx, listRequest(kind, params), &page)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	list := &s.lists[kind]
	list.IsLoading = false

	if err != nil {
		msg := model.MessageOf(err)
		list.ErrorMessage = msg
		s.errorMessage = msg
		s.logger.Warn("failed to fetch articles",
			slog.String("list", kind.String()),
			slog.Int("page", params.Page),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if params.Page == 0 {
		list.Items = append([]model.Article(nil), page.Content...)
	} else {
		list.Items = append(list.Items, page.Content...)
	}
	list.CurrentPage = params.Page
	list.TotalPages = page.TotalPages
	if kind == ListSearch {
		list.Keyword = params.Keyword
	}
	s.params[kind] = params

	return &page, nil
}

func (s *Service) withDefaults(kind ListKind, p FetchParams) FetchParams {
	if p.Size <= 0 {
		p.Size = s.pageSize
	}
	if kind == ListFeed {
		if p.SortBy == "" {
			p.SortBy = DefaultSortBy
		}
		if p.SortDir == "" {
			p.SortDir = DefaultSortDir
		}
	}
	p.Keyword = strings.TrimSpace(p.Keyword)
	return p
}

func listRequest(kind ListKind, p FetchParams) apiclient.Request {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("size", strconv.Itoa(p.Size))

	switch kind {
	case ListSearch:
		q.Set("keyword", p.Keyword)
		return apiclient.Request{Endpoint: endpointSearch, Query: q}
	case ListMine:
		return apiclient.Request{Endpoint: endpointMine, Query: q}
	default:
		q.Set("sortBy", p.SortBy)
		q.Set("sortDir", p.SortDir)
		return apiclient.Request{Endpoint: endpointArticles, Query: q}
	}
}

// Get は記事を1件取得する。一覧は変更しない。
func (s *Service) Get(ctx context.Context, id int64) (*model.Article, error) {
	s.begin()

	var a model.Article
	err := s.client.Do(ctx, apiclient.Request{Endpoint: articlePath(id)}, &a)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if err != nil {
		s.errorMessage = model.MessageOf(err)
		return nil, err
	}
	return &a, nil
}

// Create は記事を作成し、フィードと自分の記事の先頭に追加する。
// タイトルまたは本文が空の場合はネットワーク呼び出しを行わずInvalidInputを返す。
func (s *Service) Create(ctx context.Context, title, content string) (*model.Article, error) {
	if err := requireDraft(title, content); err != nil {
		return nil, s.reject(err)
	}

	s.begin()

	var a model.Article
	err := s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodPost,
		Endpoint: endpointArticles,
		Body:     model.ArticleRequest{Title: title, Content: content},
	}, &a)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if err != nil {
		s.errorMessage = model.MessageOf(err)
		return nil, err
	}

	for _, kind := range []ListKind{ListFeed, ListMine} {
		list := &s.lists[kind]
		list.Items = append([]model.Article{a}, list.Items...)
	}
	s.logger.Info("article created", slog.Int64("article_id", a.ID))
	return &a, nil
}

// Update は記事を更新し、その記事を含む全ての一覧で該当要素を同じ位置のまま置き換える。
func (s *Service) Update(ctx context.Context, id int64, title, content string) (*model.Article, error) {
	if err := requireDraft(title, content); err != nil {
		return nil, s.reject(err)
	}

	s.begin()

	var a model.Article
	err := s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodPut,
		Endpoint: articlePath(id),
		Body:     model.ArticleRequest{Title: title, Content: content},
	}, &a)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if err != nil {
		s.errorMessage = model.MessageOf(err)
		return nil, err
	}

	for kind := range s.lists {
		items := s.lists[kind].Items
		for i := range items {
			if items[i].ID == id {
				items[i] = a
			}
		}
	}
	s.logger.Info("article updated", slog.Int64("article_id", id))
	return &a, nil
}

// Delete は記事を削除し、全ての一覧から該当要素を取り除く。
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.begin()

	err := s.client.Do(ctx, apiclient.Request{
		Method:   http.MethodDelete,
		Endpoint: articlePath(id),
	}, &model.MessageResponse{})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if err != nil {
		s.errorMessage = model.MessageOf(err)
		return err
	}

	for kind := range s.lists {
		list := &s.lists[kind]
		kept := list.Items[:0]
		for _, item := range list.Items {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		list.Items = kept
	}
	s.logger.Info("article deleted", slog.Int64("article_id", id))
	return nil
}

// MyStats は取得済みの自分の記事の件数と閲覧数合計を返す。
func (s *Service) MyStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st Stats
	for _, a := range s.lists[ListMine].Items {
		st.Count++
		st.TotalViews += a.ViewCount
	}
	return st
}

func (s *Service) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beginLocked()
}

// beginLocked は共有エラーをクリアし処理中の件数を増やす。
func (s *Service) beginLocked() {
	s.errorMessage = ""
	s.inFlight++
}

func (s *Service) reject(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorMessage = model.MessageOf(err)
	return err
}

// clearSearch は実行中の検索取得の完了を待ってから検索状態を破棄する。
func (s *Service) clearSearch() {
	s.fetchMu[ListSearch].Lock()
	defer s.fetchMu[ListSearch].Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[ListSearch] = ListState{}
	s.params[ListSearch] = FetchParams{}
}

func articlePath(id int64) string {
	return endpointArticles + "/" + strconv.FormatInt(id, 10)
}
