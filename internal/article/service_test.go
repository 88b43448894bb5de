package article

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"sync"
	"testing"

	"github.com/hitoshi/articlefeed/internal/apiclient"
	"github.com/hitoshi/articlefeed/internal/model"
)

// mockRequester はRequesterのモック。
type mockRequester struct {
	mu    sync.Mutex
	doFn  func(ctx context.Context, req apiclient.Request, out any) error
	calls []apiclient.Request
}

func (m *mockRequester) Do(ctx context.Context, req apiclient.Request, out any) error {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	fn := m.doFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, req, out)
	}
	return nil
}

func (m *mockRequester) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func art(id int64) model.Article {
	return model.Article{ID: id, Title: "Article " + strconv.FormatInt(id, 10), Content: "content", AuthorID: 1}
}

func ids(items []model.Article) []int64 {
	out := make([]int64, 0, len(items))
	for _, a := range items {
		out = append(out, a.ID)
	}
	return out
}

// pagedServer はページ番号ごとに記事を返すdoFnを作る。
// pages[n]がnページ目の内容。
func pagedServer(pages map[string][][]model.Article) func(context.Context, apiclient.Request, any) error {
	return func(_ context.Context, req apiclient.Request, out any) error {
		contents, ok := pages[req.Endpoint]
		if !ok {
			return model.NewStatusError(model.KindNotFound, 404)
		}
		page, _ := strconv.Atoi(req.Query.Get("page"))
		p := out.(*model.ArticlePage)
		*p = model.ArticlePage{TotalPages: len(contents)}
		if page < len(contents) {
			p.Content = contents[page]
		}
		p.Pageable.PageNumber = page
		return nil
	}
}

// 0ページ目は置き換え、k>0ページ目は末尾に追加しtotalPagesを更新する
func TestFetch_ReplaceAndAppend(t *testing.T) {
	ctx := context.Background()
	client := &mockRequester{doFn: pagedServer(map[string][][]model.Article{
		"/articles": {
			{art(1), art(2)},
			{art(3), art(4)},
			{art(5)},
		},
	})}
	svc := NewService(client, discardLogger(), 2)

	if _, err := svc.FetchFeed(ctx, 0); err != nil {
		t.Fatalf("FetchFeed(0) failed: %v", err)
	}
	if got := ids(svc.List(ListFeed).Items); !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Errorf("page 0 items = %v", got)
	}

	if _, err := svc.FetchFeed(ctx, 1); err != nil {
		t.Fatalf("FetchFeed(1) failed: %v", err)
	}
	feed := svc.List(ListFeed)
	if got := ids(feed.Items); !reflect.DeepEqual(got, []int64{1, 2, 3, 4}) {
		t.Errorf("page 1 items = %v", got)
	}
	if feed.CurrentPage != 1 || feed.TotalPages != 3 {
		t.Errorf("CurrentPage=%d TotalPages=%d", feed.CurrentPage, feed.TotalPages)
	}
	if !feed.HasMore() {
		t.Error("HasMore() = false, want true")
	}

	// 0ページ目の再取得で置き換わる
	if _, err := svc.FetchFeed(ctx, 0); err != nil {
		t.Fatal(err)
	}
	feed = svc.List(ListFeed)
	if got := ids(feed.Items); !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Errorf("refetch page 0 items = %v", got)
	}
	if feed.CurrentPage != 0 {
		t.Errorf("CurrentPage = %d, want 0", feed.CurrentPage)
	}
}

func TestFetch_RequestParameters(t *testing.T) {
	ctx := context.Background()
	client := &mockRequester{doFn: pagedServer(map[string][][]model.Article{
		"/articles":        {{}},
		"/articles/search": {{}},
		"/articles/my":     {{}},
	})}
	svc := NewService(client, discardLogger(), 0)

	_, _ = svc.FetchFeed(ctx, 0)
	_, _ = svc.Search(ctx, "  golang  ", 0)
	_, _ = svc.FetchMine(ctx, 0)
	_, _ = svc.Fetch(ctx, ListFeed, FetchParams{Page: 0, Size: 5, SortBy: "viewCount", SortDir: "asc"})

	tests := []struct {
		endpoint string
		query    string
	}{
		{"/articles", "page=0&size=10&sortBy=createdAt&sortDir=desc"},
		{"/articles/search", "keyword=golang&page=0&size=10"},
		{"/articles/my", "page=0&size=10"},
		{"/articles", "page=0&size=5&sortBy=viewCount&sortDir=asc"},
	}
	if len(client.calls) != len(tests) {
		t.Fatalf("calls = %d, want %d", len(client.calls), len(tests))
	}
	for i, tt := range tests {
		req := client.calls[i]
		if req.Endpoint != tt.endpoint {
			t.Errorf("[%d] endpoint = %q, want %q", i, req.Endpoint, tt.endpoint)
		}
		if q := req.Query.Encode(); q != tt.query {
			t.Errorf("[%d] query = %q, want %q", i, q, tt.query)
		}
		if req.Method != "" && req.Method != http.MethodGet {
			t.Errorf("[%d] method = %q", i, req.Method)
		}
		if req.SkipAuth {
			t.Errorf("[%d] 一覧取得は認証付きであるべき", i)
		}
	}
}

// 一覧は互いに独立している
func TestFetch_ListsAreIndependent(t *testing.T) {
	ctx := context.Background()
	client := &mockRequester{doFn: pagedServer(map[string][][]model.Article{
		"/articles":        {{art(1), art(2)}},
		"/articles/search": {{art(2)}},
		"/articles/my":     {{art(7)}},
	})}
	svc := NewService(client, discardLogger(), 10)

	_, _ = svc.FetchFeed(ctx, 0)
	_, _ = svc.Search(ctx, "two", 0)
	_, _ = svc.FetchMine(ctx, 0)

	snap := svc.Snapshot()
	if !reflect.DeepEqual(ids(snap.Feed.Items), []int64{1, 2}) ||
		!reflect.DeepEqual(ids(snap.Search.Items), []int64{2}) ||
		!reflect.DeepEqual(ids(snap.Mine.Items), []int64{7}) {
		t.Errorf("snapshot = feed %v search %v mine %v", ids(snap.Feed.Items), ids(snap.Search.Items), ids(snap.Mine.Items))
	}
	if snap.Search.Keyword != "two" {
		t.Errorf("Keyword = %q", snap.Search.Keyword)
	}
}

// 空キーワードの検索はフィードの0ページ目取得と同じ結果になる
func TestSearch_EmptyKeywordEqualsFeedFetch(t *testing.T) {
	ctx := context.Background()
	pages := map[string][][]model.Article{
		"/articles":        {{art(1), art(2)}, {art(3)}},
		"/articles/search": {{art(9)}},
	}

	viaSearch := NewService(&mockRequester{doFn: pagedServer(pages)}, discardLogger(), 2)
	_, _ = viaSearch.Search(ctx, "nine", 0)
	page, err := viaSearch.Search(ctx, "   ", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if page == nil || len(page.Content) != 2 {
		t.Errorf("page = %+v", page)
	}

	viaFeed := NewService(&mockRequester{doFn: pagedServer(pages)}, discardLogger(), 2)
	_, _ = viaFeed.FetchFeed(ctx, 0)

	a, b := viaSearch.Snapshot(), viaFeed.Snapshot()
	if !reflect.DeepEqual(a.Feed, b.Feed) {
		t.Errorf("feed differs: %+v vs %+v", a.Feed, b.Feed)
	}
	if len(a.Search.Items) != 0 || a.Search.Keyword != "" {
		t.Errorf("検索状態がクリアされていない: %+v", a.Search)
	}
}

func TestClearSearch(t *testing.T) {
	ctx := context.Background()
	client := &mockRequester{doFn: pagedServer(map[string][][]model.Article{
		"/articles":        {{art(1)}},
		"/articles/search": {{art(9)}},
	})}
	svc := NewService(client, discardLogger(), 10)
	_, _ = svc.Search(ctx, "nine", 0)

	if err := svc.ClearSearch(ctx); err != nil {
		t.Fatalf("ClearSearch failed: %v", err)
	}
	snap := svc.Snapshot()
	if len(snap.Search.Items) != 0 {
		t.Error("検索結果が残っている")
	}
	if !reflect.DeepEqual(ids(snap.Feed.Items), []int64{1}) {
		t.Errorf("feed = %v", ids(snap.Feed.Items))
	}
}

func TestLoadMore(t *testing.T) {
	ctx := context.Background()
	client := &mockRequester{doFn: pagedServer(map[string][][]model.Article{
		"/articles/search": {{art(1)}, {art(2)}},
	})}
	svc := NewService(client, discardLogger(), 1)

	// 未取得の一覧では何もしない
	if page, err := svc.LoadMore(ctx, ListSearch); page != nil || err != nil {
		t.Errorf("LoadMore on empty list = %v, %v", page, err)
	}
	if client.callCount() != 0 {
		t.Error("未取得の一覧でリクエストが送られた")
	}

	_, _ = svc.Search(ctx, "go", 0)
	if _, err := svc.LoadMore(ctx, ListSearch); err != nil {
		t.Fatalf("LoadMore failed: %v", err)
	}
	last := client.calls[len(client.calls)-1]
	if last.Query.Get("keyword") != "go" || last.Query.Get("page") != "1" {
		t.Errorf("LoadMore query = %v", last.Query)
	}
	if got := ids(svc.List(ListSearch).Items); !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Errorf("items = %v", got)
	}

	// 最終ページ以降は何もしない
	before := client.callCount()
	if page, err := svc.LoadMore(ctx, ListSearch); page != nil || err != nil {
		t.Errorf("LoadMore past end = %v, %v", page, err)
	}
	if client.callCount() != before {
		t.Error("最終ページ以降でリクエストが送られた")
	}
}

// 同じ一覧への並行したLoadMoreは直列化され、同じページが重複して追加されない
func TestLoadMore_ConcurrentCallsDoNotDuplicatePages(t *testing.T) {
	ctx := context.Background()
	client := &mockRequester{doFn: pagedServer(map[string][][]model.Article{
		"/articles": {{art(1)}, {art(2)}, {art(3)}},
	})}
	svc := NewService(client, discardLogger(), 1)
	_, _ = svc.FetchFeed(ctx, 0)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.LoadMore(ctx, ListFeed)
		}()
	}
	wg.Wait()

	if got := ids(svc.List(ListFeed).Items); !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Errorf("items = %v, want [1 2 3]", got)
	}
}

func TestFetch_ErrorPolicy(t *testing.T) {
	ctx := context.Background()
	fail := true
	client := &mockRequester{doFn: func(ctx context.Context, req apiclient.Request, out any) error {
		if fail {
			return model.NewStatusError(model.KindForbidden, 403)
		}
		return pagedServer(map[string][][]model.Article{"/articles/my": {{art(1)}}})(ctx, req, out)
	}}
	svc := NewService(client, discardLogger(), 10)

	if _, err := svc.FetchMine(ctx, 0); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("err = %v", err)
	}
	snap := svc.Snapshot()
	if snap.ErrorMessage != "You don't have permission to perform this action" {
		t.Errorf("ErrorMessage = %q", snap.ErrorMessage)
	}
	if snap.Mine.ErrorMessage != snap.ErrorMessage || snap.Mine.IsLoading || snap.IsLoading {
		t.Errorf("mine = %+v", snap.Mine)
	}

	// 次の操作の開始時にエラーはクリアされる
	fail = false
	if _, err := svc.FetchMine(ctx, 0); err != nil {
		t.Fatal(err)
	}
	snap = svc.Snapshot()
	if snap.ErrorMessage != "" || snap.Mine.ErrorMessage != "" {
		t.Errorf("エラーがクリアされていない: %+v", snap)
	}
}

// IsLoadingはネットワーク処理の間だけtrueになる
func TestFetch_IsLoadingDuringRequest(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	client := &mockRequester{doFn: func(_ context.Context, _ apiclient.Request, out any) error {
		close(started)
		<-release
		*out.(*model.ArticlePage) = model.ArticlePage{TotalPages: 1}
		return nil
	}}
	svc := NewService(client, discardLogger(), 10)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.FetchFeed(context.Background(), 0)
	}()

	<-started
	snap := svc.Snapshot()
	if !snap.IsLoading || !snap.Feed.IsLoading {
		t.Error("処理中にIsLoadingがfalse")
	}
	close(release)
	<-done

	snap = svc.Snapshot()
	if snap.IsLoading || snap.Feed.IsLoading {
		t.Error("完了後もIsLoadingがtrue")
	}
}

func TestFetch_NegativePage(t *testing.T) {
	client := &mockRequester{}
	svc := NewService(client, discardLogger(), 10)
	if _, err := svc.FetchFeed(context.Background(), -1); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
	if client.callCount() != 0 {
		t.Error("ネットワーク呼び出しが行われた")
	}
}

func TestGet_DoesNotMutateLists(t *testing.T) {
	ctx := context.Background()
	client := &mockRequester{doFn: func(_ context.Context, req apiclient.Request, out any) error {
		switch p := out.(type) {
		case *model.ArticlePage:
			*p = model.ArticlePage{Content: []model.Article{art(1)}, TotalPages: 1}
		case *model.Article:
			*p = art(99)
		}
		return nil
	}}
	svc := NewService(client, discardLogger(), 10)
	_, _ = svc.FetchFeed(ctx, 0)
	before := svc.Snapshot()

	a, err := svc.Get(ctx, 99)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if a.ID != 99 {
		t.Errorf("article = %+v", a)
	}
	if last := client.calls[len(client.calls)-1]; last.Endpoint != "/articles/99" {
		t.Errorf("endpoint = %q", last.Endpoint)
	}
	if !reflect.DeepEqual(before, svc.Snapshot()) {
		t.Error("Getで一覧が変更された")
	}
}

func TestGet_NotFound(t *testing.T) {
	client := &mockRequester{doFn: func(context.Context, apiclient.Request, any) error {
		return model.NewStatusError(model.KindNotFound, 404)
	}}
	svc := NewService(client, discardLogger(), 10)
	if _, err := svc.Get(context.Background(), 1); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
	if svc.Snapshot().ErrorMessage != "Resource not found" {
		t.Errorf("ErrorMessage = %q", svc.Snapshot().ErrorMessage)
	}
}

// タイトルまたは本文が空の作成はネットワーク呼び出しを行わずに失敗する
func TestCreate_EmptyFieldsNoNetwork(t *testing.T) {
	tests := []struct {
		name, title, content string
	}{
		{"タイトル空", "", "content"},
		{"本文空", "title", ""},
		{"空白のみ", "  ", "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockRequester{}
			svc := NewService(client, discardLogger(), 10)

			a, err := svc.Create(context.Background(), tt.title, tt.content)
			if !errors.Is(err, model.ErrInvalidInput) || a != nil {
				t.Errorf("Create = %v, %v", a, err)
			}
			if client.callCount() != 0 {
				t.Error("ネットワーク呼び出しが行われた")
			}
			snap := svc.Snapshot()
			if snap.ErrorMessage != "Title and content are required" || snap.IsLoading {
				t.Errorf("snapshot = %+v", snap)
			}
		})
	}
}

func TestCreate_PrependsToFeedAndMine(t *testing.T) {
	ctx := context.Background()
	client := &mockRequester{doFn: func(_ context.Context, req apiclient.Request, out any) error {
		switch req.Endpoint {
		case "/articles":
			if req.Method == http.MethodPost {
				body := req.Body.(model.ArticleRequest)
				*out.(*model.Article) = model.Article{ID: 50, Title: body.Title, Content: body.Content}
				return nil
			}
			*out.(*model.ArticlePage) = model.ArticlePage{Content: []model.Article{art(1)}, TotalPages: 1}
		case "/articles/my":
			*out.(*model.ArticlePage) = model.ArticlePage{Content: []model.Article{art(2)}, TotalPages: 1}
		case "/articles/search":
			*out.(*model.ArticlePage) = model.ArticlePage{Content: []model.Article{art(3)}, TotalPages: 1}
		}
		return nil
	}}
	svc := NewService(client, discardLogger(), 10)
	_, _ = svc.FetchFeed(ctx, 0)
	_, _ = svc.FetchMine(ctx, 0)
	_, _ = svc.Search(ctx, "x", 0)

	a, err := svc.Create(ctx, "New title", "New content")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.ID != 50 {
		t.Errorf("article = %+v", a)
	}

	snap := svc.Snapshot()
	if got := ids(snap.Feed.Items); !reflect.DeepEqual(got, []int64{50, 1}) {
		t.Errorf("feed = %v", got)
	}
	if got := ids(snap.Mine.Items); !reflect.DeepEqual(got, []int64{50, 2}) {
		t.Errorf("mine = %v", got)
	}
	if got := ids(snap.Search.Items); !reflect.DeepEqual(got, []int64{3}) {
		t.Errorf("検索一覧は変更されないべき: %v", got)
	}
}

func TestCreate_ServerErrorLeavesListsUntouched(t *testing.T) {
	client := &mockRequester{doFn: func(context.Context, apiclient.Request, any) error {
		return model.NewServerError(400, "Title must be between 5 and 200 characters")
	}}
	svc := NewService(client, discardLogger(), 10)

	if _, err := svc.Create(context.Background(), "Hi", "content"); !errors.Is(err, model.ErrServer) {
		t.Fatalf("err = %v", err)
	}
	snap := svc.Snapshot()
	if len(snap.Feed.Items) != 0 || len(snap.Mine.Items) != 0 {
		t.Error("失敗時に一覧が変更された")
	}
	if snap.ErrorMessage != "Title must be between 5 and 200 characters" {
		t.Errorf("ErrorMessage = %q", snap.ErrorMessage)
	}
}

// 全一覧に記事を読み込んだServiceを用意する。
// feed: [4 5 6], search: [5 8], mine: [9]
func loadedService(t *testing.T, client *mockRequester) *Service {
	t.Helper()
	client.doFn = pagedServer(map[string][][]model.Article{
		"/articles":        {{art(4), art(5), art(6)}},
		"/articles/search": {{art(5), art(8)}},
		"/articles/my":     {{art(9)}},
	})
	svc := NewService(client, discardLogger(), 10)
	ctx := context.Background()
	_, _ = svc.FetchFeed(ctx, 0)
	_, _ = svc.Search(ctx, "five", 0)
	_, _ = svc.FetchMine(ctx, 0)
	return svc
}

// 更新成功後、id=5を含む全ての一覧で同じ位置の要素が置き換わり、含まない一覧は変化しない
func TestUpdate_ReplacesInPlaceInEveryList(t *testing.T) {
	client := &mockRequester{}
	svc := loadedService(t, client)
	before := svc.Snapshot()

	updated := model.Article{ID: 5, Title: "Updated title", Content: "Updated content"}
	client.doFn = func(_ context.Context, req apiclient.Request, out any) error {
		if req.Method != http.MethodPut || req.Endpoint != "/articles/5" {
			t.Errorf("request = %+v", req)
		}
		*out.(*model.Article) = updated
		return nil
	}

	if _, err := svc.Update(context.Background(), 5, "Updated title", "Updated content"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	snap := svc.Snapshot()
	if snap.Feed.Items[1] != updated {
		t.Errorf("feed[1] = %+v", snap.Feed.Items[1])
	}
	if snap.Search.Items[0] != updated {
		t.Errorf("search[0] = %+v", snap.Search.Items[0])
	}
	if !reflect.DeepEqual(ids(snap.Feed.Items), []int64{4, 5, 6}) || !reflect.DeepEqual(ids(snap.Search.Items), []int64{5, 8}) {
		t.Error("位置が変わった")
	}
	if !reflect.DeepEqual(snap.Mine, before.Mine) {
		t.Error("id=5を含まない一覧が変更された")
	}
	if snap.Feed.Items[0] != before.Feed.Items[0] || snap.Feed.Items[2] != before.Feed.Items[2] {
		t.Error("他の要素が変更された")
	}
}

func TestUpdate_EmptyFieldsNoNetwork(t *testing.T) {
	client := &mockRequester{}
	svc := NewService(client, discardLogger(), 10)
	if _, err := svc.Update(context.Background(), 5, "", "x"); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
	if client.callCount() != 0 {
		t.Error("ネットワーク呼び出しが行われた")
	}
}

func TestUpdate_FailureLeavesListsUntouched(t *testing.T) {
	client := &mockRequester{}
	svc := loadedService(t, client)
	before := svc.Snapshot()

	client.doFn = func(context.Context, apiclient.Request, any) error {
		return model.NewStatusError(model.KindForbidden, 403)
	}
	if _, err := svc.Update(context.Background(), 5, "t", "c"); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("err = %v", err)
	}
	after := svc.Snapshot()
	if !reflect.DeepEqual(before.Feed, after.Feed) || !reflect.DeepEqual(before.Search, after.Search) {
		t.Error("失敗時に一覧が変更された")
	}
}

// 削除成功後、どの一覧にもid=5が残らない
func TestDelete_RemovesFromEveryList(t *testing.T) {
	client := &mockRequester{}
	svc := loadedService(t, client)

	client.doFn = func(_ context.Context, req apiclient.Request, _ any) error {
		if req.Method != http.MethodDelete || req.Endpoint != "/articles/5" {
			t.Errorf("request = %+v", req)
		}
		return nil
	}
	if err := svc.Delete(context.Background(), 5); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	snap := svc.Snapshot()
	for name, list := range map[string]ListState{"feed": snap.Feed, "search": snap.Search, "mine": snap.Mine} {
		for _, a := range list.Items {
			if a.ID == 5 {
				t.Errorf("%s にid=5が残っている", name)
			}
		}
	}
	if got := ids(snap.Feed.Items); !reflect.DeepEqual(got, []int64{4, 6}) {
		t.Errorf("feed = %v", got)
	}
	if got := ids(snap.Search.Items); !reflect.DeepEqual(got, []int64{8}) {
		t.Errorf("search = %v", got)
	}
	if got := ids(snap.Mine.Items); !reflect.DeepEqual(got, []int64{9}) {
		t.Errorf("mine = %v", got)
	}
}

func TestDelete_FailureKeepsItems(t *testing.T) {
	client := &mockRequester{}
	svc := loadedService(t, client)

	client.doFn = func(context.Context, apiclient.Request, any) error {
		return model.NewStatusError(model.KindNotFound, 404)
	}
	if err := svc.Delete(context.Background(), 5); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if got := ids(svc.List(ListFeed).Items); !reflect.DeepEqual(got, []int64{4, 5, 6}) {
		t.Errorf("feed = %v", got)
	}
}

// スナップショットは内部状態と共有しない
func TestSnapshot_IsCopy(t *testing.T) {
	client := &mockRequester{}
	svc := loadedService(t, client)

	snap := svc.Snapshot()
	snap.Feed.Items[0].Title = "tampered"

	if svc.List(ListFeed).Items[0].Title == "tampered" {
		t.Error("内部状態が変更された")
	}
}

func TestReset(t *testing.T) {
	client := &mockRequester{}
	svc := loadedService(t, client)

	svc.Reset()
	snap := svc.Snapshot()
	if len(snap.Feed.Items)+len(snap.Search.Items)+len(snap.Mine.Items) != 0 {
		t.Error("Reset後に記事が残っている")
	}
}

func TestMyStats(t *testing.T) {
	client := &mockRequester{doFn: pagedServer(map[string][][]model.Article{
		"/articles/my": {{
			{ID: 1, ViewCount: 10},
			{ID: 2, ViewCount: 5},
		}},
	})}
	svc := NewService(client, discardLogger(), 10)
	_, _ = svc.FetchMine(context.Background(), 0)

	if got := svc.MyStats(); got != (Stats{Count: 2, TotalViews: 15}) {
		t.Errorf("MyStats = %+v", got)
	}
}

func TestListKind_String(t *testing.T) {
	if ListFeed.String() != "feed" || ListSearch.String() != "search" || ListMine.String() != "mine" || ListKind(7).String() != "unknown" {
		t.Error("unexpected ListKind.String()")
	}
}
