package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/articlefeed/internal/devserver"
	"github.com/hitoshi/articlefeed/internal/middleware"
	"github.com/hitoshi/articlefeed/internal/model"
)

// ArticleBackend は記事ハンドラーが必要とするバックエンドのインターフェース。
type ArticleBackend interface {
	ListArticles(q devserver.PageQuery) (*model.ArticlePage, error)
	SearchArticles(keyword string, q devserver.PageQuery) (*model.ArticlePage, error)
	MyArticles(userID int64, q devserver.PageQuery) (*model.ArticlePage, error)
	GetArticle(id int64) (*model.Article, error)
	CreateArticle(userID int64, req model.ArticleRequest) (*model.Article, error)
	UpdateArticle(userID, id int64, req model.ArticleRequest) (*model.Article, error)
	DeleteArticle(userID, id int64) error
}

// ArticleHandler は記事管理のHTTPハンドラー。全ルートで認証が必要。
type ArticleHandler struct {
	backend ArticleBackend
}

// NewArticleHandler はArticleHandlerを生成する。
func NewArticleHandler(backend ArticleBackend) *ArticleHandler {
	return &ArticleHandler{backend: backend}
}

// pageQuery はpage/size/sortBy/sortDirを読み取る。数値でない場合は400を書き込みfalseを返す。
func pageQuery(w http.ResponseWriter, r *http.Request) (devserver.PageQuery, bool) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "Invalid page parameter")
		return devserver.PageQuery{}, false
	}
	size, err := queryInt(r, "size", devserver.DefaultPageSize)
	if err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "Invalid size parameter")
		return devserver.PageQuery{}, false
	}
	return devserver.PageQuery{
		Page:    page,
		Size:    size,
		SortBy:  r.URL.Query().Get("sortBy"),
		SortDir: r.URL.Query().Get("sortDir"),
	}, true
}

// articleID はパスパラメータの記事IDを読み取る。
func articleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.WriteError(w, r, http.StatusBadRequest, "Invalid article id")
		return 0, false
	}
	return id, true
}

// currentUser は認証済みユーザーIDを返す。
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteError(w, r, http.StatusUnauthorized, "Authentication required")
		return 0, false
	}
	return userID, true
}

// List は記事一覧を返す。
// GET /articles?page&size&sortBy&sortDir
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	q, ok := pageQuery(w, r)
	if !ok {
		return
	}
	page, err := h.backend.ListArticles(q)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, page)
}

// Search はキーワード検索の結果を返す。
// GET /articles/search?keyword&page&size
func (h *ArticleHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, ok := pageQuery(w, r)
	if !ok {
		return
	}
	page, err := h.backend.SearchArticles(r.URL.Query().Get("keyword"), q)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, page)
}

// My は認証済みユーザーの記事一覧を返す。
// GET /articles/my?page&size
func (h *ArticleHandler) My(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	q, ok := pageQuery(w, r)
	if !ok {
		return
	}
	page, err := h.backend.MyArticles(userID, q)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, page)
}

// Get は記事詳細を返す。
// GET /articles/{id}
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}
	a, err := h.backend.GetArticle(id)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, a)
}

// Create は記事を作成する。
// POST /articles
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req model.ArticleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.backend.CreateArticle(userID, req)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, a)
}

// Update は記事を更新する。著者本人のみ。
// PUT /articles/{id}
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := articleID(w, r)
	if !ok {
		return
	}
	var req model.ArticleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.backend.UpdateArticle(userID, id, req)
	if err != nil {
		handleBackendError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, a)
}

// Delete は記事を削除する。著者本人のみ。
// DELETE /articles/{id}
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := articleID(w, r)
	if !ok {
		return
	}
	if err := h.backend.DeleteArticle(userID, id); err != nil {
		handleBackendError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, model.MessageResponse{Message: "Article deleted successfully"})
}
