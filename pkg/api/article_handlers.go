package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/inkwell/pkg/articles"
	"github.com/platinummonkey/inkwell/pkg/cache"
	"github.com/platinummonkey/inkwell/pkg/httputil"
	"github.com/platinummonkey/inkwell/pkg/observability"
)

// ArticleHandlers provides article and category API endpoints
type ArticleHandlers struct {
	store  *articles.Store
	cache  *cache.ResponseCache
	logger *observability.Logger
}

// NewArticleHandlers creates a new article handlers instance
func NewArticleHandlers(store *articles.Store, rc *cache.ResponseCache, logger *observability.Logger) *ArticleHandlers {
	return &ArticleHandlers{
		store:  store,
		cache:  rc,
		logger: logger,
	}
}

// RegisterRoutes registers article API routes
func (h *ArticleHandlers) RegisterRoutes(r *mux.Router) {
	// Cached reads
	r.Handle("/api/v1/articles",
		cached(h.cache, cache.ClassArticlesList, nil, h.listArticles)).Methods("GET")
	r.Handle("/api/v1/articles/{id:[0-9]+}",
		cached(h.cache, cache.ClassArticleByID, pathIdent("id"), h.getArticle)).Methods("GET")
	r.Handle("/api/v1/articles/slug/{slug}",
		cached(h.cache, cache.ClassArticleBySlug, pathIdent("slug"), h.getArticleBySlug)).Methods("GET")
	r.Handle("/api/v1/categories",
		cached(h.cache, cache.ClassCategories, nil, h.listCategories)).Methods("GET")

	// Mutations
	r.HandleFunc("/api/v1/articles", h.createArticle).Methods("POST")
	r.HandleFunc("/api/v1/articles/{id:[0-9]+}", h.updateArticle).Methods("PUT")
	r.HandleFunc("/api/v1/articles/{id:[0-9]+}", h.deleteArticle).Methods("DELETE")
	r.HandleFunc("/api/v1/articles/{id:[0-9]+}/publish", h.publishArticle).Methods("POST")
	r.HandleFunc("/api/v1/articles/{id:[0-9]+}/archive", h.archiveArticle).Methods("POST")
	r.HandleFunc("/api/v1/categories", h.createCategory).Methods("POST")
}

// ArticleListResponse is the payload for GET /api/v1/articles
type ArticleListResponse struct {
	Articles []*articles.Article `json:"articles"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	Limit    int                 `json:"limit"`
}

// listArticles handles GET /api/v1/articles
// Query params: status, category_id, author_id, page, limit, orderBy, orderDir
func (h *ArticleHandlers) listArticles(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParseQueryInt(r, "page", 1)
	if err != nil {
		httputil.WriteBadRequest(w, "page must be an integer")
		return
	}
	limit, err := httputil.ParseQueryInt(r, "limit", 20)
	if err != nil {
		httputil.WriteBadRequest(w, "limit must be an integer")
		return
	}
	categoryID, err := httputil.ParseQueryInt64(r, "category_id", 0)
	if err != nil {
		httputil.WriteBadRequest(w, "category_id must be an integer")
		return
	}
	authorID, err := httputil.ParseQueryInt64(r, "author_id", 0)
	if err != nil {
		httputil.WriteBadRequest(w, "author_id must be an integer")
		return
	}

	opts := articles.ListOptions{
		Status:     httputil.ParseQueryString(r, "status", ""),
		CategoryID: categoryID,
		AuthorID:   authorID,
		Page:       page,
		Limit:      limit,
		OrderBy:    httputil.ParseQueryString(r, "orderBy", ""),
		OrderDir:   httputil.ParseQueryString(r, "orderDir", ""),
	}

	list, total, err := h.store.List(r.Context(), opts)
	if err != nil {
		h.writeArticleError(w, err)
		return
	}
	if list == nil {
		list = []*articles.Article{}
	}

	httputil.WriteJSON(w, http.StatusOK, ArticleListResponse{
		Articles: list,
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

// getArticle handles GET /api/v1/articles/{id}
func (h *ArticleHandlers) getArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	article, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.writeArticleError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, article)
}

// getArticleBySlug handles GET /api/v1/articles/slug/{slug}
func (h *ArticleHandlers) getArticleBySlug(w http.ResponseWriter, r *http.Request) {
	slug, ok := httputil.ParsePathStringOrError(w, r, "slug")
	if !ok {
		return
	}

	article, err := h.store.GetBySlug(r.Context(), slug)
	if err != nil {
		h.writeArticleError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, article)
}

// listCategories handles GET /api/v1/categories
func (h *ArticleHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.Categories(r.Context())
	if err != nil {
		h.writeArticleError(w, err)
		return
	}
	if list == nil {
		list = []*articles.Category{}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": list})
}

// ArticleRequest is the payload for article create and update
type ArticleRequest struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Summary    string `json:"summary"`
	Content    string `json:"content"`
	CategoryID *int64 `json:"category_id"`
	AuthorID   int64  `json:"author_id"`
}

// createArticle handles POST /api/v1/articles
func (h *ArticleHandlers) createArticle(w http.ResponseWriter, r *http.Request) {
	var req ArticleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Title, "title") ||
		!httputil.RequireNonEmpty(w, req.Slug, "slug") {
		return
	}

	article := &articles.Article{
		Title:      req.Title,
		Slug:       req.Slug,
		Summary:    req.Summary,
		Content:    req.Content,
		CategoryID: req.CategoryID,
		AuthorID:   req.AuthorID,
	}
	if err := h.store.Create(r.Context(), article); err != nil {
		h.writeArticleError(w, err)
		return
	}

	h.invalidateLists(r.Context())
	httputil.WriteCreated(w, article)
}

// updateArticle handles PUT /api/v1/articles/{id}
func (h *ArticleHandlers) updateArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req ArticleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Title, "title") ||
		!httputil.RequireNonEmpty(w, req.Slug, "slug") {
		return
	}

	// The slug may change with the update; capture the old one so its
	// cached response is dropped too.
	oldSlug, _ := h.store.SlugByID(r.Context(), id)

	article := &articles.Article{
		ID:         id,
		Title:      req.Title,
		Slug:       req.Slug,
		Summary:    req.Summary,
		Content:    req.Content,
		CategoryID: req.CategoryID,
	}
	if err := h.store.Update(r.Context(), article); err != nil {
		h.writeArticleError(w, err)
		return
	}

	h.invalidateArticle(r.Context(), id, oldSlug, req.Slug)
	httputil.WriteJSON(w, http.StatusOK, article)
}

// deleteArticle handles DELETE /api/v1/articles/{id}
func (h *ArticleHandlers) deleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	slug, _ := h.store.SlugByID(r.Context(), id)

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeArticleError(w, err)
		return
	}

	h.invalidateArticle(r.Context(), id, slug, "")
	httputil.WriteNoContent(w)
}

// publishArticle handles POST /api/v1/articles/{id}/publish
func (h *ArticleHandlers) publishArticle(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, articles.StatusPublished)
}

// archiveArticle handles POST /api/v1/articles/{id}/archive
func (h *ArticleHandlers) archiveArticle(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, articles.StatusArchived)
}

func (h *ArticleHandlers) setStatus(w http.ResponseWriter, r *http.Request, status string) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.SetStatus(r.Context(), id, status); err != nil {
		h.writeArticleError(w, err)
		return
	}

	slug, _ := h.store.SlugByID(r.Context(), id)
	h.invalidateArticle(r.Context(), id, slug, "")

	httputil.WriteSuccessMessage(w, "Article "+status, map[string]interface{}{"id": id, "status": status})
}

// CategoryRequest is the payload for category creation
type CategoryRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// createCategory handles POST /api/v1/categories
func (h *ArticleHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") ||
		!httputil.RequireNonEmpty(w, req.Slug, "slug") {
		return
	}

	category := &articles.Category{Name: req.Name, Slug: req.Slug}
	if err := h.store.CreateCategory(r.Context(), category); err != nil {
		h.writeArticleError(w, err)
		return
	}

	if h.cache != nil {
		h.cache.InvalidateCategories(r.Context())
	}
	httputil.WriteCreated(w, category)
}

// invalidateLists drops cached responses that enumerate articles.
func (h *ArticleHandlers) invalidateLists(ctx context.Context) {
	if h.cache == nil {
		return
	}
	h.cache.InvalidateArticles(ctx)
	h.cache.InvalidateAnalytics(ctx)
}

// invalidateArticle drops every cached response touching the article.
// Both slugs are invalidated when an update renamed it.
func (h *ArticleHandlers) invalidateArticle(ctx context.Context, id int64, slugs ...string) {
	if h.cache == nil {
		return
	}
	h.cache.InvalidateArticle(ctx, id)
	seen := map[string]bool{}
	for _, slug := range slugs {
		if slug != "" && !seen[slug] {
			seen[slug] = true
			h.cache.InvalidateSlug(ctx, slug)
		}
	}
	h.invalidateLists(ctx)
}

func (h *ArticleHandlers) writeArticleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, articles.ErrNotFound):
		httputil.WriteNotFoundError(w, "Article not found")
	default:
		if h.logger != nil {
			h.logger.WithError(err).Error("Article operation failed")
		}
		httputil.WriteInternalError(w, errors.New("internal server error"))
	}
}
