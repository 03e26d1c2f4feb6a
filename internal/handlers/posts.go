package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kleverson/cartas/internal/api"
	"github.com/kleverson/cartas/internal/websocket"
)

const relatedPostsLimit = 3

// ListPosts handles GET /api/posts
func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	filter := api.PostFilter{
		Category: r.URL.Query().Get("category"),
		Featured: parseBool(r, "featured"),
		Popular:  parseBool(r, "popular"),
		Limit:    parseLimit(r, 50, 200),
	}

	posts, err := h.store.ListPublishedPosts(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if posts == nil {
		posts = []api.Post{}
	}

	api.WriteJSON(w, http.StatusOK, api.PostsResponse{Posts: posts})
}

// GetPost handles GET /api/posts/{slug}
func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.store.GetPostBySlug(r.Context(), slug)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if post == nil {
		api.WriteErrorFromError(w, api.NewNotFoundError("post", slug))
		return
	}

	api.WriteJSON(w, http.StatusOK, post)
}

// RelatedPosts handles GET /api/posts/{slug}/related
func (h *Handlers) RelatedPosts(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.store.GetPostBySlug(r.Context(), slug)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if post == nil {
		api.WriteErrorFromError(w, api.NewNotFoundError("post", slug))
		return
	}

	posts, err := h.store.ListPublishedPosts(r.Context(), api.PostFilter{
		Category:  post.Category,
		ExcludeID: post.ID,
		Limit:     parseLimit(r, relatedPostsLimit, 12),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if posts == nil {
		posts = []api.Post{}
	}

	api.WriteJSON(w, http.StatusOK, api.PostsResponse{Posts: posts})
}

// ListCategories handles GET /api/categories
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if categories == nil {
		categories = []string{}
	}

	api.WriteJSON(w, http.StatusOK, api.CategoriesResponse{Categories: categories})
}

// AdminListPosts handles GET /api/admin/posts
func (h *Handlers) AdminListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.ListAdminPosts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if posts == nil {
		posts = []api.Post{}
	}

	api.WriteJSON(w, http.StatusOK, api.PostsResponse{Posts: posts})
}

// CreatePost handles POST /api/admin/posts
func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req api.PostInput
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.store.CreatePost(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.broadcastPostChange(websocket.PostCreated, post)
	api.WriteJSON(w, http.StatusCreated, post)
}

// UpdatePost handles PUT /api/admin/posts/{id}
func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req api.PostInput
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.store.UpdatePost(r.Context(), id, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.broadcastPostChange(websocket.PostUpdated, post)
	api.WriteJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /api/admin/posts/{id}
func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeletePost(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	h.broadcast(websocket.NewPostChangedMessage(websocket.PostChange{Action: websocket.PostDeleted, ID: id}))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) broadcastPostChange(action string, post *api.Post) {
	h.broadcast(websocket.NewPostChangedMessage(websocket.PostChange{
		Action: action,
		ID:     post.ID,
		Slug:   post.Slug,
		Status: string(post.Status),
	}))
}
