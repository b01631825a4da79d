package handlers

import (
	"errors"
	"net/http"

	"github.com/devconnect/apiserver/internal/services"
	"github.com/devconnect/apiserver/internal/store"
	"github.com/devconnect/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PostHandler provides HTTP handlers for posts, likes and comments.
// Every route requires authentication.
type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

func (h *PostHandler) PostRouter(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)
	r.Post("/", h.CreatePost)
	r.Get("/", h.ListPosts)
	r.Get("/{postID}", h.GetPost)
	r.Delete("/{postID}", h.DeletePost)
	r.Put("/like/{postID}", h.LikePost)
	r.Put("/unlike/{postID}", h.UnlikePost)
	r.Post("/comment/{postID}", h.AddComment)
	r.Delete("/comment/{postID}/{commentID}", h.RemoveComment)
}

type PostRequest struct {
	Text string `json:"text" validate:"required"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, req) {
		return
	}

	post, err := h.posts.Create(r.Context(), userID, req.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}
	if posts == nil {
		posts = []types.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	post, err := h.posts.Get(r.Context(), postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), postID, userID); err != nil {
		h.writePostMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "post removed"})
}

func (h *PostHandler) LikePost(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	likes, err := h.posts.Like(r.Context(), postID, userID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyLiked) {
			writeError(w, http.StatusBadRequest, "post already liked")
			return
		}
		h.writePostMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, likes)
}

func (h *PostHandler) UnlikePost(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	likes, err := h.posts.Unlike(r.Context(), postID, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotLiked) {
			writeError(w, http.StatusBadRequest, "post has not yet been liked")
			return
		}
		h.writePostMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, likes)
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, req) {
		return
	}

	comments, err := h.posts.AddComment(r.Context(), postID, userID, req.Text)
	if err != nil {
		h.writePostMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *PostHandler) RemoveComment(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	postID, ok := postIDParam(w, r)
	if !ok {
		return
	}

	comments, err := h.posts.RemoveComment(r.Context(), postID, chi.URLParam(r, "commentID"), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "comment does not exist")
			return
		}
		h.writePostMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// postIDParam validates the {postID} path segment. A malformed id can
// never match a stored post, so it reads as not found.
func postIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	postID := chi.URLParam(r, "postID")
	if _, err := uuid.Parse(postID); err != nil {
		writeError(w, http.StatusNotFound, "post not found")
		return "", false
	}
	return postID, true
}

func (h *PostHandler) writePostMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "post not found")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusUnauthorized, "user not authorized")
	default:
		writeError(w, http.StatusInternalServerError, "failed to update post")
	}
}
