package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devconnect/apiserver/internal/gravatar"
	"github.com/devconnect/apiserver/internal/services"
	"github.com/devconnect/apiserver/internal/storage"
	"github.com/devconnect/apiserver/internal/store"
	"github.com/devconnect/apiserver/internal/token"
	"github.com/devconnect/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL = 100 * time.Hour
	maxAvatarBytes  = 5 << 20
	formFieldAvatar = "avatar"
)

// AuthHandler provides registration, login and account endpoints.
type AuthHandler struct {
	users    *services.UserService
	avatars  *storage.AvatarStore
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
// avatars may be nil, in which case avatar upload is disabled.
func NewAuthHandler(users *services.UserService, avatars *storage.AvatarStore, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthHandler{
		users:    users,
		avatars:  avatars,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
	}
}

// UserRouter registers account routes on the given router.
func (h *AuthHandler) UserRouter(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/", h.Register)
	r.With(authMiddleware).Post("/avatar", h.UploadAvatar)
	r.Get("/avatar/{userID}", h.ServeAvatar)
}

// AuthRouter registers session routes on the given router.
func (h *AuthHandler) AuthRouter(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/", h.Login)
	r.With(authMiddleware).Get("/", h.Me)
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// Register creates a new account and returns a session token;
// registration implies login.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if !validateRequest(w, req) {
		return
	}

	if _, err := h.users.GetByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusBadRequest, "user already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to check user")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user, err := h.users.Create(r.Context(), types.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Avatar:       gravatar.URL(req.Email),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "user already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	signed, err := token.Issue(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: signed})
}

// Login verifies credentials and returns a session token. Unknown email
// and wrong password produce the same response, so the endpoint does not
// leak which accounts exist.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !validateRequest(w, req) {
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusBadRequest, "invalid credentials")
		return
	}

	signed, err := token.Issue(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: signed})
}

// Me returns the current authenticated user, password hash excluded.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UploadAvatar stores a custom avatar image for the current user and
// repoints the user's avatar reference at it, replacing the gravatar.
func (h *AuthHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if h.avatars == nil {
		writeError(w, http.StatusServiceUnavailable, "avatar storage is not configured")
		return
	}

	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile(formFieldAvatar)
	if err != nil {
		writeError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	if header.Size > maxAvatarBytes {
		writeError(w, http.StatusBadRequest, "avatar file too large")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "avatar must be an image")
		return
	}

	if err := h.avatars.Put(r.Context(), userID, file, header.Size, contentType); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	avatarURL := "/api/users/avatar/" + userID
	if err := h.users.UpdateAvatar(r.Context(), userID, avatarURL); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update avatar")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"avatar": avatarURL})
}

// ServeAvatar streams a stored avatar image. Public, like the gravatar
// URLs it replaces.
func (h *AuthHandler) ServeAvatar(w http.ResponseWriter, r *http.Request) {
	if h.avatars == nil {
		writeError(w, http.StatusNotFound, "avatar not found")
		return
	}

	userID := chi.URLParam(r, "userID")
	reader, err := h.avatars.Get(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "avatar not found")
		return
	}
	defer reader.Close()

	// Sniff the content type from the first bytes of the object.
	var head [512]byte
	n, err := io.ReadFull(reader, head[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusNotFound, "avatar not found")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(head[:n]))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(head[:n])
	_, _ = io.Copy(w, reader)
}
