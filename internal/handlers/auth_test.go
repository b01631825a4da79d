package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devconnect/apiserver/internal/services"
	"github.com/devconnect/apiserver/internal/store"
	"github.com/devconnect/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "handler-test-secret"

type memUserRepo struct {
	users map[string]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]types.User)}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) UpdateAvatar(ctx context.Context, id, avatar string) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.Avatar = avatar
	r.users[id] = user
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func newAuthTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	users := services.NewUserService(newMemUserRepo())
	handler := NewAuthHandler(users, nil, testJWTSecret, time.Hour)
	authMiddleware := RequireAuth(testJWTSecret)

	router := chi.NewRouter()
	router.Route("/api/users", func(r chi.Router) {
		handler.UserRouter(r, authMiddleware)
	})
	router.Route("/api/auth", func(r chi.Router) {
		handler.AuthRouter(r, authMiddleware)
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func registerTestUser(t *testing.T, baseURL string) string {
	t.Helper()
	resp := postJSON(t, baseURL+"/api/users", RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[TokenResponse](t, resp).Token
}

func TestRegisterLoginMeRoundTrip(t *testing.T) {
	srv := newAuthTestServer(t)

	tok := registerTestUser(t, srv.URL)
	require.NotEmpty(t, tok)

	resp := postJSON(t, srv.URL+"/api/auth", LoginRequest{
		Email: "alice@example.com", Password: "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loginTok := decodeBody[TokenResponse](t, resp).Token
	require.NotEmpty(t, loginTok)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/auth", nil)
	require.NoError(t, err)
	req.Header.Set(AuthHeader, loginTok)
	meResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, meResp.StatusCode)

	user := decodeBody[map[string]any](t, meResp)
	assert.Equal(t, "Alice", user["name"])
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Contains(t, user["avatar"], "gravatar.com/avatar/")
	assert.NotContains(t, user, "password_hash")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv := newAuthTestServer(t)
	registerTestUser(t, srv.URL)

	resp := postJSON(t, srv.URL+"/api/users", RegisterRequest{
		Name: "Alice Again", Email: "alice@example.com", Password: "secret456",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "user already exists", decodeBody[ErrorResponse](t, resp).Error)
}

func TestRegisterValidation(t *testing.T) {
	srv := newAuthTestServer(t)

	resp := postJSON(t, srv.URL+"/api/users", RegisterRequest{
		Name: "Bob", Email: "not-an-email", Password: "short",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[ValidationErrorResponse](t, resp)
	params := make([]string, 0, len(body.Errors))
	for _, fe := range body.Errors {
		params = append(params, fe.Param)
	}
	assert.Contains(t, params, "email")
	assert.Contains(t, params, "password")
}

func TestLoginDoesNotLeakAccountExistence(t *testing.T) {
	srv := newAuthTestServer(t)
	registerTestUser(t, srv.URL)

	unknown := postJSON(t, srv.URL+"/api/auth", LoginRequest{
		Email: "nobody@example.com", Password: "secret123",
	})
	require.Equal(t, http.StatusBadRequest, unknown.StatusCode)
	unknownBody := decodeBody[ErrorResponse](t, unknown)

	wrongPass := postJSON(t, srv.URL+"/api/auth", LoginRequest{
		Email: "alice@example.com", Password: "wrongpass",
	})
	require.Equal(t, http.StatusBadRequest, wrongPass.StatusCode)
	wrongPassBody := decodeBody[ErrorResponse](t, wrongPass)

	assert.Equal(t, unknownBody, wrongPassBody)
	assert.Equal(t, "invalid credentials", unknownBody.Error)
}

func TestMeRequiresToken(t *testing.T) {
	srv := newAuthTestServer(t)

	resp, err := http.Get(srv.URL + "/api/auth")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "no token, authorization denied", decodeBody[ErrorResponse](t, resp).Error)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/auth", nil)
	require.NoError(t, err)
	req.Header.Set(AuthHeader, "garbage.token.value")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "token is not valid", decodeBody[ErrorResponse](t, resp).Error)
}
