package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/devconnect/apiserver/internal/github"
	"github.com/devconnect/apiserver/internal/services"
	"github.com/devconnect/apiserver/internal/store"
	"github.com/devconnect/apiserver/internal/token"
	"github.com/devconnect/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memProfileRepo struct {
	profiles map[string]types.Profile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[string]types.Profile)}
}

func (r *memProfileRepo) GetByUserID(ctx context.Context, userID string) (types.Profile, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return types.Profile{}, store.ErrNotFound
	}
	return profile, nil
}

func (r *memProfileRepo) List(ctx context.Context) ([]types.Profile, error) {
	out := make([]types.Profile, 0, len(r.profiles))
	for _, profile := range r.profiles {
		out = append(out, profile)
	}
	return out, nil
}

func (r *memProfileRepo) Upsert(ctx context.Context, profile types.Profile) (types.Profile, error) {
	if profile.Experience == nil {
		profile.Experience = []types.Experience{}
	}
	if profile.Education == nil {
		profile.Education = []types.Education{}
	}
	r.profiles[profile.UserID] = profile
	return profile, nil
}

func (r *memProfileRepo) UpdateExperience(ctx context.Context, userID string, old, updated []types.Experience) (types.Profile, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return types.Profile{}, store.ErrNotFound
	}
	if !reflect.DeepEqual(profile.Experience, old) {
		return types.Profile{}, store.ErrModified
	}
	profile.Experience = updated
	r.profiles[userID] = profile
	return profile, nil
}

func (r *memProfileRepo) UpdateEducation(ctx context.Context, userID string, old, updated []types.Education) (types.Profile, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return types.Profile{}, store.ErrNotFound
	}
	if !reflect.DeepEqual(profile.Education, old) {
		return types.Profile{}, store.ErrModified
	}
	profile.Education = updated
	r.profiles[userID] = profile
	return profile, nil
}

func (r *memProfileRepo) DeleteWithUser(ctx context.Context, userID string) error {
	if _, ok := r.profiles[userID]; !ok {
		return store.ErrNotFound
	}
	delete(r.profiles, userID)
	return nil
}

func newProfileTestServer(t *testing.T, githubBaseURL string) *httptest.Server {
	t.Helper()

	profiles := services.NewProfileService(newMemProfileRepo())
	githubClient := github.NewClientWithBaseURL("", githubBaseURL)
	handler := NewProfileHandler(profiles, githubClient)

	router := chi.NewRouter()
	router.Route("/api/profile", func(r chi.Router) {
		handler.ProfileRouter(r, RequireAuth(testJWTSecret))
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func authedRequest(t *testing.T, method, url, userID string, body any) *http.Response {
	t.Helper()
	tok, err := token.Issue(userID, []byte(testJWTSecret), defaultTokenTTL)
	require.NoError(t, err)

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set(AuthHeader, tok)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestGetMyProfileNoneYet(t *testing.T) {
	srv := newProfileTestServer(t, "http://127.0.0.1:0")

	resp := authedRequest(t, http.MethodGet, srv.URL+"/api/profile/me", "alice", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "there is no profile for this user", decodeBody[ErrorResponse](t, resp).Error)
}

func TestUpsertAndFetchProfile(t *testing.T) {
	srv := newProfileTestServer(t, "http://127.0.0.1:0")

	resp := authedRequest(t, http.MethodPost, srv.URL+"/api/profile", "alice", ProfileUpsertRequest{
		Status: "Developer",
		Skills: "Go,SQL",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decodeBody[types.Profile](t, resp)
	assert.Equal(t, []string{"Go", "SQL"}, created.Skills)

	me := authedRequest(t, http.MethodGet, srv.URL+"/api/profile/me", "alice", nil)
	require.Equal(t, http.StatusOK, me.StatusCode)
	fetched := decodeBody[types.Profile](t, me)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestUpsertProfileValidation(t *testing.T) {
	srv := newProfileTestServer(t, "http://127.0.0.1:0")

	resp := authedRequest(t, http.MethodPost, srv.URL+"/api/profile", "alice", ProfileUpsertRequest{
		Company: "Acme",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[ValidationErrorResponse](t, resp)
	params := make([]string, 0, len(body.Errors))
	for _, fe := range body.Errors {
		params = append(params, fe.Param)
	}
	assert.Contains(t, params, "status")
	assert.Contains(t, params, "skills")
}

func TestExperienceOverHTTP(t *testing.T) {
	srv := newProfileTestServer(t, "http://127.0.0.1:0")

	resp := authedRequest(t, http.MethodPost, srv.URL+"/api/profile", "alice", ProfileUpsertRequest{
		Status: "Developer", Skills: "Go",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = authedRequest(t, http.MethodPut, srv.URL+"/api/profile/experience", "alice", ExperienceRequest{
		Title: "Engineer", Company: "Acme", From: "2020-01-01",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decodeBody[types.Profile](t, resp)
	require.Len(t, profile.Experience, 1)
	entryID := profile.Experience[0].ID
	require.NotEmpty(t, entryID)

	resp = authedRequest(t, http.MethodDelete, srv.URL+"/api/profile/experience/"+entryID, "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile = decodeBody[types.Profile](t, resp)
	assert.Empty(t, profile.Experience)

	resp = authedRequest(t, http.MethodDelete, srv.URL+"/api/profile/experience/"+entryID, "alice", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestExperienceRejectsBadDate(t *testing.T) {
	srv := newProfileTestServer(t, "http://127.0.0.1:0")

	resp := authedRequest(t, http.MethodPut, srv.URL+"/api/profile/experience", "alice", ExperienceRequest{
		Title: "Engineer", Company: "Acme", From: "not-a-date",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid from date", decodeBody[ErrorResponse](t, resp).Error)
}

func TestGithubPassthrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/octocat/repos" {
			_, _ = w.Write([]byte(`[{"name":"hello-world"}]`))
			return
		}
		http.NotFound(w, r)
	}))
	defer upstream.Close()

	srv := newProfileTestServer(t, upstream.URL)

	resp, err := http.Get(srv.URL + "/api/profile/github/octocat")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[json.RawMessage](t, resp)
	assert.JSONEq(t, `[{"name":"hello-world"}]`, string(body))

	resp, err = http.Get(srv.URL + "/api/profile/github/ghost")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "no github profile found", decodeBody[ErrorResponse](t, resp).Error)
}
