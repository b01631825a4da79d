package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/devconnect/apiserver/internal/github"
	"github.com/devconnect/apiserver/internal/services"
	"github.com/devconnect/apiserver/internal/store"
	"github.com/devconnect/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ProfileHandler provides HTTP handlers for profiles and their
// experience/education sub-collections.
type ProfileHandler struct {
	profiles *services.ProfileService
	github   *github.Client
}

// NewProfileHandler constructs a handler with the provided dependencies.
func NewProfileHandler(profiles *services.ProfileService, githubClient *github.Client) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, github: githubClient}
}

// ProfileRouter registers profile routes on the given router. Reads are
// public; every mutation requires authentication.
func (h *ProfileHandler) ProfileRouter(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/", h.ListProfiles)
	r.Get("/user/{userID}", h.GetProfileByUser)
	r.Get("/github/{username}", h.GetGithubRepos)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/me", h.GetMyProfile)
		r.Post("/", h.UpsertProfile)
		r.Delete("/", h.DeleteProfile)
		r.Put("/experience", h.AddExperience)
		r.Delete("/experience/{entryID}", h.RemoveExperience)
		r.Put("/education", h.AddEducation)
		r.Delete("/education/{entryID}", h.RemoveEducation)
	})
}

type ProfileUpsertRequest struct {
	Company        string `json:"company"`
	Website        string `json:"website"`
	Location       string `json:"location"`
	Status         string `json:"status" validate:"required"`
	Skills         string `json:"skills" validate:"required"`
	Bio            string `json:"bio"`
	GithubUsername string `json:"githubusername"`
	Youtube        string `json:"youtube"`
	Twitter        string `json:"twitter"`
	Facebook       string `json:"facebook"`
	Linkedin       string `json:"linkedin"`
	Instagram      string `json:"instagram"`
}

type ExperienceRequest struct {
	Title       string `json:"title" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Location    string `json:"location"`
	From        string `json:"from" validate:"required"`
	To          string `json:"to"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

type EducationRequest struct {
	School       string `json:"school" validate:"required"`
	Degree       string `json:"degree" validate:"required"`
	FieldOfStudy string `json:"fieldofstudy" validate:"required"`
	From         string `json:"from" validate:"required"`
	To           string `json:"to"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

func (h *ProfileHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []types.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *ProfileHandler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.profiles.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "there is no profile for this user")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) GetProfileByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if _, err := uuid.Parse(userID); err != nil {
		writeError(w, http.StatusBadRequest, "profile not found")
		return
	}

	profile, err := h.profiles.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpsertProfile creates the profile or merges the provided fields into
// the existing one; unspecified fields keep their stored values.
func (h *ProfileHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ProfileUpsertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, req) {
		return
	}

	profile, err := h.profiles.Upsert(r.Context(), userID, services.ProfileUpdate{
		Company:        req.Company,
		Website:        req.Website,
		Location:       req.Location,
		Status:         req.Status,
		Skills:         req.Skills,
		Bio:            req.Bio,
		GithubUsername: req.GithubUsername,
		Youtube:        req.Youtube,
		Twitter:        req.Twitter,
		Facebook:       req.Facebook,
		Linkedin:       req.Linkedin,
		Instagram:      req.Instagram,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// DeleteProfile removes the profile and the user account together.
func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.profiles.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "there is no profile for this user")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user removed"})
}

func (h *ProfileHandler) AddExperience(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ExperienceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, req) {
		return
	}

	from, err := parseDate(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseOptionalDate(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	profile, err := h.profiles.AddExperience(r.Context(), userID, types.Experience{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		From:        from,
		To:          to,
		Current:     req.Current,
		Description: req.Description,
	})
	if err != nil {
		h.writeProfileMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) RemoveExperience(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.profiles.RemoveExperience(r.Context(), userID, chi.URLParam(r, "entryID"))
	if err != nil {
		h.writeProfileMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) AddEducation(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req EducationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, req) {
		return
	}

	from, err := parseDate(req.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseOptionalDate(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	profile, err := h.profiles.AddEducation(r.Context(), userID, types.Education{
		School:       req.School,
		Degree:       req.Degree,
		FieldOfStudy: req.FieldOfStudy,
		From:         from,
		To:           to,
		Current:      req.Current,
		Description:  req.Description,
	})
	if err != nil {
		h.writeProfileMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) RemoveEducation(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.profiles.RemoveEducation(r.Context(), userID, chi.URLParam(r, "entryID"))
	if err != nil {
		h.writeProfileMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// GetGithubRepos passes through the user's five most recent GitHub
// repositories. Any upstream failure reads as a missing profile.
func (h *ProfileHandler) GetGithubRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := h.github.ListRepos(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, http.StatusNotFound, "no github profile found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(repos)
}

func (h *ProfileHandler) writeProfileMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrModified):
		writeError(w, http.StatusInternalServerError, "failed to save profile")
	default:
		writeError(w, http.StatusInternalServerError, "failed to save profile")
	}
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
