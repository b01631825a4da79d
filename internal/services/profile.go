package services

import (
	"context"
	"errors"
	"strings"

	"github.com/devconnect/apiserver/internal/store"
	"github.com/devconnect/apiserver/types"
	"github.com/google/uuid"
)

// maxMutationRetries bounds how often a sub-collection mutation is
// re-applied after losing a conditional write to a concurrent request.
const maxMutationRetries = 3

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (types.Profile, error)
	List(ctx context.Context) ([]types.Profile, error)
	Upsert(ctx context.Context, profile types.Profile) (types.Profile, error)
	UpdateExperience(ctx context.Context, userID string, old, updated []types.Experience) (types.Profile, error)
	UpdateEducation(ctx context.Context, userID string, old, updated []types.Education) (types.Profile, error)
	DeleteWithUser(ctx context.Context, userID string) error
}

// ProfileUpdate carries the fields of a create-or-update request. Empty
// fields are "not provided" and leave the stored value untouched; the
// update is a field-by-field merge, never a blind replace.
type ProfileUpdate struct {
	Company        string
	Website        string
	Location       string
	Status         string
	Skills         string
	Bio            string
	GithubUsername string
	Youtube        string
	Twitter        string
	Facebook       string
	Linkedin       string
	Instagram      string
}

// ProfileService encapsulates profile use-cases.
type ProfileService struct {
	repo ProfileRepository
}

func NewProfileService(repo ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

func (s *ProfileService) GetByUserID(ctx context.Context, userID string) (types.Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *ProfileService) List(ctx context.Context) ([]types.Profile, error) {
	return s.repo.List(ctx)
}

// Upsert creates the user's profile or merges the provided fields into
// the existing one. Unspecified fields are retained.
func (s *ProfileService) Upsert(ctx context.Context, userID string, update ProfileUpdate) (types.Profile, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return types.Profile{}, err
		}
		profile = types.Profile{
			ID:     uuid.NewString(),
			UserID: userID,
		}
	}

	applyUpdate(&profile, update)
	return s.repo.Upsert(ctx, profile)
}

func (s *ProfileService) AddExperience(ctx context.Context, userID string, entry types.Experience) (types.Profile, error) {
	entry.ID = uuid.NewString()

	var profile types.Profile
	err := s.retryMutation(func() error {
		current, err := s.repo.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		profile, err = s.repo.UpdateExperience(ctx, userID, current.Experience, prependExperience(current.Experience, entry))
		return err
	})
	return profile, err
}

func (s *ProfileService) RemoveExperience(ctx context.Context, userID, entryID string) (types.Profile, error) {
	var profile types.Profile
	err := s.retryMutation(func() error {
		current, err := s.repo.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		updated, err := removeExperience(current.Experience, entryID)
		if err != nil {
			return err
		}
		profile, err = s.repo.UpdateExperience(ctx, userID, current.Experience, updated)
		return err
	})
	return profile, err
}

func (s *ProfileService) AddEducation(ctx context.Context, userID string, entry types.Education) (types.Profile, error) {
	entry.ID = uuid.NewString()

	var profile types.Profile
	err := s.retryMutation(func() error {
		current, err := s.repo.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		profile, err = s.repo.UpdateEducation(ctx, userID, current.Education, prependEducation(current.Education, entry))
		return err
	})
	return profile, err
}

func (s *ProfileService) RemoveEducation(ctx context.Context, userID, entryID string) (types.Profile, error) {
	var profile types.Profile
	err := s.retryMutation(func() error {
		current, err := s.repo.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		updated, err := removeEducation(current.Education, entryID)
		if err != nil {
			return err
		}
		profile, err = s.repo.UpdateEducation(ctx, userID, current.Education, updated)
		return err
	})
	return profile, err
}

// Delete removes the profile and the owning user account together.
// Posts are kept; they carry the author snapshot taken at creation.
func (s *ProfileService) Delete(ctx context.Context, userID string) error {
	return s.repo.DeleteWithUser(ctx, userID)
}

// retryMutation runs a read-mutate-write cycle until the conditional
// write lands or the retry budget is exhausted.
func (s *ProfileService) retryMutation(mutate func() error) error {
	var err error
	for attempt := 0; attempt < maxMutationRetries; attempt++ {
		err = mutate()
		if !errors.Is(err, store.ErrModified) {
			return err
		}
	}
	return err
}

func applyUpdate(profile *types.Profile, update ProfileUpdate) {
	if update.Company != "" {
		profile.Company = update.Company
	}
	if update.Website != "" {
		profile.Website = update.Website
	}
	if update.Location != "" {
		profile.Location = update.Location
	}
	if update.Status != "" {
		profile.Status = update.Status
	}
	if update.Skills != "" {
		profile.Skills = parseSkills(update.Skills)
	}
	if update.Bio != "" {
		profile.Bio = update.Bio
	}
	if update.GithubUsername != "" {
		profile.GithubUsername = update.GithubUsername
	}
	if update.Youtube != "" {
		profile.Social.Youtube = update.Youtube
	}
	if update.Twitter != "" {
		profile.Social.Twitter = update.Twitter
	}
	if update.Facebook != "" {
		profile.Social.Facebook = update.Facebook
	}
	if update.Linkedin != "" {
		profile.Social.Linkedin = update.Linkedin
	}
	if update.Instagram != "" {
		profile.Social.Instagram = update.Instagram
	}
}

func parseSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, part := range parts {
		skill := strings.TrimSpace(part)
		if skill != "" {
			skills = append(skills, skill)
		}
	}
	return skills
}
