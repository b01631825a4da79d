package services

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/devconnect/apiserver/internal/store"
	"github.com/devconnect/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProfileRepo keeps profiles in memory keyed by user id and mimics
// the conditional write on the experience and education columns.
type fakeProfileRepo struct {
	profiles map[string]types.Profile
	users    map[string]bool
	onGet    func()
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{
		profiles: make(map[string]types.Profile),
		users:    make(map[string]bool),
	}
}

func (r *fakeProfileRepo) GetByUserID(ctx context.Context, userID string) (types.Profile, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return types.Profile{}, store.ErrNotFound
	}
	if r.onGet != nil {
		r.onGet()
	}
	return profile, nil
}

func (r *fakeProfileRepo) List(ctx context.Context) ([]types.Profile, error) {
	out := make([]types.Profile, 0, len(r.profiles))
	for _, profile := range r.profiles {
		out = append(out, profile)
	}
	return out, nil
}

func (r *fakeProfileRepo) Upsert(ctx context.Context, profile types.Profile) (types.Profile, error) {
	if profile.Experience == nil {
		profile.Experience = []types.Experience{}
	}
	if profile.Education == nil {
		profile.Education = []types.Education{}
	}
	r.profiles[profile.UserID] = profile
	return profile, nil
}

func (r *fakeProfileRepo) UpdateExperience(ctx context.Context, userID string, old, updated []types.Experience) (types.Profile, error) {
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

func (r *fakeProfileRepo) UpdateEducation(ctx context.Context, userID string, old, updated []types.Education) (types.Profile, error) {
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

func (r *fakeProfileRepo) DeleteWithUser(ctx context.Context, userID string) error {
	if _, ok := r.profiles[userID]; !ok {
		return store.ErrNotFound
	}
	delete(r.profiles, userID)
	delete(r.users, userID)
	return nil
}

func TestUpsertCreatesProfile(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo)

	profile, err := svc.Upsert(context.Background(), "alice", ProfileUpdate{
		Status: "Developer",
		Skills: "Go, SQL , ,Docker",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "alice", profile.UserID)
	assert.Equal(t, "Developer", profile.Status)
	assert.Equal(t, []string{"Go", "SQL", "Docker"}, profile.Skills)
}

func TestUpsertMergesFields(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo)

	first, err := svc.Upsert(context.Background(), "alice", ProfileUpdate{
		Status:   "Developer",
		Skills:   "Go",
		Company:  "Acme",
		Location: "Berlin",
		Twitter:  "@alice",
	})
	require.NoError(t, err)

	second, err := svc.Upsert(context.Background(), "alice", ProfileUpdate{
		Status:  "Lead Developer",
		Skills:  "Go,Kubernetes",
		Youtube: "alice-codes",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "updating must not mint a new profile")
	assert.Equal(t, "Lead Developer", second.Status)
	assert.Equal(t, []string{"Go", "Kubernetes"}, second.Skills)
	assert.Equal(t, "Acme", second.Company, "unspecified fields are retained")
	assert.Equal(t, "Berlin", second.Location)
	assert.Equal(t, "@alice", second.Social.Twitter)
	assert.Equal(t, "alice-codes", second.Social.Youtube)
}

func TestExperienceLifecycle(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo)
	_, err := svc.Upsert(context.Background(), "alice", ProfileUpdate{Status: "Dev", Skills: "Go"})
	require.NoError(t, err)

	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	profile, err := svc.AddExperience(context.Background(), "alice", types.Experience{
		Title: "Engineer", Company: "Acme", From: from,
	})
	require.NoError(t, err)
	require.Len(t, profile.Experience, 1)
	assert.NotEmpty(t, profile.Experience[0].ID)

	profile, err = svc.AddExperience(context.Background(), "alice", types.Experience{
		Title: "Senior Engineer", Company: "Acme", From: from.AddDate(2, 0, 0),
	})
	require.NoError(t, err)
	require.Len(t, profile.Experience, 2)
	assert.Equal(t, "Senior Engineer", profile.Experience[0].Title, "newest entry goes to the front")

	removed := profile.Experience[1].ID
	profile, err = svc.RemoveExperience(context.Background(), "alice", removed)
	require.NoError(t, err)
	require.Len(t, profile.Experience, 1)
	assert.Equal(t, "Senior Engineer", profile.Experience[0].Title)

	_, err = svc.RemoveExperience(context.Background(), "alice", removed)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEducationLifecycle(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo)
	_, err := svc.Upsert(context.Background(), "alice", ProfileUpdate{Status: "Dev", Skills: "Go"})
	require.NoError(t, err)

	profile, err := svc.AddEducation(context.Background(), "alice", types.Education{
		School: "MIT", Degree: "BSc", FieldOfStudy: "CS",
		From: time.Date(2015, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, profile.Education, 1)

	_, err = svc.RemoveEducation(context.Background(), "alice", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestExperienceRetriesAfterConcurrentWrite(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo)
	_, err := svc.Upsert(context.Background(), "alice", ProfileUpdate{Status: "Dev", Skills: "Go"})
	require.NoError(t, err)

	interfered := false
	repo.onGet = func() {
		if interfered {
			return
		}
		interfered = true
		profile := repo.profiles["alice"]
		profile.Experience = []types.Experience{{ID: "other", Title: "Intern"}}
		repo.profiles["alice"] = profile
	}

	profile, err := svc.AddExperience(context.Background(), "alice", types.Experience{
		Title: "Engineer", Company: "Acme",
		From: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, profile.Experience, 2)
	assert.Equal(t, "Engineer", profile.Experience[0].Title)
	assert.Equal(t, "Intern", profile.Experience[1].Title)
}

func TestMutationGivesUpAfterRepeatedConflicts(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo)
	_, err := svc.Upsert(context.Background(), "alice", ProfileUpdate{Status: "Dev", Skills: "Go"})
	require.NoError(t, err)

	writes := 0
	repo.onGet = func() {
		profile := repo.profiles["alice"]
		profile.Experience = append([]types.Experience{{ID: "other", Title: "Intern"}}, profile.Experience...)
		repo.profiles["alice"] = profile
		writes++
	}

	_, err = svc.AddExperience(context.Background(), "alice", types.Experience{Title: "Engineer"})
	assert.ErrorIs(t, err, store.ErrModified)
	assert.Equal(t, maxMutationRetries, writes)
}

func TestExperienceOnMissingProfile(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo)

	_, err := svc.AddExperience(context.Background(), "nobody", types.Experience{Title: "Engineer"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteRemovesProfileAndUser(t *testing.T) {
	repo := newFakeProfileRepo()
	repo.users["alice"] = true
	svc := NewProfileService(repo)
	_, err := svc.Upsert(context.Background(), "alice", ProfileUpdate{Status: "Dev", Skills: "Go"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "alice"))
	assert.False(t, repo.users["alice"])

	_, err = svc.GetByUserID(context.Background(), "alice")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = svc.Delete(context.Background(), "alice")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
