package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/devconnect/apiserver/types"
)

const profileColumns = `id, user_id, company, website, location, status, skills, bio, github_username, social, experience, education, created_at, updated_at`

// ProfileRepository handles persistence for profiles. The experience and
// education sub-collections live as JSONB columns on the profile row and
// are only written through conditional updates (see UpdateExperience).
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (types.Profile, error) {
	const query = `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE user_id = $1`
	return scanProfile(r.db.QueryRowContext(ctx, query, userID))
}

func (r *ProfileRepository) List(ctx context.Context) ([]types.Profile, error) {
	const query = `
		SELECT ` + profileColumns + `
		FROM profiles
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []types.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Upsert creates the profile or updates its scalar fields in place. The
// unique index on user_id enforces one profile per user even under
// concurrent creation. Experience and education are never touched here.
func (r *ProfileRepository) Upsert(ctx context.Context, profile types.Profile) (types.Profile, error) {
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	skillsJSON, err := json.Marshal(profile.Skills)
	if err != nil {
		return types.Profile{}, err
	}
	socialJSON, err := json.Marshal(profile.Social)
	if err != nil {
		return types.Profile{}, err
	}

	const query = `
		INSERT INTO profiles (id, user_id, company, website, location, status, skills, bio, github_username, social, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE
		SET company = EXCLUDED.company,
			website = EXCLUDED.website,
			location = EXCLUDED.location,
			status = EXCLUDED.status,
			skills = EXCLUDED.skills,
			bio = EXCLUDED.bio,
			github_username = EXCLUDED.github_username,
			social = EXCLUDED.social,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + profileColumns
	return scanProfile(r.db.QueryRowContext(
		ctx,
		query,
		profile.ID,
		profile.UserID,
		profile.Company,
		profile.Website,
		profile.Location,
		profile.Status,
		skillsJSON,
		profile.Bio,
		profile.GithubUsername,
		socialJSON,
		profile.CreatedAt,
		profile.UpdatedAt,
	))
}

// UpdateExperience writes the mutated experience collection, but only if
// the stored collection still equals the value the caller read. Zero rows
// means either the profile is gone or a concurrent writer won; the caller
// distinguishes the two via the returned error.
func (r *ProfileRepository) UpdateExperience(ctx context.Context, userID string, old, updated []types.Experience) (types.Profile, error) {
	return r.updateCollection(ctx, userID, "experience", old, updated)
}

// UpdateEducation is the education counterpart of UpdateExperience.
func (r *ProfileRepository) UpdateEducation(ctx context.Context, userID string, old, updated []types.Education) (types.Profile, error) {
	return r.updateCollection(ctx, userID, "education", old, updated)
}

func (r *ProfileRepository) updateCollection(ctx context.Context, userID, column string, old, updated any) (types.Profile, error) {
	oldJSON, err := json.Marshal(old)
	if err != nil {
		return types.Profile{}, err
	}
	updatedJSON, err := json.Marshal(updated)
	if err != nil {
		return types.Profile{}, err
	}

	query := `
		UPDATE profiles
		SET ` + column + ` = $3::jsonb,
			updated_at = now()
		WHERE user_id = $1 AND ` + column + ` = $2::jsonb
		RETURNING ` + profileColumns
	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, userID, oldJSON, updatedJSON))
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return types.Profile{}, err
	}

	// No row matched: tell a missing profile apart from a lost race.
	const existsQuery = `SELECT 1 FROM profiles WHERE user_id = $1`
	var one int
	switch existsErr := r.db.QueryRowContext(ctx, existsQuery, userID).Scan(&one); {
	case existsErr == nil:
		return types.Profile{}, ErrModified
	case errors.Is(existsErr, sql.ErrNoRows):
		return types.Profile{}, ErrNotFound
	default:
		return types.Profile{}, existsErr
	}
}

// DeleteWithUser removes the profile and its owning user record in one
// transaction. Posts are deliberately left in place; they keep the frozen
// author snapshot taken at creation time.
func (r *ProfileRepository) DeleteWithUser(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return err
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (types.Profile, error) {
	var profile types.Profile
	var skillsJSON, socialJSON, experienceJSON, educationJSON []byte
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Company,
		&profile.Website,
		&profile.Location,
		&profile.Status,
		&skillsJSON,
		&profile.Bio,
		&profile.GithubUsername,
		&socialJSON,
		&experienceJSON,
		&educationJSON,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Profile{}, ErrNotFound
		}
		return types.Profile{}, err
	}

	_ = json.Unmarshal(skillsJSON, &profile.Skills)
	_ = json.Unmarshal(socialJSON, &profile.Social)
	_ = json.Unmarshal(experienceJSON, &profile.Experience)
	_ = json.Unmarshal(educationJSON, &profile.Education)
	return profile, nil
}
