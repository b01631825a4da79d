package types

import "time"

// Profile holds the public profile of a user. There is at most one
// profile per user, enforced by a unique constraint on UserID.
type Profile struct {
	// ID is the unique identifier of the profile.
	ID string `json:"id" db:"id"`

	// UserID identifies the owning user.
	UserID string `json:"user" db:"user_id"`

	// Company is the company the user currently works for.
	Company string `json:"company,omitempty" db:"company"`

	// Website is the user's personal or company website.
	Website string `json:"website,omitempty" db:"website"`

	// Location is a free-form location string.
	Location string `json:"location,omitempty" db:"location"`

	// Status is the user's professional status, e.g. "Developer".
	// It is required when creating or updating a profile.
	Status string `json:"status" db:"status"`

	// Skills is the list of skills, parsed from a comma-separated string
	// on input. It is required when creating or updating a profile.
	Skills []string `json:"skills" db:"skills"`

	// Bio is a short free-form biography.
	Bio string `json:"bio,omitempty" db:"bio"`

	// GithubUsername is used by the GitHub repository listing endpoint.
	GithubUsername string `json:"githubusername,omitempty" db:"github_username"`

	// Social holds optional social network links.
	Social Social `json:"social" db:"social"`

	// Experience holds work experience entries, newest first.
	Experience []Experience `json:"experience" db:"experience"`

	// Education holds education entries, newest first.
	Education []Education `json:"education" db:"education"`

	// CreatedAt is the timestamp when the profile was created.
	CreatedAt time.Time `json:"date" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent profile update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Social groups optional social network links on a profile.
type Social struct {
	Youtube   string `json:"youtube,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Linkedin  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// Experience is a single work experience entry on a profile.
type Experience struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to,omitempty"`
	Current     bool       `json:"current"`
	Description string     `json:"description,omitempty"`
}

// Education is a single education entry on a profile.
type Education struct {
	ID           string     `json:"id"`
	School       string     `json:"school"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"fieldofstudy"`
	From         time.Time  `json:"from"`
	To           *time.Time `json:"to,omitempty"`
	Current      bool       `json:"current"`
	Description  string     `json:"description,omitempty"`
}
