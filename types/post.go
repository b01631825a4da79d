package types

import "time"

// Post represents a text post owned by exactly one user.
// The author's name and avatar are denormalized onto the post at creation
// time and never updated afterwards, so a post keeps its provenance even
// after the author's account is deleted.
type Post struct {
	// ID is the unique identifier of the post.
	ID string `json:"id" db:"id"`

	// UserID identifies the user who created the post. It is the basis
	// for every ownership check on the post.
	UserID string `json:"user" db:"user_id"`

	// Text is the body of the post.
	Text string `json:"text" db:"text"`

	// Name is the author's display name frozen at creation time.
	Name string `json:"name" db:"name"`

	// Avatar is the author's avatar URL frozen at creation time.
	Avatar string `json:"avatar" db:"avatar"`

	// Likes holds one entry per user who liked the post, newest first.
	// A user appears at most once.
	Likes []Like `json:"likes" db:"likes"`

	// Comments holds the post's comments, newest first.
	Comments []Comment `json:"comments" db:"comments"`

	// CreatedAt is the timestamp when the post was created.
	CreatedAt time.Time `json:"date" db:"created_at"`
}

// Like marks that a user liked a post. Likes are addressed by the liking
// user's id; they carry no identifier of their own.
type Like struct {
	UserID string `json:"user"`
}

// Comment is a single comment on a post. Comments are addressed by their
// own id and may only be removed by the user who wrote them.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	Text      string    `json:"text"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"date"`
}
