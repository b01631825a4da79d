package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/devconnect/apiserver/types"
)

const postColumns = `id, user_id, text, name, avatar, likes, comments, created_at`

// PostRepository handles persistence for posts. Likes and comments live
// as JSONB columns on the post row; mutations go through conditional
// updates so that concurrent writers cannot silently drop each other's
// entries.
type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Get(ctx context.Context, id string) (types.Post, error) {
	const query = `
		SELECT ` + postColumns + `
		FROM posts
		WHERE id = $1`
	return scanPost(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostRepository) List(ctx context.Context) ([]types.Post, error) {
	const query = `
		SELECT ` + postColumns + `
		FROM posts
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []types.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepository) Create(ctx context.Context, post types.Post) (types.Post, error) {
	post.CreatedAt = time.Now()
	if post.Likes == nil {
		post.Likes = []types.Like{}
	}
	if post.Comments == nil {
		post.Comments = []types.Comment{}
	}

	likesJSON, err := json.Marshal(post.Likes)
	if err != nil {
		return types.Post{}, err
	}
	commentsJSON, err := json.Marshal(post.Comments)
	if err != nil {
		return types.Post{}, err
	}

	const query = `
		INSERT INTO posts (id, user_id, text, name, avatar, likes, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		post.ID,
		post.UserID,
		post.Text,
		post.Name,
		post.Avatar,
		likesJSON,
		commentsJSON,
		post.CreatedAt,
	); err != nil {
		return types.Post{}, err
	}
	return post, nil
}

func (r *PostRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM posts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
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
	return nil
}

// UpdateLikes writes the mutated likes collection, but only if the stored
// collection still equals the value the caller read. On a lost race it
// returns ErrModified so the caller can reload and retry.
func (r *PostRepository) UpdateLikes(ctx context.Context, postID string, old, updated []types.Like) ([]types.Like, error) {
	return updatePostCollection[types.Like](r, ctx, postID, "likes", old, updated)
}

// UpdateComments is the comments counterpart of UpdateLikes.
func (r *PostRepository) UpdateComments(ctx context.Context, postID string, old, updated []types.Comment) ([]types.Comment, error) {
	return updatePostCollection[types.Comment](r, ctx, postID, "comments", old, updated)
}

func updatePostCollection[T any](r *PostRepository, ctx context.Context, postID, column string, old, updated []T) ([]T, error) {
	oldJSON, err := json.Marshal(old)
	if err != nil {
		return nil, err
	}
	updatedJSON, err := json.Marshal(updated)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE posts
		SET ` + column + ` = $3::jsonb
		WHERE id = $1 AND ` + column + ` = $2::jsonb
		RETURNING ` + column
	var storedJSON []byte
	err = r.db.QueryRowContext(ctx, query, postID, oldJSON, updatedJSON).Scan(&storedJSON)
	if err == nil {
		stored := []T{}
		if err := json.Unmarshal(storedJSON, &stored); err != nil {
			return nil, err
		}
		return stored, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// No row matched: tell a missing post apart from a lost race.
	const existsQuery = `SELECT 1 FROM posts WHERE id = $1`
	var one int
	switch existsErr := r.db.QueryRowContext(ctx, existsQuery, postID).Scan(&one); {
	case existsErr == nil:
		return nil, ErrModified
	case errors.Is(existsErr, sql.ErrNoRows):
		return nil, ErrNotFound
	default:
		return nil, existsErr
	}
}

func scanPost(row rowScanner) (types.Post, error) {
	var post types.Post
	var likesJSON, commentsJSON []byte
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Text,
		&post.Name,
		&post.Avatar,
		&likesJSON,
		&commentsJSON,
		&post.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, err
	}

	_ = json.Unmarshal(likesJSON, &post.Likes)
	_ = json.Unmarshal(commentsJSON, &post.Comments)
	return post, nil
}
