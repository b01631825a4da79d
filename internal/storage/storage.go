// Package storage persists uploaded avatar images in object storage
// behind a config-selected backend.
package storage

import (
	"context"
	"io"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

const avatarKeyPrefix = "avatars/"

// AvatarStore wraps an ObjectStorage backend and addresses avatar
// objects by user id. One object per user; uploading again replaces the
// previous image.
type AvatarStore struct {
	backend ObjectStorage
}

// NewAvatarStore constructs an AvatarStore over the provided backend.
func NewAvatarStore(backend ObjectStorage) *AvatarStore {
	return &AvatarStore{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (s *AvatarStore) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put stores the avatar image for the given user.
func (s *AvatarStore) Put(ctx context.Context, userID string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, avatarKeyPrefix+userID, r, size, contentType)
}

// Get opens a reader for the given user's avatar image.
func (s *AvatarStore) Get(ctx context.Context, userID string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, avatarKeyPrefix+userID)
}

// Delete removes the given user's avatar image.
func (s *AvatarStore) Delete(ctx context.Context, userID string) error {
	return s.backend.Delete(ctx, avatarKeyPrefix+userID)
}
