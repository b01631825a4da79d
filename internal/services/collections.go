package services

import (
	"slices"

	"github.com/devconnect/apiserver/internal/store"
	"github.com/devconnect/apiserver/types"
)

// The functions in this file are the in-memory half of every
// sub-collection mutation. They never touch storage: each one takes the
// collection as it was read, applies a single add or remove, and returns
// a fresh slice, leaving the input untouched so the caller can use it as
// the compare value of a conditional write.
//
// New entries always go to the front; consumers display newest first.
// Removal locates the single matching index by a linear scan over the
// natural key and excises exactly that index. Collections are small
// (bounded by realistic usage), so the scans are fine.

func prependLike(likes []types.Like, userID string) ([]types.Like, error) {
	if slices.ContainsFunc(likes, func(l types.Like) bool { return l.UserID == userID }) {
		return nil, ErrAlreadyLiked
	}
	return prepend(likes, types.Like{UserID: userID}), nil
}

func removeLike(likes []types.Like, userID string) ([]types.Like, error) {
	i := slices.IndexFunc(likes, func(l types.Like) bool { return l.UserID == userID })
	if i < 0 {
		return nil, ErrNotLiked
	}
	return removeAt(likes, i), nil
}

func prependComment(comments []types.Comment, comment types.Comment) []types.Comment {
	return prepend(comments, comment)
}

// removeComment excises the comment with the given id, provided the
// requester wrote it. Existence is checked before ownership so that a
// missing comment never reports forbidden.
func removeComment(comments []types.Comment, commentID, requesterID string) ([]types.Comment, error) {
	i := slices.IndexFunc(comments, func(c types.Comment) bool { return c.ID == commentID })
	if i < 0 {
		return nil, store.ErrNotFound
	}
	if comments[i].UserID != requesterID {
		return nil, ErrForbidden
	}
	return removeAt(comments, i), nil
}

func prependExperience(entries []types.Experience, entry types.Experience) []types.Experience {
	return prepend(entries, entry)
}

func removeExperience(entries []types.Experience, id string) ([]types.Experience, error) {
	i := slices.IndexFunc(entries, func(e types.Experience) bool { return e.ID == id })
	if i < 0 {
		return nil, store.ErrNotFound
	}
	return removeAt(entries, i), nil
}

func prependEducation(entries []types.Education, entry types.Education) []types.Education {
	return prepend(entries, entry)
}

func removeEducation(entries []types.Education, id string) ([]types.Education, error) {
	i := slices.IndexFunc(entries, func(e types.Education) bool { return e.ID == id })
	if i < 0 {
		return nil, store.ErrNotFound
	}
	return removeAt(entries, i), nil
}

func prepend[T any](entries []T, entry T) []T {
	out := make([]T, 0, len(entries)+1)
	out = append(out, entry)
	return append(out, entries...)
}

func removeAt[T any](entries []T, i int) []T {
	out := make([]T, 0, len(entries)-1)
	out = append(out, entries[:i]...)
	return append(out, entries[i+1:]...)
}
