package services

import "errors"

// ErrForbidden is returned when an authenticated user acts on a resource
// owned by someone else. It is distinct from store.ErrNotFound: callers
// check existence first and only then ownership.
var ErrForbidden = errors.New("not resource owner")

// ErrAlreadyLiked is returned when a user likes a post twice.
var ErrAlreadyLiked = errors.New("post already liked")

// ErrNotLiked is returned when a user unlikes a post they never liked.
var ErrNotLiked = errors.New("post not yet liked")

// authorizeOwner allows an operation only for the recorded owner of a
// resource. Existence must already have been established.
func authorizeOwner(ownerID, requesterID string) error {
	if ownerID != requesterID {
		return ErrForbidden
	}
	return nil
}
