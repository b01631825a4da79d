package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/devconnect/apiserver/internal/store"
	"github.com/devconnect/apiserver/types"
	"github.com/google/uuid"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Get(ctx context.Context, id string) (types.Post, error)
	List(ctx context.Context) ([]types.Post, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	Delete(ctx context.Context, id string) error
	UpdateLikes(ctx context.Context, postID string, old, updated []types.Like) ([]types.Like, error)
	UpdateComments(ctx context.Context, postID string, old, updated []types.Comment) ([]types.Comment, error)
}

// ActivityPublisher pushes activity events to the event bus. Publishing
// is best-effort; a broker outage never fails the user-facing request.
type ActivityPublisher interface {
	Publish(ctx context.Context, event types.ActivityEvent) error
}

// PostService encapsulates post use-cases, including the like and
// comment sub-collections.
type PostService struct {
	repo   PostRepository
	users  UserRepository
	events ActivityPublisher
	logger *slog.Logger
}

func NewPostService(repo PostRepository, users UserRepository, events ActivityPublisher, logger *slog.Logger) *PostService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{repo: repo, users: users, events: events, logger: logger}
}

func (s *PostService) Get(ctx context.Context, id string) (types.Post, error) {
	return s.repo.Get(ctx, id)
}

func (s *PostService) List(ctx context.Context) ([]types.Post, error) {
	return s.repo.List(ctx)
}

// Create stores a new post for the given user. The author's name and
// avatar are copied onto the post and frozen there.
func (s *PostService) Create(ctx context.Context, userID, text string) (types.Post, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return types.Post{}, err
	}

	post, err := s.repo.Create(ctx, types.Post{
		ID:     uuid.NewString(),
		UserID: userID,
		Text:   text,
		Name:   user.Name,
		Avatar: user.Avatar,
	})
	if err != nil {
		return types.Post{}, err
	}

	s.publish(ctx, types.ActivityPostCreated, userID, post.ID, userID)
	return post, nil
}

// Delete removes a post. Only the post's owner may delete it; deletion
// cascades to all likes and comments since they live on the post row.
func (s *PostService) Delete(ctx context.Context, postID, requesterID string) error {
	post, err := s.repo.Get(ctx, postID)
	if err != nil {
		return err
	}
	if err := authorizeOwner(post.UserID, requesterID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, postID)
}

// Like adds the user to the post's likes. A user can like a given post
// at most once.
func (s *PostService) Like(ctx context.Context, postID, userID string) ([]types.Like, error) {
	var likes []types.Like
	var ownerID string
	err := s.retryMutation(func() error {
		post, err := s.repo.Get(ctx, postID)
		if err != nil {
			return err
		}
		ownerID = post.UserID
		updated, err := prependLike(post.Likes, userID)
		if err != nil {
			return err
		}
		likes, err = s.repo.UpdateLikes(ctx, postID, post.Likes, updated)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, types.ActivityPostLiked, userID, postID, ownerID)
	return likes, nil
}

// Unlike removes the user's like. Unliking a post that was never liked
// reports ErrNotLiked and changes nothing.
func (s *PostService) Unlike(ctx context.Context, postID, userID string) ([]types.Like, error) {
	var likes []types.Like
	err := s.retryMutation(func() error {
		post, err := s.repo.Get(ctx, postID)
		if err != nil {
			return err
		}
		updated, err := removeLike(post.Likes, userID)
		if err != nil {
			return err
		}
		likes, err = s.repo.UpdateLikes(ctx, postID, post.Likes, updated)
		return err
	})
	if err != nil {
		return nil, err
	}
	return likes, nil
}

// AddComment appends a comment to the front of the post's comments,
// stamped with the commenting user's frozen name and avatar.
func (s *PostService) AddComment(ctx context.Context, postID, userID, text string) ([]types.Comment, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	comment := types.Comment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		Name:      user.Name,
		Avatar:    user.Avatar,
		CreatedAt: time.Now(),
	}

	var comments []types.Comment
	var ownerID string
	err = s.retryMutation(func() error {
		post, err := s.repo.Get(ctx, postID)
		if err != nil {
			return err
		}
		ownerID = post.UserID
		comments, err = s.repo.UpdateComments(ctx, postID, post.Comments, prependComment(post.Comments, comment))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, types.ActivityPostCommented, userID, postID, ownerID)
	return comments, nil
}

// RemoveComment deletes a comment by id. Only the comment's author may
// remove it, even the post owner cannot.
func (s *PostService) RemoveComment(ctx context.Context, postID, commentID, requesterID string) ([]types.Comment, error) {
	var comments []types.Comment
	err := s.retryMutation(func() error {
		post, err := s.repo.Get(ctx, postID)
		if err != nil {
			return err
		}
		updated, err := removeComment(post.Comments, commentID, requesterID)
		if err != nil {
			return err
		}
		comments, err = s.repo.UpdateComments(ctx, postID, post.Comments, updated)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *PostService) retryMutation(mutate func() error) error {
	var err error
	for attempt := 0; attempt < maxMutationRetries; attempt++ {
		err = mutate()
		if !errors.Is(err, store.ErrModified) {
			return err
		}
	}
	return err
}

func (s *PostService) publish(ctx context.Context, kind, actorID, postID, targetUserID string) {
	if s.events == nil {
		return
	}
	event := types.ActivityEvent{
		Type:         kind,
		ActorID:      actorID,
		PostID:       postID,
		TargetUserID: targetUserID,
		OccurredAt:   time.Now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish activity event", "type", kind, "post_id", postID, "error", err)
	}
}
