package types

import "time"

// Activity event kinds published to the event bus.
const (
	ActivityPostCreated   = "post.created"
	ActivityPostLiked     = "post.liked"
	ActivityPostCommented = "post.commented"
)

// ActivityEvent describes one social action for the notification worker.
// TargetUserID is the user whose content was acted on; for post creation
// it equals ActorID.
type ActivityEvent struct {
	Type         string    `json:"type"`
	ActorID      string    `json:"actor_id"`
	PostID       string    `json:"post_id"`
	TargetUserID string    `json:"target_user_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}
