package vote

import (
	"context"
	"errors"
	"time"
)

type Vote struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrAlreadyVoted = errors.New("user has already voted on post")
	ErrNotFound     = errors.New("vote does not exist")
)

const (
	DirRemove = 0
	DirAdd    = 1
)

// Dir is a pointer because 0 is a meaningful direction and "required" would reject it.
type CastRequest struct {
	PostID string `json:"post_id" binding:"required,uuid"`
	Dir    *int   `json:"dir" binding:"required,oneof=0 1"`
}

// Tx is the unit of work a vote is cast in. Implementations must run every
// call against the same transaction.
type Tx interface {
	PostExists(ctx context.Context, postID string) (bool, error)
	Exists(ctx context.Context, postID, userID string) (bool, error)
	// Insert returns ErrAlreadyVoted when the (post_id, user_id) pair is taken.
	Insert(ctx context.Context, v Vote) error
	// Delete returns ErrNotFound when no row was removed.
	Delete(ctx context.Context, postID, userID string) error
}
