package post

import (
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/google/uuid"
)

type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	OwnerID   string    `json:"owner_id"`
	Owner     user.User `json:"owner"`
}

// WithVotes pairs a post with the number of votes cast on it.
type WithVotes struct {
	Post  Post `json:"post"`
	Votes int  `json:"votes"`
}

var (
	ErrNotFound  = errors.New("post not found")
	ErrForbidden = errors.New("not authorized to perform requested action")
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

type ListFilter struct {
	Search *string
	Limit  int
	Offset int
}

// Normalize clamps limit and offset into the accepted range and trims the
// search term. Both the cache key and the query read the result.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Search != nil {
		term := strings.TrimSpace(*f.Search)
		if term == "" {
			f.Search = nil
		} else {
			f.Search = &term
		}
	}
	return f
}

// CheckOwner returns ErrForbidden unless userID owns the post.
func (p Post) CheckOwner(userID string) error {
	if p.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}

// Published is a pointer so an omitted field can default to true.
type CreatePostRequest struct {
	Title     string `json:"title" binding:"required,min=1,max=200"`
	Content   string `json:"content" binding:"required,max=10000"`
	Published *bool  `json:"published"`
}

// full replacement, same shape as create
type UpdatePostRequest = CreatePostRequest

func (r CreatePostRequest) IsPublished() bool {
	if r.Published == nil {
		return true
	}
	return *r.Published
}

func NewFromCreateRequest(ownerID string, req CreatePostRequest) Post {
	return Post{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Content:   req.Content,
		Published: req.IsPublished(),
		CreatedAt: time.Now().UTC(),
		OwnerID:   ownerID,
	}
}
