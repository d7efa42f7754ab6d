package voting

import (
	"context"
	"time"

	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/vote"
)

type PostsReader interface {
	ListWithVotes(ctx context.Context, filter post.ListFilter) ([]post.WithVotes, error)
	GetWithVotes(ctx context.Context, id string) (post.WithVotes, error)
}

type VoteStore interface {
	WithTx(ctx context.Context, fn func(vote.Tx) error) error
}

type Result int

const (
	Added Result = iota + 1
	Removed
)

func (r Result) String() string {
	switch r {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

type Service struct {
	posts PostsReader
	votes VoteStore
	now   func() time.Time
}

func NewService(posts PostsReader, votes VoteStore) *Service {
	return &Service{posts: posts, votes: votes, now: time.Now}
}

// ListPosts returns matching posts with their vote counts. Read only.
func (s *Service) ListPosts(ctx context.Context, filter post.ListFilter) ([]post.WithVotes, error) {
	return s.posts.ListWithVotes(ctx, filter.Normalize())
}

func (s *Service) GetPost(ctx context.Context, id string) (post.WithVotes, error) {
	return s.posts.GetWithVotes(ctx, id)
}

// CastVote adds (dir=1) or removes (dir=0) the caller's vote on a post.
//
// A second add reports vote.ErrAlreadyVoted whether the existence check or
// the storage uniqueness constraint catches it. Removing a vote that is not
// there reports vote.ErrNotFound.
func (s *Service) CastVote(ctx context.Context, userID, postID string, dir int) (Result, error) {
	var result Result

	err := s.votes.WithTx(ctx, func(tx vote.Tx) error {
		ok, err := tx.PostExists(ctx, postID)
		if err != nil {
			return err
		}
		if !ok {
			return post.ErrNotFound
		}

		found, err := tx.Exists(ctx, postID, userID)
		if err != nil {
			return err
		}

		switch dir {
		case vote.DirAdd:
			if found {
				return vote.ErrAlreadyVoted
			}

			err = tx.Insert(ctx, vote.Vote{PostID: postID, UserID: userID, CreatedAt: s.now().UTC()})
			if err != nil {
				return err
			}

			result = Added
		case vote.DirRemove:
			if !found {
				return vote.ErrNotFound
			}

			if err = tx.Delete(ctx, postID, userID); err != nil {
				return err
			}

			result = Removed
		default:
			return ErrInvalidDirection
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	return result, nil
}
