package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/domain/vote"
)

func mustUser(t *testing.T, s *Store, email string) user.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), email, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func mustPost(t *testing.T, s *Store, ownerID, title string, at time.Time) post.Post {
	t.Helper()
	p := post.NewFromCreateRequest(ownerID, post.CreatePostRequest{Title: title, Content: "body"})
	p.CreatedAt = at
	created, err := s.Posts().Create(context.Background(), p)
	if err != nil {
		t.Fatalf("create post %s: %v", title, err)
	}
	return created
}

func addVote(t *testing.T, s *Store, postID, userID string) {
	t.Helper()
	err := s.Votes().WithTx(context.Background(), func(tx vote.Tx) error {
		return tx.Insert(context.Background(), vote.Vote{PostID: postID, UserID: userID})
	})
	if err != nil {
		t.Fatalf("insert vote: %v", err)
	}
}

func TestUsers_UniqueEmail(t *testing.T) {
	s := NewStore()
	mustUser(t, s, "a@example.com")

	_, err := s.Users().Create(context.Background(), "A@example.com", "hash")
	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestListWithVotes_LeftJoinSemantics(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	alice := mustUser(t, s, "alice@example.com")
	bob := mustUser(t, s, "bob@example.com")

	popular := mustPost(t, s, alice.ID, "popular", base)
	lonely := mustPost(t, s, alice.ID, "lonely", base.Add(time.Minute))

	addVote(t, s, popular.ID, alice.ID)
	addVote(t, s, popular.ID, bob.ID)

	items, err := s.Posts().ListWithVotes(ctx, post.ListFilter{})
	if err != nil {
		t.Fatalf("ListWithVotes: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("got %d posts, want 2 (zero-vote posts must not be dropped)", len(items))
	}

	counts := map[string]int{}
	for _, it := range items {
		counts[it.Post.ID] = it.Votes
		if it.Post.Owner.Email != "alice@example.com" {
			t.Fatalf("owner not populated: %+v", it.Post.Owner)
		}
	}

	if counts[popular.ID] != 2 {
		t.Fatalf("popular votes = %d, want 2", counts[popular.ID])
	}
	if c, ok := counts[lonely.ID]; !ok || c != 0 {
		t.Fatalf("lonely votes = %d (present=%v), want 0", c, ok)
	}

	if items[0].Post.ID != lonely.ID {
		t.Fatalf("expected newest post first")
	}
}

func TestListWithVotes_FilterAndPaginate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	owner := mustUser(t, s, "o@example.com")
	voter := mustUser(t, s, "v@example.com")

	var goPosts []post.Post
	for i := 0; i < 5; i++ {
		p := mustPost(t, s, owner.ID, "Learning Go part", base.Add(time.Duration(i)*time.Minute))
		goPosts = append(goPosts, p)
		addVote(t, s, p.ID, voter.ID)
	}
	mustPost(t, s, owner.ID, "Rust notes", base.Add(time.Hour))

	search := "go"
	page, err := s.Posts().ListWithVotes(ctx, post.ListFilter{Search: &search, Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListWithVotes: %v", err)
	}

	if len(page) != 2 {
		t.Fatalf("got %d posts, want 2", len(page))
	}

	// newest-first: offset 1 skips goPosts[4]
	if page[0].Post.ID != goPosts[3].ID || page[1].Post.ID != goPosts[2].ID {
		t.Fatalf("unexpected page order")
	}

	for _, it := range page {
		if it.Votes != 1 {
			t.Fatalf("votes = %d, want 1 (pagination must not change counts)", it.Votes)
		}
	}
}

func TestVotesTx_RollbackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	u := mustUser(t, s, "u@example.com")
	p := mustPost(t, s, u.ID, "t", time.Now())

	boom := errors.New("boom")
	err := s.Votes().WithTx(ctx, func(tx vote.Tx) error {
		if err := tx.Insert(ctx, vote.Vote{PostID: p.ID, UserID: u.ID}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := s.Posts().GetWithVotes(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetWithVotes: %v", err)
	}
	if got.Votes != 0 {
		t.Fatalf("votes = %d after rolled back tx, want 0", got.Votes)
	}
}

func TestUsersDelete_Cascades(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	author := mustUser(t, s, "author@example.com")
	reader := mustUser(t, s, "reader@example.com")

	authored := mustPost(t, s, author.ID, "by author", time.Now())
	readerPost := mustPost(t, s, reader.ID, "by reader", time.Now())

	addVote(t, s, authored.ID, reader.ID)
	addVote(t, s, readerPost.ID, author.ID)

	if err := s.Users().Delete(ctx, author.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := s.Posts().GetByID(ctx, authored.ID); !errors.Is(err, post.ErrNotFound) {
		t.Fatalf("expected author's post to be deleted, got %v", err)
	}

	got, err := s.Posts().GetWithVotes(ctx, readerPost.ID)
	if err != nil {
		t.Fatalf("GetWithVotes: %v", err)
	}
	if got.Votes != 0 {
		t.Fatalf("votes by deleted user should be gone, got %d", got.Votes)
	}

	if len(s.votes) != 0 {
		t.Fatalf("expected no votes left, got %d", len(s.votes))
	}
}
