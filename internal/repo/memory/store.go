package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/domain/vote"
)

// Store keeps users, posts and votes in process memory with the same
// constraints the Postgres schema enforces: unique emails, one vote per
// (post, user) pair, and cascading deletes.
type Store struct {
	mu    sync.RWMutex
	users map[string]user.User
	posts map[string]post.Post
	votes map[voteKey]vote.Vote
	// insertion order breaks created_at ties deterministically
	seq     int64
	postSeq map[string]int64
}

type voteKey struct {
	postID string
	userID string
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]user.User),
		posts:   make(map[string]post.Post),
		votes:   make(map[voteKey]vote.Vote),
		postSeq: make(map[string]int64),
	}
}

func (s *Store) Users() *UsersRepo { return &UsersRepo{s: s} }
func (s *Store) Posts() *PostsRepo { return &PostsRepo{s: s} }
func (s *Store) Votes() *VotesRepo { return &VotesRepo{s: s} }

// Ping satisfies readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) Create(ctx context.Context, email, passwordHash string) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return user.User{}, user.ErrEmailTaken
		}
	}

	u := user.New(email, passwordHash)
	r.s.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return user.ErrNotFound
	}

	delete(r.s.users, id)

	for pid, p := range r.s.posts {
		if p.OwnerID == id {
			r.s.deletePostLocked(pid)
		}
	}

	for k := range r.s.votes {
		if k.userID == id {
			delete(r.s.votes, k)
		}
	}

	return nil
}

type PostsRepo struct {
	s *Store
}

func (r *PostsRepo) Create(ctx context.Context, p post.Post) (post.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	owner, ok := r.s.users[p.OwnerID]
	if !ok {
		return post.Post{}, user.ErrNotFound
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	r.s.seq++
	r.s.postSeq[p.ID] = r.s.seq
	r.s.posts[p.ID] = p

	p.Owner = owner
	return p, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	return r.s.withOwnerLocked(p), nil
}

func (r *PostsRepo) GetWithVotes(ctx context.Context, id string) (post.WithVotes, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return post.WithVotes{}, post.ErrNotFound
	}

	return post.WithVotes{Post: r.s.withOwnerLocked(p), Votes: r.s.countVotesLocked(id)}, nil
}

func (r *PostsRepo) ListWithVotes(ctx context.Context, filter post.ListFilter) ([]post.WithVotes, error) {
	filter = filter.Normalize()

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]post.Post, 0, len(r.s.posts))

	for _, p := range r.s.posts {
		if filter.Search != nil && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(*filter.Search)) {
			continue
		}
		matched = append(matched, p)
	}

	// newest first, mirroring ORDER BY created_at DESC
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return r.s.postSeq[matched[i].ID] > r.s.postSeq[matched[j].ID]
	})

	out := make([]post.WithVotes, 0, filter.Limit)

	for i := filter.Offset; i < len(matched) && len(out) < filter.Limit; i++ {
		p := matched[i]
		out = append(out, post.WithVotes{Post: r.s.withOwnerLocked(p), Votes: r.s.countVotesLocked(p.ID)})
	}

	return out, nil
}

func (r *PostsRepo) Update(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	p.Title = req.Title
	p.Content = req.Content
	p.Published = req.IsPublished()
	r.s.posts[id] = p

	return r.s.withOwnerLocked(p), nil
}

func (r *PostsRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[id]; !ok {
		return post.ErrNotFound
	}

	r.s.deletePostLocked(id)
	return nil
}

type VotesRepo struct {
	s *Store
}

// WithTx holds the store lock for the whole of fn, which makes the
// check-then-write in fn atomic. Writes are staged and dropped if fn fails.
func (r *VotesRepo) WithTx(ctx context.Context, fn func(vote.Tx) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx := &voteTx{s: r.s, inserted: map[voteKey]vote.Vote{}, deleted: map[voteKey]bool{}}

	if err := fn(tx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	for k := range tx.deleted {
		delete(r.s.votes, k)
	}
	for k, v := range tx.inserted {
		r.s.votes[k] = v
	}

	return nil
}

type voteTx struct {
	s        *Store
	inserted map[voteKey]vote.Vote
	deleted  map[voteKey]bool
}

func (t *voteTx) PostExists(ctx context.Context, postID string) (bool, error) {
	_, ok := t.s.posts[postID]
	return ok, nil
}

func (t *voteTx) Exists(ctx context.Context, postID, userID string) (bool, error) {
	return t.exists(voteKey{postID: postID, userID: userID}), nil
}

func (t *voteTx) exists(k voteKey) bool {
	if _, ok := t.inserted[k]; ok {
		return true
	}
	if t.deleted[k] {
		return false
	}
	_, ok := t.s.votes[k]
	return ok
}

func (t *voteTx) Insert(ctx context.Context, v vote.Vote) error {
	k := voteKey{postID: v.PostID, userID: v.UserID}

	if t.exists(k) {
		return vote.ErrAlreadyVoted
	}
	if _, ok := t.s.posts[v.PostID]; !ok {
		return post.ErrNotFound
	}
	if _, ok := t.s.users[v.UserID]; !ok {
		return user.ErrNotFound
	}

	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	delete(t.deleted, k)
	t.inserted[k] = v
	return nil
}

func (t *voteTx) Delete(ctx context.Context, postID, userID string) error {
	k := voteKey{postID: postID, userID: userID}

	if !t.exists(k) {
		return vote.ErrNotFound
	}

	delete(t.inserted, k)
	if _, ok := t.s.votes[k]; ok {
		t.deleted[k] = true
	}
	return nil
}

func (s *Store) withOwnerLocked(p post.Post) post.Post {
	p.Owner = s.users[p.OwnerID]
	return p
}

func (s *Store) countVotesLocked(postID string) int {
	n := 0
	for k := range s.votes {
		if k.postID == postID {
			n++
		}
	}
	return n
}

func (s *Store) deletePostLocked(id string) {
	delete(s.posts, id)
	delete(s.postSeq, id)

	for k := range s.votes {
		if k.postID == id {
			delete(s.votes, k)
		}
	}
}
