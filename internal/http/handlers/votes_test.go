package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/postboard/internal/cache"
	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/domain/vote"
	"github.com/geocoder89/postboard/internal/http/handlers"
	"github.com/geocoder89/postboard/internal/voting"
)

type fakeVoteCaster struct {
	castFn func(ctx context.Context, userID, postID string, dir int) (voting.Result, error)
}

func (f *fakeVoteCaster) CastVote(ctx context.Context, userID, postID string, dir int) (voting.Result, error) {
	if f.castFn != nil {
		return f.castFn(ctx, userID, postID, dir)
	}
	return voting.Added, nil
}

func TestCastVoteHandler(t *testing.T) {
	postID := newUUID()

	tests := []struct {
		name           string
		body           string
		castFn         func(ctx context.Context, userID, postID string, dir int) (voting.Result, error)
		wantStatusCode int
		wantCode       string
	}{
		{
			name: "add",
			body: `{"post_id":"` + postID + `","dir":1}`,
			castFn: func(_ context.Context, userID, pid string, dir int) (voting.Result, error) {
				if userID != alice.UserID || pid != postID || dir != 1 {
					t.Fatalf("unexpected args: %s %s %d", userID, pid, dir)
				}
				return voting.Added, nil
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "remove with dir zero",
			body: `{"post_id":"` + postID + `","dir":0}`,
			castFn: func(_ context.Context, _, _ string, dir int) (voting.Result, error) {
				if dir != 0 {
					t.Fatalf("dir = %d, want 0", dir)
				}
				return voting.Removed, nil
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "already voted",
			body: `{"post_id":"` + postID + `","dir":1}`,
			castFn: func(context.Context, string, string, int) (voting.Result, error) {
				return 0, vote.ErrAlreadyVoted
			},
			wantStatusCode: http.StatusConflict,
			wantCode:       "already_voted",
		},
		{
			name: "post does not exist",
			body: `{"post_id":"` + postID + `","dir":1}`,
			castFn: func(context.Context, string, string, int) (voting.Result, error) {
				return 0, post.ErrNotFound
			},
			wantStatusCode: http.StatusNotFound,
			wantCode:       "not_found",
		},
		{
			name: "vote does not exist",
			body: `{"post_id":"` + postID + `","dir":0}`,
			castFn: func(context.Context, string, string, int) (voting.Result, error) {
				return 0, vote.ErrNotFound
			},
			wantStatusCode: http.StatusNotFound,
			wantCode:       "not_found",
		},
		{
			name: "voter no longer exists",
			body: `{"post_id":"` + postID + `","dir":1}`,
			castFn: func(context.Context, string, string, int) (voting.Result, error) {
				return 0, user.ErrNotFound
			},
			wantStatusCode: http.StatusUnauthorized,
			wantCode:       "unauthorized",
		},
		{
			name:           "dir out of range",
			body:           `{"post_id":"` + postID + `","dir":2}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "invalid_request",
		},
		{
			name:           "dir missing",
			body:           `{"post_id":"` + postID + `"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "post id not a uuid",
			body:           `{"post_id":"7","dir":1}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "upstream failure",
			body: `{"post_id":"` + postID + `","dir":1}`,
			castFn: func(context.Context, string, string, int) (voting.Result, error) {
				return 0, errors.New("tx aborted")
			},
			wantStatusCode: http.StatusInternalServerError,
			wantCode:       "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			castFn := tt.castFn
			if castFn == nil {
				castFn = func(context.Context, string, string, int) (voting.Result, error) {
					t.Fatalf("service must not be called for invalid input")
					return 0, nil
				}
			}

			h := handlers.NewVotesHandler(&fakeVoteCaster{castFn: castFn}, nil, nil)
			r := setupRouter(http.MethodPost, "/vote", as(alice, h.CastVote))

			w := doJSON(r, http.MethodPost, "/vote", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if tt.wantCode != "" && errorCode(t, w) != tt.wantCode {
				t.Fatalf("code mismatch: body=%s", w.Body.String())
			}
		})
	}
}

func TestCastVote_InvalidatesListCache(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory(time.Minute)
	_, gen, _ := c.Get(ctx, "posts:list")
	c.Set(ctx, gen, "posts:list", []byte("[]"))

	h := handlers.NewVotesHandler(&fakeVoteCaster{}, c, nil)
	r := setupRouter(http.MethodPost, "/vote", as(alice, h.CastVote))

	w := doJSON(r, http.MethodPost, "/vote", `{"post_id":"`+newUUID()+`","dir":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body=%s", w.Code, w.Body.String())
	}

	if _, _, ok := c.Get(ctx, "posts:list"); ok {
		t.Fatalf("a vote must clear cached lists")
	}
}
