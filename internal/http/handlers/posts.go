package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/geocoder89/postboard/internal/auth"
	"github.com/geocoder89/postboard/internal/cache"
	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/geocoder89/postboard/internal/utils"
	"github.com/gin-gonic/gin"
)

type PostsStore interface {
	Create(ctx context.Context, p post.Post) (post.Post, error)
	GetByID(ctx context.Context, id string) (post.Post, error)
	Update(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error)
	Delete(ctx context.Context, id string) error
}

// PostsQuery serves the vote-counted read paths.
type PostsQuery interface {
	ListPosts(ctx context.Context, filter post.ListFilter) ([]post.WithVotes, error)
	GetPost(ctx context.Context, id string) (post.WithVotes, error)
}

type PostsHandler struct {
	store PostsStore
	query PostsQuery
	cache cache.Cache
	prom  *observability.Prom
}

func NewPostsHandler(store PostsStore, query PostsQuery, c cache.Cache, prom *observability.Prom) *PostsHandler {
	if c == nil {
		c = cache.Nop{}
	}

	return &PostsHandler{store: store, query: query, cache: c, prom: prom}
}

type listPostsQuery struct {
	Limit  int    `form:"limit" binding:"gte=0"`
	Skip   int    `form:"skip" binding:"gte=0"`
	Search string `form:"search" binding:"max=200"`
}

func (h *PostsHandler) ListPosts(ctx *gin.Context, _ auth.Principal) {
	var q listPostsQuery

	if !BindQuery(ctx, &q) {
		return
	}

	filter := post.ListFilter{Limit: q.Limit, Offset: q.Skip}
	if q.Search != "" {
		filter.Search = &q.Search
	}
	filter = filter.Normalize()

	key := utils.BuildPostsListCacheKey(filter)

	body, gen, ok := h.cache.Get(ctx.Request.Context(), key)
	if ok {
		h.prom.ObserveListCache(true)
		RespondRawJSONWithETag(ctx, http.StatusOK, body)
		return
	}
	h.prom.ObserveListCache(false)

	cctx, cancel := withTimeout(ctx, readTimeout)
	defer cancel()

	items, err := h.query.ListPosts(cctx, filter)
	if err != nil {
		RespondInternal(ctx, "Could not list posts", err)
		return
	}

	if items == nil {
		items = []post.WithVotes{}
	}

	body, err = json.Marshal(items)
	if err != nil {
		RespondInternal(ctx, "Could not list posts", err)
		return
	}

	// stored under the generation seen before the query; a write that
	// cleared the cache meanwhile makes this a no-op
	h.cache.Set(ctx.Request.Context(), gen, key, body)

	RespondRawJSONWithETag(ctx, http.StatusOK, body)
}

func (h *PostsHandler) GetPost(ctx *gin.Context, _ auth.Principal) {
	id, ok := postIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, readTimeout)
	defer cancel()

	p, err := h.query.GetPost(cctx, id)
	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			respondPostNotFound(ctx, id)
			return
		}

		RespondInternal(ctx, "Could not fetch post", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

func (h *PostsHandler) CreatePost(ctx *gin.Context, principal auth.Principal) {
	var req post.CreatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	created, err := h.store.Create(cctx, post.NewFromCreateRequest(principal.UserID, req))
	if err != nil {
		// the account went away between authentication and insert
		if errors.Is(err, user.ErrNotFound) {
			RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Could not validate credentials", nil)
			return
		}

		RespondInternal(ctx, "Could not create post", err)
		return
	}

	h.cache.Clear(ctx.Request.Context())

	ctx.JSON(http.StatusCreated, created)
}

func (h *PostsHandler) UpdatePost(ctx *gin.Context, principal auth.Principal) {
	id, ok := postIDParam(ctx)
	if !ok {
		return
	}

	var req post.UpdatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	if !h.authorizeOwner(cctx, ctx, id, principal) {
		return
	}

	updated, err := h.store.Update(cctx, id, req)
	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			respondPostNotFound(ctx, id)
			return
		}

		RespondInternal(ctx, "Could not update post", err)
		return
	}

	h.cache.Clear(ctx.Request.Context())

	ctx.JSON(http.StatusOK, updated)
}

func (h *PostsHandler) DeletePost(ctx *gin.Context, principal auth.Principal) {
	id, ok := postIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	if !h.authorizeOwner(cctx, ctx, id, principal) {
		return
	}

	err := h.store.Delete(cctx, id)
	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			respondPostNotFound(ctx, id)
			return
		}

		RespondInternal(ctx, "Could not delete post", err)
		return
	}

	h.cache.Clear(ctx.Request.Context())

	ctx.Status(http.StatusNoContent)
}

// authorizeOwner writes the 404/403 response itself and reports whether the
// caller may modify the post.
func (h *PostsHandler) authorizeOwner(cctx context.Context, ctx *gin.Context, id string, principal auth.Principal) bool {
	existing, err := h.store.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			respondPostNotFound(ctx, id)
			return false
		}

		RespondInternal(ctx, "Could not fetch post", err)
		return false
	}

	if err := existing.CheckOwner(principal.UserID); err != nil {
		if errors.Is(err, post.ErrForbidden) {
			RespondForbidden(ctx, "forbidden", "Not authorized to perform requested action")
			return false
		}

		RespondInternal(ctx, "Could not authorize request", err)
		return false
	}

	return true
}

func postIDParam(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid post id", gin.H{"id": id})
		return "", false
	}

	return id, true
}

func respondPostNotFound(ctx *gin.Context, id string) {
	RespondNotFound(ctx, fmt.Sprintf("Post with id: %s was not found", id))
}
