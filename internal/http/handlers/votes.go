package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/geocoder89/postboard/internal/auth"
	"github.com/geocoder89/postboard/internal/cache"
	"github.com/geocoder89/postboard/internal/domain/post"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/domain/vote"
	"github.com/geocoder89/postboard/internal/observability"
	"github.com/geocoder89/postboard/internal/voting"
	"github.com/gin-gonic/gin"
)

type VoteCaster interface {
	CastVote(ctx context.Context, userID, postID string, dir int) (voting.Result, error)
}

type VotesHandler struct {
	votes VoteCaster
	cache cache.Cache
	prom  *observability.Prom
}

func NewVotesHandler(votes VoteCaster, c cache.Cache, prom *observability.Prom) *VotesHandler {
	if c == nil {
		c = cache.Nop{}
	}

	return &VotesHandler{votes: votes, cache: c, prom: prom}
}

func (h *VotesHandler) CastVote(ctx *gin.Context, principal auth.Principal) {
	var req vote.CastRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	result, err := h.votes.CastVote(cctx, principal.UserID, req.PostID, *req.Dir)
	if err != nil {
		switch {
		case errors.Is(err, post.ErrNotFound):
			h.prom.ObserveVote("not_found")
			RespondNotFound(ctx, fmt.Sprintf("Post with id: %s does not exist", req.PostID))
		case errors.Is(err, user.ErrNotFound):
			h.prom.ObserveVote("error")
			RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Could not validate credentials", nil)
		case errors.Is(err, vote.ErrAlreadyVoted):
			h.prom.ObserveVote("conflict")
			RespondConflict(ctx, "already_voted",
				fmt.Sprintf("user %s has already voted on post %s", principal.UserID, req.PostID))
		case errors.Is(err, vote.ErrNotFound):
			h.prom.ObserveVote("not_found")
			RespondNotFound(ctx, "Vote does not exist")
		case errors.Is(err, voting.ErrInvalidDirection):
			RespondBadRequest(ctx, "Invalid vote direction", gin.H{"dir": *req.Dir})
		default:
			h.prom.ObserveVote("error")
			RespondInternal(ctx, "Could not cast vote", err)
		}
		return
	}

	h.prom.ObserveVote(result.String())
	h.cache.Clear(ctx.Request.Context())

	if result == voting.Added {
		ctx.JSON(http.StatusCreated, gin.H{"message": "Successfully added vote"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Successfully deleted vote"})
}
