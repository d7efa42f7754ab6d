package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
	TTL() time.Duration
}

type AuthHandler struct {
	users  UserReader
	tokens TokenIssuer
}

func NewAuthHandler(users UserReader, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// LoginRequest accepts JSON {email, password} or the OAuth2 password form
// (username, password).
type LoginRequest struct {
	Email    string `json:"email" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	// seconds until the token expires
	ExpiresIn int `json:"expires_in"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !Bind(ctx, &req, binding.Default(ctx.Request.Method, ctx.ContentType())) {
		return
	}

	cctx, cancel := withTimeout(ctx, readTimeout)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondInvalidCredentials(ctx)
			return
		}

		RespondInternal(ctx, "Could not log in", err)
		return
	}

	if !security.VerifyPassword(found.PasswordHash, req.Password) {
		respondInvalidCredentials(ctx)
		return
	}

	token, err := h.tokens.Issue(found.ID)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token", err)
		return
	}

	ctx.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.tokens.TTL() / time.Second),
	})
}

// unknown email and wrong password look the same to the caller
func respondInvalidCredentials(ctx *gin.Context) {
	RespondForbidden(ctx, "invalid_credentials", "Invalid Credentials")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
