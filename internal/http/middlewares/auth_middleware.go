package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/postboard/internal/auth"
	"github.com/gin-gonic/gin"
)

type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (auth.Principal, error)
}

// AuthedHandler is a route that only runs once the caller is known.
type AuthedHandler func(*gin.Context, auth.Principal)

type AuthMiddleware struct {
	resolver PrincipalResolver
}

func NewAuthMiddleware(resolver PrincipalResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// RequireUser resolves the bearer token into a Principal and hands it to h.
// Every token failure answers 401 with the same message; a failing user
// lookup is a 500 so outages are not reported as bad credentials.
func (m *AuthMiddleware) RequireUser(h AuthedHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c)
			return
		}

		p, err := m.resolver.Resolve(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				abortUnauthorized(c)
				return
			}

			slog.ErrorContext(c.Request.Context(), "resolve principal failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody(c, "internal_error", "Could not validate credentials"))
			return
		}

		c.Set(CtxUserID, p.UserID)

		h(c, p)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func abortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody(c, "unauthorized", "Could not validate credentials"))
}

func errorBody(c *gin.Context, code, message string) gin.H {
	body := gin.H{
		"code":    code,
		"message": message,
	}

	if id := c.GetString(CtxRequestID); id != "" {
		body["requestId"] = id
	}

	return gin.H{"error": body}
}
