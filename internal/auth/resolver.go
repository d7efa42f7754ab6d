package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/postboard/internal/domain/user"
)

// ErrUnauthorized is the only failure a caller of Resolve sees for a bad
// token or a token whose user no longer exists.
var ErrUnauthorized = errors.New("could not validate credentials")

// Principal is the authenticated identity handed to handlers after Resolve.
type Principal struct {
	UserID string
	Email  string
}

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type UserGetter interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type Resolver struct {
	tokens TokenVerifier
	users  UserGetter
}

func NewResolver(tokens TokenVerifier, users UserGetter) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve verifies the token and then requires the referenced user to still
// exist. Lookup failures other than not-found are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, token string) (Principal, error) {
	userID, err := r.tokens.Verify(token)

	if err != nil {
		slog.DebugContext(ctx, "token rejected", "reason", err)
		return Principal{}, ErrUnauthorized
	}

	u, err := r.users.GetByID(ctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			slog.DebugContext(ctx, "token for unknown user", "user_id", userID)
			return Principal{}, ErrUnauthorized
		}

		return Principal{}, fmt.Errorf("resolve user %s: %w", userID, err)
	}

	return Principal{UserID: u.ID, Email: u.Email}, nil
}
