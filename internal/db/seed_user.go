package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/postboard/internal/config"
	"github.com/geocoder89/postboard/internal/domain/user"
	"github.com/geocoder89/postboard/internal/security"
)

type SeedUserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, email, passwordHash string) (user.User, error)
}

// EnsureSeedUser creates the configured demo account once. It is a no-op when
// no seed credentials are configured or the email already exists.
func EnsureSeedUser(ctx context.Context, users SeedUserStore, cfg config.Config) error {
	if cfg.SeedUserEmail == "" || cfg.SeedUserPassword == "" {
		return nil
	}

	_, err := users.GetByEmail(ctx, cfg.SeedUserEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.SeedUserPassword)

	if err != nil {
		return err
	}

	u, err := users.Create(ctx, cfg.SeedUserEmail, hash)

	// lost a race with another instance
	if errors.Is(err, user.ErrEmailTaken) {
		return nil
	}

	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "seed user created", "user_id", u.ID, "email", u.Email)
	return nil
}
