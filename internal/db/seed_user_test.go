package db_test

import (
	"context"
	"testing"

	"github.com/geocoder89/postboard/internal/config"
	"github.com/geocoder89/postboard/internal/db"
	"github.com/geocoder89/postboard/internal/repo/memory"
	"github.com/geocoder89/postboard/internal/security"
)

func TestEnsureSeedUser(t *testing.T) {
	ctx := context.Background()
	users := memory.NewStore().Users()

	if err := db.EnsureSeedUser(ctx, users, config.Config{}); err != nil {
		t.Fatalf("unconfigured seed should be a no-op: %v", err)
	}

	cfg := config.Config{SeedUserEmail: "demo@example.com", SeedUserPassword: "demo-password"}

	if err := db.EnsureSeedUser(ctx, users, cfg); err != nil {
		t.Fatalf("seed: %v", err)
	}

	first, err := users.GetByEmail(ctx, cfg.SeedUserEmail)
	if err != nil {
		t.Fatalf("seed user missing: %v", err)
	}
	if !security.VerifyPassword(first.PasswordHash, cfg.SeedUserPassword) {
		t.Fatalf("seed password should verify")
	}

	if err := db.EnsureSeedUser(ctx, users, cfg); err != nil {
		t.Fatalf("second seed should be a no-op: %v", err)
	}

	again, _ := users.GetByEmail(ctx, cfg.SeedUserEmail)
	if again.ID != first.ID {
		t.Fatalf("seed must not recreate the user")
	}
}
