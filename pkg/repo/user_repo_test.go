package repo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pokedex-companion/pokedexservice/pkg/model"
	"github.com/pokedex-companion/pokedexservice/pkg/repo"
	"github.com/pokedex-companion/pokedexservice/pkg/testutil"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	users := repo.NewUserRepository(testutil.OpenDB(t))

	u := &model.User{Username: "ash", Email: "ash@x.com", PasswordHash: "hash"}
	if err := users.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected id to be assigned")
	}

	byEmail, err := users.GetUserByEmail(ctx, "ash@x.com")
	if err != nil {
		t.Fatalf("by email: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Fatalf("got id %d, want %d", byEmail.ID, u.ID)
	}
	if _, err := users.GetUserByUsername(ctx, "ash"); err != nil {
		t.Fatalf("by username: %v", err)
	}
	if _, err := users.GetUserByEmail(ctx, "misty@x.com"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := repo.NewUserRepository(testutil.OpenDB(t))

	if err := users.CreateUser(ctx, &model.User{Username: "ash", Email: "ash@x.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := users.CreateUser(ctx, &model.User{Username: "ash2", Email: "ash@x.com", PasswordHash: "h"})
	if !errors.Is(err, repo.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	users := repo.NewUserRepository(db)
	u := testutil.CreateUser(t, db, "brock")

	if err := users.UpdatePassword(ctx, u.ID, "new-hash"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := users.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PasswordHash != "new-hash" {
		t.Fatalf("hash not updated: %q", got.PasswordHash)
	}
	if err := users.UpdatePassword(ctx, 9999, "x"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
