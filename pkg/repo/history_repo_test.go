package repo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pokedex-companion/pokedexservice/pkg/model"
	"github.com/pokedex-companion/pokedexservice/pkg/repo"
	"github.com/pokedex-companion/pokedexservice/pkg/testutil"
)

func TestHistoryRepository_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	history := repo.NewHistoryRepository(db)
	u := testutil.CreateUser(t, db, "ash")

	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	a, err := history.UpsertSearchTerm(ctx, u.ID, "pikachu", first)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	b, err := history.UpsertSearchTerm(ctx, u.ID, "pikachu", second)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("expected the same row, got ids %d and %d", a.ID, b.ID)
	}
	if !b.CreatedAt.Equal(second) {
		t.Fatalf("createdAt = %v, want %v", b.CreatedAt, second)
	}

	var count int64
	db.Model(&model.SearchHistoryEntry{}).Where("user_id = ?", u.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestHistoryRepository_RecentAndDeleteAllExcept(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	history := repo.NewHistoryRepository(db)
	u := testutil.CreateUser(t, db, "ash")
	other := testutil.CreateUser(t, db, "misty")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := history.UpsertSearchTerm(ctx, u.ID, fmt.Sprintf("term-%d", i), base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if _, err := history.UpsertSearchTerm(ctx, other.ID, "term-0", base); err != nil {
		t.Fatalf("upsert other: %v", err)
	}

	recent, err := history.ListRecent(ctx, u.ID, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(recent))
	}
	for i, want := range []string{"term-4", "term-3", "term-2"} {
		if recent[i].SearchTerm != want {
			t.Fatalf("entry %d = %q, want %q", i, recent[i].SearchTerm, want)
		}
	}

	ids := make([]uint, 0, len(recent))
	for _, e := range recent {
		ids = append(ids, e.ID)
	}
	cutoff := recent[len(recent)-1].CreatedAt

	// written after the keep set was read
	if _, err := history.UpsertSearchTerm(ctx, u.ID, "late", base.Add(time.Hour)); err != nil {
		t.Fatalf("upsert late: %v", err)
	}

	deleted, err := history.DeleteAllExcept(ctx, u.ID, ids, cutoff)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted %d rows, want 2", deleted)
	}

	left, _ := history.ListRecent(ctx, u.ID, 25)
	if len(left) != 4 || left[0].SearchTerm != "late" {
		t.Fatalf("unexpected history after trim: %+v", left)
	}

	rest, _ := history.ListRecent(ctx, other.ID, 25)
	if len(rest) != 1 {
		t.Fatalf("other user's history touched: %d rows", len(rest))
	}
}

func TestHistoryRepository_DeleteEntry(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	history := repo.NewHistoryRepository(db)
	u := testutil.CreateUser(t, db, "ash")

	e, err := history.UpsertSearchTerm(ctx, u.ID, "eevee", time.Now().UTC())
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := history.DeleteEntry(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := history.GetEntry(ctx, e.ID); err != repo.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// deleting again is a no-op
	if err := history.DeleteEntry(ctx, e.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}
