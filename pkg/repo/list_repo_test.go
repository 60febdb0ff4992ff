package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pokedex-companion/pokedexservice/pkg/model"
	"github.com/pokedex-companion/pokedexservice/pkg/repo"
	"github.com/pokedex-companion/pokedexservice/pkg/testutil"
)

func TestListRepository_PokemonMembership(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	lists := repo.NewListRepository(db)
	u := testutil.CreateUser(t, db, "ash")

	list := &model.CustomList{UserID: u.ID, Name: "Team"}
	if err := lists.CreateList(ctx, list); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := lists.AddPokemon(ctx, &model.CustomListPokemon{ListID: list.ID, PokemonID: 25}); err != nil {
		t.Fatalf("add: %v", err)
	}
	err := lists.AddPokemon(ctx, &model.CustomListPokemon{ListID: list.ID, PokemonID: 25})
	if !errors.Is(err, repo.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := lists.AddPokemon(ctx, &model.CustomListPokemon{ListID: list.ID, PokemonID: 6}); err != nil {
		t.Fatalf("add second: %v", err)
	}

	got, err := lists.GetListWithPokemons(ctx, list.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Pokemons) != 2 || got.Pokemons[0].PokemonID != 25 {
		t.Fatalf("unexpected pokemons: %+v", got.Pokemons)
	}

	if err := lists.RemovePokemon(ctx, list.ID, 25); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := lists.RemovePokemon(ctx, list.ID, 25); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRepository_RenameRefreshesCreatedAt(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	lists := repo.NewListRepository(db)
	u := testutil.CreateUser(t, db, "ash")

	list := &model.CustomList{UserID: u.ID, Name: "Team", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := lists.CreateList(ctx, list); err != nil {
		t.Fatalf("create: %v", err)
	}

	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	renamed, err := lists.RenameList(ctx, list.ID, "Elite", at)
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Name != "Elite" || !renamed.CreatedAt.Equal(at) {
		t.Fatalf("unexpected list after rename: %+v", renamed)
	}
	if _, err := lists.RenameList(ctx, 9999, "x", at); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRepository_DeleteRemovesItems(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	lists := repo.NewListRepository(db)
	u := testutil.CreateUser(t, db, "ash")

	list := &model.CustomList{UserID: u.ID, Name: "Team"}
	if err := lists.CreateList(ctx, list); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, id := range []int{1, 4, 7} {
		if err := lists.AddPokemon(ctx, &model.CustomListPokemon{ListID: list.ID, PokemonID: id}); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}

	if err := lists.DeleteList(ctx, list.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var items int64
	db.Model(&model.CustomListPokemon{}).Where("list_id = ?", list.ID).Count(&items)
	if items != 0 {
		t.Fatalf("expected items to be removed, %d left", items)
	}
	if err := lists.DeleteList(ctx, list.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRepository_ListByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	lists := repo.NewListRepository(db)
	u := testutil.CreateUser(t, db, "ash")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"old", "new"} {
		l := &model.CustomList{UserID: u.ID, Name: name, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := lists.CreateList(ctx, l); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := lists.ListListsByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Name != "new" {
		t.Fatalf("unexpected order: %+v", got)
	}
}
