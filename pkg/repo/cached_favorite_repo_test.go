package repo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pokedex-companion/pokedexservice/pkg/model"
	"github.com/pokedex-companion/pokedexservice/pkg/repo"
	"github.com/pokedex-companion/pokedexservice/pkg/testutil"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
)

func TestCachedFavoriteRepo_ReadThroughAndInvalidate(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	db := testutil.OpenDB(t)
	u := testutil.CreateUser(t, db, "ash")
	favs := repo.NewCachedFavoriteRepo(repo.NewFavoriteRepository(db), rdb, testutil.Logger())

	if err := favs.CreateFavorite(ctx, &model.Favorite{UserID: u.ID, PokemonID: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := favs.ListFavoritesByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 favorite, got %d", len(list))
	}

	key := fmt.Sprintf("favorites:%d", u.ID)
	if !mr.Exists(key) {
		t.Fatalf("expected %s to be cached", key)
	}

	fav := &model.Favorite{UserID: u.ID, PokemonID: 4}
	if err := favs.CreateFavorite(ctx, fav); err != nil {
		t.Fatalf("create: %v", err)
	}
	if mr.Exists(key) {
		t.Fatal("expected cache to be invalidated after create")
	}
	list, _ = favs.ListFavoritesByUser(ctx, u.ID)
	if len(list) != 2 {
		t.Fatalf("expected 2 favorites, got %d", len(list))
	}

	if err := favs.DeleteFavorite(ctx, u.ID, fav.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ = favs.ListFavoritesByUser(ctx, u.ID)
	if len(list) != 1 {
		t.Fatalf("expected 1 favorite after delete, got %d", len(list))
	}
}

func TestCachedFavoriteRepo_FallsBackWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })

	db := testutil.OpenDB(t)
	u := testutil.CreateUser(t, db, "ash")
	favs := repo.NewCachedFavoriteRepo(repo.NewFavoriteRepository(db), rdb, testutil.Logger())
	mr.Close()

	if err := favs.CreateFavorite(ctx, &model.Favorite{UserID: u.ID, PokemonID: 150}); err != nil {
		t.Fatalf("create should not depend on redis: %v", err)
	}
	list, err := favs.ListFavoritesByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].PokemonID != 150 {
		t.Fatalf("unexpected favorites: %+v", list)
	}
}


func TestCachedFavoriteRepo_FailedInvalidateNeverServesStale(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })

	db := testutil.OpenDB(t)
	u := testutil.CreateUser(t, db, "ash")
	favs := repo.NewCachedFavoriteRepo(repo.NewFavoriteRepository(db), rdb, testutil.Logger())

	list, err := favs.ListFavoritesByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	key := fmt.Sprintf("favorites:%d", u.ID)
	if len(list) != 0 || !mr.Exists(key) {
		t.Fatalf("expected an empty cached list, got %d (cached=%v)", len(list), mr.Exists(key))
	}

	mr.SetError("ERR server unavailable")
	if err := favs.CreateFavorite(ctx, &model.Favorite{UserID: u.ID, PokemonID: 25}); err != nil {
		t.Fatalf("create should not depend on redis: %v", err)
	}

	list, err = favs.ListFavoritesByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list during outage: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 favorite during outage, got %d", len(list))
	}

	mr.SetError("")
	if !mr.Exists(key) {
		t.Fatalf("expected the stale key to still be in redis")
	}
	list, err = favs.ListFavoritesByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list after recovery: %v", err)
	}
	if len(list) != 1 || list[0].PokemonID != 25 {
		t.Fatalf("stale favorites after recovery: %+v", list)
	}

	// the stale copy was dropped and the fresh list cached again
	list, _ = favs.ListFavoritesByUser(ctx, u.ID)
	if len(list) != 1 {
		t.Fatalf("expected 1 cached favorite, got %d", len(list))
	}
}

// blockingFavorites holds ListFavoritesByUser until released.
type blockingFavorites struct {
	repo.FavoriteRepository
	entered chan struct{}
	release chan struct{}
}

func (b *blockingFavorites) ListFavoritesByUser(ctx context.Context, userID uint) ([]*model.Favorite, error) {
	close(b.entered)
	<-b.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []*model.Favorite{{UserID: userID, PokemonID: 7}}, nil
}

func TestCachedFavoriteRepo_LoadOutlivesCancelledCaller(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	next := &blockingFavorites{entered: make(chan struct{}), release: make(chan struct{})}
	favs := repo.NewCachedFavoriteRepo(next, rdb, testutil.Logger())

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		favs []*model.Favorite
		err  error
	}
	done := make(chan result, 1)
	go func() {
		list, err := favs.ListFavoritesByUser(ctx, 1)
		done <- result{list, err}
	}()

	select {
	case <-next.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("loader never started")
	}
	cancel()
	close(next.release)

	res := <-done
	if res.err != nil {
		t.Fatalf("load failed after caller cancelled: %v", res.err)
	}
	if len(res.favs) != 1 || res.favs[0].PokemonID != 7 {
		t.Fatalf("unexpected favorites: %+v", res.favs)
	}
	if !mr.Exists("favorites:1") {
		t.Fatal("expected the loaded list to be cached")
	}
}
