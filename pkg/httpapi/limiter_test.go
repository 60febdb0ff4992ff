package httpapi

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pokedex-companion/pokedexservice/pkg/testutil"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
)

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewRedisLimiter(rdb)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < authBurst; i++ {
		ok, err := l.Allow(ctx, "ip:1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("request %d: allowed=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := l.Allow(ctx, "ip:1.2.3.4"); ok {
		t.Fatal("expected the bucket to be empty")
	}
	if ok, _ := l.Allow(ctx, "ip:5.6.7.8"); !ok {
		t.Fatal("other clients have their own bucket")
	}

	// one token refills every six seconds
	now = now.Add(6 * time.Second)
	if ok, _ := l.Allow(ctx, "ip:1.2.3.4"); !ok {
		t.Fatal("expected a refilled token")
	}
}

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter(testutil.Logger())
	ctx := context.Background()

	for i := 0; i < authBurst; i++ {
		if ok, _ := l.Allow(ctx, "a"); !ok {
			t.Fatalf("request %d rejected", i)
		}
	}
	if ok, _ := l.Allow(ctx, "a"); ok {
		t.Fatal("expected rejection after the burst")
	}
	if ok, _ := l.Allow(ctx, "b"); !ok {
		t.Fatal("keys must not share a bucket")
	}
}

func TestGetRealIP(t *testing.T) {
	cases := map[string]struct {
		headers map[string]string
		want    string
	}{
		"forwarded list": {map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "10.0.0.1"},
		"cloudflare":     {map[string]string{"CF-Connecting-IP": "10.0.0.3"}, "10.0.0.3"},
		"real ip":        {map[string]string{"X-Real-IP": "10.0.0.4"}, "10.0.0.4"},
		"remote addr":    {nil, "192.0.2.1"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range c.headers {
				req.Header.Set(k, v)
			}
			if got := getRealIP(req); got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}
