package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"openlibrary-explorer/internal/models"
)

func TestKey(t *testing.T) {
	base := models.Query{Text: "dune", Facet: models.FacetTitles, Limit: 100, TopWords: 10}

	same := base
	same.TopWords = 25
	if Key(base) != Key(same) {
		t.Fatal("top words should not change the key")
	}

	for _, other := range []models.Query{
		{Text: "Dune", Facet: models.FacetTitles, Limit: 100},
		{Text: "dune", Facet: models.FacetAnywhere, Limit: 100},
		{Text: "dune", Facet: models.FacetTitles, Limit: 200},
	} {
		if Key(base) == Key(other) {
			t.Fatalf("expected different keys for %+v and %+v", base, other)
		}
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if _, ok, err := c.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	body := []byte(`{"docs":[]}`)
	if err := c.Set(ctx, "k", body); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	body[0] = 'X'

	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(got) != `{"docs":[]}` {
		t.Fatalf("cached body changed: %s", got)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
}

type fakeRedis struct {
	data    map[string]string
	lastTTL time.Duration
	getErr  error
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	val, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.lastTTL = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Close() error {
	return nil
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRedis{data: map[string]string{}}
	c := NewRedisCacheWithClient(fake, "explorer:cache:", 0)

	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Set(ctx, "k", []byte(`{"docs":[]}`)); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if fake.lastTTL != DefaultOrphanTTL {
		t.Fatalf("unexpected ttl: %s", fake.lastTTL)
	}
	for key := range fake.data {
		if !strings.HasPrefix(key, "explorer:cache:") || len(key) != len("explorer:cache:")+36+1+64 {
			t.Fatalf("unexpected redis key: %s", key)
		}
	}

	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(got) != `{"docs":[]}` {
		t.Fatalf("unexpected get: %s ok=%v err=%v", got, ok, err)
	}
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping error: %v", err)
	}
}

func TestRedisCacheInstancesDoNotShareEntries(t *testing.T) {
	ctx := context.Background()
	fake := &fakeRedis{data: map[string]string{}}
	first := NewRedisCacheWithClient(fake, "explorer:cache:", time.Hour)
	second := NewRedisCacheWithClient(fake, "explorer:cache:", time.Hour)

	if err := first.Set(ctx, "k", []byte("{}")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if _, ok, _ := second.Get(ctx, "k"); ok {
		t.Fatal("expected a new instance to start empty")
	}
}

func TestRedisCacheGetError(t *testing.T) {
	fake := &fakeRedis{data: map[string]string{}, getErr: errors.New("connection refused")}
	c := NewRedisCacheWithClient(fake, "p:", time.Hour)
	if _, _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error")
	}
}
