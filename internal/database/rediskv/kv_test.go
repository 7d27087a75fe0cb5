package rediskv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kozaktomas/skinstric/internal/database"
	"github.com/redis/go-redis/v9"
)

func setupRedis(t *testing.T, ttl time.Duration) (*KV, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)

	kv := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
	t.Cleanup(func() { kv.Close() })
	return kv, mr
}

func TestKV_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	kv, _ := setupRedis(t, 0)

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	if err := kv.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v2" {
		t.Errorf("Get(k) = %q, %v, %v; want v2", got, ok, err)
	}

	if err := kv.Delete(ctx, "k", "other"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Error("expected key to be deleted")
	}
}

func TestKV_TTL(t *testing.T) {
	ctx := context.Background()
	kv, mr := setupRedis(t, time.Hour)

	kv.Set(ctx, "k", []byte("v"))
	if ttl := mr.TTL("k"); ttl != time.Hour {
		t.Errorf("TTL = %s, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Error("expected key to expire")
	}
}

func TestKV_WithState(t *testing.T) {
	ctx := context.Background()
	kv, _ := setupRedis(t, 0)
	state := database.NewState(kv, "visitor", nil)

	want := database.UserProfile{Name: "Grace", Location: "Arlington"}
	if err := state.SaveUser(ctx, want); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if got, ok := state.LoadUser(ctx); !ok || got != want {
		t.Errorf("LoadUser() = %+v, %v", got, ok)
	}
}

func TestOpen_InvalidURL(t *testing.T) {
	if _, err := Open(context.Background(), "", 0); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := Open(context.Background(), "http://not-redis", 0); err == nil {
		t.Error("expected error for non-redis URL")
	}
}

func TestOpen(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	defer mr.Close()

	kv, err := Open(context.Background(), "redis://"+mr.Addr()+"/0", 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	kv.Close()
}
