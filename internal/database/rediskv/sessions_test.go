package rediskv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/kozaktomas/skinstric/internal/database"
	"github.com/kozaktomas/skinstric/internal/web/middleware"
	"github.com/redis/go-redis/v9"
)

func TestSessionRepository_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	kv, mr := setupRedis(t, 0)
	repo := NewSessionRepository(kv)

	created := time.UnixMilli(time.Now().UnixMilli())
	expires := created.Add(time.Hour)
	if err := repo.Save(ctx, "s1", created, expires); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ttl := mr.TTL(sessionKeyPrefix + "s1"); ttl <= 0 || ttl > time.Hour {
		t.Errorf("session key TTL = %v, want within an hour", ttl)
	}

	got, err := repo.Get(ctx, "s1")
	if err != nil || got == nil {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if !got.CreatedAt.Equal(created) || !got.ExpiresAt.Equal(expires) {
		t.Errorf("Get = %+v, want created %v expires %v", got, created, expires)
	}

	if err := repo.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := repo.Get(ctx, "s1"); got != nil {
		t.Errorf("expected session to be deleted, got %+v", got)
	}
	if ids, _ := repo.DeleteExpired(ctx); len(ids) != 0 {
		t.Errorf("deleted session still indexed: %v", ids)
	}
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	kv, _ := setupRedis(t, 0)
	repo := NewSessionRepository(kv)
	now := time.Now()

	repo.Save(ctx, "live", now, now.Add(time.Hour))
	repo.Save(ctx, "old", now.Add(-time.Hour), now.Add(time.Minute))
	repo.now = func() time.Time { return now.Add(2 * time.Minute) }

	if got, _ := repo.Get(ctx, "old"); got != nil {
		t.Errorf("expired session returned: %+v", got)
	}
	ids, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if !slices.Equal(ids, []string{"old"}) {
		t.Errorf("DeleteExpired = %v, want [old]", ids)
	}
	if got, _ := repo.Get(ctx, "live"); got == nil {
		t.Error("live session was removed")
	}
}

// A visitor keeps their ID and stored state when the server restarts.
func TestSessionRepository_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	kv, mr := setupRedis(t, 0)

	first := middleware.NewSessionManager("secret", NewSessionRepository(kv))
	session, err := first.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	w := httptest.NewRecorder()
	first.SetSessionCookie(w, httptest.NewRequest("GET", "/", nil), session)
	database.NewState(kv, session.ID, nil).SaveUser(ctx, database.UserProfile{Name: "Ada", Location: "London"})
	first.Stop()

	restarted := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0)
	defer restarted.Close()
	second := middleware.NewSessionManager("secret", NewSessionRepository(restarted))
	defer second.Stop()

	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	restored := second.GetSessionFromRequest(req)
	if restored == nil || restored.ID != session.ID {
		t.Fatalf("session after restart = %+v, want ID %s", restored, session.ID)
	}
	if user, ok := database.NewState(restarted, restored.ID, nil).LoadUser(ctx); !ok || user.Name != "Ada" {
		t.Errorf("LoadUser after restart = %+v, %v", user, ok)
	}
}
