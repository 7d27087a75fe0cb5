package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sessionCookieName = "skinstric_session"
	sessionDuration   = 24 * time.Hour
	cleanupInterval   = 10 * time.Minute
)

// Session identifies one visitor. Its ID namespaces all persisted state.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StoredSession is the persisted form of a session.
type StoredSession struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionRepository persists sessions across restarts.
type SessionRepository interface {
	Save(ctx context.Context, id string, createdAt, expiresAt time.Time) error
	Get(ctx context.Context, id string) (*StoredSession, error)
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes expired sessions and returns their IDs.
	DeleteExpired(ctx context.Context) ([]string, error)
}

// SessionManager creates, signs and expires visitor sessions.
type SessionManager struct {
	secret   []byte
	sessions map[string]*Session
	mu       sync.RWMutex
	repo     SessionRepository
	logger   *zap.Logger
	onExpire func(ctx context.Context, id string)
	stop     chan struct{}
	stopOnce sync.Once
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithLogger sets the logger used for repository failures.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(sm *SessionManager) {
		sm.logger = logger
	}
}

// OnExpire registers a hook invoked with the ID of every session removed by cleanup.
func OnExpire(fn func(ctx context.Context, id string)) SessionOption {
	return func(sm *SessionManager) {
		sm.onExpire = fn
	}
}

// NewSessionManager creates a session manager and starts its cleanup loop.
// repo may be nil, in which case sessions live only in memory.
func NewSessionManager(secret string, repo SessionRepository, opts ...SessionOption) *SessionManager {
	if secret == "" {
		secret = "skinstric-dev-secret-change-in-production"
	}
	sm := &SessionManager{
		secret:   []byte(secret),
		sessions: make(map[string]*Session),
		repo:     repo,
		logger:   zap.NewNop(),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(sm)
	}
	go sm.cleanupLoop()
	return sm
}

// CreateSession starts a new visitor session.
func (sm *SessionManager) CreateSession(ctx context.Context) (*Session, error) {
	now := time.Now()
	session := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(sessionDuration),
	}

	if sm.repo != nil {
		if err := sm.repo.Save(ctx, session.ID, session.CreatedAt, session.ExpiresAt); err != nil {
			return nil, err
		}
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	return session, nil
}

// GetSession returns a live session by ID, consulting the repository when
// the session is not cached. Expired sessions are never returned.
func (sm *SessionManager) GetSession(ctx context.Context, sessionID string) *Session {
	sm.mu.RLock()
	session, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if !ok && sm.repo != nil {
		stored, err := sm.repo.Get(ctx, sessionID)
		if err != nil {
			sm.logger.Warn("failed to load session", zap.Error(err))
		}
		if stored != nil {
			session = &Session{ID: stored.ID, CreatedAt: stored.CreatedAt, ExpiresAt: stored.ExpiresAt}
			sm.mu.Lock()
			sm.sessions[session.ID] = session
			sm.mu.Unlock()
			ok = true
		}
	}
	if !ok {
		return nil
	}
	if time.Now().After(session.ExpiresAt) {
		return nil
	}
	return session
}

// DeleteSession removes a session from memory and the repository.
func (sm *SessionManager) DeleteSession(ctx context.Context, sessionID string) {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if sm.repo != nil {
		if err := sm.repo.Delete(ctx, sessionID); err != nil {
			sm.logger.Warn("failed to delete session", zap.Error(err))
		}
	}
}

// SetSessionCookie writes the signed session cookie.
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, r *http.Request, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID + "." + sm.signData(session.ID),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionDuration.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// GetSessionFromRequest returns the session named by a correctly signed cookie.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	sessionID, signature, ok := strings.Cut(cookie.Value, ".")
	if !ok || !sm.verifySignature(sessionID, signature) {
		return nil
	}
	return sm.GetSession(r.Context(), sessionID)
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() { close(sm.stop) })
}

func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-sm.stop:
			return
		case <-ticker.C:
			sm.Cleanup(context.Background())
		}
	}
}

// Cleanup drops expired sessions and runs the expiry hook for each of them.
func (sm *SessionManager) Cleanup(ctx context.Context) {
	now := time.Now()
	expired := make(map[string]struct{})

	sm.mu.Lock()
	for id, s := range sm.sessions {
		if now.After(s.ExpiresAt) {
			delete(sm.sessions, id)
			expired[id] = struct{}{}
		}
	}
	sm.mu.Unlock()

	if sm.repo != nil {
		ids, err := sm.repo.DeleteExpired(ctx)
		if err != nil {
			sm.logger.Warn("failed to delete expired sessions", zap.Error(err))
		}
		for _, id := range ids {
			expired[id] = struct{}{}
		}
	}

	if len(expired) > 0 {
		sm.logger.Debug("expired sessions removed", zap.Int("count", len(expired)))
	}
	if sm.onExpire == nil {
		return
	}
	for id := range expired {
		sm.onExpire(ctx, id)
	}
}

func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}
