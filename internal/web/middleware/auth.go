package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type contextKey string

const sessionContextKey contextKey = "session"

// WithVisitor attaches a visitor session to every request, creating one
// (and its cookie) when the request carries none.
func WithVisitor(sm *SessionManager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sm.GetSessionFromRequest(r)
			if session == nil {
				var err error
				session, err = sm.CreateSession(r.Context())
				if err != nil {
					logger.Error("failed to create session", zap.Error(err))
					http.Error(w, `{"error": "failed to create session"}`, http.StatusInternalServerError)
					return
				}
				sm.SetSessionCookie(w, r, session)
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext retrieves the session from the request context.
func GetSessionFromContext(ctx context.Context) *Session {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return session
}

// SetSessionInContext adds a session to the context.
// This is primarily for testing - use WithVisitor middleware in production.
func SetSessionInContext(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
