package common

import "context"

type ctxKey string

const sessionKey ctxKey = "session"

// Session is the authenticated caller context injected by the auth
// middleware. The raw token is kept so user-scoped upstream calls can
// forward the caller's credentials instead of holding ambient state.
type Session struct {
	UserID string
	Role   string
	Token  string
}

// WithSession stores the session on the provided context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext extracts the session from the context if present.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

// UserID extracts the authenticated user identifier from the context.
func UserID(ctx context.Context) (string, bool) {
	s, ok := SessionFromContext(ctx)
	if !ok || s.UserID == "" {
		return "", false
	}
	return s.UserID, true
}
