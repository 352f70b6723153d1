package session

import (
	"context"

	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying the given session.
func NewContext(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, session)
}

// FromContext returns the session carried by ctx, if any.
func FromContext(ctx context.Context) (*model.Session, bool) {
	session, ok := ctx.Value(contextKey{}).(*model.Session)
	return session, ok && session != nil
}

// Namespace returns the namespace of the session carried by ctx.
// It fails when no session is open.
func Namespace(ctx context.Context) (string, error) {
	session, ok := FromContext(ctx)
	if !ok || session.UserID == "" {
		return "", sherror.Unauthorized()
	}
	return session.UserID, nil
}
