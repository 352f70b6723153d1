package session

import (
	"context"
	"net/http"
	"time"

	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/pkg/errors"
)

// TokenLength is the length of generated access tokens.
const TokenLength = 32

// A Manager manages the sessions of authenticated namespaces.
type Manager struct {
	db  database.Client
	ttl time.Duration
	now func() time.Time
}

// NewManager returns a new manager.
func NewManager(db database.Client, ttl time.Duration) *Manager {
	return &Manager{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
}

// Init opens a session on the given namespace.
func (m *Manager) Init(ctx context.Context, namespace string, duress bool, userAgent string) (*model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session := &model.Session{
		UserID:      namespace,
		Duress:      duress,
		UserAgent:   userAgent,
		AccessToken: SecureToken(TokenLength),
		ExpireAt:    m.now().Add(m.ttl).UTC(),
	}

	if err := m.db.Save(session); err != nil {
		return nil, sherror.Storage(err, "persist session")
	}
	return session, nil
}

// Validate returns the session of the given access token.
func (m *Manager) Validate(ctx context.Context, token string) (*model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session, err := m.db.FindSessionByAccessToken(token)
	if err != nil {
		if m.db.IsNotFound(err) {
			return nil, sherror.Unauthorized()
		}
		return nil, errors.Wrap(err, "could not get access to database")
	}

	if !SecureCompare(session.AccessToken, token) {
		return nil, sherror.Unauthorized()
	}

	if session.ExpireAt.Before(m.now()) {
		return nil, sherror.NewWithTagCode(sherror.KindUnauthorized, http.StatusUnauthorized, "expired-session", "The session has expired.")
	}

	return session, nil
}

// Clear closes all the sessions of the given namespaces.
func (m *Manager) Clear(ctx context.Context, namespaces ...string) error {
	for _, namespace := range namespaces {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.db.DeleteSessionsByUserID(namespace); err != nil {
			return sherror.Storage(err, "delete sessions")
		}
	}
	return nil
}

// Close closes the given session.
func (m *Manager) Close(session *model.Session) error {
	return errors.Wrap(m.db.Delete(session), "could not delete session")
}

// PurgeExpired removes all the expired sessions.
func (m *Manager) PurgeExpired() error {
	return errors.Wrap(m.db.DeleteExpiredSessions(), "could not purge sessions")
}
