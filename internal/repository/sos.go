package repository

import (
	"context"

	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
)

// ActiveSOSSession returns the active SOS session of the namespace.
func (r *Repository) ActiveSOSSession(ctx context.Context, namespace string) (*model.SOSSession, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	session, err := r.db.FindActiveSOSSession(namespace)
	if err != nil {
		return nil, r.fail(err, "SOS session", "get SOS session")
	}
	return session, nil
}

// SOSSessions returns the SOS sessions of the namespace, newest first.
func (r *Repository) SOSSessions(ctx context.Context, namespace string) ([]*model.SOSSession, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	sessions, err := r.db.FindSOSSessionsByUserID(namespace)
	if err != nil {
		return nil, sherror.Storage(err, "list SOS sessions")
	}
	return sessions, nil
}

// SaveSOSSession persists the SOS session.
func (r *Repository) SaveSOSSession(ctx context.Context, session *model.SOSSession) error {
	if err := alive(ctx); err != nil {
		return err
	}
	return r.save(session, "persist SOS session")
}
