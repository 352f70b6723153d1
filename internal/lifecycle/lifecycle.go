package lifecycle

import (
	"context"
	"time"

	"github.com/mdouchement/safehaven/internal/metrics"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/repository"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/sirupsen/logrus"
)

// Extra categories deleted after the namespaces data.
const (
	CategoryProfile  = "profile"
	CategorySessions = "sessions"
)

type (
	// A Repository is the storage used by the engine.
	Repository interface {
		Profile(ctx context.Context, namespace string) (*model.Profile, error)
		ProfilesWithAutoDelete(ctx context.Context) ([]*model.Profile, error)
		Purge(ctx context.Context, namespace, category string) error
		DeleteProfile(ctx context.Context, userID string) error

		Journey(ctx context.Context, id string) (*model.Journey, error)
		JourneysForAutoDeletion(ctx context.Context) ([]*model.Journey, error)
		UpdateJourney(ctx context.Context, id string, fn func(*model.Journey) error) (*model.Journey, error)
		DeleteJourney(ctx context.Context, id string) error

		Incidents(ctx context.Context, namespace string) ([]*model.Incident, error)
		DeleteIncident(ctx context.Context, namespace, id string) error
		Evidences(ctx context.Context, namespace string) ([]*model.Evidence, error)
		DeleteEvidence(ctx context.Context, namespace, id string) error
		Documents(ctx context.Context, namespace string) ([]*model.Document, error)
		DeleteDocument(ctx context.Context, namespace, id string) error
	}

	// A SessionStore holds the authenticated sessions.
	SessionStore interface {
		Clear(ctx context.Context, namespaces ...string) error
		PurgeExpired() error
	}
)

// An Engine enforces the data-lifecycle policies: panic delete, journey auto-delete and record expiry.
type Engine struct {
	repo     Repository
	sessions SessionStore
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	now      func() time.Time
}

// An Option configures an Engine.
type Option func(*Engine)

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithClock sets the clock used by the retention operations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New returns a new Engine.
func New(repo Repository, sessions SessionStore, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		sessions: sessions,
		log:      logrus.StandardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PanicDelete irreversibly deletes all the data of the identity owning userID,
// in both its real and duress namespaces, then the profile and the sessions.
//
// Every category is attempted even when a previous one failed. The failed
// categories are returned as a *sherror.PartialFailureError.
// Once ctx is done no new deletion is issued and the remaining categories are reported as failed.
func (e *Engine) PanicDelete(ctx context.Context, userID string) error {
	namespaces := []string{userID}
	owner := ""
	failures := &sherror.PartialFailureError{}

	profile, err := e.repo.Profile(ctx, userID)
	switch {
	case err == nil:
		namespaces = profile.Namespaces()
		owner = profile.UserID
	case sherror.IsNotFound(err):
	default:
		// The other namespace is unknown so the wipe is incomplete.
		// What is reachable from userID is still deleted.
		e.log.WithError(err).Error("panic delete: could not resolve profile")
		failures.Add(userID, CategoryProfile, err)
		owner = userID
	}
	attempt := func(namespace, category string, fn func() error) {
		if err := ctx.Err(); err != nil {
			failures.Add(namespace, category, err)
			return
		}
		if err := fn(); err != nil {
			failures.Add(namespace, category, err)
		}
	}

	for _, namespace := range namespaces {
		for _, category := range repository.Categories {
			category := category
			attempt(namespace, category, func() error {
				return e.repo.Purge(ctx, namespace, category)
			})
		}
	}

	if owner != "" {
		attempt(owner, CategoryProfile, func() error {
			return e.repo.DeleteProfile(ctx, owner)
		})
	}

	attempt(userID, CategorySessions, func() error {
		return e.sessions.Clear(ctx, namespaces...)
	})

	err = failures.ErrorOrNil()
	e.metrics.IncrementPanicDelete(err == nil)
	if err != nil {
		e.log.WithField("categories", failures.Categories()).Error("panic delete incomplete")
		return err
	}

	e.log.Info("panic delete completed")
	return nil
}
