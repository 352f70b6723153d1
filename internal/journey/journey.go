// Package journey implements the healthcare journey state machine.
package journey

import (
	"context"
	"net/http"
	"time"

	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/repository"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/sirupsen/logrus"
)

// DefaultRetentionDays is the delay between completion and auto-deletion.
const DefaultRetentionDays = 30

// An Orchestrator drives journeys through their states.
// Transitions are explicit, nothing is inferred from the arrangements.
type Orchestrator struct {
	repo      *repository.Repository
	retention time.Duration
	log       logrus.FieldLogger
	now       func() time.Time
}

// An Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRetention sets the number of days a completed journey is kept before auto-deletion.
func WithRetention(days int) Option {
	return func(o *Orchestrator) {
		if days > 0 {
			o.retention = time.Duration(days) * 24 * time.Hour
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Orchestrator) {
		o.log = l
	}
}

// WithClock sets the clock.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New returns a new Orchestrator.
func New(repo *repository.Repository, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		repo:      repo,
		retention: DefaultRetentionDays * 24 * time.Hour,
		log:       logrus.StandardLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Create plans a new journey for the namespace.
func (o *Orchestrator) Create(ctx context.Context, namespace string, params repository.JourneyParams) (*model.Journey, error) {
	return o.repo.CreateJourney(ctx, namespace, params)
}

// Journey returns the journey of the namespace.
// A journey owned by another namespace is reported as not found.
func (o *Orchestrator) Journey(ctx context.Context, namespace, id string) (*model.Journey, error) {
	journey, err := o.repo.Journey(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.OwnedBy(journey, namespace) {
		return nil, sherror.NotFound("journey")
	}
	return journey, nil
}

// UpdateStatus moves the journey to the given status.
// Completed and cancelled delegate to Complete and Cancel.
func (o *Orchestrator) UpdateStatus(ctx context.Context, id string, status model.JourneyStatus) (*model.Journey, error) {
	switch status {
	case model.JourneyCompleted:
		return o.Complete(ctx, id)
	case model.JourneyCancelled:
		return o.Cancel(ctx, id, "")
	}

	if _, err := model.ParseJourneyStatus(string(status)); err != nil {
		return nil, sherror.Validation("%s", err.Error())
	}

	return o.mutate(ctx, id, func(journey *model.Journey) error {
		journey.Status = status
		return nil
	})
}

// Complete closes the journey and schedules its auto-deletion when enabled.
func (o *Orchestrator) Complete(ctx context.Context, id string) (*model.Journey, error) {
	journey, err := o.mutate(ctx, id, func(journey *model.Journey) error {
		now := o.now().UTC()
		journey.Status = model.JourneyCompleted
		journey.CompletedAt = &now

		if journey.AutoDeleteAfterCompletion {
			date := now.Add(o.retention)
			journey.AutoDeleteDate = &date
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.log.WithField("journey_id", journey.ID).Info("journey completed")
	return journey, nil
}

// Cancel closes the journey with the given reason.
// A cancelled journey is never auto-deleted.
func (o *Orchestrator) Cancel(ctx context.Context, id, reason string) (*model.Journey, error) {
	journey, err := o.mutate(ctx, id, func(journey *model.Journey) error {
		sealed, err := o.repo.Seal(journey.UserID, reason)
		if err != nil {
			return err
		}

		now := o.now().UTC()
		journey.Status = model.JourneyCancelled
		journey.CancelledAt = &now
		journey.CancellationReasonEncrypted = sealed
		journey.AutoDeleteDate = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.log.WithField("journey_id", journey.ID).Info("journey cancelled")
	return journey, nil
}

// mutate applies fn to an open journey.
func (o *Orchestrator) mutate(ctx context.Context, id string, fn func(*model.Journey) error) (*model.Journey, error) {
	return o.repo.UpdateJourney(ctx, id, func(journey *model.Journey) error {
		if journey.Status.Terminal() {
			return sherror.NewWithTagCode(sherror.KindValidation, http.StatusConflict, "journey-closed", "The journey is "+string(journey.Status)+".")
		}
		return fn(journey)
	})
}
