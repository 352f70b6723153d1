package lifecycle

import (
	"context"
	"time"

	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
)

// Day is the retention unit.
const Day = 24 * time.Hour

// Sweep deletes the completed journeys whose auto-delete date is reached.
// The eligibility is checked again on every stored record, a failing record is logged and skipped.
// It returns the number of deleted journeys.
func (e *Engine) Sweep(ctx context.Context, now time.Time) (int, error) {
	journeys, err := e.repo.JourneysForAutoDeletion(ctx)
	if err != nil {
		return 0, err
	}

	var deleted int
	for _, journey := range journeys {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		if !journey.EligibleForAutoDelete(now) {
			continue
		}

		if err := e.repo.DeleteJourney(ctx, journey.ID); err != nil {
			e.log.WithField("journey_id", journey.ID).WithError(err).Error("could not auto-delete journey")
			continue
		}
		deleted++
	}

	e.metrics.AddJourneysSwept(deleted)
	if deleted > 0 {
		e.log.WithField("count", deleted).Info("journeys auto-deleted")
	}
	return deleted, nil
}

// PendingDeletionCount returns the number of journeys the next sweep at now would delete.
func (e *Engine) PendingDeletionCount(ctx context.Context, now time.Time) (int, error) {
	ids, err := e.eligible(ctx, now)
	return len(ids), err
}

// ExpiringWithin returns the ids of the journeys auto-deleted within the given number of days.
func (e *Engine) ExpiringWithin(ctx context.Context, now time.Time, days int) ([]string, error) {
	if days < 0 {
		return nil, sherror.Validation("days must not be negative")
	}
	return e.eligible(ctx, now.Add(time.Duration(days)*Day))
}

// CancelAutoDelete keeps the journey beyond its auto-delete date.
func (e *Engine) CancelAutoDelete(ctx context.Context, id string) (*model.Journey, error) {
	return e.repo.UpdateJourney(ctx, id, func(journey *model.Journey) error {
		journey.AutoDeleteAfterCompletion = false
		journey.AutoDeleteDate = nil
		return nil
	})
}

// EnableAutoDelete schedules the deletion of the journey in the given number of days.
// The journey is deleted by the first sweep following its completion and that date.
func (e *Engine) EnableAutoDelete(ctx context.Context, id string, days int) (*model.Journey, error) {
	if days < 1 {
		return nil, sherror.Validation("days must be positive")
	}

	return e.repo.UpdateJourney(ctx, id, func(journey *model.Journey) error {
		date := e.now().Add(time.Duration(days) * Day).UTC()
		journey.AutoDeleteAfterCompletion = true
		journey.AutoDeleteDate = &date
		return nil
	})
}

func (e *Engine) eligible(ctx context.Context, at time.Time) ([]string, error) {
	journeys, err := e.repo.JourneysForAutoDeletion(ctx)
	if err != nil {
		return nil, err
	}

	ids := []string{}
	for _, journey := range journeys {
		if journey.EligibleForAutoDelete(at) {
			ids = append(ids, journey.ID)
		}
	}
	return ids, nil
}
