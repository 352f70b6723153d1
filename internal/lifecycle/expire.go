package lifecycle

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// ExpireRecords deletes the incidents, evidence and documents older than the
// retention window of the profiles having auto-delete enabled.
// A failing record or listing is logged and skipped. It returns the number of deleted records.
func (e *Engine) ExpireRecords(ctx context.Context, now time.Time) (int, error) {
	profiles, err := e.repo.ProfilesWithAutoDelete(ctx)
	if err != nil {
		return 0, err
	}

	var deleted int
	for _, profile := range profiles {
		if !profile.AutoDeleteEnabled || profile.AutoDeleteDays < 1 {
			continue
		}

		cutoff := now.Add(-time.Duration(profile.AutoDeleteDays) * Day)
		for _, namespace := range profile.Namespaces() {
			if err := ctx.Err(); err != nil {
				e.metrics.AddRecordsExpired(deleted)
				return deleted, err
			}
			deleted += e.expire(ctx, namespace, cutoff)
		}
	}

	e.metrics.AddRecordsExpired(deleted)
	if deleted > 0 {
		e.log.WithField("count", deleted).Info("records expired")
	}
	return deleted, nil
}

func (e *Engine) expire(ctx context.Context, namespace string, cutoff time.Time) int {
	var deleted int
	log := e.log.WithField("namespace", namespace)
	remove := func(log logrus.FieldLogger, fn func() error) {
		if err := fn(); err != nil {
			log.WithError(err).Error("could not expire record")
			return
		}
		deleted++
	}

	if incidents, err := e.repo.Incidents(ctx, namespace); err != nil {
		log.WithError(err).Error("could not list incidents to expire")
	} else {
		for _, incident := range incidents {
			if !incident.Timestamp.Before(cutoff) {
				continue
			}
			id := incident.ID
			remove(log.WithField("incident_id", id), func() error {
				return e.repo.DeleteIncident(ctx, namespace, id)
			})
		}
	}

	if evidences, err := e.repo.Evidences(ctx, namespace); err != nil {
		log.WithError(err).Error("could not list evidences to expire")
	} else {
		for _, evidence := range evidences {
			if !before(evidence.CreatedAt, cutoff) {
				continue
			}
			id := evidence.ID
			remove(log.WithField("evidence_id", id), func() error {
				return e.repo.DeleteEvidence(ctx, namespace, id)
			})
		}
	}

	if documents, err := e.repo.Documents(ctx, namespace); err != nil {
		log.WithError(err).Error("could not list documents to expire")
	} else {
		for _, document := range documents {
			if !before(document.CreatedAt, cutoff) {
				continue
			}
			id := document.ID
			remove(log.WithField("document_id", id), func() error {
				return e.repo.DeleteDocument(ctx, namespace, id)
			})
		}
	}

	return deleted
}

func before(t *time.Time, cutoff time.Time) bool {
	return t != nil && t.Before(cutoff)
}
