package repository

import (
	"context"

	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/pkg/errors"
)

// Data categories of a namespace, in purge order.
const (
	CategoryIncidents       = "incidents"
	CategoryEvidence        = "evidence"
	CategoryDocuments       = "documents"
	CategoryJourneys        = "journeys"
	CategoryContacts        = "contacts"
	CategorySOSSessions     = "sos_sessions"
	CategorySurvivorProfile = "survivor_profile"
)

// Categories lists every data category of a namespace.
var Categories = []string{
	CategoryIncidents,
	CategoryEvidence,
	CategoryDocuments,
	CategoryJourneys,
	CategoryContacts,
	CategorySOSSessions,
	CategorySurvivorProfile,
}

// Purge irreversibly deletes every record of the given category in the namespace.
// Blobs and records are all attempted, the first failure is returned.
func (r *Repository) Purge(ctx context.Context, namespace, category string) error {
	if err := alive(ctx); err != nil {
		return err
	}

	var err error
	switch category {
	case CategoryIncidents:
		err = r.db.DeleteIncidentsByUserID(namespace)
	case CategoryEvidence:
		err = r.purgeEvidence(namespace)
	case CategoryDocuments:
		err = r.purgeDocuments(namespace)
	case CategoryJourneys:
		err = r.db.DeleteJourneysByUserID(namespace)
	case CategoryContacts:
		err = r.db.DeleteContactsByUserID(namespace)
	case CategorySOSSessions:
		err = r.db.DeleteSOSSessionsByUserID(namespace)
	case CategorySurvivorProfile:
		err = r.db.DeleteSurvivorProfile(namespace)
	default:
		return errors.Errorf("unknown data category %q", category)
	}

	if err != nil && !sherror.IsStorage(err) {
		err = sherror.Storage(err, "purge "+category)
	}
	return err
}

// DeleteProfile irreversibly deletes the profile of the given user id.
func (r *Repository) DeleteProfile(ctx context.Context, userID string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	return r.fail(r.db.DeleteProfile(userID), "profile", "delete profile")
}

func (r *Repository) purgeEvidence(namespace string) error {
	evidences, err := r.db.FindEvidencesByUserID(namespace)
	if err != nil {
		return err
	}

	var first error
	for _, evidence := range evidences {
		if err := r.vault.Remove(evidence.FileRef); err != nil && first == nil {
			first = err
		}
		if err := r.db.DeleteEvidence(evidence.ID, namespace); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (r *Repository) purgeDocuments(namespace string) error {
	documents, err := r.db.FindDocumentsByUserID(namespace)
	if err != nil {
		return err
	}

	var first error
	for _, document := range documents {
		if err := r.vault.Remove(document.FileRef); err != nil && first == nil {
			first = err
		}
		if err := r.db.DeleteDocument(document.ID, namespace); err != nil && first == nil {
			first = err
		}
	}
	return first
}
