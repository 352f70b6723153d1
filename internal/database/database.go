package database

import (
	"github.com/mdouchement/safehaven/internal/model"
)

// TransportationFlags are the Resource fields satisfying a transportation need.
var TransportationFlags = []string{
	"ProvidesTransportation",
	"OffersVirtualServices",
	"GasVoucherProgram",
	"GreyhoundHomeFreePartner",
}

type (
	// A Client can interacts with the database.
	Client interface {
		// Save inserts or updates the entry in database with the given model.
		Save(m model.Model) error
		// Delete deletes the entry in database with the given model.
		Delete(m model.Model) error
		// Close the database.
		Close() error
		// IsNotFound returns true if err is a not found error.
		IsNotFound(err error) bool
		// IsAlreadyExists returns true if err is an already exists error.
		IsAlreadyExists(err error) bool
		// Subscribe returns a channel notified after each committed change of the given topic.
		// Calling the returned function releases the subscription.
		Subscribe(topic string) (<-chan struct{}, func())

		ProfileInteraction
		SurvivorInteraction
		IncidentInteraction
		EvidenceInteraction
		DocumentInteraction
		JourneyInteraction
		ResourceInteraction
		ContactInteraction
		SOSInteraction
		SessionInteraction
	}

	// A ProfileInteraction defines all the methods used to interact with a profile record.
	ProfileInteraction interface {
		// FindProfile returns the profile for the given user id.
		FindProfile(userID string) (*model.Profile, error)
		// FindProfileByDuressUserID returns the profile owning the given duress namespace.
		FindProfileByDuressUserID(duressUserID string) (*model.Profile, error)
		// FindProfilesWithAutoDelete returns all the profiles having record expiry enabled.
		FindProfilesWithAutoDelete() ([]*model.Profile, error)
		// DeleteProfile deletes the profile of the given user id.
		DeleteProfile(userID string) error
	}

	// A SurvivorInteraction defines all the methods used to interact with a survivor profile record.
	SurvivorInteraction interface {
		// FindSurvivorProfile returns the survivor profile of the given namespace.
		FindSurvivorProfile(userID string) (*model.SurvivorProfile, error)
		// DeleteSurvivorProfile deletes the survivor profile of the given namespace.
		DeleteSurvivorProfile(userID string) error
	}

	// An IncidentInteraction defines all the methods used to interact with incident records.
	IncidentInteraction interface {
		// FindIncident returns the incident for the given id and namespace.
		FindIncident(id, userID string) (*model.Incident, error)
		// FindIncidentsByUserID returns the incidents of the given namespace, newest first.
		FindIncidentsByUserID(userID string) ([]*model.Incident, error)
		// DeleteIncident deletes the incident for the given id and namespace.
		DeleteIncident(id, userID string) error
		// DeleteIncidentsByUserID deletes all the incidents of the given namespace.
		DeleteIncidentsByUserID(userID string) error
	}

	// An EvidenceInteraction defines all the methods used to interact with evidence records.
	EvidenceInteraction interface {
		// FindEvidence returns the evidence for the given id and namespace.
		FindEvidence(id, userID string) (*model.Evidence, error)
		// FindEvidencesByUserID returns the evidences of the given namespace, newest first.
		FindEvidencesByUserID(userID string) ([]*model.Evidence, error)
		// FindEvidencesByIncident returns the evidences attached to the given incident.
		FindEvidencesByIncident(incidentID, userID string) ([]*model.Evidence, error)
		// DeleteEvidence deletes the evidence for the given id and namespace.
		DeleteEvidence(id, userID string) error
	}

	// A DocumentInteraction defines all the methods used to interact with document records.
	DocumentInteraction interface {
		// FindDocument returns the document for the given id and namespace.
		FindDocument(id, userID string) (*model.Document, error)
		// FindDocumentByHash returns the document of the namespace having the given content hash.
		FindDocumentByHash(hash, userID string) (*model.Document, error)
		// FindDocumentsByUserID returns the documents of the given namespace, newest first.
		FindDocumentsByUserID(userID string) ([]*model.Document, error)
		// DeleteDocument deletes the document for the given id and namespace.
		DeleteDocument(id, userID string) error
	}

	// A JourneyInteraction defines all the methods used to interact with journey records.
	JourneyInteraction interface {
		// FindJourney returns the journey for the given id.
		FindJourney(id string) (*model.Journey, error)
		// FindJourneysByUserID returns the journeys of the given namespace, newest first.
		FindJourneysByUserID(userID string) ([]*model.Journey, error)
		// FindJourneysForAutoDeletion returns the completed journeys having auto-delete enabled.
		// Callers still have to check the deletion date.
		FindJourneysForAutoDeletion() ([]*model.Journey, error)
		// DeleteJourney deletes the journey for the given id.
		DeleteJourney(id string) error
		// DeleteJourneysByUserID deletes all the journeys of the given namespace.
		DeleteJourneysByUserID(userID string) error
	}

	// A ResourceInteraction defines all the methods used to interact with the resource catalog.
	ResourceInteraction interface {
		// FindResource returns the resource for the given id.
		FindResource(id string) (*model.Resource, error)
		// FindResourcesByParams returns all the matching resources for the given parameters.
		FindResourcesByParams(params ResourceParams) ([]*model.Resource, error)
		// FindResourceTypes returns the distinct resource types of the catalog.
		FindResourceTypes() ([]string, error)
		// CountResources returns the number of resources matching the given parameters.
		CountResources(params ResourceParams) (int, error)
		// ReplaceResources atomically replaces the whole catalog.
		ReplaceResources(resources []*model.Resource) error
	}

	// A ContactInteraction defines all the methods used to interact with emergency contact records.
	ContactInteraction interface {
		// FindContact returns the contact for the given id and namespace.
		FindContact(id, userID string) (*model.Contact, error)
		// FindContactsByUserID returns the contacts of the given namespace, primary contacts first.
		FindContactsByUserID(userID string) ([]*model.Contact, error)
		// DeleteContact deletes the contact for the given id and namespace.
		DeleteContact(id, userID string) error
		// DeleteContactsByUserID deletes all the contacts of the given namespace.
		DeleteContactsByUserID(userID string) error
	}

	// A SOSInteraction defines all the methods used to interact with SOS session records.
	SOSInteraction interface {
		// FindActiveSOSSession returns the active SOS session of the given namespace.
		FindActiveSOSSession(userID string) (*model.SOSSession, error)
		// FindSOSSessionsByUserID returns the SOS sessions of the given namespace, newest first.
		FindSOSSessionsByUserID(userID string) ([]*model.SOSSession, error)
		// DeleteSOSSessionsByUserID deletes all the SOS sessions of the given namespace.
		DeleteSOSSessionsByUserID(userID string) error
	}

	// A SessionInteraction defines all the methods used to interact with a session record.
	SessionInteraction interface {
		// FindSessionByAccessToken returns the session for the given access token.
		FindSessionByAccessToken(token string) (*model.Session, error)
		// FindSessionsByUserID returns all sessions for the given namespace.
		FindSessionsByUserID(userID string) ([]*model.Session, error)
		// DeleteSessionsByUserID deletes all the sessions of the given namespace.
		DeleteSessionsByUserID(userID string) error
		// DeleteExpiredSessions deletes all the sessions expired at the current time.
		DeleteExpiredSessions() error
	}
)

// A ResourceParams is a flag-combination query over the resource catalog.
type ResourceParams struct {
	// ResourceType filters on the resource type when not empty.
	ResourceType string
	// State filters on the state when not empty.
	State string
	// Flags are the names of the Resource boolean fields that must be true.
	Flags []string
	// AnyFlags are the names of the Resource boolean fields of which at least one must be true.
	AnyFlags []string
	// Transportation requires at least one transportation option.
	Transportation bool
	// Limit caps the result, 0 means no limit.
	Limit int
}
