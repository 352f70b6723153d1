package database

import (
	"sort"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec/msgpack"
	"github.com/asdine/storm/v3/q"
	"github.com/gofrs/uuid"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/pkg/errors"
)

type strm struct {
	db  *storm.DB
	hub *hub
}

// StormCodec is the format used to store data in the database.
var StormCodec = storm.Codec(msgpack.Codec)

// models lists every persisted entity.
var models = []model.Model{
	&model.Profile{},
	&model.SurvivorProfile{},
	&model.Incident{},
	&model.Evidence{},
	&model.Document{},
	&model.Journey{},
	&model.Resource{},
	&model.Contact{},
	&model.SOSSession{},
	&model.Session{},
}

// StormInit initializes Storm database.
func StormInit(database string) error {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	for _, m := range models {
		if err := db.Init(m); err != nil {
			return errors.Wrapf(err, "could not init %s index", topicOf(m))
		}
	}
	return nil
}

// StormReIndex reindex Storm database.
func StormReIndex(database string) error {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	for _, m := range models {
		if err := db.ReIndex(m); err != nil {
			return errors.Wrapf(err, "could not ReIndex %s", topicOf(m))
		}
	}
	return nil
}

// StormOpen returns a new Storm database connection.
func StormOpen(database string) (Client, error) {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return nil, errors.Wrap(err, "could not get database connection")
	}

	return &strm{
		db:  db,
		hub: newHub(),
	}, nil
}

// Save inserts or updates the entry in database with the given model.
func (c *strm) Save(m model.Model) error {
	stamp(m)

	if err := c.db.Save(m); err != nil {
		return errors.Wrap(err, "could not save the model")
	}

	c.hub.publish(topicOf(m))
	return nil
}

// Delete deletes the entry in database with the given model.
func (c *strm) Delete(m model.Model) error {
	err := c.db.DeleteStruct(m)
	if err != nil && !c.IsNotFound(err) {
		return errors.Wrap(err, "could not delete the model")
	}

	c.hub.publish(topicOf(m))
	return nil
}

// Close the database.
func (c *strm) Close() error {
	c.hub.close()
	return c.db.Close()
}

// IsNotFound returns true if err is nil or a not found error.
func (c *strm) IsNotFound(err error) bool {
	return errors.Cause(err) == storm.ErrNotFound
}

// IsAlreadyExists returns true if err is an already exists error.
func (c *strm) IsAlreadyExists(err error) bool {
	return errors.Cause(err) == storm.ErrAlreadyExists
}

// Subscribe returns a channel notified after each committed change of the given topic.
func (c *strm) Subscribe(topic string) (<-chan struct{}, func()) {
	return c.hub.subscribe(topic)
}

// deleteBy deletes all the records matching the given matchers.
// Deleting nothing is not an error.
func (c *strm) deleteBy(m model.Model, matchers ...q.Matcher) error {
	err := c.db.Select(matchers...).Delete(m)
	if err != nil && !c.IsNotFound(err) {
		return errors.Wrapf(err, "could not delete %s", topicOf(m))
	}

	c.hub.publish(topicOf(m))
	return nil
}

func stamp(m model.Model) {
	m.Stamp(time.Now().UTC(), func() string {
		return uuid.Must(uuid.NewV4()).String()
	})
}

//
// Profile
//

// FindProfile returns the profile for the given user id.
func (c *strm) FindProfile(userID string) (*model.Profile, error) {
	var profile model.Profile
	if err := c.db.One("UserID", userID, &profile); err != nil {
		return nil, errors.Wrap(err, "find profile by user id")
	}
	return &profile, nil
}

// FindProfileByDuressUserID returns the profile owning the given duress namespace.
func (c *strm) FindProfileByDuressUserID(duressUserID string) (*model.Profile, error) {
	var profile model.Profile
	if err := c.db.One("DuressUserID", duressUserID, &profile); err != nil {
		return nil, errors.Wrap(err, "find profile by duress user id")
	}
	return &profile, nil
}

// FindProfilesWithAutoDelete returns all the profiles having record expiry enabled.
func (c *strm) FindProfilesWithAutoDelete() ([]*model.Profile, error) {
	profiles := make([]*model.Profile, 0)
	err := c.db.Select(q.Eq("AutoDeleteEnabled", true)).Find(&profiles)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find profiles with auto-delete")
	}
	return profiles, nil
}

// DeleteProfile deletes the profile of the given user id.
func (c *strm) DeleteProfile(userID string) error {
	return c.deleteBy(&model.Profile{}, q.Eq("UserID", userID))
}

//
// Survivor profile
//

// FindSurvivorProfile returns the survivor profile of the given namespace.
func (c *strm) FindSurvivorProfile(userID string) (*model.SurvivorProfile, error) {
	var profile model.SurvivorProfile
	if err := c.db.One("UserID", userID, &profile); err != nil {
		return nil, errors.Wrap(err, "find survivor profile by user id")
	}
	return &profile, nil
}

// DeleteSurvivorProfile deletes the survivor profile of the given namespace.
func (c *strm) DeleteSurvivorProfile(userID string) error {
	return c.deleteBy(&model.SurvivorProfile{}, q.Eq("UserID", userID))
}

//
// Incident
//

// FindIncident returns the incident for the given id and namespace.
func (c *strm) FindIncident(id, userID string) (*model.Incident, error) {
	var incident model.Incident
	err := c.db.Select(q.Eq("ID", id), q.Eq("UserID", userID)).First(&incident)
	if err != nil {
		return nil, errors.Wrap(err, "could not find incident")
	}
	return &incident, nil
}

// FindIncidentsByUserID returns the incidents of the given namespace, newest first.
func (c *strm) FindIncidentsByUserID(userID string) ([]*model.Incident, error) {
	incidents := make([]*model.Incident, 0)
	err := c.db.Select(q.Eq("UserID", userID)).OrderBy("Timestamp").Reverse().Find(&incidents)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find incidents")
	}
	return incidents, nil
}

// DeleteIncident deletes the incident for the given id and namespace.
func (c *strm) DeleteIncident(id, userID string) error {
	return c.deleteBy(&model.Incident{}, q.Eq("ID", id), q.Eq("UserID", userID))
}

// DeleteIncidentsByUserID deletes all the incidents of the given namespace.
func (c *strm) DeleteIncidentsByUserID(userID string) error {
	return c.deleteBy(&model.Incident{}, q.Eq("UserID", userID))
}

//
// Evidence
//

// FindEvidence returns the evidence for the given id and namespace.
func (c *strm) FindEvidence(id, userID string) (*model.Evidence, error) {
	var evidence model.Evidence
	err := c.db.Select(q.Eq("ID", id), q.Eq("UserID", userID)).First(&evidence)
	if err != nil {
		return nil, errors.Wrap(err, "could not find evidence")
	}
	return &evidence, nil
}

// FindEvidencesByUserID returns the evidences of the given namespace, newest first.
func (c *strm) FindEvidencesByUserID(userID string) ([]*model.Evidence, error) {
	evidences := make([]*model.Evidence, 0)
	err := c.db.Select(q.Eq("UserID", userID)).OrderBy("CreatedAt").Reverse().Find(&evidences)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find evidences")
	}
	return evidences, nil
}

// FindEvidencesByIncident returns the evidences attached to the given incident.
func (c *strm) FindEvidencesByIncident(incidentID, userID string) ([]*model.Evidence, error) {
	evidences := make([]*model.Evidence, 0)
	err := c.db.Select(q.Eq("IncidentID", incidentID), q.Eq("UserID", userID)).OrderBy("CreatedAt").Find(&evidences)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find evidences by incident")
	}
	return evidences, nil
}

// DeleteEvidence deletes the evidence for the given id and namespace.
func (c *strm) DeleteEvidence(id, userID string) error {
	return c.deleteBy(&model.Evidence{}, q.Eq("ID", id), q.Eq("UserID", userID))
}

//
// Document
//

// FindDocument returns the document for the given id and namespace.
func (c *strm) FindDocument(id, userID string) (*model.Document, error) {
	var document model.Document
	err := c.db.Select(q.Eq("ID", id), q.Eq("UserID", userID)).First(&document)
	if err != nil {
		return nil, errors.Wrap(err, "could not find document")
	}
	return &document, nil
}

// FindDocumentByHash returns the document of the namespace having the given content hash.
func (c *strm) FindDocumentByHash(hash, userID string) (*model.Document, error) {
	var document model.Document
	err := c.db.Select(q.Eq("SHA256Hash", hash), q.Eq("UserID", userID)).First(&document)
	if err != nil {
		return nil, errors.Wrap(err, "could not find document by hash")
	}
	return &document, nil
}

// FindDocumentsByUserID returns the documents of the given namespace, newest first.
func (c *strm) FindDocumentsByUserID(userID string) ([]*model.Document, error) {
	documents := make([]*model.Document, 0)
	err := c.db.Select(q.Eq("UserID", userID)).OrderBy("CreatedAt").Reverse().Find(&documents)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find documents")
	}
	return documents, nil
}

// DeleteDocument deletes the document for the given id and namespace.
func (c *strm) DeleteDocument(id, userID string) error {
	return c.deleteBy(&model.Document{}, q.Eq("ID", id), q.Eq("UserID", userID))
}

//
// Journey
//

// FindJourney returns the journey for the given id.
func (c *strm) FindJourney(id string) (*model.Journey, error) {
	var journey model.Journey
	if err := c.db.One("ID", id, &journey); err != nil {
		return nil, errors.Wrap(err, "could not find journey")
	}
	return &journey, nil
}

// FindJourneysByUserID returns the journeys of the given namespace, newest first.
func (c *strm) FindJourneysByUserID(userID string) ([]*model.Journey, error) {
	journeys := make([]*model.Journey, 0)
	err := c.db.Select(q.Eq("UserID", userID)).OrderBy("CreatedAt").Reverse().Find(&journeys)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find journeys")
	}
	return journeys, nil
}

// FindJourneysForAutoDeletion returns the completed journeys having auto-delete enabled.
func (c *strm) FindJourneysForAutoDeletion() ([]*model.Journey, error) {
	journeys := make([]*model.Journey, 0)
	err := c.db.Select(
		q.Eq("Status", model.JourneyCompleted),
		q.Eq("AutoDeleteAfterCompletion", true),
	).Find(&journeys)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find journeys for auto-deletion")
	}
	return journeys, nil
}

// DeleteJourney deletes the journey for the given id.
func (c *strm) DeleteJourney(id string) error {
	return c.deleteBy(&model.Journey{}, q.Eq("ID", id))
}

// DeleteJourneysByUserID deletes all the journeys of the given namespace.
func (c *strm) DeleteJourneysByUserID(userID string) error {
	return c.deleteBy(&model.Journey{}, q.Eq("UserID", userID))
}

//
// Resource
//

// FindResource returns the resource for the given id.
func (c *strm) FindResource(id string) (*model.Resource, error) {
	var resource model.Resource
	if err := c.db.One("ID", id, &resource); err != nil {
		return nil, errors.Wrap(err, "could not find resource")
	}
	return &resource, nil
}

func resourceQuery(params ResourceParams) []q.Matcher {
	query := []q.Matcher{}

	if params.ResourceType != "" {
		query = append(query, q.Eq("ResourceType", params.ResourceType))
	}

	if params.State != "" {
		query = append(query, q.Eq("State", params.State))
	}

	for _, flag := range params.Flags {
		query = append(query, q.Eq(flag, true))
	}

	if len(params.AnyFlags) > 0 {
		query = append(query, anyOf(params.AnyFlags...))
	}

	if params.Transportation {
		query = append(query, anyOf(TransportationFlags...))
	}

	return query
}

func anyOf(flags ...string) q.Matcher {
	matchers := make([]q.Matcher, 0, len(flags))
	for _, flag := range flags {
		matchers = append(matchers, q.Eq(flag, true))
	}
	return q.Or(matchers...)
}

// FindResourcesByParams returns all the matching resources for the given parameters.
func (c *strm) FindResourcesByParams(params ResourceParams) ([]*model.Resource, error) {
	query := c.db.Select(resourceQuery(params)...).OrderBy("OrganizationName")
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}

	resources := make([]*model.Resource, 0)
	err := query.Find(&resources)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find resources")
	}
	return resources, nil
}

// CountResources returns the number of resources matching the given parameters.
func (c *strm) CountResources(params ResourceParams) (int, error) {
	n, err := c.db.Select(resourceQuery(params)...).Count(&model.Resource{})
	if err != nil && !c.IsNotFound(err) {
		return 0, errors.Wrap(err, "could not count resources")
	}
	return n, nil
}

// FindResourceTypes returns the distinct resource types of the catalog.
func (c *strm) FindResourceTypes() ([]string, error) {
	resources := make([]*model.Resource, 0)
	if err := c.db.All(&resources); err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find resources")
	}

	seen := map[string]bool{}
	types := make([]string, 0)
	for _, r := range resources {
		if seen[r.ResourceType] {
			continue
		}
		seen[r.ResourceType] = true
		types = append(types, r.ResourceType)
	}
	sort.Strings(types)

	return types, nil
}

// ReplaceResources atomically replaces the whole catalog.
func (c *strm) ReplaceResources(resources []*model.Resource) error {
	tx, err := c.db.Begin(true)
	if err != nil {
		return errors.Wrap(err, "could not begin transaction")
	}
	defer tx.Rollback() // nolint:errcheck

	if err = tx.Select().Delete(&model.Resource{}); err != nil && !c.IsNotFound(err) {
		return errors.Wrap(err, "could not clear resources")
	}

	for _, r := range resources {
		r.ID = "" // The catalog is reference data, ids are reassigned on import.
		stamp(r)
		if err = tx.Save(r); err != nil {
			return errors.Wrapf(err, "could not save resource %s", r.OrganizationName)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "could not commit resources")
	}

	c.hub.publish(TopicResource)
	return nil
}

//
// Contact
//

// FindContact returns the contact for the given id and namespace.
func (c *strm) FindContact(id, userID string) (*model.Contact, error) {
	var contact model.Contact
	err := c.db.Select(q.Eq("ID", id), q.Eq("UserID", userID)).First(&contact)
	if err != nil {
		return nil, errors.Wrap(err, "could not find contact")
	}
	return &contact, nil
}

// FindContactsByUserID returns the contacts of the given namespace, primary contacts first.
func (c *strm) FindContactsByUserID(userID string) ([]*model.Contact, error) {
	contacts := make([]*model.Contact, 0)
	err := c.db.Select(q.Eq("UserID", userID)).OrderBy("Name").Find(&contacts)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find contacts")
	}

	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].IsPrimary && !contacts[j].IsPrimary
	})
	return contacts, nil
}

// DeleteContact deletes the contact for the given id and namespace.
func (c *strm) DeleteContact(id, userID string) error {
	return c.deleteBy(&model.Contact{}, q.Eq("ID", id), q.Eq("UserID", userID))
}

// DeleteContactsByUserID deletes all the contacts of the given namespace.
func (c *strm) DeleteContactsByUserID(userID string) error {
	return c.deleteBy(&model.Contact{}, q.Eq("UserID", userID))
}

//
// SOS
//

// FindActiveSOSSession returns the active SOS session of the given namespace.
func (c *strm) FindActiveSOSSession(userID string) (*model.SOSSession, error) {
	var session model.SOSSession
	err := c.db.Select(q.Eq("UserID", userID), q.Eq("Active", true)).First(&session)
	if err != nil {
		return nil, errors.Wrap(err, "could not find active SOS session")
	}
	return &session, nil
}

// FindSOSSessionsByUserID returns the SOS sessions of the given namespace, newest first.
func (c *strm) FindSOSSessionsByUserID(userID string) ([]*model.SOSSession, error) {
	sessions := make([]*model.SOSSession, 0)
	err := c.db.Select(q.Eq("UserID", userID)).OrderBy("ActivatedAt").Reverse().Find(&sessions)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find SOS sessions")
	}
	return sessions, nil
}

// DeleteSOSSessionsByUserID deletes all the SOS sessions of the given namespace.
func (c *strm) DeleteSOSSessionsByUserID(userID string) error {
	return c.deleteBy(&model.SOSSession{}, q.Eq("UserID", userID))
}

//
// Session
//

// FindSessionByAccessToken returns the session for the given access token.
func (c *strm) FindSessionByAccessToken(token string) (*model.Session, error) {
	var session model.Session
	if err := c.db.One("AccessToken", token, &session); err != nil {
		return nil, errors.Wrap(err, "find session by access token")
	}
	return &session, nil
}

// FindSessionsByUserID returns all the sessions for the given namespace.
func (c *strm) FindSessionsByUserID(userID string) ([]*model.Session, error) {
	sessions := make([]*model.Session, 0)
	err := c.db.Select(q.Eq("UserID", userID)).OrderBy("CreatedAt").Find(&sessions)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find sessions by user id")
	}
	return sessions, nil
}

// DeleteSessionsByUserID deletes all the sessions of the given namespace.
func (c *strm) DeleteSessionsByUserID(userID string) error {
	return c.deleteBy(&model.Session{}, q.Eq("UserID", userID))
}

// DeleteExpiredSessions deletes all the sessions expired at the current time.
func (c *strm) DeleteExpiredSessions() error {
	return c.deleteBy(&model.Session{}, q.Lt("ExpireAt", time.Now()))
}
