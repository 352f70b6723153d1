package repository

import (
	"context"
	"strings"
	"time"

	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/logger"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
)

type (
	// IncidentParams are the plaintext values of an incident report.
	IncidentParams struct {
		Timestamp          time.Time          `json:"timestamp"`
		Type               model.IncidentType `json:"incident_type"`
		Description        string             `json:"description"`
		Witnesses          string             `json:"witnesses"`
		Injuries           string             `json:"injuries"`
		PoliceInvolved     bool               `json:"police_involved"`
		PoliceReportNumber string             `json:"police_report_number"`
		MedicalAttention   bool               `json:"medical_attention"`

		Location  string   `json:"location"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`

		PerpetratorName         string `json:"perpetrator_name"`
		PerpetratorRelationship string `json:"perpetrator_relationship"`
	}

	// A PlainIncident is an opened incident report.
	PlainIncident struct {
		*model.Incident
		Description string
		Witnesses   string
		Injuries    string
	}
)

// SaveIncident seals and persists a new incident report.
// Coordinates are kept only when the profile has GPS enabled.
func (r *Repository) SaveIncident(ctx context.Context, namespace string, params IncidentParams) (*model.Incident, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	if strings.TrimSpace(params.Description) == "" {
		return nil, sherror.Validation("description must not be blank")
	}
	if _, err := model.ParseIncidentType(string(params.Type)); err != nil {
		return nil, sherror.Validation("%s", err.Error())
	}

	gps, err := r.gpsEnabled(namespace)
	if err != nil {
		return nil, err
	}

	s := r.sealer(namespace)
	incident := &model.Incident{
		UserID:                  namespace,
		Timestamp:               params.Timestamp,
		Type:                    params.Type,
		DescriptionEncrypted:    s.seal(params.Description),
		WitnessesEncrypted:      s.seal(params.Witnesses),
		InjuriesEncrypted:       s.seal(params.Injuries),
		PoliceInvolved:          params.PoliceInvolved,
		PoliceReportNumber:      params.PoliceReportNumber,
		MedicalAttention:        params.MedicalAttention,
		Location:                params.Location,
		PerpetratorName:         params.PerpetratorName,
		PerpetratorRelationship: params.PerpetratorRelationship,
	}
	if s.err != nil {
		return nil, s.err
	}

	if incident.Timestamp.IsZero() {
		incident.Timestamp = r.now()
	}
	if gps {
		incident.Latitude = params.Latitude
		incident.Longitude = params.Longitude
	}

	if err := r.save(incident, "persist incident"); err != nil {
		return nil, err
	}

	logger.Dump(r.log, incident)
	return incident, nil
}

// Incident returns the incident report as stored.
func (r *Repository) Incident(ctx context.Context, namespace, id string) (*model.Incident, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	incident, err := r.db.FindIncident(id, namespace)
	if err != nil {
		return nil, r.fail(err, "incident", "get incident")
	}
	return incident, nil
}

// Incidents returns the incident reports of the namespace as stored, newest first.
func (r *Repository) Incidents(ctx context.Context, namespace string) ([]*model.Incident, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	incidents, err := r.db.FindIncidentsByUserID(namespace)
	if err != nil {
		return nil, sherror.Storage(err, "list incidents")
	}
	return incidents, nil
}

// OpenIncident decrypts the sensitive fields of the given incident report.
func (r *Repository) OpenIncident(incident *model.Incident) (*PlainIncident, error) {
	o := r.opener(incident.UserID)
	plain := &PlainIncident{
		Incident:    incident,
		Description: o.open(incident.DescriptionEncrypted),
		Witnesses:   o.open(incident.WitnessesEncrypted),
		Injuries:    o.open(incident.InjuriesEncrypted),
	}
	if o.err != nil {
		return nil, o.err
	}
	return plain, nil
}

// DeleteIncident deletes the incident report.
func (r *Repository) DeleteIncident(ctx context.Context, namespace, id string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	return r.fail(r.db.DeleteIncident(id, namespace), "incident", "delete incident")
}

// WatchIncidents returns a live view of the incident reports of the namespace.
func (r *Repository) WatchIncidents(ctx context.Context, namespace string) (<-chan []*model.Incident, error) {
	return watch(ctx, r, database.TopicIncident, func() ([]*model.Incident, error) {
		return r.Incidents(ctx, namespace)
	})
}

func (r *Repository) gpsEnabled(namespace string) (bool, error) {
	profile, err := r.profile(namespace)
	if err != nil {
		if sherror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return profile.ViewFor(namespace).GPSEnabled, nil
}
