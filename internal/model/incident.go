package model

import (
	"time"

	"github.com/pkg/errors"
)

// An IncidentType is the closed set of documented abuse categories.
type IncidentType string

// Incident types.
const (
	IncidentPhysical  IncidentType = "physical"
	IncidentVerbal    IncidentType = "verbal"
	IncidentEmotional IncidentType = "emotional"
	IncidentFinancial IncidentType = "financial"
	IncidentSexual    IncidentType = "sexual"
	IncidentStalking  IncidentType = "stalking"
	IncidentOther     IncidentType = "other"
)

var incidentTypes = map[IncidentType]bool{
	IncidentPhysical:  true,
	IncidentVerbal:    true,
	IncidentEmotional: true,
	IncidentFinancial: true,
	IncidentSexual:    true,
	IncidentStalking:  true,
	IncidentOther:     true,
}

// ParseIncidentType returns the IncidentType for the given string.
func ParseIncidentType(s string) (IncidentType, error) {
	t := IncidentType(s)
	if !incidentTypes[t] {
		return "", errors.Errorf("unknown incident type %q", s)
	}
	return t, nil
}

// An Incident represents a documented abuse incident.
// The *Encrypted fields only ever hold sealed values once persisted.
type Incident struct {
	Base `msgpack:",inline" storm:"inline"`

	UserID               string       `msgpack:"user_id"   storm:"index"`
	Timestamp            time.Time    `msgpack:"timestamp" storm:"index"`
	Type                 IncidentType `msgpack:"type"`
	DescriptionEncrypted string       `msgpack:"description"`
	WitnessesEncrypted   string       `msgpack:"witnesses,omitempty"`
	InjuriesEncrypted    string       `msgpack:"injuries,omitempty"`

	PoliceInvolved     bool   `msgpack:"police_involved"`
	PoliceReportNumber string `msgpack:"police_report_number,omitempty"`
	MedicalAttention   bool   `msgpack:"medical_attention"`

	Location  string   `msgpack:"location,omitempty"`
	Latitude  *float64 `msgpack:"latitude,omitempty"`
	Longitude *float64 `msgpack:"longitude,omitempty"`

	PerpetratorName         string `msgpack:"perpetrator_name,omitempty"`
	PerpetratorRelationship string `msgpack:"perpetrator_relationship,omitempty"`
}

// Owner implements Owned.
func (i *Incident) Owner() string {
	return i.UserID
}
