package model

import (
	"time"

	"github.com/pkg/errors"
)

// A JourneyStatus is a state of the healthcare journey state machine.
type JourneyStatus string

// Journey states. Completed and Cancelled are terminal.
const (
	JourneyPlanning          JourneyStatus = "planning"
	JourneyConfirmed         JourneyStatus = "confirmed"
	JourneyTravelingOutbound JourneyStatus = "traveling_outbound"
	JourneyAtAppointment     JourneyStatus = "at_appointment"
	JourneyRecovering        JourneyStatus = "recovering"
	JourneyTravelingReturn   JourneyStatus = "traveling_return"
	JourneyCompleted         JourneyStatus = "completed"
	JourneyCancelled         JourneyStatus = "cancelled"
)

// JourneyStatuses lists the states in their nominal order.
var JourneyStatuses = []JourneyStatus{
	JourneyPlanning,
	JourneyConfirmed,
	JourneyTravelingOutbound,
	JourneyAtAppointment,
	JourneyRecovering,
	JourneyTravelingReturn,
	JourneyCompleted,
	JourneyCancelled,
}

// ParseJourneyStatus returns the JourneyStatus for the given string.
func ParseJourneyStatus(s string) (JourneyStatus, error) {
	for _, st := range JourneyStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", errors.Errorf("unknown journey status %q", s)
}

// Terminal returns true for states that end the journey.
func (s JourneyStatus) Terminal() bool {
	return s == JourneyCompleted || s == JourneyCancelled
}

// A JourneyLeg identifies one arrangement of a journey.
type JourneyLeg string

// Journey legs.
const (
	LegAppointment         JourneyLeg = "appointment"
	LegChildcare           JourneyLeg = "childcare"
	LegOutboundTransport   JourneyLeg = "outbound_transport"
	LegRecoveryHousing     JourneyLeg = "recovery_housing"
	LegAccompaniment       JourneyLeg = "accompaniment"
	LegReturnTransport     JourneyLeg = "return_transport"
	LegFinancialAssistance JourneyLeg = "financial_assistance"
)

// JourneyLegs lists every leg of a journey.
var JourneyLegs = []JourneyLeg{
	LegAppointment,
	LegChildcare,
	LegOutboundTransport,
	LegRecoveryHousing,
	LegAccompaniment,
	LegReturnTransport,
	LegFinancialAssistance,
}

// ParseJourneyLeg returns the JourneyLeg for the given string.
func ParseJourneyLeg(s string) (JourneyLeg, error) {
	for _, l := range JourneyLegs {
		if string(l) == s {
			return l, nil
		}
	}
	return "", errors.Errorf("unknown journey leg %q", s)
}

type (
	// An Arrangement is the state shared by every leg.
	Arrangement struct {
		Arranged       bool   `msgpack:"arranged"`
		ResourceID     string `msgpack:"resource_id,omitempty"`
		NotesEncrypted string `msgpack:"notes,omitempty"`
	}

	// An Appointment holds the clinic appointment details.
	Appointment struct {
		Arrangement       `msgpack:",inline"`
		DateEncrypted     string   `msgpack:"date,omitempty"`
		TimeEncrypted     string   `msgpack:"time,omitempty"`
		ServicesEncrypted []string `msgpack:"services,omitempty"`
	}

	// A Childcare holds the childcare needs.
	Childcare struct {
		Arrangement        `msgpack:",inline"`
		Needed             bool     `msgpack:"needed"`
		NumberOfChildren   int      `msgpack:"number_of_children"`
		ChildAgesEncrypted []string `msgpack:"child_ages,omitempty"`
		Type               string   `msgpack:"type,omitempty"`
		Duration           string   `msgpack:"duration,omitempty"`
	}

	// A Transport holds one travel direction.
	Transport struct {
		Arrangement       `msgpack:",inline"`
		LocationEncrypted string `msgpack:"location,omitempty"`
		DateEncrypted     string `msgpack:"date,omitempty"`
		Type              string `msgpack:"type,omitempty"`
	}

	// A Recovery holds the recovery housing needs.
	Recovery struct {
		Arrangement `msgpack:",inline"`
		Needed      bool   `msgpack:"needed"`
		Duration    string `msgpack:"duration,omitempty"`
	}

	// A Support holds the accompaniment needs.
	Support struct {
		Arrangement `msgpack:",inline"`
		Needed      bool `msgpack:"needed"`
	}

	// A Funding holds the financial assistance needs.
	Funding struct {
		Arrangement    `msgpack:",inline"`
		Needed         bool     `msgpack:"needed"`
		NeedsEncrypted []string `msgpack:"needs,omitempty"`
		ResourceIDs    []string `msgpack:"resource_ids,omitempty"`
	}
)

// A Journey is a multi-leg reproductive healthcare travel plan.
type Journey struct {
	Base `msgpack:",inline" storm:"inline"`

	UserID string        `msgpack:"user_id" storm:"index"`
	Status JourneyStatus `msgpack:"status"  storm:"index"`

	Appointment   Appointment `msgpack:"appointment"`
	Childcare     Childcare   `msgpack:"childcare"`
	Outbound      Transport   `msgpack:"outbound"`
	Recovery      Recovery    `msgpack:"recovery"`
	Accompaniment Support     `msgpack:"accompaniment"`
	Return        Transport   `msgpack:"return"`
	Financial     Funding     `msgpack:"financial"`

	// Privacy settings
	AutoDeleteAfterCompletion bool       `msgpack:"auto_delete_after_completion" storm:"index"`
	AutoDeleteDate            *time.Time `msgpack:"auto_delete_date,omitempty"`
	DisableLocationTracking   bool       `msgpack:"disable_location_tracking"`
	UseStealthMode            bool       `msgpack:"use_stealth_mode"`

	CompletedAt                 *time.Time `msgpack:"completed_at,omitempty"`
	CancelledAt                 *time.Time `msgpack:"cancelled_at,omitempty"`
	CancellationReasonEncrypted string     `msgpack:"cancellation_reason,omitempty"`
	NotesEncrypted              string     `msgpack:"notes,omitempty"`
}

// Owner implements Owned.
func (j *Journey) Owner() string {
	return j.UserID
}

// Arrangement returns the arrangement state of the given leg.
func (j *Journey) Arrangement(leg JourneyLeg) *Arrangement {
	switch leg {
	case LegAppointment:
		return &j.Appointment.Arrangement
	case LegChildcare:
		return &j.Childcare.Arrangement
	case LegOutboundTransport:
		return &j.Outbound.Arrangement
	case LegRecoveryHousing:
		return &j.Recovery.Arrangement
	case LegAccompaniment:
		return &j.Accompaniment.Arrangement
	case LegReturnTransport:
		return &j.Return.Arrangement
	case LegFinancialAssistance:
		return &j.Financial.Arrangement
	}
	return nil
}

// NeedsArrangements returns true while a needed leg is still not arranged.
func (j *Journey) NeedsArrangements() bool {
	return (j.Childcare.Needed && !j.Childcare.Arranged) ||
		(j.Recovery.Needed && !j.Recovery.Arranged) ||
		(j.Accompaniment.Needed && !j.Accompaniment.Arranged) ||
		(j.Financial.Needed && !j.Financial.Arranged) ||
		(j.Outbound.Type != "" && !j.Outbound.Arranged) ||
		(j.Return.Type != "" && !j.Return.Arranged)
}

// EligibleForAutoDelete is the auto-delete predicate evaluated against stored data.
func (j *Journey) EligibleForAutoDelete(now time.Time) bool {
	if j.Status != JourneyCompleted {
		return false
	}
	if !j.AutoDeleteAfterCompletion {
		return false
	}
	return j.AutoDeleteDate != nil && !j.AutoDeleteDate.After(now)
}
