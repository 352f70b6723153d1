package repository

import (
	"context"
	"strconv"

	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/logger"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
)

type (
	// JourneyParams are the plaintext values of a new healthcare journey.
	JourneyParams struct {
		ClinicResourceID string   `json:"clinic_resource_id"`
		AppointmentDate  string   `json:"appointment_date"`
		AppointmentTime  string   `json:"appointment_time"`
		ServicesNeeded   []string `json:"services_needed"`
		AppointmentNotes string   `json:"appointment_notes"`

		NeedsChildcare    bool   `json:"needs_childcare"`
		NumberOfChildren  int    `json:"number_of_children"`
		ChildAges         []int  `json:"child_ages"`
		ChildcareType     string `json:"childcare_type"`
		ChildcareDuration string `json:"childcare_duration"`

		DepartureLocation     string `json:"departure_location"`
		DepartureDate         string `json:"departure_date"`
		OutboundTransportType string `json:"outbound_transport_type"`

		NeedsRecoveryHousing bool   `json:"needs_recovery_housing"`
		RecoveryDuration     string `json:"recovery_duration"`

		ReturnDate          string `json:"return_date"`
		ReturnTransportType string `json:"return_transport_type"`

		NeedsFinancialAssistance bool     `json:"needs_financial_assistance"`
		FinancialNeeds           []string `json:"financial_needs"`
		NeedsAccompaniment       bool     `json:"needs_accompaniment"`

		AutoDeleteAfterCompletion bool   `json:"auto_delete_after_completion"`
		UseStealthMode            bool   `json:"use_stealth_mode"`
		Notes                     string `json:"notes"`
	}

	// A PlainJourney is an opened healthcare journey.
	PlainJourney struct {
		*model.Journey
		AppointmentDate    string
		AppointmentTime    string
		ServicesNeeded     []string
		ChildAges          []int
		DepartureLocation  string
		DepartureDate      string
		ReturnDate         string
		FinancialNeeds     []string
		CancellationReason string
		Notes              string
		LegNotes           map[model.JourneyLeg]string
	}
)

// CreateJourney seals every free-text field and persists a new journey in planning state.
// Location tracking is always disabled on creation.
func (r *Repository) CreateJourney(ctx context.Context, namespace string, params JourneyParams) (*model.Journey, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	if params.NumberOfChildren < 0 {
		return nil, sherror.Validation("number of children must not be negative")
	}

	ages := make([]string, 0, len(params.ChildAges))
	for _, age := range params.ChildAges {
		ages = append(ages, strconv.Itoa(age))
	}

	s := r.sealer(namespace)
	journey := &model.Journey{
		UserID: namespace,
		Status: model.JourneyPlanning,
		Appointment: model.Appointment{
			Arrangement: model.Arrangement{
				ResourceID:     params.ClinicResourceID,
				NotesEncrypted: s.seal(params.AppointmentNotes),
			},
			DateEncrypted:     s.seal(params.AppointmentDate),
			TimeEncrypted:     s.seal(params.AppointmentTime),
			ServicesEncrypted: s.sealAll(params.ServicesNeeded),
		},
		Childcare: model.Childcare{
			Needed:             params.NeedsChildcare,
			NumberOfChildren:   params.NumberOfChildren,
			ChildAgesEncrypted: s.sealAll(ages),
			Type:               params.ChildcareType,
			Duration:           params.ChildcareDuration,
		},
		Outbound: model.Transport{
			LocationEncrypted: s.seal(params.DepartureLocation),
			DateEncrypted:     s.seal(params.DepartureDate),
			Type:              params.OutboundTransportType,
		},
		Recovery: model.Recovery{
			Needed:   params.NeedsRecoveryHousing,
			Duration: params.RecoveryDuration,
		},
		Accompaniment: model.Support{
			Needed: params.NeedsAccompaniment,
		},
		Return: model.Transport{
			DateEncrypted: s.seal(params.ReturnDate),
			Type:          params.ReturnTransportType,
		},
		Financial: model.Funding{
			Needed:         params.NeedsFinancialAssistance,
			NeedsEncrypted: s.sealAll(params.FinancialNeeds),
		},
		AutoDeleteAfterCompletion: params.AutoDeleteAfterCompletion,
		DisableLocationTracking:   true,
		UseStealthMode:            params.UseStealthMode,
		NotesEncrypted:            s.seal(params.Notes),
	}
	if s.err != nil {
		return nil, s.err
	}

	if err := r.save(journey, "persist journey"); err != nil {
		return nil, err
	}

	logger.Dump(r.log, journey)
	return journey, nil
}

// Journey returns the journey as stored.
func (r *Repository) Journey(ctx context.Context, id string) (*model.Journey, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	journey, err := r.db.FindJourney(id)
	if err != nil {
		return nil, r.fail(err, "journey", "get journey")
	}
	return journey, nil
}

// Journeys returns the journeys of the namespace, newest first.
func (r *Repository) Journeys(ctx context.Context, namespace string) ([]*model.Journey, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	journeys, err := r.db.FindJourneysByUserID(namespace)
	if err != nil {
		return nil, sherror.Storage(err, "list journeys")
	}
	return journeys, nil
}

// JourneysForAutoDeletion returns the completed journeys having auto-delete enabled.
func (r *Repository) JourneysForAutoDeletion(ctx context.Context) ([]*model.Journey, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	journeys, err := r.db.FindJourneysForAutoDeletion()
	if err != nil {
		return nil, sherror.Storage(err, "list journeys")
	}
	return journeys, nil
}

// UpdateJourney applies fn to the stored journey and persists the result.
// Sealed fields are stored as fn leaves them, use Seal for new sensitive values.
func (r *Repository) UpdateJourney(ctx context.Context, id string, fn func(*model.Journey) error) (*model.Journey, error) {
	r.journeys.Lock()
	defer r.journeys.Unlock()

	journey, err := r.Journey(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = fn(journey); err != nil {
		return nil, err
	}

	if err = r.save(journey, "persist journey"); err != nil {
		return nil, err
	}
	return journey, nil
}

// DeleteJourney deletes the journey. Deleting a missing journey is a no-op.
func (r *Repository) DeleteJourney(ctx context.Context, id string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	return r.fail(r.db.DeleteJourney(id), "journey", "delete journey")
}

// OpenJourney decrypts the sensitive fields of the given journey.
func (r *Repository) OpenJourney(journey *model.Journey) (*PlainJourney, error) {
	o := r.opener(journey.UserID)

	plain := &PlainJourney{
		Journey:            journey,
		AppointmentDate:    o.open(journey.Appointment.DateEncrypted),
		AppointmentTime:    o.open(journey.Appointment.TimeEncrypted),
		ServicesNeeded:     o.openAll(journey.Appointment.ServicesEncrypted),
		DepartureLocation:  o.open(journey.Outbound.LocationEncrypted),
		DepartureDate:      o.open(journey.Outbound.DateEncrypted),
		ReturnDate:         o.open(journey.Return.DateEncrypted),
		FinancialNeeds:     o.openAll(journey.Financial.NeedsEncrypted),
		CancellationReason: o.open(journey.CancellationReasonEncrypted),
		Notes:              o.open(journey.NotesEncrypted),
		LegNotes:           map[model.JourneyLeg]string{},
	}

	for _, age := range o.openAll(journey.Childcare.ChildAgesEncrypted) {
		n, err := strconv.Atoi(age)
		if err != nil {
			continue
		}
		plain.ChildAges = append(plain.ChildAges, n)
	}

	for _, leg := range model.JourneyLegs {
		if notes := o.open(journey.Arrangement(leg).NotesEncrypted); notes != "" {
			plain.LegNotes[leg] = notes
		}
	}

	if o.err != nil {
		return nil, o.err
	}
	return plain, nil
}

// WatchJourneys returns a live view of the journeys of the namespace.
func (r *Repository) WatchJourneys(ctx context.Context, namespace string) (<-chan []*model.Journey, error) {
	return watch(ctx, r, database.TopicJourney, func() ([]*model.Journey, error) {
		return r.Journeys(ctx, namespace)
	})
}
