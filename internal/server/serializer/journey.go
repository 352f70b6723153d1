package serializer

import (
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/repository"
)

// Journey serializes the render of an opened healthcare journey.
func Journey(m *repository.PlainJourney) map[string]interface{} {
	return map[string]interface{}{
		"id":                 m.ID,
		"created_at":         m.CreatedAt,
		"updated_at":         m.UpdatedAt,
		"status":             m.Status,
		"needs_arrangements": m.NeedsArrangements(),
		"appointment": leg(m, model.LegAppointment, map[string]interface{}{
			"date":     m.AppointmentDate,
			"time":     m.AppointmentTime,
			"services": m.ServicesNeeded,
		}),
		"childcare": leg(m, model.LegChildcare, map[string]interface{}{
			"needed":             m.Childcare.Needed,
			"number_of_children": m.Childcare.NumberOfChildren,
			"child_ages":         m.ChildAges,
			"type":               m.Childcare.Type,
			"duration":           m.Childcare.Duration,
		}),
		"outbound_transport": leg(m, model.LegOutboundTransport, map[string]interface{}{
			"location": m.DepartureLocation,
			"date":     m.DepartureDate,
			"type":     m.Outbound.Type,
		}),
		"recovery_housing": leg(m, model.LegRecoveryHousing, map[string]interface{}{
			"needed":   m.Recovery.Needed,
			"duration": m.Recovery.Duration,
		}),
		"accompaniment": leg(m, model.LegAccompaniment, map[string]interface{}{
			"needed": m.Accompaniment.Needed,
		}),
		"return_transport": leg(m, model.LegReturnTransport, map[string]interface{}{
			"date": m.ReturnDate,
			"type": m.Return.Type,
		}),
		"financial_assistance": leg(m, model.LegFinancialAssistance, map[string]interface{}{
			"needed":       m.Financial.Needed,
			"needs":        m.FinancialNeeds,
			"resource_ids": m.Financial.ResourceIDs,
		}),
		"auto_delete_after_completion": m.AutoDeleteAfterCompletion,
		"auto_delete_date":             m.AutoDeleteDate,
		"disable_location_tracking":    m.DisableLocationTracking,
		"use_stealth_mode":             m.UseStealthMode,
		"completed_at":                 m.CompletedAt,
		"cancelled_at":                 m.CancelledAt,
		"cancellation_reason":          m.CancellationReason,
		"notes":                        m.Notes,
	}
}

func leg(m *repository.PlainJourney, l model.JourneyLeg, r map[string]interface{}) map[string]interface{} {
	a := m.Arrangement(l)
	r["arranged"] = a.Arranged
	r["resource_id"] = a.ResourceID
	r["notes"] = m.LegNotes[l]
	return r
}
