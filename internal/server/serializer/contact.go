package serializer

import (
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/repository"
)

// Contact serializes the render of an opened emergency contact.
func Contact(m *repository.PlainContact) map[string]interface{} {
	return map[string]interface{}{
		"id":                    m.ID,
		"name":                  m.Name,
		"phone_number":          m.PhoneNumber,
		"relationship":          m.Relationship,
		"is_primary":            m.IsPrimary,
		"custom_message":        m.CustomMessage,
		"is_verified":           m.IsVerified,
		"last_tested_at":        m.LastTestedAt,
		"send_location_updates": m.SendLocationUpdates,
	}
}

// SOSSession serializes the render of an SOS session.
func SOSSession(m *model.SOSSession) map[string]interface{} {
	return map[string]interface{}{
		"id":                  m.ID,
		"active":              m.Active,
		"activation_method":   m.ActivationMethod,
		"deactivation_method": m.DeactivationMethod,
		"include_location":    m.IncludeLocation,
		"false_alarm":         m.FalseAlarm,
		"activated_at":        m.ActivatedAt,
		"deactivated_at":      m.DeactivatedAt,
	}
}
