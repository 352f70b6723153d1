package serializer

import "github.com/mdouchement/safehaven/internal/model"

// Profile serializes the render of a profile.
// The user id is the one used to sign in, hashes and the duress identity are never rendered.
func Profile(m *model.Profile) map[string]interface{} {
	return map[string]interface{}{
		"user_id":    m.UserID,
		"created_at": m.CreatedAt,
		"settings": map[string]interface{}{
			"gps_enabled":            m.GPSEnabled,
			"stealth_mode_enabled":   m.StealthModeEnabled,
			"auto_delete_enabled":    m.AutoDeleteEnabled,
			"auto_delete_days":       m.AutoDeleteDays,
			"silent_alert_on_duress": m.SilentAlertOnDuress,
		},
	}
}
