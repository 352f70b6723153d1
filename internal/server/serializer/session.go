package serializer

import "github.com/mdouchement/safehaven/internal/model"

// Session serializes the render of a session.
// The duress flag is never rendered.
func Session(m *model.Session) map[string]interface{} {
	return map[string]interface{}{
		"uuid":       m.ID,
		"created_at": m.CreatedAt,
		"expire_at":  m.ExpireAt,
		"user_agent": m.UserAgent,
	}
}

// Login serializes the render of a successful sign in.
func Login(m *model.Session) map[string]interface{} {
	return map[string]interface{}{
		"token":   m.AccessToken,
		"session": Session(m),
	}
}
