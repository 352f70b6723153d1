package model

import (
	"time"
)

type (
	// A Model defines an object that can be stored in database.
	Model interface {
		// GetID returns the model's ID.
		GetID() string
		// Stamp refreshes the model's timestamps.
		// A model without ID is considered new and receives one from newID.
		Stamp(t time.Time, newID func() string)
	}

	// An Owned model belongs to a single namespace (real or duress user id).
	Owned interface {
		Model
		Owner() string
	}

	// A Base contains the default model fields.
	Base struct {
		ID        string     `json:"id"         msgpack:"id"         storm:"id"`
		CreatedAt *time.Time `json:"created_at" msgpack:"created_at" storm:"index"`
		UpdatedAt *time.Time `json:"updated_at" msgpack:"updated_at" storm:"index"`
	}
)

// GetID returns the model's ID.
func (m *Base) GetID() string {
	return m.ID
}

// Stamp implements Model.
func (m *Base) Stamp(t time.Time, newID func() string) {
	updated := t
	m.UpdatedAt = &updated

	if m.ID == "" {
		m.ID = newID()
		created := t
		m.CreatedAt = &created
	}
}

// OwnedBy returns true if m belongs to the given namespace.
// An empty namespace owns nothing.
func OwnedBy(m Owned, namespace string) bool {
	return namespace != "" && m.Owner() == namespace
}
