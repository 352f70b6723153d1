package repository

import (
	"context"
	"strings"

	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
)

type (
	// ContactParams are the plaintext values of an emergency contact.
	ContactParams struct {
		Name                string `json:"name"`
		PhoneNumber         string `json:"phone_number"`
		Relationship        string `json:"relationship"`
		IsPrimary           bool   `json:"is_primary"`
		CustomMessage       string `json:"custom_message"`
		SendLocationUpdates bool   `json:"send_location_updates"`
	}

	// A PlainContact is an opened emergency contact.
	PlainContact struct {
		*model.Contact
		CustomMessage string
	}
)

// SaveContact seals and persists an emergency contact.
// An empty id creates a new contact.
func (r *Repository) SaveContact(ctx context.Context, namespace, id string, params ContactParams) (*model.Contact, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	if strings.TrimSpace(params.Name) == "" {
		return nil, sherror.Validation("name must not be blank")
	}
	if strings.TrimSpace(params.PhoneNumber) == "" {
		return nil, sherror.Validation("phone number must not be blank")
	}

	contact := &model.Contact{UserID: namespace}
	if id != "" {
		var err error
		if contact, err = r.Contact(ctx, namespace, id); err != nil {
			return nil, err
		}

		if contact.PhoneNumber != params.PhoneNumber {
			// A new number has to be tested again.
			contact.IsVerified = false
			contact.LastTestedAt = nil
		}
	}

	message, err := r.Seal(namespace, params.CustomMessage)
	if err != nil {
		return nil, err
	}

	contact.Name = params.Name
	contact.PhoneNumber = params.PhoneNumber
	contact.Relationship = params.Relationship
	contact.IsPrimary = params.IsPrimary
	contact.CustomMessageEncrypted = message
	contact.SendLocationUpdates = params.SendLocationUpdates

	if err = r.save(contact, "persist contact"); err != nil {
		return nil, err
	}
	return contact, nil
}

// UpdateContact applies fn to the stored contact and persists the result.
func (r *Repository) UpdateContact(ctx context.Context, namespace, id string, fn func(*model.Contact)) (*model.Contact, error) {
	contact, err := r.Contact(ctx, namespace, id)
	if err != nil {
		return nil, err
	}

	fn(contact)

	if err = r.save(contact, "persist contact"); err != nil {
		return nil, err
	}
	return contact, nil
}

// Contact returns the emergency contact as stored.
func (r *Repository) Contact(ctx context.Context, namespace, id string) (*model.Contact, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	contact, err := r.db.FindContact(id, namespace)
	if err != nil {
		return nil, r.fail(err, "contact", "get contact")
	}
	return contact, nil
}

// Contacts returns the emergency contacts of the namespace, primary contacts first.
func (r *Repository) Contacts(ctx context.Context, namespace string) ([]*model.Contact, error) {
	if err := alive(ctx); err != nil {
		return nil, err
	}

	contacts, err := r.db.FindContactsByUserID(namespace)
	if err != nil {
		return nil, sherror.Storage(err, "list contacts")
	}
	return contacts, nil
}

// OpenContact decrypts the custom message of the given contact.
func (r *Repository) OpenContact(contact *model.Contact) (*PlainContact, error) {
	message, err := r.Open(contact.UserID, contact.CustomMessageEncrypted)
	if err != nil {
		return nil, err
	}
	return &PlainContact{Contact: contact, CustomMessage: message}, nil
}

// DeleteContact deletes the emergency contact.
func (r *Repository) DeleteContact(ctx context.Context, namespace, id string) error {
	if err := alive(ctx); err != nil {
		return err
	}
	return r.fail(r.db.DeleteContact(id, namespace), "contact", "delete contact")
}

// WatchContacts returns a live view of the emergency contacts of the namespace.
func (r *Repository) WatchContacts(ctx context.Context, namespace string) (<-chan []*model.Contact, error) {
	return watch(ctx, r, database.TopicContact, func() ([]*model.Contact, error) {
		return r.Contacts(ctx, namespace)
	})
}
