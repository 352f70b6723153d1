// Package alert manages the emergency contacts and the SOS sessions.
package alert

import (
	"context"
	"time"

	"github.com/mdouchement/safehaven/internal/metrics"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/repository"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Stats summarizes the emergency contacts of a namespace.
type Stats struct {
	Total    int `json:"total"`
	Primary  int `json:"primary"`
	Verified int `json:"verified"`
	Untested int `json:"untested"`
}

// A Service manages the emergency contacts and the SOS sessions of a namespace.
type Service struct {
	repo       *repository.Repository
	dispatcher Dispatcher
	metrics    *metrics.Metrics
	log        logrus.FieldLogger
	now        func() time.Time
}

// An Option configures a Service.
type Option func(*Service)

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// WithClock sets the clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New returns a new Service.
func New(repo *repository.Repository, dispatcher Dispatcher, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		dispatcher: dispatcher,
		log:        logrus.StandardLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

//
// Contacts
//

// Contacts returns the emergency contacts of the namespace, primary contacts first.
func (s *Service) Contacts(ctx context.Context, namespace string) ([]*model.Contact, error) {
	return s.repo.Contacts(ctx, namespace)
}

// AddContact adds an emergency contact.
func (s *Service) AddContact(ctx context.Context, namespace string, params repository.ContactParams) (*model.Contact, error) {
	return s.repo.SaveContact(ctx, namespace, "", params)
}

// UpdateContact replaces the emergency contact details.
func (s *Service) UpdateContact(ctx context.Context, namespace, id string, params repository.ContactParams) (*model.Contact, error) {
	return s.repo.SaveContact(ctx, namespace, id, params)
}

// DeleteContact deletes the emergency contact.
func (s *Service) DeleteContact(ctx context.Context, namespace, id string) error {
	return s.repo.DeleteContact(ctx, namespace, id)
}

// TogglePrimary flips the primary flag of the contact.
func (s *Service) TogglePrimary(ctx context.Context, namespace, id string) (*model.Contact, error) {
	return s.repo.UpdateContact(ctx, namespace, id, func(c *model.Contact) {
		c.IsPrimary = !c.IsPrimary
	})
}

// MarkVerified marks the contact as verified.
func (s *Service) MarkVerified(ctx context.Context, namespace, id string) (*model.Contact, error) {
	return s.repo.UpdateContact(ctx, namespace, id, func(c *model.Contact) {
		c.IsVerified = true
	})
}

// TestContact sends a test alert to the contact, then marks it as verified.
func (s *Service) TestContact(ctx context.Context, namespace, id string) (*model.Contact, error) {
	contact, err := s.repo.Contact(ctx, namespace, id)
	if err != nil {
		return nil, err
	}

	recipient, err := s.recipient(contact)
	if err != nil {
		return nil, err
	}

	if err = s.dispatcher.SendTest(ctx, recipient); err != nil {
		return nil, errors.Wrap(err, "could not send test alert")
	}

	return s.repo.UpdateContact(ctx, namespace, id, func(c *model.Contact) {
		now := s.now().UTC()
		c.IsVerified = true
		c.LastTestedAt = &now
	})
}

// Stats returns the emergency contacts summary of the namespace.
func (s *Service) Stats(ctx context.Context, namespace string) (*Stats, error) {
	contacts, err := s.repo.Contacts(ctx, namespace)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(contacts)}
	for _, c := range contacts {
		if c.IsPrimary {
			stats.Primary++
		}
		if c.IsVerified {
			stats.Verified++
		}
		if c.LastTestedAt == nil {
			stats.Untested++
		}
	}
	return stats, nil
}

func (s *Service) recipient(contact *model.Contact) (Recipient, error) {
	plain, err := s.repo.OpenContact(contact)
	if err != nil {
		return Recipient{}, err
	}

	return Recipient{
		Name:          plain.Name,
		PhoneNumber:   plain.PhoneNumber,
		CustomMessage: plain.CustomMessage,
		SendLocation:  plain.SendLocationUpdates,
	}, nil
}

func (s *Service) recipients(ctx context.Context, namespace string) ([]Recipient, error) {
	contacts, err := s.repo.Contacts(ctx, namespace)
	if err != nil {
		return nil, err
	}

	recipients := make([]Recipient, 0, len(contacts))
	for _, contact := range contacts {
		recipient, err := s.recipient(contact)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, recipient)
	}
	return recipients, nil
}

//
// SOS
//

// Active returns the active SOS session of the namespace.
func (s *Service) Active(ctx context.Context, namespace string) (*model.SOSSession, error) {
	return s.repo.ActiveSOSSession(ctx, namespace)
}

// History returns the SOS sessions of the namespace, newest first.
func (s *Service) History(ctx context.Context, namespace string) ([]*model.SOSSession, error) {
	return s.repo.SOSSessions(ctx, namespace)
}

// Activate starts an SOS session and alerts every emergency contact.
// At least one contact is required. An already active session is returned as is.
// The session stays active when the dispatch fails.
func (s *Service) Activate(ctx context.Context, namespace, method string, includeLocation bool) (*model.SOSSession, error) {
	session, err := s.repo.ActiveSOSSession(ctx, namespace)
	if err == nil {
		return session, nil
	}
	if !sherror.IsNotFound(err) {
		return nil, err
	}

	recipients, err := s.recipients(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, sherror.Validation("at least one emergency contact is required")
	}

	session = &model.SOSSession{
		UserID:           namespace,
		Active:           true,
		ActivationMethod: method,
		IncludeLocation:  includeLocation,
		ActivatedAt:      s.now().UTC(),
	}
	if err = s.repo.SaveSOSSession(ctx, session); err != nil {
		return nil, err
	}
	s.metrics.IncrementSOSActivation()

	if err = s.dispatcher.SendSOS(ctx, recipients, includeLocation); err != nil {
		return session, errors.Wrap(err, "could not send SOS alert")
	}
	return session, nil
}

// Deactivate ends the active SOS session, optionally sending an all-clear to the contacts.
func (s *Service) Deactivate(ctx context.Context, namespace string, allClear bool) (*model.SOSSession, error) {
	session, err := s.deactivate(ctx, namespace, model.SOSMethodManual, false)
	if err != nil || !allClear {
		return session, err
	}

	recipients, err := s.recipients(ctx, namespace)
	if err != nil {
		return session, err
	}
	return session, errors.Wrap(s.dispatcher.SendAllClear(ctx, recipients), "could not send all-clear")
}

// FalseAlarm ends the active SOS session and tells the contacts it was a false alarm.
func (s *Service) FalseAlarm(ctx context.Context, namespace string) (*model.SOSSession, error) {
	session, err := s.deactivate(ctx, namespace, model.SOSMethodFalseAlarm, true)
	if err != nil {
		return nil, err
	}

	recipients, err := s.recipients(ctx, namespace)
	if err != nil {
		return session, err
	}
	return session, errors.Wrap(s.dispatcher.SendFalseAlarm(ctx, recipients), "could not send false alarm")
}

// OnDuress silently alerts the contacts of the real namespace when the profile asks for it.
// Nothing is reported to the caller so the duress session looks like any other.
func (s *Service) OnDuress(ctx context.Context, profile *model.Profile) {
	if profile == nil || !profile.SilentAlertOnDuress {
		return
	}

	if _, err := s.Activate(ctx, profile.UserID, model.SOSMethodDuress, false); err != nil {
		s.log.WithError(err).Debug("could not activate SOS")
	}
}

func (s *Service) deactivate(ctx context.Context, namespace, method string, falseAlarm bool) (*model.SOSSession, error) {
	session, err := s.repo.ActiveSOSSession(ctx, namespace)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session.Active = false
	session.DeactivationMethod = method
	session.DeactivatedAt = &now
	session.FalseAlarm = falseAlarm

	if err = s.repo.SaveSOSSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
