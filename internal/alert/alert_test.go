package alert_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mdouchement/safehaven/internal/alert"
	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/logger"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/repository"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/mdouchement/safehaven/pkg/fieldcrypt"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const namespace = "alice"

type dispatcher struct {
	mock.Mock
}

func (d *dispatcher) SendTest(ctx context.Context, recipient alert.Recipient) error {
	return d.Called(recipient).Error(0)
}

func (d *dispatcher) SendSOS(ctx context.Context, recipients []alert.Recipient, includeLocation bool) error {
	return d.Called(recipients, includeLocation).Error(0)
}

func (d *dispatcher) SendAllClear(ctx context.Context, recipients []alert.Recipient) error {
	return d.Called(recipients).Error(0)
}

func (d *dispatcher) SendFalseAlarm(ctx context.Context, recipients []alert.Recipient) error {
	return d.Called(recipients).Error(0)
}

type AlertSuite struct {
	suite.Suite
	ctx        context.Context
	now        time.Time
	db         database.Client
	dispatcher *dispatcher
	service    *alert.Service
}

func TestAlert(t *testing.T) {
	suite.Run(t, new(AlertSuite))
}

func (s *AlertSuite) SetupTest() {
	dir := s.T().TempDir()

	db, err := database.StormOpen(filepath.Join(dir, "safehaven.db"))
	s.Require().NoError(err)
	s.db = db

	keyring, err := fieldcrypt.NewKeyring([]byte("0123456789abcdef0123456789abcdef"))
	s.Require().NoError(err)
	vault, err := repository.NewVault(filepath.Join(dir, "vault"))
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.now = time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	s.dispatcher = &dispatcher{}

	repo := repository.New(db, keyring, vault, repository.WithLogger(logger.Discard()))
	s.service = alert.New(repo, s.dispatcher,
		alert.WithLogger(logger.Discard()),
		alert.WithClock(func() time.Time { return s.now }),
	)
}

func (s *AlertSuite) TearDownTest() {
	s.db.Close()
	s.dispatcher.AssertExpectations(s.T())
}

func (s *AlertSuite) addContact(name string, primary bool) *model.Contact {
	contact, err := s.service.AddContact(s.ctx, namespace, repository.ContactParams{
		Name:          name,
		PhoneNumber:   "+1555" + name,
		IsPrimary:     primary,
		CustomMessage: "I need help, " + name,
	})
	s.Require().NoError(err)
	return contact
}

func (s *AlertSuite) TestContacts() {
	s.addContact("zoe", false)
	sam := s.addContact("sam", false)

	contact, err := s.service.TogglePrimary(s.ctx, namespace, sam.ID)
	s.Require().NoError(err)
	s.True(contact.IsPrimary)

	contact, err = s.service.MarkVerified(s.ctx, namespace, sam.ID)
	s.Require().NoError(err)
	s.True(contact.IsVerified)
	s.Nil(contact.LastTestedAt)

	contacts, err := s.service.Contacts(s.ctx, namespace)
	s.Require().NoError(err)
	s.Require().Len(contacts, 2)
	s.Equal("sam", contacts[0].Name)

	stats, err := s.service.Stats(s.ctx, namespace)
	s.Require().NoError(err)
	s.Equal(&alert.Stats{Total: 2, Primary: 1, Verified: 1, Untested: 2}, stats)

	s.Require().NoError(s.service.DeleteContact(s.ctx, namespace, sam.ID))
	contacts, err = s.service.Contacts(s.ctx, namespace)
	s.Require().NoError(err)
	s.Len(contacts, 1)

	_, err = s.service.TogglePrimary(s.ctx, namespace, sam.ID)
	s.True(sherror.IsNotFound(err))
}

func (s *AlertSuite) TestTestContact() {
	sam := s.addContact("sam", true)

	s.dispatcher.On("SendTest", alert.Recipient{
		Name:          "sam",
		PhoneNumber:   "+1555sam",
		CustomMessage: "I need help, sam",
	}).Return(nil).Once()

	contact, err := s.service.TestContact(s.ctx, namespace, sam.ID)
	s.Require().NoError(err)
	s.True(contact.IsVerified)
	s.Equal(s.now, *contact.LastTestedAt)
}

func (s *AlertSuite) TestTestContact_DispatchFailure() {
	sam := s.addContact("sam", true)
	s.dispatcher.On("SendTest", mock.Anything).Return(errors.New("no signal")).Once()

	_, err := s.service.TestContact(s.ctx, namespace, sam.ID)
	s.Error(err)

	stats, err := s.service.Stats(s.ctx, namespace)
	s.Require().NoError(err)
	s.Equal(0, stats.Verified)
}

func (s *AlertSuite) TestActivate_RequiresContact() {
	_, err := s.service.Activate(s.ctx, namespace, model.SOSMethodButton, true)
	s.True(sherror.IsValidation(err))

	_, err = s.service.Active(s.ctx, namespace)
	s.True(sherror.IsNotFound(err))
}

func (s *AlertSuite) TestSOSLifecycle() {
	s.addContact("sam", true)
	s.dispatcher.On("SendSOS", mock.MatchedBy(func(r []alert.Recipient) bool { return len(r) == 1 }), true).Return(nil).Once()
	s.dispatcher.On("SendAllClear", mock.Anything).Return(nil).Once()

	session, err := s.service.Activate(s.ctx, namespace, model.SOSMethodShake, true)
	s.Require().NoError(err)
	s.True(session.Active)
	s.Equal(model.SOSMethodShake, session.ActivationMethod)

	// Already active.
	again, err := s.service.Activate(s.ctx, namespace, model.SOSMethodButton, true)
	s.Require().NoError(err)
	s.Equal(session.ID, again.ID)

	session, err = s.service.Deactivate(s.ctx, namespace, true)
	s.Require().NoError(err)
	s.False(session.Active)
	s.Equal(model.SOSMethodManual, session.DeactivationMethod)
	s.Equal(s.now, *session.DeactivatedAt)

	_, err = s.service.Deactivate(s.ctx, namespace, false)
	s.True(sherror.IsNotFound(err))

	history, err := s.service.History(s.ctx, namespace)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *AlertSuite) TestFalseAlarm() {
	s.addContact("sam", true)
	s.dispatcher.On("SendSOS", mock.Anything, false).Return(nil).Once()
	s.dispatcher.On("SendFalseAlarm", mock.Anything).Return(nil).Once()

	_, err := s.service.Activate(s.ctx, namespace, model.SOSMethodButton, false)
	s.Require().NoError(err)

	session, err := s.service.FalseAlarm(s.ctx, namespace)
	s.Require().NoError(err)
	s.True(session.FalseAlarm)
	s.Equal(model.SOSMethodFalseAlarm, session.DeactivationMethod)
}

func (s *AlertSuite) TestActivate_DispatchFailureKeepsSession() {
	s.addContact("sam", true)
	s.dispatcher.On("SendSOS", mock.Anything, false).Return(errors.New("no signal")).Once()

	session, err := s.service.Activate(s.ctx, namespace, model.SOSMethodButton, false)
	s.Error(err)
	s.Require().NotNil(session)

	active, err := s.service.Active(s.ctx, namespace)
	s.Require().NoError(err)
	s.Equal(session.ID, active.ID)
}

func (s *AlertSuite) TestOnDuress() {
	s.addContact("sam", true)
	s.dispatcher.On("SendSOS", mock.Anything, false).Return(nil).Once()

	profile := model.NewProfile(namespace)
	s.service.OnDuress(s.ctx, profile)
	_, err := s.service.Active(s.ctx, namespace)
	s.True(sherror.IsNotFound(err))

	profile.SilentAlertOnDuress = true
	s.service.OnDuress(s.ctx, profile)

	session, err := s.service.Active(s.ctx, namespace)
	s.Require().NoError(err)
	s.Equal(model.SOSMethodDuress, session.ActivationMethod)
}

func (s *AlertSuite) TestLogDispatcher() {
	d := alert.NewLogDispatcher(logger.Discard())

	s.NoError(d.SendTest(s.ctx, alert.Recipient{}))
	s.NoError(d.SendSOS(s.ctx, nil, true))
	s.NoError(d.SendAllClear(s.ctx, nil))
	s.NoError(d.SendFalseAlarm(s.ctx, nil))

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	s.Error(d.SendSOS(ctx, nil, false))
}
