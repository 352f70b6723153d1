package database_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/stretchr/testify/suite"
)

type StormSuite struct {
	suite.Suite
	filename string
	db       database.Client
}

func TestStorm(t *testing.T) {
	suite.Run(t, new(StormSuite))
}

func (s *StormSuite) SetupTest() {
	s.filename = filepath.Join(s.T().TempDir(), "safehaven.db")
	s.Require().NoError(database.StormInit(s.filename))

	db, err := database.StormOpen(s.filename)
	s.Require().NoError(err)
	s.db = db
}

func (s *StormSuite) TearDownTest() {
	s.db.Close()
}

func (s *StormSuite) TestSave() {
	incident := &model.Incident{UserID: "ns", Type: model.IncidentVerbal, Timestamp: time.Now()}
	s.NoError(s.db.Save(incident))
	s.NotEmpty(incident.ID)
	s.NotNil(incident.CreatedAt)

	found, err := s.db.FindIncident(incident.ID, "ns")
	s.NoError(err)
	s.Equal(model.IncidentVerbal, found.Type)

	_, err = s.db.FindIncident(incident.ID, "other")
	s.True(s.db.IsNotFound(err))
}

func (s *StormSuite) TestIncidentsOrder() {
	now := time.Now()
	for i := 0; i < 3; i++ {
		s.NoError(s.db.Save(&model.Incident{UserID: "ns", Timestamp: now.Add(time.Duration(i) * time.Hour)}))
	}
	s.NoError(s.db.Save(&model.Incident{UserID: "other", Timestamp: now}))

	incidents, err := s.db.FindIncidentsByUserID("ns")
	s.NoError(err)
	s.Len(incidents, 3)
	s.True(incidents[0].Timestamp.After(incidents[2].Timestamp))
}

func (s *StormSuite) TestDeleteByUserID() {
	s.NoError(s.db.Save(&model.Incident{UserID: "ns"}))
	s.NoError(s.db.Save(&model.Incident{UserID: "ns"}))
	s.NoError(s.db.Save(&model.Incident{UserID: "other"}))

	s.NoError(s.db.DeleteIncidentsByUserID("ns"))
	// Deleting nothing is a no-op.
	s.NoError(s.db.DeleteIncidentsByUserID("ns"))
	s.NoError(s.db.DeleteJourney("missing"))

	incidents, err := s.db.FindIncidentsByUserID("ns")
	s.NoError(err)
	s.Empty(incidents)

	incidents, err = s.db.FindIncidentsByUserID("other")
	s.NoError(err)
	s.Len(incidents, 1)
}

func (s *StormSuite) TestProfile() {
	profile := model.NewProfile("alice")
	profile.DuressUserID = "duress-alice"
	s.NoError(s.db.Save(profile))

	found, err := s.db.FindProfileByDuressUserID("duress-alice")
	s.NoError(err)
	s.Equal("alice", found.UserID)

	duplicate := model.NewProfile("alice")
	duplicate.DuressUserID = "duress-other"
	s.True(s.db.IsAlreadyExists(s.db.Save(duplicate)))

	s.NoError(s.db.DeleteProfile("alice"))
	_, err = s.db.FindProfile("alice")
	s.True(s.db.IsNotFound(err))
}

func (s *StormSuite) TestFindJourneysForAutoDeletion() {
	date := time.Now()
	s.NoError(s.db.Save(&model.Journey{UserID: "ns", Status: model.JourneyCompleted, AutoDeleteAfterCompletion: true, AutoDeleteDate: &date}))
	s.NoError(s.db.Save(&model.Journey{UserID: "ns", Status: model.JourneyCompleted}))
	s.NoError(s.db.Save(&model.Journey{UserID: "ns", Status: model.JourneyCancelled, AutoDeleteAfterCompletion: true}))
	s.NoError(s.db.Save(&model.Journey{UserID: "ns", Status: model.JourneyPlanning, AutoDeleteAfterCompletion: true}))

	journeys, err := s.db.FindJourneysForAutoDeletion()
	s.NoError(err)
	s.Len(journeys, 1)
}

func (s *StormSuite) TestFindResourcesByParams() {
	s.NoError(s.db.ReplaceResources([]*model.Resource{
		{ResourceType: "shelter", OrganizationName: "A", ServesLGBTQIA: true, AcceptsPets: true},
		{ResourceType: "shelter", OrganizationName: "B", ServesLGBTQIA: true},
		{ResourceType: "shelter", OrganizationName: "C", GasVoucherProgram: true},
		{ResourceType: "legal", OrganizationName: "D", ServesLGBTQIA: true},
	}))

	resources, err := s.db.FindResourcesByParams(database.ResourceParams{ResourceType: "shelter"})
	s.NoError(err)
	s.Len(resources, 3)

	resources, err = s.db.FindResourcesByParams(database.ResourceParams{
		ResourceType: "shelter",
		Flags:        []string{"ServesLGBTQIA", "AcceptsPets"},
	})
	s.NoError(err)
	s.Len(resources, 1)
	s.Equal("A", resources[0].OrganizationName)

	resources, err = s.db.FindResourcesByParams(database.ResourceParams{Transportation: true})
	s.NoError(err)
	s.Len(resources, 1)
	s.Equal("C", resources[0].OrganizationName)

	n, err := s.db.CountResources(database.ResourceParams{Flags: []string{"ServesLGBTQIA"}})
	s.NoError(err)
	s.Equal(3, n)

	types, err := s.db.FindResourceTypes()
	s.NoError(err)
	s.Equal([]string{"legal", "shelter"}, types)

	// Replacing drops the previous catalog.
	s.NoError(s.db.ReplaceResources([]*model.Resource{{ResourceType: "legal", OrganizationName: "E"}}))
	n, err = s.db.CountResources(database.ResourceParams{})
	s.NoError(err)
	s.Equal(1, n)
}

func (s *StormSuite) TestResourceLimit() {
	resources := make([]*model.Resource, 0, 120)
	for i := 0; i < 120; i++ {
		resources = append(resources, &model.Resource{ResourceType: "shelter"})
	}
	s.NoError(s.db.ReplaceResources(resources))

	found, err := s.db.FindResourcesByParams(database.ResourceParams{ResourceType: "shelter"})
	s.NoError(err)
	s.Len(found, 120)

	found, err = s.db.FindResourcesByParams(database.ResourceParams{ResourceType: "shelter", Limit: 50})
	s.NoError(err)
	s.Len(found, 50)
}

func (s *StormSuite) TestContactsOrder() {
	s.NoError(s.db.Save(&model.Contact{UserID: "ns", Name: "Alice"}))
	s.NoError(s.db.Save(&model.Contact{UserID: "ns", Name: "Zoe", IsPrimary: true}))
	s.NoError(s.db.Save(&model.Contact{UserID: "ns", Name: "Bob"}))

	contacts, err := s.db.FindContactsByUserID("ns")
	s.NoError(err)
	s.Len(contacts, 3)
	s.Equal("Zoe", contacts[0].Name)
	s.Equal("Alice", contacts[1].Name)
	s.Equal("Bob", contacts[2].Name)
}

func (s *StormSuite) TestSessions() {
	s.NoError(s.db.Save(&model.Session{UserID: "ns", AccessToken: "t1", ExpireAt: time.Now().Add(time.Hour)}))
	s.NoError(s.db.Save(&model.Session{UserID: "ns", AccessToken: "t2", ExpireAt: time.Now().Add(-time.Hour)}))

	s.NoError(s.db.DeleteExpiredSessions())

	_, err := s.db.FindSessionByAccessToken("t2")
	s.True(s.db.IsNotFound(err))

	session, err := s.db.FindSessionByAccessToken("t1")
	s.NoError(err)
	s.Equal("ns", session.UserID)
}

func (s *StormSuite) TestSubscribe() {
	ch, cancel := s.db.Subscribe(database.TopicJourney)

	// Bursts are coalesced into one pending notification.
	s.NoError(s.db.Save(&model.Journey{UserID: "ns"}))
	s.NoError(s.db.Save(&model.Journey{UserID: "ns"}))

	select {
	case <-ch:
	case <-time.After(time.Second):
		s.Fail("no notification")
	}

	select {
	case <-ch:
		s.Fail("unexpected notification")
	default:
	}

	cancel()
	cancel()
	_, ok := <-ch
	s.False(ok)
}
