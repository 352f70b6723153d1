package lifecycle_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/journey"
	"github.com/mdouchement/safehaven/internal/lifecycle"
	"github.com/mdouchement/safehaven/internal/logger"
	"github.com/mdouchement/safehaven/internal/metrics"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/repository"
	"github.com/mdouchement/safehaven/internal/session"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/mdouchement/safehaven/pkg/fieldcrypt"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

const (
	namespace = "alice"
	duress    = "alice-duress"
)

// failingRepository fails the purge of the given category.
type failingRepository struct {
	*repository.Repository
	category string
}

func (r *failingRepository) Purge(ctx context.Context, namespace, category string) error {
	if category == r.category {
		return sherror.Storage(errors.New("disk I/O error"), "purge "+category)
	}
	return r.Repository.Purge(ctx, namespace, category)
}

// unreachableProfileRepository cannot read profiles.
type unreachableProfileRepository struct {
	*repository.Repository
}

func (r *unreachableProfileRepository) Profile(ctx context.Context, namespace string) (*model.Profile, error) {
	return nil, sherror.Storage(errors.New("disk I/O error"), "get profile")
}

// failingListRepository cannot list the incidents of the given namespace.
type failingListRepository struct {
	*repository.Repository
	namespace string
}

func (r *failingListRepository) Incidents(ctx context.Context, namespace string) ([]*model.Incident, error) {
	if namespace == r.namespace {
		return nil, sherror.Storage(errors.New("disk I/O error"), "list incidents")
	}
	return r.Repository.Incidents(ctx, namespace)
}

type LifecycleSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	db       database.Client
	repo     *repository.Repository
	sessions *session.Manager
	metrics  *metrics.Metrics
	engine   *lifecycle.Engine
	journeys *journey.Orchestrator
}

func TestLifecycle(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
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
	clock := func() time.Time { return s.now }

	s.repo = repository.New(db, keyring, vault, repository.WithLogger(logger.Discard()))
	s.sessions = session.NewManager(db, time.Hour)
	s.metrics = metrics.New()
	s.engine = lifecycle.New(s.repo, s.sessions,
		lifecycle.WithLogger(logger.Discard()),
		lifecycle.WithMetrics(s.metrics),
		lifecycle.WithClock(clock),
	)
	s.journeys = journey.New(s.repo,
		journey.WithLogger(logger.Discard()),
		journey.WithClock(clock),
	)
}

func (s *LifecycleSuite) TearDownTest() {
	s.db.Close()
}

func (s *LifecycleSuite) populate(namespace string) {
	_, err := s.repo.SaveIncident(s.ctx, namespace, repository.IncidentParams{Type: model.IncidentVerbal, Description: "threats"})
	s.Require().NoError(err)
	_, err = s.repo.SaveEvidence(s.ctx, namespace, repository.EvidenceParams{Type: model.EvidenceAudio}, strings.NewReader("voicemail"))
	s.Require().NoError(err)
	_, err = s.repo.SaveDocument(s.ctx, namespace, repository.DocumentParams{Type: "id", Name: "ID card"}, strings.NewReader("id card"))
	s.Require().NoError(err)
	_, err = s.journeys.Create(s.ctx, namespace, repository.JourneyParams{})
	s.Require().NoError(err)
	_, err = s.repo.SaveContact(s.ctx, namespace, "", repository.ContactParams{Name: "Sam", PhoneNumber: "+15550100"})
	s.Require().NoError(err)
	s.Require().NoError(s.repo.SaveSOSSession(s.ctx, &model.SOSSession{UserID: namespace, ActivatedAt: s.now}))
	_, err = s.repo.SaveSurvivorProfile(s.ctx, namespace, &model.SurvivorProfile{HasPets: true})
	s.Require().NoError(err)
	_, err = s.sessions.Init(s.ctx, namespace, namespace == duress, "test")
	s.Require().NoError(err)
}

func (s *LifecycleSuite) createProfile() {
	profile := model.NewProfile(namespace)
	profile.DuressUserID = duress
	s.Require().NoError(s.db.Save(profile))
}

func (s *LifecycleSuite) assertEmpty(namespace string) {
	incidents, err := s.repo.Incidents(s.ctx, namespace)
	s.NoError(err)
	s.Empty(incidents)

	evidences, err := s.repo.Evidences(s.ctx, namespace)
	s.NoError(err)
	s.Empty(evidences)

	documents, err := s.repo.Documents(s.ctx, namespace)
	s.NoError(err)
	s.Empty(documents)

	journeys, err := s.repo.Journeys(s.ctx, namespace)
	s.NoError(err)
	s.Empty(journeys)

	contacts, err := s.repo.Contacts(s.ctx, namespace)
	s.NoError(err)
	s.Empty(contacts)

	sessions, err := s.repo.SOSSessions(s.ctx, namespace)
	s.NoError(err)
	s.Empty(sessions)

	_, err = s.db.FindSurvivorProfile(namespace)
	s.True(s.db.IsNotFound(err))

	tokens, err := s.db.FindSessionsByUserID(namespace)
	s.NoError(err)
	s.Empty(tokens)
}

//
// Panic delete
//

func (s *LifecycleSuite) TestPanicDelete() {
	s.createProfile()
	s.populate(namespace)
	s.populate(duress)

	s.Require().NoError(s.engine.PanicDelete(s.ctx, namespace))

	s.assertEmpty(namespace)
	s.assertEmpty(duress)

	_, err := s.repo.Profile(s.ctx, namespace)
	s.True(sherror.IsNotFound(err))

	s.Equal(1.0, testutil.ToFloat64(s.metrics.PanicDeletes.WithLabelValues("complete")))
}

func (s *LifecycleSuite) TestPanicDelete_FromDuressNamespace() {
	s.createProfile()
	s.populate(namespace)

	s.Require().NoError(s.engine.PanicDelete(s.ctx, duress))

	s.assertEmpty(namespace)
	_, err := s.repo.Profile(s.ctx, namespace)
	s.True(sherror.IsNotFound(err))
}

func (s *LifecycleSuite) TestPanicDelete_Idempotent() {
	s.createProfile()
	s.populate(namespace)

	s.Require().NoError(s.engine.PanicDelete(s.ctx, namespace))
	s.NoError(s.engine.PanicDelete(s.ctx, namespace))
}

func (s *LifecycleSuite) TestPanicDelete_ContinueOnError() {
	s.createProfile()
	s.populate(namespace)
	s.populate(duress)

	engine := lifecycle.New(&failingRepository{Repository: s.repo, category: repository.CategoryEvidence}, s.sessions,
		lifecycle.WithLogger(logger.Discard()),
		lifecycle.WithMetrics(s.metrics),
	)

	err := engine.PanicDelete(s.ctx, namespace)
	s.Require().Error(err)
	s.True(sherror.IsPartialFailure(err))

	var failure *sherror.PartialFailureError
	s.Require().True(errors.As(err, &failure))
	s.Equal([]string{repository.CategoryEvidence, repository.CategoryEvidence}, failure.Categories())
	s.Equal(namespace, failure.Failures[0].Namespace)
	s.Equal(duress, failure.Failures[1].Namespace)

	// Every other category is gone.
	incidents, err := s.repo.Incidents(s.ctx, namespace)
	s.NoError(err)
	s.Empty(incidents)
	documents, err := s.repo.Documents(s.ctx, duress)
	s.NoError(err)
	s.Empty(documents)
	_, err = s.repo.Profile(s.ctx, namespace)
	s.True(sherror.IsNotFound(err))

	evidences, err := s.repo.Evidences(s.ctx, namespace)
	s.NoError(err)
	s.Len(evidences, 1)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.PanicDeletes.WithLabelValues("partial")))
}

func (s *LifecycleSuite) TestPanicDelete_Cancelled() {
	s.createProfile()
	s.populate(namespace)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	err := s.engine.PanicDelete(ctx, namespace)
	s.Require().Error(err)
	s.True(sherror.IsPartialFailure(err))

	var failure *sherror.PartialFailureError
	s.Require().True(errors.As(err, &failure))
	s.Contains(failure.Categories(), repository.CategoryIncidents)
	s.Contains(failure.Categories(), lifecycle.CategorySessions)
	for _, f := range failure.Failures {
		s.ErrorIs(f.Err, context.Canceled)
	}
}

func (s *LifecycleSuite) TestPanicDelete_UnresolvedProfile() {
	s.createProfile()
	s.populate(namespace)
	s.populate(duress)

	engine := lifecycle.New(&unreachableProfileRepository{Repository: s.repo}, s.sessions,
		lifecycle.WithLogger(logger.Discard()),
		lifecycle.WithMetrics(s.metrics),
	)

	err := engine.PanicDelete(s.ctx, namespace)
	s.Require().Error(err)
	s.True(sherror.IsPartialFailure(err))

	var failure *sherror.PartialFailureError
	s.Require().True(errors.As(err, &failure))
	s.Equal([]string{lifecycle.CategoryProfile}, failure.Categories())
	s.Equal(namespace, failure.Failures[0].Namespace)

	// What is reachable from the given id is wiped.
	s.assertEmpty(namespace)
	_, err = s.repo.Profile(s.ctx, namespace)
	s.True(sherror.IsNotFound(err))

	// The duress namespace could not be resolved.
	incidents, err := s.repo.Incidents(s.ctx, duress)
	s.NoError(err)
	s.Len(incidents, 1)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.PanicDeletes.WithLabelValues("partial")))
}

func (s *LifecycleSuite) TestPanicDelete_UnresolvedProfileFromDuress() {
	s.createProfile()
	s.populate(namespace)

	engine := lifecycle.New(&unreachableProfileRepository{Repository: s.repo}, s.sessions,
		lifecycle.WithLogger(logger.Discard()),
		lifecycle.WithMetrics(s.metrics),
	)

	err := engine.PanicDelete(s.ctx, duress)
	s.Require().Error(err)

	var failure *sherror.PartialFailureError
	s.Require().True(errors.As(err, &failure))
	s.Contains(failure.Categories(), lifecycle.CategoryProfile)

	profile, err := s.repo.Profile(s.ctx, namespace)
	s.Require().NoError(err)
	s.Equal(duress, profile.DuressUserID)
}

//
// Auto-delete
//

func (s *LifecycleSuite) TestSweep_EndToEnd() {
	j, err := s.journeys.Create(s.ctx, namespace, repository.JourneyParams{
		NeedsChildcare:            true,
		NumberOfChildren:          2,
		AutoDeleteAfterCompletion: true,
	})
	s.Require().NoError(err)

	j, err = s.journeys.Complete(s.ctx, j.ID)
	s.Require().NoError(err)
	s.Equal(model.JourneyCompleted, j.Status)
	s.Equal(j.CompletedAt.Add(30*lifecycle.Day), *j.AutoDeleteDate)

	n, err := s.engine.Sweep(s.ctx, j.CompletedAt.Add(29*lifecycle.Day))
	s.NoError(err)
	s.Equal(0, n)
	_, err = s.repo.Journey(s.ctx, j.ID)
	s.NoError(err)

	n, err = s.engine.Sweep(s.ctx, j.CompletedAt.Add(31*lifecycle.Day))
	s.NoError(err)
	s.Equal(1, n)
	_, err = s.repo.Journey(s.ctx, j.ID)
	s.True(sherror.IsNotFound(err))

	// Idempotent.
	n, err = s.engine.Sweep(s.ctx, j.CompletedAt.Add(31*lifecycle.Day))
	s.NoError(err)
	s.Equal(0, n)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.JourneysSwept))
}

func (s *LifecycleSuite) TestSweep_Boundary() {
	j, err := s.journeys.Create(s.ctx, namespace, repository.JourneyParams{AutoDeleteAfterCompletion: true})
	s.Require().NoError(err)
	j, err = s.journeys.Complete(s.ctx, j.ID)
	s.Require().NoError(err)

	n, err := s.engine.Sweep(s.ctx, *j.AutoDeleteDate)
	s.NoError(err)
	s.Equal(1, n)
}

func (s *LifecycleSuite) TestSweep_OnlyCompleted() {
	far := s.now.Add(1000 * lifecycle.Day)

	planned, err := s.journeys.Create(s.ctx, namespace, repository.JourneyParams{AutoDeleteAfterCompletion: true})
	s.Require().NoError(err)
	// A date on an open journey is not enough.
	_, err = s.engine.EnableAutoDelete(s.ctx, planned.ID, 1)
	s.Require().NoError(err)

	cancelled, err := s.journeys.Create(s.ctx, namespace, repository.JourneyParams{AutoDeleteAfterCompletion: true})
	s.Require().NoError(err)
	_, err = s.journeys.Cancel(s.ctx, cancelled.ID, "")
	s.Require().NoError(err)

	kept, err := s.journeys.Create(s.ctx, namespace, repository.JourneyParams{})
	s.Require().NoError(err)
	_, err = s.journeys.Complete(s.ctx, kept.ID)
	s.Require().NoError(err)

	n, err := s.engine.Sweep(s.ctx, far)
	s.NoError(err)
	s.Equal(0, n)

	journeys, err := s.repo.Journeys(s.ctx, namespace)
	s.NoError(err)
	s.Len(journeys, 3)
}

func (s *LifecycleSuite) TestSweep_SubscriptionDropsJourney() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	j, err := s.journeys.Create(s.ctx, namespace, repository.JourneyParams{AutoDeleteAfterCompletion: true})
	s.Require().NoError(err)
	j, err = s.journeys.Complete(s.ctx, j.ID)
	s.Require().NoError(err)

	ch, err := s.repo.WatchJourneys(ctx, namespace)
	s.Require().NoError(err)
	s.Len(<-ch, 1)

	_, err = s.engine.Sweep(s.ctx, *j.AutoDeleteDate)
	s.Require().NoError(err)

	select {
	case journeys := <-ch:
		s.Empty(journeys)
	case <-time.After(time.Second):
		s.Fail("subscription not updated")
	}
}

func (s *LifecycleSuite) TestRetentionOperations() {
	j, err := s.journeys.Create(s.ctx, namespace, repository.JourneyParams{AutoDeleteAfterCompletion: true})
	s.Require().NoError(err)
	j, err = s.journeys.Complete(s.ctx, j.ID)
	s.Require().NoError(err)

	n, err := s.engine.PendingDeletionCount(s.ctx, s.now)
	s.NoError(err)
	s.Equal(0, n)

	ids, err := s.engine.ExpiringWithin(s.ctx, s.now, 30)
	s.NoError(err)
	s.Equal([]string{j.ID}, ids)

	ids, err = s.engine.ExpiringWithin(s.ctx, s.now, 29)
	s.NoError(err)
	s.Empty(ids)

	// Retention operations are allowed on completed journeys.
	j, err = s.engine.CancelAutoDelete(s.ctx, j.ID)
	s.Require().NoError(err)
	s.False(j.AutoDeleteAfterCompletion)
	s.Nil(j.AutoDeleteDate)

	n, err = s.engine.Sweep(s.ctx, s.now.Add(1000*lifecycle.Day))
	s.NoError(err)
	s.Equal(0, n)

	j, err = s.engine.EnableAutoDelete(s.ctx, j.ID, 3)
	s.Require().NoError(err)
	s.True(j.AutoDeleteAfterCompletion)
	s.Equal(s.now.Add(3*lifecycle.Day), *j.AutoDeleteDate)

	n, err = s.engine.PendingDeletionCount(s.ctx, s.now.Add(3*lifecycle.Day))
	s.NoError(err)
	s.Equal(1, n)

	_, err = s.engine.EnableAutoDelete(s.ctx, j.ID, 0)
	s.True(sherror.IsValidation(err))

	_, err = s.engine.CancelAutoDelete(s.ctx, "missing")
	s.True(sherror.IsNotFound(err))
}

//
// Record expiry
//

func (s *LifecycleSuite) TestExpireRecords() {
	profile := model.NewProfile(namespace)
	profile.DuressUserID = duress
	profile.AutoDeleteEnabled = true
	profile.AutoDeleteDays = 30
	s.Require().NoError(s.db.Save(profile))

	now := time.Now()

	_, err := s.repo.SaveIncident(s.ctx, namespace, repository.IncidentParams{Type: model.IncidentVerbal, Description: "old", Timestamp: now})
	s.Require().NoError(err)
	recent, err := s.repo.SaveIncident(s.ctx, namespace, repository.IncidentParams{Type: model.IncidentVerbal, Description: "recent", Timestamp: now.Add(10 * lifecycle.Day)})
	s.Require().NoError(err)
	_, err = s.repo.SaveEvidence(s.ctx, duress, repository.EvidenceParams{Type: model.EvidencePhoto}, strings.NewReader("photo"))
	s.Require().NoError(err)

	n, err := s.engine.ExpireRecords(s.ctx, now.Add(31*lifecycle.Day))
	s.NoError(err)
	s.Equal(2, n)

	incidents, err := s.repo.Incidents(s.ctx, namespace)
	s.NoError(err)
	s.Require().Len(incidents, 1)
	s.Equal(recent.ID, incidents[0].ID)

	evidences, err := s.repo.Evidences(s.ctx, duress)
	s.NoError(err)
	s.Empty(evidences)

	s.Equal(2.0, testutil.ToFloat64(s.metrics.RecordsExpired))
}

func (s *LifecycleSuite) TestExpireRecords_Disabled() {
	s.createProfile()
	s.populate(namespace)

	n, err := s.engine.ExpireRecords(s.ctx, time.Now().Add(1000*lifecycle.Day))
	s.NoError(err)
	s.Equal(0, n)
}

func (s *LifecycleSuite) TestExpireRecords_ListingFailure() {
	profile := model.NewProfile(namespace)
	profile.DuressUserID = duress
	profile.AutoDeleteEnabled = true
	profile.AutoDeleteDays = 30
	s.Require().NoError(s.db.Save(profile))

	now := time.Now()

	_, err := s.repo.SaveIncident(s.ctx, namespace, repository.IncidentParams{Type: model.IncidentVerbal, Description: "old", Timestamp: now})
	s.Require().NoError(err)
	_, err = s.repo.SaveEvidence(s.ctx, namespace, repository.EvidenceParams{Type: model.EvidencePhoto}, strings.NewReader("photo"))
	s.Require().NoError(err)
	_, err = s.repo.SaveEvidence(s.ctx, duress, repository.EvidenceParams{Type: model.EvidencePhoto}, strings.NewReader("photo"))
	s.Require().NoError(err)

	engine := lifecycle.New(&failingListRepository{Repository: s.repo, namespace: namespace}, s.sessions,
		lifecycle.WithLogger(logger.Discard()),
		lifecycle.WithMetrics(s.metrics),
	)

	n, err := engine.ExpireRecords(s.ctx, now.Add(31*lifecycle.Day))
	s.NoError(err)
	s.Equal(2, n)

	incidents, err := s.repo.Incidents(s.ctx, namespace)
	s.NoError(err)
	s.Len(incidents, 1)

	for _, ns := range []string{namespace, duress} {
		evidences, err := s.repo.Evidences(s.ctx, ns)
		s.NoError(err)
		s.Empty(evidences, ns)
	}
}

//
// Scheduler
//

func (s *LifecycleSuite) TestScheduler() {
	j, err := s.journeys.Create(s.ctx, namespace, repository.JourneyParams{AutoDeleteAfterCompletion: true})
	s.Require().NoError(err)
	_, err = s.journeys.Complete(s.ctx, j.ID)
	s.Require().NoError(err)

	engine := lifecycle.New(s.repo, s.sessions,
		lifecycle.WithLogger(logger.Discard()),
		lifecycle.WithClock(func() time.Time { return s.now.Add(31 * lifecycle.Day) }),
	)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error)
	go func() {
		done <- lifecycle.NewScheduler(engine, time.Minute).Run(ctx)
	}()

	s.Eventually(func() bool {
		_, err := s.repo.Journey(s.ctx, j.ID)
		return sherror.IsNotFound(err)
	}, time.Second, 10*time.Millisecond)

	cancel()
	s.ErrorIs(<-done, context.Canceled)

	swept, expired := engine.Pass(s.ctx, s.now.Add(31*lifecycle.Day))
	s.Equal(0, swept)
	s.Equal(0, expired)
}
