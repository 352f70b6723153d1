package matcher_test

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/logger"
	"github.com/mdouchement/safehaven/internal/matcher"
	"github.com/mdouchement/safehaven/internal/metrics"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/stretchr/testify/suite"
)

type MatcherSuite struct {
	suite.Suite
	ctx     context.Context
	db      database.Client
	matcher *matcher.Matcher
}

func TestMatcher(t *testing.T) {
	suite.Run(t, new(MatcherSuite))
}

func (s *MatcherSuite) SetupTest() {
	db, err := database.StormOpen(filepath.Join(s.T().TempDir(), "safehaven.db"))
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.db = db
	s.matcher = matcher.New(db,
		matcher.WithLogger(logger.Discard()),
		matcher.WithMetrics(metrics.New()),
	)
}

func (s *MatcherSuite) TearDownTest() {
	s.db.Close()
}

func (s *MatcherSuite) load(resources ...*model.Resource) {
	s.Require().NoError(s.db.ReplaceResources(resources))
}

func names(resources []*model.Resource) []string {
	n := []string{}
	for _, r := range resources {
		n = append(n, r.OrganizationName)
	}
	return n
}

// singleNeeds returns one Needs per flag, with only that flag set.
func singleNeeds() []matcher.Needs {
	var all []matcher.Needs
	typ := reflect.TypeOf(matcher.Needs{})
	for i := 0; i < typ.NumField(); i++ {
		var needs matcher.Needs
		reflect.ValueOf(&needs).Elem().Field(i).SetBool(true)
		all = append(all, needs)
	}
	return all
}

func (s *MatcherSuite) TestFilter_Narrows() {
	resources := []*model.Resource{
		{ResourceType: "shelter", OrganizationName: "plain"},
		{ResourceType: "shelter", OrganizationName: "inclusive", ServesLGBTQIA: true, TransInclusive: true, AcceptsPets: true},
		{ResourceType: "shelter", OrganizationName: "family", AcceptsChildren: true, AcceptsPets: true},
		{ResourceType: "shelter", OrganizationName: "bus", GreyhoundHomeFreePartner: true},
		{ResourceType: "shelter", OrganizationName: "virtual", OffersVirtualServices: true, ServesDeaf: true},
		{ResourceType: "legal", OrganizationName: "lawyer", ServesLGBTQIA: true},
	}
	s.load(resources...)

	all, err := s.matcher.Filter(s.ctx, "shelter", matcher.Needs{})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"plain", "inclusive", "family", "bus", "virtual"}, names(all))

	unfiltered := map[string]bool{}
	for _, r := range all {
		unfiltered[r.ID] = true
	}

	for _, needs := range singleNeeds() {
		narrowed, err := s.matcher.Filter(s.ctx, "shelter", needs)
		s.Require().NoError(err)
		s.LessOrEqual(len(narrowed), len(all), fmt.Sprintf("%+v", needs))

		for _, r := range narrowed {
			s.True(unfiltered[r.ID])
			s.True(needs.Satisfied(r))
		}
	}

	pets, err := s.matcher.Filter(s.ctx, "shelter", matcher.Needs{Pets: true})
	s.NoError(err)
	s.Equal([]string{"family", "inclusive"}, names(pets))

	combined, err := s.matcher.Filter(s.ctx, "shelter", matcher.Needs{Pets: true, Trans: true})
	s.NoError(err)
	s.Equal([]string{"inclusive"}, names(combined))

	transport, err := s.matcher.Filter(s.ctx, "shelter", matcher.Needs{Transportation: true})
	s.NoError(err)
	s.Equal([]string{"bus", "virtual"}, names(transport))

	lgbtqia, err := s.matcher.Filter(s.ctx, "", matcher.Needs{LGBTQIA: true})
	s.NoError(err)
	s.Equal([]string{"inclusive", "lawyer"}, names(lgbtqia))
}

func (s *MatcherSuite) TestFilter_Limit() {
	resources := make([]*model.Resource, 0, 150)
	for i := 0; i < 150; i++ {
		resources = append(resources, &model.Resource{ResourceType: "hotline", OrganizationName: fmt.Sprintf("org-%03d", i)})
	}
	s.load(resources...)

	found, err := s.matcher.Filter(s.ctx, "hotline", matcher.Needs{})
	s.NoError(err)
	s.Len(found, 150)

	limited := matcher.New(s.db, matcher.WithLimit(100), matcher.WithLogger(logger.Discard()))
	found, err = limited.Filter(s.ctx, "hotline", matcher.Needs{})
	s.NoError(err)
	s.Len(found, 100)
	s.Equal("org-000", found[0].OrganizationName)
}

func (s *MatcherSuite) TestJourneyResources_Unlimited() {
	resources := make([]*model.Resource, 0, 130)
	for i := 0; i < 130; i++ {
		resources = append(resources, &model.Resource{
			ResourceType:          model.ResourceAccompaniment,
			OrganizationName:      fmt.Sprintf("org-%03d", i),
			AccompanimentServices: true,
		})
	}
	s.load(resources...)

	found, err := s.matcher.JourneyResources(s.ctx, matcher.JourneyNeeds{Accompaniment: true})
	s.NoError(err)
	s.Len(found, 130)

	result, err := s.matcher.FindMatchingResources(s.ctx, matcher.Requirements{NeedsAccompaniment: true})
	s.NoError(err)
	s.Len(result.Accompaniment, 130)
}

func (s *MatcherSuite) TestForSurvivor() {
	s.load(
		&model.Resource{ResourceType: "shelter", OrganizationName: "a", ServesUndocumented: true},
		&model.Resource{ResourceType: "shelter", OrganizationName: "b"},
	)

	found, err := s.matcher.ForSurvivor(s.ctx, "shelter", &model.SurvivorProfile{Undocumented: true})
	s.NoError(err)
	s.Equal([]string{"a"}, names(found))
}

func (s *MatcherSuite) loadJourneyCatalog() {
	s.load(
		&model.Resource{ResourceType: model.ResourceReproductiveHealthcare, OrganizationName: "clinic-il", State: "IL", City: "Chicago", ProvidesReproductiveHealthcare: true, AcceptsOutOfStatePatients: true},
		&model.Resource{ResourceType: model.ResourceReproductiveHealthcare, OrganizationName: "clinic-nm", State: "NM", City: "Albuquerque", ProvidesReproductiveHealthcare: true, AcceptsOutOfStatePatients: true, FinancialAssistanceAvailable: true},
		&model.Resource{ResourceType: model.ResourceReproductiveHealthcare, OrganizationName: "clinic-ca", State: "CA", City: "Oakland", ProvidesReproductiveHealthcare: true},
		&model.Resource{ResourceType: model.ResourceRecoveryHousing, OrganizationName: "house-il", State: "IL", City: "Chicago", ProvidesRecoveryHousing: true},
		&model.Resource{ResourceType: model.ResourceRecoveryHousing, OrganizationName: "house-ca", State: "CA", City: "Oakland", ProvidesRecoveryHousing: true},
		&model.Resource{ResourceType: model.ResourceChildcare, OrganizationName: "care-both", State: "IL", City: "Chicago", ChildcareDuringAppointment: true, ChildcareDuringRecovery: true},
		&model.Resource{ResourceType: model.ResourceChildcare, OrganizationName: "care-recovery", State: "CA", City: "Oakland", ChildcareDuringRecovery: true},
		&model.Resource{ResourceType: model.ResourceFinancialAssistance, OrganizationName: "fund-travel", TravelFundingAvailable: true},
		&model.Resource{ResourceType: model.ResourceFinancialAssistance, OrganizationName: "fund-care", FinancialAssistanceAvailable: true},
		&model.Resource{ResourceType: model.ResourceFinancialAssistance, OrganizationName: "fund-closed"},
		&model.Resource{ResourceType: model.ResourceAccompaniment, OrganizationName: "doulas", State: "IL", City: "Chicago", AccompanimentServices: true},
	)
}

func (s *MatcherSuite) TestFindMatchingResources() {
	s.loadJourneyCatalog()

	req := matcher.Requirements{
		NeedsClinic:                     true,
		NeedsOutOfStateClinic:           true,
		NeedsRecoveryHousing:            true,
		NeedsChildcareDuringAppointment: true,
		NeedsChildcareDuringRecovery:    true,
		NeedsFinancialAssistance:        true,
		NeedsAccompaniment:              true,
	}

	result, err := s.matcher.FindMatchingResources(s.ctx, req)
	s.Require().NoError(err)

	s.Equal([]string{"clinic-il", "clinic-nm"}, names(result.Clinics))
	s.ElementsMatch([]string{"house-il", "house-ca"}, names(result.RecoveryHousing))
	s.Equal([]string{"care-both", "care-recovery"}, names(result.Childcare))
	s.Equal([]string{"fund-care", "fund-travel"}, names(result.FinancialAssistance))
	s.Equal([]string{"doulas"}, names(result.Accompaniment))
	s.Equal(9, result.Total())
	s.True(result.HasMatches())
	s.True(result.HasRequiredResources())
}

func (s *MatcherSuite) TestFindMatchingResources_TargetState() {
	s.loadJourneyCatalog()

	result, err := s.matcher.FindMatchingResources(s.ctx, matcher.Requirements{
		NeedsClinic:          true,
		TargetState:          "CA",
		NeedsRecoveryHousing: true,
	})
	s.Require().NoError(err)
	s.Equal([]string{"clinic-ca"}, names(result.Clinics))
	s.Equal([]string{"house-ca"}, names(result.RecoveryHousing))
	s.Empty(result.Childcare)

	result, err = s.matcher.FindMatchingResources(s.ctx, matcher.Requirements{})
	s.Require().NoError(err)
	s.False(result.HasMatches())
	s.False(result.HasRequiredResources())
}

func (s *MatcherSuite) TestComprehensivePackage() {
	s.loadJourneyCatalog()

	req := matcher.Requirements{NeedsClinic: true, NeedsFinancialAssistance: true}
	result, err := s.matcher.ComprehensivePackage(s.ctx, req)
	s.Require().NoError(err)
	s.Equal([]string{"clinic-nm", "clinic-il"}, names(result.Clinics))

	s.True(s.matcher.HasSufficientResources(s.ctx, req))
	s.False(s.matcher.HasSufficientResources(s.ctx, matcher.Requirements{NeedsClinic: true, TargetState: "TX"}))
}

func (s *MatcherSuite) TestJourneyResources() {
	s.loadJourneyCatalog()

	resources, err := s.matcher.JourneyResources(s.ctx, matcher.JourneyNeeds{Clinic: true, Housing: true, Accompaniment: true})
	s.Require().NoError(err)
	s.Equal([]string{"doulas", "house-ca", "house-il", "clinic-ca", "clinic-il", "clinic-nm"}, names(resources))

	resources, err = s.matcher.JourneyResources(s.ctx, matcher.JourneyNeeds{Clinic: true, Childcare: true, State: "IL"})
	s.Require().NoError(err)
	s.Equal([]string{"care-both", "clinic-il"}, names(resources))

	resources, err = s.matcher.JourneyResources(s.ctx, matcher.JourneyNeeds{})
	s.Require().NoError(err)
	s.Empty(resources)
}

func (s *MatcherSuite) TestAvailability() {
	s.loadJourneyCatalog()

	availability, err := s.matcher.Availability(s.ctx)
	s.Require().NoError(err)
	s.Equal(&matcher.Availability{
		Clinics:         2,
		RecoveryHousing: 2,
		Childcare:       2,
		FinancialAid:    2,
		Accompaniment:   1,
	}, availability)
	s.Equal(9, availability.Total())
}

func (s *MatcherSuite) TestResource() {
	s.loadJourneyCatalog()

	types, err := s.matcher.Types(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{
		model.ResourceAccompaniment,
		model.ResourceChildcare,
		model.ResourceFinancialAssistance,
		model.ResourceRecoveryHousing,
		model.ResourceReproductiveHealthcare,
	}, types)

	resources, err := s.matcher.Filter(s.ctx, model.ResourceAccompaniment, matcher.Needs{})
	s.Require().NoError(err)
	s.Require().Len(resources, 1)

	resource, err := s.matcher.Resource(s.ctx, resources[0].ID)
	s.NoError(err)
	s.Equal("doulas", resource.OrganizationName)

	_, err = s.matcher.Resource(s.ctx, "missing")
	s.True(sherror.IsNotFound(err))
}
