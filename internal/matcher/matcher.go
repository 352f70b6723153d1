// Package matcher finds and ranks the support resources meeting the intersectional needs of a survivor.
package matcher

import (
	"context"
	"sort"
	"time"

	"github.com/mdouchement/safehaven/internal/database"
	"github.com/mdouchement/safehaven/internal/metrics"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/mdouchement/safehaven/internal/sherror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// A Catalog is the resource storage queried by the matcher.
type Catalog interface {
	FindResource(id string) (*model.Resource, error)
	FindResourcesByParams(params database.ResourceParams) ([]*model.Resource, error)
	FindResourceTypes() ([]string, error)
	CountResources(params database.ResourceParams) (int, error)
	IsNotFound(err error) bool
}

type (
	// A JourneyNeeds selects the resource types of a composite journey query.
	JourneyNeeds struct {
		Clinic        bool   `json:"clinic"`
		Housing       bool   `json:"housing"`
		Childcare     bool   `json:"childcare"`
		FinancialAid  bool   `json:"financial_aid"`
		Accompaniment bool   `json:"accompaniment"`
		State         string `json:"state"`
	}

	// A MatchResult holds the matching resources by category.
	MatchResult struct {
		Clinics             []*model.Resource `json:"clinics"`
		RecoveryHousing     []*model.Resource `json:"recovery_housing"`
		Childcare           []*model.Resource `json:"childcare"`
		FinancialAssistance []*model.Resource `json:"financial_assistance"`
		Accompaniment       []*model.Resource `json:"accompaniment"`
	}

	// An Availability counts the catalog resources by journey category.
	Availability struct {
		Clinics         int `json:"clinics"`
		RecoveryHousing int `json:"recovery_housing"`
		Childcare       int `json:"childcare"`
		FinancialAid    int `json:"financial_aid"`
		Accompaniment   int `json:"accompaniment"`
	}
)

// Total returns the number of matches.
func (m *MatchResult) Total() int {
	return len(m.Clinics) + len(m.RecoveryHousing) + len(m.Childcare) + len(m.FinancialAssistance) + len(m.Accompaniment)
}

// HasMatches returns true when at least one resource matches.
func (m *MatchResult) HasMatches() bool {
	return m.Total() > 0
}

// HasRequiredResources returns true when at least one clinic matches.
func (m *MatchResult) HasRequiredResources() bool {
	return len(m.Clinics) > 0
}

// Total returns the number of resources.
func (a *Availability) Total() int {
	return a.Clinics + a.RecoveryHousing + a.Childcare + a.FinancialAid + a.Accompaniment
}

// A Matcher queries the resource catalog.
type Matcher struct {
	catalog Catalog
	limit   int
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

// An Option configures a Matcher.
type Option func(*Matcher)

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mt *Matcher) {
		mt.metrics = m
	}
}

// WithLimit caps the number of resources returned by each catalog query.
// Zero or less means no limit.
func WithLimit(n int) Option {
	return func(mt *Matcher) {
		mt.limit = n
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(mt *Matcher) {
		mt.log = l
	}
}

// New returns a new Matcher.
func New(catalog Catalog, opts ...Option) *Matcher {
	m := &Matcher{
		catalog: catalog,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Resource returns the resource for the given id.
func (m *Matcher) Resource(ctx context.Context, id string) (*model.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resource, err := m.catalog.FindResource(id)
	if err != nil {
		if m.catalog.IsNotFound(err) {
			return nil, sherror.NotFound("resource")
		}
		return nil, sherror.Storage(err, "get resource")
	}
	return resource, nil
}

// Types returns the distinct resource types of the catalog.
func (m *Matcher) Types(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	types, err := m.catalog.FindResourceTypes()
	if err != nil {
		return nil, sherror.Storage(err, "list resource types")
	}
	return types, nil
}

// Filter returns the resources of the given type meeting all the needs.
// An empty type matches every type.
func (m *Matcher) Filter(ctx context.Context, resourceType string, needs Needs) ([]*model.Resource, error) {
	return m.find(ctx, database.ResourceParams{
		ResourceType:   resourceType,
		Flags:          needs.Flags(),
		Transportation: needs.Transportation,
	})
}

// ForSurvivor returns the resources of the given type meeting the needs of the survivor profile.
func (m *Matcher) ForSurvivor(ctx context.Context, resourceType string, profile *model.SurvivorProfile) ([]*model.Resource, error) {
	return m.Filter(ctx, resourceType, NeedsOf(profile))
}

// JourneyResources returns the union of the resources of every selected type,
// ordered by type, state and city.
func (m *Matcher) JourneyResources(ctx context.Context, needs JourneyNeeds) ([]*model.Resource, error) {
	selected := []struct {
		set          bool
		resourceType string
	}{
		{needs.Clinic, model.ResourceReproductiveHealthcare},
		{needs.Housing, model.ResourceRecoveryHousing},
		{needs.Childcare, model.ResourceChildcare},
		{needs.FinancialAid, model.ResourceFinancialAssistance},
		{needs.Accompaniment, model.ResourceAccompaniment},
	}

	resources := []*model.Resource{}
	for _, s := range selected {
		if !s.set {
			continue
		}

		found, err := m.find(ctx, database.ResourceParams{ResourceType: s.resourceType, State: needs.State})
		if err != nil {
			return nil, err
		}
		resources = append(resources, found...)
	}

	sort.SliceStable(resources, func(i, j int) bool {
		a, b := resources[i], resources[j]
		if a.ResourceType != b.ResourceType {
			return a.ResourceType < b.ResourceType
		}
		if a.State != b.State {
			return a.State < b.State
		}
		return a.City < b.City
	})
	return resources, nil
}

// FindMatchingResources returns the resources of every category required by the journey.
// The categories are looked up concurrently.
func (m *Matcher) FindMatchingResources(ctx context.Context, req Requirements) (*MatchResult, error) {
	defer func(start time.Time) {
		m.metrics.ObserveMatchDuration(time.Since(start))
	}(time.Now())

	result := &MatchResult{
		Clinics:             []*model.Resource{},
		RecoveryHousing:     []*model.Resource{},
		Childcare:           []*model.Resource{},
		FinancialAssistance: []*model.Resource{},
		Accompaniment:       []*model.Resource{},
	}

	g, ctx := errgroup.WithContext(ctx)

	if req.NeedsClinic {
		g.Go(func() (err error) {
			result.Clinics, err = m.clinics(ctx, req)
			return err
		})
	}

	if req.NeedsRecoveryHousing {
		g.Go(func() (err error) {
			result.RecoveryHousing, err = m.recoveryHousing(ctx, req.TargetState)
			return err
		})
	}

	if req.NeedsChildcareDuringAppointment || req.NeedsChildcareDuringRecovery {
		g.Go(func() (err error) {
			result.Childcare, err = m.childcare(ctx, req.NeedsChildcareDuringAppointment, req.NeedsChildcareDuringRecovery)
			return err
		})
	}

	if req.NeedsFinancialAssistance {
		g.Go(func() (err error) {
			result.FinancialAssistance, err = m.financialAssistance(ctx)
			return err
		})
	}

	if req.NeedsAccompaniment {
		g.Go(func() (err error) {
			result.Accompaniment, err = m.accompaniment(ctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// ComprehensivePackage returns the matching resources with the clinics ranked best first.
func (m *Matcher) ComprehensivePackage(ctx context.Context, req Requirements) (*MatchResult, error) {
	result, err := m.FindMatchingResources(ctx, req)
	if err != nil {
		return nil, err
	}

	ranked := Rank(result.Clinics, req)
	result.Clinics = make([]*model.Resource, 0, len(ranked))
	for _, s := range ranked {
		result.Clinics = append(result.Clinics, s.Resource)
	}
	return result, nil
}

// HasSufficientResources returns true when at least one clinic matches the requirements.
func (m *Matcher) HasSufficientResources(ctx context.Context, req Requirements) bool {
	result, err := m.FindMatchingResources(ctx, req)
	if err != nil {
		m.log.WithError(err).Warn("could not match resources")
		return false
	}
	return result.HasRequiredResources()
}

// Availability counts the catalog resources of every journey category.
func (m *Matcher) Availability(ctx context.Context) (*Availability, error) {
	availability := &Availability{}

	counts := []struct {
		n      *int
		params database.ResourceParams
	}{
		{&availability.Clinics, outOfStateClinics()},
		{&availability.RecoveryHousing, database.ResourceParams{ResourceType: model.ResourceRecoveryHousing}},
		{&availability.Childcare, database.ResourceParams{ResourceType: model.ResourceChildcare}},
		{&availability.FinancialAid, financialAssistance()},
		{&availability.Accompaniment, accompaniment()},
	}

	for _, c := range counts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := m.catalog.CountResources(c.params)
		if err != nil {
			return nil, sherror.Storage(err, "count resources")
		}
		*c.n = n
	}

	return availability, nil
}

//
// Categories
//

func (m *Matcher) clinics(ctx context.Context, req Requirements) ([]*model.Resource, error) {
	if req.NeedsOutOfStateClinic || req.TargetState == "" {
		clinics, err := m.find(ctx, outOfStateClinics())
		sortByLocation(clinics)
		return clinics, err
	}

	clinics, err := m.find(ctx, database.ResourceParams{
		ResourceType: model.ResourceReproductiveHealthcare,
		State:        req.TargetState,
		Flags:        []string{"ProvidesReproductiveHealthcare"},
	})
	sortByLocation(clinics)
	return clinics, err
}

func (m *Matcher) recoveryHousing(ctx context.Context, state string) ([]*model.Resource, error) {
	if state == "" {
		return m.find(ctx, database.ResourceParams{ResourceType: model.ResourceRecoveryHousing})
	}

	housing, err := m.find(ctx, database.ResourceParams{
		ResourceType: model.ResourceRecoveryHousing,
		State:        state,
		Flags:        []string{"ProvidesRecoveryHousing"},
	})
	sortByLocation(housing)
	return housing, err
}

func (m *Matcher) childcare(ctx context.Context, duringAppointment, duringRecovery bool) ([]*model.Resource, error) {
	var flags []string
	if duringAppointment {
		flags = append(flags, "ChildcareDuringAppointment")
	}
	if duringRecovery {
		flags = append(flags, "ChildcareDuringRecovery")
	}

	childcare := []*model.Resource{}
	seen := map[string]bool{}
	for _, flag := range flags {
		found, err := m.find(ctx, database.ResourceParams{
			ResourceType: model.ResourceChildcare,
			Flags:        []string{flag},
		})
		if err != nil {
			return nil, err
		}
		sortByLocation(found)

		// Some providers offer both.
		for _, r := range found {
			if !seen[r.ID] {
				seen[r.ID] = true
				childcare = append(childcare, r)
			}
		}
	}
	return childcare, nil
}

func (m *Matcher) financialAssistance(ctx context.Context) ([]*model.Resource, error) {
	return m.find(ctx, financialAssistance())
}

func (m *Matcher) accompaniment(ctx context.Context) ([]*model.Resource, error) {
	resources, err := m.find(ctx, accompaniment())
	sortByLocation(resources)
	return resources, err
}

func (m *Matcher) find(ctx context.Context, params database.ResourceParams) ([]*model.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params.Limit = m.limit
	resources, err := m.catalog.FindResourcesByParams(params)
	if err != nil {
		return nil, sherror.Storage(err, "find resources")
	}
	return resources, nil
}

func outOfStateClinics() database.ResourceParams {
	return database.ResourceParams{
		ResourceType: model.ResourceReproductiveHealthcare,
		Flags:        []string{"AcceptsOutOfStatePatients", "ProvidesReproductiveHealthcare"},
	}
}

func financialAssistance() database.ResourceParams {
	return database.ResourceParams{
		ResourceType: model.ResourceFinancialAssistance,
		AnyFlags:     []string{"FinancialAssistanceAvailable", "TravelFundingAvailable"},
	}
}

func accompaniment() database.ResourceParams {
	return database.ResourceParams{
		ResourceType: model.ResourceAccompaniment,
		Flags:        []string{"AccompanimentServices"},
	}
}

// sortByLocation orders the resources by state then city.
func sortByLocation(resources []*model.Resource) {
	sort.SliceStable(resources, func(i, j int) bool {
		if resources[i].State != resources[j].State {
			return resources[i].State < resources[j].State
		}
		return resources[i].City < resources[j].City
	})
}
