package matcher_test

import (
	"testing"

	"github.com/mdouchement/safehaven/internal/matcher"
	"github.com/mdouchement/safehaven/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	full := &model.Resource{
		State:                          "IL",
		ProvidesReproductiveHealthcare: true,
		AcceptsOutOfStatePatients:      true,
		ProvidesRecoveryHousing:        true,
		ChildcareDuringAppointment:     true,
		FinancialAssistanceAvailable:   true,
		TravelFundingAvailable:         true,
		AccompanimentServices:          true,
	}

	tests := []struct {
		name     string
		resource *model.Resource
		req      matcher.Requirements
		score    int
	}{
		{
			name:     "nothing",
			resource: &model.Resource{},
			req:      matcher.NewRequirements(),
			score:    0,
		},
		{
			name:     "core service only",
			resource: full,
			req:      matcher.NewRequirements(),
			score:    10,
		},
		{
			name:     "out of state",
			resource: full,
			req:      matcher.Requirements{NeedsOutOfStateClinic: true},
			score:    10 + 20,
		},
		{
			name:     "financial and travel funding",
			resource: full,
			req:      matcher.Requirements{NeedsFinancialAssistance: true},
			score:    10 + 10 + 10,
		},
		{
			name: "travel funding without financial need",
			resource: &model.Resource{
				TravelFundingAvailable: true,
			},
			req:   matcher.Requirements{NeedsAccompaniment: true},
			score: 0,
		},
		{
			name:     "target state",
			resource: full,
			req:      matcher.Requirements{TargetState: "IL"},
			score:    10 + 15,
		},
		{
			name:     "other state",
			resource: full,
			req:      matcher.Requirements{TargetState: "NM"},
			score:    10,
		},
		{
			name:     "need without offer",
			resource: &model.Resource{ProvidesReproductiveHealthcare: true},
			req: matcher.Requirements{
				NeedsRecoveryHousing:            true,
				NeedsChildcareDuringAppointment: true,
				NeedsAccompaniment:              true,
			},
			score: 10,
		},
		{
			name:     "everything",
			resource: full,
			req: matcher.Requirements{
				NeedsClinic:                     true,
				TargetState:                     "IL",
				NeedsOutOfStateClinic:           true,
				NeedsRecoveryHousing:            true,
				NeedsChildcareDuringAppointment: true,
				NeedsFinancialAssistance:        true,
				NeedsAccompaniment:              true,
			},
			score: 10 + 20 + 15 + 10 + 10 + 10 + 5 + 15,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.score, matcher.Score(tt.resource, tt.req))
			// Pure function.
			assert.Equal(t, tt.score, matcher.Score(tt.resource, tt.req))
		})
	}
}

func TestRank(t *testing.T) {
	a := &model.Resource{OrganizationName: "a", ProvidesReproductiveHealthcare: true}
	b := &model.Resource{OrganizationName: "b", ProvidesReproductiveHealthcare: true, State: "IL"}
	c := &model.Resource{OrganizationName: "c", ProvidesReproductiveHealthcare: true}
	d := &model.Resource{OrganizationName: "d"}

	ranked := matcher.Rank([]*model.Resource{d, a, b, c}, matcher.Requirements{TargetState: "IL"})

	names := []string{}
	scores := []int{}
	for _, s := range ranked {
		names = append(names, s.Resource.OrganizationName)
		scores = append(scores, s.Score)
	}

	assert.Equal(t, []string{"b", "a", "c", "d"}, names)
	assert.Equal(t, []int{25, 10, 10, 0}, scores)

	assert.Empty(t, matcher.Rank(nil, matcher.Requirements{}))
}

func TestNeedsOf(t *testing.T) {
	needs := matcher.NeedsOf(&model.SurvivorProfile{
		Trans:               true,
		HasPets:             true,
		Teen:                true,
		NeedsTransportation: true,
	})

	assert.Equal(t, matcher.Needs{Trans: true, Pets: true, TeenDating: true, Transportation: true}, needs)
	assert.Equal(t, []string{"TransInclusive", "AcceptsPets", "ServesTeenDating"}, needs.Flags())
	assert.Equal(t, matcher.Needs{}, matcher.NeedsOf(nil))
	assert.Empty(t, matcher.Needs{}.Flags())
}
