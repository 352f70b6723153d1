package matcher

import (
	"sort"

	"github.com/mdouchement/safehaven/internal/model"
)

// Requirements describe a healthcare journey to match resources against.
type Requirements struct {
	NeedsClinic                     bool   `json:"needs_clinic"`
	TargetState                     string `json:"target_state"`
	NeedsOutOfStateClinic           bool   `json:"needs_out_of_state_clinic"`
	NeedsRecoveryHousing            bool   `json:"needs_recovery_housing"`
	NeedsChildcareDuringAppointment bool   `json:"needs_childcare_during_appointment"`
	NeedsChildcareDuringRecovery    bool   `json:"needs_childcare_during_recovery"`
	NeedsFinancialAssistance        bool   `json:"needs_financial_assistance"`
	NeedsAccompaniment              bool   `json:"needs_accompaniment"`
}

// NewRequirements returns requirements with a clinic needed.
func NewRequirements() Requirements {
	return Requirements{NeedsClinic: true}
}

// Score weights.
const (
	WeightCoreService     = 10
	WeightOutOfState      = 20
	WeightRecoveryHousing = 15
	WeightChildcare       = 10
	WeightFinancial       = 10
	WeightTravelFunding   = 10
	WeightAccompaniment   = 5
	WeightTargetState     = 15
)

// Score returns how well the resource meets the requirements.
// Each satisfied clause adds its weight.
func Score(r *model.Resource, req Requirements) int {
	var score int

	if r.ProvidesReproductiveHealthcare {
		score += WeightCoreService
	}
	if req.NeedsOutOfStateClinic && r.AcceptsOutOfStatePatients {
		score += WeightOutOfState
	}
	if req.NeedsRecoveryHousing && r.ProvidesRecoveryHousing {
		score += WeightRecoveryHousing
	}
	if req.NeedsChildcareDuringAppointment && r.ChildcareDuringAppointment {
		score += WeightChildcare
	}
	if req.NeedsFinancialAssistance && r.FinancialAssistanceAvailable {
		score += WeightFinancial
	}
	if req.NeedsFinancialAssistance && r.TravelFundingAvailable {
		score += WeightTravelFunding
	}
	if req.NeedsAccompaniment && r.AccompanimentServices {
		score += WeightAccompaniment
	}
	if req.TargetState != "" && r.State == req.TargetState {
		score += WeightTargetState
	}

	return score
}

// A Scored is a resource with its score.
type Scored struct {
	Resource *model.Resource `json:"resource"`
	Score    int             `json:"score"`
}

// Rank returns the resources by descending score.
// Resources with the same score keep their input order.
func Rank(resources []*model.Resource, req Requirements) []Scored {
	ranked := make([]Scored, 0, len(resources))
	for _, r := range resources {
		ranked = append(ranked, Scored{Resource: r, Score: Score(r, req)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
