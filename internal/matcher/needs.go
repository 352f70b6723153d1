package matcher

import "github.com/mdouchement/safehaven/internal/model"

// Needs are the intersectional filter flags of a catalog query.
// An unset flag does not filter, a set flag requires the resource to satisfy it.
type Needs struct {
	LGBTQIA         bool `json:"lgbtqia"`
	Trans           bool `json:"trans"`
	NonBinary       bool `json:"non_binary"`
	BIPOC           bool `json:"bipoc"`
	MaleIdentifying bool `json:"male_identifying"`
	Undocumented    bool `json:"undocumented"`
	Disabled        bool `json:"disabled"`
	Deaf            bool `json:"deaf"`
	Children        bool `json:"children"`
	DependentAdults bool `json:"dependent_adults"`
	Pets            bool `json:"pets"`
	Pregnant        bool `json:"pregnant"`
	SubstanceUse    bool `json:"substance_use"`
	TeenDating      bool `json:"teen_dating"`
	ElderAbuse      bool `json:"elder_abuse"`
	Trafficking     bool `json:"trafficking"`
	TBI             bool `json:"tbi"`
	CriminalRecord  bool `json:"criminal_record"`
	Transportation  bool `json:"transportation"`
}

// NeedsOf returns the filter flags of the given survivor profile.
func NeedsOf(p *model.SurvivorProfile) Needs {
	if p == nil {
		return Needs{}
	}

	return Needs{
		LGBTQIA:         p.LGBTQIA,
		Trans:           p.Trans,
		NonBinary:       p.NonBinary,
		BIPOC:           p.BIPOC,
		MaleIdentifying: p.MaleIdentified,
		Undocumented:    p.Undocumented,
		Disabled:        p.Disabled,
		Deaf:            p.Deaf,
		Children:        p.HasChildren,
		DependentAdults: p.HasDependentAdults,
		Pets:            p.HasPets,
		Pregnant:        p.Pregnant,
		SubstanceUse:    p.SubstanceUse,
		TeenDating:      p.Teen,
		ElderAbuse:      p.Elder,
		Trafficking:     p.TraffickingSurvivor,
		TBI:             p.TBI,
		CriminalRecord:  p.CriminalRecord,
		Transportation:  p.NeedsTransportation,
	}
}

// Flags returns the Resource fields required by the needs.
// Transportation is not a single field and is left out.
func (n Needs) Flags() []string {
	flags := []string{}
	add := func(set bool, field string) {
		if set {
			flags = append(flags, field)
		}
	}

	add(n.LGBTQIA, "ServesLGBTQIA")
	add(n.Trans, "TransInclusive")
	add(n.NonBinary, "NonBinaryInclusive")
	add(n.BIPOC, "ServesBIPOC")
	add(n.MaleIdentifying, "ServesMaleIdentifying")
	add(n.Undocumented, "ServesUndocumented")
	add(n.Disabled, "ServesDisabled")
	add(n.Deaf, "ServesDeaf")
	add(n.Children, "AcceptsChildren")
	add(n.DependentAdults, "AcceptsDependentAdults")
	add(n.Pets, "AcceptsPets")
	add(n.Pregnant, "ServesPregnant")
	add(n.SubstanceUse, "ServesSubstanceUse")
	add(n.TeenDating, "ServesTeenDating")
	add(n.ElderAbuse, "ServesElderAbuse")
	add(n.Trafficking, "ServesTrafficking")
	add(n.TBI, "ServesTBI")
	add(n.CriminalRecord, "AcceptsCriminalRecord")

	return flags
}

// Satisfied returns true if the resource meets every set flag.
func (n Needs) Satisfied(r *model.Resource) bool {
	return (!n.LGBTQIA || r.ServesLGBTQIA) &&
		(!n.Trans || r.TransInclusive) &&
		(!n.NonBinary || r.NonBinaryInclusive) &&
		(!n.BIPOC || r.ServesBIPOC) &&
		(!n.MaleIdentifying || r.ServesMaleIdentifying) &&
		(!n.Undocumented || r.ServesUndocumented) &&
		(!n.Disabled || r.ServesDisabled) &&
		(!n.Deaf || r.ServesDeaf) &&
		(!n.Children || r.AcceptsChildren) &&
		(!n.DependentAdults || r.AcceptsDependentAdults) &&
		(!n.Pets || r.AcceptsPets) &&
		(!n.Pregnant || r.ServesPregnant) &&
		(!n.SubstanceUse || r.ServesSubstanceUse) &&
		(!n.TeenDating || r.ServesTeenDating) &&
		(!n.ElderAbuse || r.ServesElderAbuse) &&
		(!n.Trafficking || r.ServesTrafficking) &&
		(!n.TBI || r.ServesTBI) &&
		(!n.CriminalRecord || r.AcceptsCriminalRecord) &&
		(!n.Transportation || r.ProvidesAnyTransportation())
}
