package model

// A SurvivorProfile holds the optional intersectional attributes used as matcher input.
type SurvivorProfile struct {
	Base `msgpack:",inline" storm:"inline"`

	UserID string `json:"-" msgpack:"user_id" storm:"unique"`

	// Identity
	LGBTQIA        bool `json:"lgbtqia" msgpack:"lgbtqia"`
	Trans          bool `json:"trans" msgpack:"trans"`
	NonBinary      bool `json:"non_binary" msgpack:"non_binary"`
	BIPOC          bool `json:"bipoc" msgpack:"bipoc"`
	MaleIdentified bool `json:"male_identified" msgpack:"male_identified"`
	Undocumented   bool `json:"undocumented" msgpack:"undocumented"`
	Disabled       bool `json:"disabled" msgpack:"disabled"`
	Deaf           bool `json:"deaf" msgpack:"deaf"`

	// Dependents
	HasChildren        bool `json:"has_children" msgpack:"has_children"`
	HasDependentAdults bool `json:"has_dependent_adults" msgpack:"has_dependent_adults"`
	HasPets            bool `json:"has_pets" msgpack:"has_pets"`

	// Situation
	Pregnant            bool `json:"pregnant" msgpack:"pregnant"`
	SubstanceUse        bool `json:"substance_use" msgpack:"substance_use"`
	Teen                bool `json:"teen" msgpack:"teen"`
	Elder               bool `json:"elder" msgpack:"elder"`
	TraffickingSurvivor bool `json:"trafficking_survivor" msgpack:"trafficking_survivor"`
	TBI                 bool `json:"tbi" msgpack:"tbi"`
	CriminalRecord      bool `json:"criminal_record" msgpack:"criminal_record"`
	NeedsTransportation bool `json:"needs_transportation" msgpack:"needs_transportation"`
}

// Owner implements Owned.
func (p *SurvivorProfile) Owner() string {
	return p.UserID
}
