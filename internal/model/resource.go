package model

// Resource types used by the healthcare journey queries.
const (
	ResourceReproductiveHealthcare = "reproductive_healthcare"
	ResourceRecoveryHousing        = "recovery_housing"
	ResourceChildcare              = "childcare"
	ResourceFinancialAssistance    = "financial_assistance"
	ResourceAccompaniment          = "accompaniment"
)

// A Resource is a catalog entry describing a support organization.
// It is reference data: not user-owned and never sensitive.
type Resource struct {
	Base `msgpack:",inline" storm:"inline"`

	ResourceType     string   `json:"resource_type"     koanf:"resource_type"     msgpack:"resource_type"     storm:"index"`
	OrganizationName string   `json:"organization_name" koanf:"organization_name" msgpack:"organization_name"`
	Phone            string   `json:"phone"             koanf:"phone"             msgpack:"phone,omitempty"`
	Website          string   `json:"website"           koanf:"website"           msgpack:"website,omitempty"`
	Address          string   `json:"address"           koanf:"address"           msgpack:"address,omitempty"`
	City             string   `json:"city"              koanf:"city"              msgpack:"city"`
	State            string   `json:"state"             koanf:"state"             msgpack:"state"             storm:"index"`
	Zip              string   `json:"zip"               koanf:"zip"               msgpack:"zip,omitempty"`
	Latitude         *float64 `json:"latitude"          koanf:"latitude"          msgpack:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude"         koanf:"longitude"         msgpack:"longitude,omitempty"`

	// Identity inclusivity
	ServesLGBTQIA         bool `json:"serves_lgbtqia"          koanf:"serves_lgbtqia"          msgpack:"serves_lgbtqia"`
	TransInclusive        bool `json:"trans_inclusive"         koanf:"trans_inclusive"         msgpack:"trans_inclusive"`
	NonBinaryInclusive    bool `json:"non_binary_inclusive"    koanf:"non_binary_inclusive"    msgpack:"non_binary_inclusive"`
	ServesBIPOC           bool `json:"serves_bipoc"            koanf:"serves_bipoc"            msgpack:"serves_bipoc"`
	CulturallySpecific    bool `json:"culturally_specific"     koanf:"culturally_specific"     msgpack:"culturally_specific"`
	ServesMaleIdentifying bool `json:"serves_male_identifying" koanf:"serves_male_identifying" msgpack:"serves_male_identifying"`
	ServesUndocumented    bool `json:"serves_undocumented"     koanf:"serves_undocumented"     msgpack:"serves_undocumented"`
	ServesDisabled        bool `json:"serves_disabled"         koanf:"serves_disabled"         msgpack:"serves_disabled"`
	ServesDeaf            bool `json:"serves_deaf"             koanf:"serves_deaf"             msgpack:"serves_deaf"`

	// Dependent care
	AcceptsChildren        bool `json:"accepts_children"         koanf:"accepts_children"         msgpack:"accepts_children"`
	AcceptsDependentAdults bool `json:"accepts_dependent_adults" koanf:"accepts_dependent_adults" msgpack:"accepts_dependent_adults"`
	AcceptsPets            bool `json:"accepts_pets"             koanf:"accepts_pets"             msgpack:"accepts_pets"`

	// Vulnerable populations
	ServesPregnant        bool `json:"serves_pregnant"         koanf:"serves_pregnant"         msgpack:"serves_pregnant"`
	ServesSubstanceUse    bool `json:"serves_substance_use"    koanf:"serves_substance_use"    msgpack:"serves_substance_use"`
	ServesTeenDating      bool `json:"serves_teen_dating"      koanf:"serves_teen_dating"      msgpack:"serves_teen_dating"`
	ServesElderAbuse      bool `json:"serves_elder_abuse"      koanf:"serves_elder_abuse"      msgpack:"serves_elder_abuse"`
	ServesTrafficking     bool `json:"serves_trafficking"      koanf:"serves_trafficking"      msgpack:"serves_trafficking"`
	ServesTBI             bool `json:"serves_tbi"              koanf:"serves_tbi"              msgpack:"serves_tbi"`
	AcceptsCriminalRecord bool `json:"accepts_criminal_record" koanf:"accepts_criminal_record" msgpack:"accepts_criminal_record"`

	// Transportation
	ProvidesTransportation   bool `json:"provides_transportation"     koanf:"provides_transportation"     msgpack:"provides_transportation"`
	OffersVirtualServices    bool `json:"offers_virtual_services"     koanf:"offers_virtual_services"     msgpack:"offers_virtual_services"`
	GasVoucherProgram        bool `json:"gas_voucher_program"         koanf:"gas_voucher_program"         msgpack:"gas_voucher_program"`
	GreyhoundHomeFreePartner bool `json:"greyhound_home_free_partner" koanf:"greyhound_home_free_partner" msgpack:"greyhound_home_free_partner"`

	// Reproductive healthcare journey
	ProvidesReproductiveHealthcare bool `json:"provides_reproductive_healthcare" koanf:"provides_reproductive_healthcare" msgpack:"provides_reproductive_healthcare"`
	AcceptsOutOfStatePatients      bool `json:"accepts_out_of_state_patients"    koanf:"accepts_out_of_state_patients"    msgpack:"accepts_out_of_state_patients"`
	ProvidesRecoveryHousing        bool `json:"provides_recovery_housing"        koanf:"provides_recovery_housing"        msgpack:"provides_recovery_housing"`
	ChildcareDuringAppointment     bool `json:"childcare_during_appointment"     koanf:"childcare_during_appointment"     msgpack:"childcare_during_appointment"`
	ChildcareDuringRecovery        bool `json:"childcare_during_recovery"        koanf:"childcare_during_recovery"        msgpack:"childcare_during_recovery"`
	FinancialAssistanceAvailable   bool `json:"financial_assistance_available"   koanf:"financial_assistance_available"   msgpack:"financial_assistance_available"`
	TravelFundingAvailable         bool `json:"travel_funding_available"         koanf:"travel_funding_available"         msgpack:"travel_funding_available"`
	AccompanimentServices          bool `json:"accompaniment_services"           koanf:"accompaniment_services"           msgpack:"accompaniment_services"`
}

// ProvidesAnyTransportation returns true if the resource satisfies a transportation need.
func (r *Resource) ProvidesAnyTransportation() bool {
	return r.ProvidesTransportation || r.OffersVirtualServices || r.GasVoucherProgram || r.GreyhoundHomeFreePartner
}
