package refdata

import "context"

// GlobalHospitals is the cache key for the all-active-hospitals list,
// used when no region has been chosen yet.
const GlobalHospitals = "all"

// Country is a selectable country in the registration flows.
type Country struct {
	ID        string `json:"id"`
	Code      string `json:"country_code"`
	Name      string `json:"country_name_en"`
	PhoneCode string `json:"phone_code,omitempty"`
}

// Region is a region or city within a country.
type Region struct {
	ID        string `json:"id"`
	CountryID string `json:"country_id"`
	Code      string `json:"region_code"`
	Name      string `json:"region_name_en"`
}

// Hospital is a selectable hospital.
type Hospital struct {
	ID       string `json:"id"`
	RegionID string `json:"region_id,omitempty"`
	Code     string `json:"hospital_code"`
	Name     string `json:"hospital_name_en"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Provider fetches geography reference data. An empty regionID asks
// for every active hospital.
type Provider interface {
	Countries(ctx context.Context) ([]Country, error)
	Regions(ctx context.Context, countryID string) ([]Region, error)
	Hospitals(ctx context.Context, regionID string) ([]Hospital, error)
}
