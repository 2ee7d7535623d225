package domain

type Availability string

const (
	AvailabilityAll         Availability = "all"
	AvailabilityAvailable   Availability = "available"
	AvailabilityUnavailable Availability = "unavailable"
)

type DonationWindow string

const (
	DonationAny      DonationWindow = "any"
	DonationRecent   DonationWindow = "recent"   // donated within the deferral interval
	DonationEligible DonationWindow = "eligible" // never donated or deferral interval has passed
)

// DonorFilter holds the typed search criteria. Zero values mean "no constraint",
// except RadiusKm which falls back to the configured default.
type DonorFilter struct {
	BloodGroup   BloodGroup     `json:"blood_group,omitempty" validate:"omitempty,blood_group"`
	Compatible   bool           `json:"compatible"`
	RadiusKm     float64        `json:"radius_km,omitempty" validate:"omitempty,radius_km"`
	Availability Availability   `json:"availability,omitempty" validate:"omitempty,oneof=all available unavailable"`
	Gender       Gender         `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	LastDonation DonationWindow `json:"last_donation,omitempty" validate:"omitempty,oneof=any recent eligible"`
	Query        string         `json:"query,omitempty" validate:"max=100"`
}

type DonorSearchRequest struct {
	Origin *Coordinate `json:"origin"`
	Filter DonorFilter `json:"filter"`
}

type DonorSearchResponse struct {
	Candidates          []RankedCandidate `json:"candidates"`
	RadiusKm            float64           `json:"radius_km"`
	LocationUnavailable bool              `json:"location_unavailable"`
}
