package domain

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type DonorRecord struct {
	ID               uuid.UUID   `json:"id"`
	Name             string      `json:"name"`
	BloodGroup       BloodGroup  `json:"blood_group"`
	Phone            string      `json:"phone"`
	Gender           Gender      `json:"gender,omitempty"`
	LocationName     string      `json:"location_name,omitempty"`
	Location         *Coordinate `json:"location"`
	Available        bool        `json:"available"`
	LastDonationDate *time.Time  `json:"last_donation_date"`
	CreatedAt        time.Time   `json:"created_at"`
}

// RankedCandidate is a donor with its distance from the search origin. Never persisted.
type RankedCandidate struct {
	Donor      DonorRecord `json:"donor"`
	DistanceKm float64     `json:"distance_km"`
}

type CreateDonorRequest struct {
	Name             string      `json:"name" validate:"required,min=2,max=120"`
	BloodGroup       string      `json:"blood_group" validate:"required,blood_group"`
	Phone            string      `json:"phone" validate:"required,min=5,max=32"`
	Gender           Gender      `json:"gender" validate:"omitempty,oneof=male female other"`
	LocationName     string      `json:"location_name" validate:"max=200"`
	Location         *Coordinate `json:"location"`
	Available        *bool       `json:"available"`
	LastDonationDate *time.Time  `json:"last_donation_date"`
}

type UpdateDonorRequest struct {
	Phone            *string     `json:"phone" validate:"omitempty,min=5,max=32"`
	LocationName     *string     `json:"location_name" validate:"omitempty,max=200"`
	Location         *Coordinate `json:"location"`
	Available        *bool       `json:"available"`
	LastDonationDate *time.Time  `json:"last_donation_date"`
}
