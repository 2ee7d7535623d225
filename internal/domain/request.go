package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"bloodLink/pkg/e"
)

type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "critical"
	UrgencyUrgent   UrgencyLevel = "urgent"
	UrgencyModerate UrgencyLevel = "moderate"
	UrgencyRoutine  UrgencyLevel = "routine"
)

var AllUrgencyLevels = []UrgencyLevel{UrgencyCritical, UrgencyUrgent, UrgencyModerate, UrgencyRoutine}

func ParseUrgencyLevel(in string) (UrgencyLevel, error) {
	l := UrgencyLevel(strings.ToLower(strings.TrimSpace(in)))
	if l.Valid() {
		return l, nil
	}
	return "", e.ErrInvalidUrgency
}

func (l UrgencyLevel) Valid() bool {
	switch l {
	case UrgencyCritical, UrgencyUrgent, UrgencyModerate, UrgencyRoutine:
		return true
	default:
		return false
	}
}

type RequestStatus string

const (
	RequestDraft     RequestStatus = "draft"
	RequestActive    RequestStatus = "active"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestExpired   RequestStatus = "expired"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestDraft, RequestActive, RequestFulfilled, RequestExpired:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a request may move from s to next.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	switch s {
	case RequestDraft:
		return next == RequestActive
	case RequestActive:
		return next == RequestFulfilled || next == RequestExpired
	default:
		return false
	}
}

func (s RequestStatus) Terminal() bool {
	return s == RequestFulfilled || s == RequestExpired
}

// DonorResponse is append-only; it is never edited after being stored.
type DonorResponse struct {
	DonorID     string    `json:"donor_id"`
	DonorName   string    `json:"donor_name"`
	Message     string    `json:"message"`
	Phone       string    `json:"phone"`
	RespondedAt time.Time `json:"responded_at"`
}

type BloodRequest struct {
	ID               uuid.UUID       `json:"id"`
	DraftID          *uuid.UUID      `json:"draft_id,omitempty"`
	RequesterID      string          `json:"requester_id"`
	PatientName      string          `json:"patient_name"`
	BloodGroup       BloodGroup      `json:"blood_group"`
	UnitsNeeded      int             `json:"units_needed"`
	UrgencyLevel     UrgencyLevel    `json:"urgency_level"`
	HospitalName     string          `json:"hospital_name"`
	HospitalAddress  string          `json:"hospital_address"`
	ContactPerson    string          `json:"contact_person"`
	ContactPhone     string          `json:"contact_phone"`
	MedicalCondition string          `json:"medical_condition"`
	AdditionalNotes  string          `json:"additional_notes,omitempty"`
	RequiredBy       time.Time       `json:"required_by"`
	Location         *Coordinate     `json:"location"`
	Priority         int             `json:"priority"`
	RespondBy        time.Time       `json:"respond_by"`
	CreatedAt        time.Time       `json:"created_at"`
	Status           RequestStatus   `json:"status"`
	Responses        []DonorResponse `json:"responses"`
}

type CreateBloodRequestRequest struct {
	PatientName      string      `json:"patient_name" validate:"required,min=2,max=120"`
	BloodGroup       string      `json:"blood_group" validate:"required,blood_group"`
	UnitsNeeded      int         `json:"units_needed" validate:"required,min=1,max=10"`
	UrgencyLevel     string      `json:"urgency_level" validate:"required,oneof=critical urgent moderate routine"`
	HospitalName     string      `json:"hospital_name" validate:"required,max=200"`
	HospitalAddress  string      `json:"hospital_address" validate:"required,max=300"`
	ContactPerson    string      `json:"contact_person" validate:"required,max=120"`
	ContactPhone     string      `json:"contact_phone" validate:"required,min=5,max=32"`
	MedicalCondition string      `json:"medical_condition" validate:"required,max=500"`
	AdditionalNotes  string      `json:"additional_notes" validate:"max=1000"`
	RequiredBy       time.Time   `json:"required_by" validate:"required"`
	Location         *Coordinate `json:"location"`
}

// RequestFilter narrows the public request board.
type RequestFilter struct {
	BloodGroup BloodGroup
	Location   string     // substring of hospital name or address, case-insensitive
	Since      *time.Time // only requests created at or after Since
}

type RespondRequest struct {
	Message string `json:"message" validate:"required,max=500"`
	Phone   string `json:"phone" validate:"max=32"`
}

type UpdateRequestStatusRequest struct {
	Status RequestStatus `json:"status" validate:"required,oneof=fulfilled expired"`
}

type ListRequestsResponse struct {
	Requests []*BloodRequest `json:"requests"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
	Total    int64           `json:"total"`
}
