package domain

import (
	"time"

	"github.com/google/uuid"
)

// Step is a position in the emergency request workflow.
type Step int

const (
	StepPatientInfo Step = iota
	StepMedicalDetails
	StepLocationContact
	StepReview
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepPatientInfo:
		return "patient_info"
	case StepMedicalDetails:
		return "medical_details"
	case StepLocationContact:
		return "location_contact"
	case StepReview:
		return "review"
	case StepSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Session is the caller identity handed over by the identity provider.
type Session struct {
	UserID string
	Name   string
	Phone  string
}

// EmergencyDraft is the in-progress state of one emergency request.
type EmergencyDraft struct {
	ID                  uuid.UUID         `json:"id"`
	OwnerID             string            `json:"owner_id"`
	PatientName         string            `json:"patient_name"`
	BloodGroup          BloodGroup        `json:"blood_group"`
	UnitsNeeded         int               `json:"units_needed"`
	UrgencyLevel        UrgencyLevel      `json:"urgency_level"`
	HospitalName        string            `json:"hospital_name"`
	HospitalAddress     string            `json:"hospital_address"`
	ContactPerson       string            `json:"contact_person"`
	ContactPhone        string            `json:"contact_phone"`
	MedicalCondition    string            `json:"medical_condition"`
	AdditionalNotes     string            `json:"additional_notes"`
	RequiredBy          *time.Time        `json:"required_by"`
	Location            *Coordinate       `json:"location"`
	CurrentStep         Step              `json:"current_step"`
	Candidates          []RankedCandidate `json:"candidates"`
	LocationUnavailable bool              `json:"location_unavailable"`
	SubmittedRequestID  *uuid.UUID        `json:"submitted_request_id,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

type StartEmergencyRequest struct {
	Location *Coordinate `json:"location"`
}

// DraftPatch carries field edits; nil fields are left untouched.
type DraftPatch struct {
	PatientName      *string     `json:"patient_name" validate:"omitempty,max=120"`
	BloodGroup       *string     `json:"blood_group" validate:"omitempty,blood_group"`
	UnitsNeeded      *int        `json:"units_needed" validate:"omitempty,min=1,max=10"`
	UrgencyLevel     *string     `json:"urgency_level" validate:"omitempty,oneof=critical urgent moderate routine"`
	HospitalName     *string     `json:"hospital_name" validate:"omitempty,max=200"`
	HospitalAddress  *string     `json:"hospital_address" validate:"omitempty,max=300"`
	ContactPerson    *string     `json:"contact_person" validate:"omitempty,max=120"`
	ContactPhone     *string     `json:"contact_phone" validate:"omitempty,max=32"`
	MedicalCondition *string     `json:"medical_condition" validate:"omitempty,max=500"`
	AdditionalNotes  *string     `json:"additional_notes" validate:"omitempty,max=1000"`
	RequiredBy       *time.Time  `json:"required_by"`
	Location         *Coordinate `json:"location"`
}
