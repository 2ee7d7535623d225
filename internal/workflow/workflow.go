package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bloodLink/internal/domain"
	"bloodLink/internal/matching"
	"bloodLink/pkg/e"
)

// RequestSaver persists a finalized request. Implementations must write all or nothing.
type RequestSaver interface {
	SaveRequest(ctx context.Context, req *domain.BloodRequest) error
}

type Deps struct {
	Ranker     *matching.Ranker
	Classifier *matching.Classifier
	Saver      RequestSaver
	Pool       []domain.DonorRecord
	RadiusKm   float64
	Now        func() time.Time
}

// Workflow drives one emergency draft through its steps. It is not safe for
// concurrent use; callers serialize calls per draft.
type Workflow struct {
	draft *domain.EmergencyDraft
	deps  Deps
}

// Start opens a new draft for the session, prefilling the contact fields.
func Start(session domain.Session, origin *domain.Coordinate, deps Deps) (*Workflow, error) {
	if origin != nil {
		if err := origin.Validate(); err != nil {
			return nil, err
		}
	}
	w := &Workflow{deps: withDefaults(deps)}
	now := w.deps.Now()
	w.draft = &domain.EmergencyDraft{
		ID:            uuid.New(),
		OwnerID:       session.UserID,
		UnitsNeeded:   1,
		UrgencyLevel:  domain.UrgencyCritical,
		ContactPerson: session.Name,
		ContactPhone:  session.Phone,
		Location:      origin,
		CurrentStep:   domain.StepPatientInfo,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return w, nil
}

// Resume wraps a stored draft.
func Resume(draft *domain.EmergencyDraft, deps Deps) *Workflow {
	return &Workflow{draft: draft, deps: withDefaults(deps)}
}

func withDefaults(d Deps) Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Ranker == nil {
		d.Ranker = matching.NewRanker(matching.Compatibility{}, nil)
	}
	if d.Classifier == nil {
		// the default policy always validates
		d.Classifier, _ = matching.NewClassifier(nil)
	}
	if d.RadiusKm <= 0 {
		d.RadiusKm = 10
	}
	return d
}

func (w *Workflow) Draft() *domain.EmergencyDraft { return w.draft }

func (w *Workflow) Step() domain.Step { return w.draft.CurrentStep }

// Update applies non-nil patch fields. Nothing is changed if any field is invalid.
// Past MedicalDetails a new blood group or location re-ranks the candidates
// against Deps.Pool.
func (w *Workflow) Update(p domain.DraftPatch) error {
	if w.draft.CurrentStep == domain.StepSubmitted {
		return e.ErrAlreadySubmitted
	}

	next := *w.draft
	if p.PatientName != nil {
		next.PatientName = strings.TrimSpace(*p.PatientName)
	}
	if p.BloodGroup != nil {
		g, err := domain.ParseBloodGroup(*p.BloodGroup)
		if err != nil {
			return err
		}
		next.BloodGroup = g
	}
	if p.UnitsNeeded != nil {
		if *p.UnitsNeeded < 1 {
			return fmt.Errorf("units_needed %d: %w", *p.UnitsNeeded, e.ErrInvalidInput)
		}
		next.UnitsNeeded = *p.UnitsNeeded
	}
	if p.UrgencyLevel != nil {
		l, err := domain.ParseUrgencyLevel(*p.UrgencyLevel)
		if err != nil {
			return err
		}
		next.UrgencyLevel = l
	}
	if p.Location != nil {
		if err := p.Location.Validate(); err != nil {
			return err
		}
		loc := *p.Location
		next.Location = &loc
	}
	if p.RequiredBy != nil {
		rb := *p.RequiredBy
		next.RequiredBy = &rb
	}
	assign(&next.HospitalName, p.HospitalName)
	assign(&next.HospitalAddress, p.HospitalAddress)
	assign(&next.ContactPerson, p.ContactPerson)
	assign(&next.ContactPhone, p.ContactPhone)
	assign(&next.MedicalCondition, p.MedicalCondition)
	assign(&next.AdditionalNotes, p.AdditionalNotes)

	if next.CurrentStep > domain.StepMedicalDetails && matchInputsChanged(w.draft, &next) {
		candidates, unavailable, err := w.findCandidates(&next)
		if err != nil {
			return err
		}
		next.Candidates = candidates
		next.LocationUnavailable = unavailable
	}

	next.UpdatedAt = w.deps.Now()
	*w.draft = next
	return nil
}

func matchInputsChanged(prev, next *domain.EmergencyDraft) bool {
	if prev.BloodGroup != next.BloodGroup {
		return true
	}
	if (prev.Location == nil) != (next.Location == nil) {
		return true
	}
	return prev.Location != nil && *prev.Location != *next.Location
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// Next validates the current step and advances one step. From Review it submits.
func (w *Workflow) Next(ctx context.Context) error {
	switch w.draft.CurrentStep {
	case domain.StepSubmitted:
		return e.ErrAlreadySubmitted
	case domain.StepReview:
		_, err := w.Submit(ctx)
		return err
	}

	if missing := missingFields(w.draft, w.draft.CurrentStep); len(missing) > 0 {
		return &ValidationError{Step: w.draft.CurrentStep, MissingFields: missing}
	}

	candidates := w.draft.Candidates
	unavailable := w.draft.LocationUnavailable
	if w.draft.CurrentStep == domain.StepMedicalDetails && w.draft.BloodGroup != "" {
		var err error
		candidates, unavailable, err = w.findCandidates(w.draft)
		if err != nil {
			return err
		}
	}

	w.draft.Candidates = candidates
	w.draft.LocationUnavailable = unavailable
	w.draft.CurrentStep++
	w.draft.UpdatedAt = w.deps.Now()
	return nil
}

func (w *Workflow) Back() error {
	switch w.draft.CurrentStep {
	case domain.StepPatientInfo:
		return fmt.Errorf("back from %s: %w", w.draft.CurrentStep, e.ErrInvalidTransition)
	case domain.StepSubmitted:
		return fmt.Errorf("back from %s: %w", w.draft.CurrentStep, e.ErrInvalidTransition)
	}
	w.draft.CurrentStep--
	w.draft.UpdatedAt = w.deps.Now()
	return nil
}

func (w *Workflow) findCandidates(d *domain.EmergencyDraft) ([]domain.RankedCandidate, bool, error) {
	if d.Location == nil {
		return w.deps.Ranker.RankUnbounded(w.deps.Pool, d.BloodGroup), true, nil
	}
	ranked, err := w.deps.Ranker.RankNearby(d.Location, w.deps.Pool, w.deps.RadiusKm, d.BloodGroup)
	if err != nil {
		return nil, false, err
	}
	return ranked, false, nil
}

var stepFields = map[domain.Step][]string{
	domain.StepPatientInfo:     {"patient_name", "blood_group"},
	domain.StepMedicalDetails:  {"medical_condition", "required_by"},
	domain.StepLocationContact: {"hospital_name", "hospital_address", "contact_person", "contact_phone"},
}

func missingFields(d *domain.EmergencyDraft, step domain.Step) []string {
	var missing []string
	for _, f := range stepFields[step] {
		if isEmpty(d, f) {
			missing = append(missing, f)
		}
	}
	return missing
}

func isEmpty(d *domain.EmergencyDraft, field string) bool {
	switch field {
	case "patient_name":
		return strings.TrimSpace(d.PatientName) == ""
	case "blood_group":
		return d.BloodGroup == ""
	case "medical_condition":
		return strings.TrimSpace(d.MedicalCondition) == ""
	case "required_by":
		return d.RequiredBy == nil || d.RequiredBy.IsZero()
	case "hospital_name":
		return strings.TrimSpace(d.HospitalName) == ""
	case "hospital_address":
		return strings.TrimSpace(d.HospitalAddress) == ""
	case "contact_person":
		return strings.TrimSpace(d.ContactPerson) == ""
	case "contact_phone":
		return strings.TrimSpace(d.ContactPhone) == ""
	}
	return false
}
