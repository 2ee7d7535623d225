package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bloodLink/internal/domain"
	"bloodLink/pkg/e"
)

// Submit finalizes the draft from Review, persists it and moves to Submitted.
// On any error the draft is left as it was and may be submitted again.
func (w *Workflow) Submit(ctx context.Context) (*domain.BloodRequest, error) {
	const op = "workflow.Workflow.Submit"

	switch w.draft.CurrentStep {
	case domain.StepSubmitted:
		return nil, e.ErrAlreadySubmitted
	case domain.StepReview:
	default:
		return nil, fmt.Errorf("submit from %s: %w", w.draft.CurrentStep, e.ErrInvalidTransition)
	}

	req, err := w.finalize()
	if err != nil {
		return nil, err
	}
	if w.deps.Saver == nil {
		return nil, e.Wrap(op, e.ErrInternal)
	}
	if err := ctx.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	if err := w.deps.Saver.SaveRequest(ctx, req); err != nil {
		return nil, e.Wrap(op, err)
	}

	id := req.ID
	w.draft.SubmittedRequestID = &id
	w.draft.CurrentStep = domain.StepSubmitted
	w.draft.UpdatedAt = req.CreatedAt
	return req, nil
}

func (w *Workflow) finalize() (*domain.BloodRequest, error) {
	d := w.draft

	var missing []string
	for _, step := range []domain.Step{domain.StepPatientInfo, domain.StepMedicalDetails, domain.StepLocationContact} {
		missing = append(missing, missingFields(d, step)...)
	}
	if d.UnitsNeeded < 1 {
		missing = append(missing, "units_needed")
	}
	if d.UrgencyLevel == "" {
		missing = append(missing, "urgency_level")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Step: domain.StepReview, MissingFields: missing}
	}
	if !d.BloodGroup.Valid() {
		return nil, e.ErrInvalidBloodGroup
	}
	if d.Location != nil {
		if err := d.Location.Validate(); err != nil {
			return nil, err
		}
	}

	now := w.deps.Now()
	cls, err := w.deps.Classifier.Classify(d.UrgencyLevel, now, now)
	if err != nil {
		return nil, err
	}

	draftID := d.ID
	var loc *domain.Coordinate
	if d.Location != nil {
		c := *d.Location
		loc = &c
	}
	return &domain.BloodRequest{
		ID:               uuid.New(),
		DraftID:          &draftID,
		RequesterID:      d.OwnerID,
		PatientName:      d.PatientName,
		BloodGroup:       d.BloodGroup,
		UnitsNeeded:      d.UnitsNeeded,
		UrgencyLevel:     d.UrgencyLevel,
		HospitalName:     d.HospitalName,
		HospitalAddress:  d.HospitalAddress,
		ContactPerson:    d.ContactPerson,
		ContactPhone:     d.ContactPhone,
		MedicalCondition: d.MedicalCondition,
		AdditionalNotes:  d.AdditionalNotes,
		RequiredBy:       *d.RequiredBy,
		Location:         loc,
		Priority:         cls.Tier,
		RespondBy:        now.Add(cls.ExpectedResponseWindow),
		CreatedAt:        now,
		Status:           domain.RequestActive,
		Responses:        []domain.DonorResponse{},
	}, nil
}

// SubmitResult is what a PendingSubmission resolves to.
type SubmitResult struct {
	Request *domain.BloodRequest
	Err     error
}

// PendingSubmission is an in-flight Submit. The workflow must not be touched
// until Done is closed.
type PendingSubmission struct {
	done chan struct{}
	res  SubmitResult
}

func (p *PendingSubmission) Done() <-chan struct{} { return p.done }

// Wait blocks until the submission finishes or ctx ends. A ctx error here only
// stops waiting; it does not cancel the submission.
func (p *PendingSubmission) Wait(ctx context.Context) (*domain.BloodRequest, error) {
	select {
	case <-p.done:
		return p.res.Request, p.res.Err
	case <-ctx.Done():
		return nil, e.WrapError(ctx, "workflow.PendingSubmission.Wait", ctx.Err())
	}
}

// SubmitAsync runs Submit in its own goroutine. Cancelling ctx before the write
// commits abandons the submission without side effects.
func (w *Workflow) SubmitAsync(ctx context.Context) *PendingSubmission {
	p := &PendingSubmission{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		req, err := w.Submit(ctx)
		p.res = SubmitResult{Request: req, Err: err}
	}()
	return p
}
