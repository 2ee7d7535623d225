package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"bloodLink/internal/domain"
	"bloodLink/internal/matching"
	"bloodLink/internal/metrics"
	"bloodLink/pkg/e"
)

type requestService struct {
	repo       RequestRepository
	classifier *matching.Classifier
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewRequestService(repo RequestRepository, classifier *matching.Classifier, logger *slog.Logger, m *metrics.Metrics) RequestService {
	return &requestService{repo: repo, classifier: classifier, logger: logger, metrics: m, now: time.Now}
}

func (s *requestService) Create(ctx context.Context, session domain.Session, req domain.CreateBloodRequestRequest) (*domain.BloodRequest, error) {
	group, err := domain.ParseBloodGroup(req.BloodGroup)
	if err != nil {
		return nil, err
	}
	level, err := domain.ParseUrgencyLevel(req.UrgencyLevel)
	if err != nil {
		return nil, err
	}
	if req.UnitsNeeded < 1 || req.UnitsNeeded > 10 {
		return nil, fmt.Errorf("units_needed %d: %w", req.UnitsNeeded, e.ErrInvalidInput)
	}
	if req.Location != nil {
		if err := req.Location.Validate(); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	if !req.RequiredBy.After(now) {
		return nil, fmt.Errorf("required_by must be in the future: %w", e.ErrInvalidInput)
	}
	cls, err := s.classifier.Classify(level, now, now)
	if err != nil {
		return nil, err
	}

	br := &domain.BloodRequest{
		ID:               uuid.New(),
		RequesterID:      session.UserID,
		PatientName:      strings.TrimSpace(req.PatientName),
		BloodGroup:       group,
		UnitsNeeded:      req.UnitsNeeded,
		UrgencyLevel:     level,
		HospitalName:     strings.TrimSpace(req.HospitalName),
		HospitalAddress:  strings.TrimSpace(req.HospitalAddress),
		ContactPerson:    strings.TrimSpace(req.ContactPerson),
		ContactPhone:     strings.TrimSpace(req.ContactPhone),
		MedicalCondition: strings.TrimSpace(req.MedicalCondition),
		AdditionalNotes:  strings.TrimSpace(req.AdditionalNotes),
		RequiredBy:       req.RequiredBy.UTC(),
		Location:         req.Location,
		Priority:         cls.Tier,
		RespondBy:        now.Add(cls.ExpectedResponseWindow),
		CreatedAt:        now,
		Status:           domain.RequestActive,
		Responses:        []domain.DonorResponse{},
	}
	if err := s.repo.SaveRequest(ctx, br); err != nil {
		return nil, err
	}

	s.metrics.RequestCreated("regular", string(level))
	s.logger.Info("blood request posted",
		slog.String("request_id", br.ID.String()),
		slog.String("blood_group", string(group)),
		slog.String("urgency", string(level)),
	)
	return br, nil
}

func (s *requestService) Get(ctx context.Context, id uuid.UUID) (*domain.BloodRequest, error) {
	return s.repo.Get(ctx, id)
}

func (s *requestService) ListActive(ctx context.Context, filter domain.RequestFilter) ([]*domain.BloodRequest, error) {
	if filter.BloodGroup != "" && !filter.BloodGroup.Valid() {
		return nil, e.ErrInvalidBloodGroup
	}
	return s.repo.ListActive(ctx, filter)
}

func (s *requestService) Respond(ctx context.Context, session domain.Session, id uuid.UUID, req domain.RespondRequest) error {
	if session.UserID == "" {
		return e.ErrInvalidUserID
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		phone = session.Phone
	}
	resp := domain.DonorResponse{
		DonorID:     session.UserID,
		DonorName:   session.Name,
		Message:     strings.TrimSpace(req.Message),
		Phone:       phone,
		RespondedAt: s.now().UTC(),
	}
	if err := s.repo.AppendResponse(ctx, id, resp); err != nil {
		return err
	}

	s.metrics.ResponseAdded()
	s.logger.Info("donor responded", slog.String("request_id", id.String()), slog.String("donor_id", session.UserID))
	return nil
}
