package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bloodLink/internal/domain"
	"bloodLink/internal/matching"
	"bloodLink/pkg/e"
)

type adminService struct {
	requests   RequestRepository
	stats      StatsRepository
	classifier *matching.Classifier
	logger     *slog.Logger
	now        func() time.Time
}

func NewAdminService(requests RequestRepository, stats StatsRepository, classifier *matching.Classifier, logger *slog.Logger) AdminService {
	return &adminService{requests: requests, stats: stats, classifier: classifier, logger: logger, now: time.Now}
}

func (s *adminService) ListRequests(ctx context.Context, page, limit int, status domain.RequestStatus) ([]*domain.BloodRequest, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, fmt.Errorf("status %q: %w", status, e.ErrInvalidInput)
	}
	items, total, err := s.requests.List(ctx, page, limit, status)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *adminService) SetRequestStatus(ctx context.Context, id uuid.UUID, status domain.RequestStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q: %w", status, e.ErrInvalidTransition)
	}
	if err := s.requests.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("request status changed", slog.String("request_id", id.String()), slog.String("status", string(status)))
	return nil
}

func (s *adminService) GetStats(ctx context.Context) (*domain.RequestStats, error) {
	byStatus, err := s.stats.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	total, available, err := s.stats.CountDonors(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.requests.ListActive(ctx, domain.RequestFilter{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	var overdue int64
	for _, r := range active {
		cls, err := s.classifier.Classify(r.UrgencyLevel, r.CreatedAt, now)
		if err != nil {
			s.logger.Warn("unclassifiable request", slog.String("request_id", r.ID.String()), slog.Any("error", err))
			continue
		}
		if cls.IsOverdue {
			overdue++
		}
	}

	return &domain.RequestStats{
		ByStatus:        byStatus,
		OverdueActive:   overdue,
		Donors:          total,
		AvailableDonors: available,
	}, nil
}
