package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bloodLink/internal/domain"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go

// Use-cases exposed to the HTTP layer.

type DonorService interface {
	Register(ctx context.Context, req domain.CreateDonorRequest) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.DonorRecord, error)
	Update(ctx context.Context, id uuid.UUID, req domain.UpdateDonorRequest) error
	Search(ctx context.Context, req domain.DonorSearchRequest) (domain.DonorSearchResponse, error)
}

type RequestService interface {
	Create(ctx context.Context, s domain.Session, req domain.CreateBloodRequestRequest) (*domain.BloodRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.BloodRequest, error)
	ListActive(ctx context.Context, filter domain.RequestFilter) ([]*domain.BloodRequest, error)
	Respond(ctx context.Context, s domain.Session, id uuid.UUID, req domain.RespondRequest) error
}

type EmergencyService interface {
	Start(ctx context.Context, s domain.Session, req domain.StartEmergencyRequest) (*domain.EmergencyDraft, error)
	Get(ctx context.Context, s domain.Session, id uuid.UUID) (*domain.EmergencyDraft, error)
	Update(ctx context.Context, s domain.Session, id uuid.UUID, patch domain.DraftPatch) (*domain.EmergencyDraft, error)
	Next(ctx context.Context, s domain.Session, id uuid.UUID) (*domain.EmergencyDraft, error)
	Back(ctx context.Context, s domain.Session, id uuid.UUID) (*domain.EmergencyDraft, error)
	Submit(ctx context.Context, s domain.Session, id uuid.UUID) (*domain.BloodRequest, error)
	Abandon(ctx context.Context, s domain.Session, id uuid.UUID) error
}

type AdminService interface {
	ListRequests(ctx context.Context, page, limit int, status domain.RequestStatus) ([]*domain.BloodRequest, int64, error)
	SetRequestStatus(ctx context.Context, id uuid.UUID, status domain.RequestStatus) error
	GetStats(ctx context.Context) (*domain.RequestStats, error)
}

// Storage ports.

type DonorRepository interface {
	Create(ctx context.Context, donor *domain.DonorRecord) error
	Get(ctx context.Context, id uuid.UUID) (*domain.DonorRecord, error)
	Update(ctx context.Context, donor *domain.DonorRecord) error
	ListAll(ctx context.Context) ([]domain.DonorRecord, error)
}

// DonorCache holds the whole donor pool. GetAll returns e.ErrCacheMiss when empty.
type DonorCache interface {
	GetAll(ctx context.Context) ([]domain.DonorRecord, error)
	SetAll(ctx context.Context, donors []domain.DonorRecord, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type RequestRepository interface {
	SaveRequest(ctx context.Context, req *domain.BloodRequest) error
	Get(ctx context.Context, id uuid.UUID) (*domain.BloodRequest, error)
	ListActive(ctx context.Context, filter domain.RequestFilter) ([]*domain.BloodRequest, error)
	List(ctx context.Context, page, limit int, status domain.RequestStatus) ([]*domain.BloodRequest, int64, error)
	AppendResponse(ctx context.Context, id uuid.UUID, resp domain.DonorResponse) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RequestStatus) error
}

type DraftStore interface {
	Save(ctx context.Context, draft *domain.EmergencyDraft, ttl time.Duration) error
	Get(ctx context.Context, id uuid.UUID) (*domain.EmergencyDraft, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Lock takes a short-lived exclusive hold on a draft. It reports false
	// when someone else holds it.
	Lock(ctx context.Context, id uuid.UUID, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, id uuid.UUID) error
}

type StatsRepository interface {
	CountByStatus(ctx context.Context) (map[domain.RequestStatus]int64, error)
	CountDonors(ctx context.Context) (total, available int64, err error)
}

type Service struct {
	DonorService     DonorService
	RequestService   RequestService
	EmergencyService EmergencyService
	AdminService     AdminService
}

func NewService(
	donorService DonorService,
	requestService RequestService,
	emergencyService EmergencyService,
	adminService AdminService,
) *Service {
	return &Service{
		DonorService:     donorService,
		RequestService:   requestService,
		EmergencyService: emergencyService,
		AdminService:     adminService,
	}
}
