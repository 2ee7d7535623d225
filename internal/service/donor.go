package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"bloodLink/internal/domain"
	"bloodLink/internal/matching"
	"bloodLink/internal/metrics"
	"bloodLink/pkg/e"
)

// DonorPool resolves the full donor list, cache first.
type DonorPool struct {
	repo    DonorRepository
	cache   DonorCache
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewDonorPool(repo DonorRepository, cache DonorCache, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *DonorPool {
	return &DonorPool{repo: repo, cache: cache, ttl: ttl, logger: logger, metrics: m}
}

func (p *DonorPool) All(ctx context.Context) ([]domain.DonorRecord, error) {
	if p.cache != nil {
		donors, err := p.cache.GetAll(ctx)
		switch {
		case err == nil:
			p.metrics.CacheLookup("hit")
			return donors, nil
		case errors.Is(err, e.ErrCacheMiss):
			p.metrics.CacheLookup("miss")
		default:
			p.metrics.CacheLookup("error")
			p.logger.Warn("donor cache read failed, falling back to db", slog.Any("error", err))
		}
	}

	donors, err := p.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		if err := p.cache.SetAll(ctx, donors, p.ttl); err != nil {
			p.logger.Warn("donor cache write failed", slog.Any("error", err))
		}
	}
	return donors, nil
}

// Refresh reloads the pool from the repository and overwrites the cache.
func (p *DonorPool) Refresh(ctx context.Context) (int, error) {
	donors, err := p.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	if p.cache != nil {
		if err := p.cache.SetAll(ctx, donors, p.ttl); err != nil {
			return 0, err
		}
	}
	return len(donors), nil
}

func (p *DonorPool) Invalidate(ctx context.Context) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Invalidate(ctx); err != nil {
		p.logger.Warn("donor cache invalidate failed", slog.Any("error", err))
	}
}

type donorService struct {
	repo     DonorRepository
	pool     *DonorPool
	searcher *matching.Searcher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewDonorService(repo DonorRepository, pool *DonorPool, searcher *matching.Searcher, logger *slog.Logger, m *metrics.Metrics) DonorService {
	return &donorService{repo: repo, pool: pool, searcher: searcher, logger: logger, metrics: m, now: time.Now}
}

func (s *donorService) Register(ctx context.Context, req domain.CreateDonorRequest) (uuid.UUID, error) {
	group, err := domain.ParseBloodGroup(req.BloodGroup)
	if err != nil {
		return uuid.Nil, err
	}
	if req.Location != nil {
		if err := req.Location.Validate(); err != nil {
			return uuid.Nil, err
		}
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	d := &domain.DonorRecord{
		ID:               uuid.New(),
		Name:             strings.TrimSpace(req.Name),
		BloodGroup:       group,
		Phone:            strings.TrimSpace(req.Phone),
		Gender:           req.Gender,
		LocationName:     strings.TrimSpace(req.LocationName),
		Location:         req.Location,
		Available:        available,
		LastDonationDate: req.LastDonationDate,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return uuid.Nil, err
	}
	s.pool.Invalidate(ctx)

	s.logger.Info("donor registered", slog.String("donor_id", d.ID.String()), slog.String("blood_group", string(group)))
	return d.ID, nil
}

func (s *donorService) Get(ctx context.Context, id uuid.UUID) (*domain.DonorRecord, error) {
	return s.repo.Get(ctx, id)
}

func (s *donorService) Update(ctx context.Context, id uuid.UUID, req domain.UpdateDonorRequest) error {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if req.Location != nil {
		if err := req.Location.Validate(); err != nil {
			return err
		}
		d.Location = req.Location
	}
	if req.Phone != nil {
		d.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.LocationName != nil {
		d.LocationName = strings.TrimSpace(*req.LocationName)
	}
	if req.Available != nil {
		d.Available = *req.Available
	}
	if req.LastDonationDate != nil {
		d.LastDonationDate = req.LastDonationDate
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return err
	}
	s.pool.Invalidate(ctx)
	return nil
}

func (s *donorService) Search(ctx context.Context, req domain.DonorSearchRequest) (domain.DonorSearchResponse, error) {
	donors, err := s.pool.All(ctx)
	if err != nil {
		s.logger.Error("donor pool load failed", slog.Any("error", err))
		return domain.DonorSearchResponse{}, err
	}

	res, err := s.searcher.Search(req.Origin, donors, req.Filter, s.now())
	if err != nil {
		return domain.DonorSearchResponse{}, err
	}

	mode := "nearby"
	if res.LocationUnavailable {
		mode = "unbounded"
	}
	s.metrics.ObserveSearch(mode, len(res.Candidates))
	s.logger.Debug("donor search done",
		slog.String("mode", mode),
		slog.Int("pool", len(donors)),
		slog.Int("candidates", len(res.Candidates)),
	)

	return domain.DonorSearchResponse{
		Candidates:          res.Candidates,
		RadiusKm:            res.RadiusKm,
		LocationUnavailable: res.LocationUnavailable,
	}, nil
}
