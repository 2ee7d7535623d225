package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bloodLink/internal/domain"
	"bloodLink/internal/matching"
	"bloodLink/internal/metrics"
	"bloodLink/internal/workflow"
	"bloodLink/pkg/e"
)

type EmergencyOptions struct {
	RadiusKm      float64
	DraftTTL      time.Duration
	SubmitTimeout time.Duration
}

type emergencyService struct {
	drafts     DraftStore
	requests   RequestRepository
	pool       *DonorPool
	ranker     *matching.Ranker
	classifier *matching.Classifier
	opts       EmergencyOptions
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewEmergencyService(
	drafts DraftStore,
	requests RequestRepository,
	pool *DonorPool,
	ranker *matching.Ranker,
	classifier *matching.Classifier,
	opts EmergencyOptions,
	logger *slog.Logger,
	m *metrics.Metrics,
) EmergencyService {
	if opts.DraftTTL <= 0 {
		opts.DraftTTL = 24 * time.Hour
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = 10 * time.Second
	}
	return &emergencyService{
		drafts:     drafts,
		requests:   requests,
		pool:       pool,
		ranker:     ranker,
		classifier: classifier,
		opts:       opts,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

func (s *emergencyService) deps(pool []domain.DonorRecord) workflow.Deps {
	return workflow.Deps{
		Ranker:     s.ranker,
		Classifier: s.classifier,
		Saver:      s.requests,
		Pool:       pool,
		RadiusKm:   s.opts.RadiusKm,
		Now:        func() time.Time { return s.now().UTC() },
	}
}

func (s *emergencyService) Start(ctx context.Context, session domain.Session, req domain.StartEmergencyRequest) (*domain.EmergencyDraft, error) {
	if session.UserID == "" {
		return nil, e.ErrInvalidUserID
	}
	wf, err := workflow.Start(session, req.Location, s.deps(nil))
	if err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, wf.Draft(), s.opts.DraftTTL); err != nil {
		return nil, err
	}

	s.logger.Info("emergency draft started",
		slog.String("draft_id", wf.Draft().ID.String()),
		slog.String("user_id", session.UserID),
		slog.Bool("has_location", req.Location != nil),
	)
	return wf.Draft(), nil
}

func (s *emergencyService) load(ctx context.Context, session domain.Session, id uuid.UUID) (*domain.EmergencyDraft, error) {
	if session.UserID == "" {
		return nil, e.ErrInvalidUserID
	}
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.OwnerID != session.UserID {
		return nil, e.ErrNotFound
	}
	return d, nil
}

func (s *emergencyService) Get(ctx context.Context, session domain.Session, id uuid.UUID) (*domain.EmergencyDraft, error) {
	return s.load(ctx, session, id)
}

// withDraft runs fn on the caller's draft while holding its lock, so two
// mutations of one draft never interleave.
func (s *emergencyService) withDraft(ctx context.Context, session domain.Session, id uuid.UUID, fn func(d *domain.EmergencyDraft) error) error {
	if session.UserID == "" {
		return e.ErrInvalidUserID
	}
	ok, err := s.drafts.Lock(ctx, id, s.lockTTL())
	if err != nil {
		return err
	}
	if !ok {
		return e.Wrap("draft "+id.String()+" is busy", e.ErrConflict)
	}
	defer func() {
		if err := s.drafts.Unlock(context.WithoutCancel(ctx), id); err != nil {
			s.logger.Warn("draft unlock failed", slog.String("draft_id", id.String()), slog.Any("error", err))
		}
	}()

	d, err := s.load(ctx, session, id)
	if err != nil {
		return err
	}
	return fn(d)
}

// lockTTL outlives the longest submit, which may finish after the caller leaves.
func (s *emergencyService) lockTTL() time.Duration {
	return 2*s.opts.SubmitTimeout + 5*time.Second
}

func (s *emergencyService) Update(ctx context.Context, session domain.Session, id uuid.UUID, patch domain.DraftPatch) (*domain.EmergencyDraft, error) {
	var out *domain.EmergencyDraft
	err := s.withDraft(ctx, session, id, func(d *domain.EmergencyDraft) error {
		var pool []domain.DonorRecord
		if d.CurrentStep > domain.StepMedicalDetails && (patch.BloodGroup != nil || patch.Location != nil) {
			var err error
			if pool, err = s.pool.All(ctx); err != nil {
				return err
			}
		}
		wf := workflow.Resume(d, s.deps(pool))
		if err := wf.Update(patch); err != nil {
			return err
		}
		if err := s.drafts.Save(ctx, wf.Draft(), s.opts.DraftTTL); err != nil {
			return err
		}
		out = wf.Draft()
		return nil
	})
	return out, err
}

func (s *emergencyService) Next(ctx context.Context, session domain.Session, id uuid.UUID) (*domain.EmergencyDraft, error) {
	var out *domain.EmergencyDraft
	err := s.withDraft(ctx, session, id, func(d *domain.EmergencyDraft) error {
		var pool []domain.DonorRecord
		if d.CurrentStep == domain.StepMedicalDetails {
			var err error
			if pool, err = s.pool.All(ctx); err != nil {
				return err
			}
		}

		wf := workflow.Resume(d, s.deps(pool))
		if d.CurrentStep == domain.StepReview {
			if _, err := s.submit(ctx, wf); err != nil {
				return err
			}
			out = wf.Draft()
			return nil
		}

		err := wf.Next(ctx)
		s.metrics.Transition("next", err)
		if err != nil {
			return err
		}
		if err := s.drafts.Save(ctx, wf.Draft(), s.opts.DraftTTL); err != nil {
			return err
		}
		out = wf.Draft()
		return nil
	})
	return out, err
}

func (s *emergencyService) Back(ctx context.Context, session domain.Session, id uuid.UUID) (*domain.EmergencyDraft, error) {
	var out *domain.EmergencyDraft
	err := s.withDraft(ctx, session, id, func(d *domain.EmergencyDraft) error {
		wf := workflow.Resume(d, s.deps(nil))
		err := wf.Back()
		s.metrics.Transition("back", err)
		if err != nil {
			return err
		}
		if err := s.drafts.Save(ctx, wf.Draft(), s.opts.DraftTTL); err != nil {
			return err
		}
		out = wf.Draft()
		return nil
	})
	return out, err
}

func (s *emergencyService) Submit(ctx context.Context, session domain.Session, id uuid.UUID) (*domain.BloodRequest, error) {
	var req *domain.BloodRequest
	err := s.withDraft(ctx, session, id, func(d *domain.EmergencyDraft) error {
		var err error
		req, err = s.submit(ctx, workflow.Resume(d, s.deps(nil)))
		return err
	})
	return req, err
}

// submit waits for the pending write even if the caller goes away, so the
// stored draft always reflects whether the request was committed.
func (s *emergencyService) submit(ctx context.Context, wf *workflow.Workflow) (*domain.BloodRequest, error) {
	submitCtx, cancel := context.WithTimeout(ctx, s.opts.SubmitTimeout)
	defer cancel()

	req, err := wf.SubmitAsync(submitCtx).Wait(context.WithoutCancel(ctx))
	s.metrics.Transition("submit", err)
	if err != nil {
		return nil, err
	}
	s.metrics.RequestCreated("emergency", string(req.UrgencyLevel))

	if err := s.drafts.Save(context.WithoutCancel(ctx), wf.Draft(), s.opts.DraftTTL); err != nil {
		// the request is committed; the draft_id index rejects a resubmit
		s.logger.Error("save submitted draft failed",
			slog.String("draft_id", wf.Draft().ID.String()),
			slog.String("request_id", req.ID.String()),
			slog.Any("error", err),
		)
	}

	s.logger.Info("emergency request submitted",
		slog.String("draft_id", wf.Draft().ID.String()),
		slog.String("request_id", req.ID.String()),
		slog.Int("priority", req.Priority),
	)
	return req, nil
}

func (s *emergencyService) Abandon(ctx context.Context, session domain.Session, id uuid.UUID) error {
	return s.withDraft(ctx, session, id, func(*domain.EmergencyDraft) error {
		return s.drafts.Delete(ctx, id)
	})
}
