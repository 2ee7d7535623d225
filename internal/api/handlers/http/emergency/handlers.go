package emergency

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"bloodLink/internal/api/handlers/http/presenter"
	"bloodLink/internal/domain"
	"bloodLink/internal/middleware"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Emergency interface {
	Start(ctx context.Context, s domain.Session, req domain.StartEmergencyRequest) (*domain.EmergencyDraft, error)
	Get(ctx context.Context, s domain.Session, id uuid.UUID) (*domain.EmergencyDraft, error)
	Update(ctx context.Context, s domain.Session, id uuid.UUID, patch domain.DraftPatch) (*domain.EmergencyDraft, error)
	Next(ctx context.Context, s domain.Session, id uuid.UUID) (*domain.EmergencyDraft, error)
	Back(ctx context.Context, s domain.Session, id uuid.UUID) (*domain.EmergencyDraft, error)
	Submit(ctx context.Context, s domain.Session, id uuid.UUID) (*domain.BloodRequest, error)
	Abandon(ctx context.Context, s domain.Session, id uuid.UUID) error
}

type Handler struct {
	logger    *slog.Logger
	Emergency Emergency
}

func NewHandler(logger *slog.Logger, emergency Emergency) *Handler {
	return &Handler{logger: logger, Emergency: emergency}
}

// DraftStart accepts an empty body when the caller has no location fix.
func (h *Handler) DraftStart(w http.ResponseWriter, r *http.Request) {
	s, _ := middleware.SessionFrom(r.Context())

	var req domain.StartEmergencyRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, middleware.ErrEmptyBody) {
		h.handleError(w, r, err)
		return
	}

	draft, err := h.Emergency.Start(r.Context(), s, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.log(r).Info("emergency draft started",
		slog.String("draft_id", draft.ID.String()),
		slog.Bool("location_unavailable", req.Location == nil),
	)
	h.writeJSON(w, http.StatusCreated, draft)
}

func (h *Handler) DraftGet(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, h.Emergency.Get)
}

func (h *Handler) DraftUpdate(w http.ResponseWriter, r *http.Request) {
	s, _ := middleware.SessionFrom(r.Context())

	id, err := presenter.PathUUID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var patch domain.DraftPatch
	if err := middleware.DecodeJSON(w, r, &patch); err != nil {
		h.handleError(w, r, err)
		return
	}

	draft, err := h.Emergency.Update(r.Context(), s, id, patch)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, draft)
}

func (h *Handler) DraftNext(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, h.Emergency.Next)
}

func (h *Handler) DraftBack(w http.ResponseWriter, r *http.Request) {
	h.withDraft(w, r, h.Emergency.Back)
}

func (h *Handler) DraftSubmit(w http.ResponseWriter, r *http.Request) {
	s, _ := middleware.SessionFrom(r.Context())

	id, err := presenter.PathUUID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	br, err := h.Emergency.Submit(r.Context(), s, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.log(r).Info("emergency request submitted",
		slog.String("draft_id", id.String()),
		slog.String("request_id", br.ID.String()),
	)
	h.writeJSON(w, http.StatusCreated, br)
}

func (h *Handler) DraftAbandon(w http.ResponseWriter, r *http.Request) {
	s, _ := middleware.SessionFrom(r.Context())

	id, err := presenter.PathUUID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.Emergency.Abandon(r.Context(), s, id); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type draftAction func(ctx context.Context, s domain.Session, id uuid.UUID) (*domain.EmergencyDraft, error)

func (h *Handler) withDraft(w http.ResponseWriter, r *http.Request, action draftAction) {
	s, _ := middleware.SessionFrom(r.Context())

	id, err := presenter.PathUUID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	draft, err := action(r.Context(), s, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, draft)
}
