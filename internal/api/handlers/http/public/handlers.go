package public

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"bloodLink/internal/api/handlers/http/presenter"
	"bloodLink/internal/domain"
	"bloodLink/internal/middleware"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Donors interface {
	Register(ctx context.Context, req domain.CreateDonorRequest) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.DonorRecord, error)
	Update(ctx context.Context, id uuid.UUID, req domain.UpdateDonorRequest) error
	Search(ctx context.Context, req domain.DonorSearchRequest) (domain.DonorSearchResponse, error)
}

type Requests interface {
	Create(ctx context.Context, s domain.Session, req domain.CreateBloodRequestRequest) (*domain.BloodRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.BloodRequest, error)
	ListActive(ctx context.Context, filter domain.RequestFilter) ([]*domain.BloodRequest, error)
	Respond(ctx context.Context, s domain.Session, id uuid.UUID, req domain.RespondRequest) error
}

const recentWindow = 24 * time.Hour

type Handler struct {
	logger   *slog.Logger
	Donors   Donors
	Requests Requests
	now      func() time.Time
}

func NewHandler(logger *slog.Logger, donors Donors, requests Requests) *Handler {
	return &Handler{
		logger:   logger,
		Donors:   donors,
		Requests: requests,
		now:      time.Now,
	}
}

func (h *Handler) DonorRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateDonorRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	id, err := h.Donors.Register(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.log(r).Info("donor registered", slog.String("id", id.String()))
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (h *Handler) DonorGet(w http.ResponseWriter, r *http.Request) {
	id, err := presenter.PathUUID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	donor, err := h.Donors.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, donor)
}

func (h *Handler) DonorUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := presenter.PathUUID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var req domain.UpdateDonorRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.Donors.Update(r.Context(), id, req); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DonorSearch(w http.ResponseWriter, r *http.Request) {
	var req domain.DonorSearchRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	resp, err := h.Donors.Search(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.log(r).Debug("donor search",
		slog.Int("candidates", len(resp.Candidates)),
		slog.Bool("location_unavailable", resp.LocationUnavailable),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RequestCreate(w http.ResponseWriter, r *http.Request) {
	s, _ := middleware.SessionFrom(r.Context())

	var req domain.CreateBloodRequestRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	br, err := h.Requests.Create(r.Context(), s, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, br)
}

// RequestList serves the public board. Query: blood_group, location, recent=true (last 24h).
func (h *Handler) RequestList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.RequestFilter{
		BloodGroup: domain.BloodGroup(strings.ToUpper(strings.TrimSpace(q.Get("blood_group")))),
		Location:   strings.TrimSpace(q.Get("location")),
	}
	if q.Get("recent") == "true" {
		since := h.now().Add(-recentWindow)
		filter.Since = &since
	}

	items, err := h.Requests.ListActive(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if items == nil {
		items = []*domain.BloodRequest{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"requests": items})
}

func (h *Handler) RequestGet(w http.ResponseWriter, r *http.Request) {
	id, err := presenter.PathUUID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	br, err := h.Requests.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, br)
}

func (h *Handler) RequestRespond(w http.ResponseWriter, r *http.Request) {
	s, _ := middleware.SessionFrom(r.Context())

	id, err := presenter.PathUUID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var req domain.RespondRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.Requests.Respond(r.Context(), s, id, req); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
