package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"bloodLink/internal/api/handlers/http/presenter"
	"bloodLink/internal/domain"
	"bloodLink/internal/middleware"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Admin interface {
	ListRequests(ctx context.Context, page, limit int, status domain.RequestStatus) ([]*domain.BloodRequest, int64, error)
	SetRequestStatus(ctx context.Context, id uuid.UUID, status domain.RequestStatus) error
	GetStats(ctx context.Context) (*domain.RequestStats, error)
}

const maxPageSize = 100

type Handler struct {
	logger *slog.Logger
	Admin  Admin
}

func NewHandler(logger *slog.Logger, admin Admin) *Handler {
	return &Handler{
		logger: logger,
		Admin:  admin,
	}
}

func (h *Handler) AdminRequestList(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AdminRequestList", slog.String("query", r.URL.RawQuery), slog.String("remote", r.RemoteAddr))

	page := presenter.ParseInt(r.URL.Query().Get("page"), 1)
	if page < 1 {
		page = 1
	}
	limit := presenter.ParseInt(r.URL.Query().Get("limit"), 20)
	if limit < 1 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
		l.Warn("limit capped", slog.Int("limit", limit))
	}
	status := domain.RequestStatus(r.URL.Query().Get("status"))

	items, total, err := h.Admin.ListRequests(r.Context(), page, limit, status)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if items == nil {
		items = []*domain.BloodRequest{}
	}

	l.Info("requests listed", slog.Int("count", len(items)), slog.Int64("total", total))
	h.writeJSON(w, http.StatusOK, domain.ListRequestsResponse{
		Requests: items,
		Page:     page,
		Limit:    limit,
		Total:    total,
	})
}

func (h *Handler) AdminRequestStatus(w http.ResponseWriter, r *http.Request) {
	id, err := presenter.PathUUID(r, "id")
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var req domain.UpdateRequestStatusRequest
	if err := middleware.DecodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.Admin.SetRequestStatus(r.Context(), id, req.Status); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.log(r).Info("request status set", slog.String("id", id.String()), slog.String("status", string(req.Status)))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Admin.GetStats(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}
