package admin

import (
	"log/slog"
	"net/http"

	"bloodLink/internal/api/handlers/http/presenter"
)

func (h *Handler) log(r *http.Request) *slog.Logger {
	return presenter.Logger(h.logger, r)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	presenter.WriteError(w, r, h.logger, err)
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	presenter.WriteJSON(w, h.logger, code, v)
}
