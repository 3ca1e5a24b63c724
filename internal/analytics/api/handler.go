package analytics_api

import (
	"net/http"
	"strconv"

	"eventx-ticketing/internal/analytics"
	"eventx-ticketing/internal/apperror"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/utils"
)

// Handler handles analytics HTTP endpoints
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, logger *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger,
	}
}

// MostBooked serves GET /api/tickets/analytics/most-booked?limit=n.
func (h *Handler) MostBooked(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		utils.WriteError(w, h.Logger, "ANALYTICS", err)
		return
	}
	rows, err := h.Service.MostBooked(r.Context(), limit)
	if err != nil {
		utils.WriteError(w, h.Logger, "ANALYTICS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

// Notifications serves GET /api/notifications.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.EventNotifications(r.Context())
	if err != nil {
		utils.WriteError(w, h.Logger, "ANALYTICS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, items)
}

// ParseLimit reads the limit query parameter. Empty means the default; values
// above the maximum are clamped.
func ParseLimit(raw string) (int, error) {
	if raw == "" {
		return analytics.DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperror.InvalidInput("limit must be a positive integer")
	}
	if n > analytics.MaxLimit {
		n = analytics.MaxLimit
	}
	return n, nil
}
