package event_api

import (
	"net/http"

	"eventx-ticketing/internal/auth"
	events "eventx-ticketing/internal/events/service"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"
	"eventx-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	EventService *events.EventService
	Logger       *logger.Logger
}

func NewHandler(svc *events.EventService, log *logger.Logger) *Handler {
	return &Handler{EventService: svc, Logger: log}
}

// RegisterRoutes mounts the catalog. Reads are public, writes are admin only.
func (h *Handler) RegisterRoutes(r chi.Router, authenticate func(http.Handler) http.Handler) {
	r.Get("/", h.ListEvents)
	r.Get("/{id}", h.GetEvent)

	r.Group(func(r chi.Router) {
		r.Use(authenticate, auth.RequireRole(models.RoleAdmin))
		r.Post("/", h.CreateEvent)
		r.Put("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
	})
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.EventService.ListEvents(r.Context())
	if err != nil {
		utils.WriteError(w, h.Logger, "EVENTS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, h.Logger, "EVENTS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, h.Logger, "EVENTS", err)
		return
	}
	event, err := h.EventService.CreateEvent(r.Context(), req)
	if err != nil {
		utils.WriteError(w, h.Logger, "EVENTS", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateEventRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, h.Logger, "EVENTS", err)
		return
	}
	event, err := h.EventService.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.WriteError(w, h.Logger, "EVENTS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.EventService.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.WriteError(w, h.Logger, "EVENTS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Event deleted"})
}
