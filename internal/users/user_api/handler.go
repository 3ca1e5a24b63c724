package user_api

import (
	"net/http"

	"eventx-ticketing/internal/auth"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"
	users "eventx-ticketing/internal/users/service"
	"eventx-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	UserService *users.UserService
	Logger      *logger.Logger
}

func NewHandler(svc *users.UserService, log *logger.Logger) *Handler {
	return &Handler{UserService: svc, Logger: log}
}

// RegisterRoutes mounts profile and favorites for any caller, user listing for admins.
func (h *Handler) RegisterRoutes(r chi.Router, authenticate func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/profile", h.Profile)
		r.Get("/favorites", h.Favorites)
		r.Post("/favorites", h.AddFavorite)
		r.Delete("/favorites/{eventId}", h.RemoveFavorite)

		r.With(auth.RequireRole(models.RoleAdmin)).Get("/admin/all", h.ListUsers)
	})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	utils.WriteJSON(w, http.StatusOK, h.UserService.Profile(auth.UserID(ctx), auth.Role(ctx)))
}

func (h *Handler) Favorites(w http.ResponseWriter, r *http.Request) {
	res, err := h.UserService.Favorites(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteError(w, h.Logger, "USERS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var req models.FavoriteRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, h.Logger, "USERS", err)
		return
	}
	res, err := h.UserService.AddFavorite(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		utils.WriteError(w, h.Logger, "USERS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	res, err := h.UserService.RemoveFavorite(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "eventId"))
	if err != nil {
		utils.WriteError(w, h.Logger, "USERS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		utils.WriteError(w, h.Logger, "USERS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}
