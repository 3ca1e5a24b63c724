package ticket_api

import (
	"net/http"

	"eventx-ticketing/internal/auth"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"
	tickets "eventx-ticketing/internal/tickets/service"
	"eventx-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	TicketService *tickets.TicketService
	Logger        *logger.Logger
}

func NewHandler(ticketService *tickets.TicketService, log *logger.Logger) *Handler {
	return &Handler{TicketService: ticketService, Logger: log}
}

// RegisterRoutes mounts the ticket routes. Booked seats are public; the rest
// need a bearer token and the admin routes the Admin role.
func (h *Handler) RegisterRoutes(r chi.Router, authenticate func(http.Handler) http.Handler) {
	r.Get("/event/{eventId}/booked-seats", h.BookedSeats)

	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/book", h.BookTicket)
		r.Get("/my-tickets", h.MyTickets)
		r.Get("/user/{userId}", h.UserTickets)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Get("/admin/all", h.AllTickets)
			r.Post("/verify", h.VerifyTicket)
			r.Post("/{ticketId}/checkin", h.CheckinTicket)
		})
	})
}

// BookTicket books the requested seat for the caller.
func (h *Handler) BookTicket(w http.ResponseWriter, r *http.Request) {
	var req models.BookTicketRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, h.Logger, "BOOKING", err)
		return
	}

	ticket, err := h.TicketService.Book(r.Context(), auth.UserID(r.Context()), req.EventID, req.SeatNumber)
	if err != nil {
		utils.WriteError(w, h.Logger, "BOOKING", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, models.BookTicketResponse{
		Message: "Ticket booked successfully",
		Ticket:  ticket,
	})
}

func (h *Handler) MyTickets(w http.ResponseWriter, r *http.Request) {
	views, err := h.TicketService.TicketsForUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.WriteError(w, h.Logger, "TICKETS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) UserTickets(w http.ResponseWriter, r *http.Request) {
	views, err := h.TicketService.TicketsForUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		utils.WriteError(w, h.Logger, "TICKETS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) AllTickets(w http.ResponseWriter, r *http.Request) {
	views, err := h.TicketService.AllTickets(r.Context())
	if err != nil {
		utils.WriteError(w, h.Logger, "TICKETS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) BookedSeats(w http.ResponseWriter, r *http.Request) {
	seats, err := h.TicketService.BookedSeats(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		utils.WriteError(w, h.Logger, "TICKETS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, seats)
}

func (h *Handler) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyTicketRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, h.Logger, "TICKETS", err)
		return
	}
	res, err := h.TicketService.VerifyProof(r.Context(), req.Proof)
	if err != nil {
		utils.WriteError(w, h.Logger, "TICKETS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) CheckinTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.TicketService.Checkin(r.Context(), chi.URLParam(r, "ticketId"))
	if err != nil {
		utils.WriteError(w, h.Logger, "TICKETS", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Checkin successful", ticket))
}
