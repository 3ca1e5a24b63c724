package ticket_api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventx-ticketing/internal/auth"
	"eventx-ticketing/internal/database/dbtest"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"
	ticketdb "eventx-ticketing/internal/tickets/db"
	"eventx-ticketing/internal/tickets/qr"
	tickets "eventx-ticketing/internal/tickets/service"
	"eventx-ticketing/internal/tickets/ticket_api"
	"eventx-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

const secret = "handler-test-secret"

type fixture struct {
	router http.Handler
	db     *bun.DB
	proofs *qr.QRGenerator
}

func setup(t *testing.T) *fixture {
	bunDB := dbtest.NewSQLite(t)
	log := logger.NewWithWriter(io.Discard)
	proofs := qr.NewQRGenerator("proof-secret", 64)
	svc := tickets.NewTicketService(&ticketdb.DB{Bun: bunDB}, proofs, log)
	h := ticket_api.NewHandler(svc, log)

	r := chi.NewRouter()
	r.Route("/api/tickets", func(r chi.Router) {
		h.RegisterRoutes(r, auth.Middleware(auth.HMACVerifier{Secret: secret}, log))
	})
	return &fixture{router: r, db: bunDB, proofs: proofs}
}

func token(t *testing.T, user *models.User) string {
	tok, err := auth.IssueToken(secret, user.ID, user.Role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (f *fixture) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestBookTicketEndpoint(t *testing.T) {
	f := setup(t)
	user := dbtest.InsertUser(t, f.db, "Ada", models.RoleUser)
	event := dbtest.InsertEvent(t, f.db, "Jazz Night", time.Now().Add(72*time.Hour), 2)

	rec := f.do(t, http.MethodPost, "/api/tickets/book", token(t, user), models.BookTicketRequest{EventID: event.ID, SeatNumber: 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp models.BookTicketResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Ticket booked successfully", resp.Message)
	assert.Equal(t, 1, resp.Ticket.SeatNumber)
	assert.Equal(t, user.ID, resp.Ticket.UserID)

	rec = f.do(t, http.MethodPost, "/api/tickets/book", token(t, user), models.BookTicketRequest{EventID: event.ID, SeatNumber: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "seat_taken", string(errResp.Kind))
	assert.Equal(t, "Seat 1 is already booked", errResp.Message)
}

func TestBookTicketErrors(t *testing.T) {
	f := setup(t)
	user := dbtest.InsertUser(t, f.db, "Ada", models.RoleUser)
	ghost := &models.User{ID: "ghost", Role: models.RoleUser}
	event := dbtest.InsertEvent(t, f.db, "Jazz Night", time.Now().Add(72*time.Hour), 2)

	rec := f.do(t, http.MethodPost, "/api/tickets/book", "", models.BookTicketRequest{EventID: event.ID, SeatNumber: 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/tickets/book", token(t, ghost), models.BookTicketRequest{EventID: event.ID, SeatNumber: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/tickets/book", token(t, user), models.BookTicketRequest{EventID: "nope", SeatNumber: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/tickets/book", token(t, user), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookedSeatsIsPublic(t *testing.T) {
	f := setup(t)
	event := dbtest.InsertEvent(t, f.db, "Jazz Night", time.Now().Add(72*time.Hour), 10)
	dbtest.InsertTicket(t, f.db, "u1", event.ID, 5, time.Now())
	dbtest.InsertTicket(t, f.db, "u2", event.ID, 2, time.Now())

	rec := f.do(t, http.MethodGet, "/api/tickets/event/"+event.ID+"/booked-seats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[2,5]`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/tickets/event/unknown/booked-seats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMyTicketsAndAdminRoutes(t *testing.T) {
	f := setup(t)
	user := dbtest.InsertUser(t, f.db, "Ada", models.RoleUser)
	admin := dbtest.InsertUser(t, f.db, "Root", models.RoleAdmin)
	event := dbtest.InsertEvent(t, f.db, "Jazz Night", time.Now().Add(72*time.Hour), 10)
	ticket := dbtest.InsertTicket(t, f.db, user.ID, event.ID, 3, time.Now())

	rec := f.do(t, http.MethodGet, "/api/tickets/my-tickets", token(t, user), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []models.TicketView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Jazz Night", views[0].Event.Title)

	rec = f.do(t, http.MethodGet, "/api/tickets/admin/all", token(t, user), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/tickets/admin/all", token(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	require.NotNil(t, views[0].User)
	assert.Equal(t, "Ada", views[0].User.Name)

	rec = f.do(t, http.MethodPost, "/api/tickets/"+ticket.ID+"/checkin", token(t, admin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/tickets/"+ticket.ID+"/checkin", token(t, admin), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyEndpoint(t *testing.T) {
	f := setup(t)
	admin := dbtest.InsertUser(t, f.db, "Root", models.RoleAdmin)
	proof, err := f.proofs.Generate("Jazz Night", 4, "user-7")
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/tickets/verify", token(t, admin), models.VerifyTicketRequest{Proof: proof.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.VerifyTicketResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Valid)
	assert.Equal(t, 4, res.SeatNumber)

	rec = f.do(t, http.MethodPost, "/api/tickets/verify", token(t, admin), models.VerifyTicketRequest{Proof: "junk"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
