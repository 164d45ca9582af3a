// Package api exposes the ledger over a JSON HTTP API. It is a thin shell:
// reads go through the query engine, writes through the mutation service,
// and every field is returned raw; escaping is the consumer's job.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ksmori/daicho/internal/crm"
	"github.com/ksmori/daicho/internal/models"
	"github.com/ksmori/daicho/internal/query"
	"github.com/ksmori/daicho/internal/store"
)

// Server is an HTTP API server over the ledger.
type Server struct {
	store     *store.Store
	engine    *query.Engine
	service   *crm.Service
	logger    *slog.Logger
	authToken string // empty = no auth required
}

// NewServer creates a new Server with the given dependencies.
func NewServer(st *store.Store, eng *query.Engine, svc *crm.Service, logger *slog.Logger, authToken string) *Server {
	return &Server{
		store:     st,
		engine:    eng,
		service:   svc,
		logger:    logger,
		authToken: authToken,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check — no auth required.
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("GET /v1/dashboard", s.auth(s.handleDashboard))
	mux.HandleFunc("GET /v1/stats", s.auth(s.handleStats))

	mux.HandleFunc("GET /v1/customers", s.auth(s.handleListCustomers))
	mux.HandleFunc("POST /v1/customers", s.auth(s.handleCreateCustomer))
	mux.HandleFunc("GET /v1/customers/{id}", s.auth(s.handleGetCustomer))
	mux.HandleFunc("PUT /v1/customers/{id}", s.auth(s.handleUpdateCustomer))
	mux.HandleFunc("DELETE /v1/customers/{id}", s.auth(s.handleDeleteCustomer))
	mux.HandleFunc("GET /v1/customers/{id}/history", s.auth(s.handleCustomerHistory))

	mux.HandleFunc("GET /v1/history", s.auth(s.handleListHistory))
	mux.HandleFunc("POST /v1/history", s.auth(s.handleCreateHistory))
	mux.HandleFunc("PUT /v1/history/{id}", s.auth(s.handleUpdateHistory))
	mux.HandleFunc("DELETE /v1/history/{id}", s.auth(s.handleDeleteHistory))

	return mux
}

// --- middleware ---

// auth wraps a handler with Bearer token authentication when authToken is set.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// --- handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"unsynced": s.store.Unsynced(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Dashboard())
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Statistics())
}

// customersResponse is returned by GET /v1/customers. Total is the
// unfiltered collection size so clients can tell an empty view from an
// empty ledger.
type customersResponse struct {
	Customers []models.Customer `json:"customers"`
	Total     int               `json:"total"`
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	customers := s.engine.ListCustomers(query.CustomerListOptions{
		Query:  q.Get("q"),
		Status: models.CustomerStatus(q.Get("status")),
		Rank:   models.CustomerRank(q.Get("rank")),
		Sort:   query.SortKey(q.Get("sort")),
	})
	s.writeJSON(w, http.StatusOK, customersResponse{
		Customers: customers,
		Total:     len(s.store.Customers()),
	})
}

// customerRequest is the body accepted by POST and PUT customer endpoints.
type customerRequest struct {
	Name        string                `json:"name"`
	NameKana    string                `json:"nameKana"`
	CompanyName string                `json:"companyName"`
	Department  string                `json:"department"`
	Position    string                `json:"position"`
	Phone       string                `json:"phone"`
	Mobile      string                `json:"mobile"`
	Email       string                `json:"email"`
	Address     string                `json:"address"`
	Status      models.CustomerStatus `json:"status"`
	Rank        models.CustomerRank   `json:"rank"`
	Notes       string                `json:"notes"`
}

func (r customerRequest) input() crm.CustomerInput {
	return crm.CustomerInput{
		Name:        r.Name,
		NameKana:    r.NameKana,
		CompanyName: r.CompanyName,
		Department:  r.Department,
		Position:    r.Position,
		Phone:       r.Phone,
		Mobile:      r.Mobile,
		Email:       r.Email,
		Address:     r.Address,
		Status:      r.Status,
		Rank:        r.Rank,
		Notes:       r.Notes,
	}
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customer, err := s.service.CreateCustomer(req.input())
	if err != nil && !errors.Is(err, crm.ErrNotSynced) {
		s.writeMutationError(w, err)
		return
	}
	s.writeMutationResult(w, http.StatusCreated, customer, err)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := s.store.FindCustomer(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		s.logger.Error("failed to get customer", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get customer")
		return
	}
	s.writeJSON(w, http.StatusOK, customer)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customer, err := s.service.UpdateCustomer(r.PathValue("id"), req.input())
	if err != nil && !errors.Is(err, crm.ErrNotSynced) {
		s.writeMutationError(w, err)
		return
	}
	s.writeMutationResult(w, http.StatusOK, customer, err)
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	err := s.service.DeleteCustomer(r.PathValue("id"))
	if err != nil && !errors.Is(err, crm.ErrNotSynced) {
		s.logger.Error("failed to delete customer", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete customer")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"deleted":  true,
		"unsynced": errors.Is(err, crm.ErrNotSynced),
	})
}

func (s *Server) handleCustomerHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.FindCustomer(id); err != nil {
		s.writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	records := s.engine.HistoryForCustomer(id)
	s.writeJSON(w, http.StatusOK, map[string]any{"history": records})
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries := s.engine.ListHistory(query.HistoryListOptions{
		Query:  q.Get("q"),
		Type:   models.InteractionType(q.Get("type")),
		Period: query.PeriodFilter(q.Get("period")),
	})
	s.writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

// historyRequest is the body accepted by POST and PUT history endpoints.
type historyRequest struct {
	CustomerID string                 `json:"customerId"`
	Date       time.Time              `json:"date"`
	Type       models.InteractionType `json:"type"`
	Subject    string                 `json:"subject"`
	Content    string                 `json:"content"`
	Result     string                 `json:"result"`
}

func (r historyRequest) input() crm.HistoryInput {
	return crm.HistoryInput{
		CustomerID: r.CustomerID,
		Date:       r.Date,
		Type:       r.Type,
		Subject:    r.Subject,
		Content:    r.Content,
		Result:     r.Result,
	}
}

func (s *Server) handleCreateHistory(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req historyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := s.service.CreateHistory(req.input())
	if err != nil && !errors.Is(err, crm.ErrNotSynced) {
		s.writeMutationError(w, err)
		return
	}
	s.writeMutationResult(w, http.StatusCreated, record, err)
}

func (s *Server) handleUpdateHistory(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req historyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := s.service.UpdateHistory(r.PathValue("id"), req.input())
	if err != nil && !errors.Is(err, crm.ErrNotSynced) {
		s.writeMutationError(w, err)
		return
	}
	s.writeMutationResult(w, http.StatusOK, record, err)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	err := s.service.DeleteHistory(r.PathValue("id"))
	if err != nil && !errors.Is(err, crm.ErrNotSynced) {
		s.logger.Error("failed to delete history", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete history")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"deleted":  true,
		"unsynced": errors.Is(err, crm.ErrNotSynced),
	})
}

// --- helpers ---

// writeMutationResult writes a successful mutation. A sync warning rides
// along in an X-Daicho-Unsynced header instead of failing the request.
func (s *Server) writeMutationResult(w http.ResponseWriter, status int, v any, err error) {
	if errors.Is(err, crm.ErrNotSynced) {
		w.Header().Set("X-Daicho-Unsynced", "true")
	}
	s.writeJSON(w, status, v)
}

// writeMutationError maps a mutation failure onto a status code.
func (s *Server) writeMutationError(w http.ResponseWriter, err error) {
	var verr *crm.ValidationError
	if errors.As(err, &verr) {
		s.writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	s.logger.Error("mutation failed", "error", err)
	s.writeError(w, http.StatusInternalServerError, "mutation failed")
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", "error", encErr)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
// This is a convenience helper used by the serve command.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
