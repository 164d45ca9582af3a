// Package crm implements the mutation protocol: every write to the ledger
// goes through a Service, which validates input, assigns identity and
// timestamps, applies the change to the store, and syncs the store to
// durable storage before returning.
package crm

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ksmori/daicho/internal/metrics"
	"github.com/ksmori/daicho/internal/models"
	"github.com/ksmori/daicho/internal/store"
)

// ErrNotSynced marks a mutation that succeeded in memory but could not be
// written to durable storage. The returned record is valid and the store
// will retry from current state on the next sync; callers should surface
// the condition as a warning rather than roll anything back.
var ErrNotSynced = errors.New("in-memory state not synced to durable storage")

// IsSyncWarning reports whether err is the durable-storage warning rather
// than a hard failure.
func IsSyncWarning(err error) bool {
	return errors.Is(err, ErrNotSynced)
}

// ValidationError reports input rejected before any store mutation: a
// required field empty after trimming, or an unrecognized enum value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func required(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "must not be empty"}
}

func invalid(field string, value any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf("has invalid value %q", value)}
}

// CustomerInput is the form data for creating or updating a customer.
// All text fields are trimmed before storage; Name must be non-empty.
type CustomerInput struct {
	Name        string
	NameKana    string
	CompanyName string
	Department  string
	Position    string
	Phone       string
	Mobile      string
	Email       string
	Address     string
	Status      models.CustomerStatus
	Rank        models.CustomerRank
	Notes       string
}

// HistoryInput is the form data for creating or updating a history record.
// Subject and Content must be non-empty; CustomerID is stored as given and
// is only validated lazily at read time.
type HistoryInput struct {
	CustomerID string
	Date       time.Time
	Type       models.InteractionType
	Subject    string
	Content    string
	Result     string
}

// Service applies mutations to the store. Create and Update are distinct
// operations resolved by the caller, not inferred from an empty-id
// convention.
type Service struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Service over the given store.
func New(st *store.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  st,
		logger: logger.With("component", "crm"),
		now:    time.Now,
	}
}

// CreateCustomer validates the input, assigns a fresh id, stamps both
// timestamps with the current time, and appends the customer.
func (s *Service) CreateCustomer(in CustomerInput) (models.Customer, error) {
	c, err := buildCustomer(in)
	if err != nil {
		return models.Customer{}, err
	}
	now := s.now()
	c.ID = newID()
	c.CreatedAt = now
	c.UpdatedAt = now

	s.store.UpsertCustomer(c)
	metrics.Inc(metrics.CustomersCreated)
	s.logger.Info("customer created", "id", c.ID, "name", c.Name)
	return c, s.sync()
}

// UpdateCustomer replaces the customer's record wholesale, preserving its
// id and original CreatedAt and stamping UpdatedAt. When the id does not
// resolve the input is created as a new customer instead.
func (s *Service) UpdateCustomer(id string, in CustomerInput) (models.Customer, error) {
	existing, err := s.store.FindCustomer(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.CreateCustomer(in)
		}
		return models.Customer{}, err
	}

	c, err := buildCustomer(in)
	if err != nil {
		return models.Customer{}, err
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()

	s.store.UpsertCustomer(c)
	metrics.Inc(metrics.CustomersUpdated)
	s.logger.Info("customer updated", "id", c.ID)
	return c, s.sync()
}

// DeleteCustomer removes the customer and cascades to all of its history
// records. Deleting a missing id is a silent no-op.
func (s *Service) DeleteCustomer(id string) error {
	removed, cascaded := s.store.RemoveCustomer(id)
	if !removed {
		return nil
	}
	metrics.Inc(metrics.CustomersDeleted)
	s.logger.Info("customer deleted", "id", id, "cascaded_history", cascaded)
	return s.sync()
}

// CreateHistory validates the input, assigns a fresh id, stamps CreatedAt,
// and appends the record. A zero Date defaults to the current time.
func (s *Service) CreateHistory(in HistoryInput) (models.HistoryRecord, error) {
	h, err := buildHistory(in)
	if err != nil {
		return models.HistoryRecord{}, err
	}
	h.ID = newID()
	h.CreatedAt = s.now()
	if h.Date.IsZero() {
		h.Date = h.CreatedAt
	}

	s.store.UpsertHistory(h)
	metrics.Inc(metrics.HistoryLogged)
	s.logger.Info("history logged", "id", h.ID, "customer_id", h.CustomerID, "type", h.Type)
	return h, s.sync()
}

// UpdateHistory replaces the record wholesale, preserving its id and
// original CreatedAt. When the id does not resolve the input is created as
// a new record instead.
func (s *Service) UpdateHistory(id string, in HistoryInput) (models.HistoryRecord, error) {
	existing, err := s.store.FindHistory(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.CreateHistory(in)
		}
		return models.HistoryRecord{}, err
	}

	h, err := buildHistory(in)
	if err != nil {
		return models.HistoryRecord{}, err
	}
	h.ID = existing.ID
	h.CreatedAt = existing.CreatedAt
	if h.Date.IsZero() {
		h.Date = existing.Date
	}

	s.store.UpsertHistory(h)
	metrics.Inc(metrics.HistoryUpdated)
	s.logger.Info("history updated", "id", h.ID)
	return h, s.sync()
}

// DeleteHistory removes the record. Deleting a missing id is a silent no-op.
func (s *Service) DeleteHistory(id string) error {
	if !s.store.RemoveHistory(id) {
		return nil
	}
	metrics.Inc(metrics.HistoryDeleted)
	s.logger.Info("history deleted", "id", id)
	return s.sync()
}

// sync writes the store back after a mutation. Failure is downgraded to
// ErrNotSynced so callers can tell the warning apart from a hard error.
func (s *Service) sync() error {
	if err := s.store.Sync(); err != nil {
		metrics.Inc(metrics.SyncFailures)
		s.logger.Warn("sync failed, in-memory state retained", "error", err)
		return fmt.Errorf("%w: %v", ErrNotSynced, err)
	}
	return nil
}

func buildCustomer(in CustomerInput) (models.Customer, error) {
	c := models.Customer{
		Name:        strings.TrimSpace(in.Name),
		NameKana:    strings.TrimSpace(in.NameKana),
		CompanyName: strings.TrimSpace(in.CompanyName),
		Department:  strings.TrimSpace(in.Department),
		Position:    strings.TrimSpace(in.Position),
		Phone:       strings.TrimSpace(in.Phone),
		Mobile:      strings.TrimSpace(in.Mobile),
		Email:       strings.TrimSpace(in.Email),
		Address:     strings.TrimSpace(in.Address),
		Status:      in.Status,
		Rank:        in.Rank,
		Notes:       strings.TrimSpace(in.Notes),
	}
	if c.Name == "" {
		return models.Customer{}, required("name")
	}
	if c.Status == "" {
		c.Status = models.StatusActive
	}
	if c.Rank == "" {
		c.Rank = models.RankB
	}
	if !c.Status.IsValid() {
		return models.Customer{}, invalid("status", c.Status)
	}
	if !c.Rank.IsValid() {
		return models.Customer{}, invalid("rank", c.Rank)
	}
	return c, nil
}

func buildHistory(in HistoryInput) (models.HistoryRecord, error) {
	h := models.HistoryRecord{
		CustomerID: strings.TrimSpace(in.CustomerID),
		Date:       in.Date,
		Type:       in.Type,
		Subject:    strings.TrimSpace(in.Subject),
		Content:    strings.TrimSpace(in.Content),
		Result:     strings.TrimSpace(in.Result),
	}
	if h.CustomerID == "" {
		return models.HistoryRecord{}, required("customerId")
	}
	if h.Subject == "" {
		return models.HistoryRecord{}, required("subject")
	}
	if h.Content == "" {
		return models.HistoryRecord{}, required("content")
	}
	if h.Type == "" {
		h.Type = models.TypeOther
	}
	if !h.Type.IsValid() {
		return models.HistoryRecord{}, invalid("type", h.Type)
	}
	return h, nil
}

// newID returns a time-ordered unique id. UUIDv7 carries a millisecond
// timestamp prefix plus random bits, so ids are practically collision-free
// and sort by creation time.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
