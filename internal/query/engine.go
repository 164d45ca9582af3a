// Package query computes every displayed view over the store: dashboard
// summaries, the filtered customer list, the filtered history list, and
// per-customer history. All functions are pure reads over a snapshot of the
// collections; given the same snapshot, parameters and clock they return the
// same result.
package query

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ksmori/daicho/internal/models"
	"github.com/ksmori/daicho/internal/store"
)

// SortKey selects the customer list ordering.
type SortKey string

const (
	SortNewest  SortKey = "newest"
	SortOldest  SortKey = "oldest"
	SortName    SortKey = "name"
	SortCompany SortKey = "company"
)

// PeriodFilter restricts the history list to a recent window.
type PeriodFilter string

const (
	// PeriodToday covers the current calendar day from local midnight.
	PeriodToday PeriodFilter = "today"
	// PeriodWeek is a rolling 7x24h window, not calendar-aligned.
	PeriodWeek PeriodFilter = "week"
	// PeriodMonth covers the current calendar month from its first day.
	PeriodMonth PeriodFilter = "month"
)

// DefaultRecentLimit is how many records the dashboard's recent lists show.
const DefaultRecentLimit = 5

// CustomerListOptions parameterizes ListCustomers. Zero values mean no
// restriction; an unrecognized Sort preserves input order.
type CustomerListOptions struct {
	Query  string
	Status models.CustomerStatus
	Rank   models.CustomerRank
	Sort   SortKey
}

// HistoryListOptions parameterizes ListHistory. Zero values mean no
// restriction.
type HistoryListOptions struct {
	Query  string
	Type   models.InteractionType
	Period PeriodFilter
}

// Engine answers read-side questions about the store. Now is the clock used
// for the statistics and period filters; tests pin it.
type Engine struct {
	store *store.Store
	Now   func() time.Time
}

// New creates an Engine over the given store. Name and company ordering use
// Japanese collation, matching how the records are entered.
func New(st *store.Store) *Engine {
	return &Engine{
		store: st,
		Now:   time.Now,
	}
}

// RecentCustomers returns the n most recently created customers, newest
// first.
func (e *Engine) RecentCustomers(n int) []models.Customer {
	customers := e.store.Customers()
	sort.SliceStable(customers, func(i, j int) bool {
		return customers[i].CreatedAt.After(customers[j].CreatedAt)
	})
	if len(customers) > n {
		customers = customers[:n]
	}
	return customers
}

// RecentHistory returns the n most recent interactions by interaction date,
// newest first, each paired with its resolved customer (nil when dangling).
func (e *Engine) RecentHistory(n int) []models.HistoryEntry {
	entries := e.resolveAll(e.store.History())
	sortByDateDesc(entries)
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Statistics computes the dashboard counters using the engine's clock.
func (e *Engine) Statistics() models.Statistics {
	now := e.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	stats := models.Statistics{}
	for _, c := range e.store.Customers() {
		stats.TotalCustomers++
		if c.Status == models.StatusActive {
			stats.ActiveCustomers++
		}
	}
	for _, h := range e.store.History() {
		stats.TotalHistory++
		if !h.Date.Before(monthStart) {
			stats.MonthlyHistory++
		}
		if sameDay(h.Date, now) {
			stats.TodayCount++
		}
	}
	return stats
}

// Dashboard bundles the statistics and both recent lists.
func (e *Engine) Dashboard() models.Dashboard {
	return models.Dashboard{
		Stats:           e.Statistics(),
		RecentCustomers: e.RecentCustomers(DefaultRecentLimit),
		RecentHistory:   e.RecentHistory(DefaultRecentLimit),
	}
}

// ListCustomers returns customers matching the search query and filters, in
// the order the sort key dictates. The search is applied before the status
// and rank filters. An empty result is a valid view; callers distinguish
// "nothing matched" from "no customers at all" via the unfiltered total.
func (e *Engine) ListCustomers(opts CustomerListOptions) []models.Customer {
	customers := e.store.Customers()

	if opts.Query != "" {
		q := strings.ToLower(opts.Query)
		filtered := customers[:0]
		for _, c := range customers {
			if customerMatches(c, q) {
				filtered = append(filtered, c)
			}
		}
		customers = filtered
	}
	if opts.Status != "" {
		filtered := customers[:0]
		for _, c := range customers {
			if c.Status == opts.Status {
				filtered = append(filtered, c)
			}
		}
		customers = filtered
	}
	if opts.Rank != "" {
		filtered := customers[:0]
		for _, c := range customers {
			if c.Rank == opts.Rank {
				filtered = append(filtered, c)
			}
		}
		customers = filtered
	}

	switch opts.Sort {
	case SortNewest:
		sort.SliceStable(customers, func(i, j int) bool {
			return customers[i].CreatedAt.After(customers[j].CreatedAt)
		})
	case SortOldest:
		sort.SliceStable(customers, func(i, j int) bool {
			return customers[i].CreatedAt.Before(customers[j].CreatedAt)
		})
	case SortName:
		// A Collator mutates internal state on every compare, so each sort
		// gets its own instead of sharing one across concurrent requests.
		col := collate.New(language.Japanese)
		sort.SliceStable(customers, func(i, j int) bool {
			return col.CompareString(customers[i].Name, customers[j].Name) < 0
		})
	case SortCompany:
		// Missing companies collate as empty strings, which sort first.
		col := collate.New(language.Japanese)
		sort.SliceStable(customers, func(i, j int) bool {
			return col.CompareString(customers[i].CompanyName, customers[j].CompanyName) < 0
		})
	}
	return customers
}

// customerMatches reports whether the customer matches the lowercased query.
// Name, company and email are case-folded; the phone number is matched raw.
func customerMatches(c models.Customer, q string) bool {
	return strings.Contains(strings.ToLower(c.Name), q) ||
		(c.CompanyName != "" && strings.Contains(strings.ToLower(c.CompanyName), q)) ||
		(c.Phone != "" && strings.Contains(c.Phone, q)) ||
		(c.Email != "" && strings.Contains(strings.ToLower(c.Email), q))
}

// ListHistory returns interactions matching the search query and filters,
// always sorted by interaction date descending. The search covers subject,
// content and the resolved customer's name; a dangling reference contributes
// no name match.
func (e *Engine) ListHistory(opts HistoryListOptions) []models.HistoryEntry {
	entries := e.resolveAll(e.store.History())

	if opts.Query != "" {
		q := strings.ToLower(opts.Query)
		filtered := entries[:0]
		for _, entry := range entries {
			if historyMatches(entry, q) {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}
	if opts.Type != "" {
		filtered := entries[:0]
		for _, entry := range entries {
			if entry.Record.Type == opts.Type {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}
	if start, ok := e.periodStart(opts.Period); ok {
		filtered := entries[:0]
		for _, entry := range entries {
			if !entry.Record.Date.Before(start) {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}

	sortByDateDesc(entries)
	return entries
}

func historyMatches(entry models.HistoryEntry, q string) bool {
	if strings.Contains(strings.ToLower(entry.Record.Subject), q) ||
		strings.Contains(strings.ToLower(entry.Record.Content), q) {
		return true
	}
	return entry.Customer != nil && strings.Contains(strings.ToLower(entry.Customer.Name), q)
}

// periodStart maps a period filter onto its inclusive window start. An
// empty or unrecognized filter means no restriction.
func (e *Engine) periodStart(p PeriodFilter) (time.Time, bool) {
	now := e.Now()
	switch p {
	case PeriodToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), true
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

// Customer resolves a customer id against the current snapshot, returning
// store.ErrNotFound when it does not resolve.
func (e *Engine) Customer(id string) (*models.Customer, error) {
	return e.store.FindCustomer(id)
}

// HistoryForCustomer returns every interaction logged for the customer,
// newest first by interaction date.
func (e *Engine) HistoryForCustomer(customerID string) []models.HistoryRecord {
	var records []models.HistoryRecord
	for _, h := range e.store.History() {
		if h.CustomerID == customerID {
			records = append(records, h)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
	return records
}

// resolveAll pairs each record with its customer, nil when the reference
// dangles.
func (e *Engine) resolveAll(records []models.HistoryRecord) []models.HistoryEntry {
	customers := e.store.Customers()
	byID := make(map[string]*models.Customer, len(customers))
	for i := range customers {
		byID[customers[i].ID] = &customers[i]
	}

	entries := make([]models.HistoryEntry, 0, len(records))
	for _, h := range records {
		entries = append(entries, models.HistoryEntry{
			Record:   h,
			Customer: byID[h.CustomerID],
		})
	}
	return entries
}

func sortByDateDesc(entries []models.HistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Record.Date.After(entries[j].Record.Date)
	})
}

func sameDay(t, ref time.Time) bool {
	t = t.In(ref.Location())
	return t.Year() == ref.Year() && t.Month() == ref.Month() && t.Day() == ref.Day()
}
