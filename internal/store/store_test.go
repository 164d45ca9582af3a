package store

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksmori/daicho/internal/gateway"
	"github.com/ksmori/daicho/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*Store, *gateway.MemoryGateway) {
	t.Helper()
	gw := gateway.NewMemoryGateway()
	st := New(gw, discardLogger())
	require.NoError(t, st.Load())
	return st, gw
}

func customer(id, name string) models.Customer {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.Customer{
		ID:        id,
		Name:      name,
		Status:    models.StatusActive,
		Rank:      models.RankB,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func record(id, customerID string) models.HistoryRecord {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.HistoryRecord{
		ID:         id,
		CustomerID: customerID,
		Date:       now,
		Type:       models.TypePhone,
		Subject:    "call",
		Content:    "talked",
		CreatedAt:  now,
	}
}

// TestLoad_AbsentSlots verifies that a fresh gateway loads as empty
// collections, not an error.
func TestLoad_AbsentSlots(t *testing.T) {
	st, _ := newTestStore(t)
	assert.Empty(t, st.Customers())
	assert.Empty(t, st.History())
	assert.False(t, st.Unsynced())
}

// TestLoad_MalformedBlob verifies that a corrupt blob degrades to an empty
// collection instead of failing startup.
func TestLoad_MalformedBlob(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	gw.Put(gateway.SlotCustomers, []byte("{not valid json"))

	st := New(gw, discardLogger())
	require.NoError(t, st.Load())
	assert.Empty(t, st.Customers())
}

// TestRoundTrip verifies that records written through Sync come back intact
// through a fresh store over the same gateway.
func TestRoundTrip(t *testing.T) {
	st, gw := newTestStore(t)

	c := customer("c1", "田中太郎")
	c.NameKana = "タナカタロウ"
	c.CompanyName = "株式会社サンプル"
	st.UpsertCustomer(c)
	st.UpsertHistory(record("h1", "c1"))
	require.NoError(t, st.Sync())

	st2 := New(gw, discardLogger())
	require.NoError(t, st2.Load())

	customers := st2.Customers()
	require.Len(t, customers, 1)
	assert.Equal(t, c.ID, customers[0].ID)
	assert.Equal(t, "田中太郎", customers[0].Name)
	assert.Equal(t, "タナカタロウ", customers[0].NameKana)
	assert.True(t, c.CreatedAt.Equal(customers[0].CreatedAt))

	history := st2.History()
	require.Len(t, history, 1)
	assert.Equal(t, "h1", history[0].ID)
	assert.Equal(t, "c1", history[0].CustomerID)
}

// TestUpsertCustomer_ReplacesById verifies that upserting an existing id
// replaces the whole record without growing the collection.
func TestUpsertCustomer_ReplacesById(t *testing.T) {
	st, _ := newTestStore(t)

	st.UpsertCustomer(customer("c1", "before"))
	updated := customer("c1", "after")
	updated.Email = "after@example.com"
	st.UpsertCustomer(updated)

	customers := st.Customers()
	require.Len(t, customers, 1)
	assert.Equal(t, "after", customers[0].Name)
	assert.Equal(t, "after@example.com", customers[0].Email)
}

// TestRemoveCustomer_Cascades verifies that deleting a customer removes
// exactly the history records referencing it.
func TestRemoveCustomer_Cascades(t *testing.T) {
	st, _ := newTestStore(t)

	st.UpsertCustomer(customer("A", "Alice"))
	st.UpsertCustomer(customer("B", "Bob"))
	st.UpsertHistory(record("h1", "A"))
	st.UpsertHistory(record("h2", "A"))
	st.UpsertHistory(record("h3", "B"))

	removed, cascaded := st.RemoveCustomer("A")
	assert.True(t, removed)
	assert.Equal(t, 2, cascaded)

	require.Len(t, st.Customers(), 1)
	assert.Equal(t, "B", st.Customers()[0].ID)

	history := st.History()
	require.Len(t, history, 1)
	assert.Equal(t, "h3", history[0].ID)
}

// TestRemoveCustomer_MissingIsNoop verifies idempotent deletion.
func TestRemoveCustomer_MissingIsNoop(t *testing.T) {
	st, _ := newTestStore(t)
	st.UpsertCustomer(customer("c1", "only"))
	st.UpsertHistory(record("h1", "c1"))

	removed, cascaded := st.RemoveCustomer("nope")
	assert.False(t, removed)
	assert.Zero(t, cascaded)
	assert.Len(t, st.Customers(), 1)
	assert.Len(t, st.History(), 1)
}

func TestRemoveHistory(t *testing.T) {
	st, _ := newTestStore(t)
	st.UpsertHistory(record("h1", "c1"))

	assert.True(t, st.RemoveHistory("h1"))
	assert.False(t, st.RemoveHistory("h1"))
	assert.Empty(t, st.History())
}

// TestSync_FailureKeepsState verifies that a failed save leaves the
// in-memory collections authoritative and marks the store unsynced.
func TestSync_FailureKeepsState(t *testing.T) {
	st, gw := newTestStore(t)

	st.UpsertCustomer(customer("c1", "kept"))
	gw.FailSaves = true
	require.Error(t, st.Sync())

	assert.True(t, st.Unsynced())
	require.Len(t, st.Customers(), 1)
	assert.Equal(t, "kept", st.Customers()[0].Name)

	// A later successful sync clears the flag.
	gw.FailSaves = false
	require.NoError(t, st.Sync())
	assert.False(t, st.Unsynced())
}

func TestFindCustomer(t *testing.T) {
	st, _ := newTestStore(t)
	st.UpsertCustomer(customer("c1", "findable"))

	got, err := st.FindCustomer("c1")
	require.NoError(t, err)
	assert.Equal(t, "findable", got.Name)

	_, err = st.FindCustomer("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindHistory(t *testing.T) {
	st, _ := newTestStore(t)
	st.UpsertHistory(record("h1", "c1"))

	got, err := st.FindHistory("h1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.CustomerID)

	_, err = st.FindHistory("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestCollectionsReturnCopies verifies that mutating a returned slice does
// not reach the store's internal state.
func TestCollectionsReturnCopies(t *testing.T) {
	st, _ := newTestStore(t)
	st.UpsertCustomer(customer("c1", "original"))

	snapshot := st.Customers()
	snapshot[0].Name = "mutated"

	got, err := st.FindCustomer("c1")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Name)
}

// TestSync_WritesBothSlots verifies the persisted blobs are plain JSON
// arrays keyed under the customers and history slots.
func TestSync_WritesBothSlots(t *testing.T) {
	st, gw := newTestStore(t)
	st.UpsertCustomer(customer("c1", "persisted"))
	require.NoError(t, st.Sync())

	blob, ok, err := gw.Load(gateway.SlotCustomers)
	require.NoError(t, err)
	require.True(t, ok)
	var customers []models.Customer
	require.NoError(t, json.Unmarshal(blob, &customers))
	require.Len(t, customers, 1)

	_, ok, err = gw.Load(gateway.SlotHistory)
	require.NoError(t, err)
	assert.True(t, ok)
}
