package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksmori/daicho/internal/crm"
	"github.com/ksmori/daicho/internal/gateway"
	"github.com/ksmori/daicho/internal/models"
	"github.com/ksmori/daicho/internal/query"
	"github.com/ksmori/daicho/internal/store"
)

type testEnv struct {
	ts  *httptest.Server
	st  *store.Store
	gw  *gateway.MemoryGateway
	svc *crm.Service
}

func newTestServer(t *testing.T, authToken string) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := gateway.NewMemoryGateway()
	st := store.New(gw, logger)
	require.NoError(t, st.Load())
	svc := crm.New(st, logger)

	srv := NewServer(st, query.New(st), svc, logger, authToken)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, st: st, gw: gw, svc: svc}
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func doRequest(t *testing.T, method, url string, body io.Reader, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) createCustomer(t *testing.T, name string) models.Customer {
	t.Helper()
	c, err := e.svc.CreateCustomer(crm.CustomerInput{Name: name})
	require.NoError(t, err)
	return c
}

// --- health ---

func TestHealthz(t *testing.T) {
	env := newTestServer(t, "")

	resp := doRequest(t, http.MethodGet, env.ts.URL+"/healthz", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[map[string]any](t, resp)
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, false, got["unsynced"])
}

// TestHealthz_NoAuthRequired verifies the health check bypasses the auth
// middleware even when a token is configured.
func TestHealthz_NoAuthRequired(t *testing.T) {
	env := newTestServer(t, "secret")

	resp := doRequest(t, http.MethodGet, env.ts.URL+"/healthz", nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// --- auth ---

func TestAuth(t *testing.T) {
	env := newTestServer(t, "secret")

	missing := doRequest(t, http.MethodGet, env.ts.URL+"/v1/customers", nil, "")
	defer missing.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, missing.StatusCode)

	wrong := doRequest(t, http.MethodGet, env.ts.URL+"/v1/customers", nil, "wrong")
	defer wrong.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, wrong.StatusCode)

	right := doRequest(t, http.MethodGet, env.ts.URL+"/v1/customers", nil, "secret")
	defer right.Body.Close()
	assert.Equal(t, http.StatusOK, right.StatusCode)
}

// --- customers ---

func TestCreateCustomer(t *testing.T) {
	env := newTestServer(t, "")

	resp := doRequest(t, http.MethodPost, env.ts.URL+"/v1/customers", jsonBody(t, map[string]any{
		"name":        "田中太郎",
		"companyName": "株式会社サンプル",
		"rank":        "A",
	}), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got := decode[models.Customer](t, resp)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "田中太郎", got.Name)
	assert.Equal(t, models.RankA, got.Rank)
	assert.Equal(t, models.StatusActive, got.Status)

	stored, err := env.st.FindCustomer(got.ID)
	require.NoError(t, err)
	assert.Equal(t, "田中太郎", stored.Name)
}

func TestCreateCustomer_ValidationIs400(t *testing.T) {
	env := newTestServer(t, "")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"empty name", map[string]any{"name": "  "}},
		{"bad status", map[string]any{"name": "x", "status": "bogus"}},
		{"bad rank", map[string]any{"name": "x", "rank": "Z"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, env.ts.URL+"/v1/customers", jsonBody(t, tc.body), "")
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCreateCustomer_MalformedBodyIs400(t *testing.T) {
	env := newTestServer(t, "")

	resp := doRequest(t, http.MethodPost, env.ts.URL+"/v1/customers", bytes.NewReader([]byte("{nope")), "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetCustomer(t *testing.T) {
	env := newTestServer(t, "")
	c := env.createCustomer(t, "findable")

	resp := doRequest(t, http.MethodGet, env.ts.URL+"/v1/customers/"+c.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.Customer](t, resp)
	assert.Equal(t, c.ID, got.ID)

	missing := doRequest(t, http.MethodGet, env.ts.URL+"/v1/customers/nope", nil, "")
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

// TestListCustomers_TotalIsUnfiltered verifies the total field reports the
// whole collection so clients can tell a filtered-empty view from an empty
// ledger.
func TestListCustomers_TotalIsUnfiltered(t *testing.T) {
	env := newTestServer(t, "")
	env.createCustomer(t, "Tanaka")
	env.createCustomer(t, "Suzuki")

	resp := doRequest(t, http.MethodGet, env.ts.URL+"/v1/customers?q=tanaka", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[struct {
		Customers []models.Customer `json:"customers"`
		Total     int               `json:"total"`
	}](t, resp)
	assert.Len(t, got.Customers, 1)
	assert.Equal(t, 2, got.Total)
}

func TestUpdateCustomer(t *testing.T) {
	env := newTestServer(t, "")
	c := env.createCustomer(t, "before")

	resp := doRequest(t, http.MethodPut, env.ts.URL+"/v1/customers/"+c.ID, jsonBody(t, map[string]any{
		"name": "after",
	}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[models.Customer](t, resp)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "after", got.Name)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
}

func TestDeleteCustomer(t *testing.T) {
	env := newTestServer(t, "")
	c := env.createCustomer(t, "doomed")

	resp := doRequest(t, http.MethodDelete, env.ts.URL+"/v1/customers/"+c.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[map[string]any](t, resp)
	assert.Equal(t, true, got["deleted"])

	// Idempotent: deleting again still reports success.
	again := doRequest(t, http.MethodDelete, env.ts.URL+"/v1/customers/"+c.ID, nil, "")
	defer again.Body.Close()
	assert.Equal(t, http.StatusOK, again.StatusCode)
}

// --- history ---

func TestCreateAndListHistory(t *testing.T) {
	env := newTestServer(t, "")
	c := env.createCustomer(t, "田中太郎")

	resp := doRequest(t, http.MethodPost, env.ts.URL+"/v1/history", jsonBody(t, map[string]any{
		"customerId": c.ID,
		"type":       "visit",
		"subject":    "初回訪問",
		"content":    "製品デモを実施",
	}), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	record := decode[models.HistoryRecord](t, resp)
	assert.Equal(t, models.TypeVisit, record.Type)

	list := doRequest(t, http.MethodGet, env.ts.URL+"/v1/history", nil, "")
	require.Equal(t, http.StatusOK, list.StatusCode)
	got := decode[struct {
		History []models.HistoryEntry `json:"history"`
	}](t, list)
	require.Len(t, got.History, 1)
	assert.Equal(t, record.ID, got.History[0].Record.ID)
	require.NotNil(t, got.History[0].Customer)
	assert.Equal(t, "田中太郎", got.History[0].Customer.Name)
}

func TestCreateHistory_ValidationIs400(t *testing.T) {
	env := newTestServer(t, "")

	resp := doRequest(t, http.MethodPost, env.ts.URL+"/v1/history", jsonBody(t, map[string]any{
		"customerId": "c1",
		"subject":    "no content",
	}), "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCustomerHistory(t *testing.T) {
	env := newTestServer(t, "")
	c := env.createCustomer(t, "with history")
	_, err := env.svc.CreateHistory(crm.HistoryInput{CustomerID: c.ID, Subject: "s", Content: "c"})
	require.NoError(t, err)

	resp := doRequest(t, http.MethodGet, env.ts.URL+"/v1/customers/"+c.ID+"/history", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[struct {
		History []models.HistoryRecord `json:"history"`
	}](t, resp)
	assert.Len(t, got.History, 1)

	missing := doRequest(t, http.MethodGet, env.ts.URL+"/v1/customers/nope/history", nil, "")
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestDeleteHistory(t *testing.T) {
	env := newTestServer(t, "")
	c := env.createCustomer(t, "customer")
	h, err := env.svc.CreateHistory(crm.HistoryInput{CustomerID: c.ID, Subject: "s", Content: "c"})
	require.NoError(t, err)

	resp := doRequest(t, http.MethodDelete, env.ts.URL+"/v1/history/"+h.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Empty(t, env.st.History())
}

// --- sync warnings ---

// TestMutation_SyncWarningHeader verifies a mutation that could not be
// persisted still succeeds and flags the response.
func TestMutation_SyncWarningHeader(t *testing.T) {
	env := newTestServer(t, "")
	env.gw.FailSaves = true

	resp := doRequest(t, http.MethodPost, env.ts.URL+"/v1/customers", jsonBody(t, map[string]any{
		"name": "unsynced",
	}), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("X-Daicho-Unsynced"))

	got := decode[models.Customer](t, resp)
	assert.NotEmpty(t, got.ID)

	// The health check reflects the unsynced state.
	health := doRequest(t, http.MethodGet, env.ts.URL+"/healthz", nil, "")
	hgot := decode[map[string]any](t, health)
	assert.Equal(t, true, hgot["unsynced"])
}

func TestDashboardAndStats(t *testing.T) {
	env := newTestServer(t, "")
	env.createCustomer(t, "someone")

	stats := doRequest(t, http.MethodGet, env.ts.URL+"/v1/stats", nil, "")
	require.Equal(t, http.StatusOK, stats.StatusCode)
	sgot := decode[models.Statistics](t, stats)
	assert.Equal(t, 1, sgot.TotalCustomers)

	dash := doRequest(t, http.MethodGet, env.ts.URL+"/v1/dashboard", nil, "")
	require.Equal(t, http.StatusOK, dash.StatusCode)
	dgot := decode[models.Dashboard](t, dash)
	assert.Len(t, dgot.RecentCustomers, 1)
}
