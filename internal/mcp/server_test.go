package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksmori/daicho/internal/crm"
	"github.com/ksmori/daicho/internal/gateway"
	"github.com/ksmori/daicho/internal/models"
	"github.com/ksmori/daicho/internal/query"
	"github.com/ksmori/daicho/internal/store"
)

func newMCPServer(t *testing.T) (*Server, *crm.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(gateway.NewMemoryGateway(), logger)
	require.NoError(t, st.Load())
	svc := crm.New(st, logger)
	return NewServer(query.New(st), svc, logger), svc
}

// makeReq builds a CallToolRequest with the given arguments.
func makeReq(toolName string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args
	return req
}

// textContent extracts the first TextContent string from a CallToolResult.
func textContent(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content item")
	tc, ok := result.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func decodeResult(t *testing.T, result *mcpgo.CallToolResult) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &out))
	return out
}

func seed(t *testing.T, svc *crm.Service, name string) models.Customer {
	t.Helper()
	c, err := svc.CreateCustomer(crm.CustomerInput{Name: name})
	require.NoError(t, err)
	return c
}

func TestSearchCustomers(t *testing.T) {
	srv, svc := newMCPServer(t)
	seed(t, svc, "田中太郎")
	seed(t, svc, "Suzuki Hanako")

	result, err := srv.HandleSearchCustomers(context.Background(), makeReq("search_customers", map[string]any{
		"query": "田中",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	out := decodeResult(t, result)
	assert.Equal(t, float64(1), out["count"])
}

func TestSearchCustomers_InvalidStatus(t *testing.T) {
	srv, _ := newMCPServer(t)

	result, err := srv.HandleSearchCustomers(context.Background(), makeReq("search_customers", map[string]any{
		"status": "bogus",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSearchCustomers_LimitCapsResults(t *testing.T) {
	srv, svc := newMCPServer(t)
	for i := 0; i < 5; i++ {
		seed(t, svc, "customer")
	}

	result, err := srv.HandleSearchCustomers(context.Background(), makeReq("search_customers", map[string]any{
		"limit": 2,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	out := decodeResult(t, result)
	assert.Equal(t, float64(2), out["count"])
}

func TestGetCustomer(t *testing.T) {
	srv, svc := newMCPServer(t)
	c := seed(t, svc, "with history")
	_, err := svc.CreateHistory(crm.HistoryInput{CustomerID: c.ID, Subject: "s", Content: "c"})
	require.NoError(t, err)

	result, err := srv.HandleGetCustomer(context.Background(), makeReq("get_customer", map[string]any{
		"id": c.ID,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	out := decodeResult(t, result)
	customer, ok := out["customer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, c.ID, customer["id"])
	history, ok := out["history"].([]any)
	require.True(t, ok)
	assert.Len(t, history, 1)
}

func TestGetCustomer_Missing(t *testing.T) {
	srv, _ := newMCPServer(t)

	result, err := srv.HandleGetCustomer(context.Background(), makeReq("get_customer", map[string]any{
		"id": "nope",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestGetCustomer_EmptyID(t *testing.T) {
	srv, _ := newMCPServer(t)

	result, err := srv.HandleGetCustomer(context.Background(), makeReq("get_customer", map[string]any{
		"id": "  ",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestLogInteraction(t *testing.T) {
	srv, svc := newMCPServer(t)
	c := seed(t, svc, "田中太郎")

	result, err := srv.HandleLogInteraction(context.Background(), makeReq("log_interaction", map[string]any{
		"customer_id": c.ID,
		"type":        "visit",
		"subject":     "初回訪問",
		"content":     "製品デモを実施",
		"date":        "2026-03-10T14:00:00Z",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, "unexpected error: %s", textContent(t, result))

	out := decodeResult(t, result)
	assert.Equal(t, true, out["logged"])
	assert.Equal(t, false, out["unsynced"])
	assert.NotEmpty(t, out["id"])
}

func TestLogInteraction_BadDate(t *testing.T) {
	srv, svc := newMCPServer(t)
	c := seed(t, svc, "someone")

	result, err := srv.HandleLogInteraction(context.Background(), makeReq("log_interaction", map[string]any{
		"customer_id": c.ID,
		"subject":     "s",
		"content":     "c",
		"date":        "yesterday",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestLogInteraction_ValidationError(t *testing.T) {
	srv, _ := newMCPServer(t)

	result, err := srv.HandleLogInteraction(context.Background(), makeReq("log_interaction", map[string]any{
		"customer_id": "c1",
		"subject":     "missing content",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestStats(t *testing.T) {
	srv, svc := newMCPServer(t)
	seed(t, svc, "one")
	seed(t, svc, "two")

	result, err := srv.HandleStats(context.Background(), makeReq("crm_stats", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var stats models.Statistics
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &stats))
	assert.Equal(t, 2, stats.TotalCustomers)
	assert.Equal(t, 2, stats.ActiveCustomers)
}
