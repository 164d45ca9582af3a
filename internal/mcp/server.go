// Package mcp implements the Model Context Protocol server for daicho,
// exposing the ledger's read and write operations as tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ksmori/daicho/internal/crm"
	"github.com/ksmori/daicho/internal/models"
	"github.com/ksmori/daicho/internal/query"
)

// defaultListLimit is the default number of results for customer search.
const defaultListLimit = 20

// Server wraps an MCPServer with daicho dependencies.
type Server struct {
	mcp     *mcpserver.MCPServer
	engine  *query.Engine
	service *crm.Service
	logger  *slog.Logger
}

// NewServer creates a new MCP server over the query engine and mutation
// service.
func NewServer(eng *query.Engine, svc *crm.Service, logger *slog.Logger) *Server {
	s := &Server{
		engine:  eng,
		service: svc,
		logger:  logger,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"daicho",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildSearchCustomersTool(), s.handleSearchCustomers)
	mcpSrv.AddTool(buildGetCustomerTool(), s.handleGetCustomer)
	mcpSrv.AddTool(buildLogInteractionTool(), s.handleLogInteraction)
	mcpSrv.AddTool(buildStatsTool(), s.handleStats)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleSearchCustomers is the exported handler for the "search_customers"
// tool. It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleSearchCustomers(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleSearchCustomers(ctx, req)
}

// HandleGetCustomer is the exported handler for the "get_customer" tool.
func (s *Server) HandleGetCustomer(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleGetCustomer(ctx, req)
}

// HandleLogInteraction is the exported handler for the "log_interaction" tool.
func (s *Server) HandleLogInteraction(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleLogInteraction(ctx, req)
}

// HandleStats is the exported handler for the "crm_stats" tool.
func (s *Server) HandleStats(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleStats(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

// --- tool definitions ---

func buildSearchCustomersTool() mcpgo.Tool {
	return mcpgo.NewTool("search_customers",
		mcpgo.WithDescription("Search customers by name, company, phone or email, with optional status and rank filters."),
		mcpgo.WithString("query",
			mcpgo.Description("Case-insensitive substring to search for"),
		),
		mcpgo.WithString("status",
			mcpgo.Description("Filter by status: active, pending, or inactive"),
		),
		mcpgo.WithString("rank",
			mcpgo.Description("Filter by rank: S, A, B, or C"),
		),
		mcpgo.WithNumber("limit",
			mcpgo.Description("Maximum number of results (default: 20)"),
		),
	)
}

func buildGetCustomerTool() mcpgo.Tool {
	return mcpgo.NewTool("get_customer",
		mcpgo.WithDescription("Retrieve one customer with their full interaction history."),
		mcpgo.WithString("id",
			mcpgo.Required(),
			mcpgo.Description("The customer ID"),
		),
	)
}

func buildLogInteractionTool() mcpgo.Tool {
	return mcpgo.NewTool("log_interaction",
		mcpgo.WithDescription("Log a customer interaction (phone, email, visit, meeting, or other)."),
		mcpgo.WithString("customer_id",
			mcpgo.Required(),
			mcpgo.Description("ID of the customer the interaction belongs to"),
		),
		mcpgo.WithString("type",
			mcpgo.Description("Interaction type: phone, email, visit, meeting, or other (default: other)"),
		),
		mcpgo.WithString("subject",
			mcpgo.Required(),
			mcpgo.Description("Brief subject of the interaction"),
		),
		mcpgo.WithString("content",
			mcpgo.Required(),
			mcpgo.Description("Detailed content of the interaction"),
		),
		mcpgo.WithString("result",
			mcpgo.Description("Outcome or next actions"),
		),
		mcpgo.WithString("date",
			mcpgo.Description("Interaction time in RFC 3339 (default: now)"),
		),
	)
}

func buildStatsTool() mcpgo.Tool {
	return mcpgo.NewTool("crm_stats",
		mcpgo.WithDescription("Get ledger statistics: customer counts and interaction activity."),
	)
}

// --- tool handlers ---

// handleSearchCustomers runs the customer list view and returns matches.
func (s *Server) handleSearchCustomers(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.engine == nil {
		return mcpgo.NewToolResultError("query engine is unavailable"), nil
	}

	opts := query.CustomerListOptions{
		Query: req.GetString("query", ""),
		Sort:  query.SortNewest,
	}
	if st := req.GetString("status", ""); st != "" {
		candidate := models.CustomerStatus(st)
		if !candidate.IsValid() {
			return mcpgo.NewToolResultErrorf("invalid status %q: must be one of active, pending, inactive", st), nil
		}
		opts.Status = candidate
	}
	if r := req.GetString("rank", ""); r != "" {
		candidate := models.CustomerRank(r)
		if !candidate.IsValid() {
			return mcpgo.NewToolResultErrorf("invalid rank %q: must be one of S, A, B, C", r), nil
		}
		opts.Rank = candidate
	}

	limit := req.GetInt("limit", defaultListLimit)
	if limit <= 0 {
		limit = defaultListLimit
	}

	customers := s.engine.ListCustomers(opts)
	if len(customers) > limit {
		customers = customers[:limit]
	}

	result := map[string]any{
		"customers": customers,
		"count":     len(customers),
	}
	return toolResultJSON(result)
}

// handleGetCustomer returns one customer plus their history.
func (s *Server) handleGetCustomer(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.engine == nil {
		return mcpgo.NewToolResultError("query engine is unavailable"), nil
	}

	id := req.GetString("id", "")
	if strings.TrimSpace(id) == "" {
		return mcpgo.NewToolResultError("id is required and must not be empty"), nil
	}

	customer, err := s.engine.Customer(id)
	if err != nil {
		return mcpgo.NewToolResultErrorf("customer %q not found", id), nil
	}

	result := map[string]any{
		"customer": customer,
		"history":  s.engine.HistoryForCustomer(id),
	}
	return toolResultJSON(result)
}

// handleLogInteraction creates a history record through the mutation service.
func (s *Server) handleLogInteraction(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.service == nil {
		return mcpgo.NewToolResultError("mutation service is unavailable"), nil
	}

	in := crm.HistoryInput{
		CustomerID: req.GetString("customer_id", ""),
		Type:       models.InteractionType(req.GetString("type", "")),
		Subject:    req.GetString("subject", ""),
		Content:    req.GetString("content", ""),
		Result:     req.GetString("result", ""),
	}

	if raw := req.GetString("date", ""); raw != "" {
		date, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return mcpgo.NewToolResultErrorf("invalid date %q: must be RFC 3339", raw), nil
		}
		in.Date = date
	}

	record, err := s.service.CreateHistory(in)
	if err != nil && !crm.IsSyncWarning(err) {
		return mcpgo.NewToolResultErrorf("log interaction failed: %s", err.Error()), nil
	}

	s.logger.Info("mcp: interaction logged", "id", record.ID, "customer_id", record.CustomerID)

	result := map[string]any{
		"id":       record.ID,
		"logged":   true,
		"unsynced": crm.IsSyncWarning(err),
	}
	return toolResultJSON(result)
}

// handleStats returns ledger statistics.
func (s *Server) handleStats(_ context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.engine == nil {
		return mcpgo.NewToolResultError("query engine is unavailable"), nil
	}
	return toolResultJSON(s.engine.Statistics())
}
