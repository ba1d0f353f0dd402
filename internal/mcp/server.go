// Package mcp exposes the published dataset to MCP clients over stdio. Every
// tool reads through the public views, so drafts and redacted fields are as
// invisible here as they are over HTTP.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/msarchive/msarchive/internal/db"
)

// NewServer creates an MCPServer with the read-only archive tools registered.
func NewServer(database *db.DB, version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"msarchive",
		version,
		server.WithToolCapabilities(true),
	)

	registerListIncidents(srv, database)
	registerGetIncident(srv, database)
	registerListLegislation(srv, database)
	registerGetStats(srv, database)

	return srv
}

// --- list_incidents ---

func registerListIncidents(srv *server.MCPServer, database *db.DB) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"state":    map[string]string{"type": "string", "description": "Two-letter US state code filter"},
			"year":     map[string]string{"type": "string", "description": "Four-digit year filter"},
			"location": map[string]string{"type": "string", "description": "Location type filter: school, public_space, private_residence, workplace, other"},
		},
	})
	tool := mcp.NewToolWithRawSchema("list_incidents", "List published incidents, optionally filtered by state, year, or location type", schema)

	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		incidents, err := database.ListPublicIncidents(db.PublicIncidentFilter{
			State:        stringArg(args, "state"),
			Year:         stringArg(args, "year"),
			LocationType: stringArg(args, "location"),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{"incidents": incidents, "count": len(incidents)})
	})
}

// --- get_incident ---

func registerGetIncident(srv *server.MCPServer, database *db.DB) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"incident_id": map[string]string{"type": "string", "description": "Incident ID"},
		},
		"required": []string{"incident_id"},
	})
	tool := mcp.NewToolWithRawSchema("get_incident", "Retrieve one published incident with its suspects and weapons", schema)

	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := stringArg(req.GetArguments(), "incident_id")
		incident, err := database.GetPublicIncident(id)
		if err != nil {
			return mcp.NewToolResultError("incident not found"), nil
		}
		suspects, err := database.ListPublicSuspects(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{"incident": incident, "suspects": suspects})
	})
}

// --- list_legislation ---

func registerListLegislation(srv *server.MCPServer, database *db.DB) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"jurisdiction": map[string]string{"type": "string", "description": "Two-letter state code, DC, or FEDERAL"},
		},
		"required": []string{"jurisdiction"},
	})
	tool := mcp.NewToolWithRawSchema("list_legislation", "List published legislation for one jurisdiction", schema)

	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		laws, err := database.ListPublicLegislation(stringArg(req.GetArguments(), "jurisdiction"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{"legislation": laws, "count": len(laws)})
	})
}

// --- get_stats ---

func registerGetStats(srv *server.MCPServer, database *db.DB) {
	schema, _ := json.Marshal(map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	})
	tool := mcp.NewToolWithRawSchema("get_stats", "Aggregate statistics over the published dataset: yearly, by state, deadliest, monthly trends", schema)

	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := database.GetStats()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(stats)
	})
}

// --- helpers ---

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
