// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the construction diary for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/chrisd/bautagebuch/internal/diary"
	"github.com/chrisd/bautagebuch/internal/index"
)

// Server wraps the MCP server with diary tools.
type Server struct {
	mcp   *server.MCPServer
	store *diary.Store
	db    index.DiaryIndex
}

// New creates a new MCP server with all diary tools registered.
func New(store *diary.Store, db index.DiaryIndex) *Server {
	s := &Server{store: store, db: db}

	s.mcp = server.NewMCPServer(
		"Bautagebuch",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_diary",
		mcp.WithDescription("Full-text search across daily reports and milestones."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDiary)

	s.mcp.AddTool(mcp.NewTool("list_daily_entries",
		mcp.WithDescription("List all daily construction reports in display order."),
	), s.listDailyEntries)

	s.mcp.AddTool(mcp.NewTool("create_daily_entry",
		mcp.WithDescription("Create a new daily report defaulted to today's date. "+
			"Returns the created entry including its id."),
	), s.createDailyEntry)

	s.mcp.AddTool(mcp.NewTool("list_milestones",
		mcp.WithDescription("List all project milestones with status and progress."),
	), s.listMilestones)

	s.mcp.AddTool(mcp.NewTool("create_milestone",
		mcp.WithDescription("Create a project milestone. New milestones start as "+
			"'planned' with progress 0."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Milestone title")),
		mcp.WithString("date", mcp.Required(), mcp.Description("Calendar date, YYYY-MM-DD")),
		mcp.WithString("description", mcp.Description("Optional description")),
		mcp.WithString("category", mcp.Description("Category used for calendar colouring")),
		mcp.WithString("priority", mcp.Description("Priority (low, medium, high)")),
		mcp.WithString("duration", mcp.Description("Duration in days (defaults to 1)")),
	), s.createMilestone)

	s.mcp.AddTool(mcp.NewTool("set_milestone_status",
		mcp.WithDescription("Set a milestone's status. Setting 'completed' forces "+
			"progress to 100."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Milestone id")),
		mcp.WithString("status", mcp.Required(), mcp.Description("planned, in-progress or completed")),
	), s.setMilestoneStatus)

	s.mcp.AddTool(mcp.NewTool("export_document",
		mcp.WithDescription("Return the full diary document as pretty-printed JSON, "+
			"the same payload the export download produces."),
	), s.exportDocument)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource("bautagebuch://document-format", "Diary Document Format",
			mcp.WithResourceDescription("Canonical JSON document format of the construction diary."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchDiary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDailyEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.store.ListDailyEntries(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createDailyEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entry, err := s.store.CreateDailyEntry()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(entry, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listMilestones(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.store.ListMilestones(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createMilestone(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := diary.CreateMilestoneInput{
		Title:       title,
		Date:        date,
		Description: req.GetString("description", ""),
		Category:    req.GetString("category", ""),
		Priority:    req.GetString("priority", ""),
		Duration:    req.GetString("duration", ""),
	}

	m, err := s.store.CreateMilestone(in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(m, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) setMilestoneStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := s.store.SetMilestoneStatus(id, status)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("milestone not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(m, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) exportDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, data, err := s.store.Export()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n%s", name, data)), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "bautagebuch://document-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
