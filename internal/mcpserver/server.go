// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Inkwell tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/meridel/inkwell/internal/projectservice"
)

// Server wraps the MCP server with Inkwell tools.
//
// All tools go through the project service so that writes share the live
// sessions, atomic persistence and catalog updates with the HTTP API.
type Server struct {
	mcp *server.MCPServer
	svc *projectservice.Service
}

// New creates a new MCP server with all Inkwell tools registered.
func New(svc *projectservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Inkwell",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_projects",
		mcp.WithDescription("Full-text search through project titles, page titles and recognized page text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchProjects)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List all drawing projects with page counts, newest first."),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("read_project",
		mcp.WithDescription("Read a project summary: title, checksum and per-page metadata (no stroke data)."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Project ID")),
	), s.readProject)

	s.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Read the full content of one page, including strokes and recognized text. "+
			"The structure is described by the inkwell://project-format resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Page ID")),
	), s.readPage)

	s.mcp.AddTool(mcp.NewTool("create_project",
		mcp.WithDescription("Create a new drawing project with one empty page."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Human-readable project title")),
	), s.createProject)

	s.mcp.AddTool(mcp.NewTool("append_page_text",
		mcp.WithDescription("Append a line of recognized (transcribed) text to a page. "+
			"Use this to attach handwriting-recognition output to the page it came from; "+
			"the text becomes searchable and the step is undoable."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Page ID")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text line to append")),
	), s.appendPageText)

	s.mcp.AddTool(mcp.NewTool("get_project_contract",
		mcp.WithDescription("Returns the canonical Inkwell project document contract. "+
			"Call this before interpreting read_page output."),
	), s.getProjectContract)

	// Resource: project document contract.
	s.mcp.AddResource(
		mcp.NewResource("inkwell://project-format", "Project Document Contract",
			mcp.WithResourceDescription("Canonical JSON project document format used by all Inkwell tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readProjectFormatResource,
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

func (s *Server) searchProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, _, err := s.svc.ListProjects(ctx, 0, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetProject(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pageID, err := req.RequireString("page_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.GetPage(ctx, id, pageID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s/%s", id, pageID)), nil
	}
	out, _ := json.MarshalIndent(page, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.CreateProject(ctx, title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", detail.ID)), nil
}

func (s *Server) appendPageText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pageID, err := req.RequireString("page_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.AppendText(ctx, id, pageID, text); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("appended to %s/%s", id, pageID)), nil
}

func (s *Server) getProjectContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ProjectFormatContract), nil
}

func (s *Server) readProjectFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "inkwell://project-format",
			MIMEType: "text/markdown",
			Text:     ProjectFormatContract,
		},
	}, nil
}
