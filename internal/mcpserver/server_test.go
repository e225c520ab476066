package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meridel/inkwell/internal/projectservice"
	"github.com/meridel/inkwell/internal/testutil"
)

func testServer(t *testing.T) (*Server, *projectservice.Service) {
	t.Helper()
	_, store := testutil.TestWorkspace(t)
	db := testutil.TestDB(t)
	svc := projectservice.NewService(store, db, 0)
	return New(svc), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so we invoke the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_projects":
		result, err = srv.searchProjects(ctx, req)
	case "list_projects":
		result, err = srv.listProjects(ctx, req)
	case "read_project":
		result, err = srv.readProject(ctx, req)
	case "read_page":
		result, err = srv.readPage(ctx, req)
	case "create_project":
		result, err = srv.createProject(ctx, req)
	case "append_page_text":
		result, err = srv.appendPageText(ctx, req)
	case "get_project_contract":
		result, err = srv.getProjectContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadProject(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_project", map[string]interface{}{
		"title": "Sketchbook",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "created: ") {
		t.Fatalf("create result = %q", text)
	}
	id := strings.TrimPrefix(text, "created: ")

	r = callTool(t, srv, "read_project", map[string]interface{}{"id": id})
	if r.IsError {
		t.Fatalf("read_project failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"Sketchbook"`) {
		t.Errorf("read result missing title: %s", resultText(r))
	}
}

func TestReadPage(t *testing.T) {
	srv, svc := testServer(t)

	detail, err := svc.CreateProject(context.Background(), "Field notes")
	if err != nil {
		t.Fatal(err)
	}
	pageID := detail.Pages[0].ID

	r := callTool(t, srv, "read_page", map[string]interface{}{
		"id":      detail.ID,
		"page_id": pageID,
	})
	if r.IsError {
		t.Fatalf("read_page failed: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, `"strokes"`) || !strings.Contains(text, pageID) {
		t.Errorf("read_page result = %s", text)
	}
}

func TestReadProjectMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_project", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing project")
	}
}

func TestListProjects(t *testing.T) {
	srv, svc := testServer(t)
	if _, err := svc.CreateProject(context.Background(), "A"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateProject(context.Background(), "B"); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "list_projects", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"A"`) || !strings.Contains(text, `"B"`) {
		t.Errorf("list result = %s", text)
	}
}

func TestAppendTextBecomesSearchable(t *testing.T) {
	srv, svc := testServer(t)

	detail, err := svc.CreateProject(context.Background(), "Lab journal")
	if err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "append_page_text", map[string]interface{}{
		"id":      detail.ID,
		"page_id": detail.Pages[0].ID,
		"text":    "phosphorescence decay curve",
	})
	if r.IsError {
		t.Fatalf("append failed: %s", resultText(r))
	}

	r = callTool(t, srv, "search_projects", map[string]interface{}{
		"query": "phosphorescence",
	})
	if !strings.Contains(resultText(r), detail.ID) {
		t.Errorf("search result = %s", resultText(r))
	}
}

func TestProjectContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_project_contract", map[string]interface{}{})
	if !strings.Contains(resultText(r), "bodyType") {
		t.Error("contract missing document fields")
	}
}
