// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes pocketnotes tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/pocketnotes/internal/media"
	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/noteservice"
)

const guideURI = "pocketnotes://note-guide"

// Server wraps the MCP server with pocketnotes tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all pocketnotes tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"pocketnotes",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes newest first, or the notes whose description contains filter (case-insensitive), oldest first."),
		mcp.WithString("filter", mcp.Description("Optional description filter")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Get the note whose description matches exactly (case-sensitive)."),
		mcp.WithString("description", mcp.Required(), mcp.Description("Exact note description")),
	), s.getNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. Read the guide first via get_note_guide or the "+guideURI+" resource."),
		mcp.WithString("description", mcp.Required(), mcp.Description("Note text, unique ignoring case")),
		mcp.WithString("date", mcp.Description("Optional RFC 3339 timestamp or YYYY-MM-DD date; defaults to now")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace the stored note whose description matches (ignoring case and surrounding spaces). Never creates a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Note description")),
		mcp.WithString("date", mcp.Description("RFC 3339 timestamp or YYYY-MM-DD date; defaults to now")),
		mcp.WithString("photo_url", mcp.Description("Photo URL to keep or set")),
		mcp.WithString("audio_url", mcp.Description("Audio URL to keep or set")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete the note with the given id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("attach_media",
		mcp.WithDescription("Download a photo or audio file from an http(s) URL or base64 data URI and attach it to a note."),
		mcp.WithString("description", mcp.Required(), mcp.Description("Exact description of the note")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("photo or audio"), mcp.Enum("photo", "audio")),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI")),
		mcp.WithString("filename", mcp.Description("Optional file name; derived from the URL when empty")),
	), s.attachMedia)

	s.mcp.AddTool(mcp.NewTool("get_note_guide",
		mcp.WithDescription("Returns the note shape and matching rules. Call this before creating or updating notes."),
	), s.getNoteGuide)

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Note Guide",
			mcp.WithResourceDescription("Note shape and matching rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteGuideResource,
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

func optionalString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

// parseDate accepts RFC 3339 or a bare YYYY-MM-DD date. Empty yields the
// zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.List(ctx, optionalString(req, "filter"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if list == nil {
		list = []models.Note{}
	}
	return jsonResult(list)
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	desc, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Get(ctx, desc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(n)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	desc, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := parseDate(optionalString(req, "date"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Create(ctx, models.Note{Description: desc, Date: date})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(n)
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	desc, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := parseDate(optionalString(req, "date"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}
	n, err := s.svc.Update(ctx, models.Note{
		ID:          id,
		Description: desc,
		Date:        date,
		PhotoURL:    optionalString(req, "photo_url"),
		AudioURL:    optionalString(req, "audio_url"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(n)
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// Calling the tool is the confirmation.
	if err := s.svc.Delete(ctx, id, true); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) attachMedia(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	desc, err := req.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	attach := s.svc.AttachPhoto
	switch kind {
	case "photo":
	case "audio":
		attach = s.svc.AttachAudio
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported kind: %s (want photo or audio)", kind)), nil
	}

	asset, err := media.Fetch(ctx, rawURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := asset.Filename
	if f := optionalString(req, "filename"); f != "" {
		filename = media.SanitizeFilename(f)
	}

	n, err := attach(ctx, desc, asset.Data, filename)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(n)
}

func (s *Server) getNoteGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteGuide), nil
}

func (s *Server) readNoteGuideResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     NoteGuide,
		},
	}, nil
}
