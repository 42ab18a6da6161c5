// Package mcp exposes the editor operation surface to AI tooling over the
// Model Context Protocol. Every tool call goes through the editor's mutex,
// so agent-driven edits obey the same atomicity and history contract as
// interactive ones: one commit per operation, rejected input mutates
// nothing.
package mcp

import (
	"context"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/engine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server wraps the editor in an MCP tool surface served over stdio.
type Server struct {
	mcp    *server.MCPServer
	editor *engine.Editor
	logger *zap.Logger
}

// Deps carries the server's collaborators.
type Deps struct {
	Editor  *engine.Editor
	Version string
	Logger  *zap.Logger
}

// New creates the MCP server and registers every canvas tool.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		editor: deps.Editor,
		logger: logger,
	}

	s.mcp = server.NewMCPServer(
		"easel-mcp",
		deps.Version,
		server.WithToolCapabilities(false),
	)

	s.registerElementTools()
	s.registerDocumentTools()
	return s
}

// ServeStdio serves on the process stdin/stdout until EOF or a signal.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp server listening on stdio")
	return server.ServeStdio(s.mcp)
}

// Listen serves on the given streams until the context is canceled. Used by
// the serve command so the watcher and autosave goroutines shut down with
// the same context.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("mcp server listening")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// ── Helpers ────────────────────────────────────────────────

// textResult wraps a plain message in a tool result.
func textResult(text string) *mcp.CallToolResult {
	return mcp.NewToolResultText(text)
}

// jsonResult serializes v and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// elementSummary is the wire shape tools use to describe one element.
type elementSummary struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	ParentID string  `json:"parentId,omitempty"`
	Children int     `json:"children"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Visible  bool    `json:"visible"`
	Locked   bool    `json:"locked,omitempty"`
	Preview  string  `json:"preview,omitempty"`
}

func summarize(el *easel.Element) elementSummary {
	preview := el.Content
	if el.Type.IsMedia() {
		preview = el.Src
	}
	if len(preview) > 120 {
		preview = preview[:120] + "..."
	}
	return elementSummary{
		ID:       el.ID,
		Type:     string(el.Type),
		Name:     el.Name,
		ParentID: el.ParentID,
		Children: len(el.Children),
		X:        el.Position.X,
		Y:        el.Position.Y,
		Width:    el.Size.Width,
		Height:   el.Size.Height,
		Visible:  el.Visible,
		Locked:   el.Locked,
		Preview:  preview,
	}
}

// requireElement resolves an elementId argument against the store.
func (s *Server) requireElement(req mcp.CallToolRequest) (*easel.Element, error) {
	id := req.GetString("elementId", "")
	if id == "" {
		return nil, fmt.Errorf("elementId is required")
	}
	el := s.editor.Store().Element(id)
	if el == nil {
		return nil, fmt.Errorf("unknown element %q", id)
	}
	return el, nil
}
