package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/engine"
	"github.com/easelhq/easel/style"
)

func (s *Server) registerDocumentTools() {
	// ── canvas_list_pages ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_list_pages",
		mcp.WithDescription("List the document's pages in order"),
	), s.handleListPages)

	// ── canvas_insert_tree ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_insert_tree",
		mcp.WithDescription(`Insert a whole element subtree from exchange JSON, e.g. {"type":"stack","styles":{"gap":12},"children":[{"type":"heading","content":"Hi"}]}. The tree is validated first; one bad node rejects everything.`),
		mcp.WithString("tree", mcp.Description("Exchange JSON for the subtree root"), mcp.Required()),
		mcp.WithString("parentId", mcp.Description("Parent container id (optional, defaults to the current page root)")),
	), s.handleInsertTree)

	// ── canvas_export_tree ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_export_tree",
		mcp.WithDescription("Export an element subtree as exchange JSON. Without elementId, exports the current page's top-level elements as an array."),
		mcp.WithString("elementId", mcp.Description("Subtree root id (optional)")),
	), s.handleExportTree)

	// ── canvas_set_breakpoint ──────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_set_breakpoint",
		mcp.WithDescription("Switch the active breakpoint used for style resolution and layout"),
		mcp.WithString("breakpointId", mcp.Description("Breakpoint id, e.g. desktop, tablet, phone"), mcp.Required()),
	), s.handleSetBreakpoint)

	// ── canvas_layout ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_layout",
		mcp.WithDescription("Solve the layout and return the computed rect of every visible element on a page"),
		mcp.WithString("pageId", mcp.Description("Page id (optional, defaults to the current page)")),
	), s.handleLayout)

	// ── canvas_undo ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_undo",
		mcp.WithDescription("Undo the last committed operation"),
	), s.handleUndo)

	// ── canvas_redo ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_redo",
		mcp.WithDescription("Redo the last undone operation"),
	), s.handleRedo)
}

// ── Handlers ───────────────────────────────────────────────

type pageSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Elements int     `json:"elements"`
	Current  bool    `json:"current"`
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store := s.editor.Store()
	current := s.editor.CurrentPageID()

	var summaries []pageSummary
	for _, id := range store.PageOrder() {
		page := store.Page(id)
		if page == nil {
			continue
		}
		count := 0
		store.Walk(page.RootElementID, func(*easel.Element) bool {
			count++
			return true
		})
		summaries = append(summaries, pageSummary{
			ID:       page.ID,
			Name:     page.Name,
			Width:    page.Width,
			Height:   page.Height,
			Elements: count,
			Current:  page.ID == current,
		})
	}
	return jsonResult(summaries)
}

func (s *Server) handleInsertTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	node, err := easel.ParseExchange([]byte(req.GetString("tree", "")))
	if err != nil {
		return nil, err
	}

	root, err := s.editor.ImportTree(node, req.GetString("parentId", ""))
	if err != nil {
		return nil, err
	}

	count := 0
	s.editor.Store().Walk(root.ID, func(*easel.Element) bool {
		count++
		return true
	})
	s.logger.Info("tree inserted", zap.String("root", root.ID), zap.Int("elements", count))
	return jsonResult(map[string]any{
		"rootId":   root.ID,
		"elements": count,
	})
}

func (s *Server) handleExportTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store := s.editor.Store()

	if id := req.GetString("elementId", ""); id != "" {
		node, err := store.ExportNode(id)
		if err != nil {
			return nil, err
		}
		return jsonResult(node)
	}

	// Page roots are not exchange nodes, so a whole page exports as the
	// array of its top-level elements.
	page := store.Page(s.editor.CurrentPageID())
	if page == nil {
		return nil, fmt.Errorf("no current page")
	}
	root := store.Element(page.RootElementID)
	if root == nil {
		return nil, fmt.Errorf("page %q has no root element", page.ID)
	}
	nodes := []*easel.ExchangeNode{}
	for _, cid := range root.Children {
		node, err := store.ExportNode(cid)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return jsonResult(nodes)
}

func (s *Server) handleSetBreakpoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("breakpointId", "")
	breakpoints := s.editor.Breakpoints()
	bp, ok := style.ByID(breakpoints, id)
	if !ok {
		known := make([]string, len(breakpoints))
		for i, b := range breakpoints {
			known[i] = b.ID
		}
		return nil, fmt.Errorf("unknown breakpoint %q; have %s", id, strings.Join(known, ", "))
	}
	s.editor.SetActiveBreakpoint(bp.ID)
	return textResult(fmt.Sprintf("Active breakpoint is now %s (%s, %.0fpx)", bp.ID, bp.Name, bp.Width)), nil
}

type layoutEntry struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Type easel.ElementType `json:"type"`
	Rect engine.Rect       `json:"rect"`
}

func (s *Server) handleLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	if pageID == "" {
		pageID = s.editor.CurrentPageID()
	}
	page := s.editor.Store().Page(pageID)
	if page == nil {
		return nil, fmt.Errorf("unknown page %q", pageID)
	}

	layout := s.editor.Layout()
	var entries []layoutEntry
	s.editor.Store().Walk(page.RootElementID, func(el *easel.Element) bool {
		r, ok := layout.Rect(el.ID)
		if !ok {
			// Hidden subtrees have no computed rects.
			return true
		}
		entries = append(entries, layoutEntry{
			ID:   el.ID,
			Name: el.Name,
			Type: el.Type,
			Rect: r,
		})
		return true
	})
	return jsonResult(map[string]any{
		"pageId":     pageID,
		"breakpoint": s.editor.ActiveBreakpointID(),
		"elements":   entries,
	})
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.editor.Undo() {
		return textResult("Nothing to undo"), nil
	}
	return textResult("Undone"), nil
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.editor.Redo() {
		return textResult("Nothing to redo"), nil
	}
	return textResult("Redone"), nil
}
