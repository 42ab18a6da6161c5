package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/style"
)

func (s *Server) registerElementTools() {
	// ── canvas_add_element ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_add_element",
		mcp.WithDescription("Create a new element. Containers: frame, stack, grid, section, container, row, box. Leaves: text, heading, paragraph, button, link, image, icon, video, input."),
		mcp.WithString("type", mcp.Description("Element type tag"), mcp.Required()),
		mcp.WithString("parentId", mcp.Description("Parent container id (optional, defaults to the current page root)")),
		mcp.WithString("content", mcp.Description("Initial text content or media source (optional)")),
		mcp.WithNumber("x", mcp.Description("X position inside a free-positioning parent (optional)")),
		mcp.WithNumber("y", mcp.Description("Y position inside a free-positioning parent (optional)")),
	), s.handleAddElement)

	// ── canvas_delete_element ──────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_delete_element",
		mcp.WithDescription("Delete an element and its whole subtree"),
		mcp.WithString("elementId", mcp.Description("Element id to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteElement)

	// ── canvas_duplicate_element ───────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_duplicate_element",
		mcp.WithDescription("Duplicate an element subtree next to the original"),
		mcp.WithString("elementId", mcp.Description("Element id to duplicate"), mcp.Required()),
	), s.handleDuplicateElement)

	// ── canvas_move_element ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_move_element",
		mcp.WithDescription("Move an element to a new free position. Only meaningful while the parent does not auto-layout its children."),
		mcp.WithString("elementId", mcp.Description("Element id"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
	), s.handleMoveElement)

	// ── canvas_resize_element ──────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_resize_element",
		mcp.WithDescription("Resize an element's fixed-mode baseline size"),
		mcp.WithString("elementId", mcp.Description("Element id"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height"), mcp.Required()),
	), s.handleResizeElement)

	// ── canvas_set_content ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_set_content",
		mcp.WithDescription("Set an element's text content, or the source reference for media elements"),
		mcp.WithString("elementId", mcp.Description("Element id"), mcp.Required()),
		mcp.WithString("content", mcp.Description("New content"), mcp.Required()),
	), s.handleSetContent)

	// ── canvas_set_styles ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_set_styles",
		mcp.WithDescription(`Merge a partial style patch into an element's base style. Pass a JSON object; only the properties present are changed, e.g. {"display":"flex","flexDirection":"row","gap":10,"resizeX":"fill"}.`),
		mcp.WithString("elementId", mcp.Description("Element id"), mcp.Required()),
		mcp.WithString("styles", mcp.Description("JSON style patch"), mcp.Required()),
		mcp.WithString("breakpointId", mcp.Description("Apply the patch as an override for this breakpoint instead of the base style (optional)")),
	), s.handleSetStyles)

	// ── canvas_reorder_element ─────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_reorder_element",
		mcp.WithDescription("Move an element immediately before or after a sibling in the parent's flow order"),
		mcp.WithString("elementId", mcp.Description("Element id to move"), mcp.Required()),
		mcp.WithString("targetId", mcp.Description("Sibling id to land next to"), mcp.Required()),
		mcp.WithString("position", mcp.Description(`"before" or "after" the target (default "after")`)),
	), s.handleReorderElement)

	// ── canvas_group ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_group",
		mcp.WithDescription("Group elements into a new free-positioning frame, preserving their visual positions"),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element ids (optional, defaults to the current selection)")),
	), s.handleGroup)

	// ── canvas_wrap_in_frame ───────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_wrap_in_frame",
		mcp.WithDescription("Wrap elements in a new auto-layout frame that flows them in order"),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element ids (optional, defaults to the current selection)")),
	), s.handleWrapInFrame)

	// ── canvas_ungroup ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_ungroup",
		mcp.WithDescription("Dissolve a container, re-parenting its children to the grandparent"),
		mcp.WithString("elementId", mcp.Description("Container id (optional, defaults to the current selection)")),
	), s.handleUngroup)

	// ── canvas_select ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_select",
		mcp.WithDescription("Select an element, replacing or extending the current selection"),
		mcp.WithString("elementId", mcp.Description("Element id"), mcp.Required()),
		mcp.WithBoolean("add", mcp.Description("Add to the selection instead of replacing it")),
	), s.handleSelect)

	// ── canvas_deselect_all ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_deselect_all",
		mcp.WithDescription("Clear the selection"),
	), s.handleDeselectAll)

	// ── canvas_list_elements ───────────────────────────
	s.mcp.AddTool(mcp.NewTool("canvas_list_elements",
		mcp.WithDescription("List the elements of a page in tree order, with geometry and a content preview"),
		mcp.WithString("pageId", mcp.Description("Page id (optional, defaults to the current page)")),
		mcp.WithString("type", mcp.Description("Filter by element type (optional)")),
	), s.handleListElements)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleAddElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := easel.ElementType(req.GetString("type", ""))
	if !typ.Valid() {
		return nil, fmt.Errorf("unknown element type %q", typ)
	}

	el := s.editor.AddElement(typ, req.GetString("parentId", ""))
	if el == nil {
		return nil, fmt.Errorf("could not add %q under parent %q", typ, req.GetString("parentId", ""))
	}

	args := req.GetArguments()
	if content := req.GetString("content", ""); content != "" {
		s.editor.UpdateElementContent(el.ID, content)
	}
	x, hasX := args["x"].(float64)
	y, hasY := args["y"].(float64)
	if hasX || hasY {
		pos := el.Position
		if hasX {
			pos.X = x
		}
		if hasY {
			pos.Y = y
		}
		s.editor.MoveElement(el.ID, pos)
	}

	s.logger.Info("element added", zap.String("type", string(typ)), zap.String("id", el.ID))
	return jsonResult(summarize(s.editor.Store().Element(el.ID)))
}

func (s *Server) handleDeleteElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.requireElement(req)
	if err != nil {
		return nil, err
	}
	if !s.editor.DeleteElement(el.ID) {
		return nil, fmt.Errorf("element %q cannot be deleted", el.ID)
	}
	return textResult(fmt.Sprintf("Element %s deleted", el.ID)), nil
}

func (s *Server) handleDuplicateElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.requireElement(req)
	if err != nil {
		return nil, err
	}
	dup := s.editor.DuplicateElement(el.ID)
	if dup == nil {
		return nil, fmt.Errorf("element %q cannot be duplicated", el.ID)
	}
	return jsonResult(summarize(dup))
}

func (s *Server) handleMoveElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.requireElement(req)
	if err != nil {
		return nil, err
	}
	args := req.GetArguments()
	pos := easel.Vec2{
		X: getFloat(args, "x", el.Position.X),
		Y: getFloat(args, "y", el.Position.Y),
	}
	if !s.editor.MoveElement(el.ID, pos) {
		return nil, fmt.Errorf("element %q cannot be moved", el.ID)
	}
	return textResult(fmt.Sprintf("Element %s moved to (%.0f, %.0f)", el.ID, pos.X, pos.Y)), nil
}

func (s *Server) handleResizeElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.requireElement(req)
	if err != nil {
		return nil, err
	}
	args := req.GetArguments()
	size := easel.Size{
		Width:  getFloat(args, "width", el.Size.Width),
		Height: getFloat(args, "height", el.Size.Height),
	}
	if size.Width < 0 || size.Height < 0 {
		return nil, fmt.Errorf("size %gx%g is negative", size.Width, size.Height)
	}
	if !s.editor.ResizeElement(el.ID, size) {
		return nil, fmt.Errorf("element %q cannot be resized", el.ID)
	}
	return textResult(fmt.Sprintf("Element %s resized to %.0f x %.0f", el.ID, size.Width, size.Height)), nil
}

func (s *Server) handleSetContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.requireElement(req)
	if err != nil {
		return nil, err
	}
	content := req.GetString("content", "")
	if !s.editor.UpdateElementContent(el.ID, content) {
		return nil, fmt.Errorf("element %q does not take content", el.ID)
	}
	return textResult(fmt.Sprintf("Element %s content updated", el.ID)), nil
}

func (s *Server) handleSetStyles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.requireElement(req)
	if err != nil {
		return nil, err
	}
	raw := req.GetString("styles", "")
	var patch style.Style
	if err := json.Unmarshal([]byte(raw), &patch); err != nil {
		return nil, fmt.Errorf("parse styles JSON: %w", err)
	}

	if bpID := req.GetString("breakpointId", ""); bpID != "" {
		if _, ok := style.ByID(s.editor.Breakpoints(), bpID); !ok {
			return nil, fmt.Errorf("unknown breakpoint %q", bpID)
		}
		if !s.editor.SetResponsiveStyle(el.ID, bpID, &patch) {
			return nil, fmt.Errorf("could not update responsive styles of %q", el.ID)
		}
		return textResult(fmt.Sprintf("Element %s styles updated for breakpoint %s", el.ID, bpID)), nil
	}

	if !s.editor.UpdateElementStyles(el.ID, &patch) {
		return nil, fmt.Errorf("could not update styles of %q", el.ID)
	}
	return textResult(fmt.Sprintf("Element %s styles updated", el.ID)), nil
}

func (s *Server) handleReorderElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.requireElement(req)
	if err != nil {
		return nil, err
	}
	targetID := req.GetString("targetId", "")
	if targetID == "" {
		return nil, fmt.Errorf("targetId is required")
	}
	position := req.GetString("position", "after")
	if position != "before" && position != "after" {
		return nil, fmt.Errorf(`position %q is not "before" or "after"`, position)
	}
	if !s.editor.ReorderElement(el.ID, targetID, position == "before") {
		return nil, fmt.Errorf("cannot reorder %q relative to %q; they must share a parent", el.ID, targetID)
	}
	return textResult(fmt.Sprintf("Element %s moved %s %s", el.ID, position, targetID)), nil
}

// selectForTool applies an optional elementIds argument to the selection so
// the group/wrap/ungroup tools can name their members directly.
func (s *Server) selectForTool(req mcp.CallToolRequest) error {
	idsStr := req.GetString("elementIds", "")
	if idsStr == "" {
		return nil
	}
	ids := splitIDs(idsStr)
	if len(ids) == 0 {
		return fmt.Errorf("elementIds %q holds no ids", idsStr)
	}
	s.editor.DeselectAll()
	for _, id := range ids {
		if s.editor.Store().Element(id) == nil {
			return fmt.Errorf("unknown element %q", id)
		}
		s.editor.SelectElement(id, true)
	}
	return nil
}

func (s *Server) handleGroup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.selectForTool(req); err != nil {
		return nil, err
	}
	shell := s.editor.GroupSelection()
	if shell == nil {
		return nil, fmt.Errorf("nothing groupable selected; members must share one parent")
	}
	return jsonResult(summarize(shell))
}

func (s *Server) handleWrapInFrame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.selectForTool(req); err != nil {
		return nil, err
	}
	shell := s.editor.WrapSelectionInFrame()
	if shell == nil {
		return nil, fmt.Errorf("nothing wrappable selected; members must share one parent")
	}
	return jsonResult(summarize(shell))
}

func (s *Server) handleUngroup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if id := req.GetString("elementId", ""); id != "" {
		if s.editor.Store().Element(id) == nil {
			return nil, fmt.Errorf("unknown element %q", id)
		}
		s.editor.SelectElement(id, false)
	}
	freed := s.editor.UngroupSelection()
	if len(freed) == 0 {
		return nil, fmt.Errorf("nothing ungroupable selected")
	}
	return textResult(fmt.Sprintf("Ungrouped into %d elements: %s", len(freed), strings.Join(freed, ", "))), nil
}

func (s *Server) handleSelect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	el, err := s.requireElement(req)
	if err != nil {
		return nil, err
	}
	s.editor.SelectElement(el.ID, req.GetBool("add", false))
	return jsonResult(s.editor.SelectedIDs())
}

func (s *Server) handleDeselectAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.editor.DeselectAll()
	return textResult("Selection cleared"), nil
}

func (s *Server) handleListElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	if pageID == "" {
		pageID = s.editor.CurrentPageID()
	}
	page := s.editor.Store().Page(pageID)
	if page == nil {
		return nil, fmt.Errorf("unknown page %q", pageID)
	}

	filter := easel.ElementType(req.GetString("type", ""))
	var summaries []elementSummary
	s.editor.Store().Walk(page.RootElementID, func(el *easel.Element) bool {
		if filter == "" || el.Type == filter {
			summaries = append(summaries, summarize(el))
		}
		return true
	})
	return jsonResult(summaries)
}

// ── Argument helpers ───────────────────────────────────────

func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
