package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/engine"
	"github.com/easelhq/easel/internal/config"
	"github.com/easelhq/easel/internal/observability"
	"github.com/easelhq/easel/style"
)

func newRenderCmd() *cobra.Command {
	renderCmd := &cobra.Command{
		Use:   "render [document.json]",
		Short: "Solve a document's layout and print the computed geometry",
		Long: `Loads the document, resolves styles at a breakpoint and runs the layout
pass, then prints every element's solved rect. The tree format nests
children under their containers; the table format is a flat paint-order
listing.

Without an argument the document comes from the nearest easel.toml.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("render.breakpoint", cmd.Flags().Lookup("breakpoint")); err != nil {
				return err
			}
			return viper.BindPFlag("render.width", cmd.Flags().Lookup("width"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveDocumentArg(args)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			return runRender(cmd, path, format)
		},
	}

	renderCmd.Flags().StringP("breakpoint", "b", "", "breakpoint id to resolve styles at (overrides config/env)")
	renderCmd.Flags().Float64P("width", "w", 0, "pick the breakpoint matching a viewport width instead")
	renderCmd.Flags().String("format", "tree", "output format: tree or table")
	return renderCmd
}

func runRender(cmd *cobra.Command, path, format string) error {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}
	logger := observability.L()

	doc, err := easel.LoadDocument(path)
	if err != nil {
		return err
	}
	ws, err := easel.LoadWorkspaceConfig(filepath.Dir(path))
	if err != nil {
		return err
	}

	store := easel.NewStore()
	editor := engine.NewEditor(store, ws.StyleBreakpoints())
	if err := editor.LoadDocument(doc); err != nil {
		return err
	}

	bp, err := pickBreakpoint(editor.Breakpoints(), cfg.Render.Breakpoint, cfg.Render.Width)
	if err != nil {
		return err
	}
	editor.SetActiveBreakpoint(bp.ID)
	logger.Debug("rendering document",
		zap.String("path", path),
		zap.String("breakpoint", bp.ID),
		zap.String("format", format),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n\n",
		lipgloss.NewStyle().Bold(true).Render(path),
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(
			fmt.Sprintf("@ %s (%.0f x %.0f)", bp.Name, bp.Width, bp.Height)),
	)

	switch format {
	case "tree":
		renderTree(out, editor)
	case "table":
		renderTable(out, editor)
	default:
		return fmt.Errorf("format %q is not one of tree, table", format)
	}
	return nil
}

// pickBreakpoint resolves the --breakpoint / --width pair: an explicit id
// wins, a width picks the narrowest profile at least that wide, and neither
// falls back to the default breakpoint.
func pickBreakpoint(breakpoints []style.Breakpoint, id string, width float64) (style.Breakpoint, error) {
	if id != "" {
		bp, ok := style.ByID(breakpoints, id)
		if !ok {
			known := make([]string, len(breakpoints))
			for i, b := range breakpoints {
				known[i] = b.ID
			}
			return style.Breakpoint{}, fmt.Errorf("unknown breakpoint %q; have %s", id, strings.Join(known, ", "))
		}
		return bp, nil
	}
	if width > 0 {
		if bp, ok := style.BreakpointForWidth(breakpoints, width); ok {
			return bp, nil
		}
	}
	if bp, ok := style.DefaultOf(breakpoints); ok {
		return bp, nil
	}
	return style.Breakpoint{}, fmt.Errorf("no breakpoints configured")
}

func renderTree(w io.Writer, editor *engine.Editor) {
	pageStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	typeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	rectStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	store := editor.Store()
	layout := editor.Layout()
	for _, pageID := range store.PageOrder() {
		page := store.Page(pageID)
		if page == nil {
			continue
		}
		frame := layout.Artboards[pageID]
		fmt.Fprintf(w, "%s %s\n", pageStyle.Render(page.Name), rectStyle.Render(formatRect(frame)))
		writeTree(w, store, layout, typeStyle, rectStyle, page.RootElementID, 1)
		fmt.Fprintln(w)
	}
}

func writeTree(w io.Writer, store *easel.Store, layout *engine.Layout, typeStyle, rectStyle lipgloss.Style, id string, depth int) {
	el := store.Element(id)
	if el == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	r, ok := layout.Rect(id)
	if !ok {
		fmt.Fprintf(w, "%s%s %s\n", indent, el.Name, typeStyle.Render("(hidden)"))
		return
	}
	fmt.Fprintf(w, "%s%s %s %s\n", indent, el.Name,
		typeStyle.Render(string(el.Type)), rectStyle.Render(formatRect(r)))
	for _, cid := range el.Children {
		writeTree(w, store, layout, typeStyle, rectStyle, cid, depth+1)
	}
}

func renderTable(w io.Writer, editor *engine.Editor) {
	headStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	list := editor.DisplayList()
	fmt.Fprintln(w, headStyle.Render(fmt.Sprintf("%-10s %-12s %-28s %8s %8s %8s %8s",
		"ID", "TYPE", "NAME", "X", "Y", "W", "H")))
	for _, a := range list.Artboards {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%-10s %-12s %-28s %8.0f %8.0f %8.0f %8.0f",
			shortID(a.PageID), "artboard", a.Name, a.Rect.X, a.Rect.Y, a.Rect.Width, a.Rect.Height)))
	}
	for _, item := range list.Items {
		name := strings.Repeat("  ", item.Depth) + item.Name
		if len(name) > 28 {
			name = name[:25] + "..."
		}
		fmt.Fprintf(w, "%-10s %-12s %-28s %8.0f %8.0f %8.0f %8.0f\n",
			shortID(item.ElementID), item.Type, name,
			item.Rect.X, item.Rect.Y, item.Rect.Width, item.Rect.Height)
	}
}

func formatRect(r engine.Rect) string {
	return fmt.Sprintf("[%.0f,%.0f %.0fx%.0f]", r.X, r.Y, r.Width, r.Height)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
