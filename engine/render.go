package engine

import (
	"github.com/easelhq/easel"
	"github.com/easelhq/easel/style"
)

// DisplayItem is one paintable element: its resolved geometry and style plus
// whatever the host needs to draw it without consulting the store again.
type DisplayItem struct {
	ElementID string
	Type      easel.ElementType
	Name      string
	Rect      Rect
	Style     *style.Style
	Content   string
	Src       string
	Locked    bool
	Depth     int
	Outline   *Outline
}

// ArtboardItem is a page's frame on the canvas.
type ArtboardItem struct {
	PageID string
	Name   string
	Rect   Rect
}

// DisplayList is everything a renderer draws for one frame, in paint order:
// artboards first, then elements back to front, then interaction chrome.
type DisplayList struct {
	Artboards []ArtboardItem
	Items     []DisplayItem
	Marquee   *Rect
	DropLine  *Rect
}

// BuildDisplayList flattens the laid-out element forest into paint order.
// One visitor covers every element type; the traits table decides whether an
// item carries text, a media source, or children, so containers and leaves
// share a single code path.
func BuildDisplayList(in LayoutInput, layout *Layout) *DisplayList {
	list := &DisplayList{}
	for _, pageID := range in.PageOrder {
		page := in.Pages[pageID]
		if page == nil {
			continue
		}
		frame, ok := layout.Artboards[pageID]
		if !ok {
			continue
		}
		list.Artboards = append(list.Artboards, ArtboardItem{PageID: pageID, Name: page.Name, Rect: frame})

		root := in.Elements[page.RootElementID]
		if root == nil || !root.Visible {
			continue
		}
		appendItems(in, layout, list, styleResolverFn(in), root, 0)
	}

	if in.Overlay != nil {
		list.Marquee = in.Overlay.Marquee
		list.DropLine = dropLine(in, layout, in.Overlay.Reorder)
	}
	return list
}

func appendItems(in LayoutInput, layout *Layout, list *DisplayList, resolve func(*easel.Element) *style.Style, el *easel.Element, depth int) {
	r, ok := layout.Rect(el.ID)
	if !ok {
		return
	}

	item := DisplayItem{
		ElementID: el.ID,
		Type:      el.Type,
		Name:      el.Name,
		Rect:      r,
		Style:     resolve(el),
		Locked:    el.Locked,
		Depth:     depth,
	}
	if el.Type.IsTextual() {
		item.Content = el.Content
	}
	if el.Type.IsMedia() {
		item.Src = el.Src
	}
	if instr, ok := layout.Items[el.ID]; ok {
		item.Outline = instr.Outline
	}
	list.Items = append(list.Items, item)

	for _, child := range paintedChildren(in, el) {
		appendItems(in, layout, list, resolve, child, depth+1)
	}
}

// dropLine turns a reorder preview into the insertion indicator: a thin bar
// on the target sibling's leading or trailing edge along the parent's main
// axis, spanning its cross extent.
func dropLine(in LayoutInput, layout *Layout, preview *ReorderPreview) *Rect {
	if preview == nil {
		return nil
	}
	target, ok := layout.Rect(preview.TargetID)
	if !ok {
		return nil
	}
	parent := in.Elements[preview.ParentID]
	if parent == nil {
		return nil
	}

	const thickness = 2.0
	horizontal := styleResolverFn(in)(parent).Direction() != style.DirectionColumn

	var line Rect
	if horizontal {
		line = Rect{X: target.X - thickness/2, Y: target.Y, Width: thickness, Height: target.Height}
		if !preview.Before {
			line.X = target.X + target.Width - thickness/2
		}
	} else {
		line = Rect{X: target.X, Y: target.Y - thickness/2, Width: target.Width, Height: thickness}
		if !preview.Before {
			line.Y = target.Y + target.Height - thickness/2
		}
	}
	return &line
}

// DisplayList builds the current frame's paint list. While a text edit is in
// flight the draft replaces the committed content so the host renders what
// the user is typing.
func (e *Editor) DisplayList() *DisplayList {
	e.mu.Lock()
	defer e.mu.Unlock()

	in := e.layoutInputLocked()
	list := BuildDisplayList(in, ComputeLayout(in))
	if e.editingID != "" {
		for i := range list.Items {
			if list.Items[i].ElementID == e.editingID {
				list.Items[i].Content = e.editingDraft
				break
			}
		}
	}
	return list
}
