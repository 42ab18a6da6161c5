package engine

import (
	"time"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/style"
)

// DoubleClickWindow is how soon a second click must land to count as a
// double click.
const DoubleClickWindow = 400 * time.Millisecond

// MarqueeMinSize is the marquee side length below which, on both axes, the
// drag is a null drag and selects nothing.
const MarqueeMinSize = 5.0

// Selection is the ordered selected-id set. Insertion order is selection
// order; the first id is the primary selection.
type Selection struct {
	ids []string
	set map[string]bool
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{set: make(map[string]bool)}
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	return s.set[id]
}

// Add appends id unless already present.
func (s *Selection) Add(id string) {
	if id == "" || s.set[id] {
		return
	}
	s.set[id] = true
	s.ids = append(s.ids, id)
}

// Remove drops id from the selection.
func (s *Selection) Remove(id string) {
	if !s.set[id] {
		return
	}
	delete(s.set, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
}

// Toggle flips id's membership.
func (s *Selection) Toggle(id string) {
	if s.set[id] {
		s.Remove(id)
	} else {
		s.Add(id)
	}
}

// Replace makes ids the entire selection, in order.
func (s *Selection) Replace(ids ...string) {
	s.Clear()
	for _, id := range ids {
		s.Add(id)
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = s.ids[:0]
	s.set = make(map[string]bool)
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string {
	return append([]string(nil), s.ids...)
}

// Primary returns the first-selected id, or empty.
func (s *Selection) Primary() string {
	if len(s.ids) == 0 {
		return ""
	}
	return s.ids[0]
}

// Len returns the selection size.
func (s *Selection) Len() int {
	return len(s.ids)
}

// Prune drops ids the predicate no longer recognizes. Called after undo,
// redo and document loads.
func (s *Selection) Prune(exists func(id string) bool) {
	kept := s.ids[:0]
	for _, id := range s.ids {
		if exists(id) {
			kept = append(kept, id)
		} else {
			delete(s.set, id)
		}
	}
	s.ids = kept
}

func styleResolverFn(in LayoutInput) func(*easel.Element) *style.Style {
	return func(el *easel.Element) *style.Style {
		if in.Resolver == nil {
			return el.Styles.Clone()
		}
		return in.Resolver.Resolve(el.ID, el.StyleRev(), el.Styles, el.ResponsiveStyles)
	}
}

// paintedChildren returns visible children in paint order: document order
// stably lifted by zIndex. Later entries paint on top.
func paintedChildren(in LayoutInput, parent *easel.Element) []*easel.Element {
	out := make([]*easel.Element, 0, len(parent.Children))
	for _, id := range parent.Children {
		child := in.Elements[id]
		if child != nil && child.Visible {
			out = append(out, child)
		}
	}
	sortByZIndex(out, styleResolverFn(in))
	return out
}

// HitTest returns the deepest visible element under the canvas point within
// the page subtree, preferring topmost siblings. The page root itself is
// returned for hits on empty artboard background; nil means the point missed
// the artboard entirely. Locked elements hit normally; the click policy
// decides what to do with them.
func HitTest(in LayoutInput, layout *Layout, rootID string, p easel.Vec2) *easel.Element {
	root := in.Elements[rootID]
	if root == nil || !root.Visible {
		return nil
	}
	rect, ok := layout.Rect(rootID)
	if !ok || !rect.Contains(p) {
		return nil
	}
	return hitElement(in, layout, root, p)
}

func hitElement(in LayoutInput, layout *Layout, el *easel.Element, p easel.Vec2) *easel.Element {
	children := paintedChildren(in, el)
	for i := len(children) - 1; i >= 0; i-- {
		child := children[i]
		rect, ok := layout.Rect(child.ID)
		if !ok || !rect.Contains(p) {
			continue
		}
		return hitElement(in, layout, child, p)
	}
	return el
}

// MarqueeHit collects every element whose computed rect intersects the
// canvas-space rectangle, walking the page subtree depth-first and skipping
// the page root. Elements at any depth are selected directly; the
// parent-first click rule deliberately does not apply here. A rectangle
// under the minimum size on both axes is a null drag and selects nothing.
func MarqueeHit(in LayoutInput, layout *Layout, rootID string, r Rect) []string {
	if r.Width < MarqueeMinSize && r.Height < MarqueeMinSize {
		return nil
	}
	root := in.Elements[rootID]
	if root == nil {
		return nil
	}
	var hits []string
	var walk func(el *easel.Element)
	walk = func(el *easel.Element) {
		for _, id := range el.Children {
			child := in.Elements[id]
			if child == nil || !child.Visible {
				continue
			}
			if rect, ok := layout.Rect(child.ID); ok && rect.Intersects(r) {
				hits = append(hits, child.ID)
			}
			// Free children can overflow their parent, so descend even
			// past non-intersecting ones.
			walk(child)
		}
	}
	walk(root)
	return hits
}

// ClickAction is the decision the click policy hands back to the editor.
type ClickAction int

const (
	// ClickIgnore leaves everything untouched.
	ClickIgnore ClickAction = iota

	// ClickToggle flips the target's selection membership.
	ClickToggle

	// ClickEnterTextEdit starts text editing on the target.
	ClickEnterTextEdit

	// ClickSelectTarget replaces the selection with exactly the target.
	ClickSelectTarget

	// ClickSelectParent replaces the selection with the target's parent.
	ClickSelectParent

	// ClickNoop keeps the current selection as is.
	ClickNoop
)

// resolveClick applies the click policy, evaluated strictly in order:
//
//  1. a locked target, or a click on the element already being text-edited,
//     is ignored
//  2. shift toggles membership and bypasses everything below
//  3. a double click on a text-capable type enters text editing
//  4. cmd/ctrl deep-selects exactly the target
//  5. an already-selected target is left alone, so re-clicks inside a
//     multi-selection do not collapse it
//  6. an unselected target inside a container that is itself unselected and
//     not the page root selects that parent first
//  7. otherwise the target is selected
func resolveClick(target, parent *easel.Element, sel *Selection, editingID string, shift, meta, doubleClick bool) ClickAction {
	if target.Locked || editingID == target.ID {
		return ClickIgnore
	}
	if shift {
		return ClickToggle
	}
	if doubleClick && target.Type.IsTextCapable() {
		return ClickEnterTextEdit
	}
	if meta {
		return ClickSelectTarget
	}
	if sel.Has(target.ID) {
		return ClickNoop
	}
	if parent != nil && parent.Type.IsContainer() && parent.Type != easel.TypePage && !sel.Has(parent.ID) {
		return ClickSelectParent
	}
	return ClickSelectTarget
}
