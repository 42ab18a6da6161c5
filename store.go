package easel

import (
	"fmt"
	"sync"

	"github.com/easelhq/easel/style"
)

// ChangeKind identifies what kind of store mutation occurred.
type ChangeKind uint8

const (
	ChangeUpdate  ChangeKind = iota // Element properties changed
	ChangeAdd                       // Elements added to the tree
	ChangeRemove                    // Elements removed from the tree
	ChangeReorder                   // Children reordered
	ChangePage                      // Page properties changed
	ChangeReload                    // Whole document replaced
)

// Change is a single store mutation notice sent to subscribers.
type Change struct {
	Kind  ChangeKind
	IDs   []string
	Label string
}

const changeBuffer = 64

// Default artboard size for new pages.
const (
	defaultPageWidth  = 1200
	defaultPageHeight = 800
)

// Gap between artboards placed side by side on the canvas.
const pagePlacementGap = 100

// Store is the canonical id-indexed element and page state, the single
// source of truth every other component reads. All mutation goes through
// named operations that keep the element graph a valid forest; invalid
// input is a silent no-op rather than an error.
//
// Returned elements and pages are live references. Callers treat them as
// read-only and route every mutation through a Store method.
type Store struct {
	mu        sync.RWMutex
	elements  map[string]*Element
	pages     map[string]*Page
	pageOrder []string

	// Monotonic style revision source. Never reset, so revisions stay
	// unique across undo/redo restores.
	styleCounter uint64

	subs   []chan Change
	closed bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		elements: make(map[string]*Element),
		pages:    make(map[string]*Page),
	}
}

// Subscribe returns a channel of change notices. Notices are advisory: when
// a subscriber falls behind the buffer they are dropped, never blocking the
// mutation path.
func (s *Store) Subscribe() <-chan Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Change, changeBuffer)
	s.subs = append(s.subs, ch)
	return ch
}

// Close closes all subscriber channels.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

// publish sends a change notice to every subscriber. Callers hold s.mu.
func (s *Store) publish(c Change) {
	if s.closed {
		return
	}
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// nextRev hands out the next style revision. Callers hold s.mu.
func (s *Store) nextRev() uint64 {
	s.styleCounter++
	return s.styleCounter
}

// AddPage creates a page with a fresh root element and places it to the
// right of the existing artboards.
func (s *Store) AddPage(name string) *Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	root := NewElement(TypePage)
	root.styleRev = s.nextRev()
	if name == "" {
		name = fmt.Sprintf("Page %d", len(s.pageOrder)+1)
	}
	page := &Page{
		ID:            NewID(),
		Name:          name,
		RootElementID: root.ID,
		X:             float64(len(s.pageOrder)) * (defaultPageWidth + pagePlacementGap),
		Width:         defaultPageWidth,
		Height:        defaultPageHeight,
	}
	s.elements[root.ID] = root
	s.pages[page.ID] = page
	s.pageOrder = append(s.pageOrder, page.ID)

	s.publish(Change{Kind: ChangeAdd, IDs: []string{page.ID, root.ID}, Label: "Add page"})
	return page
}

// MovePagePosition places an artboard on the canvas.
func (s *Store) MovePagePosition(pageID string, pos Vec2) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.pages[pageID]
	if !ok {
		return false
	}
	page.X, page.Y = pos.X, pos.Y
	s.publish(Change{Kind: ChangePage, IDs: []string{pageID}, Label: "Move page"})
	return true
}

// UpdatePage applies the non-nil fields of patch to a page.
func (s *Store) UpdatePage(pageID string, patch PagePatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.pages[pageID]
	if !ok {
		return false
	}
	if patch.Name != nil {
		page.Name = *patch.Name
	}
	if patch.Width != nil {
		page.Width = *patch.Width
	}
	if patch.Height != nil {
		page.Height = *patch.Height
	}
	s.publish(Change{Kind: ChangePage, IDs: []string{pageID}, Label: "Update page"})
	return true
}

// AddElement creates a fresh element of the given type under parentID.
// Returns nil when the type is unknown, the type is page, or the parent is
// missing or not a container.
func (s *Store) AddElement(typ ElementType, parentID string) *Element {
	s.mu.Lock()
	defer s.mu.Unlock()

	if typ == TypePage {
		return nil
	}
	parent, ok := s.elements[parentID]
	if !ok || !parent.Type.IsContainer() {
		return nil
	}
	el := NewElement(typ)
	if el == nil {
		return nil
	}
	el.ParentID = parent.ID
	el.styleRev = s.nextRev()
	s.elements[el.ID] = el
	parent.Children = append(parent.Children, el.ID)

	s.publish(Change{Kind: ChangeAdd, IDs: []string{el.ID}, Label: "Add element"})
	return el
}

// DeleteElement removes an element and its whole subtree. Page roots cannot
// be deleted through this path.
func (s *Store) DeleteElement(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.elements[id]
	if !ok || s.isPageRootLocked(id) {
		return false
	}

	removed := []string{}
	s.collectSubtreeLocked(id, &removed)
	for _, rid := range removed {
		delete(s.elements, rid)
	}
	if parent, ok := s.elements[el.ParentID]; ok {
		parent.Children = removeID(parent.Children, id)
	}

	s.publish(Change{Kind: ChangeRemove, IDs: removed, Label: "Delete element"})
	return true
}

// DuplicateElement deep-copies an element subtree with fresh ids and inserts
// the copy right after the original among its siblings.
func (s *Store) DuplicateElement(id string) *Element {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.elements[id]
	if !ok || s.isPageRootLocked(id) {
		return nil
	}
	parent, ok := s.elements[el.ParentID]
	if !ok {
		return nil
	}

	copyRoot := s.cloneSubtreeLocked(el, parent.ID)
	copyRoot.Position = el.Position.Add(Vec2{X: 10, Y: 10})

	idx := indexOf(parent.Children, id)
	parent.Children = insertAt(parent.Children, idx+1, copyRoot.ID)

	s.publish(Change{Kind: ChangeAdd, IDs: []string{copyRoot.ID}, Label: "Duplicate element"})
	return copyRoot
}

// cloneSubtreeLocked copies el and its descendants with fresh ids under
// parentID, registering every copy. Callers hold s.mu.
func (s *Store) cloneSubtreeLocked(el *Element, parentID string) *Element {
	c := el.Clone()
	c.ID = NewID()
	c.ParentID = parentID
	c.styleRev = s.nextRev()
	c.Children = []string{}
	s.elements[c.ID] = c
	for _, childID := range el.Children {
		child, ok := s.elements[childID]
		if !ok {
			continue
		}
		cc := s.cloneSubtreeLocked(child, c.ID)
		c.Children = append(c.Children, cc.ID)
	}
	return c
}

// MoveElement sets an element's free position.
func (s *Store) MoveElement(id string, pos Vec2) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.elements[id]
	if !ok || s.isPageRootLocked(id) {
		return false
	}
	el.Position = pos
	s.publish(Change{Kind: ChangeUpdate, IDs: []string{id}, Label: "Move element"})
	return true
}

// ResizeElement sets an element's fixed-mode baseline size.
func (s *Store) ResizeElement(id string, size Size) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.elements[id]
	if !ok {
		return false
	}
	el.Size = size
	s.publish(Change{Kind: ChangeUpdate, IDs: []string{id}, Label: "Resize element"})
	return true
}

// UpdateElementContent sets the content payload: text for textual types,
// the source reference for media types.
func (s *Store) UpdateElementContent(id, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.elements[id]
	if !ok {
		return false
	}
	if el.Type.IsMedia() {
		el.Src = content
	} else {
		el.Content = content
	}
	s.publish(Change{Kind: ChangeUpdate, IDs: []string{id}, Label: "Edit content"})
	return true
}

// UpdateElementName renames an element.
func (s *Store) UpdateElementName(id, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.elements[id]
	if !ok {
		return false
	}
	el.Name = name
	s.publish(Change{Kind: ChangeUpdate, IDs: []string{id}, Label: "Rename element"})
	return true
}

// UpdateElementStyles merges patch into the element's base style. The style
// record is replaced, not mutated, and the style revision moves.
func (s *Store) UpdateElementStyles(id string, patch *style.Style) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.elements[id]
	if !ok || patch == nil {
		return false
	}
	merged := el.Styles.Clone()
	style.Merge(merged, patch)
	el.Styles = merged
	el.styleRev = s.nextRev()
	s.publish(Change{Kind: ChangeUpdate, IDs: []string{id}, Label: "Update styles"})
	return true
}

// SetResponsiveStyle merges patch into the element's override for one
// breakpoint. A nil patch clears the override.
func (s *Store) SetResponsiveStyle(id, breakpointID string, patch *style.Style) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.elements[id]
	if !ok || breakpointID == "" {
		return false
	}
	if patch == nil {
		if el.ResponsiveStyles == nil {
			return false
		}
		delete(el.ResponsiveStyles, breakpointID)
	} else {
		if el.ResponsiveStyles == nil {
			el.ResponsiveStyles = make(map[string]*style.Style)
		}
		merged := el.ResponsiveStyles[breakpointID].Clone()
		style.Merge(merged, patch)
		el.ResponsiveStyles[breakpointID] = merged
	}
	el.styleRev = s.nextRev()
	s.publish(Change{Kind: ChangeUpdate, IDs: []string{id}, Label: "Update responsive styles"})
	return true
}

// ToggleLock flips the element's locked flag.
func (s *Store) ToggleLock(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.elements[id]
	if !ok {
		return false
	}
	el.Locked = !el.Locked
	s.publish(Change{Kind: ChangeUpdate, IDs: []string{id}, Label: "Toggle lock"})
	return true
}

// ToggleVisibility flips the element's visible flag.
func (s *Store) ToggleVisibility(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.elements[id]
	if !ok {
		return false
	}
	el.Visible = !el.Visible
	s.publish(Change{Kind: ChangeUpdate, IDs: []string{id}, Label: "Toggle visibility"})
	return true
}

// ReorderElement moves an element immediately before or after a sibling in
// their shared parent's children order.
func (s *Store) ReorderElement(id, targetID string, before bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == targetID {
		return false
	}
	el, ok := s.elements[id]
	if !ok {
		return false
	}
	target, ok := s.elements[targetID]
	if !ok || el.ParentID == "" || el.ParentID != target.ParentID {
		return false
	}
	parent, ok := s.elements[el.ParentID]
	if !ok {
		return false
	}

	children := removeID(parent.Children, id)
	idx := indexOf(children, targetID)
	if idx < 0 {
		return false
	}
	if !before {
		idx++
	}
	parent.Children = insertAt(children, idx, id)

	s.publish(Change{Kind: ChangeReorder, IDs: []string{parent.ID, id, targetID}, Label: "Reorder element"})
	return true
}

// WrapInFrame wraps the given elements in a new auto-layout frame placed at
// their bounding box. Members flow in their original sibling order. Returns
// the new frame, or nil when nothing could be wrapped.
func (s *Store) WrapInFrame(ids []string) *Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	shell := s.groupIntoLocked(ids, true)
	if shell == nil {
		return nil
	}
	s.publish(Change{Kind: ChangeAdd, IDs: []string{shell.ID}, Label: "Wrap in frame"})
	return shell
}

// GroupElements wraps the given elements in a new free-positioning frame,
// preserving each member's visual position relative to the new origin.
func (s *Store) GroupElements(ids []string) *Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	shell := s.groupIntoLocked(ids, false)
	if shell == nil {
		return nil
	}
	s.publish(Change{Kind: ChangeAdd, IDs: []string{shell.ID}, Label: "Group elements"})
	return shell
}

// groupIntoLocked is the shared wrap/group mechanic. Members must share one
// parent; ids that are page roots, unknown, nested under another member, or
// parented elsewhere are dropped. Callers hold s.mu.
func (s *Store) groupIntoLocked(ids []string, autoLayout bool) *Element {
	members := s.filterGroupMembersLocked(ids)
	if len(members) == 0 {
		return nil
	}
	parent := s.elements[members[0].ParentID]
	if parent == nil {
		return nil
	}

	// Keep the parent's flow order, not the selection order.
	ordered := make([]*Element, 0, len(members))
	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[m.ID] = true
	}
	for _, cid := range parent.Children {
		if memberSet[cid] {
			ordered = append(ordered, s.elements[cid])
		}
	}

	minX, minY := ordered[0].Position.X, ordered[0].Position.Y
	maxX, maxY := minX+ordered[0].Size.Width, minY+ordered[0].Size.Height
	for _, m := range ordered[1:] {
		if m.Position.X < minX {
			minX = m.Position.X
		}
		if m.Position.Y < minY {
			minY = m.Position.Y
		}
		if x := m.Position.X + m.Size.Width; x > maxX {
			maxX = x
		}
		if y := m.Position.Y + m.Size.Height; y > maxY {
			maxY = y
		}
	}

	shell := NewElement(TypeFrame)
	shell.ParentID = parent.ID
	shell.Position = Vec2{X: minX, Y: minY}
	shell.Size = Size{Width: maxX - minX, Height: maxY - minY}
	shell.styleRev = s.nextRev()
	if autoLayout {
		shell.Styles = &style.Style{
			Display:       style.Ptr(style.DisplayFlex),
			FlexDirection: style.Ptr(style.DirectionColumn),
			Gap:           style.Ptr(10.0),
		}
	} else {
		shell.Name = "Group"
		shell.Styles = &style.Style{}
	}
	s.elements[shell.ID] = shell

	insertIdx := indexOf(parent.Children, ordered[0].ID)
	remaining := parent.Children
	for _, m := range ordered {
		remaining = removeID(remaining, m.ID)
	}
	parent.Children = insertAt(remaining, insertIdx, shell.ID)

	for _, m := range ordered {
		m.ParentID = shell.ID
		if !autoLayout {
			m.Position = Vec2{X: m.Position.X - minX, Y: m.Position.Y - minY}
		}
		shell.Children = append(shell.Children, m.ID)
	}
	return shell
}

// filterGroupMembersLocked narrows ids down to groupable elements sharing the
// first valid element's parent. Callers hold s.mu.
func (s *Store) filterGroupMembersLocked(ids []string) []*Element {
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	var members []*Element
	var parentID string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		el, ok := s.elements[id]
		if !ok || seen[id] || s.isPageRootLocked(id) || el.ParentID == "" {
			continue
		}
		// Skip elements nested under another selected element; they move
		// with their ancestor.
		if s.hasAncestorInLocked(el, selected) {
			continue
		}
		if parentID == "" {
			parentID = el.ParentID
		}
		if el.ParentID != parentID {
			continue
		}
		seen[id] = true
		members = append(members, el)
	}
	return members
}

// hasAncestorInLocked reports whether any proper ancestor of el is in set.
// Callers hold s.mu.
func (s *Store) hasAncestorInLocked(el *Element, set map[string]bool) bool {
	for cur := el; cur.ParentID != ""; {
		parent, ok := s.elements[cur.ParentID]
		if !ok {
			return false
		}
		if set[parent.ID] {
			return true
		}
		cur = parent
	}
	return false
}

// UngroupElements dissolves a container, re-parenting its children to the
// grandparent at the container's index and restoring their positions.
// Returns the freed child ids, or nil when the id is not ungroupable.
func (s *Store) UngroupElements(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.elements[id]
	if !ok || !el.Type.IsContainer() || s.isPageRootLocked(id) || el.ParentID == "" {
		return nil
	}
	parent, ok := s.elements[el.ParentID]
	if !ok {
		return nil
	}

	idx := indexOf(parent.Children, id)
	children := append([]string(nil), el.Children...)
	parent.Children = removeID(parent.Children, id)
	for i, cid := range children {
		child, ok := s.elements[cid]
		if !ok {
			continue
		}
		child.ParentID = parent.ID
		child.Position = child.Position.Add(el.Position)
		parent.Children = insertAt(parent.Children, idx+i, cid)
	}
	delete(s.elements, id)

	s.publish(Change{Kind: ChangeRemove, IDs: []string{id}, Label: "Ungroup elements"})
	return children
}

// Element returns the element with the given id, or nil.
func (s *Store) Element(id string) *Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elements[id]
}

// Page returns the page with the given id, or nil.
func (s *Store) Page(id string) *Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pages[id]
}

// Elements returns a copy of the element map.
func (s *Store) Elements() map[string]*Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*Element, len(s.elements))
	for k, v := range s.elements {
		out[k] = v
	}
	return out
}

// Pages returns a copy of the page map.
func (s *Store) Pages() map[string]*Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*Page, len(s.pages))
	for k, v := range s.pages {
		out[k] = v
	}
	return out
}

// PageOrder returns the page ids in canvas order.
func (s *Store) PageOrder() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.pageOrder...)
}

// ParentOf returns the parent element, or nil for roots and unknown ids.
func (s *Store) ParentOf(id string) *Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.elements[id]
	if !ok || el.ParentID == "" {
		return nil
	}
	return s.elements[el.ParentID]
}

// ChildrenOf returns the child elements of id in order.
func (s *Store) ChildrenOf(id string) []*Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.elements[id]
	if !ok {
		return nil
	}
	out := make([]*Element, 0, len(el.Children))
	for _, cid := range el.Children {
		if child, ok := s.elements[cid]; ok {
			out = append(out, child)
		}
	}
	return out
}

// PageOf returns the page whose subtree contains the element.
func (s *Store) PageOf(id string) *Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rootID := s.rootOfLocked(id)
	if rootID == "" {
		return nil
	}
	for _, page := range s.pages {
		if page.RootElementID == rootID {
			return page
		}
	}
	return nil
}

// rootOfLocked climbs to the top of the element's parent chain. Callers
// hold s.mu.
func (s *Store) rootOfLocked(id string) string {
	el, ok := s.elements[id]
	if !ok {
		return ""
	}
	for el.ParentID != "" {
		parent, ok := s.elements[el.ParentID]
		if !ok {
			return ""
		}
		el = parent
	}
	return el.ID
}

// IsAncestor reports whether ancestorID is a proper ancestor of id.
func (s *Store) IsAncestor(ancestorID, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.elements[id]
	if !ok {
		return false
	}
	for el.ParentID != "" {
		if el.ParentID == ancestorID {
			return true
		}
		parent, ok := s.elements[el.ParentID]
		if !ok {
			return false
		}
		el = parent
	}
	return false
}

// isPageRootLocked reports whether id is some page's root element. Callers
// hold s.mu.
func (s *Store) isPageRootLocked(id string) bool {
	el, ok := s.elements[id]
	if !ok {
		return false
	}
	return el.Type == TypePage
}

// collectSubtreeLocked appends id and every descendant to out. Callers hold
// s.mu.
func (s *Store) collectSubtreeLocked(id string, out *[]string) {
	el, ok := s.elements[id]
	if !ok {
		return
	}
	*out = append(*out, id)
	for _, cid := range el.Children {
		s.collectSubtreeLocked(cid, out)
	}
}

// Walk traverses the subtree rooted at rootID depth-first, calling fn for
// each element. Returning false from fn stops the walk.
func (s *Store) Walk(rootID string, fn func(e *Element) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.walkLocked(rootID, fn)
}

func (s *Store) walkLocked(id string, fn func(e *Element) bool) bool {
	el, ok := s.elements[id]
	if !ok {
		return true
	}
	if !fn(el) {
		return false
	}
	for _, cid := range el.Children {
		if !s.walkLocked(cid, fn) {
			return false
		}
	}
	return true
}

// Find searches every page subtree for an element matching the predicate.
func (s *Store) Find(pred func(e *Element) bool) *Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *Element
	for _, pid := range s.pageOrder {
		page := s.pages[pid]
		if page == nil {
			continue
		}
		s.walkLocked(page.RootElementID, func(e *Element) bool {
			if pred(e) {
				found = e
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func insertAt(ids []string, idx int, id string) []string {
	if idx < 0 || idx > len(ids) {
		idx = len(ids)
	}
	ids = append(ids, "")
	copy(ids[idx+1:], ids[idx:])
	ids[idx] = id
	return ids
}
