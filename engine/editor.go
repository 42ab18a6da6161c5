package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/style"
)

// Modifiers carries the keyboard modifiers held during a pointer event.
type Modifiers struct {
	Shift bool
	Meta  bool // cmd on macOS, ctrl elsewhere
}

type clipboardEntry struct {
	node     *easel.ExchangeNode
	parentID string
}

// Editor binds the store, history, resolver and interaction state into the
// single operation surface collaborators call: toolbar actions, keyboard
// shortcuts and AI tools all go through here. Every exported method locks,
// so operations are atomic with respect to each other; no operation can be
// observed half-applied.
type Editor struct {
	mu sync.Mutex

	store    *easel.Store
	history  *easel.History
	resolver *style.Resolver
	camera   *Camera
	overlay  *Overlay

	selection     *Selection
	hoveredID     string
	currentPageID string

	editingID    string
	editingDraft string
	draftDirty   bool

	clipboard  []clipboardEntry
	pasteCount int

	drag          dragState
	swallowTarget string
	lastClickID   string
	lastClickTime time.Time

	now func() time.Time
}

// NewEditor creates an editor over the store with the given breakpoint set.
// The current page is the first one in canvas order, and the starting state
// is captured so the first user action is undoable.
func NewEditor(store *easel.Store, breakpoints []style.Breakpoint) *Editor {
	e := &Editor{
		store:     store,
		history:   easel.NewHistory(),
		resolver:  style.NewResolver(breakpoints),
		camera:    NewCamera(),
		overlay:   NewOverlay(),
		selection: NewSelection(),
		now:       time.Now,
	}
	if order := store.PageOrder(); len(order) > 0 {
		e.currentPageID = order[0]
	}
	e.history.SaveInitial("Initial state", store.Export())
	return e
}

// Store returns the underlying element tree store.
func (e *Editor) Store() *easel.Store {
	return e.store
}

// save commits one history snapshot. Callers hold e.mu.
func (e *Editor) save(label string) {
	e.history.Save(label, e.store.Export())
}

// currentRootLocked returns the current page's root id, or empty.
func (e *Editor) currentRootLocked() string {
	page := e.store.Page(e.currentPageID)
	if page == nil {
		return ""
	}
	return page.RootElementID
}

// layoutLocked runs a layout pass over the present state, overlay included.
func (e *Editor) layoutLocked() *Layout {
	return ComputeLayout(e.layoutInputLocked())
}

func (e *Editor) layoutInputLocked() LayoutInput {
	selected := make(map[string]bool, e.selection.Len())
	for _, id := range e.selection.IDs() {
		selected[id] = true
	}
	return LayoutInput{
		Elements:  e.store.Elements(),
		Pages:     e.store.Pages(),
		PageOrder: e.store.PageOrder(),
		Resolver:  e.resolver,
		Selected:  selected,
		Hovered:   e.hoveredID,
		Overlay:   e.overlay,
	}
}

// Layout computes the current geometry of every visible element.
func (e *Editor) Layout() *Layout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layoutLocked()
}

// AddPage creates a page and makes it current when it is the first one.
func (e *Editor) AddPage(name string) *easel.Page {
	e.mu.Lock()
	defer e.mu.Unlock()
	page := e.store.AddPage(name)
	if e.currentPageID == "" {
		e.currentPageID = page.ID
	}
	e.save("Add page")
	return page
}

// SetCurrentPage switches the page pointer gestures and selection apply to.
func (e *Editor) SetCurrentPage(pageID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store.Page(pageID) == nil {
		return false
	}
	if pageID != e.currentPageID {
		e.currentPageID = pageID
		e.selection.Clear()
		e.hoveredID = ""
		e.exitTextEditLocked(false)
	}
	return true
}

// CurrentPageID returns the page gestures currently apply to.
func (e *Editor) CurrentPageID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentPageID
}

// MovePagePosition places an artboard on the canvas.
func (e *Editor) MovePagePosition(pageID string, pos easel.Vec2) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.MovePagePosition(pageID, pos) {
		return false
	}
	e.save("Move page")
	return true
}

// UpdatePage applies a partial page update.
func (e *Editor) UpdatePage(pageID string, patch easel.PagePatch) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.UpdatePage(pageID, patch) {
		return false
	}
	e.save("Update page")
	return true
}

// AddElement creates an element under parentID, or under the current page
// root when parentID is empty, places it with a small cascade offset, and
// selects it.
func (e *Editor) AddElement(typ easel.ElementType, parentID string) *easel.Element {
	e.mu.Lock()
	defer e.mu.Unlock()

	if parentID == "" {
		parentID = e.currentRootLocked()
	}
	parent := e.store.Element(parentID)
	if parent == nil {
		return nil
	}
	el := e.store.AddElement(typ, parentID)
	if el == nil {
		return nil
	}
	// Cascade fresh elements so they stay visible when stacked; flow
	// parents ignore the position anyway.
	n := float64((len(parent.Children) - 1) % 10)
	e.store.MoveElement(el.ID, easel.Vec2{X: 20 + 10*n, Y: 20 + 10*n})
	e.selection.Replace(el.ID)
	e.save("Add element")
	return e.store.Element(el.ID)
}

// DeleteElement removes an element subtree.
func (e *Editor) DeleteElement(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.DeleteElement(id) {
		return false
	}
	e.selection.Prune(func(id string) bool { return e.store.Element(id) != nil })
	if e.editingID != "" && e.store.Element(e.editingID) == nil {
		e.exitTextEditLocked(false)
	}
	if e.hoveredID != "" && e.store.Element(e.hoveredID) == nil {
		e.hoveredID = ""
	}
	e.save("Delete element")
	return true
}

// DeleteSelection removes every selected subtree in one history step.
func (e *Editor) DeleteSelection() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	deleted := 0
	for _, id := range e.selection.IDs() {
		if e.store.DeleteElement(id) {
			deleted++
		}
	}
	if deleted == 0 {
		return 0
	}
	e.selection.Clear()
	e.save("Delete elements")
	return deleted
}

// DuplicateElement copies an element subtree and selects the copy.
func (e *Editor) DuplicateElement(id string) *easel.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	dup := e.store.DuplicateElement(id)
	if dup == nil {
		return nil
	}
	e.selection.Replace(dup.ID)
	e.save("Duplicate element")
	return dup
}

// MoveElement sets an element's free position.
func (e *Editor) MoveElement(id string, pos easel.Vec2) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.MoveElement(id, pos) {
		return false
	}
	e.save("Move element")
	return true
}

// ResizeElement sets an element's fixed-mode size.
func (e *Editor) ResizeElement(id string, size easel.Size) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.ResizeElement(id, size) {
		return false
	}
	e.save("Resize element")
	return true
}

// UpdateElementContent sets an element's text or media source.
func (e *Editor) UpdateElementContent(id, content string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.UpdateElementContent(id, content) {
		return false
	}
	e.save("Edit content")
	return true
}

// UpdateElementName renames an element.
func (e *Editor) UpdateElementName(id, name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.UpdateElementName(id, name) {
		return false
	}
	e.save("Rename element")
	return true
}

// UpdateElementStyles merges a style patch into the element's base style.
func (e *Editor) UpdateElementStyles(id string, patch *style.Style) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.UpdateElementStyles(id, patch) {
		return false
	}
	e.save("Update styles")
	return true
}

// SetResponsiveStyle merges a style patch into one breakpoint's override,
// or clears the override when patch is nil.
func (e *Editor) SetResponsiveStyle(id, breakpointID string, patch *style.Style) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.SetResponsiveStyle(id, breakpointID, patch) {
		return false
	}
	e.save("Update responsive styles")
	return true
}

// ReorderElement moves an element before or after a sibling.
func (e *Editor) ReorderElement(id, targetID string, before bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.ReorderElement(id, targetID, before) {
		return false
	}
	e.save("Reorder element")
	return true
}

// ToggleLock flips an element's locked flag.
func (e *Editor) ToggleLock(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.ToggleLock(id) {
		return false
	}
	e.save("Toggle lock")
	return true
}

// ToggleVisibility flips an element's visible flag.
func (e *Editor) ToggleVisibility(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.ToggleVisibility(id) {
		return false
	}
	e.save("Toggle visibility")
	return true
}

// WrapSelectionInFrame wraps the selected elements in a new auto-layout
// frame and selects it.
func (e *Editor) WrapSelectionInFrame() *easel.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	shell := e.store.WrapInFrame(e.selection.IDs())
	if shell == nil {
		return nil
	}
	e.selection.Replace(shell.ID)
	e.save("Wrap in frame")
	return shell
}

// GroupSelection wraps the selected elements in a free-positioning group
// frame and selects it.
func (e *Editor) GroupSelection() *easel.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	shell := e.store.GroupElements(e.selection.IDs())
	if shell == nil {
		return nil
	}
	e.selection.Replace(shell.ID)
	e.save("Group elements")
	return shell
}

// UngroupSelection dissolves every selected container and selects the freed
// children.
func (e *Editor) UngroupSelection() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var freed []string
	for _, id := range e.selection.IDs() {
		freed = append(freed, e.store.UngroupElements(id)...)
	}
	if len(freed) == 0 {
		return nil
	}
	e.selection.Replace(freed...)
	e.save("Ungroup elements")
	return freed
}

// SelectElement selects an element, either adding to or replacing the
// current selection. Unknown ids are ignored.
func (e *Editor) SelectElement(id string, add bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store.Element(id) == nil {
		return
	}
	if add {
		e.selection.Add(id)
	} else {
		e.selection.Replace(id)
	}
}

// DeselectAll clears the selection.
func (e *Editor) DeselectAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection.Clear()
}

// SelectAll selects the current page's top-level elements, skipping locked
// and hidden ones.
func (e *Editor) SelectAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	rootID := e.currentRootLocked()
	if rootID == "" {
		return
	}
	var ids []string
	for _, child := range e.store.ChildrenOf(rootID) {
		if child.Visible && !child.Locked {
			ids = append(ids, child.ID)
		}
	}
	e.selection.Replace(ids...)
}

// SelectedIDs returns the selected ids in selection order.
func (e *Editor) SelectedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection.IDs()
}

// SetHovered updates the hovered element, ignoring unknown ids.
func (e *Editor) SetHovered(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id != "" && e.store.Element(id) == nil {
		return
	}
	e.hoveredID = id
}

// HoveredID returns the hovered element id, or empty.
func (e *Editor) HoveredID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hoveredID
}

// EnterTextEdit starts editing a text-capable element's content.
func (e *Editor) EnterTextEdit(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enterTextEditLocked(id)
}

func (e *Editor) enterTextEditLocked(id string) bool {
	el := e.store.Element(id)
	if el == nil || !el.Type.IsTextCapable() || el.Locked {
		return false
	}
	e.editingID = id
	e.editingDraft = el.Content
	e.draftDirty = false
	return true
}

// UpdateTextDraft replaces the uncommitted text while editing.
func (e *Editor) UpdateTextDraft(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editingID == "" {
		return
	}
	e.editingDraft = text
	e.draftDirty = true
}

// CommitTextEdit writes the pending draft to the element and leaves text
// editing.
func (e *Editor) CommitTextEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exitTextEditLocked(true)
}

// exitTextEditLocked leaves text editing, committing the draft when asked
// and it actually changed.
func (e *Editor) exitTextEditLocked(commit bool) {
	if e.editingID == "" {
		return
	}
	if commit && e.draftDirty {
		if e.store.UpdateElementContent(e.editingID, e.editingDraft) {
			e.save("Edit text")
		}
	}
	e.editingID = ""
	e.editingDraft = ""
	e.draftDirty = false
}

// EditingID returns the id under text edit, or empty.
func (e *Editor) EditingID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editingID
}

// Escape handles the escape key: commit and leave text editing if active,
// cancel an in-flight drag, otherwise clear the selection.
func (e *Editor) Escape() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editingID != "" {
		e.exitTextEditLocked(true)
		return
	}
	if e.drag.mode != dragIdle {
		e.cancelDragLocked()
		return
	}
	e.selection.Clear()
}

// Copy captures the selected subtrees. Elements nested under another
// selected element travel with their ancestor.
func (e *Editor) Copy() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyLocked()
}

func (e *Editor) copyLocked() int {
	var entries []clipboardEntry
	selected := make(map[string]bool)
	for _, id := range e.selection.IDs() {
		selected[id] = true
	}
	for _, id := range e.selection.IDs() {
		el := e.store.Element(id)
		if el == nil || nestedUnderSelected(e.store, el, selected) {
			continue
		}
		node, err := e.store.ExportNode(id)
		if err != nil {
			continue
		}
		entries = append(entries, clipboardEntry{node: node, parentID: el.ParentID})
	}
	if len(entries) == 0 {
		return 0
	}
	e.clipboard = entries
	e.pasteCount = 0
	return len(entries)
}

func nestedUnderSelected(s *easel.Store, el *easel.Element, selected map[string]bool) bool {
	for cur := s.Element(el.ParentID); cur != nil; cur = s.Element(cur.ParentID) {
		if selected[cur.ID] {
			return true
		}
	}
	return false
}

// Cut copies the selection and removes it in one history step.
func (e *Editor) Cut() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.copyLocked()
	if n == 0 {
		return 0
	}
	deleted := 0
	for _, id := range e.selection.IDs() {
		if e.store.DeleteElement(id) {
			deleted++
		}
	}
	e.selection.Clear()
	if deleted > 0 {
		e.save("Cut elements")
	}
	return n
}

// Paste materializes the clipboard with fresh ids, offset a step further on
// every repeat paste, and selects the pasted roots. Entries whose original
// parent is gone land on the current page root.
func (e *Editor) Paste() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.clipboard) == 0 {
		return nil
	}
	e.pasteCount++
	offset := 10.0 * float64(e.pasteCount)

	var pasted []string
	for _, entry := range e.clipboard {
		parentID := entry.parentID
		if parent := e.store.Element(parentID); parent == nil || !parent.Type.IsContainer() {
			parentID = e.currentRootLocked()
		}
		if parentID == "" {
			continue
		}
		el, err := e.store.ImportNode(offsetNode(entry.node, offset), parentID)
		if err != nil {
			continue
		}
		pasted = append(pasted, el.ID)
	}
	if len(pasted) == 0 {
		return nil
	}
	e.selection.Replace(pasted...)
	e.save("Paste elements")
	return pasted
}

// offsetNode shifts a copy of the node's root position so repeat pastes
// stack visibly instead of landing on top of the original.
func offsetNode(node *easel.ExchangeNode, offset float64) *easel.ExchangeNode {
	c := *node
	var styles easel.ExchangeStyles
	if node.Styles != nil {
		styles = *node.Styles
	}
	x, y := offset, offset
	if styles.X != nil {
		x += *styles.X
	}
	if styles.Y != nil {
		y += *styles.Y
	}
	styles.X, styles.Y = style.Ptr(x), style.Ptr(y)
	c.Styles = &styles
	return &c
}

// ImportTree validates the node tree and, only when every node passes,
// materializes it under parentID in one history step. An empty parentID
// targets the current page root. The imported root becomes the selection.
func (e *Editor) ImportTree(node *easel.ExchangeNode, parentID string) (*easel.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if parentID == "" {
		parentID = e.currentRootLocked()
	}
	if parentID == "" {
		return nil, fmt.Errorf("%w: no page to import into", easel.ErrInvalidNode)
	}
	el, err := e.store.ImportNode(node, parentID)
	if err != nil {
		return nil, err
	}
	e.selection.Replace(el.ID)
	e.save("Import tree")
	return el, nil
}

// Breakpoints returns the configured breakpoint set.
func (e *Editor) Breakpoints() []style.Breakpoint {
	return e.resolver.Breakpoints()
}

// ActiveBreakpointID returns the active breakpoint id.
func (e *Editor) ActiveBreakpointID() string {
	return e.resolver.ActiveID()
}

// SetActiveBreakpoint switches the breakpoint styles resolve against.
func (e *Editor) SetActiveBreakpoint(id string) {
	e.resolver.SetActive(id)
}

// SetBreakpoints replaces the breakpoint set. When the active breakpoint is
// not in the new set, the new default becomes active.
func (e *Editor) SetBreakpoints(breakpoints []style.Breakpoint) {
	e.resolver.SetBreakpoints(breakpoints)
	if _, ok := style.ByID(breakpoints, e.resolver.ActiveID()); !ok {
		if def, ok := style.DefaultOf(breakpoints); ok {
			e.resolver.SetActive(def.ID)
		}
	}
}

// SetViewport records the screen viewport size.
func (e *Editor) SetViewport(size easel.Size) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.camera.SetViewport(size)
}

// SetZoom sets the camera zoom, clamped to the supported range.
func (e *Editor) SetZoom(z float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.camera.SetZoom(z)
}

// PanBy translates the camera.
func (e *Editor) PanBy(d easel.Vec2) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.camera.PanBy(d)
}

// CameraState returns the current pan, zoom and viewport.
func (e *Editor) CameraState() Camera {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.camera
}

// Undo steps back one snapshot. Selection entries that no longer exist are
// pruned.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	doc := e.history.Undo()
	if doc == nil {
		return false
	}
	e.restoreLocked(doc)
	return true
}

// Redo steps forward one snapshot.
func (e *Editor) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	doc := e.history.Redo()
	if doc == nil {
		return false
	}
	e.restoreLocked(doc)
	return true
}

func (e *Editor) restoreLocked(doc *easel.Document) {
	e.store.Restore(doc)
	e.selection.Prune(func(id string) bool { return e.store.Element(id) != nil })
	e.exitTextEditLocked(false)
	e.overlay.Clear()
	e.drag = dragState{}
	if e.store.Page(e.currentPageID) == nil {
		e.currentPageID = ""
		if order := e.store.PageOrder(); len(order) > 0 {
			e.currentPageID = order[0]
		}
	}
}

// CanUndo reports whether an undo step exists.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

// CanRedo reports whether a redo step exists.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// HistoryLabels returns the committed operation labels, oldest first.
func (e *Editor) HistoryLabels() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Labels()
}

// LoadDocument validates and installs a document, resetting interaction
// state and restarting history from the loaded snapshot.
func (e *Editor) LoadDocument(doc *easel.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Load(doc); err != nil {
		return err
	}
	e.selection.Clear()
	e.hoveredID = ""
	e.exitTextEditLocked(false)
	e.overlay.Clear()
	e.drag = dragState{}
	e.currentPageID = ""
	if order := e.store.PageOrder(); len(order) > 0 {
		e.currentPageID = order[0]
	}
	e.history.SaveInitial("Load document", e.store.Export())
	return nil
}

// Export snapshots the current document.
func (e *Editor) Export() *easel.Document {
	return e.store.Export()
}
