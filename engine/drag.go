package engine

import (
	"math"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/style"
)

// DragThreshold is how far, in screen pixels, a pointer has to travel before
// a press stops being a click and becomes a drag.
const DragThreshold = 3.0

type dragMode int

const (
	dragIdle dragMode = iota
	dragPressed
	dragFreeMove
	dragReorder
	dragMarquee
)

// dragState tracks one pointer gesture from press to release. The store is
// never touched while a gesture is in flight; moves render from the overlay
// and commit once on release.
type dragState struct {
	mode        dragMode
	startScreen easel.Vec2
	startCanvas easel.Vec2
	mods        Modifiers
	targetID    string
	captured    map[string]easel.Vec2
}

// PointerDown begins a gesture at a screen position. Pressing the canvas
// background or a page root arms a marquee; pressing an element arms a
// potential click or drag on it.
func (e *Editor) PointerDown(screen easel.Vec2, mods Modifiers) {
	e.mu.Lock()
	defer e.mu.Unlock()

	canvas := e.camera.ToCanvas(screen)
	in := e.layoutInputLocked()
	layout := ComputeLayout(in)
	target := HitTest(in, layout, e.currentRootLocked(), canvas)

	// Clicking or dragging away from an active text edit commits it first.
	if e.editingID != "" && (target == nil || target.ID != e.editingID) {
		e.exitTextEditLocked(true)
	}

	e.drag = dragState{
		mode:        dragPressed,
		startScreen: screen,
		startCanvas: canvas,
		mods:        mods,
	}
	if target != nil && target.Type != easel.TypePage {
		e.drag.targetID = target.ID
	}
}

// PointerMove advances the active gesture, or just retargets hover when no
// button is down.
func (e *Editor) PointerMove(screen easel.Vec2) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.drag.mode {
	case dragIdle:
		e.updateHoverLocked(screen)
	case dragPressed:
		if screenDistance(screen, e.drag.startScreen) < DragThreshold {
			return
		}
		e.promoteDragLocked()
		if e.drag.mode != dragPressed {
			e.stepDragLocked(screen)
		}
	default:
		e.stepDragLocked(screen)
	}
}

// PointerUp finishes the gesture: a press that never crossed the threshold
// resolves as a click, a drag commits its result in a single history step.
func (e *Editor) PointerUp(screen easel.Vec2) {
	e.mu.Lock()
	defer e.mu.Unlock()

	mode := e.drag.mode
	switch mode {
	case dragIdle:
		return
	case dragPressed:
		e.handleClickLocked()
	case dragFreeMove:
		e.commitFreeMoveLocked()
	case dragReorder:
		e.commitReorderLocked()
	case dragMarquee:
		e.commitMarqueeLocked()
	}

	if mode == dragFreeMove || mode == dragReorder {
		// The release that ends a real drag must not double as a click
		// on the same element.
		e.swallowTarget = e.drag.targetID
	}
	e.overlay.Clear()
	e.drag = dragState{}
}

// Click is a press and release at the same point, for callers that do not
// stream pointer events.
func (e *Editor) Click(screen easel.Vec2, mods Modifiers) {
	e.PointerDown(screen, mods)
	e.PointerUp(screen)
}

func (e *Editor) updateHoverLocked(screen easel.Vec2) {
	in := e.layoutInputLocked()
	layout := ComputeLayout(in)
	target := HitTest(in, layout, e.currentRootLocked(), e.camera.ToCanvas(screen))
	if target == nil || target.Type == easel.TypePage {
		e.hoveredID = ""
		return
	}
	e.hoveredID = target.ID
}

// promoteDragLocked decides what kind of drag the pressed gesture becomes.
// Background presses marquee; element presses free-move or reorder depending
// on whether the parent lays its children out. Locked elements never drag.
func (e *Editor) promoteDragLocked() {
	// Starting a real drag breaks any double-click chain and ends hover.
	e.lastClickID = ""
	e.hoveredID = ""

	if e.drag.targetID == "" {
		e.drag.mode = dragMarquee
		return
	}
	el := e.store.Element(e.drag.targetID)
	if el == nil || el.Locked {
		return
	}
	parent := e.store.ParentOf(el.ID)
	if parent == nil {
		return
	}

	resolve := styleResolverFn(e.layoutInputLocked())
	if resolve(parent).HasAutoLayout() {
		e.drag.mode = dragReorder
		return
	}

	e.drag.mode = dragFreeMove
	e.drag.captured = e.captureMoveSetLocked(el)
}

// captureMoveSetLocked records the starting positions of everything a free
// move carries: the whole selection when the pressed element is part of it,
// otherwise just the pressed element. Locked members and members nested
// under another captured member stay put.
func (e *Editor) captureMoveSetLocked(pressed *easel.Element) map[string]easel.Vec2 {
	ids := []string{pressed.ID}
	if e.selection.Has(pressed.ID) {
		ids = e.selection.IDs()
	}

	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	captured := make(map[string]easel.Vec2, len(ids))
	for _, id := range ids {
		el := e.store.Element(id)
		if el == nil || el.Locked || el.Type == easel.TypePage {
			continue
		}
		if nestedUnderSelected(e.store, el, selected) {
			continue
		}
		captured[id] = el.Position
	}
	return captured
}

func (e *Editor) stepDragLocked(screen easel.Vec2) {
	switch e.drag.mode {
	case dragFreeMove:
		e.stepFreeMoveLocked(screen)
	case dragReorder:
		e.stepReorderLocked(screen)
	case dragMarquee:
		e.overlay.Marquee = marqueeRect(e.drag.startCanvas, e.camera.ToCanvas(screen))
	}
}

// stepFreeMoveLocked projects the screen delta into canvas units, snapped to
// whole pixels, and writes preview positions for the captured set.
func (e *Editor) stepFreeMoveLocked(screen easel.Vec2) {
	zoom := e.camera.Zoom
	dx := math.Round((screen.X - e.drag.startScreen.X) / zoom)
	dy := math.Round((screen.Y - e.drag.startScreen.Y) / zoom)
	for id, start := range e.drag.captured {
		e.overlay.Positions[id] = easel.Vec2{X: start.X + dx, Y: start.Y + dy}
	}
}

// stepReorderLocked finds the sibling whose midpoint along the parent's main
// axis is nearest the pointer and previews dropping before or after it. The
// layout pass already applies the previous preview, so siblings reflow under
// the pointer as the drag progresses.
func (e *Editor) stepReorderLocked(screen easel.Vec2) {
	el := e.store.Element(e.drag.targetID)
	if el == nil {
		e.cancelDragLocked()
		return
	}
	parent := e.store.ParentOf(el.ID)
	if parent == nil {
		return
	}

	in := e.layoutInputLocked()
	layout := ComputeLayout(in)
	pointer := e.camera.ToCanvas(screen)
	horizontal := styleResolverFn(in)(parent).Direction() != style.DirectionColumn

	bestID := ""
	bestDist := math.MaxFloat64
	before := false
	for _, sib := range e.store.ChildrenOf(parent.ID) {
		if sib.ID == el.ID || !sib.Visible {
			continue
		}
		r, ok := layout.Rect(sib.ID)
		if !ok {
			continue
		}
		pm, mid := pointer.Y, r.Center().Y
		if horizontal {
			pm, mid = pointer.X, r.Center().X
		}
		if d := math.Abs(pm - mid); d < bestDist {
			bestDist = d
			bestID = sib.ID
			before = pm < mid
		}
	}

	if bestID == "" {
		// Sole child; nothing to land next to.
		e.overlay.Reorder = nil
		return
	}
	e.overlay.Reorder = &ReorderPreview{
		ParentID:  parent.ID,
		DraggedID: el.ID,
		TargetID:  bestID,
		Before:    before,
	}
}

// commitFreeMoveLocked writes the previewed positions through to the store
// as one undoable step.
func (e *Editor) commitFreeMoveLocked() {
	committed := false
	for id := range e.drag.captured {
		if pos, ok := e.overlay.Positions[id]; ok {
			if e.store.MoveElement(id, pos) {
				committed = true
			}
		}
	}
	if committed {
		e.save("Move element")
	}
}

func (e *Editor) commitReorderLocked() {
	preview := e.overlay.Reorder
	if preview == nil {
		return
	}
	if e.store.ReorderElement(preview.DraggedID, preview.TargetID, preview.Before) {
		e.save("Reorder element")
	}
}

// commitMarqueeLocked resolves the marquee against the current page. A band
// under the minimum size in both axes counts as a background click and just
// clears the selection.
func (e *Editor) commitMarqueeLocked() {
	r := e.overlay.Marquee
	if r == nil {
		e.selection.Clear()
		return
	}
	if r.Width < MarqueeMinSize && r.Height < MarqueeMinSize {
		e.selection.Clear()
		return
	}
	in := e.layoutInputLocked()
	layout := ComputeLayout(in)
	ids := MarqueeHit(in, layout, e.currentRootLocked(), *r)
	e.selection.Replace(ids...)
}

// handleClickLocked resolves a press that never became a drag.
func (e *Editor) handleClickLocked() {
	now := e.now()
	targetID := e.drag.targetID

	// One click is swallowed right after a drag so releasing a moved
	// element does not also reselect it.
	if e.swallowTarget != "" {
		suppressed := e.swallowTarget == targetID
		e.swallowTarget = ""
		if suppressed {
			return
		}
	}

	if targetID == "" {
		if !e.drag.mods.Shift {
			e.selection.Clear()
		}
		e.lastClickID = ""
		return
	}

	target := e.store.Element(targetID)
	if target == nil {
		return
	}
	doubleClick := e.lastClickID == targetID && now.Sub(e.lastClickTime) < DoubleClickWindow
	e.lastClickID = targetID
	e.lastClickTime = now

	action := resolveClick(target, e.store.ParentOf(targetID), e.selection, e.editingID,
		e.drag.mods.Shift, e.drag.mods.Meta, doubleClick)
	switch action {
	case ClickToggle:
		e.selection.Toggle(targetID)
	case ClickEnterTextEdit:
		e.enterTextEditLocked(targetID)
		e.lastClickID = ""
	case ClickSelectTarget:
		e.selection.Replace(targetID)
	case ClickSelectParent:
		e.selection.Replace(target.ParentID)
	}
}

func (e *Editor) cancelDragLocked() {
	e.overlay.Clear()
	e.drag = dragState{}
}

func screenDistance(a, b easel.Vec2) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// marqueeRect normalizes the corner pair a drag spans into a rect.
func marqueeRect(a, b easel.Vec2) *Rect {
	r := rectFromPoints(a, b)
	return &r
}
