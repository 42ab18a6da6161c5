package engine

import "github.com/easelhq/easel"

// ReorderPreview is an uncommitted sibling move shown while a reorder drag
// is in flight.
type ReorderPreview struct {
	ParentID  string
	DraggedID string
	TargetID  string
	Before    bool
}

// Overlay is the transient interaction state rendered preferentially over
// the committed model. Drags write here every frame and flush to the store
// once, at gesture commit, so the model never sees a half-finished gesture.
type Overlay struct {
	// Positions overrides the parent-relative position of elements being
	// free-dragged.
	Positions map[string]easel.Vec2

	// Reorder previews the virtual children order of one auto-layout parent
	// while a reorder drag is in flight.
	Reorder *ReorderPreview

	// Marquee is the in-progress rubber-band rectangle in canvas space.
	Marquee *Rect
}

// NewOverlay returns an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{Positions: make(map[string]easel.Vec2)}
}

// Position returns the overlay position for an element, falling back to the
// committed one.
func (o *Overlay) Position(el *easel.Element) easel.Vec2 {
	if o == nil {
		return el.Position
	}
	if pos, ok := o.Positions[el.ID]; ok {
		return pos
	}
	return el.Position
}

// Empty reports whether the overlay holds no transient state.
func (o *Overlay) Empty() bool {
	return o == nil || (len(o.Positions) == 0 && o.Reorder == nil && o.Marquee == nil)
}

// Clear drops all transient state.
func (o *Overlay) Clear() {
	o.Positions = make(map[string]easel.Vec2)
	o.Reorder = nil
	o.Marquee = nil
}

// apply returns the children id order of parent with the reorder preview
// applied, or the committed order when the preview targets another parent.
func (o *Overlay) apply(parent *easel.Element) []string {
	if o == nil || o.Reorder == nil || o.Reorder.ParentID != parent.ID {
		return parent.Children
	}
	r := o.Reorder
	order := make([]string, 0, len(parent.Children))
	for _, id := range parent.Children {
		if id != r.DraggedID {
			order = append(order, id)
		}
	}
	for i, id := range order {
		if id != r.TargetID {
			continue
		}
		at := i
		if !r.Before {
			at = i + 1
		}
		order = append(order, "")
		copy(order[at+1:], order[at:])
		order[at] = r.DraggedID
		return order
	}
	return parent.Children
}
