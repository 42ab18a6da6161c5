package engine

import (
	"testing"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/style"
	"github.com/google/go-cmp/cmp"
)

// newCanvas returns a store with one page for interaction tests. Editors are
// created after the scene is built so the initial history snapshot includes
// it. The default camera has a zero viewport and 1:1 zoom, so screen
// coordinates equal canvas coordinates unless a test changes them.
func newCanvas(t *testing.T) (*easel.Store, *easel.Page) {
	t.Helper()
	s := easel.NewStore()
	return s, s.AddPage("Page 1")
}

func editorOver(s *easel.Store) *Editor {
	return NewEditor(s, style.DefaultBreakpoints())
}

func TestClickSelectsAndSubThresholdWiggleStaysAClick(t *testing.T) {
	s, page := newCanvas(t)
	frame := s.AddElement(easel.TypeFrame, page.RootElementID)
	ed := editorOver(s)

	ed.PointerDown(easel.Vec2{X: 150, Y: 150}, Modifiers{})
	ed.PointerMove(easel.Vec2{X: 151, Y: 151})
	ed.PointerUp(easel.Vec2{X: 151, Y: 151})

	if diff := cmp.Diff([]string{frame.ID}, ed.SelectedIDs()); diff != "" {
		t.Errorf("selection after wiggle-click (-want +got):\n%s", diff)
	}
	if got := len(ed.HistoryLabels()); got != 1 {
		t.Errorf("history grew to %d entries on a click, want just the initial one", got)
	}
}

func TestFreeMoveDragCommitsOnceAndSwallowsNextClick(t *testing.T) {
	s, page := newCanvas(t)
	frame := s.AddElement(easel.TypeFrame, page.RootElementID)
	box := s.AddElement(easel.TypeBox, frame.ID)
	s.MoveElement(box.ID, easel.Vec2{X: 20, Y: 20})
	ed := editorOver(s)

	// Drag the unselected box: it moves alone and stays unselected.
	ed.PointerDown(easel.Vec2{X: 50, Y: 50}, Modifiers{})
	ed.PointerMove(easel.Vec2{X: 90, Y: 110})

	if got := s.Element(box.ID).Position; got != (easel.Vec2{X: 20, Y: 20}) {
		t.Fatalf("store position moved mid-drag to %+v", got)
	}
	layout := ed.Layout()
	if r, _ := layout.Rect(box.ID); !approx(r.X, 60) || !approx(r.Y, 80) {
		t.Fatalf("preview rect at (%v, %v), want (60, 80)", r.X, r.Y)
	}

	ed.PointerUp(easel.Vec2{X: 90, Y: 110})

	if got := s.Element(box.ID).Position; got != (easel.Vec2{X: 60, Y: 80}) {
		t.Fatalf("committed position = %+v, want (60, 80)", got)
	}
	labels := ed.HistoryLabels()
	if len(labels) != 2 || labels[1] != "Move element" {
		t.Fatalf("history labels = %v, want initial plus one move", labels)
	}
	if got := ed.SelectedIDs(); len(got) != 0 {
		t.Errorf("drag changed selection to %v", got)
	}

	// The click right after the drag is swallowed once; rule six would
	// otherwise select the parent frame.
	ed.Click(easel.Vec2{X: 100, Y: 130}, Modifiers{})
	if got := ed.SelectedIDs(); len(got) != 0 {
		t.Fatalf("post-drag click was not swallowed, selected %v", got)
	}
	ed.Click(easel.Vec2{X: 100, Y: 130}, Modifiers{})
	if diff := cmp.Diff([]string{frame.ID}, ed.SelectedIDs()); diff != "" {
		t.Errorf("second click (-want +got):\n%s", diff)
	}
}

func TestUndoAfterDragRestoresExactPosition(t *testing.T) {
	s, page := newCanvas(t)
	frame := s.AddElement(easel.TypeFrame, page.RootElementID)
	box := s.AddElement(easel.TypeBox, frame.ID)
	s.MoveElement(box.ID, easel.Vec2{X: 20, Y: 20})
	_ = frame
	ed := editorOver(s)

	ed.PointerDown(easel.Vec2{X: 50, Y: 50}, Modifiers{})
	ed.PointerMove(easel.Vec2{X: 90, Y: 110})
	ed.PointerUp(easel.Vec2{X: 90, Y: 110})

	if !ed.Undo() {
		t.Fatal("undo unavailable after drag")
	}
	if got := s.Element(box.ID).Position; got != (easel.Vec2{X: 20, Y: 20}) {
		t.Fatalf("undo position = %+v, want exact (20, 20)", got)
	}
	if !ed.Redo() {
		t.Fatal("redo unavailable")
	}
	if got := s.Element(box.ID).Position; got != (easel.Vec2{X: 60, Y: 80}) {
		t.Errorf("redo position = %+v, want (60, 80)", got)
	}
}

func TestFreeMoveScalesAndRoundsByZoom(t *testing.T) {
	s, page := newCanvas(t)
	frame := s.AddElement(easel.TypeFrame, page.RootElementID)
	box := s.AddElement(easel.TypeBox, frame.ID)
	s.MoveElement(box.ID, easel.Vec2{X: 10, Y: 10})
	_ = frame
	ed := editorOver(s)

	ed.SetZoom(2)
	// Canvas point (50, 50) sits at screen (100, 100) under 2x zoom.
	ed.PointerDown(easel.Vec2{X: 100, Y: 100}, Modifiers{})
	ed.PointerMove(easel.Vec2{X: 107, Y: 100})
	ed.PointerUp(easel.Vec2{X: 107, Y: 100})

	// 7 screen px over 2x zoom is 3.5 canvas units, rounded to 4.
	if got := s.Element(box.ID).Position; got != (easel.Vec2{X: 14, Y: 10}) {
		t.Errorf("position = %+v, want (14, 10)", got)
	}
}

func TestMultiSelectionDragsTogether(t *testing.T) {
	s, page := newCanvas(t)
	frame := s.AddElement(easel.TypeFrame, page.RootElementID)
	box1 := s.AddElement(easel.TypeBox, frame.ID)
	box2 := s.AddElement(easel.TypeBox, frame.ID)
	s.MoveElement(box1.ID, easel.Vec2{X: 10, Y: 10})
	s.MoveElement(box2.ID, easel.Vec2{X: 10, Y: 120})
	ed := editorOver(s)

	ed.Click(easel.Vec2{X: 50, Y: 50}, Modifiers{Meta: true})
	ed.Click(easel.Vec2{X: 50, Y: 150}, Modifiers{Shift: true})
	if got := ed.SelectedIDs(); len(got) != 2 {
		t.Fatalf("selection = %v, want both boxes", got)
	}

	ed.PointerDown(easel.Vec2{X: 50, Y: 50}, Modifiers{})
	ed.PointerMove(easel.Vec2{X: 80, Y: 50})
	ed.PointerUp(easel.Vec2{X: 80, Y: 50})

	if got := s.Element(box1.ID).Position; got != (easel.Vec2{X: 40, Y: 10}) {
		t.Errorf("box1 = %+v, want (40, 10)", got)
	}
	if got := s.Element(box2.ID).Position; got != (easel.Vec2{X: 40, Y: 120}) {
		t.Errorf("box2 = %+v, want (40, 120)", got)
	}
	labels := ed.HistoryLabels()
	if len(labels) != 2 {
		t.Errorf("history labels = %v, want one entry for the whole gesture", labels)
	}
}

func TestReorderDragPreviewsLiveAndCommitsOnce(t *testing.T) {
	s, page := newCanvas(t)
	stack := s.AddElement(easel.TypeStack, page.RootElementID)
	a := s.AddElement(easel.TypeBox, stack.ID)
	b := s.AddElement(easel.TypeBox, stack.ID)
	c := s.AddElement(easel.TypeBox, stack.ID)
	ed := editorOver(s)

	// Stack flows a, b, c at y 0, 110, 220 with midpoints 50, 160, 270.
	ed.PointerDown(easel.Vec2{X: 50, Y: 50}, Modifiers{})
	ed.PointerMove(easel.Vec2{X: 50, Y: 140})

	// Nearest midpoint is b at 160 and the pointer is above it, so the
	// preview keeps a before b and nothing visibly moves yet.
	if got := s.Element(stack.ID).Children; got[0] != a.ID {
		t.Fatalf("committed order changed mid-drag: %v", got)
	}

	ed.PointerMove(easel.Vec2{X: 50, Y: 200})
	// Now below b's midpoint: the live preview flows b, a, c.
	layout := ed.Layout()
	br, _ := layout.Rect(b.ID)
	ar, _ := layout.Rect(a.ID)
	if !approx(br.Y, 0) || !approx(ar.Y, 110) {
		t.Fatalf("preview ys: b=%v a=%v, want 0 and 110", br.Y, ar.Y)
	}

	ed.PointerUp(easel.Vec2{X: 50, Y: 200})

	want := []string{b.ID, a.ID, c.ID}
	if diff := cmp.Diff(want, s.Element(stack.ID).Children); diff != "" {
		t.Errorf("committed order (-want +got):\n%s", diff)
	}
	labels := ed.HistoryLabels()
	if len(labels) != 2 || labels[1] != "Reorder element" {
		t.Errorf("history labels = %v, want initial plus one reorder", labels)
	}
}

func TestReorderSoleChildDoesNothing(t *testing.T) {
	s, page := newCanvas(t)
	stack := s.AddElement(easel.TypeStack, page.RootElementID)
	only := s.AddElement(easel.TypeBox, stack.ID)
	ed := editorOver(s)

	ed.PointerDown(easel.Vec2{X: 50, Y: 50}, Modifiers{})
	ed.PointerMove(easel.Vec2{X: 50, Y: 180})
	ed.PointerUp(easel.Vec2{X: 50, Y: 180})

	if got := s.Element(stack.ID).Children; len(got) != 1 || got[0] != only.ID {
		t.Errorf("children = %v, want unchanged", got)
	}
	if got := len(ed.HistoryLabels()); got != 1 {
		t.Errorf("history has %d entries, want 1", got)
	}
}

func TestMarqueeDragReplacesSelection(t *testing.T) {
	s, page := newCanvas(t)
	frame1 := s.AddElement(easel.TypeFrame, page.RootElementID)
	frame2 := s.AddElement(easel.TypeFrame, page.RootElementID)
	_ = frame2
	ed := editorOver(s)

	// Press empty artboard right of the frames, sweep left over frame1.
	ed.PointerDown(easel.Vec2{X: 600, Y: 50}, Modifiers{})
	ed.PointerMove(easel.Vec2{X: 150, Y: 100})

	list := ed.DisplayList()
	if list.Marquee == nil {
		t.Fatal("no marquee rect while sweeping")
	}

	ed.PointerUp(easel.Vec2{X: 150, Y: 100})

	if diff := cmp.Diff([]string{frame1.ID}, ed.SelectedIDs()); diff != "" {
		t.Errorf("marquee selection (-want +got):\n%s", diff)
	}
}

func TestTinyMarqueeClearsSelection(t *testing.T) {
	s, page := newCanvas(t)
	s.AddElement(easel.TypeFrame, page.RootElementID)
	ed := editorOver(s)

	ed.Click(easel.Vec2{X: 100, Y: 100}, Modifiers{})
	if got := ed.SelectedIDs(); len(got) != 1 {
		t.Fatalf("setup selection = %v", got)
	}

	// Crosses the drag threshold but stays under the marquee minimum.
	ed.PointerDown(easel.Vec2{X: 600, Y: 50}, Modifiers{})
	ed.PointerMove(easel.Vec2{X: 603, Y: 53})
	ed.PointerUp(easel.Vec2{X: 603, Y: 53})

	if got := ed.SelectedIDs(); len(got) != 0 {
		t.Errorf("selection = %v, want cleared by null marquee", got)
	}
}

func TestLockedElementNeitherDragsNorSelects(t *testing.T) {
	s, page := newCanvas(t)
	frame := s.AddElement(easel.TypeFrame, page.RootElementID)
	box := s.AddElement(easel.TypeBox, frame.ID)
	s.MoveElement(box.ID, easel.Vec2{X: 20, Y: 20})
	s.ToggleLock(box.ID)
	_ = frame
	ed := editorOver(s)

	ed.PointerDown(easel.Vec2{X: 50, Y: 50}, Modifiers{})
	ed.PointerMove(easel.Vec2{X: 150, Y: 150})
	ed.PointerUp(easel.Vec2{X: 150, Y: 150})

	if got := s.Element(box.ID).Position; got != (easel.Vec2{X: 20, Y: 20}) {
		t.Errorf("locked element moved to %+v", got)
	}
	if got := ed.SelectedIDs(); len(got) != 0 {
		t.Errorf("locked element selected: %v", got)
	}
	if got := len(ed.HistoryLabels()); got != 1 {
		t.Errorf("history has %d entries, want 1", got)
	}
}

func TestEscapeCancelsDragWithoutCommit(t *testing.T) {
	s, page := newCanvas(t)
	frame := s.AddElement(easel.TypeFrame, page.RootElementID)
	box := s.AddElement(easel.TypeBox, frame.ID)
	s.MoveElement(box.ID, easel.Vec2{X: 20, Y: 20})
	_ = frame
	ed := editorOver(s)

	ed.PointerDown(easel.Vec2{X: 50, Y: 50}, Modifiers{})
	ed.PointerMove(easel.Vec2{X: 120, Y: 130})
	ed.Escape()
	ed.PointerUp(easel.Vec2{X: 120, Y: 130})

	if got := s.Element(box.ID).Position; got != (easel.Vec2{X: 20, Y: 20}) {
		t.Errorf("cancelled drag still moved element to %+v", got)
	}
	if got := len(ed.HistoryLabels()); got != 1 {
		t.Errorf("history has %d entries, want 1", got)
	}
	if r, _ := ed.Layout().Rect(box.ID); !approx(r.X, 20) || !approx(r.Y, 20) {
		t.Errorf("overlay still active after cancel: rect (%v, %v)", r.X, r.Y)
	}
}

func TestBackgroundClickDeselectsUnlessShift(t *testing.T) {
	s, page := newCanvas(t)
	s.AddElement(easel.TypeFrame, page.RootElementID)
	ed := editorOver(s)

	ed.Click(easel.Vec2{X: 100, Y: 100}, Modifiers{})
	if got := ed.SelectedIDs(); len(got) != 1 {
		t.Fatalf("setup selection = %v", got)
	}

	ed.Click(easel.Vec2{X: 600, Y: 50}, Modifiers{Shift: true})
	if got := ed.SelectedIDs(); len(got) != 1 {
		t.Errorf("shift background click cleared selection")
	}

	ed.Click(easel.Vec2{X: 600, Y: 50}, Modifiers{})
	if got := ed.SelectedIDs(); len(got) != 0 {
		t.Errorf("selection = %v, want empty after background click", got)
	}
}
