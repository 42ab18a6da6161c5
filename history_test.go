package easel

import (
	"fmt"
	"testing"
)

func snapshotWithPages(n int) *Document {
	s := NewStore()
	for i := 0; i < n; i++ {
		s.AddPage(fmt.Sprintf("Page %d", i+1))
	}
	return s.Export()
}

func TestHistoryStartsEmpty(t *testing.T) {
	h := NewHistory()
	if h.CanUndo() || h.CanRedo() {
		t.Error("empty history claims undo/redo")
	}
	if h.Undo() != nil {
		t.Error("Undo on empty history returned a snapshot")
	}
	if h.Redo() != nil {
		t.Error("Redo on empty history returned a snapshot")
	}
}

func TestHistoryLinearWalk(t *testing.T) {
	h := NewHistory()
	one := snapshotWithPages(1)
	two := snapshotWithPages(2)
	three := snapshotWithPages(3)

	h.SaveInitial("Initial", one)
	h.Save("Add page", two)
	h.Save("Add page", three)

	if !h.CanUndo() || h.CanRedo() {
		t.Fatalf("CanUndo=%v CanRedo=%v after saves, want true/false", h.CanUndo(), h.CanRedo())
	}
	if got := h.Undo(); got != two {
		t.Errorf("first undo = %p, want second snapshot", got)
	}
	if got := h.Undo(); got != one {
		t.Errorf("second undo = %p, want initial snapshot", got)
	}
	if h.CanUndo() {
		t.Error("CanUndo true at the baseline")
	}
	if got := h.Redo(); got != two {
		t.Errorf("redo = %p, want second snapshot", got)
	}
	if got := h.Redo(); got != three {
		t.Errorf("redo = %p, want third snapshot", got)
	}
	if h.CanRedo() {
		t.Error("CanRedo true at the tip")
	}
}

func TestHistorySaveTruncatesRedo(t *testing.T) {
	h := NewHistory()
	h.SaveInitial("Initial", snapshotWithPages(1))
	h.Save("a", snapshotWithPages(2))
	h.Save("b", snapshotWithPages(3))

	h.Undo()
	h.Undo()
	fork := snapshotWithPages(4)
	h.Save("fork", fork)

	if h.CanRedo() {
		t.Error("redo tail survived a save")
	}
	if got, want := h.Len(), 2; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
	if got := h.Labels(); got[len(got)-1] != "fork" {
		t.Errorf("labels = %v, want fork last", got)
	}
}

func TestHistoryPrunesOldestAtCap(t *testing.T) {
	h := NewHistory()
	h.SaveInitial("Initial", snapshotWithPages(1))
	for i := 1; i <= historyCap+50; i++ {
		h.Save(fmt.Sprintf("op %d", i), snapshotWithPages(1))
	}

	if got := h.Len(); got != historyCap {
		t.Fatalf("Len() = %d, want cap %d", got, historyCap)
	}
	labels := h.Labels()
	if want := "op 51"; labels[0] != want {
		t.Errorf("oldest label = %q, want %q", labels[0], want)
	}
	if want := fmt.Sprintf("op %d", historyCap+50); labels[len(labels)-1] != want {
		t.Errorf("newest label = %q, want %q", labels[len(labels)-1], want)
	}
}

func TestSaveInitialResets(t *testing.T) {
	h := NewHistory()
	h.SaveInitial("Initial", snapshotWithPages(1))
	h.Save("a", snapshotWithPages(2))

	fresh := snapshotWithPages(1)
	h.SaveInitial("Initial", fresh)
	if got := h.Len(); got != 1 {
		t.Errorf("Len() = %d after reset, want 1", got)
	}
	if h.CanUndo() {
		t.Error("CanUndo true right after reset")
	}
}
