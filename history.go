package easel

// historyCap bounds the number of retained snapshots. When the list grows
// past it the oldest entry is pruned, so very long sessions lose their
// earliest undo steps rather than memory.
const historyCap = 100

// HistoryEntry pairs a document snapshot with the label of the operation
// that produced it.
type HistoryEntry struct {
	Label string
	Doc   *Document
}

// History is a linear list of full document snapshots with a cursor at the
// entry matching current state. Saving after an undo truncates the redo
// tail; there is no branching.
//
// History is not synchronized. The editor serializes access alongside its
// store mutations.
type History struct {
	entries []HistoryEntry
	cursor  int
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{cursor: -1}
}

// SaveInitial resets the history to a single baseline entry. The first undo
// in a session lands here instead of on an empty canvas.
func (h *History) SaveInitial(label string, doc *Document) {
	h.entries = []HistoryEntry{{Label: label, Doc: doc}}
	h.cursor = 0
}

// Save records a snapshot after an operation. Any redo entries beyond the
// cursor are discarded first.
func (h *History) Save(label string, doc *Document) {
	h.entries = append(h.entries[:h.cursor+1], HistoryEntry{Label: label, Doc: doc})
	if len(h.entries) > historyCap {
		h.entries = h.entries[1:]
	}
	h.cursor = len(h.entries) - 1
}

// CanUndo reports whether an earlier snapshot exists.
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether a later snapshot exists.
func (h *History) CanRedo() bool {
	return h.cursor >= 0 && h.cursor < len(h.entries)-1
}

// Undo steps the cursor back and returns that snapshot, or nil when already
// at the baseline.
func (h *History) Undo() *Document {
	if !h.CanUndo() {
		return nil
	}
	h.cursor--
	return h.entries[h.cursor].Doc
}

// Redo steps the cursor forward and returns that snapshot, or nil when
// there is nothing to redo.
func (h *History) Redo() *Document {
	if !h.CanRedo() {
		return nil
	}
	h.cursor++
	return h.entries[h.cursor].Doc
}

// Len returns the number of stored snapshots.
func (h *History) Len() int {
	return len(h.entries)
}

// Labels returns the operation labels in order, oldest first.
func (h *History) Labels() []string {
	out := make([]string, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Label
	}
	return out
}
