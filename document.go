package easel

import (
	"errors"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrInvalidDocument is wrapped by every document validation failure.
var ErrInvalidDocument = errors.New("invalid document")

// Document is a full serializable snapshot of the store: every element,
// every page, and the artboard order. Snapshots are deep copies, so a held
// Document never changes under later edits.
type Document struct {
	Elements  map[string]*Element `json:"elements"`
	Pages     map[string]*Page    `json:"pages"`
	PageOrder []string            `json:"pageOrder"`
}

// NewDocument returns a document with a single empty page, the starting
// state for a fresh workspace.
func NewDocument() *Document {
	s := NewStore()
	s.AddPage("Page 1")
	return s.Export()
}

// Validate checks the document's forest shape. Documents fail wholesale:
// one broken reference rejects the whole snapshot.
func (d *Document) Validate() error {
	return validateForest(d.Elements, d.Pages, d.PageOrder)
}

// Export deep-copies the current state into a document snapshot.
func (s *Store) Export() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := &Document{
		Elements:  make(map[string]*Element, len(s.elements)),
		Pages:     make(map[string]*Page, len(s.pages)),
		PageOrder: append([]string(nil), s.pageOrder...),
	}
	for id, el := range s.elements {
		doc.Elements[id] = el.Clone()
	}
	for id, page := range s.pages {
		doc.Pages[id] = page.Clone()
	}
	return doc
}

// Restore replaces the whole store state with a deep copy of the document.
// Every element gets a fresh style revision so resolver caches keyed on
// (id, revision) can never serve an entry from the replaced state.
func (s *Store) Restore(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.elements = make(map[string]*Element, len(doc.Elements))
	for id, el := range doc.Elements {
		c := el.Clone()
		c.styleRev = s.nextRev()
		s.elements[id] = c
	}
	s.pages = make(map[string]*Page, len(doc.Pages))
	for id, page := range doc.Pages {
		s.pages[id] = page.Clone()
	}
	s.pageOrder = append([]string(nil), doc.PageOrder...)

	s.publish(Change{Kind: ChangeReload, Label: "Reload document"})
}

// Load validates the document and, only when it is fully well formed,
// restores it into the store.
func (s *Store) Load(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	s.Restore(doc)
	return nil
}

// Validate checks the live store state against the same forest rules
// documents are held to.
func (s *Store) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return validateForest(s.elements, s.pages, s.pageOrder)
}

// validateForest enforces the structural rules the rest of the engine
// depends on: keys match ids, types are known, every parent/child link is
// mirrored, each element is owned by exactly one parent, page roots are
// parentless page elements, and every element is reachable from exactly one
// page root with no cycles.
func validateForest(elements map[string]*Element, pages map[string]*Page, pageOrder []string) error {
	if len(pageOrder) != len(pages) {
		return fmt.Errorf("%w: page order lists %d pages, document has %d", ErrInvalidDocument, len(pageOrder), len(pages))
	}
	seenPage := make(map[string]bool, len(pageOrder))
	for _, pid := range pageOrder {
		if seenPage[pid] {
			return fmt.Errorf("%w: page %q listed twice in page order", ErrInvalidDocument, pid)
		}
		seenPage[pid] = true
		if _, ok := pages[pid]; !ok {
			return fmt.Errorf("%w: page order references unknown page %q", ErrInvalidDocument, pid)
		}
	}

	childOwner := make(map[string]string, len(elements))
	for id, el := range elements {
		if el == nil {
			return fmt.Errorf("%w: element %q is nil", ErrInvalidDocument, id)
		}
		if el.ID != id {
			return fmt.Errorf("%w: element keyed %q carries id %q", ErrInvalidDocument, id, el.ID)
		}
		if !el.Type.Valid() {
			return fmt.Errorf("%w: element %q has unknown type %q", ErrInvalidDocument, id, el.Type)
		}
		for _, cid := range el.Children {
			child, ok := elements[cid]
			if !ok {
				return fmt.Errorf("%w: element %q lists missing child %q", ErrInvalidDocument, id, cid)
			}
			if child.ParentID != id {
				return fmt.Errorf("%w: element %q lists child %q whose parent is %q", ErrInvalidDocument, id, cid, child.ParentID)
			}
			if owner, dup := childOwner[cid]; dup {
				return fmt.Errorf("%w: element %q is child of both %q and %q", ErrInvalidDocument, cid, owner, id)
			}
			childOwner[cid] = id
		}
	}
	for id, el := range elements {
		if el.ParentID == "" {
			continue
		}
		parent, ok := elements[el.ParentID]
		if !ok {
			return fmt.Errorf("%w: element %q references missing parent %q", ErrInvalidDocument, id, el.ParentID)
		}
		if childOwner[id] != parent.ID {
			return fmt.Errorf("%w: element %q is not listed among children of %q", ErrInvalidDocument, id, el.ParentID)
		}
	}

	reached := make(map[string]bool, len(elements))
	for pid, page := range pages {
		if page == nil {
			return fmt.Errorf("%w: page %q is nil", ErrInvalidDocument, pid)
		}
		if page.ID != pid {
			return fmt.Errorf("%w: page keyed %q carries id %q", ErrInvalidDocument, pid, page.ID)
		}
		root, ok := elements[page.RootElementID]
		if !ok {
			return fmt.Errorf("%w: page %q references missing root %q", ErrInvalidDocument, pid, page.RootElementID)
		}
		if root.Type != TypePage {
			return fmt.Errorf("%w: page %q root %q has type %q, want %q", ErrInvalidDocument, pid, root.ID, root.Type, TypePage)
		}
		if root.ParentID != "" {
			return fmt.Errorf("%w: page root %q has parent %q", ErrInvalidDocument, root.ID, root.ParentID)
		}
		if err := markReachable(elements, root.ID, reached); err != nil {
			return err
		}
	}
	for id := range elements {
		if !reached[id] {
			return fmt.Errorf("%w: element %q is not reachable from any page root", ErrInvalidDocument, id)
		}
	}
	return nil
}

func markReachable(elements map[string]*Element, id string, reached map[string]bool) error {
	if reached[id] {
		return fmt.Errorf("%w: element %q reached twice, tree has a cycle or shared subtree", ErrInvalidDocument, id)
	}
	reached[id] = true
	for _, cid := range elements[id].Children {
		if _, ok := elements[cid]; !ok {
			continue
		}
		if err := markReachable(elements, cid, reached); err != nil {
			return err
		}
	}
	return nil
}

// LoadDocument reads and validates a document file.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("document %s: %w", path, err)
	}
	return &doc, nil
}

// Save writes the document as indented JSON.
func (d *Document) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
