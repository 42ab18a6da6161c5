package easel

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// brokenDoc builds a one-page document and hands it to corrupt before
// validation.
func brokenDoc(corrupt func(d *Document)) *Document {
	d := NewDocument()
	corrupt(d)
	return d
}

func TestDocumentValidateViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
	}{
		{
			name: "page order references unknown page",
			doc: brokenDoc(func(d *Document) {
				d.PageOrder[0] = "ghost"
			}),
		},
		{
			name: "page order misses a page",
			doc: brokenDoc(func(d *Document) {
				d.PageOrder = nil
			}),
		},
		{
			name: "root is not a page element",
			doc: brokenDoc(func(d *Document) {
				for _, el := range d.Elements {
					el.Type = TypeFrame
				}
			}),
		},
		{
			name: "child missing from element map",
			doc: brokenDoc(func(d *Document) {
				for _, el := range d.Elements {
					el.Children = []string{"ghost"}
				}
			}),
		},
		{
			name: "unknown element type",
			doc: brokenDoc(func(d *Document) {
				for _, el := range d.Elements {
					el.Type = "hologram"
				}
			}),
		},
		{
			name: "orphan element",
			doc: brokenDoc(func(d *Document) {
				orphan := NewElement(TypeBox)
				orphan.ParentID = ""
				d.Elements[orphan.ID] = orphan
			}),
		},
		{
			name: "child parent link not mirrored",
			doc: brokenDoc(func(d *Document) {
				child := NewElement(TypeBox)
				child.ParentID = "elsewhere"
				d.Elements[child.ID] = child
				for _, el := range d.Elements {
					if el.Type == TypePage {
						el.Children = append(el.Children, child.ID)
					}
				}
			}),
		},
		{
			name: "two pages share one root",
			doc: brokenDoc(func(d *Document) {
				var rootID string
				for _, p := range d.Pages {
					rootID = p.RootElementID
				}
				twin := &Page{ID: NewID(), Name: "Twin", RootElementID: rootID, Width: 100, Height: 100}
				d.Pages[twin.ID] = twin
				d.PageOrder = append(d.PageOrder, twin.ID)
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("Validate() = %v, want ErrInvalidDocument", err)
			}
		})
	}
}

func TestDocumentValidateAcceptsFreshDocument(t *testing.T) {
	if err := NewDocument().Validate(); err != nil {
		t.Errorf("fresh document invalid: %v", err)
	}
}

func TestDocumentSaveLoadRoundTrip(t *testing.T) {
	s, page := newTestStore(t)
	frame := s.AddElement(TypeFrame, page.RootElementID)
	s.AddElement(TypeText, frame.ID)
	doc := s.Export()

	path := filepath.Join(t.TempDir(), "design.json")
	if err := doc.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if diff := cmp.Diff(doc, loaded, cmpopts.IgnoreUnexported(Element{})); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestLoadDocumentRejectsGarbage(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDocument(bad); err == nil {
		t.Error("LoadDocument accepted malformed JSON")
	}

	invalid := filepath.Join(dir, "invalid.json")
	doc := brokenDoc(func(d *Document) { d.PageOrder[0] = "ghost" })
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(invalid, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDocument(invalid); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("LoadDocument = %v, want ErrInvalidDocument", err)
	}

	if _, err := LoadDocument(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("LoadDocument accepted a missing file")
	}
}

func TestStoreLoadLeavesStateOnError(t *testing.T) {
	s, page := newTestStore(t)
	bad := brokenDoc(func(d *Document) { d.PageOrder[0] = "ghost" })

	if err := s.Load(bad); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("Load = %v, want ErrInvalidDocument", err)
	}
	if s.Page(page.ID) == nil {
		t.Error("failed load wiped existing state")
	}
	if err := s.Load(nil); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("Load(nil) = %v, want ErrInvalidDocument", err)
	}
}
