package easel

import (
	"testing"

	"github.com/easelhq/easel/style"
)

func TestNewElementDefaults(t *testing.T) {
	tests := []struct {
		typ         ElementType
		wantName    string
		wantSize    Size
		wantContent string
	}{
		{TypeFrame, "Frame", Size{Width: 200, Height: 200}, ""},
		{TypeRow, "Row", Size{Width: 300, Height: 100}, ""},
		{TypeSection, "Section", Size{Width: 400, Height: 300}, ""},
		{TypeText, "Text", Size{}, "Text"},
		{TypeParagraph, "Paragraph", Size{}, "Write something here."},
		{TypeButton, "Button", Size{Width: 120, Height: 40}, "Button"},
		{TypeImage, "Image", Size{Width: 200, Height: 150}, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			el := NewElement(tt.typ)
			if el == nil {
				t.Fatalf("NewElement(%q) = nil", tt.typ)
			}
			if el.ID == "" {
				t.Error("new element has empty id")
			}
			if !el.Visible {
				t.Error("new element is not visible")
			}
			if el.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", el.Name, tt.wantName)
			}
			if el.Size != tt.wantSize {
				t.Errorf("Size = %+v, want %+v", el.Size, tt.wantSize)
			}
			if el.Content != tt.wantContent {
				t.Errorf("Content = %q, want %q", el.Content, tt.wantContent)
			}
		})
	}
}

func TestNewElementUnknownType(t *testing.T) {
	if el := NewElement("hologram"); el != nil {
		t.Errorf("NewElement(hologram) = %+v, want nil", el)
	}
}

func TestElementTypesAllValid(t *testing.T) {
	types := ElementTypes()
	if got, want := len(types), 17; got != want {
		t.Fatalf("len(ElementTypes()) = %d, want %d", got, want)
	}
	for _, typ := range types {
		if !typ.Valid() {
			t.Errorf("type %q not valid", typ)
		}
	}
}

func TestTypeTraits(t *testing.T) {
	tests := []struct {
		typ       ElementType
		container bool
		textCap   bool
		textual   bool
		media     bool
	}{
		{TypePage, true, false, false, false},
		{TypeFrame, true, false, false, false},
		{TypeBox, true, false, false, false},
		{TypeText, false, true, true, false},
		{TypeHeading, false, true, true, false},
		{TypeButton, false, true, false, false},
		{TypeInput, false, true, false, false},
		{TypeImage, false, false, false, true},
		{TypeVideo, false, false, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if got := tt.typ.IsContainer(); got != tt.container {
				t.Errorf("IsContainer() = %v, want %v", got, tt.container)
			}
			if got := tt.typ.IsTextCapable(); got != tt.textCap {
				t.Errorf("IsTextCapable() = %v, want %v", got, tt.textCap)
			}
			if got := tt.typ.IsTextual(); got != tt.textual {
				t.Errorf("IsTextual() = %v, want %v", got, tt.textual)
			}
			if got := tt.typ.IsMedia(); got != tt.media {
				t.Errorf("IsMedia() = %v, want %v", got, tt.media)
			}
		})
	}
}

func TestElementCloneIsDeep(t *testing.T) {
	el := NewElement(TypeFrame)
	el.Children = []string{"a", "b"}
	el.ResponsiveStyles = map[string]*style.Style{"phone": {Gap: style.Ptr(4.0)}}
	el.Crop = &CropRect{Width: 1, Height: 1}

	c := el.Clone()
	c.Children[0] = "z"
	c.ResponsiveStyles["tablet"] = &style.Style{}
	c.Crop.Width = 0.5

	if el.Children[0] != "a" {
		t.Errorf("clone shares children slice: original[0] = %q", el.Children[0])
	}
	if _, ok := el.ResponsiveStyles["tablet"]; ok {
		t.Error("clone shares responsive style map")
	}
	if el.Crop.Width != 1 {
		t.Errorf("clone shares crop: original width = %g", el.Crop.Width)
	}
}
