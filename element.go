// Package easel implements the canonical element tree for a canvas document:
// pages and nested elements, the mutation surface that keeps the tree a valid
// forest, snapshot history, and the JSON exchange codec shared by clipboard
// and AI collaborators.
package easel

import (
	"github.com/google/uuid"

	"github.com/easelhq/easel/style"
)

// Vec2 is a point or translation in canvas units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v translated by d.
func (v Vec2) Add(d Vec2) Vec2 {
	return Vec2{X: v.X + d.X, Y: v.Y + d.Y}
}

// Size is a width/height pair in canvas units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CropRect is a normalized crop window applied to media content.
type CropRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ElementType tags an element with its behavior. All behavior differences
// between types are driven by the traits table below.
type ElementType string

// Container types.
const (
	TypeFrame     ElementType = "frame"
	TypeStack     ElementType = "stack"
	TypeGrid      ElementType = "grid"
	TypeSection   ElementType = "section"
	TypeContainer ElementType = "container"
	TypeRow       ElementType = "row"
	TypeBox       ElementType = "box"
	TypePage      ElementType = "page"
)

// Leaf types.
const (
	TypeText      ElementType = "text"
	TypeHeading   ElementType = "heading"
	TypeParagraph ElementType = "paragraph"
	TypeButton    ElementType = "button"
	TypeLink      ElementType = "link"
	TypeImage     ElementType = "image"
	TypeIcon      ElementType = "icon"
	TypeVideo     ElementType = "video"
	TypeInput     ElementType = "input"
)

// typeTraits describes how one element type behaves. One table, consulted
// everywhere, instead of per-type branches scattered through the code.
type typeTraits struct {
	container   bool
	textCapable bool // double-click enters text editing
	textual     bool // participates in the text width default inside columns
	media       bool // content payload lives in Src
	defaultName string
	defaultSize Size
	defaultText string
	newStyle    func() *style.Style
}

var elementTraits = map[ElementType]typeTraits{
	TypePage: {
		container:   true,
		defaultName: "Page",
		newStyle: func() *style.Style {
			return &style.Style{
				Display:       style.Ptr(style.DisplayFlex),
				FlexDirection: style.Ptr(style.DirectionColumn),
				Background:    style.Ptr("#ffffff"),
			}
		},
	},
	TypeFrame: {
		container:   true,
		defaultName: "Frame",
		defaultSize: Size{Width: 200, Height: 200},
		newStyle: func() *style.Style {
			return &style.Style{Background: style.Ptr("#ffffff")}
		},
	},
	TypeStack: {
		container:   true,
		defaultName: "Stack",
		defaultSize: Size{Width: 200, Height: 200},
		newStyle: func() *style.Style {
			return &style.Style{
				Display:       style.Ptr(style.DisplayFlex),
				FlexDirection: style.Ptr(style.DirectionColumn),
				Gap:           style.Ptr(10.0),
			}
		},
	},
	TypeRow: {
		container:   true,
		defaultName: "Row",
		defaultSize: Size{Width: 300, Height: 100},
		newStyle: func() *style.Style {
			return &style.Style{
				Display:       style.Ptr(style.DisplayFlex),
				FlexDirection: style.Ptr(style.DirectionRow),
				Gap:           style.Ptr(10.0),
			}
		},
	},
	TypeGrid: {
		container:   true,
		defaultName: "Grid",
		defaultSize: Size{Width: 300, Height: 300},
		newStyle: func() *style.Style {
			return &style.Style{
				Display: style.Ptr(style.DisplayGrid),
				Gap:     style.Ptr(10.0),
			}
		},
	},
	TypeSection: {
		container:   true,
		defaultName: "Section",
		defaultSize: Size{Width: 400, Height: 300},
		newStyle: func() *style.Style {
			return &style.Style{
				Display:       style.Ptr(style.DisplayFlex),
				FlexDirection: style.Ptr(style.DirectionColumn),
				Gap:           style.Ptr(10.0),
				Padding:       style.Ptr(20.0),
				ResizeX:       style.Ptr(style.ResizeFill),
			}
		},
	},
	TypeContainer: {
		container:   true,
		defaultName: "Container",
		defaultSize: Size{Width: 200, Height: 200},
		newStyle: func() *style.Style {
			return &style.Style{
				Display:       style.Ptr(style.DisplayFlex),
				FlexDirection: style.Ptr(style.DirectionColumn),
				Gap:           style.Ptr(10.0),
			}
		},
	},
	TypeBox: {
		container:   true,
		defaultName: "Box",
		defaultSize: Size{Width: 100, Height: 100},
		newStyle: func() *style.Style {
			return &style.Style{Background: style.Ptr("#f3f4f6")}
		},
	},
	TypeText: {
		textCapable: true,
		textual:     true,
		defaultName: "Text",
		defaultText: "Text",
		newStyle: func() *style.Style {
			return &style.Style{FontSize: style.Ptr(16.0), Color: style.Ptr("#111827")}
		},
	},
	TypeHeading: {
		textCapable: true,
		textual:     true,
		defaultName: "Heading",
		defaultText: "Heading",
		newStyle: func() *style.Style {
			return &style.Style{
				FontSize:   style.Ptr(32.0),
				FontWeight: style.Ptr("700"),
				Color:      style.Ptr("#111827"),
			}
		},
	},
	TypeParagraph: {
		textCapable: true,
		textual:     true,
		defaultName: "Paragraph",
		defaultText: "Write something here.",
		newStyle: func() *style.Style {
			return &style.Style{
				FontSize:   style.Ptr(14.0),
				LineHeight: style.Ptr(1.5),
				Color:      style.Ptr("#374151"),
			}
		},
	},
	TypeButton: {
		textCapable: true,
		defaultName: "Button",
		defaultSize: Size{Width: 120, Height: 40},
		defaultText: "Button",
		newStyle: func() *style.Style {
			return &style.Style{
				FontSize:     style.Ptr(14.0),
				Background:   style.Ptr("#3b82f6"),
				Color:        style.Ptr("#ffffff"),
				BorderRadius: style.Ptr(6.0),
				Padding:      style.Ptr(10.0),
			}
		},
	},
	TypeLink: {
		textCapable: true,
		defaultName: "Link",
		defaultText: "Link",
		newStyle: func() *style.Style {
			return &style.Style{FontSize: style.Ptr(14.0), Color: style.Ptr("#2563eb")}
		},
	},
	TypeImage: {
		media:       true,
		defaultName: "Image",
		defaultSize: Size{Width: 200, Height: 150},
		newStyle: func() *style.Style {
			return &style.Style{Background: style.Ptr("#e5e7eb")}
		},
	},
	TypeIcon: {
		media:       true,
		defaultName: "Icon",
		defaultSize: Size{Width: 24, Height: 24},
	},
	TypeVideo: {
		media:       true,
		defaultName: "Video",
		defaultSize: Size{Width: 320, Height: 180},
		newStyle: func() *style.Style {
			return &style.Style{Background: style.Ptr("#111827")}
		},
	},
	TypeInput: {
		textCapable: true,
		defaultName: "Input",
		defaultSize: Size{Width: 240, Height: 40},
		newStyle: func() *style.Style {
			return &style.Style{
				BorderWidth:  style.Ptr(1.0),
				BorderColor:  style.Ptr("#d1d5db"),
				BorderRadius: style.Ptr(6.0),
				Padding:      style.Ptr(8.0),
			}
		},
	},
}

// Valid reports whether t is a known element type tag.
func (t ElementType) Valid() bool {
	_, ok := elementTraits[t]
	return ok
}

// IsContainer reports whether elements of this type hold children.
func (t ElementType) IsContainer() bool {
	return elementTraits[t].container
}

// IsTextCapable reports whether double-clicking elements of this type enters
// text editing.
func (t ElementType) IsTextCapable() bool {
	return elementTraits[t].textCapable
}

// IsTextual reports whether this is a text-flow type (text, heading,
// paragraph). Textual elements default to full width inside column layouts.
func (t ElementType) IsTextual() bool {
	return elementTraits[t].textual
}

// IsMedia reports whether the content payload of this type is a source
// reference rather than text.
func (t ElementType) IsMedia() bool {
	return elementTraits[t].media
}

// DefaultName returns the display name given to fresh elements of this type.
func (t ElementType) DefaultName() string {
	return elementTraits[t].defaultName
}

// ElementTypes returns every known type tag, containers first.
func ElementTypes() []ElementType {
	return []ElementType{
		TypeFrame, TypeStack, TypeGrid, TypeSection, TypeContainer, TypeRow, TypeBox, TypePage,
		TypeText, TypeHeading, TypeParagraph, TypeButton, TypeLink, TypeImage, TypeIcon, TypeVideo, TypeInput,
	}
}

// NewID returns a fresh element or page id.
func NewID() string {
	return uuid.NewString()
}

// Element is one node in the canvas tree.
//
// Position is parent-relative and only meaningful while the parent does not
// lay its children out automatically. Size is the fixed-mode baseline; the
// sizing modes in Styles decide whether it applies. Callers outside this
// package treat elements as read-only and mutate through the Store.
type Element struct {
	ID               string                  `json:"id"`
	Type             ElementType             `json:"type"`
	ParentID         string                  `json:"parentId,omitempty"`
	Children         []string                `json:"children"`
	Position         Vec2                    `json:"position"`
	Size             Size                    `json:"size"`
	Styles           *style.Style            `json:"styles,omitempty"`
	ResponsiveStyles map[string]*style.Style `json:"responsiveStyles,omitempty"`
	Content          string                  `json:"content,omitempty"`
	Src              string                  `json:"src,omitempty"`
	Crop             *CropRect               `json:"crop,omitempty"`
	Visible          bool                    `json:"visible"`
	Locked           bool                    `json:"locked,omitempty"`
	Name             string                  `json:"name"`

	// styleRev is bumped by the store whenever Styles or ResponsiveStyles
	// change. The style resolver keys its memoization on it.
	styleRev uint64
}

// NewElement creates a detached element of the given type with the type's
// default name, size, content and style. Returns nil for unknown types.
func NewElement(typ ElementType) *Element {
	traits, ok := elementTraits[typ]
	if !ok {
		return nil
	}
	el := &Element{
		ID:       NewID(),
		Type:     typ,
		Children: []string{},
		Size:     traits.defaultSize,
		Visible:  true,
		Name:     traits.defaultName,
	}
	if traits.newStyle != nil {
		el.Styles = traits.newStyle()
	}
	if traits.defaultText != "" {
		el.Content = traits.defaultText
	}
	return el
}

// StyleRev returns the element's current style revision.
func (e *Element) StyleRev() uint64 {
	return e.styleRev
}

// Clone returns a deep copy of the element. Style records are shared, which
// is safe because styles are immutable once attached.
func (e *Element) Clone() *Element {
	c := *e
	c.Children = append([]string(nil), e.Children...)
	if e.ResponsiveStyles != nil {
		c.ResponsiveStyles = make(map[string]*style.Style, len(e.ResponsiveStyles))
		for k, v := range e.ResponsiveStyles {
			c.ResponsiveStyles[k] = v
		}
	}
	if e.Crop != nil {
		crop := *e.Crop
		c.Crop = &crop
	}
	return &c
}

// Page is one artboard on the infinite canvas. X and Y place the artboard;
// Width and Height are the baseline viewport the page is designed at.
type Page struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	RootElementID string  `json:"rootElementId"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
}

// Clone returns a copy of the page.
func (p *Page) Clone() *Page {
	c := *p
	return &c
}

// PagePatch carries optional page fields for UpdatePage. Nil fields are left
// unchanged.
type PagePatch struct {
	Name   *string  `json:"name,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}
