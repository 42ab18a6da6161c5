// Package style defines the declarative per-element style record and the
// breakpoint cascade that merges base styles with responsive overrides into
// one effective style.
package style

// ResizeMode specifies how an element sizes itself along one axis.
type ResizeMode string

const (
	// ResizeFixed uses an explicit pixel value from the element size (default).
	ResizeFixed ResizeMode = "fixed"

	// ResizeFill stretches into the space the parent makes available.
	ResizeFill ResizeMode = "fill"

	// ResizeHug shrinks to the intrinsic size of the content.
	ResizeHug ResizeMode = "hug"
)

// Display values recognized by the layout engine.
const (
	DisplayBlock = "block"
	DisplayFlex  = "flex"
	DisplayGrid  = "grid"
)

// Flex direction values.
const (
	DirectionRow    = "row"
	DirectionColumn = "column"
)

// Style is a partial style record. Nil fields are "not set" and fall through
// to the layer below during breakpoint resolution, so every field is a
// pointer. A Style attached to an element is treated as immutable; mutations
// build a new record and swap it in.
type Style struct {
	// Layout container
	Display        *string  `json:"display,omitempty"`
	FlexDirection  *string  `json:"flexDirection,omitempty"`
	JustifyContent *string  `json:"justifyContent,omitempty"`
	AlignItems     *string  `json:"alignItems,omitempty"`
	FlexWrap       *string  `json:"flexWrap,omitempty"`
	Gap            *float64 `json:"gap,omitempty"`

	// Sizing modes, one per axis
	ResizeX *ResizeMode `json:"resizeX,omitempty"`
	ResizeY *ResizeMode `json:"resizeY,omitempty"`

	// Spacing. Each edge independently falls back to the scalar Padding.
	Padding       *float64 `json:"padding,omitempty"`
	PaddingTop    *float64 `json:"paddingTop,omitempty"`
	PaddingRight  *float64 `json:"paddingRight,omitempty"`
	PaddingBottom *float64 `json:"paddingBottom,omitempty"`
	PaddingLeft   *float64 `json:"paddingLeft,omitempty"`

	// Visual
	Background   *string  `json:"background,omitempty"`
	Color        *string  `json:"color,omitempty"`
	BorderRadius *float64 `json:"borderRadius,omitempty"`
	BorderWidth  *float64 `json:"borderWidth,omitempty"`
	BorderColor  *string  `json:"borderColor,omitempty"`
	Opacity      *float64 `json:"opacity,omitempty"`
	Overflow     *string  `json:"overflow,omitempty"`

	// Typography
	FontSize      *float64 `json:"fontSize,omitempty"`
	FontWeight    *string  `json:"fontWeight,omitempty"`
	FontFamily    *string  `json:"fontFamily,omitempty"`
	LineHeight    *float64 `json:"lineHeight,omitempty"`
	TextAlign     *string  `json:"textAlign,omitempty"`
	LetterSpacing *float64 `json:"letterSpacing,omitempty"`

	// Stacking and transform
	ZIndex   *int     `json:"zIndex,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// Ptr returns a pointer to v. Convenience for building partial styles.
func Ptr[T any](v T) *T {
	return &v
}

// Clone returns a copy of the style. Field targets are shared, which is safe
// under the immutability convention above.
func (s *Style) Clone() *Style {
	if s == nil {
		return &Style{}
	}
	c := *s
	return &c
}

// HasAutoLayout reports whether the style lays out children in flex or grid
// flow rather than free positioning.
func (s *Style) HasAutoLayout() bool {
	if s == nil || s.Display == nil {
		return false
	}
	return *s.Display == DisplayFlex || *s.Display == DisplayGrid
}

// Direction returns the flex direction, defaulting to row like CSS.
func (s *Style) Direction() string {
	if s == nil || s.FlexDirection == nil {
		return DirectionRow
	}
	return *s.FlexDirection
}

// ResizeModeX returns the horizontal sizing mode, defaulting to fixed.
func (s *Style) ResizeModeX() ResizeMode {
	if s == nil || s.ResizeX == nil {
		return ResizeFixed
	}
	return *s.ResizeX
}

// ResizeModeY returns the vertical sizing mode, defaulting to fixed.
func (s *Style) ResizeModeY() ResizeMode {
	if s == nil || s.ResizeY == nil {
		return ResizeFixed
	}
	return *s.ResizeY
}

// GapOrZero returns the gap between flow children.
func (s *Style) GapOrZero() float64 {
	if s == nil || s.Gap == nil {
		return 0
	}
	return *s.Gap
}

// PaddingEdges resolves per-edge padding. An unset edge falls back to the
// scalar Padding value, each edge independently.
func (s *Style) PaddingEdges() (top, right, bottom, left float64) {
	if s == nil {
		return 0, 0, 0, 0
	}
	base := 0.0
	if s.Padding != nil {
		base = *s.Padding
	}
	top, right, bottom, left = base, base, base, base
	if s.PaddingTop != nil {
		top = *s.PaddingTop
	}
	if s.PaddingRight != nil {
		right = *s.PaddingRight
	}
	if s.PaddingBottom != nil {
		bottom = *s.PaddingBottom
	}
	if s.PaddingLeft != nil {
		left = *s.PaddingLeft
	}
	return top, right, bottom, left
}

// Merge copies non-nil fields from src to dst. Only properties explicitly set
// in src override dst; everything else shows through.
func Merge(dst, src *Style) {
	if dst == nil || src == nil {
		return
	}

	// Layout container
	if src.Display != nil {
		dst.Display = src.Display
	}
	if src.FlexDirection != nil {
		dst.FlexDirection = src.FlexDirection
	}
	if src.JustifyContent != nil {
		dst.JustifyContent = src.JustifyContent
	}
	if src.AlignItems != nil {
		dst.AlignItems = src.AlignItems
	}
	if src.FlexWrap != nil {
		dst.FlexWrap = src.FlexWrap
	}
	if src.Gap != nil {
		dst.Gap = src.Gap
	}

	// Sizing modes
	if src.ResizeX != nil {
		dst.ResizeX = src.ResizeX
	}
	if src.ResizeY != nil {
		dst.ResizeY = src.ResizeY
	}

	// Spacing
	if src.Padding != nil {
		dst.Padding = src.Padding
	}
	if src.PaddingTop != nil {
		dst.PaddingTop = src.PaddingTop
	}
	if src.PaddingRight != nil {
		dst.PaddingRight = src.PaddingRight
	}
	if src.PaddingBottom != nil {
		dst.PaddingBottom = src.PaddingBottom
	}
	if src.PaddingLeft != nil {
		dst.PaddingLeft = src.PaddingLeft
	}

	// Visual
	if src.Background != nil {
		dst.Background = src.Background
	}
	if src.Color != nil {
		dst.Color = src.Color
	}
	if src.BorderRadius != nil {
		dst.BorderRadius = src.BorderRadius
	}
	if src.BorderWidth != nil {
		dst.BorderWidth = src.BorderWidth
	}
	if src.BorderColor != nil {
		dst.BorderColor = src.BorderColor
	}
	if src.Opacity != nil {
		dst.Opacity = src.Opacity
	}
	if src.Overflow != nil {
		dst.Overflow = src.Overflow
	}

	// Typography
	if src.FontSize != nil {
		dst.FontSize = src.FontSize
	}
	if src.FontWeight != nil {
		dst.FontWeight = src.FontWeight
	}
	if src.FontFamily != nil {
		dst.FontFamily = src.FontFamily
	}
	if src.LineHeight != nil {
		dst.LineHeight = src.LineHeight
	}
	if src.TextAlign != nil {
		dst.TextAlign = src.TextAlign
	}
	if src.LetterSpacing != nil {
		dst.LetterSpacing = src.LetterSpacing
	}

	// Stacking and transform
	if src.ZIndex != nil {
		dst.ZIndex = src.ZIndex
	}
	if src.Rotation != nil {
		dst.Rotation = src.Rotation
	}
}
