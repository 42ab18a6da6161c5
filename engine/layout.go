// Package engine turns the element tree into concrete geometry and
// interprets pointer gestures against it. It owns fill/hug/fixed sizing
// under the two positioning regimes (free and flex flow), the camera
// transform between screen and canvas space, selection and marquee
// hit-testing, and the drag state machine with its interaction overlay.
package engine

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/style"
)

// Text metrics used while no real font rasterizer is attached. Widths are
// approximated per rune from the font size.
const (
	defaultFontSize   = 16.0
	defaultLineHeight = 1.4
	charWidthFactor   = 0.6
)

// Outline colors for selection feedback.
const (
	selectedOutlineColor = "#3b82f6"
	hoveredOutlineColor  = "#60a5fa"
)

// Rect is an axis-aligned rectangle in canvas units.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p falls inside the rectangle.
func (r Rect) Contains(p easel.Vec2) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Intersects reports whether the rectangles strictly overlap. Shared edges
// do not count.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// ContainsRect reports whether o lies fully inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y &&
		o.X+o.Width <= r.X+r.Width && o.Y+o.Height <= r.Y+r.Height
}

// Center returns the rectangle's midpoint.
func (r Rect) Center() easel.Vec2 {
	return easel.Vec2{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// PositionMode says how an element is placed inside its parent.
type PositionMode int

const (
	// PositionAbsolute places the element at its own position inside a
	// free-positioning parent.
	PositionAbsolute PositionMode = iota

	// PositionFlow lets the parent's flex flow place the element.
	PositionFlow
)

// DimensionKind classifies how one axis of an element resolves.
type DimensionKind int

const (
	// DimPx is an explicit pixel value.
	DimPx DimensionKind = iota

	// DimPercent is a fraction of the parent's content box.
	DimPercent

	// DimAuto sizes to intrinsic content width.
	DimAuto

	// DimFitContent sizes to wrapped content height, so multi-line text
	// hugs correctly.
	DimFitContent

	// DimFlex leaves the size undetermined; the parent's flex distribution
	// assigns it from flexGrow.
	DimFlex
)

// Dimension is one resolved axis: a kind plus the value used by DimPx and
// DimPercent.
type Dimension struct {
	Kind  DimensionKind
	Value float64
}

// Outline is the selection or hover ring drawn around an element. Always an
// outline, never a shadow: ancestors may clip overflow, which would clip a
// shadow but not an outline.
type Outline struct {
	Width  float64
	Offset float64
	Color  string
}

// Instruction is the layout contract for one element given its effective
// style and parent context.
type Instruction struct {
	Mode       PositionMode
	Width      Dimension
	Height     Dimension
	FlexGrow   float64
	FlexShrink float64
	FlexBasis  Dimension
	Stretch    bool
	Padding    [4]float64 // top right bottom left
	Outline    *Outline
}

// ParentContext is the slice of parent state sizing depends on.
type ParentContext struct {
	AutoLayout bool
	Direction  string
}

// ComputeInstruction translates one element's effective style into layout
// instructions. Pure function of its arguments.
func ComputeInstruction(el *easel.Element, st *style.Style, parent ParentContext, selected, hovered bool) Instruction {
	horizontal := parent.Direction != style.DirectionColumn

	instr := Instruction{
		Mode:      PositionAbsolute,
		FlexBasis: Dimension{Kind: DimAuto},
	}
	if parent.AutoLayout {
		instr.Mode = PositionFlow
	}

	instr.Width = resolveAxis(el, st, st.ResizeModeX(), parent, horizontal, true)
	instr.Height = resolveAxis(el, st, st.ResizeModeY(), parent, !horizontal, false)

	if parent.AutoLayout {
		mainFill := st.ResizeModeX() == style.ResizeFill
		crossFill := st.ResizeModeY() == style.ResizeFill
		if !horizontal {
			mainFill, crossFill = crossFill, mainFill
		}
		if mainFill {
			instr.FlexGrow = 1
			instr.FlexShrink = 1
			instr.FlexBasis = Dimension{Kind: DimPx, Value: 0}
		}
		instr.Stretch = crossFill
	}

	top, right, bottom, left := st.PaddingEdges()
	instr.Padding = [4]float64{top, right, bottom, left}

	// Pages get their outline from the artboard chrome, never directly.
	if el.Type != easel.TypePage {
		switch {
		case selected:
			instr.Outline = &Outline{Width: 2, Offset: -2, Color: selectedOutlineColor}
		case hovered:
			instr.Outline = &Outline{Width: 1, Offset: 0, Color: hoveredOutlineColor}
		}
	}
	return instr
}

// resolveAxis resolves one axis of one element. isMain is whether this axis
// runs along the parent's flex main axis; isWidth distinguishes the two
// axes for hug semantics and the text width default.
func resolveAxis(el *easel.Element, st *style.Style, mode style.ResizeMode, parent ParentContext, isMain, isWidth bool) Dimension {
	fixed := el.Size.Width
	if !isWidth {
		fixed = el.Size.Height
	}

	switch mode {
	case style.ResizeFill:
		if parent.AutoLayout && isMain {
			// Size comes from flex distribution, never an explicit pixel.
			return Dimension{Kind: DimFlex}
		}
		return Dimension{Kind: DimPercent, Value: 100}
	case style.ResizeHug:
		if isWidth {
			return Dimension{Kind: DimAuto}
		}
		return Dimension{Kind: DimFitContent}
	default:
		// Text flows full-width inside column layouts even when nominally
		// fixed, so alignment applies to the line box. Explicit fill or hug
		// took the branches above.
		if isWidth && el.Type.IsTextual() && parent.AutoLayout && parent.Direction == style.DirectionColumn {
			return Dimension{Kind: DimPercent, Value: 100}
		}
		return Dimension{Kind: DimPx, Value: fixed}
	}
}

// LayoutInput is everything a layout pass reads.
type LayoutInput struct {
	Elements  map[string]*easel.Element
	Pages     map[string]*easel.Page
	PageOrder []string
	Resolver  *style.Resolver
	Selected  map[string]bool
	Hovered   string
	Overlay   *Overlay
}

// Layout is the computed geometry of every visible element: absolute canvas
// rects, per-page artboard rects, and the instruction each rect came from.
type Layout struct {
	Rects     map[string]Rect
	Artboards map[string]Rect
	Items     map[string]Instruction
}

// Rect returns the computed rect for an element. Elements hidden or not
// reached by the pass report ok=false.
func (l *Layout) Rect(id string) (Rect, bool) {
	r, ok := l.Rects[id]
	return r, ok
}

// ComputeLayout runs a full layout pass: for every page, size the artboard
// by the active breakpoint, then place the page subtree. Invisible elements
// and their subtrees get no geometry.
func ComputeLayout(in LayoutInput) *Layout {
	ly := &layouter{
		in: in,
		out: &Layout{
			Rects:     make(map[string]Rect, len(in.Elements)),
			Artboards: make(map[string]Rect, len(in.Pages)),
			Items:     make(map[string]Instruction, len(in.Elements)),
		},
	}

	active, haveActive := style.Breakpoint{}, false
	if in.Resolver != nil {
		active, haveActive = in.Resolver.Active()
	}
	for _, pid := range in.PageOrder {
		page := in.Pages[pid]
		if page == nil {
			continue
		}
		w, h := page.Width, page.Height
		// A non-default active breakpoint previews the page at that
		// viewport; the default breakpoint shows the baseline.
		if haveActive && !active.IsDefault {
			w, h = active.Width, active.Height
		}
		rect := Rect{X: page.X, Y: page.Y, Width: w, Height: h}
		ly.out.Artboards[pid] = rect

		root := in.Elements[page.RootElementID]
		if root == nil || !root.Visible {
			continue
		}
		rst := ly.resolve(root)
		ly.out.Rects[root.ID] = rect
		ly.out.Items[root.ID] = ComputeInstruction(root, rst, ParentContext{}, false, false)
		ly.placeChildren(root, rst, rect)
	}
	return ly.out
}

type layouter struct {
	in  LayoutInput
	out *Layout
}

func (ly *layouter) resolve(el *easel.Element) *style.Style {
	if ly.in.Resolver == nil {
		return el.Styles.Clone()
	}
	return ly.in.Resolver.Resolve(el.ID, el.StyleRev(), el.Styles, el.ResponsiveStyles)
}

func (ly *layouter) selected(id string) bool { return ly.in.Selected[id] }

// visibleChildren returns the visible children in flow order, with any
// in-flight reorder preview applied.
func (ly *layouter) visibleChildren(parent *easel.Element) []*easel.Element {
	order := ly.in.Overlay.apply(parent)
	out := make([]*easel.Element, 0, len(order))
	for _, id := range order {
		child := ly.in.Elements[id]
		if child != nil && child.Visible {
			out = append(out, child)
		}
	}
	return out
}

func (ly *layouter) placeChildren(parent *easel.Element, pst *style.Style, rect Rect) {
	children := ly.visibleChildren(parent)
	if len(children) == 0 {
		return
	}
	if pst.HasAutoLayout() {
		ly.placeFlow(parent, pst, rect, children)
	} else {
		ly.placeFree(pst, rect, children)
	}
}

// placeFree positions children at their own offsets inside the parent's
// content box.
func (ly *layouter) placeFree(pst *style.Style, rect Rect, children []*easel.Element) {
	top, right, bottom, left := pst.PaddingEdges()
	contentX := rect.X + left
	contentY := rect.Y + top
	contentW := max0(rect.Width - left - right)
	contentH := max0(rect.Height - top - bottom)

	for _, child := range children {
		cst := ly.resolve(child)
		instr := ComputeInstruction(child, cst, ParentContext{}, ly.selected(child.ID), ly.in.Hovered == child.ID)
		w := ly.resolveWidth(child, cst, instr.Width, contentW)
		h := ly.resolveHeight(child, cst, instr.Height, w, contentH)
		pos := ly.in.Overlay.Position(child)

		childRect := Rect{X: contentX + pos.X, Y: contentY + pos.Y, Width: w, Height: h}
		ly.out.Rects[child.ID] = childRect
		ly.out.Items[child.ID] = instr
		ly.placeChildren(child, cst, childRect)
	}
}

// placeFlow performs flex layout on the parent's content box: resolve base
// sizes, distribute leftover space across fill children, then place along
// the main axis honoring gap, justify and align.
func (ly *layouter) placeFlow(parent *easel.Element, pst *style.Style, rect Rect, children []*easel.Element) {
	top, right, bottom, left := pst.PaddingEdges()
	contentX := rect.X + left
	contentY := rect.Y + top
	contentW := max0(rect.Width - left - right)
	contentH := max0(rect.Height - top - bottom)

	dir := pst.Direction()
	horizontal := dir != style.DirectionColumn
	gap := pst.GapOrZero()

	mainAvail, crossAvail := contentW, contentH
	if !horizontal {
		mainAvail, crossAvail = contentH, contentW
	}

	type item struct {
		el    *easel.Element
		st    *style.Style
		instr Instruction
		main  float64
		cross float64
		grow  float64
	}

	items := make([]item, 0, len(children))
	totalFixed, totalGrow := 0.0, 0.0
	for _, child := range children {
		cst := ly.resolve(child)
		instr := ComputeInstruction(child, cst, ParentContext{AutoLayout: true, Direction: dir}, ly.selected(child.ID), ly.in.Hovered == child.ID)

		var w, h float64
		if horizontal {
			h = ly.resolveHeight(child, cst, instr.Height, 0, crossAvail)
			if instr.Width.Kind != DimFlex {
				w = ly.resolveWidth(child, cst, instr.Width, mainAvail)
				// Wrapping height depends on the resolved width.
				h = ly.resolveHeight(child, cst, instr.Height, w, crossAvail)
			}
		} else {
			w = ly.resolveWidth(child, cst, instr.Width, crossAvail)
			if instr.Height.Kind != DimFlex {
				h = ly.resolveHeight(child, cst, instr.Height, w, mainAvail)
			}
		}
		it := item{el: child, st: cst, instr: instr, grow: instr.FlexGrow}
		if horizontal {
			it.main, it.cross = w, h
		} else {
			it.main, it.cross = h, w
		}
		if it.instr.Stretch {
			it.cross = crossAvail
		}
		if it.grow > 0 {
			totalGrow += it.grow
		} else {
			totalFixed += it.main
		}
		items = append(items, it)
	}

	gapTotal := gap * float64(len(items)-1)
	remaining := max0(mainAvail - totalFixed - gapTotal)
	if totalGrow > 0 {
		for i := range items {
			if items[i].grow > 0 {
				items[i].main = remaining * items[i].grow / totalGrow
			}
		}
	}

	used := gapTotal
	for _, it := range items {
		used += it.main
	}
	cursor, spacing := flowOffsets(pst.JustifyContent, mainAvail, used, gap, len(items))

	for _, it := range items {
		cross := crossOffset(alignOf(pst), crossAvail, it.cross)
		var childRect Rect
		if horizontal {
			childRect = Rect{X: contentX + cursor, Y: contentY + cross, Width: it.main, Height: it.cross}
		} else {
			childRect = Rect{X: contentX + cross, Y: contentY + cursor, Width: it.cross, Height: it.main}
		}
		ly.out.Rects[it.el.ID] = childRect
		ly.out.Items[it.el.ID] = it.instr
		ly.placeChildren(it.el, it.st, childRect)
		cursor += it.main + spacing
	}
}

// flowOffsets returns the starting main-axis cursor and the per-item
// spacing for the given justify value.
func flowOffsets(justify *string, avail, used, gap float64, count int) (start, spacing float64) {
	j := ""
	if justify != nil {
		j = *justify
	}
	free := avail - used
	switch j {
	case "center":
		return max0(free) / 2, gap
	case "end", "flex-end":
		return max0(free), gap
	case "space-between":
		if count > 1 && free > 0 {
			return 0, gap + free/float64(count-1)
		}
		return 0, gap
	default:
		return 0, gap
	}
}

func alignOf(st *style.Style) string {
	if st == nil || st.AlignItems == nil {
		return ""
	}
	return *st.AlignItems
}

func crossOffset(align string, avail, size float64) float64 {
	switch align {
	case "center":
		return max0(avail-size) / 2
	case "end", "flex-end":
		return max0(avail - size)
	default:
		return 0
	}
}

func (ly *layouter) resolveWidth(el *easel.Element, st *style.Style, d Dimension, avail float64) float64 {
	switch d.Kind {
	case DimPercent:
		return avail * d.Value / 100
	case DimAuto, DimFitContent:
		return ly.intrinsicWidth(el, st, avail)
	case DimFlex:
		return 0
	default:
		// A zero fixed size means the element never got an explicit one;
		// fall back to intrinsic sizing.
		if d.Value == 0 {
			return ly.intrinsicWidth(el, st, avail)
		}
		return d.Value
	}
}

// resolveHeight resolves the vertical axis. width, when known, constrains
// text wrapping; pass 0 for unconstrained.
func (ly *layouter) resolveHeight(el *easel.Element, st *style.Style, d Dimension, width, avail float64) float64 {
	switch d.Kind {
	case DimPercent:
		return avail * d.Value / 100
	case DimAuto, DimFitContent:
		return ly.intrinsicHeight(el, st, width)
	case DimFlex:
		return 0
	default:
		if d.Value == 0 {
			return ly.intrinsicHeight(el, st, width)
		}
		return d.Value
	}
}

// intrinsicWidth measures content width: text by its longest unwrapped
// line, containers by their children, media by the element's baseline size.
func (ly *layouter) intrinsicWidth(el *easel.Element, st *style.Style, avail float64) float64 {
	_, right, _, left := st.PaddingEdges()

	switch {
	case el.Type.IsContainer():
		return ly.measureContainer(el, st, avail).Width
	case el.Type.IsTextCapable():
		return measureTextWidth(el.Content, st) + left + right
	default:
		return el.Size.Width
	}
}

// intrinsicHeight measures content height. For text the given width
// constrains wrapping; zero width means a single unwrapped line per input
// line.
func (ly *layouter) intrinsicHeight(el *easel.Element, st *style.Style, width float64) float64 {
	top, right, bottom, left := st.PaddingEdges()

	switch {
	case el.Type.IsContainer():
		return ly.measureContainer(el, st, width).Height
	case el.Type.IsTextCapable():
		contentW := width - left - right
		lines := wrapLineCount(el.Content, contentW, fontSizeOf(st))
		return float64(lines)*fontSizeOf(st)*lineHeightOf(st) + top + bottom
	default:
		return el.Size.Height
	}
}

// measureContainer computes a container's hug size from its children. Fill
// children have no space to stretch into while measuring and are treated as
// hug.
func (ly *layouter) measureContainer(el *easel.Element, st *style.Style, avail float64) easel.Size {
	top, right, bottom, left := st.PaddingEdges()
	children := ly.visibleChildren(el)

	if !st.HasAutoLayout() {
		var maxX, maxY float64
		for _, child := range children {
			cst := ly.resolve(child)
			size := ly.measureChild(child, cst, 0)
			pos := ly.in.Overlay.Position(child)
			if x := pos.X + size.Width; x > maxX {
				maxX = x
			}
			if y := pos.Y + size.Height; y > maxY {
				maxY = y
			}
		}
		return easel.Size{Width: maxX + left + right, Height: maxY + top + bottom}
	}

	horizontal := st.Direction() != style.DirectionColumn
	gap := st.GapOrZero()
	innerAvail := max0(avail - left - right)

	var mainSum, crossMax float64
	for _, child := range children {
		cst := ly.resolve(child)
		size := ly.measureChild(child, cst, innerAvail)
		main, cross := size.Width, size.Height
		if !horizontal {
			main, cross = size.Height, size.Width
		}
		mainSum += main
		if cross > crossMax {
			crossMax = cross
		}
	}
	if n := len(children); n > 1 {
		mainSum += gap * float64(n-1)
	}

	w, h := mainSum, crossMax
	if !horizontal {
		w, h = crossMax, mainSum
	}
	return easel.Size{Width: w + left + right, Height: h + top + bottom}
}

// measureChild returns a child's contribution to its parent's intrinsic
// size.
func (ly *layouter) measureChild(el *easel.Element, st *style.Style, avail float64) easel.Size {
	var w float64
	switch st.ResizeModeX() {
	case style.ResizeHug, style.ResizeFill:
		w = ly.intrinsicWidth(el, st, avail)
	default:
		if w = el.Size.Width; w == 0 {
			w = ly.intrinsicWidth(el, st, avail)
		}
	}
	var h float64
	switch st.ResizeModeY() {
	case style.ResizeHug, style.ResizeFill:
		h = ly.intrinsicHeight(el, st, w)
	default:
		if h = el.Size.Height; h == 0 {
			h = ly.intrinsicHeight(el, st, w)
		}
	}
	return easel.Size{Width: w, Height: h}
}

func fontSizeOf(st *style.Style) float64 {
	if st == nil || st.FontSize == nil || *st.FontSize <= 0 {
		return defaultFontSize
	}
	return *st.FontSize
}

func lineHeightOf(st *style.Style) float64 {
	if st == nil || st.LineHeight == nil || *st.LineHeight <= 0 {
		return defaultLineHeight
	}
	return *st.LineHeight
}

// measureTextWidth approximates the width of the longest input line.
func measureTextWidth(content string, st *style.Style) float64 {
	longest := 0
	for _, line := range strings.Split(content, "\n") {
		if n := utf8.RuneCountInString(line); n > longest {
			longest = n
		}
	}
	return float64(longest) * fontSizeOf(st) * charWidthFactor
}

// wrapLineCount greedily word-wraps content into a width budget and returns
// the number of display lines, at least 1. A non-positive width disables
// wrapping.
func wrapLineCount(content string, width, fontSize float64) int {
	if content == "" {
		return 1
	}
	maxChars := 0
	if width > 0 {
		maxChars = int(width / (fontSize * charWidthFactor))
		if maxChars < 1 {
			maxChars = 1
		}
	}

	lines := 0
	for _, input := range strings.Split(content, "\n") {
		if maxChars == 0 {
			lines++
			continue
		}
		words := strings.Fields(input)
		if len(words) == 0 {
			lines++
			continue
		}
		current := 0
		lines++
		for _, word := range words {
			n := utf8.RuneCountInString(word)
			switch {
			case current == 0:
				current = n
			case current+1+n <= maxChars:
				current += 1 + n
			default:
				lines++
				current = n
			}
		}
	}
	if lines < 1 {
		lines = 1
	}
	return lines
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// sortByZIndex orders elements for painting: document order, stably lifted
// by zIndex. Flow placement ignores zIndex; only paint and hit order use it.
func sortByZIndex(els []*easel.Element, resolve func(*easel.Element) *style.Style) {
	sort.SliceStable(els, func(i, j int) bool {
		return zIndexOf(resolve(els[i])) < zIndexOf(resolve(els[j]))
	})
}

func zIndexOf(st *style.Style) int {
	if st == nil || st.ZIndex == nil {
		return 0
	}
	return *st.ZIndex
}
