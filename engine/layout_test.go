package engine

import (
	"math"
	"testing"

	"github.com/easelhq/easel"
	"github.com/easelhq/easel/style"
)

func testInput(s *easel.Store) LayoutInput {
	return LayoutInput{
		Elements:  s.Elements(),
		Pages:     s.Pages(),
		PageOrder: s.PageOrder(),
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func rectApprox(a, b Rect) bool {
	return approx(a.X, b.X) && approx(a.Y, b.Y) &&
		approx(a.Width, b.Width) && approx(a.Height, b.Height)
}

func TestFillChildInRowGetsFlexNotPixels(t *testing.T) {
	s := easel.NewStore()
	page := s.AddPage("Page 1")
	row := s.AddElement(easel.TypeRow, page.RootElementID)
	a := s.AddElement(easel.TypeBox, row.ID)
	b := s.AddElement(easel.TypeBox, row.ID)
	c := s.AddElement(easel.TypeBox, row.ID)
	s.UpdateElementStyles(b.ID, &style.Style{ResizeX: style.Ptr(style.ResizeFill)})

	layout := ComputeLayout(testInput(s))

	instr := layout.Items[b.ID]
	if instr.Width.Kind != DimFlex {
		t.Fatalf("fill child width kind = %v, want DimFlex", instr.Width.Kind)
	}
	if instr.FlexGrow != 1 {
		t.Errorf("fill child flexGrow = %v, want 1", instr.FlexGrow)
	}
	if got := layout.Items[a.ID].Width; got.Kind != DimPx || got.Value != 100 {
		t.Errorf("fixed sibling width = %+v, want 100px", got)
	}

	// Row is 300 wide with gap 10: 300 - 100 - 100 - 20 leaves 80 for b.
	wantRects := map[string]Rect{
		a.ID: {X: 0, Y: 0, Width: 100, Height: 100},
		b.ID: {X: 110, Y: 0, Width: 80, Height: 100},
		c.ID: {X: 200, Y: 0, Width: 100, Height: 100},
	}
	for id, want := range wantRects {
		got, ok := layout.Rect(id)
		if !ok {
			t.Fatalf("no rect for %s", id)
		}
		if !rectApprox(got, want) {
			t.Errorf("rect for %s = %+v, want %+v", id, got, want)
		}
	}
}

func TestHugSizesToContentNotDeclaredSize(t *testing.T) {
	s := easel.NewStore()
	page := s.AddPage("Page 1")
	text := s.AddElement(easel.TypeText, page.RootElementID)
	s.UpdateElementContent(text.ID, "Hello")
	s.ResizeElement(text.ID, easel.Size{Width: 300, Height: 50})
	s.UpdateElementStyles(text.ID, &style.Style{
		ResizeX: style.Ptr(style.ResizeHug),
		ResizeY: style.Ptr(style.ResizeHug),
	})

	layout := ComputeLayout(testInput(s))

	got, ok := layout.Rect(text.ID)
	if !ok {
		t.Fatal("no rect for text element")
	}
	// 5 runes at 16px, 0.6 width factor; one line at 1.4 line height.
	if !approx(got.Width, 48) {
		t.Errorf("hug width = %v, want 48 from content, not declared 300", got.Width)
	}
	if !approx(got.Height, 22.4) {
		t.Errorf("hug height = %v, want 22.4 from content, not declared 50", got.Height)
	}
}

func TestTextFixedModeFlowsFullWidthInColumn(t *testing.T) {
	s := easel.NewStore()
	page := s.AddPage("Page 1")
	text := s.AddElement(easel.TypeText, page.RootElementID)

	layout := ComputeLayout(testInput(s))

	if got := layout.Items[text.ID].Width; got.Kind != DimPercent || got.Value != 100 {
		t.Fatalf("text width dimension = %+v, want 100%%", got)
	}
	got, _ := layout.Rect(text.ID)
	if !approx(got.Width, 1200) {
		t.Errorf("text width = %v, want full page width 1200", got.Width)
	}
	if !approx(got.Height, 22.4) {
		t.Errorf("text height = %v, want one 16px line at 1.4", got.Height)
	}
}

func TestFreePositioningOffsetsFromContentBox(t *testing.T) {
	s := easel.NewStore()
	page := s.AddPage("Page 1")
	frame := s.AddElement(easel.TypeFrame, page.RootElementID)
	box := s.AddElement(easel.TypeBox, frame.ID)
	s.UpdateElementStyles(frame.ID, &style.Style{Padding: style.Ptr(10.0)})
	s.MoveElement(box.ID, easel.Vec2{X: 30, Y: 40})

	layout := ComputeLayout(testInput(s))

	got, ok := layout.Rect(box.ID)
	if !ok {
		t.Fatal("no rect for box")
	}
	want := Rect{X: 40, Y: 50, Width: 100, Height: 100}
	if !rectApprox(got, want) {
		t.Errorf("box rect = %+v, want %+v", got, want)
	}
}

func TestSectionFillsWidthAndStacksWithPaddingAndGap(t *testing.T) {
	s := easel.NewStore()
	page := s.AddPage("Page 1")
	section := s.AddElement(easel.TypeSection, page.RootElementID)
	b1 := s.AddElement(easel.TypeBox, section.ID)
	b2 := s.AddElement(easel.TypeBox, section.ID)

	layout := ComputeLayout(testInput(s))

	sec, _ := layout.Rect(section.ID)
	if !approx(sec.Width, 1200) || !approx(sec.Height, 300) {
		t.Fatalf("section rect = %+v, want 1200x300", sec)
	}
	r1, _ := layout.Rect(b1.ID)
	r2, _ := layout.Rect(b2.ID)
	if want := (Rect{X: 20, Y: 20, Width: 100, Height: 100}); !rectApprox(r1, want) {
		t.Errorf("first box = %+v, want %+v", r1, want)
	}
	if want := (Rect{X: 20, Y: 130, Width: 100, Height: 100}); !rectApprox(r2, want) {
		t.Errorf("second box = %+v, want %+v", r2, want)
	}
}

func TestJustifyAndAlignCenter(t *testing.T) {
	s := easel.NewStore()
	page := s.AddPage("Page 1")
	row := s.AddElement(easel.TypeRow, page.RootElementID)
	box := s.AddElement(easel.TypeBox, row.ID)
	s.UpdateElementStyles(row.ID, &style.Style{
		JustifyContent: style.Ptr("center"),
		AlignItems:     style.Ptr("center"),
	})
	s.ResizeElement(box.ID, easel.Size{Width: 100, Height: 60})

	layout := ComputeLayout(testInput(s))

	got, _ := layout.Rect(box.ID)
	want := Rect{X: 100, Y: 20, Width: 100, Height: 60}
	if !rectApprox(got, want) {
		t.Errorf("centered box = %+v, want %+v", got, want)
	}
}

func TestZeroSizeFallsBackToIntrinsic(t *testing.T) {
	s := easel.NewStore()
	page := s.AddPage("Page 1")
	frame := s.AddElement(easel.TypeFrame, page.RootElementID)
	text := s.AddElement(easel.TypeText, frame.ID)

	layout := ComputeLayout(testInput(s))

	got, ok := layout.Rect(text.ID)
	if !ok {
		t.Fatal("no rect for text")
	}
	// Default text has no explicit size; "Text" is 4 runes at 16px.
	if !approx(got.Width, 38.4) {
		t.Errorf("text width = %v, want intrinsic 38.4", got.Width)
	}
	if !approx(got.Height, 22.4) {
		t.Errorf("text height = %v, want intrinsic 22.4", got.Height)
	}
}

func TestInvisibleElementsGetNoGeometry(t *testing.T) {
	s := easel.NewStore()
	page := s.AddPage("Page 1")
	stack := s.AddElement(easel.TypeStack, page.RootElementID)
	hidden := s.AddElement(easel.TypeBox, stack.ID)
	below := s.AddElement(easel.TypeBox, stack.ID)
	s.ToggleVisibility(hidden.ID)

	layout := ComputeLayout(testInput(s))

	if _, ok := layout.Rect(hidden.ID); ok {
		t.Error("hidden element still has a rect")
	}
	// The survivor takes the first flow slot as if the hidden one were gone.
	got, _ := layout.Rect(below.ID)
	if !approx(got.Y, 0) {
		t.Errorf("visible sibling y = %v, want 0 after hidden sibling collapsed", got.Y)
	}
}

func TestBreakpointPreviewResizesArtboard(t *testing.T) {
	s := easel.NewStore()
	page := s.AddPage("Page 1")
	resolver := style.NewResolver(style.DefaultBreakpoints())

	in := testInput(s)
	in.Resolver = resolver

	layout := ComputeLayout(in)
	if got := layout.Artboards[page.ID]; !approx(got.Width, 1200) || !approx(got.Height, 800) {
		t.Fatalf("default artboard = %+v, want page baseline 1200x800", got)
	}

	resolver.SetActive("phone")
	layout = ComputeLayout(in)
	if got := layout.Artboards[page.ID]; !approx(got.Width, 390) || !approx(got.Height, 844) {
		t.Errorf("phone artboard = %+v, want 390x844", got)
	}
	root, _ := layout.Rect(page.RootElementID)
	if !approx(root.Width, 390) {
		t.Errorf("root width = %v, want artboard width 390", root.Width)
	}
}

func TestResponsiveOverrideChangesLayout(t *testing.T) {
	s := easel.NewStore()
	page := s.AddPage("Page 1")
	row := s.AddElement(easel.TypeRow, page.RootElementID)
	fixed := s.AddElement(easel.TypeBox, row.ID)
	responsive := s.AddElement(easel.TypeBox, row.ID)
	s.SetResponsiveStyle(responsive.ID, "phone", &style.Style{ResizeX: style.Ptr(style.ResizeFill)})

	resolver := style.NewResolver(style.DefaultBreakpoints())
	in := testInput(s)
	in.Resolver = resolver

	// At the default breakpoint the override is dormant.
	layout := ComputeLayout(in)
	if got, _ := layout.Rect(responsive.ID); !approx(got.Width, 100) {
		t.Fatalf("desktop width = %v, want base 100", got.Width)
	}

	resolver.SetActive("phone")
	layout = ComputeLayout(in)
	got, _ := layout.Rect(responsive.ID)
	// Row stays 300 wide: 300 - 100 fixed - 10 gap leaves 190.
	if !approx(got.Width, 190) {
		t.Errorf("phone width = %v, want 190 from fill", got.Width)
	}
	if fr, _ := layout.Rect(fixed.ID); !approx(fr.Width, 100) {
		t.Errorf("fixed sibling width = %v, want 100 untouched by override", fr.Width)
	}
}

func TestOverlayReorderPreviewReflows(t *testing.T) {
	s := easel.NewStore()
	page := s.AddPage("Page 1")
	row := s.AddElement(easel.TypeRow, page.RootElementID)
	a := s.AddElement(easel.TypeBox, row.ID)
	b := s.AddElement(easel.TypeBox, row.ID)
	c := s.AddElement(easel.TypeBox, row.ID)

	overlay := NewOverlay()
	overlay.Reorder = &ReorderPreview{ParentID: row.ID, DraggedID: c.ID, TargetID: a.ID, Before: true}
	in := testInput(s)
	in.Overlay = overlay

	layout := ComputeLayout(in)

	// Virtual order is c, a, b even though the store still says a, b, c.
	cr, _ := layout.Rect(c.ID)
	ar, _ := layout.Rect(a.ID)
	br, _ := layout.Rect(b.ID)
	if !approx(cr.X, 0) || !approx(ar.X, 110) || !approx(br.X, 220) {
		t.Errorf("previewed xs = %v, %v, %v, want 0, 110, 220", cr.X, ar.X, br.X)
	}
	if got := s.Element(row.ID).Children; got[0] != a.ID {
		t.Error("preview leaked into the committed child order")
	}
}

func TestOverlayPositionsOverrideCommitted(t *testing.T) {
	s := easel.NewStore()
	page := s.AddPage("Page 1")
	frame := s.AddElement(easel.TypeFrame, page.RootElementID)
	box := s.AddElement(easel.TypeBox, frame.ID)

	overlay := NewOverlay()
	overlay.Positions[box.ID] = easel.Vec2{X: 60, Y: 70}
	in := testInput(s)
	in.Overlay = overlay

	layout := ComputeLayout(in)

	got, _ := layout.Rect(box.ID)
	if !approx(got.X, 60) || !approx(got.Y, 70) {
		t.Errorf("box at (%v, %v), want overlay position (60, 70)", got.X, got.Y)
	}
	if pos := s.Element(box.ID).Position; pos.X != 0 || pos.Y != 0 {
		t.Errorf("committed position moved to %+v during preview", pos)
	}
}

func TestComputeInstructionOutline(t *testing.T) {
	box := easel.NewElement(easel.TypeBox)
	pageEl := easel.NewElement(easel.TypePage)

	tests := []struct {
		name     string
		el       *easel.Element
		selected bool
		hovered  bool
		want     *Outline
	}{
		{"plain", box, false, false, nil},
		{"selected", box, true, false, &Outline{Width: 2, Offset: -2, Color: "#3b82f6"}},
		{"hovered", box, false, true, &Outline{Width: 1, Offset: 0, Color: "#60a5fa"}},
		{"selected wins over hovered", box, true, true, &Outline{Width: 2, Offset: -2, Color: "#3b82f6"}},
		{"page never outlined", pageEl, true, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instr := ComputeInstruction(tt.el, tt.el.Styles, ParentContext{}, tt.selected, tt.hovered)
			switch {
			case tt.want == nil && instr.Outline != nil:
				t.Errorf("outline = %+v, want none", instr.Outline)
			case tt.want != nil && instr.Outline == nil:
				t.Errorf("outline missing, want %+v", tt.want)
			case tt.want != nil && *instr.Outline != *tt.want:
				t.Errorf("outline = %+v, want %+v", instr.Outline, tt.want)
			}
		})
	}
}

func TestFlowPlacementIgnoresZIndex(t *testing.T) {
	s := easel.NewStore()
	page := s.AddPage("Page 1")
	row := s.AddElement(easel.TypeRow, page.RootElementID)
	a := s.AddElement(easel.TypeBox, row.ID)
	b := s.AddElement(easel.TypeBox, row.ID)
	s.UpdateElementStyles(a.ID, &style.Style{ZIndex: style.Ptr(5)})

	layout := ComputeLayout(testInput(s))

	ar, _ := layout.Rect(a.ID)
	br, _ := layout.Rect(b.ID)
	if !approx(ar.X, 0) || !approx(br.X, 110) {
		t.Errorf("flow order changed by zIndex: a.x=%v b.x=%v, want 0 and 110", ar.X, br.X)
	}
}

func TestWrapLineCount(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		width    float64
		fontSize float64
		want     int
	}{
		{"empty is one line", "", 100, 16, 1},
		{"fits on one line", "hello world", 200, 16, 1},
		{"wraps at budget", "aaaa bbbb cccc", 50, 16, 3},
		{"newlines always break", "one\ntwo\nthree", 1000, 16, 3},
		{"zero width disables wrap", "a very long line that would wrap", 0, 16, 1},
		{"blank input line counts", "first\n\nthird", 1000, 16, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapLineCount(tt.content, tt.width, tt.fontSize); got != tt.want {
				t.Errorf("wrapLineCount(%q, %v) = %d, want %d", tt.content, tt.width, got, tt.want)
			}
		})
	}
}

func TestMeasureTextWidthUsesLongestLine(t *testing.T) {
	st := &style.Style{FontSize: style.Ptr(10.0)}
	got := measureTextWidth("ab\nabcdef\nabc", st)
	// 6 runes at 10px and 0.6 width factor.
	if !approx(got, 36) {
		t.Errorf("measureTextWidth = %v, want 36", got)
	}
}

func BenchmarkComputeLayout(b *testing.B) {
	s := easel.NewStore()
	page := s.AddPage("Page 1")
	for i := 0; i < 10; i++ {
		section := s.AddElement(easel.TypeSection, page.RootElementID)
		for j := 0; j < 10; j++ {
			row := s.AddElement(easel.TypeRow, section.ID)
			s.AddElement(easel.TypeText, row.ID)
			s.AddElement(easel.TypeBox, row.ID)
		}
	}
	in := testInput(s)
	in.Resolver = style.NewResolver(style.DefaultBreakpoints())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ComputeLayout(in)
	}
}
