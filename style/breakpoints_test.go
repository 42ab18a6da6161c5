package style

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testBreakpoints() []Breakpoint {
	return []Breakpoint{
		{ID: "desktop", Name: "Desktop", Width: 1200, Height: 800, IsDefault: true},
		{ID: "tablet", Name: "Tablet", Width: 810, Height: 1080},
		{ID: "phone", Name: "Phone", Width: 390, Height: 844},
	}
}

func TestResolveStylesCascadeOrder(t *testing.T) {
	base := &Style{Background: Ptr("#base"), FontSize: Ptr(16.0), Gap: Ptr(8.0)}
	overrides := map[string]*Style{
		"desktop": {Background: Ptr("#desktop"), FontSize: Ptr(18.0)},
		"phone":   {Background: Ptr("#phone")},
	}

	tests := []struct {
		name     string
		activeID string
		want     *Style
	}{
		{
			// Default layer applies first, then the active layer on top.
			name:     "phone active layers over default",
			activeID: "phone",
			want:     &Style{Background: Ptr("#phone"), FontSize: Ptr(18.0), Gap: Ptr(8.0)},
		},
		{
			// When the default breakpoint is active its override applies once.
			name:     "default active applies its own override only",
			activeID: "desktop",
			want:     &Style{Background: Ptr("#desktop"), FontSize: Ptr(18.0), Gap: Ptr(8.0)},
		},
		{
			// Tablet has no override of its own; default still shows through.
			name:     "active without override keeps default layer",
			activeID: "tablet",
			want:     &Style{Background: Ptr("#desktop"), FontSize: Ptr(18.0), Gap: Ptr(8.0)},
		},
		{
			// Unknown ids find no active override to apply.
			name:     "unknown active id",
			activeID: "watch",
			want:     &Style{Background: Ptr("#desktop"), FontSize: Ptr(18.0), Gap: Ptr(8.0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveStyles(base, overrides, testBreakpoints(), tt.activeID)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ResolveStyles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveStylesPure(t *testing.T) {
	base := &Style{Background: Ptr("#base")}
	overrides := map[string]*Style{
		"phone": {Background: Ptr("#phone"), Gap: Ptr(4.0)},
	}
	bps := testBreakpoints()

	first := ResolveStyles(base, overrides, bps, "phone")
	second := ResolveStyles(base, overrides, bps, "phone")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated resolution differs (-first +second):\n%s", diff)
	}

	// Inputs must be untouched.
	if *base.Background != "#base" {
		t.Errorf("base mutated: Background = %q", *base.Background)
	}
	if base.Gap != nil {
		t.Error("base mutated: Gap was set")
	}
}

func TestResolveStylesNilBase(t *testing.T) {
	got := ResolveStyles(nil, map[string]*Style{
		"phone": {Background: Ptr("#phone")},
	}, testBreakpoints(), "phone")
	if got == nil || got.Background == nil || *got.Background != "#phone" {
		t.Errorf("ResolveStyles(nil base) = %+v, want phone background", got)
	}
}

func TestResolverMemoization(t *testing.T) {
	r := NewResolver(testBreakpoints())
	base := &Style{Background: Ptr("#base")}
	overrides := map[string]*Style{"phone": {Background: Ptr("#phone")}}

	first := r.Resolve("el-1", 1, base, overrides)
	second := r.Resolve("el-1", 1, base, overrides)
	if first != second {
		t.Error("expected cache hit to return the identical style")
	}

	// Revision bump invalidates just this element.
	third := r.Resolve("el-1", 2, base, overrides)
	if third == first {
		t.Error("expected revision bump to recompute")
	}

	// Switching breakpoint drops the cache and changes the result.
	r.SetActive("phone")
	fourth := r.Resolve("el-1", 2, base, overrides)
	if fourth == third {
		t.Error("expected breakpoint switch to recompute")
	}
	if fourth.Background == nil || *fourth.Background != "#phone" {
		t.Errorf("after SetActive(phone), Background = %v, want #phone", fourth.Background)
	}

	// Memoized result must equal a fresh pure computation.
	fresh := ResolveStyles(base, overrides, testBreakpoints(), "phone")
	if diff := cmp.Diff(fresh, r.Resolve("el-1", 2, base, overrides)); diff != "" {
		t.Errorf("memoized result differs from pure computation (-pure +cached):\n%s", diff)
	}
}

func TestResolverDefaultsToDefaultBreakpoint(t *testing.T) {
	r := NewResolver(testBreakpoints())
	if got := r.ActiveID(); got != "desktop" {
		t.Errorf("ActiveID() = %q, want %q", got, "desktop")
	}
}

func TestBreakpointForWidth(t *testing.T) {
	bps := testBreakpoints()
	tests := []struct {
		name   string
		width  float64
		wantID string
	}{
		{"phone width", 390, "phone"},
		{"between phone and tablet", 600, "tablet"},
		{"tablet width", 810, "tablet"},
		{"desktop width", 1200, "desktop"},
		{"wider than all", 1600, "desktop"},
		{"narrower than all", 100, "phone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp, ok := BreakpointForWidth(bps, tt.width)
			if !ok {
				t.Fatal("BreakpointForWidth returned ok=false")
			}
			if bp.ID != tt.wantID {
				t.Errorf("BreakpointForWidth(%v) = %q, want %q", tt.width, bp.ID, tt.wantID)
			}
		})
	}
}

func TestDefaultOf(t *testing.T) {
	if _, ok := DefaultOf(nil); ok {
		t.Error("DefaultOf(nil) should report ok=false")
	}

	noDefault := []Breakpoint{{ID: "a"}, {ID: "b"}}
	bp, ok := DefaultOf(noDefault)
	if !ok || bp.ID != "a" {
		t.Errorf("DefaultOf without marked default = %q, want first entry", bp.ID)
	}
}

func BenchmarkResolverCached(b *testing.B) {
	r := NewResolver(testBreakpoints())
	base := &Style{Background: Ptr("#base"), FontSize: Ptr(16.0)}
	overrides := map[string]*Style{"phone": {Background: Ptr("#phone")}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Resolve("el-1", 1, base, overrides)
	}
}

func BenchmarkResolveStylesUncached(b *testing.B) {
	base := &Style{Background: Ptr("#base"), FontSize: Ptr(16.0)}
	overrides := map[string]*Style{"phone": {Background: Ptr("#phone")}}
	bps := testBreakpoints()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ResolveStyles(base, overrides, bps, "phone")
	}
}
