package style

import "sync"

// Breakpoint is a named viewport profile. Elements may carry a partial style
// override per breakpoint id; the resolver layers those overrides on top of
// the base style.
type Breakpoint struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Icon      string  `json:"icon"`
	IsDefault bool    `json:"isDefault"`
}

// DefaultBreakpoints returns the standard desktop/tablet/phone set.
func DefaultBreakpoints() []Breakpoint {
	return []Breakpoint{
		{ID: "desktop", Name: "Desktop", Width: 1200, Height: 800, Icon: "monitor", IsDefault: true},
		{ID: "tablet", Name: "Tablet", Width: 810, Height: 1080, Icon: "tablet"},
		{ID: "phone", Name: "Phone", Width: 390, Height: 844, Icon: "smartphone"},
	}
}

// DefaultOf returns the breakpoint marked as default, or the first entry when
// none is marked. ok is false for an empty set.
func DefaultOf(breakpoints []Breakpoint) (Breakpoint, bool) {
	for _, bp := range breakpoints {
		if bp.IsDefault {
			return bp, true
		}
	}
	if len(breakpoints) > 0 {
		return breakpoints[0], true
	}
	return Breakpoint{}, false
}

// ByID looks up a breakpoint by id.
func ByID(breakpoints []Breakpoint, id string) (Breakpoint, bool) {
	for _, bp := range breakpoints {
		if bp.ID == id {
			return bp, true
		}
	}
	return Breakpoint{}, false
}

// BreakpointForWidth picks the breakpoint whose profile best matches the
// given viewport width: the narrowest breakpoint at least as wide as width,
// else the widest available. Used by preview tooling that selects a
// breakpoint from a pixel width rather than an id.
func BreakpointForWidth(breakpoints []Breakpoint, width float64) (Breakpoint, bool) {
	var best Breakpoint
	var bestOK bool
	var widest Breakpoint
	var widestOK bool
	for _, bp := range breakpoints {
		if !widestOK || bp.Width > widest.Width {
			widest = bp
			widestOK = true
		}
		if bp.Width >= width {
			if !bestOK || bp.Width < best.Width {
				best = bp
				bestOK = true
			}
		}
	}
	if bestOK {
		return best, true
	}
	return widest, widestOK
}

// ResolveStyles merges base and breakpoint overrides into one effective
// style. Composition order: base, then the default breakpoint's override
// when one exists and is not itself active, then the active breakpoint's
// override. Each layer shallow-merges only the fields it sets. Pure and
// total: an unknown active id simply finds no override to apply.
func ResolveStyles(base *Style, overrides map[string]*Style, breakpoints []Breakpoint, activeID string) *Style {
	out := base.Clone()
	if len(overrides) == 0 {
		return out
	}
	if def, ok := DefaultOf(breakpoints); ok && def.ID != activeID {
		if ov := overrides[def.ID]; ov != nil {
			Merge(out, ov)
		}
	}
	if ov := overrides[activeID]; ov != nil {
		Merge(out, ov)
	}
	return out
}

type resolvedEntry struct {
	rev   uint64
	style *Style
}

// Resolver memoizes ResolveStyles per element. Resolution runs on every
// interactive frame, so cached results are reused until the element's style
// revision moves or the breakpoint context changes. Changing the breakpoint
// set or the active breakpoint drops the whole cache.
type Resolver struct {
	mu          sync.RWMutex
	breakpoints []Breakpoint
	activeID    string
	cache       map[string]resolvedEntry
}

// NewResolver creates a resolver over the given breakpoint set with the
// default breakpoint active.
func NewResolver(breakpoints []Breakpoint) *Resolver {
	r := &Resolver{
		breakpoints: append([]Breakpoint(nil), breakpoints...),
		cache:       make(map[string]resolvedEntry),
	}
	if def, ok := DefaultOf(breakpoints); ok {
		r.activeID = def.ID
	}
	return r
}

// Breakpoints returns a copy of the configured breakpoint set.
func (r *Resolver) Breakpoints() []Breakpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Breakpoint(nil), r.breakpoints...)
}

// ActiveID returns the currently active breakpoint id.
func (r *Resolver) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// Active returns the currently active breakpoint, if the active id names a
// configured one.
func (r *Resolver) Active() (Breakpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return ByID(r.breakpoints, r.activeID)
}

// SetBreakpoints replaces the breakpoint set and invalidates the cache.
func (r *Resolver) SetBreakpoints(breakpoints []Breakpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakpoints = append([]Breakpoint(nil), breakpoints...)
	r.cache = make(map[string]resolvedEntry)
}

// SetActive switches the active breakpoint and invalidates the cache.
// Unknown ids are accepted; resolution then applies no active override.
func (r *Resolver) SetActive(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeID == id {
		return
	}
	r.activeID = id
	r.cache = make(map[string]resolvedEntry)
}

// Resolve returns the effective style for an element. rev is the element's
// style revision; a cached entry is reused only while the revision matches.
func (r *Resolver) Resolve(elementID string, rev uint64, base *Style, overrides map[string]*Style) *Style {
	r.mu.RLock()
	entry, ok := r.cache[elementID]
	r.mu.RUnlock()
	if ok && entry.rev == rev {
		return entry.style
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have filled the entry while we upgraded the lock.
	if entry, ok := r.cache[elementID]; ok && entry.rev == rev {
		return entry.style
	}
	resolved := ResolveStyles(base, overrides, r.breakpoints, r.activeID)
	r.cache[elementID] = resolvedEntry{rev: rev, style: resolved}
	return resolved
}
