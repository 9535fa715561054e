// Package rctx defines the render context: an immutable descriptor of how
// visual objects should currently be measured and painted.
//
// A Context carries the render mode (GUI vs export), the active tab kind,
// the paint route, the working DPI, and the display unit. It is passed
// explicitly into every geometry conversion and paint call instead of
// living in ambient global state; [Settings] owns the application-wide
// current context and broadcasts changes to subscribers.
package rctx

import (
	"strings"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/units"
)

// Mode distinguishes interactive display from file export.
type Mode int

const (
	GUI Mode = iota
	Export
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	if m == Export {
		return "export"
	}
	return "gui"
}

// Tab identifies which editing surface a context belongs to.
type Tab int

const (
	ComponentTab Tab = iota
	LayoutTab
)

// String returns the lowercase tab name.
func (t Tab) String() string {
	if t == LayoutTab {
		return "layout"
	}
	return "component"
}

// Route decides how a parent container paints its children.
//
// Exactly one party paints under every route: with Raster the parent draws
// a cached raster of the child and the child draws nothing; with Composite
// and VectorPriority the parent defers and the child paints itself.
type Route int

const (
	Raster Route = iota
	Composite
	VectorPriority
)

// String returns the persisted route name.
func (r Route) String() string {
	switch r {
	case Raster:
		return "raster"
	case VectorPriority:
		return "vector-priority"
	default:
		return "composite"
	}
}

// ParseRoute resolves a persisted route name.
func ParseRoute(s string) (Route, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raster":
		return Raster, nil
	case "composite":
		return Composite, nil
	case "vector-priority", "vector_priority":
		return VectorPriority, nil
	}
	return Composite, errors.New(errors.ErrCodeParse, "unknown render route: %q", s)
}

// Context is an immutable tuple describing how something should be rendered
// or measured right now. With* methods return modified copies.
type Context struct {
	Mode  Mode
	Tab   Tab
	Route Route
	DPI   int
	Unit  units.Unit
}

// New returns a GUI composite context at the given DPI and display unit.
func New(dpi int, unit units.Unit) Context {
	if dpi <= 0 {
		dpi = units.DefaultDPI
	}
	return Context{Mode: GUI, Tab: ComponentTab, Route: Composite, DPI: dpi, Unit: unit}
}

// IsExport reports whether the context is an export pass.
func (c Context) IsExport() bool { return c.Mode == Export }

// ParentPaints reports whether the parent container is responsible for
// painting its child (from a cached raster).
func (c Context) ParentPaints() bool { return c.Route == Raster }

// ChildPaints reports whether the child paints itself. This is always the
// logical negation of ParentPaints: the two must never both paint nor both
// skip.
func (c Context) ChildPaints() bool { return !c.ParentPaints() }

// WithMode returns a copy with the given mode.
func (c Context) WithMode(m Mode) Context { c.Mode = m; return c }

// WithTab returns a copy with the given tab.
func (c Context) WithTab(t Tab) Context { c.Tab = t; return c }

// WithRoute returns a copy with the given route.
func (c Context) WithRoute(r Route) Context { c.Route = r; return c }

// WithDPI returns a copy with the given working DPI.
func (c Context) WithDPI(dpi int) Context { c.DPI = dpi; return c }

// WithUnit returns a copy with the given display unit.
func (c Context) WithUnit(u units.Unit) Context { c.Unit = u; return c }

// Subscriber receives the new current context after Settings.Apply.
type Subscriber func(Context)

// Settings owns the application-wide current render context. Visual objects
// subscribe for change notification; an export pass builds its own derived
// Context without touching the shared one.
//
// Settings is not safe for concurrent use: it is owned by the single thread
// that drives the application, like every other mutable object in the core.
type Settings struct {
	current     Context
	printDPI    int
	subscribers []Subscriber
}

// NewSettings creates settings seeded with the given display context and
// print DPI (used for export contexts).
func NewSettings(display Context, printDPI int) *Settings {
	if printDPI <= 0 {
		printDPI = units.DefaultDPI
	}
	return &Settings{current: display, printDPI: printDPI}
}

// Current returns the active display context.
func (s *Settings) Current() Context { return s.current }

// PrintDPI returns the DPI used for export contexts.
func (s *Settings) PrintDPI() int { return s.printDPI }

// ExportContext derives an export-mode context at the print DPI with the
// given route, leaving the shared display context untouched.
func (s *Settings) ExportContext(route Route) Context {
	return s.current.WithMode(Export).WithRoute(route).WithDPI(s.printDPI)
}

// Subscribe registers fn for context-change notification.
func (s *Settings) Subscribe(fn Subscriber) {
	s.subscribers = append(s.subscribers, fn)
}

// Apply installs ctx as the current display context and notifies all
// subscribers. Applying an identical context is a no-op.
func (s *Settings) Apply(ctx Context) {
	if ctx == s.current {
		return
	}
	s.current = ctx
	for _, fn := range s.subscribers {
		fn(ctx)
	}
}
