// Package pagination distributes component instances across the slot grid
// of a layout template, one printable page at a time. A Policy decides
// which instance occupies each slot; the Manager caches generated pages.
package pagination

import (
	"sort"
	"strconv"

	"github.com/prototypyside/prototypyside/pkg/errors"
	"github.com/prototypyside/prototypyside/pkg/model"
)

// DataSource is an exclusive cursor over one dataset's rows. The merge
// package hands these out; a policy owns its cursors for the whole run.
type DataSource interface {
	Remaining() int
	NextRow() (map[string]string, bool)
}

// Sources maps a component template PID to the datasets feeding it. More
// than one dataset per template is allowed; policies interleave them.
type Sources map[string][]DataSource

// Placement assigns a component instance (or nothing) to one slot.
type Placement struct {
	Slot     *model.LayoutSlot
	Instance *model.ComponentInstance
}

// Page is one generated print page: an ordered placement per slot.
type Page struct {
	Index      int
	Placements []Placement
}

// FilledCount returns how many placements carry an instance.
func (p Page) FilledCount() int {
	n := 0
	for _, pl := range p.Placements {
		if pl.Instance != nil {
			n++
		}
	}
	return n
}

// Policy is a pagination strategy. Prepare binds the policy to a layout and
// its datasets; NextPage is then called repeatedly until it returns a nil
// page, the terminal signal.
//
// A policy moves NotPrepared -> Prepared -> Exhausted. Calling NextPage
// before Prepare fails with PAGINATION_ERROR; calling it after exhaustion
// keeps returning the terminal signal.
type Policy interface {
	Name() string
	Prepare(layout *model.LayoutTemplate, sources Sources) error
	NextPage() ([]Placement, error)
}

// sourceGroup rotates row fetches across the datasets feeding one template
// so multiple CSV files are interleaved rather than drained sequentially.
type sourceGroup struct {
	cursors []DataSource
	turn    int
}

func (g *sourceGroup) remaining() int {
	n := 0
	for _, c := range g.cursors {
		n += c.Remaining()
	}
	return n
}

func (g *sourceGroup) nextRow() (map[string]string, bool) {
	for i := 0; i < len(g.cursors); i++ {
		c := g.cursors[g.turn%len(g.cursors)]
		g.turn++
		if row, ok := c.NextRow(); ok {
			return row, ok
		}
	}
	return nil, false
}

// grid is the prepared state shared by the concrete policies.
type grid struct {
	layout *model.LayoutTemplate
	slots  []*model.LayoutSlot
	groups map[string]*sourceGroup
}

func prepareGrid(layout *model.LayoutTemplate, sources Sources) (*grid, error) {
	if layout == nil || layout.SlotCount() == 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "layout has no slots")
	}
	g := &grid{
		layout: layout,
		slots:  layout.Slots(),
		groups: make(map[string]*sourceGroup),
	}
	for pid, cursors := range sources {
		if len(cursors) > 0 {
			g.groups[pid] = &sourceGroup{cursors: cursors}
		}
	}
	return g, nil
}

// group returns the dataset group feeding the slot's template, or nil for
// a static or unassigned slot.
func (g *grid) group(slot *model.LayoutSlot) *sourceGroup {
	tpl := slot.Template()
	if tpl == nil {
		return nil
	}
	return g.groups[tpl.PID()]
}

// Params are the policy tuning knobs persisted in the layout template.
type Params map[string]string

func (p Params) str(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

func (p Params) intVal(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeConfiguration, err, "policy param %q must be an integer", key)
	}
	return n, nil
}

func (p Params) floatVal(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeConfiguration, err, "policy param %q must be a number", key)
	}
	return f, nil
}

func (p Params) boolVal(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeConfiguration, err, "policy param %q must be a boolean", key)
	}
	return b, nil
}

// DefaultPolicy names the policy used when a layout specifies none.
const DefaultPolicy = "interleave"

// policyTable is the closed name-to-constructor table. Layout files persist
// these names; the long aliases match older documents.
var policyTable = map[string]func(Params) (Policy, error){
	"interleave":            newInterleave,
	"InterleaveDatasets":    newInterleave,
	"cluster":               newCluster,
	"ClusterByDataset":      newCluster,
	"static-first-row":      newStaticFirstRow,
	"StaticFirstRow":        newStaticFirstRow,
	"duplex":                newDuplex,
	"DuplexInterleave":      newDuplex,
	"tile-oversize":         newTileOversize,
	"TileOversizeComponent": newTileOversize,
	"static-cluster":        newStaticCluster,
	"StaticCluster":         newStaticCluster,
}

// New builds the named policy. Unknown names fail with CONFIGURATION_ERROR.
func New(name string, params Params) (Policy, error) {
	if name == "" {
		name = DefaultPolicy
	}
	build, ok := policyTable[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeConfiguration,
			"unknown pagination policy %q (registered: %v)", name, PolicyNames())
	}
	return build(params)
}

// PolicyNames returns the canonical policy names, sorted.
func PolicyNames() []string {
	seen := make(map[string]bool)
	var out []string
	for name := range policyTable {
		if name[0] >= 'a' && name[0] <= 'z' && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
